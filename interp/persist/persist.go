// Package persist supplies the durable backing stores a mount statement
// writes through: an in-memory Store for tests and the sync fast path, and
// a MongoDB-backed Store for a process that wants mounted bindings to
// survive a restart. Both sit behind the same narrow interface so the
// interpreter never sees the driver.
package persist

import (
	"context"
	"fmt"
	"sync"

	"github.com/Brahmastra-Labs/logicaffeine-sub002/interp"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Memory is an in-process interp.Store backed by a mutex-guarded map. It
// satisfies every mount statement's semantics within the lifetime of one
// interpreter run; nothing survives process exit.
type Memory struct {
	mu   sync.RWMutex
	vals map[string]interp.Value
}

// NewMemory builds an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{vals: make(map[string]interp.Value)}
}

func (m *Memory) Put(_ context.Context, name string, v interp.Value) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.vals[name] = v
	return nil
}

func (m *Memory) Get(_ context.Context, name string) (interp.Value, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.vals[name]
	return v, ok, nil
}

// mountDocument is the on-disk shape of one mounted binding.
type mountDocument struct {
	Name  string `bson:"_id"`
	Value bson.M `bson:"value"`
}

// Mongo is an interp.Store backed by a MongoDB collection, one document per
// mounted name, upserted on every Put.
type Mongo struct {
	collection *mongo.Collection
}

// NewMongo wraps an existing collection handle; the caller owns the client
// lifecycle (connect/disconnect), matching how the rest of this codebase's
// storage wrappers take a pre-dialed client rather than owning the dial.
func NewMongo(collection *mongo.Collection) *Mongo {
	return &Mongo{collection: collection}
}

func (m *Mongo) Put(ctx context.Context, name string, v interp.Value) error {
	encoded, err := EncodeValue(v)
	if err != nil {
		return fmt.Errorf("persist: encode %q: %w", name, err)
	}
	opts := options.Replace().SetUpsert(true)
	_, err = m.collection.ReplaceOne(ctx, bson.M{"_id": name}, mountDocument{Name: name, Value: encoded}, opts)
	if err != nil {
		return fmt.Errorf("persist: put %q: %w", name, err)
	}
	return nil
}

func (m *Mongo) Get(ctx context.Context, name string) (interp.Value, bool, error) {
	var doc mountDocument
	err := m.collection.FindOne(ctx, bson.M{"_id": name}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("persist: get %q: %w", name, err)
	}
	val, err := DecodeValue(doc.Value)
	if err != nil {
		return nil, false, fmt.Errorf("persist: decode %q: %w", name, err)
	}
	return val, true, nil
}
