// Package syncedvar supplies a Redis-backed interp.PipeTransport, so a pipe's
// send/receive/select can cross a process boundary instead of staying a
// purely in-process Go channel. Redis list operations stand in for a
// channel: RPush is send, BLPop is a blocking receive, LPop is the
// non-blocking poll select needs.
package syncedvar

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Brahmastra-Labs/logicaffeine-sub002/interp"
	"github.com/redis/go-redis/v9"
)

// keyPrefix namespaces pipe names inside the keyspace so a syncedvar
// deployment can share a Redis instance with other uses.
const keyPrefix = "logos:pipe:"

// RedisPipes is an interp.PipeTransport backed by Redis lists, one list per
// pipe name.
type RedisPipes struct {
	client *redis.Client
	// pollInterval bounds how often Receive retries after a BLPop timeout;
	// Redis clients don't block forever on BLPop in this wrapper so ctx
	// cancellation is still observed promptly.
	pollInterval time.Duration
}

// NewRedisPipes wraps an existing client; the caller owns its lifecycle.
func NewRedisPipes(client *redis.Client) *RedisPipes {
	return &RedisPipes{client: client, pollInterval: 2 * time.Second}
}

func key(name string) string { return keyPrefix + name }

func (r *RedisPipes) Send(ctx context.Context, name string, v interp.Value) error {
	encoded, err := Encode(v)
	if err != nil {
		return fmt.Errorf("syncedvar: encode pipe %q: %w", name, err)
	}
	if err := r.client.RPush(ctx, key(name), encoded).Err(); err != nil {
		return fmt.Errorf("syncedvar: send pipe %q: %w", name, err)
	}
	return nil
}

func (r *RedisPipes) Receive(ctx context.Context, name string) (interp.Value, error) {
	for {
		result, err := r.client.BLPop(ctx, r.pollInterval, key(name)).Result()
		if errors.Is(err, redis.Nil) {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			default:
				continue
			}
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, fmt.Errorf("syncedvar: receive pipe %q: %w", name, err)
		}
		// BLPop on a single key returns [key, value].
		if len(result) != 2 {
			return nil, fmt.Errorf("syncedvar: receive pipe %q: unexpected reply shape", name)
		}
		return Decode(result[1])
	}
}

func (r *RedisPipes) TryReceive(ctx context.Context, name string) (interp.Value, bool, error) {
	encoded, err := r.client.LPop(ctx, key(name)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("syncedvar: try-receive pipe %q: %w", name, err)
	}
	val, err := Decode(encoded)
	if err != nil {
		return nil, false, err
	}
	return val, true, nil
}
