package interp

import (
	"context"

	"github.com/Brahmastra-Labs/logicaffeine-sub002/intern"
)

// PipeTransport backs send/receive/select on a named pipe with something
// other than an in-process Go channel; package interp/syncedvar supplies a
// Redis-backed implementation so pipes can cross a process boundary.
type PipeTransport interface {
	Send(ctx context.Context, name string, v Value) error
	// Receive blocks until a value is available or ctx is done.
	Receive(ctx context.Context, name string) (Value, error)
	// TryReceive returns immediately, reporting false if nothing was queued.
	TryReceive(ctx context.Context, name string) (Value, bool, error)
}

// Pipes is the channel registry backing send/receive/select on a named
// pipe; pipes are created lazily on first reference. When Transport is nil
// (the default), pipes are purely in-process Go channels; setting Transport
// routes every pipe through it instead, for a distributed run.
type Pipes struct {
	in        *intern.Interner
	byName    map[intern.Symbol]chan Value
	Transport PipeTransport
}

// NewPipes builds a purely in-process pipe registry.
func NewPipes() *Pipes { return &Pipes{byName: map[intern.Symbol]chan Value{}} }

// NewTransportPipes builds a pipe registry that routes every named pipe
// through transport instead of a local channel.
func NewTransportPipes(in *intern.Interner, transport PipeTransport) *Pipes {
	return &Pipes{in: in, byName: map[intern.Symbol]chan Value{}, Transport: transport}
}

func (p *Pipes) chanFor(name intern.Symbol) chan Value {
	ch, ok := p.byName[name]
	if !ok {
		ch = make(chan Value, 16)
		p.byName[name] = ch
	}
	return ch
}

func (p *Pipes) send(ctx context.Context, name intern.Symbol, v Value) error {
	if p.Transport != nil {
		return p.Transport.Send(ctx, p.in.MustResolve(name), v)
	}
	select {
	case p.chanFor(name) <- v:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Pipes) receive(ctx context.Context, name intern.Symbol) (Value, error) {
	if p.Transport != nil {
		return p.Transport.Receive(ctx, p.in.MustResolve(name))
	}
	select {
	case v := <-p.chanFor(name):
		return v, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// tryReceive is the non-blocking poll used by SelectStmt.
func (p *Pipes) tryReceive(ctx context.Context, name intern.Symbol) (Value, bool, error) {
	if p.Transport != nil {
		return p.Transport.TryReceive(ctx, p.in.MustResolve(name))
	}
	select {
	case v := <-p.chanFor(name):
		return v, true, nil
	default:
		return nil, false, nil
	}
}
