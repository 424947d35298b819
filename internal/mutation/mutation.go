// Package mutation wraps remote operations as re-invokable, observable units.
//
// A Mutation has four states: Idle, Pending, Success and Error. Each invocation
// is numbered; only the most recent invocation may write the observable state,
// so a slow early response never overwrites a fast later one. A Result whose
// Error is set is surfaced as a returned error at this boundary.
package mutation

import (
	"context"
	"sync"

	"github.com/charmbracelet/log"

	"lexshell/internal/logger"
	"lexshell/pkg/lextypes"
)

// Status is the observable lifecycle of a Mutation.
type Status int

// Mutation states.
const (
	StatusIdle Status = iota
	StatusPending
	StatusSuccess
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusPending:
		return "pending"
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	}
	return "unknown"
}

// Fn is a remote operation returning a result envelope.
type Fn[Req, Resp any] func(ctx context.Context, req Req) lextypes.Result[Resp]

// State is a snapshot of a Mutation.
type State[Resp any] struct {
	Status Status
	Data   Resp
	Err    error
	Count  int
	Seq    uint64
}

// IsPending reports whether the latest invocation is in flight.
func (s State[Resp]) IsPending() bool { return s.Status == StatusPending }

// Callbacks are invoked by Mutate once its invocation settles, and only when
// that invocation is still the latest one.
type Callbacks[Resp any] struct {
	OnSuccess func(data Resp)
	OnError   func(err error)
	OnSettled func(data Resp, err error)
}

// Mutation is a stateful wrapper around one remote operation.
type Mutation[Req, Resp any] struct {
	key string
	fn  Fn[Req, Resp]
	log *log.Logger

	mu        sync.Mutex
	notifyMu  sync.Mutex
	seq       uint64
	state     State[Resp]
	listeners map[int]func(State[Resp])
	nextID    int
	wg        sync.WaitGroup
}

// New creates a Mutation identified by key.
func New[Req, Resp any](key string, fn Fn[Req, Resp]) *Mutation[Req, Resp] {
	return &Mutation[Req, Resp]{
		key:       key,
		fn:        fn,
		log:       logger.NewStyledLogger("mutation"),
		listeners: make(map[int]func(State[Resp])),
	}
}

// Key returns the stable identity of the mutation.
func (m *Mutation[Req, Resp]) Key() string {
	return m.key
}

// Snapshot returns the current observable state.
func (m *Mutation[Req, Resp]) Snapshot() State[Resp] {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Subscribe registers a listener called after every state change.
// Listeners always receive the current state, one delivery at a time, and
// must not invoke the same mutation. It returns a function that removes the
// listener.
func (m *Mutation[Req, Resp]) Subscribe(fn func(State[Resp])) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextID
	m.nextID++
	m.listeners[id] = fn
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.listeners, id)
	}
}

// MutateAsync runs the operation and blocks until it settles.
// It always returns this invocation's own outcome, even when a later
// invocation has since taken over the observable state.
func (m *Mutation[Req, Resp]) MutateAsync(ctx context.Context, req Req) (Resp, error) {
	seq := m.begin()
	data, _, err := m.run(ctx, seq, req)
	return data, err
}

// Mutate runs the operation in the background and returns its sequence number.
// Callbacks fire only if the invocation is still the latest when it settles.
func (m *Mutation[Req, Resp]) Mutate(ctx context.Context, req Req, cb Callbacks[Resp]) uint64 {
	seq := m.begin()
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		data, latest, err := m.run(ctx, seq, req)
		if !latest {
			return
		}
		if err != nil && cb.OnError != nil {
			cb.OnError(err)
		}
		if err == nil && cb.OnSuccess != nil {
			cb.OnSuccess(data)
		}
		if cb.OnSettled != nil {
			cb.OnSettled(data, err)
		}
	}()
	return seq
}

// Wait blocks until every background invocation started by Mutate has settled.
func (m *Mutation[Req, Resp]) Wait() {
	m.wg.Wait()
}

// Reset returns the mutation to Idle. In-flight invocations can no longer
// write the observable state.
func (m *Mutation[Req, Resp]) Reset() {
	m.mu.Lock()
	m.seq++
	m.state = State[Resp]{Status: StatusIdle, Seq: m.seq}
	m.mu.Unlock()

	m.publish()
}

func (m *Mutation[Req, Resp]) begin() uint64 {
	m.mu.Lock()
	m.seq++
	seq := m.seq
	m.state = State[Resp]{Status: StatusPending, Seq: seq}
	m.mu.Unlock()

	m.log.Debug("Mutation started", "key", m.key, "seq", seq)
	m.publish()
	return seq
}

func (m *Mutation[Req, Resp]) run(ctx context.Context, seq uint64, req Req) (Resp, bool, error) {
	res := m.fn(ctx, req)

	var err error
	if res.Error != nil {
		err = res.Error
	}

	m.mu.Lock()
	latest := seq == m.seq
	status := StatusSuccess
	if err != nil {
		status = StatusError
	}
	if latest {
		m.state = State[Resp]{Status: status, Data: res.Data, Err: err, Count: res.Count, Seq: seq}
	}
	m.mu.Unlock()

	if !latest {
		m.log.Debug("Discarded stale mutation result", "key", m.key, "seq", seq)
		return res.Data, false, err
	}
	m.log.Debug("Mutation settled", "key", m.key, "seq", seq, "status", status.String())
	m.publish()
	return res.Data, true, err
}

// publish delivers the state as it is at delivery time. Deliveries are
// serialized, so the last one a listener sees is the latest state even when
// an older invocation's notification runs late.
func (m *Mutation[Req, Resp]) publish() {
	m.notifyMu.Lock()
	defer m.notifyMu.Unlock()

	m.mu.Lock()
	state := m.state
	listeners := make([]func(State[Resp]), 0, len(m.listeners))
	for _, fn := range m.listeners {
		listeners = append(listeners, fn)
	}
	m.mu.Unlock()

	for _, fn := range listeners {
		fn(state)
	}
}
