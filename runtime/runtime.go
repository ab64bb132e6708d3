// Copyright (c) 2025 The Companion Network developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package runtime drives contract execution with transactional semantics.
// Every entry point runs under a global lock against a state checkpoint and
// is rolled back entirely if it fails.
package runtime

import (
	"sync"
	"time"

	"github.com/companion-network/cnu/log"
	"github.com/companion-network/cnu/metrics"
	"github.com/companion-network/cnu/state"
)

var (
	logger = log.WithContext("pkg", "runtime")

	metricExecutions = metrics.LazyLoadCounterVec("executions_total", []string{"outcome"})
	metricEvents     = metrics.LazyLoadCounter("events_emitted_total")
)

// EventSink receives events of successfully finished executions.
type EventSink func(time uint64, events []Event)

// Runtime serializes executions over a shared state.
type Runtime struct {
	mu    sync.Mutex
	state *state.State
	now   func() uint64
	sinks []EventSink

	pending []Event // events of the execution in flight
}

// Option configures a Runtime.
type Option func(*Runtime)

// WithClock overrides the time source, mainly for tests.
func WithClock(now func() uint64) Option {
	return func(rt *Runtime) { rt.now = now }
}

// New creates a runtime over the given state.
func New(st *state.State, opts ...Option) *Runtime {
	rt := &Runtime{
		state: st,
		now:   func() uint64 { return uint64(time.Now().Unix()) },
	}
	for _, opt := range opts {
		opt(rt)
	}
	return rt
}

// SubscribeEvents registers a sink invoked after each successful execution.
func (rt *Runtime) SubscribeEvents(sink EventSink) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.sinks = append(rt.sinks, sink)
}

// State returns the underlying state. Mutating it outside Execute
// bypasses the transactional envelope.
func (rt *Runtime) State() *state.State {
	return rt.state
}

// Env is the execution environment visible to contracts.
type Env struct {
	rt   *Runtime
	time uint64
}

// State returns the state being executed against.
func (e *Env) State() *state.State {
	return e.rt.state
}

// Now returns the execution timestamp in unix seconds.
// It is fixed for the whole execution.
func (e *Env) Now() uint64 {
	return e.time
}

// Emit records an event. It is discarded if the execution fails.
func (e *Env) Emit(ev Event) {
	e.rt.pending = append(e.rt.pending, ev)
}

// View runs fn under the execution lock and discards any state change
// or event it produces. Meant for read-only queries.
func (rt *Runtime) View(fn func(env *Env) error) error {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	env := &Env{rt: rt, time: rt.now()}
	checkpoint := rt.state.NewCheckpoint()
	err := fn(env)
	rt.state.RevertTo(checkpoint)
	rt.pending = rt.pending[:0]
	return err
}

// Execute runs fn against a checkpoint of the state.
// On error every state change and event of fn is dropped.
// On success changes are committed to the backing store and
// events are flushed to the subscribed sinks.
func (rt *Runtime) Execute(fn func(env *Env) error) error {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	env := &Env{rt: rt, time: rt.now()}
	rt.pending = rt.pending[:0]

	checkpoint := rt.state.NewCheckpoint()
	if err := fn(env); err != nil {
		rt.state.RevertTo(checkpoint)
		rt.pending = rt.pending[:0]
		metricExecutions().AddWithLabel(1, map[string]string{"outcome": "reverted"})
		logger.Debug("execution reverted", "err", err)
		return err
	}

	if err := rt.state.Commit(); err != nil {
		rt.state.RevertTo(checkpoint)
		rt.pending = rt.pending[:0]
		metricExecutions().AddWithLabel(1, map[string]string{"outcome": "commit-failed"})
		logger.Error("commit failed", "err", err)
		return err
	}

	metricExecutions().AddWithLabel(1, map[string]string{"outcome": "ok"})
	if n := len(rt.pending); n > 0 {
		metricEvents().Add(int64(n))
		events := make([]Event, n)
		copy(events, rt.pending)
		rt.pending = rt.pending[:0]
		for _, sink := range rt.sinks {
			sink(env.time, events)
		}
	}
	return nil
}
