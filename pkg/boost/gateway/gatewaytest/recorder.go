// Package gatewaytest provides a recording gateway for tests.
package gatewaytest

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/jamesainslie/boost/pkg/boost/gateway"
)

// Call is one recorded gateway invocation.
type Call struct {
	Op       string
	ID       string
	Enable   bool
	MTU      int
	Plan     gateway.PowerPlan
	Priority gateway.Priority
}

// ErrInjected is returned for calls configured to fail with FailWith.
var ErrInjected = errors.New("injected failure")

// Recorder records every call and succeeds unless told otherwise.
type Recorder struct {
	mu      sync.Mutex
	calls   []Call
	failIDs map[string]bool
	errIDs  map[string]bool
	block   chan struct{}

	// OnCall, when set, runs after a call is recorded and before it returns.
	OnCall func(Call)
}

var _ gateway.Gateway = (*Recorder)(nil)

func New() *Recorder {
	return &Recorder{failIDs: map[string]bool{}, errIDs: map[string]bool{}}
}

// Fail makes calls for id (a tweak id or process name) return an
// unsuccessful Result.
func (r *Recorder) Fail(ids ...string) *Recorder {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range ids {
		r.failIDs[id] = true
	}
	return r
}

// FailWith makes calls for id return ErrInjected.
func (r *Recorder) FailWith(ids ...string) *Recorder {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range ids {
		r.errIDs[id] = true
	}
	return r
}

// Block makes every call wait until the returned release func runs or the
// call's context ends.
func (r *Recorder) Block() (release func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ch := make(chan struct{})
	r.block = ch
	var once sync.Once
	return func() { once.Do(func() { close(ch) }) }
}

// Calls returns a copy of the recorded calls.
func (r *Recorder) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Call(nil), r.calls...)
}

// TweakCalls returns "id:on" / "id:off" for each ApplyTweak call in order.
func (r *Recorder) TweakCalls() []string {
	var out []string
	for _, c := range r.Calls() {
		if c.Op != "tweak" {
			continue
		}
		state := "off"
		if c.Enable {
			state = "on"
		}
		out = append(out, c.ID+":"+state)
	}
	return out
}

// Reset drops recorded calls.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = nil
}

func (r *Recorder) record(ctx context.Context, c Call) (gateway.Result, error) {
	r.mu.Lock()
	r.calls = append(r.calls, c)
	failed, errored, block := r.failIDs[c.ID], r.errIDs[c.ID], r.block
	r.mu.Unlock()

	if r.OnCall != nil {
		r.OnCall(c)
	}
	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return gateway.Result{}, ctx.Err()
		}
	}

	switch {
	case errored:
		return gateway.Result{}, fmt.Errorf("%s %s: %w", c.Op, c.ID, ErrInjected)
	case failed:
		return gateway.Result{Success: false, Message: "simulated failure for " + c.ID}, nil
	}
	return gateway.Result{Success: true, Message: c.Op + " " + c.ID + " ok"}, nil
}

func (r *Recorder) ApplyTweak(ctx context.Context, id string, enable bool) (gateway.Result, error) {
	return r.record(ctx, Call{Op: "tweak", ID: id, Enable: enable})
}

func (r *Recorder) ApplyNetworkSetting(ctx context.Context, mtu int) (gateway.Result, error) {
	if err := gateway.ValidateMTU(mtu); err != nil {
		return gateway.Result{}, err
	}
	return r.record(ctx, Call{Op: "mtu", MTU: mtu})
}

func (r *Recorder) ApplyPowerPlan(ctx context.Context, plan gateway.PowerPlan) (gateway.Result, error) {
	return r.record(ctx, Call{Op: "power", ID: plan.String(), Plan: plan})
}

func (r *Recorder) FlushDNSCache(ctx context.Context) (gateway.Result, error) {
	return r.record(ctx, Call{Op: "dns"})
}

func (r *Recorder) SetProcessPriority(ctx context.Context, name string, p gateway.Priority) (gateway.Result, error) {
	return r.record(ctx, Call{Op: "priority", ID: name, Priority: p})
}
