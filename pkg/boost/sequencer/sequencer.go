// Package sequencer drives boost activation and revert.
//
// Activation applies the enabled tweaks in registry order and records
// their ids as the armed set. Deactivation reverts exactly the armed set,
// whatever the registry says by then, so that the system is returned to
// the state boost found it in. Steps run one at a time; a failing step is
// logged and skipped.
package sequencer

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/jamesainslie/boost/pkg/boost/activity"
	"github.com/jamesainslie/boost/pkg/boost/broadcaster"
	"github.com/jamesainslie/boost/pkg/boost/gateway"
	"github.com/jamesainslie/boost/pkg/boost/logging"
	"github.com/jamesainslie/boost/pkg/boost/tweak"
)

// Activity log messages.
const (
	MsgStarting    = "Starting Boost Mode..."
	MsgFinalizing  = "Finalizing..."
	MsgEnabled     = "Boost Enabled Successfully"
	MsgReverting   = "Boost Mode Disabled. Reverting..."
	MsgDisabled    = "Boost Disabled Successfully"
	applyingPrefix = "Applying: "
	revertPrefix   = "Reverting: "
)

// progressCeiling caps activation progress until the finalize step.
const progressCeiling = 99

// Timing paces a cycle. Zero values make a cycle run without pauses.
type Timing struct {
	StepDelay       time.Duration
	FinalizeDelay   time.Duration
	RevertStepDelay time.Duration
	SettleDelay     time.Duration
}

// Manifest persists the armed set so a crashed session can still be
// reverted.
type Manifest interface {
	SaveArmed(ids []string) error
	ClearArmed() error
}

// SleepFunc waits for d or until ctx ends.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Options configures New.
type Options struct {
	Timing   Timing
	Sleep    SleepFunc
	Manifest Manifest
}

// Sequencer owns the boost session.
type Sequencer struct {
	reg *tweak.Registry
	gw  gateway.Gateway
	log *activity.Log

	sleep    SleepFunc
	manifest Manifest
	logger   *logging.Logger
	bcast    *broadcaster.Broadcaster[Snapshot]

	mu       sync.Mutex
	timing   Timing
	state    State
	progress float64
	armed    []string
	current  string
	done     chan struct{} // closed when the running cycle ends
}

func New(reg *tweak.Registry, gw gateway.Gateway, log *activity.Log, opts Options) *Sequencer {
	s := &Sequencer{
		reg:      reg,
		gw:       gw,
		log:      log,
		sleep:    opts.Sleep,
		manifest: opts.Manifest,
		timing:   opts.Timing,
		logger:   logging.Get("sequencer"),
		bcast:    broadcaster.New[Snapshot](),
	}
	if s.sleep == nil {
		s.sleep = Sleep
	}
	return s
}

// Sleep is the default SleepFunc.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// SetTiming changes pacing for cycles started afterwards.
func (s *Sequencer) SetTiming(t Timing) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.timing = t
}

// Snapshot returns the current session view.
func (s *Sequencer) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Sequencer) snapshotLocked() Snapshot {
	return Snapshot{
		State:    s.state,
		Progress: s.progress,
		Armed:    slices.Clone(s.armed),
		Current:  s.current,
	}
}

// Subscribe streams a snapshot after every state or progress change.
func (s *Sequencer) Subscribe() (<-chan Snapshot, func()) {
	sub := s.bcast.Subscribe(nil)
	if sub == nil {
		ch := make(chan Snapshot)
		close(ch)
		return ch, func() {}
	}
	return sub.C, func() { s.bcast.Unsubscribe(sub.ID) }
}

// Close ends all subscriptions.
func (s *Sequencer) Close() {
	s.bcast.Close()
}

// update mutates session fields under the lock and publishes the result.
func (s *Sequencer) update(fn func()) {
	s.mu.Lock()
	fn()
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.bcast.Publish(snap)
}

// begin claims the session for a cycle of kind next. It returns the
// timing to use.
func (s *Sequencer) begin(next State) (Timing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case s.state.InProgress():
		return Timing{}, ErrBusy
	case next == Activating && s.state == Active:
		return Timing{}, ErrAlreadyActive
	case next == Deactivating && s.state == Idle:
		return Timing{}, ErrNotActive
	}
	s.state = next
	s.done = make(chan struct{})
	return s.timing, nil
}

func (s *Sequencer) finish(final State, progress float64, armed []string) {
	s.update(func() {
		s.state = final
		s.progress = progress
		s.armed = armed
		s.current = ""
		close(s.done)
		s.done = nil
	})
}

// Activate runs an activation cycle to completion.
func (s *Sequencer) Activate(ctx context.Context) error {
	timing, err := s.begin(Activating)
	if err != nil {
		return err
	}
	s.activate(ctx, timing)
	return nil
}

// Deactivate runs a revert cycle to completion.
func (s *Sequencer) Deactivate(ctx context.Context) error {
	timing, err := s.begin(Deactivating)
	if err != nil {
		return err
	}
	s.deactivate(ctx, timing)
	return nil
}

// Toggle activates when idle and deactivates when active.
func (s *Sequencer) Toggle(ctx context.Context) error {
	done, err := s.StartToggle(ctx)
	if err != nil {
		return err
	}
	<-done
	return nil
}

// StartActivate claims the session and runs activation in the background.
// The returned channel closes when the cycle ends.
func (s *Sequencer) StartActivate(ctx context.Context) (<-chan struct{}, error) {
	timing, err := s.begin(Activating)
	if err != nil {
		return nil, err
	}
	return s.background(func() { s.activate(ctx, timing) }), nil
}

// StartDeactivate is the background form of Deactivate.
func (s *Sequencer) StartDeactivate(ctx context.Context) (<-chan struct{}, error) {
	timing, err := s.begin(Deactivating)
	if err != nil {
		return nil, err
	}
	return s.background(func() { s.deactivate(ctx, timing) }), nil
}

// StartToggle is the background form of Toggle.
func (s *Sequencer) StartToggle(ctx context.Context) (<-chan struct{}, error) {
	s.mu.Lock()
	state := s.state
	s.mu.Unlock()

	switch state {
	case Active:
		return s.StartDeactivate(ctx)
	case Idle:
		return s.StartActivate(ctx)
	}
	return nil, ErrBusy
}

func (s *Sequencer) background(run func()) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		run()
	}()
	return done
}

// Wait blocks until no cycle is running or ctx ends.
func (s *Sequencer) Wait(ctx context.Context) error {
	for {
		s.mu.Lock()
		done := s.done
		s.mu.Unlock()
		if done == nil {
			return nil
		}
		select {
		case <-done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Recover marks the session active with a previously persisted armed set,
// so that the next Deactivate reverts it. It does nothing unless the
// session is idle and armed is non-empty.
func (s *Sequencer) Recover(armed []string) bool {
	if len(armed) == 0 {
		return false
	}
	s.mu.Lock()
	if s.state != Idle {
		s.mu.Unlock()
		return false
	}
	s.state = Active
	s.progress = 100
	s.armed = slices.Clone(armed)
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.bcast.Publish(snap)
	s.logger.Info("recovered active boost session", "armed", armed)
	s.log.Appendf("Recovered active boost session (%d tweaks armed)", len(armed))
	return true
}

// Shutdown waits for a running cycle and reverts an active boost.
func (s *Sequencer) Shutdown(ctx context.Context) error {
	if err := s.Wait(ctx); err != nil {
		return err
	}
	err := s.Deactivate(ctx)
	if errors.Is(err, ErrNotActive) {
		return nil
	}
	return err
}

func (s *Sequencer) activate(ctx context.Context, timing Timing) {
	enabled := s.reg.Enabled()
	armed := tweak.IDs(enabled)
	stepCtx := context.WithoutCancel(ctx)

	if s.manifest != nil {
		if err := s.manifest.SaveArmed(armed); err != nil {
			s.logger.Warn("saving armed tweaks failed", "err", err)
		}
	}

	step := 100 / float64(len(enabled)+2)
	s.update(func() {
		s.armed = armed
		s.progress = 0
	})
	s.log.Append(MsgStarting)
	s.logger.Info("activation started", "tweaks", armed)

	for _, t := range enabled {
		s.update(func() { s.current = t.Label })
		s.log.Append(applyingPrefix + t.Label)

		msg, ok := gateway.Outcome(s.gw.ApplyTweak(stepCtx, t.ID, true))
		if !ok {
			s.log.Warnf("%s: %s", t.Label, msg)
			s.logger.Warn("tweak failed", "tweak", t.ID, "err", msg)
		}

		s.pause(ctx, timing.StepDelay)
		s.update(func() { s.progress = min(s.progress+step, progressCeiling) })
	}

	s.update(func() { s.current = "" })
	s.log.Append(MsgFinalizing)
	s.pause(ctx, timing.FinalizeDelay)

	s.finish(Active, 100, armed)
	s.log.Append(MsgEnabled)
	s.logger.Info("activation finished", "tweaks", len(armed))
}

func (s *Sequencer) deactivate(ctx context.Context, timing Timing) {
	s.mu.Lock()
	revert := slices.Clone(s.armed)
	s.mu.Unlock()

	if len(revert) == 0 {
		revert = tweak.IDs(s.reg.Enabled())
		s.logger.Warn("armed set empty, reverting currently enabled tweaks", "tweaks", revert)
	}
	stepCtx := context.WithoutCancel(ctx)

	s.update(func() { s.progress = 100 })
	s.log.Append(MsgReverting)
	s.logger.Info("revert started", "tweaks", revert)

	step := 100 / float64(max(len(revert), 1))
	for _, id := range revert {
		label := s.reg.Label(id)
		s.update(func() { s.current = label })
		s.log.Append(revertPrefix + label)

		msg, ok := gateway.Outcome(s.gw.ApplyTweak(stepCtx, id, false))
		if !ok {
			s.log.Warnf("%s: %s", label, msg)
			s.logger.Warn("revert failed", "tweak", id, "err", msg)
		}

		s.pause(ctx, timing.RevertStepDelay)
		s.update(func() { s.progress = max(s.progress-step, 0) })
	}

	s.update(func() { s.current = "" })
	s.pause(ctx, timing.SettleDelay)

	if s.manifest != nil {
		if err := s.manifest.ClearArmed(); err != nil {
			s.logger.Warn("clearing armed tweaks failed", "err", err)
		}
	}

	s.finish(Idle, 0, nil)
	s.log.Append(MsgDisabled)
	s.logger.Info("revert finished", "tweaks", len(revert))
}

// pause honours ctx only to cut the wait short; the cycle carries on.
func (s *Sequencer) pause(ctx context.Context, d time.Duration) {
	_ = s.sleep(ctx, d)
}
