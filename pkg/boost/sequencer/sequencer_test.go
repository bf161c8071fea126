package sequencer_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamesainslie/boost/pkg/boost/activity"
	"github.com/jamesainslie/boost/pkg/boost/gateway/gatewaytest"
	"github.com/jamesainslie/boost/pkg/boost/sequencer"
	"github.com/jamesainslie/boost/pkg/boost/tweak"
)

type harness struct {
	reg *tweak.Registry
	gw  *gatewaytest.Recorder
	log *activity.Log
	seq *sequencer.Sequencer
}

func newHarness(t *testing.T, tweaks []tweak.Tweak, opts sequencer.Options) *harness {
	t.Helper()
	h := &harness{
		reg: tweak.NewRegistryFrom(tweaks),
		gw:  gatewaytest.New(),
		log: activity.New(),
	}
	h.seq = sequencer.New(h.reg, h.gw, h.log, opts)
	t.Cleanup(h.seq.Close)
	return h
}

func (h *harness) messages() []string {
	var out []string
	for _, e := range h.log.Entries() {
		out = append(out, e.Message)
	}
	return out
}

func scenarioTweaks() []tweak.Tweak {
	return []tweak.Tweak{
		{ID: "cortana", Label: "Disable Cortana", Category: tweak.Privacy, Enabled: true},
		{ID: "ram", Label: "Auto RAM Flush", Category: tweak.System, Enabled: true},
		{ID: "power", Label: "High Perf. Power Plan", Category: tweak.System, Enabled: false},
	}
}

func TestConcreteScenario(t *testing.T) {
	h := newHarness(t, scenarioTweaks(), sequencer.Options{})
	ctx := context.Background()

	require.NoError(t, h.seq.Activate(ctx))
	snap := h.seq.Snapshot()
	assert.Equal(t, sequencer.Active, snap.State)
	assert.Equal(t, 100.0, snap.Progress)
	assert.Equal(t, []string{"cortana", "ram"}, snap.Armed)
	assert.Equal(t, []string{"cortana:on", "ram:on"}, h.gw.TweakCalls())

	h.reg.SetEnabled("power", true)
	h.gw.Reset()

	require.NoError(t, h.seq.Deactivate(ctx))
	snap = h.seq.Snapshot()
	assert.Equal(t, sequencer.Idle, snap.State)
	assert.Zero(t, snap.Progress)
	assert.Empty(t, snap.Armed)
	assert.Equal(t, []string{"cortana:off", "ram:off"}, h.gw.TweakCalls())

	assert.Equal(t, []string{
		"Starting Boost Mode...",
		"Applying: Disable Cortana",
		"Applying: Auto RAM Flush",
		"Finalizing...",
		"Boost Enabled Successfully",
		"Boost Mode Disabled. Reverting...",
		"Reverting: Disable Cortana",
		"Reverting: Auto RAM Flush",
		"Boost Disabled Successfully",
	}, h.messages())
}

func TestSnapshotInvariance(t *testing.T) {
	tweaks := []tweak.Tweak{
		{ID: "A", Label: "A", Enabled: true},
		{ID: "B", Label: "B", Enabled: true},
		{ID: "C", Label: "C", Enabled: false},
	}
	h := newHarness(t, tweaks, sequencer.Options{})
	ctx := context.Background()

	require.NoError(t, h.seq.Activate(ctx))
	h.reg.SetEnabled("C", true)
	h.reg.SetEnabled("A", false)
	h.gw.Reset()

	require.NoError(t, h.seq.Deactivate(ctx))
	assert.Equal(t, []string{"A:off", "B:off"}, h.gw.TweakCalls())
}

func collect(ch <-chan sequencer.Snapshot) func() []sequencer.Snapshot {
	var (
		mu   sync.Mutex
		out  []sequencer.Snapshot
		done = make(chan struct{})
	)
	go func() {
		defer close(done)
		for s := range ch {
			mu.Lock()
			out = append(out, s)
			mu.Unlock()
		}
	}()
	return func() []sequencer.Snapshot {
		<-done
		mu.Lock()
		defer mu.Unlock()
		return out
	}
}

func TestProgressMonotonic(t *testing.T) {
	tweaks := tweak.Catalog()
	for i := range tweaks {
		tweaks[i].Enabled = true
	}
	h := newHarness(t, tweaks, sequencer.Options{})
	ctx := context.Background()

	ch, cancel := h.seq.Subscribe()
	wait := collect(ch)

	require.NoError(t, h.seq.Activate(ctx))
	require.NoError(t, h.seq.Deactivate(ctx))
	cancel()
	snaps := wait()
	require.NotEmpty(t, snaps)

	var prev float64
	phase := sequencer.Activating
	for _, s := range snaps {
		switch s.State {
		case sequencer.Activating:
			require.Equal(t, sequencer.Activating, phase)
			assert.GreaterOrEqual(t, s.Progress, prev)
			assert.LessOrEqual(t, s.Progress, 99.0)
		case sequencer.Active:
			assert.Equal(t, 100.0, s.Progress)
			phase = sequencer.Deactivating
		case sequencer.Deactivating:
			require.Equal(t, sequencer.Deactivating, phase)
			assert.LessOrEqual(t, s.Progress, prev)
			assert.GreaterOrEqual(t, s.Progress, 0.0)
		case sequencer.Idle:
			assert.Zero(t, s.Progress)
		}
		prev = s.Progress
	}
	assert.Equal(t, sequencer.Idle, snaps[len(snaps)-1].State)
}

func TestActivationStepSize(t *testing.T) {
	// two tweaks: step = 100/4 = 25, so progress goes 25, 50, then 100
	h := newHarness(t, scenarioTweaks(), sequencer.Options{})
	ch, cancel := h.seq.Subscribe()
	wait := collect(ch)

	require.NoError(t, h.seq.Activate(context.Background()))
	cancel()

	var progress []float64
	for _, s := range wait() {
		if len(progress) == 0 || progress[len(progress)-1] != s.Progress {
			progress = append(progress, s.Progress)
		}
	}
	assert.Equal(t, []float64{0, 25, 50, 100}, progress)
}

func TestBestEffortContinuation(t *testing.T) {
	h := newHarness(t, scenarioTweaks(), sequencer.Options{})
	h.gw.Fail("cortana")
	h.gw.FailWith("ram")

	require.NoError(t, h.seq.Activate(context.Background()))
	assert.Equal(t, sequencer.Active, h.seq.Snapshot().State)
	assert.Equal(t, []string{"cortana:on", "ram:on"}, h.gw.TweakCalls())

	var warnings []string
	for _, e := range h.log.Entries() {
		if e.Level == activity.Warning {
			warnings = append(warnings, e.Message)
		}
	}
	require.Len(t, warnings, 2)
	assert.Equal(t, "Disable Cortana: simulated failure for cortana", warnings[0])
	assert.Contains(t, warnings[1], "Auto RAM Flush: ")
	assert.Contains(t, warnings[1], gatewaytest.ErrInjected.Error())

	require.NoError(t, h.seq.Deactivate(context.Background()))
	assert.Equal(t, sequencer.Idle, h.seq.Snapshot().State)
}

func TestReentryGuard(t *testing.T) {
	h := newHarness(t, scenarioTweaks(), sequencer.Options{})
	release := h.gw.Block()

	done, err := h.seq.StartActivate(context.Background())
	require.NoError(t, err)

	assert.ErrorIs(t, h.seq.Activate(context.Background()), sequencer.ErrBusy)
	assert.ErrorIs(t, h.seq.Deactivate(context.Background()), sequencer.ErrBusy)
	assert.ErrorIs(t, h.seq.Toggle(context.Background()), sequencer.ErrBusy)
	assert.True(t, h.seq.Snapshot().InProgress())

	release()
	<-done
	assert.Equal(t, []string{"cortana:on", "ram:on"}, h.gw.TweakCalls())
	assert.Equal(t, sequencer.Active, h.seq.Snapshot().State)
}

func TestStateErrors(t *testing.T) {
	h := newHarness(t, scenarioTweaks(), sequencer.Options{})
	ctx := context.Background()

	assert.ErrorIs(t, h.seq.Deactivate(ctx), sequencer.ErrNotActive)
	require.NoError(t, h.seq.Activate(ctx))
	assert.ErrorIs(t, h.seq.Activate(ctx), sequencer.ErrAlreadyActive)
	assert.Len(t, h.gw.TweakCalls(), 2)
}

func TestEmptyEnabledSet(t *testing.T) {
	tweaks := scenarioTweaks()
	for i := range tweaks {
		tweaks[i].Enabled = false
	}
	h := newHarness(t, tweaks, sequencer.Options{})

	require.NoError(t, h.seq.Activate(context.Background()))
	snap := h.seq.Snapshot()
	assert.Equal(t, sequencer.Active, snap.State)
	assert.Equal(t, 100.0, snap.Progress)
	assert.Empty(t, h.gw.TweakCalls())
	assert.Contains(t, h.messages(), "Finalizing...")
}

func TestEmptyArmedFallsBackToEnabled(t *testing.T) {
	tweaks := scenarioTweaks()
	for i := range tweaks {
		tweaks[i].Enabled = false
	}
	h := newHarness(t, tweaks, sequencer.Options{})
	ctx := context.Background()

	require.NoError(t, h.seq.Activate(ctx))
	h.reg.SetEnabled("power", true)
	require.NoError(t, h.seq.Deactivate(ctx))
	assert.Equal(t, []string{"power:off"}, h.gw.TweakCalls())
}

func TestToggle(t *testing.T) {
	h := newHarness(t, scenarioTweaks(), sequencer.Options{})
	ctx := context.Background()

	require.NoError(t, h.seq.Toggle(ctx))
	assert.True(t, h.seq.Snapshot().Active())
	require.NoError(t, h.seq.Toggle(ctx))
	assert.Equal(t, sequencer.Idle, h.seq.Snapshot().State)
	assert.Equal(t, []string{"cortana:on", "ram:on", "cortana:off", "ram:off"}, h.gw.TweakCalls())
}

type memManifest struct {
	saved   []string
	cleared bool
	err     error
}

func (m *memManifest) SaveArmed(ids []string) error {
	m.saved = ids
	m.cleared = false
	return m.err
}

func (m *memManifest) ClearArmed() error {
	m.cleared = true
	return m.err
}

func TestManifestPersistence(t *testing.T) {
	m := &memManifest{}
	h := newHarness(t, scenarioTweaks(), sequencer.Options{Manifest: m})
	ctx := context.Background()

	require.NoError(t, h.seq.Activate(ctx))
	assert.Equal(t, []string{"cortana", "ram"}, m.saved)
	assert.False(t, m.cleared)

	require.NoError(t, h.seq.Deactivate(ctx))
	assert.True(t, m.cleared)
}

func TestManifestErrorsDoNotStopCycle(t *testing.T) {
	m := &memManifest{err: errors.New("read-only store")}
	h := newHarness(t, scenarioTweaks(), sequencer.Options{Manifest: m})

	require.NoError(t, h.seq.Activate(context.Background()))
	assert.Equal(t, sequencer.Active, h.seq.Snapshot().State)
}

func TestRecoverThenRevert(t *testing.T) {
	h := newHarness(t, scenarioTweaks(), sequencer.Options{})
	ctx := context.Background()

	assert.False(t, h.seq.Recover(nil))
	assert.True(t, h.seq.Recover([]string{"ram", "retired-tweak"}))
	assert.False(t, h.seq.Recover([]string{"cortana"}), "only from idle")
	assert.Equal(t, sequencer.Active, h.seq.Snapshot().State)

	require.NoError(t, h.seq.Deactivate(ctx))
	assert.Equal(t, []string{"ram:off", "retired-tweak:off"}, h.gw.TweakCalls())
	assert.Contains(t, h.messages(), "Reverting: retired-tweak")
}

func TestShutdownRevertsActiveBoost(t *testing.T) {
	h := newHarness(t, scenarioTweaks(), sequencer.Options{})
	ctx := context.Background()

	require.NoError(t, h.seq.Shutdown(ctx), "idle shutdown is a no-op")
	require.NoError(t, h.seq.Activate(ctx))
	require.NoError(t, h.seq.Shutdown(ctx))
	assert.Equal(t, sequencer.Idle, h.seq.Snapshot().State)
	assert.Equal(t, []string{"cortana:on", "ram:on", "cortana:off", "ram:off"}, h.gw.TweakCalls())
}

func TestShutdownWaitsForRunningCycle(t *testing.T) {
	h := newHarness(t, scenarioTweaks(), sequencer.Options{})
	release := h.gw.Block()

	_, err := h.seq.StartActivate(context.Background())
	require.NoError(t, err)

	result := make(chan error, 1)
	go func() { result <- h.seq.Shutdown(context.Background()) }()

	time.Sleep(20 * time.Millisecond)
	release()

	select {
	case err := <-result:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("shutdown did not return")
	}
	assert.Equal(t, sequencer.Idle, h.seq.Snapshot().State)
}

func TestDelaysAreInjected(t *testing.T) {
	var mu sync.Mutex
	var waits []time.Duration
	sleep := func(_ context.Context, d time.Duration) error {
		mu.Lock()
		defer mu.Unlock()
		waits = append(waits, d)
		return nil
	}
	timing := sequencer.Timing{
		StepDelay:       4 * time.Millisecond,
		FinalizeDelay:   8 * time.Millisecond,
		RevertStepDelay: 3 * time.Millisecond,
		SettleDelay:     5 * time.Millisecond,
	}
	h := newHarness(t, scenarioTweaks(), sequencer.Options{Timing: timing, Sleep: sleep})
	ctx := context.Background()

	require.NoError(t, h.seq.Activate(ctx))
	require.NoError(t, h.seq.Deactivate(ctx))

	ms := time.Millisecond
	assert.Equal(t, []time.Duration{4 * ms, 4 * ms, 8 * ms, 3 * ms, 3 * ms, 5 * ms}, waits)
}

func TestCanceledContextStillCompletes(t *testing.T) {
	h := newHarness(t, scenarioTweaks(), sequencer.Options{
		Timing: sequencer.Timing{StepDelay: time.Hour, FinalizeDelay: time.Hour},
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, h.seq.Activate(ctx))
	assert.Equal(t, sequencer.Active, h.seq.Snapshot().State)
	assert.Equal(t, []string{"cortana:on", "ram:on"}, h.gw.TweakCalls())
}

func TestStateText(t *testing.T) {
	var s sequencer.State
	require.NoError(t, s.UnmarshalText([]byte("deactivating")))
	assert.Equal(t, sequencer.Deactivating, s)
	assert.Error(t, s.UnmarshalText([]byte("boosting")))
}
