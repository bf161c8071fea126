package tui

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jamesainslie/boost/pkg/boost/activity"
	"github.com/jamesainslie/boost/pkg/boost/gateway"
	"github.com/jamesainslie/boost/pkg/boost/profile"
	"github.com/jamesainslie/boost/pkg/boost/sequencer"
	"github.com/jamesainslie/boost/pkg/boost/sysinfo"
	"github.com/jamesainslie/boost/pkg/boost/tweak"
	"github.com/jamesainslie/boost/pkg/client"
)

// fakeBackend records calls and serves canned state.
type fakeBackend struct {
	mu sync.Mutex

	session  sequencer.Snapshot
	tweaks   []tweak.Tweak
	profiles []profile.Profile
	entries  []activity.Entry
	applyErr error

	calls []string
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		tweaks: tweak.Catalog(),
		profiles: []profile.Profile{
			{ID: 1, Name: "Valorant", MainProcess: profile.Process{Name: "VALORANT.exe", Priority: gateway.High}, IsFavorite: true},
			{ID: 2, Name: "Apex Legends", MainProcess: profile.Process{Name: "r5apex.exe", Priority: gateway.High}},
		},
		entries: []activity.Entry{
			{Seq: 1, Time: time.Now(), Message: "Boost engine ready"},
		},
	}
}

func (f *fakeBackend) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeBackend) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeBackend) Status(context.Context) (*client.DaemonStatus, error) {
	return &client.DaemonStatus{Running: true, Session: f.session, Detecting: []string{"Valorant"}}, nil
}

func (f *fakeBackend) Toggle(context.Context, bool) (sequencer.Snapshot, error) {
	f.record("toggle")
	return f.session, nil
}

func (f *fakeBackend) Deactivate(context.Context, bool) (sequencer.Snapshot, error) {
	f.record("deactivate")
	return sequencer.Snapshot{State: sequencer.Idle}, nil
}

func (f *fakeBackend) WatchSession(context.Context) (<-chan sequencer.Snapshot, error) {
	return closed[sequencer.Snapshot](), nil
}

func (f *fakeBackend) Tweaks(context.Context) ([]tweak.Tweak, error) { return f.tweaks, nil }

func (f *fakeBackend) SetTweak(_ context.Context, id string, enabled bool) ([]tweak.Tweak, error) {
	if enabled {
		f.record("enable " + id)
	} else {
		f.record("disable " + id)
	}
	out := append([]tweak.Tweak(nil), f.tweaks...)
	for i := range out {
		if out[i].ID == id {
			out[i].Enabled = enabled
		}
	}
	return out, nil
}

func (f *fakeBackend) Profiles(context.Context) ([]profile.Profile, int, error) {
	return f.profiles, 3, nil
}

func (f *fakeBackend) ToggleFavorite(_ context.Context, id int64) (profile.Profile, error) {
	f.record("favorite " + profileName(f.profiles, id))
	return profile.Profile{ID: id}, nil
}

func (f *fakeBackend) ApplyProfile(_ context.Context, id int64) (profile.ApplyReport, error) {
	f.record("apply " + profileName(f.profiles, id))
	if f.applyErr != nil {
		return profile.ApplyReport{}, f.applyErr
	}
	return profile.ApplyReport{Applied: []profile.Process{{Name: "x"}}}, nil
}

func (f *fakeBackend) Log(context.Context, int) ([]activity.Entry, error) { return f.entries, nil }

func (f *fakeBackend) WatchLog(context.Context) (<-chan activity.Entry, error) {
	return closed[activity.Entry](), nil
}

func (f *fakeBackend) WatchMetrics(context.Context) (<-chan sysinfo.Metrics, error) {
	return closed[sysinfo.Metrics](), nil
}

// closed returns a closed stream so listen commands finish at once.
func closed[T any]() <-chan T {
	ch := make(chan T)
	close(ch)
	return ch
}

func profileName(ps []profile.Profile, id int64) string {
	for _, p := range ps {
		if p.ID == id {
			return p.Name
		}
	}
	return "?"
}

// loadedModel runs Init against b and feeds the result back.
func loadedModel(t *testing.T, b *fakeBackend) Model {
	t.Helper()
	m := NewModel(Options{Backend: b, LogLimit: 10})
	msg := m.Init()()
	if _, ok := msg.(loadedMsg); !ok {
		t.Fatalf("Init produced %T, want loadedMsg", msg)
	}
	next, _ := m.Update(msg)
	next, _ = next.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return next.(Model)
}

func press(m Model, key string) (Model, tea.Cmd) {
	var msg tea.KeyMsg
	switch key {
	case " ":
		msg = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	case "enter":
		msg = tea.KeyMsg{Type: tea.KeyEnter}
	case "tab":
		msg = tea.KeyMsg{Type: tea.KeyTab}
	case "down":
		msg = tea.KeyMsg{Type: tea.KeyDown}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
	}
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

// run executes cmd and feeds its message back into m.
func run(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	if cmd == nil {
		t.Fatal("expected a command")
	}
	next, _ := m.Update(cmd())
	return next.(Model)
}

func TestModelLoadsState(t *testing.T) {
	m := loadedModel(t, newFakeBackend())

	if !m.loaded {
		t.Fatal("model not loaded")
	}
	if len(m.tweaks) != len(tweak.Catalog()) {
		t.Errorf("got %d tweaks, want %d", len(m.tweaks), len(tweak.Catalog()))
	}
	if len(m.quick) != 1 || m.quick[0].Name != "Valorant" {
		t.Errorf("quick launch = %v, want [Valorant]", m.quick)
	}
	if m.log.Len() != 1 {
		t.Errorf("activity has %d entries, want 1", m.log.Len())
	}

	view := m.View()
	for _, want := range []string{"BOOST OFF", "Valorant", "Boost engine ready", "Quick launch"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestToggleTweak(t *testing.T) {
	b := newFakeBackend()
	m := loadedModel(t, b)
	first := m.tweaks[0]

	m, cmd := press(m, " ")
	m = run(t, m, cmd)

	want := "disable " + first.ID
	if !first.Enabled {
		want = "enable " + first.ID
	}
	if calls := b.Calls(); len(calls) != 1 || calls[0] != want {
		t.Fatalf("calls = %v, want [%s]", calls, want)
	}
	if m.tweaks[0].Enabled == first.Enabled {
		t.Error("tweak list not updated")
	}
}

func TestApplyProfileFromList(t *testing.T) {
	b := newFakeBackend()
	m := loadedModel(t, b)

	m, _ = press(m, "tab")
	m, _ = press(m, "down")
	m, cmd := press(m, "enter")
	m = run(t, m, cmd)

	if calls := b.Calls(); len(calls) != 1 || calls[0] != "apply Apex Legends" {
		t.Fatalf("calls = %v", calls)
	}
	if m.status != "Optimized Apex Legends" || m.statusErr {
		t.Errorf("status = %q (err %v)", m.status, m.statusErr)
	}
}

func TestApplyProfileError(t *testing.T) {
	b := newFakeBackend()
	b.applyErr = errors.New("profile not found")
	m := loadedModel(t, b)

	m, _ = press(m, "tab")
	m, cmd := press(m, "enter")
	m = run(t, m, cmd)

	if !m.statusErr || m.status != "profile not found" {
		t.Errorf("status = %q (err %v)", m.status, m.statusErr)
	}
}

func TestQuickLaunchKey(t *testing.T) {
	b := newFakeBackend()
	m := loadedModel(t, b)

	_, cmd := press(m, "1")
	if cmd == nil {
		t.Fatal("expected apply command")
	}
	cmd()
	if calls := b.Calls(); len(calls) != 1 || calls[0] != "apply Valorant" {
		t.Fatalf("calls = %v", calls)
	}

	// Only one favorite, so 2 does nothing.
	if _, cmd := press(m, "2"); cmd != nil {
		t.Error("key 2 should not launch anything")
	}
}

func TestFavoriteKey(t *testing.T) {
	b := newFakeBackend()
	m := loadedModel(t, b)

	m, _ = press(m, "tab")
	m, _ = press(m, "down")
	_, cmd := press(m, "f")
	cmd()
	if calls := b.Calls(); len(calls) != 1 || calls[0] != "favorite Apex Legends" {
		t.Fatalf("calls = %v", calls)
	}
}

func TestBoostKeyToggles(t *testing.T) {
	b := newFakeBackend()
	m := loadedModel(t, b)

	_, cmd := press(m, "b")
	cmd()
	if calls := b.Calls(); len(calls) != 1 || calls[0] != "toggle" {
		t.Fatalf("calls = %v", calls)
	}
}

func TestSessionProgressView(t *testing.T) {
	m := loadedModel(t, newFakeBackend())

	next, _ := m.Update(sessionMsg{State: sequencer.Activating, Progress: 40, Current: "Disable Telemetry"})
	m = next.(Model)

	view := m.View()
	if !strings.Contains(view, "ACTIVATING") {
		t.Error("view missing ACTIVATING badge")
	}
	if !strings.Contains(view, "Applying: Disable Telemetry") {
		t.Error("view missing current step")
	}
}

func TestQuitWhenIdle(t *testing.T) {
	b := newFakeBackend()
	m := loadedModel(t, b)

	_, cmd := press(m, "q")
	if cmd == nil {
		t.Fatal("expected quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q while idle should quit immediately")
	}
	if len(b.Calls()) != 0 {
		t.Errorf("unexpected calls %v", b.Calls())
	}
}

func TestQuitRevertsActiveBoost(t *testing.T) {
	b := newFakeBackend()
	b.session = sequencer.Snapshot{State: sequencer.Active, Progress: 100, Armed: []string{"power"}}
	m := loadedModel(t, b)

	m, cmd := press(m, "q")
	if !m.quitting {
		t.Fatal("model should be quitting")
	}
	msg := cmd()
	if _, ok := msg.(revertedMsg); !ok {
		t.Fatalf("got %T, want revertedMsg", msg)
	}
	if calls := b.Calls(); len(calls) != 1 || calls[0] != "deactivate" {
		t.Fatalf("calls = %v", calls)
	}

	_, cmd = m.Update(msg)
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected quit after revert")
	}
}

func TestQuitWaitsForCycle(t *testing.T) {
	b := newFakeBackend()
	b.session = sequencer.Snapshot{State: sequencer.Activating, Progress: 20}
	m := loadedModel(t, b)

	m, cmd := press(m, "q")
	if cmd != nil {
		t.Fatal("quit should wait while a cycle runs")
	}

	// The cycle ends active; the model reverts and then quits.
	next, cmd := m.Update(sessionMsg{State: sequencer.Active, Progress: 100})
	m = next.(Model)
	if !m.reverting {
		t.Fatal("expected revert to start")
	}
	if cmd == nil {
		t.Fatal("expected commands")
	}
	found := false
	for _, c := range cmd().(tea.BatchMsg) {
		if c == nil {
			continue
		}
		if _, ok := c().(revertedMsg); ok {
			found = true
		}
	}
	if !found {
		t.Error("no revert command issued")
	}
}

func TestEntryBufferSkipsDuplicates(t *testing.T) {
	b := newEntryBuffer(3)
	for seq := uint64(1); seq <= 5; seq++ {
		b.Add(activity.Entry{Seq: seq, Message: "m"})
	}
	b.Add(activity.Entry{Seq: 4, Message: "dup"})

	es := b.Entries()
	if len(es) != 3 {
		t.Fatalf("len = %d, want 3", len(es))
	}
	if es[0].Seq != 3 || es[2].Seq != 5 {
		t.Errorf("entries = %v", es)
	}
}
