package tweak

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogDefaults(t *testing.T) {
	r := NewRegistry()

	assert.Equal(t,
		[]string{Cortana, Telemetry, NetworkAck, RAMFlush, GameBar, Fullscreen, PowerPlan, Hibernation},
		IDs(r.List()))
	assert.Equal(t, []string{Cortana, Telemetry, NetworkAck, RAMFlush}, IDs(r.Enabled()))

	tw, ok := r.Get(NetworkAck)
	require.True(t, ok)
	assert.Equal(t, "Network Boost (TcpAck)", tw.Label)
	assert.Equal(t, Network, tw.Category)
}

func TestSetEnabled(t *testing.T) {
	r := NewRegistry()

	got := r.SetEnabled(PowerPlan, true)
	assert.True(t, got[6].Enabled)
	assert.Contains(t, IDs(r.Enabled()), PowerPlan)

	before := r.List()
	after := r.SetEnabled("turbo", true)
	assert.Equal(t, before, after, "unknown id is a no-op")
}

func TestListIsACopy(t *testing.T) {
	r := NewRegistry()
	l := r.List()
	l[0].Enabled = false
	l[0].Label = "changed"

	tw, _ := r.Get(Cortana)
	assert.True(t, tw.Enabled)
	assert.Equal(t, "Disable Cortana", tw.Label)
}

func TestOnChangeFiresOnlyForEffectiveChanges(t *testing.T) {
	r := NewRegistry()
	var calls [][]Tweak
	r.OnChange(func(ts []Tweak) { calls = append(calls, ts) })

	r.SetEnabled(Cortana, true) // already on
	r.SetEnabled("nope", false)
	r.SetEnabled(Cortana, false)

	require.Len(t, calls, 1)
	assert.False(t, calls[0][0].Enabled)
}

func TestRestore(t *testing.T) {
	r := NewRegistry()
	r.Restore([]State{
		{ID: Cortana, Enabled: false},
		{ID: Hibernation, Enabled: true},
		{ID: "legacy-tweak", Enabled: true},
	})

	assert.Equal(t, []string{Telemetry, NetworkAck, RAMFlush, Hibernation}, IDs(r.Enabled()))
	assert.Len(t, r.List(), 8)
}

func TestImportFiresHooks(t *testing.T) {
	r := NewRegistry()
	var calls [][]Tweak
	r.OnChange(func(ts []Tweak) { calls = append(calls, ts) })

	r.Import([]State{{ID: Cortana, Enabled: true}})
	assert.Empty(t, calls, "no flag changed")

	got := r.Import([]State{{ID: Cortana, Enabled: false}, {ID: "legacy-tweak", Enabled: true}})
	require.Len(t, calls, 1)
	assert.Equal(t, got, calls[0])
	assert.False(t, got[0].Enabled)
}

func TestHooksSeeChangesInOrder(t *testing.T) {
	r := NewRegistry()

	var (
		mu    sync.Mutex
		saved []Tweak
	)
	entered := make(chan struct{})
	release := make(chan struct{})
	first := true
	r.OnChange(func(ts []Tweak) {
		mu.Lock()
		block := first
		first = false
		mu.Unlock()
		if block {
			close(entered)
			<-release
		}
		mu.Lock()
		saved = ts
		mu.Unlock()
	})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		r.SetEnabled(GameBar, true)
	}()
	<-entered

	second := make(chan struct{})
	go func() {
		r.SetEnabled(Fullscreen, true)
		close(second)
	}()

	select {
	case <-second:
		t.Fatal("second change finished while the first hook was still running")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	wg.Wait()
	<-second

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, r.List(), saved)
}

func TestLabelFallsBackToID(t *testing.T) {
	r := NewRegistry()
	assert.Equal(t, "Auto RAM Flush", r.Label(RAMFlush))
	assert.Equal(t, "ghost", r.Label("ghost"))
}

func TestDecodeStatesAcceptsFullRecords(t *testing.T) {
	data, err := json.Marshal(Catalog())
	require.NoError(t, err)

	states, err := DecodeStates(data)
	require.NoError(t, err)
	require.Len(t, states, 8)
	assert.Equal(t, State{ID: Cortana, Enabled: true}, states[0])

	_, err = DecodeStates([]byte(`{"id":"x"}`))
	assert.Error(t, err)
}

func TestCategoryText(t *testing.T) {
	for _, c := range []Category{System, Network, Privacy} {
		b, err := c.MarshalText()
		require.NoError(t, err)
		var back Category
		require.NoError(t, back.UnmarshalText(b))
		assert.Equal(t, c, back)
	}
	_, err := ParseCategory("Graphics")
	assert.Error(t, err)
	assert.Equal(t, "Category(9)", Category(9).String())
}

func TestConcurrentAccess(t *testing.T) {
	r := NewRegistry()
	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			r.SetEnabled(GameBar, i%2 == 0)
		}()
		go func() {
			defer wg.Done()
			_ = r.Enabled()
		}()
	}
	wg.Wait()
	assert.Len(t, r.List(), 8)
}
