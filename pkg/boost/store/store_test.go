package store_test

import (
	"testing"
	"time"

	"github.com/jamesainslie/boost/pkg/boost/activity"
	"github.com/jamesainslie/boost/pkg/boost/gateway"
	"github.com/jamesainslie/boost/pkg/boost/profile"
	"github.com/jamesainslie/boost/pkg/boost/store"
	"github.com/jamesainslie/boost/pkg/boost/tweak"
)

func openStore(t *testing.T, opts store.Options) *store.Store {
	t.Helper()
	s, err := store.Open(t.TempDir(), opts)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestTweaksRoundTrip(t *testing.T) {
	s := openStore(t, store.Options{})

	states, err := s.LoadTweaks()
	if err != nil {
		t.Fatalf("LoadTweaks failed: %v", err)
	}
	if states != nil {
		t.Errorf("Expected nil states on a fresh store, got %v", states)
	}

	cat := tweak.Catalog()
	cat[0].Enabled = false
	if err := s.SaveTweaks(cat); err != nil {
		t.Fatalf("SaveTweaks failed: %v", err)
	}

	states, err = s.LoadTweaks()
	if err != nil {
		t.Fatalf("LoadTweaks failed: %v", err)
	}
	if len(states) != len(cat) {
		t.Fatalf("Expected %d states, got %d", len(cat), len(states))
	}

	reg := tweak.NewRegistry()
	reg.Restore(states)
	got, _ := reg.Get(cat[0].ID)
	if got.Enabled {
		t.Errorf("Expected %s to be restored disabled", cat[0].ID)
	}
}

func TestProfilesRoundTrip(t *testing.T) {
	s := openStore(t, store.Options{})

	ps, err := s.LoadProfiles()
	if err != nil {
		t.Fatalf("LoadProfiles failed: %v", err)
	}
	if ps != nil {
		t.Errorf("Expected nil before first save, got %v", ps)
	}

	want := profile.Defaults()
	want[1].IsFavorite = true
	want[2].LastApplied = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	if err := s.SaveProfiles(want); err != nil {
		t.Fatalf("SaveProfiles failed: %v", err)
	}

	got, err := s.LoadProfiles()
	if err != nil {
		t.Fatalf("LoadProfiles failed: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("Expected %d profiles, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i].ID != want[i].ID || got[i].Name != want[i].Name {
			t.Errorf("Profile %d: expected %d/%s, got %d/%s", i, want[i].ID, want[i].Name, got[i].ID, got[i].Name)
		}
	}
	if !got[1].IsFavorite {
		t.Error("Expected favorite flag to survive")
	}
	if got[0].SubProcesses[0].Priority != gateway.Low {
		t.Errorf("Expected Low sub-process priority, got %v", got[0].SubProcesses[0].Priority)
	}
	if !got[2].LastApplied.Equal(want[2].LastApplied) {
		t.Errorf("Expected last applied %v, got %v", want[2].LastApplied, got[2].LastApplied)
	}
}

func TestSaveProfilesReplacesList(t *testing.T) {
	s := openStore(t, store.Options{})

	if err := s.SaveProfiles(profile.Defaults()); err != nil {
		t.Fatalf("SaveProfiles failed: %v", err)
	}
	if err := s.SaveProfiles([]profile.Profile{}); err != nil {
		t.Fatalf("SaveProfiles failed: %v", err)
	}

	got, err := s.LoadProfiles()
	if err != nil {
		t.Fatalf("LoadProfiles failed: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("Expected an empty non-nil list, got %#v", got)
	}
}

func TestActivityHistory(t *testing.T) {
	s := openStore(t, store.Options{})
	base := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)

	for i := 1; i <= 300; i++ {
		e := activity.Entry{Seq: uint64(i), Time: base.Add(time.Duration(i) * time.Second), Message: "line"}
		if err := s.AppendActivity(e); err != nil {
			t.Fatalf("AppendActivity failed: %v", err)
		}
	}

	last, err := s.LoadActivity(50)
	if err != nil {
		t.Fatalf("LoadActivity failed: %v", err)
	}
	if len(last) != 50 {
		t.Fatalf("Expected 50 entries, got %d", len(last))
	}
	if last[0].Seq != 251 || last[49].Seq != 300 {
		t.Errorf("Expected seq 251..300 oldest first, got %d..%d", last[0].Seq, last[49].Seq)
	}

	all, err := s.LoadActivity(0)
	if err != nil {
		t.Fatalf("LoadActivity failed: %v", err)
	}
	if len(all) != 300 {
		t.Errorf("Expected 300 entries, got %d", len(all))
	}
}

func TestPruneActivity(t *testing.T) {
	s := openStore(t, store.Options{})
	base := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)

	for i := range 10 {
		e := activity.Entry{Seq: uint64(i + 1), Time: base.AddDate(0, 0, i), Message: "day"}
		if err := s.AppendActivity(e); err != nil {
			t.Fatalf("AppendActivity failed: %v", err)
		}
	}

	n, err := s.PruneActivity(base.AddDate(0, 0, 7))
	if err != nil {
		t.Fatalf("PruneActivity failed: %v", err)
	}
	if n != 7 {
		t.Errorf("Expected 7 pruned, got %d", n)
	}

	left, _ := s.LoadActivity(0)
	if len(left) != 3 || left[0].Seq != 8 {
		t.Errorf("Expected entries 8..10 to remain, got %+v", left)
	}

	if err := s.ClearActivity(); err != nil {
		t.Fatalf("ClearActivity failed: %v", err)
	}
	left, _ = s.LoadActivity(0)
	if len(left) != 0 {
		t.Errorf("Expected empty history, got %d", len(left))
	}
}

func TestActivityRetentionTTL(t *testing.T) {
	s := openStore(t, store.Options{Retention: time.Second})

	if err := s.AppendActivity(activity.Entry{Seq: 1, Time: time.Now(), Message: "short lived"}); err != nil {
		t.Fatalf("AppendActivity failed: %v", err)
	}
	got, _ := s.LoadActivity(0)
	if len(got) != 1 {
		t.Fatalf("Expected entry before expiry, got %d", len(got))
	}

	time.Sleep(2 * time.Second)
	got, _ = s.LoadActivity(0)
	if len(got) != 0 {
		t.Errorf("Expected entry to expire, got %d", len(got))
	}
}

func TestArmedManifest(t *testing.T) {
	s := openStore(t, store.Options{})

	ids, err := s.LoadArmed()
	if err != nil || ids != nil {
		t.Fatalf("Expected no armed set, got %v (%v)", ids, err)
	}

	if err := s.SaveArmed([]string{"cortana", "ram"}); err != nil {
		t.Fatalf("SaveArmed failed: %v", err)
	}
	ids, err = s.LoadArmed()
	if err != nil {
		t.Fatalf("LoadArmed failed: %v", err)
	}
	if len(ids) != 2 || ids[0] != "cortana" || ids[1] != "ram" {
		t.Errorf("Expected [cortana ram], got %v", ids)
	}

	if err := s.ClearArmed(); err != nil {
		t.Fatalf("ClearArmed failed: %v", err)
	}
	if err := s.ClearArmed(); err != nil {
		t.Fatalf("ClearArmed twice failed: %v", err)
	}
	ids, _ = s.LoadArmed()
	if ids != nil {
		t.Errorf("Expected armed set cleared, got %v", ids)
	}
}

func TestPersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	s, err := store.Open(dir, store.Options{})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := s.SaveArmed([]string{"power"}); err != nil {
		t.Fatalf("SaveArmed failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	s, err = store.Open(dir, store.Options{})
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer s.Close()
	ids, _ := s.LoadArmed()
	if len(ids) != 1 || ids[0] != "power" {
		t.Errorf("Expected [power] after reopen, got %v", ids)
	}
}

func TestInMemory(t *testing.T) {
	s, err := store.Open("", store.Options{InMemory: true})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer s.Close()
	if err := s.SaveTweaks(tweak.Catalog()); err != nil {
		t.Fatalf("SaveTweaks failed: %v", err)
	}
}
