package output

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamesainslie/boost/pkg/boost/activity"
	"github.com/jamesainslie/boost/pkg/boost/gateway"
	"github.com/jamesainslie/boost/pkg/boost/library"
	"github.com/jamesainslie/boost/pkg/boost/profile"
	"github.com/jamesainslie/boost/pkg/boost/sequencer"
	"github.com/jamesainslie/boost/pkg/boost/sysinfo"
	"github.com/jamesainslie/boost/pkg/boost/tweak"
)

func TestTweaksView(t *testing.T) {
	ts := tweak.Catalog()
	ts[0].Enabled = true

	r := Tweaks(ts)
	require.Len(t, r.Rows, len(ts))
	assert.Equal(t, "on", r.Rows[0][3])
	assert.Len(t, r.Items, len(ts))
	assert.Contains(t, r.Summary[0], "of")
}

func TestProfilesView(t *testing.T) {
	mk := func(id int64, fav bool) profile.Profile {
		return profile.Profile{
			ID:          id,
			Name:        "Game",
			MainProcess: profile.Process{Name: "game.exe", Priority: gateway.High},
			IsFavorite:  fav,
		}
	}

	t.Run("rows", func(t *testing.T) {
		r := Profiles([]profile.Profile{mk(1, true), mk(2, false)}, 7)
		require.Len(t, r.Rows, 2)
		assert.Equal(t, "★", r.Rows[0][1])
		assert.Equal(t, "", r.Rows[1][1])
		assert.Equal(t, "High", r.Rows[0][4])
		assert.Equal(t, "-", r.Rows[0][7])
		assert.Empty(t, r.Warnings)
	})

	t.Run("favorites past quick limit warn", func(t *testing.T) {
		r := Profiles([]profile.Profile{mk(1, true), mk(2, true), mk(3, true)}, 2)
		require.Len(t, r.Warnings, 1)
		assert.Contains(t, r.Warnings[0], "first 2")
	})
}

func TestProfileView(t *testing.T) {
	p := profile.Profile{
		ID:           5,
		Name:         "Valorant",
		MainProcess:  profile.Process{Name: "VALORANT.exe", Priority: gateway.High},
		SubProcesses: []profile.Process{{Name: "vgc.exe", Priority: gateway.AboveNormal}},
	}
	r := Profile(p)
	assert.Equal(t, "Valorant", r.Title)
	assert.Equal(t, []string{"Sub", "vgc.exe (AboveNormal)"}, r.Rows[len(r.Rows)-1])
}

func TestActivityView(t *testing.T) {
	at := time.Date(2024, 1, 1, 9, 30, 5, 0, time.Local)
	r := Activity([]activity.Entry{{Seq: 1, Time: at, Message: "Boost activated"}})
	assert.Equal(t, []string{"09:30:05", "info", "Boost activated"}, r.Rows[0])
}

func TestStatusView(t *testing.T) {
	s := sequencer.Snapshot{State: sequencer.Active, Progress: 100, Armed: []string{"gameMode"}}
	r := Status(s, func(id string) string { return "Game Mode" })
	assert.Equal(t, []string{"State", "active"}, r.Rows[0])
	assert.Equal(t, []string{"Progress", "100%"}, r.Rows[1])
	assert.Equal(t, []string{"Armed", "Game Mode"}, r.Rows[2])

	r = Status(sequencer.Snapshot{}, nil)
	assert.Len(t, r.Rows, 2)
}

func TestMetricsView(t *testing.T) {
	r := Metrics(sysinfo.Metrics{CPU: 41.6, Latency: -1})
	assert.Equal(t, []string{"CPU", "42%"}, r.Rows[0])
	assert.Equal(t, []string{"Latency", "unreachable"}, r.Rows[len(r.Rows)-1])
}

func TestLibraryView(t *testing.T) {
	res := &library.Result{
		Candidates:  []library.Candidate{{Name: "Hades", Main: "Hades.exe", Size: 2_000_000, Dir: "/games/Hades"}},
		DirsScanned: 1200,
		Errors:      []library.ScanError{{Path: "/games/locked", Err: "permission denied"}},
	}
	r := Library(res)
	assert.Equal(t, "2.0 MB", r.Rows[0][2])
	assert.Contains(t, r.Summary[1], "1,200")
	assert.Equal(t, []string{"/games/locked: permission denied"}, r.Warnings)
}
