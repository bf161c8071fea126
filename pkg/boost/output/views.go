package output

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/jamesainslie/boost/pkg/boost/activity"
	"github.com/jamesainslie/boost/pkg/boost/library"
	"github.com/jamesainslie/boost/pkg/boost/profile"
	"github.com/jamesainslie/boost/pkg/boost/sequencer"
	"github.com/jamesainslie/boost/pkg/boost/sysinfo"
	"github.com/jamesainslie/boost/pkg/boost/tweak"
)

// Tweaks lists the catalog with on/off state.
func Tweaks(ts []tweak.Tweak) *Result {
	r := &Result{
		Title:   "Tweaks",
		Columns: []string{"ID", "CATEGORY", "TWEAK", "STATE"},
		Data:    ts,
		Empty:   "No tweaks registered",
	}
	enabled := 0
	for _, t := range ts {
		r.Rows = append(r.Rows, []string{t.ID, t.Category.String(), t.Label, onOff(t.Enabled)})
		r.Items = append(r.Items, t)
		if t.Enabled {
			enabled++
		}
	}
	r.Summary = []string{fmt.Sprintf("%d of %d enabled", enabled, len(ts))}
	return r
}

// Profiles lists game profiles. Favorites past quickLimit are flagged since
// they do not appear in quick launch.
func Profiles(ps []profile.Profile, quickLimit int) *Result {
	r := &Result{
		Title:   "Game Profiles",
		Columns: []string{"ID", "★", "NAME", "MAIN PROCESS", "PRIORITY", "SUBS", "STATUS", "LAST APPLIED"},
		Data:    ps,
		Empty:   "No profiles yet. Create one with 'boost profile add'",
	}
	favs := 0
	for _, p := range ps {
		star := ""
		if p.IsFavorite {
			star = "★"
			favs++
		}
		r.Rows = append(r.Rows, []string{
			strconv.FormatInt(p.ID, 10),
			star,
			p.Name,
			p.MainProcess.Name,
			p.MainProcess.Priority.String(),
			strconv.Itoa(len(p.SubProcesses)),
			p.Status.String(),
			lastApplied(p.LastApplied),
		})
		r.Items = append(r.Items, p)
	}
	r.Summary = []string{
		fmt.Sprintf("%d profiles", len(ps)),
		fmt.Sprintf("%d favorites", favs),
	}
	if quickLimit > 0 && favs > quickLimit {
		r.Warnings = append(r.Warnings,
			fmt.Sprintf("%d favorites; only the first %d appear in quick launch", favs, quickLimit))
	}
	return r
}

// Profile shows one profile with every process.
func Profile(p profile.Profile) *Result {
	r := &Result{
		Title: p.Name,
		Data:  p,
		Items: []any{p},
	}
	r.Rows = [][]string{
		{"ID", strconv.FormatInt(p.ID, 10)},
		{"Favorite", strconv.FormatBool(p.IsFavorite)},
		{"Status", p.Status.String()},
		{"Last applied", lastApplied(p.LastApplied)},
		{"Main", p.MainProcess.String()},
	}
	for _, sp := range p.SubProcesses {
		r.Rows = append(r.Rows, []string{"Sub", sp.String()})
	}
	return r
}

// Activity lists log entries oldest first.
func Activity(entries []activity.Entry) *Result {
	r := &Result{
		Title:   "Activity",
		Columns: []string{"TIME", "LEVEL", "MESSAGE"},
		Data:    entries,
		Empty:   "No activity yet",
	}
	for _, e := range entries {
		r.Rows = append(r.Rows, []string{e.Time.Format(activity.TimeFormat), e.Level.String(), e.Message})
		r.Items = append(r.Items, e)
	}
	return r
}

// Status describes the boost session. label maps tweak ids to display
// labels and may be nil.
func Status(s sequencer.Snapshot, label func(id string) string) *Result {
	if label == nil {
		label = func(id string) string { return id }
	}
	r := &Result{
		Title: "Boost",
		Data:  s,
		Items: []any{s},
	}
	r.Rows = [][]string{
		{"State", s.State.String()},
		{"Progress", fmt.Sprintf("%.0f%%", s.Progress)},
	}
	if s.Current != "" {
		r.Rows = append(r.Rows, []string{"Current", s.Current})
	}
	if len(s.Armed) > 0 {
		names := make([]string, len(s.Armed))
		for i, id := range s.Armed {
			names[i] = label(id)
		}
		r.Rows = append(r.Rows, []string{"Armed", strings.Join(names, ", ")})
	}
	return r
}

// System describes the host.
func System(info sysinfo.SystemInfo) *Result {
	r := &Result{
		Title: "System",
		Data:  info,
		Items: []any{info},
	}
	for _, l := range info.Lines() {
		r.Rows = append(r.Rows, []string{l[0], l[1]})
	}
	return r
}

// Metrics shows one dashboard sample.
func Metrics(m sysinfo.Metrics) *Result {
	latency := "unreachable"
	if m.Latency >= 0 {
		latency = fmt.Sprintf("%.0f ms", m.Latency)
	}
	return &Result{
		Title: "Performance",
		Data:  m,
		Items: []any{m},
		Rows: [][]string{
			{"CPU", pct(m.CPU)},
			{"GPU", pct(m.GPU)},
			{"RAM", pct(m.RAM)},
			{"FPS", fmt.Sprintf("%.0f", m.FPS)},
			{"Drives", pct(m.Drives)},
			{"PSU", fmt.Sprintf("%.0f W", m.PSU)},
			{"Internet", pct(m.Internet)},
			{"Temp", fmt.Sprintf("%.0f °C", m.Temp)},
			{"Latency", latency},
		},
	}
}

// Library lists the games found by a library scan.
func Library(res *library.Result) *Result {
	r := &Result{
		Title:   "Game Library",
		Columns: []string{"NAME", "MAIN", "SIZE", "DIR"},
		Data:    res,
		Empty:   "No games found",
	}
	for _, c := range res.Candidates {
		r.Rows = append(r.Rows, []string{c.Name, c.Main, humanize.Bytes(uint64(c.Size)), c.Dir})
		r.Items = append(r.Items, c)
	}
	r.Summary = []string{
		fmt.Sprintf("%d games", len(res.Candidates)),
		fmt.Sprintf("%s dirs scanned in %s",
			humanize.Comma(res.DirsScanned), res.Elapsed.Round(time.Millisecond)),
	}
	for _, e := range res.Errors {
		r.Warnings = append(r.Warnings, e.Path+": "+e.Err)
	}
	return r
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

func pct(v float64) string {
	return fmt.Sprintf("%.0f%%", v)
}

func lastApplied(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return humanize.Time(t)
}
