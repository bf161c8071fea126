package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jamesainslie/boost/pkg/boost/activity"
)

// entryBuffer keeps the newest entries shown in the activity pane. Older
// entries are evicted FIFO; the daemon still has them.
type entryBuffer struct {
	entries    []activity.Entry
	maxEntries int
}

func newEntryBuffer(maxEntries int) *entryBuffer {
	if maxEntries < 1 {
		maxEntries = 1
	}
	return &entryBuffer{
		entries:    make([]activity.Entry, 0, maxEntries),
		maxEntries: maxEntries,
	}
}

// Add appends an entry, evicting the oldest if at capacity. Entries the
// buffer already holds (same Seq) are ignored, which covers the overlap
// between the initial load and the live stream.
func (b *entryBuffer) Add(e activity.Entry) {
	if n := len(b.entries); n > 0 && e.Seq != 0 && e.Seq <= b.entries[n-1].Seq {
		return
	}
	if len(b.entries) >= b.maxEntries {
		b.entries = b.entries[1:]
	}
	b.entries = append(b.entries, e)
}

// Reset replaces the contents with es, keeping the newest maxEntries.
func (b *entryBuffer) Reset(es []activity.Entry) {
	b.entries = b.entries[:0]
	for _, e := range es {
		b.Add(e)
	}
}

func (b *entryBuffer) Entries() []activity.Entry { return b.entries }

func (b *entryBuffer) Len() int { return len(b.entries) }

// clampScroll keeps a scroll offset, counted back from the newest entry,
// within bounds.
func clampScroll(offset, total, visible int) int {
	maxOffset := total - visible
	if maxOffset < 0 {
		maxOffset = 0
	}
	return min(max(offset, 0), maxOffset)
}

// visibleEntries returns the window of entries ending offset entries before
// the newest.
func visibleEntries(entries []activity.Entry, offset, rows int) []activity.Entry {
	offset = clampScroll(offset, len(entries), rows)
	end := len(entries) - offset
	start := max(end-rows, 0)
	return entries[start:end]
}

// renderActivity renders the activity pane, newest entry last.
func renderActivity(entries []activity.Entry, offset, width, height int) string {
	if height < 3 {
		return ""
	}

	var b strings.Builder
	title := paneTitleStyle.Render(" Activity ")
	if offset > 0 {
		title += mutedTextStyle.Render(fmt.Sprintf(" (%d newer)", offset))
	}
	b.WriteString(title)
	b.WriteString("\n")

	rows := height - 1
	visible := visibleEntries(entries, offset, rows)
	for _, e := range visible {
		b.WriteString(renderEntry(e, width))
		b.WriteString("\n")
	}
	for i := len(visible); i < rows; i++ {
		b.WriteString("\n")
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// renderEntry renders "[15:04:05] message", warnings highlighted.
func renderEntry(e activity.Entry, width int) string {
	ts := "[" + e.Time.Local().Format(activity.TimeFormat) + "]"
	msg := truncate(e.Message, max(width-lipgloss.Width(ts)-1, 10))
	if e.Level == activity.Warning {
		msg = logWarnStyle.Render(msg)
	}
	return logTimeStyle.Render(ts) + " " + msg
}
