package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"

	"github.com/jamesainslie/boost/pkg/boost/sequencer"
	"github.com/jamesainslie/boost/pkg/boost/sysinfo"
)

// stateBadge renders the session state as a colored badge.
func stateBadge(s sequencer.Snapshot) string {
	switch {
	case s.InProgress():
		return busyBadgeStyle.Render(strings.ToUpper(s.State.String()))
	case s.Active():
		return activeBadgeStyle.Render("BOOST ON")
	default:
		return idleBadgeStyle.Render("BOOST OFF")
	}
}

// renderHeader renders the title line: name, state badge and the games
// detection currently sees.
func renderHeader(s sequencer.Snapshot, detecting []string) string {
	header := fmt.Sprintf(" ⚡ %s  %s", titleStyle.Render("BOOST"), stateBadge(s))
	if s.Active() {
		header += mutedTextStyle.Render(fmt.Sprintf("  %d tweaks armed", len(s.Armed)))
	}
	if len(detecting) > 0 {
		header += successTextStyle.Render("  ● " + strings.Join(detecting, ", "))
	}
	return header
}

// renderCycle renders the progress of a running cycle, or "" when none is.
func renderCycle(s sequencer.Snapshot, bar progress.Model, spin spinner.Model) string {
	if !s.InProgress() {
		return ""
	}
	verb := "Applying"
	if s.State == sequencer.Deactivating {
		verb = "Reverting"
	}
	line := fmt.Sprintf(" %s %s", spin.View(), bar.ViewAs(s.Progress/100))
	if s.Current != "" {
		line += mutedTextStyle.Render(fmt.Sprintf("  %s: %s", verb, s.Current))
	}
	return line
}

// renderMetrics renders the telemetry line. Zero samples render as "-".
func renderMetrics(m sysinfo.Metrics) string {
	if m.Timestamp.IsZero() {
		return mutedTextStyle.Render(" waiting for metrics...")
	}
	parts := []string{
		"CPU " + pctOrDash(m.CPU),
		"GPU " + pctOrDash(m.GPU),
		"RAM " + pctOrDash(m.RAM),
		"Disk " + pctOrDash(m.Drives),
	}
	if m.Latency > 0 {
		parts = append(parts, fmt.Sprintf("Ping %.0fms", m.Latency))
	} else {
		parts = append(parts, "Ping -")
	}
	if m.Temp > 0 {
		parts = append(parts, fmt.Sprintf("%.0f°C", m.Temp))
	}
	return mutedTextStyle.Render(" " + strings.Join(parts, "  |  "))
}

func pctOrDash(v float64) string {
	if v <= 0 {
		return "-"
	}
	return fmt.Sprintf("%.0f%%", v)
}
