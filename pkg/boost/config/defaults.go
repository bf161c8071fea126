// Package config loads boost settings from YAML and the environment.
package config

import "time"

// Sequencer pacing. Steps are slowed down on purpose so the progress bar is
// readable; tests set them to zero.
const (
	DefaultStepDelay       = 400 * time.Millisecond
	DefaultFinalizeDelay   = 800 * time.Millisecond
	DefaultRevertStepDelay = 300 * time.Millisecond
	DefaultSettleDelay     = 500 * time.Millisecond
)

const (
	// DefaultStepTimeout bounds a single gateway call.
	DefaultStepTimeout = 30 * time.Second

	// DefaultQuickLimit is how many favorites the quick-launch list shows.
	DefaultQuickLimit = 7

	DefaultRetentionDays = 30
	DefaultDisplayLimit  = 50

	DefaultMetricsInterval = 5 * time.Second
	DefaultDetectInterval  = 8 * time.Second

	// DefaultScanDepth limits how deep library scans descend below a root.
	DefaultScanDepth = 4
)

// DefaultLibraryExclude skips launcher plumbing that is never a game.
var DefaultLibraryExclude = []string{
	"*unins*",
	"*setup*",
	"*crash*",
	"*redist*",
	"vc_redist*",
	"dxsetup*",
	"*helper*",
}
