// Package gateway performs the OS-level side effects behind boost: tweak
// application, network and power settings, DNS cache flushes and process
// priorities.
//
// Every call is independent and best effort. A failed call leaves whatever
// partial OS state the command produced; nothing is rolled back.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// MTU bounds accepted by ApplyNetworkSetting.
const (
	MinMTU = 1400
	MaxMTU = 1500
)

var (
	ErrMTUOutOfRange = fmt.Errorf("mtu must be between %d and %d", MinMTU, MaxMTU)
	ErrUnknownTweak  = errors.New("unknown tweak")
	ErrUnknownPlan   = errors.New("unknown power plan")
)

// Result is the outcome reported by a gateway call. A call failed when the
// returned error is non-nil or Success is false.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func ok(format string, args ...any) Result {
	return Result{Success: true, Message: fmt.Sprintf(format, args...)}
}

func fail(format string, args ...any) Result {
	return Result{Success: false, Message: fmt.Sprintf(format, args...)}
}

// Outcome folds a (Result, error) pair into a message and a success flag.
func Outcome(res Result, err error) (string, bool) {
	if err != nil {
		return err.Error(), false
	}
	return res.Message, res.Success
}

// Gateway is the boundary between boost and the operating system.
type Gateway interface {
	ApplyTweak(ctx context.Context, id string, enable bool) (Result, error)
	ApplyNetworkSetting(ctx context.Context, mtu int) (Result, error)
	ApplyPowerPlan(ctx context.Context, plan PowerPlan) (Result, error)
	FlushDNSCache(ctx context.Context) (Result, error)
	SetProcessPriority(ctx context.Context, name string, p Priority) (Result, error)
}

// ValidateMTU checks mtu against [MinMTU, MaxMTU].
func ValidateMTU(mtu int) error {
	if mtu < MinMTU || mtu > MaxMTU {
		return fmt.Errorf("%w: got %d", ErrMTUOutOfRange, mtu)
	}
	return nil
}

// Runner executes an external command and returns its combined output.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

// ExecRunner runs commands with os/exec.
func ExecRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	out, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	if err != nil {
		msg := strings.TrimSpace(string(out))
		if msg == "" {
			return out, fmt.Errorf("%s: %w", name, err)
		}
		return out, fmt.Errorf("%s: %w: %s", name, err, msg)
	}
	return out, nil
}

// Options configures New.
type Options struct {
	// Mock selects the simulated gateway regardless of platform.
	Mock bool

	// Interface is the adapter MTU changes target. Defaults to "Ethernet".
	Interface string

	// Run executes external commands. Defaults to ExecRunner.
	Run Runner
}

func (o Options) withDefaults() Options {
	if o.Interface == "" {
		o.Interface = "Ethernet"
	}
	if o.Run == nil {
		o.Run = ExecRunner
	}
	return o
}

// New returns the gateway for the running platform, or the simulated one
// when opts.Mock is set.
func New(opts Options) Gateway {
	if opts.Mock {
		return Simulated{}
	}
	return newSystem(opts.withDefaults())
}
