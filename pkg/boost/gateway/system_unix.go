//go:build unix

package gateway

import (
	"context"
	"fmt"
	"runtime"
	"strings"

	"golang.org/x/sys/unix"

	"github.com/jamesainslie/boost/pkg/boost/logging"
	"github.com/jamesainslie/boost/pkg/boost/proc"
)

// unixGateway simulates the Windows-only tweaks, power plans and MTU
// changes, and performs DNS flushes and priority changes natively.
type unixGateway struct {
	Simulated
	run  Runner
	log  *logging.Logger
	find func(ctx context.Context, pattern string) ([]proc.Process, error)
	nice func(pid, value int) error
}

func newSystem(opts Options) Gateway {
	return &unixGateway{
		run:  opts.Run,
		log:  logging.Get("gateway"),
		find: proc.Find,
		nice: func(pid, value int) error {
			return unix.Setpriority(unix.PRIO_PROCESS, pid, value)
		},
	}
}

// dnsFlushCommands per GOOS; each entry is tried in order until one works.
var dnsFlushCommands = map[string][][]string{
	"darwin": {
		{"dscacheutil", "-flushcache"},
		{"killall", "-HUP", "mDNSResponder"},
	},
	"linux": {
		{"resolvectl", "flush-caches"},
		{"systemd-resolve", "--flush-caches"},
	},
}

func (g *unixGateway) FlushDNSCache(ctx context.Context) (Result, error) {
	cmds, found := dnsFlushCommands[runtime.GOOS]
	if !found {
		return fail("DNS flush not supported on this platform"), nil
	}

	var errs []string
	flushed := false
	for _, argv := range cmds {
		if _, err := g.run(ctx, argv[0], argv[1:]...); err != nil {
			if ctx.Err() != nil {
				return Result{}, ctx.Err()
			}
			g.log.Debug("dns flush command failed", "cmd", argv[0], "err", err)
			errs = append(errs, err.Error())
			continue
		}
		flushed = true
		if runtime.GOOS == "linux" {
			break
		}
	}
	if !flushed {
		return fail("Failed to flush DNS cache: %s", strings.Join(errs, "; ")), nil
	}
	return ok("DNS cache flushed successfully"), nil
}

func (g *unixGateway) SetProcessPriority(ctx context.Context, name string, p Priority) (Result, error) {
	procs, err := g.find(ctx, name)
	if err != nil {
		return Result{}, fmt.Errorf("finding %s: %w", name, err)
	}
	if len(procs) == 0 {
		return fail("Process %s is not running", name), nil
	}

	var failed []string
	for _, pr := range procs {
		if err := g.nice(pr.PID, p.Nice()); err != nil {
			g.log.Warn("setpriority failed", "pid", pr.PID, "name", pr.Name, "err", err)
			failed = append(failed, fmt.Sprintf("%d: %v", pr.PID, err))
		}
	}
	if len(failed) == len(procs) {
		return fail("Failed to set %s priority: %s", name, strings.Join(failed, "; ")), nil
	}
	return ok("Set %s priority to %s (%d of %d processes)", name, p, len(procs)-len(failed), len(procs)), nil
}
