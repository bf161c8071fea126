package proc

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// procRoot is swapped in tests.
var procRoot = "/proc"

func list(ctx context.Context) ([]Process, error) {
	entries, err := os.ReadDir(procRoot)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", procRoot, err)
	}

	var out []Process
	for _, e := range entries {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		pid, err := strconv.Atoi(e.Name())
		if err != nil || !e.IsDir() {
			continue
		}
		name := processName(filepath.Join(procRoot, e.Name()))
		if name == "" {
			continue
		}
		out = append(out, Process{PID: pid, Name: name})
	}
	return out, nil
}

// processName prefers the executable's base name; comm is truncated to 15
// bytes and loses the ".exe" of Wine processes.
func processName(dir string) string {
	if cmdline, err := os.ReadFile(filepath.Join(dir, "cmdline")); err == nil && len(cmdline) > 0 {
		argv0, _, _ := strings.Cut(string(cmdline), "\x00")
		if argv0 != "" {
			return filepath.Base(strings.ReplaceAll(argv0, `\`, "/"))
		}
	}
	comm, err := os.ReadFile(filepath.Join(dir, "comm"))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(comm))
}
