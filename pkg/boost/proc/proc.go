// Package proc enumerates running processes and matches them by name.
package proc

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gobwas/glob"
)

// ErrUnsupported is returned by List on platforms without a process table
// reader.
var ErrUnsupported = errors.New("process listing not supported on this platform")

// Process is a running process.
type Process struct {
	PID  int
	Name string
}

// Matcher matches process names against a case-insensitive glob such as
// "r5apex*.exe". A ".exe" suffix is optional on either side so Windows
// profile names also match Wine and Proton processes.
type Matcher struct {
	pattern string
	g       glob.Glob
}

// Compile builds a Matcher for pattern.
func Compile(pattern string) (*Matcher, error) {
	p := normalize(pattern)
	if p == "" {
		return nil, errors.New("empty process pattern")
	}
	g, err := glob.Compile(p)
	if err != nil {
		return nil, fmt.Errorf("compiling process pattern %q: %w", pattern, err)
	}
	return &Matcher{pattern: pattern, g: g}, nil
}

func (m *Matcher) String() string { return m.pattern }

// Match reports whether name matches.
func (m *Matcher) Match(name string) bool {
	return m.g.Match(normalize(name))
}

func normalize(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	return strings.TrimSuffix(name, ".exe")
}

// List returns a snapshot of the process table.
func List(ctx context.Context) ([]Process, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return list(ctx)
}

// Find returns the running processes whose name matches pattern.
func Find(ctx context.Context, pattern string) ([]Process, error) {
	m, err := Compile(pattern)
	if err != nil {
		return nil, err
	}
	procs, err := List(ctx)
	if err != nil {
		return nil, err
	}
	return Filter(procs, m), nil
}

// Filter keeps the processes matching m.
func Filter(procs []Process, m *Matcher) []Process {
	var out []Process
	for _, p := range procs {
		if m.Match(p.Name) {
			out = append(out, p)
		}
	}
	return out
}
