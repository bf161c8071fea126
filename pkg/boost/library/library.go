// Package library scans game install directories for executables and
// proposes profiles for them.
package library

import (
	"cmp"
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charlievieth/fastwalk"

	"github.com/jamesainslie/boost/pkg/boost/gateway"
	"github.com/jamesainslie/boost/pkg/boost/logging"
	"github.com/jamesainslie/boost/pkg/boost/proc"
	"github.com/jamesainslie/boost/pkg/boost/profile"
)

// DefaultDepth is how many directory levels below a root are searched.
const DefaultDepth = 4

// Options configures Scan.
type Options struct {
	// Roots are the library directories to walk.
	Roots []string

	// Exclude contains globs matched against executable names.
	Exclude []string

	// Depth limits how deep below each root to look. 0 means DefaultDepth.
	Depth int

	// Workers overrides the walker pool size.
	Workers int
}

// Candidate is a game found on disk. Executables in the same directory are
// grouped; the largest is taken as the main process.
type Candidate struct {
	Name    string    `json:"name" yaml:"name"`
	Dir     string    `json:"dir" yaml:"dir"`
	Main    string    `json:"main" yaml:"main"`
	Others  []string  `json:"others,omitempty" yaml:"others,omitempty"`
	Size    int64     `json:"size" yaml:"size"`
	ModTime time.Time `json:"modTime" yaml:"mod_time"`
}

// ScanError is a path the walk could not read.
type ScanError struct {
	Path string `json:"path"`
	Err  string `json:"error"`
}

// Result is the outcome of Scan.
type Result struct {
	Candidates  []Candidate   `json:"candidates"`
	DirsScanned int64         `json:"dirsScanned"`
	Errors      []ScanError   `json:"errors,omitempty"`
	Elapsed     time.Duration `json:"elapsed"`
}

type exe struct {
	name    string
	size    int64
	modTime time.Time
}

// Scan walks every root and returns the game candidates sorted by name.
// Unreadable paths are recorded and skipped. Missing roots are errors.
func Scan(ctx context.Context, opts Options) (*Result, error) {
	start := time.Now()
	log := logging.Get("library")

	if len(opts.Roots) == 0 {
		return nil, errors.New("no library paths configured")
	}
	depth := opts.Depth
	if depth <= 0 {
		depth = DefaultDepth
	}
	var excludes []*proc.Matcher
	for _, p := range opts.Exclude {
		m, err := proc.Compile(p)
		if err != nil {
			return nil, err
		}
		excludes = append(excludes, m)
	}

	var (
		mu    sync.Mutex
		errs  []ScanError
		dirs  atomic.Int64
		byDir = map[string][]exe{}
	)
	addErr := func(path string, err error) {
		mu.Lock()
		errs = append(errs, ScanError{Path: path, Err: err.Error()})
		mu.Unlock()
	}

	conf := fastwalk.Config{
		Follow:     false,
		NumWorkers: Workers(runtime.NumCPU(), opts.Workers),
	}

	for _, root := range opts.Roots {
		root, err := filepath.Abs(root)
		if err != nil {
			return nil, err
		}
		info, err := os.Stat(root)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			return nil, &fs.PathError{Op: "scan", Path: root, Err: errors.New("not a directory")}
		}
		log.Debug("scanning library", "root", root, "depth", depth)

		walkErr := fastwalk.Walk(&conf, root, func(path string, d fs.DirEntry, err error) error {
			if ctx.Err() != nil {
				return fastwalk.ErrSkipFiles
			}
			if err != nil {
				addErr(path, err)
				return nil
			}
			if d.IsDir() {
				dirs.Add(1)
				if path != root && levels(root, path) >= depth {
					return fastwalk.SkipDir
				}
				return nil
			}
			if !d.Type().IsRegular() || !strings.EqualFold(filepath.Ext(path), ".exe") {
				return nil
			}
			name := strings.ToLower(d.Name())
			for _, m := range excludes {
				if m.Match(name) {
					return nil
				}
			}
			fi, err := d.Info()
			if err != nil {
				addErr(path, err)
				return nil
			}
			dir := filepath.Dir(path)
			mu.Lock()
			byDir[dir] = append(byDir[dir], exe{name: name, size: fi.Size(), modTime: fi.ModTime()})
			mu.Unlock()
			return nil
		})
		if walkErr != nil && !errors.Is(walkErr, fastwalk.ErrSkipFiles) {
			return nil, walkErr
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}

	res := &Result{
		Candidates:  group(byDir),
		DirsScanned: dirs.Load(),
		Errors:      errs,
		Elapsed:     time.Since(start),
	}
	log.Info("library scan finished", "candidates", len(res.Candidates),
		"dirs", res.DirsScanned, "errors", len(errs), "elapsed", res.Elapsed)
	return res, nil
}

// levels counts path separators between root and path.
func levels(root, path string) int {
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == "." {
		return 0
	}
	return strings.Count(rel, string(filepath.Separator)) + 1
}

func group(byDir map[string][]exe) []Candidate {
	out := make([]Candidate, 0, len(byDir))
	for dir, exes := range byDir {
		slices.SortFunc(exes, func(a, b exe) int {
			if c := cmp.Compare(b.size, a.size); c != 0 {
				return c
			}
			return cmp.Compare(a.name, b.name)
		})
		c := Candidate{
			Name:    filepath.Base(dir),
			Dir:     dir,
			Main:    exes[0].name,
			Size:    exes[0].size,
			ModTime: exes[0].modTime,
		}
		for _, e := range exes[1:] {
			c.Others = append(c.Others, e.name)
		}
		out = append(out, c)
	}
	slices.SortFunc(out, func(a, b Candidate) int {
		if c := cmp.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)); c != 0 {
			return c
		}
		return cmp.Compare(a.Dir, b.Dir)
	})
	return out
}

// Propose turns candidates into profile fields, skipping games whose main
// executable an existing profile already covers. The main process gets
// High priority; sibling executables are left out since most are
// launchers or reporters.
func Propose(cands []Candidate, existing []profile.Profile) []profile.Fields {
	var known []*proc.Matcher
	for _, p := range existing {
		if m, err := proc.Compile(p.MainProcess.Name); err == nil {
			known = append(known, m)
		}
	}

	var out []profile.Fields
	for _, c := range cands {
		if slices.ContainsFunc(known, func(m *proc.Matcher) bool { return m.Match(c.Main) }) {
			continue
		}
		out = append(out, profile.Fields{
			Name:        c.Name,
			MainProcess: profile.Process{Name: c.Main, Priority: gateway.High},
		})
	}
	return out
}
