// Package detect watches the process table for games that have a profile
// and applies the profile once per launch.
package detect

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/jamesainslie/boost/pkg/boost/activity"
	"github.com/jamesainslie/boost/pkg/boost/logging"
	"github.com/jamesainslie/boost/pkg/boost/proc"
	"github.com/jamesainslie/boost/pkg/boost/profile"
)

// DefaultInterval is the process table polling period.
const DefaultInterval = 8 * time.Second

// Lister returns the running processes.
type Lister func(ctx context.Context) ([]proc.Process, error)

// Options configures New.
type Options struct {
	Interval time.Duration

	// AutoApply applies a profile when its game starts. Without it the
	// profile is only marked Active.
	AutoApply bool

	// List defaults to proc.List.
	List Lister
}

// Detector tracks which profiled games are running.
type Detector struct {
	profiles  *profile.Store
	log       *activity.Log
	logger    *logging.Logger
	list      Lister
	interval  time.Duration
	autoApply bool

	mu      sync.Mutex
	running map[int64]string // profile id -> name
}

func New(profiles *profile.Store, log *activity.Log, opts Options) *Detector {
	d := &Detector{
		profiles:  profiles,
		log:       log,
		logger:    logging.Get("detect"),
		list:      opts.List,
		interval:  opts.Interval,
		autoApply: opts.AutoApply,
		running:   map[int64]string{},
	}
	if d.list == nil {
		d.list = proc.List
	}
	if d.interval <= 0 {
		d.interval = DefaultInterval
	}
	return d
}

// Run polls until ctx ends.
func (d *Detector) Run(ctx context.Context) {
	d.logger.Info("game detection started", "interval", d.interval, "auto_apply", d.autoApply)
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		if err := d.Poll(ctx); err != nil && ctx.Err() == nil {
			d.logger.Warn("process poll failed", "err", err)
		}
		select {
		case <-ctx.Done():
			d.logger.Info("game detection stopped")
			return
		case <-ticker.C:
		}
	}
}

// Poll takes one look at the process table. Games that appeared since the
// last poll are marked Active (and applied with AutoApply); games that
// exited go back to Idle.
func (d *Detector) Poll(ctx context.Context) error {
	procs, err := d.list(ctx)
	if err != nil {
		return err
	}

	names := make([]string, len(procs))
	for i, p := range procs {
		names[i] = p.Name
	}

	seen := map[int64]bool{}
	for _, p := range d.profiles.List() {
		m, err := proc.Compile(p.MainProcess.Name)
		if err != nil {
			continue
		}
		if slices.ContainsFunc(names, m.Match) {
			seen[p.ID] = true
		}
	}

	d.mu.Lock()
	var started []int64
	var stopped []int64
	for id := range seen {
		if _, ok := d.running[id]; !ok {
			started = append(started, id)
		}
	}
	for id := range d.running {
		if !seen[id] {
			stopped = append(stopped, id)
		}
	}
	d.mu.Unlock()
	slices.Sort(started)
	slices.Sort(stopped)

	for _, id := range started {
		d.start(ctx, id)
	}
	for _, id := range stopped {
		d.stop(id)
	}
	return nil
}

func (d *Detector) start(ctx context.Context, id int64) {
	p, err := d.profiles.Get(id)
	if err != nil {
		return
	}
	d.mu.Lock()
	d.running[id] = p.Name
	d.mu.Unlock()
	d.logger.Info("game started", "profile", p.Name)

	if !d.autoApply {
		if err := d.profiles.SetStatus(id, profile.Active); err != nil {
			d.logger.Warn("marking profile active failed", "profile", p.Name, "err", err)
		}
		d.log.Appendf("Game detected: %s", p.Name)
		return
	}
	if _, err := d.profiles.Apply(ctx, id); err != nil {
		d.log.Warnf("Game detected: %s - profile could not be applied: %v", p.Name, err)
		return
	}
	d.log.Appendf("Game detected: %s - profile auto-applied", p.Name)
}

func (d *Detector) stop(id int64) {
	d.mu.Lock()
	name := d.running[id]
	delete(d.running, id)
	d.mu.Unlock()

	if err := d.profiles.SetStatus(id, profile.Idle); err != nil {
		d.logger.Warn("resetting profile status failed", "profile", name, "err", err)
	}
	d.logger.Info("game exited", "profile", name)
}

// Running returns the names of the profiled games currently running.
func (d *Detector) Running() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, 0, len(d.running))
	for _, name := range d.running {
		out = append(out, name)
	}
	slices.Sort(out)
	return out
}
