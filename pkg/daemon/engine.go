package daemon

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jamesainslie/boost/pkg/boost/activity"
	"github.com/jamesainslie/boost/pkg/boost/config"
	"github.com/jamesainslie/boost/pkg/boost/detect"
	"github.com/jamesainslie/boost/pkg/boost/gateway"
	"github.com/jamesainslie/boost/pkg/boost/logging"
	"github.com/jamesainslie/boost/pkg/boost/profile"
	"github.com/jamesainslie/boost/pkg/boost/sequencer"
	"github.com/jamesainslie/boost/pkg/boost/store"
	"github.com/jamesainslie/boost/pkg/boost/sysinfo"
	"github.com/jamesainslie/boost/pkg/boost/tweak"
)

// EngineOptions overrides parts of the engine, mostly for tests.
type EngineOptions struct {
	// DBPath is the badger directory. Ignored when InMemory is set.
	DBPath   string
	InMemory bool

	// Gateway replaces the platform gateway. It is still wrapped with the
	// configured step timeout.
	Gateway gateway.Gateway

	// Sleep replaces the sequencer pause.
	Sleep sequencer.SleepFunc

	// Probe replaces the latency probe.
	Probe sysinfo.Prober

	// Processes replaces the process table used by game detection.
	Processes detect.Lister
}

// Engine owns every boost component behind the daemon.
type Engine struct {
	Store     *store.Store
	Registry  *tweak.Registry
	Log       *activity.Log
	Profiles  *profile.Store
	Sequencer *sequencer.Sequencer
	Sampler   *sysinfo.Sampler
	Gateway   gateway.Gateway

	// Detector is nil when game detection is disabled.
	Detector *detect.Detector

	quickLimit   int
	displayLimit int
	logger       *logging.Logger

	// ctx outlives RPCs; background cycles run on it.
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// TimingOf maps the sequencer config section to sequencer pacing.
func TimingOf(c config.SequencerConfig) sequencer.Timing {
	return sequencer.Timing{
		StepDelay:       c.StepDelay,
		FinalizeDelay:   c.FinalizeDelay,
		RevertStepDelay: c.RevertStepDelay,
		SettleDelay:     c.SettleDelay,
	}
}

// OpenEngine opens the store, migrates it and assembles the components.
// Loops do not run until Start.
func OpenEngine(ctx context.Context, cfg *config.Config, opts EngineOptions) (*Engine, error) {
	log := logging.Get("daemon")

	retention := time.Duration(cfg.Activity.RetentionDays) * 24 * time.Hour
	st, err := store.Open(opts.DBPath, store.Options{InMemory: opts.InMemory, Retention: retention})
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}

	e := &Engine{
		Store:        st,
		quickLimit:   cfg.Profiles.QuickLimit,
		displayLimit: cfg.Activity.DisplayLimit,
		logger:       log,
	}
	if err := e.assemble(ctx, cfg, opts, retention); err != nil {
		_ = st.Close()
		return nil, err
	}
	return e, nil
}

func (e *Engine) assemble(ctx context.Context, cfg *config.Config, opts EngineOptions, retention time.Duration) error {
	st := e.Store

	migrated, err := st.Migrate(ctx, func(p store.MigrationProgress) {
		e.logger.Info("migrating store", "from", p.FromVersion, "to", p.ToVersion, "step", p.Step)
	})
	if err != nil {
		return fmt.Errorf("migrating store: %w", err)
	}
	if migrated > 0 {
		e.logger.Info("store migrated", "migrations", migrated)
	}

	// Tweaks
	e.Registry = tweak.NewRegistry()
	states, err := st.LoadTweaks()
	if err != nil {
		return fmt.Errorf("loading tweaks: %w", err)
	}
	if states == nil {
		if err := st.SaveTweaks(e.Registry.List()); err != nil {
			return fmt.Errorf("seeding tweaks: %w", err)
		}
	} else {
		e.Registry.Restore(states)
	}
	e.Registry.OnChange(func(ts []tweak.Tweak) {
		if err := st.SaveTweaks(ts); err != nil {
			e.logger.Error("failed to save tweaks", "error", err)
		}
	})

	// Activity
	if retention > 0 {
		if n, err := st.PruneActivity(time.Now().Add(-retention)); err != nil {
			e.logger.Warn("failed to prune activity", "error", err)
		} else if n > 0 {
			e.logger.Debug("pruned activity", "entries", n)
		}
	}
	history, err := st.LoadActivity(cfg.Activity.DisplayLimit)
	if err != nil {
		return fmt.Errorf("loading activity: %w", err)
	}
	e.Log = activity.New(activity.WithSink(st), activity.WithHistory(history))

	// Gateway
	gw := opts.Gateway
	if gw == nil {
		gw = gateway.New(gateway.Options{Mock: cfg.Gateway.Mock})
	}
	e.Gateway = gateway.WithTimeout(gw, cfg.Gateway.StepTimeout)

	// Profiles
	e.Profiles, err = profile.Open(e.Gateway, e.Log, profile.Options{
		Repository:         st,
		QuickLimit:         cfg.Profiles.QuickLimit,
		EnforceFavoriteCap: cfg.Profiles.EnforceFavoriteCap,
		SeedDefaults:       cfg.Profiles.SeedDefaults,
	})
	if err != nil {
		return err
	}

	// Sequencer
	e.Sequencer = sequencer.New(e.Registry, e.Gateway, e.Log, sequencer.Options{
		Timing:   TimingOf(cfg.Sequencer),
		Sleep:    opts.Sleep,
		Manifest: st,
	})
	armed, err := st.LoadArmed()
	if err != nil {
		e.logger.Warn("failed to load armed set", "error", err)
	}
	e.Sequencer.Recover(armed)

	// Metrics
	probe := opts.Probe
	if probe == nil {
		probe = sysinfo.DialProber(sysinfo.DefaultProbeAddress)
	}
	e.Sampler = sysinfo.NewSampler(sysinfo.NewCollector(sysinfo.CollectorOptions{Probe: probe}), cfg.Metrics.PollInterval)

	// Detection
	if cfg.Detect.Enabled {
		e.Detector = detect.New(e.Profiles, e.Log, detect.Options{
			Interval:  cfg.Detect.Interval,
			AutoApply: true,
			List:      opts.Processes,
		})
	}
	return nil
}

// Start runs the sampler and, when enabled, game detection until Close.
func (e *Engine) Start() {
	e.ctx, e.cancel = context.WithCancel(context.Background())

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		e.Sampler.Run(e.ctx)
	}()

	if e.Detector != nil {
		e.wg.Add(1)
		go func() {
			defer e.wg.Done()
			e.Detector.Run(e.ctx)
		}()
	}
}

// lifetime returns the engine context, or Background before Start.
func (e *Engine) lifetime() context.Context {
	if e.ctx == nil {
		return context.Background()
	}
	return e.ctx
}

// Reconfigure applies settings that may change while running. The next
// boost cycle picks up the new pacing.
func (e *Engine) Reconfigure(cfg *config.Config) {
	e.Sequencer.SetTiming(TimingOf(cfg.Sequencer))
	e.logger.Info("configuration reloaded",
		"step_delay", cfg.Sequencer.StepDelay,
		"revert_step_delay", cfg.Sequencer.RevertStepDelay)
}

// Close reverts an active boost, stops the loops and closes the store.
func (e *Engine) Close(ctx context.Context) error {
	var firstErr error
	if err := e.Sequencer.Shutdown(ctx); err != nil {
		e.logger.Error("failed to revert boost on shutdown", "error", err)
		firstErr = err
	}
	if e.cancel != nil {
		e.cancel()
	}
	e.wg.Wait()

	e.Sequencer.Close()
	e.Log.Close()
	if err := e.Store.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
