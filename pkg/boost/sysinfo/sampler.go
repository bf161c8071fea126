package sysinfo

import (
	"context"
	"sync"
	"time"

	"github.com/jamesainslie/boost/pkg/boost/broadcaster"
	"github.com/jamesainslie/boost/pkg/boost/logging"
)

// DefaultInterval is the sampling period.
const DefaultInterval = 5 * time.Second

// Sampler takes a sample on every tick and fans it out. It runs on its own
// goroutine and shares nothing with the boost sequencer.
type Sampler struct {
	collector *Collector
	interval  time.Duration
	bcast     *broadcaster.Broadcaster[Metrics]
	logger    *logging.Logger

	mu     sync.RWMutex
	latest Metrics
	have   bool
}

func NewSampler(c *Collector, interval time.Duration) *Sampler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Sampler{
		collector: c,
		interval:  interval,
		bcast:     broadcaster.NewBuffered[Metrics](4),
		logger:    logging.Get("metrics"),
	}
}

// Run samples until ctx ends. The first sample is taken immediately.
func (s *Sampler) Run(ctx context.Context) {
	s.logger.Debug("metrics sampler started", "interval", s.interval)
	defer s.bcast.Close()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		s.sampleOnce(ctx)
		select {
		case <-ctx.Done():
			s.logger.Debug("metrics sampler stopped")
			return
		case <-ticker.C:
		}
	}
}

func (s *Sampler) sampleOnce(ctx context.Context) {
	probeCtx, cancel := context.WithTimeout(ctx, s.interval/2)
	m := s.collector.Sample(probeCtx)
	cancel()

	s.mu.Lock()
	s.latest, s.have = m, true
	s.mu.Unlock()
	s.bcast.Publish(m)
}

// Latest returns the most recent sample. Before the first sample it takes
// one synchronously.
func (s *Sampler) Latest(ctx context.Context) Metrics {
	s.mu.RLock()
	m, ok := s.latest, s.have
	s.mu.RUnlock()
	if ok {
		return m
	}
	return s.collector.Sample(ctx)
}

// Subscribe streams samples until cancel is called or the sampler stops.
func (s *Sampler) Subscribe() (<-chan Metrics, func()) {
	sub := s.bcast.Subscribe(nil)
	if sub == nil {
		ch := make(chan Metrics)
		close(ch)
		return ch, func() {}
	}
	return sub.C, func() { s.bcast.Unsubscribe(sub.ID) }
}
