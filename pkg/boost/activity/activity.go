// Package activity is the user-facing log of what boost did: tweaks
// applied and reverted, profiles changed, failures along the way.
package activity

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/jamesainslie/boost/pkg/boost/broadcaster"
	"github.com/jamesainslie/boost/pkg/boost/logging"
)

// Level distinguishes ordinary entries from warnings.
type Level int

const (
	Info Level = iota
	Warning
)

func (l Level) String() string {
	if l == Warning {
		return "warn"
	}
	return "info"
}

func (l Level) MarshalText() ([]byte, error) { return []byte(l.String()), nil }

func (l *Level) UnmarshalText(b []byte) error {
	switch string(b) {
	case "warn", "warning":
		*l = Warning
	case "info", "":
		*l = Info
	default:
		return fmt.Errorf("unknown activity level %q", b)
	}
	return nil
}

// TimeFormat is the clock stamp prefixed to formatted entries.
const TimeFormat = "15:04:05"

// Entry is one line of activity.
type Entry struct {
	Seq     uint64    `json:"seq"`
	Time    time.Time `json:"time"`
	Level   Level     `json:"level"`
	Message string    `json:"message"`
}

// Formatted renders the entry as "[15:04:05] message".
func (e Entry) Formatted() string {
	return "[" + e.Time.Local().Format(TimeFormat) + "] " + e.Message
}

// Sink persists entries as they are appended.
type Sink interface {
	AppendActivity(Entry) error
}

// Log is an append-only, concurrency-safe activity log. Entries keep the
// order Append was called in and are never deduplicated or truncated;
// display limits are the reader's business.
type Log struct {
	mu      sync.RWMutex
	entries []Entry
	seq     uint64

	sink   Sink
	now    func() time.Time
	logger *logging.Logger
	bcast  *broadcaster.Broadcaster[Entry]
}

// Option configures New.
type Option func(*Log)

// WithSink persists every appended entry to s. Sink failures are logged
// and otherwise ignored.
func WithSink(s Sink) Option { return func(l *Log) { l.sink = s } }

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option { return func(l *Log) { l.now = now } }

// WithHistory seeds the log with previously persisted entries. Sequence
// numbering continues after the highest seeded Seq.
func WithHistory(es []Entry) Option {
	return func(l *Log) {
		l.entries = slices.Clone(es)
		for _, e := range es {
			l.seq = max(l.seq, e.Seq)
		}
	}
}

func New(opts ...Option) *Log {
	l := &Log{
		now:    time.Now,
		logger: logging.Get("activity"),
		bcast:  broadcaster.New[Entry](),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Append records msg at Info level.
func (l *Log) Append(msg string) Entry { return l.add(Info, msg) }

// Appendf records a formatted Info entry.
func (l *Log) Appendf(format string, args ...any) Entry {
	return l.add(Info, fmt.Sprintf(format, args...))
}

// Warn records msg at Warning level.
func (l *Log) Warn(msg string) Entry { return l.add(Warning, msg) }

// Warnf records a formatted warning.
func (l *Log) Warnf(format string, args ...any) Entry {
	return l.add(Warning, fmt.Sprintf(format, args...))
}

func (l *Log) add(level Level, msg string) Entry {
	l.mu.Lock()
	l.seq++
	e := Entry{Seq: l.seq, Time: l.now(), Level: level, Message: msg}
	l.entries = append(l.entries, e)
	// Persist and publish under the lock so sinks and subscribers observe
	// entries in Seq order.
	if l.sink != nil {
		if err := l.sink.AppendActivity(e); err != nil {
			l.logger.Warn("persisting activity entry failed", "seq", e.Seq, "err", err)
		}
	}
	l.bcast.Publish(e)
	l.mu.Unlock()

	if level == Warning {
		l.logger.Warn(msg)
	} else {
		l.logger.Info(msg)
	}
	return e
}

// Entries returns a copy of every entry, oldest first.
func (l *Log) Entries() []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return slices.Clone(l.entries)
}

// Last returns up to n newest entries, oldest first.
func (l *Log) Last(n int) []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if n < 0 || n > len(l.entries) {
		n = len(l.entries)
	}
	return slices.Clone(l.entries[len(l.entries)-n:])
}

// Since returns entries with Seq greater than seq.
func (l *Log) Since(seq uint64) []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	i, _ := slices.BinarySearchFunc(l.entries, seq+1, func(e Entry, s uint64) int {
		switch {
		case e.Seq < s:
			return -1
		case e.Seq > s:
			return 1
		}
		return 0
	})
	return slices.Clone(l.entries[i:])
}

func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// Clear drops the in-memory entries. Sequence numbers keep increasing.
func (l *Log) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = nil
}

// Subscribe streams entries appended from now on. Call cancel to stop.
func (l *Log) Subscribe() (<-chan Entry, func()) {
	sub := l.bcast.Subscribe(nil)
	if sub == nil {
		ch := make(chan Entry)
		close(ch)
		return ch, func() {}
	}
	return sub.C, func() { l.bcast.Unsubscribe(sub.ID) }
}

// Close ends all subscriptions.
func (l *Log) Close() {
	l.bcast.Close()
}
