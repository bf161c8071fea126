package logging

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

type state struct {
	mu          sync.RWMutex
	initialized bool
	writer      *RotatingWriter
	level       Level
	components  map[string]Level
	loggers     map[string]*Logger
	subscribers map[chan Entry]struct{}

	console      bool
	consoleLevel Level
	tuiMode      bool
	buffer       *Buffer
}

var global = &state{
	components:  map[string]Level{},
	loggers:     map[string]*Logger{},
	subscribers: map[chan Entry]struct{}{},
}

// Init (re)configures logging. Loggers handed out earlier are rebuilt so
// they pick up the new destination and levels.
func Init(cfg Config) error {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return fmt.Errorf("parsing log level: %w", err)
	}

	components := make(map[string]Level, len(cfg.Components))
	for name, raw := range cfg.Components {
		lvl, err := ParseLevel(raw)
		if err != nil {
			return fmt.Errorf("parsing level for component %s: %w", name, err)
		}
		components[name] = lvl
	}

	var consoleLevel Level
	console := cfg.ConsoleLevel != "" && !cfg.TUIMode
	if console {
		if consoleLevel, err = ParseLevel(cfg.ConsoleLevel); err != nil {
			return fmt.Errorf("parsing console level: %w", err)
		}
	}

	path := cfg.Path
	if path == "" {
		path = DefaultLogPath()
	}

	global.mu.Lock()
	defer global.mu.Unlock()

	if global.writer != nil {
		if err := global.writer.Close(); err != nil {
			return fmt.Errorf("closing previous log writer: %w", err)
		}
		global.writer = nil
	}

	writer, err := NewRotatingWriter(path, cfg.Rotation)
	if err != nil {
		return fmt.Errorf("creating log writer: %w", err)
	}

	global.writer = writer
	global.level = level
	global.components = components
	global.console = console
	global.consoleLevel = consoleLevel
	global.tuiMode = cfg.TUIMode
	global.buffer = nil
	if cfg.TUIMode {
		global.buffer = NewBuffer(DefaultBufferSize)
	}
	global.initialized = true

	for name := range global.loggers {
		global.loggers[name] = global.build(name)
	}
	return nil
}

// Get returns the logger for component, creating it on first use.
func Get(component string) *Logger {
	global.mu.RLock()
	l, ok := global.loggers[component]
	global.mu.RUnlock()
	if ok {
		return l
	}

	global.mu.Lock()
	defer global.mu.Unlock()
	if l, ok := global.loggers[component]; ok {
		return l
	}
	l = global.build(component)
	global.loggers[component] = l
	return l
}

// build must be called with mu held.
func (s *state) build(component string) *Logger {
	level := s.level
	if override, ok := s.components[component]; ok {
		level = override
	}

	if !s.initialized {
		return &Logger{
			file:      log.NewWithOptions(io.Discard, log.Options{Level: level.charm(), Prefix: component}),
			component: component,
		}
	}

	l := &Logger{
		file: log.NewWithOptions(s.writer, log.Options{
			Level:           level.charm(),
			ReportTimestamp: true,
			TimeFormat:      time.RFC3339,
			Prefix:          component,
		}),
		component: component,
	}
	if s.console && !s.tuiMode {
		l.console = log.NewWithOptions(os.Stderr, log.Options{
			Level:           s.consoleLevel.charm(),
			ReportTimestamp: true,
			TimeFormat:      time.TimeOnly,
			Prefix:          component,
		})
	}
	return l
}

// Close flushes the log file and closes all subscriptions.
func Close() error {
	global.mu.Lock()
	defer global.mu.Unlock()

	if !global.initialized {
		return nil
	}

	for ch := range global.subscribers {
		close(ch)
		delete(global.subscribers, ch)
	}

	var err error
	if global.writer != nil {
		if cerr := global.writer.Close(); cerr != nil {
			err = fmt.Errorf("closing log writer: %w", cerr)
		}
		global.writer = nil
	}

	global.initialized = false
	global.loggers = map[string]*Logger{}
	global.components = map[string]Level{}
	return err
}

// Subscribe returns a buffered channel of entries. Slow readers lose
// entries instead of stalling the caller.
func Subscribe() <-chan Entry {
	global.mu.Lock()
	defer global.mu.Unlock()

	ch := make(chan Entry, 100)
	global.subscribers[ch] = struct{}{}
	return ch
}

// Unsubscribe stops delivery to ch. The channel is left open for the
// caller to drain.
func Unsubscribe(ch <-chan Entry) {
	global.mu.Lock()
	defer global.mu.Unlock()

	for sub := range global.subscribers {
		if sub == ch {
			delete(global.subscribers, sub)
			return
		}
	}
}

func (s *state) publish(e Entry) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.buffer != nil {
		s.buffer.Add(e)
	}
	for ch := range s.subscribers {
		select {
		case ch <- e:
		default:
		}
	}
}

// TUIBuffer returns the ring buffer kept in TUI mode, or nil.
func TUIBuffer() *Buffer {
	global.mu.RLock()
	defer global.mu.RUnlock()
	return global.buffer
}
