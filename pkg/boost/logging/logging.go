// Package logging is the structured logger shared by the boost CLI, the TUI
// and the boostd daemon.
//
//	if err := logging.Init(logging.DefaultConfig()); err != nil {
//	    return err
//	}
//	defer logging.Close()
//
//	log := logging.Get("sequencer")
//	log.Info("cycle finished", "tweaks", 4)
//
// Loggers obtained before Init write nowhere.
package logging

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/charmbracelet/log"
)

// Level is a logging severity.
type Level int

// Severities, least to most severe.
const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

var levelNames = map[Level]string{
	LevelDebug: "debug",
	LevelInfo:  "info",
	LevelWarn:  "warn",
	LevelError: "error",
}

func (l Level) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return "unknown"
}

func (l Level) charm() log.Level {
	switch l {
	case LevelDebug:
		return log.DebugLevel
	case LevelWarn:
		return log.WarnLevel
	case LevelError:
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}

// ErrInvalidLevel is returned by ParseLevel for unrecognised names.
var ErrInvalidLevel = errors.New("invalid log level")

// ParseLevel converts a level name (case-insensitive) to a Level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "info", "":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	}
	return LevelInfo, fmt.Errorf("%w: %s", ErrInvalidLevel, s)
}

// Config configures Init.
type Config struct {
	// Level is the default level for every component.
	Level string

	// Path of the log file. Empty means DefaultLogPath().
	Path string

	Rotation RotationConfig

	// Components overrides Level per component name.
	Components map[string]string

	// ConsoleLevel mirrors entries at or above this level to stderr.
	// Empty disables the console.
	ConsoleLevel string

	// TUIMode suppresses the console and keeps recent entries in a ring
	// buffer for the dashboard log pane.
	TUIMode bool
}

// Entry is one record delivered to subscribers and the TUI buffer.
type Entry struct {
	Time      time.Time
	Level     Level
	Component string
	Message   string
}

// Logger writes to the log file and, optionally, the console.
type Logger struct {
	file      *log.Logger
	console   *log.Logger
	component string
}

func (l *Logger) Debug(msg string, args ...any) { l.emit(LevelDebug, msg, args) }
func (l *Logger) Info(msg string, args ...any)  { l.emit(LevelInfo, msg, args) }
func (l *Logger) Warn(msg string, args ...any)  { l.emit(LevelWarn, msg, args) }
func (l *Logger) Error(msg string, args ...any) { l.emit(LevelError, msg, args) }

// Log writes at an explicit level.
func (l *Logger) Log(level Level, msg string, args ...any) { l.emit(level, msg, args) }

func (l *Logger) emit(level Level, msg string, args []any) {
	write(l.file, level, msg, args)
	if l.console != nil {
		write(l.console, level, msg, args)
	}
	global.publish(Entry{
		Time:      time.Now(),
		Level:     level,
		Component: l.component,
		Message:   msg,
	})
}

func write(dst *log.Logger, level Level, msg string, args []any) {
	switch level {
	case LevelDebug:
		dst.Debug(msg, args...)
	case LevelInfo:
		dst.Info(msg, args...)
	case LevelWarn:
		dst.Warn(msg, args...)
	case LevelError:
		dst.Error(msg, args...)
	}
}

// With returns a child logger carrying extra key/value pairs.
func (l *Logger) With(args ...any) *Logger {
	child := &Logger{file: l.file.With(args...), component: l.component}
	if l.console != nil {
		child.console = l.console.With(args...)
	}
	return child
}

// Component reports the component name the logger was created for.
func (l *Logger) Component() string { return l.component }

// DefaultLogPath is $XDG_STATE_HOME/boost/boost.log.
func DefaultLogPath() string {
	return filepath.Join(xdg.StateHome, "boost", "boost.log")
}

// DefaultConfig returns info-level file logging with default rotation.
func DefaultConfig() Config {
	return Config{
		Level:    "info",
		Path:     DefaultLogPath(),
		Rotation: DefaultRotationConfig(),
	}
}
