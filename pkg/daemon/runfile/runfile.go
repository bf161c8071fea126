// Package runfile manages the files a running boostd leaves in its data
// directory: the pid file, the startup status file, the socket and the
// badger lock.
package runfile

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/jamesainslie/boost/pkg/boost/logging"
)

// File names inside the data directory.
const (
	SocketName = "boostd.sock"
	PIDName    = "boostd.pid"
	StatusName = "boostd.status"
	DBName     = "boost.db"
)

// ErrAlreadyRunning is returned when trying to start a daemon that's already running.
var ErrAlreadyRunning = errors.New("daemon already running")

// Paths locates the daemon's runtime files. Empty Socket or PID fall back
// to the data directory.
type Paths struct {
	DataDir string
	Socket  string
	PID     string
}

// In returns the default layout under dataDir.
func In(dataDir string) Paths {
	return Paths{DataDir: dataDir}.WithDefaults()
}

// WithDefaults fills empty fields from DataDir.
func (p Paths) WithDefaults() Paths {
	if p.Socket == "" {
		p.Socket = filepath.Join(p.DataDir, SocketName)
	}
	if p.PID == "" {
		p.PID = filepath.Join(p.DataDir, PIDName)
	}
	return p
}

// Status is the startup status file, written next to the socket.
func (p Paths) Status() string {
	return strings.TrimSuffix(p.Socket, filepath.Ext(p.Socket)) + ".status"
}

// DB is the badger directory.
func (p Paths) DB() string { return filepath.Join(p.DataDir, DBName) }

// WritePID records the current process ID.
func (p Paths) WritePID() error {
	return os.WriteFile(p.PID, []byte(strconv.Itoa(os.Getpid())), 0644)
}

// ReadPID reads the recorded process ID.
func (p Paths) ReadPID() (int, error) {
	data, err := os.ReadFile(p.PID)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(string(data)))
}

// RemovePID removes the pid file.
func (p Paths) RemovePID() error {
	return os.Remove(p.PID)
}

// Running reports whether the recorded process is alive.
func (p Paths) Running() bool {
	pid, err := p.ReadPID()
	if err != nil {
		return false
	}
	return ProcessRunning(pid)
}

// ProcessRunning checks if a process with the given PID is running.
func ProcessRunning(pid int) bool {
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	// Signal 0 probes without delivering anything.
	return process.Signal(syscall.Signal(0)) == nil
}

// Startup states.
const (
	StateReady = "ready"
	StateError = "error"
)

// Startup is the content of the status file.
type Startup struct {
	State   string `json:"status"`
	PID     int    `json:"pid,omitempty"`
	Version string `json:"version,omitempty"`
	Error   string `json:"error,omitempty"`
}

// WriteReady records a successful start.
func (p Paths) WriteReady(version string) error {
	return p.writeStatus(Startup{State: StateReady, PID: os.Getpid(), Version: version})
}

// WriteFailed records a failed start.
func (p Paths) WriteFailed(err error) error {
	return p.writeStatus(Startup{State: StateError, Error: err.Error()})
}

func (p Paths) writeStatus(s Startup) error {
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return os.WriteFile(p.Status(), data, 0644)
}

// ReadStatus reads the status file.
func (p Paths) ReadStatus() (*Startup, error) {
	data, err := os.ReadFile(p.Status())
	if err != nil {
		return nil, err
	}
	var s Startup
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// RemoveStatus removes the status file.
func (p Paths) RemoveStatus() error {
	return os.Remove(p.Status())
}

// RecoverStale cleans up after a daemon that died without removing its
// files. It returns nil when there was nothing to clean and
// ErrAlreadyRunning when the recorded process is still alive. A boost left
// active by the dead daemon is reverted from its armed set once the store
// opens again.
func (p Paths) RecoverStale() error {
	pid, err := p.ReadPID()
	if err != nil {
		return nil //nolint:nilerr // missing or invalid pid file means nothing to recover
	}
	if ProcessRunning(pid) {
		return ErrAlreadyRunning
	}

	logging.Get("daemon").Warn("cleaning up stale daemon files", "stale_pid", pid)

	// Remove stale files (ignore errors - files may not exist)
	_ = os.Remove(p.PID)
	_ = os.Remove(p.Socket)
	_ = os.Remove(p.Status())
	_ = os.Remove(filepath.Join(p.DB(), "LOCK"))
	return nil
}
