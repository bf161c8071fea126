// Package profile manages per-game process priority profiles.
package profile

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/jamesainslie/boost/pkg/boost/gateway"
)

var (
	ErrNameRequired        = errors.New("profile name is required")
	ErrMainProcessRequired = errors.New("main process name is required")
	ErrNotFound            = errors.New("profile not found")
	ErrFavoriteLimit       = errors.New("favorite limit reached")
)

// Process pairs a process name (or glob) with the priority to give it.
type Process struct {
	Name     string           `json:"name" yaml:"name"`
	Priority gateway.Priority `json:"priority" yaml:"priority"`
}

func (p Process) String() string {
	return p.Name + " (" + p.Priority.String() + ")"
}

// Status is the display state of a profile.
type Status int

const (
	Idle Status = iota
	// Active means the profile's game is running.
	Active
	// Optimized means priorities were applied to the running game.
	Optimized
)

var statusNames = [...]string{Idle: "Idle", Active: "Active", Optimized: "Optimized"}

func (s Status) String() string {
	if s < 0 || int(s) >= len(statusNames) {
		return fmt.Sprintf("Status(%d)", int(s))
	}
	return statusNames[s]
}

func (s Status) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// UnmarshalText treats unknown values as Idle; status is display-only.
func (s *Status) UnmarshalText(b []byte) error {
	*s = Idle
	for i, name := range statusNames {
		if strings.EqualFold(name, string(b)) {
			*s = Status(i)
		}
	}
	return nil
}

// Profile is one game's priority plan.
type Profile struct {
	ID           int64     `json:"id" yaml:"id"`
	Name         string    `json:"name" yaml:"name"`
	MainProcess  Process   `json:"mainProcess" yaml:"main_process"`
	SubProcesses []Process `json:"subProcesses" yaml:"sub_processes"`
	IsFavorite   bool      `json:"isFavorite" yaml:"favorite"`
	Status       Status    `json:"status" yaml:"status"`
	LastApplied  time.Time `json:"lastApplied,omitzero" yaml:"last_applied,omitempty"`
}

func (p Profile) clone() Profile {
	p.SubProcesses = slices.Clone(p.SubProcesses)
	return p
}

// Processes returns the main process followed by the sub-processes.
func (p Profile) Processes() []Process {
	return append([]Process{p.MainProcess}, p.SubProcesses...)
}

// Fields are the user-editable parts of a profile.
type Fields struct {
	Name         string
	MainProcess  Process
	SubProcesses []Process
}

// Normalize trims names and drops sub-processes with an empty name.
func (f Fields) Normalize() Fields {
	f.Name = strings.TrimSpace(f.Name)
	f.MainProcess.Name = strings.TrimSpace(f.MainProcess.Name)
	subs := make([]Process, 0, len(f.SubProcesses))
	for _, sp := range f.SubProcesses {
		sp.Name = strings.TrimSpace(sp.Name)
		if sp.Name != "" {
			subs = append(subs, sp)
		}
	}
	f.SubProcesses = subs
	return f
}

// Validate checks the required fields of a normalized Fields.
func (f Fields) Validate() error {
	if strings.TrimSpace(f.Name) == "" {
		return ErrNameRequired
	}
	if strings.TrimSpace(f.MainProcess.Name) == "" {
		return ErrMainProcessRequired
	}
	return nil
}

// FieldsOf extracts the editable fields of p.
func FieldsOf(p Profile) Fields {
	return Fields{Name: p.Name, MainProcess: p.MainProcess, SubProcesses: slices.Clone(p.SubProcesses)}
}

// Defaults are the example profiles created on first start.
func Defaults() []Profile {
	return []Profile{
		{
			ID:           1,
			Name:         "Cyberpunk 2077",
			MainProcess:  Process{"cyberpunk2077.exe", gateway.High},
			SubProcesses: []Process{{"redlauncher.exe", gateway.Low}},
		},
		{
			ID:           2,
			Name:         "Call of Duty",
			MainProcess:  Process{"cod.exe", gateway.Realtime},
			SubProcesses: []Process{},
		},
		{
			ID:           3,
			Name:         "Apex Legends",
			MainProcess:  Process{"r5apex.exe", gateway.High},
			SubProcesses: []Process{{"easyanticheat.exe", gateway.AboveNormal}},
		},
	}
}
