package boostv1

import (
	"github.com/jamesainslie/boost/pkg/boost/activity"
	"github.com/jamesainslie/boost/pkg/boost/gateway"
	"github.com/jamesainslie/boost/pkg/boost/profile"
	"github.com/jamesainslie/boost/pkg/boost/sequencer"
	"github.com/jamesainslie/boost/pkg/boost/sysinfo"
	"github.com/jamesainslie/boost/pkg/boost/tweak"
)

// DaemonStatus is returned by GetStatus.
type DaemonStatus struct {
	Running       bool               `json:"running"`
	PID           int                `json:"pid"`
	Version       string             `json:"version"`
	UptimeSeconds int64              `json:"uptimeSeconds"`
	MemoryBytes   int64              `json:"memoryBytes"`
	Session       sequencer.Snapshot `json:"session"`

	// Detecting lists the profiled games currently running. Nil when
	// detection is off.
	Detecting []string `json:"detecting,omitempty"`
}

// SessionRequest starts a boost cycle. With Wait the call returns after
// the cycle ends; otherwise as soon as it starts.
type SessionRequest struct {
	Wait bool `json:"wait"`
}

// SessionEvent carries a session snapshot.
type SessionEvent struct {
	Session sequencer.Snapshot `json:"session"`
}

type TweakList struct {
	Tweaks []tweak.Tweak `json:"tweaks"`
}

type SetTweakRequest struct {
	ID      string `json:"id"`
	Enabled bool   `json:"enabled"`
}

// RestoreTweaksRequest overwrites enabled flags, as done by import.
type RestoreTweaksRequest struct {
	States []tweak.State `json:"states"`
}

type ProfileList struct {
	Profiles   []profile.Profile `json:"profiles"`
	QuickLimit int               `json:"quickLimit"`
}

// ProfileFields are the editable fields of a profile.
type ProfileFields struct {
	Name         string            `json:"name"`
	MainProcess  profile.Process   `json:"mainProcess"`
	SubProcesses []profile.Process `json:"subProcesses"`
}

// Fields converts to the domain form.
func (f ProfileFields) Fields() profile.Fields {
	return profile.Fields{Name: f.Name, MainProcess: f.MainProcess, SubProcesses: f.SubProcesses}
}

// WireFields converts from the domain form.
func WireFields(f profile.Fields) ProfileFields {
	return ProfileFields{Name: f.Name, MainProcess: f.MainProcess, SubProcesses: f.SubProcesses}
}

type CreateProfileRequest struct {
	Profile ProfileFields `json:"profile"`
}

type UpdateProfileRequest struct {
	ID      int64         `json:"id"`
	Profile ProfileFields `json:"profile"`
}

// ProfileRequest names one profile by id.
type ProfileRequest struct {
	ID int64 `json:"id"`
}

type ProfileResponse struct {
	Profile profile.Profile `json:"profile"`
}

type ReplaceProfilesRequest struct {
	Profiles []profile.Profile `json:"profiles"`
}

type ReplaceProfilesResponse struct {
	Stored  int      `json:"stored"`
	Skipped []string `json:"skipped,omitempty"`
}

type ApplyProfileResponse struct {
	Report profile.ApplyReport `json:"report"`
}

// GetLogRequest asks for the newest Limit entries; zero means all.
type GetLogRequest struct {
	Limit int `json:"limit"`
}

type LogResponse struct {
	Entries []activity.Entry `json:"entries"`
}

type LogEvent struct {
	Entry activity.Entry `json:"entry"`
}

type SystemInfoResponse struct {
	Info sysinfo.SystemInfo `json:"info"`
}

type MetricsResponse struct {
	Metrics sysinfo.Metrics `json:"metrics"`
}

type NetworkSettingRequest struct {
	MTU int `json:"mtu"`
}

type PowerPlanRequest struct {
	Plan string `json:"plan"`
}

// CommandResponse reports a one-off gateway command.
type CommandResponse struct {
	Result gateway.Result `json:"result"`
}

type ShutdownResponse struct {
	Success bool `json:"success"`
}
