// Package tweak holds the catalog of system tweaks and their on/off flags.
//
// The catalog is fixed: tweaks can be switched on and off but never added or
// removed at runtime. Registry order is the order tweaks are applied in.
package tweak

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Category groups tweaks for display.
type Category int

const (
	System Category = iota
	Network
	Privacy
)

var categoryNames = [...]string{
	System:  "System",
	Network: "Network",
	Privacy: "Privacy",
}

func (c Category) String() string {
	if c < 0 || int(c) >= len(categoryNames) {
		return fmt.Sprintf("Category(%d)", int(c))
	}
	return categoryNames[c]
}

// ParseCategory accepts a category name in any case.
func ParseCategory(s string) (Category, error) {
	for i, name := range categoryNames {
		if strings.EqualFold(s, name) {
			return Category(i), nil
		}
	}
	return 0, fmt.Errorf("unknown tweak category %q", s)
}

func (c Category) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Category) UnmarshalText(b []byte) error {
	parsed, err := ParseCategory(string(b))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Tweak is one switchable optimization.
type Tweak struct {
	ID          string   `json:"id" yaml:"id"`
	Label       string   `json:"label" yaml:"label"`
	Description string   `json:"description" yaml:"description"`
	Category    Category `json:"category" yaml:"category"`
	Enabled     bool     `json:"enabled" yaml:"enabled"`
}

// State is the persisted part of a tweak. Older documents carry the full
// tweak record; only id and enabled are read back.
type State struct {
	ID      string `json:"id"`
	Enabled bool   `json:"enabled"`
}

// States extracts the persisted view of ts.
func States(ts []Tweak) []State {
	out := make([]State, len(ts))
	for i, t := range ts {
		out[i] = State{ID: t.ID, Enabled: t.Enabled}
	}
	return out
}

// DecodeStates reads a JSON array of tweak records, tolerating unknown
// fields and unknown category names.
func DecodeStates(data []byte) ([]State, error) {
	var out []State
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decoding tweak states: %w", err)
	}
	return out, nil
}

// Tweak ids of the built-in catalog.
const (
	Cortana     = "cortana"
	Telemetry   = "telemetry"
	NetworkAck  = "network"
	RAMFlush    = "ram"
	GameBar     = "gamebar"
	Fullscreen  = "fullscreen"
	PowerPlan   = "power"
	Hibernation = "hibernation"
)

// Catalog returns a fresh copy of the built-in tweaks with their default
// flags.
func Catalog() []Tweak {
	return []Tweak{
		{Cortana, "Disable Cortana", "Prevents Cortana from running in the background to save RAM.", Privacy, true},
		{Telemetry, "Kill Telemetry (DiagTrack)", "Stops Windows from sending usage data, reducing background CPU usage.", Privacy, true},
		{NetworkAck, "Network Boost (TcpAck)", "Modifies TcpAckFrequency to 1 for lower ping in online games.", Network, true},
		{RAMFlush, "Auto RAM Flush", "Automatically clears Standby List to free up memory.", System, true},
		{GameBar, "Disable Game Bar", "Turns off Xbox Game Bar overlay which can cause stuttering.", System, false},
		{Fullscreen, "Disable Fullscreen Opt.", "Disables Windows Fullscreen Optimizations for better input lag.", System, false},
		{PowerPlan, "High Perf. Power Plan", "Forces CPU to run at max frequency constantly.", System, false},
		{Hibernation, "Disable Hibernation", "Removes hiberfil.sys to save SSD space and prevent sleep issues.", System, false},
	}
}
