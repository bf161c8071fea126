package gateway

import (
	"fmt"
	"strings"
)

// Priority is a process scheduling priority.
type Priority int

const (
	Normal Priority = iota
	Realtime
	High
	AboveNormal
	Low
)

// Priorities lists every level, highest first.
var Priorities = []Priority{Realtime, High, AboveNormal, Normal, Low}

var priorityNames = map[Priority]string{
	Realtime:    "Realtime",
	High:        "High",
	AboveNormal: "AboveNormal",
	Normal:      "Normal",
	Low:         "Low",
}

func (p Priority) String() string {
	if s, ok := priorityNames[p]; ok {
		return s
	}
	return fmt.Sprintf("Priority(%d)", int(p))
}

// ParsePriority accepts the level names in any case, with or without
// separators ("above-normal", "Above Normal").
func ParsePriority(s string) (Priority, error) {
	key := strings.NewReplacer("-", "", "_", "", " ", "").Replace(strings.ToLower(s))
	for p, name := range priorityNames {
		if strings.ToLower(name) == key {
			return p, nil
		}
	}
	return Normal, fmt.Errorf("unknown priority %q", s)
}

func (p Priority) MarshalText() ([]byte, error) {
	if _, ok := priorityNames[p]; !ok {
		return nil, fmt.Errorf("invalid priority %d", int(p))
	}
	return []byte(p.String()), nil
}

func (p *Priority) UnmarshalText(b []byte) error {
	parsed, err := ParsePriority(string(b))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// WindowsClass is the Win32 priority class constant for p.
func (p Priority) WindowsClass() uint32 {
	switch p {
	case Realtime:
		return 0x100
	case High:
		return 0x80
	case AboveNormal:
		return 0x8000
	case Low:
		return 0x40
	default:
		return 0x20
	}
}

// Nice is the unix nice value used for p.
func (p Priority) Nice() int {
	switch p {
	case Realtime:
		return -20
	case High:
		return -10
	case AboveNormal:
		return -5
	case Low:
		return 10
	default:
		return 0
	}
}

// PowerPlan is a selectable power scheme.
type PowerPlan int

const (
	PlanHigh PowerPlan = iota
	PlanUltimate
)

func (p PowerPlan) String() string {
	switch p {
	case PlanHigh:
		return "high"
	case PlanUltimate:
		return "ultimate"
	}
	return fmt.Sprintf("PowerPlan(%d)", int(p))
}

// ParsePowerPlan accepts "high" or "ultimate".
func ParsePowerPlan(s string) (PowerPlan, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "high":
		return PlanHigh, nil
	case "ultimate":
		return PlanUltimate, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownPlan, s)
}

// Windows power scheme GUIDs.
const (
	schemeBalanced = "381b4222-f694-41f0-9685-ff5bb260df2e"
	schemeHigh     = "8c5e7fda-e8bf-45a6-a6cc-4b3c5c30a025"
	schemeUltimate = "e9a42b02-d5df-448d-aa00-03f14749eb61"
)

func (p PowerPlan) scheme() (string, error) {
	switch p {
	case PlanHigh:
		return schemeHigh, nil
	case PlanUltimate:
		return schemeUltimate, nil
	}
	return "", fmt.Errorf("%w: %d", ErrUnknownPlan, int(p))
}
