// Package sysinfo detects host resources and samples the dashboard
// metrics. Values the platform exposes (memory, load, disk, uptime) are
// measured; the rest (GPU, FPS, PSU, temperature) are estimates derived
// from CPU load.
package sysinfo

import (
	"fmt"
	"runtime"
	"time"

	"github.com/dustin/go-humanize"
)

// defaultTotalRAM is the fallback total RAM value when detection fails.
const defaultTotalRAM = 8 * 1024 * 1024 * 1024

// resources are the raw values a platform probe reports.
type resources struct {
	cpuModel string
	cpuMHz   int
	totalRAM uint64
	freeRAM  uint64
	uptime   time.Duration

	// load1 is the one minute load average; negative when unknown.
	load1 float64
}

// SystemInfo describes the host.
type SystemInfo struct {
	CPUModel           string        `json:"cpuModel" yaml:"cpu_model"`
	CPUCount           int           `json:"cpuCount" yaml:"cpu_count"`
	CPUSpeedMHz        int           `json:"cpuSpeed" yaml:"cpu_speed_mhz"`
	TotalMemory        uint64        `json:"totalMemory" yaml:"total_memory"`
	UsedMemory         uint64        `json:"usedMemory" yaml:"used_memory"`
	FreeMemory         uint64        `json:"freeMemory" yaml:"free_memory"`
	MemoryUsagePercent int           `json:"memoryUsagePercent" yaml:"memory_usage_percent"`
	Platform           string        `json:"platform" yaml:"platform"`
	Uptime             time.Duration `json:"uptime" yaml:"uptime"`
}

// Detect reads the host description.
func Detect() (SystemInfo, error) {
	r, err := readResources()
	if err != nil {
		return SystemInfo{}, err
	}
	return r.info(), nil
}

func (r resources) info() SystemInfo {
	if r.cpuModel == "" {
		r.cpuModel = "Unknown CPU"
	}
	if r.totalRAM == 0 {
		r.totalRAM = defaultTotalRAM
		r.freeRAM = defaultTotalRAM / 2
	}
	used := r.totalRAM - min(r.freeRAM, r.totalRAM)
	return SystemInfo{
		CPUModel:           r.cpuModel,
		CPUCount:           runtime.NumCPU(),
		CPUSpeedMHz:        r.cpuMHz,
		TotalMemory:        r.totalRAM,
		UsedMemory:         used,
		FreeMemory:         r.totalRAM - used,
		MemoryUsagePercent: percent(used, r.totalRAM),
		Platform:           runtime.GOOS,
		Uptime:             r.uptime,
	}
}

// Lines renders the info as label/value pairs for display.
func (s SystemInfo) Lines() [][2]string {
	speed := "unknown"
	if s.CPUSpeedMHz > 0 {
		speed = fmt.Sprintf("%d MHz", s.CPUSpeedMHz)
	}
	return [][2]string{
		{"CPU", fmt.Sprintf("%s (%d threads, %s)", s.CPUModel, s.CPUCount, speed)},
		{"Memory", fmt.Sprintf("%s / %s (%d%%)",
			humanize.IBytes(s.UsedMemory), humanize.IBytes(s.TotalMemory), s.MemoryUsagePercent)},
		{"Platform", s.Platform},
		{"Up since", humanize.Time(time.Now().Add(-s.Uptime))},
	}
}

func percent(part, total uint64) int {
	if total == 0 {
		return 0
	}
	return int((part*100 + total/2) / total)
}
