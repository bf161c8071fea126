//go:build linux

package sysinfo

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sys/unix"
)

var procRoot = "/proc"

func readResources() (resources, error) {
	r := resources{load1: -1}

	if f, err := os.Open(filepath.Join(procRoot, "meminfo")); err == nil {
		r.totalRAM, r.freeRAM = parseMeminfo(f)
		f.Close()
	}
	if f, err := os.Open(filepath.Join(procRoot, "cpuinfo")); err == nil {
		r.cpuModel, r.cpuMHz = parseCPUInfo(f)
		f.Close()
	}

	var si unix.Sysinfo_t
	if err := unix.Sysinfo(&si); err == nil {
		r.uptime = time.Duration(si.Uptime) * time.Second
		r.load1 = float64(si.Loads[0]) / (1 << unix.SI_LOAD_SHIFT)
		if r.totalRAM == 0 {
			unit := uint64(si.Unit)
			r.totalRAM = uint64(si.Totalram) * unit
			r.freeRAM = uint64(si.Freeram) * unit
		}
	}
	return r, nil
}

// parseMeminfo returns MemTotal and MemAvailable in bytes. Kernels older
// than 3.14 lack MemAvailable; MemFree is used instead.
func parseMeminfo(rd io.Reader) (total, avail uint64) {
	var free uint64
	haveAvail := false
	sc := bufio.NewScanner(rd)
	for sc.Scan() {
		key, rest, ok := strings.Cut(sc.Text(), ":")
		if !ok {
			continue
		}
		fields := strings.Fields(rest)
		if len(fields) == 0 {
			continue
		}
		kb, err := strconv.ParseUint(fields[0], 10, 64)
		if err != nil {
			continue
		}
		switch key {
		case "MemTotal":
			total = kb * 1024
		case "MemAvailable":
			avail = kb * 1024
			haveAvail = true
		case "MemFree":
			free = kb * 1024
		}
	}
	if !haveAvail {
		avail = free
	}
	return total, avail
}

// parseCPUInfo returns the first "model name" and "cpu MHz".
func parseCPUInfo(rd io.Reader) (model string, mhz int) {
	sc := bufio.NewScanner(rd)
	for sc.Scan() {
		key, val, ok := strings.Cut(sc.Text(), ":")
		if !ok {
			continue
		}
		key, val = strings.TrimSpace(key), strings.TrimSpace(val)
		switch {
		case key == "model name" && model == "":
			model = val
		case key == "cpu MHz" && mhz == 0:
			if f, err := strconv.ParseFloat(val, 64); err == nil {
				mhz = int(f + 0.5)
			}
		}
		if model != "" && mhz != 0 {
			break
		}
	}
	return model, mhz
}

func diskUsage(path string) (used, total uint64, err error) {
	var st unix.Statfs_t
	if err := unix.Statfs(path, &st); err != nil {
		return 0, 0, err
	}
	bsize := uint64(st.Bsize)
	total = st.Blocks * bsize
	free := st.Bavail * bsize
	return total - free, total, nil
}
