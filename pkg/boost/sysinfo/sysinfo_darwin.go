//go:build darwin

package sysinfo

import (
	"encoding/binary"
	"fmt"
	"time"

	"golang.org/x/sys/unix"
)

// readResources uses sysctl for memory, CPU and boot time.
func readResources() (resources, error) {
	r := resources{load1: -1}

	memsize, err := unix.SysctlUint64("hw.memsize")
	if err != nil {
		return r, fmt.Errorf("sysctl hw.memsize: %w", err)
	}
	r.totalRAM = memsize

	pageSize, err1 := unix.SysctlUint32("hw.pagesize")
	freePages, err2 := unix.SysctlUint32("vm.page_free_count")
	if err1 == nil && err2 == nil {
		r.freeRAM = uint64(freePages) * uint64(pageSize)
	} else {
		// Conservative 50% estimate.
		r.freeRAM = memsize / 2
	}

	if brand, err := unix.Sysctl("machdep.cpu.brand_string"); err == nil {
		r.cpuModel = brand
	}
	// Not reported on Apple silicon.
	if hz, err := unix.SysctlUint64("hw.cpufrequency"); err == nil {
		r.cpuMHz = int(hz / 1_000_000)
	}

	if tv, err := unix.SysctlTimeval("kern.boottime"); err == nil {
		r.uptime = time.Since(time.Unix(tv.Unix()))
	}

	// struct loadavg { fixpt_t ldavg[3]; long fscale; }
	if raw, err := unix.SysctlRaw("vm.loadavg"); err == nil && len(raw) >= 24 {
		ld := binary.LittleEndian.Uint32(raw[0:4])
		scale := binary.LittleEndian.Uint64(raw[16:24])
		if scale > 0 {
			r.load1 = float64(ld) / float64(scale)
		}
	}

	return r, nil
}

func diskUsage(path string) (used, total uint64, err error) {
	var st unix.Statfs_t
	if err := unix.Statfs(path, &st); err != nil {
		return 0, 0, err
	}
	total = st.Blocks * uint64(st.Bsize)
	free := st.Bavail * uint64(st.Bsize)
	return total - free, total, nil
}
