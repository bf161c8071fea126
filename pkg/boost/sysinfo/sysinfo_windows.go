//go:build windows

package sysinfo

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"
	"golang.org/x/sys/windows/registry"
)

var procGlobalMemoryStatusEx = windows.NewLazySystemDLL("kernel32.dll").NewProc("GlobalMemoryStatusEx")

// memoryStatusEx mirrors MEMORYSTATUSEX.
type memoryStatusEx struct {
	Length               uint32
	MemoryLoad           uint32
	TotalPhys            uint64
	AvailPhys            uint64
	TotalPageFile        uint64
	AvailPageFile        uint64
	TotalVirtual         uint64
	AvailVirtual         uint64
	AvailExtendedVirtual uint64
}

// readResources reads memory from GlobalMemoryStatusEx and the CPU name
// from the registry. Windows has no load average.
func readResources() (resources, error) {
	r := resources{load1: -1}

	ms := memoryStatusEx{Length: uint32(unsafe.Sizeof(memoryStatusEx{}))}
	if ok, _, err := procGlobalMemoryStatusEx.Call(uintptr(unsafe.Pointer(&ms))); ok == 0 {
		return r, fmt.Errorf("GlobalMemoryStatusEx: %w", err)
	}
	r.totalRAM = ms.TotalPhys
	r.freeRAM = ms.AvailPhys

	k, err := registry.OpenKey(registry.LOCAL_MACHINE,
		`HARDWARE\DESCRIPTION\System\CentralProcessor\0`, registry.QUERY_VALUE)
	if err == nil {
		if name, _, err := k.GetStringValue("ProcessorNameString"); err == nil {
			r.cpuModel = name
		}
		if mhz, _, err := k.GetIntegerValue("~MHz"); err == nil {
			r.cpuMHz = int(mhz)
		}
		k.Close()
	}

	r.uptime = windows.DurationSinceBoot()
	return r, nil
}

func diskUsage(path string) (used, total uint64, err error) {
	p, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return 0, 0, err
	}
	var free, tot, totalFree uint64
	if err := windows.GetDiskFreeSpaceEx(p, &free, &tot, &totalFree); err != nil {
		return 0, 0, err
	}
	return tot - free, tot, nil
}
