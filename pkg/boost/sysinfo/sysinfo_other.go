//go:build !darwin && !linux && !windows

package sysinfo

import "errors"

// readResources falls back to defaults for memory; the CPU count still
// comes from the runtime.
func readResources() (resources, error) {
	return resources{
		totalRAM: defaultTotalRAM,
		freeRAM:  defaultTotalRAM / 2, // Conservative 50% estimate
		load1:    -1,
	}, nil
}

func diskUsage(string) (used, total uint64, err error) {
	return 0, 0, errors.New("disk usage not supported on this platform")
}
