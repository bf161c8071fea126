package proc

import (
	"context"
	"fmt"

	"golang.org/x/sys/unix"
)

func list(_ context.Context) ([]Process, error) {
	kps, err := unix.SysctlKinfoProcSlice("kern.proc.all")
	if err != nil {
		return nil, fmt.Errorf("sysctl kern.proc.all: %w", err)
	}
	out := make([]Process, 0, len(kps))
	for _, kp := range kps {
		name := unix.ByteSliceToString(kp.Proc.P_comm[:])
		if name == "" {
			continue
		}
		out = append(out, Process{PID: int(kp.Proc.P_pid), Name: name})
	}
	return out, nil
}
