//go:build !linux && !darwin && !windows

package proc

import "context"

func list(context.Context) ([]Process, error) {
	return nil, ErrUnsupported
}
