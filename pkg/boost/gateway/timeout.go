package gateway

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jamesainslie/boost/pkg/boost/logging"
)

// ErrStepTimeout marks a call abandoned after the step timeout elapsed.
var ErrStepTimeout = errors.New("step timed out")

type bounded struct {
	next    Gateway
	timeout time.Duration
	log     *logging.Logger
}

// WithTimeout bounds every call on g to d. A call that overruns returns
// ErrStepTimeout even if the underlying command ignores cancellation; the
// command is left to finish in the background. A non-positive d returns g
// unchanged.
func WithTimeout(g Gateway, d time.Duration) Gateway {
	if d <= 0 {
		return g
	}
	return &bounded{next: g, timeout: d, log: logging.Get("gateway")}
}

type reply struct {
	res Result
	err error
}

func (b *bounded) call(ctx context.Context, op string, fn func(context.Context) (Result, error)) (Result, error) {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	done := make(chan reply, 1)
	go func() {
		res, err := fn(ctx)
		done <- reply{res, err}
	}()

	select {
	case r := <-done:
		return r.res, r.err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			b.log.Warn("gateway call timed out", "op", op, "timeout", b.timeout)
			return Result{}, fmt.Errorf("%s: %w after %s", op, ErrStepTimeout, b.timeout)
		}
		return Result{}, ctx.Err()
	}
}

func (b *bounded) ApplyTweak(ctx context.Context, id string, enable bool) (Result, error) {
	return b.call(ctx, "apply tweak "+id, func(ctx context.Context) (Result, error) {
		return b.next.ApplyTweak(ctx, id, enable)
	})
}

func (b *bounded) ApplyNetworkSetting(ctx context.Context, mtu int) (Result, error) {
	return b.call(ctx, "set mtu", func(ctx context.Context) (Result, error) {
		return b.next.ApplyNetworkSetting(ctx, mtu)
	})
}

func (b *bounded) ApplyPowerPlan(ctx context.Context, plan PowerPlan) (Result, error) {
	return b.call(ctx, "set power plan", func(ctx context.Context) (Result, error) {
		return b.next.ApplyPowerPlan(ctx, plan)
	})
}

func (b *bounded) FlushDNSCache(ctx context.Context) (Result, error) {
	return b.call(ctx, "flush dns", b.next.FlushDNSCache)
}

func (b *bounded) SetProcessPriority(ctx context.Context, name string, p Priority) (Result, error) {
	return b.call(ctx, "set priority "+name, func(ctx context.Context) (Result, error) {
		return b.next.SetProcessPriority(ctx, name, p)
	})
}
