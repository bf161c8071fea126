package gateway

import (
	"context"
	"slices"

	"github.com/jamesainslie/boost/pkg/boost/tweak"
)

// Simulated reports success for every known operation without touching
// the system. It backs platforms without a native implementation and
// dry runs.
type Simulated struct{}

var _ Gateway = Simulated{}

func knownTweak(id string) bool {
	return slices.Contains(tweak.IDs(tweak.Catalog()), id)
}

func (Simulated) ApplyTweak(ctx context.Context, id string, enable bool) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	if !knownTweak(id) {
		return fail("Unknown tweak: %s", id), nil
	}
	return ok("[MOCK] Boost tweak '%s' %s", id, enabledWord(enable)), nil
}

func (Simulated) ApplyNetworkSetting(ctx context.Context, mtu int) (Result, error) {
	if err := ValidateMTU(mtu); err != nil {
		return Result{}, err
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	return ok("[MOCK] MTU Size set to %d", mtu), nil
}

func (Simulated) ApplyPowerPlan(ctx context.Context, plan PowerPlan) (Result, error) {
	if _, err := plan.scheme(); err != nil {
		return Result{}, err
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	return ok("[MOCK] Power plan set to %s", plan), nil
}

func (Simulated) FlushDNSCache(ctx context.Context) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	return ok("[MOCK] DNS cache flushed"), nil
}

func (Simulated) SetProcessPriority(ctx context.Context, name string, p Priority) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	return ok("[MOCK] Set %s priority to %s", name, p), nil
}

func enabledWord(enable bool) string {
	if enable {
		return "enabled"
	}
	return "disabled"
}
