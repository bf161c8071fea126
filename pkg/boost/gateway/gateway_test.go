package gateway_test

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamesainslie/boost/pkg/boost/gateway"
	"github.com/jamesainslie/boost/pkg/boost/gateway/gatewaytest"
)

func TestSimulatedTweaks(t *testing.T) {
	ctx := context.Background()
	g := gateway.New(gateway.Options{Mock: true})

	res, err := g.ApplyTweak(ctx, "cortana", true)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "[MOCK] Boost tweak 'cortana' enabled", res.Message)

	res, err = g.ApplyTweak(ctx, "ram", false)
	require.NoError(t, err)
	assert.Equal(t, "[MOCK] Boost tweak 'ram' disabled", res.Message)

	res, err = g.ApplyTweak(ctx, "overclock", true)
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, "Unknown tweak: overclock", res.Message)
}

func TestMTUValidation(t *testing.T) {
	ctx := context.Background()
	g := gateway.Simulated{}

	for _, mtu := range []int{1399, 1501, 0} {
		_, err := g.ApplyNetworkSetting(ctx, mtu)
		assert.ErrorIs(t, err, gateway.ErrMTUOutOfRange, "mtu %d", mtu)
	}
	for _, mtu := range []int{1400, 1472, 1500} {
		res, err := g.ApplyNetworkSetting(ctx, mtu)
		require.NoError(t, err)
		assert.True(t, res.Success)
	}
}

func TestPriorityParsing(t *testing.T) {
	tests := map[string]gateway.Priority{
		"Realtime":     gateway.Realtime,
		"high":         gateway.High,
		"AboveNormal":  gateway.AboveNormal,
		"above-normal": gateway.AboveNormal,
		"Above Normal": gateway.AboveNormal,
		"normal":       gateway.Normal,
		"LOW":          gateway.Low,
	}
	for in, want := range tests {
		got, err := gateway.ParsePriority(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := gateway.ParsePriority("idle")
	assert.Error(t, err)
}

func TestPriorityMappings(t *testing.T) {
	tests := []struct {
		p     gateway.Priority
		class uint32
		nice  int
	}{
		{gateway.Realtime, 256, -20},
		{gateway.High, 128, -10},
		{gateway.AboveNormal, 32768, -5},
		{gateway.Normal, 32, 0},
		{gateway.Low, 64, 10},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.class, tt.p.WindowsClass(), tt.p.String())
		assert.Equal(t, tt.nice, tt.p.Nice(), tt.p.String())
	}
}

func TestPriorityJSON(t *testing.T) {
	b, err := json.Marshal(struct {
		P gateway.Priority `json:"priority"`
	}{gateway.AboveNormal})
	require.NoError(t, err)
	assert.JSONEq(t, `{"priority":"AboveNormal"}`, string(b))

	var back struct {
		P gateway.Priority `json:"priority"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"priority":"Realtime"}`), &back))
	assert.Equal(t, gateway.Realtime, back.P)
	assert.Error(t, json.Unmarshal([]byte(`{"priority":"Turbo"}`), &back))
}

func TestPowerPlan(t *testing.T) {
	p, err := gateway.ParsePowerPlan("Ultimate")
	require.NoError(t, err)
	assert.Equal(t, gateway.PlanUltimate, p)

	_, err = gateway.ParsePowerPlan("balanced")
	assert.ErrorIs(t, err, gateway.ErrUnknownPlan)

	_, err = gateway.Simulated{}.ApplyPowerPlan(context.Background(), gateway.PowerPlan(7))
	assert.ErrorIs(t, err, gateway.ErrUnknownPlan)
}

func TestOutcome(t *testing.T) {
	msg, ok := gateway.Outcome(gateway.Result{Success: true, Message: "done"}, nil)
	assert.True(t, ok)
	assert.Equal(t, "done", msg)

	msg, ok = gateway.Outcome(gateway.Result{}, gateway.ErrStepTimeout)
	assert.False(t, ok)
	assert.Equal(t, gateway.ErrStepTimeout.Error(), msg)
}

func TestWithTimeout(t *testing.T) {
	rec := gatewaytest.New()
	release := rec.Block()
	defer release()

	g := gateway.WithTimeout(rec, 20*time.Millisecond)
	start := time.Now()
	_, err := g.ApplyTweak(context.Background(), "telemetry", true)
	assert.ErrorIs(t, err, gateway.ErrStepTimeout)
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.True(t, strings.Contains(err.Error(), "apply tweak telemetry"))
}

func TestWithTimeoutPassesResults(t *testing.T) {
	rec := gatewaytest.New().Fail("gamebar")
	g := gateway.WithTimeout(rec, time.Second)

	res, err := g.ApplyTweak(context.Background(), "gamebar", true)
	require.NoError(t, err)
	assert.False(t, res.Success)

	res, err = g.SetProcessPriority(context.Background(), "cod.exe", gateway.Realtime)
	require.NoError(t, err)
	assert.True(t, res.Success)

	assert.Equal(t, gateway.Gateway(rec), gateway.WithTimeout(rec, 0))
	assert.Len(t, rec.Calls(), 2)
}

func TestWithTimeoutParentCanceled(t *testing.T) {
	rec := gatewaytest.New()
	release := rec.Block()
	defer release()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := gateway.WithTimeout(rec, time.Minute).FlushDNSCache(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
