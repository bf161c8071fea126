package gateway

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sys/windows"
	"golang.org/x/sys/windows/registry"

	"github.com/jamesainslie/boost/pkg/boost/logging"
	"github.com/jamesainslie/boost/pkg/boost/proc"
	"github.com/jamesainslie/boost/pkg/boost/tweak"
)

const (
	tcpipInterfaces = `SYSTEM\CurrentControlSet\Services\Tcpip\Parameters\Interfaces`
	gameDVRKey      = `Software\Microsoft\Windows\CurrentVersion\GameDVR`
	gameConfigKey   = `System\GameConfigStore`
)

type windowsGateway struct {
	run     Runner
	iface   string
	log     *logging.Logger
	actions map[string]tweakAction
}

// tweakAction holds the apply and revert steps of one tweak.
type tweakAction struct {
	apply  func(ctx context.Context) error
	revert func(ctx context.Context) error
}

func newSystem(opts Options) Gateway {
	g := &windowsGateway{run: opts.Run, iface: opts.Interface, log: logging.Get("gateway")}
	g.actions = map[string]tweakAction{
		tweak.Cortana: {
			apply:  g.powershell(`Get-AppxPackage -AllUsers *Microsoft.549981C3F5F10* | Remove-AppxPackage`),
			revert: g.powershell(`Get-AppxPackage -AllUsers *Microsoft.549981C3F5F10* | ForEach-Object { Add-AppxPackage -DisableDevelopmentMode -Register "$($_.InstallLocation)\AppXManifest.xml" }`),
		},
		tweak.Telemetry: {
			apply: g.sequence(
				g.tolerant(g.command("sc", "stop", "DiagTrack")),
				g.command("sc", "config", "DiagTrack", "start=", "disabled"),
			),
			revert: g.sequence(
				g.command("sc", "config", "DiagTrack", "start=", "auto"),
				g.tolerant(g.command("sc", "start", "DiagTrack")),
			),
		},
		tweak.NetworkAck: {
			apply:  g.tcpAckFrequency(1),
			revert: g.tcpAckFrequency(2),
		},
		tweak.RAMFlush: {
			apply:  g.powershell(`Get-Process | ForEach-Object { try { $_.MinWorkingSet = $_.MinWorkingSet } catch {} }`),
			revert: noop,
		},
		tweak.GameBar: {
			apply:  dword(registry.CURRENT_USER, gameDVRKey, "AppCaptureEnabled", 0),
			revert: dword(registry.CURRENT_USER, gameDVRKey, "AppCaptureEnabled", 1),
		},
		tweak.Fullscreen: {
			apply:  dword(registry.CURRENT_USER, gameConfigKey, "GameDVR_FSEBehaviorMode", 2),
			revert: dword(registry.CURRENT_USER, gameConfigKey, "GameDVR_FSEBehaviorMode", 0),
		},
		tweak.PowerPlan: {
			apply:  g.command("powercfg", "/setactive", schemeHigh),
			revert: g.command("powercfg", "/setactive", schemeBalanced),
		},
		tweak.Hibernation: {
			apply:  g.command("powercfg", "/hibernate", "off"),
			revert: g.command("powercfg", "/hibernate", "on"),
		},
	}
	return g
}

func noop(context.Context) error { return nil }

func (g *windowsGateway) command(name string, args ...string) func(context.Context) error {
	return func(ctx context.Context) error {
		_, err := g.run(ctx, name, args...)
		return err
	}
}

func (g *windowsGateway) powershell(script string) func(context.Context) error {
	return g.command("powershell", "-NoProfile", "-NonInteractive", "-Command", script)
}

// tolerant ignores failures of steps whose target may legitimately be
// absent, such as stopping a service that is not running.
func (g *windowsGateway) tolerant(step func(context.Context) error) func(context.Context) error {
	return func(ctx context.Context) error {
		if err := step(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			g.log.Debug("ignored step failure", "err", err)
		}
		return nil
	}
}

func (g *windowsGateway) sequence(steps ...func(context.Context) error) func(context.Context) error {
	return func(ctx context.Context) error {
		for _, step := range steps {
			if err := step(ctx); err != nil {
				return err
			}
		}
		return nil
	}
}

func dword(root registry.Key, path, name string, value uint32) func(context.Context) error {
	return func(context.Context) error {
		k, _, err := registry.CreateKey(root, path, registry.SET_VALUE)
		if err != nil {
			return fmt.Errorf("opening %s: %w", path, err)
		}
		defer k.Close()
		if err := k.SetDWordValue(name, value); err != nil {
			return fmt.Errorf("setting %s\\%s: %w", path, name, err)
		}
		return nil
	}
}

// tcpAckFrequency writes TcpAckFrequency on every TCP/IP interface key;
// the value has no effect on the parent key.
func (g *windowsGateway) tcpAckFrequency(value uint32) func(context.Context) error {
	return func(ctx context.Context) error {
		parent, err := registry.OpenKey(registry.LOCAL_MACHINE, tcpipInterfaces, registry.ENUMERATE_SUB_KEYS)
		if err != nil {
			return fmt.Errorf("opening interfaces key: %w", err)
		}
		names, err := parent.ReadSubKeyNames(0)
		parent.Close()
		if err != nil {
			return fmt.Errorf("listing interfaces: %w", err)
		}

		var errs []error
		for _, name := range names {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if err := dword(registry.LOCAL_MACHINE, tcpipInterfaces+`\`+name, "TcpAckFrequency", value)(ctx); err != nil {
				errs = append(errs, err)
			}
		}
		if len(errs) == len(names) && len(names) > 0 {
			return errors.Join(errs...)
		}
		return nil
	}
}

func (g *windowsGateway) ApplyTweak(ctx context.Context, id string, enable bool) (Result, error) {
	action, found := g.actions[id]
	if !found {
		return fail("Unknown tweak: %s", id), nil
	}
	step := action.revert
	verb := "reverted"
	if enable {
		step, verb = action.apply, "applied"
	}
	if err := step(ctx); err != nil {
		if ctx.Err() != nil {
			return Result{}, ctx.Err()
		}
		return fail("Tweak '%s' failed: %v", id, err), nil
	}
	return ok("Tweak '%s' %s", id, verb), nil
}

func (g *windowsGateway) ApplyNetworkSetting(ctx context.Context, mtu int) (Result, error) {
	if err := ValidateMTU(mtu); err != nil {
		return Result{}, err
	}
	_, err := g.run(ctx, "netsh", "interface", "ipv4", "set", "subinterface",
		g.iface, fmt.Sprintf("mtu=%d", mtu), "store=persistent")
	if err != nil {
		return fail("Failed to set MTU: %v", err), nil
	}
	return ok("MTU Size adjusted to %d bytes", mtu), nil
}

func (g *windowsGateway) ApplyPowerPlan(ctx context.Context, plan PowerPlan) (Result, error) {
	guid, err := plan.scheme()
	if err != nil {
		return Result{}, err
	}
	if plan == PlanUltimate {
		// The Ultimate scheme is hidden until duplicated into the list.
		_, _ = g.run(ctx, "powercfg", "/duplicatescheme", guid, guid)
	}
	if _, err := g.run(ctx, "powercfg", "/setactive", guid); err != nil {
		return fail("Failed to apply power plan: %v", err), nil
	}
	return ok("Power plan changed to %s", plan), nil
}

func (g *windowsGateway) FlushDNSCache(ctx context.Context) (Result, error) {
	if _, err := g.run(ctx, "ipconfig", "/flushdns"); err != nil {
		return fail("Failed to flush DNS cache: %v", err), nil
	}
	return ok("DNS cache flushed successfully"), nil
}

func (g *windowsGateway) SetProcessPriority(ctx context.Context, name string, p Priority) (Result, error) {
	procs, err := proc.Find(ctx, name)
	if err != nil {
		return Result{}, fmt.Errorf("finding %s: %w", name, err)
	}
	if len(procs) == 0 {
		return fail("Process %s is not running", name), nil
	}

	var failed []string
	for _, pr := range procs {
		if err := setPriorityClass(uint32(pr.PID), p.WindowsClass()); err != nil {
			g.log.Warn("SetPriorityClass failed", "pid", pr.PID, "name", pr.Name, "err", err)
			failed = append(failed, fmt.Sprintf("%d: %v", pr.PID, err))
		}
	}
	if len(failed) == len(procs) {
		return fail("Failed to set %s priority: %s", name, strings.Join(failed, "; ")), nil
	}
	return ok("Set %s priority to %s", name, p), nil
}

func setPriorityClass(pid, class uint32) error {
	h, err := windows.OpenProcess(windows.PROCESS_SET_INFORMATION, false, pid)
	if err != nil {
		return err
	}
	defer windows.CloseHandle(h)
	return windows.SetPriorityClass(h, class)
}
