// Package client connects to the boostd daemon. It wraps the gRPC client
// with domain-typed methods and manages the daemon process.
package client

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"

	boostv1 "github.com/jamesainslie/boost/pkg/api/boost/v1"
	"github.com/jamesainslie/boost/pkg/boost/activity"
	"github.com/jamesainslie/boost/pkg/boost/config"
	"github.com/jamesainslie/boost/pkg/boost/gateway"
	"github.com/jamesainslie/boost/pkg/boost/profile"
	"github.com/jamesainslie/boost/pkg/boost/sequencer"
	"github.com/jamesainslie/boost/pkg/boost/sysinfo"
	"github.com/jamesainslie/boost/pkg/boost/tweak"
	"github.com/jamesainslie/boost/pkg/daemon/runfile"
)

// ErrNotRunning is returned when the daemon socket does not exist.
var ErrNotRunning = errors.New("boostd is not running")

// Client talks to boostd over its unix socket.
type Client struct {
	conn   *grpc.ClientConn
	client boostv1.BoostDaemonClient
}

// DaemonStatus is the daemon's view of itself and the boost session.
type DaemonStatus = boostv1.DaemonStatus

// Connect establishes a connection to the daemon with a 5 second timeout.
func Connect(socketPath string) (*Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return ConnectWithContext(ctx, socketPath)
}

// ConnectWithContext establishes a connection to the daemon. It returns
// once the connection is ready or ctx ends.
func ConnectWithContext(ctx context.Context, socketPath string) (*Client, error) {
	if _, err := os.Stat(socketPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: no socket at %s", ErrNotRunning, socketPath)
	}

	//nolint:staticcheck // grpc.DialContext is deprecated but NewClient doesn't support blocking
	conn, err := grpc.DialContext(
		ctx,
		"unix://"+socketPath,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithBlock(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to daemon: %w", err)
	}
	return New(conn), nil
}

// New wraps an existing connection.
func New(conn *grpc.ClientConn) *Client {
	return &Client{conn: conn, client: boostv1.NewBoostDaemonClient(conn)}
}

// Close closes the connection to the daemon.
func (c *Client) Close() error {
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// Status returns the daemon status.
func (c *Client) Status(ctx context.Context) (*DaemonStatus, error) {
	st, err := c.client.GetStatus(ctx, &emptypb.Empty{})
	if err != nil {
		return nil, fromStatus("GetStatus", err)
	}
	return st, nil
}

// Activate starts a boost. With wait it returns once the boost is active.
func (c *Client) Activate(ctx context.Context, wait bool) (sequencer.Snapshot, error) {
	return c.session(ctx, "Activate", c.client.Activate, wait)
}

// Deactivate reverts the boost. With wait it returns once reverted.
func (c *Client) Deactivate(ctx context.Context, wait bool) (sequencer.Snapshot, error) {
	return c.session(ctx, "Deactivate", c.client.Deactivate, wait)
}

// Toggle activates when idle and deactivates when active.
func (c *Client) Toggle(ctx context.Context, wait bool) (sequencer.Snapshot, error) {
	return c.session(ctx, "Toggle", c.client.Toggle, wait)
}

type sessionCall func(context.Context, *boostv1.SessionRequest, ...grpc.CallOption) (*boostv1.SessionEvent, error)

func (c *Client) session(ctx context.Context, name string, call sessionCall, wait bool) (sequencer.Snapshot, error) {
	ev, err := call(ctx, &boostv1.SessionRequest{Wait: wait})
	if err != nil {
		return sequencer.Snapshot{}, fromStatus(name, err)
	}
	return ev.Session, nil
}

// WatchSession streams session snapshots, starting with the current one,
// until ctx is cancelled.
func (c *Client) WatchSession(ctx context.Context) (<-chan sequencer.Snapshot, error) {
	stream, err := c.client.WatchSession(ctx, &emptypb.Empty{})
	if err != nil {
		return nil, fromStatus("WatchSession", err)
	}
	return pump(ctx, stream, func(ev *boostv1.SessionEvent) sequencer.Snapshot { return ev.Session }), nil
}

// Tweaks lists the registry in catalog order.
func (c *Client) Tweaks(ctx context.Context) ([]tweak.Tweak, error) {
	resp, err := c.client.ListTweaks(ctx, &emptypb.Empty{})
	if err != nil {
		return nil, fromStatus("ListTweaks", err)
	}
	return resp.Tweaks, nil
}

// SetTweak flips a tweak's enabled flag. Unknown ids are ignored.
func (c *Client) SetTweak(ctx context.Context, id string, enabled bool) ([]tweak.Tweak, error) {
	resp, err := c.client.SetTweak(ctx, &boostv1.SetTweakRequest{ID: id, Enabled: enabled})
	if err != nil {
		return nil, fromStatus("SetTweak", err)
	}
	return resp.Tweaks, nil
}

// RestoreTweaks overwrites enabled flags from an export.
func (c *Client) RestoreTweaks(ctx context.Context, states []tweak.State) ([]tweak.Tweak, error) {
	resp, err := c.client.RestoreTweaks(ctx, &boostv1.RestoreTweaksRequest{States: states})
	if err != nil {
		return nil, fromStatus("RestoreTweaks", err)
	}
	return resp.Tweaks, nil
}

// Profiles returns all profiles, favorites first, and the quick-launch
// limit.
func (c *Client) Profiles(ctx context.Context) ([]profile.Profile, int, error) {
	resp, err := c.client.ListProfiles(ctx, &emptypb.Empty{})
	if err != nil {
		return nil, 0, fromStatus("ListProfiles", err)
	}
	return resp.Profiles, resp.QuickLimit, nil
}

// Profile finds one profile by id.
func (c *Client) Profile(ctx context.Context, id int64) (profile.Profile, error) {
	ps, _, err := c.Profiles(ctx)
	if err != nil {
		return profile.Profile{}, err
	}
	for _, p := range ps {
		if p.ID == id {
			return p, nil
		}
	}
	return profile.Profile{}, fmt.Errorf("%w: id %d", profile.ErrNotFound, id)
}

func (c *Client) CreateProfile(ctx context.Context, f profile.Fields) (profile.Profile, error) {
	resp, err := c.client.CreateProfile(ctx, &boostv1.CreateProfileRequest{Profile: boostv1.WireFields(f)})
	if err != nil {
		return profile.Profile{}, fromStatus("CreateProfile", err)
	}
	return resp.Profile, nil
}

func (c *Client) UpdateProfile(ctx context.Context, id int64, f profile.Fields) (profile.Profile, error) {
	resp, err := c.client.UpdateProfile(ctx, &boostv1.UpdateProfileRequest{ID: id, Profile: boostv1.WireFields(f)})
	if err != nil {
		return profile.Profile{}, fromStatus("UpdateProfile", err)
	}
	return resp.Profile, nil
}

func (c *Client) DeleteProfile(ctx context.Context, id int64) error {
	if _, err := c.client.DeleteProfile(ctx, &boostv1.ProfileRequest{ID: id}); err != nil {
		return fromStatus("DeleteProfile", err)
	}
	return nil
}

func (c *Client) ToggleFavorite(ctx context.Context, id int64) (profile.Profile, error) {
	resp, err := c.client.ToggleFavorite(ctx, &boostv1.ProfileRequest{ID: id})
	if err != nil {
		return profile.Profile{}, fromStatus("ToggleFavorite", err)
	}
	return resp.Profile, nil
}

// ApplyProfile sets the process priorities of a profile.
func (c *Client) ApplyProfile(ctx context.Context, id int64) (profile.ApplyReport, error) {
	resp, err := c.client.ApplyProfile(ctx, &boostv1.ProfileRequest{ID: id})
	if err != nil {
		return profile.ApplyReport{}, fromStatus("ApplyProfile", err)
	}
	return resp.Report, nil
}

// ReplaceProfiles swaps in an imported profile list and returns the
// number stored and the reasons for skipped entries.
func (c *Client) ReplaceProfiles(ctx context.Context, ps []profile.Profile) (int, []string, error) {
	resp, err := c.client.ReplaceProfiles(ctx, &boostv1.ReplaceProfilesRequest{Profiles: ps})
	if err != nil {
		return 0, nil, fromStatus("ReplaceProfiles", err)
	}
	return resp.Stored, resp.Skipped, nil
}

// Log returns the newest limit entries, oldest first. Zero returns all.
func (c *Client) Log(ctx context.Context, limit int) ([]activity.Entry, error) {
	resp, err := c.client.GetLog(ctx, &boostv1.GetLogRequest{Limit: limit})
	if err != nil {
		return nil, fromStatus("GetLog", err)
	}
	return resp.Entries, nil
}

func (c *Client) ClearLog(ctx context.Context) error {
	if _, err := c.client.ClearLog(ctx, &emptypb.Empty{}); err != nil {
		return fromStatus("ClearLog", err)
	}
	return nil
}

// WatchLog streams new activity entries until ctx is cancelled.
func (c *Client) WatchLog(ctx context.Context) (<-chan activity.Entry, error) {
	stream, err := c.client.WatchLog(ctx, &emptypb.Empty{})
	if err != nil {
		return nil, fromStatus("WatchLog", err)
	}
	return pump(ctx, stream, func(ev *boostv1.LogEvent) activity.Entry { return ev.Entry }), nil
}

func (c *Client) SystemInfo(ctx context.Context) (sysinfo.SystemInfo, error) {
	resp, err := c.client.GetSystemInfo(ctx, &emptypb.Empty{})
	if err != nil {
		return sysinfo.SystemInfo{}, fromStatus("GetSystemInfo", err)
	}
	return resp.Info, nil
}

func (c *Client) Metrics(ctx context.Context) (sysinfo.Metrics, error) {
	resp, err := c.client.GetMetrics(ctx, &emptypb.Empty{})
	if err != nil {
		return sysinfo.Metrics{}, fromStatus("GetMetrics", err)
	}
	return resp.Metrics, nil
}

// WatchMetrics streams samples, starting with the latest, until ctx is
// cancelled.
func (c *Client) WatchMetrics(ctx context.Context) (<-chan sysinfo.Metrics, error) {
	stream, err := c.client.WatchMetrics(ctx, &emptypb.Empty{})
	if err != nil {
		return nil, fromStatus("WatchMetrics", err)
	}
	return pump(ctx, stream, func(ev *boostv1.MetricsResponse) sysinfo.Metrics { return ev.Metrics }), nil
}

// SetMTU applies a network MTU. Gateway failures come back as an
// unsuccessful Result, not as an error.
func (c *Client) SetMTU(ctx context.Context, mtu int) (gateway.Result, error) {
	resp, err := c.client.ApplyNetworkSetting(ctx, &boostv1.NetworkSettingRequest{MTU: mtu})
	if err != nil {
		return gateway.Result{}, fromStatus("ApplyNetworkSetting", err)
	}
	return resp.Result, nil
}

func (c *Client) SetPowerPlan(ctx context.Context, plan string) (gateway.Result, error) {
	resp, err := c.client.ApplyPowerPlan(ctx, &boostv1.PowerPlanRequest{Plan: plan})
	if err != nil {
		return gateway.Result{}, fromStatus("ApplyPowerPlan", err)
	}
	return resp.Result, nil
}

func (c *Client) FlushDNS(ctx context.Context) (gateway.Result, error) {
	resp, err := c.client.FlushDNS(ctx, &emptypb.Empty{})
	if err != nil {
		return gateway.Result{}, fromStatus("FlushDNS", err)
	}
	return resp.Result, nil
}

// Shutdown requests the daemon to shut down gracefully.
func (c *Client) Shutdown(ctx context.Context) error {
	resp, err := c.client.Shutdown(ctx, &emptypb.Empty{})
	if err != nil {
		return fromStatus("Shutdown", err)
	}
	if !resp.Success {
		return errors.New("shutdown request was not successful")
	}
	return nil
}

// pump forwards a server stream onto a channel until the stream ends or
// ctx is cancelled.
func pump[M, T any](ctx context.Context, stream grpc.ServerStreamingClient[M], conv func(*M) T) <-chan T {
	out := make(chan T, 100)
	go func() {
		defer close(out)
		for {
			msg, err := stream.Recv()
			if err != nil {
				return
			}
			select {
			case out <- conv(msg):
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// sentinels are the domain errors the daemon reports by message.
var sentinels = map[codes.Code][]error{
	codes.FailedPrecondition: {sequencer.ErrBusy, sequencer.ErrAlreadyActive, sequencer.ErrNotActive, profile.ErrFavoriteLimit},
	codes.NotFound:           {profile.ErrNotFound},
	codes.InvalidArgument:    {profile.ErrNameRequired, profile.ErrMainProcessRequired, gateway.ErrMTUOutOfRange, gateway.ErrUnknownPlan},
}

// RemoteError is a daemon error. It unwraps to the matching domain
// sentinel, so errors.Is works across the socket.
type RemoteError struct {
	Method string
	Code   codes.Code
	Msg    string
	err    error
}

func (e *RemoteError) Error() string { return e.Msg }
func (e *RemoteError) Unwrap() error { return e.err }

func fromStatus(method string, err error) error {
	st, ok := status.FromError(err)
	if !ok {
		return fmt.Errorf("%s RPC failed: %w", method, err)
	}
	if st.Code() == codes.Unavailable {
		return fmt.Errorf("%s RPC failed: %w", method, ErrNotRunning)
	}
	re := &RemoteError{Method: method, Code: st.Code(), Msg: st.Message()}
	for _, s := range sentinels[st.Code()] {
		if strings.Contains(st.Message(), s.Error()) {
			re.err = s
			break
		}
	}
	if re.err == nil {
		re.Msg = fmt.Sprintf("%s RPC failed: %s", method, st.Message())
	}
	return re
}

// DaemonPaths configures paths for daemon operations. Empty fields use
// defaults.
type DaemonPaths struct {
	Binary  string // boostd binary, discovered when empty
	DataDir string
	Socket  string
	PID     string
}

// PathsFrom reads daemon paths from cfg.
func PathsFrom(cfg *config.Config) DaemonPaths {
	return DaemonPaths{
		Binary:  cfg.Daemon.BinaryPath,
		DataDir: cfg.Daemon.DataDir,
		Socket:  cfg.Daemon.SocketPath,
		PID:     cfg.Daemon.PIDPath,
	}
}

func (p DaemonPaths) runfiles() runfile.Paths {
	dir := p.DataDir
	if dir == "" {
		dir = config.DataDir()
	}
	return runfile.Paths{DataDir: dir, Socket: p.Socket, PID: p.PID}.WithDefaults()
}

// SocketPath is the socket the daemon listens on.
func (p DaemonPaths) SocketPath() string { return p.runfiles().Socket }

// IsDaemonRunning checks the PID file.
func IsDaemonRunning(paths DaemonPaths) bool {
	return paths.runfiles().Running()
}

// EnsureDaemon ensures the daemon is running, starting it if necessary.
func EnsureDaemon(paths DaemonPaths) error {
	return StartDaemon(paths)
}

// StartDaemon starts boostd in the background.
// Idempotent: returns nil if daemon is already running.
func StartDaemon(paths DaemonPaths) error {
	rf := paths.runfiles()
	if rf.Running() {
		return nil
	}

	binary, err := resolveBinary(paths.Binary)
	if err != nil {
		return fmt.Errorf("find boostd: %w", err)
	}

	_ = rf.RemoveStatus()

	// Use exec.Command (not CommandContext) intentionally: daemon must outlive caller
	cmd := exec.Command(binary) //nolint:gosec // binary path is validated
	cmd.Env = append(os.Environ(), "BOOST_DAEMON_DATA_DIR="+rf.DataDir)
	if paths.Socket != "" {
		cmd.Env = append(cmd.Env, "BOOST_DAEMON_SOCKET_PATH="+paths.Socket)
	}
	if paths.PID != "" {
		cmd.Env = append(cmd.Env, "BOOST_DAEMON_PID_PATH="+paths.PID)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start daemon: %w", err)
	}
	if cmd.Process != nil {
		_ = cmd.Process.Release()
	}

	return waitReady(rf, 50, 100*time.Millisecond)
}

// waitReady polls for the socket or an explicit startup status.
func waitReady(rf runfile.Paths, attempts int, every time.Duration) error {
	for range attempts {
		time.Sleep(every)

		if _, err := os.Stat(rf.Socket); err == nil {
			return nil
		}
		if st, err := rf.ReadStatus(); err == nil {
			switch st.State {
			case runfile.StateReady:
				return nil
			case runfile.StateError:
				return fmt.Errorf("daemon failed to start: %s", st.Error)
			}
		}
	}
	return errors.New("daemon did not become ready within timeout")
}

// StopDaemon stops the daemon gracefully via RPC. An active boost is
// reverted by the daemon before it exits.
// Idempotent: returns nil if daemon is not running.
func StopDaemon(paths DaemonPaths) error {
	rf := paths.runfiles()
	if !rf.Running() {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	c, err := ConnectWithContext(ctx, rf.Socket)
	if err != nil {
		return fmt.Errorf("connect to daemon: %w", err)
	}
	defer c.Close()

	if err := c.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown daemon: %w", err)
	}

	for range 40 {
		time.Sleep(250 * time.Millisecond)
		if !rf.Running() {
			return nil
		}
	}
	return errors.New("daemon did not stop within timeout")
}

// RestartDaemon stops and starts the daemon.
func RestartDaemon(paths DaemonPaths) error {
	if err := StopDaemon(paths); err != nil {
		return fmt.Errorf("stop: %w", err)
	}
	if err := StartDaemon(paths); err != nil {
		return fmt.Errorf("start: %w", err)
	}
	return nil
}

// resolveBinary finds the boostd binary.
// Priority: configured path > same directory as executable > GOBIN/GOPATH > PATH.
func resolveBinary(configured string) (string, error) {
	if configured != "" {
		if _, err := os.Stat(configured); err != nil {
			return "", fmt.Errorf("configured binary not found: %s", configured)
		}
		return configured, nil
	}

	if execPath, err := os.Executable(); err == nil {
		candidate := filepath.Join(filepath.Dir(execPath), "boostd")
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}

	if goBinPath := config.DefaultBinaryPath(); goBinPath != "" {
		return goBinPath, nil
	}

	if path, err := exec.LookPath("boostd"); err == nil {
		return path, nil
	}

	return "", errors.New("boostd not found")
}
