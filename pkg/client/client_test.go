package client

import (
	"context"
	"errors"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"

	boostv1 "github.com/jamesainslie/boost/pkg/api/boost/v1"
	"github.com/jamesainslie/boost/pkg/boost/activity"
	"github.com/jamesainslie/boost/pkg/boost/gateway"
	"github.com/jamesainslie/boost/pkg/boost/profile"
	"github.com/jamesainslie/boost/pkg/boost/sequencer"
	"github.com/jamesainslie/boost/pkg/boost/tweak"
)

// mockBoostDaemonServer implements boostv1.BoostDaemonServer for testing.
type mockBoostDaemonServer struct {
	boostv1.UnimplementedBoostDaemonServer
	session       sequencer.Snapshot
	activateErr   error
	profiles      []profile.Profile
	created       *boostv1.ProfileFields
	entries       []activity.Entry
	lastMTU       int
	shutdownCalls int
}

func (m *mockBoostDaemonServer) GetStatus(context.Context, *emptypb.Empty) (*boostv1.DaemonStatus, error) {
	return &boostv1.DaemonStatus{Running: true, PID: 42, Version: "v1.2.3", Session: m.session}, nil
}

func (m *mockBoostDaemonServer) Activate(_ context.Context, req *boostv1.SessionRequest) (*boostv1.SessionEvent, error) {
	if m.activateErr != nil {
		return nil, m.activateErr
	}
	m.session = sequencer.Snapshot{State: sequencer.Activating}
	if req.Wait {
		m.session = sequencer.Snapshot{State: sequencer.Active, Progress: 100, Armed: []string{tweak.Cortana}}
	}
	return &boostv1.SessionEvent{Session: m.session}, nil
}

func (m *mockBoostDaemonServer) WatchSession(_ *emptypb.Empty, stream grpc.ServerStreamingServer[boostv1.SessionEvent]) error {
	for _, st := range []sequencer.State{sequencer.Idle, sequencer.Activating, sequencer.Active} {
		if err := stream.Send(&boostv1.SessionEvent{Session: sequencer.Snapshot{State: st}}); err != nil {
			return err
		}
	}
	return nil
}

func (m *mockBoostDaemonServer) ListTweaks(context.Context, *emptypb.Empty) (*boostv1.TweakList, error) {
	return &boostv1.TweakList{Tweaks: tweak.Catalog()}, nil
}

func (m *mockBoostDaemonServer) ListProfiles(context.Context, *emptypb.Empty) (*boostv1.ProfileList, error) {
	return &boostv1.ProfileList{Profiles: m.profiles, QuickLimit: 7}, nil
}

func (m *mockBoostDaemonServer) CreateProfile(_ context.Context, req *boostv1.CreateProfileRequest) (*boostv1.ProfileResponse, error) {
	if req.Profile.Name == "" {
		return nil, status.Error(codes.InvalidArgument, profile.ErrNameRequired.Error())
	}
	m.created = &req.Profile
	return &boostv1.ProfileResponse{Profile: profile.Profile{ID: 1, Name: req.Profile.Name, MainProcess: req.Profile.MainProcess}}, nil
}

func (m *mockBoostDaemonServer) ApplyProfile(_ context.Context, req *boostv1.ProfileRequest) (*boostv1.ApplyProfileResponse, error) {
	return nil, status.Errorf(codes.NotFound, "%v: id %d", profile.ErrNotFound, req.ID)
}

func (m *mockBoostDaemonServer) GetLog(_ context.Context, req *boostv1.GetLogRequest) (*boostv1.LogResponse, error) {
	entries := m.entries
	if req.Limit > 0 && req.Limit < len(entries) {
		entries = entries[len(entries)-req.Limit:]
	}
	return &boostv1.LogResponse{Entries: entries}, nil
}

func (m *mockBoostDaemonServer) ApplyNetworkSetting(_ context.Context, req *boostv1.NetworkSettingRequest) (*boostv1.CommandResponse, error) {
	m.lastMTU = req.MTU
	return &boostv1.CommandResponse{Result: gateway.Result{Success: true, Message: "MTU set"}}, nil
}

func (m *mockBoostDaemonServer) Shutdown(context.Context, *emptypb.Empty) (*boostv1.ShutdownResponse, error) {
	m.shutdownCalls++
	return &boostv1.ShutdownResponse{Success: true}, nil
}

// setupTestServer creates a test gRPC server on a Unix socket.
func setupTestServer(t *testing.T, mock *mockBoostDaemonServer) string {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "boost-client-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	socketPath := filepath.Join(tmpDir, "test.sock")

	listener, err := net.Listen("unix", socketPath)
	if err != nil {
		_ = os.RemoveAll(tmpDir)
		t.Fatalf("Failed to create listener: %v", err)
	}

	srv := grpc.NewServer()
	boostv1.RegisterBoostDaemonServer(srv, mock)
	go func() {
		_ = srv.Serve(listener)
	}()

	t.Cleanup(func() {
		srv.GracefulStop()
		_ = os.RemoveAll(tmpDir)
	})
	return socketPath
}

func connect(t *testing.T, mock *mockBoostDaemonServer) *Client {
	t.Helper()
	c, err := Connect(setupTestServer(t, mock))
	if err != nil {
		t.Fatalf("Connect() failed: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestConnectInvalidSocket(t *testing.T) {
	_, err := Connect("/nonexistent/path/to/socket.sock")
	if !errors.Is(err, ErrNotRunning) {
		t.Errorf("Connect() error = %v, want ErrNotRunning", err)
	}
}

func TestStatus(t *testing.T) {
	c := connect(t, &mockBoostDaemonServer{})

	st, err := c.Status(context.Background())
	if err != nil {
		t.Fatalf("Status() failed: %v", err)
	}
	if !st.Running || st.PID != 42 || st.Version != "v1.2.3" {
		t.Errorf("Status() = %+v", st)
	}
	if st.Session.State != sequencer.Idle {
		t.Errorf("session state = %v, want Idle", st.Session.State)
	}
}

func TestActivate(t *testing.T) {
	c := connect(t, &mockBoostDaemonServer{})

	snap, err := c.Activate(context.Background(), true)
	if err != nil {
		t.Fatalf("Activate() failed: %v", err)
	}
	if snap.State != sequencer.Active || snap.Progress != 100 {
		t.Errorf("Activate() = %+v, want Active at 100", snap)
	}
	if len(snap.Armed) != 1 || snap.Armed[0] != tweak.Cortana {
		t.Errorf("armed = %v", snap.Armed)
	}
}

func TestActivateMapsSentinel(t *testing.T) {
	mock := &mockBoostDaemonServer{
		activateErr: status.Error(codes.FailedPrecondition, sequencer.ErrBusy.Error()),
	}
	c := connect(t, mock)

	_, err := c.Activate(context.Background(), false)
	if !errors.Is(err, sequencer.ErrBusy) {
		t.Fatalf("Activate() error = %v, want ErrBusy", err)
	}
	if err.Error() != sequencer.ErrBusy.Error() {
		t.Errorf("message = %q", err.Error())
	}
}

func TestUnmappedError(t *testing.T) {
	mock := &mockBoostDaemonServer{activateErr: status.Error(codes.Internal, "disk on fire")}
	c := connect(t, mock)

	_, err := c.Activate(context.Background(), false)
	var re *RemoteError
	if !errors.As(err, &re) {
		t.Fatalf("error %v is not a RemoteError", err)
	}
	if re.Code != codes.Internal || errors.Unwrap(err) != nil {
		t.Errorf("RemoteError = %+v", re)
	}
	if got, want := err.Error(), "Activate RPC failed: disk on fire"; got != want {
		t.Errorf("message = %q, want %q", got, want)
	}
}

func TestWatchSession(t *testing.T) {
	c := connect(t, &mockBoostDaemonServer{})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	ch, err := c.WatchSession(ctx)
	if err != nil {
		t.Fatalf("WatchSession() failed: %v", err)
	}
	var states []sequencer.State
	for snap := range ch {
		states = append(states, snap.State)
	}
	if len(states) != 3 || states[2] != sequencer.Active {
		t.Errorf("states = %v", states)
	}
}

func TestTweaks(t *testing.T) {
	c := connect(t, &mockBoostDaemonServer{})

	tweaks, err := c.Tweaks(context.Background())
	if err != nil {
		t.Fatalf("Tweaks() failed: %v", err)
	}
	if len(tweaks) != len(tweak.Catalog()) {
		t.Errorf("got %d tweaks, want %d", len(tweaks), len(tweak.Catalog()))
	}
}

func TestProfiles(t *testing.T) {
	mock := &mockBoostDaemonServer{profiles: []profile.Profile{
		{ID: 5, Name: "Doom", MainProcess: profile.Process{Name: "doom.exe", Priority: gateway.High}},
	}}
	c := connect(t, mock)
	ctx := context.Background()

	ps, limit, err := c.Profiles(ctx)
	if err != nil {
		t.Fatalf("Profiles() failed: %v", err)
	}
	if len(ps) != 1 || limit != 7 {
		t.Errorf("Profiles() = %v, %d", ps, limit)
	}

	p, err := c.Profile(ctx, 5)
	if err != nil || p.Name != "Doom" {
		t.Errorf("Profile(5) = %v, %v", p, err)
	}
	if _, err := c.Profile(ctx, 6); !errors.Is(err, profile.ErrNotFound) {
		t.Errorf("Profile(6) error = %v, want ErrNotFound", err)
	}
}

func TestCreateProfile(t *testing.T) {
	mock := &mockBoostDaemonServer{}
	c := connect(t, mock)
	ctx := context.Background()

	fields := profile.Fields{
		Name:         "Apex",
		MainProcess:  profile.Process{Name: "r5apex.exe", Priority: gateway.High},
		SubProcesses: []profile.Process{{Name: "EasyAntiCheat.exe", Priority: gateway.Normal}},
	}
	p, err := c.CreateProfile(ctx, fields)
	if err != nil {
		t.Fatalf("CreateProfile() failed: %v", err)
	}
	if p.Name != "Apex" || mock.created == nil || len(mock.created.SubProcesses) != 1 {
		t.Errorf("CreateProfile() = %+v, server saw %+v", p, mock.created)
	}
	if mock.created.MainProcess.Priority != gateway.High {
		t.Errorf("priority = %v, want High", mock.created.MainProcess.Priority)
	}

	_, err = c.CreateProfile(ctx, profile.Fields{})
	if !errors.Is(err, profile.ErrNameRequired) {
		t.Errorf("CreateProfile(empty) error = %v, want ErrNameRequired", err)
	}
}

func TestApplyProfileNotFound(t *testing.T) {
	c := connect(t, &mockBoostDaemonServer{})

	_, err := c.ApplyProfile(context.Background(), 99)
	if !errors.Is(err, profile.ErrNotFound) {
		t.Errorf("ApplyProfile() error = %v, want ErrNotFound", err)
	}
}

func TestLog(t *testing.T) {
	now := time.Now()
	mock := &mockBoostDaemonServer{entries: []activity.Entry{
		{Time: now, Level: activity.Info, Message: "one"},
		{Time: now, Level: activity.Info, Message: "two"},
	}}
	c := connect(t, mock)

	entries, err := c.Log(context.Background(), 1)
	if err != nil {
		t.Fatalf("Log() failed: %v", err)
	}
	if len(entries) != 1 || entries[0].Message != "two" {
		t.Errorf("Log(1) = %v", entries)
	}
}

func TestSetMTU(t *testing.T) {
	mock := &mockBoostDaemonServer{}
	c := connect(t, mock)

	res, err := c.SetMTU(context.Background(), 1450)
	if err != nil {
		t.Fatalf("SetMTU() failed: %v", err)
	}
	if !res.Success || mock.lastMTU != 1450 {
		t.Errorf("SetMTU() = %+v, server saw %d", res, mock.lastMTU)
	}
}

func TestUnimplemented(t *testing.T) {
	c := connect(t, &mockBoostDaemonServer{})

	_, err := c.FlushDNS(context.Background())
	var re *RemoteError
	if !errors.As(err, &re) || re.Code != codes.Unimplemented {
		t.Errorf("FlushDNS() error = %v, want Unimplemented", err)
	}
}

func TestShutdown(t *testing.T) {
	mock := &mockBoostDaemonServer{}
	c := connect(t, mock)

	if err := c.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown() failed: %v", err)
	}
	if mock.shutdownCalls != 1 {
		t.Errorf("shutdown calls = %d, want 1", mock.shutdownCalls)
	}
}

func TestClientClose(t *testing.T) {
	c := &Client{}
	if err := c.Close(); err != nil {
		t.Errorf("Close() on empty client = %v", err)
	}
}

func TestIsDaemonRunning(t *testing.T) {
	dir := t.TempDir()
	paths := DaemonPaths{DataDir: dir}

	if IsDaemonRunning(paths) {
		t.Error("no pid file should mean not running")
	}

	pidPath := filepath.Join(dir, "boostd.pid")
	if err := os.WriteFile(pidPath, []byte(strconv.Itoa(os.Getpid())), 0o644); err != nil {
		t.Fatal(err)
	}
	if !IsDaemonRunning(paths) {
		t.Error("own pid should be running")
	}

	if err := os.WriteFile(pidPath, []byte("not-a-pid"), 0o644); err != nil {
		t.Fatal(err)
	}
	if IsDaemonRunning(paths) {
		t.Error("garbage pid file should mean not running")
	}
}

func TestDaemonPathsDefaults(t *testing.T) {
	paths := DaemonPaths{DataDir: "/var/lib/boost"}
	if got := paths.SocketPath(); got != "/var/lib/boost/boostd.sock" {
		t.Errorf("SocketPath() = %q", got)
	}
	paths.Socket = "/run/boost.sock"
	if got := paths.SocketPath(); got != "/run/boost.sock" {
		t.Errorf("SocketPath() = %q", got)
	}
}

func TestWaitReadyReportsStartupError(t *testing.T) {
	dir := t.TempDir()
	paths := DaemonPaths{DataDir: dir}
	rf := paths.runfiles()
	if err := rf.WriteFailed(errors.New("database locked")); err != nil {
		t.Fatal(err)
	}

	err := waitReady(rf, 3, time.Millisecond)
	if err == nil || err.Error() != "daemon failed to start: database locked" {
		t.Errorf("waitReady() = %v", err)
	}
}

func TestResolveBinaryConfigured(t *testing.T) {
	if _, err := resolveBinary("/nonexistent/boostd"); err == nil {
		t.Error("missing configured binary should fail")
	}

	bin := filepath.Join(t.TempDir(), "boostd")
	if err := os.WriteFile(bin, []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	got, err := resolveBinary(bin)
	if err != nil || got != bin {
		t.Errorf("resolveBinary() = %q, %v", got, err)
	}
}
