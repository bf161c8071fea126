package daemon

import (
	"context"
	"os"
	"runtime"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"

	boostv1 "github.com/jamesainslie/boost/pkg/api/boost/v1"
	"github.com/jamesainslie/boost/pkg/boost/gateway"
	"github.com/jamesainslie/boost/pkg/boost/logging"
	"github.com/jamesainslie/boost/pkg/boost/sysinfo"
)

// Service implements the BoostDaemon gRPC service on top of an Engine.
type Service struct {
	boostv1.UnimplementedBoostDaemonServer

	engine    *Engine
	version   string
	startTime time.Time
	logger    *logging.Logger

	// shutdown is called once a Shutdown RPC has been answered.
	shutdown func()
}

// NewService creates a new gRPC service.
func NewService(e *Engine, version string) *Service {
	return &Service{
		engine:    e,
		version:   version,
		startTime: time.Now(),
		logger:    logging.Get("daemon"),
		shutdown:  func() {},
	}
}

// OnShutdown sets the callback run after a Shutdown request.
func (s *Service) OnShutdown(fn func()) {
	s.shutdown = fn
}

// GetStatus returns daemon health and the boost session.
func (s *Service) GetStatus(_ context.Context, _ *emptypb.Empty) (*boostv1.DaemonStatus, error) {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	st := &boostv1.DaemonStatus{
		Running:       true,
		PID:           os.Getpid(),
		Version:       s.version,
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
		MemoryBytes:   int64(mem.Alloc),
		Session:       s.engine.Sequencer.Snapshot(),
	}
	if s.engine.Detector != nil {
		st.Detecting = s.engine.Detector.Running()
		if st.Detecting == nil {
			st.Detecting = []string{}
		}
	}
	return st, nil
}

// Activate starts a boost cycle.
func (s *Service) Activate(ctx context.Context, req *boostv1.SessionRequest) (*boostv1.SessionEvent, error) {
	return s.cycle(ctx, req, s.engine.Sequencer.StartActivate)
}

// Deactivate starts a revert cycle.
func (s *Service) Deactivate(ctx context.Context, req *boostv1.SessionRequest) (*boostv1.SessionEvent, error) {
	return s.cycle(ctx, req, s.engine.Sequencer.StartDeactivate)
}

// Toggle activates when idle and reverts when active.
func (s *Service) Toggle(ctx context.Context, req *boostv1.SessionRequest) (*boostv1.SessionEvent, error) {
	return s.cycle(ctx, req, s.engine.Sequencer.StartToggle)
}

// cycle runs start on the engine context so that the cycle survives the
// RPC. With req.Wait the call blocks until the cycle ends or the caller
// goes away.
func (s *Service) cycle(ctx context.Context, req *boostv1.SessionRequest, start func(context.Context) (<-chan struct{}, error)) (*boostv1.SessionEvent, error) {
	done, err := start(s.engine.lifetime()) //nolint:contextcheck // cycle must outlive the RPC
	if err != nil {
		return nil, toStatus(err)
	}
	if req.Wait {
		select {
		case <-done:
		case <-ctx.Done():
		}
	}
	return &boostv1.SessionEvent{Session: s.engine.Sequencer.Snapshot()}, nil
}

// WatchSession streams session snapshots, starting with the current one.
func (s *Service) WatchSession(_ *emptypb.Empty, stream grpc.ServerStreamingServer[boostv1.SessionEvent]) error {
	ch, cancel := s.engine.Sequencer.Subscribe()
	defer cancel()

	if err := stream.Send(&boostv1.SessionEvent{Session: s.engine.Sequencer.Snapshot()}); err != nil {
		return err
	}
	ctx := stream.Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case snap, ok := <-ch:
			if !ok {
				return nil
			}
			if err := stream.Send(&boostv1.SessionEvent{Session: snap}); err != nil {
				return err
			}
		}
	}
}

// ListTweaks returns the catalog with enabled flags.
func (s *Service) ListTweaks(_ context.Context, _ *emptypb.Empty) (*boostv1.TweakList, error) {
	return &boostv1.TweakList{Tweaks: s.engine.Registry.List()}, nil
}

// SetTweak changes one enabled flag. Unknown ids leave the list unchanged.
func (s *Service) SetTweak(_ context.Context, req *boostv1.SetTweakRequest) (*boostv1.TweakList, error) {
	return &boostv1.TweakList{Tweaks: s.engine.Registry.SetEnabled(req.ID, req.Enabled)}, nil
}

// RestoreTweaks overwrites enabled flags from an import.
func (s *Service) RestoreTweaks(_ context.Context, req *boostv1.RestoreTweaksRequest) (*boostv1.TweakList, error) {
	ts := s.engine.Registry.Import(req.States)
	s.engine.Log.Appendf("Imported %d tweak settings", len(req.States))
	return &boostv1.TweakList{Tweaks: ts}, nil
}

// ListProfiles returns every profile.
func (s *Service) ListProfiles(_ context.Context, _ *emptypb.Empty) (*boostv1.ProfileList, error) {
	return &boostv1.ProfileList{Profiles: s.engine.Profiles.List(), QuickLimit: s.engine.quickLimit}, nil
}

// CreateProfile validates and stores a new profile.
func (s *Service) CreateProfile(_ context.Context, req *boostv1.CreateProfileRequest) (*boostv1.ProfileResponse, error) {
	p, err := s.engine.Profiles.Create(req.Profile.Fields())
	if err != nil {
		return nil, toStatus(err)
	}
	return &boostv1.ProfileResponse{Profile: p}, nil
}

// UpdateProfile replaces a profile's editable fields.
func (s *Service) UpdateProfile(_ context.Context, req *boostv1.UpdateProfileRequest) (*boostv1.ProfileResponse, error) {
	p, err := s.engine.Profiles.Update(req.ID, req.Profile.Fields())
	if err != nil {
		return nil, toStatus(err)
	}
	return &boostv1.ProfileResponse{Profile: p}, nil
}

// DeleteProfile removes a profile. Callers confirm before sending it.
func (s *Service) DeleteProfile(_ context.Context, req *boostv1.ProfileRequest) (*emptypb.Empty, error) {
	c, err := s.engine.Profiles.RequestDelete(req.ID)
	if err != nil {
		return nil, toStatus(err)
	}
	if err := s.engine.Profiles.ConfirmDelete(c); err != nil {
		return nil, toStatus(err)
	}
	return &emptypb.Empty{}, nil
}

// ToggleFavorite flips a profile's favorite flag.
func (s *Service) ToggleFavorite(_ context.Context, req *boostv1.ProfileRequest) (*boostv1.ProfileResponse, error) {
	p, err := s.engine.Profiles.ToggleFavorite(req.ID)
	if err != nil {
		return nil, toStatus(err)
	}
	return &boostv1.ProfileResponse{Profile: p}, nil
}

// ApplyProfile sets the priorities of a profile's processes.
func (s *Service) ApplyProfile(ctx context.Context, req *boostv1.ProfileRequest) (*boostv1.ApplyProfileResponse, error) {
	report, err := s.engine.Profiles.Apply(ctx, req.ID)
	if err != nil {
		return nil, toStatus(err)
	}
	return &boostv1.ApplyProfileResponse{Report: report}, nil
}

// ReplaceProfiles swaps in an imported profile list.
func (s *Service) ReplaceProfiles(_ context.Context, req *boostv1.ReplaceProfilesRequest) (*boostv1.ReplaceProfilesResponse, error) {
	skipped, err := s.engine.Profiles.Replace(req.Profiles)
	if err != nil {
		return nil, toStatus(err)
	}
	stored := len(req.Profiles) - len(skipped)
	s.engine.Log.Appendf("Imported %d profiles", stored)
	return &boostv1.ReplaceProfilesResponse{Stored: stored, Skipped: skipped}, nil
}

// GetLog returns the newest entries, oldest first.
func (s *Service) GetLog(_ context.Context, req *boostv1.GetLogRequest) (*boostv1.LogResponse, error) {
	if req.Limit > 0 {
		return &boostv1.LogResponse{Entries: s.engine.Log.Last(req.Limit)}, nil
	}
	return &boostv1.LogResponse{Entries: s.engine.Log.Entries()}, nil
}

// ClearLog empties the activity log and its stored history.
func (s *Service) ClearLog(_ context.Context, _ *emptypb.Empty) (*emptypb.Empty, error) {
	s.engine.Log.Clear()
	if err := s.engine.Store.ClearActivity(); err != nil {
		return nil, toStatus(err)
	}
	return &emptypb.Empty{}, nil
}

// WatchLog streams new activity entries.
func (s *Service) WatchLog(_ *emptypb.Empty, stream grpc.ServerStreamingServer[boostv1.LogEvent]) error {
	ch, cancel := s.engine.Log.Subscribe()
	defer cancel()

	ctx := stream.Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case e, ok := <-ch:
			if !ok {
				return nil
			}
			if err := stream.Send(&boostv1.LogEvent{Entry: e}); err != nil {
				return err
			}
		}
	}
}

// GetSystemInfo describes the host.
func (s *Service) GetSystemInfo(_ context.Context, _ *emptypb.Empty) (*boostv1.SystemInfoResponse, error) {
	info, err := sysinfo.Detect()
	if err != nil {
		return nil, toStatus(err)
	}
	return &boostv1.SystemInfoResponse{Info: info}, nil
}

// GetMetrics returns the latest dashboard sample.
func (s *Service) GetMetrics(ctx context.Context, _ *emptypb.Empty) (*boostv1.MetricsResponse, error) {
	return &boostv1.MetricsResponse{Metrics: s.engine.Sampler.Latest(ctx)}, nil
}

// WatchMetrics streams dashboard samples.
func (s *Service) WatchMetrics(_ *emptypb.Empty, stream grpc.ServerStreamingServer[boostv1.MetricsResponse]) error {
	ch, cancel := s.engine.Sampler.Subscribe()
	defer cancel()

	ctx := stream.Context()
	if err := stream.Send(&boostv1.MetricsResponse{Metrics: s.engine.Sampler.Latest(ctx)}); err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case m, ok := <-ch:
			if !ok {
				return nil
			}
			if err := stream.Send(&boostv1.MetricsResponse{Metrics: m}); err != nil {
				return err
			}
		}
	}
}

// ApplyNetworkSetting sets the adapter MTU.
func (s *Service) ApplyNetworkSetting(ctx context.Context, req *boostv1.NetworkSettingRequest) (*boostv1.CommandResponse, error) {
	if err := gateway.ValidateMTU(req.MTU); err != nil {
		return nil, toStatus(err)
	}
	res, err := s.engine.Gateway.ApplyNetworkSetting(ctx, req.MTU)
	return s.command("network", res, err)
}

// ApplyPowerPlan switches the power scheme.
func (s *Service) ApplyPowerPlan(ctx context.Context, req *boostv1.PowerPlanRequest) (*boostv1.CommandResponse, error) {
	plan, err := gateway.ParsePowerPlan(req.Plan)
	if err != nil {
		return nil, toStatus(err)
	}
	res, err := s.engine.Gateway.ApplyPowerPlan(ctx, plan)
	return s.command("power plan", res, err)
}

// FlushDNS clears the resolver cache.
func (s *Service) FlushDNS(ctx context.Context, _ *emptypb.Empty) (*boostv1.CommandResponse, error) {
	res, err := s.engine.Gateway.FlushDNSCache(ctx)
	return s.command("dns flush", res, err)
}

// command logs a one-off gateway call. Gateway failures are reported in
// the response, not as RPC errors.
func (s *Service) command(what string, res gateway.Result, err error) (*boostv1.CommandResponse, error) {
	msg, ok := gateway.Outcome(res, err)
	if ok {
		s.engine.Log.Append(msg)
	} else {
		s.engine.Log.Warnf("Failed %s: %s", what, msg)
	}
	return &boostv1.CommandResponse{Result: gateway.Result{Success: ok, Message: msg}}, nil
}

// Shutdown gracefully shuts down the daemon. An active boost is reverted
// as part of the shutdown.
func (s *Service) Shutdown(_ context.Context, _ *emptypb.Empty) (*boostv1.ShutdownResponse, error) {
	s.logger.Info("shutdown requested")
	go s.shutdown()
	return &boostv1.ShutdownResponse{Success: true}, nil
}

var _ boostv1.BoostDaemonServer = (*Service)(nil)
