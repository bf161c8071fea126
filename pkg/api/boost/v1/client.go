package boostv1

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
)

// BoostDaemonClient is the client API for the BoostDaemon service.
type BoostDaemonClient interface {
	GetStatus(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*DaemonStatus, error)
	Activate(ctx context.Context, in *SessionRequest, opts ...grpc.CallOption) (*SessionEvent, error)
	Deactivate(ctx context.Context, in *SessionRequest, opts ...grpc.CallOption) (*SessionEvent, error)
	Toggle(ctx context.Context, in *SessionRequest, opts ...grpc.CallOption) (*SessionEvent, error)
	WatchSession(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (grpc.ServerStreamingClient[SessionEvent], error)

	ListTweaks(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*TweakList, error)
	SetTweak(ctx context.Context, in *SetTweakRequest, opts ...grpc.CallOption) (*TweakList, error)
	RestoreTweaks(ctx context.Context, in *RestoreTweaksRequest, opts ...grpc.CallOption) (*TweakList, error)

	ListProfiles(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*ProfileList, error)
	CreateProfile(ctx context.Context, in *CreateProfileRequest, opts ...grpc.CallOption) (*ProfileResponse, error)
	UpdateProfile(ctx context.Context, in *UpdateProfileRequest, opts ...grpc.CallOption) (*ProfileResponse, error)
	DeleteProfile(ctx context.Context, in *ProfileRequest, opts ...grpc.CallOption) (*emptypb.Empty, error)
	ToggleFavorite(ctx context.Context, in *ProfileRequest, opts ...grpc.CallOption) (*ProfileResponse, error)
	ApplyProfile(ctx context.Context, in *ProfileRequest, opts ...grpc.CallOption) (*ApplyProfileResponse, error)
	ReplaceProfiles(ctx context.Context, in *ReplaceProfilesRequest, opts ...grpc.CallOption) (*ReplaceProfilesResponse, error)

	GetLog(ctx context.Context, in *GetLogRequest, opts ...grpc.CallOption) (*LogResponse, error)
	ClearLog(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*emptypb.Empty, error)
	WatchLog(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (grpc.ServerStreamingClient[LogEvent], error)

	GetSystemInfo(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*SystemInfoResponse, error)
	GetMetrics(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*MetricsResponse, error)
	WatchMetrics(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (grpc.ServerStreamingClient[MetricsResponse], error)

	ApplyNetworkSetting(ctx context.Context, in *NetworkSettingRequest, opts ...grpc.CallOption) (*CommandResponse, error)
	ApplyPowerPlan(ctx context.Context, in *PowerPlanRequest, opts ...grpc.CallOption) (*CommandResponse, error)
	FlushDNS(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*CommandResponse, error)

	Shutdown(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*ShutdownResponse, error)
}

type boostDaemonClient struct {
	cc grpc.ClientConnInterface
}

// NewBoostDaemonClient wraps cc. Every call is sent with the JSON codec.
func NewBoostDaemonClient(cc grpc.ClientConnInterface) BoostDaemonClient {
	return &boostDaemonClient{cc}
}

func callOpts(opts []grpc.CallOption) []grpc.CallOption {
	return append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
}

func invoke[Req, Resp any](ctx context.Context, cc grpc.ClientConnInterface, name string, in *Req, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	if err := cc.Invoke(ctx, fullMethod(name), in, out, callOpts(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func watch[Req, Resp any](ctx context.Context, cc grpc.ClientConnInterface, idx int, in *Req, opts []grpc.CallOption) (grpc.ServerStreamingClient[Resp], error) {
	desc := &BoostDaemon_ServiceDesc.Streams[idx]
	stream, err := cc.NewStream(ctx, desc, fullMethod(desc.StreamName), callOpts(opts)...)
	if err != nil {
		return nil, err
	}
	x := &grpc.GenericClientStream[Req, Resp]{ClientStream: stream}
	if err := x.ClientStream.SendMsg(in); err != nil {
		return nil, err
	}
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}

func (c *boostDaemonClient) GetStatus(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*DaemonStatus, error) {
	return invoke[emptypb.Empty, DaemonStatus](ctx, c.cc, "GetStatus", in, opts)
}

func (c *boostDaemonClient) Activate(ctx context.Context, in *SessionRequest, opts ...grpc.CallOption) (*SessionEvent, error) {
	return invoke[SessionRequest, SessionEvent](ctx, c.cc, "Activate", in, opts)
}

func (c *boostDaemonClient) Deactivate(ctx context.Context, in *SessionRequest, opts ...grpc.CallOption) (*SessionEvent, error) {
	return invoke[SessionRequest, SessionEvent](ctx, c.cc, "Deactivate", in, opts)
}

func (c *boostDaemonClient) Toggle(ctx context.Context, in *SessionRequest, opts ...grpc.CallOption) (*SessionEvent, error) {
	return invoke[SessionRequest, SessionEvent](ctx, c.cc, "Toggle", in, opts)
}

func (c *boostDaemonClient) WatchSession(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (grpc.ServerStreamingClient[SessionEvent], error) {
	return watch[emptypb.Empty, SessionEvent](ctx, c.cc, streamSession, in, opts)
}

func (c *boostDaemonClient) ListTweaks(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*TweakList, error) {
	return invoke[emptypb.Empty, TweakList](ctx, c.cc, "ListTweaks", in, opts)
}

func (c *boostDaemonClient) SetTweak(ctx context.Context, in *SetTweakRequest, opts ...grpc.CallOption) (*TweakList, error) {
	return invoke[SetTweakRequest, TweakList](ctx, c.cc, "SetTweak", in, opts)
}

func (c *boostDaemonClient) RestoreTweaks(ctx context.Context, in *RestoreTweaksRequest, opts ...grpc.CallOption) (*TweakList, error) {
	return invoke[RestoreTweaksRequest, TweakList](ctx, c.cc, "RestoreTweaks", in, opts)
}

func (c *boostDaemonClient) ListProfiles(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*ProfileList, error) {
	return invoke[emptypb.Empty, ProfileList](ctx, c.cc, "ListProfiles", in, opts)
}

func (c *boostDaemonClient) CreateProfile(ctx context.Context, in *CreateProfileRequest, opts ...grpc.CallOption) (*ProfileResponse, error) {
	return invoke[CreateProfileRequest, ProfileResponse](ctx, c.cc, "CreateProfile", in, opts)
}

func (c *boostDaemonClient) UpdateProfile(ctx context.Context, in *UpdateProfileRequest, opts ...grpc.CallOption) (*ProfileResponse, error) {
	return invoke[UpdateProfileRequest, ProfileResponse](ctx, c.cc, "UpdateProfile", in, opts)
}

func (c *boostDaemonClient) DeleteProfile(ctx context.Context, in *ProfileRequest, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	return invoke[ProfileRequest, emptypb.Empty](ctx, c.cc, "DeleteProfile", in, opts)
}

func (c *boostDaemonClient) ToggleFavorite(ctx context.Context, in *ProfileRequest, opts ...grpc.CallOption) (*ProfileResponse, error) {
	return invoke[ProfileRequest, ProfileResponse](ctx, c.cc, "ToggleFavorite", in, opts)
}

func (c *boostDaemonClient) ApplyProfile(ctx context.Context, in *ProfileRequest, opts ...grpc.CallOption) (*ApplyProfileResponse, error) {
	return invoke[ProfileRequest, ApplyProfileResponse](ctx, c.cc, "ApplyProfile", in, opts)
}

func (c *boostDaemonClient) ReplaceProfiles(ctx context.Context, in *ReplaceProfilesRequest, opts ...grpc.CallOption) (*ReplaceProfilesResponse, error) {
	return invoke[ReplaceProfilesRequest, ReplaceProfilesResponse](ctx, c.cc, "ReplaceProfiles", in, opts)
}

func (c *boostDaemonClient) GetLog(ctx context.Context, in *GetLogRequest, opts ...grpc.CallOption) (*LogResponse, error) {
	return invoke[GetLogRequest, LogResponse](ctx, c.cc, "GetLog", in, opts)
}

func (c *boostDaemonClient) ClearLog(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	return invoke[emptypb.Empty, emptypb.Empty](ctx, c.cc, "ClearLog", in, opts)
}

func (c *boostDaemonClient) WatchLog(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (grpc.ServerStreamingClient[LogEvent], error) {
	return watch[emptypb.Empty, LogEvent](ctx, c.cc, streamLog, in, opts)
}

func (c *boostDaemonClient) GetSystemInfo(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*SystemInfoResponse, error) {
	return invoke[emptypb.Empty, SystemInfoResponse](ctx, c.cc, "GetSystemInfo", in, opts)
}

func (c *boostDaemonClient) GetMetrics(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*MetricsResponse, error) {
	return invoke[emptypb.Empty, MetricsResponse](ctx, c.cc, "GetMetrics", in, opts)
}

func (c *boostDaemonClient) WatchMetrics(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (grpc.ServerStreamingClient[MetricsResponse], error) {
	return watch[emptypb.Empty, MetricsResponse](ctx, c.cc, streamMetrics, in, opts)
}

func (c *boostDaemonClient) ApplyNetworkSetting(ctx context.Context, in *NetworkSettingRequest, opts ...grpc.CallOption) (*CommandResponse, error) {
	return invoke[NetworkSettingRequest, CommandResponse](ctx, c.cc, "ApplyNetworkSetting", in, opts)
}

func (c *boostDaemonClient) ApplyPowerPlan(ctx context.Context, in *PowerPlanRequest, opts ...grpc.CallOption) (*CommandResponse, error) {
	return invoke[PowerPlanRequest, CommandResponse](ctx, c.cc, "ApplyPowerPlan", in, opts)
}

func (c *boostDaemonClient) FlushDNS(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*CommandResponse, error) {
	return invoke[emptypb.Empty, CommandResponse](ctx, c.cc, "FlushDNS", in, opts)
}

func (c *boostDaemonClient) Shutdown(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*ShutdownResponse, error) {
	return invoke[emptypb.Empty, ShutdownResponse](ctx, c.cc, "Shutdown", in, opts)
}
