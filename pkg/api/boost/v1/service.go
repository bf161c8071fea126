// Package boostv1 defines the boost.v1.BoostDaemon gRPC service spoken
// between the boost CLI and boostd over a unix socket. Messages are JSON
// encoded (see Codec).
package boostv1

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "boost.v1.BoostDaemon"

// BoostDaemonServer is the server API for the BoostDaemon service.
type BoostDaemonServer interface {
	GetStatus(context.Context, *emptypb.Empty) (*DaemonStatus, error)
	Activate(context.Context, *SessionRequest) (*SessionEvent, error)
	Deactivate(context.Context, *SessionRequest) (*SessionEvent, error)
	Toggle(context.Context, *SessionRequest) (*SessionEvent, error)
	WatchSession(*emptypb.Empty, grpc.ServerStreamingServer[SessionEvent]) error

	ListTweaks(context.Context, *emptypb.Empty) (*TweakList, error)
	SetTweak(context.Context, *SetTweakRequest) (*TweakList, error)
	RestoreTweaks(context.Context, *RestoreTweaksRequest) (*TweakList, error)

	ListProfiles(context.Context, *emptypb.Empty) (*ProfileList, error)
	CreateProfile(context.Context, *CreateProfileRequest) (*ProfileResponse, error)
	UpdateProfile(context.Context, *UpdateProfileRequest) (*ProfileResponse, error)
	DeleteProfile(context.Context, *ProfileRequest) (*emptypb.Empty, error)
	ToggleFavorite(context.Context, *ProfileRequest) (*ProfileResponse, error)
	ApplyProfile(context.Context, *ProfileRequest) (*ApplyProfileResponse, error)
	ReplaceProfiles(context.Context, *ReplaceProfilesRequest) (*ReplaceProfilesResponse, error)

	GetLog(context.Context, *GetLogRequest) (*LogResponse, error)
	ClearLog(context.Context, *emptypb.Empty) (*emptypb.Empty, error)
	WatchLog(*emptypb.Empty, grpc.ServerStreamingServer[LogEvent]) error

	GetSystemInfo(context.Context, *emptypb.Empty) (*SystemInfoResponse, error)
	GetMetrics(context.Context, *emptypb.Empty) (*MetricsResponse, error)
	WatchMetrics(*emptypb.Empty, grpc.ServerStreamingServer[MetricsResponse]) error

	ApplyNetworkSetting(context.Context, *NetworkSettingRequest) (*CommandResponse, error)
	ApplyPowerPlan(context.Context, *PowerPlanRequest) (*CommandResponse, error)
	FlushDNS(context.Context, *emptypb.Empty) (*CommandResponse, error)

	Shutdown(context.Context, *emptypb.Empty) (*ShutdownResponse, error)
}

// UnimplementedBoostDaemonServer answers every call with codes.Unimplemented.
// Embed it to stay forward compatible.
type UnimplementedBoostDaemonServer struct{}

func unimplemented(method string) error {
	return status.Errorf(codes.Unimplemented, "method %s not implemented", method)
}

func (UnimplementedBoostDaemonServer) GetStatus(context.Context, *emptypb.Empty) (*DaemonStatus, error) {
	return nil, unimplemented("GetStatus")
}
func (UnimplementedBoostDaemonServer) Activate(context.Context, *SessionRequest) (*SessionEvent, error) {
	return nil, unimplemented("Activate")
}
func (UnimplementedBoostDaemonServer) Deactivate(context.Context, *SessionRequest) (*SessionEvent, error) {
	return nil, unimplemented("Deactivate")
}
func (UnimplementedBoostDaemonServer) Toggle(context.Context, *SessionRequest) (*SessionEvent, error) {
	return nil, unimplemented("Toggle")
}
func (UnimplementedBoostDaemonServer) WatchSession(*emptypb.Empty, grpc.ServerStreamingServer[SessionEvent]) error {
	return unimplemented("WatchSession")
}
func (UnimplementedBoostDaemonServer) ListTweaks(context.Context, *emptypb.Empty) (*TweakList, error) {
	return nil, unimplemented("ListTweaks")
}
func (UnimplementedBoostDaemonServer) SetTweak(context.Context, *SetTweakRequest) (*TweakList, error) {
	return nil, unimplemented("SetTweak")
}
func (UnimplementedBoostDaemonServer) RestoreTweaks(context.Context, *RestoreTweaksRequest) (*TweakList, error) {
	return nil, unimplemented("RestoreTweaks")
}
func (UnimplementedBoostDaemonServer) ListProfiles(context.Context, *emptypb.Empty) (*ProfileList, error) {
	return nil, unimplemented("ListProfiles")
}
func (UnimplementedBoostDaemonServer) CreateProfile(context.Context, *CreateProfileRequest) (*ProfileResponse, error) {
	return nil, unimplemented("CreateProfile")
}
func (UnimplementedBoostDaemonServer) UpdateProfile(context.Context, *UpdateProfileRequest) (*ProfileResponse, error) {
	return nil, unimplemented("UpdateProfile")
}
func (UnimplementedBoostDaemonServer) DeleteProfile(context.Context, *ProfileRequest) (*emptypb.Empty, error) {
	return nil, unimplemented("DeleteProfile")
}
func (UnimplementedBoostDaemonServer) ToggleFavorite(context.Context, *ProfileRequest) (*ProfileResponse, error) {
	return nil, unimplemented("ToggleFavorite")
}
func (UnimplementedBoostDaemonServer) ApplyProfile(context.Context, *ProfileRequest) (*ApplyProfileResponse, error) {
	return nil, unimplemented("ApplyProfile")
}
func (UnimplementedBoostDaemonServer) ReplaceProfiles(context.Context, *ReplaceProfilesRequest) (*ReplaceProfilesResponse, error) {
	return nil, unimplemented("ReplaceProfiles")
}
func (UnimplementedBoostDaemonServer) GetLog(context.Context, *GetLogRequest) (*LogResponse, error) {
	return nil, unimplemented("GetLog")
}
func (UnimplementedBoostDaemonServer) ClearLog(context.Context, *emptypb.Empty) (*emptypb.Empty, error) {
	return nil, unimplemented("ClearLog")
}
func (UnimplementedBoostDaemonServer) WatchLog(*emptypb.Empty, grpc.ServerStreamingServer[LogEvent]) error {
	return unimplemented("WatchLog")
}
func (UnimplementedBoostDaemonServer) GetSystemInfo(context.Context, *emptypb.Empty) (*SystemInfoResponse, error) {
	return nil, unimplemented("GetSystemInfo")
}
func (UnimplementedBoostDaemonServer) GetMetrics(context.Context, *emptypb.Empty) (*MetricsResponse, error) {
	return nil, unimplemented("GetMetrics")
}
func (UnimplementedBoostDaemonServer) WatchMetrics(*emptypb.Empty, grpc.ServerStreamingServer[MetricsResponse]) error {
	return unimplemented("WatchMetrics")
}
func (UnimplementedBoostDaemonServer) ApplyNetworkSetting(context.Context, *NetworkSettingRequest) (*CommandResponse, error) {
	return nil, unimplemented("ApplyNetworkSetting")
}
func (UnimplementedBoostDaemonServer) ApplyPowerPlan(context.Context, *PowerPlanRequest) (*CommandResponse, error) {
	return nil, unimplemented("ApplyPowerPlan")
}
func (UnimplementedBoostDaemonServer) FlushDNS(context.Context, *emptypb.Empty) (*CommandResponse, error) {
	return nil, unimplemented("FlushDNS")
}
func (UnimplementedBoostDaemonServer) Shutdown(context.Context, *emptypb.Empty) (*ShutdownResponse, error) {
	return nil, unimplemented("Shutdown")
}

// RegisterBoostDaemonServer registers srv with s.
func RegisterBoostDaemonServer(s grpc.ServiceRegistrar, srv BoostDaemonServer) {
	s.RegisterService(&BoostDaemon_ServiceDesc, srv)
}

func fullMethod(name string) string { return "/" + ServiceName + "/" + name }

// unary builds the method descriptor for a unary call.
func unary[Req, Resp any](name string, call func(BoostDaemonServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(BoostDaemonServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod(name)}
			return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
				return call(srv.(BoostDaemonServer), ctx, req.(*Req))
			})
		},
	}
}

// serverStream builds the descriptor for a server-streaming call.
func serverStream[Req, Resp any](name string, call func(BoostDaemonServer, *Req, grpc.ServerStreamingServer[Resp]) error) grpc.StreamDesc {
	return grpc.StreamDesc{
		StreamName: name,
		Handler: func(srv any, stream grpc.ServerStream) error {
			in := new(Req)
			if err := stream.RecvMsg(in); err != nil {
				return err
			}
			return call(srv.(BoostDaemonServer), in, &grpc.GenericServerStream[Req, Resp]{ServerStream: stream})
		},
		ServerStreams: true,
	}
}

// Stream indexes into BoostDaemon_ServiceDesc.Streams.
const (
	streamSession = iota
	streamLog
	streamMetrics
)

// BoostDaemon_ServiceDesc is the grpc.ServiceDesc for the BoostDaemon service.
//
//nolint:revive,stylecheck // matches protoc-gen-go-grpc naming
var BoostDaemon_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*BoostDaemonServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("GetStatus", BoostDaemonServer.GetStatus),
		unary("Activate", BoostDaemonServer.Activate),
		unary("Deactivate", BoostDaemonServer.Deactivate),
		unary("Toggle", BoostDaemonServer.Toggle),
		unary("ListTweaks", BoostDaemonServer.ListTweaks),
		unary("SetTweak", BoostDaemonServer.SetTweak),
		unary("RestoreTweaks", BoostDaemonServer.RestoreTweaks),
		unary("ListProfiles", BoostDaemonServer.ListProfiles),
		unary("CreateProfile", BoostDaemonServer.CreateProfile),
		unary("UpdateProfile", BoostDaemonServer.UpdateProfile),
		unary("DeleteProfile", BoostDaemonServer.DeleteProfile),
		unary("ToggleFavorite", BoostDaemonServer.ToggleFavorite),
		unary("ApplyProfile", BoostDaemonServer.ApplyProfile),
		unary("ReplaceProfiles", BoostDaemonServer.ReplaceProfiles),
		unary("GetLog", BoostDaemonServer.GetLog),
		unary("ClearLog", BoostDaemonServer.ClearLog),
		unary("GetSystemInfo", BoostDaemonServer.GetSystemInfo),
		unary("GetMetrics", BoostDaemonServer.GetMetrics),
		unary("ApplyNetworkSetting", BoostDaemonServer.ApplyNetworkSetting),
		unary("ApplyPowerPlan", BoostDaemonServer.ApplyPowerPlan),
		unary("FlushDNS", BoostDaemonServer.FlushDNS),
		unary("Shutdown", BoostDaemonServer.Shutdown),
	},
	Streams: []grpc.StreamDesc{
		streamSession: serverStream("WatchSession", BoostDaemonServer.WatchSession),
		streamLog:     serverStream("WatchLog", BoostDaemonServer.WatchLog),
		streamMetrics: serverStream("WatchMetrics", BoostDaemonServer.WatchMetrics),
	},
	Metadata: "boost/v1/boost.proto",
}
