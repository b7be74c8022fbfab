package alarm

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "alarmify.v1.AlarmService"

// Method names.
const (
	MethodAddAlarm    = "AddAlarm"
	MethodRemoveAlarm = "RemoveAlarm"
	MethodClearAlarms = "ClearAlarms"
	MethodListAlarms  = "ListAlarms"
	MethodUpcoming    = "Upcoming"
	MethodNextTrigger = "NextTrigger"
	MethodSnooze      = "Snooze"
	MethodListSnoozes = "ListSnoozes"
	MethodDismiss     = "Dismiss"
)

// FullMethod returns the invoke path of a method, e.g. "/alarmify.v1.AlarmService/AddAlarm".
func FullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

// AlarmServiceServer is the server API of the alarm service.
type AlarmServiceServer interface {
	AddAlarm(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	RemoveAlarm(ctx context.Context, req *structpb.Struct) (*wrapperspb.BoolValue, error)
	ClearAlarms(ctx context.Context, req *emptypb.Empty) (*wrapperspb.Int32Value, error)
	ListAlarms(ctx context.Context, req *emptypb.Empty) (*structpb.ListValue, error)
	Upcoming(ctx context.Context, req *wrapperspb.Int32Value) (*structpb.ListValue, error)
	NextTrigger(ctx context.Context, req *emptypb.Empty) (*wrapperspb.StringValue, error)
	Snooze(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	ListSnoozes(ctx context.Context, req *emptypb.Empty) (*structpb.ListValue, error)
	Dismiss(ctx context.Context, req *wrapperspb.StringValue) (*wrapperspb.BoolValue, error)
}

// RegisterAlarmServiceServer registers srv on s.
func RegisterAlarmServiceServer(s grpc.ServiceRegistrar, srv AlarmServiceServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// ServiceDesc describes the alarm service for grpc.Server.
//
//nolint:gochecknoglobals // grpc.ServiceRegistrar takes the descriptor by pointer.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*AlarmServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: MethodAddAlarm, Handler: unary(MethodAddAlarm, AlarmServiceServer.AddAlarm)},
		{MethodName: MethodRemoveAlarm, Handler: unary(MethodRemoveAlarm, AlarmServiceServer.RemoveAlarm)},
		{MethodName: MethodClearAlarms, Handler: unary(MethodClearAlarms, AlarmServiceServer.ClearAlarms)},
		{MethodName: MethodListAlarms, Handler: unary(MethodListAlarms, AlarmServiceServer.ListAlarms)},
		{MethodName: MethodUpcoming, Handler: unary(MethodUpcoming, AlarmServiceServer.Upcoming)},
		{MethodName: MethodNextTrigger, Handler: unary(MethodNextTrigger, AlarmServiceServer.NextTrigger)},
		{MethodName: MethodSnooze, Handler: unary(MethodSnooze, AlarmServiceServer.Snooze)},
		{MethodName: MethodListSnoozes, Handler: unary(MethodListSnoozes, AlarmServiceServer.ListSnoozes)},
		{MethodName: MethodDismiss, Handler: unary(MethodDismiss, AlarmServiceServer.Dismiss)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "alarmify/v1/alarm.proto",
}

// unary builds the method handler generated code would contain for one
// unary method: decode the request, then call through the interceptor chain.
func unary[Req any, PReq interface {
	*Req
	proto.Message
}, Resp proto.Message](
	method string,
	call func(AlarmServiceServer, context.Context, PReq) (Resp, error),
) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := PReq(new(Req))
		if err := dec(in); err != nil {
			return nil, err
		}

		server, _ := srv.(AlarmServiceServer)

		if interceptor == nil {
			return call(server, ctx, in)
		}

		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: FullMethod(method),
		}

		handler := func(ctx context.Context, req any) (any, error) {
			typed, _ := req.(PReq)

			return call(server, ctx, typed)
		}

		return interceptor(ctx, in, info, handler)
	}
}
