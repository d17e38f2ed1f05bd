// Package navrpc defines the padnav.v1.Navigator gRPC service. Payloads are
// google.protobuf.Struct values carrying the same JSON documents as the HTTP
// API, so no generated code is needed.
package navrpc

import (
	"context"
	"encoding/json"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

const ServiceName = "padnav.v1.Navigator"

const (
	MethodGetStatus     = "/" + ServiceName + "/GetStatus"
	MethodGetServerInfo = "/" + ServiceName + "/GetServerInfo"
	MethodToggle        = "/" + ServiceName + "/Toggle"
	MethodPushGamepads  = "/" + ServiceName + "/PushGamepads"
	MethodListJournal   = "/" + ServiceName + "/ListJournal"
	MethodWatchStatus   = "/" + ServiceName + "/WatchStatus"
)

// NavigatorServer is implemented by the daemon.
type NavigatorServer interface {
	GetStatus(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	GetServerInfo(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	Toggle(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	PushGamepads(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListJournal(context.Context, *structpb.Struct) (*structpb.Struct, error)
	WatchStatus(*emptypb.Empty, grpc.ServerStreamingServer[structpb.Struct]) error
}

func Register(s grpc.ServiceRegistrar, impl NavigatorServer) {
	s.RegisterService(&ServiceDesc, impl)
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*NavigatorServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetStatus", Handler: unary(MethodGetStatus, func(s NavigatorServer, ctx context.Context, in *emptypb.Empty) (*structpb.Struct, error) {
			return s.GetStatus(ctx, in)
		})},
		{MethodName: "GetServerInfo", Handler: unary(MethodGetServerInfo, func(s NavigatorServer, ctx context.Context, in *emptypb.Empty) (*structpb.Struct, error) {
			return s.GetServerInfo(ctx, in)
		})},
		{MethodName: "Toggle", Handler: unary(MethodToggle, func(s NavigatorServer, ctx context.Context, in *emptypb.Empty) (*structpb.Struct, error) {
			return s.Toggle(ctx, in)
		})},
		{MethodName: "PushGamepads", Handler: unary(MethodPushGamepads, func(s NavigatorServer, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
			return s.PushGamepads(ctx, in)
		})},
		{MethodName: "ListJournal", Handler: unary(MethodListJournal, func(s NavigatorServer, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
			return s.ListJournal(ctx, in)
		})},
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "WatchStatus",
			Handler:       watchStatusHandler,
			ServerStreams: true,
		},
	},
	Metadata: "padnav/v1/navigator.proto",
}

// unary builds a method handler for a request type T.
func unary[T any, PT interface {
	*T
	proto.Message
}](fullMethod string, call func(NavigatorServer, context.Context, PT) (*structpb.Struct, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := PT(new(T))
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(NavigatorServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(NavigatorServer), ctx, req.(PT))
		}
		return interceptor(ctx, in, info, handler)
	}
}

func watchStatusHandler(srv any, stream grpc.ServerStream) error {
	in := new(emptypb.Empty)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(NavigatorServer).WatchStatus(in, &grpc.GenericServerStream[emptypb.Empty, structpb.Struct]{ServerStream: stream})
}

// Client calls the Navigator service.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func (c *Client) GetStatus(ctx context.Context, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, MethodGetStatus, &emptypb.Empty{}, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetServerInfo(ctx context.Context, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, MethodGetServerInfo, &emptypb.Empty{}, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Toggle(ctx context.Context, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, MethodToggle, &emptypb.Empty{}, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) PushGamepads(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, MethodPushGamepads, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ListJournal(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, MethodListJournal, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) WatchStatus(ctx context.Context, opts ...grpc.CallOption) (grpc.ServerStreamingClient[structpb.Struct], error) {
	stream, err := c.cc.NewStream(ctx, &ServiceDesc.Streams[0], MethodWatchStatus, opts...)
	if err != nil {
		return nil, err
	}
	x := &grpc.GenericClientStream[emptypb.Empty, structpb.Struct]{ClientStream: stream}
	if err := x.ClientStream.SendMsg(&emptypb.Empty{}); err != nil {
		return nil, err
	}
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}

// Encode converts a JSON-tagged value into a Struct.
func Encode(v any) (*structpb.Struct, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	out := new(structpb.Struct)
	if err := protojson.Unmarshal(raw, out); err != nil {
		return nil, fmt.Errorf("payload is not a JSON object: %w", err)
	}
	return out, nil
}

// Decode fills out, a JSON-tagged value, from s.
func Decode(s *structpb.Struct, out any) error {
	if s == nil {
		return nil
	}
	raw, err := protojson.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal struct: %w", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}
	return nil
}
