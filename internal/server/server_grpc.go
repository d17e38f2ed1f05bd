package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	grpcstatus "google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/izzyreal/padnav/internal/protocol"
	"github.com/izzyreal/padnav/internal/server/navrpc"
	"github.com/izzyreal/padnav/internal/status"
)

// navigatorGRPCServer answers the Navigator service by replaying each call
// against the HTTP router, so both surfaces share one implementation.
type navigatorGRPCServer struct {
	router http.Handler
	hub    *status.Hub
	// done ends open status streams when the server shuts down.
	done <-chan struct{}
}

var _ navrpc.NavigatorServer = (*navigatorGRPCServer)(nil)

func newNavigatorGRPCServer(router http.Handler, hub *status.Hub, done <-chan struct{}) *navigatorGRPCServer {
	return &navigatorGRPCServer{router: router, hub: hub, done: done}
}

func (g *navigatorGRPCServer) GetStatus(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	resp := &structpb.Struct{}
	if err := g.invokeAndDecodeJSON(ctx, http.MethodGet, "/api/v1/status", nil, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (g *navigatorGRPCServer) GetServerInfo(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	resp := &structpb.Struct{}
	if err := g.invokeAndDecodeJSON(ctx, http.MethodGet, "/api/v1/server-info", nil, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (g *navigatorGRPCServer) Toggle(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	resp := &structpb.Struct{}
	if err := g.invokeAndDecodeJSON(ctx, http.MethodPost, "/api/v1/toggle", map[string]any{}, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (g *navigatorGRPCServer) PushGamepads(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	body := req.AsMap()
	if t, _ := body["type"].(string); strings.TrimSpace(t) == "" {
		return nil, grpcstatus.Error(codes.InvalidArgument, "type is required")
	}
	resp := &structpb.Struct{}
	if err := g.invokeAndDecodeJSON(ctx, http.MethodPost, protocol.PathBridge, body, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (g *navigatorGRPCServer) ListJournal(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	path := "/api/v1/journal"
	if v, ok := req.GetFields()["limit"]; ok {
		limit := int(v.GetNumberValue())
		if limit < 0 {
			return nil, grpcstatus.Error(codes.InvalidArgument, "limit must be non-negative")
		}
		if limit > 0 {
			path += "?limit=" + strconv.Itoa(limit)
		}
	}
	resp := &structpb.Struct{}
	if err := g.invokeAndDecodeJSON(ctx, http.MethodGet, path, nil, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// WatchStatus sends the current status, then every published change.
func (g *navigatorGRPCServer) WatchStatus(_ *emptypb.Empty, stream grpc.ServerStreamingServer[structpb.Struct]) error {
	if g.hub == nil {
		return grpcstatus.Error(codes.Unavailable, "status hub is not initialized")
	}
	ctx := stream.Context()
	updates, stop := g.hub.Watch()
	defer stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-g.done:
			return grpcstatus.Error(codes.Unavailable, "server shutting down")
		case st := <-updates:
			evt, err := navrpc.Encode(statusResponse(st))
			if err != nil {
				return grpcstatus.Errorf(codes.Internal, "encode status: %v", err)
			}
			if err := stream.Send(evt); err != nil {
				return err
			}
		}
	}
}

func (g *navigatorGRPCServer) invokeAndDecodeJSON(ctx context.Context, method, targetPath string, body map[string]any, out proto.Message) error {
	raw, err := g.invokeJSON(ctx, method, targetPath, body)
	if err != nil {
		return err
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := (protojson.UnmarshalOptions{DiscardUnknown: true}).Unmarshal(raw, out); err != nil {
		return grpcstatus.Errorf(codes.Internal, "decode JSON response: %v", err)
	}
	return nil
}

func (g *navigatorGRPCServer) invokeJSON(ctx context.Context, method, targetPath string, body map[string]any) ([]byte, error) {
	if g == nil || g.router == nil {
		return nil, grpcstatus.Error(codes.Internal, "gRPC bridge is not initialized")
	}

	var payload io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, grpcstatus.Errorf(codes.InvalidArgument, "marshal request body: %v", err)
		}
		payload = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, targetPath, payload).WithContext(ctx)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	g.router.ServeHTTP(w, req)

	resp := w.Result()
	defer resp.Body.Close()
	rawBody, _ := io.ReadAll(resp.Body)
	trimmed := strings.TrimSpace(string(rawBody))
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		if trimmed == "" {
			trimmed = http.StatusText(resp.StatusCode)
		}
		return nil, grpcstatus.Errorf(httpStatusToGRPCCode(resp.StatusCode), "http %d: %s", resp.StatusCode, trimmed)
	}
	return rawBody, nil
}

func httpStatusToGRPCCode(statusCode int) codes.Code {
	switch statusCode {
	case http.StatusBadRequest:
		return codes.InvalidArgument
	case http.StatusNotFound:
		return codes.NotFound
	case http.StatusConflict:
		return codes.FailedPrecondition
	case http.StatusMethodNotAllowed:
		return codes.Unimplemented
	case http.StatusServiceUnavailable:
		return codes.Unavailable
	default:
		if statusCode >= 500 {
			return codes.Internal
		}
		return codes.Unknown
	}
}
