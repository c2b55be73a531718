package grpc

import (
	"context"
	"log/slog"
	"net"

	"google.golang.org/grpc"

	"github.com/mr1hm/go-landcover-timeline/internal/loader"
	"github.com/mr1hm/go-landcover-timeline/internal/metrics"
	"github.com/mr1hm/go-landcover-timeline/internal/timeline"
)

const (
	ServiceName            = "landcover.v1.TimelineService"
	GetSnapshotMethod      = "/" + ServiceName + "/GetSnapshot"
	StreamLoadEventsMethod = "/" + ServiceName + "/StreamLoadEvents"
)

type SnapshotRequest struct {
	// Index moves the scrubber before the snapshot is taken.
	Index *int `json:"index,omitempty"`
}

type SnapshotResponse struct {
	Snapshot timeline.Snapshot `json:"snapshot"`
	Content  string            `json:"content,omitempty"`
}

type StreamRequest struct{}

// TimelineService is implemented by Server and registered through ServiceDesc.
type TimelineService interface {
	GetSnapshot(ctx context.Context, req *SnapshotRequest) (*SnapshotResponse, error)
	StreamLoadEvents(req *StreamRequest, stream grpc.ServerStream) error
}

type Server struct {
	controller  *timeline.Controller
	aggregator  *metrics.Aggregator
	broadcaster *Broadcaster
	grpcServer  *grpc.Server
}

func NewServer(controller *timeline.Controller, aggregator *metrics.Aggregator, broadcaster *Broadcaster) *Server {
	return &Server{
		controller:  controller,
		aggregator:  aggregator,
		broadcaster: broadcaster,
		grpcServer:  grpc.NewServer(grpc.ForceServerCodec(Codec)),
	}
}

func (s *Server) Start(addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	slog.Info("gRPC server listening", "addr", addr)
	return s.Serve(lis)
}

func (s *Server) Serve(lis net.Listener) error {
	s.grpcServer.RegisterService(&ServiceDesc, s)
	return s.grpcServer.Serve(lis)
}

func (s *Server) Stop() {
	s.grpcServer.GracefulStop()
}

func (s *Server) GetSnapshot(ctx context.Context, req *SnapshotRequest) (*SnapshotResponse, error) {
	if req.Index != nil {
		s.controller.SetSelectedIndex(*req.Index)
	}
	snap := s.controller.Snapshot(s.aggregator)
	resp := &SnapshotResponse{Snapshot: snap}
	if snap.Unit != nil {
		resp.Content = snap.Unit.Content
	}
	return resp, nil
}

// StreamLoadEvents sends load pass events until the pass completes. A client
// that connects after completion receives a single complete event.
func (s *Server) StreamLoadEvents(req *StreamRequest, stream grpc.ServerStream) error {
	id, ch := s.broadcaster.Subscribe()
	defer s.broadcaster.Unsubscribe(id)

	slog.Info("client subscribed to load events", "subscriber_id", id)

	if res := s.controller.Result(); res != nil {
		return stream.SendMsg(&loader.Event{
			PassID: res.PassID,
			Type:   loader.EventComplete,
			Loaded: len(res.Units),
			Failed: len(res.Failures),
			Total:  res.Years.Count(),
			Time:   res.Finished,
		})
	}

	for {
		select {
		case <-stream.Context().Done():
			slog.Info("client disconnected from load events", "subscriber_id", id)
			return nil
		case e, ok := <-ch:
			if !ok {
				return nil
			}
			if err := stream.SendMsg(&e); err != nil {
				slog.Error("failed to send load event", "error", err, "subscriber_id", id)
				return err
			}
			if e.Type == loader.EventComplete {
				return nil
			}
		}
	}
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*TimelineService)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "GetSnapshot",
			Handler:    getSnapshotHandler,
		},
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "StreamLoadEvents",
			Handler:       streamLoadEventsHandler,
			ServerStreams: true,
		},
	},
	Metadata: "landcover/v1/timeline",
}

func getSnapshotHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(SnapshotRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(TimelineService).GetSnapshot(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: GetSnapshotMethod,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(TimelineService).GetSnapshot(ctx, req.(*SnapshotRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func streamLoadEventsHandler(srv any, stream grpc.ServerStream) error {
	in := new(StreamRequest)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(TimelineService).StreamLoadEvents(in, stream)
}
