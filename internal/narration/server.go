package narration

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	serviceName         = "mirror.narration.v1.NarrationService"
	narrateMethod       = "/" + serviceName + "/Narrate"
	narrateStreamMethod = "/" + serviceName + "/NarrateStream"
)

// #region service-desc
type narrationHandler interface {
	narrate(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	narrateStream(in *structpb.Struct, stream grpc.ServerStream) error
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*narrationHandler)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Narrate", Handler: narrateHandlerFunc},
	},
	Streams: []grpc.StreamDesc{
		{StreamName: "NarrateStream", Handler: narrateStreamHandlerFunc, ServerStreams: true},
	},
	Metadata: "mirror/narration/v1/narration.proto",
}

func narrateHandlerFunc(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	call := func(ctx context.Context, req any) (any, error) {
		return srv.(narrationHandler).narrate(ctx, req.(*structpb.Struct))
	}
	if interceptor == nil {
		return call(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: narrateMethod}
	return interceptor(ctx, in, info, call)
}

func narrateStreamHandlerFunc(srv any, stream grpc.ServerStream) error {
	in := new(structpb.Struct)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(narrationHandler).narrateStream(in, stream)
}

// #endregion service-desc

// #region server
// ServerConfig controls the wire format of streamed audits.
type ServerConfig struct {
	// LegacyFraming embeds the audit as "AUDIT_BLOCK{...}" inside the text
	// stream instead of sending a terminal audit frame.
	LegacyFraming bool
}

type server struct {
	backend Backend
	config  ServerConfig
	logger  *log.Logger
}

// NewGRPCServer returns a gRPC server with OTel stats handling.
func NewGRPCServer(opts ...grpc.ServerOption) *grpc.Server {
	opts = append([]grpc.ServerOption{grpc.StatsHandler(otelgrpc.NewServerHandler())}, opts...)
	return grpc.NewServer(opts...)
}

// Register exposes backend as NarrationService on s.
func Register(s grpc.ServiceRegistrar, backend Backend, config ServerConfig, logger *log.Logger) {
	if logger == nil {
		logger = log.Default()
	}
	s.RegisterService(&serviceDesc, &server{backend: backend, config: config, logger: logger})
}

func (s *server) narrate(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	req, err := decodeRequest(in)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	text, err := s.backend.Narrate(ctx, req)
	if err != nil {
		s.logger.Printf("[NARRATE] unary failed: %v", err)
		return nil, status.Error(codes.Internal, err.Error())
	}
	s.logger.Printf("[NARRATE] unary turns=%d chars=%d", len(req.Transcript), len(text))
	return encodeText(text), nil
}

func (s *server) narrateStream(in *structpb.Struct, stream grpc.ServerStream) error {
	req, err := decodeRequest(in)
	if err != nil {
		return status.Error(codes.InvalidArgument, err.Error())
	}

	frames := 0
	send := func(c Chunk) error {
		if c.Audit != nil && s.config.LegacyFraming {
			block, err := legacyBlock(*c.Audit)
			if err != nil {
				return err
			}
			c = Chunk{Text: block}
		}
		msg, err := encodeChunk(c)
		if err != nil {
			return err
		}
		frames++
		return stream.SendMsg(msg)
	}

	if err := s.backend.StreamTo(stream.Context(), req, send); err != nil {
		s.logger.Printf("[NARRATE] stream failed after %d frames: %v", frames, err)
		if _, ok := status.FromError(err); ok {
			return err
		}
		return status.Error(codes.Internal, err.Error())
	}
	s.logger.Printf("[NARRATE] stream turns=%d frames=%d legacy=%v", len(req.Transcript), frames, s.config.LegacyFraming)
	return nil
}

// #endregion server

func legacyBlock(meta AuditMetadata) (string, error) {
	raw, err := json.Marshal(meta)
	if err != nil {
		return "", fmt.Errorf("encode legacy audit block: %w", err)
	}
	return "\n" + LegacyMarker + string(raw), nil
}
