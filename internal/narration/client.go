package narration

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/structpb"
)

// #region client-struct
// Client calls a remote NarrationService.
type Client struct {
	conn   *grpc.ClientConn
	invoke grpc.ClientConnInterface
}

// #endregion client-struct

// #region constructor
// NewClient connects to the narration gRPC server.
func NewClient(addr string, opts ...grpc.DialOption) (*Client, error) {
	opts = append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithStatsHandler(otelgrpc.NewClientHandler()),
	}, opts...)
	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("grpc dial %s: %w", addr, err)
	}
	return &Client{conn: conn, invoke: conn}, nil
}

// NewClientWithConn wraps an existing connection. Close is a no-op.
func NewClientWithConn(cc grpc.ClientConnInterface) *Client {
	return &Client{invoke: cc}
}

// #endregion constructor

// #region close
// Close shuts down the gRPC connection.
func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

// #endregion close

// #region narrate
// Narrate sends the transcript and returns the completed narration.
func (c *Client) Narrate(ctx context.Context, req Request) (string, error) {
	in, err := encodeRequest(req)
	if err != nil {
		return "", err
	}
	out := new(structpb.Struct)
	if err := c.invoke.Invoke(ctx, narrateMethod, in, out); err != nil {
		return "", fmt.Errorf("narrate rpc: %w", err)
	}
	text := out.GetFields()[fieldText].GetStringValue()
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

// #endregion narrate

// #region narrate-stream
// NarrateStream opens a server stream. Legacy in-band audit blocks are
// decoded transparently, so callers always see a terminal audit chunk.
func (c *Client) NarrateStream(ctx context.Context, req Request) (Stream, error) {
	in, err := encodeRequest(req)
	if err != nil {
		return nil, err
	}
	cs, err := c.invoke.NewStream(ctx, &serviceDesc.Streams[0], narrateStreamMethod)
	if err != nil {
		return nil, fmt.Errorf("narrate stream rpc: %w", err)
	}
	if err := cs.SendMsg(in); err != nil {
		return nil, fmt.Errorf("narrate stream send: %w", err)
	}
	if err := cs.CloseSend(); err != nil {
		return nil, fmt.Errorf("narrate stream close send: %w", err)
	}
	return &clientStream{cs: cs}, nil
}

type clientStream struct {
	cs       grpc.ClientStream
	legacy   LegacyDecoder
	pending  []Chunk
	finished bool
	err      error
}

func (s *clientStream) Recv() (Chunk, error) {
	for {
		if len(s.pending) > 0 {
			c := s.pending[0]
			s.pending = s.pending[1:]
			return c, nil
		}
		if s.err != nil {
			return Chunk{}, s.err
		}
		if s.finished {
			return Chunk{}, io.EOF
		}

		msg := new(structpb.Struct)
		if err := s.cs.RecvMsg(msg); err != nil {
			if errors.Is(err, io.EOF) {
				s.flush(nil)
				continue
			}
			return Chunk{}, fmt.Errorf("narrate stream recv: %w", err)
		}

		c, err := decodeChunk(msg)
		if err != nil {
			return Chunk{}, err
		}
		if c.Audit != nil {
			s.flush(c.Audit)
			continue
		}
		if text := s.legacy.Feed(c.Text); text != "" {
			return Chunk{Text: text}, nil
		}
	}
}

// flush drains the legacy decoder and queues the terminal chunks. A framed
// audit takes precedence over an in-band one.
func (s *clientStream) flush(framed *AuditMetadata) {
	s.finished = true
	text, inband, err := s.legacy.Finish()
	if text != "" {
		s.pending = append(s.pending, Chunk{Text: text})
	}
	switch {
	case framed != nil:
		s.pending = append(s.pending, Chunk{Audit: framed})
	case inband != nil:
		s.pending = append(s.pending, Chunk{Audit: inband})
	case err != nil:
		s.err = err
	}
}

// #endregion narrate-stream
