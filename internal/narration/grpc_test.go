package narration

import (
	"context"
	"errors"
	"io"
	"log"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

// #region fakes
type fakeBackend struct {
	text   string
	err    error
	chunks []Chunk
}

func (f *fakeBackend) Narrate(_ context.Context, _ Request) (string, error) {
	return f.text, f.err
}

func (f *fakeBackend) StreamTo(_ context.Context, _ Request, send func(Chunk) error) error {
	for _, c := range f.chunks {
		if err := send(c); err != nil {
			return err
		}
	}
	return f.err
}

// #endregion fakes

func startServer(t *testing.T, backend Backend, config ServerConfig) *Client {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	srv := NewGRPCServer()
	Register(srv, backend, config, log.New(io.Discard, "", 0))
	go srv.Serve(lis)
	t.Cleanup(srv.Stop)

	client, err := NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}))
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return client
}

func TestGRPC_NarrateRoundTrip(t *testing.T) {
	client := startServer(t, NewOffline(DefaultOfflineConfig()), ServerConfig{})
	req := sampleRequest()

	want, err := NewOffline(DefaultOfflineConfig()).Narrate(context.Background(), req)
	require.NoError(t, err)

	got, err := client.Narrate(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestGRPC_NarrateEmptyResponse(t *testing.T) {
	client := startServer(t, &fakeBackend{}, ServerConfig{})
	_, err := client.Narrate(context.Background(), Request{})
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestGRPC_NarrateBackendError(t *testing.T) {
	client := startServer(t, &fakeBackend{err: errors.New("upstream down")}, ServerConfig{})
	_, err := client.Narrate(context.Background(), Request{})
	require.Error(t, err)
	assert.Equal(t, codes.Internal, status.Code(errors.Unwrap(err)))
}

func TestGRPC_StreamFramed(t *testing.T) {
	client := startServer(t, NewOffline(DefaultOfflineConfig()), ServerConfig{})
	req := sampleRequest()

	want, err := NewOffline(DefaultOfflineConfig()).Narrate(context.Background(), req)
	require.NoError(t, err)

	s, err := client.NarrateStream(context.Background(), req)
	require.NoError(t, err)
	text, meta := drain(t, s)

	assert.Equal(t, want, text)
	require.NotNil(t, meta)
	assert.Contains(t, meta.Refs, "MKone_LogicGate_Audit")
}

func TestGRPC_StreamLegacyFramingDecoded(t *testing.T) {
	client := startServer(t, NewOffline(DefaultOfflineConfig()), ServerConfig{LegacyFraming: true})
	req := sampleRequest()

	want, err := NewOffline(DefaultOfflineConfig()).Narrate(context.Background(), req)
	require.NoError(t, err)

	s, err := client.NarrateStream(context.Background(), req)
	require.NoError(t, err)
	text, meta := drain(t, s)

	assert.Equal(t, want+"\n", text)
	assert.NotContains(t, text, LegacyMarker)
	require.NotNil(t, meta)
	assert.InDelta(t, 0.8, meta.Confidence, 1e-9)
}

func TestGRPC_StreamWithoutAudit(t *testing.T) {
	backend := &fakeBackend{chunks: []Chunk{{Text: "partial "}, {Text: "narration"}}}
	client := startServer(t, backend, ServerConfig{})

	s, err := client.NarrateStream(context.Background(), Request{})
	require.NoError(t, err)
	text, meta := drain(t, s)

	assert.Equal(t, "partial narration", text)
	assert.Nil(t, meta)
}

func TestGRPC_StreamInvalidAuditFrame(t *testing.T) {
	backend := &fakeBackend{chunks: []Chunk{{Text: "x"}, {Audit: &AuditMetadata{Confidence: 2}}}}
	client := startServer(t, backend, ServerConfig{})

	s, err := client.NarrateStream(context.Background(), Request{})
	require.NoError(t, err)

	c, err := s.Recv()
	require.NoError(t, err)
	assert.Equal(t, "x", c.Text)

	_, err = s.Recv()
	require.Error(t, err)
	assert.False(t, errors.Is(err, io.EOF))
}
