package narration

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielpatrickdp/mirror-console/internal/contradiction"
	"github.com/danielpatrickdp/mirror-console/internal/gate"
	"github.com/danielpatrickdp/mirror-console/internal/sim"
	"github.com/danielpatrickdp/mirror-console/internal/telemetry"
)

func sampleRequest() Request {
	s := &sim.SimulationState{
		IsRunning:           true,
		CurrentFrame:        301,
		GateStatus:          gate.StatusGo,
		ConsecutiveGoFrames: 7,
		Metrics: []telemetry.MetricFrame{
			{Timestamp: 300, Gamma: 42.5, Psi: 0.997, Vireax: 0.996, Drift: 3e-6, Error: 0.02},
		},
		ActiveContradiction: contradiction.NewEvent(300),
	}
	return Request{
		Transcript: []Turn{
			{Role: RoleAssistant, Content: "ready"},
			{Role: RoleUser, Content: "status?"},
		},
		Telemetry: ContextFrom(s),
	}
}

func drain(t *testing.T, s Stream) (string, *AuditMetadata) {
	t.Helper()
	var b strings.Builder
	var meta *AuditMetadata
	for {
		c, err := s.Recv()
		if errors.Is(err, io.EOF) {
			return b.String(), meta
		}
		require.NoError(t, err)
		if c.Audit != nil {
			meta = c.Audit
			continue
		}
		require.Nil(t, meta, "text after audit frame")
		b.WriteString(c.Text)
	}
}

func TestContextFrom(t *testing.T) {
	tc := sampleRequest().Telemetry
	require.NotNil(t, tc)
	assert.Equal(t, int64(301), tc.Frame)
	assert.Equal(t, "GO", tc.GateStatus)
	assert.Equal(t, 7, tc.ConsecutiveGo)
	require.NotNil(t, tc.Latest)
	assert.Equal(t, int64(300), tc.Latest.Timestamp)
	assert.Equal(t, "CT-000300", tc.ContradictionID)

	empty := ContextFrom(&sim.SimulationState{GateStatus: gate.StatusNoGo})
	assert.Nil(t, empty.Latest)
	assert.Nil(t, ContextFrom(nil))
}

func TestOffline_NarrateCitesTelemetry(t *testing.T) {
	o := NewOffline(DefaultOfflineConfig())
	text, err := o.Narrate(context.Background(), sampleRequest())
	require.NoError(t, err)

	assert.Contains(t, text, "T+000300")
	assert.Contains(t, text, "γ-sync 42.50Hz")
	assert.Contains(t, text, "Gate GO")
	assert.Contains(t, text, "CT-000300")
	assert.Contains(t, text, `"status?"`)
}

func TestOffline_StreamMatchesNarrate(t *testing.T) {
	o := NewOffline(DefaultOfflineConfig())
	req := sampleRequest()

	want, err := o.Narrate(context.Background(), req)
	require.NoError(t, err)

	s, err := o.NarrateStream(context.Background(), req)
	require.NoError(t, err)
	got, meta := drain(t, s)

	assert.Equal(t, want, got)
	require.NotNil(t, meta)
	assert.Contains(t, meta.Refs, "frame:300")
	assert.Contains(t, meta.Refs, "CT-000300")
	assert.InDelta(t, 0.8, meta.Confidence, 1e-9)
}

func TestOffline_ViolationsReported(t *testing.T) {
	o := NewOffline(DefaultOfflineConfig())
	req := Request{Telemetry: &TelemetryContext{
		GateStatus: "NO-GO",
		Latest:     &telemetry.MetricFrame{Gamma: 40, Vireax: 0.95, Drift: 2e-6, Error: 0.01},
	}}

	s, err := o.NarrateStream(context.Background(), req)
	require.NoError(t, err)
	text, meta := drain(t, s)

	assert.Contains(t, text, "1 bound(s) violated")
	require.NotNil(t, meta)
	require.Len(t, meta.Violations, 1)
	assert.InDelta(t, 0.6, meta.Confidence, 1e-9)
}

func TestOffline_NoTelemetry(t *testing.T) {
	o := NewOffline(DefaultOfflineConfig())
	text, err := o.Narrate(context.Background(), Request{})
	require.NoError(t, err)
	assert.Contains(t, text, "No telemetry frame attached")
	assert.Contains(t, text, "Awaiting audit query.")
}

func TestOffline_CanceledContext(t *testing.T) {
	o := NewOffline(DefaultOfflineConfig())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := o.Narrate(ctx, sampleRequest())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestOffline_StreamDeliversChunksBeforeNarrationEnds(t *testing.T) {
	o := NewOffline(OfflineConfig{Gate: gate.DefaultGateConfig(), ChunkWords: 1, ChunkDelay: time.Hour})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	type result struct {
		first Chunk
		err   error
	}
	done := make(chan result, 1)
	go func() {
		s, err := o.NarrateStream(ctx, sampleRequest())
		if err != nil {
			done <- result{err: err}
			return
		}
		first, err := s.Recv()
		if err != nil {
			done <- result{err: err}
			return
		}
		cancel()
		_, err = s.Recv()
		done <- result{first: first, err: err}
	}()

	select {
	case r := <-done:
		assert.NotEmpty(t, r.first.Text)
		assert.ErrorIs(t, r.err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("first chunk was not delivered while the narration was still running")
	}
}

func TestOffline_StreamCanceledBeforeStart(t *testing.T) {
	o := NewOffline(DefaultOfflineConfig())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := o.NarrateStream(ctx, sampleRequest())
	assert.ErrorIs(t, err, context.Canceled)
}
