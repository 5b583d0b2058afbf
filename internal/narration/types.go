package narration

import (
	"context"
	"errors"

	"github.com/danielpatrickdp/mirror-console/internal/sim"
	"github.com/danielpatrickdp/mirror-console/internal/telemetry"
)

var (
	// ErrEmptyResponse is returned when the service replies with no text.
	ErrEmptyResponse = errors.New("narration: empty response")
	// ErrMissingAudit is returned when a stream ends without audit metadata.
	ErrMissingAudit = errors.New("narration: missing audit metadata")
)

// #region roles
// Role identifies the author of a transcript turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// #endregion roles

// #region request
// Turn is one transcript entry as sent to the service.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// TelemetryContext is the optional snapshot summary attached to a request.
type TelemetryContext struct {
	Frame           int64                  `json:"frame"`
	GateStatus      string                 `json:"gateStatus"`
	ConsecutiveGo   int                    `json:"consecutiveGoFrames"`
	ConsecutiveNoGo int                    `json:"consecutiveNoGoFrames"`
	Latest          *telemetry.MetricFrame `json:"latest,omitempty"`
	ContradictionID string                 `json:"contradictionId,omitempty"`
}

// Request is the narration input: ordered transcript plus optional telemetry.
type Request struct {
	Transcript []Turn             `json:"transcript"`
	Telemetry  *TelemetryContext `json:"telemetry,omitempty"`
}

// LastUser returns the most recent user turn's content, or "".
func (r Request) LastUser() string {
	for i := len(r.Transcript) - 1; i >= 0; i-- {
		if r.Transcript[i].Role == RoleUser {
			return r.Transcript[i].Content
		}
	}
	return ""
}

// ContextFrom summarizes a snapshot for a request. Returns nil for nil input.
func ContextFrom(s *sim.SimulationState) *TelemetryContext {
	if s == nil {
		return nil
	}
	tc := &TelemetryContext{
		Frame:           s.CurrentFrame,
		GateStatus:      string(s.GateStatus),
		ConsecutiveGo:   s.ConsecutiveGoFrames,
		ConsecutiveNoGo: s.ConsecutiveNoGoFrames,
	}
	if f, ok := s.Latest(); ok {
		tc.Latest = &f
	}
	if s.ActiveContradiction != nil {
		tc.ContradictionID = s.ActiveContradiction.ID
	}
	return tc
}

// #endregion request

// #region response
// AuditMetadata is the structured trailer of a streamed narration. It is
// informational only.
type AuditMetadata struct {
	Assumptions        []string `json:"assumptions"`
	ConstraintsChecked []string `json:"constraints_checked"`
	Violations         []string `json:"violations"`
	Confidence         float64  `json:"confidence"`
	Refs               []string `json:"refs"`
}

// Chunk is one streamed frame: either text or the terminal audit metadata.
type Chunk struct {
	Text  string
	Audit *AuditMetadata
}

// #endregion response

// #region interfaces
// Narrator produces a single completed narration.
type Narrator interface {
	Narrate(ctx context.Context, req Request) (string, error)
}

// Stream yields chunks until io.EOF.
type Stream interface {
	Recv() (Chunk, error)
}

// StreamNarrator produces an incremental narration.
type StreamNarrator interface {
	NarrateStream(ctx context.Context, req Request) (Stream, error)
}

// Backend is what the gRPC server serves.
type Backend interface {
	Narrator
	StreamTo(ctx context.Context, req Request, send func(Chunk) error) error
}

// #endregion interfaces
