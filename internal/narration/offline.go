package narration

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/danielpatrickdp/mirror-console/internal/gate"
)

// #region offline-config
// OfflineConfig controls the built-in narrator.
type OfflineConfig struct {
	Gate       gate.GateConfig
	ChunkWords int           // words per streamed text frame
	ChunkDelay time.Duration // pause between frames
}

// DefaultOfflineConfig returns the default offline narrator settings.
func DefaultOfflineConfig() OfflineConfig {
	return OfflineConfig{
		Gate:       gate.DefaultGateConfig(),
		ChunkWords: 4,
		ChunkDelay: 0,
	}
}

// #endregion offline-config

// #region offline
// Offline narrates deterministically from the attached telemetry. It serves
// narratord and stands in for a remote service when none is configured.
type Offline struct {
	config OfflineConfig
	gate   *gate.Gate
}

// NewOffline creates an offline narrator.
func NewOffline(config OfflineConfig) *Offline {
	if config.ChunkWords <= 0 {
		config.ChunkWords = 1
	}
	return &Offline{config: config, gate: gate.NewGate(config.Gate)}
}

// Narrate returns the full narration text.
func (o *Offline) Narrate(ctx context.Context, req Request) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	text, _ := o.compose(req)
	return text, nil
}

// StreamTo sends the narration in word groups followed by the audit frame.
func (o *Offline) StreamTo(ctx context.Context, req Request, send func(Chunk) error) error {
	text, meta := o.compose(req)
	words := strings.SplitAfter(text, " ")

	for i := 0; i < len(words); i += o.config.ChunkWords {
		end := min(i+o.config.ChunkWords, len(words))
		if err := send(Chunk{Text: strings.Join(words[i:end], "")}); err != nil {
			return err
		}
		if o.config.ChunkDelay > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(o.config.ChunkDelay):
			}
		} else if err := ctx.Err(); err != nil {
			return err
		}
	}
	return send(Chunk{Audit: &meta})
}

// NarrateStream runs StreamTo on its own goroutine and hands chunks over
// as they are produced. Callers that stop reading before io.EOF must
// cancel ctx.
func (o *Offline) NarrateStream(ctx context.Context, req Request) (Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ch := make(chan Chunk)
	s := &chanStream{chunks: ch}
	go func() {
		defer close(ch)
		s.err = o.StreamTo(ctx, req, func(c Chunk) error {
			select {
			case ch <- c:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
	}()
	return s, nil
}

// #endregion offline

// #region compose
func (o *Offline) compose(req Request) (string, AuditMetadata) {
	meta := AuditMetadata{
		Assumptions: []string{"telemetry snapshot reflects the most recent completed tick"},
		Refs:        []string{"MKone_LogicGate_Audit"},
	}
	cfg := o.gate.Config()
	meta.ConstraintsChecked = []string{
		fmt.Sprintf("vireax >= %.2f", cfg.MinVireax),
		fmt.Sprintf("drift <= %.0e", cfg.MaxDrift),
		fmt.Sprintf("error <= %.2f", cfg.MaxError),
	}
	meta.Violations = []string{}

	var b strings.Builder
	tc := req.Telemetry

	switch {
	case tc == nil || tc.Latest == nil:
		b.WriteString("No telemetry frame attached; no measured claim can be made. ")
		meta.Assumptions = append(meta.Assumptions, "no frame available")
		meta.Confidence = 0.3
	default:
		f := *tc.Latest
		fmt.Fprintf(&b, "Frame T+%06d: γ-sync %.2fHz (target 42Hz), Vireax v=%.4f, Δt=%.2es, ε=%.4f. ",
			f.Timestamp, f.Gamma, f.Vireax, f.Drift, f.Error)
		fmt.Fprintf(&b, "Gate %s (go %d/%d, no-go %d/%d). ",
			tc.GateStatus, tc.ConsecutiveGo, cfg.ConfirmFrames, tc.ConsecutiveNoGo, cfg.FailFrames)

		healthy, violations := o.gate.Check(f)
		for _, v := range violations {
			meta.Violations = append(meta.Violations, v.Reason)
		}
		if healthy {
			b.WriteString("All gate bounds hold for this frame. ")
			meta.Confidence = 0.9
		} else {
			fmt.Fprintf(&b, "%d bound(s) violated: %s. ", len(violations), violations[0].Reason)
			meta.Confidence = 0.6
		}
		meta.Refs = append(meta.Refs, fmt.Sprintf("frame:%d", f.Timestamp))
	}

	if tc != nil && tc.ContradictionID != "" {
		fmt.Fprintf(&b, "Contradiction Trap %s is active: premises P1-P3 classify INCONSISTENT; minimal repair pending. ", tc.ContradictionID)
		meta.Violations = append(meta.Violations, "A2: unresolved contradiction "+tc.ContradictionID)
		meta.Refs = append(meta.Refs, tc.ContradictionID)
		meta.Confidence -= 0.1
	}

	if q := strings.TrimSpace(req.LastUser()); q != "" {
		fmt.Fprintf(&b, "Query %q acknowledged; claims above are limited to cited telemetry.", q)
	} else {
		b.WriteString("Awaiting audit query.")
	}

	return b.String(), meta
}

// #endregion compose

// chanStream yields chunks from a producer goroutine. err is written
// before chunks is closed.
type chanStream struct {
	chunks <-chan Chunk
	err    error
}

func (s *chanStream) Recv() (Chunk, error) {
	c, ok := <-s.chunks
	if !ok {
		if s.err != nil {
			return Chunk{}, s.err
		}
		return Chunk{}, io.EOF
	}
	return c, nil
}
