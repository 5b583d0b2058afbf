package chat

import (
	"errors"
	"time"

	"github.com/danielpatrickdp/mirror-console/internal/narration"
)

var (
	// ErrBusy is returned by Send while a narration request is pending.
	ErrBusy = errors.New("chat: request already pending")
	// ErrEmptyInput is returned by Send for blank input.
	ErrEmptyInput = errors.New("chat: empty input")
)

// User-visible replacements for failed narrations.
const (
	FallbackEmpty      = "Cognitive link parity lost. Invariant violation detected in response stream."
	FallbackFailure    = "Truth-layer ingestion failure. Check local Postgres/Redis orchestration."
	MissingAuditNotice = "\n\n[audit metadata unavailable: narrative not verified against telemetry]"
	DefaultGreeting    = "MirrorAssistant online. Flight recorder armed. Submit an audit query; every claim will cite γ-sync, Vireax, Δt and ε."
)

// #region session-config
// SessionConfig controls a chat session.
type SessionConfig struct {
	Greeting      string        `yaml:"greeting"`
	Timeout       time.Duration `yaml:"timeout"`        // per request, retries included
	Streaming     bool          `yaml:"streaming"`      // use NarrateStream when available
	MaxTranscript int           `yaml:"max_transcript"` // turns sent upstream; 0 sends all
	RetryBackoff  time.Duration `yaml:"retry_backoff"`
}

// DefaultSessionConfig returns the console defaults.
func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		Greeting:      DefaultGreeting,
		Timeout:       30 * time.Second,
		Streaming:     true,
		MaxTranscript: 20,
		RetryBackoff:  200 * time.Millisecond,
	}
}

// #endregion session-config

// #region message
// Message is one transcript entry.
type Message struct {
	ID        string                   `json:"id"`
	Role      narration.Role           `json:"role"`
	Content   string                   `json:"content"`
	Timestamp time.Time                `json:"timestamp"`
	Audit     *narration.AuditMetadata `json:"audit,omitempty"`
	Fallback  bool                     `json:"fallback,omitempty"` // content is a failure replacement
}

// #endregion message
