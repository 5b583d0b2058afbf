package chat

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/danielpatrickdp/mirror-console/internal/narration"
	"github.com/danielpatrickdp/mirror-console/internal/sim"
)

// #region session-struct
// Session is the chat transcript and its single in-flight narration
// request. Narration runs on its own goroutine and only ever touches the
// transcript; simulation state is read through snapshot.
type Session struct {
	config   SessionConfig
	narrator narration.Narrator
	streamer narration.StreamNarrator
	snapshot func() *sim.SimulationState
	logger   *log.Logger

	mu       sync.Mutex
	messages []Message
	pending  bool
	partial  strings.Builder

	changed chan struct{}
	wg      sync.WaitGroup
	now     func() time.Time
}

// Option customizes a Session.
type Option func(*Session)

// WithLogger routes session logs to l.
func WithLogger(l *log.Logger) Option {
	return func(s *Session) { s.logger = l }
}

// WithClock replaces time.Now for message timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// #endregion session-struct

// #region constructor
// NewSession creates a session seeded with the greeting. When config
// enables streaming and narrator also implements StreamNarrator, replies
// are streamed. snapshot may be nil.
func NewSession(config SessionConfig, narrator narration.Narrator, snapshot func() *sim.SimulationState, opts ...Option) *Session {
	s := &Session{
		config:   config,
		narrator: narrator,
		snapshot: snapshot,
		logger:   log.Default(),
		changed:  make(chan struct{}, 1),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if sn, ok := narrator.(narration.StreamNarrator); ok && config.Streaming {
		s.streamer = sn
	}
	if config.Greeting != "" {
		s.messages = append(s.messages, s.newMessage(narration.RoleAssistant, config.Greeting))
	}
	return s
}

// #endregion constructor

// #region accessors
// Messages returns a copy of the transcript.
func (s *Session) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Message(nil), s.messages...)
}

// Pending reports whether a narration request is in flight.
func (s *Session) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending
}

// Partial returns streamed text received so far for the pending reply.
func (s *Session) Partial() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.partial.String()
}

// Changed signals after every transcript or partial update. Signals
// coalesce; readers should re-read state on receipt.
func (s *Session) Changed() <-chan struct{} {
	return s.changed
}

// Wait blocks until the in-flight request, if any, has finished.
func (s *Session) Wait() {
	s.wg.Wait()
}

// #endregion accessors

// #region send
// Send appends the user message and starts narration in the background.
// It returns ErrBusy while a previous request is pending.
func (s *Session) Send(ctx context.Context, text string) (Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Message{}, ErrEmptyInput
	}

	s.mu.Lock()
	if s.pending {
		s.mu.Unlock()
		return Message{}, ErrBusy
	}
	msg := s.newMessage(narration.RoleUser, text)
	s.messages = append(s.messages, msg)
	s.pending = true
	s.partial.Reset()
	req := s.requestLocked()
	s.mu.Unlock()
	s.notify()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		reply := s.narrate(ctx, req)
		s.finish(reply)
	}()
	return msg, nil
}

// requestLocked builds the upstream request. Caller holds mu.
func (s *Session) requestLocked() narration.Request {
	msgs := s.messages
	if n := s.config.MaxTranscript; n > 0 && len(msgs) > n {
		msgs = msgs[len(msgs)-n:]
	}
	turns := make([]narration.Turn, len(msgs))
	for i, m := range msgs {
		turns[i] = narration.Turn{Role: m.Role, Content: m.Content}
	}

	req := narration.Request{Transcript: turns}
	if s.snapshot != nil {
		req.Telemetry = narration.ContextFrom(s.snapshot())
	}
	return req
}

// #endregion send

// #region narrate
var tracer = otel.Tracer("github.com/danielpatrickdp/mirror-console/internal/chat")

func (s *Session) narrate(parent context.Context, req narration.Request) Message {
	ctx := parent
	if s.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(parent, s.config.Timeout)
		defer cancel()
	}

	ctx, span := tracer.Start(ctx, "chat.narrate", trace.WithAttributes(
		attribute.Int("chat.transcript_turns", len(req.Transcript)),
		attribute.Bool("chat.streaming", s.streamer != nil),
	))
	defer span.End()

	reply := s.dispatch(ctx, req)
	span.SetAttributes(attribute.Bool("chat.fallback", reply.Fallback))
	if reply.Fallback {
		span.SetStatus(codes.Error, reply.Content)
	}
	return reply
}

func (s *Session) dispatch(ctx context.Context, req narration.Request) Message {
	if s.streamer != nil {
		return s.narrateStream(ctx, req)
	}

	text, attempts, err := withRetry(ctx, s.config.RetryBackoff, func() (string, error) {
		return s.narrator.Narrate(ctx, req)
	})
	switch {
	case errors.Is(err, narration.ErrEmptyResponse) || (err == nil && strings.TrimSpace(text) == ""):
		s.logger.Printf("[CHAT] empty narration after %d attempt(s)", attempts)
		return s.fallback(FallbackEmpty)
	case err != nil:
		s.logger.Printf("[CHAT] narration failed after %d attempt(s): %v", attempts, err)
		return s.fallback(FallbackFailure)
	}
	s.logger.Printf("[CHAT] narration ok: attempts=%d chars=%d", attempts, len(text))
	return s.newMessage(narration.RoleAssistant, text)
}

// narrateStream retries only opening the stream; once text has arrived a
// failure keeps the text and marks it unverified.
func (s *Session) narrateStream(ctx context.Context, req narration.Request) Message {
	stream, attempts, err := withRetry(ctx, s.config.RetryBackoff, func() (narration.Stream, error) {
		return s.streamer.NarrateStream(ctx, req)
	})
	if err != nil {
		s.logger.Printf("[CHAT] stream open failed after %d attempt(s): %v", attempts, err)
		return s.fallback(FallbackFailure)
	}

	var audit *narration.AuditMetadata
	var recvErr error
	for {
		c, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			recvErr = err
			break
		}
		if c.Audit != nil {
			audit = c.Audit
			continue
		}
		s.mu.Lock()
		s.partial.WriteString(c.Text)
		s.mu.Unlock()
		s.notify()
	}

	text := s.Partial()
	switch {
	case strings.TrimSpace(text) == "" && recvErr != nil:
		s.logger.Printf("[CHAT] stream failed before text: %v", recvErr)
		return s.fallback(FallbackFailure)
	case strings.TrimSpace(text) == "":
		s.logger.Printf("[CHAT] stream produced no text")
		return s.fallback(FallbackEmpty)
	case recvErr != nil || audit == nil:
		s.logger.Printf("[CHAT] stream ended without audit metadata: %v", errors.Join(narration.ErrMissingAudit, recvErr))
		return s.newMessage(narration.RoleAssistant, text+MissingAuditNotice)
	}

	msg := s.newMessage(narration.RoleAssistant, text)
	msg.Audit = audit
	s.logger.Printf("[CHAT] stream ok: chars=%d confidence=%.2f", len(text), audit.Confidence)
	return msg
}

// #endregion narrate

// #region finish
func (s *Session) finish(reply Message) {
	s.mu.Lock()
	s.messages = append(s.messages, reply)
	s.pending = false
	s.partial.Reset()
	s.mu.Unlock()
	s.notify()
}

func (s *Session) fallback(text string) Message {
	m := s.newMessage(narration.RoleAssistant, text)
	m.Fallback = true
	return m
}

func (s *Session) newMessage(role narration.Role, content string) Message {
	return Message{
		ID:        uuid.NewString(),
		Role:      role,
		Content:   content,
		Timestamp: s.now(),
	}
}

func (s *Session) notify() {
	select {
	case s.changed <- struct{}{}:
	default:
	}
}

// #endregion finish
