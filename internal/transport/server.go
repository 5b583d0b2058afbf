package transport

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/danielpatrickdp/mirror-console/internal/audit"
	"github.com/danielpatrickdp/mirror-console/internal/chat"
	"github.com/danielpatrickdp/mirror-console/internal/journal"
	"github.com/danielpatrickdp/mirror-console/internal/sim"
)

// #region server
// Deps are the collaborators the HTTP surface exposes. Chat, Journal and
// Gatherer are optional; their endpoints answer 404 when nil. A nil Auditor
// is replaced by one with the default thresholds.
type Deps struct {
	Driver   *sim.Driver
	Auditor  *audit.Auditor
	Chat     *chat.Session
	Journal  *journal.Journal
	Gatherer prometheus.Gatherer
	Logger   *log.Logger
	// BaseContext outlives individual requests; chat narration runs on it.
	BaseContext context.Context
}

// Server is the HTTP and websocket front of the engine.
type Server struct {
	deps     Deps
	hub      *Hub
	upgrader websocket.Upgrader
	started  time.Time
}

// NewServer wires the handlers.
func NewServer(deps Deps) *Server {
	if deps.Logger == nil {
		deps.Logger = log.Default()
	}
	if deps.BaseContext == nil {
		deps.BaseContext = context.Background()
	}
	if deps.Auditor == nil {
		deps.Auditor = audit.NewAuditor(audit.DefaultAuditConfig())
	}
	return &Server{
		deps: deps,
		hub:  NewHub(deps.Driver, deps.Logger),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		started: time.Now(),
	}
}

// Handler returns the routed, logged handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /diagnostics", s.handleDiagnostics)
	mux.HandleFunc("GET /state", s.handleState)
	mux.HandleFunc("POST /toggle", s.handleToggle)
	mux.HandleFunc("GET /audit", s.handleAudit)
	mux.HandleFunc("GET /chat", s.handleChatGet)
	mux.HandleFunc("POST /chat", s.handleChatPost)
	mux.HandleFunc("GET /journal", s.handleJournal)
	mux.HandleFunc("GET /ws", s.handleWS)
	if s.deps.Gatherer != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(s.deps.Gatherer, promhttp.HandlerOpts{}))
	}
	return s.logRequests(mux)
}

// #endregion server

// #region handlers
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.Write([]byte("ok"))
}

func (s *Server) handleDiagnostics(w http.ResponseWriter, r *http.Request) {
	snap := s.deps.Driver.Snapshot()
	payload := struct {
		Status       string `json:"status"`
		ServerTime   int64  `json:"serverTime"`
		UptimeMillis int64  `json:"uptimeMillis"`
		Running      bool   `json:"running"`
		CurrentFrame int64  `json:"currentFrame"`
		GateStatus   string `json:"gateStatus"`
		TickMillis   int64  `json:"tickMillis"`
		Subscribers  int    `json:"subscribers"`
		RunID        string `json:"runId,omitempty"`
	}{
		Status:       "ok",
		ServerTime:   time.Now().UnixMilli(),
		UptimeMillis: time.Since(s.started).Milliseconds(),
		Running:      snap.IsRunning,
		CurrentFrame: snap.CurrentFrame,
		GateStatus:   string(snap.GateStatus),
		TickMillis:   s.deps.Driver.Config().Period.Milliseconds(),
		Subscribers:  s.hub.Count(),
	}
	if s.deps.Journal != nil {
		payload.RunID = s.deps.Journal.RunID()
	}
	writeJSON(w, http.StatusOK, payload)
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.Driver.Snapshot())
}

func (s *Server) handleToggle(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.Driver.ToggleRunning())
}

func (s *Server) handleAudit(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.Auditor.Run(s.deps.Driver.Snapshot()))
}

type chatView struct {
	Messages []chat.Message `json:"messages"`
	Pending  bool           `json:"pending"`
	Partial  string         `json:"partial,omitempty"`
}

func (s *Server) handleChatGet(w http.ResponseWriter, r *http.Request) {
	if s.deps.Chat == nil {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, chatView{
		Messages: s.deps.Chat.Messages(),
		Pending:  s.deps.Chat.Pending(),
		Partial:  s.deps.Chat.Partial(),
	})
}

func (s *Server) handleChatPost(w http.ResponseWriter, r *http.Request) {
	if s.deps.Chat == nil {
		http.NotFound(w, r)
		return
	}
	var body struct {
		Content string `json:"content"`
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10)).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	msg, err := s.deps.Chat.Send(s.deps.BaseContext, body.Content)
	switch {
	case errors.Is(err, chat.ErrEmptyInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, chat.ErrBusy):
		http.Error(w, err.Error(), http.StatusConflict)
	case err != nil:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	default:
		writeJSON(w, http.StatusAccepted, msg)
	}
}

func (s *Server) handleJournal(w http.ResponseWriter, r *http.Request) {
	if s.deps.Journal == nil {
		http.NotFound(w, r)
		return
	}
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}

	transitions, err := s.deps.Journal.Transitions(limit)
	if err != nil {
		s.deps.Logger.Printf("[HTTP] journal transitions: %v", err)
		http.Error(w, "journal unavailable", http.StatusInternalServerError)
		return
	}
	contradictions, err := s.deps.Journal.Contradictions(limit)
	if err != nil {
		s.deps.Logger.Printf("[HTTP] journal contradictions: %v", err)
		http.Error(w, "journal unavailable", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		RunID          string                       `json:"runId"`
		Transitions    []journal.Transition         `json:"transitions"`
		Contradictions []journal.ContradictionEntry `json:"contradictions"`
	}{s.deps.Journal.RunID(), transitions, contradictions})
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.deps.Logger.Printf("[HTTP] upgrade failed: %v", err)
		return
	}
	s.hub.Serve(conn)
}

// #endregion handlers

// #region helpers
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		http.Error(w, "failed to encode", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(data)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/ws" {
			next.ServeHTTP(w, r)
			return
		}
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.deps.Logger.Printf("[HTTP] %s %s %d %s", r.Method, r.URL.Path, rec.status, time.Since(start).Round(time.Microsecond))
	})
}

// #endregion helpers
