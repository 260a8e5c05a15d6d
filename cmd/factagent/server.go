package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/cofacts/factagent/agents"
	"github.com/cofacts/factagent/trace"
)

type serverOption func(*server)

func withAddr(addr string) serverOption {
	return func(s *server) {
		s.addr = addr
	}
}

func withFactCheckTeam(team *agents.FactCheckTeam) serverOption {
	return func(s *server) {
		s.factCheck = team
	}
}

func withSecretaryTeam(team *agents.SecretaryTeam) serverOption {
	return func(s *server) {
		s.secretary = team
	}
}

func withLogger(logger *slog.Logger) serverOption {
	return func(s *server) {
		s.logger = logger
	}
}

type server struct {
	addr      string
	factCheck *agents.FactCheckTeam
	secretary *agents.SecretaryTeam
	logger    *slog.Logger
	mux       *http.ServeMux
}

func newServer(opts ...serverOption) *server {
	s := &server{
		addr:   ":8080",
		logger: slog.Default(),
		mux:    http.NewServeMux(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.setupRoutes()
	return s
}

func (s *server) setupRoutes() {
	s.mux.HandleFunc("GET /api/health", s.handleHealth)
	s.mux.HandleFunc("POST /api/chat", s.handleChat)
}

func (s *server) handler() http.Handler {
	return s.mux
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

type chatRequest struct {
	// Message is the user input for this turn.
	Message string `json:"message"`

	// Agent selects the assistant: "factcheck" (default) or "secretary".
	Agent string `json:"agent,omitempty"`

	// ConversationID continues an existing conversation when set.
	ConversationID string `json:"conversation_id,omitempty"`
}

type chatResponse struct {
	Reply          string `json:"reply"`
	ConversationID string `json:"conversation_id"`
	Error          string `json:"error,omitempty"`
}

func (s *server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Message == "" {
		http.Error(w, "message is required", http.StatusBadRequest)
		return
	}

	// Each request is one call chain with its own conversation scope. A
	// conversation-starting message begins a fresh conversation even when the
	// client supplies an id from a previous one.
	ctx := r.Context()
	starting := trace.DetectConversationStart(req.Message)
	if req.ConversationID != "" && !starting {
		ctx = trace.WithConversationID(ctx, req.ConversationID)
	} else {
		ctx = trace.NewConversation(ctx)
	}
	if starting {
		conversationType := trace.ClassifyConversation(req.Message)
		trace.SetConversationType(ctx, conversationType)
		s.logger.Debug("new conversation detected", "type", conversationType)
	}

	var reply string
	var err error
	switch req.Agent {
	case "", "factcheck":
		reply, err = s.factCheck.FactCheck(ctx, req.Message)
	case "secretary":
		reply, err = s.secretary.Chat(ctx, req.Message)
	default:
		http.Error(w, "unknown agent: "+req.Agent, http.StatusBadRequest)
		return
	}

	resp := chatResponse{
		Reply:          reply,
		ConversationID: trace.GetOrCreateID(ctx),
	}
	if err != nil {
		s.logger.Error("chat turn failed", "error", err, "agent", req.Agent)
		resp.Error = "agent execution failed"
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(resp)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func (s *server) start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return goerr.Wrap(err, "failed to listen", goerr.V("addr", s.addr))
	}

	s.logger.Info("starting agent server", "addr", listener.Addr().String())

	srv := &http.Server{
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.Serve(listener); err != nil && err != http.ErrServerClosed {
		return goerr.Wrap(err, "server error")
	}
	return nil
}
