// Package server implements ctapd's debug/introspection HTTP endpoints.
//
// It deliberately does not use a generated-RPC transport (ConnectRPC,
// gRPC) the way the teacher codebase's control plane does: there is no
// .proto definition or generated stub to build this against, and the
// surface it exposes is two read-only snapshots, not an API a client
// needs strongly-typed bindings for. Plain net/http and encoding/json
// are the idiomatic fit here.
package server

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-ctap/ctapd/internal/ctaphid"
)

// EngineInspector is the read-only view of an Engine the debug server
// needs. It is narrower than *ctaphid.Engine so the server package can
// be tested against a fake without spinning up a real transaction
// engine.
type EngineInspector interface {
	ChannelCount() int
	Channels() []ctaphid.Cid
	State() ctaphid.TxnSnapshot
}

// Server serves the debug/introspection HTTP endpoints over an Engine.
type Server struct {
	engine EngineInspector
	logger *slog.Logger
}

// New creates a Server and returns its http.Handler, mountable alongside
// promhttp.Handler() on the metrics listener.
func New(engine EngineInspector, logger *slog.Logger) (*Server, http.Handler) {
	s := &Server{
		engine: engine,
		logger: logger.With(slog.String("component", "server")),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/channels", s.handleChannels)
	mux.HandleFunc("GET /v1/state", s.handleState)

	var handler http.Handler = mux
	handler = RecoveryMiddleware(s.logger, handler)
	handler = LoggingMiddleware(s.logger, handler)

	return s, handler
}

// channelsResponse is the JSON body for GET /v1/channels.
type channelsResponse struct {
	Count    int      `json:"count"`
	Channels []string `json:"channels"`
}

func (s *Server) handleChannels(w http.ResponseWriter, r *http.Request) {
	cids := s.engine.Channels()
	resp := channelsResponse{
		Count:    s.engine.ChannelCount(),
		Channels: make([]string, len(cids)),
	}
	for i, cid := range cids {
		resp.Channels[i] = cid.String()
	}

	s.writeJSON(w, r, resp)
}

// stateResponse is the JSON body for GET /v1/state.
type stateResponse struct {
	Active       bool   `json:"active"`
	Cid          string `json:"cid,omitempty"`
	Cmd          string `json:"cmd,omitempty"`
	ElapsedMilli int64  `json:"elapsed_milli,omitempty"`
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	snap := s.engine.State()
	resp := stateResponse{Active: snap.Active}
	if snap.Active {
		resp.Cid = snap.Cid.String()
		resp.Cmd = snap.Cmd.String()
		resp.ElapsedMilli = snap.ElapsedMilli
	}

	s.writeJSON(w, r, resp)
}

func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.ErrorContext(r.Context(), "encode response", slog.String("error", err.Error()))
	}
}
