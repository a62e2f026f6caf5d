package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

// SessionHeader carries the session id minted on initialize.
const SessionHeader = "Mcp-Session-Id"

const maxMessageBytes = 10 << 20

// Router returns the HTTP transport: POST /mcp for JSON-RPC messages and
// GET /healthz for liveness.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Post("/mcp", s.handleMessage)
	r.Get("/healthz", s.handleHealth)
	return r
}

func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxMessageBytes))
	if err != nil {
		http.Error(w, "request body too large", http.StatusRequestEntityTooLarge)
		return
	}

	resp := s.HandleMessage(r.Context(), body)
	if resp == nil {
		w.WriteHeader(http.StatusAccepted)
		return
	}

	var env envelope
	if json.Unmarshal(body, &env) == nil && env.Method == "initialize" {
		id := uuid.NewString()
		w.Header().Set(SessionHeader, id)
		s.log.Info("http session initialized", "session", id, "request_id", middleware.GetReqID(r.Context()))
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(resp)
}

type healthResponse struct {
	Status    string `json:"status"`
	Version   string `json:"version"`
	Processes int    `json:"processes"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(healthResponse{
		Status:    "ok",
		Version:   s.sup.Version(),
		Processes: s.sup.Registry().Len(),
	})
}

// ListenAndServe listens on addr until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.log.Info("serving MCP over http", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
