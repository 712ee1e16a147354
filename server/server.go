package server

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/pkg/errors"

	"github.com/dzjyyds666/structenv/parse"
	"github.com/dzjyyds666/structenv/parse/structenv"
)

// maxBody caps request bodies.
const maxBody = 4 << 20

type Config struct {
	Logger *log.Logger
	// Separator used when a request leaves it empty; empty picks one per
	// document.
	Separator string
}

// Server exposes the codec over HTTP. Directives are never executed here.
type Server struct {
	cfg Config
	log *log.Logger
	mux *http.ServeMux
}

type convertRequest struct {
	Input     string `json:"input"`
	Separator string `json:"separator,omitempty"`
}

type convertResponse struct {
	Success bool   `json:"success"`
	Result  any    `json:"result,omitempty"`
	Error   string `json:"error,omitempty"`
}

func New(cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = log.New(io.Discard)
	}
	s := &Server{cfg: cfg, log: cfg.Logger, mux: http.NewServeMux()}
	s.mux.HandleFunc("POST /convert/json-to-structenv", s.handleJSONToStructEnv)
	s.mux.HandleFunc("POST /convert/structenv-to-json", s.handleStructEnvToJSON)
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	s.mux.ServeHTTP(w, r)
	s.log.Debug("request", "method", r.Method, "path", r.URL.Path, "took", time.Since(start))
}

// ListenAndServe serves on addr until ctx is done, then shuts down.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return errors.Wrapf(err, "listen %s", addr)
	}
	return s.Serve(ctx, ln)
}

func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{Handler: s, ReadHeaderTimeout: 10 * time.Second}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()
	s.log.Info("listening", "addr", ln.Addr().String())

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "shutdown")
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// =========================
// Handlers
// =========================

func (s *Server) handleJSONToStructEnv(w http.ResponseWriter, r *http.Request) {
	req, ok := s.readRequest(w, r)
	if !ok {
		return
	}
	doc, err := parse.DecodeJSON([]byte(req.Input))
	if err != nil {
		s.fail(w, http.StatusBadRequest, err)
		return
	}
	sep := req.Separator
	if sep == "" {
		sep = s.cfg.Separator
	}
	var sepv structenv.Separator
	switch sep {
	case "":
		sepv = structenv.AutoSeparator(doc)
	case "_", ".":
		sepv = structenv.Separator(sep[0])
	default:
		s.fail(w, http.StatusBadRequest, errors.Errorf("invalid separator %q", sep))
		return
	}
	out, err := structenv.Serialize(doc, sepv)
	if err != nil {
		s.fail(w, http.StatusBadRequest, err)
		return
	}
	s.write(w, http.StatusOK, convertResponse{Success: true, Result: out})
}

func (s *Server) handleStructEnvToJSON(w http.ResponseWriter, r *http.Request) {
	req, ok := s.readRequest(w, r)
	if !ok {
		return
	}
	doc, err := structenv.Parse(req.Input)
	if err != nil {
		s.fail(w, http.StatusBadRequest, err)
		return
	}
	s.write(w, http.StatusOK, convertResponse{Success: true, Result: doc})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.write(w, http.StatusOK, convertResponse{Success: true, Result: "ok"})
}

// =========================
// Utilities
// =========================

func (s *Server) readRequest(w http.ResponseWriter, r *http.Request) (*convertRequest, bool) {
	var req convertRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody))
	if err := dec.Decode(&req); err != nil {
		s.fail(w, http.StatusBadRequest, errors.Wrap(err, "decode request"))
		return nil, false
	}
	return &req, true
}

func (s *Server) fail(w http.ResponseWriter, status int, err error) {
	s.log.Warn("convert failed", "status", status, "err", err)
	s.write(w, status, convertResponse{Error: err.Error()})
}

func (s *Server) write(w http.ResponseWriter, status int, resp convertResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.log.Error("write response", "err", err)
	}
}
