// internal/httpserver/server.go
//
// HTTP server wiring for the board backend.
// Responsibilities:
//   - Router + middleware (request IDs, access log, panic recovery, timeouts, JSON, CORS).
//   - Public endpoints: "/", "/health".
//   - Board endpoints: GET/POST /game, also mounted at /api/game and
//     /.netlify/functions/game for the existing static frontend.
//
// Notes:
//   - CORS is open to every origin by default; preflight OPTIONS requests are
//     answered by the middleware on any path.
//   - Admin status comes from the ?admin= query parameter or X-Admin-Code header
//     and is decided per request; there are no sessions.

package httpserver

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/cathunt/internal/auth"
	"github.com/robalobadob/cathunt/internal/board"
)

// boardPaths are the routes that serve the board.
var boardPaths = []string{"/game", "/api/game", "/.netlify/functions/game"}

// maxBodyBytes bounds POST bodies.
const maxBodyBytes = 64 << 10

// Options tunes the transport.
type Options struct {
	ClientOrigin   string        // Access-Control-Allow-Origin value; "*" when empty
	RequestTimeout time.Duration // per-request deadline; 10s when zero
}

// Server bundles the router, the board dispatcher and the admin verifier.
type Server struct {
	r      *chi.Mux
	boards *board.Dispatcher
	admin  auth.Admin
}

// New constructs a Server, installs middleware, and registers routes.
func New(boards *board.Dispatcher, admin auth.Admin, opts Options) *Server {
	if opts.ClientOrigin == "" {
		opts.ClientOrigin = "*"
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 10 * time.Second
	}
	s := &Server{r: chi.NewRouter(), boards: boards, admin: admin}

	// --- middleware ---
	s.r.Use(chimw.RequestID)                    // add X-Request-ID
	s.r.Use(chimw.RealIP)                       // set RemoteAddr from X-Forwarded-For etc.
	s.r.Use(accessLog)                          // zerolog line per request
	s.r.Use(chimw.Recoverer)                    // recover from panics
	s.r.Use(chimw.Timeout(opts.RequestTimeout)) // bound handler time
	s.r.Use(jsonContentType)                    // default JSON responses
	s.r.Use(cors(opts.ClientOrigin))            // open CORS + preflight

	// --- diagnostics ---
	s.r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"service":"cathunt","endpoints":["/health","GET /game","POST /game"]}`))
	})
	s.r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"ok":true}`))
	})

	// --- board ---
	for _, p := range boardPaths {
		s.r.Get(p, s.handleGet)
		s.r.Post(p, s.handlePost)
	}

	s.r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})
	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not found: "+r.URL.Path)
	})

	return s
}

// ServeHTTP lets Server be used directly as an http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { s.r.ServeHTTP(w, r) }

// Router exposes the internal router (useful for tests).
func (s *Server) Router() chi.Router { return s.r }

// ------------------------------ BOARD --------------------------------------

// handleGet returns the board, masked unless the caller is admin.
func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	st, err := s.boards.View(r.Context(), s.admin.IsAdmin(r))
	if err != nil {
		s.fail(w, r, "", err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// handlePost decodes an action request and applies it. An empty body is an
// empty request, which fails as an unknown action.
func (s *Server) handlePost(w http.ResponseWriter, r *http.Request) {
	var req board.Request
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	st, err := s.boards.Apply(r.Context(), s.admin.IsAdmin(r), req)
	if err != nil {
		s.fail(w, r, req.Action, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// fail maps a dispatcher error to a status code and writes it.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, action string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).
			Str("action", action).
			Str("requestId", chimw.GetReqID(r.Context())).
			Msg("board request failed")
	}
	writeError(w, status, err.Error())
}

// statusFor maps the board error taxonomy to HTTP status codes. Anything
// else, store failures included, is a 500.
func statusFor(err error) int {
	switch {
	case errors.Is(err, board.ErrInvalidInput), errors.Is(err, board.ErrUnknownAction):
		return http.StatusBadRequest
	case errors.Is(err, board.ErrAdminRequired):
		return http.StatusForbidden
	case errors.Is(err, board.ErrItemNotFound):
		return http.StatusNotFound
	case errors.Is(err, board.ErrNoCandidate):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// ------------------------------ helpers ------------------------------------

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("encode response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
