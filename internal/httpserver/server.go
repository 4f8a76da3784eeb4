// internal/httpserver/server.go
//
// HTTP server wiring for the sketch-guess game.
// Responsibilities:
//   - Router + middleware (request IDs, real IP, panic recovery, access log, CORS).
//   - Public endpoints: "/" (the drawing page), "/health", "/debug/words".
//   - Session endpoints under /session (see routes_session.go).
//   - Websocket push of display updates (see ws.go).
//   - Background eviction of idle sessions.
//
// Notes:
//   - CORS is origin-aware (CLIENT_ORIGIN) so the page can be served elsewhere.
//   - The websocket route sits outside the request timeout.
//   - JSON endpoints are bounded by requestTimeout.

package httpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/sketchguess/apps/go-server/assets"
	"github.com/robalobadob/sketchguess/apps/go-server/internal/daily"
	"github.com/robalobadob/sketchguess/apps/go-server/internal/game"
	"github.com/robalobadob/sketchguess/apps/go-server/internal/store"
	"github.com/robalobadob/sketchguess/apps/go-server/internal/words"
)

const requestTimeout = 10 * time.Second

// Options configures the server. Zero values pick defaults.
type Options struct {
	Predictor    game.Predictor // classifier used by every new session
	CanvasSize   int            // square canvas side in pixels (default 280)
	ClientOrigin string         // allowed CORS / websocket origin (default http://localhost:5173)
	DailySalt    string         // keys the word of the day
}

// Server bundles router, session store and session options.
type Server struct {
	r     *chi.Mux
	store store.Store
	opts  Options
	daily *daily.Schedule // word of the day rotation over the loaded vocabulary
}

// New constructs a Server, installs middleware, and registers routes.
// The word list must already be loaded (words.Init).
func New(st store.Store, opts Options) *Server {
	if opts.CanvasSize <= 0 {
		opts.CanvasSize = 280
	}
	if opts.ClientOrigin == "" {
		opts.ClientOrigin = "http://localhost:5173"
	}
	if opts.DailySalt == "" {
		opts.DailySalt = "local_dev_salt"
	}
	s := &Server{
		r:     chi.NewRouter(),
		store: st,
		opts:  opts,
		daily: daily.NewSchedule(words.List(), opts.DailySalt),
	}

	// --- middleware ---
	s.r.Use(chimw.RequestID)
	s.r.Use(chimw.RealIP)
	s.r.Use(chimw.Recoverer)
	s.r.Use(hlog.NewHandler(log.Logger))
	s.r.Use(hlog.AccessHandler(accessLog))
	s.r.Use(s.cors)

	// --- page + diagnostics ---
	s.r.Get("/", handleIndex)

	s.r.Group(func(r chi.Router) {
		r.Use(chimw.Timeout(requestTimeout))
		r.Use(jsonContentType)

		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"ok":true}`))
		})
		r.Get("/debug/words", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{"count": words.Count(), "words": words.List()})
		})
	})

	s.mountSessions(s.r)

	// JSON 404 for easier debugging
	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not_found")
	})

	return s
}

// Router exposes the internal router (useful for tests and http.Server).
func (s *Server) Router() chi.Router { return s.r }

// RunJanitor evicts sessions idle for longer than ttl until ctx is done.
func (s *Server) RunJanitor(ctx context.Context, ttl time.Duration) {
	every := ttl / 2
	if every < time.Second {
		every = time.Second
	}
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			n, err := s.store.Sweep(ctx, now.Add(-ttl))
			if err != nil && ctx.Err() == nil {
				log.Warn().Err(err).Msg("sweep sessions")
			}
			if n > 0 {
				log.Info().Int("evicted", n).Int("live", s.store.Len()).Msg("idle sessions evicted")
			}
		}
	}
}

// handleIndex serves the embedded drawing page.
func handleIndex(w http.ResponseWriter, r *http.Request) {
	page, err := assets.IndexHTML()
	if err != nil {
		log.Error().Err(err).Msg("read index.html")
		http.Error(w, "page unavailable", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(page)
}

// ----------------------------- middleware ----------------------------------

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// cors enables CORS for the configured client origin.
func (s *Server) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Vary", "Origin")
		w.Header().Set("Access-Control-Allow-Origin", s.opts.ClientOrigin)
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,DELETE,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// accessLog writes one line per request; pointer traffic is logged at debug.
func accessLog(r *http.Request, status, size int, d time.Duration) {
	lvl := zerolog.InfoLevel
	if r.Method == http.MethodPost && strings.HasPrefix(r.URL.Path, "/session/") {
		lvl = zerolog.DebugLevel
	}
	if status >= 500 {
		lvl = zerolog.ErrorLevel
	}
	hlog.FromRequest(r).WithLevel(lvl).
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Int("status", status).
		Int("size", size).
		Dur("duration", d).
		Str("request_id", chimw.GetReqID(r.Context())).
		Msg("request")
}

// ------------------------------- helpers -----------------------------------

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, map[string]string{"error": code})
}
