// internal/httpserver/routes_session.go
//
// HTTP routes for drawing sessions, mounted under /session:
//   - POST   /session                → start a round (new canvas + target word);
//                                      body {"mode":"daily"} pins the word of the day
//   - GET    /session/{id}           → current display fields
//   - DELETE /session/{id}           → end the round
//   - POST   /session/{id}/pointer   → apply a batch of pointer events
//   - POST   /session/{id}/predict   → explicit prediction request
//   - POST   /session/{id}/clear     → wipe canvas, pick a new word
//   - GET    /session/{id}/canvas.png → current raster
//   - GET    /session/{id}/ws     → websocket (ws.go)
//
// Predictions run in the background; handlers return the display as it is
// right after the command. Updates arrive over the websocket or by polling.

package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/sketchguess/apps/go-server/internal/canvas"
	"github.com/robalobadob/sketchguess/apps/go-server/internal/game"
	"github.com/robalobadob/sketchguess/apps/go-server/internal/store"
)

const (
	maxBodyBytes      = 64 << 10
	maxEventsPerBatch = 1024
)

// mountSessions registers all /session routes.
func (s *Server) mountSessions(r chi.Router) {
	r.With(chimw.Timeout(requestTimeout), jsonContentType).Post("/session", s.handleNewSession)
	r.Route("/session/{id}", func(r chi.Router) {
		// Long-lived: no timeout.
		r.Get("/ws", s.handleWS)

		r.Group(func(r chi.Router) {
			r.Use(chimw.Timeout(requestTimeout))
			r.Use(jsonContentType)
			r.Get("/", s.handleGetSession)
			r.Delete("/", s.handleDeleteSession)
			r.Post("/pointer", s.handlePointer)
			r.Post("/predict", s.handlePredict)
			r.Post("/clear", s.handleClear)
			r.Get("/canvas.png", s.handleCanvas)
		})
	})
}

// sessionRes is returned by POST /session and GET /session/{id}.
type sessionRes struct {
	ID      string       `json:"id"`
	Width   int          `json:"width"`
	Height  int          `json:"height"`
	Display game.Display `json:"display"`
}

// commandRes is returned by the command endpoints.
type commandRes struct {
	Display    game.Display `json:"display"`
	Predicting bool         `json:"predicting"`
}

// pointerEvent is one pointer or control command.
//
//	type: down | move | up | leave | predict | clear
type pointerEvent struct {
	Type string  `json:"type"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

type pointerReq struct {
	Events []pointerEvent `json:"events"`
}

var errUnknownEvent = errors.New("unknown event type")

// apply runs one event against sess. Reports whether a prediction was issued.
func apply(sess *game.Session, ev pointerEvent) (bool, error) {
	p := canvas.Point{X: ev.X, Y: ev.Y}
	switch ev.Type {
	case "down":
		sess.PointerDown(p)
	case "move":
		sess.PointerMove(p)
	case "up":
		return sess.PointerUp(), nil
	case "leave":
		sess.PointerLeave()
	case "predict":
		return sess.MaybePredict(game.TriggerButton), nil
	case "clear":
		sess.Clear()
	default:
		return false, fmt.Errorf("%w: %q", errUnknownEvent, ev.Type)
	}
	return false, nil
}

// newSessionReq is the optional body of POST /session.
type newSessionReq struct {
	Mode string `json:"mode"` // "" | "random" | "daily"
}

// handleNewSession creates a session with a fresh target word.
// In daily mode every round (including after clear) uses the word of the day.
func (s *Server) handleNewSession(w http.ResponseWriter, r *http.Request) {
	var req newSessionReq
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "bad_json")
		return
	}

	opts := game.Options{
		Width:     s.opts.CanvasSize,
		Height:    s.opts.CanvasSize,
		Predictor: s.opts.Predictor,
	}
	switch req.Mode {
	case "", "random":
	case "daily":
		opts.PickWord = s.daily.Today
	default:
		writeError(w, http.StatusBadRequest, "unknown_mode")
		return
	}

	sess := game.New(opts)
	if err := s.store.Save(r.Context(), sess); err != nil {
		log.Error().Err(err).Msg("save session")
		writeError(w, http.StatusInternalServerError, "save_failed")
		return
	}
	log.Info().Str("session", sess.ID).Str("mode", req.Mode).Str("target", sess.Target()).Msg("session started")
	writeJSON(w, http.StatusCreated, s.sessionView(sess))
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.sessionView(sess))
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, http.StatusInternalServerError, "delete_failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handlePointer applies a batch of events in order.
func (s *Server) handlePointer(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	var req pointerReq
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json")
		return
	}
	if len(req.Events) > maxEventsPerBatch {
		writeError(w, http.StatusRequestEntityTooLarge, "too_many_events")
		return
	}

	predicting := false
	for _, ev := range req.Events {
		issued, err := apply(sess, ev)
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_event")
			return
		}
		predicting = predicting || issued
	}
	writeJSON(w, http.StatusOK, commandRes{Display: sess.Display(), Predicting: predicting})
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	issued := sess.MaybePredict(game.TriggerButton)
	writeJSON(w, http.StatusOK, commandRes{Display: sess.Display(), Predicting: issued})
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	sess.Clear()
	writeJSON(w, http.StatusOK, commandRes{Display: sess.Display()})
}

// handleCanvas returns the raster as PNG.
func (s *Server) handleCanvas(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	b, err := sess.PNG()
	if err != nil {
		log.Error().Err(err).Str("session", sess.ID).Msg("encode canvas")
		writeError(w, http.StatusInternalServerError, "encode_failed")
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(b)
}

// lookup resolves {id} or writes a 404.
func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (*game.Session, bool) {
	sess, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "session_not_found")
		return nil, false
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "store_error")
		return nil, false
	}
	return sess, true
}

func (s *Server) sessionView(sess *game.Session) sessionRes {
	wd, ht := sess.CanvasSize()
	return sessionRes{ID: sess.ID, Width: wd, Height: ht, Display: sess.Display()}
}
