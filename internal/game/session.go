// internal/game/session.go
//
// Session is the controller for one player's drawing round.
// Responsibilities:
//   - Hold the active target word and render it to the display.
//   - Own the raster and the stroke session (pointer down/move/up/leave).
//   - Gate prediction attempts on the amount of ink drawn.
//   - Run the classifier call in the background and project the result.
//   - Publish display snapshots to subscribers (websocket push).
//
// Concurrency:
//   - All state is guarded by mu; pointer handling never waits on the network.
//   - Every attempt takes the next sequence number. A response is applied only
//     if no newer attempt (or clear) happened since, so a slow answer cannot
//     overwrite a fresher one.
//   - Clear cancels the context of in-flight requests.

package game

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/sketchguess/apps/go-server/internal/canvas"
	"github.com/robalobadob/sketchguess/apps/go-server/internal/predict"
	"github.com/robalobadob/sketchguess/apps/go-server/internal/words"
)

const (
	defaultWidth  = 280
	defaultHeight = 280
)

// Predictor classifies a PNG data URL. *predict.Client satisfies it.
type Predictor interface {
	Predict(ctx context.Context, dataURL string) (*predict.Result, error)
}

// Options configures a new Session. Zero values pick defaults.
type Options struct {
	Width, Height int
	Predictor     Predictor     // defaults to a predict.Client on the default endpoint
	PickWord      func() string // defaults to words.Random
}

// Session is one drawing round plus everything the page displays.
type Session struct {
	ID string

	mu        sync.Mutex
	canvas    *canvas.Canvas
	pen       canvas.Pen
	target    string
	display   Display
	seq       uint64 // last issued prediction attempt
	predictor Predictor
	pickWord  func() string
	lastSeen  time.Time
	closed    bool

	// Request context for the current round; replaced on Clear.
	ctx    context.Context
	cancel context.CancelFunc

	inflight sync.WaitGroup

	subs    map[int]chan Display
	nextSub int

	log zerolog.Logger
}

// New creates a session with a white canvas and a freshly chosen target word.
func New(opts Options) *Session {
	if opts.Width <= 0 {
		opts.Width = defaultWidth
	}
	if opts.Height <= 0 {
		opts.Height = defaultHeight
	}
	if opts.Predictor == nil {
		opts.Predictor = predict.NewClient(predict.Config{})
	}
	if opts.PickWord == nil {
		opts.PickWord = words.Random
	}

	id := uuid.NewString()
	s := &Session{
		ID:        id,
		canvas:    canvas.New(opts.Width, opts.Height),
		predictor: opts.Predictor,
		pickWord:  opts.PickWord,
		lastSeen:  time.Now(),
		subs:      make(map[int]chan Display),
		log:       log.With().Str("session", id).Logger(),
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.resetDisplayLocked()
	s.chooseNewWordLocked()
	return s
}

// ChooseNewWord picks a new target and shows it. Returns the new target.
func (s *Session) ChooseNewWord() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touchLocked()
	w := s.chooseNewWordLocked()
	s.publishLocked()
	return w
}

func (s *Session) chooseNewWordLocked() string {
	s.target = s.pickWord()
	s.display.Target = s.target
	return s.target
}

// Target returns the active target word.
func (s *Session) Target() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.target
}

// Display returns a snapshot of the on-screen fields.
func (s *Session) Display() Display {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.display.clone()
}

// CanvasSize returns the raster dimensions.
func (s *Session) CanvasSize() (w, h int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.canvas.Size()
}

// InkAmount counts inked pixels on the raster.
func (s *Session) InkAmount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.canvas.InkAmount()
}

// PNG encodes the current raster.
func (s *Session) PNG() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.canvas.PNG()
}

// LastSeen is the time of the last player interaction.
func (s *Session) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// ------------------------------- pointer -----------------------------------

// PointerDown starts a stroke at p.
func (s *Session) PointerDown(p canvas.Point) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touchLocked()
	s.pen.Down(p)
}

// PointerMove extends the current stroke to p. Reports whether it drew.
func (s *Session) PointerMove(p canvas.Point) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touchLocked()
	return s.pen.Move(s.canvas, p)
}

// PointerUp ends the stroke and attempts a prediction.
// Reports whether a request was issued.
func (s *Session) PointerUp() bool {
	s.mu.Lock()
	s.pen.Up()
	s.mu.Unlock()
	return s.MaybePredict(TriggerPointerUp)
}

// PointerLeave ends the stroke without predicting.
func (s *Session) PointerLeave() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touchLocked()
	s.pen.Up()
}

// Clear wipes the canvas, resets the display, invalidates in-flight requests
// and picks a new target word.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touchLocked()

	s.cancel()
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.seq++

	s.canvas.Clear()
	s.pen.Reset()
	s.resetDisplayLocked()
	s.chooseNewWordLocked()
	s.publishLocked()
	s.log.Debug().Str("target", s.target).Msg("canvas cleared")
}

func (s *Session) resetDisplayLocked() {
	s.display.Prediction = Placeholder
	s.display.Confidence = Placeholder
	s.display.Top = []string{}
	s.display.Verdict = VerdictNone
	s.display.Seq = s.seq
}

// ------------------------------ prediction ---------------------------------

// MaybePredict sends the sketch to the classifier if enough ink is on the
// canvas. It returns immediately; the result is applied in the background.
// Reports whether a request was issued.
func (s *Session) MaybePredict(trigger Trigger) bool {
	s.mu.Lock()
	s.touchLocked()
	if s.closed {
		s.mu.Unlock()
		return false
	}

	s.seq++
	seq := s.seq
	ink := s.canvas.InkAmount()

	if ink < MinInk {
		s.display.Prediction = MsgNotEnoughInk
		s.display.Confidence = ""
		s.display.Top = []string{}
		s.display.Verdict = VerdictNone
		s.display.Seq = seq
		s.publishLocked()
		s.mu.Unlock()
		s.log.Debug().Int("ink", ink).Str("trigger", string(trigger)).Msg("prediction suppressed")
		return false
	}

	dataURL, err := s.canvas.DataURL()
	if err != nil {
		s.failLocked(seq, err)
		s.mu.Unlock()
		return false
	}
	ctx := s.ctx
	s.inflight.Add(1)
	s.mu.Unlock()

	s.log.Debug().Int("ink", ink).Uint64("seq", seq).Str("trigger", string(trigger)).Msg("prediction requested")
	go s.resolve(ctx, seq, dataURL)
	return true
}

// resolve performs the network call and applies its outcome if still current.
func (s *Session) resolve(ctx context.Context, seq uint64, dataURL string) {
	defer s.inflight.Done()

	res, err := s.predictor.Predict(ctx, dataURL)

	s.mu.Lock()
	defer s.mu.Unlock()
	if seq != s.seq || s.closed {
		s.log.Debug().Uint64("seq", seq).Uint64("latest", s.seq).Msg("discarding stale prediction")
		return
	}
	if err != nil {
		s.failLocked(seq, err)
		return
	}

	render(&s.display, s.target, res)
	s.display.Seq = seq
	s.publishLocked()
	s.log.Info().
		Str("target", s.target).
		Str("prediction", string(res.Prediction)).
		Float64("confidence", float64(res.Confidence)).
		Str("verdict", string(s.display.Verdict)).
		Msg("prediction")
}

// failLocked shows the unreachable message. Other fields keep their values.
func (s *Session) failLocked(seq uint64, err error) {
	s.log.Error().Err(err).Uint64("seq", seq).Msg("prediction failed")
	s.display.Prediction = MsgUnreachable
	s.display.Verdict = VerdictNone
	s.display.Seq = seq
	s.publishLocked()
}

// Wait blocks until every in-flight prediction has finished.
func (s *Session) Wait() { s.inflight.Wait() }

// Close cancels in-flight requests and closes all subscriber channels.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.cancel()
	for id, ch := range s.subs {
		close(ch)
		delete(s.subs, id)
	}
	s.mu.Unlock()
	s.Wait()
}

// ------------------------------ subscribers --------------------------------

// Subscribe returns a channel receiving a display snapshot after every change,
// starting with the current one. Slow readers only see the latest snapshot.
// The returned func unsubscribes and closes the channel.
func (s *Session) Subscribe() (<-chan Display, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan Display, 1)
	if s.closed {
		close(ch)
		return ch, func() {}
	}
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	ch <- s.display.clone()

	return ch, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if c, ok := s.subs[id]; ok {
			close(c)
			delete(s.subs, id)
		}
	}
}

// publishLocked hands the current display to every subscriber, replacing any
// snapshot they have not read yet.
func (s *Session) publishLocked() {
	if len(s.subs) == 0 {
		return
	}
	snap := s.display.clone()
	for _, ch := range s.subs {
		select {
		case ch <- snap:
			continue
		default:
		}
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- snap:
		default:
		}
	}
}

func (s *Session) touchLocked() { s.lastSeen = time.Now() }
