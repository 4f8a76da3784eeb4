package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/robalobadob/sketchguess/apps/go-server/internal/game"
	"github.com/robalobadob/sketchguess/apps/go-server/internal/predict"
	"github.com/robalobadob/sketchguess/apps/go-server/internal/store"
	"github.com/robalobadob/sketchguess/apps/go-server/internal/words"
)

// stubPredictor always answers with res.
type stubPredictor struct{ res *predict.Result }

func (s stubPredictor) Predict(ctx context.Context, dataURL string) (*predict.Result, error) {
	return s.res, nil
}

func newTestServer(t *testing.T) (*Server, store.Store) {
	t.Helper()
	if err := words.Init(); err != nil {
		t.Fatal(err)
	}
	st := store.NewMemoryStore()
	srv := New(st, Options{
		Predictor:  stubPredictor{res: &predict.Result{Prediction: "cat", Confidence: 0.9}},
		CanvasSize: 200,
	})
	return srv, st
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func createSession(t *testing.T, h http.Handler) sessionRes {
	t.Helper()
	rec := do(t, h, http.MethodPost, "/session", "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("create session: %d %s", rec.Code, rec.Body.String())
	}
	var res sessionRes
	if err := json.NewDecoder(rec.Body).Decode(&res); err != nil {
		t.Fatal(err)
	}
	return res
}

func TestHealthAndIndex(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := do(t, srv.Router(), http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"ok":true`) {
		t.Errorf("health: %d %s", rec.Code, rec.Body.String())
	}

	rec = do(t, srv.Router(), http.MethodGet, "/", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Header().Get("Content-Type"), "text/html") {
		t.Errorf("index: %d %s", rec.Code, rec.Header().Get("Content-Type"))
	}
	if !strings.Contains(rec.Body.String(), `id="canvas"`) {
		t.Error("index page should contain the canvas")
	}
}

func TestDebugWords(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := do(t, srv.Router(), http.MethodGet, "/debug/words", "")
	var body struct {
		Count int      `json:"count"`
		Words []string `json:"words"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.Count != 10 || len(body.Words) != 10 {
		t.Errorf("unexpected vocabulary %+v", body)
	}
}

func TestCreateSession(t *testing.T) {
	srv, st := newTestServer(t)
	res := createSession(t, srv.Router())

	if res.ID == "" || res.Width != 200 || res.Height != 200 {
		t.Errorf("unexpected session %+v", res)
	}
	if !words.Contains(res.Display.Target) {
		t.Errorf("target %q not in vocabulary", res.Display.Target)
	}
	if res.Display.Prediction != game.Placeholder {
		t.Errorf("expected placeholder, got %q", res.Display.Prediction)
	}
	if st.Len() != 1 {
		t.Errorf("store should hold the session, len=%d", st.Len())
	}
}

func TestUnknownSession(t *testing.T) {
	srv, _ := newTestServer(t)
	for _, path := range []string{"/session/nope", "/session/nope/canvas.png"} {
		rec := do(t, srv.Router(), http.MethodGet, path, "")
		if rec.Code != http.StatusNotFound || !strings.Contains(rec.Body.String(), "session_not_found") {
			t.Errorf("%s: %d %s", path, rec.Code, rec.Body.String())
		}
	}
}

func TestPointerSuppressedWithLittleInk(t *testing.T) {
	srv, _ := newTestServer(t)
	s := createSession(t, srv.Router())

	body := `{"events":[{"type":"down","x":10,"y":10},{"type":"move","x":20,"y":10},{"type":"up"}]}`
	rec := do(t, srv.Router(), http.MethodPost, "/session/"+s.ID+"/pointer", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("pointer: %d %s", rec.Code, rec.Body.String())
	}
	var res commandRes
	json.NewDecoder(rec.Body).Decode(&res)
	if res.Predicting || res.Display.Prediction != game.MsgNotEnoughInk {
		t.Errorf("expected suppression, got %+v", res)
	}
}

func TestPointerStrokeTriggersPrediction(t *testing.T) {
	srv, st := newTestServer(t)
	s := createSession(t, srv.Router())

	body := `{"events":[{"type":"down","x":5,"y":100},{"type":"move","x":195,"y":100},{"type":"up"}]}`
	rec := do(t, srv.Router(), http.MethodPost, "/session/"+s.ID+"/pointer", body)
	var res commandRes
	json.NewDecoder(rec.Body).Decode(&res)
	if !res.Predicting {
		t.Fatalf("expected a prediction to be issued: %+v", res)
	}

	sess, err := st.Get(context.Background(), s.ID)
	if err != nil {
		t.Fatal(err)
	}
	sess.Wait()

	rec = do(t, srv.Router(), http.MethodGet, "/session/"+s.ID, "")
	var view sessionRes
	json.NewDecoder(rec.Body).Decode(&view)
	if view.Display.Confidence != "90%" || view.Display.Verdict == game.VerdictNone {
		t.Errorf("prediction not applied: %+v", view.Display)
	}
}

func TestPointerRejectsUnknownEvent(t *testing.T) {
	srv, _ := newTestServer(t)
	s := createSession(t, srv.Router())

	rec := do(t, srv.Router(), http.MethodPost, "/session/"+s.ID+"/pointer", `{"events":[{"type":"wiggle"}]}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
	rec = do(t, srv.Router(), http.MethodPost, "/session/"+s.ID+"/pointer", `{not json`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for bad json, got %d", rec.Code)
	}
}

func TestClearAndCanvas(t *testing.T) {
	srv, _ := newTestServer(t)
	s := createSession(t, srv.Router())

	do(t, srv.Router(), http.MethodPost, "/session/"+s.ID+"/pointer",
		`{"events":[{"type":"down","x":5,"y":5},{"type":"move","x":50,"y":50},{"type":"leave"}]}`)

	rec := do(t, srv.Router(), http.MethodPost, "/session/"+s.ID+"/clear", "")
	var res commandRes
	json.NewDecoder(rec.Body).Decode(&res)
	if res.Display.Prediction != game.Placeholder || res.Display.Confidence != game.Placeholder {
		t.Errorf("clear should reset the display: %+v", res.Display)
	}
	if !words.Contains(res.Display.Target) {
		t.Errorf("clear should pick a vocabulary word, got %q", res.Display.Target)
	}

	rec = do(t, srv.Router(), http.MethodGet, "/session/"+s.ID+"/canvas.png", "")
	if rec.Header().Get("Content-Type") != "image/png" {
		t.Fatalf("content type %q", rec.Header().Get("Content-Type"))
	}
	img, err := png.Decode(bytes.NewReader(rec.Body.Bytes()))
	if err != nil {
		t.Fatalf("decode png: %v", err)
	}
	if r, _, _, _ := img.At(30, 30).RGBA(); r>>8 != 255 {
		t.Errorf("canvas should be white after clear, red=%d", r>>8)
	}
}

func TestPredictEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)
	s := createSession(t, srv.Router())

	rec := do(t, srv.Router(), http.MethodPost, "/session/"+s.ID+"/predict", "")
	var res commandRes
	json.NewDecoder(rec.Body).Decode(&res)
	if res.Predicting || res.Display.Prediction != game.MsgNotEnoughInk {
		t.Errorf("blank canvas must not be sent: %+v", res)
	}
}

func TestDeleteSession(t *testing.T) {
	srv, st := newTestServer(t)
	s := createSession(t, srv.Router())

	rec := do(t, srv.Router(), http.MethodDelete, "/session/"+s.ID, "")
	if rec.Code != http.StatusNoContent {
		t.Errorf("delete: %d", rec.Code)
	}
	if st.Len() != 0 {
		t.Errorf("session should be gone, len=%d", st.Len())
	}
}

func TestWebsocketStreamsDisplay(t *testing.T) {
	srv, _ := newTestServer(t)
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	s := createSession(t, srv.Router())
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/session/" + s.ID + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(3 * time.Second))

	var d game.Display
	if err := conn.ReadJSON(&d); err != nil {
		t.Fatalf("initial snapshot: %v", err)
	}
	if d.Target != s.Display.Target {
		t.Errorf("initial target %q, want %q", d.Target, s.Display.Target)
	}

	for _, ev := range []pointerEvent{
		{Type: "down", X: 5, Y: 100},
		{Type: "move", X: 195, Y: 100},
		{Type: "up"},
	} {
		if err := conn.WriteJSON(ev); err != nil {
			t.Fatal(err)
		}
	}
	for {
		if err := conn.ReadJSON(&d); err != nil {
			t.Fatalf("read: %v", err)
		}
		if d.Confidence == "90%" {
			break
		}
	}
}

func TestCORSPreflight(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := do(t, srv.Router(), http.MethodOptions, "/session", "")
	if rec.Code != http.StatusNoContent {
		t.Errorf("preflight: %d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Errorf("allow origin %q", got)
	}
}

func TestDailyModePinsWordOfTheDay(t *testing.T) {
	srv, _ := newTestServer(t)
	var targets []string
	for i := 0; i < 2; i++ {
		rec := do(t, srv.Router(), http.MethodPost, "/session", `{"mode":"daily"}`)
		if rec.Code != http.StatusCreated {
			t.Fatalf("create daily: %d %s", rec.Code, rec.Body.String())
		}
		var res sessionRes
		json.NewDecoder(rec.Body).Decode(&res)
		targets = append(targets, res.Display.Target)

		rec = do(t, srv.Router(), http.MethodPost, "/session/"+res.ID+"/clear", "")
		var cleared commandRes
		json.NewDecoder(rec.Body).Decode(&cleared)
		targets = append(targets, cleared.Display.Target)
	}
	for _, w := range targets[1:] {
		if w != targets[0] {
			t.Errorf("daily rounds should share one word, got %v", targets)
		}
	}

	rec := do(t, srv.Router(), http.MethodPost, "/session", `{"mode":"ranked"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unknown mode: %d", rec.Code)
	}
}
