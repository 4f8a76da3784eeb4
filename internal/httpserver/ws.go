// internal/httpserver/ws.go
//
// Websocket channel for one session.
//   - Server → client: the display record, sent on every change (first message is
//     the current state).
//   - Client → server: the same commands as POST /pointer, one JSON object per
//     message ({"type":"move","x":12,"y":40}). Lets the page stream strokes
//     without an HTTP round trip per event.

package httpserver

import (
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = wsPongWait * 9 / 10
	wsMaxMessage = 4 << 10
)

// handleWS upgrades the connection and bridges it to the session.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}

	upgrader := websocket.Upgrader{CheckOrigin: s.checkOrigin}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Str("session", sess.ID).Msg("websocket upgrade")
		return
	}
	defer conn.Close()

	updates, unsubscribe := sess.Subscribe()
	defer unsubscribe()

	// Reader: apply commands until the client goes away.
	done := make(chan struct{})
	go func() {
		defer close(done)
		conn.SetReadLimit(wsMaxMessage)
		_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(wsPongWait))
		})
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var ev pointerEvent
			if err := json.Unmarshal(msg, &ev); err != nil {
				log.Debug().Err(err).Str("session", sess.ID).Msg("invalid ws message")
				continue
			}
			if _, err := apply(sess, ev); err != nil {
				log.Debug().Err(err).Str("session", sess.ID).Msg("ignored ws command")
			}
		}
	}()

	ping := time.NewTicker(wsPingPeriod)
	defer ping.Stop()

	// Writer: the only goroutine writing to conn.
	for {
		select {
		case <-done:
			return
		case d, ok := <-updates:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "session ended"))
				return
			}
			if err := conn.WriteJSON(d); err != nil {
				return
			}
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// checkOrigin accepts same-host pages and the configured client origin.
func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || origin == s.opts.ClientOrigin {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return u.Host == r.Host
}
