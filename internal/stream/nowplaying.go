package stream

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/satindergrewal/airwaves/internal/timeline"
)

// StatusFunc reports what is on air, as audio.Pipeline.Status does.
type StatusFunc func() (state timeline.State, position, duration time.Duration)

// NowPlaying is the JSON shape pushed to now-playing subscribers and
// returned by the status API.
type NowPlaying struct {
	Station    string `json:"station"`
	State      string `json:"state"`
	Title      string `json:"title,omitempty"`
	Narration  string `json:"narration,omitempty"`
	PositionMs int64  `json:"position_ms"`
	DurationMs int64  `json:"duration_ms"`
}

// Snapshot builds a NowPlaying from a pipeline status.
func Snapshot(stationTitle string, s timeline.State, position, duration time.Duration) NowPlaying {
	return NowPlaying{
		Station:    stationTitle,
		State:      s.Kind.String(),
		Title:      s.Title(),
		Narration:  s.Caption(),
		PositionMs: position.Milliseconds(),
		DurationMs: duration.Milliseconds(),
	}
}

// NowPlayingHandler upgrades to a WebSocket and pushes a NowPlaying message
// on connect and whenever the airing segment changes.
type NowPlayingHandler struct {
	status   StatusFunc
	station  string
	poll     time.Duration
	upgrader websocket.Upgrader
}

// NewNowPlayingHandler creates the feed handler.
func NewNowPlayingHandler(stationTitle string, status StatusFunc) *NowPlayingHandler {
	return &NowPlayingHandler{
		status:  status,
		station: stationTitle,
		poll:    250 * time.Millisecond,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

func (h *NowPlayingHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("Now playing: upgrade failed")
		return
	}
	defer conn.Close()

	// The reader only notices the client going away.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(h.poll)
	defer ticker.Stop()

	var last timeline.State
	sent := false
	for {
		state, pos, dur := h.status()
		if !sent || !state.Same(last) {
			conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := conn.WriteJSON(Snapshot(h.station, state, pos, dur)); err != nil {
				return
			}
			last, sent = state, true
		}

		select {
		case <-r.Context().Done():
			return
		case <-closed:
			return
		case <-ticker.C:
		}
	}
}
