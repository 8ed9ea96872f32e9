package main

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/satindergrewal/airwaves/internal/history"
	"github.com/satindergrewal/airwaves/internal/stream"
	"github.com/satindergrewal/airwaves/internal/timeline"
)

const (
	defaultScheduleLen = 10
	maxScheduleLen     = 100
	defaultHistoryLen  = 20
	maxHistoryLen      = 500
)

// api serves the JSON endpoints. history may be nil when the as-run log is
// disabled.
type api struct {
	tl        *timeline.Timeline
	status    stream.StatusFunc
	listeners func() (httpCount, webrtcCount int)
	history   *history.Log
}

func (a *api) register(mux *http.ServeMux) {
	mux.HandleFunc("/api/status", a.handleStatus)
	mux.HandleFunc("/api/schedule", a.handleSchedule)
	mux.HandleFunc("/api/history", a.handleHistory)
}

func (a *api) handleStatus(w http.ResponseWriter, r *http.Request) {
	state, pos, dur := a.status()
	httpCount, webrtcCount := a.listeners()
	np := stream.Snapshot(a.tl.Station().Title, state, pos, dur)

	writeJSON(w, map[string]any{
		"station":          np.Station,
		"state":            np.State,
		"title":            np.Title,
		"narration":        np.Narration,
		"position_ms":      np.PositionMs,
		"duration_ms":      np.DurationMs,
		"epoch":            a.tl.Epoch().UTC().Format(time.RFC3339Nano),
		"tracks":           len(a.tl.Station().Tracks),
		"checkpoints":      a.tl.Checkpoints(),
		"http_listeners":   httpCount,
		"webrtc_listeners": webrtcCount,
	})
}

type scheduleItem struct {
	Start      time.Time `json:"start"`
	Kind       string    `json:"kind"`
	Title      string    `json:"title"`
	Narration  string    `json:"narration,omitempty"`
	DurationMs uint64    `json:"duration_ms"`
}

func (a *api) handleSchedule(w http.ResponseWriter, r *http.Request) {
	n, ok := queryLimit(w, r, "n", defaultScheduleLen, maxScheduleLen)
	if !ok {
		return
	}

	entries := a.tl.Schedule(a.tl.Time(), n)
	items := make([]scheduleItem, 0, len(entries))
	for _, e := range entries {
		items = append(items, scheduleItem{
			Start:      e.Start.UTC(),
			Kind:       e.State.Kind.String(),
			Title:      e.State.Title(),
			Narration:  e.State.Caption(),
			DurationMs: e.DurationMs,
		})
	}
	writeJSON(w, items)
}

func (a *api) handleHistory(w http.ResponseWriter, r *http.Request) {
	if a.history == nil {
		http.Error(w, "history disabled (set RADIO_HISTORY_DB)", http.StatusNotFound)
		return
	}
	limit, ok := queryLimit(w, r, "limit", defaultHistoryLen, maxHistoryLen)
	if !ok {
		return
	}

	entries, err := a.history.Recent(r.Context(), limit)
	if err != nil {
		log.Error().Err(err).Msg("Read history failed")
		http.Error(w, "history unavailable", http.StatusInternalServerError)
		return
	}
	if entries == nil {
		entries = []history.Entry{}
	}
	writeJSON(w, entries)
}

// queryLimit parses a positive count from the query string, capped at ceiling.
func queryLimit(w http.ResponseWriter, r *http.Request, key string, def, ceiling int) (int, bool) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def, true
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		http.Error(w, key+" must be a positive integer", http.StatusBadRequest)
		return 0, false
	}
	return min(n, ceiling), true
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	json.NewEncoder(w).Encode(v)
}
