package stream

import (
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/satindergrewal/airwaves/internal/pcm"
)

// HTTPHandler serves the station as an endless WAV stream: a header with
// unknown-length sizes followed by raw PCM chunks as they air.
type HTTPHandler struct {
	broadcaster *Broadcaster
	name        string
}

// NewHTTPHandler creates an HTTP stream handler. name is announced in the
// ICY-Name header.
func NewHTTPHandler(b *Broadcaster, name string) *HTTPHandler {
	return &HTTPHandler{broadcaster: b, name: name}
}

func (h *HTTPHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	listener := h.broadcaster.Subscribe()
	defer h.broadcaster.Unsubscribe(listener)

	w.Header().Set("Content-Type", "audio/wav")
	w.Header().Set("Cache-Control", "no-cache, no-store")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("ICY-Name", h.name)

	if _, err := w.Write(pcm.StreamingHeader()); err != nil {
		return
	}
	flusher.Flush()

	log.Info().Str("listener", listener.ID).Str("remote", r.RemoteAddr).
		Int("total", h.broadcaster.ListenerCount()).Msg("HTTP listener connected")
	defer func() {
		log.Info().Str("listener", listener.ID).Uint64("dropped_chunks", listener.Dropped()).Msg("HTTP listener disconnected")
	}()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-listener.done:
			return
		case chunk, ok := <-listener.C:
			if !ok {
				return
			}
			if _, err := w.Write(pcm.SamplesToBytes(chunk)); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
