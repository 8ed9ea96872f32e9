package stream

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/pion/webrtc/v4"
	"github.com/pion/webrtc/v4/pkg/media"
	"github.com/rs/zerolog/log"
	"gopkg.in/hraban/opus.v2"

	"github.com/satindergrewal/airwaves/internal/pcm"
)

const (
	opusSampleRate = 48000
	opusFrame      = 20 * time.Millisecond
	opusFrameSize  = opusSampleRate / 50 // samples per channel per 20ms frame
	opusBitrate    = 128000
	resampleQual   = 4
)

// WebRTCHandler serves WebRTC SDP negotiation for low-latency Opus streaming.
type WebRTCHandler struct {
	broadcaster *Broadcaster
	mu          sync.Mutex
	peers       []*webrtc.PeerConnection
}

// NewWebRTCHandler creates a WebRTC stream handler.
func NewWebRTCHandler(b *Broadcaster) *WebRTCHandler {
	return &WebRTCHandler{
		broadcaster: b,
	}
}

// PeerCount returns the number of active WebRTC peers.
func (h *WebRTCHandler) PeerCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.peers)
}

func (h *WebRTCHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.WriteHeader(http.StatusOK)
		return
	}

	if r.Method != http.MethodPost {
		http.Error(w, "POST required", http.StatusMethodNotAllowed)
		return
	}

	var offer webrtc.SessionDescription
	if err := json.NewDecoder(r.Body).Decode(&offer); err != nil {
		http.Error(w, "invalid SDP offer", http.StatusBadRequest)
		return
	}

	pc, err := webrtc.NewPeerConnection(webrtc.Configuration{})
	if err != nil {
		http.Error(w, "create peer connection failed", http.StatusInternalServerError)
		return
	}

	audioTrack, err := webrtc.NewTrackLocalStaticSample(
		webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeOpus, ClockRate: opusSampleRate, Channels: pcm.Channels},
		"audio",
		"airwaves",
	)
	if err != nil {
		pc.Close()
		http.Error(w, "create audio track failed", http.StatusInternalServerError)
		return
	}

	if _, err := pc.AddTrack(audioTrack); err != nil {
		pc.Close()
		http.Error(w, "add track failed", http.StatusInternalServerError)
		return
	}

	if err := pc.SetRemoteDescription(offer); err != nil {
		pc.Close()
		http.Error(w, "set remote description failed", http.StatusBadRequest)
		return
	}

	answer, err := pc.CreateAnswer(nil)
	if err != nil {
		pc.Close()
		http.Error(w, "create answer failed", http.StatusInternalServerError)
		return
	}

	if err := pc.SetLocalDescription(answer); err != nil {
		pc.Close()
		http.Error(w, "set local description failed", http.StatusInternalServerError)
		return
	}

	// Wait for ICE gathering to complete
	<-webrtc.GatheringCompletePromise(pc)

	h.mu.Lock()
	h.peers = append(h.peers, pc)
	h.mu.Unlock()

	listener := h.broadcaster.Subscribe()
	log.Info().Str("listener", listener.ID).Int("peers", h.PeerCount()).Msg("WebRTC peer connected")

	go h.streamToPeer(listener, audioTrack)

	pc.OnConnectionStateChange(func(s webrtc.PeerConnectionState) {
		if s == webrtc.PeerConnectionStateFailed ||
			s == webrtc.PeerConnectionStateClosed ||
			s == webrtc.PeerConnectionStateDisconnected {
			h.broadcaster.Unsubscribe(listener)
			if h.removePeer(pc) {
				pc.Close()
				log.Info().Str("listener", listener.ID).Int("peers", h.PeerCount()).Msg("WebRTC peer disconnected")
			}
		}
	})

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	json.NewEncoder(w).Encode(pc.LocalDescription())
}

// streamToPeer resamples the broadcast to 48kHz and writes 20ms Opus
// frames to the peer's track until the listener is unsubscribed.
func (h *WebRTCHandler) streamToPeer(listener *Listener, track *webrtc.TrackLocalStaticSample) {
	defer h.broadcaster.Unsubscribe(listener)

	enc, err := opus.NewEncoder(opusSampleRate, pcm.Channels, opus.AppAudio)
	if err != nil {
		log.Error().Err(err).Msg("WebRTC: opus encoder")
		return
	}
	enc.SetBitrate(opusBitrate)

	resampled := beep.Resample(resampleQual, beep.SampleRate(pcm.SampleRate), beep.SampleRate(opusSampleRate), newChunkStreamer(listener))

	frame := make([][2]float64, opusFrameSize)
	samples := make([]int16, opusFrameSize*pcm.Channels)
	opusBuf := make([]byte, 4000)

	for {
		n, ok := resampled.Stream(frame)
		if !ok {
			return
		}
		floatToSamples(frame[:n], samples)
		clear(samples[n*pcm.Channels:])

		written, err := enc.Encode(samples, opusBuf)
		if err != nil {
			log.Warn().Err(err).Msg("WebRTC: opus encode")
			continue
		}
		if err := track.WriteSample(media.Sample{Data: opusBuf[:written], Duration: opusFrame}); err != nil {
			return
		}
	}
}

func (h *WebRTCHandler) removePeer(pc *webrtc.PeerConnection) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i, p := range h.peers {
		if p == pc {
			h.peers = append(h.peers[:i], h.peers[i+1:]...)
			return true
		}
	}
	return false
}
