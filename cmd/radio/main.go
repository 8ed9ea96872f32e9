package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/rs/zerolog/log"

	"github.com/satindergrewal/airwaves/internal/audio"
	"github.com/satindergrewal/airwaves/internal/config"
	"github.com/satindergrewal/airwaves/internal/history"
	"github.com/satindergrewal/airwaves/internal/station"
	"github.com/satindergrewal/airwaves/internal/stream"
	"github.com/satindergrewal/airwaves/internal/timeline"
	"github.com/satindergrewal/airwaves/internal/web"
)

func main() {
	cfg := config.Load()
	config.SetupLogging(cfg, nil)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	st, err := station.Load(cfg.StationFile)
	if err != nil {
		log.Fatal().Err(err).Str("file", cfg.StationFile).Msg("Load station failed")
	}

	tl, err := timeline.New(st, timeline.Config{
		Epoch:              cfg.Epoch,
		CheckpointInterval: cfg.CheckpointInterval,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Station rejected")
	}

	log.Info().Str("station", st.Title).Int("tracks", len(st.Tracks)).
		Uint64("seed", st.Seed).Time("epoch", cfg.Epoch).Msg("airwaves starting up")

	// Audio pipeline
	pipeline := audio.NewPipeline(tl)

	// As-run log (optional)
	var asRun *history.Log
	if cfg.HistoryDB != "" {
		asRun, err = history.Open(cfg.HistoryDB)
		if err != nil {
			log.Fatal().Err(err).Str("path", cfg.HistoryDB).Msg("Open history failed")
		}
		defer asRun.Close()
		pipeline.OnAir(func(s timeline.State, at time.Time) {
			if err := asRun.Record(ctx, s, at); err != nil {
				log.Warn().Err(err).Msg("Record as-run failed")
			}
		})
		log.Info().Str("path", cfg.HistoryDB).Msg("As-run log enabled")
	}

	go pipeline.Run(ctx)

	// Broadcaster: fan-out PCM frames to all listeners
	broadcaster := stream.NewBroadcaster()
	go broadcaster.Run(ctx, pipeline.Frames())

	// Local speaker (optional)
	if cfg.LocalPlayback {
		local := broadcaster.Subscribe()
		buf := audio.NewRingBuffer()
		go audio.Feed(ctx, buf, local.C)
		go func() {
			defer broadcaster.Unsubscribe(local)
			if err := audio.PlayLocal(ctx, buf); err != nil {
				log.Error().Err(err).Msg("Local playback unavailable")
			}
		}()
	}

	if !cfg.HTTPEnabled {
		log.Info().Msg("HTTP disabled, serving local playback only")
		<-ctx.Done()
		log.Info().Msg("Shutting down...")
		return
	}

	webrtcHandler := stream.NewWebRTCHandler(broadcaster)

	// HTTP routes
	mux := http.NewServeMux()

	// Web UI
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write(web.IndexHTML)
	})

	// Audio streams
	mux.Handle("/station", stream.NewHTTPHandler(broadcaster, st.Title))
	mux.Handle("/offer", webrtcHandler)
	mux.Handle("/ws/nowplaying", stream.NewNowPlayingHandler(st.Title, pipeline.Status))

	// API endpoints
	(&api{
		tl:     tl,
		status: pipeline.Status,
		listeners: func() (int, int) {
			// WebRTC peers also hold a broadcaster subscription.
			peers := webrtcHandler.PeerCount()
			return max(broadcaster.ListenerCount()-peers-localCount(cfg), 0), peers
		},
		history: asRun,
	}).register(mux)

	addr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{Addr: addr, Handler: mux}

	go func() {
		<-ctx.Done()
		log.Info().Msg("Shutting down...")
		server.Close()
	}()

	log.Info().Str("addr", addr).Msg("airwaves live")
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("HTTP server error")
	}
}

func localCount(cfg config.Config) int {
	if cfg.LocalPlayback {
		return 1
	}
	return 0
}
