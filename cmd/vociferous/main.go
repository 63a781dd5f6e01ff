// Command vociferous transcribes speech from audio streams. It either
// transcribes a single WAV file to the console, or serves an HTTP and
// websocket API for asynchronous transcription runs.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/WanderingAstronomer/Vociferous-sub003/internal/api"
	"github.com/WanderingAstronomer/Vociferous-sub003/internal/audio"
	"github.com/WanderingAstronomer/Vociferous-sub003/internal/config"
	"github.com/WanderingAstronomer/Vociferous-sub003/internal/polish"
	"github.com/WanderingAstronomer/Vociferous-sub003/internal/session"
	"github.com/WanderingAstronomer/Vociferous-sub003/internal/sink"
	"github.com/WanderingAstronomer/Vociferous-sub003/internal/storage/sqlite"
	"github.com/WanderingAstronomer/Vociferous-sub003/internal/transcribe"
	"github.com/WanderingAstronomer/Vociferous-sub003/internal/websocket"
	"github.com/WanderingAstronomer/Vociferous-sub003/pkg/logger"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "path to the TOML config file")
	filePath := flag.String("file", "", "transcribe a WAV file and exit")
	engineKind := flag.String("engine", "", "override the configured engine kind")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "vociferous: %v\n", err)
			return 1
		}
		cfg = loaded
	}
	if *engineKind != "" {
		cfg.Engine.Kind = *engineKind
	}

	log, err := logger.New(logger.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
	if err != nil {
		fmt.Fprintf(os.Stderr, "vociferous: %v\n", err)
		return 1
	}
	defer log.Sync()

	registry := transcribe.DefaultRegistry()

	var storage *sqlite.TranscriptStorage
	if cfg.Storage.Path != "" {
		db, err := sqlite.Open(cfg.Storage.Path)
		if err != nil {
			log.Error("Failed to open transcript database", logger.Error(err))
			return 1
		}
		defer db.Close()
		storage = sqlite.NewTranscriptStorage(db, log)
	}

	var polisher session.Polisher
	if cfg.Polisher.Enabled {
		p, err := polish.NewOpenAIPolisher(polish.Settings{
			APIKey:      cfg.Polisher.APIKey,
			BaseURL:     cfg.Polisher.BaseURL,
			Model:       cfg.Polisher.Model,
			Temperature: cfg.Polisher.Temperature,
		}, log)
		if err != nil {
			log.Error("Failed to create polisher", logger.Error(err))
			return 1
		}
		polisher = p
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *filePath != "" {
		return transcribeFile(ctx, cfg, registry, storage, polisher, *filePath, log)
	}
	return serve(ctx, cfg, registry, storage, polisher, log)
}

// transcribeFile runs one session over a WAV file, streaming segments to
// the console as they are recognized
func transcribeFile(ctx context.Context, cfg *config.Config, registry *transcribe.Registry, storage *sqlite.TranscriptStorage, polisher session.Polisher, path string, log *logger.Logger) int {
	engine, err := registry.Create(cfg.Engine.Kind, engineConfig(cfg), log)
	if err != nil {
		log.Error("Failed to create engine", logger.Error(err))
		return 1
	}

	source, err := audio.NewWAVSource(path, cfg.Session.ChunkMS, log)
	if err != nil {
		log.Error("Failed to open audio file", logger.Error(err))
		return 1
	}

	sinks := []session.Sink{sink.NewConsole(os.Stdout)}
	if storage != nil {
		sinks = append(sinks, sink.NewStore(storage, uuid.NewString(), log))
	}

	sess := session.NewSession(sessionConfig(cfg), log)
	if err := sess.Start(ctx, session.Run{
		Source:     source,
		Engine:     engine,
		EngineKind: cfg.Engine.Kind,
		Sink:       sink.NewMulti(sinks...),
		Polisher:   polisher,
	}); err != nil {
		log.Error("Failed to start session", logger.Error(err))
		return 1
	}

	// Join on a fresh context so an interrupt cancels the run but still
	// waits for the workers to wind down.
	if err := sess.Join(context.Background()); err != nil {
		log.Error("Transcription failed", logger.Error(err))
		return 1
	}
	return 0
}

// serve runs the HTTP and websocket service until a shutdown signal
func serve(ctx context.Context, cfg *config.Config, registry *transcribe.Registry, storage *sqlite.TranscriptStorage, polisher session.Polisher, log *logger.Logger) int {
	wsServer := websocket.NewServer(log)
	defer wsServer.Close()

	router := api.NewRouter(registry, storage, wsServer, polisher, cfg, log)
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      router.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("Server started", logger.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("Shutting down")
	case err := <-errCh:
		log.Error("Server failed", logger.Error(err))
		return 1
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Failed to shut down cleanly", logger.Error(err))
		return 1
	}
	return 0
}

func sessionConfig(cfg *config.Config) session.Config {
	s := cfg.Session
	return session.Config{
		AudioQueueSize:   s.AudioQueueSize,
		SegmentQueueSize: s.SegmentQueueSize,
		PollInterval:     time.Duration(s.PollIntervalMS) * time.Millisecond,
		JoinTimeout:      time.Duration(s.JoinTimeoutSecs) * time.Second,
	}
}

func engineConfig(cfg *config.Config) transcribe.EngineConfig {
	e := cfg.Engine
	return transcribe.EngineConfig{
		Model:     e.Model,
		Device:    e.Device,
		Precision: e.Precision,
		CacheDir:  e.CacheDir,
		Params:    e.Params,
	}
}
