package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/WanderingAstronomer/Vociferous-sub003/internal/audio"
	"github.com/WanderingAstronomer/Vociferous-sub003/internal/config"
	"github.com/WanderingAstronomer/Vociferous-sub003/internal/session"
	"github.com/WanderingAstronomer/Vociferous-sub003/internal/sink"
	"github.com/WanderingAstronomer/Vociferous-sub003/internal/storage/sqlite"
	"github.com/WanderingAstronomer/Vociferous-sub003/internal/transcribe"
	"github.com/WanderingAstronomer/Vociferous-sub003/internal/websocket"
	"github.com/WanderingAstronomer/Vociferous-sub003/pkg/logger"
)

// Handler handles API requests
type Handler struct {
	registry  *transcribe.Registry
	storage   *sqlite.TranscriptStorage
	wsServer  *websocket.Server
	polisher  session.Polisher
	config    *config.Config
	runs      *runManager
	logger    *logger.Logger
	startedAt time.Time
}

// NewHandler creates a new API handler. storage and polisher may be nil
// when those features are disabled.
func NewHandler(registry *transcribe.Registry, storage *sqlite.TranscriptStorage, wsServer *websocket.Server, polisher session.Polisher, cfg *config.Config, log *logger.Logger) *Handler {
	return &Handler{
		registry:  registry,
		storage:   storage,
		wsServer:  wsServer,
		polisher:  polisher,
		config:    cfg,
		runs:      newRunManager(log),
		logger:    log.Named("api-handler"),
		startedAt: time.Now(),
	}
}

// GetHealth handles GET /api/v1/health
func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, HealthResponse{
		Status:        "ok",
		UptimeSeconds: time.Since(h.startedAt).Seconds(),
		ActiveRuns:    h.runs.active(),
	})
}

// GetEngines handles GET /api/v1/engines
func (h *Handler) GetEngines(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, EnginesResponse{Engines: h.registry.Kinds()})
}

// CreateRun handles POST /api/v1/runs. The run is asynchronous, clients
// follow it via GET /runs/{id} or the websocket feed.
func (h *Handler) CreateRun(w http.ResponseWriter, r *http.Request) {
	var req TranscribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	path, err := h.resolveAudioPath(req.File)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	engineKind := req.Engine
	if engineKind == "" {
		engineKind = h.config.Engine.Kind
	}
	engine, err := h.registry.Create(engineKind, h.engineConfig(req.Model), h.logger)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	source, err := audio.NewWAVSource(path, h.config.Session.ChunkMS, h.logger)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, fmt.Sprintf("failed to open audio file: %v", err))
		return
	}

	runID := uuid.NewString()
	collector := sink.NewCollector()
	sinks := []session.Sink{collector, sink.NewBroadcast(h.wsServer, runID)}
	if h.storage != nil {
		sinks = append(sinks, sink.NewStore(h.storage, runID, h.logger))
	}

	sess := session.NewSession(h.sessionConfig(), h.logger)
	err = sess.Start(context.Background(), session.Run{
		Source:     source,
		Engine:     engine,
		EngineKind: engineKind,
		Sink:       sink.NewMulti(sinks...),
		Options:    req.Options(),
		Polisher:   h.polisher,
	})
	if err != nil {
		h.respondError(w, http.StatusBadRequest, fmt.Sprintf("failed to start run: %v", err))
		return
	}

	run := newRun(runID, req.File, engineKind, sess, collector)
	h.runs.add(run)

	h.logger.Info("Transcription run started",
		logger.String("run_id", runID),
		logger.String("file", req.File),
		logger.String("engine", engineKind),
	)
	h.respondJSON(w, http.StatusAccepted, run.snapshot())
}

// ListRuns handles GET /api/v1/runs
func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	runs := h.runs.list()
	resp := RunsResponse{Runs: make([]RunResponse, 0, len(runs))}
	for _, run := range runs {
		resp.Runs = append(resp.Runs, run.snapshot())
	}
	h.respondJSON(w, http.StatusOK, resp)
}

// GetRun handles GET /api/v1/runs/{id}
func (h *Handler) GetRun(w http.ResponseWriter, r *http.Request) {
	run, ok := h.runs.get(chi.URLParam(r, "id"))
	if !ok {
		h.respondError(w, http.StatusNotFound, "run not found")
		return
	}
	h.respondJSON(w, http.StatusOK, run.snapshot())
}

// StopRun handles POST /api/v1/runs/{id}/stop
func (h *Handler) StopRun(w http.ResponseWriter, r *http.Request) {
	run, ok := h.runs.get(chi.URLParam(r, "id"))
	if !ok {
		h.respondError(w, http.StatusNotFound, "run not found")
		return
	}
	run.stop()
	h.respondJSON(w, http.StatusAccepted, run.snapshot())
}

// GetRecentTranscripts handles GET /api/v1/transcripts
func (h *Handler) GetRecentTranscripts(w http.ResponseWriter, r *http.Request) {
	if h.storage == nil {
		h.respondError(w, http.StatusServiceUnavailable, "transcript storage is disabled")
		return
	}

	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			h.respondError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		if parsed > 200 {
			parsed = 200
		}
		limit = parsed
	}

	records, err := h.storage.GetRecentTranscripts(limit)
	if err != nil {
		h.logger.Error("Failed to query transcripts", logger.Error(err))
		h.respondError(w, http.StatusInternalServerError, "failed to query transcripts")
		return
	}
	h.respondJSON(w, http.StatusOK, h.transcriptList(records))
}

// GetTranscriptByID handles GET /api/v1/transcripts/{id}
func (h *Handler) GetTranscriptByID(w http.ResponseWriter, r *http.Request) {
	if h.storage == nil {
		h.respondError(w, http.StatusServiceUnavailable, "transcript storage is disabled")
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "transcript id must be an integer")
		return
	}

	record, err := h.storage.GetTranscriptByID(id)
	if err != nil {
		h.logger.Error("Failed to query transcript", logger.Error(err))
		h.respondError(w, http.StatusInternalServerError, "failed to query transcript")
		return
	}
	if record == nil {
		h.respondError(w, http.StatusNotFound, "transcript not found")
		return
	}
	h.respondTranscript(w, record)
}

// GetTranscriptByRunID handles GET /api/v1/transcripts/run/{runID}
func (h *Handler) GetTranscriptByRunID(w http.ResponseWriter, r *http.Request) {
	if h.storage == nil {
		h.respondError(w, http.StatusServiceUnavailable, "transcript storage is disabled")
		return
	}

	record, err := h.storage.GetTranscriptByRunID(chi.URLParam(r, "runID"))
	if err != nil {
		h.logger.Error("Failed to query transcript", logger.Error(err))
		h.respondError(w, http.StatusInternalServerError, "failed to query transcript")
		return
	}
	if record == nil {
		h.respondError(w, http.StatusNotFound, "transcript not found")
		return
	}
	h.respondTranscript(w, record)
}

// GetTranscriptsByTimeRange handles GET /api/v1/transcripts/time-range
func (h *Handler) GetTranscriptsByTimeRange(w http.ResponseWriter, r *http.Request) {
	if h.storage == nil {
		h.respondError(w, http.StatusServiceUnavailable, "transcript storage is disabled")
		return
	}

	start, err := time.Parse(time.RFC3339, r.URL.Query().Get("start"))
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "start must be an RFC3339 timestamp")
		return
	}
	end, err := time.Parse(time.RFC3339, r.URL.Query().Get("end"))
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "end must be an RFC3339 timestamp")
		return
	}

	records, err := h.storage.GetTranscriptsByTimeRange(start, end)
	if err != nil {
		h.logger.Error("Failed to query transcripts", logger.Error(err))
		h.respondError(w, http.StatusInternalServerError, "failed to query transcripts")
		return
	}
	h.respondJSON(w, http.StatusOK, h.transcriptList(records))
}

// HandleWebSocket handles GET /api/v1/ws
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	h.wsServer.HandleConnection(w, r)
}

// respondTranscript writes one transcript with its segments
func (h *Handler) respondTranscript(w http.ResponseWriter, record *sqlite.TranscriptRecord) {
	segments, err := h.storage.GetSegmentsByTranscriptID(record.ID)
	if err != nil {
		h.logger.Error("Failed to query segments", logger.Error(err))
		h.respondError(w, http.StatusInternalServerError, "failed to query segments")
		return
	}
	h.respondJSON(w, http.StatusOK, newTranscriptResponse(record, segments))
}

// transcriptList maps records without fetching their segments
func (h *Handler) transcriptList(records []*sqlite.TranscriptRecord) TranscriptsResponse {
	resp := TranscriptsResponse{Transcripts: make([]TranscriptResponse, 0, len(records))}
	for _, record := range records {
		resp.Transcripts = append(resp.Transcripts, newTranscriptResponse(record, nil))
	}
	return resp
}

// resolveAudioPath confines run requests to the configured audio directory
func (h *Handler) resolveAudioPath(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("file is required")
	}
	if !filepath.IsLocal(name) {
		return "", fmt.Errorf("file must be a relative path inside the audio directory")
	}
	return filepath.Join(h.config.Server.AudioDir, name), nil
}

func (h *Handler) sessionConfig() session.Config {
	s := h.config.Session
	return session.Config{
		AudioQueueSize:   s.AudioQueueSize,
		SegmentQueueSize: s.SegmentQueueSize,
		PollInterval:     time.Duration(s.PollIntervalMS) * time.Millisecond,
		JoinTimeout:      time.Duration(s.JoinTimeoutSecs) * time.Second,
	}
}

// engineConfig builds the engine configuration, optionally overriding the
// model per request
func (h *Handler) engineConfig(model string) transcribe.EngineConfig {
	e := h.config.Engine
	cfg := transcribe.EngineConfig{
		Model:     e.Model,
		Device:    e.Device,
		Precision: e.Precision,
		CacheDir:  e.CacheDir,
		Params:    e.Params,
	}
	if model != "" {
		cfg.Model = model
	}
	return cfg
}

func (h *Handler) respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("Failed to encode response", logger.Error(err))
	}
}

func (h *Handler) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, ErrorResponse{Error: message})
}
