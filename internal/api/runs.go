package api

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/WanderingAstronomer/Vociferous-sub003/internal/session"
	"github.com/WanderingAstronomer/Vociferous-sub003/internal/sink"
	"github.com/WanderingAstronomer/Vociferous-sub003/pkg/logger"
)

// Run lifecycle states reported by the API
const (
	runStateRunning   = "running"
	runStateCompleted = "completed"
	runStateFailed    = "failed"
	runStateCancelled = "cancelled"
)

// run tracks one asynchronous transcription run
type run struct {
	id        string
	file      string
	engine    string
	startedAt time.Time

	session   *session.Session
	collector *sink.Collector
	stopped   atomic.Bool

	mu         sync.Mutex
	state      string
	err        error
	finishedAt time.Time
}

func newRun(id, file, engine string, sess *session.Session, collector *sink.Collector) *run {
	return &run{
		id:        id,
		file:      file,
		engine:    engine,
		startedAt: time.Now().UTC(),
		session:   sess,
		collector: collector,
		state:     runStateRunning,
	}
}

// stop requests cancellation, the watcher records the terminal state
func (r *run) stop() {
	r.stopped.Store(true)
	r.session.Stop()
}

func (r *run) finish(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.finishedAt = time.Now().UTC()
	switch {
	case err != nil:
		r.state = runStateFailed
		r.err = err
	case r.stopped.Load():
		r.state = runStateCancelled
	default:
		r.state = runStateCompleted
	}
}

func (r *run) currentState() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// snapshot builds the API view of the run, including segments seen so far
func (r *run) snapshot() RunResponse {
	r.mu.Lock()
	state := r.state
	err := r.err
	finishedAt := r.finishedAt
	r.mu.Unlock()

	resp := RunResponse{
		ID:        r.id,
		File:      r.file,
		Engine:    r.engine,
		State:     state,
		StartedAt: r.startedAt,
		Segments:  newSegmentResponses(r.collector.Segments()),
	}
	if err != nil {
		resp.Error = err.Error()
	}
	if !finishedAt.IsZero() {
		at := finishedAt
		resp.FinishedAt = &at
	}
	if state == runStateCompleted {
		if result, ok := r.collector.Result(); ok {
			resp.Result = newResultResponse(result)
		}
	}
	return resp
}

// runManager tracks runs for the service lifetime
type runManager struct {
	logger *logger.Logger
	mu     sync.Mutex
	runs   map[string]*run
}

func newRunManager(log *logger.Logger) *runManager {
	return &runManager{
		logger: log.Named("run-manager"),
		runs:   make(map[string]*run),
	}
}

// add registers the run and spawns a watcher for its completion
func (m *runManager) add(r *run) {
	m.mu.Lock()
	m.runs[r.id] = r
	m.mu.Unlock()

	go m.watch(r)
}

func (m *runManager) watch(r *run) {
	err := r.session.Join(context.Background())
	r.finish(err)

	if err != nil {
		m.logger.Error("Transcription run failed",
			logger.String("run_id", r.id),
			logger.String("file", r.file),
			logger.Error(err),
		)
		return
	}
	m.logger.Info("Transcription run finished",
		logger.String("run_id", r.id),
		logger.String("state", r.currentState()),
	)
}

func (m *runManager) get(id string) (*run, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.runs[id]
	return r, ok
}

// list returns all runs, newest first
func (m *runManager) list() []*run {
	m.mu.Lock()
	out := make([]*run, 0, len(m.runs))
	for _, r := range m.runs {
		out = append(out, r)
	}
	m.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].startedAt.After(out[j].startedAt)
	})
	return out
}

func (m *runManager) active() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	count := 0
	for _, r := range m.runs {
		if r.currentState() == runStateRunning {
			count++
		}
	}
	return count
}
