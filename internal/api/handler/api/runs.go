package api

import (
	"context"
	"net/http"

	"github.com/newthinker/polyedge/internal/api/job"
	"github.com/newthinker/polyedge/internal/api/response"
	"github.com/newthinker/polyedge/internal/core"
)

// Runner triggers engine runs on demand. *app.App satisfies it.
type Runner interface {
	RunGenerate(ctx context.Context) (*core.GeneratorReport, error)
	RunTrack(ctx context.Context) (*core.TrackerReport, error)
}

// RunsHandler triggers generator and tracker runs and lists recent ones.
type RunsHandler struct {
	runner Runner
	jobs   *job.Store
}

// NewRunsHandler creates a new runs handler. jobs may be nil.
func NewRunsHandler(runner Runner, jobs *job.Store) *RunsHandler {
	if jobs == nil {
		jobs = job.NewStore(0)
	}
	return &RunsHandler{runner: runner, jobs: jobs}
}

// List returns recent runs, newest first. ?kind=generate|track narrows it.
func (h *RunsHandler) List(w http.ResponseWriter, r *http.Request) {
	kind := r.URL.Query().Get("kind")
	if kind != "" && kind != job.KindGenerate && kind != job.KindTrack {
		response.BadRequest(w, "unknown run kind %q", kind)
		return
	}

	runs := h.jobs.List(kind)
	response.JSON(w, http.StatusOK, map[string]any{
		"runs":  runs,
		"count": len(runs),
	})
}

// Get returns one recorded run.
func (h *RunsHandler) Get(w http.ResponseWriter, r *http.Request) {
	run, err := h.jobs.Get(r.PathValue("id"))
	if err != nil {
		response.Fail(w, err)
		return
	}
	response.JSON(w, http.StatusOK, run)
}

// Generate runs one generator pass and returns its report.
func (h *RunsHandler) Generate(w http.ResponseWriter, r *http.Request) {
	report, err := h.runner.RunGenerate(r.Context())
	if err != nil {
		response.Fail(w, err)
		return
	}
	response.JSON(w, http.StatusOK, report)
}

// Track runs one tracker tick and returns its report.
func (h *RunsHandler) Track(w http.ResponseWriter, r *http.Request) {
	report, err := h.runner.RunTrack(r.Context())
	if err != nil {
		response.Fail(w, err)
		return
	}
	response.JSON(w, http.StatusOK, report)
}
