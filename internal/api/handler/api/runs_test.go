package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/newthinker/polyedge/internal/api/job"
	"github.com/newthinker/polyedge/internal/core"
)

type fakeRunner struct {
	generate *core.GeneratorReport
	track    *core.TrackerReport
	err      error
}

func (f *fakeRunner) RunGenerate(ctx context.Context) (*core.GeneratorReport, error) {
	return f.generate, f.err
}

func (f *fakeRunner) RunTrack(ctx context.Context) (*core.TrackerReport, error) {
	return f.track, f.err
}

func TestRunsHandler_Generate(t *testing.T) {
	runner := &fakeRunner{generate: &core.GeneratorReport{RunID: "run-1", MarketsScanned: 4, SignalsGenerated: 2}}
	handler := NewRunsHandler(runner, nil)

	req := httptest.NewRequest("POST", "/api/v1/runs/generate", nil)
	w := httptest.NewRecorder()

	handler.Generate(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	data := decodeData(t, w)
	if data["run_id"] != "run-1" || data["signals_generated"].(float64) != 2 {
		t.Errorf("unexpected report %v", data)
	}
}

func TestRunsHandler_Track(t *testing.T) {
	runner := &fakeRunner{track: &core.TrackerReport{RunID: "tick-1", Processed: 3, Resolved: 1}}
	handler := NewRunsHandler(runner, nil)

	req := httptest.NewRequest("POST", "/api/v1/runs/track", nil)
	w := httptest.NewRecorder()

	handler.Track(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if decodeData(t, w)["processed"].(float64) != 3 {
		t.Error("expected the tracker report")
	}
}

func TestRunsHandler_InProgress(t *testing.T) {
	handler := NewRunsHandler(&fakeRunner{err: core.Errorf(core.ErrRunInProgress, "generator")}, nil)

	req := httptest.NewRequest("POST", "/api/v1/runs/generate", nil)
	w := httptest.NewRecorder()

	handler.Generate(w, req)

	if w.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d", w.Code)
	}
	if code := decodeError(t, w).Code; code != core.ErrRunInProgress.Code {
		t.Errorf("expected %s, got %s", core.ErrRunInProgress.Code, code)
	}
}

func TestRunsHandler_ListAndGet(t *testing.T) {
	jobs := job.NewStore(10)
	gen := jobs.Start(job.KindGenerate, "schedule")
	jobs.Finish(gen.ID, &core.GeneratorReport{RunID: "g1"}, nil)
	jobs.Start(job.KindTrack, "api")

	handler := NewRunsHandler(&fakeRunner{}, jobs)

	req := httptest.NewRequest("GET", "/api/v1/runs?kind=generate", nil)
	w := httptest.NewRecorder()
	handler.List(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	runs := decodeData(t, w)["runs"].([]any)
	if len(runs) != 1 || runs[0].(map[string]any)["id"] != gen.ID {
		t.Errorf("expected only the generator run, got %v", runs)
	}

	req = httptest.NewRequest("GET", "/api/v1/runs/"+gen.ID, nil)
	req.SetPathValue("id", gen.ID)
	w = httptest.NewRecorder()
	handler.Get(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if decodeData(t, w)["status"] != string(job.StatusComplete) {
		t.Error("expected a completed run")
	}

	req = httptest.NewRequest("GET", "/api/v1/runs/missing", nil)
	req.SetPathValue("id", "missing")
	w = httptest.NewRecorder()
	handler.Get(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

func TestRunsHandler_List_BadKind(t *testing.T) {
	handler := NewRunsHandler(&fakeRunner{}, nil)

	req := httptest.NewRequest("GET", "/api/v1/runs?kind=backtest", nil)
	w := httptest.NewRecorder()
	handler.List(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}
