package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"

	"warteam/internal/adapters/http/perf"
)

// captureLogs routes the default logger into a buffer for the test's duration.
func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	t.Cleanup(func() { slog.SetDefault(prev) })
	return &buf
}

func TestTiming_UsesRouteTemplate(t *testing.T) {
	collector := perf.NewCollector(10)
	r := mux.NewRouter()
	r.Use(Timing(collector, 0))
	r.Handle("/api/games/{id}", okHandler())

	for _, id := range []string{"game_1", "game_2"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/games/"+id, nil))
	}

	snap := collector.Snapshot(time.Time{}, 10)
	if len(snap.SlowestPaths) != 1 || snap.SlowestPaths[0].Path != "GET /api/games/{id}" || snap.SlowestPaths[0].Count != 2 {
		t.Errorf("paths = %+v", snap.SlowestPaths)
	}
}

func TestTiming_SkipsStaticAndWebSocket(t *testing.T) {
	collector := perf.NewCollector(10)
	h := Timing(collector, 0)(okHandler())
	for _, path := range []string{"/ws", "/static/app.js"} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK {
			t.Errorf("%s: status = %d", path, rec.Code)
		}
	}
	if collector.TotalRecorded() != 0 {
		t.Errorf("TotalRecorded = %d, want 0", collector.TotalRecorded())
	}
}

func TestTiming_RecordsStatus(t *testing.T) {
	collector := perf.NewCollector(10)
	h := Timing(collector, 0)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodDelete, "/api/games/game_9", nil))

	snap := collector.Snapshot(time.Time{}, 10)
	if snap.Requests != 1 || snap.ServerErrors != 1 {
		t.Errorf("requests = %d, server errors = %d", snap.Requests, snap.ServerErrors)
	}
	if len(snap.SlowestPaths) != 1 || snap.SlowestPaths[0].Path != "DELETE /api/games/game_9" {
		t.Errorf("paths = %+v", snap.SlowestPaths)
	}
}

func TestTiming_DefaultsTo200WhenHandlerOnlyWrites(t *testing.T) {
	logs := captureLogs(t)
	h := Timing(nil, time.Hour)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Body.String() != "ok" {
		t.Errorf("body = %q", rec.Body.String())
	}
	if out := logs.String(); !strings.Contains(out, "event=request") || !strings.Contains(out, "status=200") {
		t.Errorf("log = %q", out)
	}
}

func TestTiming_WarnsOnSlowRequest(t *testing.T) {
	logs := captureLogs(t)
	h := Timing(nil, time.Millisecond)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(5 * time.Millisecond)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/discord/post/game_1", nil))

	out := logs.String()
	if !strings.Contains(out, "level=WARN") || !strings.Contains(out, "event=slow_request") {
		t.Errorf("log = %q", out)
	}
}

func TestTiming_RecordsWhenHandlerPanics(t *testing.T) {
	collector := perf.NewCollector(10)
	h := Timing(collector, 0)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))
	defer func() {
		if recover() == nil {
			t.Fatal("panic was swallowed")
		}
		if collector.TotalRecorded() != 1 {
			t.Errorf("TotalRecorded = %d, want 1", collector.TotalRecorded())
		}
	}()
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/games", nil))
}
