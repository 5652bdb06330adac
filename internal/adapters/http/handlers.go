package web

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/csrf"
	"github.com/yuin/goldmark"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"

	"warteam/internal/adapters/http/middleware"
	"warteam/internal/application/listutil"
	"warteam/internal/application/orchestrators"
	"warteam/internal/application/projections"
	"warteam/internal/domain/apperr"
	"warteam/internal/domain/game"
	"warteam/internal/domain/preference"
)

// timeNow is a variable for testability.
var timeNow = time.Now

// now returns the current time in the team's time zone.
func now() time.Time {
	return timeNow().In(teamLocation)
}

// maxBodyBytes caps JSON request bodies; data imports get maxImportBytes.
const (
	maxBodyBytes   = 1 << 20
	maxImportBytes = 10 << 20
)

// mdRenderer renders game notes. Raw HTML in notes is escaped because
// WithUnsafe is NOT set.
var mdRenderer = goldmark.New(
	goldmark.WithRendererOptions(
		goldmarkHTML.WithHardWraps(),
	),
)

// generateID creates a new UUID string.
func generateID() string {
	return uuid.New().String()
}

type errorBody struct {
	Error string `json:"error"`
}

type successBody struct {
	Success bool `json:"success"`
}

var success = successBody{Success: true}

// Request-level errors
var (
	errInvalidJSON      = apperr.Validation("Invalid JSON")
	errNotAuthenticated = apperr.Unauthorized("Not authenticated")
	errManagerRequired  = apperr.Forbidden("Manager access required")
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("response_encode_failed", "error", err.Error())
	}
}

// internalError logs the real error and returns a generic message to the client.
func internalError(w http.ResponseWriter, err error) {
	slog.Error("internal_error", "error", err.Error())
	writeJSON(w, http.StatusInternalServerError, errorBody{Error: "Internal server error"})
}

// writeError maps a classified error to its status and {"error": msg} body.
// Unclassified errors are hidden behind internalError.
func writeError(w http.ResponseWriter, err error) {
	var ae *apperr.Error
	if !errors.As(err, &ae) {
		internalError(w, err)
		return
	}
	status := apperr.HTTPStatus(ae)
	if ae.Kind == apperr.KindExternal {
		slog.Error("external_service_error", "error", err.Error())
	}
	writeJSON(w, status, errorBody{Error: ae.Error()})
}

// strictDecode decodes a JSON body, rejecting unknown fields and oversized input.
func strictDecode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		slog.Debug("request_decode_failed", "path", r.URL.Path, "error", err.Error())
		return errInvalidJSON
	}
	return nil
}

// requireSession returns the session or writes 401.
func requireSession(w http.ResponseWriter, r *http.Request) (middleware.Session, bool) {
	sess, ok := middleware.GetSessionFromContext(r.Context())
	if !ok {
		writeError(w, errNotAuthenticated)
		return middleware.Session{}, false
	}
	return sess, true
}

// requireManager returns the session or writes 401/403.
func requireManager(w http.ResponseWriter, r *http.Request) (middleware.Session, bool) {
	sess, ok := requireSession(w, r)
	if !ok {
		return sess, false
	}
	if !sess.IsManager {
		writeError(w, errManagerRequired)
		return sess, false
	}
	return sess, true
}

// actorFrom describes who is acting; anonymous requests act unlinked.
func actorFrom(r *http.Request) orchestrators.Actor {
	sess, ok := middleware.GetSessionFromContext(r.Context())
	if !ok {
		return orchestrators.Actor{}
	}
	return orchestrators.Actor{LinkedPlayerID: sess.PlayerID, IsManager: sess.IsManager}
}

func renderMarkdown(md string) template.HTML {
	var buf bytes.Buffer
	if err := mdRenderer.Convert([]byte(md), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(md))
	}
	return template.HTML(buf.String())
}

// scheduleQuery builds the fragment query string for another page of the schedule.
func scheduleQuery(p listutil.ScheduleParams, page int) template.URL {
	q := url.Values{}
	q.Set("scope", p.Scope)
	if p.League != "" {
		q.Set("league", p.League)
	}
	if p.Search != "" {
		q.Set("q", p.Search)
	}
	q.Set("page", fmt.Sprint(page))
	q.Set("per_page", fmt.Sprint(p.PerPage))
	return template.URL(q.Encode())
}

func renderTemplate(w http.ResponseWriter, r *http.Request, name string, data any, files ...string) {
	sess, loggedIn := middleware.GetSessionFromContext(r.Context())
	funcMap := template.FuncMap{
		"csrfToken":       func() string { return csrf.Token(r) },
		"isLoggedIn":      func() bool { return loggedIn },
		"isManager":       func() bool { return loggedIn && sess.IsManager },
		"currentUsername": func() string { return sess.Username },
		"linkedPlayer":    func() string { return sess.PlayerID },
		"renderMarkdown":  renderMarkdown,
		"scheduleQuery":   scheduleQuery,
		"add":             func(a, b int) int { return a + b },
		"sub":             func(a, b int) int { return a - b },
	}

	patterns := make([]string, 0, len(files))
	for _, f := range files {
		patterns = append(patterns, "templates/"+f)
	}
	tpl, err := template.New("root").Funcs(funcMap).ParseFS(assets, patterns...)
	if err != nil {
		internalError(w, fmt.Errorf("parse templates: %w", err))
		return
	}
	var buf bytes.Buffer
	if err := tpl.ExecuteTemplate(&buf, name, data); err != nil {
		internalError(w, fmt.Errorf("render %s: %w", name, err))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = io.Copy(w, &buf)
}

// loadSchedule runs the schedule projection for the request's filters.
func loadSchedule(r *http.Request) (projections.ScheduleResult, error) {
	return projections.QueryGetSchedule(r.Context(), projections.GetScheduleQuery{
		Params: listutil.ParseScheduleParams(r.URL.Query()),
		Today:  now().Format(game.DateLayout),
	}, projections.GetScheduleDeps{
		GameStore:       stores.GameStore,
		PreferenceStore: stores.PreferenceStore,
		Directory:       directory,
	})
}

// handleIndex renders the schedule page.
func handleIndex(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	schedule, err := loadSchedule(r)
	if err != nil {
		internalError(w, err)
		return
	}
	members, err := projections.QueryGetMembers(ctx, projections.GetMembersDeps{
		Directory:    directory,
		AccountStore: stores.AccountStore,
	})
	if err != nil {
		internalError(w, err)
		return
	}
	lists, err := stores.SettingsStore.Lists(ctx)
	if err != nil {
		internalError(w, err)
		return
	}
	hook, err := stores.SettingsStore.Webhook(ctx)
	if err != nil {
		internalError(w, err)
		return
	}
	prefs, err := stores.PreferenceStore.All(ctx)
	if err != nil {
		internalError(w, err)
		return
	}

	renderTemplate(w, r, "layout", map[string]any{
		"Schedule":          schedule,
		"Members":           members,
		"Lists":             lists,
		"WebhookConfigured": hook.Configured(),
		"PerPageOptions":    listutil.PerPageOptions,
		"MyPreference":      preference.Resolve(prefs, actorFrom(r).LinkedPlayerID),
	}, "layout.html", "index.html", "games.html")
}

// handleGamesFragment renders just the game cards for in-page refreshes.
func handleGamesFragment(w http.ResponseWriter, r *http.Request) {
	schedule, err := loadSchedule(r)
	if err != nil {
		internalError(w, err)
		return
	}
	renderTemplate(w, r, "games", schedule, "games.html")
}

// handleHealthz reports liveness and database reachability.
func handleHealthz(w http.ResponseWriter, r *http.Request) {
	if dbPinger != nil {
		if err := dbPinger.PingContext(r.Context()); err != nil {
			slog.Error("healthz_db_unreachable", "error", err.Error())
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
