package web

import (
	"context"
	"embed"
	"io/fs"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"warteam/internal/adapters/http/middleware"
	"warteam/internal/adapters/http/perf"
	accountStore "warteam/internal/adapters/storage/account"
	gameStore "warteam/internal/adapters/storage/game"
	memberStore "warteam/internal/adapters/storage/member"
	outboxStore "warteam/internal/adapters/storage/outbox"
	preferenceStore "warteam/internal/adapters/storage/preference"
	settingsStore "warteam/internal/adapters/storage/settings"
	"warteam/internal/application/orchestrators"
	"warteam/internal/domain/member"
)

//go:embed templates static
var assets embed.FS

// Stores holds all storage dependencies.
type Stores struct {
	GameStore       gameStore.Store
	MemberStore     memberStore.Store
	AccountStore    accountStore.Store
	PreferenceStore preferenceStore.Store
	SettingsStore   settingsStore.Store
	OutboxStore     outboxStore.Store
}

// Pinger reports database health.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Options carries the collaborators NewMux wires into the handlers.
type Options struct {
	Directory      *member.Directory
	Poster         orchestrators.WebhookPoster
	Outbox         *orchestrators.OutboxProcessor
	Collector      *perf.Collector
	SlowRequest    time.Duration           // zero uses middleware.DefaultSlowRequest
	Limiter        *middleware.RateLimiter // nil gets a fresh limiter at RateLimitPerSecond
	DB             Pinger
	Location       *time.Location // team time zone for "today"
	CSRFKey        []byte         // 32 bytes
	SecureCookies  bool
	TrustedOrigins []string
}

// Global stores instance (set by NewMux)
var stores *Stores

// Global session store instance
var sessions *middleware.SessionStore

// Collaborators set by NewMux
var (
	directory       *member.Directory
	webhookPoster   orchestrators.WebhookPoster
	outboxProcessor *orchestrators.OutboxProcessor
	perfCollector   *perf.Collector
	dbPinger        Pinger
	teamLocation    = time.UTC
	hub             *Hub
)

// RateLimitPerSecond controls the per-IP rate limit. Tests can increase this.
var RateLimitPerSecond = 20

// NewMux wires HTTP handlers for the app and returns the handler plus the
// websocket hub, which the caller closes on shutdown.
func NewMux(s *Stores, opts Options) (http.Handler, *Hub) {
	stores = s
	directory = opts.Directory
	webhookPoster = opts.Poster
	outboxProcessor = opts.Outbox
	perfCollector = opts.Collector
	dbPinger = opts.DB
	if opts.Location != nil {
		teamLocation = opts.Location
	}
	sessions = middleware.NewSessionStore()
	middleware.SecureCookies = opts.SecureCookies
	hub = NewHub()

	r := mux.NewRouter()
	registerRoutes(r)
	r.Use(middleware.Timing(opts.Collector, opts.SlowRequest))

	limiter := opts.Limiter
	if limiter == nil {
		limiter = middleware.NewRateLimiter(RateLimitPerSecond, time.Second)
	}

	// Outermost first at request time: SecurityHeaders, RateLimit, Auth, CSRF, router.
	return middleware.Chain(r,
		middleware.CSRF(opts.CSRFKey, opts.SecureCookies, opts.TrustedOrigins),
		middleware.Auth(sessions),
		middleware.RateLimit(limiter),
		middleware.SecurityHeaders,
	), hub
}

func registerRoutes(r *mux.Router) {
	static, _ := fs.Sub(assets, "static")
	r.PathPrefix("/static/").Handler(http.StripPrefix("/static/", http.FileServer(http.FS(static))))

	r.HandleFunc("/", handleIndex).Methods("GET")
	r.HandleFunc("/fragments/games", handleGamesFragment).Methods("GET")
	r.HandleFunc("/healthz", handleHealthz).Methods("GET")
	r.HandleFunc("/ws", handleWebSocket).Methods("GET")

	// Auth
	r.HandleFunc("/auth/login", handleLogin).Methods("POST")
	r.HandleFunc("/auth/register", handleRegister).Methods("POST")
	r.HandleFunc("/auth/logout", handleLogout).Methods("POST")
	r.HandleFunc("/auth/me", handleAuthMe).Methods("GET")
	r.HandleFunc("/auth/link", handleLinkPlayer).Methods("POST")
	r.HandleFunc("/auth/password", handleChangePassword).Methods("POST")

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/data", handleGetData).Methods("GET")
	api.HandleFunc("/data", handleImportData).Methods("POST")

	api.HandleFunc("/games", handleListGames).Methods("GET")
	api.HandleFunc("/games", handleCreateGame).Methods("POST")
	api.HandleFunc("/games/{id}", handleGetGame).Methods("GET")
	api.HandleFunc("/games/{id}", handleUpdateGame).Methods("PUT")
	api.HandleFunc("/games/{id}", handleDeleteGame).Methods("DELETE")
	api.HandleFunc("/games/{id}/availability", handleSetAvailability).Methods("POST")
	api.HandleFunc("/games/{id}/roster", handleUpdateRoster).Methods("PUT")
	api.HandleFunc("/games/{id}/withdraw", handleWithdraw).Methods("POST")

	api.HandleFunc("/preferences", handleGetPreferences).Methods("GET")
	api.HandleFunc("/preferences/{playerId}", handleSetPreference).Methods("PUT")

	api.HandleFunc("/webhook", handleGetWebhook).Methods("GET")
	api.HandleFunc("/webhook", handleSetWebhook).Methods("PUT")
	api.HandleFunc("/discord/post/{id}", handlePostToDiscord).Methods("POST")

	api.HandleFunc("/leagues", handleGetLists).Methods("GET")
	api.HandleFunc("/leagues", handleSetLists).Methods("PUT")

	api.HandleFunc("/members", handleGetMembers).Methods("GET")
	api.HandleFunc("/members", handleAddMember).Methods("POST")
	api.HandleFunc("/members/{id}", handleDeleteMember).Methods("DELETE")

	internal := api.PathPrefix("/internal").Subrouter()
	internal.HandleFunc("/pending-reminders", handleGetPendingReminders).Methods("GET")
	internal.HandleFunc("/mark-reminded/{id}", handleMarkReminded).Methods("POST")
	internal.HandleFunc("/user-discord/{playerId}", handleGetUserDiscordID).Methods("GET")
	internal.HandleFunc("/outbox", handleListOutbox).Methods("GET")
	internal.HandleFunc("/outbox/{id}/retry", handleRetryOutbox).Methods("POST")
	internal.HandleFunc("/outbox/{id}/abandon", handleAbandonOutbox).Methods("POST")
	internal.HandleFunc("/perf", handlePerf).Methods("GET")

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "Not found"})
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorBody{Error: "Method not allowed"})
	})
}
