package web

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	_ "modernc.org/sqlite"

	"warteam/internal/adapters/http/perf"
	"warteam/internal/adapters/storage"
	accountStore "warteam/internal/adapters/storage/account"
	gameStore "warteam/internal/adapters/storage/game"
	memberStore "warteam/internal/adapters/storage/member"
	outboxStore "warteam/internal/adapters/storage/outbox"
	preferenceStore "warteam/internal/adapters/storage/preference"
	settingsStore "warteam/internal/adapters/storage/settings"
	"warteam/internal/application/orchestrators"
	"warteam/internal/domain/member"
)

var fixedNow = time.Date(2025, 2, 28, 18, 0, 0, 0, time.UTC)

const (
	managerUsername = "captain"
	managerPassword = "correct-horse-battery"
	playerPassword  = "another-long-password"
)

// fakePoster records webhook posts instead of calling Discord.
type fakePoster struct {
	mu    sync.Mutex
	urls  []string
	posts []*discordgo.WebhookParams
	err   error
}

// Post implements orchestrators.WebhookPoster.
func (f *fakePoster) Post(_ context.Context, url string, params *discordgo.WebhookParams) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.urls = append(f.urls, url)
	f.posts = append(f.posts, params)
	return nil
}

func (f *fakePoster) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.posts)
}

type testEnv struct {
	handler http.Handler
	hub     *Hub
	stores  *Stores
	poster  *fakePoster
	db      *sql.DB
}

func testMembers() []member.Member {
	return []member.Member{
		{ID: "alpha", Name: "Alpha", Year: 2024, SortOrder: 1, DiscordID: "111", Email: "alpha@example.com"},
		{ID: "bravo", Name: "Bravo", Year: 2024, SortOrder: 2},
		{ID: "charlie", Name: "Charlie", Year: 2025, SortOrder: 3},
		{ID: "sierra", Name: "Sierra", Year: 2025, SortOrder: 4, IsSub: true},
	}
}

// newTestEnv wires the full handler stack over an in-memory database.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	if err := storage.MigrateDB(db, ":memory:"); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	s := &Stores{
		GameStore:       gameStore.NewSQLiteStore(db),
		MemberStore:     memberStore.NewSQLiteStore(db),
		AccountStore:    accountStore.NewSQLiteStore(db),
		PreferenceStore: preferenceStore.NewSQLiteStore(db),
		SettingsStore:   settingsStore.NewSQLiteStore(db),
		OutboxStore:     outboxStore.NewSQLiteStore(db),
	}
	ctx := context.Background()
	dir, err := orchestrators.ExecuteSeedMembers(ctx, orchestrators.SeedMembersDeps{
		MemberStore: s.MemberStore,
		Seed:        func() ([]member.Member, error) { return testMembers(), nil },
	})
	if err != nil {
		t.Fatalf("seed members: %v", err)
	}
	if err := orchestrators.ExecuteSeedManager(ctx, orchestrators.SeedManagerInput{
		Username: managerUsername,
		Password: managerPassword,
	}, orchestrators.RegisterDeps{AccountStore: s.AccountStore, GenerateID: generateID, Now: time.Now}); err != nil {
		t.Fatalf("seed manager: %v", err)
	}

	origNow, origLimit := timeNow, RateLimitPerSecond
	timeNow = func() time.Time { return fixedNow }
	RateLimitPerSecond = 10000
	t.Cleanup(func() { timeNow, RateLimitPerSecond = origNow, origLimit })

	poster := &fakePoster{}
	processor := orchestrators.NewOutboxProcessor(s.OutboxStore, map[string]orchestrators.ActionExecutor{}, time.Now)
	handler, hub := NewMux(s, Options{
		Directory: dir,
		Poster:    poster,
		Outbox:    processor,
		Collector: perf.NewCollector(100),
		DB:        db,
		CSRFKey:   bytes.Repeat([]byte("k"), 32),
	})
	t.Cleanup(hub.Close)

	return &testEnv{handler: handler, hub: hub, stores: s, poster: poster, db: db}
}

// do sends a JSON request, optionally carrying a session cookie.
func (e *testEnv) do(t *testing.T, method, path string, body any, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if method != http.MethodGet {
		req.Header.Set("Content-Type", "application/json")
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

// login returns the session cookie for the given credentials.
func (e *testEnv) login(t *testing.T, username, password string) *http.Cookie {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/auth/login", credentials{Username: username, Password: password}, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("login %s: status %d body %s", username, rec.Code, rec.Body.String())
	}
	return sessionCookie(t, rec)
}

func (e *testEnv) managerCookie(t *testing.T) *http.Cookie {
	t.Helper()
	return e.login(t, managerUsername, managerPassword)
}

// playerCookie registers username and links it to playerID.
func (e *testEnv) playerCookie(t *testing.T, username, playerID string) *http.Cookie {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/auth/register", credentials{Username: username, Password: playerPassword}, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("register %s: status %d body %s", username, rec.Code, rec.Body.String())
	}
	cookie := sessionCookie(t, rec)
	if playerID != "" {
		rec = e.do(t, http.MethodPost, "/auth/link", map[string]string{"playerId": playerID}, cookie)
		if rec.Code != http.StatusOK {
			t.Fatalf("link %s: status %d body %s", playerID, rec.Code, rec.Body.String())
		}
	}
	return cookie
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == "warteam_session" && c.Value != "" {
			return c
		}
	}
	t.Fatal("no session cookie set")
	return nil
}

// createGame creates a game as the manager and returns its id.
func (e *testEnv) createGame(t *testing.T, cookie *http.Cookie, date, opponent string) string {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/api/games", map[string]any{
		"date": date, "time": "20:00", "opponent": opponent, "league": "Pop1",
	}, cookie)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create game: status %d body %s", rec.Code, rec.Body.String())
	}
	var g struct {
		ID string `json:"id"`
	}
	decodeBody(t, rec, &g)
	return g.ID
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
}

func assertStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("status = %d, want %d; body %s", rec.Code, want, rec.Body.String())
	}
}

func assertError(t *testing.T, rec *httptest.ResponseRecorder, status int, msg string) {
	t.Helper()
	assertStatus(t, rec, status)
	var body errorBody
	decodeBody(t, rec, &body)
	if body.Error != msg {
		t.Errorf("error = %q, want %q", body.Error, msg)
	}
}
