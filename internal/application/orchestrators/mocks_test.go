package orchestrators

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	"warteam/internal/domain/account"
	"warteam/internal/domain/game"
	"warteam/internal/domain/member"
	"warteam/internal/domain/outbox"
	"warteam/internal/domain/settings"
)

var fixedNow = time.Date(2025, 2, 28, 18, 0, 0, 0, time.UTC)

func testNow() time.Time { return fixedNow }

// mockGameStore is an in-memory game store with the same Update semantics as SQLiteStore.
type mockGameStore struct {
	mu    sync.Mutex
	games map[string]game.Game
	saves int
}

func newMockGameStore(games ...game.Game) *mockGameStore {
	s := &mockGameStore{games: map[string]game.Game{}}
	for _, g := range games {
		s.games[g.ID] = g
	}
	return s
}

func (m *mockGameStore) GetByID(_ context.Context, id string) (game.Game, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.games[id]
	if !ok {
		return game.Game{}, game.ErrNotFound
	}
	return g, nil
}

func (m *mockGameStore) List(_ context.Context) ([]game.Game, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]game.Game, 0, len(m.games))
	for _, g := range m.games {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *mockGameStore) Save(_ context.Context, g game.Game) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.games[g.ID] = g
	m.saves++
	return nil
}

func (m *mockGameStore) SaveAll(ctx context.Context, games []game.Game) error {
	for _, g := range games {
		if err := m.Save(ctx, g); err != nil {
			return err
		}
	}
	return nil
}

func (m *mockGameStore) Update(_ context.Context, id string, fn func(*game.Game) error) (game.Game, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.games[id]
	if !ok {
		return game.Game{}, game.ErrNotFound
	}
	if err := fn(&g); err != nil {
		return game.Game{}, err
	}
	m.games[id] = g
	m.saves++
	return g, nil
}

func (m *mockGameStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.games[id]; !ok {
		return game.ErrNotFound
	}
	delete(m.games, id)
	return nil
}

func (m *mockGameStore) Count(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.games), nil
}

// mockPreferenceStore records preferences in a map.
type mockPreferenceStore struct {
	prefs map[string]string
}

func (m *mockPreferenceStore) Set(_ context.Context, playerID, value string) error {
	if m.prefs == nil {
		m.prefs = map[string]string{}
	}
	m.prefs[playerID] = value
	return nil
}

func (m *mockPreferenceStore) SetAll(ctx context.Context, prefs map[string]string) error {
	for k, v := range prefs {
		_ = m.Set(ctx, k, v)
	}
	return nil
}

// mockSettingsStore holds the webhook and lists.
type mockSettingsStore struct {
	webhook settings.Webhook
	lists   settings.Lists
}

func (m *mockSettingsStore) Webhook(_ context.Context) (settings.Webhook, error) {
	return m.webhook, nil
}

func (m *mockSettingsStore) SetWebhook(_ context.Context, w settings.Webhook) error {
	m.webhook = w
	return nil
}

func (m *mockSettingsStore) SetLists(_ context.Context, l settings.Lists) error {
	m.lists = l
	return nil
}

// mockMemberStore is an in-memory member store.
type mockMemberStore struct {
	members map[string]member.Member
}

func newMockMemberStore() *mockMemberStore {
	return &mockMemberStore{members: map[string]member.Member{}}
}

func (m *mockMemberStore) Save(_ context.Context, mem member.Member) error {
	m.members[mem.ID] = mem
	return nil
}

func (m *mockMemberStore) SaveAll(ctx context.Context, members []member.Member) error {
	for _, mem := range members {
		_ = m.Save(ctx, mem)
	}
	return nil
}

func (m *mockMemberStore) Delete(_ context.Context, id string) error {
	if _, ok := m.members[id]; !ok {
		return member.ErrNotFound
	}
	delete(m.members, id)
	return nil
}

func (m *mockMemberStore) Count(_ context.Context) (int, error) {
	return len(m.members), nil
}

func (m *mockMemberStore) List(_ context.Context) ([]member.Member, error) {
	out := make([]member.Member, 0, len(m.members))
	for _, mem := range m.members {
		out = append(out, mem)
	}
	return out, nil
}

// mockAccountStore is an in-memory account store enforcing the unique indexes.
type mockAccountStore struct {
	accounts map[string]account.Account
	saves    int
}

func newMockAccountStore(accts ...account.Account) *mockAccountStore {
	m := &mockAccountStore{accounts: map[string]account.Account{}}
	for _, a := range accts {
		m.accounts[a.ID] = a
	}
	return m
}

func (m *mockAccountStore) GetByID(_ context.Context, id string) (account.Account, error) {
	a, ok := m.accounts[id]
	if !ok {
		return account.Account{}, account.ErrNotFound
	}
	return a, nil
}

func (m *mockAccountStore) GetByUsername(_ context.Context, username string) (account.Account, error) {
	for _, a := range m.accounts {
		if a.Username == account.NormalizeUsername(username) {
			return a, nil
		}
	}
	return account.Account{}, account.ErrNotFound
}

func (m *mockAccountStore) GetByPlayerID(_ context.Context, playerID string) (account.Account, error) {
	for _, a := range m.accounts {
		if a.PlayerID == playerID {
			return a, nil
		}
	}
	return account.Account{}, account.ErrNotFound
}

func (m *mockAccountStore) Save(_ context.Context, a account.Account) error {
	m.accounts[a.ID] = a
	m.saves++
	return nil
}

// mockOutboxStore is an in-memory outbox store.
type mockOutboxStore struct {
	entries map[string]outbox.Entry
	order   []string
}

func newMockOutboxStore() *mockOutboxStore {
	return &mockOutboxStore{entries: map[string]outbox.Entry{}}
}

func (m *mockOutboxStore) GetByID(_ context.Context, id string) (outbox.Entry, error) {
	e, ok := m.entries[id]
	if !ok {
		return outbox.Entry{}, context.Canceled // simulate not found
	}
	return e, nil
}

func (m *mockOutboxStore) Save(_ context.Context, e outbox.Entry) error {
	if _, ok := m.entries[e.ID]; !ok {
		m.order = append(m.order, e.ID)
	}
	m.entries[e.ID] = e
	return nil
}

func (m *mockOutboxStore) list(keep func(outbox.Entry) bool, limit int) []outbox.Entry {
	out := []outbox.Entry{}
	for _, id := range m.order {
		if e, ok := m.entries[id]; ok && keep(e) && (limit <= 0 || len(out) < limit) {
			out = append(out, e)
		}
	}
	return out
}

func (m *mockOutboxStore) ListPending(_ context.Context, limit int) ([]outbox.Entry, error) {
	return m.list(func(e outbox.Entry) bool {
		return e.Status == outbox.StatusPending || e.Status == outbox.StatusRetrying
	}, limit), nil
}

func (m *mockOutboxStore) ListFailed(_ context.Context, limit int) ([]outbox.Entry, error) {
	return m.list(func(e outbox.Entry) bool { return e.Status == outbox.StatusFailed }, limit), nil
}

func (m *mockOutboxStore) ListByGame(_ context.Context, gameID string) ([]outbox.Entry, error) {
	return m.list(func(e outbox.Entry) bool { return e.GameID == gameID }, 0), nil
}

func (m *mockOutboxStore) PurgeFinished(_ context.Context, cutoff time.Time) (int64, error) {
	var n int64
	for id, e := range m.entries {
		if (e.Status == outbox.StatusDone || e.Status == outbox.StatusAbandoned) && e.CreatedAt.Before(cutoff) {
			delete(m.entries, id)
			n++
		}
	}
	return n, nil
}

func sequentialIDs(prefix string) func() string {
	n := 0
	return func() string {
		n++
		return prefix + strconv.Itoa(n)
	}
}
