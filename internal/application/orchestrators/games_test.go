package orchestrators

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"
	"time"

	"warteam/internal/domain/apperr"
	"warteam/internal/domain/game"
	"warteam/internal/domain/outbox"
	"warteam/internal/domain/preference"
)

func createDeps(store *mockGameStore) CreateGameDeps {
	return CreateGameDeps{
		GameStore:  store,
		GenerateID: func(time.Time) string { return "game_1" },
		Now:        testNow,
	}
}

func playerDeps(store *mockGameStore) PlayerActionDeps {
	return PlayerActionDeps{GameStore: store, Now: testNow}
}

func seededGame(t *testing.T) *mockGameStore {
	t.Helper()
	store := newMockGameStore()
	_, err := ExecuteCreateGame(context.Background(), CreateGameInput{Date: "2025-03-01", Time: "20:00", Opponent: "Team X"}, createDeps(store))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	return store
}

// TestExecuteCreateGame_HappyPath tests defaults and empty collections.
func TestExecuteCreateGame_HappyPath(t *testing.T) {
	store := newMockGameStore()
	g, err := ExecuteCreateGame(context.Background(), CreateGameInput{Date: "2025-03-01", Time: "20:00", Opponent: " Team X "}, createDeps(store))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if g.ID != "game_1" || g.Opponent != "Team X" {
		t.Errorf("game = %+v", g)
	}
	if g.GameMode != game.DefaultGameMode || g.TeamSize != game.DefaultTeamSize {
		t.Errorf("defaults not applied: %q %d", g.GameMode, g.TeamSize)
	}
	if g.Available.Len()+g.Unavailable.Len()+g.Roster.Len()+g.Subs.Len()+g.Withdrawals.Len() != 0 {
		t.Error("expected empty player sets")
	}
	if !g.CreatedAt.Equal(fixedNow) {
		t.Errorf("CreatedAt = %v", g.CreatedAt)
	}
	if store.saves != 1 {
		t.Errorf("saves = %d, want 1", store.saves)
	}
}

// TestExecuteCreateGame_MissingFields tests each required field.
func TestExecuteCreateGame_MissingFields(t *testing.T) {
	tests := []CreateGameInput{
		{Time: "20:00", Opponent: "X"},
		{Date: "2025-03-01", Opponent: "X"},
		{Date: "2025-03-01", Time: "20:00", Opponent: "   "},
	}
	for _, in := range tests {
		store := newMockGameStore()
		_, err := ExecuteCreateGame(context.Background(), in, createDeps(store))
		if !errors.Is(err, game.ErrMissingFields) {
			t.Errorf("%+v: got %v, want ErrMissingFields", in, err)
		}
		if store.saves != 0 {
			t.Errorf("%+v: store written", in)
		}
	}
}

// TestExecuteUpdateGame tests patch semantics.
func TestExecuteUpdateGame(t *testing.T) {
	store := seededGame(t)
	ctx := context.Background()
	deps := UpdateGameDeps{GameStore: store, Now: testNow}

	notes := "Bring **subs**"
	g, err := ExecuteUpdateGame(ctx, UpdateGameInput{GameID: "game_1", Patch: game.Patch{Notes: &notes}}, deps)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if g.Notes != notes || g.Opponent != "Team X" {
		t.Errorf("got %+v", g)
	}

	empty := ""
	_, err = ExecuteUpdateGame(ctx, UpdateGameInput{GameID: "game_1", Patch: game.Patch{Opponent: &empty}}, deps)
	if apperr.KindOf(err) != apperr.KindValidation {
		t.Errorf("clearing opponent: got %v, want validation error", err)
	}
	stored, _ := store.GetByID(ctx, "game_1")
	if stored.Opponent != "Team X" {
		t.Errorf("failed update changed the store: %q", stored.Opponent)
	}

	if _, err := ExecuteUpdateGame(ctx, UpdateGameInput{GameID: "nope"}, deps); !errors.Is(err, game.ErrNotFound) {
		t.Errorf("missing game: got %v", err)
	}
}

// TestExecuteDeleteGame_NotFound tests the store is unchanged on a miss.
func TestExecuteDeleteGame_NotFound(t *testing.T) {
	store := seededGame(t)
	ctx := context.Background()

	if err := ExecuteDeleteGame(ctx, "nope", DeleteGameDeps{GameStore: store}); !errors.Is(err, game.ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
	if n, _ := store.Count(ctx); n != 1 {
		t.Errorf("count = %d, want 1", n)
	}
	if err := ExecuteDeleteGame(ctx, "game_1", DeleteGameDeps{GameStore: store}); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if n, _ := store.Count(ctx); n != 0 {
		t.Errorf("count = %d, want 0", n)
	}
}

// TestExecuteDeleteGame_AbandonsReminders tests that queued reminders die with the game.
func TestExecuteDeleteGame_AbandonsReminders(t *testing.T) {
	store := seededGame(t)
	box := newMockOutboxStore()
	ctx := context.Background()
	for _, e := range []outbox.Entry{
		{ID: "ob-1", GameID: "game_1", ActionType: outbox.ActionTypeDiscordDM, Status: outbox.StatusPending, MaxAttempts: 5},
		{ID: "ob-2", GameID: "game_1", ActionType: outbox.ActionTypeEmail, Status: outbox.StatusDone, MaxAttempts: 5},
		{ID: "ob-3", GameID: "game_2", ActionType: outbox.ActionTypeEmail, Status: outbox.StatusPending, MaxAttempts: 5},
	} {
		_ = box.Save(ctx, e)
	}

	if err := ExecuteDeleteGame(ctx, "game_1", DeleteGameDeps{GameStore: store, OutboxStore: box}); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if e := box.entries["ob-1"]; e.Status != outbox.StatusAbandoned || e.ErrorMessage != "game deleted" {
		t.Errorf("pending reminder = %+v", e)
	}
	if e := box.entries["ob-2"]; e.Status != outbox.StatusDone {
		t.Errorf("delivered reminder touched: %+v", e)
	}
	if e := box.entries["ob-3"]; e.Status != outbox.StatusPending {
		t.Errorf("other game's reminder touched: %+v", e)
	}
}

// TestExecuteSetAvailability_Toggle tests the available/unavailable example.
func TestExecuteSetAvailability_Toggle(t *testing.T) {
	store := seededGame(t)
	ctx := context.Background()

	g, err := ExecuteSetAvailability(ctx, SetAvailabilityInput{GameID: "game_1", PlayerID: "alock", IsAvailable: true}, playerDeps(store))
	if err != nil {
		t.Fatalf("set: %v", err)
	}
	if !slices.Equal(g.Available.IDs(), []string{"alock"}) {
		t.Errorf("available = %v", g.Available.IDs())
	}

	g, err = ExecuteSetAvailability(ctx, SetAvailabilityInput{GameID: "game_1", PlayerID: "alock", IsAvailable: false}, playerDeps(store))
	if err != nil {
		t.Fatalf("set: %v", err)
	}
	if g.Available.Len() != 0 || !slices.Equal(g.Unavailable.IDs(), []string{"alock"}) {
		t.Errorf("available=%v unavailable=%v", g.Available.IDs(), g.Unavailable.IDs())
	}
}

// TestExecuteSetAvailability_Errors tests validation, ownership and missing games.
func TestExecuteSetAvailability_Errors(t *testing.T) {
	store := seededGame(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		input SetAvailabilityInput
		want  error
	}{
		{"missing player", SetAvailabilityInput{GameID: "game_1"}, game.ErrPlayerIDRequired},
		{"other player", SetAvailabilityInput{GameID: "game_1", PlayerID: "kc", Actor: Actor{LinkedPlayerID: "alock"}}, ErrNotOwnAvailability},
		{"manager linked to other player", SetAvailabilityInput{GameID: "game_1", PlayerID: "kc", Actor: Actor{LinkedPlayerID: "alock", IsManager: true}}, ErrNotOwnAvailability},
		{"missing game", SetAvailabilityInput{GameID: "nope", PlayerID: "kc"}, game.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ExecuteSetAvailability(ctx, tt.input, playerDeps(store))
			if !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
		})
	}

	// Linked to the same player is allowed.
	in := SetAvailabilityInput{GameID: "game_1", PlayerID: "alock", IsAvailable: true, Actor: Actor{LinkedPlayerID: "alock"}}
	if _, err := ExecuteSetAvailability(ctx, in, playerDeps(store)); err != nil {
		t.Errorf("own availability: %v", err)
	}
}

// TestExecuteSetAvailability_Concurrent tests that concurrent updates are not lost.
func TestExecuteSetAvailability_Concurrent(t *testing.T) {
	store := seededGame(t)
	ctx := context.Background()
	players := []string{"a", "b", "c", "d", "e", "f", "g", "h"}

	var wg sync.WaitGroup
	for _, p := range players {
		wg.Add(1)
		go func(p string) {
			defer wg.Done()
			if _, err := ExecuteSetAvailability(ctx, SetAvailabilityInput{GameID: "game_1", PlayerID: p, IsAvailable: true}, playerDeps(store)); err != nil {
				t.Errorf("set %s: %v", p, err)
			}
		}(p)
	}
	wg.Wait()

	g, _ := store.GetByID(ctx, "game_1")
	if g.Available.Len() != len(players) {
		t.Errorf("available = %v, want all %d players", g.Available.IDs(), len(players))
	}
}

// TestExecuteUpdateRoster tests wholesale replacement and withdrawal cleanup.
func TestExecuteUpdateRoster(t *testing.T) {
	store := seededGame(t)
	ctx := context.Background()

	g, err := ExecuteUpdateRoster(ctx, UpdateRosterInput{GameID: "game_1", Roster: []string{"a", "b"}, Subs: []string{"c"}}, playerDeps(store))
	if err != nil {
		t.Fatalf("roster: %v", err)
	}
	if _, err := ExecuteWithdraw(ctx, WithdrawInput{GameID: "game_1", PlayerID: "b"}, playerDeps(store)); err != nil {
		t.Fatalf("withdraw: %v", err)
	}

	g, err = ExecuteUpdateRoster(ctx, UpdateRosterInput{GameID: "game_1", Roster: []string{"b", "a", "b"}, Subs: []string{"a", "d"}}, playerDeps(store))
	if err != nil {
		t.Fatalf("roster: %v", err)
	}
	read, _ := store.GetByID(ctx, "game_1")
	if !slices.Equal(read.Roster.IDs(), []string{"b", "a"}) || !slices.Equal(read.Subs.IDs(), []string{"d"}) {
		t.Errorf("roster=%v subs=%v", read.Roster.IDs(), read.Subs.IDs())
	}
	if g.Withdrawals.Contains("b") {
		t.Error("re-rostered player should leave withdrawals")
	}

	if _, err := ExecuteUpdateRoster(ctx, UpdateRosterInput{GameID: "nope"}, playerDeps(store)); !errors.Is(err, game.ErrNotFound) {
		t.Errorf("missing game: got %v", err)
	}
}

// TestExecuteWithdraw tests selection and ownership rules.
func TestExecuteWithdraw(t *testing.T) {
	store := seededGame(t)
	ctx := context.Background()
	if _, err := ExecuteSetAvailability(ctx, SetAvailabilityInput{GameID: "game_1", PlayerID: "a", IsAvailable: true}, playerDeps(store)); err != nil {
		t.Fatal(err)
	}
	if _, err := ExecuteUpdateRoster(ctx, UpdateRosterInput{GameID: "game_1", Roster: []string{"a"}, Subs: []string{"s"}}, playerDeps(store)); err != nil {
		t.Fatal(err)
	}

	if _, err := ExecuteWithdraw(ctx, WithdrawInput{GameID: "game_1", PlayerID: "a", Actor: Actor{LinkedPlayerID: "s"}}, playerDeps(store)); !errors.Is(err, ErrNotOwnWithdrawal) {
		t.Errorf("other player: got %v", err)
	}
	if _, err := ExecuteWithdraw(ctx, WithdrawInput{GameID: "game_1", PlayerID: "zz"}, playerDeps(store)); !errors.Is(err, game.ErrPlayerNotSelected) {
		t.Errorf("unselected: got %v", err)
	}

	g, err := ExecuteWithdraw(ctx, WithdrawInput{GameID: "game_1", PlayerID: "a", Actor: Actor{LinkedPlayerID: "a"}}, playerDeps(store))
	if err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	if g.Roster.Contains("a") || !g.Withdrawals.Contains("a") || !g.Available.Contains("a") {
		t.Errorf("roster=%v withdrawals=%v available=%v", g.Roster.IDs(), g.Withdrawals.IDs(), g.Available.IDs())
	}

	g, err = ExecuteWithdraw(ctx, WithdrawInput{GameID: "game_1", PlayerID: "s", Actor: Actor{LinkedPlayerID: "x", IsManager: true}}, playerDeps(store))
	if err != nil {
		t.Fatalf("manager withdraw: %v", err)
	}
	if g.Subs.Contains("s") || !g.Withdrawals.Contains("s") {
		t.Errorf("subs=%v withdrawals=%v", g.Subs.IDs(), g.Withdrawals.IDs())
	}
}

// TestExecuteSetPreference tests validation and ownership.
func TestExecuteSetPreference(t *testing.T) {
	store := &mockPreferenceStore{}
	ctx := context.Background()
	deps := SetPreferenceDeps{PreferenceStore: store}

	if _, err := ExecuteSetPreference(ctx, SetPreferenceInput{PlayerID: "a", Preference: "bench"}, deps); !errors.Is(err, preference.ErrInvalid) {
		t.Errorf("invalid value: got %v", err)
	}
	if _, err := ExecuteSetPreference(ctx, SetPreferenceInput{PlayerID: "a", Preference: "sub", Actor: Actor{LinkedPlayerID: "b"}}, deps); !errors.Is(err, ErrNotOwnPreference) {
		t.Errorf("other player: got %v", err)
	}
	p, err := ExecuteSetPreference(ctx, SetPreferenceInput{PlayerID: "a", Preference: "sub"}, deps)
	if err != nil {
		t.Fatalf("set: %v", err)
	}
	if p.Value != preference.Sub || store.prefs["a"] != preference.Sub {
		t.Errorf("got %+v, stored %v", p, store.prefs)
	}
}
