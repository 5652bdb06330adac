package game

import (
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"

	"warteam/internal/domain/apperr"
)

// Defaults applied to new games.
const (
	DefaultGameMode = "War"
	DefaultTeamSize = 10
)

// Layouts for the stored date and time strings.
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// Domain errors
var (
	ErrMissingFields     = apperr.Validation("Missing required fields")
	ErrPlayerIDRequired  = apperr.Validation("Player ID required")
	ErrNotFound          = apperr.NotFound("Game not found")
	ErrPlayerNotSelected = apperr.NotFound("Player is not on the roster or subs")
	ErrInvalidTeamSize   = apperr.Validation("Team size must be positive")
)

// Game is a scheduled match with its availability and roster sets.
// INVARIANT: a player id is in at most one of {Available, Unavailable}
// INVARIANT: a player id is in at most one of {Roster, Subs, Withdrawals}
type Game struct {
	ID          string    `json:"id"`
	Date        string    `json:"date"` // YYYY-MM-DD
	Time        string    `json:"time"` // HH:MM, Eastern
	Opponent    string    `json:"opponent"`
	Notes       string    `json:"notes"` // Markdown
	League      string    `json:"league,omitempty"`
	Division    string    `json:"division,omitempty"`
	GameMode    string    `json:"gameMode"`
	TeamSize    int       `json:"teamSize"`
	Available   PlayerSet `json:"available"`
	Unavailable PlayerSet `json:"unavailable"`
	Roster      PlayerSet `json:"roster"`
	Subs        PlayerSet `json:"subs"`
	Withdrawals PlayerSet `json:"withdrawals"`
	Reminded    bool      `json:"reminded"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Patch carries a partial update. Nil fields are left unchanged.
type Patch struct {
	Date     *string `json:"date"`
	Time     *string `json:"time"`
	Opponent *string `json:"opponent"`
	Notes    *string `json:"notes"`
	League   *string `json:"league"`
	Division *string `json:"division"`
	GameMode *string `json:"gameMode"`
	TeamSize *int    `json:"teamSize"`
	Reminded *bool   `json:"reminded"`
}

// NewID returns an id of the form game_<unix-ms>_<9 base36 chars>.
func NewID(now time.Time) string {
	const chars = "abcdefghijklmnopqrstuvwxyz0123456789"
	suffix := make([]byte, 9)
	for i := range suffix {
		suffix[i] = chars[rand.IntN(len(chars))]
	}
	return fmt.Sprintf("game_%d_%s", now.UnixMilli(), suffix)
}

// Validate checks the presence of the required fields.
// PRE: Game struct is populated
// POST: Returns nil if valid, ErrMissingFields otherwise
func (g *Game) Validate() error {
	if strings.TrimSpace(g.Date) == "" || strings.TrimSpace(g.Time) == "" || strings.TrimSpace(g.Opponent) == "" {
		return ErrMissingFields
	}
	if g.TeamSize < 0 {
		return ErrInvalidTeamSize
	}
	return nil
}

// ApplyDefaults fills the game mode and team size when unset.
// POST: GameMode and TeamSize are non-zero
func (g *Game) ApplyDefaults() {
	if g.GameMode == "" {
		g.GameMode = DefaultGameMode
	}
	if g.TeamSize == 0 {
		g.TeamSize = DefaultTeamSize
	}
}

// Apply merges the non-nil fields of p into the game.
// PRE: none
// POST: on success the game is valid; on error the game is unchanged
func (g *Game) Apply(p Patch) error {
	next := *g
	if p.Date != nil {
		next.Date = *p.Date
	}
	if p.Time != nil {
		next.Time = *p.Time
	}
	if p.Opponent != nil {
		next.Opponent = *p.Opponent
	}
	if p.Notes != nil {
		next.Notes = *p.Notes
	}
	if p.League != nil {
		next.League = *p.League
	}
	if p.Division != nil {
		next.Division = *p.Division
	}
	if p.GameMode != nil {
		next.GameMode = *p.GameMode
	}
	if p.TeamSize != nil {
		next.TeamSize = *p.TeamSize
	}
	if p.Reminded != nil {
		next.Reminded = *p.Reminded
	}
	if err := next.Validate(); err != nil {
		return err
	}
	next.ApplyDefaults()
	*g = next
	return nil
}

// SetAvailability records whether a player can play.
// PRE: playerID is non-empty
// POST: playerID is in exactly one of Available/Unavailable, matching isAvailable
// INVARIANT: Roster, Subs and Withdrawals are untouched
func (g *Game) SetAvailability(playerID string, isAvailable bool) error {
	if playerID == "" {
		return ErrPlayerIDRequired
	}
	g.Available.Remove(playerID)
	g.Unavailable.Remove(playerID)
	if isAvailable {
		g.Available.Add(playerID)
	} else {
		g.Unavailable.Add(playerID)
	}
	return nil
}

// SetRoster replaces the roster and subs wholesale. A player submitted in
// both lists stays on the roster only. Selected players leave Withdrawals.
// PRE: none
// POST: Roster and Subs are the distinct submitted ids, disjoint
func (g *Game) SetRoster(roster, subs []string) {
	g.Roster = NewPlayerSet(roster...)
	var s PlayerSet
	for _, id := range subs {
		if !g.Roster.Contains(id) {
			s.Add(id)
		}
	}
	g.Subs = s
	for _, id := range g.Roster.IDs() {
		g.Withdrawals.Remove(id)
	}
	for _, id := range g.Subs.IDs() {
		g.Withdrawals.Remove(id)
	}
}

// Withdraw takes a selected player off the roster (or subs) and records the withdrawal.
// PRE: playerID is non-empty and selected
// POST: playerID is in Withdrawals and in neither Roster nor Subs
// INVARIANT: Available and Unavailable are untouched
func (g *Game) Withdraw(playerID string) error {
	if playerID == "" {
		return ErrPlayerIDRequired
	}
	fromRoster := g.Roster.Remove(playerID)
	fromSubs := g.Subs.Remove(playerID)
	if !fromRoster && !fromSubs {
		return ErrPlayerNotSelected
	}
	g.Withdrawals.Add(playerID)
	return nil
}

// IsDueForReminder reports whether rostered players should be reminded at now.
// A game is due on the day before its date, once, and only with a roster.
func (g *Game) IsDueForReminder(now time.Time) bool {
	tomorrow := now.AddDate(0, 0, 1).Format(DateLayout)
	return g.Date == tomorrow && !g.Reminded && g.Roster.Len() > 0
}

// DisplayDate formats the date as "Monday, Jan 02, 2006", or returns it raw if unparseable.
func (g *Game) DisplayDate() string {
	t, err := time.Parse(DateLayout, g.Date)
	if err != nil {
		return g.Date
	}
	return t.Format("Monday, Jan 02, 2006")
}

// DisplayTime formats the time as "h:MM AM ET", or returns it raw if unparseable.
func (g *Game) DisplayTime() string {
	parts := strings.Split(g.Time, ":")
	if len(parts) < 2 {
		return g.Time
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil {
		return g.Time
	}
	ampm := "AM"
	if hour >= 12 {
		ampm = "PM"
	}
	hour12 := hour % 12
	if hour12 == 0 {
		hour12 = 12
	}
	return fmt.Sprintf("%d:%s %s ET", hour12, parts[1], ampm)
}

// ReminderWhen formats the start as "Monday, January 2 at 3:04 PM" for reminder messages.
func (g *Game) ReminderWhen() string {
	t, err := time.Parse(DateLayout+" "+TimeLayout, g.Date+" "+g.Time)
	if err != nil {
		return g.Date + " " + g.Time
	}
	return t.Format("Monday, January 2 at 3:04 PM")
}

// RosterCapacity returns the roster target, falling back to the default team size.
func (g *Game) RosterCapacity() int {
	if g.TeamSize <= 0 {
		return DefaultTeamSize
	}
	return g.TeamSize
}

// Normalize restores the set invariants on data loaded from outside,
// such as an imported document. Earlier sets win: Available over
// Unavailable, Roster over Subs over Withdrawals.
// POST: the game satisfies both set invariants and has defaults applied
func (g *Game) Normalize() {
	g.ApplyDefaults()
	for _, id := range g.Available.IDs() {
		g.Unavailable.Remove(id)
	}
	for _, id := range g.Roster.IDs() {
		g.Subs.Remove(id)
		g.Withdrawals.Remove(id)
	}
	for _, id := range g.Subs.IDs() {
		g.Withdrawals.Remove(id)
	}
}
