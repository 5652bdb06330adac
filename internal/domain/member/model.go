package member

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"warteam/internal/domain/apperr"
)

// Max length constants for user-editable fields.
const (
	MaxNameLength = 100
	MaxIDLength   = 64
)

// Domain errors
var (
	ErrEmptyID    = apperr.Validation("member id cannot be empty")
	ErrEmptyName  = apperr.Validation("member name cannot be empty")
	ErrNameLength = apperr.Validation("member name cannot exceed 100 characters")
	ErrIDLength   = apperr.Validation("member id cannot exceed 64 characters")
	ErrIDFormat   = apperr.Validation("member id may only contain lowercase letters, digits, '-' and '_'")
	ErrNotFound   = apperr.NotFound("Member not found")
)

//go:embed seed.json
var seedJSON []byte

// Member is a team member who can be marked available and rostered.
// DiscordID and Email are contact details used only for reminders.
type Member struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Year      int    `json:"year"`
	Region    string `json:"region,omitempty"`
	Note      string `json:"note,omitempty"`
	IsSub     bool   `json:"isSub"`
	SortOrder int    `json:"sortOrder"`
	DiscordID string `json:"discordId,omitempty"`
	Email     string `json:"email,omitempty"`
}

// Validate checks if the Member has valid data.
// PRE: Member struct is initialized
// POST: Returns error if validation fails, nil otherwise
// INVARIANT: ID is a lowercase slug, Name must not be empty
func (m *Member) Validate() error {
	if m.ID == "" {
		return ErrEmptyID
	}
	if len(m.ID) > MaxIDLength {
		return ErrIDLength
	}
	for _, r := range m.ID {
		if !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '-' || r == '_') {
			return ErrIDFormat
		}
	}
	if strings.TrimSpace(m.Name) == "" {
		return ErrEmptyName
	}
	if len(m.Name) > MaxNameLength {
		return ErrNameLength
	}
	return nil
}

// WithoutContact returns a copy safe to show to anyone: DiscordID and Email
// are cleared.
func (m Member) WithoutContact() Member {
	m.DiscordID, m.Email = "", ""
	return m
}

// WithoutContact clears contact details from every member in ms.
// POST: ms is unchanged; the result has the same length and order
func WithoutContact(ms []Member) []Member {
	out := make([]Member, len(ms))
	for i, m := range ms {
		out[i] = m.WithoutContact()
	}
	return out
}

// Seed returns the embedded starting roster, active members before subs.
// POST: every returned member is valid
func Seed() ([]Member, error) {
	var members []Member
	if err := json.Unmarshal(seedJSON, &members); err != nil {
		return nil, fmt.Errorf("decode member seed: %w", err)
	}
	for _, m := range members {
		if err := m.Validate(); err != nil {
			return nil, fmt.Errorf("member seed %q: %w", m.ID, err)
		}
	}
	return members, nil
}

// Directory is the in-memory member list shared by handlers and orchestrators.
// It is loaded once at startup and kept in step with store writes.
type Directory struct {
	mu   sync.RWMutex
	byID map[string]Member
}

// NewDirectory builds a directory from members.
func NewDirectory(members []Member) *Directory {
	d := &Directory{byID: make(map[string]Member, len(members))}
	for _, m := range members {
		d.byID[m.ID] = m
	}
	return d
}

// Get returns the member with id.
func (d *Directory) Get(id string) (Member, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	m, ok := d.byID[id]
	return m, ok
}

// Name returns the display name for id, or id itself when unknown.
func (d *Directory) Name(id string) string {
	if m, ok := d.Get(id); ok {
		return m.Name
	}
	return id
}

// Names maps ids to display names, preserving order.
func (d *Directory) Names(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, d.Name(id))
	}
	return out
}

// Put inserts or replaces a member.
func (d *Directory) Put(m Member) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.byID[m.ID] = m
}

// Remove deletes a member. Returns false if absent.
func (d *Directory) Remove(id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.byID[id]; !ok {
		return false
	}
	delete(d.byID, id)
	return true
}

// All returns every member ordered by SortOrder then ID.
func (d *Directory) All() []Member {
	d.mu.RLock()
	out := make([]Member, 0, len(d.byID))
	for _, m := range d.byID {
		out = append(out, m)
	}
	d.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].SortOrder != out[j].SortOrder {
			return out[i].SortOrder < out[j].SortOrder
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Split returns the active members and the substitute members, each in sort order.
func (d *Directory) Split() (active, subs []Member) {
	active, subs = []Member{}, []Member{}
	for _, m := range d.All() {
		if m.IsSub {
			subs = append(subs, m)
		} else {
			active = append(active, m)
		}
	}
	return active, subs
}

// NextSortOrder returns a sort order placing a new member last.
func (d *Directory) NextSortOrder() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	next := 0
	for _, m := range d.byID {
		if m.SortOrder >= next {
			next = m.SortOrder + 1
		}
	}
	return next
}
