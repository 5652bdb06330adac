package preference

import "warteam/internal/domain/apperr"

// Preference values
const (
	Starter = "starter"
	Sub     = "sub"
)

// ErrInvalid is returned for any value other than starter or sub.
var ErrInvalid = apperr.Validation(`Invalid preference. Must be "starter" or "sub"`)

// Preference records whether a player would rather start or sit on the bench.
type Preference struct {
	PlayerID string
	Value    string
}

// Validate checks the player id and value.
// PRE: none
// POST: Returns nil if PlayerID is set and Value is starter or sub
func (p *Preference) Validate() error {
	if p.PlayerID == "" {
		return apperr.Validation("Player ID required")
	}
	if !IsValid(p.Value) {
		return ErrInvalid
	}
	return nil
}

// IsValid reports whether v is an accepted preference value.
func IsValid(v string) bool {
	return v == Starter || v == Sub
}

// Resolve returns the stored value for playerID, defaulting to starter.
func Resolve(prefs map[string]string, playerID string) string {
	if v, ok := prefs[playerID]; ok && IsValid(v) {
		return v
	}
	return Starter
}
