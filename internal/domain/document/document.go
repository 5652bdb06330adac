// Package document is the portable JSON form of the whole team state. It is
// the import format for legacy data files and the export format for backups.
package document

import (
	"encoding/json"
	"fmt"
	"io"

	"warteam/internal/domain/apperr"
	"warteam/internal/domain/game"
	"warteam/internal/domain/member"
	"warteam/internal/domain/preference"
	"warteam/internal/domain/settings"
)

// Document holds every persisted collection.
type Document struct {
	Games             []game.Game       `json:"games"`
	PlayerPreferences map[string]string `json:"playerPreferences"`
	DiscordWebhook    string            `json:"discordWebhook"`
	Leagues           []string          `json:"leagues"`
	Divisions         []string          `json:"divisions"`
	Members           []member.Member   `json:"members,omitempty"`
}

// Decode reads a document and repairs it into a consistent state.
// PRE: r yields a JSON object
// POST: collections are non-nil; games have defaults and set invariants applied;
// unknown preference values are dropped
func Decode(r io.Reader) (Document, error) {
	var d Document
	if err := json.NewDecoder(r).Decode(&d); err != nil {
		return Document{}, apperr.Validation(fmt.Sprintf("invalid data document: %v", err))
	}
	if err := d.normalize(); err != nil {
		return Document{}, err
	}
	return d, nil
}

// Encode writes d as indented JSON.
func Encode(w io.Writer, d Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(d)
}

// Masked returns a copy safe to post to a channel: the webhook URL is
// reduced to its preview and member contact details are removed.
func (d Document) Masked() Document {
	d.DiscordWebhook = settings.Webhook{URL: d.DiscordWebhook}.Preview()
	d.Members = member.WithoutContact(d.Members)
	return d
}

// Public returns a copy for unauthenticated readers: no webhook URL and no
// member contact details.
func (d Document) Public() Document {
	d = d.Blanked()
	d.Members = member.WithoutContact(d.Members)
	return d
}

// Blanked returns a copy with the webhook URL removed. Member contact
// details are kept, so only managers may receive it.
func (d Document) Blanked() Document {
	d.DiscordWebhook = ""
	return d
}

func (d *Document) normalize() error {
	if d.Games == nil {
		d.Games = []game.Game{}
	}
	seen := make(map[string]bool, len(d.Games))
	for i := range d.Games {
		g := &d.Games[i]
		if g.ID == "" {
			return apperr.Validation(fmt.Sprintf("game %d has no id", i))
		}
		if seen[g.ID] {
			return apperr.Validation(fmt.Sprintf("duplicate game id %q", g.ID))
		}
		seen[g.ID] = true
		if err := g.Validate(); err != nil {
			return fmt.Errorf("game %q: %w", g.ID, err)
		}
		g.Normalize()
	}

	prefs := make(map[string]string, len(d.PlayerPreferences))
	for id, v := range d.PlayerPreferences {
		if id != "" && preference.IsValid(v) {
			prefs[id] = v
		}
	}
	d.PlayerPreferences = prefs

	lists := settings.Lists{Leagues: d.Leagues, Divisions: d.Divisions}.Normalize()
	d.Leagues, d.Divisions = lists.Leagues, lists.Divisions

	for _, m := range d.Members {
		if err := m.Validate(); err != nil {
			return fmt.Errorf("member %q: %w", m.ID, err)
		}
	}
	return nil
}
