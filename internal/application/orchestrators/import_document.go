package orchestrators

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"os"

	"warteam/internal/domain/apperr"
	"warteam/internal/domain/document"
	"warteam/internal/domain/game"
	"warteam/internal/domain/member"
	"warteam/internal/domain/settings"
)

// ErrStoreNotEmpty is returned when importing over existing games without Replace.
var ErrStoreNotEmpty = apperr.Conflict("Games already exist; import would overwrite them")

// ImportDocumentInput carries the JSON stream and import options.
type ImportDocumentInput struct {
	Reader io.Reader
	DryRun bool
	// Replace allows importing when games already exist. Games with the same
	// id are overwritten; others are kept.
	Replace bool
}

// ImportDocumentResult holds counts from an import run.
type ImportDocumentResult struct {
	Games       int  `json:"games"`
	Preferences int  `json:"preferences"`
	Members     int  `json:"members"`
	Webhook     bool `json:"webhook"`
	DryRun      bool `json:"dryRun"`
}

// GameStoreForImport defines the store interface needed by ImportDocument.
type GameStoreForImport interface {
	Count(ctx context.Context) (int, error)
	SaveAll(ctx context.Context, games []game.Game) error
}

// PreferenceStoreForImport defines the store interface needed by ImportDocument.
type PreferenceStoreForImport interface {
	SetAll(ctx context.Context, prefs map[string]string) error
}

// SettingsStoreForImport defines the store interface needed by ImportDocument.
type SettingsStoreForImport interface {
	SetWebhook(ctx context.Context, w settings.Webhook) error
	SetLists(ctx context.Context, l settings.Lists) error
}

// MemberStoreForImport defines the store interface needed by ImportDocument.
type MemberStoreForImport interface {
	SaveAll(ctx context.Context, members []member.Member) error
}

// ImportDocumentDeps holds external dependencies for the import orchestrator.
type ImportDocumentDeps struct {
	GameStore       GameStoreForImport
	PreferenceStore PreferenceStoreForImport
	SettingsStore   SettingsStoreForImport
	MemberStore     MemberStoreForImport
	Directory       *member.Directory
}

// ExecuteImportDocument loads a JSON data document into the store.
// PRE: Reader yields a document with keys games, playerPreferences, discordWebhook, leagues, divisions
// POST: games, preferences, lists and members are persisted unless DryRun;
// a blank webhook or empty league and division lists leave the stored
// values untouched
// INVARIANT: the document is fully validated before the first write
func ExecuteImportDocument(ctx context.Context, input ImportDocumentInput, deps ImportDocumentDeps) (ImportDocumentResult, error) {
	doc, err := document.Decode(input.Reader)
	if err != nil {
		return ImportDocumentResult{}, err
	}
	res := ImportDocumentResult{
		Games:       len(doc.Games),
		Preferences: len(doc.PlayerPreferences),
		Members:     len(doc.Members),
		Webhook:     doc.DiscordWebhook != "",
		DryRun:      input.DryRun,
	}

	if !input.Replace {
		n, err := deps.GameStore.Count(ctx)
		if err != nil {
			return ImportDocumentResult{}, err
		}
		if n > 0 {
			return ImportDocumentResult{}, ErrStoreNotEmpty
		}
	}
	if input.DryRun {
		return res, nil
	}

	if err := deps.GameStore.SaveAll(ctx, doc.Games); err != nil {
		return ImportDocumentResult{}, err
	}
	if err := deps.PreferenceStore.SetAll(ctx, doc.PlayerPreferences); err != nil {
		return ImportDocumentResult{}, err
	}
	if len(doc.Leagues) > 0 || len(doc.Divisions) > 0 {
		if err := deps.SettingsStore.SetLists(ctx, settings.Lists{Leagues: doc.Leagues, Divisions: doc.Divisions}); err != nil {
			return ImportDocumentResult{}, err
		}
	}
	if res.Webhook {
		if err := deps.SettingsStore.SetWebhook(ctx, settings.Webhook{URL: doc.DiscordWebhook}); err != nil {
			return ImportDocumentResult{}, err
		}
	}
	if len(doc.Members) > 0 {
		if err := deps.MemberStore.SaveAll(ctx, doc.Members); err != nil {
			return ImportDocumentResult{}, err
		}
		for _, m := range doc.Members {
			deps.Directory.Put(m)
		}
	}

	slog.Info("data_event", "event", "document_imported",
		"games", res.Games, "preferences", res.Preferences, "members", res.Members, "webhook", res.Webhook)
	return res, nil
}

// ExecuteImportLegacyFile imports path once, on a store without games.
// A missing file or a populated store is not an error.
// POST: returns imported=true only when the file was loaded
func ExecuteImportLegacyFile(ctx context.Context, path string, deps ImportDocumentDeps) (bool, error) {
	if path == "" {
		return false, nil
	}
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	defer f.Close()

	_, err = ExecuteImportDocument(ctx, ImportDocumentInput{Reader: f}, deps)
	if errors.Is(err, ErrStoreNotEmpty) {
		slog.Info("data_event", "event", "legacy_import_skipped", "path", path, "reason", "store_not_empty")
		return false, nil
	}
	if err != nil {
		return false, err
	}
	slog.Info("data_event", "event", "legacy_imported", "path", path)
	return true, nil
}
