package web

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"warteam/internal/application/orchestrators"
	"warteam/internal/application/projections"
	"warteam/internal/domain/settings"
)

// handleGetPreferences handles GET /api/preferences
func handleGetPreferences(w http.ResponseWriter, r *http.Request) {
	prefs, err := stores.PreferenceStore.All(r.Context())
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, prefs)
}

// handleSetPreference handles PUT /api/preferences/{playerId}
func handleSetPreference(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Preference string `json:"preference"`
	}
	if err := strictDecode(w, r, &body); err != nil {
		writeError(w, err)
		return
	}

	p, err := orchestrators.ExecuteSetPreference(r.Context(), orchestrators.SetPreferenceInput{
		PlayerID:   mux.Vars(r)["playerId"],
		Preference: body.Preference,
		Actor:      actorFrom(r),
	}, orchestrators.SetPreferenceDeps{PreferenceStore: stores.PreferenceStore})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"player_id":  p.PlayerID,
		"preference": p.Value,
	})
}

type webhookStatus struct {
	Configured bool   `json:"configured"`
	Preview    string `json:"preview,omitempty"`
}

// handleGetWebhook handles GET /api/webhook. Only a masked preview leaves the server.
func handleGetWebhook(w http.ResponseWriter, r *http.Request) {
	hook, err := stores.SettingsStore.Webhook(r.Context())
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, webhookStatus{Configured: hook.Configured(), Preview: hook.Preview()})
}

// handleSetWebhook handles PUT /api/webhook (manager only)
func handleSetWebhook(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireManager(w, r); !ok {
		return
	}
	var body struct {
		Webhook string `json:"webhook"`
	}
	if err := strictDecode(w, r, &body); err != nil {
		writeError(w, err)
		return
	}

	if _, err := orchestrators.ExecuteSetWebhook(r.Context(), body.Webhook, orchestrators.SetWebhookDeps{
		SettingsStore: stores.SettingsStore,
	}); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, success)
}

// handlePostToDiscord handles POST /api/discord/post/{id} (manager only)
func handlePostToDiscord(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireManager(w, r); !ok {
		return
	}
	var body struct {
		Mention bool `json:"mention"`
	}
	if r.ContentLength != 0 {
		if err := strictDecode(w, r, &body); err != nil {
			writeError(w, err)
			return
		}
	}

	err := orchestrators.ExecutePostToDiscord(r.Context(), orchestrators.PostToDiscordInput{
		GameID:  mux.Vars(r)["id"],
		Mention: body.Mention,
	}, orchestrators.PostToDiscordDeps{
		GameStore:     stores.GameStore,
		SettingsStore: stores.SettingsStore,
		Names:         directory,
		Poster:        webhookPoster,
		Now:           timeNow,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, success)
}

// handleGetLists handles GET /api/leagues
func handleGetLists(w http.ResponseWriter, r *http.Request) {
	lists, err := stores.SettingsStore.Lists(r.Context())
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, lists)
}

// handleSetLists handles PUT /api/leagues (manager only)
func handleSetLists(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireManager(w, r); !ok {
		return
	}
	var body settings.Lists
	if err := strictDecode(w, r, &body); err != nil {
		writeError(w, err)
		return
	}

	lists, err := orchestrators.ExecuteSetLists(r.Context(), body, orchestrators.SetListsDeps{
		SettingsStore: stores.SettingsStore,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, lists)
}

// handleGetData handles GET /api/data. The webhook URL is always blanked;
// member contact details are only included for managers.
func handleGetData(w http.ResponseWriter, r *http.Request) {
	doc, err := projections.QueryGetDocument(r.Context(), projections.GetDocumentDeps{
		GameStore:       stores.GameStore,
		PreferenceStore: stores.PreferenceStore,
		SettingsStore:   stores.SettingsStore,
		Directory:       directory,
	})
	if err != nil {
		internalError(w, err)
		return
	}
	if actorFrom(r).IsManager {
		writeJSON(w, http.StatusOK, doc.Blanked())
		return
	}
	writeJSON(w, http.StatusOK, doc.Public())
}

// handleImportData handles POST /api/data?dryRun=true&replace=true (manager only)
func handleImportData(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireManager(w, r); !ok {
		return
	}
	q := r.URL.Query()
	dryRun, _ := strconv.ParseBool(q.Get("dryRun"))
	replace, _ := strconv.ParseBool(q.Get("replace"))

	res, err := orchestrators.ExecuteImportDocument(r.Context(), orchestrators.ImportDocumentInput{
		Reader:  http.MaxBytesReader(w, r.Body, maxImportBytes),
		DryRun:  dryRun,
		Replace: replace,
	}, orchestrators.ImportDocumentDeps{
		GameStore:       stores.GameStore,
		PreferenceStore: stores.PreferenceStore,
		SettingsStore:   stores.SettingsStore,
		MemberStore:     stores.MemberStore,
		Directory:       directory,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
