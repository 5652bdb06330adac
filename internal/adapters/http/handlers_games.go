package web

import (
	"net/http"

	"github.com/gorilla/mux"

	"warteam/internal/application/orchestrators"
	"warteam/internal/domain/game"
)

func playerActionDeps() orchestrators.PlayerActionDeps {
	return orchestrators.PlayerActionDeps{GameStore: stores.GameStore, Now: timeNow}
}

// handleListGames handles GET /api/games
func handleListGames(w http.ResponseWriter, r *http.Request) {
	games, err := stores.GameStore.List(r.Context())
	if err != nil {
		internalError(w, err)
		return
	}
	if games == nil {
		games = []game.Game{}
	}
	writeJSON(w, http.StatusOK, games)
}

// handleGetGame handles GET /api/games/{id}
func handleGetGame(w http.ResponseWriter, r *http.Request) {
	g, err := stores.GameStore.GetByID(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

// handleCreateGame handles POST /api/games (manager only)
func handleCreateGame(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireManager(w, r); !ok {
		return
	}
	var body struct {
		Date     string `json:"date"`
		Time     string `json:"time"`
		Opponent string `json:"opponent"`
		Notes    string `json:"notes"`
		League   string `json:"league"`
		Division string `json:"division"`
		GameMode string `json:"gameMode"`
		TeamSize int    `json:"teamSize"`
	}
	if err := strictDecode(w, r, &body); err != nil {
		writeError(w, err)
		return
	}

	g, err := orchestrators.ExecuteCreateGame(r.Context(), orchestrators.CreateGameInput{
		Date:     body.Date,
		Time:     body.Time,
		Opponent: body.Opponent,
		Notes:    body.Notes,
		League:   body.League,
		Division: body.Division,
		GameMode: body.GameMode,
		TeamSize: body.TeamSize,
	}, orchestrators.CreateGameDeps{
		GameStore:  stores.GameStore,
		GenerateID: game.NewID,
		Now:        timeNow,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	hub.Broadcast(EventGameUpdated, g)
	writeJSON(w, http.StatusCreated, g)
}

// handleUpdateGame handles PUT /api/games/{id} (manager only)
func handleUpdateGame(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireManager(w, r); !ok {
		return
	}
	var patch game.Patch
	if err := strictDecode(w, r, &patch); err != nil {
		writeError(w, err)
		return
	}

	g, err := orchestrators.ExecuteUpdateGame(r.Context(), orchestrators.UpdateGameInput{
		GameID: mux.Vars(r)["id"],
		Patch:  patch,
	}, orchestrators.UpdateGameDeps{GameStore: stores.GameStore, Now: timeNow})
	if err != nil {
		writeError(w, err)
		return
	}
	hub.Broadcast(EventGameUpdated, g)
	writeJSON(w, http.StatusOK, g)
}

// handleDeleteGame handles DELETE /api/games/{id} (manager only)
func handleDeleteGame(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireManager(w, r); !ok {
		return
	}
	id := mux.Vars(r)["id"]
	if err := orchestrators.ExecuteDeleteGame(r.Context(), id, orchestrators.DeleteGameDeps{GameStore: stores.GameStore, OutboxStore: stores.OutboxStore}); err != nil {
		writeError(w, err)
		return
	}
	hub.Broadcast(EventGameDeleted, game.Game{ID: id})
	writeJSON(w, http.StatusOK, success)
}

// handleSetAvailability handles POST /api/games/{id}/availability
func handleSetAvailability(w http.ResponseWriter, r *http.Request) {
	var body struct {
		PlayerID    string `json:"playerId"`
		IsAvailable bool   `json:"isAvailable"`
	}
	if err := strictDecode(w, r, &body); err != nil {
		writeError(w, err)
		return
	}

	g, err := orchestrators.ExecuteSetAvailability(r.Context(), orchestrators.SetAvailabilityInput{
		GameID:      mux.Vars(r)["id"],
		PlayerID:    body.PlayerID,
		IsAvailable: body.IsAvailable,
		Actor:       actorFrom(r),
	}, playerActionDeps())
	if err != nil {
		writeError(w, err)
		return
	}
	hub.Broadcast(EventGameUpdated, g)
	writeJSON(w, http.StatusOK, g)
}

// handleUpdateRoster handles PUT /api/games/{id}/roster (manager only)
func handleUpdateRoster(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireManager(w, r); !ok {
		return
	}
	var body struct {
		Roster []string `json:"roster"`
		Subs   []string `json:"subs"`
	}
	if err := strictDecode(w, r, &body); err != nil {
		writeError(w, err)
		return
	}

	g, err := orchestrators.ExecuteUpdateRoster(r.Context(), orchestrators.UpdateRosterInput{
		GameID: mux.Vars(r)["id"],
		Roster: body.Roster,
		Subs:   body.Subs,
	}, playerActionDeps())
	if err != nil {
		writeError(w, err)
		return
	}
	hub.Broadcast(EventGameUpdated, g)
	writeJSON(w, http.StatusOK, g)
}

// handleWithdraw handles POST /api/games/{id}/withdraw. Unlike availability, it needs a login.
func handleWithdraw(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireSession(w, r); !ok {
		return
	}
	var body struct {
		PlayerID string `json:"playerId"`
	}
	if err := strictDecode(w, r, &body); err != nil {
		writeError(w, err)
		return
	}

	g, err := orchestrators.ExecuteWithdraw(r.Context(), orchestrators.WithdrawInput{
		GameID:   mux.Vars(r)["id"],
		PlayerID: body.PlayerID,
		Actor:    actorFrom(r),
	}, playerActionDeps())
	if err != nil {
		writeError(w, err)
		return
	}
	hub.Broadcast(EventGameUpdated, g)
	writeJSON(w, http.StatusOK, g)
}
