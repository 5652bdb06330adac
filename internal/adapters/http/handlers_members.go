package web

import (
	"net/http"

	"github.com/gorilla/mux"

	"warteam/internal/application/orchestrators"
	"warteam/internal/application/projections"
)

func memberDeps() orchestrators.MemberDeps {
	return orchestrators.MemberDeps{MemberStore: stores.MemberStore, Directory: directory}
}

// handleGetMembers handles GET /api/members. Contact details are only
// returned to managers.
func handleGetMembers(w http.ResponseWriter, r *http.Request) {
	res, err := projections.QueryGetMembers(r.Context(), projections.GetMembersDeps{
		Directory:      directory,
		AccountStore:   stores.AccountStore,
		IncludeContact: actorFrom(r).IsManager,
	})
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// handleAddMember handles POST /api/members (manager only)
func handleAddMember(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireManager(w, r); !ok {
		return
	}
	var body struct {
		ID        string `json:"id"`
		Name      string `json:"name"`
		Year      int    `json:"year"`
		Region    string `json:"region"`
		Note      string `json:"note"`
		IsSub     bool   `json:"isSub"`
		DiscordID string `json:"discordId"`
		Email     string `json:"email"`
	}
	if err := strictDecode(w, r, &body); err != nil {
		writeError(w, err)
		return
	}

	m, err := orchestrators.ExecuteAddMember(r.Context(), orchestrators.AddMemberInput{
		ID:        body.ID,
		Name:      body.Name,
		Year:      body.Year,
		Region:    body.Region,
		Note:      body.Note,
		IsSub:     body.IsSub,
		DiscordID: body.DiscordID,
		Email:     body.Email,
	}, memberDeps())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

// handleDeleteMember handles DELETE /api/members/{id} (manager only).
// Game history keeps the id and renders it verbatim.
func handleDeleteMember(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireManager(w, r); !ok {
		return
	}
	if err := orchestrators.ExecuteDeleteMember(r.Context(), mux.Vars(r)["id"], memberDeps()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, success)
}
