package web

import (
	"net/http"

	"warteam/internal/adapters/http/middleware"
	"warteam/internal/application/orchestrators"
	"warteam/internal/domain/account"
)

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type meResponse struct {
	Authenticated bool   `json:"authenticated"`
	Username      string `json:"username,omitempty"`
	IsManager     bool   `json:"isManager"`
	PlayerID      string `json:"playerId,omitempty"`
}

func meFrom(s middleware.Session) meResponse {
	return meResponse{Authenticated: true, Username: s.Username, IsManager: s.IsManager, PlayerID: s.PlayerID}
}

// startSession replaces any current session with a new one for acct.
func startSession(w http.ResponseWriter, r *http.Request, acct account.Account) middleware.Session {
	if token := middleware.SessionToken(r); token != "" {
		sessions.Delete(token)
	}
	token := sessions.Create(acct)
	middleware.SetSessionCookie(w, token)
	sess, _ := sessions.Get(token)
	return sess
}

// handleLogin handles POST /auth/login {username,password}
func handleLogin(w http.ResponseWriter, r *http.Request) {
	var body credentials
	if err := strictDecode(w, r, &body); err != nil {
		writeError(w, err)
		return
	}

	acct, err := orchestrators.ExecuteLogin(r.Context(), orchestrators.LoginInput{
		Username: body.Username,
		Password: body.Password,
	}, orchestrators.LoginDeps{AccountStore: stores.AccountStore, Now: timeNow})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, meFrom(startSession(w, r, acct)))
}

// handleRegister handles POST /auth/register {username,password} and logs the new account in.
func handleRegister(w http.ResponseWriter, r *http.Request) {
	var body credentials
	if err := strictDecode(w, r, &body); err != nil {
		writeError(w, err)
		return
	}

	acct, err := orchestrators.ExecuteRegister(r.Context(), orchestrators.RegisterInput{
		Username: body.Username,
		Password: body.Password,
	}, orchestrators.RegisterDeps{
		AccountStore: stores.AccountStore,
		GenerateID:   generateID,
		Now:          timeNow,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, meFrom(startSession(w, r, acct)))
}

// handleLogout handles POST /auth/logout
func handleLogout(w http.ResponseWriter, r *http.Request) {
	if token := middleware.SessionToken(r); token != "" {
		sessions.Delete(token)
	}
	middleware.ClearSessionCookie(w)
	writeJSON(w, http.StatusOK, success)
}

// handleAuthMe handles GET /auth/me
func handleAuthMe(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.GetSessionFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusOK, meResponse{})
		return
	}
	writeJSON(w, http.StatusOK, meFrom(sess))
}

// handleLinkPlayer handles POST /auth/link {playerId}
func handleLinkPlayer(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}
	var body struct {
		PlayerID string `json:"playerId"`
	}
	if err := strictDecode(w, r, &body); err != nil {
		writeError(w, err)
		return
	}

	acct, err := orchestrators.ExecuteLinkPlayer(r.Context(), orchestrators.LinkPlayerInput{
		AccountID: sess.AccountID,
		PlayerID:  body.PlayerID,
	}, orchestrators.LinkPlayerDeps{AccountStore: stores.AccountStore})
	if err != nil {
		writeError(w, err)
		return
	}

	sess.PlayerID = acct.PlayerID
	sessions.Update(middleware.SessionToken(r), sess)
	writeJSON(w, http.StatusOK, success)
}

// handleChangePassword handles POST /auth/password {currentPassword,newPassword}
func handleChangePassword(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}
	var body struct {
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
	}
	if err := strictDecode(w, r, &body); err != nil {
		writeError(w, err)
		return
	}

	if err := orchestrators.ExecuteChangePassword(r.Context(), orchestrators.ChangePasswordInput{
		AccountID:       sess.AccountID,
		CurrentPassword: body.CurrentPassword,
		NewPassword:     body.NewPassword,
	}, orchestrators.ChangePasswordDeps{AccountStore: stores.AccountStore, Now: timeNow}); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, success)
}
