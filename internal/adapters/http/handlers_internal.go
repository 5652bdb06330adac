package web

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"warteam/internal/application/orchestrators"
	"warteam/internal/application/projections"
	"warteam/internal/domain/apperr"
	"warteam/internal/domain/member"
	"warteam/internal/domain/outbox"
)

var errOutboxNotFound = apperr.NotFound("Outbox entry not found")

// handleGetPendingReminders handles GET /api/internal/pending-reminders (manager only)
func handleGetPendingReminders(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireManager(w, r); !ok {
		return
	}
	games, err := projections.QueryGetPendingReminders(r.Context(), projections.GetPendingRemindersDeps{
		GameStore: stores.GameStore,
		Now:       now,
	})
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, games)
}

// handleMarkReminded handles POST /api/internal/mark-reminded/{id} (manager only)
func handleMarkReminded(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireManager(w, r); !ok {
		return
	}
	g, err := orchestrators.ExecuteMarkReminded(r.Context(), mux.Vars(r)["id"], orchestrators.MarkRemindedDeps{
		GameStore: stores.GameStore,
		Now:       timeNow,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	hub.Broadcast(EventGameUpdated, g)
	writeJSON(w, http.StatusOK, success)
}

// handleGetUserDiscordID handles GET /api/internal/user-discord/{playerId} (manager only)
func handleGetUserDiscordID(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireManager(w, r); !ok {
		return
	}
	m, ok := directory.Get(mux.Vars(r)["playerId"])
	if !ok {
		writeError(w, member.ErrNotFound)
		return
	}
	if m.DiscordID == "" {
		writeError(w, apperr.NotFound("No Discord account linked"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"discordId": m.DiscordID})
}

// handleListOutbox handles GET /api/internal/outbox?limit=N (manager only)
func handleListOutbox(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireManager(w, r); !ok {
		return
	}
	limit := 50
	if n, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && n > 0 && n <= 100 {
		limit = n
	}

	entries, err := outboxProcessor.ListFailed(r.Context(), limit)
	if err != nil {
		internalError(w, err)
		return
	}
	if entries == nil {
		entries = []outbox.Entry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

// handleRetryOutbox handles POST /api/internal/outbox/{id}/retry (manager only)
func handleRetryOutbox(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireManager(w, r); !ok {
		return
	}
	entry, err := outboxProcessor.ProcessSingle(r.Context(), mux.Vars(r)["id"])
	if errors.Is(err, sql.ErrNoRows) {
		err = errOutboxNotFound
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

// handleAbandonOutbox handles POST /api/internal/outbox/{id}/abandon (manager only)
func handleAbandonOutbox(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireManager(w, r); !ok {
		return
	}
	err := outboxProcessor.AbandonEntry(r.Context(), mux.Vars(r)["id"])
	if errors.Is(err, sql.ErrNoRows) {
		err = errOutboxNotFound
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, success)
}

// handlePerf handles GET /api/internal/perf?minutes=N (manager only)
func handlePerf(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireManager(w, r); !ok {
		return
	}
	if perfCollector == nil {
		writeError(w, apperr.Config("Performance collection is disabled"))
		return
	}
	minutes := 60
	if n, err := strconv.Atoi(r.URL.Query().Get("minutes")); err == nil && n > 0 && n <= 24*60 {
		minutes = n
	}
	since := timeNow().Add(-time.Duration(minutes) * time.Minute)
	writeJSON(w, http.StatusOK, perfCollector.Snapshot(since, 10))
}
