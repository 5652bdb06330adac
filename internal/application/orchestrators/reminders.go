package orchestrators

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"warteam/internal/adapters/discord"
	"warteam/internal/adapters/email"
	"warteam/internal/domain/game"
	"warteam/internal/domain/member"
	"warteam/internal/domain/outbox"
)

// errNotDue aborts a claim whose game was reminded or changed meanwhile.
var errNotDue = errors.New("game not due for reminder")

// GameStoreForReminders defines the store interface needed by QueueReminders.
type GameStoreForReminders interface {
	List(ctx context.Context) ([]game.Game, error)
	Update(ctx context.Context, id string, fn func(*game.Game) error) (game.Game, error)
}

// OutboxStoreForQueue defines the store interface needed to queue reminders.
type OutboxStoreForQueue interface {
	Save(ctx context.Context, e outbox.Entry) error
}

// QueueRemindersDeps holds dependencies for QueueReminders.
type QueueRemindersDeps struct {
	GameStore   GameStoreForReminders
	OutboxStore OutboxStoreForQueue
	Directory   *member.Directory
	GenerateID  func() string
	Now         func() time.Time
}

// QueueRemindersResult counts what a run queued.
type QueueRemindersResult struct {
	Games  int
	DMs    int
	Emails int
}

// ExecuteQueueReminders queues day-before reminders for every due game.
// Each due game is claimed (marked reminded) atomically before its entries
// are queued, so concurrent runs never queue a game twice.
// PRE: none
// POST: due games are reminded; one discord_dm entry per rostered member with
// a Discord id and one email entry per rostered member with an email
func ExecuteQueueReminders(ctx context.Context, deps QueueRemindersDeps) (QueueRemindersResult, error) {
	now := deps.Now()
	games, err := deps.GameStore.List(ctx)
	if err != nil {
		return QueueRemindersResult{}, err
	}

	var res QueueRemindersResult
	for _, g := range games {
		if !g.IsDueForReminder(now) {
			continue
		}
		claimed, err := deps.GameStore.Update(ctx, g.ID, func(g *game.Game) error {
			if !g.IsDueForReminder(now) {
				return errNotDue
			}
			g.Reminded = true
			g.UpdatedAt = now
			return nil
		})
		if errors.Is(err, errNotDue) || errors.Is(err, game.ErrNotFound) {
			continue
		}
		if err != nil {
			return res, err
		}
		res.Games++

		for _, id := range claimed.Roster.IDs() {
			m, ok := deps.Directory.Get(id)
			if !ok {
				continue
			}
			if m.DiscordID != "" {
				p := DMPayload{UserID: m.DiscordID, Content: discord.ReminderText(claimed)}
				if err := queue(ctx, deps, outbox.ActionTypeDiscordDM, claimed.ID, p, now); err != nil {
					return res, err
				}
				res.DMs++
			}
			if m.Email != "" {
				req := email.Reminder(claimed, m.Name, m.Email)
				p := EmailPayload{To: req.To, Subject: req.Subject, HTML: req.HTML, Text: req.Text, Category: req.Category}
				if err := queue(ctx, deps, outbox.ActionTypeEmail, claimed.ID, p, now); err != nil {
					return res, err
				}
				res.Emails++
			}
		}
		slog.Info("reminder_event", "event", "game_reminders_queued", "game_id", claimed.ID, "roster", claimed.Roster.Len())
	}

	if res.Games > 0 {
		slog.Info("reminder_event", "event", "reminders_queued", "games", res.Games, "dms", res.DMs, "emails", res.Emails)
	}
	return res, nil
}

func queue(ctx context.Context, deps QueueRemindersDeps, actionType, gameID string, payload any, now time.Time) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	e := outbox.Entry{
		ID:         deps.GenerateID(),
		ActionType: actionType,
		Payload:    string(b),
		GameID:     gameID,
		CreatedAt:  now,
	}
	if err := e.Validate(); err != nil {
		return err
	}
	return deps.OutboxStore.Save(ctx, e)
}

// MarkRemindedDeps holds dependencies for MarkReminded.
type MarkRemindedDeps struct {
	GameStore GameUpdater
	Now       func() time.Time
}

// ExecuteMarkReminded flags a game as reminded for external reminder jobs.
// PRE: caller is a manager
// POST: the game's Reminded flag is set
func ExecuteMarkReminded(ctx context.Context, gameID string, deps MarkRemindedDeps) (game.Game, error) {
	g, err := deps.GameStore.Update(ctx, gameID, func(g *game.Game) error {
		g.Reminded = true
		g.UpdatedAt = deps.Now()
		return nil
	})
	if err != nil {
		return game.Game{}, err
	}
	slog.Info("reminder_event", "event", "game_marked_reminded", "game_id", gameID)
	return g, nil
}
