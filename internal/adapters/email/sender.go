// Package email sends reminder emails through an external provider.
package email

import (
	"context"
	"fmt"
	"html"
	"time"

	"warteam/internal/domain/game"
)

// SendRequest contains the data needed to send one email.
type SendRequest struct {
	To       []string
	From     string // overrides the sender default when set
	Subject  string
	HTML     string
	Text     string // plain-text alternative
	Category string // provider tag, e.g. "game_reminder"
}

// CategoryReminder tags day-before game reminders.
const CategoryReminder = "game_reminder"

// SendResult contains the provider's answer.
type SendResult struct {
	MessageID string
	SentAt    time.Time
}

// Sender is the interface for sending emails via an external provider.
type Sender interface {
	Send(ctx context.Context, req SendRequest) (SendResult, error)
}

// Reminder builds the day-before reminder for a rostered player.
// PRE: to is a non-empty address
func Reminder(g game.Game, playerName, to string) SendRequest {
	body := fmt.Sprintf(`<p>Hi %s,</p>
<p>You're on the roster for tomorrow's game!</p>
<p><strong>Opponent:</strong> %s<br><strong>When:</strong> %s ET</p>
<p>Good luck out there!</p>`,
		html.EscapeString(playerName), html.EscapeString(g.Opponent), html.EscapeString(g.ReminderWhen()))
	text := fmt.Sprintf("Hi %s,\n\nYou're on the roster for tomorrow's game!\nOpponent: %s\nWhen: %s ET\n\nGood luck out there!\n",
		playerName, g.Opponent, g.ReminderWhen())
	return SendRequest{
		To:       []string{to},
		Subject:  "Game Reminder: vs " + g.Opponent + " tomorrow",
		HTML:     body,
		Text:     text,
		Category: CategoryReminder,
	}
}
