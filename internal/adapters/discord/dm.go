package discord

import (
	"context"
	"errors"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"warteam/internal/domain/game"
)

// ErrNoBotToken is returned by DMs attempted without a bot token.
var ErrNoBotToken = errors.New("discord bot token not configured")

// dmSession is the part of *discordgo.Session used for direct messages.
type dmSession interface {
	UserChannelCreate(recipientID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// DMSender sends direct messages as the bot user.
type DMSender struct {
	session dmSession
}

// NewDMSender creates a sender for the given bot token. An empty token
// yields a sender whose every send fails with ErrNoBotToken.
func NewDMSender(token string) (*DMSender, error) {
	if token == "" {
		return &DMSender{}, nil
	}
	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	s.Client.Timeout = DefaultTimeout
	return &DMSender{session: s}, nil
}

// Send opens a DM channel with userID and posts content.
// POST: returns the created message id
func (d *DMSender) Send(ctx context.Context, userID, content string) (string, error) {
	if d.session == nil {
		return "", ErrNoBotToken
	}
	ch, err := d.session.UserChannelCreate(userID, discordgo.WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("create DM channel: %w", err)
	}
	msg, err := d.session.ChannelMessageSend(ch.ID, content, discordgo.WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("send DM: %w", err)
	}
	return msg.ID, nil
}

// ReminderText is the DM sent to a rostered player the day before a game.
func ReminderText(g game.Game) string {
	return fmt.Sprintf("**Game Reminder!**\n\n"+
		"You're on the roster for tomorrow's game!\n\n"+
		"**Opponent:** %s\n"+
		"**When:** %s ET\n\n"+
		"Good luck out there!", g.Opponent, g.ReminderWhen())
}
