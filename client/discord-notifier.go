package client

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
)

// ChannelMessenger is the part of *discordgo.Session used to post notifications.
type ChannelMessenger interface {
	ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

type DiscordNotifier struct {
	session   ChannelMessenger
	channelID string
}

// NewDiscordNotifier opens a bot session for posting into a single channel.
func NewDiscordNotifier(token string, channelID string) (*DiscordNotifier, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}
	return &DiscordNotifier{session: session, channelID: channelID}, nil
}

func (d *DiscordNotifier) Notify(ctx context.Context, notification Notification) error {
	_, err := d.session.ChannelMessageSend(d.channelID, notification.String(), discordgo.WithContext(ctx))
	return err
}
