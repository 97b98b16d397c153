// Package slackapi implements the workspace upstream against the Slack Web API.
package slackapi

import (
	"context"
	"log/slog"

	"github.com/slack-go/slack"

	"github.com/teampulse/teampulse/internal/config"
	"github.com/teampulse/teampulse/internal/workspace"
)

// Client adapts the Slack SDK to the workspace.Client capability. Call
// deadlines are the caller's responsibility; this layer only translates.
type Client struct {
	api    *slack.Client
	logger *slog.Logger
}

var _ workspace.Client = (*Client)(nil)

// NewClient builds the Slack adapter from config.
func NewClient(log *slog.Logger, cfg config.SlackConfig) *Client {
	if log == nil {
		log = slog.Default()
	}
	return &Client{
		api:    slack.New(cfg.BotToken),
		logger: log.With(slog.String("adapter", "slack")),
	}
}

func (c *Client) ListMembers(ctx context.Context) ([]workspace.UpstreamMember, error) {
	users, err := c.api.GetUsersContext(ctx)
	if err != nil {
		return nil, err
	}
	members := make([]workspace.UpstreamMember, 0, len(users))
	for _, u := range users {
		members = append(members, toUpstreamMember(u))
	}
	return members, nil
}

func (c *Client) ListChannels(ctx context.Context) ([]workspace.UpstreamChannel, error) {
	channels, _, err := c.api.GetConversationsContext(ctx, &slack.GetConversationsParameters{
		ExcludeArchived: true,
	})
	if err != nil {
		return nil, err
	}
	return toUpstreamChannels(channels), nil
}

func (c *Client) ListDirectChannels(ctx context.Context, userID string) ([]workspace.UpstreamChannel, error) {
	channels, _, err := c.api.GetConversationsForUserContext(ctx, &slack.GetConversationsForUserParameters{
		UserID: userID,
		Types:  []string{"im"},
	})
	if err != nil {
		return nil, err
	}
	return toUpstreamChannels(channels), nil
}

func (c *Client) History(ctx context.Context, conversationID, cursor string, limit int) (workspace.HistoryPage, error) {
	resp, err := c.api.GetConversationHistoryContext(ctx, &slack.GetConversationHistoryParameters{
		ChannelID: conversationID,
		Cursor:    cursor,
		Limit:     limit,
	})
	if err != nil {
		return workspace.HistoryPage{}, err
	}
	page := workspace.HistoryPage{
		Messages:   make([]workspace.RawMessage, 0, len(resp.Messages)),
		NextCursor: resp.ResponseMetaData.NextCursor,
	}
	for _, msg := range resp.Messages {
		page.Messages = append(page.Messages, workspace.RawMessage{
			UserID:    msg.User,
			Text:      msg.Text,
			Timestamp: msg.Timestamp,
		})
	}
	return page, nil
}

func (c *Client) Identity(ctx context.Context) (string, error) {
	resp, err := c.api.AuthTestContext(ctx)
	if err != nil {
		return "", err
	}
	return resp.UserID, nil
}

func (c *Client) MemberInfo(ctx context.Context, userID string) (workspace.UpstreamMember, error) {
	user, err := c.api.GetUserInfoContext(ctx, userID)
	if err != nil {
		return workspace.UpstreamMember{}, err
	}
	return toUpstreamMember(*user), nil
}

func toUpstreamMember(u slack.User) workspace.UpstreamMember {
	return workspace.UpstreamMember{
		ID:       u.ID,
		Name:     u.Name,
		RealName: u.RealName,
		Image48:  u.Profile.Image48,
		Image192: u.Profile.Image192,
	}
}

func toUpstreamChannels(channels []slack.Channel) []workspace.UpstreamChannel {
	out := make([]workspace.UpstreamChannel, 0, len(channels))
	for _, ch := range channels {
		out = append(out, workspace.UpstreamChannel{
			ID:      ch.ID,
			Name:    ch.Name,
			Private: ch.IsPrivate,
			IsIM:    ch.IsIM,
			User:    ch.User,
		})
	}
	return out
}
