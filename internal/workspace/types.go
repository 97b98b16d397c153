// Package workspace aggregates members, channels, and conversation history
// from the team-messaging upstream behind the Client capability.
package workspace

import (
	"context"
	"errors"
)

// Target kinds accepted by chat-history lookups.
const (
	KindChannel = "channel"
	KindUser    = "user"
)

var (
	// ErrInvalidTarget means the target kind or id is missing/unknown.
	ErrInvalidTarget = errors.New("invalid target: type must be 'channel' or 'user'")
	// ErrNoDirectConversation means no DM exists with the requested user yet.
	ErrNoDirectConversation = errors.New("no direct message conversation found with this user")
	// ErrUpstream wraps any messaging-API call failure.
	ErrUpstream = errors.New("upstream messaging api failure")
)

// Target addresses a conversation: a channel directly, or a counterpart
// user whose DM conversation must be resolved first.
type Target struct {
	Kind string
	ID   string
}

// UpstreamMember is a workspace user as the upstream reports it.
type UpstreamMember struct {
	ID       string
	Name     string
	RealName string
	Image48  string
	Image192 string
}

// UpstreamChannel is a conversation as the upstream reports it. For IM
// conversations, User is the counterpart user id.
type UpstreamChannel struct {
	ID      string
	Name    string
	Private bool
	IsIM    bool
	User    string
}

// RawMessage is one unnormalized history entry. Timestamp is the upstream
// epoch-seconds string (e.g. "1712345678.000200").
type RawMessage struct {
	UserID    string
	Text      string
	Timestamp string
}

// HistoryPage is one page of conversation history plus the continuation
// cursor; an empty cursor signals exhaustion.
type HistoryPage struct {
	Messages   []RawMessage
	NextCursor string
}

// Client is the upstream messaging API capability the service consumes.
type Client interface {
	ListMembers(ctx context.Context) ([]UpstreamMember, error)
	ListChannels(ctx context.Context) ([]UpstreamChannel, error)
	ListDirectChannels(ctx context.Context, userID string) ([]UpstreamChannel, error)
	History(ctx context.Context, conversationID, cursor string, limit int) (HistoryPage, error)
	Identity(ctx context.Context) (string, error)
	MemberInfo(ctx context.Context, userID string) (UpstreamMember, error)
}

// Member is the API projection of a workspace user.
type Member struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Image string `json:"image"`
}

// Channel is the API projection of a workspace channel.
type Channel struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Private bool   `json:"is_private"`
}

// Profile is the caller's own workspace identity.
type Profile struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Username string `json:"username"`
	Image    string `json:"image"`
}

// Message is a normalized history entry for a single conversation.
type Message struct {
	User     string `json:"user"`
	Text     string `json:"text"`
	Datetime string `json:"datetime"`
}

// ChannelMessage is a normalized activity entry tagged with its channel name.
type ChannelMessage struct {
	Channel string `json:"channel"`
	Text    string `json:"text"`
	User    string `json:"user"`
	Time    string `json:"time"`
}
