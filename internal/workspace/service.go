package workspace

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"
)

// Defaults for upstream call limits when config leaves them unset.
const (
	DefaultCallTimeout = 15 * time.Second
	DefaultMaxPages    = 100
	DefaultPageLimit   = 100
)

// timestampLayout matches the surface format of the original dashboard.
const timestampLayout = "Jan 02, 2006, 03:04:05 PM"

// Service serves workspace aggregation requests. Every request is served
// fresh from the upstream; nothing is cached.
type Service struct {
	client      Client
	logger      *slog.Logger
	callTimeout time.Duration
	maxPages    int
	pageLimit   int
}

// NewService creates the workspace service. Zero limits fall back to the
// package defaults.
func NewService(log *slog.Logger, client Client, callTimeout time.Duration, maxPages, pageLimit int) *Service {
	if log == nil {
		log = slog.Default()
	}
	if callTimeout <= 0 {
		callTimeout = DefaultCallTimeout
	}
	if maxPages <= 0 {
		maxPages = DefaultMaxPages
	}
	if pageLimit <= 0 {
		pageLimit = DefaultPageLimit
	}
	return &Service{
		client:      client,
		logger:      log.With(slog.String("service", "workspace")),
		callTimeout: callTimeout,
		maxPages:    maxPages,
		pageLimit:   pageLimit,
	}
}

// Members lists all workspace members.
func (s *Service) Members(ctx context.Context) ([]Member, error) {
	ctx, cancel := context.WithTimeout(ctx, s.callTimeout)
	defer cancel()

	upstream, err := s.client.ListMembers(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list members: %v", ErrUpstream, err)
	}
	members := make([]Member, 0, len(upstream))
	for _, m := range upstream {
		members = append(members, Member{
			ID:    m.ID,
			Name:  displayName(m),
			Image: m.Image48,
		})
	}
	return members, nil
}

// Channels lists all workspace channels.
func (s *Service) Channels(ctx context.Context) ([]Channel, error) {
	ctx, cancel := context.WithTimeout(ctx, s.callTimeout)
	defer cancel()

	upstream, err := s.client.ListChannels(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list channels: %v", ErrUpstream, err)
	}
	channels := make([]Channel, 0, len(upstream))
	for _, ch := range upstream {
		channels = append(channels, Channel{ID: ch.ID, Name: ch.Name, Private: ch.Private})
	}
	return channels, nil
}

// Profile resolves the authenticated workspace identity, then its details.
func (s *Service) Profile(ctx context.Context) (Profile, error) {
	ctx, cancel := context.WithTimeout(ctx, s.callTimeout)
	defer cancel()

	userID, err := s.client.Identity(ctx)
	if err != nil {
		return Profile{}, fmt.Errorf("%w: identity: %v", ErrUpstream, err)
	}
	member, err := s.client.MemberInfo(ctx, userID)
	if err != nil {
		return Profile{}, fmt.Errorf("%w: member info: %v", ErrUpstream, err)
	}
	image := member.Image192
	if image == "" {
		image = member.Image48
	}
	return Profile{
		ID:       member.ID,
		Name:     displayName(member),
		Username: member.Name,
		Image:    image,
	}, nil
}

func displayName(m UpstreamMember) string {
	if m.RealName != "" {
		return m.RealName
	}
	return m.Name
}

// formatTimestamp converts the upstream epoch-seconds string into the
// surface datetime format. Unparseable timestamps pass through untouched.
func formatTimestamp(ts string) string {
	seconds, err := strconv.ParseFloat(ts, 64)
	if err != nil {
		return ts
	}
	return time.Unix(int64(seconds), 0).UTC().Format(timestampLayout)
}

func normalizeMessage(raw RawMessage) Message {
	return Message{
		User:     raw.UserID,
		Text:     raw.Text,
		Datetime: formatTimestamp(raw.Timestamp),
	}
}
