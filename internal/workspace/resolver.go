package workspace

import (
	"context"
	"fmt"
	"strings"
)

// ResolveTarget maps a target to the concrete conversation id to query.
// Channel targets pass through without an upstream call. User targets list
// the caller's IM conversations and pick the one whose counterpart is the
// requested user, independent of listing order.
func (s *Service) ResolveTarget(ctx context.Context, target Target) (string, error) {
	id := strings.TrimSpace(target.ID)
	if id == "" {
		return "", fmt.Errorf("%w: id is required", ErrInvalidTarget)
	}

	switch target.Kind {
	case KindChannel:
		return id, nil

	case KindUser:
		ctx, cancel := context.WithTimeout(ctx, s.callTimeout)
		defer cancel()

		conversations, err := s.client.ListDirectChannels(ctx, id)
		if err != nil {
			return "", fmt.Errorf("%w: list direct conversations: %v", ErrUpstream, err)
		}
		for _, conv := range conversations {
			if conv.User == id {
				return conv.ID, nil
			}
		}
		return "", ErrNoDirectConversation

	default:
		return "", ErrInvalidTarget
	}
}
