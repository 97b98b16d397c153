package users

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// bcryptCost matches the cost the accounts were originally hashed with.
const bcryptCost = 12

// Service orchestrates registration, credential checks, and Google mapping.
type Service struct {
	store  Store
	logger *slog.Logger
}

// NewService creates the user service.
func NewService(log *slog.Logger, store Store) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		store:  store,
		logger: log.With(slog.String("service", "users")),
	}
}

// Register creates a password account with subscription "none". Duplicate
// emails surface as ErrEmailTaken via the store's unique constraint.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (User, error) {
	if s.store == nil {
		return User{}, fmt.Errorf("user store not configured")
	}
	name := strings.TrimSpace(req.Name)
	email := NormalizeEmail(req.Email)
	if name == "" || email == "" || req.Password == "" {
		return User{}, ErrMissingFields
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		return User{}, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.store.Create(ctx, CreateParams{
		Name:         name,
		Email:        email,
		PasswordHash: string(hashed),
		Phone:        strings.TrimSpace(req.Phone),
		Subscription: SubscriptionNone,
	})
	if err != nil {
		return User{}, err
	}
	s.logger.Info("user registered", slog.String("user_id", user.ID))
	return user, nil
}

// Authenticate checks email + password. Unknown emails and wrong passwords
// both return ErrInvalidCredentials so the response never reveals whether
// the email exists.
func (s *Service) Authenticate(ctx context.Context, email, password string) (User, error) {
	if s.store == nil {
		return User{}, fmt.Errorf("user store not configured")
	}
	email = NormalizeEmail(email)
	if email == "" || password == "" {
		return User{}, ErrMissingFields
	}
	user, err := s.store.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return User{}, ErrInvalidCredentials
		}
		return User{}, err
	}
	if user.PasswordHash == "" {
		// Google-only account, no password to compare.
		return User{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return User{}, ErrInvalidCredentials
	}
	return user, nil
}

// Get returns the user behind a verified session token subject.
func (s *Service) Get(ctx context.Context, id string) (User, error) {
	if s.store == nil {
		return User{}, fmt.Errorf("user store not configured")
	}
	return s.store.GetByID(ctx, id)
}

// EnsureGoogleUser maps a verified Google identity to a local account.
//
// A brand-new email creates a password-less account. An account already
// carrying the matching Google subject signs straight in. An existing
// password account only gets the Google subject attached when the caller
// confirmed linking (allowLink); otherwise ErrAccountLinkRequired, so an
// email match alone can never take over an account.
func (s *Service) EnsureGoogleUser(ctx context.Context, name, email, googleID string, allowLink bool) (User, error) {
	if s.store == nil {
		return User{}, fmt.Errorf("user store not configured")
	}
	email = NormalizeEmail(email)
	if email == "" || strings.TrimSpace(googleID) == "" {
		return User{}, ErrMissingFields
	}

	user, err := s.store.GetByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, ErrUserNotFound) {
			return User{}, err
		}
		created, err := s.store.Create(ctx, CreateParams{
			Name:         strings.TrimSpace(name),
			Email:        email,
			GoogleID:     googleID,
			Subscription: SubscriptionNone,
		})
		if err != nil {
			return User{}, err
		}
		s.logger.Info("google user created", slog.String("user_id", created.ID))
		return created, nil
	}

	if user.GoogleID == googleID {
		return user, nil
	}
	if user.GoogleID != "" {
		// Already bound to a different Google subject; consent cannot rebind.
		return User{}, ErrAccountLinkRequired
	}
	if !allowLink {
		return User{}, ErrAccountLinkRequired
	}
	linked, err := s.store.LinkGoogleID(ctx, user.ID, googleID)
	if err != nil {
		return User{}, err
	}
	s.logger.Info("google identity linked", slog.String("user_id", linked.ID))
	return linked, nil
}
