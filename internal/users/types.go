// Package users holds the user domain: registration, credential checks, and
// Google account mapping on top of the Postgres store.
package users

import (
	"errors"
	"strings"
	"time"
)

// Subscription tiers a user can hold.
const (
	SubscriptionNone    = "none"
	SubscriptionSilver  = "silver"
	SubscriptionGold    = "gold"
	SubscriptionDiamond = "diamond"
)

var (
	ErrMissingFields       = errors.New("name, email and password are required")
	ErrEmailTaken          = errors.New("user already exists")
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrUserNotFound        = errors.New("user not found")
	ErrAccountLinkRequired = errors.New("account exists with this email; explicit linking confirmation required")
)

// User is a registered account. PasswordHash never crosses the API boundary.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone,omitempty"`
	GoogleID     string    `json:"-"`
	Subscription string    `json:"subscription"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"-"`
	UpdatedAt    time.Time `json:"-"`
}

// PublicView is the user shape returned by the API: no hash, no timestamps.
type PublicView struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	Subscription string `json:"subscription"`
}

// Public returns the externally visible projection of the user.
func (u User) Public() PublicView {
	return PublicView{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		Subscription: u.Subscription,
	}
}

// RegisterRequest carries a password signup. Phone is optional.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phoneNo"`
}

// CreateParams is what the store persists for a new user.
type CreateParams struct {
	Name         string
	Email        string
	PasswordHash string
	Phone        string
	GoogleID     string
	Subscription string
}

// NormalizeEmail canonicalizes an email for the uniqueness key.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidSubscription reports whether tier is a known subscription value.
func ValidSubscription(tier string) bool {
	switch tier {
	case SubscriptionNone, SubscriptionSilver, SubscriptionGold, SubscriptionDiamond:
		return true
	}
	return false
}
