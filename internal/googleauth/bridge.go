// Package googleauth exchanges Google authorization codes and verifies the
// resulting identity tokens.
package googleauth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/idtoken"

	"github.com/teampulse/teampulse/internal/config"
)

// ErrFederation covers every provider-side failure: code exchange, missing
// id_token, signature or audience rejection.
var ErrFederation = errors.New("google authentication failed")

// Tokens is the provider token pair from a code exchange. The access token
// is forwarded to the caller and never retained.
type Tokens struct {
	AccessToken string
	IDToken     string
}

// Identity is the verified subject of a Google ID token.
type Identity struct {
	Subject string
	Email   string
	Name    string
}

type codeExchanger interface {
	Exchange(ctx context.Context, code string, opts ...oauth2.AuthCodeOption) (*oauth2.Token, error)
}

type tokenValidator func(ctx context.Context, rawIDToken, audience string) (*idtoken.Payload, error)

// Bridge talks to Google's token endpoint and public keys.
type Bridge struct {
	audience  string
	exchanger codeExchanger
	validate  tokenValidator
	logger    *slog.Logger
}

// NewBridge builds the bridge from config. The redirect URL is "postmessage"
// for SPA popup flows unless configured otherwise.
func NewBridge(log *slog.Logger, cfg config.GoogleConfig) *Bridge {
	if log == nil {
		log = slog.Default()
	}
	conf := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURL,
		Scopes: []string{
			"https://www.googleapis.com/auth/userinfo.email",
			"https://www.googleapis.com/auth/userinfo.profile",
		},
		Endpoint: google.Endpoint,
	}
	return &Bridge{
		audience:  cfg.ClientID,
		exchanger: conf,
		validate:  idtoken.Validate,
		logger:    log.With(slog.String("service", "googleauth")),
	}
}

// ExchangeCode trades an authorization code for the provider token pair.
func (b *Bridge) ExchangeCode(ctx context.Context, code string) (Tokens, error) {
	if strings.TrimSpace(code) == "" {
		return Tokens{}, fmt.Errorf("%w: authorization code is required", ErrFederation)
	}
	token, err := b.exchanger.Exchange(ctx, code)
	if err != nil {
		b.logger.Warn("code exchange failed", slog.Any("error", err))
		return Tokens{}, fmt.Errorf("%w: code exchange", ErrFederation)
	}
	rawID, _ := token.Extra("id_token").(string)
	if rawID == "" {
		return Tokens{}, fmt.Errorf("%w: no id_token in exchange response", ErrFederation)
	}
	return Tokens{AccessToken: token.AccessToken, IDToken: rawID}, nil
}

// VerifyIdentity checks the ID token's signature and audience against
// Google's public keys and returns the embedded identity.
func (b *Bridge) VerifyIdentity(ctx context.Context, rawIDToken string) (Identity, error) {
	payload, err := b.validate(ctx, rawIDToken, b.audience)
	if err != nil {
		b.logger.Warn("id token rejected", slog.Any("error", err))
		return Identity{}, fmt.Errorf("%w: id token verification", ErrFederation)
	}
	email, _ := payload.Claims["email"].(string)
	name, _ := payload.Claims["name"].(string)
	if payload.Subject == "" || email == "" {
		return Identity{}, fmt.Errorf("%w: id token lacks subject or email", ErrFederation)
	}
	return Identity{Subject: payload.Subject, Email: email, Name: name}, nil
}
