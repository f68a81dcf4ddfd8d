// Copyright (C) 2025 TeamSync Labs (dev@teamsync.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package auth provides token issuing and validation for TeamSync services.
//
// The Provider interface decouples handlers and middleware from the token
// mechanism. The default HMACProvider signs compact JSON claims with
// HMAC-SHA256; deployments fronted by an identity provider can substitute
// their own implementation without touching the HTTP layer.
package auth

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrUnauthorized is returned when authentication fails. Implementations
// should wrap it with context:
//
//	return nil, fmt.Errorf("token expired: %w", auth.ErrUnauthorized)
var ErrUnauthorized = errors.New("unauthorized")

// Identity is the authenticated caller attached to a request.
type Identity struct {
	// UserID is the unique identifier for the authenticated user.
	// Never empty for a validated identity.
	UserID string `json:"uid"`

	// Email is the user's email address. May be empty.
	Email string `json:"email,omitempty"`

	// Name is the user's display name. May be empty.
	Name string `json:"name,omitempty"`
}

// Provider issues and validates bearer tokens.
//
// Implementations must be safe for concurrent use by multiple goroutines.
type Provider interface {
	// Issue creates a token for the identity, valid for ttl.
	Issue(identity Identity, ttl time.Duration) (string, error)

	// Validate checks the token and returns the identity it carries.
	// Returns an error wrapping ErrUnauthorized for any invalid, expired,
	// or tampered token.
	Validate(ctx context.Context, token string) (*Identity, error)
}

// claims is the signed token payload.
type claims struct {
	Identity
	ExpiresAt int64 `json:"exp"`
}

// HMACProvider signs claims with HMAC-SHA256. Tokens have the shape
// base64url(claims) + "." + base64url(signature).
type HMACProvider struct {
	secret []byte
	now    func() time.Time
}

var _ Provider = (*HMACProvider)(nil)

// NewHMACProvider builds a provider around a shared secret. The secret must
// be non-empty; it is the only thing standing between a caller and an
// arbitrary identity.
func NewHMACProvider(secret []byte) (*HMACProvider, error) {
	if len(secret) == 0 {
		return nil, errors.New("auth: signing secret must not be empty")
	}
	return &HMACProvider{secret: secret, now: time.Now}, nil
}

// Issue signs the identity into a bearer token.
func (p *HMACProvider) Issue(identity Identity, ttl time.Duration) (string, error) {
	if identity.UserID == "" {
		return "", errors.New("auth: identity requires a user id")
	}
	payload, err := json.Marshal(claims{
		Identity:  identity,
		ExpiresAt: p.now().Add(ttl).Unix(),
	})
	if err != nil {
		return "", fmt.Errorf("auth: marshal claims: %w", err)
	}
	body := base64.RawURLEncoding.EncodeToString(payload)
	return body + "." + p.sign(body), nil
}

// Validate verifies the signature and expiry and returns the identity.
func (p *HMACProvider) Validate(_ context.Context, token string) (*Identity, error) {
	body, sig, ok := strings.Cut(token, ".")
	if !ok || body == "" {
		return nil, fmt.Errorf("malformed token: %w", ErrUnauthorized)
	}
	if subtle.ConstantTimeCompare([]byte(p.sign(body)), []byte(sig)) != 1 {
		return nil, fmt.Errorf("bad signature: %w", ErrUnauthorized)
	}
	payload, err := base64.RawURLEncoding.DecodeString(body)
	if err != nil {
		return nil, fmt.Errorf("malformed token body: %w", ErrUnauthorized)
	}
	var c claims
	if err := json.Unmarshal(payload, &c); err != nil {
		return nil, fmt.Errorf("malformed claims: %w", ErrUnauthorized)
	}
	if c.UserID == "" {
		return nil, fmt.Errorf("claims missing user id: %w", ErrUnauthorized)
	}
	if p.now().Unix() >= c.ExpiresAt {
		return nil, fmt.Errorf("token expired: %w", ErrUnauthorized)
	}
	identity := c.Identity
	return &identity, nil
}

func (p *HMACProvider) sign(body string) string {
	mac := hmac.New(sha256.New, p.secret)
	mac.Write([]byte(body))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// NopProvider accepts every token and returns a fixed local identity. It
// exists for local development without auth infrastructure; never deploy it.
type NopProvider struct{}

var _ Provider = (*NopProvider)(nil)

// Issue returns a static placeholder token.
func (NopProvider) Issue(Identity, time.Duration) (string, error) {
	return "local-token", nil
}

// Validate always succeeds with the local user.
func (NopProvider) Validate(context.Context, string) (*Identity, error) {
	return &Identity{UserID: "local-user", Name: "Local User"}, nil
}
