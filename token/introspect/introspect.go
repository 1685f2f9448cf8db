// Package introspect reports whether an issued access token is still active (RFC 7662).
package introspect

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jrsteele09/go-token-engine/oauth2"
	"github.com/jrsteele09/go-token-engine/token"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Result is the introspection response. Only Active is set for inactive tokens.
type Result struct {
	Active    bool           `json:"active"`
	Scope     string         `json:"scope,omitempty"`
	ClientID  string         `json:"client_id,omitempty"`
	Username  string         `json:"username,omitempty"`
	TokenType string         `json:"token_type,omitempty"`
	Exp       int64          `json:"exp,omitempty"`
	Iat       int64          `json:"iat,omitempty"`
	Sub       string         `json:"sub,omitempty"`
	Jti       string         `json:"jti,omitempty"`
	Claims    map[string]any `json:"-"`
}

// Verifier checks a raw JWT's signature, issuer and audience and returns its claims.
type Verifier interface {
	Verify(ctx context.Context, raw string) (map[string]any, error)
}

// Introspector checks the signature first, then that the token is still in the store.
type Introspector struct {
	verifier Verifier
	store    token.Store
	nowFunc  func() time.Time
	logger   zerolog.Logger
}

type Option func(*Introspector)

func WithNowFunc(now func() time.Time) Option {
	return func(i *Introspector) {
		i.nowFunc = now
	}
}

func WithLogger(l zerolog.Logger) Option {
	return func(i *Introspector) {
		i.logger = l
	}
}

func New(verifier Verifier, store token.Store, opts ...Option) *Introspector {
	i := &Introspector{
		verifier: verifier,
		store:    store,
		nowFunc:  time.Now,
		logger:   log.Logger,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Introspect never returns an error for a bad or unknown token, only for store failures.
func (i *Introspector) Introspect(ctx context.Context, raw string) (*Result, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return &Result{Active: false}, nil
	}
	claims, err := i.verifier.Verify(ctx, raw)
	if err != nil {
		i.logger.Debug().Err(err).Msg("token failed verification")
		return &Result{Active: false}, nil
	}
	stored, err := i.store.ReadAccessToken(ctx, raw)
	if errors.Is(err, token.ErrNotFound) {
		return &Result{Active: false}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("[Introspector.Introspect] read token: %w", err)
	}
	if stored.Expired(i.nowFunc()) {
		return &Result{Active: false}, nil
	}

	res := &Result{
		Active:    true,
		Scope:     oauth2.JoinScope(stored.Scopes),
		ClientID:  stored.ClientID,
		TokenType: stored.TokenType,
		Exp:       stored.ExpiresAt.Unix(),
		Sub:       stored.Subject,
		Jti:       stored.ID,
		Claims:    claims,
	}
	if name, ok := claims["user_name"].(string); ok {
		res.Username = name
	}
	if iat, ok := claims["iat"].(float64); ok {
		res.Iat = int64(iat)
	}
	return res, nil
}
