// Package granter issues OAuth2 access tokens. A TokenGranter dispatches each token
// request to the strategy registered for its grant type.
package granter

import (
	"context"
	"fmt"
	"time"

	"github.com/jrsteele09/go-token-engine/captcha"
	"github.com/jrsteele09/go-token-engine/clients"
	"github.com/jrsteele09/go-token-engine/oauth2"
	"github.com/jrsteele09/go-token-engine/token"
	"github.com/jrsteele09/go-token-engine/token/code"
	"github.com/jrsteele09/go-token-engine/token/enhance"
	"github.com/jrsteele09/go-token-engine/token/refresh"
	"github.com/jrsteele09/go-token-engine/users"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ClientLoader resolves the client a request is made for.
type ClientLoader interface {
	LoadClient(ctx context.Context, clientID string) (*clients.Client, error)
}

// Enhancer turns a draft into a signed token.
type Enhancer interface {
	Enhance(ctx context.Context, draft enhance.Draft, auth oauth2.Authorization) (*oauth2.AccessToken, error)
}

// Config holds the collaborators of a TokenGranter. Validator is optional: without it
// the password and captcha_password grants are not offered, since captcha_password
// authenticates the user through the same validator once the captcha passes.
type Config struct {
	Clients   ClientLoader
	Validator users.CredentialValidator
	Codes     code.Store
	Captchas  captcha.Source
	Tokens    token.Store
	Enhancer  Enhancer
}

type TokenGranter struct {
	clients    ClientLoader
	strategies []Strategy
	metrics    *Metrics
	logger     zerolog.Logger
	nowFunc    func() time.Time
}

type options struct {
	logger          zerolog.Logger
	metrics         *Metrics
	nowFunc         func() time.Time
	reuseRefresh    bool
	loader          users.Loader
	accessValidity  time.Duration
	refreshValidity time.Duration
	refreshLength   int
}

type Option func(*options)

func WithLogger(l zerolog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

func WithMetrics(m *Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

func WithNowFunc(now func() time.Time) Option {
	return func(o *options) {
		o.nowFunc = now
	}
}

// WithReuseRefreshToken keeps refresh tokens across refreshes instead of rotating them.
func WithReuseRefreshToken(reuse bool) Option {
	return func(o *options) {
		o.reuseRefresh = reuse
	}
}

// WithUserLoader reloads the user on every refresh so disabled accounts stop refreshing.
func WithUserLoader(l users.Loader) Option {
	return func(o *options) {
		o.loader = l
	}
}

// WithTokenValidity sets the lifetimes used for clients that do not set their own.
func WithTokenValidity(access, refresh time.Duration) Option {
	return func(o *options) {
		if access > 0 {
			o.accessValidity = access
		}
		if refresh > 0 {
			o.refreshValidity = refresh
		}
	}
}

// WithRefreshTokenLength sets the number of random bytes in refresh tokens.
func WithRefreshTokenLength(n int) Option {
	return func(o *options) {
		o.refreshLength = n
	}
}

// New builds the granter and its strategy list. The list is fixed for the life of the
// granter.
func New(cfg Config, opts ...Option) (*TokenGranter, error) {
	switch {
	case cfg.Clients == nil:
		return nil, errors.New("granter: client loader is required")
	case cfg.Tokens == nil:
		return nil, errors.New("granter: token store is required")
	case cfg.Enhancer == nil:
		return nil, errors.New("granter: enhancer is required")
	case cfg.Codes == nil:
		return nil, errors.New("granter: authorization code store is required")
	case cfg.Validator != nil && cfg.Captchas == nil:
		return nil, errors.New("granter: captcha source is required when a credential validator is configured")
	}

	o := options{
		logger:          log.Logger,
		nowFunc:         time.Now,
		accessValidity:  DefaultAccessTokenValidity,
		refreshValidity: DefaultRefreshTokenValidity,
	}
	for _, opt := range opts {
		opt(&o)
	}

	services := &tokenServices{
		tokens:          cfg.Tokens,
		enhancer:        cfg.Enhancer,
		refreshTokens:   refresh.NewGenerator(o.refreshLength),
		accessValidity:  o.accessValidity,
		refreshValidity: o.refreshValidity,
		reuseRefresh:    o.reuseRefresh,
		nowFunc:         o.nowFunc,
	}

	strategies := []Strategy{
		newAuthorizationCodeStrategy(services, cfg.Codes),
		newRefreshTokenStrategy(services, cfg.Tokens, o.loader),
		newImplicitStrategy(services),
		newClientCredentialsStrategy(services),
	}
	if cfg.Validator != nil {
		strategies = append(strategies,
			newPasswordStrategy(services, cfg.Validator),
			newCaptchaPasswordStrategy(services, cfg.Validator, cfg.Captchas),
		)
	}

	return &TokenGranter{
		clients:    cfg.Clients,
		strategies: strategies,
		metrics:    o.metrics,
		logger:     o.logger,
		nowFunc:    o.nowFunc,
	}, nil
}

// GrantTypes lists the supported grant types in dispatch order.
func (g *TokenGranter) GrantTypes() []oauth2.GrantType {
	out := make([]oauth2.GrantType, len(g.strategies))
	for i, s := range g.strategies {
		out[i] = s.GrantType()
	}
	return out
}

// Grant issues a token for req using the strategy registered for grantType. No token is
// returned alongside an error.
func (g *TokenGranter) Grant(ctx context.Context, grantType oauth2.GrantType, req oauth2.TokenRequest) (*oauth2.AccessToken, error) {
	start := g.nowFunc()
	at, err := g.grant(ctx, grantType, req)

	outcome := OutcomeSuccess
	event := g.logger.Info()
	if err != nil {
		outcome = oauth2.ErrorCode(err)
		event = g.logger.Warn().Err(err)
		if outcome == oauth2.CodeServerError {
			event = g.logger.Error().Err(err)
		}
	}
	elapsed := g.nowFunc().Sub(start)
	label := string(grantType)
	if g.strategyFor(grantType) == nil {
		label = "unsupported"
	}
	g.metrics.observe(label, outcome, elapsed)
	event.
		Str("grant_type", string(grantType)).
		Str("client_id", req.ClientID()).
		Str("outcome", outcome).
		Dur("elapsed", elapsed).
		Msg("token request")

	if err != nil {
		return nil, err
	}
	return at, nil
}

func (g *TokenGranter) grant(ctx context.Context, grantType oauth2.GrantType, req oauth2.TokenRequest) (*oauth2.AccessToken, error) {
	strategy := g.strategyFor(grantType)
	if strategy == nil {
		return nil, fmt.Errorf("%q: %w", grantType, oauth2.ErrUnsupportedGrantType)
	}
	if req.GrantType() != "" && req.GrantType() != grantType {
		return nil, fmt.Errorf("request is for %q, not %q: %w", req.GrantType(), grantType, oauth2.ErrInvalidRequest)
	}

	client, err := g.clients.LoadClient(ctx, req.ClientID())
	if err != nil {
		return nil, err
	}
	if !client.AllowsGrantType(grantType) {
		return nil, fmt.Errorf("client %s, grant type %q: %w", client.ID, grantType, oauth2.ErrClientGrantTypeNotAllowed)
	}
	if grantType != oauth2.ImplicitGrant && !client.CheckSecret(req.ClientSecret()) {
		return nil, fmt.Errorf("client %s: %w", client.ID, oauth2.ErrInvalidClient)
	}
	if requested := req.Scopes(); len(requested) > 0 {
		if _, err := client.ApproveScopes(requested); err != nil {
			return nil, err
		}
	}

	return strategy.Grant(ctx, req, client)
}

func (g *TokenGranter) strategyFor(grantType oauth2.GrantType) Strategy {
	for _, s := range g.strategies {
		if s.Supports(grantType) {
			return s
		}
	}
	return nil
}
