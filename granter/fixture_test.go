package granter_test

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/go-token-engine/captcha"
	"github.com/jrsteele09/go-token-engine/clients"
	fakeclientrepo "github.com/jrsteele09/go-token-engine/clients/fakerepo"
	"github.com/jrsteele09/go-token-engine/granter"
	"github.com/jrsteele09/go-token-engine/oauth2"
	"github.com/jrsteele09/go-token-engine/token"
	"github.com/jrsteele09/go-token-engine/token/code"
	"github.com/jrsteele09/go-token-engine/token/enhance"
	"github.com/jrsteele09/go-token-engine/token/keys"
	"github.com/jrsteele09/go-token-engine/users"
	fakeuserrepo "github.com/jrsteele09/go-token-engine/users/repofake"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const (
	issuer   = "https://auth.example.com"
	audience = "api"

	webSecret     = "web_secret"
	swordSecret   = "sword_secret"
	serviceSecret = "service_secret"
	callbackURI   = "https://app.example.com/callback"

	alicePassword = "secret"
)

// testFixture holds all test dependencies
type testFixture struct {
	clients  *fakeclientrepo.FakeClientSource
	userRepo *fakeuserrepo.FakeUserRepo
	captchas *captcha.MemorySource
	codes    *code.MemoryStore
	tokens   *token.MemoryStore
	signer   *keys.HMACSigner
	metrics  *granter.Metrics
	logs     *syncBuffer
	clock    *clock
	granter  *granter.TokenGranter
}

type clock struct {
	now time.Time
	mu  sync.RWMutex
}

func (c *clock) Now() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type syncBuffer struct {
	buf bytes.Buffer
	mu  sync.Mutex
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type mockValidator struct {
	mock.Mock
}

func (m *mockValidator) Authenticate(ctx context.Context, username, password string) (*users.Principal, error) {
	args := m.Called(ctx, username, password)
	p, _ := args.Get(0).(*users.Principal)
	return p, args.Error(1)
}

type fixtureConfig struct {
	validator    users.CredentialValidator
	noValidator  bool
	granterOpts  []granter.Option
	withUserLoad bool
}

type fixtureOption func(*fixtureConfig)

func withValidator(v users.CredentialValidator) fixtureOption {
	return func(c *fixtureConfig) { c.validator = v }
}

func withoutValidator() fixtureOption {
	return func(c *fixtureConfig) { c.noValidator = true }
}

func withGranterOptions(opts ...granter.Option) fixtureOption {
	return func(c *fixtureConfig) { c.granterOpts = append(c.granterOpts, opts...) }
}

func withUserReload() fixtureOption {
	return func(c *fixtureConfig) { c.withUserLoad = true }
}

// setupTestFixture creates a new test fixture with all dependencies
func setupTestFixture(t *testing.T, opts ...fixtureOption) *testFixture {
	t.Helper()
	var cfg fixtureConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	f := &testFixture{
		clients:  fakeclientrepo.NewFakeClientSource(),
		userRepo: fakeuserrepo.NewFakeUserRepo(),
		captchas: captcha.NewMemorySource(time.Minute),
		tokens:   token.NewMemoryStore(),
		signer:   keys.NewHMACSigner("test-key", "0123456789abcdef0123456789abcdef"),
		logs:     &syncBuffer{},
		clock:    &clock{now: time.Now().Truncate(time.Second)},
	}
	f.codes = code.NewMemoryStore(f.clock.Now)
	f.registerClients(t)
	f.registerUsers(t)

	metrics, err := granter.NewMetrics(prometheus.NewRegistry())
	require.NoError(t, err)
	f.metrics = metrics

	repoValidator := users.NewRepoValidator(f.userRepo)
	var validator users.CredentialValidator = repoValidator
	if cfg.validator != nil {
		validator = cfg.validator
	}
	if cfg.noValidator {
		validator = nil
	}

	granterOpts := []granter.Option{
		granter.WithNowFunc(f.clock.Now),
		granter.WithMetrics(metrics),
		granter.WithLogger(zerolog.New(f.logs)),
	}
	if cfg.withUserLoad {
		granterOpts = append(granterOpts, granter.WithUserLoader(repoValidator))
	}
	granterOpts = append(granterOpts, cfg.granterOpts...)

	g, err := granter.New(granter.Config{
		Clients:   clients.NewStore(f.clients),
		Validator: validator,
		Codes:     f.codes,
		Captchas:  f.captchas,
		Tokens:    f.tokens,
		Enhancer: enhance.NewPipeline(
			enhance.NewClaimsInjector(),
			enhance.NewJWTSigner(f.signer, issuer, audience),
		),
	}, granterOpts...)
	require.NoError(t, err)
	f.granter = g
	return f
}

func (f *testFixture) registerClients(t *testing.T) {
	t.Helper()
	serviceHash, err := bcrypt.GenerateFromPassword([]byte(serviceSecret), bcrypt.MinCost)
	require.NoError(t, err)

	f.clients.Register(&clients.Client{
		ID:         "web",
		SecretHash: "{noop}" + webSecret,
		GrantTypes: []string{"password", "refresh_token", "captcha_password"},
		Scopes:     []string{"all", "read"},
	})
	f.clients.Register(&clients.Client{
		ID:                  "sword",
		SecretHash:          "{noop}" + swordSecret,
		GrantTypes:          []string{"authorization_code", "refresh_token", "implicit", "client_credentials", "password", "captcha_password"},
		Scopes:              []string{"all", "read", "write"},
		RedirectURIs:        []string{callbackURI},
		AccessTokenValidity: 600,
	})
	f.clients.Register(&clients.Client{
		ID:           "spa",
		GrantTypes:   []string{"authorization_code", "implicit", "refresh_token"},
		Scopes:       []string{"read"},
		RedirectURIs: []string{callbackURI},
	})
	f.clients.Register(&clients.Client{
		ID:         "service",
		SecretHash: string(serviceHash),
		GrantTypes: []string{"client_credentials"},
		Scopes:     []string{"internal"},
	})
}

func (f *testFixture) registerUsers(t *testing.T) {
	t.Helper()
	for _, u := range []users.User{
		{ID: "1", Username: "alice", Nickname: "Alice", TenantID: "000000", Roles: []string{"administrator"}, AccountType: "web"},
		{ID: "2", Username: "bob", Blocked: true},
		{ID: "3", Username: "carol", Locked: true},
	} {
		hash, err := bcrypt.GenerateFromPassword([]byte(alicePassword), bcrypt.MinCost)
		require.NoError(t, err)
		u.PasswordHash = string(hash)
		require.NoError(t, f.userRepo.Upsert(context.Background(), &u))
	}
}

func (f *testFixture) grant(grantType oauth2.GrantType, clientID, secret string, scopes []string, params map[string]string, opts ...oauth2.TokenRequestOption) (*oauth2.AccessToken, error) {
	opts = append(opts, oauth2.WithClientSecret(secret))
	req := oauth2.NewTokenRequest(grantType, clientID, scopes, params, opts...)
	return f.granter.Grant(context.Background(), grantType, req)
}

func (f *testFixture) passwordGrant(username, password string) (*oauth2.AccessToken, error) {
	return f.grant(oauth2.PasswordGrant, "web", webSecret, nil, map[string]string{
		oauth2.ParamUsername: username,
		oauth2.ParamPassword: password,
	})
}

func (f *testFixture) refreshGrant(clientID, secret, refreshToken string, scopes ...string) (*oauth2.AccessToken, error) {
	return f.grant(oauth2.RefreshTokenGrant, clientID, secret, scopes, map[string]string{
		oauth2.ParamRefreshToken: refreshToken,
	})
}

func (f *testFixture) claims(t *testing.T, at *oauth2.AccessToken) jwt.MapClaims {
	t.Helper()
	parsed, err := jwt.Parse(at.Value, f.signer.GetVerificationKey, jwt.WithIssuer(issuer), jwt.WithAudience(audience))
	require.NoError(t, err)
	return parsed.Claims.(jwt.MapClaims)
}

func (f *testFixture) issueCode(t *testing.T, clientID, redirectURI string, scopes ...string) code.AuthorizationCode {
	t.Helper()
	p := &users.Principal{ID: "1", Username: "alice", TenantID: "000000", AccountType: "web"}
	ac, err := code.NewIssuer(f.codes, code.WithNowFunc(f.clock.Now)).
		Issue(context.Background(), clientID, redirectURI, scopes, p, map[string]string{"state": "xyz"})
	require.NoError(t, err)
	return ac
}
