package engine_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/jrsteele09/go-token-engine/clients"
	"github.com/jrsteele09/go-token-engine/internal/config"
	"github.com/jrsteele09/go-token-engine/internal/engine"
	"github.com/jrsteele09/go-token-engine/internal/utils"
	"github.com/jrsteele09/go-token-engine/oauth2"
	"github.com/jrsteele09/go-token-engine/tenants"
	"github.com/jrsteele09/go-token-engine/users"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func testSeed() *engine.Seed {
	return &engine.Seed{
		Clients: []clients.Row{
			{
				ClientID:             "web",
				ClientSecret:         "{noop}web_secret",
				Scope:                utils.Ptr("all"),
				AuthorizedGrantTypes: utils.Ptr("password,refresh_token,captcha_password,authorization_code"),
				WebServerRedirectURI: utils.Ptr("https://app.example.com/callback"),
			},
		},
		Users: []engine.SeedUser{
			{User: users.User{ID: "1", Username: "alice", Roles: []string{"administrator"}}, Password: "secret"},
		},
		Tenants:     []tenants.Tenant{{ID: "000000", Name: "Default"}},
		Memberships: []tenants.Membership{{UserID: "1", TenantID: "000000", AccountType: "web"}},
	}
}

func newEngine(t *testing.T) *engine.Engine {
	t.Helper()
	t.Setenv("SIGNING_ALGORITHM", "HS256")
	t.Setenv("SIGNING_HMAC_SECRET", "0123456789abcdef0123456789abcdef")
	t.Setenv("OAUTH_ISSUER", "https://auth.example.com")
	cfg, err := config.Load("")
	require.NoError(t, err)

	e, err := engine.New(context.Background(), cfg, engine.WithSeed(testSeed()), engine.WithLogger(zerolog.Nop()))
	require.NoError(t, err)
	t.Cleanup(e.Close)
	return e
}

func passwordRequest() oauth2.TokenRequest {
	return oauth2.NewTokenRequest(oauth2.PasswordGrant, "web", nil, map[string]string{
		oauth2.ParamUsername:     "alice",
		oauth2.ParamPassword:     "secret",
		oauth2.ParamClientSecret: "web_secret",
	})
}

func TestEngine_PasswordGrantAndIntrospection(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t)

	at, err := e.Granter.Grant(ctx, oauth2.PasswordGrant, passwordRequest())
	require.NoError(t, err)
	require.Equal(t, "000000", at.AdditionalClaims["tenant_id"])
	require.Equal(t, "web", at.AdditionalClaims["account_type"])

	res, err := e.Introspector.Introspect(ctx, at.Value)
	require.NoError(t, err)
	require.True(t, res.Active)
	require.Equal(t, "alice", res.Username)
	require.Equal(t, "web", res.ClientID)

	refreshed, err := e.Granter.Grant(ctx, oauth2.RefreshTokenGrant, oauth2.NewTokenRequest(oauth2.RefreshTokenGrant, "web", nil, map[string]string{
		oauth2.ParamRefreshToken: at.RefreshToken.Value,
		oauth2.ParamClientSecret: "web_secret",
	}))
	require.NoError(t, err)

	res, err = e.Introspector.Introspect(ctx, at.Value)
	require.NoError(t, err)
	require.False(t, res.Active)
	res, err = e.Introspector.Introspect(ctx, refreshed.Value)
	require.NoError(t, err)
	require.True(t, res.Active)

	count, err := testutil.GatherAndCount(e.Registry, "oauth_token_grants_total")
	require.NoError(t, err)
	require.Equal(t, 2, count)
}

func TestEngine_CaptchaChallenge(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t)

	ch, err := e.NewCaptcha(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, ch.Key)

	params := map[string]string{
		oauth2.ParamUsername:     "alice",
		oauth2.ParamPassword:     "secret",
		oauth2.ParamClientSecret: "web_secret",
		oauth2.ParamCaptchaKey:   ch.Key,
		oauth2.ParamCaptchaCode:  ch.Code,
	}
	req := oauth2.NewTokenRequest(oauth2.CaptchaPasswordGrant, "web", nil, params)
	_, err = e.Granter.Grant(ctx, oauth2.CaptchaPasswordGrant, req)
	require.NoError(t, err)

	_, err = e.Granter.Grant(ctx, oauth2.CaptchaPasswordGrant, req)
	require.ErrorIs(t, err, oauth2.ErrInvalidCaptcha)
}

func TestEngine_AuthorizationCode(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t)

	p, err := users.NewRepoValidator(e.Users).LoadByUsername(ctx, "alice")
	require.NoError(t, err)
	ac, err := e.Codes.Issue(ctx, "web", "https://app.example.com/callback", []string{"all"}, p, nil)
	require.NoError(t, err)

	at, err := e.Granter.Grant(ctx, oauth2.AuthorizationCodeGrant, oauth2.NewTokenRequest(oauth2.AuthorizationCodeGrant, "web", nil, map[string]string{
		oauth2.ParamCode:         ac.Code,
		oauth2.ParamRedirectURI:  "https://app.example.com/callback",
		oauth2.ParamClientSecret: "web_secret",
	}))
	require.NoError(t, err)
	require.Equal(t, "alice", at.Subject)
}

func TestEngine_GeneratedRSAKey(t *testing.T) {
	ctx := context.Background()
	t.Setenv("OAUTH_AUDIENCE", "api")
	cfg, err := config.Load("")
	require.NoError(t, err)
	require.Equal(t, "RS256", cfg.GetSigningAlgorithm())

	e, err := engine.New(ctx, cfg, engine.WithSeed(testSeed()), engine.WithLogger(zerolog.Nop()))
	require.NoError(t, err)
	defer e.Close()

	at, err := e.Granter.Grant(ctx, oauth2.PasswordGrant, passwordRequest())
	require.NoError(t, err)
	require.Equal(t, "token-engine", at.KeyID)

	res, err := e.Introspector.Introspect(ctx, at.Value)
	require.NoError(t, err)
	require.True(t, res.Active)
}

func TestEngine_ConfigErrors(t *testing.T) {
	t.Setenv("SIGNING_ALGORITHM", "HS256")
	cfg, err := config.Load("")
	require.NoError(t, err)
	_, err = engine.New(context.Background(), cfg, engine.WithSeed(testSeed()), engine.WithLogger(zerolog.Nop()))
	require.Error(t, err)

	t.Setenv("SIGNING_ALGORITHM", "ES512")
	cfg, err = config.Load("")
	require.NoError(t, err)
	_, err = engine.New(context.Background(), cfg, engine.WithSeed(testSeed()), engine.WithLogger(zerolog.Nop()))
	require.Error(t, err)
}

func TestLoadSeed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
clients:
  - client_id: web
    client_secret: "{noop}web_secret"
    scope: all
    authorized_grant_types: password,refresh_token
    access_token_validity: 600
users:
  - id: "1"
    username: alice
    password: secret
    tenant_id: "000000"
    roles: [administrator]
`), 0o600))

	seed, err := engine.LoadSeed(path)
	require.NoError(t, err)
	require.Len(t, seed.Clients, 1)
	c := seed.Clients[0].Client()
	require.Equal(t, []string{"password", "refresh_token"}, c.GrantTypes)
	require.Equal(t, 600, c.AccessTokenValidity)
	require.Equal(t, "alice", seed.Users[0].Username)
	require.Equal(t, []string{"administrator"}, seed.Users[0].Roles)
	require.Equal(t, "secret", seed.Users[0].Password)

	t.Setenv("STORE_SEED_FILE", path)
	t.Setenv("SIGNING_ALGORITHM", "HS256")
	t.Setenv("SIGNING_HMAC_SECRET", "0123456789abcdef0123456789abcdef")
	cfg, err := config.Load("")
	require.NoError(t, err)
	e, err := engine.New(context.Background(), cfg, engine.WithLogger(zerolog.Nop()))
	require.NoError(t, err)
	defer e.Close()
	_, err = e.Granter.Grant(context.Background(), oauth2.PasswordGrant, passwordRequest())
	require.NoError(t, err)
}
