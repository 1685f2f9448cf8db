package enhance_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/go-token-engine/oauth2"
	"github.com/jrsteele09/go-token-engine/tenants"
	"github.com/jrsteele09/go-token-engine/token/enhance"
	"github.com/jrsteele09/go-token-engine/token/keys"
	"github.com/jrsteele09/go-token-engine/users"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const (
	issuer   = "https://auth.example.com"
	audience = "api"
)

var issuedAt = time.Now().Truncate(time.Second)

type mockEnricher struct {
	mock.Mock
}

func (m *mockEnricher) Enrich(ctx context.Context, userID string) (tenants.Identity, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(tenants.Identity), args.Error(1)
}

func newSigner(t *testing.T) *keys.KeyPairSigner {
	t.Helper()
	kp, err := keys.GenerateRSAKeyPair("kid-test", 2048)
	require.NoError(t, err)
	return keys.NewKeyPairSigner(kp)
}

func draft() enhance.Draft {
	return enhance.NewDraft("jti-1", "sword", "alice", []string{"all", "read"}, issuedAt, issuedAt.Add(time.Hour))
}

func userAuth(p *users.Principal) oauth2.Authorization {
	return oauth2.Authorization{GrantType: oauth2.PasswordGrant, ClientID: "sword", Scopes: []string{"all"}, Principal: p}
}

func TestDraft_IsImmutable(t *testing.T) {
	d := draft()
	withClaim := d.WithClaims(map[string]any{"a": 1})
	require.Empty(t, d.Claims())
	require.Equal(t, 1, withClaim.Claims()["a"])

	claims := withClaim.Claims()
	claims["a"] = 2
	require.Equal(t, 1, withClaim.Claims()["a"])

	scopes := d.Scopes()
	scopes[0] = "changed"
	require.Equal(t, []string{"all", "read"}, d.Scopes())

	rt := &oauth2.RefreshToken{Value: "rt"}
	withRefresh := d.WithRefreshToken(rt)
	rt.Value = "mutated"
	require.Equal(t, "rt", withRefresh.RefreshToken().Value)
	require.Nil(t, d.RefreshToken())
}

func TestClaimsInjector_UserToken(t *testing.T) {
	injector := enhance.NewClaimsInjector(enhance.WithLicense("test license"))
	p := &users.Principal{
		ID: "42", Username: "alice", Nickname: "Alice", TenantID: "000000",
		Roles: []string{"admin", "user"}, AccountType: "web",
	}

	out, err := injector.Enhance(context.Background(), draft(), userAuth(p))
	require.NoError(t, err)
	require.Equal(t, map[string]any{
		"client_id":    "sword",
		"user_id":      "42",
		"account":      "alice",
		"user_name":    "alice",
		"nick_name":    "Alice",
		"tenant_id":    "000000",
		"role_name":    "admin,user",
		"account_type": "web",
		"license":      "test license",
	}, out.Claims())
}

func TestClaimsInjector_ClientToken(t *testing.T) {
	injector := enhance.NewClaimsInjector()
	auth := oauth2.Authorization{GrantType: oauth2.ClientCredentialsGrant, ClientID: "svc"}

	out, err := injector.Enhance(context.Background(), draft(), auth)
	require.NoError(t, err)
	claims := out.Claims()
	require.Equal(t, "svc", claims["client_id"])
	require.Equal(t, enhance.ClientAccountType, claims["account_type"])
	require.Equal(t, enhance.DefaultLicense, claims["license"])
	require.NotContains(t, claims, "user_id")
}

func TestClaimsInjector_Enrichment(t *testing.T) {
	ctx := context.Background()

	t.Run("fills missing tenant", func(t *testing.T) {
		e := &mockEnricher{}
		e.On("Enrich", mock.Anything, "42").Return(tenants.Identity{TenantID: "t-9", AccountType: "app"}, nil).Once()
		injector := enhance.NewClaimsInjector(enhance.WithEnricher(e))

		out, err := injector.Enhance(ctx, draft(), userAuth(&users.Principal{ID: "42", Username: "alice"}))
		require.NoError(t, err)
		require.Equal(t, "t-9", out.Claims()["tenant_id"])
		require.Equal(t, "app", out.Claims()["account_type"])
		e.AssertExpectations(t)
	})

	t.Run("not consulted when principal is complete", func(t *testing.T) {
		e := &mockEnricher{}
		injector := enhance.NewClaimsInjector(enhance.WithEnricher(e))
		p := &users.Principal{ID: "42", Username: "alice", TenantID: "t-1", AccountType: "web"}

		_, err := injector.Enhance(ctx, draft(), userAuth(p))
		require.NoError(t, err)
		e.AssertNotCalled(t, "Enrich", mock.Anything, mock.Anything)
	})

	t.Run("error propagates", func(t *testing.T) {
		e := &mockEnricher{}
		boom := errors.New("tenant service down")
		e.On("Enrich", mock.Anything, "42").Return(tenants.Identity{}, boom)
		injector := enhance.NewClaimsInjector(enhance.WithEnricher(e))

		_, err := injector.Enhance(ctx, draft(), userAuth(&users.Principal{ID: "42", Username: "alice"}))
		require.ErrorIs(t, err, boom)
	})
}

func TestPipeline_SignsInjectedClaims(t *testing.T) {
	signer := newSigner(t)
	p := enhance.NewPipeline(enhance.NewClaimsInjector(), enhance.NewJWTSigner(signer, issuer, audience))
	d := draft().WithRefreshToken(&oauth2.RefreshToken{Value: "rt-1"})

	at, err := p.Enhance(context.Background(), d, userAuth(&users.Principal{ID: "42", Username: "alice", Roles: []string{"admin"}}))
	require.NoError(t, err)
	require.Equal(t, "kid-test", at.KeyID)
	require.Equal(t, oauth2.BearerTokenType, at.TokenType)
	require.Equal(t, "rt-1", at.RefreshToken.Value)
	require.Equal(t, "alice", at.AdditionalClaims["user_name"])

	parsed, err := jwt.Parse(at.Value, signer.GetVerificationKey, jwt.WithIssuer(issuer), jwt.WithAudience(audience))
	require.NoError(t, err)
	require.Equal(t, "kid-test", parsed.Header["kid"])

	claims := parsed.Claims.(jwt.MapClaims)
	require.Equal(t, "alice", claims["sub"])
	require.Equal(t, "all read", claims["scope"])
	require.Equal(t, "sword", claims["client_id"])
	require.Equal(t, "jti-1", claims["jti"])
	require.Equal(t, "admin", claims["role_name"])
	require.Equal(t, float64(issuedAt.Add(time.Hour).Unix()), claims["exp"])
}

func TestPipeline_CustomClaimsCannotOverrideRegistered(t *testing.T) {
	signer := newSigner(t)
	s := enhance.NewJWTSigner(signer, issuer, audience)
	at, err := s.Sign(draft().WithClaims(map[string]any{"sub": "mallory", "iss": "evil"}))
	require.NoError(t, err)

	parsed, err := jwt.Parse(at.Value, signer.GetVerificationKey)
	require.NoError(t, err)
	claims := parsed.Claims.(jwt.MapClaims)
	require.Equal(t, "alice", claims["sub"])
	require.Equal(t, issuer, claims["iss"])
}

func TestPipeline_EnrichmentFailureStopsSigning(t *testing.T) {
	e := &mockEnricher{}
	e.On("Enrich", mock.Anything, mock.Anything).Return(tenants.Identity{}, errors.New("down"))
	p := enhance.NewPipeline(
		enhance.NewClaimsInjector(enhance.WithEnricher(e)),
		enhance.NewJWTSigner(newSigner(t), issuer, audience),
	)
	at, err := p.Enhance(context.Background(), draft(), userAuth(&users.Principal{ID: "1", Username: "alice"}))
	require.Error(t, err)
	require.Nil(t, at)
}
