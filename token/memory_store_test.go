package token_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jrsteele09/go-token-engine/oauth2"
	"github.com/jrsteele09/go-token-engine/token"
	"github.com/jrsteele09/go-token-engine/users"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

var testNow = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

func issued(value, refreshValue string) *oauth2.AccessToken {
	t := &oauth2.AccessToken{
		ID:        "jti-" + value,
		Value:     value,
		TokenType: oauth2.BearerTokenType,
		ExpiresAt: testNow.Add(time.Hour),
		Scopes:    []string{"all"},
		ClientID:  "sword",
		Subject:   "alice",
	}
	if refreshValue != "" {
		t.RefreshToken = &oauth2.RefreshToken{Value: refreshValue, ExpiresAt: testNow.Add(24 * time.Hour)}
	}
	return t
}

func aliceAuth() oauth2.Authorization {
	return oauth2.Authorization{
		GrantType: oauth2.PasswordGrant,
		ClientID:  "sword",
		Scopes:    []string{"all"},
		Principal: &users.Principal{ID: "1", Username: "alice"},
	}
}

func TestMemoryStore_SaveAndRead(t *testing.T) {
	ctx := context.Background()
	s := token.NewMemoryStore()
	require.NoError(t, s.Save(ctx, issued("at-1", "rt-1"), aliceAuth()))

	at, err := s.ReadAccessToken(ctx, "at-1")
	require.NoError(t, err)
	require.Equal(t, "rt-1", at.RefreshToken.Value)

	auth, err := s.ReadAuthorization(ctx, "at-1")
	require.NoError(t, err)
	require.Equal(t, "alice", auth.Principal.Username)

	rec, err := s.ReadRefreshToken(ctx, "rt-1")
	require.NoError(t, err)
	require.Equal(t, "at-1", rec.AccessToken)
	require.Equal(t, oauth2.PasswordGrant, rec.Authorization.GrantType)

	_, err = s.ReadAccessToken(ctx, "nope")
	require.ErrorIs(t, err, token.ErrNotFound)
	_, err = s.ReadRefreshToken(ctx, "nope")
	require.ErrorIs(t, err, token.ErrNotFound)

	require.Error(t, s.Save(ctx, &oauth2.AccessToken{}, aliceAuth()))
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := token.NewMemoryStore()
	orig := issued("at-1", "")
	require.NoError(t, s.Save(ctx, orig, aliceAuth()))
	orig.Scopes[0] = "mutated"

	at, err := s.ReadAccessToken(ctx, "at-1")
	require.NoError(t, err)
	at.Scopes[0] = "mutated-again"

	again, err := s.ReadAccessToken(ctx, "at-1")
	require.NoError(t, err)
	require.Equal(t, []string{"all"}, again.Scopes)
}

func TestMemoryStore_RotateRefreshToken(t *testing.T) {
	ctx := context.Background()
	s := token.NewMemoryStore()
	require.NoError(t, s.Save(ctx, issued("at-1", "rt-1"), aliceAuth()))

	require.NoError(t, s.RotateRefreshToken(ctx, "rt-1", issued("at-2", "rt-2"), aliceAuth()))

	_, err := s.ReadRefreshToken(ctx, "rt-1")
	require.ErrorIs(t, err, token.ErrNotFound)
	_, err = s.ReadAccessToken(ctx, "at-1")
	require.ErrorIs(t, err, token.ErrNotFound)
	_, err = s.ReadRefreshToken(ctx, "rt-2")
	require.NoError(t, err)

	err = s.RotateRefreshToken(ctx, "rt-1", issued("at-3", "rt-3"), aliceAuth())
	require.ErrorIs(t, err, token.ErrNotFound)
	_, err = s.ReadAccessToken(ctx, "at-3")
	require.ErrorIs(t, err, token.ErrNotFound)
}

func TestMemoryStore_ConcurrentRotationHasOneWinner(t *testing.T) {
	ctx := context.Background()
	s := token.NewMemoryStore()
	require.NoError(t, s.Save(ctx, issued("at-0", "rt-0"), aliceAuth()))

	var wins atomic.Int32
	var g errgroup.Group
	for i := 0; i < 16; i++ {
		next := issued("at-"+string(rune('a'+i)), "rt-"+string(rune('a'+i)))
		g.Go(func() error {
			if err := s.RotateRefreshToken(ctx, "rt-0", next, aliceAuth()); err == nil {
				wins.Add(1)
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
	require.EqualValues(t, 1, wins.Load())
}

func TestMemoryStore_ReplaceAccessToken(t *testing.T) {
	ctx := context.Background()
	s := token.NewMemoryStore()
	require.NoError(t, s.Save(ctx, issued("at-1", "rt-1"), aliceAuth()))

	require.NoError(t, s.ReplaceAccessToken(ctx, issued("at-2", "rt-1"), aliceAuth()))

	_, err := s.ReadAccessToken(ctx, "at-1")
	require.ErrorIs(t, err, token.ErrNotFound)
	rec, err := s.ReadRefreshToken(ctx, "rt-1")
	require.NoError(t, err)
	require.Equal(t, "at-2", rec.AccessToken)

	require.Error(t, s.ReplaceAccessToken(ctx, issued("at-3", ""), aliceAuth()))
	require.ErrorIs(t, s.ReplaceAccessToken(ctx, issued("at-3", "rt-gone"), aliceAuth()), token.ErrNotFound)
}

func TestMemoryStore_Revoke(t *testing.T) {
	ctx := context.Background()
	s := token.NewMemoryStore()
	require.NoError(t, s.Save(ctx, issued("at-1", "rt-1"), aliceAuth()))
	require.NoError(t, s.Save(ctx, issued("at-2", ""), aliceAuth()))

	require.NoError(t, s.RevokeAccessToken(ctx, "at-2"))
	require.ErrorIs(t, s.RevokeAccessToken(ctx, "at-2"), token.ErrNotFound)

	require.NoError(t, s.RevokeRefreshToken(ctx, "rt-1"))
	_, err := s.ReadAccessToken(ctx, "at-1")
	require.ErrorIs(t, err, token.ErrNotFound)
	require.ErrorIs(t, s.RevokeRefreshToken(ctx, "rt-1"), token.ErrNotFound)
}

func TestMemoryStore_FindByClientAndUser(t *testing.T) {
	ctx := context.Background()
	s := token.NewMemoryStore()
	require.NoError(t, s.Save(ctx, issued("at-1", ""), aliceAuth()))
	require.NoError(t, s.Save(ctx, issued("at-2", ""), aliceAuth()))

	other := aliceAuth()
	other.ClientID = "saber"
	require.NoError(t, s.Save(ctx, issued("at-3", ""), other))

	clientOnly := oauth2.Authorization{GrantType: oauth2.ClientCredentialsGrant, ClientID: "sword"}
	require.NoError(t, s.Save(ctx, issued("at-4", ""), clientOnly))

	found, err := s.FindByClientAndUser(ctx, "sword", "alice")
	require.NoError(t, err)
	require.Len(t, found, 2)

	found, err = s.FindByClientAndUser(ctx, "sword", "bob")
	require.NoError(t, err)
	require.Empty(t, found)
}
