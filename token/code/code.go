// Package code issues and redeems single-use OAuth2 authorization codes.
package code

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"maps"
	"time"

	"github.com/jrsteele09/go-token-engine/users"
)

var (
	// ErrNotFound is returned for codes that were never issued or are already redeemed.
	ErrNotFound = errors.New("authorization code not found")
	ErrExpired  = errors.New("authorization code expired")
)

// DefaultValidity is how long an issued code can be redeemed.
const DefaultValidity = 5 * time.Minute

// AuthorizationCode is a one-time code and the request it was issued for.
type AuthorizationCode struct {
	Code        string            `json:"code"`
	ClientID    string            `json:"client_id"`
	Scopes      []string          `json:"scopes"`
	RedirectURI string            `json:"redirect_uri,omitempty"`
	Principal   *users.Principal  `json:"principal"`
	Parameters  map[string]string `json:"parameters,omitempty"`
	ExpiresAt   time.Time         `json:"expires_at"`

	CodeChallenge       string          `json:"code_challenge,omitempty"`
	CodeChallengeMethod ChallengeMethod `json:"code_challenge_method,omitempty"`
}

// Store keeps codes until redemption. Consume is linearizable: of any number of
// concurrent calls for one code, at most one returns it.
type Store interface {
	Store(ctx context.Context, code AuthorizationCode) error
	Consume(ctx context.Context, code string) (AuthorizationCode, error)
}

// Issuer creates codes for the authorization endpoint.
type Issuer struct {
	store    Store
	validity time.Duration
	nowFunc  func() time.Time
}

type IssuerOption func(*Issuer)

func WithValidity(d time.Duration) IssuerOption {
	return func(i *Issuer) {
		i.validity = d
	}
}

func WithNowFunc(now func() time.Time) IssuerOption {
	return func(i *Issuer) {
		i.nowFunc = now
	}
}

func NewIssuer(store Store, opts ...IssuerOption) *Issuer {
	i := &Issuer{store: store, validity: DefaultValidity, nowFunc: time.Now}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Issue stores a new code for an approved authorization request and returns it.
// A PKCE challenge in params is moved onto the code; the method defaults to plain.
// Scopes are checked against the client when the code is redeemed.
func (i *Issuer) Issue(ctx context.Context, clientID, redirectURI string, scopes []string, principal *users.Principal, params map[string]string) (AuthorizationCode, error) {
	if principal == nil {
		return AuthorizationCode{}, fmt.Errorf("[Issuer.Issue] authorization code needs an authenticated user")
	}
	params = maps.Clone(params)
	challenge := params[ParamCodeChallenge]
	method := ChallengeMethod(params[ParamCodeChallengeMethod])
	if challenge != "" && method == "" {
		method = ChallengePlain
	}
	if err := ValidateChallenge(challenge, method); err != nil {
		return AuthorizationCode{}, fmt.Errorf("[Issuer.Issue] %w", err)
	}
	delete(params, ParamCodeChallenge)
	delete(params, ParamCodeChallengeMethod)

	value, err := randomCode()
	if err != nil {
		return AuthorizationCode{}, err
	}
	ac := AuthorizationCode{
		Code:        value,
		ClientID:    clientID,
		Scopes:      append([]string(nil), scopes...),
		RedirectURI: redirectURI,
		Principal:   principal,
		Parameters:  params,
		ExpiresAt:   i.nowFunc().Add(i.validity),

		CodeChallenge:       challenge,
		CodeChallengeMethod: method,
	}
	if err := i.store.Store(ctx, ac); err != nil {
		return AuthorizationCode{}, fmt.Errorf("[Issuer.Issue] store: %w", err)
	}
	return ac, nil
}

func randomCode() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate authorization code: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
