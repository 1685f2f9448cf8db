// Package captcha holds short-lived captcha challenges that guard the
// captcha_password grant.
package captcha

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a key has no live challenge.
var ErrNotFound = errors.New("captcha challenge not found")

// DefaultTTL matches the lifetime of a rendered captcha image.
const DefaultTTL = 3 * time.Minute

// Source hands out the expected code for a challenge key. Fetching always removes the
// challenge, whether or not the caller's answer turns out to match.
type Source interface {
	FetchAndInvalidate(ctx context.Context, key string) (string, error)
}

// Keeper stores challenges for a Source.
type Keeper interface {
	Put(ctx context.Context, key, code string, ttl time.Duration) error
}

// Verify compares a submitted code against the expected one, ignoring case.
func Verify(expected, submitted string) bool {
	if expected == "" {
		return false
	}
	e := []byte(strings.ToLower(strings.TrimSpace(expected)))
	s := []byte(strings.ToLower(strings.TrimSpace(submitted)))
	return subtle.ConstantTimeCompare(e, s) == 1
}

// Challenge is a newly created captcha: the key travels with the image, the code is
// what the user has to read from it.
type Challenge struct {
	Key  string
	Code string
}

const codeAlphabet = "23456789abcdefghjkmnpqrstuvwxyz"

// NewChallenge creates a challenge with a random code of length characters and stores it.
func NewChallenge(ctx context.Context, keeper Keeper, length int, ttl time.Duration) (Challenge, error) {
	if length <= 0 {
		length = 5
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return Challenge{}, fmt.Errorf("failed to generate captcha code: %w", err)
	}
	for i, b := range buf {
		buf[i] = codeAlphabet[int(b)%len(codeAlphabet)]
	}
	ch := Challenge{Key: uuid.NewString(), Code: string(buf)}
	if err := keeper.Put(ctx, ch.Key, ch.Code, ttl); err != nil {
		return Challenge{}, fmt.Errorf("store captcha %s: %w", ch.Key, err)
	}
	return ch, nil
}
