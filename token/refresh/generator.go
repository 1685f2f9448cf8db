// Package refresh mints opaque refresh token values.
package refresh

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/jrsteele09/go-token-engine/oauth2"
)

// DefaultLength is the number of random bytes in a refresh token (256 bits).
const DefaultLength = 32

// Generator creates refresh tokens. The client only ever sees the random string; what it
// can renew is kept server side in the token store.
type Generator struct {
	length int
}

func NewGenerator(length int) *Generator {
	if length <= 0 {
		length = DefaultLength
	}
	return &Generator{length: length}
}

// Create returns a fresh refresh token valid for validity from now. A zero validity
// yields a token that never expires.
func (g *Generator) Create(now time.Time, validity time.Duration) (*oauth2.RefreshToken, error) {
	tokenBytes := make([]byte, g.length)
	if _, err := rand.Read(tokenBytes); err != nil {
		return nil, fmt.Errorf("failed to generate random bytes: %w", err)
	}
	rt := &oauth2.RefreshToken{Value: hex.EncodeToString(tokenBytes)}
	if validity > 0 {
		rt.ExpiresAt = now.Add(validity)
	}
	return rt, nil
}
