package code

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
)

// ChallengeMethod is the PKCE transformation applied to the code verifier (RFC 7636).
type ChallengeMethod string

const (
	// ChallengeS256: code_challenge = BASE64URL(SHA256(code_verifier)).
	ChallengeS256 ChallengeMethod = "S256"
	// ChallengePlain: code_challenge = code_verifier.
	ChallengePlain ChallengeMethod = "plain"
)

// Authorization request parameters carrying the PKCE challenge.
const (
	ParamCodeChallenge       = "code_challenge"
	ParamCodeChallengeMethod = "code_challenge_method"
)

// ValidateChallenge checks challenge parameters before a code is issued. An empty
// challenge means the client does not use PKCE.
func ValidateChallenge(challenge string, method ChallengeMethod) error {
	if challenge == "" {
		if method != "" {
			return fmt.Errorf("code_challenge_method without code_challenge")
		}
		return nil
	}
	if len(challenge) < 43 || len(challenge) > 128 {
		return fmt.Errorf("code_challenge length must be between 43 and 128 characters")
	}
	if method != ChallengeS256 && method != ChallengePlain {
		return fmt.Errorf("code_challenge_method must be 'S256' or 'plain'")
	}
	return nil
}

// VerifyChallenge reports whether verifier answers the stored challenge. Without a
// stored challenge only an empty verifier passes.
func VerifyChallenge(challenge string, method ChallengeMethod, verifier string) bool {
	if challenge == "" {
		return verifier == ""
	}
	var computed string
	switch method {
	case ChallengeS256:
		hash := sha256.Sum256([]byte(verifier))
		computed = base64.RawURLEncoding.EncodeToString(hash[:])
	case ChallengePlain:
		computed = verifier
	default:
		return false
	}
	return subtle.ConstantTimeCompare([]byte(computed), []byte(challenge)) == 1
}
