package config

import "github.com/spf13/viper"

const (
	signingAlgorithmKey = "signing.algorithm"
	signingKeyIDKey     = "signing.key_id"
	privateKeyFileKey   = "signing.private_key_file"
	hmacSecretKey       = "signing.hmac_secret"
	rsaBitsKey          = "signing.rsa_bits"
)

type SigningConfig interface {
	// GetSigningAlgorithm is RS256 or HS256.
	GetSigningAlgorithm() string
	GetSigningKeyID() string
	// GetPrivateKeyFile is a PEM file; when empty an RS256 key is generated at startup.
	GetPrivateKeyFile() string
	GetHMACSecret() string
	GetRSAKeyBits() int
}

type Signing struct {
	v *viper.Viper
}

var _ SigningConfig = Signing{}

func (s Signing) GetSigningAlgorithm() string {
	return s.v.GetString(signingAlgorithmKey)
}

func (s Signing) GetSigningKeyID() string {
	return s.v.GetString(signingKeyIDKey)
}

func (s Signing) GetPrivateKeyFile() string {
	return s.v.GetString(privateKeyFileKey)
}

func (s Signing) GetHMACSecret() string {
	return s.v.GetString(hmacSecretKey)
}

func (s Signing) GetRSAKeyBits() int {
	return s.v.GetInt(rsaBitsKey)
}
