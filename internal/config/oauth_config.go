package config

import (
	"time"

	"github.com/spf13/viper"
)

const (
	issuerKey          = "oauth.issuer"
	audienceKey        = "oauth.audience"
	accessValidityKey  = "oauth.access_token_validity"
	refreshValidityKey = "oauth.refresh_token_validity"
	refreshLengthKey   = "oauth.refresh_token_length"
	codeValidityKey    = "oauth.auth_code_validity"
	reuseRefreshKey    = "oauth.reuse_refresh_token"
	reloadUserKey      = "oauth.reload_user_on_refresh"
	licenseKey         = "oauth.license"
)

type OAuthConfig interface {
	GetIssuer() string
	GetAudience() string
	GetAuthCodeTimeout() time.Duration
	GetRefreshTokenLength() int
	GetDefaultAccessTokenExpiry() time.Duration
	GetDefaultRefreshTokenExpiry() time.Duration
	GetReuseRefreshToken() bool
	GetReloadUserOnRefresh() bool
	// GetLicense is empty when the built-in license claim should be used.
	GetLicense() string
}

type OAuth struct {
	v *viper.Viper
}

var _ OAuthConfig = OAuth{}

func (o OAuth) GetIssuer() string {
	return o.v.GetString(issuerKey)
}

func (o OAuth) GetAudience() string {
	return o.v.GetString(audienceKey)
}

func (o OAuth) GetAuthCodeTimeout() time.Duration {
	return o.v.GetDuration(codeValidityKey)
}

func (o OAuth) GetRefreshTokenLength() int {
	return o.v.GetInt(refreshLengthKey) // bytes
}

func (o OAuth) GetDefaultAccessTokenExpiry() time.Duration {
	return o.v.GetDuration(accessValidityKey)
}

func (o OAuth) GetDefaultRefreshTokenExpiry() time.Duration {
	return o.v.GetDuration(refreshValidityKey)
}

func (o OAuth) GetReuseRefreshToken() bool {
	return o.v.GetBool(reuseRefreshKey)
}

func (o OAuth) GetReloadUserOnRefresh() bool {
	return o.v.GetBool(reloadUserKey)
}

func (o OAuth) GetLicense() string {
	return o.v.GetString(licenseKey)
}
