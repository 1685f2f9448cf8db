package config

import (
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

type Config interface {
	EnvConfig
	OAuthConfig
	SigningConfig
	StoreConfig
	CaptchaConfig
	// Viper exposes the backing instance so commands can bind their flags to it.
	Viper() *viper.Viper
}

type mainConfig struct {
	EnvVars
	OAuth
	Signing
	Stores
	Captcha
}

func (c mainConfig) Viper() *viper.Viper {
	return c.EnvVars.v
}

// New reads .env (if present) and the environment.
func New() Config {
	c, _ := Load("")
	return c
}

// Load reads .env, then the optional config file at path, then the environment.
// Keys are dotted ("oauth.issuer") and map to environment variables with the dots
// replaced by underscores ("OAUTH_ISSUER").
func Load(path string) (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	c := mainConfig{
		EnvVars: EnvVars{v},
		OAuth:   OAuth{v},
		Signing: Signing{v},
		Stores:  Stores{v},
		Captcha: Captcha{v},
	}
	if path == "" {
		return c, nil
	}
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return c, errors.Wrapf(err, "read config %s", path)
	}
	return c, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(appNameKey, "Go Token Engine")
	v.SetDefault(envKey, "DEV")
	v.SetDefault(logLevelKey, "info")

	v.SetDefault(issuerKey, "http://localhost:8080")
	v.SetDefault(accessValidityKey, time.Hour)
	v.SetDefault(refreshValidityKey, 7*24*time.Hour)
	v.SetDefault(refreshLengthKey, 32)
	v.SetDefault(codeValidityKey, 5*time.Minute)

	v.SetDefault(signingAlgorithmKey, "RS256")
	v.SetDefault(signingKeyIDKey, "token-engine")
	v.SetDefault(rsaBitsKey, 2048)

	v.SetDefault(codeKeyPrefixKey, "oauth:code:")

	v.SetDefault(captchaTTLKey, 3*time.Minute)
	v.SetDefault(captchaLengthKey, 4)
	v.SetDefault(captchaKeyPrefixKey, "blade:auth::blade:captcha:")
}
