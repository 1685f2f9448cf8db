package config

import (
	"time"

	"github.com/spf13/viper"
)

const (
	captchaTTLKey       = "captcha.ttl"
	captchaLengthKey    = "captcha.length"
	captchaKeyPrefixKey = "captcha.key_prefix"
)

type CaptchaConfig interface {
	GetCaptchaTTL() time.Duration
	GetCaptchaLength() int
	GetCaptchaKeyPrefix() string
}

type Captcha struct {
	v *viper.Viper
}

var _ CaptchaConfig = Captcha{}

func (c Captcha) GetCaptchaTTL() time.Duration {
	return c.v.GetDuration(captchaTTLKey)
}

func (c Captcha) GetCaptchaLength() int {
	return c.v.GetInt(captchaLengthKey)
}

func (c Captcha) GetCaptchaKeyPrefix() string {
	return c.v.GetString(captchaKeyPrefixKey)
}
