package oauth2

// GrantType represents the OAuth 2.0 grant type used at the token endpoint.
// Determines which strategy handles the request and what credentials it requires.
type GrantType string

const (
	// AuthorizationCodeGrant exchanges a one-time authorization code for tokens.
	// Token request includes: code, redirect_uri (when one was used to obtain the code)
	AuthorizationCodeGrant GrantType = "authorization_code"

	// RefreshTokenGrant exchanges a refresh token for a new access token.
	// Token request includes: refresh_token, optional narrower scope
	RefreshTokenGrant GrantType = "refresh_token"

	// ImplicitGrant issues an access token straight to an already authenticated user agent.
	// Never returns a refresh token.
	ImplicitGrant GrantType = "implicit"

	// ClientCredentialsGrant allows machine-to-machine authentication (no user context).
	// Token request includes: client_id, client_secret, scope
	ClientCredentialsGrant GrantType = "client_credentials"

	// PasswordGrant authenticates the resource owner with username and password.
	PasswordGrant GrantType = "password"

	// CaptchaPasswordGrant is the password grant guarded by a single-use captcha challenge.
	// Token request includes: username, password, captcha_key, captcha_code
	CaptchaPasswordGrant GrantType = "captcha_password"
)

// Token request parameter names.
const (
	ParamUsername     = "username"
	ParamPassword     = "password"
	ParamCaptchaKey   = "captcha_key"
	ParamCaptchaCode  = "captcha_code"
	ParamRefreshToken = "refresh_token"
	ParamCode         = "code"
	ParamRedirectURI  = "redirect_uri"
	ParamCodeVerifier = "code_verifier"
	ParamClientSecret = "client_secret"
)

// BearerTokenType is the only token type issued.
const BearerTokenType = "bearer"

// sensitiveParams are never kept in a stored authorization.
var sensitiveParams = []string{ParamPassword, ParamCaptchaCode, ParamClientSecret, ParamCodeVerifier}
