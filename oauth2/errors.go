package oauth2

import "errors"

// Grant failures. Every one is terminal for the request that produced it.
var (
	ErrUnsupportedGrantType      = errors.New("unsupported grant type")
	ErrNoSuchClient              = errors.New("no such client")
	ErrClientGrantTypeNotAllowed = errors.New("grant type not allowed for client")
	ErrInvalidClient             = errors.New("invalid client credentials")
	ErrInvalidGrant              = errors.New("invalid grant")
	ErrInvalidCaptcha            = errors.New("invalid captcha")
	ErrAccountDisabled           = errors.New("account disabled")
	ErrInvalidScope              = errors.New("invalid scope")
	ErrInvalidRequest            = errors.New("invalid request")
)

// RFC 6749 section 5.2 error codes.
const (
	CodeInvalidRequest       = "invalid_request"
	CodeInvalidClient        = "invalid_client"
	CodeInvalidGrant         = "invalid_grant"
	CodeUnauthorizedClient   = "unauthorized_client"
	CodeUnsupportedGrantType = "unsupported_grant_type"
	CodeInvalidScope         = "invalid_scope"
	CodeServerError          = "server_error"
)

// ErrorCode maps a grant error onto the code a token endpoint reports.
// Errors outside the taxonomy are reported as server_error.
func ErrorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrUnsupportedGrantType):
		return CodeUnsupportedGrantType
	case errors.Is(err, ErrNoSuchClient), errors.Is(err, ErrInvalidClient):
		return CodeInvalidClient
	case errors.Is(err, ErrClientGrantTypeNotAllowed):
		return CodeUnauthorizedClient
	case errors.Is(err, ErrInvalidGrant), errors.Is(err, ErrInvalidCaptcha), errors.Is(err, ErrAccountDisabled):
		return CodeInvalidGrant
	case errors.Is(err, ErrInvalidScope):
		return CodeInvalidScope
	case errors.Is(err, ErrInvalidRequest):
		return CodeInvalidRequest
	}
	return CodeServerError
}
