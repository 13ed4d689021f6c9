package service

// Error codes surfaced to clients
const (
	ErrorInvalidRequest        = "invalid_request"
	ErrorInvalidClient         = "invalid_client"
	ErrorUnauthorizedClient    = "unauthorized_client"
	ErrorInvalidScope          = "invalid_scope"
	ErrorInvalidBindingMessage = "invalid_binding_message"
	ErrorAuthorizationPending  = "authorization_pending"
	ErrorSlowDown              = "slow_down"
	ErrorAccessDenied          = "access_denied"
	ErrorExpiredToken          = "expired_token"
	ErrorInvalidGrant          = "invalid_grant"
	ErrorUnsupportedGrantType  = "unsupported_grant_type"
	ErrorServerError           = "server_error"
)

// OAuthError is a client-visible protocol error. Anything else escaping a
// service is treated as a server error.
type OAuthError struct {
	Code        string
	Description string
}

func (e *OAuthError) Error() string {
	return e.Code + ": " + e.Description
}

func NewOAuthError(code string, description string) *OAuthError {
	return &OAuthError{
		Code:        code,
		Description: description,
	}
}
