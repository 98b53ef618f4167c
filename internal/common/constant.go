package common

// Default names of the cookies carrying session tokens.
const (
	AccessTokenCookieName  = "access_token"
	RefreshTokenCookieName = "refresh_token"
)

// AuthorizationHeader and BearerScheme describe the header fallback for
// access tokens.
const (
	AuthorizationHeader = "Authorization"
	BearerScheme        = "Bearer"
)
