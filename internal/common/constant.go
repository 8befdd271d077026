// Package common contains shared constants and sentinel errors used across
// filekeeper components.
package common

// AccessTokenHeaderName is the HTTP header carrying the access token on
// protected routes.
const AccessTokenHeaderName = "access_token"

// RefreshTokenHeaderName is the HTTP header carrying the refresh token on logout.
const RefreshTokenHeaderName = "refresh_token"
