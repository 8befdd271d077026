// Package common defines shared constants and sentinel errors used by the
// repositories, services and the HTTP layer. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorDuplicateUser = errors.New("user already exists")

	// Service-level errors.
	ErrorInternal           = errors.New("internal error")
	ErrorUnauthenticated    = errors.New("unauthenticated")
	ErrorForbidden          = errors.New("forbidden")
	ErrorInvalidCredentials = errors.New("invalid credentials")

	// Blob storage errors.
	ErrorBlobDeleteFailed = errors.New("failed to delete file")
)
