// Package users declares and implements the user directory.
package users

import (
	"context"

	"github.com/dmitrijs2005/filekeeper/internal/server/models"
)

// Repository persists users keyed by their client-chosen identifier.
type Repository interface {
	// Create inserts user. An existing ID yields common.ErrorDuplicateUser.
	Create(ctx context.Context, user *models.User) error
	// GetByID returns common.ErrorNotFound when no such user exists.
	GetByID(ctx context.Context, id string) (*models.User, error)
}
