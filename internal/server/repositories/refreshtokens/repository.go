// Package refreshtokens declares the credential store: the persisted refresh
// token values, one per user as issued by signup/signin.
package refreshtokens

import (
	"context"

	"github.com/dmitrijs2005/filekeeper/internal/server/models"
)

// Repository defines operations for storing, looking up and revoking refresh tokens.
type Repository interface {
	// Create stores token for userID.
	Create(ctx context.Context, userID string, token string) error

	// FindByUser returns the stored token of userID, or common.ErrorNotFound.
	FindByUser(ctx context.Context, userID string) (*models.RefreshToken, error)

	// Find looks a token up by its exact value, or returns common.ErrorNotFound.
	Find(ctx context.Context, token string) (*models.RefreshToken, error)

	// Delete removes the row with the given value and reports
	// common.ErrorNotFound when nothing was deleted.
	Delete(ctx context.Context, token string) error
}
