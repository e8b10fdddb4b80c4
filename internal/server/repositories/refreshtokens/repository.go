// Package refreshtokens stores the opaque refresh tokens issued at login.
package refreshtokens

import (
	"context"
	"time"

	"github.com/dmitrijs2005/bloombuddy/internal/server/models"
)

type Repository interface {
	// Create stores token for userID, valid until now+validity.
	Create(ctx context.Context, userID string, token string, validity time.Duration) error

	// Find returns common.ErrorNotFound for an unknown token.
	Find(ctx context.Context, token string) (*models.RefreshToken, error)

	// Delete is a no-op for an unknown token.
	Delete(ctx context.Context, token string) error

	// DeleteExpired removes every token of userID whose expiry is before now.
	DeleteExpired(ctx context.Context, userID string, now time.Time) (int64, error)
}
