// Package plants stores users' plants. Every method is scoped to the owning
// user: a plant of another user behaves exactly like a missing one.
package plants

import (
	"context"

	"github.com/dmitrijs2005/bloombuddy/internal/server/models"
)

type Repository interface {
	// List returns the user's plants, newest first.
	List(ctx context.Context, userID string) ([]models.Plant, error)
	Get(ctx context.Context, userID string, id int64) (*models.Plant, error)
	// Create fills plant's ID and CreatedAt.
	Create(ctx context.Context, plant *models.Plant) (*models.Plant, error)
	// Update overwrites every editable field of plant.
	Update(ctx context.Context, plant *models.Plant) error
	Delete(ctx context.Context, userID string, id int64) error
}
