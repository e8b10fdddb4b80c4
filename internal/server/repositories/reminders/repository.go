// Package reminders stores care reminders. Like plants, every method is
// scoped to the owning user.
package reminders

import (
	"context"

	"github.com/dmitrijs2005/bloombuddy/internal/server/models"
)

type Repository interface {
	// List returns the user's reminders by due date, earliest first.
	List(ctx context.Context, userID string) ([]models.Reminder, error)
	// ListByPlant is List restricted to one plant.
	ListByPlant(ctx context.Context, userID string, plantID int64) ([]models.Reminder, error)
	Get(ctx context.Context, userID string, id int64) (*models.Reminder, error)
	// Create returns common.ErrorNotFound when the plant does not exist or
	// belongs to someone else.
	Create(ctx context.Context, reminder *models.Reminder) (*models.Reminder, error)
	SetCompleted(ctx context.Context, userID string, id int64, completed bool) (*models.Reminder, error)
	// Toggle flips the completion flag in a single statement.
	Toggle(ctx context.Context, userID string, id int64) (*models.Reminder, error)
	Delete(ctx context.Context, userID string, id int64) error
}
