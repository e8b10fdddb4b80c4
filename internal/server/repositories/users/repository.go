package users

import (
	"context"

	"github.com/dmitrijs2005/bloombuddy/internal/server/models"
)

type Repository interface {
	// Create inserts user and fills its ID and CreatedAt. A taken username
	// yields common.ErrorAlreadyExists.
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetUserByLogin(ctx context.Context, login string) (*models.User, error)
}
