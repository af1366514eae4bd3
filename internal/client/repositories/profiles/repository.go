// Package profiles stores user profiles: one row per user id with a unique
// lowercase username.
package profiles

import (
	"context"

	"github.com/dmitrijs2005/authboot/internal/client/models"
)

// Repository is the profile store.
//
// GetByID returns common.ErrorNotFound when no row exists. Create returns
// common.ErrConflict when the id or the username is already taken. Update
// returns common.ErrorNotFound when the row is missing.
type Repository interface {
	GetByID(ctx context.Context, id string) (*models.Profile, error)
	Create(ctx context.Context, p *models.Profile) (*models.Profile, error)
	Update(ctx context.Context, p *models.Profile) error
}
