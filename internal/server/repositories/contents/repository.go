package contents

import (
	"context"

	"github.com/dmitrijs2005/portfolio/internal/server/models"
)

// Repository stores content items. Lookups that match nothing, including
// ids that are not uuids, return common.ErrorNotFound; slug collisions on
// write return common.ErrUniqueViolation.
type Repository interface {
	Create(ctx context.Context, c *models.Content) (*models.Content, error)
	Update(ctx context.Context, c *models.Content) (*models.Content, error)
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*models.Content, error)
	FindBySlug(ctx context.Context, slug string) (*models.Content, error)
	List(ctx context.Context, limit, offset int) ([]*models.Content, error)
}
