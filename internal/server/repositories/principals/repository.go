package principals

import (
	"context"

	"github.com/dmitrijs2005/portfolio/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, p *models.Principal) (*models.Principal, error)
	GetByEmail(ctx context.Context, email string) (*models.Principal, error)
	UpdatePasswordHash(ctx context.Context, id string, hash []byte) error
}
