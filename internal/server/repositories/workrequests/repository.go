package workrequests

import (
	"context"
	"time"

	"github.com/dmitrijs2005/portfolio/internal/server/models"
)

// Repository stores work requests. At most one pending request may exist
// per (requester, subject); a second insert fails with
// common.ErrUniqueViolation.
type Repository interface {
	Create(ctx context.Context, w *models.WorkRequest) (*models.WorkRequest, error)
	// GetByID and MarkReplied return common.ErrorNotFound for an id that is
	// not a uuid without querying the store.
	GetByID(ctx context.Context, id string) (*models.WorkRequest, error)
	FindPending(ctx context.Context, email, subject string) (*models.WorkRequest, error)
	// MarkReplied flips a pending request to replied. It returns
	// common.ErrAlreadyReplied when the row is not pending anymore.
	MarkReplied(ctx context.Context, id string, at time.Time) error
	// List returns requests newest first; an empty status matches all.
	List(ctx context.Context, status models.WorkRequestStatus) ([]*models.WorkRequest, error)
}
