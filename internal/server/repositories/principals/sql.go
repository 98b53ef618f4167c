package principals

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/portfolio/internal/common"
	"github.com/dmitrijs2005/portfolio/internal/dbx"
	"github.com/dmitrijs2005/portfolio/internal/server/models"
	"github.com/google/uuid"
)

type SQLRepository struct {
	db dbx.DBTX
	d  dbx.Dialect
}

func NewSQLRepository(db dbx.DBTX, d dbx.Dialect) *SQLRepository {
	return &SQLRepository{db: db, d: d}
}

func (r *SQLRepository) Create(ctx context.Context, p *models.Principal) (*models.Principal, error) {
	item := *p
	item.ID = uuid.NewString()
	item.CreatedAt = dbx.UTC(p.CreatedAt)

	query := r.d.Rebind(
		`INSERT INTO principals (id, email, password_hash, created_at)
		 VALUES (?, ?, ?, ?)`)

	_, err := r.db.ExecContext(ctx, query, item.ID, item.Email, item.PasswordHash, item.CreatedAt)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, fmt.Errorf("%w: %w", common.ErrUniqueViolation, err)
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return &item, nil
}

func (r *SQLRepository) GetByEmail(ctx context.Context, email string) (*models.Principal, error) {
	query := r.d.Rebind(
		`SELECT id, email, password_hash, created_at FROM principals
		 WHERE email = ?`)

	var (
		p       models.Principal
		created dbx.Timestamp
	)
	err := r.db.QueryRowContext(ctx, query, email).Scan(&p.ID, &p.Email, &p.PasswordHash, &created)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	p.CreatedAt = created.Time

	return &p, nil
}

func (r *SQLRepository) UpdatePasswordHash(ctx context.Context, id string, hash []byte) error {
	res, err := r.db.ExecContext(ctx, r.d.Rebind(`UPDATE principals SET password_hash = ? WHERE id = ?`), hash, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
