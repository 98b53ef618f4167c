package workrequests

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/portfolio/internal/common"
	"github.com/dmitrijs2005/portfolio/internal/dbx"
	"github.com/dmitrijs2005/portfolio/internal/server/models"
	"github.com/google/uuid"
)

const selectColumns = `SELECT id, requester_email, subject_title, description, status, created_at, replied_at FROM work_requests`

type SQLRepository struct {
	db dbx.DBTX
	d  dbx.Dialect
}

func NewSQLRepository(db dbx.DBTX, d dbx.Dialect) *SQLRepository {
	return &SQLRepository{db: db, d: d}
}

func (r *SQLRepository) Create(ctx context.Context, w *models.WorkRequest) (*models.WorkRequest, error) {
	item := *w
	item.ID = uuid.NewString()
	item.CreatedAt = dbx.UTC(w.CreatedAt)
	if item.Status == "" {
		item.Status = models.StatusPending
	}

	query := r.d.Rebind(
		`INSERT INTO work_requests (id, requester_email, subject_title, description, status, created_at, replied_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`)

	_, err := r.db.ExecContext(ctx, query,
		item.ID, item.RequesterEmail, item.SubjectTitle, item.Description, string(item.Status),
		item.CreatedAt, dbx.NullableUTC(item.RepliedAt))
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, fmt.Errorf("%w: %w", common.ErrUniqueViolation, err)
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return &item, nil
}

func (r *SQLRepository) GetByID(ctx context.Context, id string) (*models.WorkRequest, error) {
	if !dbx.ValidID(id) {
		return nil, common.ErrorNotFound
	}
	return r.getOne(ctx, selectColumns+` WHERE id = ?`, id)
}

func (r *SQLRepository) FindPending(ctx context.Context, email, subject string) (*models.WorkRequest, error) {
	return r.getOne(ctx,
		selectColumns+` WHERE requester_email = ? AND subject_title = ? AND status = ?`,
		email, subject, string(models.StatusPending))
}

func (r *SQLRepository) MarkReplied(ctx context.Context, id string, at time.Time) error {
	if !dbx.ValidID(id) {
		return common.ErrorNotFound
	}
	query := r.d.Rebind(
		`UPDATE work_requests SET status = ?, replied_at = ?
		 WHERE id = ? AND status = ?`)

	res, err := r.db.ExecContext(ctx, query,
		string(models.StatusReplied), dbx.UTC(at), id, string(models.StatusPending))
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrAlreadyReplied
	}
	return nil
}

func (r *SQLRepository) List(ctx context.Context, status models.WorkRequestStatus) ([]*models.WorkRequest, error) {
	query := selectColumns
	var args []any
	if status != "" {
		query += ` WHERE status = ?`
		args = append(args, string(status))
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, r.d.Rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var items []*models.WorkRequest
	for rows.Next() {
		item, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return items, nil
}

func (r *SQLRepository) getOne(ctx context.Context, query string, args ...any) (*models.WorkRequest, error) {
	item, err := scanRequest(r.db.QueryRowContext(ctx, r.d.Rebind(query), args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, err
	}
	return item, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRequest(s scanner) (*models.WorkRequest, error) {
	var (
		item             models.WorkRequest
		status           string
		created, replied dbx.Timestamp
	)

	err := s.Scan(&item.ID, &item.RequesterEmail, &item.SubjectTitle, &item.Description, &status, &created, &replied)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	item.Status = models.WorkRequestStatus(status)
	item.CreatedAt = created.Time
	item.RepliedAt = replied.Ptr()

	return &item, nil
}
