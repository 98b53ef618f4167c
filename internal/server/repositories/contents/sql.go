package contents

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/portfolio/internal/common"
	"github.com/dmitrijs2005/portfolio/internal/dbx"
	"github.com/dmitrijs2005/portfolio/internal/server/models"
	"github.com/google/uuid"
)

const selectColumns = `SELECT id, title, slug, author, tags, body, created_at, updated_at FROM contents`

type SQLRepository struct {
	db dbx.DBTX
	d  dbx.Dialect
}

func NewSQLRepository(db dbx.DBTX, d dbx.Dialect) *SQLRepository {
	return &SQLRepository{db: db, d: d}
}

func (r *SQLRepository) Create(ctx context.Context, c *models.Content) (*models.Content, error) {
	tags, err := encodeTags(c.Tags)
	if err != nil {
		return nil, err
	}

	item := *c
	item.ID = uuid.NewString()
	item.CreatedAt = dbx.UTC(c.CreatedAt)
	item.UpdatedAt = dbx.UTC(c.UpdatedAt)

	query := r.d.Rebind(
		`INSERT INTO contents (id, title, slug, author, tags, body, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)

	_, err = r.db.ExecContext(ctx, query,
		item.ID, item.Title, item.Slug, item.Author, tags, item.Body, item.CreatedAt, item.UpdatedAt)
	if err != nil {
		return nil, wrapWriteErr(err)
	}

	return &item, nil
}

func (r *SQLRepository) Update(ctx context.Context, c *models.Content) (*models.Content, error) {
	tags, err := encodeTags(c.Tags)
	if err != nil {
		return nil, err
	}

	if !dbx.ValidID(c.ID) {
		return nil, common.ErrorNotFound
	}

	item := *c
	item.UpdatedAt = dbx.UTC(c.UpdatedAt)

	query := r.d.Rebind(
		`UPDATE contents SET title = ?, slug = ?, author = ?, tags = ?, body = ?, updated_at = ?
		 WHERE id = ?`)

	res, err := r.db.ExecContext(ctx, query,
		item.Title, item.Slug, item.Author, tags, item.Body, item.UpdatedAt, item.ID)
	if err != nil {
		return nil, wrapWriteErr(err)
	}
	if err := requireRow(res); err != nil {
		return nil, err
	}

	return &item, nil
}

func (r *SQLRepository) Delete(ctx context.Context, id string) error {
	if !dbx.ValidID(id) {
		return common.ErrorNotFound
	}
	res, err := r.db.ExecContext(ctx, r.d.Rebind(`DELETE FROM contents WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return requireRow(res)
}

func (r *SQLRepository) GetByID(ctx context.Context, id string) (*models.Content, error) {
	if !dbx.ValidID(id) {
		return nil, common.ErrorNotFound
	}
	return r.getOne(ctx, selectColumns+` WHERE id = ?`, id)
}

func (r *SQLRepository) FindBySlug(ctx context.Context, slug string) (*models.Content, error) {
	return r.getOne(ctx, selectColumns+` WHERE slug = ?`, slug)
}

// List returns content newest first.
func (r *SQLRepository) List(ctx context.Context, limit, offset int) ([]*models.Content, error) {
	query := r.d.Rebind(selectColumns + ` ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`)

	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var items []*models.Content
	for rows.Next() {
		item, err := scanContent(rows)
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

func (r *SQLRepository) getOne(ctx context.Context, query string, arg any) (*models.Content, error) {
	item, err := scanContent(r.db.QueryRowContext(ctx, r.d.Rebind(query), arg))
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

func scanContent(s scanner) (*models.Content, error) {
	var (
		item             models.Content
		tags             string
		created, updated dbx.Timestamp
	)

	err := s.Scan(&item.ID, &item.Title, &item.Slug, &item.Author, &tags, &item.Body, &created, &updated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	if err := json.Unmarshal([]byte(tags), &item.Tags); err != nil {
		return nil, fmt.Errorf("db error: tags: %w", err)
	}
	item.CreatedAt = created.Time
	item.UpdatedAt = updated.Time

	return &item, nil
}

func encodeTags(tags []string) (string, error) {
	if tags == nil {
		tags = []string{}
	}
	b, err := json.Marshal(tags)
	if err != nil {
		return "", fmt.Errorf("encode tags: %w", err)
	}
	return string(b), nil
}

func wrapWriteErr(err error) error {
	if dbx.IsUniqueViolation(err) {
		return fmt.Errorf("%w: %w", common.ErrUniqueViolation, err)
	}
	return fmt.Errorf("db error: %w", err)
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
