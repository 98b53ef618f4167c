// Package services contains server-side business logic: content authoring
// with unique slugs, the work request lifecycle and authentication.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/portfolio/internal/common"
	"github.com/dmitrijs2005/portfolio/internal/server/models"
	"github.com/dmitrijs2005/portfolio/internal/server/repositories/contents"
	"github.com/dmitrijs2005/portfolio/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/portfolio/internal/server/slug"
)

// ContentInput carries author-supplied fields. A nil Slug means "derive it
// from the title".
type ContentInput struct {
	Title  string
	Slug   *string
	Author string
	Tags   []string
	Body   string
}

type ContentService struct {
	db      *sql.DB
	repos   repomanager.RepositoryManager
	timeout time.Duration
}

func NewContentService(db *sql.DB, m repomanager.RepositoryManager, timeout time.Duration) *ContentService {
	return &ContentService{db: db, repos: m, timeout: timeout}
}

// Create stores new content under a unique slug. A derived slug that loses
// a race to a concurrent writer is re-resolved once; an explicit slug is not.
func (s *ContentService) Create(ctx context.Context, in ContentInput, now time.Time) (*models.Content, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	repo := s.repos.Contents(s.db)
	resolver := slug.NewResolver(repo)

	item := &models.Content{
		Title:     strings.TrimSpace(in.Title),
		Author:    in.Author,
		Tags:      in.Tags,
		Body:      in.Body,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if in.Slug != nil {
		if err := validateExplicitSlug(*in.Slug); err != nil {
			return nil, err
		}
		if item.Title == "" {
			return nil, common.ErrEmptyTitle
		}
		if err := resolver.AssertAvailable(ctx, *in.Slug, ""); err != nil {
			return nil, err
		}
		item.Slug = *in.Slug
		return insertContent(ctx, repo, item)
	}

	base, err := slug.Derive(item.Title)
	if err != nil {
		return nil, err
	}

	for attempt := 0; ; attempt++ {
		item.Slug, err = resolver.ReserveUnique(ctx, base, "")
		if err != nil {
			return nil, err
		}
		created, err := insertContent(ctx, repo, item)
		if errors.Is(err, common.ErrSlugConflict) && attempt == 0 {
			continue
		}
		return created, err
	}
}

// Update rewrites content id. An explicit slug must be free among other
// items; without one the slug is recomputed from the title, and the item
// never collides with itself.
func (s *ContentService) Update(ctx context.Context, id string, in ContentInput, now time.Time) (*models.Content, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	repo := s.repos.Contents(s.db)
	resolver := slug.NewResolver(repo)

	existing, err := repo.GetByID(ctx, id)
	if err != nil {
		return nil, storeErr(err)
	}

	existing.Title = strings.TrimSpace(in.Title)
	existing.Author = in.Author
	existing.Tags = in.Tags
	existing.Body = in.Body
	existing.UpdatedAt = now

	if in.Slug != nil {
		if err := validateExplicitSlug(*in.Slug); err != nil {
			return nil, err
		}
		if existing.Title == "" {
			return nil, common.ErrEmptyTitle
		}
		if err := resolver.AssertAvailable(ctx, *in.Slug, id); err != nil {
			return nil, err
		}
		existing.Slug = *in.Slug
	} else {
		base, err := slug.Derive(existing.Title)
		if err != nil {
			return nil, err
		}
		if existing.Slug, err = resolver.ReserveUnique(ctx, base, id); err != nil {
			return nil, err
		}
	}

	updated, err := repo.Update(ctx, existing)
	if err != nil {
		return nil, contentWriteErr(err)
	}
	return updated, nil
}

func (s *ContentService) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	return storeErr(s.repos.Contents(s.db).Delete(ctx, id))
}

func (s *ContentService) GetBySlug(ctx context.Context, slugValue string) (*models.Content, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	item, err := s.repos.Contents(s.db).FindBySlug(ctx, slugValue)
	if err != nil {
		return nil, storeErr(err)
	}
	return item, nil
}

// List returns content newest first.
func (s *ContentService) List(ctx context.Context, limit, offset int) ([]*models.Content, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	switch {
	case limit <= 0:
		limit = 20
	case limit > 100:
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	items, err := s.repos.Contents(s.db).List(ctx, limit, offset)
	if err != nil {
		return nil, storeErr(err)
	}
	return items, nil
}

func insertContent(ctx context.Context, repo contents.Repository, item *models.Content) (*models.Content, error) {
	created, err := repo.Create(ctx, item)
	if err != nil {
		return nil, contentWriteErr(err)
	}
	return created, nil
}

func validateExplicitSlug(s string) error {
	if !slug.Valid(s) {
		return fmt.Errorf("%w: %q", common.ErrInvalidSlug, s)
	}
	return nil
}

func contentWriteErr(err error) error {
	if errors.Is(err, common.ErrUniqueViolation) {
		return common.ErrSlugConflict
	}
	return storeErr(err)
}

// storeErr classifies a repository failure; nil stays nil.
func storeErr(err error) error {
	return common.Upstream("store", err)
}
