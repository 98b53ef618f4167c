// Package slug derives URL-safe identifiers from titles and reserves them
// against the content store.
package slug

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/portfolio/internal/common"
	"github.com/dmitrijs2005/portfolio/internal/server/models"
)

// MaxProbes bounds the numeric suffixes tried by ReserveUnique.
const MaxProbes = 1000

var (
	disallowed = regexp.MustCompile(`[^a-z0-9\s-]`)
	separators = regexp.MustCompile(`[\s-]+`)
	wellFormed = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)
)

// Derive turns a title into a slug: lowercase ASCII letters and digits
// joined by single hyphens. A title with nothing usable yields
// common.ErrEmptyTitle.
func Derive(title string) (string, error) {
	s := strings.ToLower(title)
	s = disallowed.ReplaceAllString(s, "")
	s = separators.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if s == "" {
		return "", common.ErrEmptyTitle
	}
	return s, nil
}

// Valid reports whether s is already in canonical slug form.
func Valid(s string) bool {
	return wellFormed.MatchString(s)
}

// Lookup finds the content currently holding a slug, returning
// common.ErrorNotFound when none does.
type Lookup interface {
	FindBySlug(ctx context.Context, slug string) (*models.Content, error)
}

type Resolver struct {
	lookup Lookup
}

func NewResolver(lookup Lookup) *Resolver {
	return &Resolver{lookup: lookup}
}

// ReserveUnique returns base if it is free, otherwise the first free
// base-1, base-2, ... Content whose ID equals excludeID never collides.
// The answer is optimistic; the store's unique index has the final word.
func (r *Resolver) ReserveUnique(ctx context.Context, base, excludeID string) (string, error) {
	for i := 0; i <= MaxProbes; i++ {
		candidate := base
		if i > 0 {
			candidate = base + "-" + strconv.Itoa(i)
		}

		taken, err := r.taken(ctx, candidate, excludeID)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("%w: %q", common.ErrSlugExhausted, base)
}

// AssertAvailable fails with common.ErrSlugConflict when content other
// than excludeID holds slug.
func (r *Resolver) AssertAvailable(ctx context.Context, slug, excludeID string) error {
	taken, err := r.taken(ctx, slug, excludeID)
	if err != nil {
		return err
	}
	if taken {
		return fmt.Errorf("%w: %q", common.ErrSlugConflict, slug)
	}
	return nil
}

func (r *Resolver) taken(ctx context.Context, slug, excludeID string) (bool, error) {
	c, err := r.lookup.FindBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return false, nil
		}
		return false, common.Upstream("slug lookup", err)
	}
	return excludeID == "" || c.ID != excludeID, nil
}
