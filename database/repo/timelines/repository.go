// Package timelines owns timeline rows, their slugs and the cascade that
// removes a timeline together with its memories.
package timelines

import (
	"context"
	"fmt"
	"strings"

	"github.com/anoixa/memlane/database"
	"github.com/anoixa/memlane/database/models"
	"github.com/anoixa/memlane/database/repo/base"
	"github.com/anoixa/memlane/database/repo/counts"
	"github.com/anoixa/memlane/database/repo/memories"
	"github.com/anoixa/memlane/internal/apperr"
	"github.com/anoixa/memlane/internal/session"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

const orderByNewest = "created_at DESC, id"

// MemoryCascade the memory operations a timeline delete depends on
type MemoryCascade interface {
	CountByParent(ctx context.Context, timelineID string) (int64, error)
	DeleteByParent(ctx context.Context, timelineID string) (memories.CascadeResult, error)
}

// Options slug retry limits
type Options struct {
	// MaxAttempts number of candidates probed before giving up
	MaxAttempts int
	// InsertRetries extra inserts after a unique violation on slug
	InsertRetries int
}

func DefaultOptions() Options {
	return Options{MaxAttempts: 100, InsertRetries: 3}
}

// Repository timeline repository
type Repository struct {
	base.Repository[models.Timeline]

	sess     *session.Session
	memories MemoryCascade
	planner  *counts.Planner
	opts     Options
}

func NewRepository(sess *session.Session, memories MemoryCascade, planner *counts.Planner, opts Options) *Repository {
	def := DefaultOptions()
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = def.MaxAttempts
	}
	if opts.InsertRetries < 0 {
		opts.InsertRetries = def.InsertRetries
	}
	return &Repository{sess: sess, memories: memories, planner: planner, opts: opts}
}

type CreateInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	// Slug optional override of the derived slug
	Slug string `json:"slug,omitempty"`
}

// UpdateInput partial update. The slug only changes when Slug is set.
type UpdateInput struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Slug        *string `json:"slug"`
}

type DeleteResult struct {
	Success bool                    `json:"success"`
	ID      string                  `json:"id"`
	Cascade *memories.CascadeResult `json:"cascade,omitempty"`
}

// Create inserts a timeline with a unique slug. A slug taken between the probe
// and the insert is retried with a fresh probe up to InsertRetries times.
func (r *Repository) Create(ctx context.Context, in CreateInput) (*models.Timeline, error) {
	const op = "timelines.Create"

	name := strings.TrimSpace(in.Name)
	description := strings.TrimSpace(in.Description)
	if name == "" {
		return nil, apperr.Validation(op, "name is required")
	}
	if description == "" {
		return nil, apperr.Validation(op, "description is required")
	}

	explicit := strings.TrimSpace(in.Slug)
	if explicit != "" {
		if !IsValidSlug(explicit) {
			return nil, apperr.Validation(op, "slug must be lowercase letters, digits and single hyphens")
		}
		return r.insert(ctx, op, name, description, explicit, true)
	}

	baseSlug, err := GenerateSlug(name)
	if err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 0; attempt <= r.opts.InsertRetries; attempt++ {
		t, err := r.insert(ctx, op, name, description, baseSlug, false)
		if err == nil {
			return t, nil
		}
		if !database.IsUniqueViolation(err) {
			return nil, err
		}
		lastErr = err
		log.Debug().Str("slug", baseSlug).Int("attempt", attempt+1).Msg("Slug taken at insert, retrying")
	}
	return nil, lastErr
}

// insert probes (unless exact) and inserts in one transaction
func (r *Repository) insert(ctx context.Context, op, name, description, slug string, exact bool) (*models.Timeline, error) {
	t := &models.Timeline{Name: name, Description: description}

	err := r.sess.Transaction(ctx, func(tx *gorm.DB) error {
		if exact {
			t.Slug = slug
		} else {
			free, err := r.probeSlug(tx, slug)
			if err != nil {
				return err
			}
			t.Slug = free
		}
		return tx.Create(t).Error
	})
	if err != nil {
		return nil, r.translate(op, err)
	}
	return t, nil
}

func (r *Repository) GetByID(ctx context.Context, id string) (*models.Timeline, error) {
	return r.first(ctx, "timelines.GetByID", "id = ?", id)
}

func (r *Repository) GetBySlug(ctx context.Context, slug string) (*models.Timeline, error) {
	return r.first(ctx, "timelines.GetBySlug", "slug = ?", slug)
}

func (r *Repository) first(ctx context.Context, op, query string, args ...interface{}) (*models.Timeline, error) {
	var t *models.Timeline
	err := r.sess.Transaction(ctx, func(tx *gorm.DB) error {
		var err error
		t, err = r.Repository.First(tx, query, args...)
		return err
	})
	if err != nil {
		return nil, r.translate(op, err)
	}
	return t, nil
}

// Update applies in. An explicit slug already held by another timeline fails
// with a slug conflict and leaves the row untouched.
func (r *Repository) Update(ctx context.Context, id string, in UpdateInput) (*models.Timeline, error) {
	const op = "timelines.Update"

	updates := make(map[string]interface{})
	if in.Name != nil {
		v := strings.TrimSpace(*in.Name)
		if v == "" {
			return nil, apperr.Validation(op, "name must not be empty")
		}
		updates["name"] = v
	}
	if in.Description != nil {
		v := strings.TrimSpace(*in.Description)
		if v == "" {
			return nil, apperr.Validation(op, "description must not be empty")
		}
		updates["description"] = v
	}
	if in.Slug != nil {
		v := strings.TrimSpace(*in.Slug)
		if !IsValidSlug(v) {
			return nil, apperr.Validation(op, "slug must be lowercase letters, digits and single hyphens")
		}
		updates["slug"] = v
	}

	var t *models.Timeline
	err := r.sess.Transaction(ctx, func(tx *gorm.DB) error {
		current, err := r.Repository.GetByID(tx, id)
		if err != nil {
			return err
		}

		if slug, ok := updates["slug"].(string); ok {
			if slug == current.Slug {
				delete(updates, "slug")
			} else {
				taken, err := r.Repository.Exists(tx, "slug = ? AND id <> ?", slug, id)
				if err != nil {
					return err
				}
				if taken {
					return apperr.SlugConflict(op, "A timeline with this slug already exists", nil)
				}
			}
		}

		if len(updates) > 0 {
			if err := tx.Model(current).Updates(updates).Error; err != nil {
				return err
			}
		}

		t, err = r.Repository.GetByID(tx, id)
		return err
	})
	if err != nil {
		return nil, r.translate(op, err)
	}
	return t, nil
}

// Delete removes every memory of the timeline (images best effort) and then
// the timeline row itself.
func (r *Repository) Delete(ctx context.Context, id string) (DeleteResult, error) {
	const op = "timelines.Delete"

	if _, err := r.GetByID(ctx, id); err != nil {
		return DeleteResult{}, err
	}

	result := DeleteResult{ID: id}

	n, err := r.memories.CountByParent(ctx, id)
	if err != nil {
		return DeleteResult{}, err
	}
	if n > 0 {
		cascade, err := r.memories.DeleteByParent(ctx, id)
		if err != nil {
			return DeleteResult{}, err
		}
		result.Cascade = &cascade
		if !cascade.Success {
			log.Warn().
				Str("op", op).
				Str("timeline_id", id).
				Int("failed", len(cascade.Failed)).
				Msg("Cascade left memories behind")
		}
	}

	var affected int64
	err = r.sess.Transaction(ctx, func(tx *gorm.DB) error {
		res := tx.Delete(&models.Timeline{}, "id = ?", id)
		affected = res.RowsAffected
		return res.Error
	})
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return DeleteResult{}, apperr.HasDependents(op, "Timeline still has memories that could not be deleted", err)
		}
		return DeleteResult{}, r.translate(op, err)
	}
	if affected == 0 {
		return DeleteResult{}, apperr.NotFound(op, "Timeline not found")
	}

	result.Success = true
	return result, nil
}

func (r *Repository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.sess.Transaction(ctx, func(tx *gorm.DB) error {
		var err error
		n, err = r.Repository.Count(tx)
		return err
	})
	if err != nil {
		return 0, r.translate("timelines.Count", err)
	}
	return n, nil
}

// GetWithMemoryCount one timeline fetch plus one count query
func (r *Repository) GetWithMemoryCount(ctx context.Context, id string) (*models.TimelineWithCount, error) {
	var out *models.TimelineWithCount
	err := r.sess.Transaction(ctx, func(tx *gorm.DB) error {
		t, err := r.Repository.GetByID(tx, id)
		if err != nil {
			return err
		}
		c, err := r.planner.MemoryCounts(tx, []string{t.ID})
		if err != nil {
			return err
		}
		out = counts.Merge([]*models.Timeline{t}, c)[0]
		return nil
	})
	if err != nil {
		return nil, r.translate("timelines.GetWithMemoryCount", err)
	}
	return out, nil
}

// GetAllWithMemoryCounts a page of timelines, newest first, with counts
// fetched in a single batched query
func (r *Repository) GetAllWithMemoryCounts(ctx context.Context, page base.Page) ([]*models.TimelineWithCount, error) {
	const op = "timelines.GetAllWithMemoryCounts"

	if page.Limit < 0 || page.Offset < 0 {
		return nil, apperr.Validation(op, "limit and offset must not be negative")
	}

	var out []*models.TimelineWithCount
	err := r.sess.Transaction(ctx, func(tx *gorm.DB) error {
		list, err := r.Repository.List(tx, orderByNewest, page)
		if err != nil {
			return err
		}
		ids := make([]string, len(list))
		for i, t := range list {
			ids[i] = t.ID
		}
		c, err := r.planner.MemoryCounts(tx, ids)
		if err != nil {
			return err
		}
		out = counts.Merge(list, c)
		return nil
	})
	if err != nil {
		return nil, r.translate(op, err)
	}
	return out, nil
}

func (r *Repository) translate(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case apperr.KindOf(err) != apperr.KindInternal:
		return err
	case base.IsNotFound(err):
		return apperr.NotFound(op, "Timeline not found")
	case database.IsUniqueViolation(err):
		return apperr.SlugConflict(op, "A timeline with this slug already exists", err)
	case database.IsForeignKeyViolation(err):
		return apperr.HasDependents(op, "Timeline still has memories", err)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
