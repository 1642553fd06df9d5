// Package memories owns memory rows and keeps their images in step with storage.
package memories

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/anoixa/memlane/database"
	"github.com/anoixa/memlane/database/models"
	"github.com/anoixa/memlane/database/repo/base"
	"github.com/anoixa/memlane/internal/apperr"
	"github.com/anoixa/memlane/internal/blob"
	"github.com/anoixa/memlane/internal/session"
	"github.com/anoixa/memlane/storage"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

const orderByEventDesc = "date_of_event DESC, created_at DESC, id"

// Repository memory repository
type Repository struct {
	base.Repository[models.Memory]

	sess  *session.Session
	blobs *blob.Gateway
}

func NewRepository(sess *session.Session, blobs *blob.Gateway) *Repository {
	return &Repository{sess: sess, blobs: blobs}
}

// CreateInput fields required to create a memory
type CreateInput struct {
	TimelineID  string `json:"timeline_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	ImageURL    string `json:"image_url"`
	ImageKey    string `json:"image_key"`
	DateOfEvent string `json:"date_of_event"`
}

// UpdateInput partial update, nil fields are left unchanged
type UpdateInput struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	ImageURL    *string `json:"image_url"`
	ImageKey    *string `json:"image_key"`
	DateOfEvent *string `json:"date_of_event"`
}

type DeleteResult struct {
	Success bool   `json:"success"`
	ID      string `json:"id"`
}

// CascadeResult outcome of DeleteByParent. Failed maps memory id to the reason
// its row could not be removed.
type CascadeResult struct {
	Success      bool              `json:"success"`
	ID           string            `json:"id"`
	Deleted      int               `json:"deleted"`
	Failed       map[string]string `json:"failed,omitempty"`
	BlobFailures int               `json:"blob_failures"`
}

// Create validates input and inserts the row. The parent timeline is not
// looked up first; the foreign key rejects unknown parents.
func (r *Repository) Create(ctx context.Context, in CreateInput) (*models.Memory, error) {
	const op = "memories.Create"

	date, err := validateCreate(op, in)
	if err != nil {
		return nil, err
	}

	m := &models.Memory{
		TimelineID:  strings.TrimSpace(in.TimelineID),
		Name:        strings.TrimSpace(in.Name),
		Description: strings.TrimSpace(in.Description),
		ImageURL:    strings.TrimSpace(in.ImageURL),
		ImageKey:    strings.TrimSpace(in.ImageKey),
		DateOfEvent: date,
	}

	err = r.sess.Transaction(ctx, func(tx *gorm.DB) error {
		return tx.Create(m).Error
	})
	if err != nil {
		return nil, r.translate(op, err)
	}
	return m, nil
}

func (r *Repository) GetByID(ctx context.Context, id string) (*models.Memory, error) {
	const op = "memories.GetByID"

	var m *models.Memory
	err := r.sess.Transaction(ctx, func(tx *gorm.DB) error {
		var err error
		m, err = r.Repository.GetByID(tx, id)
		return err
	})
	if err != nil {
		return nil, r.translate(op, err)
	}
	return m, nil
}

// GetByParent lists a timeline's memories, most recent event first
func (r *Repository) GetByParent(ctx context.Context, timelineID string, page base.Page) ([]*models.Memory, error) {
	const op = "memories.GetByParent"

	if page.Limit < 0 || page.Offset < 0 {
		return nil, apperr.Validation(op, "limit and offset must not be negative")
	}

	list := make([]*models.Memory, 0)
	err := r.sess.Transaction(ctx, func(tx *gorm.DB) error {
		return page.Apply(tx.Where("timeline_id = ?", timelineID).Order(orderByEventDesc)).Find(&list).Error
	})
	if err != nil {
		return nil, r.translate(op, err)
	}
	return list, nil
}

// Update applies in. When the image key changes the old blob is deleted only
// after the row update has committed; a failed delete is logged, not returned.
func (r *Repository) Update(ctx context.Context, id string, in UpdateInput) (*models.Memory, error) {
	const op = "memories.Update"

	updates, err := r.validateUpdate(op, in)
	if err != nil {
		return nil, err
	}

	var (
		m      *models.Memory
		oldKey string
	)
	err = r.sess.Transaction(ctx, func(tx *gorm.DB) error {
		current, err := r.Repository.GetByID(tx, id)
		if err != nil {
			return err
		}

		if newKey, ok := updates["image_key"].(string); ok {
			if newKey == current.ImageKey {
				delete(updates, "image_key")
			} else {
				oldKey = current.ImageKey
				if _, hasURL := updates["image_url"]; !hasURL {
					updates["image_url"] = r.blobs.ResolvePublicURL(newKey)
				}
			}
		}

		if len(updates) > 0 {
			if err := tx.Model(current).Updates(updates).Error; err != nil {
				return err
			}
		}

		m, err = r.Repository.GetByID(tx, id)
		return err
	})
	if err != nil {
		return nil, r.translate(op, err)
	}

	if oldKey != "" {
		if _, err := r.blobs.Delete(ctx, oldKey); err != nil {
			blob.LogCleanupFailure(err, op, oldKey, map[string]string{
				"memory_id":   m.ID,
				"timeline_id": m.TimelineID,
			})
		}
	}
	return m, nil
}

// Delete removes the memory's image (best effort) and then its row
func (r *Repository) Delete(ctx context.Context, id string) (DeleteResult, error) {
	const op = "memories.Delete"

	m, err := r.GetByID(ctx, id)
	if err != nil {
		return DeleteResult{}, err
	}

	if _, err := r.blobs.Delete(ctx, m.ImageKey); err != nil {
		blob.LogCleanupFailure(err, op, m.ImageKey, map[string]string{
			"memory_id":   m.ID,
			"timeline_id": m.TimelineID,
		})
	}

	var affected int64
	err = r.sess.Transaction(ctx, func(tx *gorm.DB) error {
		res := tx.Delete(&models.Memory{}, "id = ?", id)
		affected = res.RowsAffected
		return res.Error
	})
	if err != nil {
		return DeleteResult{}, r.translate(op, err)
	}
	if affected == 0 {
		return DeleteResult{}, apperr.NotFound(op, "Memory not found")
	}
	return DeleteResult{Success: true, ID: id}, nil
}

// DeleteByParent removes every memory of a timeline one at a time: the
// memory's image first (best effort), then its row. A row that fails to delete
// is recorded and the loop moves on.
func (r *Repository) DeleteByParent(ctx context.Context, timelineID string) (CascadeResult, error) {
	const op = "memories.DeleteByParent"

	var children []*models.Memory
	err := r.sess.Transaction(ctx, func(tx *gorm.DB) error {
		return tx.Select("id", "image_key").Where("timeline_id = ?", timelineID).Find(&children).Error
	})
	if err != nil {
		return CascadeResult{}, r.translate(op, err)
	}

	result := CascadeResult{ID: timelineID}
	for _, c := range children {
		if _, err := r.blobs.Delete(ctx, c.ImageKey); err != nil {
			result.BlobFailures++
			blob.LogCleanupFailure(err, op, c.ImageKey, map[string]string{
				"memory_id":   c.ID,
				"timeline_id": timelineID,
			})
		}

		err := r.sess.Transaction(ctx, func(tx *gorm.DB) error {
			return tx.Delete(&models.Memory{}, "id = ?", c.ID).Error
		})
		if err != nil {
			if result.Failed == nil {
				result.Failed = make(map[string]string)
			}
			result.Failed[c.ID] = err.Error()
			log.Error().Err(err).
				Str("op", op).
				Str("timeline_id", timelineID).
				Str("memory_id", c.ID).
				Msg("Failed to delete memory during cascade")
			continue
		}
		result.Deleted++
	}

	result.Success = len(result.Failed) == 0
	return result, nil
}

// CountByParent exact number of memories under a timeline
func (r *Repository) CountByParent(ctx context.Context, timelineID string) (int64, error) {
	var count int64
	err := r.sess.Transaction(ctx, func(tx *gorm.DB) error {
		return tx.Model(&models.Memory{}).Where("timeline_id = ?", timelineID).Count(&count).Error
	})
	if err != nil {
		return 0, r.translate("memories.CountByParent", err)
	}
	return count, nil
}

// ReferencedKeys every image key still referenced by a memory row
func (r *Repository) ReferencedKeys(ctx context.Context) (map[string]struct{}, error) {
	keys := make(map[string]struct{})
	err := r.sess.Transaction(ctx, func(tx *gorm.DB) error {
		var batch []*models.Memory
		return tx.Select("id", "image_key").FindInBatches(&batch, 500, func(_ *gorm.DB, _ int) error {
			for _, m := range batch {
				keys[r.blobs.NormalizeKey(m.ImageKey)] = struct{}{}
			}
			return nil
		}).Error
	})
	if err != nil {
		return nil, r.translate("memories.ReferencedKeys", err)
	}
	return keys, nil
}

func (r *Repository) translate(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case apperr.KindOf(err) != apperr.KindInternal:
		return err
	case base.IsNotFound(err):
		return apperr.NotFound(op, "Memory not found")
	case database.IsForeignKeyViolation(err):
		return apperr.ParentNotFound(op, "Timeline does not exist", err)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

func validateCreate(op string, in CreateInput) (models.Date, error) {
	if _, err := uuid.Parse(strings.TrimSpace(in.TimelineID)); err != nil {
		return models.Date{}, apperr.Validation(op, "timeline_id must be a valid id")
	}
	if strings.TrimSpace(in.Name) == "" {
		return models.Date{}, apperr.Validation(op, "name is required")
	}
	if strings.TrimSpace(in.Description) == "" {
		return models.Date{}, apperr.Validation(op, "description is required")
	}
	if err := validateImageURL(op, in.ImageURL); err != nil {
		return models.Date{}, err
	}
	if err := validateImageKey(op, in.ImageKey); err != nil {
		return models.Date{}, err
	}
	return parseDate(op, in.DateOfEvent)
}

// validateUpdate turns in into a column map, validating every supplied field
func (r *Repository) validateUpdate(op string, in UpdateInput) (map[string]interface{}, error) {
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
	if in.ImageURL != nil {
		if err := validateImageURL(op, *in.ImageURL); err != nil {
			return nil, err
		}
		updates["image_url"] = strings.TrimSpace(*in.ImageURL)
	}
	if in.ImageKey != nil {
		if err := validateImageKey(op, *in.ImageKey); err != nil {
			return nil, err
		}
		updates["image_key"] = strings.TrimSpace(*in.ImageKey)
	}
	if in.DateOfEvent != nil {
		d, err := parseDate(op, *in.DateOfEvent)
		if err != nil {
			return nil, err
		}
		updates["date_of_event"] = d
	}
	return updates, nil
}

func validateImageURL(op, raw string) error {
	u, err := url.ParseRequestURI(strings.TrimSpace(raw))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return apperr.Validation(op, "image_url must be an absolute http(s) URL")
	}
	return nil
}

func validateImageKey(op, key string) error {
	if !storage.IsValidStoragePath(strings.TrimSpace(key)) {
		return apperr.Validation(op, "image_key is not a valid storage key")
	}
	return nil
}

func parseDate(op, raw string) (models.Date, error) {
	d, err := models.ParseDate(strings.TrimSpace(raw))
	if err != nil {
		return models.Date{}, apperr.Validation(op, "date_of_event must be a valid YYYY-MM-DD date")
	}
	return d, nil
}
