package timelines

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/anoixa/memlane/internal/apperr"
	"gorm.io/gorm"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

// IsValidSlug reports whether s is lowercase alphanumeric runs joined by single hyphens
func IsValidSlug(s string) bool {
	return slugPattern.MatchString(s)
}

// GenerateSlug lowercases name and collapses every run of non alphanumeric
// characters into one hyphen. Names with no ASCII letters or digits are rejected.
func GenerateSlug(name string) (string, error) {
	var b strings.Builder
	pendingHyphen := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
			continue
		}
		pendingHyphen = true
	}

	slug := b.String()
	if slug == "" {
		return "", apperr.Validation("timelines.GenerateSlug", "name must contain at least one letter or digit")
	}
	return slug, nil
}

// GenerateUniqueSlug derives a slug from name and appends -1, -2, ... until
// no timeline uses it. The result is only a hint; the unique index decides.
func (r *Repository) GenerateUniqueSlug(ctx context.Context, name string) (string, error) {
	base, err := GenerateSlug(name)
	if err != nil {
		return "", err
	}

	var slug string
	err = r.sess.Transaction(ctx, func(tx *gorm.DB) error {
		slug, err = r.probeSlug(tx, base)
		return err
	})
	if err != nil {
		return "", r.translate("timelines.GenerateUniqueSlug", err)
	}
	return slug, nil
}

// probeSlug returns the first free candidate, giving up after maxAttempts probes
func (r *Repository) probeSlug(tx *gorm.DB, base string) (string, error) {
	candidate := base
	for i := 0; i < r.opts.MaxAttempts; i++ {
		if i > 0 {
			candidate = fmt.Sprintf("%s-%d", base, i)
		}
		taken, err := r.Repository.Exists(tx, "slug = ?", candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
	}
	return "", apperr.SlugConflict("timelines.GenerateUniqueSlug",
		fmt.Sprintf("No free slug for %q after %d attempts", base, r.opts.MaxAttempts), nil)
}
