package timelines

import (
	"testing"

	"github.com/anoixa/memlane/internal/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateSlug(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"Trip to Rome", "trip-to-rome"},
		{"  Trip   to  Rome!!  ", "trip-to-rome"},
		{"--Summer__2024--", "summer-2024"},
		{"Café au lait", "caf-au-lait"},
		{"ALL CAPS", "all-caps"},
		{"a", "a"},
		{"2024", "2024"},
		{"x/y\\z", "x-y-z"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := GenerateSlug(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.True(t, IsValidSlug(got))
		})
	}
}

func TestGenerateSlugRejectsEmpty(t *testing.T) {
	for _, name := range []string{"", "   ", "!!!", "日本語", "---"} {
		_, err := GenerateSlug(name)
		assert.ErrorIs(t, err, apperr.ErrValidation, name)
	}
}

func TestGenerateSlugAlwaysMatchesPattern(t *testing.T) {
	inputs := []string{
		"Hello, World", "a--b", " -x- ", "Üñíçødé 42", "tab\tseparated", "new\nline",
		"emoji 🎉 party", "dots.and.dots", "MiXeD-Case_and 123", "#hashtag",
	}
	for _, in := range inputs {
		got, err := GenerateSlug(in)
		if err != nil {
			assert.ErrorIs(t, err, apperr.ErrValidation)
			continue
		}
		assert.Regexp(t, `^[a-z0-9]+(-[a-z0-9]+)*$`, got, in)
	}
}

func TestIsValidSlug(t *testing.T) {
	assert.True(t, IsValidSlug("trip-to-rome-1"))
	assert.False(t, IsValidSlug("Trip"))
	assert.False(t, IsValidSlug("-trip"))
	assert.False(t, IsValidSlug("trip--rome"))
	assert.False(t, IsValidSlug(""))
}
