package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetSafeExtension(t *testing.T) {
	assert.Equal(t, ".jpg", GetSafeExtension("image/jpeg"))
	assert.Equal(t, ".png", GetSafeExtension("IMAGE/PNG; charset=binary"))
	assert.Equal(t, "", GetSafeExtension("text/html"))
}

func TestGenerateRandomToken(t *testing.T) {
	tok, err := GenerateRandomToken(12)
	assert.NoError(t, err)
	assert.Len(t, tok, 12)
	assert.Regexp(t, `^[a-z0-9]+$`, tok)

	other, _ := GenerateRandomToken(12)
	assert.NotEqual(t, tok, other)
}
