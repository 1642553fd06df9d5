package common

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/anoixa/memlane/internal/apperr"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRespondAppError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{"validation", apperr.Validation("op", "name is required"), http.StatusBadRequest, "name is required"},
		{"not found", apperr.NotFound("op", "Timeline not found"), http.StatusNotFound, "Timeline not found"},
		{"slug conflict", apperr.SlugConflict("op", "A timeline with this slug already exists", nil), http.StatusConflict, "A timeline with this slug already exists"},
		{"storage write", apperr.StorageWrite("op", "Failed to store image", errors.New("disk full")), http.StatusBadGateway, "Failed to store image"},
		{"internal", errors.New("connection reset"), http.StatusInternalServerError, "Internal server error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.GET("/x", func(c *gin.Context) { RespondAppError(c, tt.err) })

			w := httptest.NewRecorder()
			req, _ := http.NewRequest(http.MethodGet, "/x", nil)
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			var resp Response
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, "error", resp.Status)
			assert.Equal(t, tt.wantMsg, resp.Msg)
			assert.Nil(t, resp.Data)
		})
	}
}
