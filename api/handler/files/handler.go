// Package files serves stored objects when the backend has no public endpoint of its own.
package files

import (
	"net/http"
	"strings"

	"github.com/anoixa/memlane/api/common"
	"github.com/anoixa/memlane/internal/blob"
	"github.com/gin-gonic/gin"
)

type Handler struct {
	gateway *blob.Gateway
}

func NewHandler(gateway *blob.Gateway) *Handler {
	return &Handler{gateway: gateway}
}

// Serve GET /files/<bucket>/*key
func (h *Handler) Serve(c *gin.Context) {
	key := strings.TrimPrefix(c.Param("key"), "/")
	ctx := c.Request.Context()

	info, err := h.gateway.Metadata(ctx, key)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	rc, err := h.gateway.Open(ctx, key)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	defer rc.Close()

	contentType := info.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.DataFromReader(http.StatusOK, info.Size, contentType, rc, map[string]string{
		"Cache-Control":          "public, max-age=31536000, immutable",
		"X-Content-Type-Options": "nosniff",
	})
}
