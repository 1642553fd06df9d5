package uploads

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/anoixa/memlane/api/common"
	"github.com/anoixa/memlane/internal/blob"
	"github.com/anoixa/memlane/utils/validator"
	"github.com/gin-gonic/gin"
)

// multipartOverhead headroom for boundaries and form fields on top of the file limit
const multipartOverhead = 1 << 20

// Handler accepts image uploads and hands them to the blob gateway
type Handler struct {
	gateway      *blob.Gateway
	maxBytes     int64
	allowedTypes []string
}

func NewHandler(gateway *blob.Gateway, maxBytes int64, allowedTypes []string) *Handler {
	return &Handler{gateway: gateway, maxBytes: maxBytes, allowedTypes: allowedTypes}
}

// Upload POST /uploads, multipart field "file"
func (h *Handler) Upload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBytes+multipartOverhead)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			common.RespondError(c, http.StatusRequestEntityTooLarge, h.tooLargeMessage())
			return
		}
		common.RespondError(c, http.StatusBadRequest, "A file is required under the 'file' key")
		return
	}
	if fileHeader.Size > h.maxBytes {
		common.RespondError(c, http.StatusRequestEntityTooLarge, h.tooLargeMessage())
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		common.RespondError(c, http.StatusBadRequest, "Failed to read uploaded file")
		return
	}
	defer file.Close()

	mimeType, ok, err := validator.DetectAllowedImage(file, h.allowedTypes)
	if err != nil {
		common.RespondError(c, http.StatusBadRequest, "Failed to read uploaded file")
		return
	}
	if !ok {
		common.RespondError(c, http.StatusUnsupportedMediaType, fmt.Sprintf("Unsupported file type: %s", mimeType))
		return
	}

	res, err := h.gateway.Upload(c.Request.Context(), file, fileHeader.Size, fileHeader.Filename, mimeType)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	common.RespondCreated(c, res)
}

func (h *Handler) tooLargeMessage() string {
	return fmt.Sprintf("File exceeds maximum size of %d MB", h.maxBytes>>20)
}
