package memories

import (
	"net/http"

	"github.com/anoixa/memlane/api/common"
	"github.com/anoixa/memlane/api/handler"
	"github.com/anoixa/memlane/database/repo/memories"
	"github.com/gin-gonic/gin"
)

// Handler memory endpoints
type Handler struct {
	repos handler.RepositoryFactory
}

func NewHandler(repos handler.RepositoryFactory) *Handler {
	return &Handler{repos: repos}
}

func (h *Handler) Create(c *gin.Context) {
	var in memories.CreateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		common.RespondError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	m, err := handler.Scope(c, h.repos).Memories.Create(c.Request.Context(), in)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	common.RespondCreated(c, m)
}

func (h *Handler) Get(c *gin.Context) {
	m, err := handler.Scope(c, h.repos).Memories.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	common.RespondSuccess(c, m)
}

// Update a new image_key replaces the stored image; the old one is removed after commit
func (h *Handler) Update(c *gin.Context) {
	var in memories.UpdateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		common.RespondError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	m, err := handler.Scope(c, h.repos).Memories.Update(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	common.RespondSuccess(c, m)
}

func (h *Handler) Delete(c *gin.Context) {
	res, err := handler.Scope(c, h.repos).Memories.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	common.RespondSuccess(c, res)
}
