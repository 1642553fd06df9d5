package timelines

import (
	"net/http"

	"github.com/anoixa/memlane/api/common"
	"github.com/anoixa/memlane/api/handler"
	"github.com/anoixa/memlane/database/repo/base"
	"github.com/anoixa/memlane/database/repo/timelines"
	"github.com/gin-gonic/gin"
)

// Handler timeline endpoints
type Handler struct {
	repos handler.RepositoryFactory
}

func NewHandler(repos handler.RepositoryFactory) *Handler {
	return &Handler{repos: repos}
}

// List GET /timelines?limit=&offset=
func (h *Handler) List(c *gin.Context) {
	var page base.Page
	if err := c.ShouldBindQuery(&page); err != nil {
		common.RespondError(c, http.StatusBadRequest, "Invalid pagination parameters")
		return
	}

	list, err := handler.Scope(c, h.repos).Timelines.GetAllWithMemoryCounts(c.Request.Context(), page)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	common.RespondSuccess(c, list)
}

func (h *Handler) Create(c *gin.Context) {
	var in timelines.CreateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		common.RespondError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	t, err := handler.Scope(c, h.repos).Timelines.Create(c.Request.Context(), in)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	common.RespondCreated(c, t)
}

// Get returns the timeline with its memory count
func (h *Handler) Get(c *gin.Context) {
	t, err := handler.Scope(c, h.repos).Timelines.GetWithMemoryCount(c.Request.Context(), c.Param("id"))
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	common.RespondSuccess(c, t)
}

func (h *Handler) GetBySlug(c *gin.Context) {
	t, err := handler.Scope(c, h.repos).Timelines.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	common.RespondSuccess(c, t)
}

func (h *Handler) Update(c *gin.Context) {
	var in timelines.UpdateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		common.RespondError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	t, err := handler.Scope(c, h.repos).Timelines.Update(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	common.RespondSuccess(c, t)
}

// Delete removes the timeline and every memory under it
func (h *Handler) Delete(c *gin.Context) {
	res, err := handler.Scope(c, h.repos).Timelines.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	common.RespondSuccess(c, res)
}

func (h *Handler) Count(c *gin.Context) {
	n, err := handler.Scope(c, h.repos).Timelines.Count(c.Request.Context())
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	common.RespondSuccess(c, gin.H{"count": n})
}

// Memories GET /timelines/:id/memories, newest event first
func (h *Handler) Memories(c *gin.Context) {
	var page base.Page
	if err := c.ShouldBindQuery(&page); err != nil {
		common.RespondError(c, http.StatusBadRequest, "Invalid pagination parameters")
		return
	}

	list, err := handler.Scope(c, h.repos).Memories.GetByParent(c.Request.Context(), c.Param("id"), page)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	common.RespondSuccess(c, list)
}
