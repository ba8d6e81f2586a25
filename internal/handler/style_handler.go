package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/xxxsen/mreply/internal/model"
	"github.com/xxxsen/mreply/internal/pkg/errcode"
	"github.com/xxxsen/mreply/internal/pkg/response"
	"github.com/xxxsen/mreply/internal/service"
	"github.com/xxxsen/mreply/internal/style"
)

type StyleHandler struct {
	styles *service.StyleService
}

func NewStyleHandler(styles *service.StyleService) *StyleHandler {
	return &StyleHandler{styles: styles}
}

type confirmStyleRequest struct {
	Candidate *model.StyleFingerprint `json:"candidate"`
	Edits     []style.Edit            `json:"edits"`
}

func (h *StyleHandler) Analyze(c *gin.Context) {
	analysis, err := h.styles.Analyze(c.Request.Context(), getOwnerID(c))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, analysis)
}

func (h *StyleHandler) Confirm(c *gin.Context) {
	var req confirmStyleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	fp, err := h.styles.Confirm(c.Request.Context(), getOwnerID(c), req.Candidate, req.Edits)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, fp)
}

func (h *StyleHandler) Get(c *gin.Context) {
	fp, err := h.styles.Get(c.Request.Context(), getOwnerID(c))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, fp)
}

func (h *StyleHandler) Delete(c *gin.Context) {
	if err := h.styles.Delete(c.Request.Context(), getOwnerID(c)); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{})
}
