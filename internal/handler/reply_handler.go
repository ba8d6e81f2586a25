package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/xxxsen/mreply/internal/pkg/errcode"
	"github.com/xxxsen/mreply/internal/pkg/response"
	"github.com/xxxsen/mreply/internal/service"
)

type ReplyHandler struct {
	replies *service.ReplyService
}

func NewReplyHandler(replies *service.ReplyService) *ReplyHandler {
	return &ReplyHandler{replies: replies}
}

type retoneRequest struct {
	Reply string `json:"reply"`
	Tone  string `json:"tone"`
}

func (h *ReplyHandler) Draft(c *gin.Context) {
	var req service.ReplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	result, err := h.replies.Draft(c.Request.Context(), getOwnerID(c), req)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, result)
}

func (h *ReplyHandler) Retone(c *gin.Context) {
	var req retoneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	text, err := h.replies.Retone(c.Request.Context(), req.Reply, req.Tone)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"reply": text})
}
