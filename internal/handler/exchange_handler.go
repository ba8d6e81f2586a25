package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/xxxsen/mreply/internal/model"
	"github.com/xxxsen/mreply/internal/pkg/errcode"
	"github.com/xxxsen/mreply/internal/pkg/response"
	"github.com/xxxsen/mreply/internal/service"
)

type ExchangeHandler struct {
	exchanges *service.ExchangeService
}

func NewExchangeHandler(exchanges *service.ExchangeService) *ExchangeHandler {
	return &ExchangeHandler{exchanges: exchanges}
}

type finalizeRequest struct {
	FinalReply string `json:"final_reply"`
	Tone       string `json:"tone"`
}

type exchangeListResponse struct {
	Items []model.Exchange `json:"items"`
	Page  int              `json:"page"`
	Size  int              `json:"size"`
}

func (h *ExchangeHandler) List(c *gin.Context) {
	page := queryInt(c, "page", 1)
	size := queryInt(c, "size", 0)
	items, err := h.exchanges.List(c.Request.Context(), getOwnerID(c), page, size)
	if err != nil {
		handleError(c, err)
		return
	}
	if items == nil {
		items = []model.Exchange{}
	}
	response.Success(c, exchangeListResponse{Items: items, Page: max(page, 1), Size: len(items)})
}

func (h *ExchangeHandler) Get(c *gin.Context) {
	item, err := h.exchanges.Get(c.Request.Context(), getOwnerID(c), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, item)
}

func (h *ExchangeHandler) Finalize(c *gin.Context) {
	var req finalizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	item, err := h.exchanges.Finalize(c.Request.Context(), getOwnerID(c), c.Param("id"), req.FinalReply, req.Tone)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, item)
}

func (h *ExchangeHandler) Delete(c *gin.Context) {
	if err := h.exchanges.Delete(c.Request.Context(), getOwnerID(c), c.Param("id")); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"id": c.Param("id")})
}

func (h *ExchangeHandler) DeleteAll(c *gin.Context) {
	n, err := h.exchanges.DeleteAll(c.Request.Context(), getOwnerID(c))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"deleted": n})
}
