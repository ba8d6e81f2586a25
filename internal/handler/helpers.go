package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/mreply/internal/ai"
	"github.com/xxxsen/mreply/internal/middleware"
	"github.com/xxxsen/mreply/internal/pkg/errcode"
	appErr "github.com/xxxsen/mreply/internal/pkg/errors"
	"github.com/xxxsen/mreply/internal/pkg/response"
)

func getOwnerID(c *gin.Context) string {
	return middleware.OwnerID(c)
}

func queryInt(c *gin.Context, key string, def int) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return def
	}
	return v
}

type errMapping struct {
	target error
	code   errcode.Code
	msg    string
}

var errMappings = []errMapping{
	{appErr.ErrUnauthorized, errcode.ErrUnauthorized, "unauthorized"},
	{appErr.ErrNotFound, errcode.ErrNotFound, "not found"},
	{appErr.ErrInvalid, errcode.ErrInvalid, "invalid request"},
	{appErr.ErrConflict, errcode.ErrConflict, "conflict"},
	{appErr.ErrTooLarge, errcode.ErrTooLarge, "payload too large"},
	{appErr.ErrTooMany, errcode.ErrTooMany, "too many requests"},
	{appErr.ErrNothingToAnalyze, errcode.ErrNothingToAnalyze, "no drafts to analyze yet"},
	{appErr.ErrInsufficientSignal, errcode.ErrInsufficientSignal, "not enough style signal to save"},
	{appErr.ErrUpstreamUnavailable, errcode.ErrAIUnavailable, "ai service unavailable"},
	{ai.ErrUnavailable, errcode.ErrAIUnavailable, "ai service unavailable"},
}

func handleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	for _, m := range errMappings {
		if errors.Is(err, m.target) {
			logutil.GetLogger(c.Request.Context()).Debug("request rejected",
				zap.String("path", c.FullPath()), zap.String("owner_id", getOwnerID(c)), zap.Error(err))
			response.Error(c, m.code, m.msg)
			return
		}
	}
	logutil.GetLogger(c.Request.Context()).Error("request failed",
		zap.String("method", c.Request.Method),
		zap.String("path", c.FullPath()),
		zap.String("owner_id", getOwnerID(c)),
		zap.Error(err),
	)
	response.Error(c, errcode.ErrInternal, "internal error")
}
