package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/xxxsen/mreply/internal/middleware"
	"github.com/xxxsen/mreply/internal/pkg/response"
)

type RouterDeps struct {
	Replies   *ReplyHandler
	Exchanges *ExchangeHandler
	Styles    *StyleHandler
	Knowledge *KnowledgeHandler
	JWTSecret []byte
	// RateLimit spaces out write requests per client and route; zero
	// disables it.
	RateLimit time.Duration
}

func RegisterRoutes(api *gin.RouterGroup, deps RouterDeps) {
	api.GET("/healthz", Health)

	authGroup := api.Group("")
	authGroup.Use(middleware.JWTAuth(deps.JWTSecret))
	limit := middleware.RateLimit(deps.RateLimit)

	authGroup.POST("/replies", limit, deps.Replies.Draft)
	authGroup.POST("/replies/retone", limit, deps.Replies.Retone)

	authGroup.GET("/exchanges", deps.Exchanges.List)
	authGroup.DELETE("/exchanges", limit, deps.Exchanges.DeleteAll)
	authGroup.GET("/exchanges/:id", deps.Exchanges.Get)
	authGroup.PUT("/exchanges/:id", limit, deps.Exchanges.Finalize)
	authGroup.DELETE("/exchanges/:id", limit, deps.Exchanges.Delete)

	authGroup.POST("/style/analyze", limit, deps.Styles.Analyze)
	authGroup.POST("/style/confirm", limit, deps.Styles.Confirm)
	authGroup.GET("/style", deps.Styles.Get)
	authGroup.DELETE("/style", limit, deps.Styles.Delete)

	authGroup.POST("/documents", limit, deps.Knowledge.Upload)
	authGroup.GET("/documents", deps.Knowledge.List)
	authGroup.GET("/documents/:name/chunks", deps.Knowledge.Chunks)
	authGroup.GET("/documents/:name/raw", deps.Knowledge.Raw)
	authGroup.DELETE("/documents/:name", limit, deps.Knowledge.Delete)
	authGroup.DELETE("/knowledge", limit, deps.Knowledge.Purge)
}

func Health(c *gin.Context) {
	response.Success(c, gin.H{"status": "ok"})
}
