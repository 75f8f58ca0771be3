package server

import (
	"github.com/gin-gonic/gin"

	"github.com/knowbase/knowbase-go/pkg/logger"
)

// RouterConfig carries everything NewRouter needs to assemble the engine.
type RouterConfig struct {
	// KnowledgeHandler serves the knowledge base endpoints.
	KnowledgeHandler *KnowledgeHandler

	// Log receives per-request log lines.
	Log *logger.Logger

	// Mode switches gin into release mode when set to "prod".
	Mode string
}

// NewRouter assembles the HTTP engine: recovery, request IDs, request
// logging and CORS, then the knowledge base routes.
func NewRouter(cfg RouterConfig) (*gin.Engine, error) {
	if cfg.Mode == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}
	if cfg.Log == nil {
		cfg.Log = logger.NewNop()
	}

	requestID, err := RequestID()
	if err != nil {
		return nil, err
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestID)
	router.Use(RequestLogger(cfg.Log))
	router.Use(CORS())

	router.GET("/health", HealthCheck)
	router.POST("/chat", cfg.KnowledgeHandler.Chat)
	router.POST("/query", cfg.KnowledgeHandler.Query)
	router.GET("/stats", cfg.KnowledgeHandler.Stats)
	router.GET("/search", cfg.KnowledgeHandler.Search)
	router.GET("/debug", cfg.KnowledgeHandler.Debug)

	return router, nil
}
