package server

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/abylay/filestore/internal/blob"
	"github.com/abylay/filestore/internal/config"
	"github.com/abylay/filestore/internal/filestore"
	"github.com/abylay/filestore/internal/logger"
	"github.com/abylay/filestore/internal/metrics"
)

// Dependencies groups what the HTTP router needs.
type Dependencies struct {
	Config      config.Config
	Log         *zap.Logger
	Metadata    filestore.MetadataStore
	Blobs       blob.Store
	FileService *filestore.Service
}

// NewRouter builds a Gin engine with foundational middleware and routes.
func NewRouter(deps Dependencies) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(logger.Middleware())
	router.Use(metrics.Middleware())

	registerHealthRoutes(router, deps)
	metrics.Register(router, deps.Config.Metrics.PrometheusPath)

	api := router.Group("/v1")
	if deps.FileService != nil {
		filestore.RegisterRoutes(api, deps.FileService)
	}

	return router
}
