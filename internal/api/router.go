package api

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter wires the HTTP routes. gatherer may be nil to disable /metrics.
func NewRouter(api *API, gatherer prometheus.Gatherer) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestLogger(), CORSMiddleware())

	router.GET("/", api.RootHandler)
	router.POST("/upload", api.UploadHandler)
	router.POST("/query", api.QueryHandler)
	router.POST("/reset", api.ResetHandler)

	docs := router.Group("/documents")
	{
		docs.GET("", api.ListDocumentsHandler)
		docs.GET("/:id", api.GetDocumentHandler)
		docs.GET("/:id/summary", api.DocumentSummaryHandler)
		docs.DELETE("/:id", api.DeleteDocumentHandler)
	}

	if gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}
	return router
}
