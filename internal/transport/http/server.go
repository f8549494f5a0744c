package http

import (
	"github.com/gin-gonic/gin"

	appsvc "memoryai/internal/app"
	"memoryai/internal/bootstrap"
	"memoryai/internal/repository"
	"memoryai/internal/transport/http/handler"
)

func NewRouter(app *bootstrap.App) *gin.Engine {
	gin.SetMode(app.Config.App.GinMode)
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	entityRepo := repository.NewEntityRepository(app.DB)
	relationRepo := repository.NewRelationRepository(app.DB)
	sessionRepo := repository.NewSessionRepository(app.DB)
	documentRepo := repository.NewDocumentRepository(app.DB)

	graphService := appsvc.NewGraphService(entityRepo, relationRepo, sessionRepo, app.SessionCache)
	var publisher appsvc.DocumentEventPublisher
	if app.Publisher != nil {
		publisher = app.Publisher
	}
	ingestService := appsvc.NewIngestService(
		app.Index,
		app.Embedder,
		graphService,
		documentRepo,
		publisher,
		app.Config.Chunking.Size,
		app.Config.Chunking.Overlap,
	)
	queryService := appsvc.NewQueryService(
		app.Index,
		app.Embedder,
		graphService,
		app.Synthesizer,
		app.Config.Retrieval.DefaultResults,
	)
	navigatorService := appsvc.NewNavigatorService(queryService, graphService)
	adminService := appsvc.NewAdminService(app.Index, graphService, documentRepo)

	healthHandler := handler.NewHealthHandler(app)
	ingestHandler := handler.NewIngestHandler(ingestService)
	queryHandler := handler.NewQueryHandler(queryService, navigatorService)
	adminHandler := handler.NewAdminHandler(adminService)

	router.GET("/healthz", healthHandler.Check)

	ingestGroup := router.Group("/ingest")
	ingestGroup.POST("/text", ingestHandler.IngestText)
	ingestGroup.POST("/file", ingestHandler.IngestFile)
	ingestGroup.POST("/url", ingestHandler.IngestURL)

	router.POST("/query", queryHandler.Query)
	router.POST("/navigate", queryHandler.Navigate)
	router.GET("/collections", adminHandler.Collections)
	router.DELETE("/documents/:doc_id", ingestHandler.DeleteDocument)

	return router
}
