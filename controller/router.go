package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// SetupRouter registers the health check, the API routes and the debug routes.
func SetupRouter(rag *RAGController, debug *DebugController) *gin.Engine {
	router := gin.Default()

	// Add CORS middleware for browser clients
	router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "PDF QA API",
			"version": "1.0.0",
		})
	})

	// API routes
	apiV1 := router.Group("/api/v1")
	{
		apiV1.POST("/upload", rag.Upload)
		apiV1.POST("/ask", rag.Ask)
		apiV1.POST("/summarize", rag.Summarize)
		apiV1.GET("/session/:session_id", rag.GetSession)

		debugGroup := apiV1.Group("/debug")
		debugGroup.GET("/models", debug.Models)
		debugGroup.GET("/pdf/:pdf_id/chunks", debug.Chunks)
		debugGroup.GET("/pdf/:pdf_id/embeddings", debug.Embeddings)
		debugGroup.GET("/retrieve", debug.Retrieve)
	}

	return router
}
