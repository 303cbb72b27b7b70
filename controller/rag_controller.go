package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github/itish2003/pdfqa/models"
	"github/itish2003/pdfqa/services"
)

// RAGController handles the HTTP requests for our RAG API. It depends on the
// RAGService to perform the actual business logic.
type RAGController struct {
	ragService services.RAGService
}

// NewRAGController is a constructor function that creates a new RAGController.
func NewRAGController(service services.RAGService) *RAGController {
	return &RAGController{
		ragService: service,
	}
}

// Upload is the Gin handler for the POST /api/v1/upload endpoint.
// It expects the document in the multipart field "file".
func (c *RAGController) Upload(ctx *gin.Context) {
	header, err := ctx.FormFile("file")
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Missing file: " + err.Error()})
		return
	}

	file, err := header.Open()
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Could not read upload: " + err.Error()})
		return
	}
	defer file.Close()

	response, err := c.ragService.IngestUpload(ctx.Request.Context(), header.Filename, file)
	if err != nil {
		respondError(ctx, err, "Failed to ingest document")
		return
	}

	ctx.JSON(http.StatusOK, response)
}

// Ask is the Gin handler for the POST /api/v1/ask endpoint. It accepts form or JSON bodies.
func (c *RAGController) Ask(ctx *gin.Context) {
	var req models.AskRequest
	if err := ctx.ShouldBind(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	response, err := c.ragService.Ask(ctx.Request.Context(), req)
	if err != nil {
		respondError(ctx, err, "Failed to generate AI response")
		return
	}

	ctx.JSON(http.StatusOK, response)
}

// Summarize is the Gin handler for the POST /api/v1/summarize endpoint.
func (c *RAGController) Summarize(ctx *gin.Context) {
	var req models.SummarizeRequest
	if err := ctx.ShouldBind(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	summary, err := c.ragService.Summarize(ctx.Request.Context(), req.PDFID)
	if err != nil {
		respondError(ctx, err, "Failed to summarize document")
		return
	}

	ctx.JSON(http.StatusOK, models.SummarizeResponse{Summary: summary})
}

// GetSession is the Gin handler for the GET /api/v1/session/:session_id endpoint.
// An unknown session has an empty history.
func (c *RAGController) GetSession(ctx *gin.Context) {
	sessionID := ctx.Param("session_id")

	history, err := c.ragService.GetHistory(ctx.Request.Context(), sessionID)
	if err != nil {
		respondError(ctx, err, "Failed to retrieve session")
		return
	}

	ctx.JSON(http.StatusOK, models.SessionResponse{SessionID: sessionID, History: history})
}

// respondError maps the error taxonomy onto HTTP status codes. Server-side failures are
// logged and reported with the generic message.
func respondError(ctx *gin.Context, err error, message string) {
	switch {
	case errors.Is(err, models.ErrNotFound):
		ctx.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrInvalidArgument), errors.Is(err, models.ErrInvalidConfiguration):
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		log.WithError(err).Errorf("CONTROLLER: %s %s", ctx.Request.Method, ctx.FullPath())
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": message})
	}
}
