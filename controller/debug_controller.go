package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github/itish2003/pdfqa/models"
	"github/itish2003/pdfqa/services"
)

const (
	maxDebugChunks  = 50
	embeddingSample = 8
	defaultTopK     = 5
)

// DebugController exposes read-only views of what was indexed.
type DebugController struct {
	ragService services.RAGService
}

func NewDebugController(service services.RAGService) *DebugController {
	return &DebugController{ragService: service}
}

// Models lists the generation models the provider offers.
func (d *DebugController) Models(ctx *gin.Context) {
	names, err := d.ragService.ListModels(ctx.Request.Context())
	if err != nil {
		respondError(ctx, err, "Failed to list models")
		return
	}
	ctx.JSON(http.StatusOK, models.ModelsResponse{Models: names})
}

// Chunks returns the first stored chunk texts of a pdf.
func (d *DebugController) Chunks(ctx *gin.Context) {
	texts, err := d.ragService.GetTexts(ctx.Request.Context(), ctx.Param("pdf_id"))
	if err != nil {
		respondError(ctx, err, "Failed to load chunks")
		return
	}
	ctx.JSON(http.StatusOK, models.ChunksResponse{Count: len(texts), Chunks: texts[:min(len(texts), maxDebugChunks)]})
}

// Embeddings returns the dimension and the leading components of every stored vector.
func (d *DebugController) Embeddings(ctx *gin.Context) {
	records, err := d.ragService.GetAllEmbeddings(ctx.Request.Context(), ctx.Param("pdf_id"))
	if err != nil {
		respondError(ctx, err, "Failed to load embeddings")
		return
	}

	rows := make([]models.EmbeddingRow, len(records))
	for i, rec := range records {
		rows[i] = models.EmbeddingRow{
			ChunkIndex: rec.ChunkIndex,
			Dim:        rec.Dimension,
			Sample:     rec.Vector[:min(len(rec.Vector), embeddingSample)],
		}
	}
	ctx.JSON(http.StatusOK, models.EmbeddingsResponse{Count: len(rows), Rows: rows})
}

// Retrieve runs retrieval only, without calling the generator.
func (d *DebugController) Retrieve(ctx *gin.Context) {
	var req models.RetrieveRequest
	if err := ctx.ShouldBindQuery(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query: " + err.Error()})
		return
	}
	topK := defaultTopK
	if req.TopK != nil {
		topK = *req.TopK
	}

	retrieval, err := d.ragService.AnswerQuery(ctx.Request.Context(), req.PDFID, req.Query, topK)
	if err != nil {
		respondError(ctx, err, "Failed to retrieve chunks")
		return
	}

	results := make([]models.SourceDocument, len(retrieval.Results))
	for i, res := range retrieval.Results {
		results[i] = models.SourceDocument{ChunkIndex: res.Record.ChunkIndex, Text: res.Record.Text, Score: res.Score}
	}
	ctx.JSON(http.StatusOK, models.RetrieveResponse{Query: req.Query, Results: results})
}
