package models

type AskRequest struct {
	PDFID     string `form:"pdf_id" json:"pdf_id" binding:"required"`
	Question  string `form:"question" json:"question" binding:"required"`
	SessionID string `form:"session_id" json:"session_id,omitempty"`
}

type SummarizeRequest struct {
	PDFID string `form:"pdf_id" json:"pdf_id" binding:"required"`
}

type RetrieveRequest struct {
	PDFID string `form:"pdf_id" binding:"required"`
	Query string `form:"q" binding:"required"`
	TopK  *int   `form:"top_k"`
}
