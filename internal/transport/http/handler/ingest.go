package handler

import (
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"memoryai/internal/app"
	"memoryai/internal/transport/http/response"
)

const maxUploadSize = 10 << 20 // 10 MB

type IngestHandler struct {
	ingestService *app.IngestService
}

type IngestTextRequest struct {
	Text     string            `json:"text" binding:"required"`
	Source   string            `json:"source"`
	Metadata map[string]string `json:"metadata"`
}

type IngestURLRequest struct {
	URL      string            `json:"url" binding:"required"`
	Metadata map[string]string `json:"metadata"`
}

func NewIngestHandler(ingestService *app.IngestService) *IngestHandler {
	return &IngestHandler{ingestService: ingestService}
}

func (h *IngestHandler) IngestText(c *gin.Context) {
	var req IngestTextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}
	source := req.Source
	if source == "" {
		source = "direct_input"
	}

	result, err := h.ingestService.IngestText(c.Request.Context(), req.Text, source, req.Metadata)
	if err != nil {
		respondIngestError(c, err)
		return
	}
	response.OK(c, result)
}

// IngestFile accepts a multipart form with "file". PDFs go through text
// extraction; anything else is treated as plain text.
func (h *IngestHandler) IngestFile(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "missing file")
		return
	}
	if file.Size > maxUploadSize {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "file too large (max 10MB)")
		return
	}
	filename := file.Filename
	if filename == "" {
		filename = "upload"
	}

	src, err := file.Open()
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "open uploaded file failed")
		return
	}
	defer src.Close()

	var result *app.IngestResult
	if strings.EqualFold(filepath.Ext(filename), ".pdf") {
		result, err = h.ingestService.IngestPDF(c.Request.Context(), src, filename, nil)
	} else {
		content, readErr := io.ReadAll(src)
		if readErr != nil {
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "read uploaded file failed")
			return
		}
		result, err = h.ingestService.IngestText(c.Request.Context(), string(content), filename, map[string]string{"type": "file"})
	}
	if err != nil {
		respondIngestError(c, err)
		return
	}
	response.OK(c, result)
}

func (h *IngestHandler) IngestURL(c *gin.Context) {
	var req IngestURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	result, err := h.ingestService.IngestURL(c.Request.Context(), req.URL, req.Metadata)
	if err != nil {
		respondIngestError(c, err)
		return
	}
	response.OK(c, result)
}

func (h *IngestHandler) DeleteDocument(c *gin.Context) {
	result, err := h.ingestService.Delete(c.Request.Context(), c.Param("doc_id"))
	if err != nil {
		if errors.Is(err, app.ErrEmptyDocID) {
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
			return
		}
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "delete failed: "+err.Error())
		return
	}
	response.OK(c, result)
}

func respondIngestError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, app.ErrEmptyText),
		errors.Is(err, app.ErrNoChunks),
		errors.Is(err, app.ErrEmptyURL),
		errors.Is(err, app.ErrNoExtractedText):
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
	default:
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "ingestion failed: "+err.Error())
	}
}
