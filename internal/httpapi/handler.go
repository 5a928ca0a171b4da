package httpapi

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/ironsheep/docparse-mcp/internal/export"
	"github.com/ironsheep/docparse-mcp/internal/ocr"
	"github.com/ironsheep/docparse-mcp/internal/pipeline"
)

// OCRInfoProvider reports OCR engine status for the health endpoint.
type OCRInfoProvider interface {
	Info() ocr.OCRInfo
}

// Handler serves the document endpoints.
type Handler struct {
	parser *pipeline.Parser
	ocr    OCRInfoProvider
	logger zerolog.Logger
}

// NewHandler creates a Handler. ocrInfo may be nil.
func NewHandler(parser *pipeline.Parser, ocrInfo OCRInfoProvider, logger zerolog.Logger) *Handler {
	return &Handler{parser: parser, ocr: ocrInfo, logger: logger}
}

// Index handles GET /
func (h *Handler) Index(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "Document parsing service",
		"endpoints": gin.H{
			"parse":  "POST /document/parse (multipart field \"file\", optional ?format=json|csv|xlsx)",
			"health": "GET /document/health",
		},
	})
}

// Parse handles POST /document/parse
func (h *Handler) Parse(c *gin.Context) {
	format, err := export.ParseFormat(c.Query("format"))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large") {
			RespondError(c, errFileTooLarge)
			return
		}
		RespondError(c, errNoFile)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		RespondError(c, errNoFile)
		return
	}

	res, err := h.parser.ParseBytes(c.Request.Context(), data)
	if err != nil {
		h.logger.Warn().Err(err).
			Str("request_id", c.GetString(requestIDKey)).
			Str("filename", header.Filename).
			Msg("parse failed")
		RespondError(c, err)
		return
	}
	c.Header("X-Document-ID", res.DocumentID)

	if format == export.FormatJSON {
		c.JSON(http.StatusOK, ParseResponse{Success: true, Entities: res.Entities, DocumentID: res.DocumentID})
		return
	}

	var buf bytes.Buffer
	if err := export.Write(&buf, format, res.Entities); err != nil {
		RespondError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+export.BuildFilename(header.Filename, string(format))+`"`)
	c.Data(http.StatusOK, format.ContentType(), buf.Bytes())
}

// HealthResponse is the body of GET /document/health.
type HealthResponse struct {
	Status      string       `json:"status"`
	ModelLoaded bool         `json:"model_loaded"`
	Device      string       `json:"device"`
	Model       string       `json:"model,omitempty"`
	OCR         *ocr.OCRInfo `json:"ocr,omitempty"`
}

// Health handles GET /document/health
func (h *Handler) Health(c *gin.Context) {
	resp := HealthResponse{Status: "healthy"}

	info, err := h.parser.Labeler().Info(c.Request.Context())
	if err != nil {
		h.logger.Warn().Err(err).Msg("labeler health check failed")
		resp.Status = "degraded"
		resp.Device = "unknown"
	} else {
		resp.ModelLoaded = info.Loaded
		resp.Device = info.Device
		resp.Model = info.Model
		if !info.Loaded {
			resp.Status = "degraded"
		}
	}

	if h.ocr != nil {
		oi := h.ocr.Info()
		resp.OCR = &oi
		if !oi.Available {
			resp.Status = "degraded"
		}
	}

	c.JSON(http.StatusOK, resp)
}
