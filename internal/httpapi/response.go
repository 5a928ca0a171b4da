package httpapi

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ironsheep/docparse-mcp/internal/entity"
	"github.com/ironsheep/docparse-mcp/internal/labeling"
	"github.com/ironsheep/docparse-mcp/internal/pipeline"
)

// ParseResponse is the envelope of POST /document/parse.
type ParseResponse struct {
	Success    bool              `json:"success"`
	Error      *string           `json:"error"`
	Entities   entity.Collection `json:"entities"`
	DocumentID string            `json:"document_id,omitempty"`
}

func errorResponse(msg string) ParseResponse {
	return ParseResponse{Success: false, Error: &msg, Entities: entity.Collection{}}
}

// errFileTooLarge is reported when the upload exceeds the configured limit.
var errFileTooLarge = errors.New("file exceeds maximum allowed size")

// errNoFile is reported when the multipart form has no "file" part.
var errNoFile = errors.New("no file uploaded; send the page image in the \"file\" form field")

// MapError translates pipeline errors to HTTP status codes and client messages.
func MapError(err error) (status int, msg string) {
	var rle *labeling.RateLimitError
	switch {
	case errors.As(err, &rle):
		return http.StatusServiceUnavailable, "labeling model is busy, retry later"
	case errors.Is(err, errFileTooLarge):
		return http.StatusRequestEntityTooLarge, errFileTooLarge.Error()
	case errors.Is(err, errNoFile):
		return http.StatusBadRequest, errNoFile.Error()
	case errors.Is(err, pipeline.ErrInvalidInput):
		return http.StatusBadRequest, "upload is not a readable page image"
	case errors.Is(err, pipeline.ErrNoTextDetected):
		return http.StatusUnprocessableEntity, "no text detected in image"
	case errors.Is(err, pipeline.ErrMalformedGeometry):
		return http.StatusUnprocessableEntity, "every word had an invalid bounding box"
	case errors.Is(err, pipeline.ErrCollaborator):
		return http.StatusBadGateway, "document processing backend failed"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

// RespondError writes the error envelope for err.
func RespondError(c *gin.Context, err error) {
	status, msg := MapError(err)
	var rle *labeling.RateLimitError
	if errors.As(err, &rle) {
		c.Header("Retry-After", strconv.Itoa(int(rle.RetryAfter.Seconds())))
	}
	_ = c.Error(err)
	c.JSON(status, errorResponse(msg))
}
