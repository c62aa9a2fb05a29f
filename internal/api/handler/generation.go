package handler

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/prazwal-bns/imageprompt-api/internal/api/middleware"
	"github.com/prazwal-bns/imageprompt-api/internal/logger"
	"github.com/prazwal-bns/imageprompt-api/internal/query"
	"github.com/prazwal-bns/imageprompt-api/internal/service"
)

// GenerationHandler handles the prompt generation endpoints.
type GenerationHandler struct {
	generations *service.GenerationService
	debug       bool
}

// NewGenerationHandler creates a new generation handler. In debug mode
// the generic 500 envelope carries the underlying error detail.
func NewGenerationHandler(generations *service.GenerationService, debug bool) *GenerationHandler {
	return &GenerationHandler{
		generations: generations,
		debug:       debug,
	}
}

// List handles GET /prompt-generations.
//
// Query parameters: search (substring over generated text), sort
// (created_at, updated_at or generated_prompt, "-" prefix for
// descending), per_page, page.
func (h *GenerationHandler) List(c *gin.Context) {
	identity, ok := middleware.CurrentIdentity(c)
	if !ok {
		unauthenticated(c)
		return
	}

	page, _ := strconv.Atoi(c.Query("page"))
	perPage, _ := strconv.Atoi(c.Query("per_page"))

	result, err := h.generations.List(c.Request.Context(), identity.User, query.ListParams{
		Search:  c.Query("search"),
		Sort:    c.Query("sort"),
		Page:    page,
		PerPage: perPage,
	})
	if err != nil {
		logger.CtxError(c.Request.Context(), "Listing failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"message": "An unexpected error occurred while processing your request.",
		})
		return
	}

	c.JSON(http.StatusOK, result)
}

// Store handles POST /prompt-generations: multipart upload with an
// "image" field, run through the generation pipeline.
func (h *GenerationHandler) Store(c *gin.Context) {
	identity, ok := middleware.CurrentIdentity(c)
	if !ok {
		unauthenticated(c)
		return
	}

	upload, verr := readUpload(c)
	if verr != nil {
		validationFailed(c, verr)
		return
	}

	resource, err := h.generations.Generate(c.Request.Context(), identity.User, *upload)
	if err != nil {
		h.respondPipelineError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resource})
}

// respondPipelineError maps each captioner failure category to its own
// status; everything unexpected collapses into the generic 500.
func (h *GenerationHandler) respondPipelineError(c *gin.Context, err error) {
	var verr *service.ValidationError
	if errors.As(err, &verr) {
		validationFailed(c, verr)
		return
	}

	switch {
	case errors.Is(err, service.ErrCaptionerRateLimited):
		upstreamFailure(c, http.StatusTooManyRequests,
			"Rate limit exceeded",
			"The captioning service rate limit has been exceeded. Please try again later.",
			err.Error())

	case errors.Is(err, service.ErrCaptionerUnavailable):
		upstreamFailure(c, http.StatusServiceUnavailable,
			"Connection error",
			"Failed to connect to the captioning service. Please try again.",
			err.Error())

	default:
		var cerr *service.CaptionerError
		if errors.As(err, &cerr) {
			upstreamFailure(c, http.StatusInternalServerError,
				"Captioning service error",
				"An error occurred while processing your request with the captioning service.",
				cerr.Error())
			return
		}

		logger.CtxError(c.Request.Context(), "Generation failed: %v", err)
		details := "Internal server error"
		if h.debug {
			details = err.Error()
		}
		upstreamFailure(c, http.StatusInternalServerError,
			"Unexpected error",
			"An unexpected error occurred while processing your request.",
			details)
	}
}

// readUpload pulls the multipart image field out of the request.
func readUpload(c *gin.Context) (*service.Upload, *service.ValidationError) {
	fileHeader, err := c.FormFile("image")
	if err != nil {
		return nil, service.NewValidationError("image", "The image field is required.")
	}

	f, err := fileHeader.Open()
	if err != nil {
		return nil, service.NewValidationError("image", "The image field must be a valid image.")
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, service.NewValidationError("image", "The image field must be a valid image.")
	}

	return &service.Upload{
		OriginalName: fileHeader.Filename,
		MimeType:     fileHeader.Header.Get("Content-Type"),
		Data:         data,
	}, nil
}
