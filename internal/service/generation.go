package service

import (
	"bytes"
	"context"
	"crypto/rand"
	"fmt"
	"image"
	"math/big"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	// Decoders for upload validation.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"

	"github.com/google/uuid"
	"github.com/prazwal-bns/imageprompt-api/internal/domain"
	"github.com/prazwal-bns/imageprompt-api/internal/logger"
	"github.com/prazwal-bns/imageprompt-api/internal/query"
	"github.com/prazwal-bns/imageprompt-api/internal/storage"
)

// blobPrefix is where uploaded images live inside the blob store.
const blobPrefix = "uploads/images/"

// suffixAlphabet feeds the random filename suffix.
const suffixAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// unsafeChars matches every filename character that must be replaced.
var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9]`)

// GenerationStore is the owner-scoped record store consumed by the
// pipeline.
type GenerationStore interface {
	Create(ctx context.Context, gen *domain.PromptGeneration) error
	ListByOwner(ctx context.Context, ownerID uint, plan query.Plan) ([]domain.PromptGeneration, int64, error)
}

// GenerationConfig holds pipeline limits.
type GenerationConfig struct {
	MaxUploadBytes int64
	CaptionTimeout time.Duration
}

// GenerationService orchestrates the upload -> store -> caption ->
// persist pipeline and the owner-scoped listing.
type GenerationService struct {
	store     GenerationStore
	blobs     storage.BlobStorage
	captioner Captioner
	cfg       GenerationConfig
}

// NewGenerationService creates a GenerationService.
func NewGenerationService(store GenerationStore, blobs storage.BlobStorage, captioner Captioner, cfg GenerationConfig) *GenerationService {
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 5 * 1024 * 1024
	}
	if cfg.CaptionTimeout <= 0 {
		cfg.CaptionTimeout = 60 * time.Second
	}
	return &GenerationService{
		store:     store,
		blobs:     blobs,
		captioner: captioner,
		cfg:       cfg,
	}
}

// Upload carries one multipart image submission.
type Upload struct {
	OriginalName string
	MimeType     string
	Data         []byte
}

// Generate runs the full pipeline for one upload. Any step's failure
// aborts the remaining steps; a record is persisted only after the
// captioner has returned text. A blob stored before a caption failure
// is left in place (accepted orphan, cleaned up out of band).
func (s *GenerationService) Generate(ctx context.Context, user *domain.User, upload Upload) (*domain.GenerationResource, error) {
	if err := s.validate(upload); err != nil {
		return nil, err
	}

	key, err := safeBlobKey(upload.OriginalName)
	if err != nil {
		return nil, fmt.Errorf("derive blob key: %w", err)
	}

	size := int64(len(upload.Data))
	if err := s.blobs.Upload(ctx, key, bytes.NewReader(upload.Data), size, upload.MimeType); err != nil {
		return nil, fmt.Errorf("store blob: %w", err)
	}

	captionCtx, cancel := context.WithTimeout(ctx, s.cfg.CaptionTimeout)
	defer cancel()

	prompt, err := s.captioner.Describe(captionCtx, upload.Data, upload.MimeType)
	if err != nil {
		logger.CtxWarn(ctx, "Captioning failed, blob retained: key=%s, err=%v", key, err)
		return nil, err
	}

	gen := &domain.PromptGeneration{
		ID:               uuid.New().String(),
		UserID:           user.ID,
		ImagePath:        key,
		GeneratedPrompt:  prompt,
		OriginalFileName: upload.OriginalName,
		FileSize:         size,
		MimeType:         upload.MimeType,
	}
	if err := s.store.Create(ctx, gen); err != nil {
		return nil, fmt.Errorf("persist record: %w", err)
	}

	logger.With(logger.Fields{logger.FieldSize: size}).
		Info(ctx, "Prompt generated: generation_id=%s", gen.ID)

	return s.resource(gen), nil
}

// Page is one page of a listing response.
type Page struct {
	Data []domain.GenerationResource `json:"data"`
	Meta PageMeta                    `json:"meta"`
}

// PageMeta reports pagination state for the collection.
type PageMeta struct {
	CurrentPage int   `json:"current_page"`
	PerPage     int   `json:"per_page"`
	Total       int64 `json:"total"`
	LastPage    int   `json:"last_page"`
}

// List returns one page of the user's records. Ownership scoping is
// enforced by the store; an empty page is a valid result.
func (s *GenerationService) List(ctx context.Context, user *domain.User, params query.ListParams) (*Page, error) {
	plan := query.Build(params)

	gens, total, err := s.store.ListByOwner(ctx, user.ID, plan)
	if err != nil {
		return nil, fmt.Errorf("list generations: %w", err)
	}

	data := make([]domain.GenerationResource, 0, len(gens))
	for i := range gens {
		data = append(data, *s.resource(&gens[i]))
	}

	lastPage := int((total + int64(plan.PerPage) - 1) / int64(plan.PerPage))
	if lastPage < 1 {
		lastPage = 1
	}

	return &Page{
		Data: data,
		Meta: PageMeta{
			CurrentPage: plan.Page,
			PerPage:     plan.PerPage,
			Total:       total,
			LastPage:    lastPage,
		},
	}, nil
}

// validate covers the Received -> Validated transition.
func (s *GenerationService) validate(upload Upload) error {
	if len(upload.Data) == 0 {
		return NewValidationError("image", "The image field is required.")
	}
	if int64(len(upload.Data)) > s.cfg.MaxUploadBytes {
		return NewValidationError("image",
			fmt.Sprintf("The image may not be greater than %d bytes.", s.cfg.MaxUploadBytes))
	}
	if _, _, err := image.DecodeConfig(bytes.NewReader(upload.Data)); err != nil {
		return NewValidationError("image", "The image field must be a valid image.")
	}
	return nil
}

// resource maps a record to its API projection.
func (s *GenerationService) resource(gen *domain.PromptGeneration) *domain.GenerationResource {
	return &domain.GenerationResource{
		ID:               gen.ID,
		ImageURL:         s.blobs.GetURL(gen.ImagePath),
		GeneratedPrompt:  gen.GeneratedPrompt,
		OriginalFileName: gen.OriginalFileName,
		FileSize:         gen.FileSize,
		MimeType:         gen.MimeType,
		CreatedAt:        gen.CreatedAt,
		UpdatedAt:        gen.UpdatedAt,
	}
}

// safeBlobKey derives a collision-resistant, filesystem-safe key from
// the submitted filename: everything outside [A-Za-z0-9] in the base
// name becomes "_", a random suffix defeats collisions, and the
// original extension is kept.
func safeBlobKey(originalName string) (string, error) {
	ext := filepath.Ext(originalName)
	base := strings.TrimSuffix(filepath.Base(originalName), ext)
	sanitized := unsafeChars.ReplaceAllString(base, "_")
	if ext != "" {
		ext = "." + unsafeChars.ReplaceAllString(ext[1:], "_")
	}

	suffix, err := randomString(10)
	if err != nil {
		return "", err
	}
	return blobPrefix + sanitized + "_" + suffix + ext, nil
}

// randomString returns n characters from the suffix alphabet using
// crypto/rand.
func randomString(n int) (string, error) {
	max := big.NewInt(int64(len(suffixAlphabet)))
	b := make([]byte, n)
	for i := range b {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b[i] = suffixAlphabet[idx.Int64()]
	}
	return string(b), nil
}
