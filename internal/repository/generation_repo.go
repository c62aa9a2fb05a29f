package repository

import (
	"context"
	"strings"

	"github.com/prazwal-bns/imageprompt-api/internal/domain"
	"github.com/prazwal-bns/imageprompt-api/internal/query"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GenerationRepository handles prompt generation records. Records are
// append-only: there is no update path.
type GenerationRepository struct {
	db *gorm.DB
}

// NewGenerationRepository creates a new GenerationRepository.
func NewGenerationRepository(db *gorm.DB) *GenerationRepository {
	return &GenerationRepository{db: db}
}

// Create inserts a new prompt generation record.
func (r *GenerationRepository) Create(ctx context.Context, gen *domain.PromptGeneration) error {
	return r.db.WithContext(ctx).Create(gen).Error
}

// ListByOwner returns one page of the owner's records according to the
// validated plan, plus the total count for the filter. Ownership is part
// of every WHERE clause, so cross-user reads cannot be expressed.
func (r *GenerationRepository) ListByOwner(ctx context.Context, ownerID uint, plan query.Plan) ([]domain.PromptGeneration, int64, error) {
	base := r.db.WithContext(ctx).
		Model(&domain.PromptGeneration{}).
		Where("user_id = ?", ownerID)

	if plan.Search != "" {
		base = base.Where("LOWER(generated_prompt) LIKE ?", "%"+strings.ToLower(plan.Search)+"%")
	}

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var gens []domain.PromptGeneration
	// plan.OrderColumn comes from the query package allow-list, never
	// from user input.
	err := base.Session(&gorm.Session{}).
		Order(clause.OrderByColumn{
			Column: clause.Column{Name: plan.OrderColumn},
			Desc:   plan.Desc,
		}).
		Offset(plan.Offset()).
		Limit(plan.PerPage).
		Find(&gens).Error
	if err != nil {
		return nil, 0, err
	}
	return gens, total, nil
}
