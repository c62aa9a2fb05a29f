package repository

import (
	"context"
	"errors"
	"time"

	"github.com/prazwal-bns/imageprompt-api/internal/domain"
	"gorm.io/gorm"
)

// TokenRepository handles access token persistence. Tokens are stored
// as SHA-256 hashes; the plaintext never touches the database.
type TokenRepository struct {
	db *gorm.DB
}

// NewTokenRepository creates a new TokenRepository.
func NewTokenRepository(db *gorm.DB) *TokenRepository {
	return &TokenRepository{db: db}
}

// Create inserts a new access token record.
func (r *TokenRepository) Create(ctx context.Context, token *domain.AccessToken) error {
	return r.db.WithContext(ctx).Create(token).Error
}

// FindByHash retrieves a token by its hash.
func (r *TokenRepository) FindByHash(ctx context.Context, hash string) (*domain.AccessToken, error) {
	var token domain.AccessToken
	if err := r.db.WithContext(ctx).First(&token, "token_hash = ?", hash).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &token, nil
}

// DeleteByHash revokes exactly the token with the given hash. Other
// tokens held by the same user are untouched.
func (r *TokenRepository) DeleteByHash(ctx context.Context, hash string) error {
	return r.db.WithContext(ctx).Delete(&domain.AccessToken{}, "token_hash = ?", hash).Error
}

// TouchLastUsed records that the token was presented.
func (r *TokenRepository) TouchLastUsed(ctx context.Context, id uint, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&domain.AccessToken{}).
		Where("id = ?", id).
		Update("last_used_at", at).Error
}
