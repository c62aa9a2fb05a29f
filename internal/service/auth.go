package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/prazwal-bns/imageprompt-api/internal/domain"
	"github.com/prazwal-bns/imageprompt-api/internal/logger"
	"github.com/prazwal-bns/imageprompt-api/internal/ratelimit"
	"github.com/prazwal-bns/imageprompt-api/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

// tokenBytes is the entropy of a plaintext access token (40 hex chars).
const tokenBytes = 20

// UserFinder is the read-only user store consumed by authentication.
type UserFinder interface {
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id uint) (*domain.User, error)
}

// TokenStore persists access tokens by hash.
type TokenStore interface {
	Create(ctx context.Context, token *domain.AccessToken) error
	FindByHash(ctx context.Context, hash string) (*domain.AccessToken, error)
	DeleteByHash(ctx context.Context, hash string) error
	TouchLastUsed(ctx context.Context, id uint, at time.Time) error
}

// ThrottlePolicy caps login attempts per throttle key.
type ThrottlePolicy struct {
	MaxAttempts int
	Decay       time.Duration
}

// AuthService verifies credentials behind the login rate limiter and
// mints opaque session tokens.
type AuthService struct {
	users    UserFinder
	tokens   TokenStore
	limiter  *ratelimit.Limiter
	throttle ThrottlePolicy
}

// NewAuthService creates an AuthService.
func NewAuthService(users UserFinder, tokens TokenStore, limiter *ratelimit.Limiter, throttle ThrottlePolicy) *AuthService {
	if throttle.MaxAttempts <= 0 {
		throttle.MaxAttempts = 5
	}
	if throttle.Decay <= 0 {
		throttle.Decay = time.Minute
	}
	return &AuthService{
		users:    users,
		tokens:   tokens,
		limiter:  limiter,
		throttle: throttle,
	}
}

// LoginInput carries submitted credentials.
type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResult is returned once per successful login; Token is the only
// copy of the plaintext.
type LoginResult struct {
	User  *domain.User
	Token string
}

// Login validates input, enforces the login throttle and verifies the
// credentials. Unknown email, wrong password and an exhausted throttle
// key all surface as the same ValidationError on the email field, so
// none of them can be told apart by probing. Every attempt counts
// against the throttle key, successful ones included.
func (s *AuthService) Login(ctx context.Context, input LoginInput, clientAddr string) (*LoginResult, error) {
	input.Email = strings.TrimSpace(input.Email)

	if input.Email == "" {
		return nil, NewValidationError("email", MsgEmailRequired)
	}
	if !validEmail(input.Email) {
		return nil, NewValidationError("email", MsgEmailInvalid)
	}
	if input.Password == "" {
		return nil, NewValidationError("password", MsgPasswordRequired)
	}

	key := ratelimit.LoginKey(input.Email, clientAddr)

	blocked, err := s.limiter.TooManyAttempts(ctx, key, s.throttle.MaxAttempts)
	if err != nil {
		return nil, fmt.Errorf("login throttle check: %w", err)
	}
	if blocked {
		retryIn, err := s.limiter.AvailableIn(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("login throttle check: %w", err)
		}
		seconds := int(retryIn.Round(time.Second).Seconds())
		if seconds < 1 {
			seconds = 1
		}
		logger.CtxWarn(ctx, "Login throttled: key=%s", key)
		return nil, NewValidationError("email", fmt.Sprintf(MsgThrottled, seconds))
	}

	if _, err := s.limiter.Hit(ctx, key, s.throttle.Decay); err != nil {
		return nil, fmt.Errorf("login throttle hit: %w", err)
	}

	user, err := s.users.FindByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// Same shape as a wrong password; see doc comment above.
			return nil, NewValidationError("email", MsgFailedCredentials)
		}
		return nil, fmt.Errorf("user lookup: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(input.Password)); err != nil {
		return nil, NewValidationError("email", MsgFailedCredentials)
	}

	plaintext, err := mintToken()
	if err != nil {
		return nil, fmt.Errorf("mint token: %w", err)
	}

	token := &domain.AccessToken{
		UserID:    user.ID,
		Name:      user.Name + "Auth-Token",
		TokenHash: hashToken(plaintext),
	}
	if err := s.tokens.Create(ctx, token); err != nil {
		return nil, fmt.Errorf("store token: %w", err)
	}

	logger.CtxInfo(ctx, "User logged in: user_id=%d", user.ID)
	return &LoginResult{User: user, Token: plaintext}, nil
}

// Logout revokes exactly the presented token; other sessions of the
// same user remain valid.
func (s *AuthService) Logout(ctx context.Context, plaintext string) error {
	if plaintext == "" {
		return ErrUnauthenticated
	}
	hash := hashToken(plaintext)
	if _, err := s.tokens.FindByHash(ctx, hash); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUnauthenticated
		}
		return fmt.Errorf("token lookup: %w", err)
	}
	if err := s.tokens.DeleteByHash(ctx, hash); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

// UserForToken resolves a plaintext bearer token to its user and records
// the use. Returns ErrUnauthenticated for unknown tokens.
func (s *AuthService) UserForToken(ctx context.Context, plaintext string) (*domain.User, error) {
	if plaintext == "" {
		return nil, ErrUnauthenticated
	}

	token, err := s.tokens.FindByHash(ctx, hashToken(plaintext))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUnauthenticated
		}
		return nil, fmt.Errorf("token lookup: %w", err)
	}

	user, err := s.users.FindByID(ctx, token.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUnauthenticated
		}
		return nil, fmt.Errorf("user lookup: %w", err)
	}

	// Best effort; an auditing miss must not fail the request.
	if err := s.tokens.TouchLastUsed(ctx, token.ID, time.Now()); err != nil {
		logger.CtxWarn(ctx, "Failed to record token use: %v", err)
	}

	return user, nil
}

// validEmail accepts plain addr-spec addresses only.
func validEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	if err != nil {
		return false
	}
	return addr.Address == email
}

// mintToken produces the opaque plaintext token.
func mintToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// hashToken derives the storage key for a plaintext token.
func hashToken(plaintext string) string {
	sum := sha256.Sum256([]byte(plaintext))
	return hex.EncodeToString(sum[:])
}
