package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/dispatch-service/internal/auth"
	"github.com/spec-kit/dispatch-service/internal/config"
	"github.com/spec-kit/dispatch-service/internal/domain"
	"github.com/spec-kit/dispatch-service/internal/repository"
	apperrors "github.com/spec-kit/dispatch-service/pkg/util/errorutil"
)

// AuthService coordinates operator login flows.
type AuthService struct {
	operators  repository.OperatorRepository
	tokenMgr   *auth.TokenManager
	bcryptCost int
}

// NewAuthService builds the service.
func NewAuthService(cfg config.AuthConfig, operators repository.OperatorRepository) *AuthService {
	return &AuthService{
		operators:  operators,
		tokenMgr:   auth.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTLMinutes),
		bcryptCost: cfg.BcryptCost,
	}
}

// LoginResult bundles the authenticated operator with its access token.
type LoginResult struct {
	Operator  *domain.Operator
	Token     string
	ExpiresAt time.Time
}

// Login authenticates an operator. Unknown email, wrong password and disabled
// accounts all surface as the same unauthorized error.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	operator, err := s.operators.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, apperrors.MapError(err)
	}
	if !operator.Active {
		return nil, apperrors.NewUnauthorized("invalid credentials")
	}
	if err := auth.ComparePassword(operator.PasswordHash, password); err != nil {
		return nil, apperrors.NewUnauthorized("invalid credentials")
	}
	if auth.NeedsRehash(operator.PasswordHash, s.bcryptCost) {
		// The password was just verified, so a failed rehash leaves the old hash usable.
		if hash, err := auth.HashPassword(password, s.bcryptCost); err == nil {
			operator.PasswordHash = hash
			_ = s.operators.Update(ctx, operator)
		}
	}

	token, exp, err := s.tokenMgr.GenerateToken(operator)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return &LoginResult{Operator: operator, Token: token, ExpiresAt: exp}, nil
}

// Logout currently no-ops for stateless JWT approach.
func (s *AuthService) Logout(_ context.Context, _ string) error {
	return nil
}

// ChangePassword verifies current password before updating to new hash.
func (s *AuthService) ChangePassword(ctx context.Context, operatorID, currentPassword, newPassword string) error {
	operator, err := s.operators.GetByID(ctx, operatorID)
	if err != nil {
		return apperrors.MapError(err)
	}
	if err := auth.ComparePassword(operator.PasswordHash, currentPassword); err != nil {
		return apperrors.NewUnauthorized("invalid credentials")
	}
	hash, err := hashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return err
	}
	operator.PasswordHash = hash
	return apperrors.MapError(s.operators.Update(ctx, operator))
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}
