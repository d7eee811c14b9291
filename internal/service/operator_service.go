package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/dispatch-service/internal/domain"
	"github.com/spec-kit/dispatch-service/internal/repository"
	apperrors "github.com/spec-kit/dispatch-service/pkg/util/errorutil"
)

// OperatorService manages dispatch operators. Callers are admins.
type OperatorService struct {
	operators  repository.OperatorRepository
	bcryptCost int
}

// NewOperatorService constructs the service.
func NewOperatorService(operators repository.OperatorRepository, bcryptCost int) *OperatorService {
	return &OperatorService{operators: operators, bcryptCost: bcryptCost}
}

// CreateOperator stores an operator with a hashed password.
func (s *OperatorService) CreateOperator(ctx context.Context, operator *domain.Operator, password string) (*domain.Operator, error) {
	if err := s.validate(operator); err != nil {
		return nil, err
	}
	hash, err := hashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, err
	}
	if _, err := s.operators.GetByEmail(ctx, operator.Email); err == nil {
		return nil, apperrors.NewConflict("email already registered", map[string]any{"email": operator.Email})
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.MapError(err)
	}

	operator.PasswordHash = hash
	if err := s.operators.Create(ctx, operator); err != nil {
		return nil, apperrors.MapError(err)
	}
	return operator, nil
}

// UpdateOperator changes profile, role and status. A non-empty password is rehashed.
func (s *OperatorService) UpdateOperator(ctx context.Context, actor *domain.Operator, update *domain.Operator, password string) (*domain.Operator, error) {
	if err := s.validate(update); err != nil {
		return nil, err
	}
	current, err := s.operators.GetByID(ctx, update.ID)
	if err != nil {
		return nil, mapRepoError(err, "operator", update.ID)
	}
	if actor != nil && actor.ID == current.ID && (update.Role != domain.OperatorRoleAdmin || !update.Active) {
		return nil, apperrors.NewForbidden("admins cannot demote or disable themselves")
	}

	current.Name = update.Name
	current.Email = update.Email
	current.Role = update.Role
	current.Active = update.Active
	if password != "" {
		hash, err := hashPassword(password, s.bcryptCost)
		if err != nil {
			return nil, err
		}
		current.PasswordHash = hash
	}
	if err := s.operators.Update(ctx, current); err != nil {
		return nil, mapRepoError(err, "operator", current.ID)
	}
	return current, nil
}

func (s *OperatorService) validate(operator *domain.Operator) error {
	operator.Name = strings.TrimSpace(operator.Name)
	operator.Email = strings.ToLower(strings.TrimSpace(operator.Email))
	if err := requireText("name", operator.Name); err != nil {
		return err
	}
	if err := requireText("email", operator.Email); err != nil {
		return err
	}
	if operator.Role == "" {
		operator.Role = domain.OperatorRoleOperator
	}
	if !operator.Role.Valid() {
		return apperrors.NewValidationError("invalid role", map[string]any{"role": operator.Role})
	}
	return nil
}

// GetOperator fetches an operator.
func (s *OperatorService) GetOperator(ctx context.Context, id string) (*domain.Operator, error) {
	operator, err := s.operators.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err, "operator", id)
	}
	return operator, nil
}

// ListOperators lists operators.
func (s *OperatorService) ListOperators(ctx context.Context, filter repository.OperatorFilter) ([]domain.Operator, error) {
	operators, err := s.operators.List(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return operators, nil
}

// DeleteOperator removes an operator. Tickets they opened block the delete.
func (s *OperatorService) DeleteOperator(ctx context.Context, actor *domain.Operator, id string) error {
	if actor != nil && actor.ID == id {
		return apperrors.NewForbidden("admins cannot delete themselves")
	}
	return mapRepoError(s.operators.Delete(ctx, id), "operator", id)
}
