package dto

import (
	"time"

	"github.com/spec-kit/dispatch-service/internal/domain"
)

// LoginRequest payload.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse carries the access token.
type LoginResponse struct {
	AccessToken string           `json:"access_token"`
	TokenType   string           `json:"token_type"`
	ExpiresAt   time.Time        `json:"expires_at"`
	Operator    OperatorResponse `json:"operator"`
}

// ChangePasswordRequest payload.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8"`
}

// OperatorRequest creates or updates an operator. Password is optional on update.
type OperatorRequest struct {
	Name     string              `json:"name" validate:"required,max=120"`
	Email    string              `json:"email" validate:"required,email"`
	Role     domain.OperatorRole `json:"role" validate:"omitempty,oneof=admin operator"`
	Active   *bool               `json:"active"`
	Password string              `json:"password" validate:"omitempty,min=8"`
}

// OperatorResponse omits credentials.
type OperatorResponse struct {
	ID        string              `json:"id"`
	Name      string              `json:"name"`
	Email     string              `json:"email"`
	Role      domain.OperatorRole `json:"role"`
	Active    bool                `json:"active"`
	CreatedAt time.Time           `json:"created_at"`
	UpdatedAt time.Time           `json:"updated_at"`
}

// NewOperatorResponse maps an operator.
func NewOperatorResponse(o *domain.Operator) OperatorResponse {
	return OperatorResponse{
		ID:        o.ID,
		Name:      o.Name,
		Email:     o.Email,
		Role:      o.Role,
		Active:    o.Active,
		CreatedAt: o.CreatedAt,
		UpdatedAt: o.UpdatedAt,
	}
}
