package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/dispatch-service/internal/auth"
	"github.com/spec-kit/dispatch-service/internal/events"
	"github.com/spec-kit/dispatch-service/internal/geo"
	apperrors "github.com/spec-kit/dispatch-service/pkg/util/errorutil"
)

// AddressGeocoder resolves an address to coordinates. *geo.Geocoder satisfies it.
type AddressGeocoder interface {
	Geocode(ctx context.Context, addr geo.Address) (*geo.Coordinates, error)
}

// PostalCodeLookup resolves postal codes. *geo.PostalLookup satisfies it.
type PostalCodeLookup interface {
	Lookup(ctx context.Context, code string) (*geo.PostalAddress, error)
}

// mapRepoError names the missing resource on ErrNoRows and maps everything else.
func mapRepoError(err error, resource string, id string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		details := map[string]any{}
		if id != "" {
			details["id"] = id
		}
		return apperrors.NewNotFound(resource, details)
	}
	return apperrors.MapError(err)
}

func publish(ctx context.Context, dispatcher events.Dispatcher, event events.Event) {
	if dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	_ = dispatcher.Publish(ctx, event)
}

func generateTicketCode() string {
	return "OC-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

func requireText(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return apperrors.NewValidationError(field+" is required", map[string]any{"field": field})
	}
	return nil
}

// hashPassword applies the password policy and maps violations to validation errors.
func hashPassword(plain string, cost int) (string, error) {
	hash, err := auth.HashPassword(plain, cost)
	if auth.IsPolicyError(err) {
		return "", apperrors.NewValidationError(err.Error(), map[string]any{"field": "password"})
	}
	if err != nil {
		return "", apperrors.NewInternalError(err)
	}
	return hash, nil
}

func derefString(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
