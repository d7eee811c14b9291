package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/dispatch-service/internal/domain"
	"github.com/spec-kit/dispatch-service/internal/geo"
	"github.com/spec-kit/dispatch-service/internal/repository"
	apperrors "github.com/spec-kit/dispatch-service/pkg/util/errorutil"
)

// ClientService manages clients and their vehicles.
type ClientService struct {
	clients  repository.ClientRepository
	vehicles repository.VehicleRepository
	plans    repository.PlanRepository
	geocoder AddressGeocoder
	postal   PostalCodeLookup
	logger   *zap.Logger
}

// ClientDependencies bundles collaborators for client management.
type ClientDependencies struct {
	ClientRepo  repository.ClientRepository
	VehicleRepo repository.VehicleRepository
	PlanRepo    repository.PlanRepository
	Geocoder    AddressGeocoder
	Postal      PostalCodeLookup
	Logger      *zap.Logger
}

// NewClientService constructs the service.
func NewClientService(deps ClientDependencies) *ClientService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClientService{
		clients:  deps.ClientRepo,
		vehicles: deps.VehicleRepo,
		plans:    deps.PlanRepo,
		geocoder: deps.Geocoder,
		postal:   deps.Postal,
		logger:   logger,
	}
}

// CreateClient stores a client, geocoding the address when asked and no
// coordinates were supplied.
func (s *ClientService) CreateClient(ctx context.Context, client *domain.Client, geocode bool) (*domain.Client, error) {
	if err := s.prepareClient(ctx, client, geocode); err != nil {
		return nil, err
	}
	if err := s.clients.Create(ctx, client); err != nil {
		return nil, apperrors.MapError(err)
	}
	return client, nil
}

// UpdateClient replaces a client's fields.
func (s *ClientService) UpdateClient(ctx context.Context, client *domain.Client, geocode bool) (*domain.Client, error) {
	if err := s.prepareClient(ctx, client, geocode); err != nil {
		return nil, err
	}
	if err := s.clients.Update(ctx, client); err != nil {
		return nil, mapRepoError(err, "client", client.ID)
	}
	return client, nil
}

func (s *ClientService) prepareClient(ctx context.Context, client *domain.Client, geocode bool) error {
	client.Name = strings.TrimSpace(client.Name)
	if err := requireText("name", client.Name); err != nil {
		return err
	}
	if client.PostalCode != "" {
		digits, ok := geo.NormalizePostalCode(client.PostalCode)
		if !ok {
			return apperrors.NewValidationError("postal code must have 8 digits", map[string]any{"postal_code": client.PostalCode})
		}
		client.PostalCode = digits
	}
	if client.PlanID != nil {
		if _, err := s.plans.GetByID(ctx, *client.PlanID); err != nil {
			return mapRepoError(err, "plan", *client.PlanID)
		}
	}
	if geocode && (client.Latitude == nil || client.Longitude == nil) {
		client.Latitude, client.Longitude = locate(ctx, s.geocoder, s.logger, geo.Address{
			Street:     client.Address,
			District:   client.District,
			City:       client.City,
			State:      client.State,
			PostalCode: client.PostalCode,
		})
	}
	return nil
}

// GetClient fetches a client.
func (s *ClientService) GetClient(ctx context.Context, id string) (*domain.Client, error) {
	client, err := s.clients.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err, "client", id)
	}
	return client, nil
}

// ListClients lists clients.
func (s *ClientService) ListClients(ctx context.Context, filter repository.ClientFilter) ([]domain.Client, error) {
	clients, err := s.clients.List(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return clients, nil
}

// DeleteClient removes a client. Vehicles or tickets referencing it block the delete.
func (s *ClientService) DeleteClient(ctx context.Context, id string) error {
	return mapRepoError(s.clients.Delete(ctx, id), "client", id)
}

// LookupPostalCode autofills address fields on the client form.
func (s *ClientService) LookupPostalCode(ctx context.Context, code string) (*geo.PostalAddress, error) {
	if s.postal == nil {
		return nil, apperrors.NewUpstreamError("postal lookup", nil)
	}
	return s.postal.Lookup(ctx, code)
}

// CreateVehicle registers a vehicle for an existing client.
func (s *ClientService) CreateVehicle(ctx context.Context, vehicle *domain.Vehicle) (*domain.Vehicle, error) {
	if err := s.prepareVehicle(ctx, vehicle); err != nil {
		return nil, err
	}
	if err := s.vehicles.Create(ctx, vehicle); err != nil {
		return nil, apperrors.MapError(err)
	}
	return vehicle, nil
}

// UpdateVehicle replaces a vehicle's fields.
func (s *ClientService) UpdateVehicle(ctx context.Context, vehicle *domain.Vehicle) (*domain.Vehicle, error) {
	if err := s.prepareVehicle(ctx, vehicle); err != nil {
		return nil, err
	}
	if err := s.vehicles.Update(ctx, vehicle); err != nil {
		return nil, mapRepoError(err, "vehicle", vehicle.ID)
	}
	return vehicle, nil
}

func (s *ClientService) prepareVehicle(ctx context.Context, vehicle *domain.Vehicle) error {
	vehicle.Plate = strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(vehicle.Plate), " ", ""))
	if err := requireText("plate", vehicle.Plate); err != nil {
		return err
	}
	if _, err := s.clients.GetByID(ctx, vehicle.ClientID); err != nil {
		return mapRepoError(err, "client", vehicle.ClientID)
	}
	return nil
}

// GetVehicle fetches a vehicle.
func (s *ClientService) GetVehicle(ctx context.Context, id string) (*domain.Vehicle, error) {
	vehicle, err := s.vehicles.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err, "vehicle", id)
	}
	return vehicle, nil
}

// ListVehicles lists vehicles.
func (s *ClientService) ListVehicles(ctx context.Context, filter repository.VehicleFilter) ([]domain.Vehicle, error) {
	vehicles, err := s.vehicles.List(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return vehicles, nil
}

// DeleteVehicle removes a vehicle.
func (s *ClientService) DeleteVehicle(ctx context.Context, id string) error {
	return mapRepoError(s.vehicles.Delete(ctx, id), "vehicle", id)
}

// locate geocodes addr. Failures are logged and leave the coordinates empty.
func locate(ctx context.Context, geocoder AddressGeocoder, logger *zap.Logger, addr geo.Address) (*float64, *float64) {
	if geocoder == nil {
		return nil, nil
	}
	coords, err := geocoder.Geocode(ctx, addr)
	if err != nil {
		logger.Warn("geocoding failed", zap.String("city", addr.City), zap.String("state", addr.State), zap.Error(err))
		return nil, nil
	}
	if coords == nil {
		return nil, nil
	}
	lat, lon := coords.Latitude, coords.Longitude
	return &lat, &lon
}
