package service

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/dispatch-service/internal/domain"
	"github.com/spec-kit/dispatch-service/internal/geo"
	apperrors "github.com/spec-kit/dispatch-service/pkg/util/errorutil"
)

type stubPostal struct {
	result *geo.PostalAddress
	err    error
}

func (p stubPostal) Lookup(_ context.Context, _ string) (*geo.PostalAddress, error) {
	return p.result, p.err
}

func TestClientCreateNormalizesAndGeocodes(t *testing.T) {
	s := newStore()
	g := &stubGeocoder{coords: &geo.Coordinates{Latitude: -22.9, Longitude: -43.2}}
	svc := NewClientService(ClientDependencies{
		ClientRepo:  fakeClients{s},
		VehicleRepo: fakeVehicles{s},
		PlanRepo:    fakePlans{s},
		Geocoder:    g,
	})

	client, err := svc.CreateClient(context.Background(), &domain.Client{Name: " Acme ", PostalCode: "01001-000", City: "Rio"}, true)
	require.NoError(t, err)
	assert.Equal(t, "Acme", client.Name)
	assert.Equal(t, "01001000", client.PostalCode)
	require.NotNil(t, client.Latitude)
	assert.InDelta(t, -22.9, *client.Latitude, 1e-9)

	_, err = svc.CreateClient(context.Background(), &domain.Client{Name: "Bad", PostalCode: "123"}, false)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeValidation))

	_, err = svc.CreateClient(context.Background(), &domain.Client{Name: "Planless", PlanID: strPtr("nope")}, false)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))
}

func TestClientDeleteBlockedByVehicles(t *testing.T) {
	s := newStore()
	svc := NewClientService(ClientDependencies{ClientRepo: fakeClients{s}, VehicleRepo: fakeVehicles{s}, PlanRepo: fakePlans{s}})
	ctx := context.Background()

	client, err := svc.CreateClient(ctx, &domain.Client{Name: "Acme"}, false)
	require.NoError(t, err)
	vehicle, err := svc.CreateVehicle(ctx, &domain.Vehicle{ClientID: client.ID, Plate: "abc 1d23"})
	require.NoError(t, err)
	assert.Equal(t, "ABC1D23", vehicle.Plate)

	err = svc.DeleteClient(ctx, client.ID)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeForeignKey))

	require.NoError(t, svc.DeleteVehicle(ctx, vehicle.ID))
	require.NoError(t, svc.DeleteClient(ctx, client.ID))
	err = svc.DeleteClient(ctx, client.ID)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))
}

func TestClientPostalLookupDelegates(t *testing.T) {
	svc := NewClientService(ClientDependencies{Postal: stubPostal{result: &geo.PostalAddress{PostalCode: "01001000", City: "Sao Paulo"}}})

	addr, err := svc.LookupPostalCode(context.Background(), "01001-000")
	require.NoError(t, err)
	assert.Equal(t, "Sao Paulo", addr.City)

	_, err = NewClientService(ClientDependencies{}).LookupPostalCode(context.Background(), "01001000")
	assert.True(t, apperrors.IsCode(err, apperrors.CodeUpstreamUnavailable))
}

func TestAgentNearbyOrdersByDistance(t *testing.T) {
	s := newStore()
	lat := func(v float64) *float64 { return &v }
	s.agents["far"] = &domain.Agent{ID: "far", Name: "Far", Active: true, Latitude: lat(-22.90), Longitude: lat(-43.20)}
	s.agents["near"] = &domain.Agent{ID: "near", Name: "Near", Active: true, Latitude: lat(-23.56), Longitude: lat(-46.64)}
	s.agents["lost"] = &domain.Agent{ID: "lost", Name: "Lost", Active: true}
	s.agents["off"] = &domain.Agent{ID: "off", Name: "Off", Active: false, Latitude: lat(-23.55), Longitude: lat(-46.63)}
	fakeTickets{s}.put(domain.Ticket{ID: "t1", Latitude: lat(-23.55), Longitude: lat(-46.63)})
	fakeTickets{s}.put(domain.Ticket{ID: "t2"})

	svc := NewAgentService(fakeAgents{s}, fakeTickets{s}, nil, nil)

	ranked, err := svc.NearbyTicket(context.Background(), "t1")
	require.NoError(t, err)
	require.Len(t, ranked, 3)
	assert.Equal(t, "near", ranked[0].Agent.ID)
	assert.Equal(t, "far", ranked[1].Agent.ID)
	assert.Equal(t, "lost", ranked[2].Agent.ID)
	assert.Nil(t, ranked[2].DistanceKm)

	_, err = svc.NearbyTicket(context.Background(), "t2")
	assert.True(t, apperrors.IsCode(err, apperrors.CodeValidation))
}

func TestAgentTierDefaultsAndValidation(t *testing.T) {
	s := newStore()
	svc := NewAgentService(fakeAgents{s}, fakeTickets{s}, nil, nil)

	agent, err := svc.CreateAgent(context.Background(), &domain.Agent{Name: "Rui"}, false)
	require.NoError(t, err)
	assert.Equal(t, domain.AgentTierGood, agent.Tier)

	_, err = svc.CreateAgent(context.Background(), &domain.Agent{Name: "Rui", Tier: "legendary"}, false)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeValidation))
}

func TestPlanRejectsNegativePrice(t *testing.T) {
	svc := NewPlanService(fakePlans{newStore()})

	_, err := svc.CreatePlan(context.Background(), &domain.Plan{Name: "Gold", MonthlyPrice: decimal.NewFromInt(-1)})
	assert.True(t, apperrors.IsCode(err, apperrors.CodeValidation))

	plan, err := svc.CreatePlan(context.Background(), &domain.Plan{Name: "Gold", MonthlyPrice: decimal.RequireFromString("199.90"), Active: true})
	require.NoError(t, err)
	assert.NotEmpty(t, plan.ID)
}
