package service

import (
	"context"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/spec-kit/dispatch-service/internal/domain"
	"github.com/spec-kit/dispatch-service/internal/events"
	"github.com/spec-kit/dispatch-service/internal/geo"
	"github.com/spec-kit/dispatch-service/internal/repository"
)

// store is an in-memory stand-in for the relational store shared by the fakes.
type store struct {
	mu        sync.Mutex
	tickets   map[string]*domain.Ticket
	order     []string
	clients   map[string]*domain.Client
	agents    map[string]*domain.Agent
	vehicles  map[string]*domain.Vehicle
	plans     map[string]*domain.Plan
	operators map[string]*domain.Operator
	photos    map[string][]domain.TicketPhoto
	history   []domain.TicketHistory
	failWith  error
}

func newStore() *store {
	return &store{
		tickets:   map[string]*domain.Ticket{},
		clients:   map[string]*domain.Client{},
		agents:    map[string]*domain.Agent{},
		vehicles:  map[string]*domain.Vehicle{},
		plans:     map[string]*domain.Plan{},
		operators: map[string]*domain.Operator{},
		photos:    map[string][]domain.TicketPhoto{},
	}
}

var fkViolation = &pgconn.PgError{Code: "23503", ConstraintName: "fk"}

func cloneTicket(t *domain.Ticket) domain.Ticket {
	c := *t
	c.Support = append([]domain.SupportAssignment(nil), t.Support...)
	return c
}

// ticket repository

type fakeTickets struct{ s *store }

func (f fakeTickets) Create(_ context.Context, ticket *domain.Ticket) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	ticket.ID = uuid.NewString()
	if ticket.CreatedAt.IsZero() {
		ticket.CreatedAt = time.Now()
	}
	ticket.UpdatedAt = ticket.CreatedAt
	c := cloneTicket(ticket)
	f.s.tickets[ticket.ID] = &c
	f.s.order = append(f.s.order, ticket.ID)
	return nil
}

func (f fakeTickets) put(ticket domain.Ticket) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	c := cloneTicket(&ticket)
	f.s.tickets[ticket.ID] = &c
	f.s.order = append(f.s.order, ticket.ID)
}

func (f fakeTickets) Update(_ context.Context, ticket *domain.Ticket) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	current, ok := f.s.tickets[ticket.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	c := cloneTicket(ticket)
	c.Status = current.Status
	c.MainPayment = current.MainPayment
	if derefString(c.MainAgentID) != derefString(current.MainAgentID) {
		c.MainPayment = domain.Payment{}
	}
	c.Support = current.Support
	c.CreatedAt = current.CreatedAt
	f.s.tickets[ticket.ID] = &c
	return nil
}

func (f fakeTickets) UpdateStatus(_ context.Context, id string, from, to domain.TicketStatus, start, end *time.Time) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	t, ok := f.s.tickets[id]
	if !ok || t.Status != from {
		return pgx.ErrNoRows
	}
	t.Status = to
	t.StartTime = start
	t.EndTime = end
	return nil
}

func (f fakeTickets) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	t, ok := f.s.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	c := cloneTicket(t)
	return &c, nil
}

func (f fakeTickets) List(_ context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if f.s.failWith != nil {
		return nil, f.s.failWith
	}
	var out []domain.Ticket
	for _, id := range f.s.order {
		t, ok := f.s.tickets[id]
		if !ok {
			continue
		}
		if len(filter.Statuses) > 0 {
			match := false
			for _, st := range filter.Statuses {
				match = match || st == t.Status
			}
			if !match {
				continue
			}
		}
		if filter.CreatedFrom != nil && t.CreatedAt.Before(*filter.CreatedFrom) {
			continue
		}
		if filter.CreatedTo != nil && t.CreatedAt.After(*filter.CreatedTo) {
			continue
		}
		out = append(out, cloneTicket(t))
	}
	return out, nil
}

func (f fakeTickets) CountActive(_ context.Context) (int64, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	var n int64
	for _, t := range f.s.tickets {
		if t.Status == domain.TicketStatusOpen || t.Status == domain.TicketStatusInProgress {
			n++
		}
	}
	return n, nil
}

func (f fakeTickets) ReplaceSupport(_ context.Context, ticketID string, support []domain.SupportAssignment) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	t, ok := f.s.tickets[ticketID]
	if !ok {
		return pgx.ErrNoRows
	}
	t.Support = nil
	for i, a := range support {
		a.Position = i + 1
		a.TicketID = ticketID
		a.ID = uuid.NewString()
		if agent, ok := f.s.agents[a.AgentID]; ok {
			copyAgent := *agent
			a.Agent = &copyAgent
		}
		t.Support = append(t.Support, a)
	}
	return nil
}

func (f fakeTickets) Delete(_ context.Context, id string) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if _, ok := f.s.tickets[id]; !ok {
		return pgx.ErrNoRows
	}
	if len(f.s.photos[id]) > 0 {
		return fkViolation
	}
	delete(f.s.tickets, id)
	return nil
}

// payment repository

type fakePayments struct{ s *store }

func (f fakePayments) SetPaymentStatus(_ context.Context, ticketID string, slot domain.ResponderSlot, status domain.PaymentStatus, paidAt *time.Time) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	t, ok := f.s.tickets[ticketID]
	if !ok || t.Status != domain.TicketStatusCompleted {
		return pgx.ErrNoRows
	}
	st := status
	if slot.IsMain() {
		if t.MainAgentID == nil {
			return pgx.ErrNoRows
		}
		t.MainPayment = domain.Payment{Status: &st, PaidAt: paidAt}
		return nil
	}
	for i := range t.Support {
		if t.Support[i].Position == int(slot) {
			t.Support[i].Payment = domain.Payment{Status: &st, PaidAt: paidAt}
			return nil
		}
	}
	return pgx.ErrNoRows
}

// registry repositories

type fakeClients struct{ s *store }

func (f fakeClients) Create(_ context.Context, c *domain.Client) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	c.ID = uuid.NewString()
	cp := *c
	f.s.clients[c.ID] = &cp
	return nil
}

func (f fakeClients) Update(_ context.Context, c *domain.Client) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if _, ok := f.s.clients[c.ID]; !ok {
		return pgx.ErrNoRows
	}
	cp := *c
	f.s.clients[c.ID] = &cp
	return nil
}

func (f fakeClients) GetByID(_ context.Context, id string) (*domain.Client, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	c, ok := f.s.clients[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *c
	return &cp, nil
}

func (f fakeClients) List(_ context.Context, filter repository.ClientFilter) ([]domain.Client, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	var out []domain.Client
	for _, c := range f.s.clients {
		if filter.Search != "" && !strings.Contains(strings.ToLower(c.Name), strings.ToLower(filter.Search)) {
			continue
		}
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f fakeClients) Count(_ context.Context) (int64, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	return int64(len(f.s.clients)), nil
}

func (f fakeClients) Delete(_ context.Context, id string) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if _, ok := f.s.clients[id]; !ok {
		return pgx.ErrNoRows
	}
	for _, v := range f.s.vehicles {
		if v.ClientID == id {
			return fkViolation
		}
	}
	delete(f.s.clients, id)
	return nil
}

type fakeAgents struct{ s *store }

func (f fakeAgents) Create(_ context.Context, a *domain.Agent) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	cp := *a
	f.s.agents[a.ID] = &cp
	return nil
}

func (f fakeAgents) Update(_ context.Context, a *domain.Agent) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if _, ok := f.s.agents[a.ID]; !ok {
		return pgx.ErrNoRows
	}
	cp := *a
	f.s.agents[a.ID] = &cp
	return nil
}

func (f fakeAgents) GetByID(_ context.Context, id string) (*domain.Agent, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	a, ok := f.s.agents[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *a
	return &cp, nil
}

func (f fakeAgents) List(_ context.Context, filter repository.AgentFilter) ([]domain.Agent, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	var out []domain.Agent
	for _, a := range f.s.agents {
		if filter.Active != nil && a.Active != *filter.Active {
			continue
		}
		out = append(out, *a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f fakeAgents) Count(_ context.Context) (int64, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	return int64(len(f.s.agents)), nil
}

func (f fakeAgents) Delete(_ context.Context, id string) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if _, ok := f.s.agents[id]; !ok {
		return pgx.ErrNoRows
	}
	for _, t := range f.s.tickets {
		if t.MainAgentID != nil && *t.MainAgentID == id {
			return fkViolation
		}
		for _, sup := range t.Support {
			if sup.AgentID == id {
				return fkViolation
			}
		}
	}
	delete(f.s.agents, id)
	return nil
}

type fakeVehicles struct{ s *store }

func (f fakeVehicles) Create(_ context.Context, v *domain.Vehicle) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	v.ID = uuid.NewString()
	cp := *v
	f.s.vehicles[v.ID] = &cp
	return nil
}

func (f fakeVehicles) Update(_ context.Context, v *domain.Vehicle) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if _, ok := f.s.vehicles[v.ID]; !ok {
		return pgx.ErrNoRows
	}
	cp := *v
	f.s.vehicles[v.ID] = &cp
	return nil
}

func (f fakeVehicles) GetByID(_ context.Context, id string) (*domain.Vehicle, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	v, ok := f.s.vehicles[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *v
	return &cp, nil
}

func (f fakeVehicles) List(_ context.Context, _ repository.VehicleFilter) ([]domain.Vehicle, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	var out []domain.Vehicle
	for _, v := range f.s.vehicles {
		out = append(out, *v)
	}
	return out, nil
}

func (f fakeVehicles) Count(_ context.Context) (int64, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	return int64(len(f.s.vehicles)), nil
}

func (f fakeVehicles) Delete(_ context.Context, id string) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if _, ok := f.s.vehicles[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(f.s.vehicles, id)
	return nil
}

type fakePlans struct{ s *store }

func (f fakePlans) Create(_ context.Context, p *domain.Plan) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	p.ID = uuid.NewString()
	cp := *p
	f.s.plans[p.ID] = &cp
	return nil
}

func (f fakePlans) Update(_ context.Context, p *domain.Plan) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if _, ok := f.s.plans[p.ID]; !ok {
		return pgx.ErrNoRows
	}
	cp := *p
	f.s.plans[p.ID] = &cp
	return nil
}

func (f fakePlans) GetByID(_ context.Context, id string) (*domain.Plan, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	p, ok := f.s.plans[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *p
	return &cp, nil
}

func (f fakePlans) List(_ context.Context, activeOnly bool) ([]domain.Plan, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	var out []domain.Plan
	for _, p := range f.s.plans {
		if activeOnly && !p.Active {
			continue
		}
		out = append(out, *p)
	}
	return out, nil
}

func (f fakePlans) Delete(_ context.Context, id string) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if _, ok := f.s.plans[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(f.s.plans, id)
	return nil
}

type fakeOperators struct{ s *store }

func (f fakeOperators) Create(_ context.Context, o *domain.Operator) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	cp := *o
	f.s.operators[o.ID] = &cp
	return nil
}

func (f fakeOperators) Update(_ context.Context, o *domain.Operator) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if _, ok := f.s.operators[o.ID]; !ok {
		return pgx.ErrNoRows
	}
	cp := *o
	f.s.operators[o.ID] = &cp
	return nil
}

func (f fakeOperators) GetByID(_ context.Context, id string) (*domain.Operator, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	o, ok := f.s.operators[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *o
	return &cp, nil
}

func (f fakeOperators) GetByEmail(_ context.Context, email string) (*domain.Operator, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	for _, o := range f.s.operators {
		if strings.EqualFold(o.Email, email) {
			cp := *o
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f fakeOperators) List(_ context.Context, _ repository.OperatorFilter) ([]domain.Operator, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	var out []domain.Operator
	for _, o := range f.s.operators {
		out = append(out, *o)
	}
	return out, nil
}

func (f fakeOperators) Delete(_ context.Context, id string) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if _, ok := f.s.operators[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(f.s.operators, id)
	return nil
}

// ticket children

type fakePhotos struct{ s *store }

func (f fakePhotos) Create(_ context.Context, p *domain.TicketPhoto) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	p.ID = uuid.NewString()
	p.CreatedAt = time.Now()
	f.s.photos[p.TicketID] = append(f.s.photos[p.TicketID], *p)
	return nil
}

func (f fakePhotos) ListByTicket(_ context.Context, ticketID string) ([]domain.TicketPhoto, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	return append([]domain.TicketPhoto(nil), f.s.photos[ticketID]...), nil
}

type fakeHistory struct{ s *store }

func (f fakeHistory) Create(_ context.Context, h *domain.TicketHistory) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	h.ID = uuid.NewString()
	f.s.history = append(f.s.history, *h)
	return nil
}

func (f fakeHistory) ListByTicket(_ context.Context, ticketID string, filter repository.HistoryFilter) ([]domain.TicketHistory, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	var out []domain.TicketHistory
	for _, h := range f.s.history {
		if h.TicketID != ticketID {
			continue
		}
		if len(filter.ChangeTypes) > 0 && !slices.Contains(filter.ChangeTypes, h.ChangeType) {
			continue
		}
		out = append(out, h)
	}
	if filter.NewestFirst {
		slices.Reverse(out)
	}
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

// collaborators

type recordingDispatcher struct {
	mu     sync.Mutex
	events []events.Event
}

func (d *recordingDispatcher) Publish(_ context.Context, event events.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, event)
	return nil
}

func (d *recordingDispatcher) Subscribe(events.EventType, events.EventHandler) {}

func (d *recordingDispatcher) types() []events.EventType {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]events.EventType, len(d.events))
	for i, e := range d.events {
		out[i] = e.Type
	}
	return out
}

type stubGeocoder struct {
	coords *geo.Coordinates
	err    error
	calls  int
}

func (g *stubGeocoder) Geocode(_ context.Context, _ geo.Address) (*geo.Coordinates, error) {
	g.calls++
	return g.coords, g.err
}

func strPtr(s string) *string { return &s }

func operatorActor(id string) events.Actor {
	return events.Actor{OperatorID: &id, Role: domain.OperatorRoleAdmin}
}
