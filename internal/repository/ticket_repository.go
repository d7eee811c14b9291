package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/dispatch-service/internal/domain"
)

// TicketFilter captures dispatch search parameters.
type TicketFilter struct {
	Statuses    []domain.TicketStatus
	ClientID    *string
	AgentID     *string
	OperatorID  *string
	Search      string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Limit       int
	Offset      int
}

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	Update(ctx context.Context, ticket *domain.Ticket) error
	UpdateStatus(ctx context.Context, id string, from, to domain.TicketStatus, start, end *time.Time) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
	CountActive(ctx context.Context) (int64, error)
	ReplaceSupport(ctx context.Context, ticketID string, support []domain.SupportAssignment) error
	Delete(ctx context.Context, id string) error
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

const ticketSelect = `
        SELECT t.id, t.code, t.status, t.service_type, t.description,
               t.client_id, t.vehicle_id, t.plan_id, t.operator_id, t.main_agent_id,
               t.address, t.city, t.state, t.latitude, t.longitude,
               t.start_time, t.end_time, t.created_at, t.updated_at,
               t.main_agent_toll_cost, t.main_agent_food_cost, t.main_agent_other_cost,
               t.main_agent_payment_status, t.main_agent_paid_at,
               c.name, o.name, a.name, a.armed,
               a.pix_key, a.bank_name, a.bank_agency, a.bank_account, a.bank_account_type
        FROM tickets t
        LEFT JOIN clients c ON c.id = t.client_id
        LEFT JOIN operators o ON o.id = t.operator_id
        LEFT JOIN agents a ON a.id = t.main_agent_id`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (code, status, service_type, description, client_id, vehicle_id, plan_id,
            operator_id, main_agent_id, address, city, state, latitude, longitude, start_time, end_time,
            main_agent_toll_cost, main_agent_food_cost, main_agent_other_cost)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19)
        RETURNING id, created_at, updated_at`
	args := append([]any{ticket.Code, ticket.Status}, ticketArgs(ticket)...)
	return r.pool.QueryRow(ctx, query, args...).Scan(&ticket.ID, &ticket.CreatedAt, &ticket.UpdatedAt)
}

// Update writes details and main-agent costs. Status moves only through
// UpdateStatus and payment state is owned by PaymentRepository, except that
// switching the main agent clears the previous agent's settlement.
func (r *ticketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        UPDATE tickets SET service_type=$1, description=$2, client_id=$3, vehicle_id=$4,
            plan_id=$5, operator_id=$6, main_agent_id=$7, address=$8, city=$9, state=$10,
            latitude=$11, longitude=$12, start_time=$13, end_time=$14,
            main_agent_toll_cost=$15, main_agent_food_cost=$16, main_agent_other_cost=$17,
            main_agent_payment_status=CASE WHEN main_agent_id IS DISTINCT FROM $7 THEN NULL ELSE main_agent_payment_status END,
            main_agent_paid_at=CASE WHEN main_agent_id IS DISTINCT FROM $7 THEN NULL ELSE main_agent_paid_at END,
            updated_at=NOW()
        WHERE id=$18`
	cmd, err := r.pool.Exec(ctx, query, append(ticketArgs(ticket), ticket.ID)...)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// UpdateStatus moves a ticket from one status to another. The row must still be
// in from; otherwise nothing is written and pgx.ErrNoRows is returned.
func (r *ticketRepository) UpdateStatus(ctx context.Context, id string, from, to domain.TicketStatus, start, end *time.Time) error {
	const query = `
        UPDATE tickets SET status=$1, start_time=$2, end_time=$3, updated_at=NOW()
        WHERE id=$4 AND status=$5`
	cmd, err := r.pool.Exec(ctx, query, to, start, end, id, from)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// ticketArgs lists the detail columns shared by insert and update, in column order.
func ticketArgs(ticket *domain.Ticket) []any {
	return []any{
		ticket.ServiceType,
		ticket.Description,
		ticket.ClientID,
		ticket.VehicleID,
		ticket.PlanID,
		ticket.OperatorID,
		ticket.MainAgentID,
		ticket.Address,
		ticket.City,
		ticket.State,
		ticket.Latitude,
		ticket.Longitude,
		ticket.StartTime,
		ticket.EndTime,
		ticket.MainCosts.Toll,
		ticket.MainCosts.Food,
		ticket.MainCosts.Other,
	}
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	ticket, err := scanTicket(r.pool.QueryRow(ctx, ticketSelect+` WHERE t.id=$1`, id))
	if err != nil {
		return nil, err
	}
	tickets := []domain.Ticket{*ticket}
	if err := r.attachSupport(ctx, tickets); err != nil {
		return nil, err
	}
	return &tickets[0], nil
}

func (r *ticketRepository) List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("t.status IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.ClientID != nil {
		args = append(args, *filter.ClientID)
		clauses = append(clauses, fmt.Sprintf("t.client_id=$%d", len(args)))
	}
	if filter.OperatorID != nil {
		args = append(args, *filter.OperatorID)
		clauses = append(clauses, fmt.Sprintf("t.operator_id=$%d", len(args)))
	}
	if filter.AgentID != nil {
		args = append(args, *filter.AgentID)
		n := len(args)
		clauses = append(clauses, fmt.Sprintf(
			"(t.main_agent_id=$%d OR EXISTS (SELECT 1 FROM ticket_support_agents s WHERE s.ticket_id=t.id AND s.agent_id=$%d))", n, n))
	}
	if filter.CreatedFrom != nil {
		args = append(args, *filter.CreatedFrom)
		clauses = append(clauses, fmt.Sprintf("t.created_at >= $%d", len(args)))
	}
	if filter.CreatedTo != nil {
		args = append(args, *filter.CreatedTo)
		clauses = append(clauses, fmt.Sprintf("t.created_at <= $%d", len(args)))
	}
	if clause := searchClause(filter.Search, &args, "t.code", "t.description", "t.address", "c.name"); clause != "" {
		clauses = append(clauses, clause)
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY t.created_at DESC%s`,
		ticketSelect, strings.Join(clauses, " AND "), pageClause(filter.Limit, filter.Offset, 20))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Ticket
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *ticket)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.attachSupport(ctx, result); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *ticketRepository) CountActive(ctx context.Context) (int64, error) {
	return countRows(ctx, r.pool, `SELECT COUNT(*) FROM tickets WHERE status IN ($1,$2)`,
		domain.TicketStatusOpen, domain.TicketStatusInProgress)
}

// ReplaceSupport rewrites the ordered support list. Positions are renumbered 1..N
// in slice order; costs and payment state travel with each assignment.
func (r *ticketRepository) ReplaceSupport(ctx context.Context, ticketID string, support []domain.SupportAssignment) (err error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	var exists bool
	if err = tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM tickets WHERE id=$1)`, ticketID).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return pgx.ErrNoRows
	}
	if _, err = tx.Exec(ctx, `DELETE FROM ticket_support_agents WHERE ticket_id=$1`, ticketID); err != nil {
		return err
	}

	const insert = `
        INSERT INTO ticket_support_agents (ticket_id, agent_id, position, toll_cost, food_cost, other_cost, payment_status, paid_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`
	for i, assignment := range support {
		if _, err = tx.Exec(ctx, insert,
			ticketID,
			assignment.AgentID,
			i+1,
			assignment.Costs.Toll,
			assignment.Costs.Food,
			assignment.Costs.Other,
			assignment.Payment.Status,
			assignment.Payment.PaidAt,
		); err != nil {
			return err
		}
	}
	if _, err = tx.Exec(ctx, `UPDATE tickets SET updated_at=NOW() WHERE id=$1`, ticketID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// Delete removes a ticket. Support rows cascade; photos block the delete.
func (r *ticketRepository) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, r.pool, "tickets", id)
}

func (r *ticketRepository) attachSupport(ctx context.Context, tickets []domain.Ticket) error {
	if len(tickets) == 0 {
		return nil
	}
	ids := make([]string, len(tickets))
	index := make(map[string]int, len(tickets))
	for i := range tickets {
		ids[i] = tickets[i].ID
		index[tickets[i].ID] = i
	}

	const query = `
        SELECT s.id, s.ticket_id, s.agent_id, s.position,
               s.toll_cost, s.food_cost, s.other_cost, s.payment_status, s.paid_at,
               a.name, a.armed, a.pix_key, a.bank_name, a.bank_agency, a.bank_account, a.bank_account_type
        FROM ticket_support_agents s
        JOIN agents a ON a.id = s.agent_id
        WHERE s.ticket_id = ANY($1::uuid[])
        ORDER BY s.ticket_id, s.position ASC`
	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			assignment domain.SupportAssignment
			agent      domain.Agent
		)
		if err := rows.Scan(
			&assignment.ID,
			&assignment.TicketID,
			&assignment.AgentID,
			&assignment.Position,
			&assignment.Costs.Toll,
			&assignment.Costs.Food,
			&assignment.Costs.Other,
			&assignment.Payment.Status,
			&assignment.Payment.PaidAt,
			&agent.Name,
			&agent.Armed,
			&agent.Payout.PixKey,
			&agent.Payout.BankName,
			&agent.Payout.BankAgency,
			&agent.Payout.BankAccount,
			&agent.Payout.AccountType,
		); err != nil {
			return err
		}
		agent.ID = assignment.AgentID
		assignment.Agent = &agent
		if i, ok := index[assignment.TicketID]; ok {
			tickets[i].Support = append(tickets[i].Support, assignment)
		}
	}
	return rows.Err()
}

func scanTicket(row pgx.Row) (*domain.Ticket, error) {
	var (
		ticket       domain.Ticket
		clientName   *string
		operatorName *string
		agentName    *string
		agentArmed   *bool
		payout       struct {
			pixKey, bankName, bankAgency, bankAccount, accountType *string
		}
	)
	if err := row.Scan(
		&ticket.ID,
		&ticket.Code,
		&ticket.Status,
		&ticket.ServiceType,
		&ticket.Description,
		&ticket.ClientID,
		&ticket.VehicleID,
		&ticket.PlanID,
		&ticket.OperatorID,
		&ticket.MainAgentID,
		&ticket.Address,
		&ticket.City,
		&ticket.State,
		&ticket.Latitude,
		&ticket.Longitude,
		&ticket.StartTime,
		&ticket.EndTime,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
		&ticket.MainCosts.Toll,
		&ticket.MainCosts.Food,
		&ticket.MainCosts.Other,
		&ticket.MainPayment.Status,
		&ticket.MainPayment.PaidAt,
		&clientName,
		&operatorName,
		&agentName,
		&agentArmed,
		&payout.pixKey,
		&payout.bankName,
		&payout.bankAgency,
		&payout.bankAccount,
		&payout.accountType,
	); err != nil {
		return nil, err
	}

	if ticket.ClientID != nil && clientName != nil {
		ticket.Client = &domain.Client{ID: *ticket.ClientID, Name: *clientName}
	}
	if ticket.OperatorID != nil && operatorName != nil {
		ticket.Operator = &domain.Operator{ID: *ticket.OperatorID, Name: *operatorName}
	}
	if ticket.MainAgentID != nil && agentName != nil {
		ticket.MainAgent = &domain.Agent{
			ID:    *ticket.MainAgentID,
			Name:  *agentName,
			Armed: agentArmed != nil && *agentArmed,
			Payout: domain.PayoutDetails{
				PixKey:      deref(payout.pixKey),
				BankName:    deref(payout.bankName),
				BankAgency:  deref(payout.bankAgency),
				BankAccount: deref(payout.bankAccount),
				AccountType: deref(payout.accountType),
			},
		}
	}
	return &ticket, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
