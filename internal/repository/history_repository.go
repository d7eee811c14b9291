package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/dispatch-service/internal/domain"
)

// HistoryFilter narrows a ticket's audit trail. Entries come oldest first unless
// NewestFirst is set; a zero Limit returns every matching entry.
type HistoryFilter struct {
	ChangeTypes []domain.TicketChangeType
	NewestFirst bool
	Limit       int
}

// TicketHistoryRepository stores the status, support and payment audit trail.
type TicketHistoryRepository interface {
	Create(ctx context.Context, history *domain.TicketHistory) error
	ListByTicket(ctx context.Context, ticketID string, filter HistoryFilter) ([]domain.TicketHistory, error)
}

type ticketHistoryRepository struct {
	pool *pgxpool.Pool
}

// NewTicketHistoryRepository builds repository.
func NewTicketHistoryRepository(pool *pgxpool.Pool) TicketHistoryRepository {
	return &ticketHistoryRepository{pool: pool}
}

func (r *ticketHistoryRepository) Create(ctx context.Context, history *domain.TicketHistory) error {
	const query = `
        INSERT INTO ticket_history (ticket_id, operator_id, change_type, old_value, new_value)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		history.TicketID,
		history.OperatorID,
		history.ChangeType,
		history.OldValue,
		history.NewValue,
	).Scan(&history.ID, &history.CreatedAt)
}

// ListByTicket returns entries with the acting operator's name; entries written
// by a since-deleted operator keep an empty name.
func (r *ticketHistoryRepository) ListByTicket(ctx context.Context, ticketID string, filter HistoryFilter) ([]domain.TicketHistory, error) {
	clauses := []string{"h.ticket_id=$1"}
	args := []any{ticketID}
	if len(filter.ChangeTypes) > 0 {
		placeholders := make([]string, len(filter.ChangeTypes))
		for i, changeType := range filter.ChangeTypes {
			args = append(args, changeType)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("h.change_type IN (%s)", strings.Join(placeholders, ",")))
	}

	order := "ASC"
	if filter.NewestFirst {
		order = "DESC"
	}
	limit := ""
	if filter.Limit > 0 {
		limit = fmt.Sprintf(" LIMIT %d", filter.Limit)
	}

	query := fmt.Sprintf(`
        SELECT h.id, h.ticket_id, h.operator_id, COALESCE(o.name, ''), h.change_type, h.old_value, h.new_value, h.created_at
        FROM ticket_history h
        LEFT JOIN operators o ON o.id = h.operator_id
        WHERE %s
        ORDER BY h.created_at %s, h.id %s%s`, strings.Join(clauses, " AND "), order, order, limit)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.TicketHistory
	for rows.Next() {
		var history domain.TicketHistory
		if err := rows.Scan(
			&history.ID,
			&history.TicketID,
			&history.OperatorID,
			&history.OperatorName,
			&history.ChangeType,
			&history.OldValue,
			&history.NewValue,
			&history.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, history)
	}
	return result, rows.Err()
}
