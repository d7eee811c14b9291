package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/dispatch-service/internal/domain"
)

// PaymentRepository persists per-responder settlement state.
type PaymentRepository interface {
	SetPaymentStatus(ctx context.Context, ticketID string, slot domain.ResponderSlot, status domain.PaymentStatus, paidAt *time.Time) error
}

type paymentRepository struct {
	pool *pgxpool.Pool
}

// NewPaymentRepository constructs repository.
func NewPaymentRepository(pool *pgxpool.Pool) PaymentRepository {
	return &paymentRepository{pool: pool}
}

// SetPaymentStatus writes status and paid-at for exactly one slot. The main slot
// lives on the ticket row; support slots live on the join row at that position.
// Only completed tickets can be settled; any other status affects no rows.
func (r *paymentRepository) SetPaymentStatus(ctx context.Context, ticketID string, slot domain.ResponderSlot, status domain.PaymentStatus, paidAt *time.Time) error {
	var (
		query string
		args  []any
	)
	if slot.IsMain() {
		query = `
        UPDATE tickets SET main_agent_payment_status=$1, main_agent_paid_at=$2, updated_at=NOW()
        WHERE id=$3 AND main_agent_id IS NOT NULL AND status='completed'`
		args = []any{status, paidAt, ticketID}
	} else {
		query = `
        UPDATE ticket_support_agents SET payment_status=$1, paid_at=$2
        WHERE ticket_id=$3 AND position=$4
          AND EXISTS (SELECT 1 FROM tickets t WHERE t.id=ticket_support_agents.ticket_id AND t.status='completed')`
		args = []any{status, paidAt, ticketID, int(slot)}
	}

	cmd, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
