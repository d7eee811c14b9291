package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/dispatch-service/internal/domain"
)

// PhotoRepository persists ticket photo metadata.
type PhotoRepository interface {
	Create(ctx context.Context, photo *domain.TicketPhoto) error
	ListByTicket(ctx context.Context, ticketID string) ([]domain.TicketPhoto, error)
}

type photoRepository struct {
	pool *pgxpool.Pool
}

// NewPhotoRepository constructs repository.
func NewPhotoRepository(pool *pgxpool.Pool) PhotoRepository {
	return &photoRepository{pool: pool}
}

func (r *photoRepository) Create(ctx context.Context, photo *domain.TicketPhoto) error {
	const query = `
        INSERT INTO ticket_photos (ticket_id, url, caption)
        VALUES ($1,$2,$3)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		photo.TicketID,
		photo.URL,
		photo.Caption,
	).Scan(&photo.ID, &photo.CreatedAt)
}

func (r *photoRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.TicketPhoto, error) {
	const query = `
        SELECT id, ticket_id, url, caption, created_at
        FROM ticket_photos WHERE ticket_id=$1 ORDER BY created_at ASC`
	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.TicketPhoto
	for rows.Next() {
		var photo domain.TicketPhoto
		if err := rows.Scan(
			&photo.ID,
			&photo.TicketID,
			&photo.URL,
			&photo.Caption,
			&photo.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, photo)
	}
	return result, rows.Err()
}
