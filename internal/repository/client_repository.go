package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/dispatch-service/internal/domain"
)

// ClientRepository handles persistence for clients.
type ClientRepository interface {
	Create(ctx context.Context, client *domain.Client) error
	Update(ctx context.Context, client *domain.Client) error
	GetByID(ctx context.Context, id string) (*domain.Client, error)
	List(ctx context.Context, filter ClientFilter) ([]domain.Client, error)
	Count(ctx context.Context) (int64, error)
	Delete(ctx context.Context, id string) error
}

// ClientFilter defines query params for client listing.
type ClientFilter struct {
	Search string
	PlanID *string
	Active *bool
	Limit  int
	Offset int
}

type clientRepository struct {
	pool *pgxpool.Pool
}

// NewClientRepository instantiates the repository.
func NewClientRepository(pool *pgxpool.Pool) ClientRepository {
	return &clientRepository{pool: pool}
}

const clientColumns = `id, name, document, phone, email, postal_code, address, district, city, state,
        latitude, longitude, plan_id, active, created_at, updated_at`

func (r *clientRepository) Create(ctx context.Context, client *domain.Client) error {
	const query = `
        INSERT INTO clients (name, document, phone, email, postal_code, address, district, city, state,
            latitude, longitude, plan_id, active)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query, clientArgs(client)...).Scan(&client.ID, &client.CreatedAt, &client.UpdatedAt)
}

func (r *clientRepository) Update(ctx context.Context, client *domain.Client) error {
	const query = `
        UPDATE clients SET name=$1, document=$2, phone=$3, email=$4, postal_code=$5, address=$6,
            district=$7, city=$8, state=$9, latitude=$10, longitude=$11, plan_id=$12, active=$13,
            updated_at=NOW()
        WHERE id=$14`
	cmd, err := r.pool.Exec(ctx, query, append(clientArgs(client), client.ID)...)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func clientArgs(client *domain.Client) []any {
	return []any{
		client.Name,
		client.Document,
		client.Phone,
		client.Email,
		client.PostalCode,
		client.Address,
		client.District,
		client.City,
		client.State,
		client.Latitude,
		client.Longitude,
		client.PlanID,
		client.Active,
	}
}

func (r *clientRepository) GetByID(ctx context.Context, id string) (*domain.Client, error) {
	return scanClient(r.pool.QueryRow(ctx, `SELECT `+clientColumns+` FROM clients WHERE id=$1`, id))
}

func (r *clientRepository) List(ctx context.Context, filter ClientFilter) ([]domain.Client, error) {
	query := `SELECT ` + clientColumns + ` FROM clients`
	args := []any{}
	clauses := []string{}

	if clause := searchClause(filter.Search, &args, "name", "document", "phone", "email"); clause != "" {
		clauses = append(clauses, clause)
	}
	if filter.PlanID != nil {
		args = append(args, *filter.PlanID)
		clauses = append(clauses, fmt.Sprintf("plan_id=$%d", len(args)))
	}
	if filter.Active != nil {
		args = append(args, *filter.Active)
		clauses = append(clauses, fmt.Sprintf("active=$%d", len(args)))
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY name ASC" + pageClause(filter.Limit, filter.Offset, 100)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Client
	for rows.Next() {
		client, err := scanClient(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *client)
	}
	return result, rows.Err()
}

func (r *clientRepository) Count(ctx context.Context) (int64, error) {
	return countRows(ctx, r.pool, `SELECT COUNT(*) FROM clients WHERE active`)
}

func (r *clientRepository) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, r.pool, "clients", id)
}

func scanClient(row pgx.Row) (*domain.Client, error) {
	var client domain.Client
	if err := row.Scan(
		&client.ID,
		&client.Name,
		&client.Document,
		&client.Phone,
		&client.Email,
		&client.PostalCode,
		&client.Address,
		&client.District,
		&client.City,
		&client.State,
		&client.Latitude,
		&client.Longitude,
		&client.PlanID,
		&client.Active,
		&client.CreatedAt,
		&client.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &client, nil
}
