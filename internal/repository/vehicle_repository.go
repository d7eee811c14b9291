package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/dispatch-service/internal/domain"
)

// VehicleRepository handles persistence for client vehicles.
type VehicleRepository interface {
	Create(ctx context.Context, vehicle *domain.Vehicle) error
	Update(ctx context.Context, vehicle *domain.Vehicle) error
	GetByID(ctx context.Context, id string) (*domain.Vehicle, error)
	List(ctx context.Context, filter VehicleFilter) ([]domain.Vehicle, error)
	Count(ctx context.Context) (int64, error)
	Delete(ctx context.Context, id string) error
}

// VehicleFilter defines query params for vehicle listing.
type VehicleFilter struct {
	ClientID *string
	Search   string
	Limit    int
	Offset   int
}

type vehicleRepository struct {
	pool *pgxpool.Pool
}

// NewVehicleRepository instantiates the repository.
func NewVehicleRepository(pool *pgxpool.Pool) VehicleRepository {
	return &vehicleRepository{pool: pool}
}

const vehicleColumns = `id, client_id, plate, brand, model, color, year, created_at, updated_at`

func (r *vehicleRepository) Create(ctx context.Context, vehicle *domain.Vehicle) error {
	const query = `
        INSERT INTO vehicles (client_id, plate, brand, model, color, year)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		vehicle.ClientID,
		vehicle.Plate,
		vehicle.Brand,
		vehicle.Model,
		vehicle.Color,
		vehicle.Year,
	).Scan(&vehicle.ID, &vehicle.CreatedAt, &vehicle.UpdatedAt)
}

func (r *vehicleRepository) Update(ctx context.Context, vehicle *domain.Vehicle) error {
	const query = `
        UPDATE vehicles SET client_id=$1, plate=$2, brand=$3, model=$4, color=$5, year=$6, updated_at=NOW()
        WHERE id=$7`
	cmd, err := r.pool.Exec(ctx, query,
		vehicle.ClientID,
		vehicle.Plate,
		vehicle.Brand,
		vehicle.Model,
		vehicle.Color,
		vehicle.Year,
		vehicle.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *vehicleRepository) GetByID(ctx context.Context, id string) (*domain.Vehicle, error) {
	return scanVehicle(r.pool.QueryRow(ctx, `SELECT `+vehicleColumns+` FROM vehicles WHERE id=$1`, id))
}

func (r *vehicleRepository) List(ctx context.Context, filter VehicleFilter) ([]domain.Vehicle, error) {
	query := `SELECT ` + vehicleColumns + ` FROM vehicles`
	args := []any{}
	clauses := []string{}

	if filter.ClientID != nil {
		args = append(args, *filter.ClientID)
		clauses = append(clauses, fmt.Sprintf("client_id=$%d", len(args)))
	}
	if clause := searchClause(filter.Search, &args, "plate", "brand", "model"); clause != "" {
		clauses = append(clauses, clause)
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY plate ASC" + pageClause(filter.Limit, filter.Offset, 100)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Vehicle
	for rows.Next() {
		vehicle, err := scanVehicle(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *vehicle)
	}
	return result, rows.Err()
}

func (r *vehicleRepository) Count(ctx context.Context) (int64, error) {
	return countRows(ctx, r.pool, `SELECT COUNT(*) FROM vehicles`)
}

func (r *vehicleRepository) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, r.pool, "vehicles", id)
}

func scanVehicle(row pgx.Row) (*domain.Vehicle, error) {
	var vehicle domain.Vehicle
	if err := row.Scan(
		&vehicle.ID,
		&vehicle.ClientID,
		&vehicle.Plate,
		&vehicle.Brand,
		&vehicle.Model,
		&vehicle.Color,
		&vehicle.Year,
		&vehicle.CreatedAt,
		&vehicle.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &vehicle, nil
}
