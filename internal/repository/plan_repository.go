package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/dispatch-service/internal/domain"
)

// PlanRepository handles persistence for service plans.
type PlanRepository interface {
	Create(ctx context.Context, plan *domain.Plan) error
	Update(ctx context.Context, plan *domain.Plan) error
	GetByID(ctx context.Context, id string) (*domain.Plan, error)
	List(ctx context.Context, activeOnly bool) ([]domain.Plan, error)
	Delete(ctx context.Context, id string) error
}

type planRepository struct {
	pool *pgxpool.Pool
}

// NewPlanRepository instantiates the repository.
func NewPlanRepository(pool *pgxpool.Pool) PlanRepository {
	return &planRepository{pool: pool}
}

const planColumns = `id, name, description, monthly_price, active, created_at, updated_at`

func (r *planRepository) Create(ctx context.Context, plan *domain.Plan) error {
	const query = `
        INSERT INTO plans (name, description, monthly_price, active)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		plan.Name,
		plan.Description,
		plan.MonthlyPrice,
		plan.Active,
	).Scan(&plan.ID, &plan.CreatedAt, &plan.UpdatedAt)
}

func (r *planRepository) Update(ctx context.Context, plan *domain.Plan) error {
	const query = `
        UPDATE plans SET name=$1, description=$2, monthly_price=$3, active=$4, updated_at=NOW()
        WHERE id=$5`
	cmd, err := r.pool.Exec(ctx, query,
		plan.Name,
		plan.Description,
		plan.MonthlyPrice,
		plan.Active,
		plan.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *planRepository) GetByID(ctx context.Context, id string) (*domain.Plan, error) {
	return scanPlan(r.pool.QueryRow(ctx, `SELECT `+planColumns+` FROM plans WHERE id=$1`, id))
}

func (r *planRepository) List(ctx context.Context, activeOnly bool) ([]domain.Plan, error) {
	query := `SELECT ` + planColumns + ` FROM plans`
	if activeOnly {
		query += ` WHERE active`
	}
	query += ` ORDER BY monthly_price ASC, name ASC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Plan
	for rows.Next() {
		plan, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *plan)
	}
	return result, rows.Err()
}

func (r *planRepository) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, r.pool, "plans", id)
}

func scanPlan(row pgx.Row) (*domain.Plan, error) {
	var plan domain.Plan
	if err := row.Scan(
		&plan.ID,
		&plan.Name,
		&plan.Description,
		&plan.MonthlyPrice,
		&plan.Active,
		&plan.CreatedAt,
		&plan.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &plan, nil
}
