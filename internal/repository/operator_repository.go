package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/dispatch-service/internal/domain"
)

// OperatorRepository handles persistence for dispatch operators.
type OperatorRepository interface {
	Create(ctx context.Context, operator *domain.Operator) error
	Update(ctx context.Context, operator *domain.Operator) error
	GetByID(ctx context.Context, id string) (*domain.Operator, error)
	GetByEmail(ctx context.Context, email string) (*domain.Operator, error)
	List(ctx context.Context, filter OperatorFilter) ([]domain.Operator, error)
	Delete(ctx context.Context, id string) error
}

// OperatorFilter defines query params for operator listing.
type OperatorFilter struct {
	Role   *domain.OperatorRole
	Active *bool
	Limit  int
	Offset int
}

type operatorRepository struct {
	pool *pgxpool.Pool
}

// NewOperatorRepository instantiates the repository.
func NewOperatorRepository(pool *pgxpool.Pool) OperatorRepository {
	return &operatorRepository{pool: pool}
}

const operatorColumns = `id, name, email, password_hash, role, active, created_at, updated_at`

func (r *operatorRepository) Create(ctx context.Context, operator *domain.Operator) error {
	const query = `
        INSERT INTO operators (name, email, password_hash, role, active)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at, updated_at`

	return r.pool.QueryRow(ctx, query,
		operator.Name,
		operator.Email,
		operator.PasswordHash,
		operator.Role,
		operator.Active,
	).Scan(&operator.ID, &operator.CreatedAt, &operator.UpdatedAt)
}

func (r *operatorRepository) Update(ctx context.Context, operator *domain.Operator) error {
	const query = `
        UPDATE operators
        SET name=$1, email=$2, password_hash=$3, role=$4, active=$5, updated_at=NOW()
        WHERE id=$6`

	cmd, err := r.pool.Exec(ctx, query,
		operator.Name,
		operator.Email,
		operator.PasswordHash,
		operator.Role,
		operator.Active,
		operator.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *operatorRepository) GetByID(ctx context.Context, id string) (*domain.Operator, error) {
	return scanOperator(r.pool.QueryRow(ctx, `SELECT `+operatorColumns+` FROM operators WHERE id=$1`, id))
}

func (r *operatorRepository) GetByEmail(ctx context.Context, email string) (*domain.Operator, error) {
	return scanOperator(r.pool.QueryRow(ctx, `SELECT `+operatorColumns+` FROM operators WHERE LOWER(email)=LOWER($1)`, email))
}

func (r *operatorRepository) List(ctx context.Context, filter OperatorFilter) ([]domain.Operator, error) {
	query := `SELECT ` + operatorColumns + ` FROM operators`
	args := []any{}
	clauses := []string{}

	if filter.Role != nil {
		args = append(args, *filter.Role)
		clauses = append(clauses, fmt.Sprintf("role=$%d", len(args)))
	}
	if filter.Active != nil {
		args = append(args, *filter.Active)
		clauses = append(clauses, fmt.Sprintf("active=$%d", len(args)))
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY name ASC" + pageClause(filter.Limit, filter.Offset, 50)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Operator
	for rows.Next() {
		operator, err := scanOperator(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *operator)
	}
	return result, rows.Err()
}

func (r *operatorRepository) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, r.pool, "operators", id)
}

func scanOperator(row pgx.Row) (*domain.Operator, error) {
	var operator domain.Operator
	if err := row.Scan(
		&operator.ID,
		&operator.Name,
		&operator.Email,
		&operator.PasswordHash,
		&operator.Role,
		&operator.Active,
		&operator.CreatedAt,
		&operator.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &operator, nil
}
