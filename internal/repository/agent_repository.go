package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/dispatch-service/internal/domain"
)

// AgentRepository handles persistence for field agents.
type AgentRepository interface {
	Create(ctx context.Context, agent *domain.Agent) error
	Update(ctx context.Context, agent *domain.Agent) error
	GetByID(ctx context.Context, id string) (*domain.Agent, error)
	List(ctx context.Context, filter AgentFilter) ([]domain.Agent, error)
	Count(ctx context.Context) (int64, error)
	Delete(ctx context.Context, id string) error
}

// AgentFilter defines query params for agent listing.
type AgentFilter struct {
	Search string
	Tier   *domain.AgentTier
	Armed  *bool
	Active *bool
	Limit  int
	Offset int
}

type agentRepository struct {
	pool *pgxpool.Pool
}

// NewAgentRepository instantiates the repository.
func NewAgentRepository(pool *pgxpool.Pool) AgentRepository {
	return &agentRepository{pool: pool}
}

const agentColumns = `id, name, phone, email, document, armed, tier, active,
        pix_key, bank_name, bank_agency, bank_account, bank_account_type,
        address, city, state, latitude, longitude, created_at, updated_at`

func (r *agentRepository) Create(ctx context.Context, agent *domain.Agent) error {
	const query = `
        INSERT INTO agents (name, phone, email, document, armed, tier, active,
            pix_key, bank_name, bank_agency, bank_account, bank_account_type,
            address, city, state, latitude, longitude)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query, agentArgs(agent)...).Scan(&agent.ID, &agent.CreatedAt, &agent.UpdatedAt)
}

func (r *agentRepository) Update(ctx context.Context, agent *domain.Agent) error {
	const query = `
        UPDATE agents SET name=$1, phone=$2, email=$3, document=$4, armed=$5, tier=$6, active=$7,
            pix_key=$8, bank_name=$9, bank_agency=$10, bank_account=$11, bank_account_type=$12,
            address=$13, city=$14, state=$15, latitude=$16, longitude=$17, updated_at=NOW()
        WHERE id=$18`
	cmd, err := r.pool.Exec(ctx, query, append(agentArgs(agent), agent.ID)...)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func agentArgs(agent *domain.Agent) []any {
	return []any{
		agent.Name,
		agent.Phone,
		agent.Email,
		agent.Document,
		agent.Armed,
		agent.Tier,
		agent.Active,
		agent.Payout.PixKey,
		agent.Payout.BankName,
		agent.Payout.BankAgency,
		agent.Payout.BankAccount,
		agent.Payout.AccountType,
		agent.Address,
		agent.City,
		agent.State,
		agent.Latitude,
		agent.Longitude,
	}
}

func (r *agentRepository) GetByID(ctx context.Context, id string) (*domain.Agent, error) {
	return scanAgent(r.pool.QueryRow(ctx, `SELECT `+agentColumns+` FROM agents WHERE id=$1`, id))
}

func (r *agentRepository) List(ctx context.Context, filter AgentFilter) ([]domain.Agent, error) {
	query := `SELECT ` + agentColumns + ` FROM agents`
	args := []any{}
	clauses := []string{}

	if clause := searchClause(filter.Search, &args, "name", "phone", "document"); clause != "" {
		clauses = append(clauses, clause)
	}
	if filter.Tier != nil {
		args = append(args, *filter.Tier)
		clauses = append(clauses, fmt.Sprintf("tier=$%d", len(args)))
	}
	if filter.Armed != nil {
		args = append(args, *filter.Armed)
		clauses = append(clauses, fmt.Sprintf("armed=$%d", len(args)))
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

	var result []domain.Agent
	for rows.Next() {
		agent, err := scanAgent(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *agent)
	}
	return result, rows.Err()
}

func (r *agentRepository) Count(ctx context.Context) (int64, error) {
	return countRows(ctx, r.pool, `SELECT COUNT(*) FROM agents WHERE active`)
}

func (r *agentRepository) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, r.pool, "agents", id)
}

func scanAgent(row pgx.Row) (*domain.Agent, error) {
	var agent domain.Agent
	if err := row.Scan(
		&agent.ID,
		&agent.Name,
		&agent.Phone,
		&agent.Email,
		&agent.Document,
		&agent.Armed,
		&agent.Tier,
		&agent.Active,
		&agent.Payout.PixKey,
		&agent.Payout.BankName,
		&agent.Payout.BankAgency,
		&agent.Payout.BankAccount,
		&agent.Payout.AccountType,
		&agent.Address,
		&agent.City,
		&agent.State,
		&agent.Latitude,
		&agent.Longitude,
		&agent.CreatedAt,
		&agent.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &agent, nil
}
