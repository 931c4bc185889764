package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/spec-kit/planmeet/internal/domain"
)

const checklistColumns = `id, assigned_team, title, description, status, created_at, updated_at, submitted, submitted_at`

// PgxQuerier is the part of *pgxpool.Pool the checklist store uses.
type PgxQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
}

type postgresChecklistRepository struct {
	pool PgxQuerier
}

// NewPostgresChecklistRepository returns a Postgres-backed implementation.
func NewPostgresChecklistRepository(pool PgxQuerier) ChecklistRepository {
	return &postgresChecklistRepository{pool: pool}
}

func (r *postgresChecklistRepository) Create(ctx context.Context, item *domain.ChecklistItem) error {
	const query = `
        INSERT INTO checklists (id, assigned_team, title, description, status, created_at, updated_at, submitted, submitted_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
        ON CONFLICT (id, assigned_team) DO UPDATE SET
            title=EXCLUDED.title, description=EXCLUDED.description, status=EXCLUDED.status,
            created_at=EXCLUDED.created_at, updated_at=EXCLUDED.updated_at,
            submitted=EXCLUDED.submitted, submitted_at=EXCLUDED.submitted_at`
	_, err := r.pool.Exec(ctx, query,
		item.ID,
		item.AssignedTeam,
		item.Title,
		item.Description,
		item.Status,
		item.CreatedAt,
		item.UpdatedAt,
		item.Submitted,
		item.SubmittedAt,
	)
	return err
}

func (r *postgresChecklistRepository) Get(ctx context.Context, id, team string) (*domain.ChecklistItem, error) {
	query := `SELECT ` + checklistColumns + ` FROM checklists WHERE id=$1 AND assigned_team=$2`
	return r.fetchSingle(ctx, query, id, team)
}

func (r *postgresChecklistRepository) List(ctx context.Context, filter ChecklistFilter) ([]domain.ChecklistItem, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.Team != nil {
		args = append(args, *filter.Team)
		clauses = append(clauses, fmt.Sprintf("assigned_team=$%d", len(args)))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		clauses = append(clauses, fmt.Sprintf("status=$%d", len(args)))
	}
	if filter.Submitted != nil {
		args = append(args, *filter.Submitted)
		clauses = append(clauses, fmt.Sprintf("submitted=$%d", len(args)))
	}

	query := fmt.Sprintf(`SELECT %s FROM checklists WHERE %s ORDER BY created_at ASC, id ASC`,
		checklistColumns, strings.Join(clauses, " AND "))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanChecklists(rows)
}

func (r *postgresChecklistRepository) UpdateStatus(ctx context.Context, id, team string, status domain.ChecklistStatus, at time.Time) (*domain.ChecklistItem, error) {
	query := `UPDATE checklists SET status=$3, updated_at=$4 WHERE id=$1 AND assigned_team=$2 RETURNING ` + checklistColumns
	return r.fetchSingle(ctx, query, id, team, status, at)
}

func (r *postgresChecklistRepository) UpdateContent(ctx context.Context, id, team, title, description string, at time.Time) (*domain.ChecklistItem, error) {
	query := `UPDATE checklists SET title=$3, description=$4, updated_at=$5 WHERE id=$1 AND assigned_team=$2 RETURNING ` + checklistColumns
	return r.fetchSingle(ctx, query, id, team, title, description, at)
}

func (r *postgresChecklistRepository) Delete(ctx context.Context, id, team string) error {
	const query = `DELETE FROM checklists WHERE id=$1 AND assigned_team=$2`
	_, err := r.pool.Exec(ctx, query, id, team)
	return err
}

func (r *postgresChecklistRepository) MarkSubmitted(ctx context.Context, id, team string, at time.Time) (*domain.ChecklistItem, error) {
	query := `UPDATE checklists SET submitted=TRUE, submitted_at=$3
        WHERE id=$1 AND assigned_team=$2 AND submitted=FALSE RETURNING ` + checklistColumns
	item, err := r.fetchSingle(ctx, query, id, team, at)
	if !errors.Is(err, ErrNotFound) {
		return item, err
	}

	const exists = `SELECT EXISTS (SELECT 1 FROM checklists WHERE id=$1 AND assigned_team=$2)`
	var found bool
	if err := r.pool.QueryRow(ctx, exists, id, team).Scan(&found); err != nil {
		return nil, err
	}
	if found {
		return nil, ErrAlreadySubmitted
	}
	return nil, ErrNotFound
}

func (r *postgresChecklistRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func (r *postgresChecklistRepository) fetchSingle(ctx context.Context, query string, args ...any) (*domain.ChecklistItem, error) {
	var item domain.ChecklistItem
	if err := scanChecklist(r.pool.QueryRow(ctx, query, args...), &item); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &item, nil
}

func scanChecklist(row pgx.Row, item *domain.ChecklistItem) error {
	return row.Scan(
		&item.ID,
		&item.AssignedTeam,
		&item.Title,
		&item.Description,
		&item.Status,
		&item.CreatedAt,
		&item.UpdatedAt,
		&item.Submitted,
		&item.SubmittedAt,
	)
}

func scanChecklists(rows pgx.Rows) ([]domain.ChecklistItem, error) {
	result := []domain.ChecklistItem{}
	for rows.Next() {
		var item domain.ChecklistItem
		if err := scanChecklist(rows, &item); err != nil {
			return nil, err
		}
		result = append(result, item)
	}
	return result, rows.Err()
}
