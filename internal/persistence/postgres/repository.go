package postgres

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/planreasoning/internal/domain"
	"example.com/planreasoning/internal/engine"
)

// Repository provides Postgres-backed persistence for assessments.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const selectColumns = `assessment_id, tenant_id, user_id, profile_hash, rule_version, risk_level, output, created_at`

// FindByProfileHash checks whether an assessment already exists for the same
// profile content and rule-table version.
func (r *Repository) FindByProfileHash(ctx context.Context, tenantID, userID, profileHash, ruleVersion string) (*domain.AssessmentRecord, error) {
	const query = `SELECT ` + selectColumns + `
        FROM assessments WHERE tenant_id=$1 AND user_id=$2 AND profile_hash=$3 AND rule_version=$4`

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	tx, err := conn.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "SELECT set_config('app.tenant_id', $1, true)", tenantID); err != nil {
		return nil, err
	}

	row := tx.QueryRow(ctx, query, tenantID, userID, profileHash, ruleVersion)
	record, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, tx.Commit(ctx)
		}
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return record, nil
}

// Create persists the assessment record.
func (r *Repository) Create(ctx context.Context, record domain.AssessmentRecord) error {
	output, err := json.Marshal(record.Output)
	if err != nil {
		return err
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback(ctx)
		}
	}()

	if _, err = tx.Exec(ctx, "SELECT set_config('app.tenant_id', $1, true)", record.TenantID); err != nil {
		return err
	}

	const stmt = `INSERT INTO assessments (assessment_id, tenant_id, user_id, profile_hash, rule_version, risk_level, output, created_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`

	_, err = tx.Exec(ctx, stmt,
		record.ID,
		record.TenantID,
		record.UserID,
		record.ProfileHash,
		record.RuleVersion,
		record.RiskLevel,
		output,
		record.CreatedAt,
	)
	if err != nil {
		return err
	}

	err = tx.Commit(ctx)
	return err
}

// Get retrieves an assessment by ID.
func (r *Repository) Get(ctx context.Context, tenantID, assessmentID string) (*domain.AssessmentRecord, error) {
	const query = `SELECT ` + selectColumns + `
        FROM assessments WHERE tenant_id=$1 AND assessment_id=$2`

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	tx, err := conn.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "SELECT set_config('app.tenant_id', $1, true)", tenantID); err != nil {
		return nil, err
	}

	record, err := scanRecord(tx.QueryRow(ctx, query, tenantID, assessmentID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			if err := tx.Commit(ctx); err != nil {
				return nil, err
			}
			return nil, nil
		}
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return record, nil
}

// ListByUser returns assessments for a user, newest first.
func (r *Repository) ListByUser(ctx context.Context, tenantID, userID string, cursor *domain.Cursor, limit int) ([]domain.AssessmentRecord, *domain.Cursor, error) {
	args := []interface{}{tenantID, userID, limit}
	query := `SELECT ` + selectColumns + `
        FROM assessments WHERE tenant_id=$1 AND user_id=$2`

	if cursor != nil {
		query += ` AND (created_at, assessment_id) < ($4, $5)`
		args = append(args, cursor.CreatedAt, cursor.ID)
	}

	query += ` ORDER BY created_at DESC, assessment_id DESC LIMIT $3`

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, nil, err
	}
	defer conn.Release()

	tx, err := conn.Begin(ctx)
	if err != nil {
		return nil, nil, err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "SELECT set_config('app.tenant_id', $1, true)", tenantID); err != nil {
		return nil, nil, err
	}

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	results := make([]domain.AssessmentRecord, 0, limit)
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, nil, err
		}
		results = append(results, *record)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, err
	}

	var nextCursor *domain.Cursor
	if len(results) == limit {
		last := results[len(results)-1]
		nextCursor = &domain.Cursor{CreatedAt: last.CreatedAt, ID: last.ID}
	}

	return results, nextCursor, nil
}

func scanRecord(row pgx.Row) (*domain.AssessmentRecord, error) {
	var record domain.AssessmentRecord
	var output []byte
	if err := row.Scan(
		&record.ID,
		&record.TenantID,
		&record.UserID,
		&record.ProfileHash,
		&record.RuleVersion,
		&record.RiskLevel,
		&output,
		&record.CreatedAt,
	); err != nil {
		return nil, err
	}
	var assessment engine.Assessment
	if err := json.Unmarshal(output, &assessment); err != nil {
		return nil, err
	}
	record.Output = assessment
	return &record, nil
}
