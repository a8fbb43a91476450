package repositories

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// FactRepository reads the persistent fact table that parameterizes the
// persona at session start.
type FactRepository struct {
	db *sqlx.DB
}

// NewFactRepository creates a new fact repository
func NewFactRepository(db *sqlx.DB) *FactRepository {
	return &FactRepository{db: db}
}

// ListFacts returns every fact as a "key=value" string, ordered by key.
func (r *FactRepository) ListFacts(ctx context.Context) ([]string, error) {
	var rows []struct {
		Key   string `db:"fact_key"`
		Value string `db:"fact_value"`
	}
	query := `SELECT fact_key, fact_value FROM facts ORDER BY fact_key`

	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("failed to list facts: %w", err)
	}

	facts := make([]string, len(rows))
	for i, row := range rows {
		facts[i] = fmt.Sprintf("%s=%s", row.Key, row.Value)
	}
	return facts, nil
}

// UpsertFact inserts or updates a single fact.
func (r *FactRepository) UpsertFact(ctx context.Context, key, value string) error {
	query := `
		INSERT INTO facts (fact_key, fact_value)
		VALUES ($1, $2)
		ON CONFLICT (fact_key) DO UPDATE SET fact_value = EXCLUDED.fact_value`

	if _, err := r.db.ExecContext(ctx, query, key, value); err != nil {
		return fmt.Errorf("failed to upsert fact: %w", err)
	}
	return nil
}
