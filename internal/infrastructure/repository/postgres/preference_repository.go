package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/zxcasde/RecipeGraphRAG/internal/core/domain"
)

// PreferenceRepository persists the per-user preference document as a
// single JSONB row. Merges run inside a row-locked transaction so
// concurrent writers for one user serialize and the union stays
// monotonic. A corrupt stored document is treated as empty and
// overwritten by the next merge.
type PreferenceRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewPreferenceRepository(db *sql.DB, logger *slog.Logger) *PreferenceRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &PreferenceRepository{db: db, logger: logger}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *PreferenceRepository) EnsureSchema(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS user_preferences (
    user_id TEXT PRIMARY KEY,
    doc JSONB NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL
)
`)
	if err != nil {
		return fmt.Errorf("ensure user_preferences schema: %w", err)
	}
	return nil
}

func (r *PreferenceRepository) GetPreferences(ctx context.Context, userID string) (domain.PreferenceDocument, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT doc FROM user_preferences WHERE user_id = $1
`, userID)

	var raw []byte
	if err := row.Scan(&raw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.PreferenceDocument{}, domain.WrapError(domain.ErrNotFound, "get preferences", fmt.Errorf("user %q", userID))
		}
		return domain.PreferenceDocument{}, fmt.Errorf("get preferences: %w", err)
	}

	var doc domain.PreferenceDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		r.logger.Warn("corrupt preference document, treating as empty", "user_id", userID, "error", err)
		return domain.PreferenceDocument{}, nil
	}
	return doc, nil
}

func (r *PreferenceRepository) MergePreferences(ctx context.Context, userID string, prefs domain.PreferenceDocument) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("merge preferences begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	row := tx.QueryRowContext(ctx, `
SELECT doc FROM user_preferences WHERE user_id = $1 FOR UPDATE
`, userID)

	var current domain.PreferenceDocument
	var raw []byte
	switch err := row.Scan(&raw); {
	case errors.Is(err, sql.ErrNoRows):
		// First document for this user.
	case err != nil:
		return fmt.Errorf("merge preferences select: %w", err)
	default:
		if err := json.Unmarshal(raw, &current); err != nil {
			// The upsert below replaces the corrupt row.
			r.logger.Warn("corrupt preference document, overwriting", "user_id", userID, "error", err)
			current = domain.PreferenceDocument{}
		}
	}

	current.Merge(prefs)
	// Stored documents always carry arrays, never nulls.
	if current.Flavors == nil {
		current.Flavors = []string{}
	}
	if current.Tags == nil {
		current.Tags = []string{}
	}
	if current.Ingredients == nil {
		current.Ingredients = []string{}
	}
	encoded, err := json.Marshal(current)
	if err != nil {
		return fmt.Errorf("encode preference document: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
INSERT INTO user_preferences (user_id, doc, updated_at)
VALUES ($1, $2, $3)
ON CONFLICT (user_id) DO UPDATE SET doc = EXCLUDED.doc, updated_at = EXCLUDED.updated_at
`, userID, encoded, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("merge preferences upsert: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("merge preferences commit: %w", err)
	}
	return nil
}
