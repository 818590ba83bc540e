// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package checkpoint

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/pdiddy/report-engine/pkg/types"
)

// SQLStore keeps checkpoints in a workflows table on SQLite or PostgreSQL.
type SQLStore struct {
	db     *sqlx.DB
	logger *zap.Logger
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS workflows (
		id TEXT PRIMARY KEY,
		topic TEXT NOT NULL,
		report_type TEXT NOT NULL,
		phase TEXT NOT NULL,
		state TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_workflows_updated_at ON workflows(updated_at)`,
}

// OpenSQL connects to the database and creates the schema if needed. For
// sqlite, dsn is a file path; its directory is created.
func OpenSQL(ctx context.Context, driver types.CheckpointDriver, dsn string, logger *zap.Logger) (*SQLStore, error) {
	var driverName string
	switch driver {
	case types.CheckpointSQLite:
		driverName = "sqlite3"
		if dir := filepath.Dir(dsn); dir != "." && !strings.HasPrefix(dsn, "file:") {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("creating checkpoint directory: %w", err)
			}
		}
		if !strings.Contains(dsn, "?") {
			dsn += "?_journal_mode=WAL&_busy_timeout=5000"
		}
	case types.CheckpointPostgres:
		driverName = "postgres"
	default:
		return nil, fmt.Errorf("%w: %q is not a SQL checkpoint driver", types.ErrConfiguration, driver)
	}

	db, err := sqlx.ConnectContext(ctx, driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening checkpoint database: %w", err)
	}
	s, err := NewSQLStore(ctx, db, logger)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// NewSQLStore wraps an open connection and creates the schema.
func NewSQLStore(ctx context.Context, db *sqlx.DB, logger *zap.Logger) (*SQLStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return nil, fmt.Errorf("creating checkpoint schema: %w", err)
		}
	}
	return &SQLStore{db: db, logger: logger}, nil
}

// Save upserts the state under its workflow ID.
func (s *SQLStore) Save(ctx context.Context, st *types.ReportState) error {
	data, err := encode(st)
	if err != nil {
		return err
	}
	created := st.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}
	updated := st.UpdatedAt
	if updated.IsZero() {
		updated = created
	}

	query := s.db.Rebind(`INSERT INTO workflows (id, topic, report_type, phase, state, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			topic=excluded.topic, report_type=excluded.report_type, phase=excluded.phase,
			state=excluded.state, updated_at=excluded.updated_at`)
	if _, err := s.db.ExecContext(ctx, query,
		st.WorkflowID, st.Topic, string(st.ReportType), string(st.Phase), string(data), created, updated,
	); err != nil {
		return fmt.Errorf("saving checkpoint %s: %w", st.WorkflowID, err)
	}
	s.logger.Debug("checkpoint saved", zap.String("workflow_id", st.WorkflowID), zap.String("phase", string(st.Phase)))
	return nil
}

// Load reads the state for id.
func (s *SQLStore) Load(ctx context.Context, id string) (*types.ReportState, error) {
	var data string
	err := s.db.GetContext(ctx, &data, s.db.Rebind(`SELECT state FROM workflows WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, fmt.Errorf("loading checkpoint %s: %w", id, err)
	}
	return decode(id, []byte(data))
}

// Delete removes the checkpoint for id.
func (s *SQLStore) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, s.db.Rebind(`DELETE FROM workflows WHERE id = ?`), id); err != nil {
		return fmt.Errorf("deleting checkpoint %s: %w", id, err)
	}
	return nil
}

// List returns stored workflows, most recently updated first.
func (s *SQLStore) List(ctx context.Context) ([]Summary, error) {
	var out []Summary
	err := s.db.SelectContext(ctx, &out,
		`SELECT id, topic, report_type, phase, updated_at FROM workflows ORDER BY updated_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("listing checkpoints: %w", err)
	}
	return out, nil
}

// Close releases the database connection.
func (s *SQLStore) Close() error {
	return s.db.Close()
}
