// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package checkpoint persists report workflow state between a suspend and
// its resume. Stores hold a full ReportState per workflow ID, encoded as
// JSON, so a loaded state never aliases the saved one.
package checkpoint

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/report-engine/pkg/types"
)

// Store saves and loads workflow state keyed by workflow ID. Load fails
// with types.ErrWorkflowNotFound for an unknown ID.
type Store interface {
	Save(ctx context.Context, st *types.ReportState) error
	Load(ctx context.Context, id string) (*types.ReportState, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]Summary, error)
	Close() error
}

// Summary describes a stored workflow without its sections.
type Summary struct {
	ID         string           `json:"workflow_id" yaml:"workflow_id" db:"id"`
	Topic      string           `json:"topic" yaml:"topic" db:"topic"`
	ReportType types.ReportType `json:"report_type" yaml:"report_type" db:"report_type"`
	Phase      types.Phase      `json:"phase" yaml:"phase" db:"phase"`
	UpdatedAt  time.Time        `json:"updated_at" yaml:"updated_at" db:"updated_at"`
}

func summarize(st *types.ReportState) Summary {
	return Summary{
		ID:         st.WorkflowID,
		Topic:      st.Topic,
		ReportType: st.ReportType,
		Phase:      st.Phase,
		UpdatedAt:  st.UpdatedAt,
	}
}

// Open returns the store selected by cfg.Driver.
func Open(ctx context.Context, cfg types.CheckpointConfig, logger *zap.Logger) (Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("driver", string(cfg.Driver)))

	switch cfg.Driver {
	case types.CheckpointSQLite, types.CheckpointPostgres:
		return OpenSQL(ctx, cfg.Driver, cfg.DSN, logger)
	case types.CheckpointRedis:
		return OpenRedis(ctx, cfg, logger)
	default:
		return NewMemoryStore(), nil
	}
}

func encode(st *types.ReportState) ([]byte, error) {
	if st == nil || st.WorkflowID == "" {
		return nil, fmt.Errorf("checkpoint: state has no workflow id")
	}
	data, err := json.Marshal(st)
	if err != nil {
		return nil, fmt.Errorf("encoding state %s: %w", st.WorkflowID, err)
	}
	return data, nil
}

func decode(id string, data []byte) (*types.ReportState, error) {
	var st types.ReportState
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("decoding state %s: %w", id, err)
	}
	if st.CompletedSections == nil {
		st.CompletedSections = map[string]types.Section{}
	}
	return &st, nil
}

func notFound(id string) error {
	return fmt.Errorf("%w: %s", types.ErrWorkflowNotFound, id)
}
