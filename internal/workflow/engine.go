// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package workflow runs report workflows. An Engine plans a report, suspends
// for reviewer feedback, and on approval researches sections in parallel,
// drafts the remaining sections from the gathered research, and compiles the
// report in planning order.
//
// State is committed to the checkpoint store only when the workflow suspends
// and when it completes. A failed run leaves the last committed checkpoint
// untouched, so the same Start or Resume call can be retried.
package workflow

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/flyt"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/pdiddy/report-engine/internal/checkpoint"
	"github.com/pdiddy/report-engine/internal/metrics"
	"github.com/pdiddy/report-engine/internal/report"
	"github.com/pdiddy/report-engine/pkg/types"
)

const tracerName = "github.com/pdiddy/report-engine/internal/workflow"

// Deps are the engine's collaborators.
type Deps struct {
	// Planner produces the section plan.
	Planner report.Model

	// Writer writes queries, drafts, and grades.
	Writer report.Model

	Search report.Researcher
	Store  checkpoint.Store
	Logger *zap.Logger
}

// Engine starts and resumes report workflows.
type Engine struct {
	cfg    types.WorkflowConfig
	deps   Deps
	logger *zap.Logger
	tracer trace.Tracer

	mu     sync.Mutex
	active map[string]struct{}
}

// New validates cfg and returns an engine. Invalid settings and missing
// collaborators fail with types.ErrConfiguration.
func New(cfg types.Config, deps Deps) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch {
	case deps.Planner == nil:
		return nil, fmt.Errorf("%w: planner model is required", types.ErrConfiguration)
	case deps.Writer == nil:
		return nil, fmt.Errorf("%w: writer model is required", types.ErrConfiguration)
	case deps.Search == nil:
		return nil, fmt.Errorf("%w: search client is required", types.ErrConfiguration)
	case deps.Store == nil:
		return nil, fmt.Errorf("%w: checkpoint store is required", types.ErrConfiguration)
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		cfg:    cfg.Workflow,
		deps:   deps,
		logger: logger,
		tracer: otel.Tracer(tracerName),
		active: map[string]struct{}{},
	}, nil
}

// Start plans a new report on topic and suspends for feedback. An empty
// reportType selects the configured default.
func (e *Engine) Start(ctx context.Context, topic, reportType string) (Snapshot, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return Snapshot{}, fmt.Errorf("%w: topic is required", types.ErrInvalidInput)
	}
	rt := e.cfg.DefaultReportType
	if strings.TrimSpace(reportType) != "" {
		var err error
		if rt, err = types.ParseReportType(reportType); err != nil {
			return Snapshot{}, err
		}
	}

	st := types.NewReportState(uuid.NewString(), topic, rt)
	ctx, span := e.tracer.Start(ctx, "workflow.start", trace.WithAttributes(
		attribute.String("workflow_id", st.WorkflowID),
		attribute.String("report_type", string(rt)),
	))
	defer span.End()

	metrics.WorkflowEvents.WithLabelValues(metrics.EventStarted).Inc()
	e.logger.Info("workflow started",
		zap.String("workflow_id", st.WorkflowID),
		zap.String("report_type", string(rt)),
		zap.String("topic", topic))

	if err := e.execute(ctx, st, types.PhasePlan); err != nil {
		recordError(span, err)
		return Snapshot{}, err
	}
	return NewSnapshot(st), nil
}

// Resume answers a suspended workflow. Approve researches and compiles the
// report; Revise re-plans with the revision text and suspends again.
func (e *Engine) Resume(ctx context.Context, id string, value ResumeValue) (Snapshot, error) {
	if value == nil {
		return Snapshot{}, fmt.Errorf("%w: no feedback given", types.ErrInvalidResumeValue)
	}
	if v, ok := value.(Revise); ok && strings.TrimSpace(v.Text) == "" {
		return Snapshot{}, fmt.Errorf("%w: revision text is empty", types.ErrInvalidResumeValue)
	}
	if !e.acquire(id) {
		return Snapshot{}, fmt.Errorf("%w: %s", types.ErrWorkflowBusy, id)
	}
	defer e.release(id)

	ctx, span := e.tracer.Start(ctx, "workflow.resume", trace.WithAttributes(attribute.String("workflow_id", id)))
	defer span.End()

	st, err := e.deps.Store.Load(ctx, id)
	if err != nil {
		recordError(span, err)
		return Snapshot{}, err
	}
	if st.Phase != types.PhaseAwaitingFeedback {
		err := fmt.Errorf("%w: %s is in phase %s", types.ErrNotSuspended, id, st.Phase)
		recordError(span, err)
		return Snapshot{}, err
	}

	var start types.Phase
	switch v := value.(type) {
	case Approve:
		start = types.PhaseResearchSections
		span.SetAttributes(attribute.String("resume", "approve"))
	case Revise:
		start = types.PhasePlan
		st.FeedbackOnReportPlan = v.Text
		st.Sections = nil
		st.Interrupt = ""
		span.SetAttributes(attribute.String("resume", "revise"))
	default:
		return Snapshot{}, fmt.Errorf("%w: %T", types.ErrInvalidResumeValue, value)
	}

	metrics.WorkflowEvents.WithLabelValues(metrics.EventResumed).Inc()
	e.logger.Info("workflow resumed", zap.String("workflow_id", id), zap.String("phase", string(start)))

	if err := e.execute(ctx, st, start); err != nil {
		recordError(span, err)
		return Snapshot{}, err
	}
	return NewSnapshot(st), nil
}

// Snapshot returns the stored state of a workflow.
func (e *Engine) Snapshot(ctx context.Context, id string) (Snapshot, error) {
	st, err := e.deps.Store.Load(ctx, id)
	if err != nil {
		return Snapshot{}, err
	}
	return NewSnapshot(st), nil
}

// State returns the stored state of a workflow, including fields the
// snapshot omits.
func (e *Engine) State(ctx context.Context, id string) (*types.ReportState, error) {
	return e.deps.Store.Load(ctx, id)
}

// execute runs the report flow from start until it suspends or completes,
// then commits the state.
func (e *Engine) execute(ctx context.Context, st *types.ReportState, start types.Phase) error {
	logger := e.logger.With(zap.String("workflow_id", st.WorkflowID))
	gen, err := report.New(st.ReportType, e.cfg, e.deps.Planner, e.deps.Writer, e.deps.Search, logger)
	if err != nil {
		return err
	}
	r := &run{gen: gen, cfg: e.cfg, tracer: e.tracer, logger: logger}

	flow, err := r.reportFlow(start)
	if err != nil {
		return err
	}
	shared := flyt.NewSharedStore()
	shared.Set(keyReport, st)

	began := time.Now()
	if err := flow.Run(ctx, shared); err != nil {
		metrics.WorkflowEvents.WithLabelValues(metrics.EventFailed).Inc()
		logger.Error("workflow failed",
			zap.String("phase", string(st.Phase)),
			zap.Duration("elapsed", time.Since(began)),
			zap.Error(err))
		return err
	}

	st.UpdatedAt = time.Now().UTC()
	if err := e.deps.Store.Save(ctx, st); err != nil {
		metrics.WorkflowEvents.WithLabelValues(metrics.EventFailed).Inc()
		return fmt.Errorf("saving checkpoint: %w", err)
	}

	event := metrics.EventSuspended
	if st.Phase == types.PhaseDone {
		event = metrics.EventCompleted
	}
	metrics.WorkflowEvents.WithLabelValues(event).Inc()
	logger.Info("workflow "+event,
		zap.String("phase", string(st.Phase)),
		zap.Int("sections", len(st.Sections)),
		zap.Duration("elapsed", time.Since(began)))
	return nil
}

func (e *Engine) acquire(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, busy := e.active[id]; busy {
		return false
	}
	e.active[id] = struct{}{}
	return true
}

func (e *Engine) release(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.active, id)
}
