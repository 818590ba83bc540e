package workflow

import (
	"context"
	"fmt"

	"github.com/mark3labs/flyt"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/pdiddy/report-engine/internal/metrics"
	"github.com/pdiddy/report-engine/pkg/types"
)

const keySection = "section"

// Section workflow actions.
const (
	actionResearch flyt.Action = "search"
	actionFinish   flyt.Action = "done"
)

func sectionState(shared *flyt.SharedStore) (*types.SectionState, error) {
	v, ok := shared.Get(keySection)
	if !ok {
		return nil, fmt.Errorf("shared store has no %s", keySection)
	}
	st, ok := v.(*types.SectionState)
	if !ok {
		return nil, fmt.Errorf("shared %s has type %T", keySection, v)
	}
	return st, nil
}

// sectionFlow wires QUERY -> SEARCH -> DRAFT -> GRADE and loops from GRADE
// back to SEARCH until the grade passes or maxDepth search rounds have run.
// GRADE's "done" action has no transition, which ends the flow.
func (r *run) sectionFlow() *flyt.Flow {
	query := flyt.NewNode(
		flyt.WithPrepFunc(func(_ context.Context, shared *flyt.SharedStore) (any, error) {
			return sectionState(shared)
		}),
		flyt.WithExecFunc(func(ctx context.Context, prep any) (any, error) {
			st := prep.(*types.SectionState)
			return r.gen.SectionQueries(ctx, st.Section)
		}),
		flyt.WithPostFunc(func(_ context.Context, _ *flyt.SharedStore, prep, exec any) (flyt.Action, error) {
			prep.(*types.SectionState).SearchQueries = exec.([]string)
			return flyt.DefaultAction, nil
		}),
	)

	searchNode := flyt.NewNode(
		flyt.WithPrepFunc(func(_ context.Context, shared *flyt.SharedStore) (any, error) {
			return sectionState(shared)
		}),
		flyt.WithExecFunc(func(ctx context.Context, prep any) (any, error) {
			st := prep.(*types.SectionState)
			return r.gen.Sources(ctx, st.SearchQueries)
		}),
		flyt.WithPostFunc(func(_ context.Context, _ *flyt.SharedStore, prep, exec any) (flyt.Action, error) {
			st := prep.(*types.SectionState)
			st.SourceStr = exec.(string)
			st.SearchIterations++
			return flyt.DefaultAction, nil
		}),
	)

	draft := flyt.NewNode(
		flyt.WithPrepFunc(func(_ context.Context, shared *flyt.SharedStore) (any, error) {
			return sectionState(shared)
		}),
		flyt.WithExecFunc(func(ctx context.Context, prep any) (any, error) {
			st := prep.(*types.SectionState)
			return r.gen.DraftSection(ctx, st.Section, st.SourceStr)
		}),
		flyt.WithPostFunc(func(_ context.Context, _ *flyt.SharedStore, prep, exec any) (flyt.Action, error) {
			prep.(*types.SectionState).Section.Content = exec.(string)
			return flyt.DefaultAction, nil
		}),
	)

	grade := flyt.NewNode(
		flyt.WithPrepFunc(func(_ context.Context, shared *flyt.SharedStore) (any, error) {
			return sectionState(shared)
		}),
		flyt.WithExecFunc(func(ctx context.Context, prep any) (any, error) {
			st := prep.(*types.SectionState)
			return r.gen.GradeSection(ctx, st.Section)
		}),
		flyt.WithPostFunc(func(_ context.Context, _ *flyt.SharedStore, prep, exec any) (flyt.Action, error) {
			st := prep.(*types.SectionState)
			fb := exec.(types.Feedback)
			r.logger.Debug("section graded",
				zap.String("section", st.Section.Name),
				zap.String("grade", string(fb.Grade)),
				zap.Int("iteration", st.SearchIterations))

			if fb.Grade == types.GradePass || st.SearchIterations >= r.cfg.MaxSearchDepth {
				return actionFinish, nil
			}
			if follow := (types.Queries{Queries: fb.FollowUpQueries}).Strings(r.cfg.NumberOfQueries); len(follow) > 0 {
				st.SearchQueries = follow
			}
			return actionResearch, nil
		}),
	)

	flow := flyt.NewFlow(query)
	flow.Connect(query, flyt.DefaultAction, searchNode)
	flow.Connect(searchNode, flyt.DefaultAction, draft)
	flow.Connect(draft, flyt.DefaultAction, grade)
	flow.Connect(grade, actionResearch, searchNode)
	return flow
}

// researchSection runs one section workflow to completion and returns its
// final state. Each call builds its own flow and store.
func (r *run) researchSection(ctx context.Context, sec types.Section) (*types.SectionState, error) {
	ctx, span := r.tracer.Start(ctx, "section")
	defer span.End()
	span.SetAttributes(attribute.String("section", sec.Name))

	st := &types.SectionState{Section: sec}
	shared := flyt.NewSharedStore()
	shared.Set(keySection, st)

	if err := r.sectionFlow().Run(ctx, shared); err != nil {
		recordError(span, err)
		return nil, fmt.Errorf("section %q: %w", sec.Name, err)
	}
	span.SetAttributes(attribute.Int("search_iterations", st.SearchIterations))
	metrics.SectionSearchIterations.Observe(float64(st.SearchIterations))
	r.logger.Info("section completed",
		zap.String("section", sec.Name),
		zap.Int("iteration", st.SearchIterations))
	return st, nil
}

// draftFinalSection writes a section that needs no research in one pass.
func (r *run) draftFinalSection(ctx context.Context, sec types.Section, gathered string) (types.Section, error) {
	ctx, span := r.tracer.Start(ctx, "final_section")
	defer span.End()
	span.SetAttributes(attribute.String("section", sec.Name))

	st := types.SectionState{Section: sec, ReportSectionsFromResearch: gathered}
	content, err := r.gen.DraftFinalSection(ctx, st.Section, st.ReportSectionsFromResearch)
	if err != nil {
		recordError(span, err)
		return types.Section{}, fmt.Errorf("section %q: %w", sec.Name, err)
	}
	st.Section.Content = content
	return st.Section, nil
}
