package workflow

import (
	"context"
	"fmt"

	"github.com/mark3labs/flyt"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/pdiddy/report-engine/internal/report"
	"github.com/pdiddy/report-engine/pkg/types"
)

const keyReport = "report"

// Report workflow actions. Neither has a transition, so both end the flow.
const (
	actionSuspend  flyt.Action = "suspend"
	actionComplete flyt.Action = "complete"
)

// run carries what one execution of the report workflow needs.
type run struct {
	gen    *report.Generator
	cfg    types.WorkflowConfig
	tracer trace.Tracer
	logger *zap.Logger
}

func reportState(shared *flyt.SharedStore) (*types.ReportState, error) {
	v, ok := shared.Get(keyReport)
	if !ok {
		return nil, fmt.Errorf("shared store has no %s", keyReport)
	}
	st, ok := v.(*types.ReportState)
	if !ok {
		return nil, fmt.Errorf("shared %s has type %T", keyReport, v)
	}
	return st, nil
}

func recordError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// traced runs exec inside a span named after the node.
func (r *run) traced(name string, exec func(context.Context, any) (any, error)) func(context.Context, any) (any, error) {
	return func(ctx context.Context, prep any) (any, error) {
		ctx, span := r.tracer.Start(ctx, name)
		defer span.End()
		out, err := exec(ctx, prep)
		if err != nil {
			recordError(span, err)
		}
		return out, err
	}
}

// enter returns a prep func that moves the report into phase.
func enter(phase types.Phase) func(context.Context, *flyt.SharedStore) (any, error) {
	return func(_ context.Context, shared *flyt.SharedStore) (any, error) {
		st, err := reportState(shared)
		if err != nil {
			return nil, err
		}
		st.Phase = phase
		return st, nil
	}
}

// reportFlow wires PLAN -> AWAIT_FEEDBACK and RESEARCH_SECTIONS -> GATHER ->
// FINAL_SECTIONS -> COMPILE. AWAIT_FEEDBACK suspends by ending the flow; the
// engine resumes by starting a new flow at PLAN or RESEARCH_SECTIONS.
func (r *run) reportFlow(start types.Phase) (*flyt.Flow, error) {
	plan := flyt.NewNode(
		flyt.WithPrepFunc(enter(types.PhasePlan)),
		flyt.WithExecFunc(r.traced("plan", func(ctx context.Context, prep any) (any, error) {
			st := prep.(*types.ReportState)
			return r.gen.PlanSections(ctx, st.Topic, st.FeedbackOnReportPlan)
		})),
		flyt.WithPostFunc(func(_ context.Context, _ *flyt.SharedStore, prep, exec any) (flyt.Action, error) {
			st := prep.(*types.ReportState)
			st.Sections = exec.([]types.Section)
			st.CompletedSections = map[string]types.Section{}
			st.ReportSectionsFromResearch = ""
			st.FinalReport = ""
			r.logger.Info("report planned", zap.Int("sections", len(st.Sections)))
			return flyt.DefaultAction, nil
		}),
	)

	await := flyt.NewNode(
		flyt.WithPrepFunc(enter(types.PhaseAwaitingFeedback)),
		flyt.WithPostFunc(func(_ context.Context, _ *flyt.SharedStore, prep, _ any) (flyt.Action, error) {
			st := prep.(*types.ReportState)
			st.Interrupt = report.InterruptMessage(st.Sections)
			return actionSuspend, nil
		}),
	)

	research := flyt.NewNode(
		flyt.WithPrepFunc(enter(types.PhaseResearchSections)),
		flyt.WithExecFunc(r.traced("research_sections", func(ctx context.Context, prep any) (any, error) {
			st := prep.(*types.ReportState)
			return fanOut(ctx, "research_sections", st.SectionsNeedingResearch(), func(ctx context.Context, sec types.Section) (types.Section, error) {
				ss, err := r.researchSection(ctx, sec)
				if err != nil {
					return types.Section{}, err
				}
				return ss.Section, nil
			})
		})),
		flyt.WithPostFunc(func(_ context.Context, _ *flyt.SharedStore, prep, exec any) (flyt.Action, error) {
			st := prep.(*types.ReportState)
			st.Interrupt = ""
			for _, sec := range exec.(map[string]types.Section) {
				st.Complete(sec)
			}
			return flyt.DefaultAction, nil
		}),
	)

	gather := flyt.NewNode(
		flyt.WithPrepFunc(enter(types.PhaseGather)),
		flyt.WithPostFunc(func(_ context.Context, _ *flyt.SharedStore, prep, _ any) (flyt.Action, error) {
			st := prep.(*types.ReportState)
			st.ReportSectionsFromResearch = report.FormatSections(st.OrderedCompleted())
			return flyt.DefaultAction, nil
		}),
	)

	final := flyt.NewNode(
		flyt.WithPrepFunc(enter(types.PhaseFinalSections)),
		flyt.WithExecFunc(r.traced("final_sections", func(ctx context.Context, prep any) (any, error) {
			st := prep.(*types.ReportState)
			gathered := st.ReportSectionsFromResearch
			return fanOut(ctx, "final_sections", st.FinalSections(), func(ctx context.Context, sec types.Section) (types.Section, error) {
				return r.draftFinalSection(ctx, sec, gathered)
			})
		})),
		flyt.WithPostFunc(func(_ context.Context, _ *flyt.SharedStore, prep, exec any) (flyt.Action, error) {
			st := prep.(*types.ReportState)
			for _, sec := range exec.(map[string]types.Section) {
				st.Complete(sec)
			}
			return flyt.DefaultAction, nil
		}),
	)

	compile := flyt.NewNode(
		flyt.WithPrepFunc(enter(types.PhaseCompile)),
		flyt.WithExecFunc(r.traced("compile", func(_ context.Context, prep any) (any, error) {
			st := prep.(*types.ReportState)
			return report.Compile(st.Sections, st.CompletedSections)
		})),
		flyt.WithPostFunc(func(_ context.Context, _ *flyt.SharedStore, prep, exec any) (flyt.Action, error) {
			st := prep.(*types.ReportState)
			st.FinalReport = exec.(string)
			st.Phase = types.PhaseDone
			return actionComplete, nil
		}),
	)

	var first flyt.Node
	switch start {
	case types.PhasePlan:
		first = plan
	case types.PhaseResearchSections:
		first = research
	default:
		return nil, fmt.Errorf("report workflow cannot start at phase %q", start)
	}

	flow := flyt.NewFlow(first)
	flow.Connect(plan, flyt.DefaultAction, await)
	flow.Connect(research, flyt.DefaultAction, gather)
	flow.Connect(gather, flyt.DefaultAction, final)
	flow.Connect(final, flyt.DefaultAction, compile)
	return flow, nil
}
