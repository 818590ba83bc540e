package workflow

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/report-engine/internal/metrics"
	"github.com/pdiddy/report-engine/pkg/types"
)

// sectionTask turns one planned section into its completed form.
type sectionTask func(ctx context.Context, sec types.Section) (types.Section, error)

// fanOut runs task once per section concurrently and joins them all. The
// first failure cancels the siblings' context and is returned; no results
// are returned with it. On success the completed sections are keyed by name.
func fanOut(ctx context.Context, stage string, sections []types.Section, task sectionTask) (map[string]types.Section, error) {
	metrics.FanoutTasks.WithLabelValues(stage).Observe(float64(len(sections)))

	g, gctx := errgroup.WithContext(ctx)
	results := make([]types.Section, len(sections))
	for i, sec := range sections {
		g.Go(func() error {
			out, err := task(gctx, sec)
			if err != nil {
				return err
			}
			results[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	done := make(map[string]types.Section, len(results))
	for _, sec := range results {
		done[sec.Name] = sec
	}
	return done, nil
}
