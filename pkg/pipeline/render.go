package pipeline

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/warren/pkg/errors"
	"github.com/matzehuels/warren/pkg/layout"
	"github.com/matzehuels/warren/pkg/render"
)

// maxRenderWorkers bounds concurrent renderers; png and pdf each spawn an
// rsvg-convert process.
const maxRenderWorkers = 4

// Render generates output artifacts in the requested formats. Partial
// layouts render like complete ones; every renderer marks them incomplete.
// Formats render concurrently and the first failure cancels the rest.
func Render(ctx context.Context, l *layout.Layout, opts Options) (map[string][]byte, error) {
	if l == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "render: layout is nil")
	}
	if err := opts.ValidateForRender(); err != nil {
		return nil, err
	}

	ropts := opts.RenderOptions()
	artifacts := make(map[string][]byte, len(opts.Formats))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxRenderWorkers)
	for _, format := range opts.Formats {
		g.Go(func() error {
			data, err := render.Render(gctx, l, format, ropts)
			if err != nil {
				return fmt.Errorf("render %s: %w", format, err)
			}
			mu.Lock()
			artifacts[format] = data
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return artifacts, nil
}
