package export

import "context"

func (e *Engine) RenderFrames(ctx context.Context, job Job, dir string, n int) error {
	return e.renderFrames(ctx, job, dir, n)
}
