package gen

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"
)

// sdkPhase emits one Go API client per analyzed model. Models are
// generated as independent concurrent tasks and every outcome is
// collected before the phase returns, so one model's failure never
// cancels generation for its siblings.
type sdkPhase struct {
	phaseMeta
}

func newSDKPhase() *sdkPhase {
	return &sdkPhase{phaseMeta{name: "generate-sdk", order: 50}}
}

func (p *sdkPhase) ShouldExecute(*Context) bool { return true }

func (p *sdkPhase) Execute(ctx context.Context, gctx *Context) (*PhaseResult, error) {
	models, err := analyzedModels(gctx, p.Name())
	if err != nil {
		return nil, err
	}
	workers := gctx.Config.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	type emitted struct {
		file    string
		content string
	}
	var (
		mu    sync.Mutex
		out   []emitted
		fails []*GenerationError
	)
	errg, _ := errgroup.WithContext(ctx)
	errg.SetLimit(workers)
	for _, a := range models {
		a := a
		errg.Go(func() error {
			m, ok := gctx.Schema.Model(a.Model)
			if !ok {
				mu.Lock()
				fails = append(fails, &GenerationError{
					Severity: SeverityError,
					Message:  fmt.Sprintf("model %q disappeared from schema", a.Model),
					Model:    a.Model,
					Phase:    p.Name(),
				})
				mu.Unlock()
				return nil
			}
			content, err := emitSDKClient(m, a)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				fails = append(fails, &GenerationError{
					Severity: SeverityError,
					Message:  fmt.Sprintf("emit sdk client: %v", err),
					Model:    a.Model,
					Phase:    p.Name(),
				})
				return nil
			}
			out = append(out, emitted{file: snakeName(a.Model) + "_client.go", content: content})
			return nil
		})
	}
	// Goroutines report failures through fails, never through errgroup.
	_ = errg.Wait()

	sort.Slice(out, func(i, j int) bool { return out[i].file < out[j].file })
	for _, e := range out {
		if err := gctx.Files.AddFile(LayerSDK, e.file, e.content); err != nil {
			return nil, err
		}
	}
	if len(fails) > 0 {
		return Failed(fails...), nil
	}
	return Completed(), nil
}
