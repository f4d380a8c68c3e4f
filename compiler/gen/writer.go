package gen

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/tools/imports"
)

// Writer hands a finalized artifact to disk: one directory per layer,
// hooks split per target framework. Go members are formatted through
// the imports processor before writing.
type Writer struct {
	outDir  string
	workers int

	mu      sync.Mutex
	metrics WriterMetrics
}

// WriterMetrics tracks write performance.
type WriterMetrics struct {
	FilesWritten int
	TotalBytes   int64
}

// NewWriter creates a writer rooted at outDir.
func NewWriter(outDir string) *Writer {
	return &Writer{
		outDir:  outDir,
		workers: runtime.GOMAXPROCS(0),
	}
}

// WithWorkers sets the number of parallel writes.
func (w *Writer) WithWorkers(n int) *Writer {
	if n > 0 {
		w.workers = n
	}
	return w
}

// Metrics returns the write metrics.
func (w *Writer) Metrics() WriterMetrics {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.metrics
}

// Write writes every file of the artifact below the output directory.
func (w *Writer) Write(ctx context.Context, files *GeneratedFiles) error {
	errg, _ := errgroup.WithContext(ctx)
	errg.SetLimit(w.workers)
	for _, layer := range files.LayerNames() {
		dir := filepath.Join(w.outDir, string(layer))
		for _, name := range files.FileNames(layer) {
			name := name
			content := files.Layers[layer][name]
			errg.Go(func() error {
				return w.writeFile(filepath.Join(dir, name), content)
			})
		}
	}
	for framework, hooks := range files.Hooks {
		dir := filepath.Join(w.outDir, "hooks", framework)
		for name, content := range hooks {
			name, content := name, content
			errg.Go(func() error {
				return w.writeFile(filepath.Join(dir, name), content)
			})
		}
	}
	return errg.Wait()
}

func (w *Writer) writeFile(path, content string) error {
	data := []byte(content)
	if strings.HasSuffix(path, ".go") {
		formatted, err := imports.Process(path, data, nil)
		if err == nil {
			data = formatted
		}
		// Unformattable Go output is written as-is; the compiler will
		// point at it more precisely than we can here.
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return err
	}
	w.mu.Lock()
	w.metrics.FilesWritten++
	w.metrics.TotalBytes += int64(len(data))
	w.mu.Unlock()
	return nil
}
