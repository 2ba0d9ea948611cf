package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/aleph-lang/constant-folding/internal/ast"
	"github.com/aleph-lang/constant-folding/internal/cli"
	"github.com/aleph-lang/constant-folding/internal/fold"
	"github.com/aleph-lang/constant-folding/internal/watch"
)

// folder runs the optimization pipeline over documents.
type folder struct {
	cfg    *cli.Config
	level  fold.OptimizationLevel
	logger *cli.Logger
	indent bool

	statsOut io.Writer
}

func newFolder(cfg *cli.Config, logger *cli.Logger, statsOut io.Writer) (*folder, error) {
	level, err := fold.ParseOptimizationLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	return &folder{cfg: cfg, level: level, logger: logger, statsOut: statsOut}, nil
}

// pipeline returns a fresh pipeline; pipelines keep per-run statistics and
// are not shared between goroutines.
func (f *folder) pipeline() *fold.OptimizationPipeline {
	p := fold.CreateStandardOptimizationPipeline(f.level, fold.Options{MaxDepth: f.cfg.MaxDepth})
	p.SetMaxIterations(f.cfg.MaxIterations)
	p.SetStatsEnabled(f.cfg.Stats || f.cfg.Verbose)
	return p
}

func (f *folder) fold(name string, r io.Reader, w io.Writer, indent bool) error {
	doc, err := ast.ReadDocument(r)
	if err != nil {
		return err
	}
	f.logger.Debug("%s: format %s, %d nodes", name, doc.FormatVersion, ast.Count(doc.Root))

	out, stats, err := f.pipeline().Optimize(doc.Root)
	if err != nil {
		return err
	}
	f.logger.Info("%s: folded in %d iteration(s), %d constants folded", name, stats.Iterations, stats.ConstantsFolded)
	if f.cfg.Stats {
		fmt.Fprintf(f.statsOut, "%s: %s\n", name, stats)
	}

	return ast.NewDocument(out).Write(w, indent)
}

func (f *folder) foldStream(r io.Reader, w io.Writer) error {
	return f.fold("<stdin>", r, w, f.indent)
}

func (f *folder) foldFile(path string, indent bool) ([]byte, error) {
	in, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer in.Close()

	var buf bytes.Buffer
	if err := f.fold(path, in, &buf, indent); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return buf.Bytes(), nil
}

// foldFiles folds every file with at most cfg.Concurrency files in flight.
// The first failure cancels the files still waiting for a slot.
func (f *folder) foldFiles(ctx context.Context, files []string, out *sink) error {
	results := make([][]byte, len(files))
	indent := out.indent(f.indent)
	sem := make(chan struct{}, f.cfg.Concurrency)
	g, gctx := errgroup.WithContext(ctx)

	for i, path := range files {
		i, path := i, path

		g.Go(func() error {
			select {
			case sem <- struct{}{}:
			case <-gctx.Done():
				return gctx.Err()
			}

			defer func() { <-sem }()

			data, err := f.foldFile(path, indent)
			if err != nil {
				return err
			}
			if out.stdout != nil {
				results[i] = data
				return nil
			}
			return f.emit(out, path, data)
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	// Keep stdout output in argument order.
	for i, data := range results {
		if data == nil {
			continue
		}
		if err := f.emit(out, files[i], data); err != nil {
			return err
		}
	}
	return nil
}

func (f *folder) emit(out *sink, path string, data []byte) error {
	written, err := out.write(path, data)
	if err != nil {
		return err
	}
	if !written {
		f.logger.Debug("%s: unchanged", path)
	}
	return nil
}

// watchFiles folds a file again each time its contents change, until ctx is done.
// Fold errors are logged and do not stop watching.
func (f *folder) watchFiles(ctx context.Context, files []string, out *sink) error {
	w, err := watch.New()
	if err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}
	defer w.Close()

	for _, path := range files {
		if err := w.Add(path); err != nil {
			return fmt.Errorf("failed to watch %s: %w", path, err)
		}
	}
	f.logger.Info("watching %d file(s)", w.Files())

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events():
			if !ok {
				return nil
			}
			if !ev.Op.Changed() {
				continue
			}
			f.logger.Debug("%s: %s", ev.Path, ev.Op)

			data, err := f.foldFile(ev.Path, out.indent(f.indent))
			if err != nil {
				f.logger.Error("%v", err)
				continue
			}
			if err := f.emit(out, ev.Path, data); err != nil {
				f.logger.Error("%v", err)
			}
		case err := <-w.Errors():
			f.logger.Warn("watcher: %v", err)
		}
	}
}

// sink is where folded documents go: stdout, the source file or a directory.
type sink struct {
	mu      sync.Mutex
	stdout  io.Writer
	inPlace bool
	dir     string
}

func newSink(stdout io.Writer, inPlace bool, dir string) *sink {
	if inPlace || dir != "" {
		return &sink{inPlace: inPlace, dir: dir}
	}
	return &sink{stdout: stdout}
}

// indent reports whether documents are pretty-printed. Files always are;
// stdout follows the terminal.
func (s *sink) indent(terminal bool) bool {
	return s.stdout == nil || terminal
}

func (s *sink) target(path string) string {
	if s.inPlace {
		return path
	}
	return filepath.Join(s.dir, filepath.Base(path))
}

// checkTargets rejects inputs that would be written to the same file.
func (s *sink) checkTargets(files []string) error {
	if s.stdout != nil {
		return nil
	}
	seen := make(map[string]string, len(files))
	for _, path := range files {
		target := filepath.Clean(s.target(path))
		if prev, ok := seen[target]; ok {
			return fmt.Errorf("%s and %s would both be written to %s", prev, path, target)
		}
		seen[target] = path
	}
	return nil
}

// write stores data for path. Files whose contents already match are left
// untouched so that in-place watching settles.
func (s *sink) write(path string, data []byte) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stdout != nil {
		_, err := s.stdout.Write(data)
		return err == nil, err
	}

	target := s.target(path)
	mode := os.FileMode(0o644)
	if old, err := os.ReadFile(target); err == nil {
		if bytes.Equal(old, data) {
			return false, nil
		}
		if info, err := os.Stat(target); err == nil {
			mode = info.Mode().Perm()
		}
	}

	if s.dir != "" {
		if err := os.MkdirAll(s.dir, 0o755); err != nil {
			return false, fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	if err := os.WriteFile(target, data, mode); err != nil {
		return false, fmt.Errorf("failed to write %s: %w", target, err)
	}
	return true, nil
}
