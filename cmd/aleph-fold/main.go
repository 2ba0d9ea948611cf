package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/aleph-lang/constant-folding/internal/ast"
	"github.com/aleph-lang/constant-folding/internal/cli"
)

const toolName = "aleph-fold"

// aleph-fold folds constants in aleph AST documents.
// Flags:
//
//	-config          JSON configuration file.
//	-level           optimization level: none, basic, default, aggressive.
//	-max-iterations  bound on fixpoint iterations.
//	-max-depth       recursion limit, 0 for unlimited.
//	-stats           print folding statistics to stderr.
//	-w               write result to (source) file.
//	-o               write results into a directory.
//	-watch           fold again whenever an input file changes.
//	-v, -debug       logging verbosity.
//	-version, -json  print version information.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	os.Exit(run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

type options struct {
	configFile    string
	level         string
	maxIterations int
	maxDepth      int
	concurrency   int
	stats         bool
	writeInPlace  bool
	outDir        string
	watch         bool
	verbose       bool
	debug         bool
	version       bool
	jsonOutput    bool
}

var usage = cli.CommandInfo{
	Name:        toolName,
	Usage:       toolName + " [flags] [file.json ...]",
	Description: "fold constant expressions in aleph AST documents",
	Flags: []cli.FlagInfo{
		{Name: "config", Usage: "JSON configuration file"},
		{Name: "level", Usage: "optimization level: none, basic, default, aggressive", Default: "default"},
		{Name: "max-iterations", Usage: "maximum fixpoint iterations"},
		{Name: "max-depth", Usage: "recursion limit, 0 for unlimited", Default: "10000"},
		{Name: "j", Usage: "number of files folded in parallel"},
		{Name: "stats", Usage: "print folding statistics to stderr"},
		{Name: "w", Usage: "write result to (source) file instead of stdout"},
		{Name: "o", Usage: "write results into this directory"},
		{Name: "watch", Usage: "fold again whenever an input file changes"},
		{Name: "v", Usage: "verbose logging"},
		{Name: "debug", Usage: "debug logging"},
		{Name: "version", Usage: "print version information"},
		{Name: "json", Usage: "print version information as JSON"},
	},
	Examples: []string{
		toolName + " < prog.json",
		toolName + " -level aggressive -stats -o out/ a.json b.json",
		toolName + " -w -watch prog.json",
	},
}

func parseFlags(args []string, stderr io.Writer) (*options, *flag.FlagSet, error) {
	var opts options
	fs := flag.NewFlagSet(toolName, flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { cli.PrintCommandUsage(stderr, usage) }

	fs.StringVar(&opts.configFile, "config", "", "JSON configuration file")
	fs.StringVar(&opts.level, "level", "", "optimization level")
	fs.IntVar(&opts.maxIterations, "max-iterations", 0, "maximum fixpoint iterations")
	fs.IntVar(&opts.maxDepth, "max-depth", 0, "recursion limit, 0 for unlimited")
	fs.IntVar(&opts.concurrency, "j", 0, "number of files folded in parallel")
	fs.BoolVar(&opts.stats, "stats", false, "print folding statistics")
	fs.BoolVar(&opts.writeInPlace, "w", false, "write result to (source) file")
	fs.StringVar(&opts.outDir, "o", "", "output directory")
	fs.BoolVar(&opts.watch, "watch", false, "fold again on change")
	fs.BoolVar(&opts.verbose, "v", false, "verbose logging")
	fs.BoolVar(&opts.debug, "debug", false, "debug logging")
	fs.BoolVar(&opts.version, "version", false, "print version information")
	fs.BoolVar(&opts.jsonOutput, "json", false, "print version information as JSON")

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	return &opts, fs, nil
}

// loadConfig layers the config file, the environment and explicitly set flags.
func loadConfig(opts *options, fs *flag.FlagSet) (*cli.Config, error) {
	cfg, err := cli.LoadConfig(opts.configFile)
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnv()

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "level":
			cfg.Level = opts.level
		case "max-iterations":
			cfg.MaxIterations = opts.maxIterations
		case "max-depth":
			cfg.MaxDepth = opts.maxDepth
		case "j":
			cfg.Concurrency = opts.concurrency
		case "stats":
			cfg.Stats = opts.stats
		case "v":
			cfg.Verbose = opts.verbose
		case "debug":
			cfg.Debug = opts.debug
		}
	})

	if cfg.MaxDepth < 0 {
		return nil, fmt.Errorf("max depth must not be negative, got %d", cfg.MaxDepth)
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	return cfg, nil
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	stderr = &syncWriter{w: stderr}

	opts, fs, err := parseFlags(args, stderr)
	if err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}

	if opts.version {
		cli.PrintVersion(stdout, toolName, ast.FormatVersion, opts.jsonOutput)
		return 0
	}

	cfg, err := loadConfig(opts, fs)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}
	logger := cli.NewLoggerTo(stderr, cfg.Verbose, cfg.Debug)
	logger.Debug("configuration: %+v", *cfg)

	files := fs.Args()
	if opts.writeInPlace && opts.outDir != "" {
		logger.Error("-w and -o are mutually exclusive")
		return 2
	}
	if len(files) == 0 && (opts.writeInPlace || opts.outDir != "" || opts.watch) {
		logger.Error("-w, -o and -watch need input files")
		return 2
	}

	f, err := newFolder(cfg, logger, stderr)
	if err != nil {
		logger.Error("%v", err)
		return 2
	}
	f.indent = wantIndent(stdout)

	if len(files) == 0 {
		if err := f.foldStream(stdin, stdout); err != nil {
			logger.Error("%v", err)
			return 1
		}
		return 0
	}

	out := newSink(stdout, opts.writeInPlace, opts.outDir)
	if err := out.checkTargets(files); err != nil {
		logger.Error("%v", err)
		return 2
	}
	if err := f.foldFiles(ctx, files, out); err != nil {
		logger.Error("%v", err)
		if !opts.watch {
			return 1
		}
	}

	if opts.watch {
		if err := f.watchFiles(ctx, files, out); err != nil {
			logger.Error("%v", err)
			return 1
		}
	}
	return 0
}

// wantIndent pretty-prints documents written to an interactive terminal.
func wantIndent(w io.Writer) bool {
	file, ok := w.(*os.File)
	return ok && cli.IsTerminal(file)
}

// syncWriter serializes log lines from concurrent folds.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}
