// Package fold - optimization pass infrastructure.
// This file wraps the folder into a pass that can be composed into a pipeline,
// iterated until the tree stops changing, and reported on through statistics.
package fold

import (
	"fmt"
	"strings"
	"time"

	"github.com/aleph-lang/constant-folding/internal/ast"
)

// OptimizationPass represents a single optimization transformation on the tree
type OptimizationPass interface {
	// Name returns a human-readable name for this optimization pass
	Name() string

	// Apply performs the optimization transformation on the given tree
	// Returns the optimized tree and the statistics of this run
	Apply(node ast.Node) (ast.Node, *OptimizationStats, error)

	// ShouldApply determines if this pass should be applied based on optimization level
	ShouldApply(level OptimizationLevel) bool
}

// OptimizationLevel represents the level of optimization to apply
type OptimizationLevel int

const (
	OptimizationNone       OptimizationLevel = iota // No optimization
	OptimizationBasic                               // Single folding run
	OptimizationDefault                             // Fold until fixpoint
	OptimizationAggressive                          // Fold until fixpoint, larger iteration budget
)

func (ol OptimizationLevel) String() string {
	switch ol {
	case OptimizationNone:
		return "none"
	case OptimizationBasic:
		return "basic"
	case OptimizationDefault:
		return "default"
	case OptimizationAggressive:
		return "aggressive"
	default:
		return "unknown"
	}
}

// ParseOptimizationLevel maps a level name to its OptimizationLevel
func ParseOptimizationLevel(name string) (OptimizationLevel, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "none", "0":
		return OptimizationNone, nil
	case "basic", "1":
		return OptimizationBasic, nil
	case "", "default", "2":
		return OptimizationDefault, nil
	case "aggressive", "3":
		return OptimizationAggressive, nil
	default:
		return OptimizationNone, fmt.Errorf("unknown optimization level %q", name)
	}
}

// OptimizationStats tracks statistics from optimization passes
type OptimizationStats struct {
	PassName           string // Name of the optimization pass
	Iterations         int    // Number of pipeline iterations run
	NodesVisited       int    // Total number of nodes visited
	NodesTransformed   int    // Number of nodes that were rewritten
	ConstantsFolded    int    // Number of operator nodes evaluated to a literal
	BindingsPropagated int    // Number of names replaced by their literal value
	BranchesCollapsed  int    // Number of conditionals replaced by one arm
	ExecutionTime      int64  // Execution time in nanoseconds
}

// String returns a human-readable representation of optimization statistics
func (os *OptimizationStats) String() string {
	return fmt.Sprintf("Pass: %s, Iterations: %d, Visited: %d, Transformed: %d, Constants: %d, Propagated: %d, Branches: %d, Time: %dns",
		os.PassName, os.Iterations, os.NodesVisited, os.NodesTransformed, os.ConstantsFolded, os.BindingsPropagated, os.BranchesCollapsed, os.ExecutionTime)
}

func (os *OptimizationStats) add(other *OptimizationStats) {
	os.NodesVisited += other.NodesVisited
	os.NodesTransformed += other.NodesTransformed
	os.ConstantsFolded += other.ConstantsFolded
	os.BindingsPropagated += other.BindingsPropagated
	os.BranchesCollapsed += other.BranchesCollapsed
	os.ExecutionTime += other.ExecutionTime
}

// OptimizationPipeline manages a sequence of optimization passes
// and reruns them until an iteration leaves the tree unchanged
type OptimizationPipeline struct {
	passes        []OptimizationPass // Ordered list of optimization passes
	level         OptimizationLevel  // Target optimization level
	enableStats   bool               // Whether to collect detailed statistics
	globalStats   *OptimizationStats // Aggregated statistics across all passes
	maxIterations int                // Maximum number of optimization iterations
}

// NewOptimizationPipeline creates a new optimization pipeline with default settings
func NewOptimizationPipeline() *OptimizationPipeline {
	return &OptimizationPipeline{
		passes:        make([]OptimizationPass, 0),
		level:         OptimizationDefault,
		enableStats:   true,
		globalStats:   &OptimizationStats{PassName: "Global"},
		maxIterations: 5,
	}
}

// CreateStandardOptimizationPipeline builds a pipeline running constant folding
// at the given level
func CreateStandardOptimizationPipeline(level OptimizationLevel, opts Options) *OptimizationPipeline {
	p := NewOptimizationPipeline()
	p.SetOptimizationLevel(level)
	if level == OptimizationAggressive {
		p.SetMaxIterations(20)
	}
	p.AddPass(NewConstantFoldingPass(opts))
	return p
}

// AddPass adds an optimization pass to the pipeline
func (op *OptimizationPipeline) AddPass(pass OptimizationPass) {
	op.passes = append(op.passes, pass)
}

// SetOptimizationLevel sets the target optimization level for the pipeline
func (op *OptimizationPipeline) SetOptimizationLevel(level OptimizationLevel) {
	op.level = level
}

// SetStatsEnabled controls whether detailed statistics are collected
func (op *OptimizationPipeline) SetStatsEnabled(enabled bool) {
	op.enableStats = enabled
}

// SetMaxIterations bounds the number of fixpoint iterations; values below one are ignored
func (op *OptimizationPipeline) SetMaxIterations(n int) {
	if n > 0 {
		op.maxIterations = n
	}
}

// Optimize applies all registered optimization passes to the given tree
// Returns the optimized tree and the aggregated statistics
func (op *OptimizationPipeline) Optimize(root ast.Node) (ast.Node, *OptimizationStats, error) {
	if root == nil {
		return nil, op.globalStats, fmt.Errorf("cannot optimize nil tree")
	}

	op.globalStats = &OptimizationStats{PassName: "Global"}

	maxIterations := op.maxIterations
	if op.level == OptimizationBasic {
		maxIterations = 1
	}

	current := root
	for op.globalStats.Iterations < maxIterations {
		changed := 0

		for _, pass := range op.passes {
			if !pass.ShouldApply(op.level) {
				continue
			}

			optimized, stats, err := pass.Apply(current)
			if err != nil {
				return current, op.globalStats, fmt.Errorf("optimization pass %s failed: %w", pass.Name(), err)
			}
			current = optimized

			if stats != nil {
				if op.enableStats {
					op.globalStats.add(stats)
				}
				changed += stats.NodesTransformed
			}
		}

		op.globalStats.Iterations++

		// Fixpoint reached
		if changed == 0 {
			break
		}
	}

	return current, op.globalStats, nil
}

// GetStats returns the statistics of the last Optimize call
func (op *OptimizationPipeline) GetStats() *OptimizationStats {
	return op.globalStats
}

// ===== Constant Folding Optimization Pass =====

// ConstantFoldingPass evaluates constant expressions, propagates let-bound
// constants and collapses conditionals with literal conditions
type ConstantFoldingPass struct {
	opts Options
}

// NewConstantFoldingPass creates a new constant folding optimization pass
func NewConstantFoldingPass(opts Options) *ConstantFoldingPass {
	return &ConstantFoldingPass{opts: opts}
}

// Name returns the name of this optimization pass
func (cfp *ConstantFoldingPass) Name() string {
	return "ConstantFolding"
}

// ShouldApply determines if constant folding should be applied at the given optimization level
func (cfp *ConstantFoldingPass) ShouldApply(level OptimizationLevel) bool {
	return level >= OptimizationBasic
}

// Apply performs constant folding on the tree from an empty environment
func (cfp *ConstantFoldingPass) Apply(node ast.Node) (ast.Node, *OptimizationStats, error) {
	stats := &OptimizationStats{PassName: cfp.Name()}
	start := time.Now()

	out, _, err := FoldWithOptions(node, Empty(), cfp.opts, stats)
	stats.ExecutionTime = time.Since(start).Nanoseconds()
	if err != nil {
		return node, stats, err
	}
	return out, stats, nil
}
