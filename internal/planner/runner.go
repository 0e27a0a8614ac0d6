package planner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"diagtest/internal/assertion"
	"diagtest/internal/diagparse"
	"diagtest/internal/optexpr"
	"diagtest/internal/procexec"
	"diagtest/internal/report"
	"diagtest/internal/toolchain"
)

// Outcome is one assertion/report evaluation result, recorded for the
// summary and for printing.
type Outcome struct {
	Test       string
	Instance   string
	Standard   string
	Assertion  assertion.Assertion
	Passed     bool
	Command    string
	Stdout     string
	Stderr     string
}

// Summary is the accumulated result of a Plan's run.
type Summary struct {
	Outcomes  []Outcome
	Unavailable []string
	Passed    bool
}

// Runner executes a Plan: building command lines, invoking compilers,
// parsing diagnostics, and evaluating assertions.
type Runner struct {
	Source      string
	OutDir      string
	Log         *log.Logger
	Parallelism int
}

// Run executes every Test in plan against source (the already
// template-expanded source text) and returns a Summary of every outcome;
// Summary.Passed reports whether every assertion in every Test passed.
func (r *Runner) Run(ctx context.Context, plan *Plan, source string) (*Summary, error) {
	outDir := r.OutDir
	if outDir == "" {
		outDir = filepath.Join(filepath.Dir(r.Source), "build")
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("planner: creating output directory: %w", err)
	}
	sourcePath := filepath.Join(outDir, filepath.Base(r.Source))
	if err := os.WriteFile(sourcePath, []byte(source), 0o644); err != nil {
		return nil, fmt.Errorf("planner: writing preprocessed source: %w", err)
	}

	summary := &Summary{Passed: true}
	var triples []triple
	for _, test := range plan.Tests {
		triples = append(triples, r.prepareTest(test, summary)...)
	}
	if err := r.runTriples(ctx, triples, sourcePath, summary); err != nil {
		return summary, err
	}
	return summary, nil
}

// triple is one (test, instance, standard) unit of work: the smallest
// invocation the errgroup-bounded path below dispatches independently.
type triple struct {
	test *Test
	inst toolchain.Instance
	std  string
}

// prepareTest walks test's bound instances in deterministic (family-sorted)
// order, records any unavailable compiler against summary, and returns the
// ordered list of triples still to be invoked.
func (r *Runner) prepareTest(test *Test, summary *Summary) []triple {
	keys := make([]toolchain.InstanceKey, 0, len(test.Assertions))
	for key := range test.Assertions {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if a.Family != b.Family {
			return a.Family < b.Family
		}
		if a.ExecutablePath != b.ExecutablePath {
			return a.ExecutablePath < b.ExecutablePath
		}
		if a.Dialect != b.Dialect {
			return a.Dialect < b.Dialect
		}
		if a.Options != b.Options {
			return a.Options < b.Options
		}
		return a.Selected < b.Selected
	})

	var triples []triple
	for _, key := range keys {
		binding := test.Assertions[key]
		inst := binding.Instance
		if !inst.Available() {
			r.log().Info("compiler unavailable, skipping", "test", test.DisplayName, "instance", inst.String())
			summary.Unavailable = append(summary.Unavailable, fmt.Sprintf("%s: %s", test.DisplayName, inst.String()))
			continue
		}
		for _, std := range inst.Selected {
			triples = append(triples, triple{test: test, inst: inst, std: std})
		}
	}
	return triples
}

// runTriples invokes each triple and evaluates its assertions. With
// Parallelism <= 1 it runs sequentially; otherwise it dispatches over a
// bounded errgroup pool sized to Parallelism, while still writing each
// triple's outcomes into summary.Outcomes at its original position so
// per-triple ordering stays identical to the sequential path.
func (r *Runner) runTriples(ctx context.Context, triples []triple, sourcePath string, summary *Summary) error {
	results := make([][]Outcome, len(triples))
	var failed bool
	var mu sync.Mutex

	run := func(i int) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		t := triples[i]
		rpt, err := r.invoke(ctx, t.test, t.inst, t.std, sourcePath)
		if err != nil {
			return err
		}
		binding := t.test.Assertions[t.inst.Key()]
		outcomes := make([]Outcome, 0, len(binding.Assertions))
		anyFailed := false
		for _, a := range binding.Assertions {
			passed := assertion.Check(a, rpt)
			if !passed {
				anyFailed = true
				r.log().Warn("assertion failed", "test", t.test.DisplayName, "instance", t.inst.String(), "standard", t.std, "command", rpt.Command)
				r.log().Warn("stdout", "text", rpt.Stdout)
				r.log().Warn("stderr", "text", rpt.Stderr)
			}
			outcomes = append(outcomes, Outcome{
				Test:      t.test.DisplayName,
				Instance:  t.inst.String(),
				Standard:  t.std,
				Assertion: a,
				Passed:    passed,
				Command:   rpt.Command,
				Stdout:    rpt.Stdout,
				Stderr:    rpt.Stderr,
			})
		}
		results[i] = outcomes
		if anyFailed {
			mu.Lock()
			failed = true
			mu.Unlock()
		}
		return nil
	}

	if r.Parallelism <= 1 {
		for i := range triples {
			if err := run(i); err != nil {
				return err
			}
		}
	} else {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(r.Parallelism)
		ctx = gctx
		for i := range triples {
			i := i
			g.Go(func() error { return run(i) })
		}
		if err := g.Wait(); err != nil {
			return err
		}
	}

	for _, outcomes := range results {
		summary.Outcomes = append(summary.Outcomes, outcomes...)
	}
	if failed {
		summary.Passed = false
	}
	return nil
}

func (r *Runner) invoke(ctx context.Context, test *Test, inst toolchain.Instance, std, sourcePath string) (*report.Report, error) {
	env := optexpr.Environment(inst.Descriptor.Family, inst.Descriptor.Version)
	options, err := optexpr.ExpandOptions(inst.Options, env)
	if err != nil {
		return nil, fmt.Errorf("planner: expanding options for %s: %w", inst.String(), err)
	}

	args := commandArgs(inst, std, options, test.Identifier, sourcePath)
	rpt, err := procexec.Invoke(ctx, fmt.Sprintf("%s %s (%s)", inst.Descriptor.Family, inst.Descriptor.Version, std), inst.Descriptor.ExecutablePath, args)
	if err != nil {
		return nil, fmt.Errorf("planner: invoking %s: %w", inst.Descriptor.ExecutablePath, err)
	}

	parser, ok := diagparse.ForFamily(string(inst.Descriptor.Family))
	if !ok {
		return nil, fmt.Errorf("planner: no diagnostic parser for family %q", inst.Descriptor.Family)
	}
	diagparse.ParseLines(parser, rpt, rpt.Stdout, rpt.Stderr)
	return rpt, nil
}

// commandArgs builds the compiler command line per spec §6's documented
// shape: GCC/Clang use "-std=" and "-D", MSVC uses "/std:" and "/D".
func commandArgs(inst toolchain.Instance, std string, options []string, testID, sourcePath string) []string {
	var args []string
	if inst.Descriptor.Family == toolchain.MSVC {
		args = append(args, "/std:"+std)
		args = append(args, options...)
		args = append(args, "/D"+testID, sourcePath)
		return args
	}
	args = append(args, "-std="+std)
	args = append(args, options...)
	args = append(args, "-D"+testID, sourcePath)
	return args
}

func (r *Runner) log() *log.Logger {
	if r.Log != nil {
		return r.Log
	}
	return log.New(os.Stderr)
}
