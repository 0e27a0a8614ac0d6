// Binary diagtest is the command-line front end for the diagnostic test
// harness: it discovers installed compilers, expands each source file's
// embedded test directives, runs the resulting plan, and reports pass/fail.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/thought-machine/go-flags"

	"diagtest/cmd/diagtest/script"
	"diagtest/internal/directive"
	"diagtest/internal/planner"
	"diagtest/internal/toolchain"
)

var opts struct {
	Output        string `short:"o" long:"output" value-name:"DIR" description:"Output directory for preprocessed source (default: <source_dir>/build)"`
	Language      string `short:"l" long:"language" value-name:"LANG" description:"Override language detection (c, c++, gnu, gnu++)"`
	ListCompilers bool   `long:"list-compilers" description:"Dump discovered compilers and exit"`
	Verbose       bool   `short:"v" long:"verbose" description:"Raise log level to debug"`
	Args          struct {
		Sources []string `positional-arg-name:"SOURCE" description:"Source files to test"`
	} `positional-args:"true"`
}

var extensionLanguages = map[string]string{
	".c":   "c",
	".cc":  "c++",
	".cpp": "c++",
	".cxx": "c++",
	".h":   "c",
	".hpp": "c++",
}

func main() {
	_, err := flags.NewParser(&opts, flags.Default-flags.PrintErrors).Parse()
	if err != nil {
		flagsErr, ok := err.(*flags.Error)
		if ok && flagsErr.Type == flags.ErrHelp {
			fmt.Printf("%v", err)
			os.Exit(0)
		}
		log.Fatalf("failed to parse command line arguments: %v", err)
	}

	logger := log.New(os.Stderr)
	if opts.Verbose {
		logger.SetLevel(log.DebugLevel)
	}

	ctx := context.Background()
	cache := toolchain.NewCache()
	descriptors := discoverAll(ctx, cache, logger)

	if opts.ListCompilers {
		printCompilers(descriptors)
		os.Exit(0)
	}

	if len(opts.Args.Sources) == 0 {
		log.Fatalf("no source files given")
	}

	allPassed := true
	for _, source := range opts.Args.Sources {
		passed, err := runSource(ctx, logger, descriptors, source)
		if err != nil {
			logger.Error("test run failed", "source", source, "error", err)
			os.Exit(1)
		}
		if !passed {
			allPassed = false
		}
	}

	if !allPassed {
		os.Exit(1)
	}
}

func discoverAll(ctx context.Context, cache *toolchain.Cache, logger *log.Logger) map[toolchain.Family]*toolchain.Descriptor {
	descriptors := map[toolchain.Family]*toolchain.Descriptor{}
	for _, family := range []toolchain.Family{toolchain.GCC, toolchain.Clang, toolchain.MSVC} {
		found, err := toolchain.Discover(ctx, cache, logger, family)
		if err != nil {
			logger.Warn("discovery failed", "family", family, "error", err)
			continue
		}
		for _, d := range found {
			if _, ok := descriptors[d.Family]; !ok {
				descriptors[d.Family] = d
			}
		}
	}
	return descriptors
}

func printCompilers(descriptors map[toolchain.Family]*toolchain.Descriptor) {
	for family, d := range descriptors {
		fmt.Printf("%s: %s (%s) at %s\n", family, d.Version, d.Target, d.ExecutablePath)
	}
}

func detectLanguage(source string) (string, error) {
	if opts.Language != "" {
		return opts.Language, nil
	}
	ext := strings.ToLower(filepath.Ext(source))
	lang, ok := extensionLanguages[ext]
	if !ok {
		return "", fmt.Errorf("cannot infer language for %s: unrecognized extension %q, pass --language", source, ext)
	}
	return lang, nil
}

func runSource(ctx context.Context, logger *log.Logger, descriptors map[toolchain.Family]*toolchain.Descriptor, source string) (bool, error) {
	language, err := detectLanguage(source)
	if err != nil {
		return false, err
	}

	raw, err := os.ReadFile(source)
	if err != nil {
		return false, fmt.Errorf("reading source: %w", err)
	}

	table := &directive.Table{
		Registry:    directive.NewRegistry(),
		Descriptors: descriptors,
	}
	if err := table.LoadDefaults(language); err != nil {
		return false, fmt.Errorf("loading defaults: %w", err)
	}

	expander := script.New(table)
	preprocessed, err := expander.Expand(source, string(raw))
	if err != nil {
		return false, fmt.Errorf("expanding %s: %w", source, err)
	}

	outDir := opts.Output
	if outDir == "" {
		outDir = filepath.Join(filepath.Dir(source), "build")
	}

	runner := &planner.Runner{Source: source, OutDir: outDir, Log: logger}
	plan := &planner.Plan{Tests: table.Registry.Tests}
	summary, err := runner.Run(ctx, plan, preprocessed)
	if err != nil {
		return false, fmt.Errorf("running plan: %w", err)
	}

	for _, outcome := range summary.Outcomes {
		status := "PASS"
		if !outcome.Passed {
			status = "FAIL"
		}
		fmt.Printf("%s %s [%s %s]: %s\n", status, outcome.Test, outcome.Instance, outcome.Standard, outcome.Assertion)
	}
	for _, unavailable := range summary.Unavailable {
		fmt.Printf("SKIP %s\n", unavailable)
	}
	fmt.Printf("%s: %d checks, pass=%v\n", source, len(summary.Outcomes), summary.Passed)
	return summary.Passed, nil
}
