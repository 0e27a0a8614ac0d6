// Package directive models the fixed vocabulary a template expansion
// exposes inside a diagtest source file: include, load_defaults, test, and
// the assertion-binding directives (note/warning/error/fatal_error,
// return_code, error_code). Expansion itself — parsing `{{ }}`-style
// template syntax and walking the resulting tree — is an external
// collaborator's job (spec §1); this package only defines each directive's
// contract and its effect on a Registry.
package directive

import (
	"fmt"
	"path/filepath"
	"regexp"

	"diagtest/internal/assertion"
	"diagtest/internal/ordered"
	"diagtest/internal/planner"
	"diagtest/internal/report"
	"diagtest/internal/stdselect"
	"diagtest/internal/toolchain"
)

// UsageError reports a malformed directive invocation (spec §7).
type UsageError struct {
	Directive string
	Reason    string
}

func (e *UsageError) Error() string {
	return fmt.Sprintf("usage error in %s: %s", e.Directive, e.Reason)
}

// Constructor builds a toolchain.Instance bound to one family/dialect, as
// load_defaults registers per supported compiler family. stdTerms is the
// raw std= query (standard names, integers, or open/closed-range bound
// strings such as ">=17"); it is resolved against the bound descriptor's
// standards through stdselect before Selected is populated (spec §4.E).
type Constructor func(options, stdTerms []string) (toolchain.Instance, error)

// resolveStandards turns stdTerms into the concrete, ordered standard
// list stdselect.Resolve produces. An absent descriptor (the bound
// compiler isn't installed) resolves to no standards — Runner skips
// unavailable instances before Selected is ever consulted.
func resolveStandards(descriptor *toolchain.Descriptor, dialect toolchain.Dialect, stdTerms []string) ([]string, error) {
	query, err := stdselect.ParseTerms(stdTerms)
	if err != nil {
		return nil, err
	}
	if descriptor == nil {
		return nil, nil
	}
	return stdselect.Resolve(string(dialect), descriptor.Standards[dialect], query)
}

// Registry accumulates the Tests a template expansion produces, tracks the
// "most recently opened" Test that assertion directives implicitly bind to
// (matching original_source's self.tests[-1] behavior), and holds the
// load_defaults bindings available to the expansion context.
type Registry struct {
	Tests   []*planner.Test
	current *planner.Test
	Globals *ordered.Map[any]
}

// NewRegistry constructs an empty Registry.
func NewRegistry() *Registry {
	return &Registry{Globals: ordered.NewMap[any]()}
}

// Table is the fixed, typed dispatch table handed to whatever interpreter
// performs template expansion, replacing the dynamic globals dict the
// template language used in original_source.
type Table struct {
	Registry    *Registry
	CurrentFile func() string
	Descriptors map[toolchain.Family]*toolchain.Descriptor
}

// Include resolves path relative to the current template file if it is
// not already absolute. Recursively expanding the resolved path is the
// interpreter's responsibility.
func (t *Table) Include(path string) (string, error) {
	if filepath.IsAbs(path) {
		return path, nil
	}
	if t.CurrentFile == nil {
		return "", &UsageError{Directive: "include", Reason: "no current file to resolve relative path against"}
	}
	return filepath.Join(filepath.Dir(t.CurrentFile()), path), nil
}

var defaultFamilies = []toolchain.Family{toolchain.GCC, toolchain.Clang, toolchain.MSVC}

var canonicalNames = map[toolchain.Family]string{
	toolchain.GCC:   "GCC",
	toolchain.Clang: "Clang",
	toolchain.MSVC:  "MSVC",
}

func dialectForLanguage(language string) (toolchain.Dialect, error) {
	switch language {
	case "c":
		return toolchain.C, nil
	case "c++":
		return toolchain.CPP, nil
	case "gnu":
		return toolchain.GNUC, nil
	case "gnu++":
		return toolchain.GNUCPP, nil
	default:
		return "", &UsageError{Directive: "load_defaults", Reason: fmt.Sprintf("unsupported language %q", language)}
	}
}

// LoadDefaults builds one constructor per supported compiler family bound
// to language, registering each under both the family's canonical name
// ("GCC") and its lowercase alias ("gcc"), plus a ready default Instance
// (zero options, every supported standard selected) under the lowercase
// alias — mirroring original_source's get_defaults, which maps
// {ClassName: wrap(cls), classname: cls(language=language)}.
//
// Repeated calls with different languages merge into Globals rather than
// replacing it wholesale; a name collision between calls is resolved by
// the later call's binding winning (last-write-wins), resolving spec
// §4.G's stated open question the same way Parser.update_globals'
// dict.update semantics would.
func (t *Table) LoadDefaults(language string) error {
	dialect, err := dialectForLanguage(language)
	if err != nil {
		return err
	}
	if t.Registry.Globals == nil {
		t.Registry.Globals = ordered.NewMap[any]()
	}
	for _, family := range defaultFamilies {
		family := family
		descriptor := t.Descriptors[family]
		canonical := canonicalNames[family]
		alias := string(family)

		constructor := Constructor(func(options, stdTerms []string) (toolchain.Instance, error) {
			selected, err := resolveStandards(descriptor, dialect, stdTerms)
			if err != nil {
				return toolchain.Instance{}, err
			}
			return toolchain.Instance{
				Descriptor: descriptor,
				Dialect:    dialect,
				Options:    options,
				Selected:   selected,
			}, nil
		})
		t.Registry.Globals.Set(canonical, constructor)

		defaultInstance, err := constructor(nil, nil)
		if err != nil {
			return err
		}
		t.Registry.Globals.Set(alias, defaultInstance)
	}
	return nil
}

// Test registers a new planner.Test named name, derives its identifier,
// makes it the Registry's current test for subsequent assertion
// directives, and returns a gate function that wraps a test body in the
// C-family conditional-compilation guard (spec §6), binding the returned
// closure to this specific Test even if another `test(...)` call opens
// before the interpreter invokes it.
func (t *Table) Test(name string) (func(body string) string, error) {
	for _, existing := range t.Registry.Tests {
		if existing.DisplayName == name {
			return nil, &UsageError{Directive: "test", Reason: fmt.Sprintf("duplicate test name %q", name)}
		}
	}
	test := planner.NewTest(name)
	t.Registry.Tests = append(t.Registry.Tests, test)
	t.Registry.current = test
	return func(body string) string {
		return planner.Gate(test.Identifier, body)
	}, nil
}

func (t *Table) bindMessage(severity report.Severity, inst toolchain.Instance, text, pattern *string) error {
	if t.Registry.current == nil {
		return &UsageError{Directive: string(severity), Reason: "no test is currently open"}
	}
	if (text == nil) == (pattern == nil) {
		return &UsageError{Directive: string(severity), Reason: "exactly one of text or regex must be supplied"}
	}
	var match assertion.TextOrRegex
	if text != nil {
		match = assertion.NewText(*text)
	} else {
		re, err := regexp.Compile(*pattern)
		if err != nil {
			return &UsageError{Directive: string(severity), Reason: err.Error()}
		}
		match = assertion.NewPattern(re)
	}
	t.Registry.current.Extend(inst, assertion.Message(severity, match))
	return nil
}

// Note binds a note-severity Message assertion to inst on the current test.
func (t *Table) Note(inst toolchain.Instance, text, pattern *string) error {
	return t.bindMessage(report.Note, inst, text, pattern)
}

// Warning binds a warning-severity Message assertion.
func (t *Table) Warning(inst toolchain.Instance, text, pattern *string) error {
	return t.bindMessage(report.Warning, inst, text, pattern)
}

// Error binds an error-severity Message assertion.
func (t *Table) Error(inst toolchain.Instance, text, pattern *string) error {
	return t.bindMessage(report.Error, inst, text, pattern)
}

// FatalError binds a fatal_error-severity Message assertion.
func (t *Table) FatalError(inst toolchain.Instance, text, pattern *string) error {
	return t.bindMessage(report.FatalError, inst, text, pattern)
}

// ReturnCode binds a ReturnCode assertion to inst on the current test.
func (t *Table) ReturnCode(inst toolchain.Instance, code int) error {
	if t.Registry.current == nil {
		return &UsageError{Directive: "return_code", Reason: "no test is currently open"}
	}
	t.Registry.current.Extend(inst, assertion.ReturnCode(code))
	return nil
}

// ErrorCode binds an ErrorCode assertion to inst on the current test.
func (t *Table) ErrorCode(inst toolchain.Instance, code string) error {
	if t.Registry.current == nil {
		return &UsageError{Directive: "error_code", Reason: "no test is currently open"}
	}
	t.Registry.current.Extend(inst, assertion.ErrorCode(code))
	return nil
}
