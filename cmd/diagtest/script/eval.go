package script

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"diagtest/internal/directive"
	"diagtest/internal/toolchain"
)

const (
	delimOpen  = "{{"
	delimClose = "}}"
)

// segment is one piece of a script split into literal source text and
// directive statement text.
type segment struct {
	directive bool
	text      string
}

func splitSegments(source string) ([]segment, error) {
	var segments []segment
	rest := source
	for {
		i := strings.Index(rest, delimOpen)
		if i < 0 {
			segments = append(segments, segment{text: rest})
			return segments, nil
		}
		if i > 0 {
			segments = append(segments, segment{text: rest[:i]})
		}
		rest = rest[i+len(delimOpen):]
		j := strings.Index(rest, delimClose)
		if j < 0 {
			return nil, fmt.Errorf("script: unterminated %q directive", delimOpen)
		}
		segments = append(segments, segment{directive: true, text: rest[:j]})
		rest = rest[j+len(delimClose):]
	}
}

// Expander drives a diagtest script's template expansion against a
// directive.Table, resolving `include(...)` relative to whichever file is
// currently being expanded.
type Expander struct {
	Table       *directive.Table
	ReadFile    func(path string) ([]byte, error)
	currentFile string
	including   map[string]bool
}

// New constructs an Expander reading included files from disk.
func New(table *directive.Table) *Expander {
	e := &Expander{Table: table, ReadFile: os.ReadFile, including: map[string]bool{}}
	table.CurrentFile = func() string { return e.currentFile }
	return e
}

// Expand runs path's script text through the directive table, returning the
// preprocessed source with every `test(...) ... end` block replaced by its
// gated body.
func (e *Expander) Expand(path, source string) (string, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		absPath = path
	}
	if e.including[absPath] {
		return "", fmt.Errorf("script: %s includes itself", absPath)
	}
	e.including[absPath] = true
	defer delete(e.including, absPath)

	previous := e.currentFile
	e.currentFile = absPath
	defer func() { e.currentFile = previous }()

	segments, err := splitSegments(source)
	if err != nil {
		return "", err
	}

	var out strings.Builder
	var pendingGate func(string) string
	var blockBody strings.Builder
	inBlock := false

	flushLiteral := func(text string) {
		if inBlock {
			blockBody.WriteString(text)
		} else {
			out.WriteString(text)
		}
	}

	for _, seg := range segments {
		if !seg.directive {
			flushLiteral(seg.text)
			continue
		}
		trimmed := strings.TrimSpace(seg.text)
		if trimmed == "end" {
			if !inBlock {
				return "", fmt.Errorf("script: %q with no matching test(...)", "end")
			}
			out.WriteString(pendingGate(blockBody.String()))
			inBlock = false
			pendingGate = nil
			blockBody.Reset()
			continue
		}

		stmt, err := parseStatement(trimmed)
		if err != nil {
			return "", err
		}
		gate, included, err := e.exec(stmt)
		if err != nil {
			return "", err
		}
		if included != "" {
			flushLiteral(included)
			continue
		}
		if gate != nil {
			if inBlock {
				return "", fmt.Errorf("script: nested test(...) blocks are not supported")
			}
			inBlock = true
			pendingGate = gate
		}
	}
	if inBlock {
		return "", fmt.Errorf("script: test(...) block never closed with \"end\"")
	}
	return out.String(), nil
}

// exec executes one parsed statement. It returns a non-nil gate function if
// the statement opened a test(...) block, or non-empty included text if the
// statement was an include(...).
func (e *Expander) exec(stmt *statement) (gate func(string) string, included string, err error) {
	switch stmt.Base {
	case "include":
		if len(stmt.BaseArgs) != 1 {
			return nil, "", fmt.Errorf("script: include() takes exactly one argument")
		}
		resolved, err := e.Table.Include(stmt.BaseArgs[0].Str)
		if err != nil {
			return nil, "", err
		}
		raw, err := e.ReadFile(resolved)
		if err != nil {
			return nil, "", fmt.Errorf("script: reading included file %s: %w", resolved, err)
		}
		expanded, err := e.Expand(resolved, string(raw))
		if err != nil {
			return nil, "", err
		}
		return nil, expanded, nil

	case "load_defaults":
		if len(stmt.BaseArgs) != 1 {
			return nil, "", fmt.Errorf("script: load_defaults() takes exactly one argument")
		}
		return nil, "", e.Table.LoadDefaults(stmt.BaseArgs[0].Str)

	case "test":
		if len(stmt.BaseArgs) != 1 {
			return nil, "", fmt.Errorf("script: test() takes exactly one argument")
		}
		g, err := e.Table.Test(stmt.BaseArgs[0].Str)
		if err != nil {
			return nil, "", err
		}
		return g, "", nil

	default:
		return nil, "", e.execAssertion(stmt)
	}
}

// execAssertion resolves stmt's base identifier to a toolchain.Instance and
// dispatches its chained method calls (`gcc.note(...)`, `gcc.return_code(0)`,
// ...) against the table.
func (e *Expander) execAssertion(stmt *statement) error {
	inst, err := e.resolveInstance(stmt)
	if err != nil {
		return err
	}
	for _, call := range stmt.Chain {
		if err := e.dispatch(inst, call); err != nil {
			return err
		}
	}
	return nil
}

func (e *Expander) resolveInstance(stmt *statement) (toolchain.Instance, error) {
	val, ok := e.Table.Registry.Globals.Get(stmt.Base)
	if !ok {
		return toolchain.Instance{}, fmt.Errorf("script: %q is not a known compiler global (did you call load_defaults()?)", stmt.Base)
	}
	if !stmt.BaseCall {
		inst, ok := val.(toolchain.Instance)
		if !ok {
			return toolchain.Instance{}, fmt.Errorf("script: %q must be called with arguments to select options/standards", stmt.Base)
		}
		return inst, nil
	}
	ctor, ok := val.(directive.Constructor)
	if !ok {
		return toolchain.Instance{}, fmt.Errorf("script: %q is not callable", stmt.Base)
	}
	var options, stdTerms []string
	for _, a := range stmt.BaseArgs {
		switch a.Name {
		case "options":
			if !a.IsList {
				return toolchain.Instance{}, fmt.Errorf("script: %q's options= argument must be a list of strings", stmt.Base)
			}
			options = a.List
		case "std":
			if !a.IsList {
				return toolchain.Instance{}, fmt.Errorf("script: %q's std= argument must be a list of strings", stmt.Base)
			}
			stdTerms = a.List
		default:
			return toolchain.Instance{}, fmt.Errorf("script: %q: unknown keyword argument %q", stmt.Base, a.Name)
		}
	}
	inst, err := ctor(options, stdTerms)
	if err != nil {
		return toolchain.Instance{}, fmt.Errorf("script: %q: %w", stmt.Base, err)
	}
	return inst, nil
}

func (e *Expander) dispatch(inst toolchain.Instance, call callExpr) error {
	switch call.Name {
	case "note":
		return e.bindMessage(e.Table.Note, inst, call)
	case "warning":
		return e.bindMessage(e.Table.Warning, inst, call)
	case "error":
		return e.bindMessage(e.Table.Error, inst, call)
	case "fatal_error":
		return e.bindMessage(e.Table.FatalError, inst, call)
	case "return_code":
		if len(call.Args) != 1 || !call.Args[0].IsInt {
			return fmt.Errorf("script: return_code() takes exactly one integer argument")
		}
		return e.Table.ReturnCode(inst, call.Args[0].Int)
	case "error_code":
		if len(call.Args) != 1 || call.Args[0].Name != "" {
			return fmt.Errorf("script: error_code() takes exactly one string argument")
		}
		return e.Table.ErrorCode(inst, call.Args[0].Str)
	default:
		return fmt.Errorf("script: unknown assertion directive %q", call.Name)
	}
}

type messageBinder func(inst toolchain.Instance, text, pattern *string) error

func (e *Expander) bindMessage(bind messageBinder, inst toolchain.Instance, call callExpr) error {
	var text, pattern *string
	for i, a := range call.Args {
		switch {
		case a.Name == "" && i == 0:
			s := a.Str
			text = &s
		case a.Name == "regex":
			if _, err := regexp.Compile(a.Str); err != nil {
				return fmt.Errorf("script: %s(): invalid regex %q: %w", call.Name, a.Str, err)
			}
			s := a.Str
			pattern = &s
		default:
			return fmt.Errorf("script: %s(): unexpected argument", call.Name)
		}
	}
	return bind(inst, text, pattern)
}
