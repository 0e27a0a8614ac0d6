// Package diagparse lifts a compiler's stdout/stderr lines into structured
// report.Diagnostic values. Each compiler family owns one regex with named
// groups drawn from {path, line, column, level, error_code, message};
// lines are matched independently and a partial match never synthesizes a
// diagnostic (spec §4.B).
package diagparse

import (
	"regexp"
	"strconv"
	"strings"

	"diagtest/internal/report"
)

// Parser lifts one stdout/stderr line into a Diagnostic.
type Parser interface {
	// ParseLine returns the Diagnostic found in line and true, or false if
	// line does not match this family's diagnostic pattern at all.
	ParseLine(line string) (report.Diagnostic, bool)
}

var levelNames = map[string]report.Severity{
	"note":        report.Note,
	"warning":     report.Warning,
	"error":       report.Error,
	"fatal error": report.FatalError,
}

// gccClangPattern matches GCC and Clang (including Apple Clang, whose
// diagnostic text shape is identical to upstream Clang's) diagnostic
// lines: an optional "path:line:column:" prefix, then one of
// "error|warning|note:", then the message.
var gccClangPattern = regexp.MustCompile(
	`^(?:(?P<path>[a-zA-Z0-9:/\\.]*?):(?:(?P<line>[0-9]+):)?(?:(?P<column>[0-9]+):)? )?` +
		`(?P<level>error|warning|note): (?P<message>.*)$`,
)

// GCCClang parses GCC, Clang and Apple Clang diagnostic output.
type GCCClang struct{}

func (GCCClang) ParseLine(line string) (report.Diagnostic, bool) {
	return parseNamed(gccClangPattern, line)
}

// msvcPattern matches "path(line): (fatal error|error|warning) C####: message".
var msvcPattern = regexp.MustCompile(
	`^(?P<path>[a-zA-Z0-9:/\\.]*?)\((?P<line>[0-9]+)\): ` +
		`(?P<level>fatal error|error|warning) (?P<error_code>[A-Z][0-9]+): (?P<message>.*)$`,
)

// MSVC parses cl.exe diagnostic output.
type MSVC struct{}

func (MSVC) ParseLine(line string) (report.Diagnostic, bool) {
	return parseNamed(msvcPattern, line)
}

func parseNamed(pattern *regexp.Regexp, line string) (report.Diagnostic, bool) {
	match := pattern.FindStringSubmatch(line)
	if match == nil {
		return report.Diagnostic{}, false
	}
	groups := make(map[string]string, len(match))
	for i, name := range pattern.SubexpNames() {
		if i == 0 || name == "" {
			continue
		}
		groups[name] = match[i]
	}

	level, ok := levelNames[groups["level"]]
	if !ok {
		return report.Diagnostic{}, false
	}

	diag := report.Diagnostic{
		Severity: level,
		Message:  groups["message"],
	}
	if path, ok := groups["path"]; ok && path != "" {
		loc := &report.SourceLocation{Path: path}
		if line, ok := groups["line"]; ok && line != "" {
			if n, err := strconv.Atoi(line); err == nil {
				loc.Line = &n
			}
		}
		if col, ok := groups["column"]; ok && col != "" {
			if n, err := strconv.Atoi(col); err == nil {
				loc.Column = &n
			}
		}
		diag.Location = loc
	}
	if code, ok := groups["error_code"]; ok && code != "" {
		diag.ErrorCode = &code
	}
	return diag, true
}

// ParseLines feeds every line of stdout and stderr through p, appending
// each recognized Diagnostic to rpt. Lines are processed independently;
// multi-line diagnostics are never merged, matching spec §4.B.
func ParseLines(p Parser, rpt *report.Report, stdout, stderr string) {
	for _, line := range strings.Split(stdout, "\n") {
		if diag, ok := p.ParseLine(line); ok {
			rpt.Extend(diag)
		}
	}
	for _, line := range strings.Split(stderr, "\n") {
		if diag, ok := p.ParseLine(line); ok {
			rpt.Extend(diag)
		}
	}
}

// ForFamily returns the Parser appropriate for the given family name
// ("gcc", "clang", "aclang", "msvc"); the second return value is false for
// an unrecognized family.
func ForFamily(family string) (Parser, bool) {
	switch family {
	case "gcc", "clang", "aclang":
		return GCCClang{}, true
	case "msvc":
		return MSVC{}, true
	default:
		return nil, false
	}
}
