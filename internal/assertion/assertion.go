// Package assertion models the declarations a test directive makes about a
// compiler's diagnostic output, exit code or error code, and checks them
// against a report.Report.
package assertion

import (
	"fmt"
	"regexp"

	"diagtest/internal/report"
)

// TextOrRegex is a tagged variant holding exactly one of a literal text
// match or a regular expression match, enforced structurally by only
// constructing it through NewText/NewPattern.
type TextOrRegex struct {
	text    *string
	pattern *regexp.Regexp
}

// NewText builds a TextOrRegex matching s byte-exactly.
func NewText(s string) TextOrRegex {
	return TextOrRegex{text: &s}
}

// NewPattern builds a TextOrRegex matching re, anchored at the start (not
// the end) of the diagnostic message.
func NewPattern(re *regexp.Regexp) TextOrRegex {
	return TextOrRegex{pattern: re}
}

// Matches reports whether message satisfies this TextOrRegex.
func (t TextOrRegex) Matches(message string) bool {
	if t.text != nil {
		return *t.text == message
	}
	loc := t.pattern.FindStringIndex(message)
	return loc != nil && loc[0] == 0
}

// String renders t the way it appeared in the test source: the literal
// text itself, or the pattern marked as a match.
func (t TextOrRegex) String() string {
	if t.text != nil {
		return *t.text
	}
	return fmt.Sprintf("MATCHES: %s", t.pattern)
}

// Kind is the closed sum type of assertion shapes.
type Kind int

const (
	KindMessage Kind = iota
	KindReturnCode
	KindErrorCode
)

// Assertion is one user-declared expectation about a compiler invocation's
// Report, bound to exactly one Kind's fields.
type Assertion struct {
	Kind Kind

	// KindMessage
	Severity report.Severity
	Match    TextOrRegex

	// KindReturnCode
	ExpectedCode int

	// KindErrorCode
	ExpectedErrorCode string
}

// Message builds a MessageAssertion.
func Message(severity report.Severity, match TextOrRegex) Assertion {
	return Assertion{Kind: KindMessage, Severity: severity, Match: match}
}

// ReturnCode builds a ReturnCodeAssertion.
func ReturnCode(code int) Assertion {
	return Assertion{Kind: KindReturnCode, ExpectedCode: code}
}

// ErrorCode builds an ErrorCodeAssertion.
func ErrorCode(code string) Assertion {
	return Assertion{Kind: KindErrorCode, ExpectedErrorCode: code}
}

// String renders a the way original_source's SimpleAssertion/RegexAssertion
// __repr__ did, e.g. "REQUIRE error: cannot convert" or "REQUIRE
// return_code: 1", so a failed check prints readably instead of as a raw
// struct dump.
func (a Assertion) String() string {
	switch a.Kind {
	case KindMessage:
		return fmt.Sprintf("REQUIRE %s: %s", a.Severity, a.Match)
	case KindReturnCode:
		return fmt.Sprintf("REQUIRE return_code: %d", a.ExpectedCode)
	case KindErrorCode:
		return fmt.Sprintf("REQUIRE error_code: %s", a.ExpectedErrorCode)
	default:
		return "REQUIRE <unknown assertion>"
	}
}

// Check evaluates a against r, implementing spec's matching table exactly:
// message assertions look only within their declared severity's bucket;
// error-code assertions search every bucket since MSVC may attach a code to
// any severity.
func Check(a Assertion, r *report.Report) bool {
	switch a.Kind {
	case KindMessage:
		for _, d := range r.Diagnostics(a.Severity) {
			if a.Match.Matches(d.Message) {
				return true
			}
		}
		return false
	case KindReturnCode:
		return r.ExitCode == a.ExpectedCode
	case KindErrorCode:
		for _, d := range r.AllDiagnostics() {
			if d.ErrorCode != nil && *d.ErrorCode == a.ExpectedErrorCode {
				return true
			}
		}
		return false
	default:
		return false
	}
}
