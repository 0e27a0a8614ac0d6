package assertion

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"diagtest/internal/report"
)

func sampleReport() *report.Report {
	errCode := "C2065"
	r := report.New("gcc 13 (c++17)", "gcc -std=c++17 a.cc", 1, "", "", time.Now(), time.Now())
	r.Extend(report.Diagnostic{Severity: report.Warning, Message: "unused variable 'x'"})
	r.Extend(report.Diagnostic{Severity: report.Error, Message: "undeclared identifier 'y'", ErrorCode: &errCode})
	return r
}

func TestCheckMessageText(t *testing.T) {
	a := Message(report.Warning, NewText("unused variable 'x'"))
	assert.True(t, Check(a, sampleReport()))

	a = Message(report.Warning, NewText("not present"))
	assert.False(t, Check(a, sampleReport()))
}

func TestCheckMessageWrongSeverityBucket(t *testing.T) {
	a := Message(report.Note, NewText("unused variable 'x'"))
	assert.False(t, Check(a, sampleReport()), "message assertion only searches its declared severity bucket")
}

func TestCheckMessagePatternAnchoredAtStart(t *testing.T) {
	a := Message(report.Error, NewPattern(regexp.MustCompile(`undeclared`)))
	assert.True(t, Check(a, sampleReport()))

	a = Message(report.Error, NewPattern(regexp.MustCompile(`identifier`)))
	assert.False(t, Check(a, sampleReport()), "regex match must be anchored at message start")
}

func TestCheckReturnCode(t *testing.T) {
	assert.True(t, Check(ReturnCode(1), sampleReport()))
	assert.False(t, Check(ReturnCode(0), sampleReport()))
}

func TestCheckErrorCodeSearchesAllSeverities(t *testing.T) {
	assert.True(t, Check(ErrorCode("C2065"), sampleReport()))
	assert.False(t, Check(ErrorCode("C9999"), sampleReport()))
}

func TestAssertionStringMatchesReprStyle(t *testing.T) {
	a := Message(report.Error, NewText("undeclared identifier 'y'"))
	assert.Equal(t, "REQUIRE error: undeclared identifier 'y'", a.String())

	a = Message(report.Warning, NewPattern(regexp.MustCompile(`unused`)))
	assert.Equal(t, "REQUIRE warning: MATCHES: unused", a.String())

	assert.Equal(t, "REQUIRE return_code: 1", ReturnCode(1).String())
	assert.Equal(t, "REQUIRE error_code: C2065", ErrorCode("C2065").String())
}

func TestTextOrRegexMatches(t *testing.T) {
	text := NewText("exact")
	assert.True(t, text.Matches("exact"))
	assert.False(t, text.Matches("exactly"))

	pattern := NewPattern(regexp.MustCompile(`^abc`))
	assert.True(t, pattern.Matches("abcdef"))
	assert.False(t, pattern.Matches("xabc"))
}
