// Package optexpr implements diagtest's conditional option-expression
// language: an `Instance.Options` entry of the form `{{ <expr> }}` is
// evaluated against an environment describing the bound toolchain and
// expands to zero or more literal command-line options.
package optexpr

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"slices"
	"text/scanner"

	"github.com/PaesslerAG/gval"

	"diagtest/internal/toolchain"
)

const (
	// Prefix and Suffix delimit an option-expression within an Instance's
	// Options slice; Evaluate strips them before parsing.
	Prefix = "{{ "
	Suffix = " }}"
)

var scanMode uint = scanner.ScanIdents | scanner.ScanInts | scanner.ScanChars | scanner.ScanStrings

var language = gval.NewLanguage(
	gval.Init(func(ctx context.Context, p *gval.Parser) (gval.Evaluable, error) {
		p.SetMode(scanMode)
		return p.ParseExpression(ctx)
	}),

	gval.PrefixExtension(scanner.Int, parseVersion),
	gval.PrefixExtension(scanner.String, parseDoubleQuotedString),
	gval.PrefixExtension(scanner.Char, parseSingleQuotedString),
	gval.PrefixExtension(scanner.Ident, parseIdent),

	gval.PrefixExtension('[', parseArray),

	gval.PrefixOperator("!", negationOperator),
	gval.InfixOperator("||", boolOperator("||")),
	gval.InfixOperator("&&", boolOperator("&&")),

	gval.InfixOperator("==", compareVersions("==", []int{0})),
	gval.InfixOperator("!=", compareVersions("!=", []int{-1, 1})),
	gval.InfixOperator(">", compareVersions(">", []int{1})),
	gval.InfixOperator(">=", compareVersions(">=", []int{0, 1})),
	gval.InfixOperator("<", compareVersions("<", []int{-1})),
	gval.InfixOperator("<=", compareVersions("<=", []int{-1, 0})),

	gval.PrefixExtension('(', parseParentheses),

	gval.PostfixOperator("?", parseIf),

	gval.Precedence("||", 20),
	gval.Precedence("&&", 21),

	gval.Precedence("==", 40),
	gval.Precedence("!=", 40),
	gval.Precedence(">", 40),
	gval.Precedence(">=", 40),
	gval.Precedence("<", 40),
	gval.Precedence("<=", 40),
)

// ErrInvalidReturnType reports an expression that did not evaluate to a
// string or string array.
var ErrInvalidReturnType = errors.New("optexpr: expression must evaluate to string or string array")

// Evaluate evaluates expr in the given environment, returning the options
// to substitute in its place. An environment maps identifiers (family
// aliases such as "gcc", "clang", "aclang", "msvc") to a toolchain.Version
// when that family was identified, or leaves the identifier unbound
// otherwise.
func Evaluate(expr string, env map[string]any) ([]string, error) {
	out, err := language.EvaluateWithContext(context.Background(), expr, env)
	if err != nil {
		return nil, err
	}
	tout := reflect.TypeOf(out)
	switch {
	case tout == nil:
		return nil, ErrInvalidReturnType
	case tout.Kind() == reflect.String:
		return []string{out.(string)}, nil
	case tout.Kind() == reflect.Slice && tout.Elem().Kind() == reflect.String:
		return out.([]string), nil
	default:
		return nil, ErrInvalidReturnType
	}
}

// Environment builds the expression environment for a toolchain instance,
// using the same identifier set please_cc's own environment() helper uses
// for compilers: "gcc", "clang", "aclang", "msvc".
func Environment(family toolchain.Family, version toolchain.Version) map[string]any {
	env := make(map[string]any)
	switch family {
	case toolchain.GCC:
		env["gcc"] = version
	case toolchain.Clang:
		env["clang"] = version
	case toolchain.AppleClang:
		env["aclang"] = version
	case toolchain.MSVC:
		env["msvc"] = version
	}
	return env
}

// ExpandOptions walks options, evaluating any entry delimited by Prefix/
// Suffix against env and splicing in its result; entries without the
// delimiters pass through unchanged.
func ExpandOptions(options []string, env map[string]any) ([]string, error) {
	var expanded []string
	for _, opt := range options {
		if !hasDelimiters(opt) {
			expanded = append(expanded, opt)
			continue
		}
		inner := opt[len(Prefix) : len(opt)-len(Suffix)]
		result, err := Evaluate(inner, env)
		if err != nil {
			return nil, fmt.Errorf("optexpr: evaluating %q: %w", inner, err)
		}
		expanded = append(expanded, result...)
	}
	return expanded, nil
}

func hasDelimiters(opt string) bool {
	return len(opt) >= len(Prefix)+len(Suffix) &&
		opt[:len(Prefix)] == Prefix &&
		opt[len(opt)-len(Suffix):] == Suffix
}

func negationOperator(c context.Context, a any) (any, error) {
	if a == nil {
		return true, nil
	}
	ab, isBool := a.(bool)
	if isBool {
		return !ab, nil
	}
	_, isVer := a.(toolchain.Version)
	if !isVer {
		return nil, errors.New("operand to ! must be a boolean expression or a version")
	}
	return false, nil
}

func boolOperator(operator string) func(any, any) (any, error) {
	return func(a, b any) (any, error) {
		ab, aIsBool := a.(bool)
		_, aIsVer := a.(toolchain.Version)
		bb, bIsBool := b.(bool)
		_, bIsVer := b.(toolchain.Version)
		if !aIsBool && !aIsVer && a != nil {
			return nil, fmt.Errorf("left-hand operand to %s must be a boolean expression or a version", operator)
		}
		if !bIsBool && !bIsVer && b != nil {
			return nil, fmt.Errorf("right-hand operand to %s must be a boolean expression or a version", operator)
		}
		aTest := (aIsBool && ab) || (aIsVer && a != nil)
		bTest := (bIsBool && bb) || (bIsVer && b != nil)
		if operator == "&&" {
			return aTest && bTest, nil
		}
		return aTest || bTest, nil
	}
}

func compareVersions(operator string, trueValues []int) func(any, any) (any, error) {
	return func(a, b any) (any, error) {
		aVer, aIsVer := a.(toolchain.Version)
		bVer, bIsVer := b.(toolchain.Version)
		if !aIsVer && a != nil {
			return nil, fmt.Errorf("left-hand operand to %s must be a version", operator)
		}
		if !bIsVer && b != nil {
			return nil, fmt.Errorf("right-hand operand to %s must be a version", operator)
		}
		// An unbound identifier (nil) compares as version -1, which always
		// loses to a genuine (non-negative) version number.
		if a == nil {
			aVer = toolchain.Version{-1}
		}
		if b == nil {
			bVer = toolchain.Version{-1}
		}
		return slices.Contains(trueValues, aVer.Compare(bVer)), nil
	}
}
