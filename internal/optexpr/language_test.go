package optexpr

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"diagtest/internal/toolchain"
)

func TestEvaluate(t *testing.T) {
	env := map[string]any{
		"a": toolchain.Version{1, 2, 3},
		"b": toolchain.Version{4, 5},
		"c": toolchain.Version{1, 2, 3},
	}

	tests := map[string]struct {
		Expr     string
		Err      string
		Expected []string
	}{
		"empty expression errors": {
			Expr: "",
			Err:  "unexpected EOF while scanning extensions",
		},
		"bare version is not a legal return type": {
			Expr: "1.3.0",
			Err:  "expression must evaluate to string or string array",
		},
		"empty single-quoted string errors": {
			Expr: `''`,
			Err:  "string literal cannot be empty",
		},
		"single-quoted string constant": {
			Expr:     `'-an-option'`,
			Expected: []string{"-an-option"},
		},
		"double-quoted string constant": {
			Expr:     `"-another-option"`,
			Expected: []string{"-another-option"},
		},
		"empty array": {
			Expr:     "[]",
			Expected: []string{},
		},
		"array with mixed quotes": {
			Expr:     `['-an-option', "-another-option"]`,
			Expected: []string{"-an-option", "-another-option"},
		},
		"bound identifier is truthy": {
			Expr:     `a ? 'y' : 'n'`,
			Expected: []string{"y"},
		},
		"unbound identifier is falsy": {
			Expr:     `z ? 'y' : 'n'`,
			Expected: []string{"n"},
		},
		"== requires versions on both sides": {
			Expr: "'2' == 2 ? 'y' : 'n'",
			Err:  "left-hand operand to == must be a version",
		},
		"equal versions with implied zero components": {
			Expr:     "3 == 3.0.0 ? 'y' : 'n'",
			Expected: []string{"y"},
		},
		"identifier compared to literal version": {
			Expr:     "a == 1.2.3 ? 'y' : 'n'",
			Expected: []string{"y"},
		},
		"unbound identifier compares as version -1": {
			Expr:     "z == 5.5 ? 'y' : 'n'",
			Expected: []string{"n"},
		},
		">= is inclusive": {
			Expr:     "a >= 1.2.3 ? 'y' : 'n'",
			Expected: []string{"y"},
		},
		"< on identifiers": {
			Expr:     "b < a ? 'y' : 'n'",
			Expected: []string{"n"},
		},
		"negation of bound identifier is false": {
			Expr:     "!a ? 'y' : 'n'",
			Expected: []string{"n"},
		},
		"negation of unbound identifier is true": {
			Expr:     "!z ? 'y' : 'n'",
			Expected: []string{"y"},
		},
		"|| is true when either identifier is bound": {
			Expr:     "a || z ? 'y' : 'n'",
			Expected: []string{"y"},
		},
		"&& requires both identifiers bound": {
			Expr:     "a && z ? 'y' : 'n'",
			Expected: []string{"n"},
		},
		"implicit false branch evaluates to empty array": {
			Expr:     "0 > 1 ? 'y'",
			Expected: []string{},
		},
		"chained ternary": {
			Expr:     "z ? 'y1' : a ? 'y2' : 'n2'",
			Expected: []string{"y2"},
		},
		"&& binds tighter than ||": {
			Expr:     "z || a && z ? 'y' : 'n'",
			Expected: []string{"n"},
		},
		"parentheses override precedence": {
			Expr:     "!(a || z) ? 'y' : 'n'",
			Expected: []string{"n"},
		},
	}

	for desc, tc := range tests {
		t.Run(desc, func(t *testing.T) {
			actual, err := Evaluate(tc.Expr, env)
			if tc.Err == "" {
				assert.NoError(t, err)
				assert.EqualValues(t, tc.Expected, actual)
			} else {
				assert.Nil(t, actual)
				assert.ErrorContains(t, err, tc.Err)
			}
		})
	}
}

func TestEnvironment(t *testing.T) {
	env := Environment(toolchain.GCC, toolchain.Version{13, 2})
	assert.Equal(t, toolchain.Version{13, 2}, env["gcc"])
	assert.NotContains(t, env, "clang")

	env = Environment(toolchain.AppleClang, toolchain.Version{15})
	assert.Equal(t, toolchain.Version{15}, env["aclang"])
}

func TestExpandOptions(t *testing.T) {
	env := Environment(toolchain.GCC, toolchain.Version{13})

	opts, err := ExpandOptions([]string{
		"-Wall",
		"{{ gcc >= 10 ? \"-fdiagnostics-color=never\" }}",
		"{{ clang ? \"-stdlib=libc++\" }}",
	}, env)
	assert.NoError(t, err)
	assert.Equal(t, []string{"-Wall", "-fdiagnostics-color=never"}, opts)
}
