package planner

import "strings"

// Identifier derives a Test's preprocessor identifier from its display
// name: uppercase, spaces replaced with underscores (spec §8 property 2).
func Identifier(displayName string) string {
	return strings.ToUpper(strings.ReplaceAll(displayName, " ", "_"))
}

// Gate wraps body in the C-family conditional-compilation gate so only the
// compile invocation that defines identifier sees it (spec §6).
func Gate(identifier, body string) string {
	return "#ifdef " + identifier + "\n" + body + "\n#endif\n"
}
