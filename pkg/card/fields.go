package card

import "regexp"

// fieldToken matches {identifier} placeholder tokens in region text.
// Identifiers are word characters only; braces that do not wrap a valid
// identifier are left untouched.
var fieldToken = regexp.MustCompile(`\{(\w+)\}`)

// Substitute resolves {field} tokens in template against the guest record.
// Known fields are replaced with their string value, unknown identifiers
// with the empty string. There is no escaping syntax. Substitute is a pure,
// total function: it never fails.
func Substitute(template string, g Guest) string {
	return fieldToken.ReplaceAllStringFunc(template, func(tok string) string {
		name := tok[1 : len(tok)-1]
		v, _ := g.Field(name)
		return v
	})
}
