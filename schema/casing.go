package schema

import (
	"strings"
	"unicode"

	"github.com/go-openapi/inflect"
)

// Casing helpers used when deriving Go/model identifiers from database
// names (and vice versa) during schema introspection. All-uppercase
// tokens (acronyms such as ID, URL, HTTP) pass through verbatim, and
// identifiers that would start with a digit are prefixed with an
// underscore.

var rules = ruleset()

func ruleset() *inflect.Ruleset {
	r := inflect.NewDefaultRuleset()
	for _, w := range []string{"ACL", "API", "ASCII", "AWS", "CPU", "DB", "GUID", "HTML", "HTTP", "HTTPS", "ID", "IP", "JSON", "QPS", "RAM", "RPC", "SLA", "SMTP", "SQL", "SSH", "TCP", "TLS", "TTL", "UDP", "UI", "UID", "URI", "URL", "UTF8", "UUID", "XML"} {
		r.AddAcronym(w)
	}
	return r
}

// Pluralize returns the plural form of the given word.
func Pluralize(s string) string { return rules.Pluralize(s) }

// Singularize returns the singular form of the given word.
func Singularize(s string) string { return rules.Singularize(s) }

// PascalCase converts the identifier to PascalCase.
func PascalCase(s string) string {
	var b strings.Builder
	for _, tok := range splitIdent(s) {
		if isAllUpper(tok) {
			b.WriteString(tok)
			continue
		}
		b.WriteString(rules.Capitalize(strings.ToLower(tok)))
	}
	return prefixIfDigit(b.String())
}

// CamelCase converts the identifier to camelCase.
func CamelCase(s string) string {
	toks := splitIdent(s)
	var b strings.Builder
	for i, tok := range toks {
		switch {
		case i == 0 && isAllUpper(tok):
			b.WriteString(tok)
		case i == 0:
			b.WriteString(strings.ToLower(tok))
		case isAllUpper(tok):
			b.WriteString(tok)
		default:
			b.WriteString(rules.Capitalize(strings.ToLower(tok)))
		}
	}
	return prefixIfDigit(b.String())
}

// SnakeCase converts the identifier to snake_case.
func SnakeCase(s string) string {
	toks := splitIdent(s)
	out := make([]string, len(toks))
	for i, tok := range toks {
		if isAllUpper(tok) {
			out[i] = tok
			continue
		}
		out[i] = strings.ToLower(tok)
	}
	return prefixIfDigit(strings.Join(out, "_"))
}

// splitIdent splits an identifier into word tokens on underscores,
// dashes, spaces and lower-to-upper boundaries. A run of uppercase
// letters is kept as one token, with a trailing capitalized word split
// off (HTTPServer -> HTTP, Server).
func splitIdent(s string) []string {
	var toks []string
	var cur []rune
	flush := func() {
		if len(cur) > 0 {
			toks = append(toks, string(cur))
			cur = nil
		}
	}
	rs := []rune(s)
	for i, r := range rs {
		switch {
		case r == '_' || r == '-' || r == ' ':
			flush()
		case unicode.IsUpper(r):
			prevUpper := i > 0 && unicode.IsUpper(rs[i-1])
			nextLower := i+1 < len(rs) && unicode.IsLower(rs[i+1])
			// A new word starts at a lower-to-upper boundary, or where
			// an acronym run ends: HTTPServer -> HTTP | Server.
			if !prevUpper || nextLower {
				flush()
			}
			cur = append(cur, r)
		default:
			cur = append(cur, r)
		}
	}
	flush()
	return toks
}

func isAllUpper(s string) bool {
	hasLetter := false
	for _, r := range s {
		if unicode.IsLetter(r) {
			hasLetter = true
			if !unicode.IsUpper(r) {
				return false
			}
		}
	}
	return hasLetter && len([]rune(s)) > 1
}

func prefixIfDigit(s string) string {
	if s == "" {
		return s
	}
	if unicode.IsDigit([]rune(s)[0]) {
		return "_" + s
	}
	return s
}
