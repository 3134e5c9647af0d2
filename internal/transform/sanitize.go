package transform

import (
	"regexp"
	"strings"
)

// Sanitization strips module syntax so the remaining text is a bare sequence
// of declarations and expressions. Rule-table of compiled patterns, applied
// in order; nothing else about the code is reformatted.

var sanitizeRules = []*regexp.Regexp{
	// import declarations in any of the recognized shapes
	importDeclRE,
	// bare side-effect imports: import './styles.css';
	regexp.MustCompile(`import\s*['"][^'"]+['"]\s*;?`),
	// export default of a bare identifier: export default Foo;
	regexp.MustCompile(`(?m)^[ \t]*export\s+default\s+[A-Za-z_$][A-Za-z0-9_$]*\s*;?[ \t]*$`),
	// re-export brace lists: export { A, B } [from '...'];
	regexp.MustCompile(`(?m)^[ \t]*export\s*\{[^{}]*\}\s*(?:from\s*['"][^'"]+['"])?\s*;?[ \t]*$`),
}

var (
	exportDefaultPrefixRE = regexp.MustCompile(`(?m)^([ \t]*)export\s+default\s+`)
	exportPrefixRE        = regexp.MustCompile(`(?m)^([ \t]*)export\s+`)
)

// Sanitize removes import and export statements from raw snippet text and
// trims leading blank lines.
func Sanitize(raw string) string {
	s := raw
	for _, rule := range sanitizeRules {
		s = rule.ReplaceAllString(s, "")
	}
	// export default function App() {...} -> function App() {...}
	s = exportDefaultPrefixRE.ReplaceAllString(s, "$1")
	// export const X = ... -> const X = ...
	s = exportPrefixRE.ReplaceAllString(s, "$1")

	lines := strings.Split(s, "\n")
	start := 0
	for start < len(lines) && strings.TrimSpace(lines[start]) == "" {
		start++
	}
	return strings.Join(lines[start:], "\n")
}
