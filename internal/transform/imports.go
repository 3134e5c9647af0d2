package transform

import (
	"regexp"
	"strings"

	"github.com/yungbote/studioforge-backend/internal/types"
)

// Import extraction is a structural scan, not a language parse. The authoring
// dialect only allows three import shapes (default, named brace list,
// namespace alias), each bound to a from-clause, so a rule regexp matched
// left-to-right is enough. Anything that does not match a shape is skipped;
// the scanner never fails.

var importDeclRE = regexp.MustCompile(
	`import\s+` +
		`(?:([A-Za-z_$][A-Za-z0-9_$]*)\s*,\s*)?` + // optional default before a comma
		`(?:\{([^{}]*)\}` + // named brace list
		`|\*\s+as\s+([A-Za-z_$][A-Za-z0-9_$]*)` + // namespace alias
		`|([A-Za-z_$][A-Za-z0-9_$]*))` + // default only
		`\s*from\s*['"]([^'"]+)['"]\s*;?`)

var identRE = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*$`)

// ParseImports extracts every recognizable import declaration from raw
// snippet text, in source order. Malformed declarations are dropped silently;
// a snippet with no imports yields an empty list.
func ParseImports(raw string) []types.ImportDeclaration {
	decls := make([]types.ImportDeclaration, 0)
	if strings.TrimSpace(raw) == "" {
		return decls
	}
	for _, m := range importDeclRE.FindAllStringSubmatch(raw, -1) {
		decl := types.ImportDeclaration{
			Source:  m[5],
			RawText: strings.TrimSpace(m[0]),
		}
		if m[1] != "" {
			decl.DefaultSymbol = m[1]
		}
		if m[4] != "" {
			decl.DefaultSymbol = m[4]
		}
		if m[3] != "" {
			decl.NamespaceSymbol = m[3]
		}
		if m[2] != "" {
			decl.NamedSymbols = parseNamedList(m[2])
		}
		decls = append(decls, decl)
	}
	return decls
}

// parseNamedList splits a brace list into exported symbol names. Aliases
// ("X as Y") keep the exported name X, since classification and resolution
// both key on what the module exports, not on the local binding.
func parseNamedList(list string) []string {
	parts := strings.Split(list, ",")
	symbols := make([]string, 0, len(parts))
	for _, part := range parts {
		name := strings.TrimSpace(part)
		if name == "" {
			continue
		}
		if idx := strings.Index(name, " as "); idx >= 0 {
			name = strings.TrimSpace(name[:idx])
		}
		if !identRE.MatchString(name) {
			continue
		}
		symbols = append(symbols, name)
	}
	return symbols
}
