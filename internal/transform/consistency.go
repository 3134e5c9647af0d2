package transform

import (
	"regexp"

	"github.com/yungbote/studioforge-backend/internal/types"
)

// The invariant: transformed code is only served alongside a manifest that
// can account for every symbol its construction calls reference. When the
// check fails the pipeline falls back to raw-text mode for that section.

var (
	constructionRefRE = regexp.MustCompile(`\bh\(\s*([A-Z][A-Za-z0-9_]*)`)
	localDefRE        = regexp.MustCompile(`\b(?:const|let|var|function)\s+([A-Z][A-Za-z0-9_]*)`)
)

// ReferencedSymbols returns the component-position symbol names appearing in
// construction calls, deduplicated in first-use order. Lowercase tags are
// string literals in the emitted calls and never show up here.
func ReferencedSymbols(code string) []string {
	seen := make(map[string]bool)
	out := make([]string, 0)
	for _, m := range constructionRefRE.FindAllStringSubmatch(code, -1) {
		name := m[1]
		if name == "Fragment" {
			continue
		}
		if !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}
	return out
}

// LocalDefinitions returns component names the code defines itself.
func LocalDefinitions(code string) map[string]bool {
	defs := make(map[string]bool)
	for _, m := range localDefRE.FindAllStringSubmatch(code, -1) {
		defs[m[1]] = true
	}
	return defs
}

// CheckConsistency reports the referenced symbols the manifest cannot
// account for. Empty result means the code/manifest pair is safe to serve.
func CheckConsistency(code string, manifest types.DependencyManifest) []string {
	local := LocalDefinitions(code)
	custom := make(map[string]bool)
	for _, ci := range manifest.CustomImports {
		if ci.DefaultSymbol != "" {
			custom[ci.DefaultSymbol] = true
		}
		if ci.NamespaceSymbol != "" {
			custom[ci.NamespaceSymbol] = true
		}
		for _, s := range ci.NamedSymbols {
			custom[s] = true
		}
	}

	missing := make([]string, 0)
	for _, name := range ReferencedSymbols(code) {
		if local[name] || custom[name] || manifest.HasIcon(name) {
			continue
		}
		if _, ok := manifest.RequiredComponents[name]; ok {
			continue
		}
		missing = append(missing, name)
	}
	return missing
}
