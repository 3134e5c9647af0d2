package transform

import (
	"github.com/yungbote/studioforge-backend/internal/importmap"
	"github.com/yungbote/studioforge-backend/internal/types"
)

// Classify cross-references parsed imports against the registry and builds
// the dependency manifest. Classification is total: every declaration lands
// in exactly one of the three buckets (icons, components, custom), and
// symbols the registry cannot vouch for are dropped from the manifest but
// recorded in UnresolvedSymbols so the authoring UI can warn about typos.
func Classify(decls []types.ImportDeclaration, reg importmap.Registry) types.DependencyManifest {
	m := types.NewDependencyManifest()
	for _, decl := range decls {
		switch {
		case importmap.IsIconModule(decl.Source):
			classifyIcons(&m, decl, reg)
		case isKnownLibraryModule(decl.Source, reg):
			classifyLibrary(&m, decl, reg)
		case importmap.IsAssessmentModule(decl.Source) && decl.DefaultSymbol != "":
			m.RequiredComponents[decl.DefaultSymbol] = decl.Source
		default:
			m.CustomImports = append(m.CustomImports, decl)
		}
	}
	return m
}

// isKnownLibraryModule is an exact-string match against the registry table.
// Icon and assessment paths have their own branches above.
func isKnownLibraryModule(source string, reg importmap.Registry) bool {
	if importmap.IsIconModule(source) || importmap.IsAssessmentModule(source) {
		return false
	}
	_, ok := reg.Exports(source)
	return ok
}

func classifyIcons(m *types.DependencyManifest, decl types.ImportDeclaration, reg importmap.Registry) {
	exports, _ := reg.Exports(decl.Source)
	exported := make(map[string]bool, len(exports))
	for _, name := range exports {
		exported[name] = true
	}
	for _, symbol := range decl.NamedSymbols {
		if !exported[symbol] {
			m.UnresolvedSymbols = append(m.UnresolvedSymbols, symbol)
			continue
		}
		if !m.HasIcon(symbol) {
			m.RequiredIcons = append(m.RequiredIcons, symbol)
		}
	}
	if decl.DefaultSymbol != "" {
		m.UnresolvedSymbols = append(m.UnresolvedSymbols, decl.DefaultSymbol)
	}
	if decl.NamespaceSymbol != "" {
		m.UnresolvedSymbols = append(m.UnresolvedSymbols, decl.NamespaceSymbol)
	}
}

func classifyLibrary(m *types.DependencyManifest, decl types.ImportDeclaration, reg importmap.Registry) {
	exports, _ := reg.Exports(decl.Source)
	exported := make(map[string]bool, len(exports))
	for _, name := range exports {
		exported[name] = true
	}
	for _, symbol := range decl.NamedSymbols {
		if !exported[symbol] {
			m.UnresolvedSymbols = append(m.UnresolvedSymbols, symbol)
			continue
		}
		// Last declaration wins on a symbol-name collision across sources.
		m.RequiredComponents[symbol] = decl.Source
	}
	if decl.DefaultSymbol != "" {
		m.UnresolvedSymbols = append(m.UnresolvedSymbols, decl.DefaultSymbol)
	}
	if decl.NamespaceSymbol != "" {
		m.UnresolvedSymbols = append(m.UnresolvedSymbols, decl.NamespaceSymbol)
	}
}
