package types

// Pure JSON contracts for the section transform pipeline. Not DB models;
// they are stored inside jsonb columns on Section and Lesson.

// ImportDeclaration is one parsed import statement from a raw snippet.
type ImportDeclaration struct {
	Source          string   `json:"source"`
	DefaultSymbol   string   `json:"default_symbol,omitempty"`
	NamedSymbols    []string `json:"named_symbols,omitempty"`
	NamespaceSymbol string   `json:"namespace_symbol,omitempty"`
	RawText         string   `json:"raw_text"`
}

// DependencyManifest records which external symbols a snippet's transformed
// code needs. RequiredComponents maps symbol name to source path; a later
// declaration wins when two sources export the same symbol name.
type DependencyManifest struct {
	RequiredComponents map[string]string   `json:"required_components"`
	RequiredIcons      []string            `json:"required_icons"`
	CustomImports      []ImportDeclaration `json:"custom_imports"`

	// UnresolvedSymbols lists names that were dropped during classification
	// (unknown icons, unknown symbols on known modules). Diagnostic only;
	// the drop itself is still the resolution behavior.
	UnresolvedSymbols []string `json:"unresolved_symbols,omitempty"`
}

func NewDependencyManifest() DependencyManifest {
	return DependencyManifest{
		RequiredComponents: make(map[string]string),
		RequiredIcons:      make([]string, 0),
		CustomImports:      make([]ImportDeclaration, 0),
	}
}

func (m DependencyManifest) HasIcon(name string) bool {
	for _, ic := range m.RequiredIcons {
		if ic == name {
			return true
		}
	}
	return false
}

// Merge folds other into m. Component collisions are last-write-wins, icons
// and unresolved names are deduplicated, custom imports are deduplicated by
// raw text.
func (m *DependencyManifest) Merge(other DependencyManifest) {
	if m.RequiredComponents == nil {
		m.RequiredComponents = make(map[string]string)
	}
	for name, source := range other.RequiredComponents {
		m.RequiredComponents[name] = source
	}
	for _, ic := range other.RequiredIcons {
		if !m.HasIcon(ic) {
			m.RequiredIcons = append(m.RequiredIcons, ic)
		}
	}
	seen := make(map[string]bool, len(m.CustomImports))
	for _, ci := range m.CustomImports {
		seen[ci.RawText] = true
	}
	for _, ci := range other.CustomImports {
		if !seen[ci.RawText] {
			m.CustomImports = append(m.CustomImports, ci)
			seen[ci.RawText] = true
		}
	}
	for _, u := range other.UnresolvedSymbols {
		found := false
		for _, existing := range m.UnresolvedSymbols {
			if existing == u {
				found = true
				break
			}
		}
		if !found {
			m.UnresolvedSymbols = append(m.UnresolvedSymbols, u)
		}
	}
}
