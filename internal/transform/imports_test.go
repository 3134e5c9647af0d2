package transform

import (
	"reflect"
	"testing"
)

func TestParseImports_NamedList(t *testing.T) {
	raw := `import { Card, CardContent } from '@/components/ui/card';`
	decls := ParseImports(raw)
	if len(decls) != 1 {
		t.Fatalf("expected 1 declaration, got %d", len(decls))
	}
	d := decls[0]
	if d.Source != "@/components/ui/card" {
		t.Fatalf("wrong source: %q", d.Source)
	}
	if !reflect.DeepEqual(d.NamedSymbols, []string{"Card", "CardContent"}) {
		t.Fatalf("wrong named symbols: %v", d.NamedSymbols)
	}
	if d.DefaultSymbol != "" || d.NamespaceSymbol != "" {
		t.Fatalf("unexpected default/namespace: %q %q", d.DefaultSymbol, d.NamespaceSymbol)
	}
}

func TestParseImports_DefaultOnly(t *testing.T) {
	decls := ParseImports(`import MultipleChoice from '@/components/questions/MultipleChoice';`)
	if len(decls) != 1 {
		t.Fatalf("expected 1 declaration, got %d", len(decls))
	}
	if decls[0].DefaultSymbol != "MultipleChoice" {
		t.Fatalf("wrong default symbol: %q", decls[0].DefaultSymbol)
	}
}

func TestParseImports_Namespace(t *testing.T) {
	decls := ParseImports(`import * as Icons from 'lucide-react';`)
	if len(decls) != 1 {
		t.Fatalf("expected 1 declaration, got %d", len(decls))
	}
	if decls[0].NamespaceSymbol != "Icons" {
		t.Fatalf("wrong namespace symbol: %q", decls[0].NamespaceSymbol)
	}
}

func TestParseImports_DefaultPlusNamed(t *testing.T) {
	decls := ParseImports(`import Chart, { Legend } from '@/components/ui/chart';`)
	if len(decls) != 1 {
		t.Fatalf("expected 1 declaration, got %d", len(decls))
	}
	d := decls[0]
	if d.DefaultSymbol != "Chart" {
		t.Fatalf("wrong default symbol: %q", d.DefaultSymbol)
	}
	if !reflect.DeepEqual(d.NamedSymbols, []string{"Legend"}) {
		t.Fatalf("wrong named symbols: %v", d.NamedSymbols)
	}
}

func TestParseImports_Aliases(t *testing.T) {
	decls := ParseImports(`import { Star as Favorite } from 'lucide-react';`)
	if len(decls) != 1 {
		t.Fatalf("expected 1 declaration, got %d", len(decls))
	}
	// Classification keys on the exported name, not the local binding.
	if !reflect.DeepEqual(decls[0].NamedSymbols, []string{"Star"}) {
		t.Fatalf("alias should keep exported name, got %v", decls[0].NamedSymbols)
	}
}

func TestParseImports_MultipleDeclarations(t *testing.T) {
	raw := `import { Card } from '@/components/ui/card';
import { Star } from 'lucide-react';
const X = 1;`
	decls := ParseImports(raw)
	if len(decls) != 2 {
		t.Fatalf("expected 2 declarations, got %d", len(decls))
	}
	if decls[0].Source != "@/components/ui/card" || decls[1].Source != "lucide-react" {
		t.Fatalf("wrong order or sources: %v", decls)
	}
}

func TestParseImports_MalformedSkipped(t *testing.T) {
	cases := []string{
		`import { Card } '@/components/ui/card';`, // missing from
		`import from '@/components/ui/card';`,     // nothing imported
		``,
		`const noImports = true;`,
	}
	for _, raw := range cases {
		decls := ParseImports(raw)
		if len(decls) != 0 {
			t.Fatalf("malformed input %q should yield no declarations, got %v", raw, decls)
		}
	}
}
