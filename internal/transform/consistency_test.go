package transform

import (
	"reflect"
	"testing"

	"github.com/yungbote/studioforge-backend/internal/types"
)

func TestReferencedSymbols(t *testing.T) {
	code := `const X = () => h(Card, null, h(Fragment, null, h(Star, null), h("div", null), h(Card, null)));`
	got := ReferencedSymbols(code)
	if !reflect.DeepEqual(got, []string{"Card", "Star"}) {
		t.Fatalf("wrong referenced symbols: %v", got)
	}
}

func TestCheckConsistency_Clean(t *testing.T) {
	m := types.NewDependencyManifest()
	m.RequiredComponents["Card"] = "@/components/ui/card"
	m.RequiredIcons = append(m.RequiredIcons, "Star")
	code := `const Local = () => h(Card, null, h(Star, null), h(Local, null));`
	if missing := CheckConsistency(code, m); len(missing) != 0 {
		t.Fatalf("expected clean check, got missing %v", missing)
	}
}

func TestCheckConsistency_ReportsMissing(t *testing.T) {
	m := types.NewDependencyManifest()
	code := `const X = () => h(Mystery, null);`
	missing := CheckConsistency(code, m)
	if !reflect.DeepEqual(missing, []string{"Mystery"}) {
		t.Fatalf("expected Mystery reported, got %v", missing)
	}
}

func TestCheckConsistency_CustomImportCounts(t *testing.T) {
	m := types.NewDependencyManifest()
	m.CustomImports = append(m.CustomImports, types.ImportDeclaration{
		Source:        "./local/widget",
		DefaultSymbol: "Widget",
	})
	code := `const X = () => h(Widget, null);`
	if missing := CheckConsistency(code, m); len(missing) != 0 {
		t.Fatalf("custom import symbol should satisfy the check, got %v", missing)
	}
}
