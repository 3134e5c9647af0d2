package importmap

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestStaticRegistry_Exports(t *testing.T) {
	reg := NewStaticRegistry("v1")
	exports, ok := reg.Exports(UIModulePrefix + "card")
	if !ok {
		t.Fatalf("card module missing from registry")
	}
	found := false
	for _, name := range exports {
		if name == "Card" {
			found = true
		}
	}
	if !found {
		t.Fatalf("Card not exported by card module: %v", exports)
	}
	if _, ok := reg.Exports("not-a-module"); ok {
		t.Fatalf("unknown module should not report exports")
	}
}

func TestStaticRegistry_Resolve(t *testing.T) {
	reg := NewStaticRegistry("v1")
	ctx := context.Background()

	impl, err := reg.Resolve(ctx, UIModulePrefix+"button", "Button")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if impl.Kind != KindWidget || impl.Name != "Button" {
		t.Fatalf("wrong implementation: %+v", impl)
	}

	impl, err = reg.Resolve(ctx, AssessmentPathPrefix+"MultipleChoice", "MultipleChoice")
	if err != nil {
		t.Fatalf("Resolve assessment failed: %v", err)
	}
	if impl.Kind != KindAssessment {
		t.Fatalf("wrong kind for assessment: %v", impl.Kind)
	}

	if _, err := reg.Resolve(ctx, "not-a-module", "X"); !errors.Is(err, ErrUnknownModule) {
		t.Fatalf("expected ErrUnknownModule, got %v", err)
	}
	if _, err := reg.Resolve(ctx, UIModulePrefix+"button", "Nope"); !errors.Is(err, ErrUnknownSymbol) {
		t.Fatalf("expected ErrUnknownSymbol, got %v", err)
	}
}

func TestStaticRegistry_ResolveIconsBatch(t *testing.T) {
	reg := NewStaticRegistry("v1")
	out, err := reg.ResolveIcons(context.Background(), []string{"Star", "Nope", "Trophy"})
	if err != nil {
		t.Fatalf("ResolveIcons failed: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 resolved icons, got %d", len(out))
	}
	if out["Star"] == nil || out["Star"].Kind != KindIcon {
		t.Fatalf("Star resolved wrong: %+v", out["Star"])
	}
	if _, ok := out["Nope"]; ok {
		t.Fatalf("unknown icon should be absent from the batch result")
	}
}

func TestIsAssessmentModule(t *testing.T) {
	if !IsAssessmentModule(AssessmentPathPrefix + "TrueFalse") {
		t.Fatalf("TrueFalse path should be an assessment module")
	}
	if IsAssessmentModule(UIModulePrefix + "card") {
		t.Fatalf("ui path misclassified as assessment")
	}
	if IsAssessmentModule(AssessmentPathPrefix) {
		t.Fatalf("bare prefix is not a module")
	}
}

func TestLoadWithOverlay(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "importmap.yaml")
	overlay := `version: "v2"
modules:
  "@/components/ui/chart":
    - Chart
    - Legend
icons:
  - Atom
`
	if err := os.WriteFile(path, []byte(overlay), 0o644); err != nil {
		t.Fatalf("write overlay: %v", err)
	}
	reg, err := LoadWithOverlay(path)
	if err != nil {
		t.Fatalf("LoadWithOverlay failed: %v", err)
	}
	if reg.Version() != "v2" {
		t.Fatalf("overlay version not applied: %s", reg.Version())
	}
	if _, ok := reg.Exports("@/components/ui/chart"); !ok {
		t.Fatalf("overlay module missing")
	}
	impl, err := reg.Resolve(context.Background(), IconModulePath, "Atom")
	if err != nil || impl.Kind != KindIcon {
		t.Fatalf("overlay icon not resolvable: %v %+v", err, impl)
	}
	// Base table still intact.
	if _, ok := reg.Exports(UIModulePrefix + "card"); !ok {
		t.Fatalf("base module lost after overlay")
	}
}

func TestLoadWithOverlay_EmptyPath(t *testing.T) {
	reg, err := LoadWithOverlay("")
	if err != nil {
		t.Fatalf("empty path should fall back to the static table: %v", err)
	}
	if _, ok := reg.Exports(RuntimeModulePath); !ok {
		t.Fatalf("runtime module missing from fallback registry")
	}
}
