package resolver

import (
	"testing"

	"github.com/yungbote/studioforge-backend/internal/importmap"
	"github.com/yungbote/studioforge-backend/internal/types"
)

func widgetTable() SymbolTable {
	return SymbolTable{
		"Card": {Name: "Card", Source: importmap.UIModulePrefix + "card", Kind: importmap.KindWidget},
		"Star": {Name: "Star", Source: importmap.IconModulePath, Kind: importmap.KindIcon},
	}
}

func TestEvaluate_SimpleComponent(t *testing.T) {
	code := `const X = (props) => h(Card, {className: "intro", count: 3, open: true}, "hi");`
	node, err := NewTreeEvaluator().Evaluate(code, "X", widgetTable())
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if node.Kind != types.RenderNodeComponent || node.Name != "Card" {
		t.Fatalf("wrong root node: %+v", node)
	}
	if node.Source != importmap.UIModulePrefix+"card" {
		t.Fatalf("wrong source: %s", node.Source)
	}
	if node.Props["className"] != "intro" {
		t.Fatalf("wrong className prop: %v", node.Props["className"])
	}
	if node.Props["count"] != 3.0 {
		t.Fatalf("wrong count prop: %v", node.Props["count"])
	}
	if node.Props["open"] != true {
		t.Fatalf("wrong open prop: %v", node.Props["open"])
	}
	if len(node.Children) != 1 || node.Children[0].Kind != types.RenderNodeText || node.Children[0].Text != "hi" {
		t.Fatalf("wrong children: %+v", node.Children)
	}
}

func TestEvaluate_ElementAndIcon(t *testing.T) {
	code := `const X = (props) => h("div", {className: "row"}, h(Star, null));`
	node, err := NewTreeEvaluator().Evaluate(code, "X", widgetTable())
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if node.Kind != types.RenderNodeElement || node.Name != "div" {
		t.Fatalf("wrong root: %+v", node)
	}
	if len(node.Children) != 1 || node.Children[0].Kind != types.RenderNodeIcon {
		t.Fatalf("icon child wrong: %+v", node.Children)
	}
}

func TestEvaluate_Fragment(t *testing.T) {
	code := `const X = (props) => h(Fragment, null, "a", "b");`
	node, err := NewTreeEvaluator().Evaluate(code, "X", widgetTable())
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if node.Kind != types.RenderNodeElement || node.Name != "fragment" {
		t.Fatalf("wrong fragment node: %+v", node)
	}
	if len(node.Children) != 2 {
		t.Fatalf("wrong children: %+v", node.Children)
	}
}

func TestEvaluate_InlinesLocalComponents(t *testing.T) {
	code := `const Inner = (props) => h("span", null, "in");
const Outer = (props) => h("div", null, h(Inner, null));`
	node, err := NewTreeEvaluator().Evaluate(code, "Outer", widgetTable())
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if len(node.Children) != 1 {
		t.Fatalf("wrong children: %+v", node.Children)
	}
	inlined := node.Children[0]
	if inlined.Kind != types.RenderNodeElement || inlined.Name != "span" {
		t.Fatalf("local component not inlined: %+v", inlined)
	}
}

func TestEvaluate_UnknownSymbolIsSourceless(t *testing.T) {
	code := `const X = (props) => h(Mystery, null);`
	node, err := NewTreeEvaluator().Evaluate(code, "X", widgetTable())
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if node.Kind != types.RenderNodeComponent || node.Name != "Mystery" || node.Source != "" {
		t.Fatalf("unknown symbol should yield a sourceless component: %+v", node)
	}
}

func TestEvaluate_OpaqueExpressionChild(t *testing.T) {
	code := `const X = (props) => h("div", null, props.items.length);`
	node, err := NewTreeEvaluator().Evaluate(code, "X", widgetTable())
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if len(node.Children) != 1 || node.Children[0].Kind != types.RenderNodeText {
		t.Fatalf("opaque expression should surface as text: %+v", node.Children)
	}
}

func TestEvaluate_ExprProp(t *testing.T) {
	code := `const X = (props) => h(Card, {count: props.n});`
	node, err := NewTreeEvaluator().Evaluate(code, "X", widgetTable())
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	expr, ok := node.Props["count"].(map[string]any)
	if !ok || expr["$expr"] != "props.n" {
		t.Fatalf("expression prop should be wrapped: %+v", node.Props["count"])
	}
}

func TestEvaluate_MissingComponent(t *testing.T) {
	if _, err := NewTreeEvaluator().Evaluate(`const Y = 1;`, "X", widgetTable()); err == nil {
		t.Fatalf("expected error for undefined component")
	}
}

func TestEvaluate_RecursionDepthLimit(t *testing.T) {
	code := `const X = (props) => h(X, null);`
	if _, err := NewTreeEvaluator().Evaluate(code, "X", widgetTable()); err == nil {
		t.Fatalf("expected depth-limit error for recursive component")
	}
}
