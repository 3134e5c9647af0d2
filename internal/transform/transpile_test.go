package transform

import (
	"errors"
	"strings"
	"testing"
)

func mustTranspile(t *testing.T, src string) string {
	t.Helper()
	out, err := Transpile(src)
	if err != nil {
		t.Fatalf("Transpile(%q) failed: %v", src, err)
	}
	return out
}

func TestTranspile_SelfClosing(t *testing.T) {
	out := mustTranspile(t, `const X = () => <Card/>;`)
	if out != `const X = () => h(Card, null);` {
		t.Fatalf("wrong output: %s", out)
	}
}

func TestTranspile_StringAttr(t *testing.T) {
	out := mustTranspile(t, `const X = () => <div className="intro">hi</div>;`)
	want := `const X = () => h("div", {className: "intro"}, "hi");`
	if out != want {
		t.Fatalf("got %s, want %s", out, want)
	}
}

func TestTranspile_BracedAttrAndChildExpr(t *testing.T) {
	out := mustTranspile(t, `const X = (props) => <Badge count={props.n}>{props.label}</Badge>;`)
	want := `const X = (props) => h(Badge, {count: props.n}, props.label);`
	if out != want {
		t.Fatalf("got %s, want %s", out, want)
	}
}

func TestTranspile_BareBooleanAttr(t *testing.T) {
	out := mustTranspile(t, `const X = () => <Input disabled/>;`)
	if out != `const X = () => h(Input, {disabled: true});` {
		t.Fatalf("wrong output: %s", out)
	}
}

func TestTranspile_NestedElements(t *testing.T) {
	src := `const X = () => <Card><CardContent>body</CardContent></Card>;`
	out := mustTranspile(t, src)
	want := `const X = () => h(Card, null, h(CardContent, null, "body"));`
	if out != want {
		t.Fatalf("got %s, want %s", out, want)
	}
}

func TestTranspile_Fragment(t *testing.T) {
	out := mustTranspile(t, `const X = () => <><Card/><Card/></>;`)
	want := `const X = () => h(Fragment, null, h(Card, null), h(Card, null));`
	if out != want {
		t.Fatalf("got %s, want %s", out, want)
	}
}

func TestTranspile_TextCollapsed(t *testing.T) {
	out := mustTranspile(t, "const X = () => <p>  hello\n  world  </p>;")
	want := `const X = () => h("p", null, "hello world");`
	if out != want {
		t.Fatalf("got %s, want %s", out, want)
	}
}

func TestTranspile_NestedMarkupInsideExpr(t *testing.T) {
	src := `const X = (props) => <div>{props.items.map((it) => <Badge key={it.id}>{it.name}</Badge>)}</div>;`
	out := mustTranspile(t, src)
	if !strings.Contains(out, `h(Badge, {key: it.id}, it.name)`) {
		t.Fatalf("nested markup in expression not transpiled: %s", out)
	}
}

func TestTranspile_ComparisonNotMarkup(t *testing.T) {
	src := `const less = a < b;`
	out := mustTranspile(t, src)
	if out != src {
		t.Fatalf("comparison mangled: %s", out)
	}
}

func TestTranspile_ReturnPosition(t *testing.T) {
	src := `function App() { return <Card/>; }`
	out := mustTranspile(t, src)
	if !strings.Contains(out, "return h(Card, null);") {
		t.Fatalf("markup after return not transpiled: %s", out)
	}
}

func TestTranspile_StringsUntouched(t *testing.T) {
	src := `const s = "<Card/>";`
	out := mustTranspile(t, src)
	if out != src {
		t.Fatalf("markup inside string mangled: %s", out)
	}
}

func TestTranspile_CommentChildSkipped(t *testing.T) {
	out := mustTranspile(t, `const X = () => <div>{/* note */}text</div>;`)
	want := `const X = () => h("div", null, "text");`
	if out != want {
		t.Fatalf("got %s, want %s", out, want)
	}
}

func TestTranspile_MismatchedCloseTagFails(t *testing.T) {
	_, err := Transpile(`const X = () => <Card></Badge>;`)
	if err == nil {
		t.Fatalf("expected error for mismatched close tag")
	}
	if !errors.Is(err, ErrTranspile) {
		t.Fatalf("error should wrap ErrTranspile, got %v", err)
	}
}

// Example from the pipeline contract: import is parsed/classified, the
// sanitized remainder transpiles to a construction call.
func TestTranspile_PipelineExample(t *testing.T) {
	raw := `import { Card } from '@/components/ui/card';
const X = () => <Card/>;`
	m := Classify(ParseImports(raw), testRegistry())
	if m.RequiredComponents["Card"] != "@/components/ui/card" {
		t.Fatalf("wrong manifest: %+v", m)
	}
	code := mustTranspile(t, Sanitize(raw))
	if strings.Contains(code, "import") {
		t.Fatalf("import survived: %s", code)
	}
	if !strings.Contains(code, "h(Card, null)") {
		t.Fatalf("no construction call for Card: %s", code)
	}
}
