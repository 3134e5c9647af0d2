package transform

import (
	"strings"
	"testing"
)

func TestSanitize_StripsImportsAndDefaultExport(t *testing.T) {
	raw := `import { Card } from '@/components/ui/card';

const Intro = (props) => h(Card, null, "hi");

export default Intro;
`
	out := Sanitize(raw)
	if strings.Contains(out, "import") {
		t.Fatalf("import survived sanitization:\n%s", out)
	}
	if strings.Contains(out, "export") {
		t.Fatalf("export survived sanitization:\n%s", out)
	}
	if !strings.Contains(out, "const Intro") {
		t.Fatalf("definition lost:\n%s", out)
	}
	if strings.HasPrefix(out, "\n") {
		t.Fatalf("leading blank lines not trimmed:\n%q", out)
	}
}

func TestSanitize_SideEffectImport(t *testing.T) {
	out := Sanitize(`import './styles.css';
const x = 1;`)
	if strings.Contains(out, "styles.css") {
		t.Fatalf("side-effect import survived:\n%s", out)
	}
}

func TestSanitize_ExportPrefixKeepsDeclaration(t *testing.T) {
	out := Sanitize(`export const Widget = 1;
export default function App() { return 2; }`)
	if !strings.Contains(out, "const Widget = 1;") {
		t.Fatalf("exported const should keep its declaration:\n%s", out)
	}
	if !strings.Contains(out, "function App()") {
		t.Fatalf("default-exported function should keep its declaration:\n%s", out)
	}
	if strings.Contains(out, "export") {
		t.Fatalf("export keyword survived:\n%s", out)
	}
}

func TestSanitize_ReExportList(t *testing.T) {
	out := Sanitize(`export { A, B } from './other';`)
	if strings.TrimSpace(out) != "" {
		t.Fatalf("re-export should be removed entirely, got %q", out)
	}
}
