package resolver

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/yungbote/studioforge-backend/internal/importmap"
	"github.com/yungbote/studioforge-backend/internal/types"
)

// Evaluator turns transformed code plus a resolved symbol table into a
// render tree. Injected so the evaluation strategy can be swapped without
// touching resolution.
type Evaluator interface {
	Evaluate(code, componentName string, symbols SymbolTable) (*types.RenderNode, error)
}

const maxInlineDepth = 16

// treeEvaluator walks the construction calls the transpiler emits.
// Transformed code is a flat series of `const Name = (props) => <expr>;`
// definitions where every expression bottoms out in h(...) calls, string
// literals, or opaque expressions. Local component references are inlined;
// registry symbols become component/icon nodes for the client renderer.
type treeEvaluator struct{}

func NewTreeEvaluator() Evaluator {
	return &treeEvaluator{}
}

func (e *treeEvaluator) Evaluate(code, componentName string, symbols SymbolTable) (*types.RenderNode, error) {
	defs, err := scanDefinitions(code)
	if err != nil {
		return nil, err
	}
	body, ok := defs[componentName]
	if !ok {
		return nil, fmt.Errorf("component %q is not defined in the code", componentName)
	}
	ev := &exprEval{defs: defs, symbols: symbols}
	return ev.eval(body, 0)
}

// scanDefinitions collects `const Name = (...) => <expr>;` bodies keyed by
// name. Anything else in the code (helper consts, data literals) is kept
// too; inlining just won't find an arrow body inside it.
func scanDefinitions(code string) (map[string]string, error) {
	defs := make(map[string]string)
	i := 0
	for i < len(code) {
		idx := strings.Index(code[i:], "const ")
		if idx < 0 {
			break
		}
		i += idx + len("const ")
		nameEnd := i
		for nameEnd < len(code) && isIdentByte(code[nameEnd]) {
			nameEnd++
		}
		name := code[i:nameEnd]
		j := skipWS(code, nameEnd)
		if name == "" || j >= len(code) || code[j] != '=' || (j+1 < len(code) && code[j+1] == '=') {
			i = nameEnd
			continue
		}
		j = skipWS(code, j+1)
		body, next, err := scanExpression(code, j)
		if err != nil {
			return nil, err
		}
		if arrow := strings.Index(body, "=>"); arrow >= 0 && balancedPrefixIsParams(body[:arrow]) {
			body = strings.TrimSpace(body[arrow+2:])
		}
		defs[name] = body
		i = next
	}
	return defs, nil
}

func balancedPrefixIsParams(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	if s[0] == '(' {
		return strings.HasSuffix(s, ")")
	}
	for k := 0; k < len(s); k++ {
		if !isIdentByte(s[k]) {
			return false
		}
	}
	return true
}

// scanExpression reads source until a top-level `;` or newline that ends
// the statement, respecting strings, parens, braces and brackets.
func scanExpression(src string, i int) (string, int, error) {
	start := i
	depth := 0
	for i < len(src) {
		c := src[i]
		switch c {
		case '(', '{', '[':
			depth++
			i++
		case ')', '}', ']':
			depth--
			i++
		case '\'', '"', '`':
			end, err := skipStringLit(src, i)
			if err != nil {
				return "", 0, err
			}
			i = end
		case ';':
			if depth == 0 {
				return strings.TrimSpace(src[start:i]), i + 1, nil
			}
			i++
		default:
			i++
		}
	}
	return strings.TrimSpace(src[start:]), len(src), nil
}

type exprEval struct {
	defs    map[string]string
	symbols SymbolTable
}

func (e *exprEval) eval(expr string, depth int) (*types.RenderNode, error) {
	if depth > maxInlineDepth {
		return nil, fmt.Errorf("component inlining exceeded depth %d (recursive definition?)", maxInlineDepth)
	}
	expr = strings.TrimSpace(expr)
	if expr == "" || expr == "null" {
		return nil, nil
	}
	if expr[0] == '(' {
		inner, end, err := readBalanced(expr, 0, '(', ')')
		if err == nil && skipWS(expr, end) >= len(expr) {
			return e.eval(inner, depth)
		}
	}
	if expr[0] == '\'' || expr[0] == '"' || expr[0] == '`' {
		if text, ok := unquote(expr); ok {
			return &types.RenderNode{Kind: types.RenderNodeText, Text: text}, nil
		}
	}
	if strings.HasPrefix(expr, importmap.Pragma+"(") {
		return e.evalCall(expr, depth)
	}
	// Opaque expression (conditional, map, variable). Surfaced verbatim so
	// the client can decide what to do with it.
	return &types.RenderNode{Kind: types.RenderNodeText, Text: "{" + expr + "}"}, nil
}

func (e *exprEval) evalCall(expr string, depth int) (*types.RenderNode, error) {
	inner, end, err := readBalanced(expr, len(importmap.Pragma), '(', ')')
	if err != nil {
		return nil, err
	}
	if rest := strings.TrimSpace(expr[end:]); rest != "" {
		return nil, fmt.Errorf("unexpected trailing text after construction call: %q", rest)
	}
	args, aErr := splitArgs(inner)
	if aErr != nil {
		return nil, aErr
	}
	if len(args) == 0 {
		return nil, fmt.Errorf("construction call with no tag argument")
	}

	tag := strings.TrimSpace(args[0])
	var props map[string]any
	if len(args) > 1 {
		props, err = parseProps(args[1])
		if err != nil {
			return nil, err
		}
	}
	childArgs := []string{}
	if len(args) > 2 {
		childArgs = args[2:]
	}
	children := make([]*types.RenderNode, 0, len(childArgs))
	for _, raw := range childArgs {
		child, cErr := e.eval(raw, depth+1)
		if cErr != nil {
			return nil, cErr
		}
		if child != nil {
			children = append(children, child)
		}
	}

	if text, ok := unquote(tag); ok {
		return &types.RenderNode{Kind: types.RenderNodeElement, Name: text, Props: props, Children: children}, nil
	}
	if tag == "Fragment" {
		return &types.RenderNode{Kind: types.RenderNodeElement, Name: "fragment", Props: props, Children: children}, nil
	}
	if body, ok := e.defs[tag]; ok {
		inlined, iErr := e.eval(body, depth+1)
		if iErr != nil {
			return nil, iErr
		}
		if inlined == nil {
			inlined = &types.RenderNode{Kind: types.RenderNodeText, Text: ""}
		}
		return inlined, nil
	}
	if impl, ok := e.symbols[tag]; ok {
		kind := types.RenderNodeComponent
		if impl.Kind == importmap.KindIcon {
			kind = types.RenderNodeIcon
		}
		return &types.RenderNode{Kind: kind, Name: impl.Name, Source: impl.Source, Props: props, Children: children}, nil
	}
	// Unknown symbol: unsupported-import condition, rendered as a
	// sourceless component rather than failing the whole tree.
	return &types.RenderNode{Kind: types.RenderNodeComponent, Name: tag, Props: props, Children: children}, nil
}

func parseProps(raw string) (map[string]any, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "null" {
		return nil, nil
	}
	if raw[0] != '{' {
		return map[string]any{"$expr": raw}, nil
	}
	inner, end, err := readBalanced(raw, 0, '{', '}')
	if err != nil || strings.TrimSpace(raw[end:]) != "" {
		return map[string]any{"$expr": raw}, nil
	}
	entries, sErr := splitArgs(inner)
	if sErr != nil {
		return map[string]any{"$expr": raw}, nil
	}
	props := make(map[string]any, len(entries))
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		colon := topLevelColon(entry)
		if colon < 0 {
			props[entry] = map[string]any{"$expr": entry}
			continue
		}
		key := strings.TrimSpace(entry[:colon])
		if unq, ok := unquote(key); ok {
			key = unq
		}
		props[key] = parsePropValue(strings.TrimSpace(entry[colon+1:]))
	}
	return props, nil
}

func parsePropValue(raw string) any {
	if text, ok := unquote(raw); ok {
		return text
	}
	switch raw {
	case "true":
		return true
	case "false":
		return false
	case "null", "undefined":
		return nil
	}
	if n, err := strconv.ParseFloat(raw, 64); err == nil {
		return n
	}
	return map[string]any{"$expr": raw}
}

// splitArgs splits on top-level commas respecting nesting and strings.
func splitArgs(s string) ([]string, error) {
	args := []string{}
	depth := 0
	start := 0
	i := 0
	for i < len(s) {
		c := s[i]
		switch c {
		case '(', '{', '[':
			depth++
			i++
		case ')', '}', ']':
			depth--
			i++
		case '\'', '"', '`':
			end, err := skipStringLit(s, i)
			if err != nil {
				return nil, err
			}
			i = end
		case ',':
			if depth == 0 {
				args = append(args, strings.TrimSpace(s[start:i]))
				start = i + 1
			}
			i++
		default:
			i++
		}
	}
	if tail := strings.TrimSpace(s[start:]); tail != "" {
		args = append(args, tail)
	}
	return args, nil
}

func topLevelColon(s string) int {
	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(', '{', '[':
			depth++
		case ')', '}', ']':
			depth--
		case '\'', '"', '`':
			end, err := skipStringLit(s, i)
			if err != nil {
				return -1
			}
			i = end - 1
		case ':':
			if depth == 0 {
				return i
			}
		case '?':
			// Ternary before any colon means the whole entry is an expr.
			if depth == 0 {
				return -1
			}
		}
	}
	return -1
}

// readBalanced returns the text between the opener at/after position i and
// its matching closer, plus the index just past the closer.
func readBalanced(s string, i int, open, close byte) (string, int, error) {
	for i < len(s) && s[i] != open {
		i++
	}
	if i >= len(s) {
		return "", 0, fmt.Errorf("expected %q", string(open))
	}
	depth := 0
	start := i + 1
	for i < len(s) {
		c := s[i]
		switch c {
		case open:
			depth++
			i++
		case close:
			depth--
			if depth == 0 {
				return s[start:i], i + 1, nil
			}
			i++
		case '\'', '"', '`':
			end, err := skipStringLit(s, i)
			if err != nil {
				return "", 0, err
			}
			i = end
		default:
			i++
		}
	}
	return "", 0, fmt.Errorf("unbalanced %q", string(open))
}

func skipStringLit(s string, i int) (int, error) {
	quote := s[i]
	i++
	for i < len(s) {
		if s[i] == '\\' {
			i += 2
			continue
		}
		if s[i] == quote {
			return i + 1, nil
		}
		i++
	}
	return 0, fmt.Errorf("unterminated string literal")
}

func unquote(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if len(s) < 2 {
		return "", false
	}
	q := s[0]
	if (q != '\'' && q != '"' && q != '`') || s[len(s)-1] != q {
		return "", false
	}
	inner := s[1 : len(s)-1]
	if strings.IndexByte(inner, q) >= 0 {
		// Embedded same-quote means s is not a single literal.
		esc := true
		for i := 0; i < len(inner); i++ {
			if inner[i] == '\\' {
				i++
				continue
			}
			if inner[i] == q {
				esc = false
				break
			}
		}
		if !esc {
			return "", false
		}
	}
	var b strings.Builder
	for i := 0; i < len(inner); i++ {
		if inner[i] == '\\' && i+1 < len(inner) {
			i++
			switch inner[i] {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			default:
				b.WriteByte(inner[i])
			}
			continue
		}
		b.WriteByte(inner[i])
	}
	return b.String(), true
}

func skipWS(s string, i int) int {
	for i < len(s) && (s[i] == ' ' || s[i] == '\t' || s[i] == '\n' || s[i] == '\r') {
		i++
	}
	return i
}

func isIdentByte(c byte) bool {
	return c == '_' || c == '$' ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}
