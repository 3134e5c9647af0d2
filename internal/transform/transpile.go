package transform

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// ErrTranspile wraps any failure of the markup rewrite. Callers fall back to
// the sanitized-but-untranspiled text instead of failing the whole transform.
var ErrTranspile = errors.New("template transpile failed")

// Transpile rewrites the markup-in-code dialect into nested calls of the
// construction pragma: <Card className="x">hi</Card> becomes
// h(Card, {className: "x"}, "hi"). Syntax-level rewrite only; code outside
// markup regions is copied through untouched.
func Transpile(src string) (string, error) {
	t := newTranspiler(src)
	out, err := t.run()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTranspile, err)
	}
	return out, nil
}

type transpiler struct {
	src string
	pos int
	out strings.Builder

	// Last two significant (non-space) characters copied through, used to
	// decide whether a '<' opens markup or is a comparison.
	lastSig byte
	prevSig byte
	// Trailing identifier word, for the `return <` case.
	lastWord strings.Builder
}

func newTranspiler(src string) *transpiler {
	return &transpiler{src: src}
}

func (t *transpiler) run() (string, error) {
	for t.pos < len(t.src) {
		c := t.src[t.pos]
		switch {
		case c == '\'' || c == '"' || c == '`':
			if err := t.copyString(c); err != nil {
				return "", err
			}
		case c == '/' && t.pos+1 < len(t.src) && t.src[t.pos+1] == '/':
			t.copyLineComment()
		case c == '/' && t.pos+1 < len(t.src) && t.src[t.pos+1] == '*':
			if err := t.copyBlockComment(); err != nil {
				return "", err
			}
		case c == '<' && t.markupStarts():
			call, next, err := t.parseElement(t.pos)
			if err != nil {
				return "", err
			}
			t.out.WriteString(call)
			t.pos = next
			t.noteSig(')')
		default:
			t.copyByte()
		}
	}
	return t.out.String(), nil
}

func (t *transpiler) copyByte() {
	c := t.src[t.pos]
	t.out.WriteByte(c)
	t.pos++
	t.noteSig(c)
}

func (t *transpiler) noteSig(c byte) {
	if c == ' ' || c == '\t' || c == '\n' || c == '\r' {
		return
	}
	t.prevSig = t.lastSig
	t.lastSig = c
	if isWordByte(c) {
		t.lastWord.WriteByte(c)
	} else {
		t.lastWord.Reset()
	}
}

func isWordByte(c byte) bool {
	return c == '_' || c == '$' ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

func (t *transpiler) copyString(quote byte) error {
	t.copyByte()
	for t.pos < len(t.src) {
		c := t.src[t.pos]
		if c == '\\' && t.pos+1 < len(t.src) {
			t.copyByte()
			t.copyByte()
			continue
		}
		t.copyByte()
		if c == quote {
			return nil
		}
	}
	return fmt.Errorf("unterminated string literal")
}

func (t *transpiler) copyLineComment() {
	for t.pos < len(t.src) && t.src[t.pos] != '\n' {
		t.out.WriteByte(t.src[t.pos])
		t.pos++
	}
}

func (t *transpiler) copyBlockComment() error {
	t.out.WriteString("/*")
	t.pos += 2
	for t.pos+1 < len(t.src) {
		if t.src[t.pos] == '*' && t.src[t.pos+1] == '/' {
			t.out.WriteString("*/")
			t.pos += 2
			return nil
		}
		t.out.WriteByte(t.src[t.pos])
		t.pos++
	}
	return fmt.Errorf("unterminated block comment")
}

// markupStarts reports whether the '<' at t.pos opens a markup element: the
// next character must start a tag (or a fragment), and the '<' must sit in
// expression position rather than after an operand.
func (t *transpiler) markupStarts() bool {
	if t.pos+1 >= len(t.src) {
		return false
	}
	next := t.src[t.pos+1]
	if next != '>' && !isTagStartByte(next) {
		return false
	}
	if t.lastSig == 0 {
		return true
	}
	if strings.IndexByte("(,{[=?:;&|", t.lastSig) >= 0 {
		return true
	}
	if t.lastSig == '>' && t.prevSig == '=' { // arrow body
		return true
	}
	return t.lastWord.String() == "return"
}

func isTagStartByte(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

type jsxAttr struct {
	name  string
	value string // emitted value text
}

// parseElement parses one element or fragment starting at the '<' at start
// and returns the emitted construction call plus the index just past it.
func (t *transpiler) parseElement(start int) (string, int, error) {
	src := t.src
	i := start + 1
	if i < len(src) && src[i] == '>' {
		// fragment
		children, next, err := t.parseChildren(i+1, "")
		if err != nil {
			return "", 0, err
		}
		return emitCall("Fragment", nil, children), next, nil
	}

	tag, i, err := readTagName(src, i)
	if err != nil {
		return "", 0, err
	}

	attrs := make([]jsxAttr, 0, 4)
	for {
		i = skipSpace(src, i)
		if i >= len(src) {
			return "", 0, fmt.Errorf("unterminated element <%s>", tag)
		}
		if src[i] == '/' {
			if i+1 >= len(src) || src[i+1] != '>' {
				return "", 0, fmt.Errorf("malformed self-closing tag <%s>", tag)
			}
			return emitCall(tag, attrs, nil), i + 2, nil
		}
		if src[i] == '>' {
			children, next, err := t.parseChildren(i+1, tag)
			if err != nil {
				return "", 0, err
			}
			return emitCall(tag, attrs, children), next, nil
		}
		attr, next, err := t.parseAttr(i, tag)
		if err != nil {
			return "", 0, err
		}
		attrs = append(attrs, attr)
		i = next
	}
}

func readTagName(src string, i int) (string, int, error) {
	start := i
	for i < len(src) && (isWordByte(src[i]) || src[i] == '-') {
		i++
	}
	if i == start {
		return "", 0, fmt.Errorf("missing tag name at offset %d", start)
	}
	return src[start:i], i, nil
}

func (t *transpiler) parseAttr(i int, tag string) (jsxAttr, int, error) {
	src := t.src
	start := i
	for i < len(src) && (isWordByte(src[i]) || src[i] == '-') {
		i++
	}
	if i == start {
		return jsxAttr{}, 0, fmt.Errorf("malformed attribute in <%s> at offset %d", tag, i)
	}
	name := src[start:i]
	i = skipSpace(src, i)
	if i >= len(src) || src[i] != '=' {
		// bare boolean attribute
		return jsxAttr{name: name, value: "true"}, i, nil
	}
	i = skipSpace(src, i+1)
	if i >= len(src) {
		return jsxAttr{}, 0, fmt.Errorf("missing value for attribute %s in <%s>", name, tag)
	}
	switch src[i] {
	case '"', '\'':
		content, next, err := readQuoted(src, i)
		if err != nil {
			return jsxAttr{}, 0, err
		}
		return jsxAttr{name: name, value: strconv.Quote(content)}, next, nil
	case '{':
		expr, next, err := readBraced(src, i)
		if err != nil {
			return jsxAttr{}, 0, err
		}
		value, err := newTranspiler(expr).run()
		if err != nil {
			return jsxAttr{}, 0, err
		}
		return jsxAttr{name: name, value: strings.TrimSpace(value)}, next, nil
	default:
		return jsxAttr{}, 0, fmt.Errorf("unquoted value for attribute %s in <%s>", name, tag)
	}
}

// parseChildren consumes children until the matching close tag. tag is ""
// for fragments (closed by </>).
func (t *transpiler) parseChildren(i int, tag string) ([]string, int, error) {
	src := t.src
	children := make([]string, 0, 4)
	for {
		if i >= len(src) {
			return nil, 0, fmt.Errorf("missing close tag for <%s>", tag)
		}
		if src[i] == '<' && i+1 < len(src) && src[i+1] == '/' {
			j := skipSpace(src, i+2)
			name, k, err := closeTagName(src, j)
			if err != nil {
				return nil, 0, err
			}
			if name != tag {
				return nil, 0, fmt.Errorf("mismatched close tag </%s> for <%s>", name, tag)
			}
			return children, k, nil
		}
		if src[i] == '<' && i+1 < len(src) && (isTagStartByte(src[i+1]) || src[i+1] == '>') {
			call, next, err := t.parseElement(i)
			if err != nil {
				return nil, 0, err
			}
			children = append(children, call)
			i = next
			continue
		}
		if src[i] == '{' {
			expr, next, err := readBraced(src, i)
			if err != nil {
				return nil, 0, err
			}
			i = next
			trimmed := strings.TrimSpace(expr)
			if trimmed == "" || isCommentOnly(trimmed) {
				continue
			}
			value, err := newTranspiler(expr).run()
			if err != nil {
				return nil, 0, err
			}
			children = append(children, strings.TrimSpace(value))
			continue
		}
		text, next := readText(src, i)
		i = next
		collapsed := strings.Join(strings.Fields(text), " ")
		if collapsed != "" {
			children = append(children, strconv.Quote(collapsed))
		}
	}
}

func closeTagName(src string, i int) (string, int, error) {
	start := i
	for i < len(src) && (isWordByte(src[i]) || src[i] == '-') {
		i++
	}
	name := src[start:i]
	i = skipSpace(src, i)
	if i >= len(src) || src[i] != '>' {
		return "", 0, fmt.Errorf("malformed close tag at offset %d", start)
	}
	return name, i + 1, nil
}

func readText(src string, i int) (string, int) {
	start := i
	for i < len(src) && src[i] != '<' && src[i] != '{' {
		i++
	}
	return src[start:i], i
}

func readQuoted(src string, i int) (string, int, error) {
	quote := src[i]
	i++
	var b strings.Builder
	for i < len(src) {
		c := src[i]
		if c == '\\' && i+1 < len(src) {
			b.WriteByte(src[i+1])
			i += 2
			continue
		}
		if c == quote {
			return b.String(), i + 1, nil
		}
		b.WriteByte(c)
		i++
	}
	return "", 0, fmt.Errorf("unterminated attribute string")
}

// readBraced returns the text inside a balanced brace pair, skipping over
// string literals and comments while counting depth.
func readBraced(src string, i int) (string, int, error) {
	if src[i] != '{' {
		return "", 0, fmt.Errorf("expected '{' at offset %d", i)
	}
	depth := 0
	start := i + 1
	for i < len(src) {
		c := src[i]
		switch c {
		case '{':
			depth++
			i++
		case '}':
			depth--
			if depth == 0 {
				return src[start:i], i + 1, nil
			}
			i++
		case '\'', '"', '`':
			j, err := skipString(src, i)
			if err != nil {
				return "", 0, err
			}
			i = j
		case '/':
			if i+1 < len(src) && src[i+1] == '/' {
				for i < len(src) && src[i] != '\n' {
					i++
				}
			} else if i+1 < len(src) && src[i+1] == '*' {
				end := strings.Index(src[i+2:], "*/")
				if end < 0 {
					return "", 0, fmt.Errorf("unterminated comment in expression")
				}
				i += 2 + end + 2
			} else {
				i++
			}
		default:
			i++
		}
	}
	return "", 0, fmt.Errorf("unbalanced braces in expression")
}

func skipString(src string, i int) (int, error) {
	quote := src[i]
	i++
	for i < len(src) {
		if src[i] == '\\' && i+1 < len(src) {
			i += 2
			continue
		}
		if src[i] == quote {
			return i + 1, nil
		}
		i++
	}
	return 0, fmt.Errorf("unterminated string literal")
}

func isCommentOnly(expr string) bool {
	return strings.HasPrefix(expr, "/*") && strings.HasSuffix(expr, "*/")
}

func skipSpace(src string, i int) int {
	for i < len(src) {
		switch src[i] {
		case ' ', '\t', '\n', '\r':
			i++
		default:
			return i
		}
	}
	return i
}

func emitCall(tag string, attrs []jsxAttr, children []string) string {
	var b strings.Builder
	b.WriteString("h(")
	if tag == "Fragment" || unicode.IsUpper(rune(tag[0])) {
		b.WriteString(tag)
	} else {
		b.WriteString(strconv.Quote(tag))
	}
	b.WriteString(", ")
	if len(attrs) == 0 {
		b.WriteString("null")
	} else {
		b.WriteString("{")
		for idx, attr := range attrs {
			if idx > 0 {
				b.WriteString(", ")
			}
			if identRE.MatchString(attr.name) {
				b.WriteString(attr.name)
			} else {
				b.WriteString(strconv.Quote(attr.name))
			}
			b.WriteString(": ")
			b.WriteString(attr.value)
		}
		b.WriteString("}")
	}
	for _, child := range children {
		b.WriteString(", ")
		b.WriteString(child)
	}
	b.WriteString(")")
	return b.String()
}
