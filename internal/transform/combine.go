package transform

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/google/uuid"

	"github.com/yungbote/studioforge-backend/internal/importmap"
	"github.com/yungbote/studioforge-backend/internal/types"
)

// componentSuffix is the fixed marker appended to every derived section
// component name, so authored helpers can't collide with synthesized ones.
const componentSuffix = "Section"

// Baseline imports every combined lesson carries: the construction pragma
// plus the card family used by synthesized wrappers.
var baselineImports = []string{
	`import { h, Fragment } from '` + importmap.RuntimeModulePath + `';`,
	`import { Card, CardContent, CardHeader, CardTitle } from '` + importmap.UIModulePrefix + `card';`,
}

// CombineSection is one section's contribution to the combined lesson.
type CombineSection struct {
	ID      uuid.UUID
	Title   string
	Code    string // transformed (or raw-fallback) code, module syntax already stripped
	Imports []types.ImportDeclaration
}

type CombinedArtifact struct {
	ComponentName string
	Original      string // full module text: imports, definitions, composed unit, default export
	Code          string // Original with module syntax stripped, ready for evaluation
	Manifest      types.DependencyManifest
}

// Combine stitches a lesson's sections into one self-contained unit. Pure:
// identical inputs produce byte-identical output, so regeneration is
// idempotent.
func Combine(sections []CombineSection, order []uuid.UUID, lessonTitle string, reg importmap.Registry) CombinedArtifact {
	byID := make(map[uuid.UUID]CombineSection, len(sections))
	for _, s := range sections {
		byID[s.ID] = s
	}

	// Unknown ids in the stored order are dropped rather than failing the
	// whole recombination.
	surviving := make([]CombineSection, 0, len(order))
	for _, id := range order {
		if s, ok := byID[id]; ok {
			surviving = append(surviving, s)
		}
	}

	if len(surviving) == 0 {
		return emptyLessonArtifact(reg)
	}

	imports := make([]string, 0, len(baselineImports)+len(surviving))
	seenImports := make(map[string]bool)
	for _, raw := range baselineImports {
		imports = append(imports, raw)
		seenImports[raw] = true
	}
	for _, s := range surviving {
		for _, decl := range s.Imports {
			if !seenImports[decl.RawText] {
				imports = append(imports, decl.RawText)
				seenImports[decl.RawText] = true
			}
		}
	}

	var body strings.Builder
	names := make([]string, 0, len(surviving))
	for _, s := range surviving {
		name := DeriveComponentName(s.Title)
		names = append(names, name)
		code := strings.TrimSpace(s.Code)
		if code != "" {
			body.WriteString(code)
			body.WriteString("\n\n")
		}
		if !definesComponent(code, name) {
			body.WriteString(synthesizeWrapper(name, s.Title))
			body.WriteString("\n\n")
		}
	}

	lessonName := deriveBaseName(lessonTitle) + "Lesson"
	body.WriteString(composeTopLevel(lessonName, names, surviving))
	body.WriteString("\n\nexport default " + lessonName + ";\n")

	original := strings.Join(imports, "\n") + "\n\n" + body.String()

	manifest := Classify(ParseImports(original), reg)
	return CombinedArtifact{
		ComponentName: lessonName,
		Original:      original,
		Code:          Sanitize(original),
		Manifest:      manifest,
	}
}

func emptyLessonArtifact(reg importmap.Registry) CombinedArtifact {
	original := strings.Join(baselineImports, "\n") + "\n\n" +
		`const EmptyLesson = (props) => h(Card, {className: "lesson-empty"}, h(CardContent, null, "This lesson has no content yet."));` +
		"\n\nexport default EmptyLesson;\n"
	return CombinedArtifact{
		ComponentName: "EmptyLesson",
		Original:      original,
		Code:          Sanitize(original),
		Manifest:      Classify(ParseImports(original), reg),
	}
}

// DeriveComponentName maps a section title onto its deterministic component
// name: non-alphanumerics stripped, words title-cased and concatenated, then
// the fixed suffix.
func DeriveComponentName(title string) string {
	return deriveBaseName(title) + componentSuffix
}

func deriveBaseName(title string) string {
	var b strings.Builder
	word := make([]rune, 0, 16)
	flush := func() {
		if len(word) == 0 {
			return
		}
		b.WriteRune(unicode.ToUpper(word[0]))
		for _, r := range word[1:] {
			b.WriteRune(unicode.ToLower(r))
		}
		word = word[:0]
	}
	for _, r := range title {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			word = append(word, r)
			continue
		}
		flush()
	}
	flush()
	name := b.String()
	if name == "" {
		name = "Untitled"
	}
	if unicode.IsDigit(rune(name[0])) {
		name = "Part" + name
	}
	return name
}

func definesComponent(code, name string) bool {
	if code == "" {
		return false
	}
	for _, kw := range []string{"const ", "let ", "var ", "function "} {
		idx := 0
		for {
			at := strings.Index(code[idx:], kw+name)
			if at < 0 {
				break
			}
			after := idx + at + len(kw) + len(name)
			if after >= len(code) || !isWordByte(code[after]) {
				return true
			}
			idx = idx + at + 1
		}
	}
	return false
}

// synthesizeWrapper emits a minimal placeholder component so the composed
// unit always resolves, even for an empty or incomplete section.
func synthesizeWrapper(name, title string) string {
	return fmt.Sprintf(
		`const %s = (props) => h(Card, {className: "section-placeholder"}, h(CardHeader, null, h(CardTitle, null, %s)), h(CardContent, null, "This section is still being written."));`,
		name, quoteJS(title))
}

func composeTopLevel(lessonName string, names []string, sections []CombineSection) string {
	var b strings.Builder
	b.WriteString("const " + lessonName + ` = (props) => h("div", {className: "lesson-sections"}`)
	for i, name := range names {
		b.WriteString(", h(")
		b.WriteString(name)
		b.WriteString(", {course: props.course, courseId: props.courseId, isStaffView: props.isStaffView, devMode: props.devMode, key: ")
		b.WriteString(quoteJS(sections[i].ID.String()))
		b.WriteString("})")
	}
	b.WriteString(");")
	return b.String()
}

func quoteJS(s string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`, "\r", `\r`, "\t", `\t`)
	return `"` + replacer.Replace(s) + `"`
}
