package transform

import (
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestDeriveComponentName(t *testing.T) {
	cases := map[string]string{
		"Intro":                "IntroSection",
		"photosynthesis intro": "PhotosynthesisIntroSection",
		"What is DNA?":         "WhatIsDnaSection",
		"2nd Law":              "Part2ndLawSection",
		"":                     "UntitledSection",
		"---":                  "UntitledSection",
	}
	for title, want := range cases {
		if got := DeriveComponentName(title); got != want {
			t.Fatalf("DeriveComponentName(%q) = %q, want %q", title, got, want)
		}
	}
}

func TestCombine_EmptyLessonFallback(t *testing.T) {
	art := Combine(nil, nil, "Anything", testRegistry())
	if art.ComponentName != "EmptyLesson" {
		t.Fatalf("wrong component name: %s", art.ComponentName)
	}
	if art.Original == "" || art.Code == "" {
		t.Fatalf("empty lesson artifact must never be empty")
	}
	if !strings.Contains(art.Original, "export default EmptyLesson;") {
		t.Fatalf("missing default export:\n%s", art.Original)
	}
}

func TestCombine_SynthesizesWrapperForEmptySection(t *testing.T) {
	id := uuid.New()
	sections := []CombineSection{{ID: id, Title: "Intro", Code: ""}}
	art := Combine(sections, []uuid.UUID{id}, "Biology 101", testRegistry())

	if !strings.Contains(art.Original, "const IntroSection =") {
		t.Fatalf("wrapper for empty section not synthesized:\n%s", art.Original)
	}
	if !strings.Contains(art.Original, `"Intro"`) {
		t.Fatalf("wrapper should carry the section title:\n%s", art.Original)
	}
	if art.ComponentName != "Biology101Lesson" {
		t.Fatalf("wrong lesson component name: %s", art.ComponentName)
	}
	if !strings.Contains(art.Original, "h(IntroSection, {course: props.course") {
		t.Fatalf("top-level component does not reference the section:\n%s", art.Original)
	}
	if !strings.Contains(art.Original, "export default Biology101Lesson;") {
		t.Fatalf("missing default export:\n%s", art.Original)
	}
}

func TestCombine_KeepsAuthoredComponent(t *testing.T) {
	id := uuid.New()
	code := `const IntroSection = (props) => h(Card, null, "authored");`
	sections := []CombineSection{{ID: id, Title: "Intro", Code: code}}
	art := Combine(sections, []uuid.UUID{id}, "Bio", testRegistry())

	if strings.Contains(art.Original, "section-placeholder") {
		t.Fatalf("wrapper synthesized despite authored definition:\n%s", art.Original)
	}
	if !strings.Contains(art.Original, "authored") {
		t.Fatalf("authored code lost:\n%s", art.Original)
	}
}

func TestCombine_DropsUnknownOrderIDs(t *testing.T) {
	id := uuid.New()
	sections := []CombineSection{{ID: id, Title: "Real"}}
	art := Combine(sections, []uuid.UUID{uuid.New(), id}, "L", testRegistry())
	if strings.Count(art.Original, "Section, {course:") != 1 {
		t.Fatalf("unknown order id should be dropped:\n%s", art.Original)
	}
}

func TestCombine_OrderRespected(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	sections := []CombineSection{
		{ID: a, Title: "Alpha"},
		{ID: b, Title: "Beta"},
	}
	art := Combine(sections, []uuid.UUID{b, a}, "L", testRegistry())
	betaAt := strings.Index(art.Original, "h(BetaSection")
	alphaAt := strings.Index(art.Original, "h(AlphaSection")
	if betaAt < 0 || alphaAt < 0 || betaAt > alphaAt {
		t.Fatalf("section order not respected:\n%s", art.Original)
	}
}

func TestCombine_DeduplicatesImports(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	imp := ParseImports(`import { Badge } from '@/components/ui/badge';`)
	sections := []CombineSection{
		{ID: a, Title: "One", Imports: imp},
		{ID: b, Title: "Two", Imports: imp},
	}
	art := Combine(sections, []uuid.UUID{a, b}, "L", testRegistry())
	if strings.Count(art.Original, "ui/badge") != 1 {
		t.Fatalf("duplicate import not deduplicated:\n%s", art.Original)
	}
}

func TestCombine_Idempotent(t *testing.T) {
	id := uuid.New()
	sections := []CombineSection{{
		ID:      id,
		Title:   "Intro",
		Code:    `const IntroSection = (props) => h(Card, null, "x");`,
		Imports: ParseImports(`import { Card } from '@/components/ui/card';`),
	}}
	order := []uuid.UUID{id}
	first := Combine(sections, order, "Bio", testRegistry())
	second := Combine(sections, order, "Bio", testRegistry())
	if first.Original != second.Original || first.Code != second.Code {
		t.Fatalf("combine is not idempotent")
	}
}

func TestCombine_CodeHasNoModuleSyntax(t *testing.T) {
	id := uuid.New()
	sections := []CombineSection{{ID: id, Title: "Intro"}}
	art := Combine(sections, []uuid.UUID{id}, "L", testRegistry())
	if strings.Contains(art.Code, "import ") || strings.Contains(art.Code, "export ") {
		t.Fatalf("combined code still carries module syntax:\n%s", art.Code)
	}
	if !strings.Contains(art.Original, "import ") {
		t.Fatalf("combined original should keep imports:\n%s", art.Original)
	}
}

func TestCombine_ManifestCoversBaseline(t *testing.T) {
	id := uuid.New()
	sections := []CombineSection{{ID: id, Title: "Intro"}}
	art := Combine(sections, []uuid.UUID{id}, "L", testRegistry())
	if _, ok := art.Manifest.RequiredComponents["Card"]; !ok {
		t.Fatalf("baseline Card import missing from manifest: %+v", art.Manifest)
	}
	if missing := CheckConsistency(art.Code, art.Manifest); len(missing) != 0 {
		t.Fatalf("combined artifact inconsistent with its manifest: %v", missing)
	}
}
