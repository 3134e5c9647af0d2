package importmap

import (
	"context"
	"errors"
	"fmt"
	"sort"
)

// The authoring dialect can only import from this closed vocabulary: the UI
// widget library, the icon set, and the assessment question components.
// Classification and runtime resolution both go through the same table, so
// path strings here must stay stable — matching is exact, not normalized.

const (
	// Pragma is the construction function transpiled markup is rewritten into.
	Pragma = "h"

	RuntimeModulePath    = "@studioforge/runtime"
	IconModulePath       = "lucide-react"
	UIModulePrefix       = "@/components/ui/"
	AssessmentPathPrefix = "@/components/questions/"
)

type SymbolKind string

const (
	KindRuntime    SymbolKind = "runtime"
	KindWidget     SymbolKind = "widget"
	KindIcon       SymbolKind = "icon"
	KindAssessment SymbolKind = "assessment"
)

var (
	ErrUnknownModule = errors.New("unknown module path")
	ErrUnknownSymbol = errors.New("unknown symbol")
)

// Implementation is a resolved symbol: everything the renderer needs to
// instantiate it. Concrete widget/icon rendering lives in the front-end
// libraries; the backend resolves identity and kind.
type Implementation struct {
	Name   string     `json:"name"`
	Source string     `json:"source"`
	Kind   SymbolKind `json:"kind"`
}

// Registry is the injected symbol-registry capability. The static table is
// the production implementation; tests inject small fakes.
type Registry interface {
	// Exports returns the exported symbol names of a module path, or false
	// if the path is not in the closed table.
	Exports(source string) ([]string, bool)
	// Resolve returns the implementation for (source, symbol).
	Resolve(ctx context.Context, source, symbol string) (*Implementation, error)
	// ResolveIcons resolves a batch of icon names in one call. Unknown names
	// are simply absent from the result.
	ResolveIcons(ctx context.Context, names []string) (map[string]*Implementation, error)
	Version() string
}

func IsIconModule(source string) bool { return source == IconModulePath }

func IsAssessmentModule(source string) bool {
	return len(source) > len(AssessmentPathPrefix) && source[:len(AssessmentPathPrefix)] == AssessmentPathPrefix
}

var runtimeExports = []string{"h", "Fragment"}

var uiModules = map[string][]string{
	UIModulePrefix + "card":      {"Card", "CardContent", "CardDescription", "CardFooter", "CardHeader", "CardTitle"},
	UIModulePrefix + "button":    {"Button"},
	UIModulePrefix + "input":     {"Input"},
	UIModulePrefix + "textarea":  {"Textarea"},
	UIModulePrefix + "label":     {"Label"},
	UIModulePrefix + "badge":     {"Badge"},
	UIModulePrefix + "alert":     {"Alert", "AlertDescription", "AlertTitle"},
	UIModulePrefix + "tabs":      {"Tabs", "TabsContent", "TabsList", "TabsTrigger"},
	UIModulePrefix + "accordion": {"Accordion", "AccordionContent", "AccordionItem", "AccordionTrigger"},
	UIModulePrefix + "progress":  {"Progress"},
	UIModulePrefix + "separator": {"Separator"},
	UIModulePrefix + "tooltip":   {"Tooltip", "TooltipContent", "TooltipProvider", "TooltipTrigger"},
	UIModulePrefix + "select":    {"Select", "SelectContent", "SelectItem", "SelectTrigger", "SelectValue"},
	UIModulePrefix + "checkbox":  {"Checkbox"},
	UIModulePrefix + "skeleton":  {"Skeleton"},
	UIModulePrefix + "table":     {"Table", "TableBody", "TableCell", "TableHead", "TableHeader", "TableRow"},
}

var iconExports = []string{
	"AlertCircle", "ArrowLeft", "ArrowRight", "Award", "BarChart", "Book",
	"BookOpen", "Brain", "Calculator", "Calendar", "Check", "CheckCircle",
	"ChevronDown", "ChevronLeft", "ChevronRight", "ChevronUp", "Circle",
	"Clock", "Code", "Compass", "Download", "Edit", "Eye", "FileText",
	"Flag", "Flame", "Globe", "GraduationCap", "Heart", "HelpCircle",
	"Home", "Info", "Layers", "Lightbulb", "Link", "List", "Lock", "Map",
	"Microscope", "Minus", "Pencil", "Play", "Plus", "RefreshCw", "Rocket",
	"Ruler", "Search", "Settings", "Share", "Shield", "Sparkles", "Star",
	"Target", "Trash", "TrendingUp", "Trophy", "Upload", "User", "Users",
	"X", "XCircle", "Zap",
}

var assessmentModules = map[string]string{
	AssessmentPathPrefix + "MultipleChoice": "MultipleChoice",
	AssessmentPathPrefix + "TrueFalse":      "TrueFalse",
	AssessmentPathPrefix + "ShortAnswer":    "ShortAnswer",
	AssessmentPathPrefix + "FillBlank":      "FillBlank",
	AssessmentPathPrefix + "Matching":       "Matching",
}

type staticRegistry struct {
	version string
	modules map[string][]string
	icons   map[string]bool
}

// NewStaticRegistry builds the production registry from the closed tables.
func NewStaticRegistry(version string) Registry {
	modules := make(map[string][]string, len(uiModules)+len(assessmentModules)+2)
	modules[RuntimeModulePath] = append([]string(nil), runtimeExports...)
	modules[IconModulePath] = append([]string(nil), iconExports...)
	for path, exports := range uiModules {
		modules[path] = append([]string(nil), exports...)
	}
	for path, def := range assessmentModules {
		modules[path] = []string{def}
	}
	icons := make(map[string]bool, len(iconExports))
	for _, name := range iconExports {
		icons[name] = true
	}
	if version == "" {
		version = "static"
	}
	return &staticRegistry{version: version, modules: modules, icons: icons}
}

func (r *staticRegistry) Version() string { return r.version }

func (r *staticRegistry) Exports(source string) ([]string, bool) {
	exports, ok := r.modules[source]
	if !ok {
		return nil, false
	}
	return append([]string(nil), exports...), true
}

func (r *staticRegistry) Resolve(ctx context.Context, source, symbol string) (*Implementation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	exports, ok := r.modules[source]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownModule, source)
	}
	for _, name := range exports {
		if name == symbol {
			return &Implementation{Name: symbol, Source: source, Kind: kindOf(source)}, nil
		}
	}
	return nil, fmt.Errorf("%w: %s from %s", ErrUnknownSymbol, symbol, source)
}

func (r *staticRegistry) ResolveIcons(ctx context.Context, names []string) (map[string]*Implementation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make(map[string]*Implementation, len(names))
	for _, name := range names {
		if r.icons[name] {
			out[name] = &Implementation{Name: name, Source: IconModulePath, Kind: KindIcon}
		}
	}
	return out, nil
}

func kindOf(source string) SymbolKind {
	switch {
	case source == RuntimeModulePath:
		return KindRuntime
	case source == IconModulePath:
		return KindIcon
	case IsAssessmentModule(source):
		return KindAssessment
	default:
		return KindWidget
	}
}

// ModulePaths lists every path in the registry, sorted. Diagnostics only.
func ModulePaths(r Registry) []string {
	sr, ok := r.(*staticRegistry)
	if !ok {
		return nil
	}
	paths := make([]string, 0, len(sr.modules))
	for p := range sr.modules {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}
