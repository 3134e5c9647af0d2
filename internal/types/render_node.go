package types

// Pure JSON contract for resolved render output. Not a DB model.

const (
	RenderNodeElement   = "element"   // intrinsic tag ("div", "span", ...)
	RenderNodeComponent = "component" // registry widget or assessment component
	RenderNodeIcon      = "icon"
	RenderNodeText      = "text"
)

type RenderNode struct {
	Kind     string         `json:"kind"`
	Name     string         `json:"name,omitempty"`   // tag or symbol name
	Source   string         `json:"source,omitempty"` // module path for components/icons
	Props    map[string]any `json:"props,omitempty"`
	Text     string         `json:"text,omitempty"`
	Children []*RenderNode  `json:"children,omitempty"`
}
