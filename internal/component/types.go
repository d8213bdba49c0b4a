// Package component defines the page document data model: the component node
// tree produced by the build pipeline, the reusable style classes attached to
// it, and the transient build steps streamed from the generation service.
package component

import (
	"encoding/json"
	"time"
)

// Type is the closed set of component types the renderer understands.
type Type string

const (
	TypeDiv           Type = "div"
	TypeSection       Type = "section"
	TypeContainer     Type = "container"
	TypeText          Type = "text"
	TypeHeading       Type = "heading"
	TypeButton        Type = "button"
	TypeImage         Type = "image"
	TypeInput         Type = "input"
	TypeLink          Type = "link"
	TypeLabel         Type = "label"
	TypeNavHorizontal Type = "nav-horizontal"
	TypeFooterColumn  Type = "footer-column"
	TypeFooterRow     Type = "footer-row"
	TypeForm          Type = "form"
	TypeVideo         Type = "video"
	TypeIcon          Type = "icon"
)

// typeSynonyms maps foreign/LLM-invented type names onto the closed set.
// Anything not present here and not already a known Type falls back to container.
var typeSynonyms = map[string]Type{
	"row":     TypeDiv,
	"column":  TypeDiv,
	"col":     TypeDiv,
	"box":     TypeDiv,
	"stack":   TypeDiv,
	"card":    TypeContainer,
	"modal":   TypeContainer,
	"header":  TypeContainer,
	"footer":  TypeContainer,
	"wrapper": TypeContainer,
	"h1":      TypeHeading,
	"h2":      TypeHeading,
	"h3":      TypeHeading,
	"title":   TypeHeading,
	"p":       TypeText,
	"span":    TypeText,
	"paragraph": TypeText,
	"img":     TypeImage,
	"picture": TypeImage,
	"btn":     TypeButton,
	"a":       TypeLink,
	"anchor":  TypeLink,
	"nav":     TypeNavHorizontal,
	"navbar":  TypeNavHorizontal,
	"textfield": TypeInput,
}

var knownTypes = map[Type]bool{
	TypeDiv: true, TypeSection: true, TypeContainer: true, TypeText: true,
	TypeHeading: true, TypeButton: true, TypeImage: true, TypeInput: true,
	TypeLink: true, TypeLabel: true, TypeNavHorizontal: true,
	TypeFooterColumn: true, TypeFooterRow: true, TypeForm: true,
	TypeVideo: true, TypeIcon: true,
}

// NormalizeType coerces a raw type string to a member of the closed type set.
// Unknown types fall back to container.
func NormalizeType(raw string) Type {
	if knownTypes[Type(raw)] {
		return Type(raw)
	}
	if t, ok := typeSynonyms[raw]; ok {
		return t
	}
	return TypeContainer
}

// IsKnownType reports whether raw is already a member of the closed type set.
func IsKnownType(raw string) bool {
	return knownTypes[Type(raw)]
}

// IsTextBearing reports whether this type renders its own text content
// (as opposed to hosting text children).
func (t Type) IsTextBearing() bool {
	switch t {
	case TypeText, TypeHeading, TypeButton, TypeLink, TypeLabel:
		return true
	}
	return false
}

// Well-known bookkeeping prop keys written by the build pipeline.
const (
	PropAIGenerated    = "_aiGenerated"
	PropAppliedClasses = "appliedClasses"
	PropActiveClass    = "activeClass"
	PropLockedProps    = "__lockedProps"
	PropTabletStyles   = "tabletStyles"
	PropMobileStyles   = "mobileStyles"
)

// Node is a single component in the page document tree.
// Props is the single source of truth for rendering: flattened style fields,
// semantic fields (content, src, href), and bookkeeping fields. Children are
// exclusively owned; the tree is acyclic by construction.
type Node struct {
	ID         string         `json:"id"`
	Type       Type           `json:"type"`
	Props      map[string]any `json:"props"`
	ClassNames []string       `json:"classNames,omitempty"`
	Children   []*Node        `json:"children"`
}

// NewNode returns a node with non-nil Props and Children.
func NewNode(id string, t Type) *Node {
	return &Node{
		ID:       id,
		Type:     t,
		Props:    map[string]any{},
		Children: []*Node{},
	}
}

// Clone returns a deep copy of the node.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	clone := &Node{
		ID:    n.ID,
		Type:  n.Type,
		Props: cloneValue(n.Props).(map[string]any),
	}
	if n.ClassNames != nil {
		clone.ClassNames = append([]string{}, n.ClassNames...)
	}
	clone.Children = make([]*Node, len(n.Children))
	for i, c := range n.Children {
		clone.Children[i] = c.Clone()
	}
	return clone
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = cloneValue(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = cloneValue(item)
		}
		return out
	default:
		return val
	}
}

// Walk calls fn for the node and every descendant, depth-first.
func (n *Node) Walk(fn func(*Node)) {
	if n == nil {
		return
	}
	fn(n)
	for _, c := range n.Children {
		c.Walk(fn)
	}
}

// TextContent collects the text/content prop values of the node and all
// descendants, used for last-resort section matching.
func (n *Node) TextContent() string {
	var out string
	n.Walk(func(node *Node) {
		for _, key := range []string{"content", "text"} {
			if s, ok := node.Props[key].(string); ok && s != "" {
				if out != "" {
					out += " "
				}
				out += s
			}
		}
	})
	return out
}

// Class is a named, reusable bag of style properties, analogous to a CSS class.
type Class struct {
	Name        string         `json:"name"`
	Styles      map[string]any `json:"styles"`
	IsAutoClass bool           `json:"isAutoClass"` // synthesized by the build pipeline vs. user-authored
	CreatedAt   time.Time      `json:"createdAt,omitempty"`
}

// VariableScope determines a variable's persistence/visibility boundary.
type VariableScope string

const (
	ScopePage VariableScope = "page"
	ScopeApp  VariableScope = "app"
)

// Variable is a named, typed runtime value bound into component props
// via the {{scope.name}} templating syntax.
type Variable struct {
	Scope        VariableScope `json:"scope"`
	Name         string        `json:"name"`
	DataType     string        `json:"dataType"` // string, number, boolean, list
	InitialValue any           `json:"initialValue"`
	RuntimeValue any           `json:"runtimeValue,omitempty"`
}

// StepType identifies the payload kind of one generation step.
type StepType string

const (
	StepProgress  StepType = "progress"
	StepVariable  StepType = "variable"
	StepComponent StepType = "component"
	StepFlow      StepType = "flow"
	StepBinding   StepType = "binding"
	StepClass     StepType = "class"
)

// StepStatus is the lifecycle state of a build step. Transitions are strictly
// pending -> building -> {complete | error}, never reversed.
type StepStatus string

const (
	StepPending  StepStatus = "pending"
	StepBuilding StepStatus = "building"
	StepComplete StepStatus = "complete"
	StepError    StepStatus = "error"
)

// BuildStep is one unit of an AI response, surfaced to the UI as telemetry.
type BuildStep struct {
	ID      string     `json:"id"`
	Type    StepType   `json:"type"`
	Status  StepStatus `json:"status"`
	Message string     `json:"message,omitempty"`
	Data    any        `json:"data,omitempty"`
}

// BindingPayload is the data of a deferred binding step.
type BindingPayload struct {
	ComponentID     string `json:"componentId"`
	Property        string `json:"property"`
	VariableBinding string `json:"variableBinding"`
	Condition       string `json:"condition,omitempty"`
}

// FlowPayload is the data of a deferred flow step.
type FlowPayload struct {
	ComponentID string   `json:"componentId"`
	Trigger     string   `json:"trigger"`
	Actions     []any    `json:"actions"`
}

// FlowNode is one node of the synthesized action-flow graph.
type FlowNode struct {
	ID     string `json:"id"`
	Kind   string `json:"kind"` // start or action
	Action any    `json:"action,omitempty"`
	Next   string `json:"next,omitempty"`
}

// DesignSeed is the shared color/typography mood that keeps all phases of a
// full-page build visually consistent. Persisted per (project, page) so a
// later section replace can match the original page's visual identity.
type DesignSeed struct {
	PrimaryColor    string `json:"primaryColor"`
	BackgroundColor string `json:"backgroundColor"`
	TextColor       string `json:"textColor"`
	AccentColor     string `json:"accentColor"`
	FontFamily      string `json:"fontFamily"`
	HeadingFont     string `json:"headingFont,omitempty"`
	Mood            string `json:"mood,omitempty"`
	Radius          string `json:"radius,omitempty"`
}

// MarshalStable renders a node as deterministic JSON, used by tests and the
// section-replace isolation check.
func (n *Node) MarshalStable() ([]byte, error) {
	return json.Marshal(n)
}
