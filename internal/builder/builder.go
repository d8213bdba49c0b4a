package builder

import (
	"strings"

	"pagecraft/internal/component"
	"pagecraft/internal/logging"
	"pagecraft/internal/rules"
	"pagecraft/internal/style"
)

// Builder runs the per-node pipeline. The order is load-bearing: styles are
// fully flattened before the rule engine inspects widths, and validation
// output wins over the raw merge for any key it touches.
type Builder struct {
	session *Session
}

// New creates a builder bound to one build session.
func New(session *Session) *Builder {
	return &Builder{session: session}
}

// Process converts one raw AI component step into a validated node tree.
// Returns nil when the input coerces to nothing (empty primitive) or the
// whole subtree prunes away during validation.
func (b *Builder) Process(raw any, parentContext string, ctx rules.Context) *component.Node {
	node := b.buildNode(raw)
	if node == nil {
		return nil
	}
	if rules.Validate(node, ctx) == nil {
		return nil
	}
	b.finalize(node, parentContext)
	return node
}

// buildNode is the boundary parse: coerce untrusted JSON into a typed node,
// resolve the ID, flatten styles, and recurse into children. Never panics on
// malformed input.
func (b *Builder) buildNode(raw any) *component.Node {
	obj, ok := component.AsMap(raw)
	if !ok {
		// A bare primitive becomes a text leaf, or nothing.
		s := strings.TrimSpace(component.AsString(raw))
		if s == "" {
			return nil
		}
		logging.BuildWarn("coerced primitive step into text leaf: %.40q", s)
		leaf := component.NewNode(b.session.IDs.ResolveID("", "text"), component.TypeText)
		leaf.Props["content"] = s
		return leaf
	}

	nodeType := component.NormalizeType(component.AsString(obj["type"]))
	if raw := component.AsString(obj["type"]); raw != "" && !component.IsKnownType(raw) {
		logging.BuildDebug("remapped type %q to %s", raw, nodeType)
	}

	node := component.NewNode(b.session.IDs.ResolveID(component.AsString(obj["id"]), string(nodeType)), nodeType)

	node.Props = b.mergeProps(obj, nodeType)
	if names, ok := component.AsSlice(obj["classNames"]); ok {
		for _, raw := range names {
			if s := component.AsString(raw); s != "" {
				node.ClassNames = append(node.ClassNames, s)
			}
		}
	} else if s := component.AsString(obj["className"]); s != "" {
		node.ClassNames = []string{s}
	}

	b.buildChildren(node, obj["children"])
	return node
}

// mergeProps shallow-merges flattened props with the flattened style object,
// style winning on key conflict. Both sides go through the flattener so a
// nested descriptor arriving in either place normalizes the same way.
func (b *Builder) mergeProps(obj map[string]any, nodeType component.Type) map[string]any {
	var merged map[string]any
	if props, ok := component.AsMap(obj["props"]); ok {
		// The props-side typography bag is kept intact here so finalize can
		// lock each key it re-flattens; the style-side one flattens normally.
		typo := props["typography"]
		delete(props, "typography")
		merged = style.Flatten(props)
		if typo != nil {
			merged["typography"] = typo
		}
	} else {
		merged = map[string]any{}
		// A bare-string props blob keeps its text when the type can carry it.
		if s := strings.TrimSpace(component.AsString(obj["props"])); s != "" && nodeType.IsTextBearing() {
			merged["content"] = s
		}
		if obj["props"] != nil {
			logging.BuildWarn("coerced non-object props on type %s", nodeType)
		}
	}

	styleObj, ok := component.AsMap(obj["style"])
	if !ok {
		styleObj, _ = component.AsMap(obj["styles"])
	}
	if styleObj != nil {
		for key, value := range style.Flatten(styleObj) {
			merged[key] = value
		}
	}
	return merged
}

// buildChildren coerces the children field: arrays recurse per entry,
// primitives become text content or a synthesized text leaf, anything else
// is dropped.
func (b *Builder) buildChildren(node *component.Node, rawChildren any) {
	switch kids := rawChildren.(type) {
	case []any:
		for _, rawChild := range kids {
			if child := b.buildNode(rawChild); child != nil {
				node.Children = append(node.Children, child)
			}
		}
	case string:
		s := strings.TrimSpace(kids)
		if s == "" {
			return
		}
		if node.Type.IsTextBearing() && component.AsString(node.Props["content"]) == "" {
			node.Props["content"] = s
			return
		}
		if child := b.buildNode(s); child != nil {
			node.Children = append(node.Children, child)
		}
	case nil:
	default:
		// A single object child arrives un-wrapped sometimes.
		if obj, ok := component.AsMap(rawChildren); ok {
			if child := b.buildNode(obj); child != nil {
				node.Children = append(node.Children, child)
			}
		}
	}
}

// finalize walks the validated tree: typography lock-in, newline literals,
// class synthesis with the parent ID as context, and the generated marker.
func (b *Builder) finalize(node *component.Node, parentContext string) {
	lockTypography(node)
	normalizeTextContent(node)
	b.session.Classes.Apply(node, parentContext)
	node.Props[component.PropAIGenerated] = true

	for _, child := range node.Children {
		b.finalize(child, node.ID)
	}
}

// lockTypography re-flattens a typography sub-object that survived validation
// onto top-level keys and records each touched key so a downstream renderer
// must not override it with inherited defaults.
func lockTypography(node *component.Node) {
	typo, ok := component.AsMap(node.Props["typography"])
	if !ok {
		return
	}
	locked, _ := component.AsMap(node.Props[component.PropLockedProps])
	if locked == nil {
		locked = map[string]any{}
	}
	for key, value := range typo {
		if value == nil {
			continue
		}
		if key == "fontSize" || key == "letterSpacing" {
			value = style.StripPxUnit(value)
		}
		node.Props[key] = value
		locked[key] = true
	}
	delete(node.Props, "typography")
	node.Props[component.PropLockedProps] = locked
}

// normalizeTextContent replaces literal backslash-n sequences the model emits
// with real newlines in text fields.
func normalizeTextContent(node *component.Node) {
	for _, key := range []string{"content", "text"} {
		if s, ok := node.Props[key].(string); ok && strings.Contains(s, `\n`) {
			node.Props[key] = strings.ReplaceAll(s, `\n`, "\n")
		}
	}
}
