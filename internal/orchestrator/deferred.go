package orchestrator

import (
	"context"
	"fmt"
	"regexp"

	"pagecraft/internal/component"
	"pagecraft/internal/logging"
)

var templateRefPattern = regexp.MustCompile(`\{\{\s*(page|app)\.([A-Za-z_][A-Za-z0-9_]*)\s*\}\}`)

// applyDeferred writes queued bindings and flows onto the freshest document
// snapshot and auto-creates every variable they reference. Runs after the
// whole tree exists so a binding can target a component from a later phase.
func (o *Orchestrator) applyDeferred(ctx context.Context, st *buildState) {
	if ctx.Err() != nil {
		return
	}

	nodes, err := o.doc.Components(st.req.ProjectID, st.req.PageID)
	if err != nil {
		st.warn("bindings not applied, document read failed: %v", err)
		return
	}
	index := indexByID(nodes)

	mutated := false
	for _, binding := range st.bindings {
		node, ok := index[binding.ComponentID]
		if !ok {
			st.warn("binding target %s not on document", binding.ComponentID)
			continue
		}
		attachBinding(node, binding)
		o.ensureTemplateVariables(st, binding.VariableBinding)
		o.ensureTemplateVariables(st, binding.Condition)
		mutated = true
	}

	for _, flow := range st.flows {
		node, ok := index[flow.ComponentID]
		if !ok {
			st.warn("flow target %s not on document", flow.ComponentID)
			continue
		}
		attachFlow(node, flow)
		mutated = true
	}

	// Props may reference variables directly through templating; those get
	// created too so nothing renders against a missing variable.
	for _, n := range nodes {
		n.Walk(func(node *component.Node) {
			for _, v := range node.Props {
				if s, ok := v.(string); ok {
					o.ensureTemplateVariables(st, s)
				}
			}
		})
	}

	if !mutated {
		return
	}
	if err := o.doc.ReplaceAll(st.req.ProjectID, st.req.PageID, nodes); err != nil {
		st.warn("bindings not persisted: %v", err)
	}
}

func indexByID(nodes []*component.Node) map[string]*component.Node {
	index := map[string]*component.Node{}
	for _, n := range nodes {
		n.Walk(func(node *component.Node) {
			if _, taken := index[node.ID]; !taken {
				index[node.ID] = node
			}
		})
	}
	return index
}

// attachBinding records a property binding under props.bindings, keyed by the
// bound property.
func attachBinding(node *component.Node, b component.BindingPayload) {
	bindings, _ := node.Props["bindings"].(map[string]any)
	if bindings == nil {
		bindings = map[string]any{}
	}
	entry := map[string]any{"variableBinding": b.VariableBinding}
	if b.Condition != "" {
		entry["condition"] = b.Condition
	}
	bindings[b.Property] = entry
	node.Props["bindings"] = bindings
}

// attachFlow synthesizes the action graph for one trigger: an implicit start
// node chained through the actions in order.
func attachFlow(node *component.Node, f component.FlowPayload) {
	prefix := fmt.Sprintf("flow-%s-%s", node.ID, f.Trigger)
	graph := []component.FlowNode{{ID: prefix + "-start", Kind: "start"}}
	for i, action := range f.Actions {
		id := fmt.Sprintf("%s-%d", prefix, i)
		graph[len(graph)-1].Next = id
		graph = append(graph, component.FlowNode{ID: id, Kind: "action", Action: action})
	}

	flows, _ := node.Props["flows"].(map[string]any)
	if flows == nil {
		flows = map[string]any{}
	}
	flows[f.Trigger] = graph
	node.Props["flows"] = flows
}

// ensureTemplateVariables creates every {{scope.name}} variable referenced in
// the value, with an empty string default, so bindings never dangle.
func (o *Orchestrator) ensureTemplateVariables(st *buildState, value string) {
	if value == "" {
		return
	}
	for _, match := range templateRefPattern.FindAllStringSubmatch(value, -1) {
		scope, name := component.VariableScope(match[1]), match[2]
		created, err := o.doc.CreateVariableIfMissing(st.req.ProjectID, component.Variable{
			Scope:        scope,
			Name:         name,
			DataType:     "string",
			InitialValue: "",
		})
		if err != nil {
			st.warn("variable %s.%s not created: %v", scope, name, err)
			continue
		}
		if created {
			logging.Build("auto-created variable %s.%s for binding", scope, name)
		}
	}
}
