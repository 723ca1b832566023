package graph

import (
	"fmt"
	"strings"
)

// Nodes returns the registered node ids in registration order.
func (e *Engine[S, P]) Nodes() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return append([]string(nil), e.order...)
}

// IsPauseNode reports whether nodeID was declared with PauseAfter.
func (e *Engine[S, P]) IsPauseNode(nodeID string) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.pauses[nodeID]
}

// Mermaid renders the graph as a Mermaid flowchart. Entry nodes are drawn
// as circles, pause nodes as parallelograms and router labels as edge
// labels. When current is non-empty those nodes are highlighted.
func (e *Engine[S, P]) Mermaid(current ...string) string {
	e.mu.RLock()
	defer e.mu.RUnlock()

	entries := make(map[string]bool, len(e.entries))
	for _, id := range e.entries {
		entries[id] = true
	}

	var sb strings.Builder
	sb.WriteString("graph TD\n")
	usesEnd := false

	for _, id := range e.order {
		opener, closer := "[", "]"
		switch {
		case entries[id]:
			opener, closer = "((", "))"
		case e.pauses[id]:
			opener, closer = "[/", "/]"
		}
		sb.WriteString(fmt.Sprintf("    %s%s\"%s\"%s\n", mermaidID(id), opener, id, closer))

		if r, ok := e.routers[id]; ok {
			for _, label := range r.Labels() {
				target := r.Routes[label]
				to := mermaidID(target)
				switch target {
				case END:
					usesEnd = true
				case PAUSE:
					to = mermaidID(id)
					label += " (pause)"
				}
				sb.WriteString(fmt.Sprintf("    %s -- \"%s\" --> %s\n", mermaidID(id), strings.ReplaceAll(label, "\"", "'"), to))
			}
			continue
		}
		for _, edge := range e.edgesFrom[id] {
			if edge.To == END {
				usesEnd = true
			}
			sb.WriteString(fmt.Sprintf("    %s --> %s\n", mermaidID(id), mermaidID(edge.To)))
		}
	}

	if usesEnd {
		sb.WriteString(fmt.Sprintf("    %s((\"END\"))\n", mermaidID(END)))
	}
	if len(current) > 0 {
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")
		for _, id := range current {
			sb.WriteString(fmt.Sprintf("    class %s current;\n", mermaidID(id)))
		}
	}
	return sb.String()
}

func mermaidID(id string) string {
	if id == END {
		return "END_"
	}
	r := strings.NewReplacer(".", "_", "-", "_", "/", "_", ":", "_", " ", "_")
	return r.Replace(id)
}
