package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/flowcanvas/pkg/domain"
)

// LabelLimit is the number of runes of node text shown in a diagram.
const LabelLimit = 40

// Overlay marks nodes to highlight on the diagram.
type Overlay struct {
	Selected string
}

// GenerateMermaid produces a Mermaid flowchart of the canvas. Shapes follow
// the node kind:
//   - start: ((circle))
//   - multiple choice: {rhombus}
//   - data collection: [/parallelogram/]
//   - end: ([stadium])
//   - message: [rectangle]
//
// Temporary nodes get a dashed style, option edges carry their label.
func GenerateMermaid(nodes []domain.Node, conns []domain.Connection, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	var temporary []string
	for _, node := range nodes {
		safeID := sanitizeMermaidID(node.ID)
		opener, closer := shape(node.Kind)
		sb.WriteString(fmt.Sprintf("    %s%s\"%s\"%s\n", safeID, opener, label(node), closer))
		if node.Temporary {
			temporary = append(temporary, safeID)
		}
	}

	for _, c := range conns {
		from, to := sanitizeMermaidID(c.Source), sanitizeMermaidID(c.Target)
		arrow := "-->"
		if c.Label != "" && c.Label != "Next" {
			arrow = fmt.Sprintf("-- \"%s\" -->", escape(c.Label))
		}
		if dashed(c.Style) {
			arrow = "-.->"
			if c.Label != "" && c.Label != "Next" {
				arrow = fmt.Sprintf("-. \"%s\" .->", escape(c.Label))
			}
		}
		sb.WriteString(fmt.Sprintf("    %s %s %s\n", from, arrow, to))
	}

	if len(temporary) > 0 || (overlay != nil && overlay.Selected != "") {
		sb.WriteString("\n    %% Overlay Styles\n")
		sb.WriteString("    classDef temporary stroke-dasharray:5 5,color:#666;\n")
		sb.WriteString("    classDef selected fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")
		for _, id := range temporary {
			sb.WriteString(fmt.Sprintf("    class %s temporary;\n", id))
		}
		if overlay != nil && overlay.Selected != "" {
			sb.WriteString(fmt.Sprintf("    class %s selected;\n", sanitizeMermaidID(overlay.Selected)))
		}
	}

	return sb.String()
}

func shape(kind domain.NodeKind) (string, string) {
	switch kind {
	case domain.KindStart:
		return "((", "))"
	case domain.KindChoice:
		return "{", "}"
	case domain.KindDataCollection:
		return "[/", "/]"
	case domain.KindEnd:
		return "([", "])"
	default:
		return "[", "]"
	}
}

func label(n domain.Node) string {
	text := strings.Join(strings.Fields(n.Content.Text), " ")
	if r := []rune(text); len(r) > LabelLimit {
		text = string(r[:LabelLimit]) + "…"
	}
	if text == "" {
		return n.ID
	}
	return escape(text)
}

func escape(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	return s
}

func dashed(s domain.Style) bool {
	return s.Dash != "" && s.Dash != "0"
}
