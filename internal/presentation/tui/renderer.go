package tui

import (
	"fmt"
	"strings"

	"github.com/aretw0/flowcanvas/pkg/domain"
	"github.com/charmbracelet/glamour"
)

// NewRenderer returns a function that renders markdown using glamour,
// wrapped at width columns.
func NewRenderer(width int) (func(string) (string, error), error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create renderer: %w", err)
	}
	return r.Render, nil
}

// NodeMarkdown describes a node as a markdown document.
func NodeMarkdown(n domain.Node) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", kindTitle(n.Kind))
	fmt.Fprintf(&sb, "`%s`", n.ID)
	if n.Temporary {
		sb.WriteString(" *(not saved yet)*")
	}
	sb.WriteString("\n\n")
	fmt.Fprintf(&sb, "> %s\n\n", strings.ReplaceAll(strings.TrimSpace(n.Content.Text), "\n", "\n> "))

	switch n.Kind {
	case domain.KindDataCollection:
		dc := n.Content.DataCollection
		fmt.Fprintf(&sb, "- **Type:** %s\n", dc.DataType)
		fmt.Fprintf(&sb, "- **Required:** %t\n", dc.IsRequired)
		fmt.Fprintf(&sb, "- **Length:** %d-%d\n", dc.Validation.MinLength, dc.Validation.MaxLength)
		if dc.Placeholder != "" {
			fmt.Fprintf(&sb, "- **Placeholder:** %s\n", dc.Placeholder)
		}
	case domain.KindMessage:
		ms := n.Content.MessageSettings
		fmt.Fprintf(&sb, "- **Auto-advance:** %t\n", ms.AutoAdvance)
		fmt.Fprintf(&sb, "- **Delay:** %dms\n", ms.Delay)
	}

	if n.Routing.Mode == domain.RoutingOptions {
		sb.WriteString("\n## Options\n\n")
		if len(n.Routing.Options) == 0 {
			sb.WriteString("*No options*\n")
		}
		for i, o := range n.Routing.Options {
			target := o.Target
			switch {
			case o.Action == domain.ActionExternalLink:
				target = o.ActionValue
			case target == "":
				target = "-"
			}
			fmt.Fprintf(&sb, "%d. **%s** → %s\n", i+1, o.Label, target)
		}
	} else if n.Routing.Next != "" {
		fmt.Fprintf(&sb, "\n**Next:** `%s`\n", n.Routing.Next)
	}
	return sb.String()
}

func kindTitle(k domain.NodeKind) string {
	switch k {
	case domain.KindStart:
		return "Start"
	case domain.KindChoice:
		return "Multiple Choice"
	case domain.KindDataCollection:
		return "Data Collection"
	case domain.KindEnd:
		return "End Conversation"
	default:
		return "Bot Message"
	}
}
