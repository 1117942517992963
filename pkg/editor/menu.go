package editor

import (
	"strings"

	"github.com/aretw0/flowcanvas/pkg/domain"
)

// MenuItem is one creatable node type in the context menu.
type MenuItem struct {
	Kind        domain.NodeKind `json:"kind"`
	Label       string          `json:"label"`
	Description string          `json:"description"`
	Tags        []string        `json:"tags,omitempty"`
}

// Catalog lists the node types offered by the context menu, in display order.
var Catalog = []MenuItem{
	{
		Kind:        domain.KindChoice,
		Label:       "Multiple Choice",
		Description: "Give user options to select",
		Tags:        []string{"External Links", "Button Styles"},
	},
	{
		Kind:        domain.KindDataCollection,
		Label:       "Data Collection",
		Description: "Collect validated user data (email, phone, etc.)",
		Tags:        []string{"Email", "Phone", "Validation"},
	},
	{
		Kind:        domain.KindMessage,
		Label:       "Bot Message",
		Description: "Show information to user",
	},
	{
		Kind:        domain.KindEnd,
		Label:       "End Conversation",
		Description: "Finish the conversation",
	},
}

// Menu is an open creation menu.
type Menu struct {
	// Screen is where the menu was opened, relative to the container.
	Screen domain.Position `json:"screen"`
	// Canvas is where a node created from the menu is placed.
	Canvas domain.Position `json:"canvas"`
	// Parent is the node the menu was opened on, if any.
	Parent string `json:"parent,omitempty"`
	Query  string `json:"query,omitempty"`
}

// Title is the menu header.
func (m Menu) Title() string {
	if m.Parent != "" {
		return "Add Next Step"
	}
	return "Add Node"
}

// Items returns the catalog entries matching the search query.
func (m Menu) Items() []MenuItem {
	return FilterCatalog(m.Query)
}

// EmptyText is shown when no entry matches.
func (m Menu) EmptyText() string {
	return `No node types found matching "` + m.Query + `"`
}

// FilterCatalog matches query case-insensitively against labels and descriptions.
func FilterCatalog(query string) []MenuItem {
	q := strings.ToLower(query)
	var out []MenuItem
	for _, item := range Catalog {
		if strings.Contains(strings.ToLower(item.Label), q) || strings.Contains(strings.ToLower(item.Description), q) {
			out = append(out, item)
		}
	}
	return out
}
