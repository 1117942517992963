package domain

import "fmt"

// Style is the stroke of a rendered edge.
type Style struct {
	Color string `json:"stroke"`
	Dash  string `json:"strokeDasharray"`
}

// StyleFor returns the edge style used for connections leaving a question of type t.
func StyleFor(t RecordType) Style {
	switch t {
	case TypeChoice:
		return Style{Color: "#8b5cf6", Dash: "0"}
	case TypeMessage:
		return Style{Color: "#f59e0b", Dash: "5,5"}
	case TypeDataCollection:
		return Style{Color: "#10b981", Dash: "0"}
	default:
		return Style{Color: "#6b7280", Dash: "0"}
	}
}

// Connection is a directed edge derived from a node's routing. It is never persisted.
type Connection struct {
	ID     string `json:"id"`
	Source string `json:"source"`
	Target string `json:"target"`
	Label  string `json:"label"`
	Style  Style  `json:"style"`
}

// OptionConnectionID names the edge produced by option i of source.
func OptionConnectionID(source string, i int) string {
	return fmt.Sprintf("conn-%s-option-%d", source, i)
}

// NextConnectionID names the single-next edge of source.
func NextConnectionID(source string) string {
	return fmt.Sprintf("conn-%s-next", source)
}

// LocalConnectionID names an edge added by the editor without a reload.
func LocalConnectionID(parent, child string) string {
	return fmt.Sprintf("conn-%s-%s", parent, child)
}
