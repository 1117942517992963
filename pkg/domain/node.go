package domain

import "strings"

// NodeKind is the visual/structural kind of a node on the canvas.
type NodeKind string

// NodeKind constants. Start is structural: exactly one per graph, never deleted.
const (
	KindStart          NodeKind = "start"
	KindChoice         NodeKind = "multiple-choice"
	KindDataCollection NodeKind = "data-collection"
	KindMessage        NodeKind = "message"
	KindEnd            NodeKind = "end"
)

// Kinds lists the kinds a user can create, in menu order.
var Kinds = []NodeKind{KindChoice, KindDataCollection, KindMessage, KindEnd}

// RecordType is the question type persisted by the remote store.
type RecordType string

// RecordType constants as stored remotely.
const (
	TypeChoice         RecordType = "choice"
	TypeDataCollection RecordType = "data_collection"
	TypeMessage        RecordType = "message"
	TypeEnd            RecordType = "end"
	TypeText           RecordType = "text"
)

// RecordTypeFor returns the stored question type used for a new node of the given kind.
func RecordTypeFor(kind NodeKind) RecordType {
	switch kind {
	case KindChoice:
		return TypeChoice
	case KindDataCollection:
		return TypeDataCollection
	case KindEnd:
		return TypeEnd
	default:
		return TypeMessage
	}
}

// KindFor derives the canvas kind of a stored question.
// The first question is always the start node, whatever its type.
func KindFor(t RecordType, isFirst bool) NodeKind {
	if isFirst {
		return KindStart
	}
	switch t {
	case TypeChoice:
		return KindChoice
	case TypeDataCollection:
		return KindDataCollection
	case TypeEnd:
		return KindEnd
	default:
		return KindMessage
	}
}

// Position is a coordinate in canvas space.
type Position struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Validation holds the length rules of a data-collection step.
type Validation struct {
	MinLength    int    `json:"minLength"`
	MaxLength    int    `json:"maxLength"`
	ErrorMessage string `json:"errorMessage"`
}

// DataCollection configures a step that captures user data.
type DataCollection struct {
	IsRequired  bool       `json:"isRequired"`
	DataType    string     `json:"dataType"` // text, email, phone, name, number, url
	Placeholder string     `json:"placeholder"`
	Validation  Validation `json:"validation"`
}

// MessageSettings configures how an informational message is delivered.
type MessageSettings struct {
	AutoAdvance         bool `json:"autoAdvance"`
	Delay               int  `json:"delay"` // milliseconds
	ShowTypingIndicator bool `json:"showTypingIndicator"`
}

// DefaultDataCollection is substituted when a record carries no data-collection settings.
func DefaultDataCollection() DataCollection {
	return DataCollection{
		DataType:   "text",
		Validation: Validation{MinLength: 0, MaxLength: 500},
	}
}

// DefaultMessageSettings is substituted when a record carries no message settings.
func DefaultMessageSettings() MessageSettings {
	return MessageSettings{AutoAdvance: true, Delay: 1500, ShowTypingIndicator: true}
}

// Content is the kind-specific payload of a node.
type Content struct {
	Text            string          `json:"text"`
	DataCollection  DataCollection  `json:"dataCollection"`
	MessageSettings MessageSettings `json:"messageSettings"`
}

// Node is one step of the conversation graph.
type Node struct {
	ID         string     `json:"id"`
	Kind       NodeKind   `json:"kind"`
	RecordType RecordType `json:"questionType"`
	Position   Position   `json:"position"`
	Content    Content    `json:"content"`
	Routing    Routing    `json:"routing"`
	IsFirst    bool       `json:"isFirst"`
	Temporary  bool       `json:"temporary,omitempty"`
}

// Clone returns a deep copy so callers can edit without aliasing the graph.
func (n Node) Clone() Node {
	c := n
	c.Routing = n.Routing.Clone()
	return c
}

// Structural reports whether the node is the protected entry point.
func (n Node) Structural() bool {
	return n.Kind == KindStart
}

// IsTemporaryID reports whether id was generated locally and has no remote record.
func IsTemporaryID(id string) bool {
	return strings.HasPrefix(id, TempPrefix) || id == "start-node" || id == TempStartNodeID
}
