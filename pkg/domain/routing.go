package domain

// ActionType is what an option does when selected.
type ActionType string

// Option actions.
const (
	ActionNextQuestion    ActionType = "next_question"
	ActionExternalLink    ActionType = "external_link"
	ActionEndConversation ActionType = "end_conversation"
)

// ButtonStyle is the presentational hint for an option button.
type ButtonStyle struct {
	Variant string `json:"variant"` // primary, secondary, success, warning, danger
	Size    string `json:"size"`
}

// DefaultButtonStyle is applied to options appended by the editor.
func DefaultButtonStyle() ButtonStyle {
	return ButtonStyle{Variant: "primary", Size: "medium"}
}

// Option is one selectable answer of a choice step.
type Option struct {
	Label       string      `json:"label"`
	Action      ActionType  `json:"actionType"`
	Target      string      `json:"nextQuestionId,omitempty"`
	ActionValue string      `json:"actionValue,omitempty"`
	Button      ButtonStyle `json:"buttonStyle"`
}

// RoutesToQuestion reports whether selecting the option moves to another question.
// Options stored without an action behave as next_question.
func (o Option) RoutesToQuestion() bool {
	return o.Action == ActionNextQuestion || o.Action == ""
}

// RoutingMode selects the mechanism a node uses to declare its outgoing edges.
type RoutingMode string

// Routing modes. The two are mutually exclusive for a node.
const (
	RoutingOptions RoutingMode = "options"
	RoutingNext    RoutingMode = "next"
)

// RoutingModeFor returns the mechanism used by a question type.
func RoutingModeFor(t RecordType) RoutingMode {
	if t == TypeChoice {
		return RoutingOptions
	}
	return RoutingNext
}

// Routing is a tagged union: Options is only populated in RoutingOptions mode,
// Next only in RoutingNext mode.
type Routing struct {
	Mode    RoutingMode `json:"mode"`
	Options []Option    `json:"options,omitempty"`
	Next    string      `json:"next,omitempty"`
}

// OptionRouting builds option-based routing.
func OptionRouting(opts ...Option) Routing {
	return Routing{Mode: RoutingOptions, Options: append([]Option(nil), opts...)}
}

// NextRouting builds single-next routing. An empty target means "no next step yet".
func NextRouting(target string) Routing {
	return Routing{Mode: RoutingNext, Next: target}
}

// Clone copies the option slice.
func (r Routing) Clone() Routing {
	c := r
	if r.Options != nil {
		c.Options = append([]Option(nil), r.Options...)
	}
	return c
}

// Normalize drops whichever variant does not match the mode.
func (r Routing) Normalize() Routing {
	switch r.Mode {
	case RoutingOptions:
		r.Next = ""
	default:
		r.Mode = RoutingNext
		r.Options = nil
	}
	return r
}

// Coerce converts routing to the mechanism required by t.
// Switching away from options keeps nothing; switching to options starts empty.
func (r Routing) Coerce(t RecordType) Routing {
	mode := RoutingModeFor(t)
	if r.Mode == mode {
		return r.Normalize()
	}
	if mode == RoutingOptions {
		return OptionRouting()
	}
	return NextRouting("")
}

// Targets returns every node id the routing points at, sentinel excluded.
func (r Routing) Targets() []string {
	var out []string
	switch r.Mode {
	case RoutingOptions:
		for _, o := range r.Options {
			if o.RoutesToQuestion() && o.Target != "" && o.Target != EndConversation {
				out = append(out, o.Target)
			}
		}
	default:
		if r.Next != "" && r.Next != EndConversation {
			out = append(out, r.Next)
		}
	}
	return out
}

// RoutesTo reports whether any target equals id.
func (r Routing) RoutesTo(id string) bool {
	for _, t := range r.Targets() {
		if t == id {
			return true
		}
	}
	return false
}

// RewriteTarget replaces every reference to oldID with newID.
func (r Routing) RewriteTarget(oldID, newID string) Routing {
	c := r.Clone()
	if c.Next == oldID {
		c.Next = newID
	}
	for i := range c.Options {
		if c.Options[i].Target == oldID {
			c.Options[i].Target = newID
		}
	}
	return c
}
