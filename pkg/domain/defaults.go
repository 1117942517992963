package domain

// DefaultCreatePosition is used when a node is created without a position.
var DefaultCreatePosition = Position{X: 300, Y: 200}

// StartPosition is where the synthesized start node is placed.
var StartPosition = Position{X: 600, Y: 150}

// TempStartText greets the user on an empty flow.
const TempStartText = "Welcome! How can we help you?"

// NewTempStartNode returns the placeholder entry point shown for an empty store.
func NewTempStartNode() Node {
	return Node{
		ID:         TempStartNodeID,
		Kind:       KindStart,
		RecordType: TypeMessage,
		Position:   StartPosition,
		Content: Content{
			Text:            TempStartText,
			DataCollection:  DefaultDataCollection(),
			MessageSettings: MessageSettings{AutoAdvance: true, Delay: 2000},
		},
		Routing:   NextRouting(""),
		IsFirst:   true,
		Temporary: true,
	}
}

// PlaceholderText is shown for a stored question that carries no text.
func PlaceholderText(kind NodeKind) string {
	switch kind {
	case KindStart:
		return "Start"
	case KindChoice:
		return "Multiple choice question"
	case KindDataCollection:
		return "Data collection question"
	case KindEnd:
		return "End of conversation"
	default:
		return "Message"
	}
}

// NewContent returns the payload of a freshly created node along with its routing.
func NewContent(kind NodeKind) (Content, Routing) {
	c := Content{
		DataCollection:  DefaultDataCollection(),
		MessageSettings: DefaultMessageSettings(),
	}
	r := NextRouting("")
	switch kind {
	case KindChoice:
		c.Text = "Please select an option"
		r = OptionRouting(
			Option{Label: "Option 1", Action: ActionNextQuestion},
			Option{Label: "Option 2", Action: ActionNextQuestion},
		)
	case KindDataCollection:
		c.Text = "Please provide the following information"
		c.DataCollection = DataCollection{
			IsRequired:  true,
			DataType:    "email",
			Placeholder: "Enter your email...",
			Validation: Validation{
				MinLength:    0,
				MaxLength:    500,
				ErrorMessage: "Please enter a valid email address",
			},
		}
	case KindEnd:
		c.Text = "Thank you for your time!"
	default:
		c.Text = "Here is some information for you"
		c.MessageSettings = MessageSettings{AutoAdvance: true, Delay: 2000, ShowTypingIndicator: true}
	}
	return c, r
}

// NewChildOption is appended to an option-routed parent when a child is created under it.
func NewChildOption(target string) Option {
	return Option{
		Label:  "New Option",
		Action: ActionNextQuestion,
		Target: target,
		Button: DefaultButtonStyle(),
	}
}

// DataTypes are the accepted data-collection input types.
var DataTypes = []string{"text", "email", "phone", "name", "number", "url"}

// ButtonVariants are the accepted option button variants.
var ButtonVariants = []string{"primary", "secondary", "success", "warning", "danger"}
