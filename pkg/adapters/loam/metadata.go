package loam

// QuestionMetadata is the frontmatter of one question document.
// The body of the document is the question text.
type QuestionMetadata struct {
	ID       string            `json:"id" mapstructure:"id" yaml:"id"`
	Type     string            `json:"type" mapstructure:"type" yaml:"type"`
	First    bool              `json:"first,omitempty" mapstructure:"first" yaml:"first,omitempty"`
	Next     string            `json:"next,omitempty" mapstructure:"next" yaml:"next,omitempty"`
	Options  []OptionMetadata  `json:"options,omitempty" mapstructure:"options" yaml:"options,omitempty"`
	Position *PositionMetadata `json:"position,omitempty" mapstructure:"position" yaml:"position,omitempty"`

	// Data collection
	Required     bool   `json:"required,omitempty" mapstructure:"required" yaml:"required,omitempty"`
	DataType     string `json:"data_type,omitempty" mapstructure:"data_type" yaml:"data_type,omitempty"`
	Placeholder  string `json:"placeholder,omitempty" mapstructure:"placeholder" yaml:"placeholder,omitempty"`
	MinLength    int    `json:"min_length,omitempty" mapstructure:"min_length" yaml:"min_length,omitempty"`
	MaxLength    int    `json:"max_length,omitempty" mapstructure:"max_length" yaml:"max_length,omitempty"`
	ErrorMessage string `json:"error_message,omitempty" mapstructure:"error_message" yaml:"error_message,omitempty"`

	// Message delivery
	AutoAdvance bool `json:"auto_advance,omitempty" mapstructure:"auto_advance" yaml:"auto_advance,omitempty"`
	Delay       int  `json:"delay,omitempty" mapstructure:"delay" yaml:"delay,omitempty"`
	Typing      bool `json:"typing,omitempty" mapstructure:"typing" yaml:"typing,omitempty"`
}

// OptionMetadata is one button of a choice question.
// To names the target document; Action defaults to next_question.
type OptionMetadata struct {
	Text   string `json:"text" mapstructure:"text" yaml:"text"`
	To     string `json:"to,omitempty" mapstructure:"to" yaml:"to,omitempty"`
	Action string `json:"action,omitempty" mapstructure:"action" yaml:"action,omitempty"`
	Value  string `json:"value,omitempty" mapstructure:"value" yaml:"value,omitempty"`
}

// PositionMetadata pins a question on the canvas.
type PositionMetadata struct {
	X float64 `json:"x" mapstructure:"x" yaml:"x"`
	Y float64 `json:"y" mapstructure:"y" yaml:"y"`
}
