package lifecycle

import (
	"fmt"
	"strings"

	"github.com/aretw0/flowcanvas/pkg/domain"
)

// Draft is an editable copy of a node. Both routing variants are kept while
// editing so that switching the type back and forth loses nothing; only the
// variant matching the final type is saved.
type Draft struct {
	ID              string
	Kind            domain.NodeKind
	Type            domain.RecordType
	Text            string
	Options         []domain.Option
	Next            string
	DataCollection  domain.DataCollection
	MessageSettings domain.MessageSettings
	Position        domain.Position
	IsFirst         bool
	Temporary       bool
}

// NewDraft copies n, filling zero-valued settings with safe defaults.
func NewDraft(n domain.Node) *Draft {
	d := &Draft{
		ID:              n.ID,
		Kind:            n.Kind,
		Type:            n.RecordType,
		Text:            n.Content.Text,
		DataCollection:  n.Content.DataCollection,
		MessageSettings: n.Content.MessageSettings,
		Position:        n.Position,
		IsFirst:         n.IsFirst,
		Temporary:       n.Temporary,
	}
	if d.Type == "" {
		d.Type = domain.TypeText
	}
	if d.DataCollection.DataType == "" {
		d.DataCollection.DataType = "text"
	}
	if d.DataCollection.Validation.MaxLength == 0 {
		d.DataCollection.Validation.MaxLength = 500
	}
	if d.MessageSettings.Delay == 0 {
		d.MessageSettings.Delay = 1500
	}
	switch n.Routing.Mode {
	case domain.RoutingOptions:
		d.Options = append([]domain.Option(nil), n.Routing.Options...)
	default:
		d.Next = n.Routing.Next
	}
	return d
}

// AddOption appends an empty next_question option and returns its index.
func (d *Draft) AddOption(label string) int {
	d.Options = append(d.Options, domain.Option{
		Label:  label,
		Action: domain.ActionNextQuestion,
		Button: domain.DefaultButtonStyle(),
	})
	return len(d.Options) - 1
}

// UpdateOption edits option i in place.
func (d *Draft) UpdateOption(i int, fn func(*domain.Option)) error {
	if i < 0 || i >= len(d.Options) {
		return fmt.Errorf("%w: option %d out of range", domain.ErrValidation, i)
	}
	fn(&d.Options[i])
	return nil
}

// RemoveOption deletes option i.
func (d *Draft) RemoveOption(i int) error {
	if i < 0 || i >= len(d.Options) {
		return fmt.Errorf("%w: option %d out of range", domain.ErrValidation, i)
	}
	d.Options = append(d.Options[:i:i], d.Options[i+1:]...)
	return nil
}

// SetType changes the question type. The start node keeps its kind.
func (d *Draft) SetType(t domain.RecordType) {
	d.Type = t
	if d.Kind != domain.KindStart {
		d.Kind = domain.KindFor(t, false)
	}
}

// SetNext points a single-next node at target, or clears it with "".
func (d *Draft) SetNext(target string) {
	d.Next = target
}

// Validate checks the fields required on submission.
func (d *Draft) Validate() error {
	if strings.TrimSpace(d.Text) == "" {
		return fmt.Errorf("%w: question text is required", domain.ErrValidation)
	}
	if domain.RoutingModeFor(d.Type) == domain.RoutingOptions {
		for i, o := range d.Options {
			if o.Target == d.ID && o.RoutesToQuestion() {
				return fmt.Errorf("%w: option %d", domain.ErrSelfRoute, i)
			}
		}
		return nil
	}
	if d.Next == d.ID {
		return domain.ErrSelfRoute
	}
	return nil
}

// Node returns the node described by the draft, with only the active routing variant.
func (d *Draft) Node() domain.Node {
	n := domain.Node{
		ID:         d.ID,
		Kind:       d.Kind,
		RecordType: d.Type,
		Position:   d.Position,
		Content: domain.Content{
			Text:            d.Text,
			DataCollection:  d.DataCollection,
			MessageSettings: d.MessageSettings,
		},
		IsFirst:   d.IsFirst,
		Temporary: d.Temporary,
	}
	if domain.RoutingModeFor(d.Type) == domain.RoutingOptions {
		n.Routing = domain.OptionRouting(d.Options...)
	} else {
		n.Routing = domain.NextRouting(d.Next)
	}
	return n
}
