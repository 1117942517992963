package graph

import (
	"strings"

	"github.com/aretw0/flowcanvas/pkg/domain"
)

// FallbackPosition is where record i is placed when it carries no position.
func FallbackPosition(i int) domain.Position {
	return domain.Position{X: 400, Y: 150 + float64(i)*200}
}

// BuildNodes maps stored records to nodes. It never fails: missing fields are
// replaced with defaults and missing text with a placeholder.
func BuildNodes(records []domain.Record) []domain.Node {
	nodes := make([]domain.Node, 0, len(records))
	for i, rec := range records {
		nodes = append(nodes, NodeFromRecord(rec, i))
	}
	return nodes
}

// NodeFromRecord converts a single record. i is its index in the listing and
// only matters when the record has no position.
func NodeFromRecord(rec domain.Record, i int) domain.Node {
	kind := domain.KindFor(rec.Type, rec.IsFirst)
	recType := rec.Type
	if recType == "" {
		recType = domain.TypeMessage
	}

	pos := FallbackPosition(i)
	if rec.Position != nil {
		pos = *rec.Position
	}

	content := domain.Content{
		Text:            rec.Text,
		DataCollection:  domain.DefaultDataCollection(),
		MessageSettings: domain.DefaultMessageSettings(),
	}
	if strings.TrimSpace(content.Text) == "" {
		content.Text = domain.PlaceholderText(kind)
	}
	if rec.DataCollection != nil {
		content.DataCollection = *rec.DataCollection
	}
	if rec.MessageSettings != nil {
		content.MessageSettings = *rec.MessageSettings
	}

	return domain.Node{
		ID:         rec.ID,
		Kind:       kind,
		RecordType: recType,
		Position:   pos,
		Content:    content,
		Routing:    routingFromRecord(rec),
		IsFirst:    rec.IsFirst,
		Temporary:  domain.IsTemporaryID(rec.ID),
	}
}

// routingFromRecord consults only the variant used by the record's type, even
// when storage carries both.
func routingFromRecord(rec domain.Record) domain.Routing {
	if domain.RoutingModeFor(rec.Type) == domain.RoutingNext {
		return domain.NextRouting(strings.TrimSpace(rec.NextQuestionID.String()))
	}
	opts := make([]domain.Option, 0, len(rec.Options))
	for _, o := range rec.Options {
		opts = append(opts, domain.Option{
			Label:       o.Label,
			Action:      o.ActionType,
			Target:      strings.TrimSpace(o.NextQuestionID.String()),
			ActionValue: o.ActionValue,
			Button:      o.ButtonStyle,
		})
	}
	return domain.OptionRouting(opts...)
}

// BuildConnections derives edges from stored records. Option edges come from
// option-routed records only; every other record yields at most one next edge.
// References to ids absent from records, to the END sentinel or to the record
// itself produce no connection.
func BuildConnections(records []domain.Record) []domain.Connection {
	known := make(map[string]bool, len(records))
	for _, rec := range records {
		known[rec.ID] = true
	}

	var conns []domain.Connection
	for _, rec := range records {
		conns = append(conns, connectionsFor(NodeFromRecord(rec, 0), known)...)
	}
	return conns
}

// ConnectionsFromNodes derives edges from in-memory nodes using the same rules
// as BuildConnections.
func ConnectionsFromNodes(nodes []domain.Node) []domain.Connection {
	known := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		known[n.ID] = true
	}
	var conns []domain.Connection
	for _, n := range nodes {
		conns = append(conns, connectionsFor(n, known)...)
	}
	return conns
}

func connectionsFor(n domain.Node, known map[string]bool) []domain.Connection {
	resolvable := func(target string) bool {
		return target != "" && target != domain.EndConversation && target != n.ID && known[target]
	}
	style := domain.StyleFor(n.RecordType)

	var out []domain.Connection
	if n.Routing.Mode == domain.RoutingOptions {
		for i, o := range n.Routing.Options {
			if !o.RoutesToQuestion() || !resolvable(o.Target) {
				continue
			}
			label := o.Label
			if label == "" {
				label = "Next"
			}
			out = append(out, domain.Connection{
				ID:     domain.OptionConnectionID(n.ID, i),
				Source: n.ID,
				Target: o.Target,
				Label:  label,
				Style:  style,
			})
		}
		return out
	}

	if resolvable(n.Routing.Next) {
		label := "Next"
		if n.RecordType == domain.TypeMessage {
			label = "Auto-advance"
		}
		out = append(out, domain.Connection{
			ID:     domain.NextConnectionID(n.ID),
			Source: n.ID,
			Target: n.Routing.Next,
			Label:  label,
			Style:  style,
		})
	}
	return out
}

// LocalConnection is the edge added between parent and a freshly created child
// before the next reload recomputes it.
func LocalConnection(parent domain.Node, child string) domain.Connection {
	label := "Next"
	if parent.Routing.Mode == domain.RoutingOptions {
		label = "Option"
	}
	return domain.Connection{
		ID:     domain.LocalConnectionID(parent.ID, child),
		Source: parent.ID,
		Target: child,
		Label:  label,
		Style:  domain.StyleFor(parent.RecordType),
	}
}

// ToRecord converts a node back to the stored shape. Only the active routing
// variant is written.
func ToRecord(n domain.Node) domain.Record {
	pos := n.Position
	dc := n.Content.DataCollection
	ms := n.Content.MessageSettings
	rec := domain.Record{
		ID:              n.ID,
		Type:            n.RecordType,
		Text:            n.Content.Text,
		Position:        &pos,
		DataCollection:  &dc,
		MessageSettings: &ms,
		IsFirst:         n.IsFirst,
		FlowID:          domain.DefaultFlowID,
		NodeType:        string(n.Kind),
	}
	if rec.Type == "" {
		rec.Type = domain.RecordTypeFor(n.Kind)
	}
	r := n.Routing.Coerce(rec.Type)
	if r.Mode == domain.RoutingOptions {
		rec.Options = RecordOptions(r.Options)
	} else {
		rec.NextQuestionID = domain.Ref(r.Next)
	}
	return rec
}

// PatchFromNode builds the full update sent when a node is saved. The inactive
// routing variant is explicitly cleared.
func PatchFromNode(n domain.Node) domain.RecordPatch {
	rec := ToRecord(n)
	p := domain.RecordPatch{
		Text:            &rec.Text,
		Type:            &rec.Type,
		Position:        rec.Position,
		DataCollection:  rec.DataCollection,
		MessageSettings: rec.MessageSettings,
	}
	if domain.RoutingModeFor(rec.Type) == domain.RoutingOptions {
		p.Options = rec.Options
		if p.Options == nil {
			p.ClearOptions = true
		}
		p.ClearNext = true
		return p
	}
	p.ClearOptions = true
	if rec.NextQuestionID == "" {
		p.ClearNext = true
	} else {
		next := rec.NextQuestionID.String()
		p.NextQuestionID = &next
	}
	return p
}

// PositionPatch moves a stored question without touching anything else.
func PositionPatch(pos domain.Position) domain.RecordPatch {
	return domain.RecordPatch{Position: &pos}
}

// RecordOptions converts options to the stored shape. Options without an
// action are stored as next_question.
func RecordOptions(opts []domain.Option) []domain.RecordOption {
	if len(opts) == 0 {
		return nil
	}
	out := make([]domain.RecordOption, 0, len(opts))
	for _, o := range opts {
		action := o.Action
		if action == "" {
			action = domain.ActionNextQuestion
		}
		out = append(out, domain.RecordOption{
			Label:          o.Label,
			ActionType:     action,
			NextQuestionID: domain.Ref(o.Target),
			ActionValue:    o.ActionValue,
			ButtonStyle:    o.Button,
		})
	}
	return out
}
