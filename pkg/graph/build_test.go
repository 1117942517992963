package graph_test

import (
	"testing"

	"github.com/aretw0/flowcanvas/pkg/domain"
	"github.com/aretw0/flowcanvas/pkg/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func choiceRecords() []domain.Record {
	return []domain.Record{
		{
			ID:      "a",
			Type:    domain.TypeChoice,
			Text:    "Pick",
			IsFirst: true,
			Options: []domain.RecordOption{
				{Label: "To B", ActionType: domain.ActionNextQuestion, NextQuestionID: "b"},
				{Label: "To C", ActionType: domain.ActionNextQuestion, NextQuestionID: "c"},
			},
		},
		{ID: "b", Type: domain.TypeMessage, Text: "B"},
		{ID: "c", Type: domain.TypeEnd, Text: "C"},
	}
}

func TestBuildConnections_ChoiceWithTwoOptions(t *testing.T) {
	conns := graph.BuildConnections(choiceRecords())

	require.Len(t, conns, 2)
	for _, c := range conns {
		assert.Equal(t, "a", c.Source)
	}
	assert.Equal(t, "conn-a-option-0", conns[0].ID)
	assert.Equal(t, "b", conns[0].Target)
	assert.Equal(t, "To B", conns[0].Label)
	assert.Equal(t, "conn-a-option-1", conns[1].ID)
	assert.Equal(t, "c", conns[1].Target)
	assert.Equal(t, domain.StyleFor(domain.TypeChoice), conns[0].Style)
}

func TestBuildConnections_DanglingNextIsDropped(t *testing.T) {
	records := []domain.Record{
		{ID: "m", Type: domain.TypeMessage, Text: "hi", NextQuestionID: "ghost"},
	}

	conns := graph.BuildConnections(records)
	nodes := graph.BuildNodes(records)

	assert.Empty(t, conns)
	require.Len(t, nodes, 1)
	assert.Equal(t, "ghost", nodes[0].Routing.Next, "the reference is retained on the node")
}

func TestBuildConnections_OnlyActiveVariantConsulted(t *testing.T) {
	records := []domain.Record{
		{
			ID:             "a",
			Type:           domain.TypeChoice,
			Options:        []domain.RecordOption{{Label: "x", NextQuestionID: "b"}},
			NextQuestionID: "c",
		},
		{
			ID:             "b",
			Type:           domain.TypeMessage,
			Options:        []domain.RecordOption{{Label: "stale", NextQuestionID: "a"}},
			NextQuestionID: "c",
		},
		{ID: "c", Type: domain.TypeDataCollection},
	}

	conns := graph.BuildConnections(records)

	require.Len(t, conns, 2)
	assert.Equal(t, domain.Connection{
		ID: "conn-a-option-0", Source: "a", Target: "b", Label: "x", Style: domain.StyleFor(domain.TypeChoice),
	}, conns[0])
	assert.Equal(t, domain.Connection{
		ID: "conn-b-next", Source: "b", Target: "c", Label: "Auto-advance", Style: domain.StyleFor(domain.TypeMessage),
	}, conns[1])
}

func TestBuildConnections_SkipsSentinelSelfAndEmpty(t *testing.T) {
	records := []domain.Record{
		{ID: "a", Type: domain.TypeChoice, Options: []domain.RecordOption{
			{Label: "end", NextQuestionID: domain.EndConversation},
			{Label: "self", NextQuestionID: "a"},
			{Label: "", NextQuestionID: "  "},
			{Label: "", NextQuestionID: "b"},
			{Label: "link", ActionType: domain.ActionExternalLink, NextQuestionID: "b"},
		}},
		{ID: "b", Type: domain.TypeDataCollection, NextQuestionID: "a"},
	}

	conns := graph.BuildConnections(records)

	require.Len(t, conns, 2)
	assert.Equal(t, "conn-a-option-3", conns[0].ID)
	assert.Equal(t, "Next", conns[0].Label, "empty option labels default to Next")
	assert.Equal(t, "conn-b-next", conns[1].ID)
	assert.Equal(t, "Next", conns[1].Label)
}

func TestBuildNodes_Defaults(t *testing.T) {
	records := []domain.Record{
		{ID: "first", Type: domain.TypeChoice, IsFirst: true, Text: "hello"},
		{ID: "q2", Type: domain.TypeText},
		{ID: "q3", Type: domain.TypeDataCollection, Text: "email?", Position: &domain.Position{X: 5, Y: 6}},
	}

	nodes := graph.BuildNodes(records)
	require.Len(t, nodes, 3)

	assert.Equal(t, domain.KindStart, nodes[0].Kind)
	assert.Equal(t, domain.RoutingOptions, nodes[0].Routing.Mode, "start node keeps its record's routing mechanism")
	assert.Equal(t, domain.Position{X: 400, Y: 150}, nodes[0].Position)

	assert.Equal(t, domain.KindMessage, nodes[1].Kind)
	assert.NotEmpty(t, nodes[1].Content.Text, "missing text gets a placeholder")
	assert.Equal(t, domain.Position{X: 400, Y: 350}, nodes[1].Position)
	assert.Equal(t, domain.DefaultMessageSettings(), nodes[1].Content.MessageSettings)

	assert.Equal(t, domain.KindDataCollection, nodes[2].Kind)
	assert.Equal(t, domain.Position{X: 5, Y: 6}, nodes[2].Position)
	assert.Equal(t, 500, nodes[2].Content.DataCollection.Validation.MaxLength)
	assert.Equal(t, "text", nodes[2].Content.DataCollection.DataType)
	assert.False(t, nodes[2].Temporary)
}

func TestToRecord_WritesOnlyActiveVariant(t *testing.T) {
	n := domain.Node{
		ID:         "a",
		Kind:       domain.KindMessage,
		RecordType: domain.TypeMessage,
		Routing:    domain.NextRouting("b"),
		Content:    domain.Content{Text: "hi"},
	}
	rec := graph.ToRecord(n)
	assert.Equal(t, domain.Ref("b"), rec.NextQuestionID)
	assert.Nil(t, rec.Options)

	n.RecordType = domain.TypeChoice
	n.Routing = domain.OptionRouting(domain.Option{Label: "go", Target: "b"})
	rec = graph.ToRecord(n)
	assert.Empty(t, rec.NextQuestionID)
	require.Len(t, rec.Options, 1)
	assert.Equal(t, domain.ActionNextQuestion, rec.Options[0].ActionType)
	assert.Equal(t, domain.Ref("b"), rec.Options[0].NextQuestionID)
}

func TestPatchFromNode(t *testing.T) {
	choice := domain.Node{
		ID:         "a",
		RecordType: domain.TypeChoice,
		Routing:    domain.OptionRouting(domain.Option{Label: "go", Target: "b"}),
		Content:    domain.Content{Text: "pick"},
	}
	p := graph.PatchFromNode(choice)
	assert.True(t, p.ClearNext)
	assert.False(t, p.ClearOptions)
	assert.Len(t, p.Options, 1)
	require.NotNil(t, p.Text)
	assert.Equal(t, "pick", *p.Text)

	msg := domain.Node{ID: "m", RecordType: domain.TypeMessage, Routing: domain.NextRouting("")}
	p = graph.PatchFromNode(msg)
	assert.True(t, p.ClearOptions)
	assert.True(t, p.ClearNext)
	assert.Nil(t, p.NextQuestionID)
}

func TestRoundTrip_NodeRecordNode(t *testing.T) {
	content, routing := domain.NewContent(domain.KindChoice)
	n := domain.Node{
		ID:         "x",
		Kind:       domain.KindChoice,
		RecordType: domain.TypeChoice,
		Content:    content,
		Routing:    routing,
		Position:   domain.Position{X: 1, Y: 2},
	}
	back := graph.NodeFromRecord(graph.ToRecord(n), 0)

	assert.Equal(t, n.Kind, back.Kind)
	assert.Equal(t, n.Content, back.Content)
	assert.Equal(t, n.Position, back.Position)
	require.Len(t, back.Routing.Options, 2)
	assert.Equal(t, "Option 1", back.Routing.Options[0].Label)
}
