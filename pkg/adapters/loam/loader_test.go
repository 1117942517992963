package loam

import (
	"context"
	"testing"

	"github.com/aretw0/loam"

	"github.com/aretw0/flowcanvas/internal/testutils"
	"github.com/aretw0/flowcanvas/pkg/adapters/memory"
	"github.com/aretw0/flowcanvas/pkg/domain"
	"github.com/aretw0/flowcanvas/pkg/graph"
	"github.com/aretw0/flowcanvas/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var welcomeFlow = map[string]string{
	"ask.md": `---
type: choice
options:
  - text: Sure
    to: name
  - text: Docs
    action: external_link
    value: https://example.com
  - text: Ghost
    to: missing
---
Do you want to continue?`,
	"name.md": `---
type: data_collection
required: true
data_type: email
max_length: 120
next: bye.md
---
What is your email?`,
	"bye.md": `---
type: end
---
Bye!`,
	"start.md": `---
type: message
next: ask
auto_advance: true
delay: 800
position:
  x: 10
  y: 20
---
Welcome!`,
}

var _ ports.RecordSource = (*Loader)(nil)

func newLoader(t *testing.T, files map[string]string) *Loader {
	t.Helper()
	dir, repo := testutils.SetupTestRepo(t)
	testutils.WriteFlow(t, dir, files)
	return New(loam.NewTypedRepository[QuestionMetadata](repo))
}

func TestLoader_Questions(t *testing.T) {
	qs, err := newLoader(t, welcomeFlow).Questions(context.Background())
	require.NoError(t, err)
	require.Len(t, qs, 4)

	start := qs[0]
	assert.Equal(t, "start", start.Key, "start is moved to the front")
	assert.True(t, start.Record.IsFirst)
	assert.Equal(t, "Welcome!", start.Record.Text)
	assert.Equal(t, domain.Ref("ask"), start.Record.NextQuestionID)
	require.NotNil(t, start.Record.Position)
	assert.Equal(t, 20.0, start.Record.Position.Y)
	require.NotNil(t, start.Record.MessageSettings)
	assert.True(t, start.Record.MessageSettings.AutoAdvance)
	assert.Equal(t, 800, start.Record.MessageSettings.Delay)

	byKey := map[string]domain.Record{}
	for _, q := range qs {
		byKey[q.Key] = q.Record
	}
	ask := byKey["ask"]
	require.Len(t, ask.Options, 3)
	assert.Equal(t, domain.ActionNextQuestion, ask.Options[0].ActionType)
	assert.Equal(t, domain.ActionExternalLink, ask.Options[1].ActionType)
	assert.Empty(t, ask.NextQuestionID)

	name := byKey["name"]
	assert.Equal(t, domain.Ref("bye"), name.NextQuestionID, "extensions are stripped from references")
	require.NotNil(t, name.DataCollection)
	assert.True(t, name.DataCollection.IsRequired)
	assert.Equal(t, "email", name.DataCollection.DataType)
	assert.Equal(t, 120, name.DataCollection.Validation.MaxLength)
	assert.Equal(t, "What is your email?", name.Text)
	assert.Equal(t, "Do you want to continue?", ask.Text)
}

func TestLoader_Questions_DetectsCollisions(t *testing.T) {
	l := newLoader(t, map[string]string{
		"foo.md": "---\nid: foo\ntype: message\n---\nOne",
		"bar.md": "---\nid: foo.md\ntype: message\n---\nTwo",
	})

	_, err := l.Questions(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "collision detected")
}

func TestLoader_Questions_RejectsTwoFirst(t *testing.T) {
	l := newLoader(t, map[string]string{
		"a.md": "---\ntype: message\nfirst: true\n---\nA",
		"b.md": "---\ntype: message\nfirst: true\n---\nB",
	})

	_, err := l.Questions(context.Background())
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestLoader_Import(t *testing.T) {
	ctx := context.Background()
	l := newLoader(t, welcomeFlow)
	qs, err := l.Questions(ctx)
	require.NoError(t, err)

	store := memory.NewStore(memory.WithIDGenerator(testutils.SequentialIDs("q")))
	res, err := l.Import(ctx, store, "acme", qs)
	require.NoError(t, err)
	assert.Len(t, res.IDs, 4)
	assert.Equal(t, 1, res.Dropped)
	assert.Equal(t, "q1", res.IDs["start"])

	records, err := store.List(ctx, "acme")
	require.NoError(t, err)
	require.Len(t, records, 4)
	assert.True(t, records[0].IsFirst)
	assert.Equal(t, domain.Ref(res.IDs["ask"]), records[0].NextQuestionID)
	assert.Equal(t, "Welcome!", records[0].Text)
	for _, r := range records {
		assert.NotEmpty(t, r.Text, "record %s lost its body", r.ID)
	}

	conns := graph.BuildConnections(records)
	// start->ask, ask->name, name->bye. The external link and the dropped
	// reference yield nothing.
	assert.Len(t, conns, 3)
}

func TestLoader_ExportRoundTrip(t *testing.T) {
	ctx := context.Background()
	_, repo := testutils.SetupTestRepo(t)
	l := New(loam.NewTypedRepository[QuestionMetadata](repo))

	pos := domain.Position{X: 1, Y: 2}
	records := []domain.Record{
		{ID: "q1", Type: domain.TypeMessage, Text: "Hi", IsFirst: true, NextQuestionID: "q2", Position: &pos},
		{ID: "q2", Type: domain.TypeChoice, Text: "Pick", Options: []domain.RecordOption{
			{Label: "End", ActionType: domain.ActionNextQuestion, NextQuestionID: "q3"},
		}},
		{ID: "q3", Type: domain.TypeEnd, Text: "Bye"},
	}
	require.NoError(t, l.Export(ctx, records))

	qs, err := l.Questions(ctx)
	require.NoError(t, err)
	require.Len(t, qs, 3)
	assert.Equal(t, "q1", qs[0].Key)
	assert.Equal(t, "Hi", qs[0].Record.Text)
	assert.True(t, qs[0].Record.IsFirst)
	assert.Equal(t, domain.Ref("q2"), qs[0].Record.NextQuestionID)
	require.NotNil(t, qs[0].Record.Position)
	assert.Equal(t, pos, *qs[0].Record.Position)

	for _, q := range qs {
		if q.Key == "q2" {
			require.Len(t, q.Record.Options, 1)
			assert.Equal(t, domain.Ref("q3"), q.Record.Options[0].NextQuestionID)
		}
	}
}

func TestLoader_Records(t *testing.T) {
	records, err := newLoader(t, welcomeFlow).Records(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 4)
	assert.Equal(t, "start", records[0].ID)

	// Keys double as ids, so the flow can be drawn before it is imported.
	nodes := graph.BuildNodes(records)
	assert.Equal(t, domain.KindStart, nodes[0].Kind)
	assert.Len(t, graph.BuildConnections(records), 3)
}
