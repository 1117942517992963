package lifecycle_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aretw0/flowcanvas/pkg/adapters/memory"
	"github.com/aretw0/flowcanvas/pkg/domain"
	"github.com/aretw0/flowcanvas/pkg/graph"
	"github.com/aretw0/flowcanvas/pkg/lifecycle"
	"github.com/aretw0/flowcanvas/pkg/syncer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tenant = "acme"

var errTransport = errors.New("connection reset")

// flakyStore wraps the memory store and fails selected operations on demand.
type flakyStore struct {
	*memory.Store
	failCreate atomic.Bool
	failUpdate atomic.Bool
	failDelete atomic.Bool
}

func (s *flakyStore) Create(ctx context.Context, tenant string, rec domain.Record) (domain.Record, error) {
	if s.failCreate.Load() {
		return domain.Record{}, errTransport
	}
	return s.Store.Create(ctx, tenant, rec)
}

func (s *flakyStore) Update(ctx context.Context, tenant, id string, p domain.RecordPatch) (domain.Record, error) {
	if s.failUpdate.Load() {
		return domain.Record{}, errTransport
	}
	return s.Store.Update(ctx, tenant, id, p)
}

func (s *flakyStore) Delete(ctx context.Context, tenant, id string) error {
	if s.failDelete.Load() {
		return errTransport
	}
	return s.Store.Delete(ctx, tenant, id)
}

func sequentialIDs() memory.Option {
	var n atomic.Int64
	return memory.WithIDGenerator(func() string {
		return fmt.Sprintf("q%d", n.Add(1))
	})
}

// recorder collects lifecycle events in order.
type recorder struct {
	mu     sync.Mutex
	events []domain.EventType
	prev   []string
}

func (r *recorder) hooks() domain.LifecycleHooks {
	node := func(_ context.Context, e *domain.NodeEvent) {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.events = append(r.events, e.Type)
		if e.PrevID != "" {
			r.prev = append(r.prev, e.PrevID)
		}
	}
	return domain.LifecycleHooks{
		OnNodeCreated:   node,
		OnNodeConverted: node,
		OnNodeUpdated:   node,
		OnNodeDeleted:   node,
		OnGraphChanged: func(_ context.Context, e *domain.GraphEvent) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.events = append(r.events, e.Type)
		},
	}
}

func (r *recorder) count(t domain.EventType) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e == t {
			n++
		}
	}
	return n
}

type fixture struct {
	store *flakyStore
	mgr   *lifecycle.Manager
	rec   *recorder
}

func newFixture(t *testing.T, seed []domain.Record, opts ...lifecycle.Option) *fixture {
	t.Helper()
	store := &flakyStore{Store: memory.NewStore(sequentialIDs())}
	ctx := context.Background()
	for _, r := range seed {
		_, err := store.Create(ctx, tenant, r)
		require.NoError(t, err)
	}
	c, err := syncer.New(store, tenant)
	require.NoError(t, err)

	rec := &recorder{}
	opts = append([]lifecycle.Option{lifecycle.WithRelayoutDelay(0), lifecycle.WithLifecycleHooks(rec.hooks())}, opts...)
	mgr := lifecycle.New(graph.New(nil, nil), c, opts...)
	require.NoError(t, mgr.Load(ctx))
	return &fixture{store: store, mgr: mgr, rec: rec}
}

func (f *fixture) stored(t *testing.T, id string) domain.Record {
	t.Helper()
	records, err := f.store.List(context.Background(), tenant)
	require.NoError(t, err)
	for _, r := range records {
		if r.ID == id {
			return r
		}
	}
	t.Fatalf("record %s not stored", id)
	return domain.Record{}
}

func firstCount(nodes []domain.Node) int {
	n := 0
	for _, node := range nodes {
		if node.IsFirst {
			n++
		}
	}
	return n
}

func TestCreate_UnderTemporaryStart(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	child, err := f.mgr.Create(ctx, domain.KindMessage, nil, domain.TempStartNodeID)
	require.NoError(t, err)
	assert.Equal(t, "q1", child.ID)
	assert.Equal(t, domain.KindMessage, child.Kind)

	g := f.mgr.Graph()
	_, ok := g.Node(domain.TempStartNodeID)
	assert.False(t, ok, "temporary start must be replaced")

	start, ok := g.First()
	require.True(t, ok)
	assert.Equal(t, "q2", start.ID)
	assert.Equal(t, domain.KindStart, start.Kind)
	assert.False(t, start.Temporary)
	assert.Equal(t, "q1", start.Routing.Next)
	assert.Equal(t, 1, firstCount(g.Nodes()))

	conns := g.Connections()
	require.Len(t, conns, 1)
	assert.Equal(t, "q2", conns[0].Source)
	assert.Equal(t, "q1", conns[0].Target)

	// Layout ran and was persisted.
	startPos, _ := g.Node("q2")
	childPos, _ := g.Node("q1")
	assert.Equal(t, domain.Position{X: 600, Y: 150}, startPos.Position)
	assert.Equal(t, domain.Position{X: 600, Y: 430}, childPos.Position)
	assert.Equal(t, domain.Position{X: 600, Y: 430}, *f.stored(t, "q1").Position)

	stored := f.stored(t, "q2")
	assert.True(t, stored.IsFirst)
	assert.Equal(t, "q1", stored.NextQuestionID.String())

	assert.Equal(t, []string{domain.TempStartNodeID}, f.rec.prev)
	assert.Equal(t, 1, f.rec.count(domain.EventNodeCreated))
	assert.Equal(t, 1, f.rec.count(domain.EventNodeConverted))
	assert.Equal(t, 1, f.rec.count(domain.EventNodeUpdated))
}

func TestCreate_UnderChoiceParentAppendsOption(t *testing.T) {
	f := newFixture(t, []domain.Record{{
		Type:    domain.TypeChoice,
		Text:    "Pick one",
		IsFirst: true,
		Options: []domain.RecordOption{{Label: "A", ActionType: domain.ActionNextQuestion}},
	}})
	ctx := context.Background()

	pos := domain.Position{X: 10, Y: 20}
	child, err := f.mgr.Create(ctx, domain.KindEnd, &pos, "q1")
	require.NoError(t, err)
	assert.Equal(t, "q2", child.ID)
	assert.Equal(t, domain.TypeEnd, f.stored(t, "q2").Type)

	parent := f.stored(t, "q1")
	require.Len(t, parent.Options, 2)
	assert.Equal(t, "New Option", parent.Options[1].Label)
	assert.Equal(t, "q2", parent.Options[1].NextQuestionID.String())
	assert.Equal(t, domain.ActionNextQuestion, parent.Options[1].ActionType)

	conns := f.mgr.Graph().Connections()
	require.Len(t, conns, 1)
	assert.Equal(t, "Option", conns[0].Label)

	// A reload derives the same edge from the stored records.
	require.NoError(t, f.mgr.Load(ctx))
	conns = f.mgr.Graph().Connections()
	require.Len(t, conns, 1)
	assert.Equal(t, "q1", conns[0].Source)
	assert.Equal(t, "q2", conns[0].Target)
	assert.Equal(t, "New Option", conns[0].Label)
}

func TestCreate_RejectsStartAndUnknownParent(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	_, err := f.mgr.Create(ctx, domain.KindStart, nil, "")
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.mgr.Create(ctx, domain.KindMessage, nil, "missing")
	assert.ErrorIs(t, err, domain.ErrNodeNotFound)
}

func TestCreate_UnknownKindFallsBackToMessage(t *testing.T) {
	f := newFixture(t, nil)

	n, err := f.mgr.Create(context.Background(), domain.NodeKind("banner"), nil, "")
	require.NoError(t, err)
	assert.Equal(t, domain.KindMessage, n.Kind)
	assert.Equal(t, domain.TypeMessage, f.stored(t, n.ID).Type)
}

func TestCreate_RemoteFailureLeavesGraphUnchanged(t *testing.T) {
	f := newFixture(t, []domain.Record{{Type: domain.TypeMessage, Text: "Hi", IsFirst: true}})
	before := f.mgr.Graph().Nodes()

	f.store.failCreate.Store(true)
	_, err := f.mgr.Create(context.Background(), domain.KindMessage, nil, "q1")
	require.ErrorIs(t, err, domain.ErrRemote)
	assert.ErrorIs(t, err, errTransport)

	assert.Equal(t, before, f.mgr.Graph().Nodes())
	assert.Empty(t, f.mgr.Graph().Connections())
	assert.Equal(t, 0, f.rec.count(domain.EventNodeCreated))
}

func TestCreate_LinkFailureKeepsChild(t *testing.T) {
	f := newFixture(t, []domain.Record{{Type: domain.TypeMessage, Text: "Hi", IsFirst: true}})

	f.store.failUpdate.Store(true)
	child, err := f.mgr.Create(context.Background(), domain.KindMessage, nil, "q1")
	require.ErrorIs(t, err, domain.ErrRemote)
	assert.Equal(t, "q2", child.ID)

	g := f.mgr.Graph()
	_, ok := g.Node("q2")
	assert.True(t, ok)
	parent, _ := g.Node("q1")
	assert.Empty(t, parent.Routing.Next)
	assert.Empty(t, g.Connections())
}

func TestConvert(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	n, err := f.mgr.Convert(ctx, domain.TempStartNodeID)
	require.NoError(t, err)
	assert.Equal(t, "q1", n.ID)
	assert.True(t, n.IsFirst)
	assert.False(t, n.Temporary)

	// Converting a persisted node does nothing.
	again, err := f.mgr.Convert(ctx, "q1")
	require.NoError(t, err)
	assert.Equal(t, "q1", again.ID)

	records, err := f.store.List(ctx, tenant)
	require.NoError(t, err)
	assert.Len(t, records, 1)

	_, err = f.mgr.Convert(ctx, "nope")
	assert.ErrorIs(t, err, domain.ErrNodeNotFound)
}

func TestSave_UpdatesAndRefreshes(t *testing.T) {
	f := newFixture(t, []domain.Record{
		{Type: domain.TypeMessage, Text: "Hi", IsFirst: true},
		{Type: domain.TypeMessage, Text: "Bye"},
	})
	ctx := context.Background()

	d, err := f.mgr.Edit("q1")
	require.NoError(t, err)
	d.Text = "Choose"
	d.SetType(domain.TypeChoice)
	i := d.AddOption("Leave")
	require.NoError(t, d.UpdateOption(i, func(o *domain.Option) { o.Target = "q2" }))

	saved, err := f.mgr.Save(ctx, d)
	require.NoError(t, err)
	assert.Equal(t, "q1", saved.ID)

	stored := f.stored(t, "q1")
	assert.Equal(t, domain.TypeChoice, stored.Type)
	assert.Equal(t, "Choose", stored.Text)
	assert.Empty(t, stored.NextQuestionID)
	require.Len(t, stored.Options, 1)
	assert.Equal(t, "q2", stored.Options[0].NextQuestionID.String())

	n, _ := f.mgr.Graph().Node("q1")
	assert.Equal(t, domain.KindStart, n.Kind)
	assert.Equal(t, domain.RoutingOptions, n.Routing.Mode)
	conns := f.mgr.Graph().Connections()
	require.Len(t, conns, 1)
	assert.Equal(t, "Leave", conns[0].Label)
	assert.Equal(t, 2, f.rec.count(domain.EventReload), "initial load and post-save refresh")
}

func TestSave_TemporaryNodeIsConverted(t *testing.T) {
	f := newFixture(t, nil)

	d, err := f.mgr.Edit(domain.TempStartNodeID)
	require.NoError(t, err)
	d.Text = "Welcome aboard"

	saved, err := f.mgr.Save(context.Background(), d)
	require.NoError(t, err)
	assert.Equal(t, "q1", saved.ID)
	assert.Equal(t, "Welcome aboard", f.stored(t, "q1").Text)
	assert.True(t, f.stored(t, "q1").IsFirst)
	assert.Equal(t, 1, f.rec.count(domain.EventNodeConverted))
}

func TestSave_RefreshKeepsEntryPoint(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	child, err := f.mgr.Create(ctx, domain.KindMessage, nil, "")
	require.NoError(t, err)
	d, err := f.mgr.Edit(child.ID)
	require.NoError(t, err)
	d.Text = "Standalone"
	_, err = f.mgr.Save(ctx, d)
	require.NoError(t, err)

	first, ok := f.mgr.Graph().First()
	require.True(t, ok)
	assert.Equal(t, domain.TempStartNodeID, first.ID)
	assert.Equal(t, 2, f.mgr.Graph().Stats().Nodes)
	assert.Equal(t, 1, f.mgr.Graph().Stats().Temporary)
}

func TestSave_ValidationFailsBeforeRemote(t *testing.T) {
	f := newFixture(t, []domain.Record{{Type: domain.TypeMessage, Text: "Hi", IsFirst: true}})

	d, err := f.mgr.Edit("q1")
	require.NoError(t, err)
	d.Text = ""
	f.store.failUpdate.Store(true)

	_, err = f.mgr.Save(context.Background(), d)
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.NotErrorIs(t, err, domain.ErrRemote)

	_, err = f.mgr.Edit("missing")
	assert.ErrorIs(t, err, domain.ErrNodeNotFound)
}

func TestDelete_ReLevelsRemainingGraph(t *testing.T) {
	f := newFixture(t, []domain.Record{
		{Type: domain.TypeMessage, Text: "start", IsFirst: true, NextQuestionID: "q2"},
		{Type: domain.TypeMessage, Text: "middle", NextQuestionID: "q3"},
		{Type: domain.TypeMessage, Text: "leaf"},
	})
	g := f.mgr.Graph()
	require.Len(t, g.Connections(), 2)
	leaf, _ := g.Node("q3")
	assert.Equal(t, float64(710), leaf.Position.Y)

	require.NoError(t, f.mgr.Delete(context.Background(), "q2"))

	_, ok := g.Node("q2")
	assert.False(t, ok)
	for _, c := range g.Connections() {
		assert.NotEqual(t, "q2", c.Source)
		assert.NotEqual(t, "q2", c.Target)
	}
	start, _ := g.Node("q1")
	leaf, _ = g.Node("q3")
	assert.Equal(t, domain.Position{X: 440, Y: 150}, start.Position)
	assert.Equal(t, domain.Position{X: 760, Y: 150}, leaf.Position)
	assert.Equal(t, 1, f.rec.count(domain.EventNodeDeleted))
}

func TestDelete_Protections(t *testing.T) {
	f := newFixture(t, []domain.Record{
		{Type: domain.TypeMessage, Text: "start", IsFirst: true},
		{Type: domain.TypeMessage, Text: "other"},
	})
	ctx := context.Background()

	assert.ErrorIs(t, f.mgr.Delete(ctx, "q1"), domain.ErrStartNodeProtected)
	assert.ErrorIs(t, f.mgr.Delete(ctx, "missing"), domain.ErrNodeNotFound)

	f.mgr.Graph().Insert(domain.Node{ID: "temp-1", Kind: domain.KindMessage, Temporary: true})
	assert.ErrorIs(t, f.mgr.Delete(ctx, "temp-1"), domain.ErrTemporaryNode)

	f.store.failDelete.Store(true)
	err := f.mgr.Delete(ctx, "q2")
	assert.ErrorIs(t, err, domain.ErrRemote)
	_, ok := f.mgr.Graph().Node("q2")
	assert.True(t, ok, "a failed delete must keep the node")
}

func TestAutoLayout_PersistsPositions(t *testing.T) {
	f := newFixture(t, []domain.Record{
		{Type: domain.TypeMessage, Text: "start", IsFirst: true, NextQuestionID: "q2", Position: &domain.Position{}},
		{Type: domain.TypeMessage, Text: "next", Position: &domain.Position{}},
	})

	require.NoError(t, f.mgr.AutoLayout(context.Background()))
	assert.Equal(t, domain.Position{X: 600, Y: 150}, *f.stored(t, "q1").Position)
	assert.Equal(t, domain.Position{X: 600, Y: 430}, *f.stored(t, "q2").Position)
}

func TestAutoLayout_FailuresAreJoined(t *testing.T) {
	f := newFixture(t, []domain.Record{
		{Type: domain.TypeMessage, Text: "start", IsFirst: true, NextQuestionID: "q2"},
		{Type: domain.TypeMessage, Text: "next"},
	})

	f.store.failUpdate.Store(true)
	err := f.mgr.AutoLayout(context.Background())
	require.ErrorIs(t, err, domain.ErrRemote)

	n, _ := f.mgr.Graph().Node("q2")
	assert.Equal(t, domain.Position{X: 600, Y: 430}, n.Position, "local positions are kept")
}

func TestScheduler_BatchesFollowUpLayout(t *testing.T) {
	f := newFixture(t, nil, lifecycle.WithRelayoutDelay(50*time.Millisecond))
	ctx := context.Background()

	_, err := f.mgr.Create(ctx, domain.KindMessage, nil, "")
	require.NoError(t, err)
	_, err = f.mgr.Create(ctx, domain.KindChoice, nil, "")
	require.NoError(t, err)

	f.mgr.Flush()
	assert.Equal(t, 1, f.rec.count(domain.EventLayout))
}

func TestCreate_ConcurrentChildrenOfSameParent(t *testing.T) {
	f := newFixture(t, []domain.Record{{
		Type:    domain.TypeChoice,
		Text:    "Pick",
		IsFirst: true,
		Options: []domain.RecordOption{{Label: "A", ActionType: domain.ActionNextQuestion}},
	}}, lifecycle.WithRelayoutDelay(10*time.Millisecond))
	ctx := context.Background()

	const workers = 10
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.mgr.Create(ctx, domain.KindMessage, nil, "q1")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	f.mgr.Flush()

	assert.Len(t, f.stored(t, "q1").Options, 1+workers, "no parent update may be lost")
	assert.Len(t, f.mgr.Graph().Connections(), workers)
}
