package flowcanvas_test

import (
	"context"
	"testing"

	"github.com/aretw0/flowcanvas"
	"github.com/aretw0/flowcanvas/pkg/adapters/memory"
	"github.com/aretw0/flowcanvas/pkg/domain"
	"github.com/aretw0/flowcanvas/pkg/editor"
	"github.com/aretw0/flowcanvas/pkg/observability"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_RequiresTenant(t *testing.T) {
	_, err := flowcanvas.New(memory.NewStore(), "")
	assert.ErrorIs(t, err, domain.ErrMissingContext)
}

func TestEngine_CreateUnderStart(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	metrics := observability.NewMetrics()

	var events []domain.EventType
	eng, err := flowcanvas.New(store, "acme",
		flowcanvas.WithMetrics(metrics),
		flowcanvas.WithRelayoutDelay(0),
		flowcanvas.WithLifecycleHooks(domain.LifecycleHooks{
			OnNodeCreated: func(_ context.Context, e *domain.NodeEvent) { events = append(events, e.Type) },
		}),
	)
	require.NoError(t, err)
	require.NoError(t, eng.Open(ctx))
	assert.Equal(t, "acme", eng.Tenant())

	start, ok := eng.Graph().First()
	require.True(t, ok)
	assert.True(t, start.Temporary)

	child, err := eng.Manager().Create(ctx, domain.KindMessage, nil, start.ID)
	require.NoError(t, err)
	require.NoError(t, eng.Close())

	records, err := store.List(ctx, "acme")
	require.NoError(t, err)
	assert.Len(t, records, 2)
	assert.Equal(t, 1, eng.Graph().Stats().Connections)
	assert.Contains(t, events, domain.EventNodeCreated)
	assert.NotEmpty(t, child.ID)

	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.Nodes))
}

func TestEngine_Notices(t *testing.T) {
	var got []editor.Notice
	eng, err := flowcanvas.New(memory.NewStore(), "acme",
		flowcanvas.WithNoticeHandler(func(n editor.Notice) { got = append(got, n) }),
	)
	require.NoError(t, err)
	require.NoError(t, eng.Open(context.Background()))

	start, _ := eng.Graph().First()
	require.Error(t, eng.Editor().Delete(context.Background(), start.ID))
	require.Len(t, got, 1)
	assert.Equal(t, editor.MsgStartProtected, got[0].Message)
}
