package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/flowcanvas/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunRecordStoreContract runs a suite of tests to verify that a RecordStore implementation
// adheres to the defined interface contract.
func RunRecordStoreContract(t *testing.T, store RecordStore) {
	ctx := context.Background()
	tenant := "contract-tenant-" + time.Now().Format("20060102150405.000000000")

	t.Run("Create and List", func(t *testing.T) {
		rec, err := store.Create(ctx, tenant, domain.Record{
			Type:     domain.TypeMessage,
			Text:     "hello",
			IsFirst:  true,
			Position: &domain.Position{X: 10, Y: 20},
		})
		require.NoError(t, err, "Create should not return error")
		require.NotEmpty(t, rec.ID, "Create must assign an id")

		list, err := store.List(ctx, tenant)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, rec.ID, list[0].ID)
		assert.Equal(t, "hello", list[0].Text)
		assert.True(t, list[0].IsFirst)
		require.NotNil(t, list[0].Position)
		assert.Equal(t, 10.0, list[0].Position.X)

		require.NoError(t, store.Delete(ctx, tenant, rec.ID))
	})

	t.Run("List preserves creation order", func(t *testing.T) {
		var ids []string
		for _, text := range []string{"a", "b", "c"} {
			rec, err := store.Create(ctx, tenant, domain.Record{Type: domain.TypeMessage, Text: text})
			require.NoError(t, err)
			ids = append(ids, rec.ID)
		}
		defer func() {
			for _, id := range ids {
				_ = store.Delete(ctx, tenant, id)
			}
		}()

		list, err := store.List(ctx, tenant)
		require.NoError(t, err)
		require.Len(t, list, 3)
		for i, rec := range list {
			assert.Equal(t, ids[i], rec.ID)
		}
	})

	t.Run("Update", func(t *testing.T) {
		rec, err := store.Create(ctx, tenant, domain.Record{
			Type:           domain.TypeMessage,
			Text:           "before",
			NextQuestionID: "other",
		})
		require.NoError(t, err)
		defer func() { _ = store.Delete(ctx, tenant, rec.ID) }()

		text := "after"
		updated, err := store.Update(ctx, tenant, rec.ID, domain.RecordPatch{
			Text:      &text,
			Position:  &domain.Position{X: 1, Y: 2},
			ClearNext: true,
		})
		require.NoError(t, err)
		assert.Equal(t, "after", updated.Text)
		assert.Empty(t, updated.NextQuestionID)

		list, err := store.List(ctx, tenant)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, "after", list[0].Text)
		require.NotNil(t, list[0].Position)
		assert.Equal(t, 2.0, list[0].Position.Y)
	})

	t.Run("Update Non-Existent", func(t *testing.T) {
		text := "x"
		_, err := store.Update(ctx, tenant, "non-existent", domain.RecordPatch{Text: &text})
		assert.ErrorIs(t, err, domain.ErrRecordNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		rec, err := store.Create(ctx, tenant, domain.Record{Type: domain.TypeEnd, Text: "bye"})
		require.NoError(t, err)

		require.NoError(t, store.Delete(ctx, tenant, rec.ID), "Delete should not return error")

		list, err := store.List(ctx, tenant)
		require.NoError(t, err)
		assert.Empty(t, list)

		assert.ErrorIs(t, store.Delete(ctx, tenant, rec.ID), domain.ErrRecordNotFound,
			"Delete twice should return ErrRecordNotFound")
	})

	t.Run("Tenant isolation", func(t *testing.T) {
		rec, err := store.Create(ctx, tenant, domain.Record{Type: domain.TypeMessage, Text: "mine"})
		require.NoError(t, err)
		defer func() { _ = store.Delete(ctx, tenant, rec.ID) }()

		other, err := store.List(ctx, tenant+"-other")
		require.NoError(t, err)
		assert.Empty(t, other)

		assert.ErrorIs(t, store.Delete(ctx, tenant+"-other", rec.ID), domain.ErrRecordNotFound)
	})
}
