package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	itemdomain "user-item-service/internal/domain/item"
	userdomain "user-item-service/internal/domain/user"
	pkgerrors "user-item-service/pkg/errors"
)

func newTestItemRepos(t *testing.T) (*ItemRepoPG, *UserRepoPG) {
	db := setupTestDB(t)
	log := zaptest.NewLogger(t)
	return NewItemRepoPG(db, log), NewUserRepoPG(db, log)
}

func createTestOwner(t *testing.T, users *UserRepoPG, email string) int64 {
	owner, err := users.Create(context.Background(), &userdomain.User{
		Email:          email,
		HashedPassword: "h",
		IsActive:       true,
	})
	require.NoError(t, err)
	return owner.ID
}

func TestItemRepoPG_CreateAndGet(t *testing.T) {
	items, users := newTestItemRepos(t)
	ctx := context.Background()
	ownerID := createTestOwner(t, users, "owner@example.com")

	created, err := items.Create(ctx, &itemdomain.Item{
		Title:       "First item",
		Description: "a thing",
		OwnerID:     ownerID,
	})
	require.NoError(t, err)
	assert.NotZero(t, created.ID)

	got, err := items.GetByID(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "First item", got.Title)
	assert.Equal(t, "a thing", got.Description)
	assert.Equal(t, ownerID, got.OwnerID)
}

func TestItemRepoPG_OwnerQueries(t *testing.T) {
	items, users := newTestItemRepos(t)
	ctx := context.Background()

	alice := createTestOwner(t, users, "alice@example.com")
	bob := createTestOwner(t, users, "bob@example.com")

	for _, title := range []string{"a1", "a2", "a3"} {
		_, err := items.Create(ctx, &itemdomain.Item{Title: title, OwnerID: alice})
		require.NoError(t, err)
	}
	_, err := items.Create(ctx, &itemdomain.Item{Title: "b1", OwnerID: bob})
	require.NoError(t, err)

	owned, err := items.ListByOwner(ctx, alice)
	require.NoError(t, err)
	require.Len(t, owned, 3)
	assert.Equal(t, "a1", owned[0].Title)

	count, err := items.CountByOwner(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	count, err = items.CountByOwner(ctx, bob)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	count, err = items.CountByOwner(ctx, 999)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestItemRepoPG_UpdateAndDelete(t *testing.T) {
	items, users := newTestItemRepos(t)
	ctx := context.Background()
	ownerID := createTestOwner(t, users, "owner@example.com")

	created, err := items.Create(ctx, &itemdomain.Item{Title: "old", Description: "desc", OwnerID: ownerID})
	require.NoError(t, err)

	title := "new"
	updated, err := items.Update(ctx, created.ID, itemdomain.Patch{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "new", updated.Title)
	assert.Equal(t, "desc", updated.Description)

	require.NoError(t, items.Delete(ctx, created.ID))

	got, err := items.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	err = items.Delete(ctx, created.ID)
	require.Error(t, err)

	var notFound *pkgerrors.NotFoundError
	assert.ErrorAs(t, err, &notFound)
}
