package repository

import (
	"context"
	"testing"
	"time"

	"social-graph/internal/model"
	"social-graph/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRelationshipRepository_InsertIsIdempotent(t *testing.T) {
	orm := testutil.OpenDB(t)
	repo := NewRelationshipRepository(orm)
	ctx := context.Background()
	a := testutil.CreateUser(t, orm, "alice")
	b := testutil.CreateUser(t, orm, "bob")

	created, err := repo.Insert(ctx, &model.Relationship{UserID: a.ID, RelatedUserID: b.ID, RelationshipType: model.RelationshipFriend, CreatedAt: time.Now()})
	require.NoError(t, err)
	assert.True(t, created)

	created, err = repo.Insert(ctx, &model.Relationship{UserID: a.ID, RelatedUserID: b.ID, RelationshipType: model.RelationshipFriend, CreatedAt: time.Now()})
	require.NoError(t, err)
	assert.False(t, created)

	// 同一对用户的另一种类型是独立的边
	created, err = repo.Insert(ctx, &model.Relationship{UserID: a.ID, RelatedUserID: b.ID, RelationshipType: model.RelationshipBlocked, CreatedAt: time.Now()})
	require.NoError(t, err)
	assert.True(t, created)

	var n int64
	require.NoError(t, orm.Model(&model.Relationship{}).Count(&n).Error)
	assert.Equal(t, int64(2), n)
}

func TestRelationshipRepository_FindExistsDelete(t *testing.T) {
	orm := testutil.OpenDB(t)
	repo := NewRelationshipRepository(orm)
	ctx := context.Background()
	a := testutil.CreateUser(t, orm, "alice")
	b := testutil.CreateUser(t, orm, "bob")

	edge, err := repo.Find(ctx, a.ID, b.ID, model.RelationshipFriend)
	require.NoError(t, err)
	assert.Nil(t, edge)

	_, err = repo.Insert(ctx, &model.Relationship{UserID: a.ID, RelatedUserID: b.ID, RelationshipType: model.RelationshipFriend})
	require.NoError(t, err)

	edge, err = repo.Find(ctx, a.ID, b.ID, model.RelationshipFriend)
	require.NoError(t, err)
	require.NotNil(t, edge)
	assert.Equal(t, a.ID, edge.UserID)

	ok, err := repo.Exists(ctx, b.ID, a.ID, model.RelationshipFriend)
	require.NoError(t, err)
	assert.False(t, ok)

	n, err := repo.Delete(ctx, a.ID, b.ID, model.RelationshipBlocked)
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = repo.Delete(ctx, a.ID, b.ID, model.RelationshipFriend)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	ok, err = repo.Exists(ctx, a.ID, b.ID, model.RelationshipFriend)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRelationshipRepository_InsertUnknownUser(t *testing.T) {
	orm := testutil.OpenDB(t)
	repo := NewRelationshipRepository(orm)
	a := testutil.CreateUser(t, orm, "alice")

	_, err := repo.Insert(context.Background(), &model.Relationship{UserID: a.ID, RelatedUserID: 9999, RelationshipType: model.RelationshipFriend})
	assert.Error(t, err)
}

func TestRelationshipRepository_ListAfter(t *testing.T) {
	orm := testutil.OpenDB(t)
	repo := NewRelationshipRepository(orm)
	ctx := context.Background()
	owner := testutil.CreateUser(t, orm, "owner")

	var ids []uint
	for i := 0; i < 4; i++ {
		u := testutil.CreateUser(t, orm, "")
		e := &model.Relationship{UserID: owner.ID, RelatedUserID: u.ID, RelationshipType: model.RelationshipFriend}
		_, err := repo.Insert(ctx, e)
		require.NoError(t, err)
		ids = append(ids, u.ID)
	}

	first, err := repo.ListAfter(ctx, owner.ID, model.RelationshipFriend, 0, 3)
	require.NoError(t, err)
	require.Len(t, first, 3)

	rest, err := repo.ListAfter(ctx, owner.ID, model.RelationshipFriend, first[2].ID, 3)
	require.NoError(t, err)
	require.Len(t, rest, 1)

	var got []uint
	for _, e := range append(first, rest...) {
		got = append(got, e.RelatedUserID)
	}
	assert.Equal(t, ids, got)

	none, err := repo.ListAfter(ctx, owner.ID, model.RelationshipBlocked, 0, 10)
	require.NoError(t, err)
	assert.Empty(t, none)
}
