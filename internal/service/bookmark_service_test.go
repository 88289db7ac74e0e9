package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBookmarkAddListRemove(t *testing.T) {
	svc := NewBookmarkService(testLogger(), newFakeBookmarkRepo())
	ctx := context.Background()

	added, err := svc.Add(ctx, 1, "Иоанна 3:16")
	require.NoError(t, err)
	assert.True(t, added)
	added, err = svc.Add(ctx, 1, "Бытие 1:1-3")
	require.NoError(t, err)
	assert.True(t, added)

	list, err := svc.List(ctx, 1)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Иоанна 3:16", list[0].Reference)
	assert.Equal(t, "Бытие 1:1-3", list[1].Reference)

	removed, err := svc.Remove(ctx, 1, list[0].ID)
	require.NoError(t, err)
	assert.True(t, removed)

	list, err = svc.List(ctx, 1)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Бытие 1:1-3", list[0].Reference)
}

func TestBookmarkAddIsIdempotent(t *testing.T) {
	repo := newFakeBookmarkRepo()
	svc := NewBookmarkService(testLogger(), repo)
	ctx := context.Background()

	added, err := svc.Add(ctx, 1, "Иоанна 3:16")
	require.NoError(t, err)
	assert.True(t, added)

	added, err = svc.Add(ctx, 1, "Иоанна 3:16")
	require.NoError(t, err)
	assert.False(t, added)

	list, err := svc.List(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestBookmarkAddRejectsEmptyReference(t *testing.T) {
	svc := NewBookmarkService(testLogger(), newFakeBookmarkRepo())
	_, err := svc.Add(context.Background(), 1, "")
	assert.Error(t, err)
}

func TestBookmarkRemoveScopedToOwner(t *testing.T) {
	svc := NewBookmarkService(testLogger(), newFakeBookmarkRepo())
	ctx := context.Background()

	_, err := svc.Add(ctx, 1, "Иоанна 3:16")
	require.NoError(t, err)
	list, err := svc.List(ctx, 1)
	require.NoError(t, err)
	require.Len(t, list, 1)

	// Another user cannot remove it, and an unknown id is a no-op.
	removed, err := svc.Remove(ctx, 2, list[0].ID)
	require.NoError(t, err)
	assert.False(t, removed)
	removed, err = svc.Remove(ctx, 1, 404)
	require.NoError(t, err)
	assert.False(t, removed)

	list, err = svc.List(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestBookmarkGetResolvesOwnRowsOnly(t *testing.T) {
	svc := NewBookmarkService(testLogger(), newFakeBookmarkRepo())
	ctx := context.Background()

	_, err := svc.Add(ctx, 1, "Иоанна 3:16")
	require.NoError(t, err)
	list, err := svc.List(ctx, 1)
	require.NoError(t, err)
	require.Len(t, list, 1)

	bookmark, err := svc.Get(ctx, 1, list[0].ID)
	require.NoError(t, err)
	require.NotNil(t, bookmark)
	assert.Equal(t, "Иоанна 3:16", bookmark.Reference)

	bookmark, err = svc.Get(ctx, 2, list[0].ID)
	require.NoError(t, err)
	assert.Nil(t, bookmark)
}

func TestBookmarkListPropagatesStoreError(t *testing.T) {
	repo := newFakeBookmarkRepo()
	repo.err = assert.AnError
	svc := NewBookmarkService(testLogger(), repo)

	_, err := svc.List(context.Background(), 1)
	assert.Error(t, err)
	_, err = svc.Add(context.Background(), 1, "Иоанна 3:16")
	assert.Error(t, err)
}
