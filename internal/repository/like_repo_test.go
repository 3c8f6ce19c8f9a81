package repository_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beemapp/beem-server/internal/db"
	"github.com/beemapp/beem-server/internal/repository"
)

func TestLikeToggle(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewLikeRepository(dbase)
	seedUser(t, dbase, 1, "games")
	profileID := seedProfile(t, dbase, 1)

	// first toggle likes
	liked, err := repo.Toggle(ctx, profileID, 2)
	assert.NoError(t, err)
	assert.True(t, liked)

	var p db.Profile
	require.NoError(t, dbase.First(&p, profileID).Error)
	assert.Equal(t, int64(1), p.Likes)

	// second toggle unlikes
	liked, err = repo.Toggle(ctx, profileID, 2)
	assert.NoError(t, err)
	assert.False(t, liked)

	require.NoError(t, dbase.First(&p, profileID).Error)
	assert.Equal(t, int64(0), p.Likes)

	// third toggle likes again
	liked, err = repo.Toggle(ctx, profileID, 2)
	assert.NoError(t, err)
	assert.True(t, liked)

	require.NoError(t, dbase.First(&p, profileID).Error)
	assert.Equal(t, int64(1), p.Likes)
}

func TestLikeToggleTwoLikers(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewLikeRepository(dbase)
	seedUser(t, dbase, 1, "games")
	profileID := seedProfile(t, dbase, 1)

	_, err := repo.Toggle(ctx, profileID, 2)
	require.NoError(t, err)
	_, err = repo.Toggle(ctx, profileID, 3)
	require.NoError(t, err)

	count, err := repo.CountForProfile(ctx, profileID)
	assert.NoError(t, err)
	assert.Equal(t, int64(2), count)

	var p db.Profile
	require.NoError(t, dbase.First(&p, profileID).Error)
	assert.Equal(t, int64(2), p.Likes)

	// unliking one leaves the other intact
	_, err = repo.Toggle(ctx, profileID, 2)
	require.NoError(t, err)

	exists, err := repo.Exists(ctx, profileID, 3)
	assert.NoError(t, err)
	assert.True(t, exists)
	exists, err = repo.Exists(ctx, profileID, 2)
	assert.NoError(t, err)
	assert.False(t, exists)
}

func TestLikeCounterNeverNegative(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewLikeRepository(dbase)
	seedUser(t, dbase, 1, "games")
	profileID := seedProfile(t, dbase, 1)

	// like row present but counter drifted to zero
	_, err := repo.Toggle(ctx, profileID, 2)
	require.NoError(t, err)
	require.NoError(t, dbase.Model(&db.Profile{}).Where("id = ?", profileID).Update("likes", 0).Error)

	// unlike must not push the counter below zero
	liked, err := repo.Toggle(ctx, profileID, 2)
	assert.NoError(t, err)
	assert.False(t, liked)

	var p db.Profile
	require.NoError(t, dbase.First(&p, profileID).Error)
	assert.Equal(t, int64(0), p.Likes)
}
