package repository_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beemapp/beem-server/internal/db"
	"github.com/beemapp/beem-server/internal/repository"
)

func TestProfileCreateRetiresPrevious(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewProfileRepository(dbase)
	seedUser(t, dbase, 1, "games")

	first, err := repo.Create(ctx, 1, "old me", nil)
	assert.NoError(t, err)

	second, err := repo.Create(ctx, 1, "new me", []repository.MediaInput{
		{FileRef: "file-1", Kind: "photo"},
		{FileRef: "file-2", Kind: "video"},
	})
	assert.NoError(t, err)

	active, err := repo.ActiveByUser(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, second.ID, active.ID)

	old, err := repo.ByID(ctx, first.ID)
	require.NoError(t, err)
	assert.False(t, old.Active)

	media, err := repo.Media(ctx, second.ID)
	assert.NoError(t, err)
	require.Len(t, media, 2)
	assert.Equal(t, "file-1", media[0].FileRef)
	assert.Equal(t, "file-2", media[1].FileRef)
}

func TestProfileDeactivateIdempotent(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewProfileRepository(dbase)
	seedUser(t, dbase, 1, "games")

	_, err := repo.Create(ctx, 1, "hello", nil)
	require.NoError(t, err)

	assert.NoError(t, repo.DeactivateByUser(ctx, 1))
	assert.NoError(t, repo.DeactivateByUser(ctx, 1)) // no active profile left

	_, err = repo.ActiveByUser(ctx, 1)
	assert.Error(t, err)
}

func TestProfileSampleEligible(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewProfileRepository(dbase)

	// viewer 1, candidates 2..5
	for i := int64(1); i <= 5; i++ {
		seedUser(t, dbase, i, "games")
		seedProfile(t, dbase, i)
	}
	// 4 is banned, 5 blocked the viewer
	require.NoError(t, dbase.Model(&db.User{}).Where("id = ?", 4).Update("banned", true).Error)
	require.NoError(t, dbase.Create(&db.Block{BlockerID: 5, BlockedID: 1}).Error)

	profiles, err := repo.SampleEligible(ctx, 1, 50)
	assert.NoError(t, err)

	owners := map[int64]bool{}
	for _, p := range profiles {
		owners[p.UserID] = true
	}
	assert.False(t, owners[1], "own profile excluded")
	assert.False(t, owners[4], "banned owner excluded")
	assert.False(t, owners[5], "blocking owner excluded")
	assert.True(t, owners[2])
	assert.True(t, owners[3])
}

func TestProfileSampleBound(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewProfileRepository(dbase)

	for i := int64(1); i <= 6; i++ {
		seedUser(t, dbase, i, "games")
		seedProfile(t, dbase, i)
	}

	profiles, err := repo.SampleEligible(ctx, 99, 3)
	assert.NoError(t, err)
	assert.Len(t, profiles, 3)
}
