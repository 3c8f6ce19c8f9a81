package repository_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beemapp/beem-server/internal/db"
	"github.com/beemapp/beem-server/internal/repository"
)

func TestChatGetOrCreate(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewChatRepository(dbase)
	seedUser(t, dbase, 1, "games")
	seedUser(t, dbase, 2, "games")
	profileID := seedProfile(t, dbase, 1)

	first, err := repo.GetOrCreate(ctx, profileID, 2, 1)
	assert.NoError(t, err)

	// reopening the same profile by the same sender returns the same chat
	second, err := repo.GetOrCreate(ctx, profileID, 2, 1)
	assert.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	// a different sender gets a separate chat
	third, err := repo.GetOrCreate(ctx, profileID, 3, 1)
	assert.NoError(t, err)
	assert.NotEqual(t, first.ID, third.ID)

	count, err := repo.Count(ctx)
	assert.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestChatByUser(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewChatRepository(dbase)
	seedUser(t, dbase, 1, "games")
	profileID := seedProfile(t, dbase, 1)

	_, err := repo.GetOrCreate(ctx, profileID, 2, 1)
	require.NoError(t, err)
	_, err = repo.GetOrCreate(ctx, profileID, 3, 1)
	require.NoError(t, err)

	// owner sees both, a sender sees only their own
	owner, err := repo.ByUser(ctx, 1)
	assert.NoError(t, err)
	assert.Len(t, owner, 2)

	sender, err := repo.ByUser(ctx, 2)
	assert.NoError(t, err)
	assert.Len(t, sender, 1)
}

func TestMessageHistoryOrdering(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	chats := repository.NewChatRepository(dbase)
	messages := repository.NewMessageRepository(dbase)
	seedUser(t, dbase, 1, "games")
	profileID := seedProfile(t, dbase, 1)

	chat, err := chats.GetOrCreate(ctx, profileID, 2, 1)
	require.NoError(t, err)

	for _, text := range []string{"one", "two", "three"} {
		require.NoError(t, messages.Append(ctx, &db.Message{
			ChatID: chat.ID, SenderID: 2, Kind: "text", Content: text,
		}))
	}

	// limited history keeps the most recent messages, oldest first
	history, err := messages.History(ctx, chat.ID, 2)
	assert.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "two", history[0].Content)
	assert.Equal(t, "three", history[1].Content)
}
