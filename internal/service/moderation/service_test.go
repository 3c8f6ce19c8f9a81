package moderation_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/beemapp/beem-server/internal/app"
	"github.com/beemapp/beem-server/internal/cache"
	"github.com/beemapp/beem-server/internal/config"
	"github.com/beemapp/beem-server/internal/db"
	"github.com/beemapp/beem-server/internal/logger"
	"github.com/beemapp/beem-server/internal/service/moderation"
	"github.com/beemapp/beem-server/internal/transport"
)

func setupService(t *testing.T) (*moderation.Service, *gorm.DB, *transport.Recorder) {
	t.Helper()

	dbName := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	dbase, err := gorm.Open(sqlite.Open(dbName), &gorm.Config{
		NowFunc:                func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	sqlDB, err := dbase.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, db.Migrate(dbase))

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(func() { mr.Close() })

	cfg := config.New()
	cfg.Redis.Addr = mr.Addr()

	recorder := transport.NewRecorder()
	appCtx := app.New(cfg, dbase, cache.NewRedisCache(cfg), logger.Discard(), recorder)
	return moderation.NewService(appCtx), dbase, recorder
}

func seedUser(t *testing.T, gdb *gorm.DB, id int64) {
	t.Helper()
	require.NoError(t, gdb.Create(&db.User{
		ID: id, Username: fmt.Sprintf("user%d", id), Name: fmt.Sprintf("User %d", id),
		Age: 25, Gender: "other", Interests: "games", Registered: true,
	}).Error)
}

func TestBanAndLazyExpiry(t *testing.T) {
	ctx := context.Background()
	svc, dbase, _ := setupService(t)
	seedUser(t, dbase, 1)

	now := time.Now()
	svc.Now = func() time.Time { return now }

	require.NoError(t, svc.Ban(ctx, 1, moderation.DurationHour, "spam"))

	banned, err := svc.IsBanned(ctx, 1)
	assert.NoError(t, err)
	assert.True(t, banned)

	// one second before expiry the ban still holds
	svc.Now = func() time.Time { return now.Add(time.Hour - time.Second) }
	banned, err = svc.IsBanned(ctx, 1)
	assert.NoError(t, err)
	assert.True(t, banned)

	// past expiry the check clears the stored fields
	svc.Now = func() time.Time { return now.Add(time.Hour + time.Second) }
	banned, err = svc.IsBanned(ctx, 1)
	assert.NoError(t, err)
	assert.False(t, banned)

	var u db.User
	require.NoError(t, dbase.First(&u, 1).Error)
	assert.False(t, u.Banned)
	assert.Nil(t, u.BanUntil)
	assert.Empty(t, u.BanReason)
}

func TestBanForeverNeverExpires(t *testing.T) {
	ctx := context.Background()
	svc, dbase, _ := setupService(t)
	seedUser(t, dbase, 1)

	require.NoError(t, svc.Ban(ctx, 1, moderation.DurationForever, "bad"))

	svc.Now = func() time.Time { return time.Now().Add(1000 * time.Hour) }
	banned, err := svc.IsBanned(ctx, 1)
	assert.NoError(t, err)
	assert.True(t, banned)

	var u db.User
	require.NoError(t, dbase.First(&u, 1).Error)
	assert.Nil(t, u.BanUntil)
}

func TestBanDeactivatesProfile(t *testing.T) {
	ctx := context.Background()
	svc, dbase, recorder := setupService(t)
	seedUser(t, dbase, 1)
	require.NoError(t, dbase.Create(&db.Profile{UserID: 1, Description: "hi", Active: true}).Error)

	require.NoError(t, svc.Ban(ctx, 1, moderation.DurationDay, "spam"))

	var p db.Profile
	require.NoError(t, dbase.First(&p, "user_id = ?", 1).Error)
	assert.False(t, p.Active)

	// banned user got a notice
	assert.NotEmpty(t, recorder.Notices)
}

func TestBanUnknownDuration(t *testing.T) {
	ctx := context.Background()
	svc, dbase, _ := setupService(t)
	seedUser(t, dbase, 1)

	err := svc.Ban(ctx, 1, "2h", "spam")
	assert.Error(t, err)
}

func TestUnban(t *testing.T) {
	ctx := context.Background()
	svc, dbase, _ := setupService(t)
	seedUser(t, dbase, 1)

	require.NoError(t, svc.Ban(ctx, 1, moderation.DurationForever, "bad"))
	require.NoError(t, svc.Unban(ctx, 1))

	banned, err := svc.IsBanned(ctx, 1)
	assert.NoError(t, err)
	assert.False(t, banned)

	// unbanning again is a no-op
	assert.NoError(t, svc.Unban(ctx, 1))
}

func TestIsBannedUnknownUser(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := setupService(t)

	banned, err := svc.IsBanned(ctx, 42)
	assert.NoError(t, err)
	assert.False(t, banned)
}

func TestResolveReport(t *testing.T) {
	ctx := context.Background()
	svc, dbase, _ := setupService(t)

	report := &db.Report{ChatID: 1, ReporterID: 2, ReportedID: 3, Status: db.ReportStatusNew}
	require.NoError(t, dbase.Create(report).Error)

	assert.NoError(t, svc.ResolveReport(ctx, report.ID))
	assert.NoError(t, svc.ResolveReport(ctx, report.ID)) // idempotent

	err := svc.ResolveReport(ctx, 9999)
	assert.Error(t, err)
}

func TestBroadcastCounts(t *testing.T) {
	ctx := context.Background()
	svc, dbase, recorder := setupService(t)
	for i := int64(1); i <= 3; i++ {
		seedUser(t, dbase, i)
	}
	recorder.FailFor(2)

	sent, failed, err := svc.Broadcast(ctx, "maintenance tonight")
	assert.NoError(t, err)
	assert.Equal(t, 2, sent)
	assert.Equal(t, 1, failed)
}

func TestStats(t *testing.T) {
	ctx := context.Background()
	svc, dbase, _ := setupService(t)
	seedUser(t, dbase, 1)
	seedUser(t, dbase, 2)
	require.NoError(t, dbase.Create(&db.Profile{UserID: 1, Active: true}).Error)
	require.NoError(t, dbase.Create(&db.Chat{ProfileID: 1, SenderID: 2, TargetID: 1}).Error)
	require.NoError(t, dbase.Create(&db.Message{ChatID: 1, SenderID: 2, Kind: "text", Content: "hi"}).Error)
	require.NoError(t, dbase.Create(&db.Report{ChatID: 1, ReporterID: 2, ReportedID: 1, Status: db.ReportStatusNew}).Error)

	stats, err := svc.Stats(ctx)
	assert.NoError(t, err)
	assert.Equal(t, int64(2), stats.Users)
	assert.Equal(t, int64(1), stats.Profiles)
	assert.Equal(t, int64(1), stats.Chats)
	assert.Equal(t, int64(1), stats.Messages)
	assert.Equal(t, int64(1), stats.NewReports)
}
