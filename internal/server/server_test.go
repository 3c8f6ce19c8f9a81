package server_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
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
	"github.com/beemapp/beem-server/internal/server"
	"github.com/beemapp/beem-server/internal/transport"
)

func setupServer(t *testing.T) (*server.Server, *transport.Recorder) {
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
	cfg.Auth.AdminPassword = "letmein"
	cfg.Auth.JWTSecret = "test_secret"
	cfg.Profiles.Cooldown = 0

	recorder := transport.NewRecorder()
	appCtx := app.New(cfg, dbase, cache.NewRedisCache(cfg), logger.Discard(), recorder)
	srv, err := server.NewServer(appCtx)
	require.NoError(t, err)
	return srv, recorder
}

type envelope struct {
	Code string          `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

func do(t *testing.T, srv *server.Server, method, path string, body any, token string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	srv.Engine().ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return w, env
}

func registerUser(t *testing.T, srv *server.Server, id int64, interests []string) {
	t.Helper()
	w, env := do(t, srv, http.MethodPost, "/api/users/register", map[string]any{
		"user_id": id, "username": fmt.Sprintf("user%d", id), "name": "Sam",
		"age": 25, "gender": "other", "interests": interests,
	}, "")
	require.Equal(t, http.StatusOK, w.Code, env.Msg)
}

func TestAdminAuth(t *testing.T) {
	srv, _ := setupServer(t)

	// guarded route without a token
	w, env := do(t, srv, http.MethodGet, "/admin/stats", nil, "")
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "access_denied", env.Code)

	// wrong password
	w, _ = do(t, srv, http.MethodPost, "/admin/login", map[string]any{"password": "nope"}, "")
	assert.Equal(t, http.StatusForbidden, w.Code)

	// right password issues a token that opens the guarded routes
	w, env = do(t, srv, http.MethodPost, "/admin/login", map[string]any{"password": "letmein"}, "")
	require.Equal(t, http.StatusOK, w.Code)
	var login struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &login))
	require.NotEmpty(t, login.Token)

	w, env = do(t, srv, http.MethodGet, "/admin/stats", nil, login.Token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", env.Code)

	// garbage token is rejected
	w, _ = do(t, srv, http.MethodGet, "/admin/stats", nil, "not.a.jwt")
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestAPIFlow(t *testing.T) {
	srv, recorder := setupServer(t)

	registerUser(t, srv, 1, []string{"games", "music"})
	registerUser(t, srv, 2, []string{"games"})

	// user 2 publishes a profile
	w, env := do(t, srv, http.MethodPost, "/api/users/2/profile", map[string]any{
		"description": "hi there",
		"media":       []map[string]any{{"file_ref": "f1", "kind": "photo"}},
	}, "")
	require.Equal(t, http.StatusOK, w.Code, env.Msg)
	var profile db.Profile
	require.NoError(t, json.Unmarshal(env.Data, &profile))

	// user 1 discovers it
	w, env = do(t, srv, http.MethodGet, "/api/users/1/matches?limit=5", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var candidates []struct {
		Profile db.Profile `json:"profile"`
		Owner   db.User    `json:"owner"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &candidates))
	require.Len(t, candidates, 1)
	assert.Equal(t, int64(2), candidates[0].Owner.ID)

	// likes it
	w, env = do(t, srv, http.MethodPost, fmt.Sprintf("/api/profiles/%d/like", profile.ID),
		map[string]any{"liker_id": 1}, "")
	require.Equal(t, http.StatusOK, w.Code)
	var likeResp struct {
		Liked bool  `json:"liked"`
		Likes int64 `json:"likes"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &likeResp))
	assert.True(t, likeResp.Liked)
	assert.Equal(t, int64(1), likeResp.Likes)

	// opens a chat about it
	w, env = do(t, srv, http.MethodPost, "/api/chats/open", map[string]any{
		"viewer_id": 1, "profile_id": profile.ID, "owner_id": 2,
	}, "")
	require.Equal(t, http.StatusOK, w.Code, env.Msg)
	var chat db.Chat
	require.NoError(t, json.Unmarshal(env.Data, &chat))

	// and sends a message through the relay
	w, env = do(t, srv, http.MethodPost, "/api/relay", map[string]any{
		"user_id": 1, "text": "hello there",
	}, "")
	require.Equal(t, http.StatusOK, w.Code, env.Msg)
	var relayResp struct {
		Relayed bool `json:"relayed"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &relayResp))
	assert.True(t, relayResp.Relayed)

	deliveries := recorder.DeliveredTo(2)
	require.Len(t, deliveries, 1)
	assert.Equal(t, "hello there", deliveries[0].Content.Text)

	// sender without a session gets a quiet no-op
	w, env = do(t, srv, http.MethodPost, "/api/relay", map[string]any{
		"user_id": 2, "text": "who is this",
	}, "")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(env.Data, &relayResp))
	assert.False(t, relayResp.Relayed)
}

func TestAPIValidation(t *testing.T) {
	srv, _ := setupServer(t)

	// malformed id
	w, _ := do(t, srv, http.MethodGet, "/api/users/abc", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// unknown user
	w, env := do(t, srv, http.MethodGet, "/api/users/42", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "not_found", env.Code)

	// bad registration payload
	w, _ = do(t, srv, http.MethodPost, "/api/users/register", map[string]any{
		"user_id": 1, "name": "X", "age": 25, "gender": "other", "interests": []string{"games"},
	}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
