package router

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"firebase.google.com/go/v4/auth"
	"github.com/anonto42/snapreel/backend/internal/middleware"
	"github.com/anonto42/snapreel/backend/internal/models"
	"github.com/anonto42/snapreel/backend/internal/services"
	"github.com/anonto42/snapreel/backend/internal/testutil"
	"github.com/goccy/go-json"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var testSecret = []byte("router-test-secret")

// stubVerifier accepts any token of the form "fb:<uid>".
type stubVerifier struct{}

func (stubVerifier) VerifyIDToken(_ context.Context, idToken string) (*auth.Token, error) {
	uid, found := strings.CutPrefix(idToken, "fb:")
	if !found || uid == "" {
		return nil, errors.New("bad token")
	}
	return &auth.Token{UID: uid, Claims: map[string]interface{}{
		"email": uid + "@example.com",
		"name":  strings.ToUpper(uid),
	}}, nil
}

type testServer struct {
	e     *echo.Echo
	db    *gorm.DB
	media *testutil.MediaStore
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	db := testutil.OpenDB(t)
	media := testutil.NewMediaStore()
	e := echo.New()
	_, err := SetupRoutes(e, Dependencies{
		Services:  services.Config{Database: db},
		Media:     media,
		Verifier:  stubVerifier{},
		JWTSecret: testSecret,
	})
	require.NoError(t, err)
	return &testServer{e: e, db: db, media: media}
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

func (s *testServer) do(t *testing.T, method, path, token string, body any, headers ...string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	}
	return rec, env
}

func (s *testServer) session(t *testing.T, uid string) (string, models.User) {
	t.Helper()
	rec, env := s.do(t, http.MethodPost, "/api/v1/auth/session", "fb:"+uid, nil)
	require.Contains(t, []int{http.StatusOK, http.StatusCreated}, rec.Code, rec.Body.String())
	var data struct {
		Token string      `json:"token"`
		User  models.User `json:"user"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	require.NotEmpty(t, data.Token)
	return data.Token, data.User
}

func decode[T any](t *testing.T, env envelope) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(env.Data, &v))
	return v
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	rec, _ := s.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "healthy")
}

func TestSessionCreatesThenReusesUser(t *testing.T) {
	s := newTestServer(t)

	rec, _ := s.do(t, http.MethodPost, "/api/v1/auth/session", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = s.do(t, http.MethodPost, "/api/v1/auth/session", "fb:alice", nil)
	assert.Equal(t, http.StatusCreated, rec.Code)

	token, user := s.session(t, "alice")
	assert.Equal(t, "alice", user.Username)
	assert.EqualValues(t, 1, testutil.Count(t, s.db, &models.User{}, ""))

	rec, env := s.do(t, http.MethodGet, "/api/v1/users/me", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	me := decode[struct {
		User models.User `json:"user"`
	}](t, env)
	assert.Equal(t, user.ID, me.User.ID)
}

func TestProtectedRoutesRequireJWT(t *testing.T) {
	s := newTestServer(t)
	rec, _ := s.do(t, http.MethodPost, "/api/v1/likes/toggle", "", map[string]any{"post_id": 1})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	expired, err := middleware.IssueToken(testSecret, 1, "x@example.com", time.Minute, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	rec, _ = s.do(t, http.MethodPost, "/api/v1/likes/toggle", expired, map[string]any{"post_id": 1})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	forged, err := middleware.IssueToken([]byte("other"), 1, "x@example.com", time.Hour, time.Now())
	require.NoError(t, err)
	rec, _ = s.do(t, http.MethodGet, "/api/v1/users/me", forged, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestToggleRoutes(t *testing.T) {
	s := newTestServer(t)
	aliceToken, alice := s.session(t, "alice")
	bobToken, bob := s.session(t, "bob")
	post := testutil.CreatePost(t, s.db, alice.ID)

	type liked struct {
		Liked bool `json:"liked"`
	}
	for i, want := range []bool{true, false, true} {
		rec, env := s.do(t, http.MethodPost, "/api/v1/likes/toggle", bobToken, map[string]any{"post_id": post.ID})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, want, decode[liked](t, env).Liked, "toggle %d", i)
	}
	assert.EqualValues(t, 1, testutil.ReloadPost(t, s.db, post.ID).LikeCount)

	rec, _ := s.do(t, http.MethodPost, "/api/v1/likes/toggle", bobToken, map[string]any{"post_id": post.ID, "reel_id": 3})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec, _ = s.do(t, http.MethodPost, "/api/v1/likes/toggle", bobToken, map[string]any{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec, _ = s.do(t, http.MethodPost, "/api/v1/likes/toggle", bobToken, map[string]any{"reel_id": 999})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, env := s.do(t, http.MethodPost, fmt.Sprintf("/api/v1/users/%d/follow/toggle", alice.ID), bobToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[struct {
		Following bool `json:"following"`
	}](t, env).Following)
	assert.EqualValues(t, 1, testutil.ReloadUser(t, s.db, alice.ID).FollowerCount)

	rec, _ = s.do(t, http.MethodPost, fmt.Sprintf("/api/v1/users/%d/follow/toggle", alice.ID), aliceToken, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "self follow")

	rec, env = s.do(t, http.MethodPost, "/api/v1/bookmarks/toggle", bobToken, map[string]any{"post_id": post.ID})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[struct {
		Bookmarked bool `json:"bookmarked"`
	}](t, env).Bookmarked)

	rec, env = s.do(t, http.MethodGet, "/api/v1/bookmarks", bobToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	bookmarks := decode[struct {
		Bookmarks []services.BookmarkedItem `json:"bookmarks"`
	}](t, env)
	require.Len(t, bookmarks.Bookmarks, 1)
	assert.Equal(t, post.ID, bookmarks.Bookmarks[0].Post.ID)

	rec, env = s.do(t, http.MethodGet, "/api/v1/notifications", aliceToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	notifications := decode[struct {
		Notifications []struct {
			Type  models.NotificationType `json:"type"`
			Actor models.UserCompact      `json:"actor"`
		} `json:"notifications"`
	}](t, env)
	require.Len(t, notifications.Notifications, 3, "two likes and one follow")
	for _, n := range notifications.Notifications {
		assert.Equal(t, bob.ID, n.Actor.ID)
	}

	rec, _ = s.do(t, http.MethodGet, "/api/v1/notifications/grouped", aliceToken, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestToggleIdempotencyHeader(t *testing.T) {
	s := newTestServer(t)
	_, alice := s.session(t, "alice")
	bobToken, _ := s.session(t, "bob")
	reel := testutil.CreateReel(t, s.db, alice.ID)

	for i := 0; i < 3; i++ {
		rec, env := s.do(t, http.MethodPost, "/api/v1/likes/toggle", bobToken, map[string]any{"reel_id": reel.ID}, "Idempotency-Key", "retry-1")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, decode[struct {
			Liked bool `json:"liked"`
		}](t, env).Liked)
	}
	assert.EqualValues(t, 1, testutil.ReloadReel(t, s.db, reel.ID).LikeCount)
}

func TestContentLifecycle(t *testing.T) {
	s := newTestServer(t)
	aliceToken, alice := s.session(t, "alice")
	bobToken, _ := s.session(t, "bob")

	rec, _ := s.do(t, http.MethodPost, "/api/v1/media", aliceToken, map[string]any{
		"storage_id": "vid-1", "url": "https://cdn.example.com/vid-1.mp4", "content_type": "video/mp4",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec, env := s.do(t, http.MethodPost, "/api/v1/reels", aliceToken, map[string]any{"storage_id": "vid-1", "caption": "hi"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	reel := decode[struct {
		Reel models.Reel `json:"reel"`
	}](t, env).Reel
	assert.Equal(t, "https://cdn.example.com/vid-1.mp4", reel.VideoURL)

	rec, _ = s.do(t, http.MethodPost, "/api/v1/reels", aliceToken, map[string]any{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = s.do(t, http.MethodPost, fmt.Sprintf("/api/v1/reels/%d/views", reel.ID), bobToken, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.EqualValues(t, 1, testutil.ReloadReel(t, s.db, reel.ID).ViewCount)

	rec, env = s.do(t, http.MethodPost, "/api/v1/comments", bobToken, map[string]any{"reel_id": reel.ID, "content": "wow"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	rec, _ = s.do(t, http.MethodPost, "/api/v1/comments", bobToken, map[string]any{"reel_id": reel.ID, "content": ""})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, env = s.do(t, http.MethodGet, fmt.Sprintf("/api/v1/comments?reel_id=%d", reel.ID), bobToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	comments := decode[struct {
		Comments []services.CommentView `json:"comments"`
	}](t, env)
	require.Len(t, comments.Comments, 1)
	assert.Equal(t, "bob", comments.Comments[0].Author.Username)

	rec, _ = s.do(t, http.MethodPost, "/api/v1/likes/toggle", bobToken, map[string]any{"reel_id": reel.ID})
	require.Equal(t, http.StatusOK, rec.Code)

	rec, env = s.do(t, http.MethodGet, "/api/v1/feed/reels", bobToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	feed := decode[struct {
		Reels []services.ReelSummary `json:"reels"`
	}](t, env)
	require.Len(t, feed.Reels, 1)
	assert.True(t, feed.Reels[0].IsLiked)
	assert.False(t, feed.Reels[0].IsOwn)
	assert.EqualValues(t, 1, feed.Reels[0].CommentCount)

	rec, _ = s.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/reels/%d", reel.ID), bobToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = s.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/reels/%d", reel.ID), aliceToken, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Zero(t, testutil.Count(t, s.db, &models.Reel{}, ""))
	assert.Zero(t, testutil.Count(t, s.db, &models.Comment{}, ""))
	assert.Zero(t, testutil.Count(t, s.db, &models.Like{}, ""))
	assert.Zero(t, testutil.Count(t, s.db, &models.Notification{}, ""))
	assert.Zero(t, testutil.ReloadUser(t, s.db, alice.ID).PostCount)
	assert.False(t, s.media.Has("vid-1"))

	rec, _ = s.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/reels/%d", reel.ID), aliceToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUserRoutes(t *testing.T) {
	s := newTestServer(t)
	aliceToken, alice := s.session(t, "alice")
	_, bob := s.session(t, "bob")

	rec, env := s.do(t, http.MethodPut, "/api/v1/users/me", aliceToken, map[string]any{"fullname": "Alice A", "bio": "hello"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Alice A", decode[struct {
		User models.User `json:"user"`
	}](t, env).User.Fullname)

	rec, env = s.do(t, http.MethodGet, "/api/v1/users/search?q=bo", aliceToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	found := decode[struct {
		Users []models.UserCompact `json:"users"`
	}](t, env)
	require.Len(t, found.Users, 1)
	assert.Equal(t, bob.ID, found.Users[0].ID)

	rec, env = s.do(t, http.MethodGet, "/api/v1/users/suggested", aliceToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	suggested := decode[struct {
		Users []models.UserCompact `json:"users"`
	}](t, env)
	require.Len(t, suggested.Users, 1)
	assert.Equal(t, bob.ID, suggested.Users[0].ID)

	rec, _ = s.do(t, http.MethodPost, fmt.Sprintf("/api/v1/users/%d/follow/toggle", bob.ID), aliceToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, env = s.do(t, http.MethodGet, fmt.Sprintf("/api/v1/users/%d/is-following", bob.ID), aliceToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[struct {
		Following bool `json:"following"`
	}](t, env).Following)

	rec, env = s.do(t, http.MethodGet, fmt.Sprintf("/api/v1/users/%d/followers", bob.ID), aliceToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	followers := decode[struct {
		Users []models.UserCompact `json:"users"`
	}](t, env)
	require.Len(t, followers.Users, 1)
	assert.Equal(t, alice.ID, followers.Users[0].ID)

	rec, _ = s.do(t, http.MethodGet, "/api/v1/users/999", aliceToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec, _ = s.do(t, http.MethodGet, "/api/v1/users/abc", aliceToken, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
