// Package testutil opens throwaway databases and seeds rows for package tests.
package testutil

import (
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/anonto42/snapreel/backend/internal/models"
	"github.com/anonto42/snapreel/backend/internal/repositories"
	sqlite "github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var dbSeq atomic.Int64

// OpenDB returns a migrated in-memory database private to the test. A single
// connection serializes transactions the way row locks do on Postgres.
func OpenDB(t testing.TB) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, dbSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err, "open sqlite")

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, repositories.AutoMigrate(db), "migrate schema")
	return db
}

// Clock is a settable time source.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

func NewClock(start time.Time) *Clock {
	return &Clock{now: start.UTC()}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// CreateUser inserts a principal with the given username.
func CreateUser(t testing.TB, db *gorm.DB, username string) *models.User {
	t.Helper()
	user := &models.User{
		FirebaseUID: "fb-" + username,
		Username:    username,
		Fullname:    strings.ToUpper(username[:1]) + username[1:],
		Email:       username + "@example.com",
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// CreatePost inserts a post and bumps the owner's post count directly.
func CreatePost(t testing.TB, db *gorm.DB, ownerID uint) *models.Post {
	t.Helper()
	post := &models.Post{UserID: ownerID, ImageURL: "https://cdn.example.com/p.jpg", StorageID: fmt.Sprintf("img-%d", dbSeq.Add(1))}
	require.NoError(t, db.Create(post).Error)
	require.NoError(t, db.Model(&models.User{}).Where("id = ?", ownerID).
		UpdateColumn("post_count", gorm.Expr("post_count + 1")).Error)
	return post
}

// CreateReel inserts a reel and bumps the owner's post count directly.
func CreateReel(t testing.TB, db *gorm.DB, ownerID uint) *models.Reel {
	t.Helper()
	reel := &models.Reel{UserID: ownerID, VideoURL: "https://cdn.example.com/r.mp4", StorageID: fmt.Sprintf("vid-%d", dbSeq.Add(1))}
	require.NoError(t, db.Create(reel).Error)
	require.NoError(t, db.Model(&models.User{}).Where("id = ?", ownerID).
		UpdateColumn("post_count", gorm.Expr("post_count + 1")).Error)
	return reel
}

// ReloadUser reads the current row.
func ReloadUser(t testing.TB, db *gorm.DB, id uint) models.User {
	t.Helper()
	var u models.User
	require.NoError(t, db.First(&u, id).Error)
	return u
}

func ReloadPost(t testing.TB, db *gorm.DB, id uint) models.Post {
	t.Helper()
	var p models.Post
	require.NoError(t, db.First(&p, id).Error)
	return p
}

func ReloadReel(t testing.TB, db *gorm.DB, id uint) models.Reel {
	t.Helper()
	var r models.Reel
	require.NoError(t, db.First(&r, id).Error)
	return r
}

// Count returns the number of rows of model matching the optional condition.
func Count(t testing.TB, db *gorm.DB, model any, query string, args ...any) int64 {
	t.Helper()
	var n int64
	q := db.Model(model)
	if query != "" {
		q = q.Where(query, args...)
	}
	require.NoError(t, q.Count(&n).Error)
	return n
}
