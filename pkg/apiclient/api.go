package apiclient

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// Target names exactly one post or reel.
type Target struct {
	PostID *uint `json:"post_id,omitempty"`
	ReelID *uint `json:"reel_id,omitempty"`
}

func PostTarget(id uint) Target { return Target{PostID: &id} }
func ReelTarget(id uint) Target { return Target{ReelID: &id} }

type User struct {
	ID             uint   `json:"id"`
	Username       string `json:"username"`
	Fullname       string `json:"fullname"`
	Email          string `json:"email"`
	ImageURL       string `json:"image_url"`
	FollowerCount  int64  `json:"follower_count"`
	FollowingCount int64  `json:"following_count"`
	PostCount      int64  `json:"post_count"`
}

type Author struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Fullname string `json:"fullname,omitempty"`
	ImageURL string `json:"image_url"`
}

// Reel is a feed entry annotated relative to the caller.
type Reel struct {
	ID           uint      `json:"id"`
	UserID       uint      `json:"user_id"`
	VideoURL     string    `json:"video_url"`
	Caption      string    `json:"caption,omitempty"`
	LikeCount    int64     `json:"like_count"`
	CommentCount int64     `json:"comment_count"`
	ViewCount    int64     `json:"view_count"`
	CreatedAt    time.Time `json:"created_at"`
	Author       Author    `json:"author"`
	IsLiked      bool      `json:"is_liked"`
	IsBookmarked bool      `json:"is_bookmarked"`
	IsFollowing  bool      `json:"is_following"`
	IsOwn        bool      `json:"is_own"`
}

// Session is the result of exchanging a Firebase ID token.
type Session struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// CreateSession exchanges a Firebase ID token for a session JWT and uses it
// for later calls.
func (c *Client) CreateSession(ctx context.Context, firebaseIDToken string) (*Session, error) {
	var session Session
	err := c.call(ctx, request{
		method: http.MethodPost,
		path:   "/api/v1/auth/session",
		bearer: firebaseIDToken,
	}, &session)
	if err != nil {
		return nil, err
	}
	c.SetToken(session.Token)
	return &session, nil
}

// ToggleFollow flips the caller's follow of userID.
func (c *Client) ToggleFollow(ctx context.Context, userID uint) (bool, error) {
	var out struct {
		Following bool `json:"following"`
	}
	err := c.toggle(ctx, fmt.Sprintf("/api/v1/users/%d/follow/toggle", userID), nil, &out)
	return out.Following, err
}

// ToggleLike flips the caller's like and reports whether it is now liked.
func (c *Client) ToggleLike(ctx context.Context, target Target) (bool, error) {
	var out struct {
		Liked bool `json:"liked"`
	}
	err := c.toggle(ctx, "/api/v1/likes/toggle", target, &out)
	return out.Liked, err
}

func (c *Client) ToggleBookmark(ctx context.Context, target Target) (bool, error) {
	var out struct {
		Bookmarked bool `json:"bookmarked"`
	}
	err := c.toggle(ctx, "/api/v1/bookmarks/toggle", target, &out)
	return out.Bookmarked, err
}

// toggle sends one key for the whole call, retries included.
func (c *Client) toggle(ctx context.Context, path string, body any, out any) error {
	return c.call(ctx, request{
		method:         http.MethodPost,
		path:           path,
		body:           body,
		idempotencyKey: uuid.NewString(),
	}, out)
}

// AddComment returns the new comment's ID.
func (c *Client) AddComment(ctx context.Context, target Target, text string) (uint, error) {
	body := struct {
		Target
		Content string `json:"content"`
	}{Target: target, Content: text}
	var out struct {
		ID uint `json:"id"`
	}
	if err := c.call(ctx, request{method: http.MethodPost, path: "/api/v1/comments", body: body, once: true}, &out); err != nil {
		return 0, err
	}
	return out.ID, nil
}

// FeedReels returns every reel, newest first.
func (c *Client) FeedReels(ctx context.Context) ([]Reel, error) {
	var out struct {
		Reels []Reel `json:"reels"`
	}
	if err := c.call(ctx, request{method: http.MethodGet, path: "/api/v1/feed/reels"}, &out); err != nil {
		return nil, err
	}
	return out.Reels, nil
}

func (c *Client) IncrementViews(ctx context.Context, reelID uint) error {
	return c.call(ctx, request{method: http.MethodPost, path: fmt.Sprintf("/api/v1/reels/%d/views", reelID), once: true}, nil)
}

func (c *Client) DeleteReel(ctx context.Context, reelID uint) error {
	return c.call(ctx, request{method: http.MethodDelete, path: fmt.Sprintf("/api/v1/reels/%d", reelID)}, nil)
}

func (c *Client) DeletePost(ctx context.Context, postID uint) error {
	return c.call(ctx, request{method: http.MethodDelete, path: fmt.Sprintf("/api/v1/posts/%d", postID)}, nil)
}
