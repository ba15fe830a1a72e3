package models

import (
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// User is a principal. The three counters are denormalized and only written
// by the services package inside the transaction that changes the rows they count.
type User struct {
	ID             uint      `json:"id" gorm:"primaryKey"`
	FirebaseUID    string    `json:"-" gorm:"uniqueIndex;size:128;not null"`
	Username       string    `json:"username" gorm:"uniqueIndex;size:64;not null"`
	Fullname       string    `json:"fullname"`
	Email          string    `json:"email" gorm:"index"`
	Bio            string    `json:"bio,omitempty"`
	ImageURL       string    `json:"image_url"`
	FollowerCount  int64     `json:"follower_count" gorm:"not null;default:0"`
	FollowingCount int64     `json:"following_count" gorm:"not null;default:0"`
	PostCount      int64     `json:"post_count" gorm:"not null;default:0"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// UserCompact is the author/actor shape embedded in feed and notification payloads.
type UserCompact struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Fullname string `json:"fullname,omitempty"`
	ImageURL string `json:"image_url"`
}

func (u *User) ToCompact() UserCompact {
	return UserCompact{
		ID:       u.ID,
		Username: u.Username,
		Fullname: u.Fullname,
		ImageURL: u.ImageURL,
	}
}

type UpdateProfileRequest struct {
	Fullname string `json:"fullname" validate:"required,min=1,max=80"`
	Bio      string `json:"bio,omitempty" validate:"max=300"`
}

// JwtCustomClaims are custom claims extending standard jwt.RegisteredClaims
type JwtCustomClaims struct {
	UserID uint   `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}
