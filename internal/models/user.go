package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type User struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updated_at"`

	Username string `bson:"username" json:"username"` // stored lowercased, unique
	Email    string `bson:"email" json:"email"`       // unique
	Fullname string `bson:"fullname" json:"fullname"`
	Password string `bson:"password" json:"-"` // argon2id digest, never plaintext

	Avatar     string `bson:"avatar" json:"avatar"`
	CoverImage string `bson:"cover_image,omitempty" json:"cover_image,omitempty"`

	// WatchHistory is most-recent-first; new entries are pushed to the front.
	WatchHistory []primitive.ObjectID `bson:"watch_history,omitempty" json:"watch_history,omitempty"`

	// RefreshToken holds the single currently valid refresh token, empty when
	// logged out. Overwritten on every login and rotation.
	RefreshToken string `bson:"refresh_token,omitempty" json:"-"`
}

// Sanitized returns a copy safe to hand back to clients: the password digest
// and refresh token are stripped.
func (u User) Sanitized() User {
	u.Password = ""
	u.RefreshToken = ""
	return u
}
