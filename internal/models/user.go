package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Roles assignable to a user account.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User represents a registered account. The password hash never leaves the
// server; PublicView additionally strips the email before a user document is
// shown to anyone but the account owner or an admin.
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Username     string             `bson:"username" json:"username"`
	Email        string             `bson:"email" json:"email,omitempty"`
	PasswordHash string             `bson:"password" json:"-"`
	Avatar       string             `bson:"avatar,omitempty" json:"avatar,omitempty"`
	Role         string             `bson:"role" json:"role"`
	Profile      UserProfile        `bson:"profile" json:"profile"`
	Preferences  UserPreferences    `bson:"preferences" json:"preferences"`
	Stats        UserStats          `bson:"stats" json:"stats"`
	IsActive     bool               `bson:"isActive" json:"isActive"`
	LastLoginAt  time.Time          `bson:"lastLoginAt,omitempty" json:"lastLoginAt,omitempty"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`
}

type UserProfile struct {
	Bio            string `bson:"bio,omitempty" json:"bio,omitempty"`
	University     string `bson:"university,omitempty" json:"university,omitempty"`
	Major          string `bson:"major,omitempty" json:"major,omitempty"`
	GraduationYear int    `bson:"graduationYear,omitempty" json:"graduationYear,omitempty"`
	Location       string `bson:"location,omitempty" json:"location,omitempty"`
}

type UserPreferences struct {
	EmailNotifications bool `bson:"emailNotifications" json:"emailNotifications"`
	PushNotifications  bool `bson:"pushNotifications" json:"pushNotifications"`
}

// UserStats are denormalized activity counters kept on the user document so
// profile reads never scan the posts collection.
type UserStats struct {
	PostsCount     int `bson:"postsCount" json:"postsCount"`
	LikesCount     int `bson:"likesCount" json:"likesCount"`
	FollowersCount int `bson:"followersCount" json:"followersCount"`
	FollowingCount int `bson:"followingCount" json:"followingCount"`
}

// PublicView returns a copy safe to show to other users: no email.
// The password hash is already excluded from JSON by tag.
func (u *User) PublicView() User {
	pub := *u
	pub.Email = ""
	return pub
}

func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }
