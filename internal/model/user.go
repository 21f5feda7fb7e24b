package model

import "time"

// UserID identifies the owner of entries and goals.
type UserID int64

// DefaultUserID is the user seeded for single-tenant deployments.
const DefaultUserID UserID = 1

// DefaultUsername is the name of the seeded user.
const DefaultUsername = "default_user"

// User is a journal owner.
type User struct {
	CreatedAt time.Time
	Username  string
	ID        UserID
}
