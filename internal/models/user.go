package models

import (
	"time"

	"github.com/google/uuid"
)

// User is an account. PasswordHash and RefreshToken never leave the server:
// they are dropped from every JSON rendering.
type User struct {
	ID           uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Username     string    `gorm:"uniqueIndex;not null" json:"username"`
	Email        string    `gorm:"uniqueIndex;not null" json:"email"`
	FullName     string    `gorm:"index;not null" json:"fullName"`
	Avatar       string    `gorm:"not null" json:"avatar"`
	CoverImage   string    `json:"coverImage"`
	PasswordHash string    `gorm:"not null" json:"-"`
	RefreshToken *string   `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// ChannelProfile is a user as seen on their channel page.
type ChannelProfile struct {
	ID                        uuid.UUID `json:"id"`
	FullName                  string    `json:"fullName"`
	Username                  string    `json:"username"`
	Email                     string    `json:"email"`
	Avatar                    string    `json:"avatar"`
	CoverImage                string    `json:"coverImage"`
	SubscribersCount          int64     `json:"subscribersCount"`
	ChannelsSubscribedToCount int64     `json:"channelsSubscribedToCount"`
	IsSubscribed              bool      `json:"isSubscribed"`
}
