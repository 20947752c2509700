package models

import (
	"time"

	"github.com/google/uuid"
)

type Video struct {
	ID          uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	VideoFile   string    `gorm:"not null" json:"videoFile"`
	Thumbnail   string    `gorm:"not null" json:"thumbnail"`
	Title       string    `gorm:"not null" json:"title"`
	Description string    `json:"description"`
	OwnerID     uuid.UUID `gorm:"type:uuid" json:"ownerId"`
	Duration    float64   `gorm:"default:0" json:"duration"`
	Views       int64     `gorm:"default:0" json:"views"`
	IsPublished bool      `gorm:"default:true" json:"isPublished"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type VideoOwner struct {
	FullName string `json:"fullName"`
	Username string `json:"username"`
	Avatar   string `json:"avatar"`
}

// WatchedVideo is a watch-history entry joined with its video and owner.
type WatchedVideo struct {
	Video
	Owner *VideoOwner `json:"owner"`
}
