package database

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/thereayou/vidtube/internal/models"
)

const channelProfileQuery = `
SELECT
    u.id,
    u.full_name,
    u.username,
    u.email,
    u.avatar,
    u.cover_image,
    (SELECT COUNT(*) FROM subscriptions s WHERE s.channel_id = u.id)    AS subscribers_count,
    (SELECT COUNT(*) FROM subscriptions s WHERE s.subscriber_id = u.id) AS channels_subscribed_to_count,
    EXISTS (
        SELECT 1 FROM subscriptions s
        WHERE s.channel_id = u.id AND s.subscriber_id = ?
    ) AS is_subscribed
FROM users u
WHERE u.username = ?
LIMIT 1`

// GetChannelProfile returns the channel named username together with its
// subscription counts and whether viewer follows it.
func (d *Database) GetChannelProfile(ctx context.Context, username string, viewer uuid.UUID) (*models.ChannelProfile, error) {
	var profile models.ChannelProfile
	res := d.db.WithContext(ctx).Raw(channelProfileQuery, viewer, username).Scan(&profile)
	if res.Error != nil {
		return nil, translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return &profile, nil
}

const watchHistoryQuery = `
SELECT
    v.id,
    v.video_file,
    v.thumbnail,
    v.title,
    v.description,
    v.owner_id,
    v.duration,
    v.views,
    v.is_published,
    v.created_at,
    v.updated_at,
    o.full_name AS owner_full_name,
    o.username  AS owner_username,
    o.avatar    AS owner_avatar
FROM watch_history wh
JOIN videos v     ON v.id = wh.video_id
LEFT JOIN users o ON o.id = v.owner_id
WHERE wh.user_id = ?
ORDER BY wh.id`

type watchHistoryRow struct {
	ID            uuid.UUID
	VideoFile     string
	Thumbnail     string
	Title         string
	Description   string
	OwnerID       *uuid.UUID
	Duration      float64
	Views         int64
	IsPublished   bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
	OwnerFullName *string
	OwnerUsername *string
	OwnerAvatar   *string
}

// GetWatchHistory returns the user's watched videos in the order they were
// watched, each with a reduced view of its owner.
func (d *Database) GetWatchHistory(ctx context.Context, userID uuid.UUID) ([]models.WatchedVideo, error) {
	var rows []watchHistoryRow
	if err := d.db.WithContext(ctx).Raw(watchHistoryQuery, userID).Scan(&rows).Error; err != nil {
		return nil, translate(err)
	}

	videos := make([]models.WatchedVideo, 0, len(rows))
	for _, r := range rows {
		wv := models.WatchedVideo{
			Video: models.Video{
				ID:          r.ID,
				VideoFile:   r.VideoFile,
				Thumbnail:   r.Thumbnail,
				Title:       r.Title,
				Description: r.Description,
				Duration:    r.Duration,
				Views:       r.Views,
				IsPublished: r.IsPublished,
				CreatedAt:   r.CreatedAt,
				UpdatedAt:   r.UpdatedAt,
			},
		}
		if r.OwnerID != nil {
			wv.OwnerID = *r.OwnerID
		}
		if r.OwnerUsername != nil {
			wv.Owner = &models.VideoOwner{
				FullName: deref(r.OwnerFullName),
				Username: *r.OwnerUsername,
				Avatar:   deref(r.OwnerAvatar),
			}
		}
		videos = append(videos, wv)
	}
	return videos, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
