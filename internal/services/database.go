package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/thereayou/vidtube/internal/models"
)

// DatabaseService is the persistence the account service needs.
// *database.Database satisfies it.
type DatabaseService interface {
	SaveUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetSanitizedUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindUserByUsernameOrEmail(ctx context.Context, username, email string) (*models.User, error)
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	SetRefreshToken(ctx context.Context, id uuid.UUID, token string) error
	UpdateUserFields(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error
	GetChannelProfile(ctx context.Context, username string, viewer uuid.UUID) (*models.ChannelProfile, error)
	GetWatchHistory(ctx context.Context, userID uuid.UUID) ([]models.WatchedVideo, error)
}
