package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/thereayou/vidtube/internal/models"
)

type AuthService interface {
	Register(ctx context.Context, req RegisterRequest) (*models.User, error)
	Login(ctx context.Context, req LoginRequest) (*AuthResponse, error)
	RefreshToken(ctx context.Context, refreshToken string) (*AuthResponse, error)
	Logout(ctx context.Context, userID uuid.UUID, accessToken string) error
	ValidateToken(ctx context.Context, accessToken string) (*models.User, error)
}

type AccountService interface {
	AuthService

	ChangePassword(ctx context.Context, userID uuid.UUID, oldPassword, newPassword string) error
	UpdateAccount(ctx context.Context, userID uuid.UUID, req UpdateAccountRequest) (*models.User, error)
	UpdateAvatar(ctx context.Context, userID uuid.UUID, localPath string) (*models.User, error)
	UpdateCoverImage(ctx context.Context, userID uuid.UUID, localPath string) (*models.User, error)
	ChannelProfile(ctx context.Context, username string, viewer uuid.UUID) (*models.ChannelProfile, error)
	WatchHistory(ctx context.Context, userID uuid.UUID) ([]models.WatchedVideo, error)
}

// RegisterRequest carries the already-saved upload paths, not the files.
type RegisterRequest struct {
	FullName       string
	Email          string
	Username       string
	Password       string
	AvatarPath     string
	CoverImagePath string
}

type LoginRequest struct {
	Username string
	Email    string
	Password string
}

type UpdateAccountRequest struct {
	FullName string
	Email    string
}

type AuthResponse struct {
	User         *models.User `json:"user,omitempty"`
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
}
