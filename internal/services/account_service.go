package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/thereayou/vidtube/internal/apperror"
	"github.com/thereayou/vidtube/internal/cache"
	"github.com/thereayou/vidtube/internal/database"
	"github.com/thereayou/vidtube/internal/logging"
	"github.com/thereayou/vidtube/internal/media"
	"github.com/thereayou/vidtube/internal/models"
	"github.com/thereayou/vidtube/pkg/auth"
)

const (
	avatarFolder = "avatars"
	coverFolder  = "covers"
)

type Deps struct {
	DB            DatabaseService
	Uploader      media.Uploader
	Blacklist     cache.Blacklist
	AccessTokens  *auth.JWTManager
	RefreshTokens *auth.JWTManager
	Passwords     *auth.PasswordHasher
	Logger        logging.Logger
}

type accountService struct {
	db        DatabaseService
	uploader  media.Uploader
	blacklist cache.Blacklist
	access    *auth.JWTManager
	refresh   *auth.JWTManager
	passwords *auth.PasswordHasher
	log       logging.Logger
}

func NewAccountService(d Deps) AccountService {
	return &accountService{
		db:        d.DB,
		uploader:  d.Uploader,
		blacklist: d.Blacklist,
		access:    d.AccessTokens,
		refresh:   d.RefreshTokens,
		passwords: d.Passwords,
		log:       d.Logger,
	}
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func (s *accountService) Register(ctx context.Context, req RegisterRequest) (*models.User, error) {
	fullName := strings.TrimSpace(req.FullName)
	email := normalize(req.Email)
	username := normalize(req.Username)

	if fullName == "" || email == "" || username == "" || strings.TrimSpace(req.Password) == "" {
		return nil, apperror.Validation("All fields are required")
	}
	if req.AvatarPath == "" {
		return nil, apperror.Validation("Avatar file is required")
	}

	// duplicates are rejected before anything is uploaded
	_, err := s.db.FindUserByUsernameOrEmail(ctx, username, email)
	switch {
	case err == nil:
		return nil, apperror.Conflict("User with email or username already exists")
	case !errors.Is(err, database.ErrNotFound):
		return nil, apperror.Internal("Something went wrong while registering the user", err)
	}

	hash, err := s.hashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	avatarURL, err := s.uploader.Upload(ctx, req.AvatarPath, avatarFolder)
	if err != nil || avatarURL == "" {
		return nil, apperror.Upload("Failed to upload avatar").WithCause(err)
	}

	coverURL, err := s.uploader.Upload(ctx, req.CoverImagePath, coverFolder)
	if err != nil {
		s.log.Warn(ctx, "cover image upload failed", "username", username, "error", err)
		coverURL = ""
	}

	user := &models.User{
		Username:     username,
		Email:        email,
		FullName:     fullName,
		Avatar:       avatarURL,
		CoverImage:   coverURL,
		PasswordHash: hash,
	}
	if err := s.db.SaveUser(ctx, user); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return nil, apperror.Conflict("User with email or username already exists")
		}
		return nil, apperror.Internal("Something went wrong while registering the user", err)
	}

	created, err := s.db.GetSanitizedUser(ctx, user.ID)
	if err != nil {
		return nil, apperror.Internal("Something went wrong while registering the user", err)
	}

	s.log.Info(ctx, "user registered", "user_id", created.ID, "username", created.Username)
	return created, nil
}

func (s *accountService) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	username := normalize(req.Username)
	email := normalize(req.Email)
	if username == "" && email == "" {
		return nil, apperror.Validation("username or email is required")
	}

	user, err := s.db.FindUserByUsernameOrEmail(ctx, username, email)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, apperror.NotFound("User does not exist")
		}
		return nil, apperror.Internal("Something went wrong while logging in", err)
	}

	ok, err := s.passwords.Verify(req.Password, user.PasswordHash)
	if err != nil {
		return nil, apperror.Internal("Something went wrong while logging in", err)
	}
	if !ok {
		return nil, apperror.Unauthorized("Invalid user credentials")
	}

	resp, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, err
	}

	resp.User, err = s.db.GetSanitizedUser(ctx, user.ID)
	if err != nil {
		return nil, apperror.Internal("Something went wrong while logging in", err)
	}

	s.log.Info(ctx, "user logged in", "user_id", user.ID)
	return resp, nil
}

func (s *accountService) RefreshToken(ctx context.Context, refreshToken string) (*AuthResponse, error) {
	if refreshToken == "" {
		return nil, apperror.Unauthorized("Unauthorized request")
	}

	claims, err := s.refresh.Verify(refreshToken)
	if err != nil {
		if errors.Is(err, auth.ErrTokenExpired) {
			return nil, apperror.Unauthorized("Refresh token is expired").WithCause(err)
		}
		return nil, apperror.Unauthorized("Invalid refresh token").WithCause(err)
	}

	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, apperror.Unauthorized("Invalid refresh token")
	}

	user, err := s.db.GetUser(ctx, id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, apperror.Unauthorized("Invalid refresh token")
		}
		return nil, apperror.Internal("Something went wrong while refreshing tokens", err)
	}

	if user.RefreshToken == nil || subtle.ConstantTimeCompare([]byte(*user.RefreshToken), []byte(refreshToken)) != 1 {
		s.log.Warn(ctx, "stale refresh token presented", "user_id", user.ID)
		return nil, apperror.Unauthorized("Refresh token is expired or used")
	}

	return s.issueTokens(ctx, user)
}

func (s *accountService) Logout(ctx context.Context, userID uuid.UUID, accessToken string) error {
	if err := s.db.SetRefreshToken(ctx, userID, ""); err != nil && !errors.Is(err, database.ErrNotFound) {
		return apperror.Internal("Something went wrong while logging out", err)
	}

	if accessToken != "" {
		if exp, err := s.access.Expiry(accessToken); err == nil {
			if err := s.blacklist.Revoke(ctx, accessToken, time.Until(exp)); err != nil {
				s.log.Warn(ctx, "could not revoke access token", "user_id", userID, "error", err)
			}
		}
	}

	s.log.Info(ctx, "user logged out", "user_id", userID)
	return nil
}

func (s *accountService) ValidateToken(ctx context.Context, accessToken string) (*models.User, error) {
	if accessToken == "" {
		return nil, apperror.Unauthorized("Unauthorized request")
	}

	claims, err := s.access.Verify(accessToken)
	if err != nil {
		return nil, apperror.Unauthorized("Invalid access token").WithCause(err)
	}

	revoked, err := s.blacklist.IsRevoked(ctx, accessToken)
	if err != nil || revoked {
		return nil, apperror.Unauthorized("Access token is revoked").WithCause(err)
	}

	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, apperror.Unauthorized("Invalid access token")
	}

	user, err := s.db.GetSanitizedUser(ctx, id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, apperror.Unauthorized("Invalid access token")
		}
		return nil, apperror.Internal("Something went wrong while authenticating", err)
	}
	return user, nil
}

func (s *accountService) ChangePassword(ctx context.Context, userID uuid.UUID, oldPassword, newPassword string) error {
	if oldPassword == "" || strings.TrimSpace(newPassword) == "" {
		return apperror.Validation("Old and new passwords are required")
	}

	user, err := s.db.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return apperror.Unauthorized("Invalid access token")
		}
		return apperror.Internal("Something went wrong while changing password", err)
	}

	ok, err := s.passwords.Verify(oldPassword, user.PasswordHash)
	if err != nil {
		return apperror.Internal("Something went wrong while changing password", err)
	}
	if !ok {
		return apperror.Validation("Invalid old password")
	}

	hash, err := s.hashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := s.db.UpdateUserFields(ctx, userID, map[string]interface{}{"password_hash": hash}); err != nil {
		return apperror.Internal("Something went wrong while changing password", err)
	}
	return nil
}

func (s *accountService) UpdateAccount(ctx context.Context, userID uuid.UUID, req UpdateAccountRequest) (*models.User, error) {
	fullName := strings.TrimSpace(req.FullName)
	email := normalize(req.Email)
	if fullName == "" && email == "" {
		return nil, apperror.Validation("fullName or email is required")
	}

	fields := map[string]interface{}{}
	if fullName != "" {
		fields["full_name"] = fullName
	}
	if email != "" {
		existing, err := s.db.FindUserByEmail(ctx, email)
		switch {
		case err == nil && existing.ID != userID:
			return nil, apperror.Conflict("Email is already in use")
		case err != nil && !errors.Is(err, database.ErrNotFound):
			return nil, apperror.Internal("Something went wrong while updating account", err)
		}
		fields["email"] = email
	}

	if err := s.db.UpdateUserFields(ctx, userID, fields); err != nil {
		return nil, s.updateError(err)
	}
	return s.reload(ctx, userID)
}

func (s *accountService) UpdateAvatar(ctx context.Context, userID uuid.UUID, localPath string) (*models.User, error) {
	return s.replaceImage(ctx, userID, localPath, avatarFolder, "avatar", "Avatar")
}

func (s *accountService) UpdateCoverImage(ctx context.Context, userID uuid.UUID, localPath string) (*models.User, error) {
	return s.replaceImage(ctx, userID, localPath, coverFolder, "cover_image", "Cover image")
}

func (s *accountService) ChannelProfile(ctx context.Context, username string, viewer uuid.UUID) (*models.ChannelProfile, error) {
	username = normalize(username)
	if username == "" {
		return nil, apperror.Validation("username is missing")
	}

	profile, err := s.db.GetChannelProfile(ctx, username, viewer)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, apperror.NotFound("channel does not exist")
		}
		return nil, apperror.Internal("Something went wrong while fetching channel", err)
	}
	return profile, nil
}

func (s *accountService) WatchHistory(ctx context.Context, userID uuid.UUID) ([]models.WatchedVideo, error) {
	videos, err := s.db.GetWatchHistory(ctx, userID)
	if err != nil {
		return nil, apperror.Internal("Something went wrong while fetching watch history", err)
	}
	return videos, nil
}

// issueTokens mints a new pair and stores the refresh token, replacing
// whatever session the user had before.
func (s *accountService) issueTokens(ctx context.Context, user *models.User) (*AuthResponse, error) {
	const msg = "Something went wrong while generating refresh and access token"

	access, err := s.access.Generate(auth.Identity{
		UserID:   user.ID.String(),
		Username: user.Username,
		Email:    user.Email,
		FullName: user.FullName,
	})
	if err != nil {
		return nil, apperror.Internal(msg, err)
	}
	refresh, err := s.refresh.Generate(auth.Identity{UserID: user.ID.String()})
	if err != nil {
		return nil, apperror.Internal(msg, err)
	}
	if err := s.db.SetRefreshToken(ctx, user.ID, refresh); err != nil {
		return nil, apperror.Internal(msg, err)
	}
	return &AuthResponse{AccessToken: access, RefreshToken: refresh}, nil
}

func (s *accountService) hashPassword(plain string) (string, error) {
	hash, err := s.passwords.Hash(plain)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", apperror.Validation("Password is too long")
		}
		return "", apperror.Internal("Something went wrong while hashing password", err)
	}
	return hash, nil
}

func (s *accountService) replaceImage(ctx context.Context, userID uuid.UUID, localPath, folder, column, label string) (*models.User, error) {
	if localPath == "" {
		return nil, apperror.Validation(label + " file is missing")
	}

	url, err := s.uploader.Upload(ctx, localPath, folder)
	if err != nil || url == "" {
		return nil, apperror.Upload("Error while uploading " + strings.ToLower(label)).WithCause(err)
	}

	if err := s.db.UpdateUserFields(ctx, userID, map[string]interface{}{column: url}); err != nil {
		return nil, s.updateError(err)
	}
	return s.reload(ctx, userID)
}

func (s *accountService) reload(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	user, err := s.db.GetSanitizedUser(ctx, userID)
	if err != nil {
		return nil, s.updateError(err)
	}
	return user, nil
}

func (s *accountService) updateError(err error) error {
	switch {
	case errors.Is(err, database.ErrNotFound):
		return apperror.NotFound("User does not exist")
	case errors.Is(err, database.ErrDuplicate):
		return apperror.Conflict("Email is already in use")
	default:
		return apperror.Internal("Something went wrong while updating account", err)
	}
}
