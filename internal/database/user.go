package database

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/thereayou/vidtube/internal/models"
)

// sensitiveColumns are left out whenever a user is read for display.
var sensitiveColumns = []string{"password_hash", "refresh_token"}

func (d *Database) SaveUser(ctx context.Context, user *models.User) error {
	return translate(d.db.WithContext(ctx).Create(user).Error)
}

func (d *Database) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user := models.User{}
	if err := d.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

// GetSanitizedUser loads a user without the password hash and refresh token.
func (d *Database) GetSanitizedUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user := models.User{}
	err := d.db.WithContext(ctx).Omit(sensitiveColumns...).First(&user, "id = ?", id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

// FindUserByUsernameOrEmail matches either identifier. Empty identifiers are
// ignored; with both empty it reports ErrNotFound.
func (d *Database) FindUserByUsernameOrEmail(ctx context.Context, username, email string) (*models.User, error) {
	if username == "" && email == "" {
		return nil, ErrNotFound
	}

	q := d.db.WithContext(ctx)
	switch {
	case username != "" && email != "":
		q = q.Where("username = ? OR email = ?", username, email)
	case username != "":
		q = q.Where("username = ?", username)
	default:
		q = q.Where("email = ?", email)
	}

	user := models.User{}
	if err := q.First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (d *Database) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return d.FindUserByUsernameOrEmail(ctx, "", email)
}

// SetRefreshToken stores token as the only live refresh token of the user.
// An empty token clears it.
func (d *Database) SetRefreshToken(ctx context.Context, id uuid.UUID, token string) error {
	var value interface{} = token
	if token == "" {
		value = gorm.Expr("NULL")
	}
	res := d.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update("refresh_token", value)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateUserFields applies a partial update keyed by column name.
func (d *Database) UpdateUserFields(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error {
	res := d.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
