package database

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockDatabase(t *testing.T) (*Database, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	return NewDatabase(db), mock
}

var userColumns = []string{
	"id", "username", "email", "full_name", "avatar", "cover_image",
	"password_hash", "refresh_token", "created_at", "updated_at",
}

func TestGetUser(t *testing.T) {
	d, mock := newMockDatabase(t)
	id := uuid.New()
	now := time.Now()

	mock.ExpectQuery(`SELECT \* FROM "users" WHERE id = \$1`).
		WillReturnRows(sqlmock.NewRows(userColumns).
			AddRow(id.String(), "abuser", "a@x.com", "A B", "https://cdn/a.png", "", "hash", "rt", now, now))

	u, err := d.GetUser(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, id, u.ID)
	assert.Equal(t, "abuser", u.Username)
	require.NotNil(t, u.RefreshToken)
	assert.Equal(t, "rt", *u.RefreshToken)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetUser_NotFound(t *testing.T) {
	d, mock := newMockDatabase(t)

	mock.ExpectQuery(`SELECT \* FROM "users"`).
		WillReturnRows(sqlmock.NewRows(userColumns))

	_, err := d.GetUser(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetSanitizedUser_OmitsSecrets(t *testing.T) {
	d, mock := newMockDatabase(t)
	id := uuid.New()
	now := time.Now()

	cols := []string{"id", "username", "email", "full_name", "avatar", "cover_image", "created_at", "updated_at"}
	mock.ExpectQuery(`SELECT (.+) FROM "users" WHERE id = \$1`).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow(id.String(), "abuser", "a@x.com", "A B", "https://cdn/a.png", "", now, now))

	u, err := d.GetSanitizedUser(context.Background(), id)
	require.NoError(t, err)
	assert.Empty(t, u.PasswordHash)
	assert.Nil(t, u.RefreshToken)
}

func TestFindUserByUsernameOrEmail(t *testing.T) {
	t.Run("both identifiers", func(t *testing.T) {
		d, mock := newMockDatabase(t)
		now := time.Now()
		mock.ExpectQuery(`SELECT \* FROM "users" WHERE \(username = \$1 OR email = \$2\)`).
			WillReturnRows(sqlmock.NewRows(userColumns).
				AddRow(uuid.NewString(), "abuser", "a@x.com", "A B", "u", "", "h", nil, now, now))

		u, err := d.FindUserByUsernameOrEmail(context.Background(), "abuser", "a@x.com")
		require.NoError(t, err)
		assert.Nil(t, u.RefreshToken)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("email only", func(t *testing.T) {
		d, mock := newMockDatabase(t)
		mock.ExpectQuery(`SELECT \* FROM "users" WHERE email = \$1`).
			WillReturnRows(sqlmock.NewRows(userColumns))

		_, err := d.FindUserByEmail(context.Background(), "a@x.com")
		assert.ErrorIs(t, err, ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("no identifiers", func(t *testing.T) {
		d, _ := newMockDatabase(t)
		_, err := d.FindUserByUsernameOrEmail(context.Background(), "", "")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestSetRefreshToken(t *testing.T) {
	t.Run("set", func(t *testing.T) {
		d, mock := newMockDatabase(t)
		mock.ExpectExec(`UPDATE "users" SET "refresh_token"=\$1,"updated_at"=\$2 WHERE id = \$3`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, d.SetRefreshToken(context.Background(), uuid.New(), "tok"))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("clear writes NULL", func(t *testing.T) {
		d, mock := newMockDatabase(t)
		mock.ExpectExec(`UPDATE "users" SET "refresh_token"=NULL`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, d.SetRefreshToken(context.Background(), uuid.New(), ""))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing user", func(t *testing.T) {
		d, mock := newMockDatabase(t)
		mock.ExpectExec(`UPDATE "users"`).WillReturnResult(sqlmock.NewResult(0, 0))

		assert.ErrorIs(t, d.SetRefreshToken(context.Background(), uuid.New(), "tok"), ErrNotFound)
	})
}

func TestUpdateUserFields_Error(t *testing.T) {
	d, mock := newMockDatabase(t)
	boom := errors.New("boom")
	mock.ExpectExec(`UPDATE "users"`).WillReturnError(boom)

	err := d.UpdateUserFields(context.Background(), uuid.New(), map[string]interface{}{"full_name": "X"})
	assert.ErrorIs(t, err, boom)
}

func TestGetChannelProfile(t *testing.T) {
	d, mock := newMockDatabase(t)
	id := uuid.New()
	viewer := uuid.New()

	cols := []string{
		"id", "full_name", "username", "email", "avatar", "cover_image",
		"subscribers_count", "channels_subscribed_to_count", "is_subscribed",
	}
	mock.ExpectQuery(`FROM users u\s+WHERE u.username = \$2`).
		WithArgs(viewer, "abuser").
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow(id.String(), "A B", "abuser", "a@x.com", "https://cdn/a.png", "", int64(3), int64(1), true))

	p, err := d.GetChannelProfile(context.Background(), "abuser", viewer)
	require.NoError(t, err)
	assert.Equal(t, id, p.ID)
	assert.EqualValues(t, 3, p.SubscribersCount)
	assert.EqualValues(t, 1, p.ChannelsSubscribedToCount)
	assert.True(t, p.IsSubscribed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetChannelProfile_NotFound(t *testing.T) {
	d, mock := newMockDatabase(t)
	mock.ExpectQuery(`FROM users u`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := d.GetChannelProfile(context.Background(), "ghost", uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetWatchHistory(t *testing.T) {
	d, mock := newMockDatabase(t)
	userID := uuid.New()
	ownerID := uuid.New()
	v1, v2 := uuid.New(), uuid.New()
	now := time.Now()

	cols := []string{
		"id", "video_file", "thumbnail", "title", "description", "owner_id",
		"duration", "views", "is_published", "created_at", "updated_at",
		"owner_full_name", "owner_username", "owner_avatar",
	}
	mock.ExpectQuery(`FROM watch_history wh`).
		WithArgs(userID).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow(v1.String(), "f1", "t1", "first", "", ownerID.String(), 12.5, int64(7), true, now, now, "Owner O", "owner", "https://cdn/o.png").
			AddRow(v2.String(), "f2", "t2", "orphan", "", nil, 1.0, int64(0), true, now, now, nil, nil, nil))

	got, err := d.GetWatchHistory(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, v1, got[0].ID)
	assert.Equal(t, ownerID, got[0].OwnerID)
	require.NotNil(t, got[0].Owner)
	assert.Equal(t, "owner", got[0].Owner.Username)
	assert.Equal(t, "Owner O", got[0].Owner.FullName)

	assert.Equal(t, v2, got[1].ID)
	assert.Nil(t, got[1].Owner)
}

func TestTranslate(t *testing.T) {
	assert.NoError(t, translate(nil))
	assert.ErrorIs(t, translate(gorm.ErrRecordNotFound), ErrNotFound)
	assert.ErrorIs(t, translate(gorm.ErrDuplicatedKey), ErrDuplicate)
	assert.ErrorIs(t, translate(sql.ErrConnDone), sql.ErrConnDone)
}
