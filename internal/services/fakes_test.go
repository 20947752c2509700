package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/thereayou/vidtube/internal/database"
	"github.com/thereayou/vidtube/internal/models"
)

// edge is a subscription: subscriber follows channel.
type edge struct {
	subscriber, channel uuid.UUID
}

type memDB struct {
	mu    sync.Mutex
	users map[uuid.UUID]*models.User
	subs  []edge
	watch map[uuid.UUID][]models.WatchedVideo

	failSanitized bool
	failUpdate    error
}

var _ DatabaseService = (*memDB)(nil)

func newMemDB() *memDB {
	return &memDB{
		users: map[uuid.UUID]*models.User{},
		watch: map[uuid.UUID][]models.WatchedVideo{},
	}
}

func (m *memDB) SaveUser(ctx context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Username == u.Username || existing.Email == u.Email {
			return database.ErrDuplicate
		}
	}
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	now := time.Now()
	u.CreatedAt, u.UpdatedAt = now, now
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m *memDB) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memDB) GetSanitizedUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if m.failSanitized {
		return nil, errors.New("read replica lag")
	}
	u, err := m.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	u.PasswordHash = ""
	u.RefreshToken = nil
	return u, nil
}

func (m *memDB) FindUserByUsernameOrEmail(ctx context.Context, username, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if (username != "" && u.Username == username) || (email != "" && u.Email == email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, database.ErrNotFound
}

func (m *memDB) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return m.FindUserByUsernameOrEmail(ctx, "", email)
}

func (m *memDB) SetRefreshToken(ctx context.Context, id uuid.UUID, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return database.ErrNotFound
	}
	if token == "" {
		u.RefreshToken = nil
	} else {
		t := token
		u.RefreshToken = &t
	}
	return nil
}

func (m *memDB) UpdateUserFields(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error {
	if m.failUpdate != nil {
		return m.failUpdate
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return database.ErrNotFound
	}
	for k, v := range fields {
		s := v.(string)
		switch k {
		case "full_name":
			u.FullName = s
		case "email":
			u.Email = s
		case "avatar":
			u.Avatar = s
		case "cover_image":
			u.CoverImage = s
		case "password_hash":
			u.PasswordHash = s
		default:
			return fmt.Errorf("unknown column %q", k)
		}
	}
	u.UpdatedAt = time.Now()
	return nil
}

func (m *memDB) GetChannelProfile(ctx context.Context, username string, viewer uuid.UUID) (*models.ChannelProfile, error) {
	u, err := m.FindUserByUsernameOrEmail(ctx, username, "")
	if err != nil {
		return nil, err
	}
	p := &models.ChannelProfile{
		ID: u.ID, FullName: u.FullName, Username: u.Username, Email: u.Email,
		Avatar: u.Avatar, CoverImage: u.CoverImage,
	}
	for _, s := range m.subs {
		if s.channel == u.ID {
			p.SubscribersCount++
			if s.subscriber == viewer {
				p.IsSubscribed = true
			}
		}
		if s.subscriber == u.ID {
			p.ChannelsSubscribedToCount++
		}
	}
	return p, nil
}

func (m *memDB) GetWatchHistory(ctx context.Context, userID uuid.UUID) ([]models.WatchedVideo, error) {
	return m.watch[userID], nil
}

func (m *memDB) subscribe(subscriber, channel uuid.UUID) {
	m.subs = append(m.subs, edge{subscriber: subscriber, channel: channel})
}

type fakeUploader struct {
	calls   []string
	failFor map[string]bool
	empty   bool
}

func (f *fakeUploader) Upload(ctx context.Context, localPath, folder string) (string, error) {
	if localPath == "" {
		return "", nil
	}
	f.calls = append(f.calls, folder)
	if f.failFor[folder] {
		return "", errors.New("media host unavailable")
	}
	if f.empty {
		return "", nil
	}
	return fmt.Sprintf("https://cdn.example.com/%s/%d.png", folder, len(f.calls)), nil
}

type fakeBlacklist struct {
	revoked map[string]time.Duration
	err     error
}

func newFakeBlacklist() *fakeBlacklist {
	return &fakeBlacklist{revoked: map[string]time.Duration{}}
}

func (f *fakeBlacklist) Revoke(ctx context.Context, token string, ttl time.Duration) error {
	if f.err != nil {
		return f.err
	}
	f.revoked[token] = ttl
	return nil
}

func (f *fakeBlacklist) IsRevoked(ctx context.Context, token string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	_, ok := f.revoked[token]
	return ok, nil
}
