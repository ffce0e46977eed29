package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/sga-api/internal/models"
	"github.com/noah-isme/sga-api/pkg/config"
	appErrors "github.com/noah-isme/sga-api/pkg/errors"
)

type mockUserReader struct {
	users     map[string]*models.User
	lastLogin map[string]time.Time
}

func (m *mockUserReader) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockUserReader) FindByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockUserReader) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	if m.lastLogin == nil {
		m.lastLogin = make(map[string]time.Time)
	}
	m.lastLogin[id] = ts
	return nil
}

type mockSessionStore struct {
	sessions map[string]*models.RefreshSession
}

func (m *mockSessionStore) Save(ctx context.Context, session *models.RefreshSession) error {
	if m.sessions == nil {
		m.sessions = make(map[string]*models.RefreshSession)
	}
	m.sessions[session.Token] = session
	return nil
}

func (m *mockSessionStore) Find(ctx context.Context, token string) (*models.RefreshSession, error) {
	if s, ok := m.sessions[token]; ok {
		return s, nil
	}
	return nil, redis.Nil
}

func (m *mockSessionStore) Revoke(ctx context.Context, token, userID string) error {
	delete(m.sessions, token)
	return nil
}

func (m *mockSessionStore) RevokeAll(ctx context.Context, userID string) error {
	for token, s := range m.sessions {
		if s.UserID == userID {
			delete(m.sessions, token)
		}
	}
	return nil
}

func authServiceFixture(t *testing.T) (*AuthService, *mockSessionStore) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.MinCost)
	require.NoError(t, err)

	users := &mockUserReader{users: map[string]*models.User{
		"u1": {ID: "u1", Email: "ana@example.edu", PasswordHash: string(hash), FullName: "Ana Souza", Role: models.RoleCoordinator, Active: true},
		"u2": {ID: "u2", Email: "off@example.edu", PasswordHash: string(hash), FullName: "Old Account", Role: models.RoleTeacher, Active: false},
	}}
	sessions := &mockSessionStore{}
	cfg := config.JWTConfig{
		Secret:            "test_secret",
		Issuer:            "sga-api",
		Expiration:        time.Hour,
		RefreshExpiration: 24 * time.Hour,
	}
	return NewAuthService(users, sessions, cfg, validator.New(), zap.NewNop()), sessions
}

func TestLoginIssuesTokenPair(t *testing.T) {
	svc, sessions := authServiceFixture(t)

	resp, err := svc.Login(context.Background(), models.LoginRequest{Email: "ana@example.edu", Password: "secret123"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, "u1", resp.User.ID)
	assert.Len(t, sessions.sessions, 1)

	claims, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, models.RoleCoordinator, claims.Role)
}

func TestLoginRejectsBadPasswordAndUnknownEmail(t *testing.T) {
	svc, _ := authServiceFixture(t)

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "ana@example.edu", Password: "wrong-pass"})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrInvalidCredentials))

	_, err = svc.Login(context.Background(), models.LoginRequest{Email: "ghost@example.edu", Password: "secret123"})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrInvalidCredentials), "unknown email must not be distinguishable")
}

func TestLoginRejectsInactiveAccount(t *testing.T) {
	svc, _ := authServiceFixture(t)

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "off@example.edu", Password: "secret123"})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrInactiveAccount))
}

func TestRefreshRotatesSingleUseToken(t *testing.T) {
	svc, sessions := authServiceFixture(t)

	login, err := svc.Login(context.Background(), models.LoginRequest{Email: "ana@example.edu", Password: "secret123"})
	require.NoError(t, err)

	refreshed, err := svc.Refresh(context.Background(), models.RefreshTokenRequest{RefreshToken: login.RefreshToken})
	require.NoError(t, err)
	assert.NotEqual(t, login.RefreshToken, refreshed.RefreshToken)
	assert.Len(t, sessions.sessions, 1, "the old session must be revoked on rotation")

	_, err = svc.Refresh(context.Background(), models.RefreshTokenRequest{RefreshToken: login.RefreshToken})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrUnauthorized), "a refresh token is single use")
}

func TestLogoutRevokesSession(t *testing.T) {
	svc, sessions := authServiceFixture(t)

	login, err := svc.Login(context.Background(), models.LoginRequest{Email: "ana@example.edu", Password: "secret123"})
	require.NoError(t, err)

	require.NoError(t, svc.Logout(context.Background(), login.RefreshToken))
	assert.Empty(t, sessions.sessions)

	// Logging out an already revoked token is a no-op.
	require.NoError(t, svc.Logout(context.Background(), login.RefreshToken))
}
