package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/edupredict-api/internal/models"
	appErrors "github.com/noah-isme/edupredict-api/pkg/errors"
)

type mockAuthRepo struct {
	users            map[string]*models.User
	registered       *models.User
	registeredSt     *models.Student
	registerErr      error
	lastLoginUpdated bool
}

func newMockAuthRepo(users ...*models.User) *mockAuthRepo {
	m := &mockAuthRepo{users: map[string]*models.User{}}
	for _, u := range users {
		m.users[u.ID] = u
	}
	return m
}

func (m *mockAuthRepo) find(match func(*models.User) bool) (*models.User, error) {
	for _, u := range m.users {
		if match(u) {
			return u, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockAuthRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return m.find(func(u *models.User) bool { return u.Email == email })
}

func (m *mockAuthRepo) FindByRollNumber(ctx context.Context, roll string) (*models.User, error) {
	return m.find(func(u *models.User) bool { return u.RollNumber != nil && *u.RollNumber == roll })
}

func (m *mockAuthRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	return m.find(func(u *models.User) bool { return u.ID == id })
}

func (m *mockAuthRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := m.FindByEmail(ctx, email)
	return err == nil, nil
}

func (m *mockAuthRepo) Register(ctx context.Context, user *models.User, student *models.Student) error {
	if m.registerErr != nil {
		return m.registerErr
	}
	user.ID = "new-user"
	m.users[user.ID] = user
	m.registered, m.registeredSt = user, student
	return nil
}

func (m *mockAuthRepo) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	m.lastLoginUpdated = true
	return nil
}

func newTestAuthService(repo *mockAuthRepo) *AuthService {
	return NewAuthService(repo, validator.New(), zap.NewNop(), AuthConfig{AccessTokenSecret: "secret", AccessTokenExpiry: time.Hour})
}

func hashed(t *testing.T, password string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(h)
}

func TestAuthServiceRegisterSeedsStudent(t *testing.T) {
	repo := newMockAuthRepo()
	svc := newTestAuthService(repo)

	res, err := svc.Register(context.Background(), models.RegisterRequest{Name: " Asha ", Email: "Asha@Example.com", Password: "secret1"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.AccessToken)
	assert.Equal(t, "asha@example.com", res.User.Email)
	assert.Equal(t, models.RoleStudent, res.User.Role)

	require.NotNil(t, repo.registeredSt)
	assert.Equal(t, models.DefaultGrade, repo.registeredSt.Grade)
	assert.Equal(t, 100.0, repo.registeredSt.Attendance)
	assert.Equal(t, 1, repo.registeredSt.Level)
	require.Len(t, repo.registeredSt.Subjects, len(models.DefaultSubjects))
	assert.Equal(t, "Mathematics", repo.registeredSt.Subjects[0].Name)
	assert.NotEqual(t, "secret1", repo.registered.PasswordHash)
}

func TestAuthServiceRegisterDuplicate(t *testing.T) {
	repo := newMockAuthRepo(&models.User{ID: "u1", Email: "asha@example.com"})
	svc := newTestAuthService(repo)

	_, err := svc.Register(context.Background(), models.RegisterRequest{Name: "Asha", Email: "asha@example.com", Password: "secret1"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceRegisterValidation(t *testing.T) {
	svc := newTestAuthService(newMockAuthRepo())

	_, err := svc.Register(context.Background(), models.RegisterRequest{Name: "Asha", Email: "not-an-email", Password: "x"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceLoginByEmail(t *testing.T) {
	repo := newMockAuthRepo(&models.User{ID: "u1", Email: "user@example.com", PasswordHash: hashed(t, "password"), Active: true, Role: models.RoleFaculty})
	svc := newTestAuthService(repo)

	res, err := svc.Login(context.Background(), models.LoginRequest{Email: "user@example.com", Password: "password"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.AccessToken)
	assert.Equal(t, int64(3600), res.ExpiresIn)
	assert.True(t, repo.lastLoginUpdated)
}

func TestAuthServiceLoginByRollNumberUppercases(t *testing.T) {
	roll := "CS-042"
	repo := newMockAuthRepo(&models.User{ID: "u1", Email: "s@example.com", RollNumber: &roll, PasswordHash: hashed(t, "password"), Active: true, Role: models.RoleStudent})
	svc := newTestAuthService(repo)

	res, err := svc.Login(context.Background(), models.LoginRequest{RollNumber: "cs-042", Password: "password"})
	require.NoError(t, err)
	assert.Equal(t, roll, res.User.RollNumber)
}

func TestAuthServiceLoginFailures(t *testing.T) {
	repo := newMockAuthRepo(
		&models.User{ID: "u1", Email: "user@example.com", PasswordHash: hashed(t, "password"), Active: true},
		&models.User{ID: "u2", Email: "off@example.com", PasswordHash: hashed(t, "password"), Active: false},
	)
	svc := newTestAuthService(repo)

	tests := []struct {
		name string
		req  models.LoginRequest
		code string
	}{
		{"no identifier", models.LoginRequest{Password: "password"}, appErrors.ErrValidation.Code},
		{"unknown email", models.LoginRequest{Email: "ghost@example.com", Password: "password"}, appErrors.ErrInvalidCredentials.Code},
		{"wrong password", models.LoginRequest{Email: "user@example.com", Password: "nope"}, appErrors.ErrInvalidCredentials.Code},
		{"inactive", models.LoginRequest{Email: "off@example.com", Password: "password"}, appErrors.ErrInactiveAccount.Code},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Login(context.Background(), tc.req)
			require.Error(t, err)
			assert.Equal(t, tc.code, appErrors.FromError(err).Code)
		})
	}
}

func TestAuthServiceMe(t *testing.T) {
	repo := newMockAuthRepo(&models.User{ID: "u1", Name: "Asha", Email: "asha@example.com", Role: models.RoleStudent})
	svc := newTestAuthService(repo)

	info, err := svc.Me(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "Asha", info.Name)

	_, err = svc.Me(context.Background(), "ghost")
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestValidateToken(t *testing.T) {
	svc := newTestAuthService(newMockAuthRepo())
	user := &models.User{ID: "u1", Email: "user@example.com", Role: models.RoleAdmin}
	token, _, err := svc.generateAccessToken(user)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, models.RoleAdmin, claims.Role)

	other := NewAuthService(newMockAuthRepo(), nil, nil, AuthConfig{AccessTokenSecret: "different"})
	_, err = other.ValidateToken(token)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}
