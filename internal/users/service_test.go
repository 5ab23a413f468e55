package users

import (
	"context"
	"io"
	"testing"

	"github.com/AtoyanMikhail/accounts/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// Mock Repository for testing the user service
type mockRepository struct {
	mock.Mock
}

func (m *mockRepository) Create(ctx context.Context, user *User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *mockRepository) GetByID(ctx context.Context, id int64) (*User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*User), args.Error(1)
}

func (m *mockRepository) GetActiveByID(ctx context.Context, id int64) (*User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*User), args.Error(1)
}

func (m *mockRepository) GetByUsername(ctx context.Context, username string) (*User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*User), args.Error(1)
}

func (m *mockRepository) GetByEmail(ctx context.Context, email string) (*User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*User), args.Error(1)
}

func (m *mockRepository) GetByPhone(ctx context.Context, phone string) (*User, error) {
	args := m.Called(ctx, phone)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*User), args.Error(1)
}

func (m *mockRepository) UpdateProfile(ctx context.Context, user *User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *mockRepository) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	args := m.Called(ctx, id, passwordHash)
	return args.Error(0)
}

func (m *mockRepository) SoftDelete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockRepository) Restore(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockRepository) RecordLogin(ctx context.Context, id int64, ip string) error {
	args := m.Called(ctx, id, ip)
	return args.Error(0)
}

func (m *mockRepository) RunMigrations(migrationsPath string) error {
	args := m.Called(migrationsPath)
	return args.Error(0)
}

func (m *mockRepository) Close() error {
	args := m.Called()
	return args.Error(0)
}

func SetupUserService(t *testing.T) (*Service, *mockRepository) {
	repo := &mockRepository{}
	return NewService(repo, logger.New(io.Discard)), repo
}

func hashOf(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func TestService_Register(t *testing.T) {
	service, repo := SetupUserService(t)
	ctx := context.Background()

	repo.On("GetByUsername", ctx, "alice").Return(nil, ErrNotFound)
	repo.On("GetByEmail", ctx, "alice@example.com").Return(nil, ErrNotFound)
	repo.On("Create", ctx, mock.AnythingOfType("*users.User")).Run(func(args mock.Arguments) {
		u := args.Get(1).(*User)
		u.ID = 1
	}).Return(nil)

	user, err := service.Register(ctx, RegisterParams{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "correct horse",
	})
	require.NoError(t, err)

	assert.Equal(t, int64(1), user.ID)
	assert.Equal(t, StatusActive, user.Status)
	assert.Equal(t, TypeRegular, user.UserType)

	// The stored hash must verify against the original password
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("correct horse")))

	repo.AssertExpectations(t)
}

func TestService_Register_DuplicateUsername(t *testing.T) {
	service, repo := SetupUserService(t)
	ctx := context.Background()

	repo.On("GetByUsername", ctx, "alice").Return(&User{ID: 1, Username: "alice"}, nil)

	_, err := service.Register(ctx, RegisterParams{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "correct horse",
	})
	assert.ErrorIs(t, err, ErrAlreadyExists)

	repo.AssertExpectations(t)
}

func TestService_Register_DuplicateEmail(t *testing.T) {
	service, repo := SetupUserService(t)
	ctx := context.Background()

	repo.On("GetByUsername", ctx, "alice").Return(nil, ErrNotFound)
	repo.On("GetByEmail", ctx, "alice@example.com").Return(&User{ID: 2}, nil)

	_, err := service.Register(ctx, RegisterParams{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "correct horse",
	})
	assert.ErrorIs(t, err, ErrAlreadyExists)

	repo.AssertExpectations(t)
}

func TestService_Authenticate(t *testing.T) {
	hash := "cached" // filled per test

	tests := []struct {
		name       string
		identifier string
		password   string
		setupMock  func(t *testing.T, m *mockRepository)
		wantErr    error
	}{
		{
			name:       "by username",
			identifier: "alice",
			password:   "secret123",
			setupMock: func(t *testing.T, m *mockRepository) {
				m.On("GetByUsername", mock.Anything, "alice").
					Return(&User{ID: 1, PasswordHash: hash, Status: StatusActive}, nil)
			},
		},
		{
			name:       "by email",
			identifier: "alice@example.com",
			password:   "secret123",
			setupMock: func(t *testing.T, m *mockRepository) {
				m.On("GetByUsername", mock.Anything, "alice@example.com").Return(nil, ErrNotFound)
				m.On("GetByEmail", mock.Anything, "alice@example.com").
					Return(&User{ID: 1, PasswordHash: hash, Status: StatusActive}, nil)
			},
		},
		{
			name:       "by phone",
			identifier: "13900000000",
			password:   "secret123",
			setupMock: func(t *testing.T, m *mockRepository) {
				m.On("GetByUsername", mock.Anything, "13900000000").Return(nil, ErrNotFound)
				m.On("GetByEmail", mock.Anything, "13900000000").Return(nil, ErrNotFound)
				m.On("GetByPhone", mock.Anything, "13900000000").
					Return(&User{ID: 1, PasswordHash: hash, Status: StatusActive}, nil)
			},
		},
		{
			name:       "unknown identifier",
			identifier: "nobody",
			password:   "secret123",
			setupMock: func(t *testing.T, m *mockRepository) {
				m.On("GetByUsername", mock.Anything, "nobody").Return(nil, ErrNotFound)
				m.On("GetByEmail", mock.Anything, "nobody").Return(nil, ErrNotFound)
				m.On("GetByPhone", mock.Anything, "nobody").Return(nil, ErrNotFound)
			},
			wantErr: ErrInvalidCredentials,
		},
		{
			name:       "wrong password",
			identifier: "alice",
			password:   "wrong",
			setupMock: func(t *testing.T, m *mockRepository) {
				m.On("GetByUsername", mock.Anything, "alice").
					Return(&User{ID: 1, PasswordHash: hash, Status: StatusActive}, nil)
			},
			wantErr: ErrInvalidCredentials,
		},
		{
			name:       "inactive account",
			identifier: "alice",
			password:   "secret123",
			setupMock: func(t *testing.T, m *mockRepository) {
				m.On("GetByUsername", mock.Anything, "alice").
					Return(&User{ID: 1, PasswordHash: hash, Status: StatusSuspended}, nil)
			},
			wantErr: ErrNotActive,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash = hashOf(t, "secret123")
			service, repo := SetupUserService(t)
			tt.setupMock(t, repo)

			user, err := service.Authenticate(context.Background(), tt.identifier, tt.password)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, int64(1), user.ID)
			}

			repo.AssertExpectations(t)
		})
	}
}

func TestService_UpdatePassword(t *testing.T) {
	service, repo := SetupUserService(t)
	ctx := context.Background()

	oldHash := hashOf(t, "old_password")

	repo.On("GetByID", ctx, int64(1)).Return(&User{ID: 1, PasswordHash: oldHash}, nil)
	repo.On("UpdatePassword", ctx, int64(1), mock.MatchedBy(func(newHash string) bool {
		return bcrypt.CompareHashAndPassword([]byte(newHash), []byte("new_password")) == nil
	})).Return(nil)

	err := service.UpdatePassword(ctx, 1, "old_password", "new_password")
	require.NoError(t, err)

	repo.AssertExpectations(t)
}

func TestService_UpdatePassword_WrongOldPassword(t *testing.T) {
	service, repo := SetupUserService(t)
	ctx := context.Background()

	repo.On("GetByID", ctx, int64(1)).Return(&User{ID: 1, PasswordHash: hashOf(t, "old_password")}, nil)

	err := service.UpdatePassword(ctx, 1, "not_the_password", "new_password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	repo.AssertExpectations(t)
}

func TestService_UpdateProfile(t *testing.T) {
	service, repo := SetupUserService(t)
	ctx := context.Background()

	stored := &User{ID: 1, Email: "old@example.com", Nickname: "old"}
	newEmail := "new@example.com"

	repo.On("GetByID", ctx, int64(1)).Return(stored, nil)
	repo.On("UpdateProfile", ctx, mock.MatchedBy(func(u *User) bool {
		return u.Email == newEmail && u.Nickname == "old"
	})).Return(nil)

	user, err := service.UpdateProfile(ctx, 1, ProfileUpdate{Email: &newEmail})
	require.NoError(t, err)
	assert.Equal(t, newEmail, user.Email)

	repo.AssertExpectations(t)
}
