package users

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/AtoyanMikhail/accounts/internal/config"
	"github.com/AtoyanMikhail/accounts/internal/logger"
	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Mock logger
type mockLogger struct{}

func (m *mockLogger) Debug(msg string, fields ...logger.Field)  {}
func (m *mockLogger) Info(msg string, fields ...logger.Field)   {}
func (m *mockLogger) Warn(msg string, fields ...logger.Field)   {}
func (m *mockLogger) Error(msg string, fields ...logger.Field)  {}
func (m *mockLogger) Fatal(msg string, fields ...logger.Field)  {}
func (m *mockLogger) Panic(msg string, fields ...logger.Field)  {}
func (m *mockLogger) With(fields ...logger.Field) logger.Logger { return m }
func (m *mockLogger) Sync() error                               { return nil }
func (m *mockLogger) SetLevel(level logger.Level)               {}

// Test repo initialization helper
func SetupTestRepo(t *testing.T) (*userRepo, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	sqlxDB := sqlx.NewDb(db, "postgres")

	repo := &userRepo{
		db:  sqlxDB,
		l:   &mockLogger{},
		cfg: config.DatabaseConfig{},
	}

	cleanup := func() {
		db.Close()
	}

	return repo, mock, cleanup
}

func userColumns() []string {
	return []string{
		"id", "username", "email", "phone_number", "password_hash", "nickname",
		"bio", "user_type", "status", "email_verified", "phone_verified",
		"is_deleted", "deleted_at", "last_login_at", "last_login_ip",
		"created_at", "updated_at",
	}
}

func userRow() *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(userColumns()).AddRow(
		int64(1), "alice", "alice@example.com", nil, "hash", "Alice",
		"", "regular", "active", false, false,
		false, nil, nil, nil,
		now, now,
	)
}

func TestUserRepo_Create(t *testing.T) {
	repo, mock, cleanup := SetupTestRepo(t)
	defer cleanup()

	user := &User{
		Username:     "alice",
		Email:        "alice@example.com",
		PasswordHash: "hash",
		UserType:     TypeRegular,
		Status:       StatusActive,
	}

	mock.ExpectPrepare(`INSERT INTO users`).
		ExpectQuery().
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).
			AddRow(1, time.Now(), time.Now()))

	err := repo.Create(context.Background(), user)
	require.NoError(t, err)

	assert.Equal(t, int64(1), user.ID)
	assert.NotZero(t, user.CreatedAt)
	assert.NotZero(t, user.UpdatedAt)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepo_GetByID(t *testing.T) {
	repo, mock, cleanup := SetupTestRepo(t)
	defer cleanup()

	tests := []struct {
		name    string
		mockFn  func(sqlmock.Sqlmock)
		wantErr error
	}{
		{
			name: "found",
			mockFn: func(m sqlmock.Sqlmock) {
				m.ExpectQuery(`SELECT \* FROM users WHERE id = \$1 AND is_deleted = FALSE`).
					WithArgs(int64(1)).
					WillReturnRows(userRow())
			},
		},
		{
			name: "not found",
			mockFn: func(m sqlmock.Sqlmock) {
				m.ExpectQuery(`SELECT \* FROM users WHERE id = \$1 AND is_deleted = FALSE`).
					WithArgs(int64(1)).
					WillReturnRows(sqlmock.NewRows(userColumns()))
			},
			wantErr: ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.mockFn(mock)

			user, err := repo.GetByID(context.Background(), 1)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, "alice", user.Username)
			}

			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestUserRepo_GetActiveByID_FiltersStatus(t *testing.T) {
	repo, mock, cleanup := SetupTestRepo(t)
	defer cleanup()

	mock.ExpectQuery(`SELECT \* FROM users WHERE id = \$1 AND is_deleted = FALSE AND status = 'active'`).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows(userColumns()))

	_, err := repo.GetActiveByID(context.Background(), 1)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepo_UpdatePassword(t *testing.T) {
	repo, mock, cleanup := SetupTestRepo(t)
	defer cleanup()

	tests := []struct {
		name    string
		mockFn  func(sqlmock.Sqlmock)
		wantErr bool
		errIs   error
	}{
		{
			name: "updated",
			mockFn: func(m sqlmock.Sqlmock) {
				m.ExpectExec(`UPDATE users SET password_hash`).
					WithArgs("new_hash", int64(1)).
					WillReturnResult(sqlmock.NewResult(0, 1))
			},
		},
		{
			name: "no such user",
			mockFn: func(m sqlmock.Sqlmock) {
				m.ExpectExec(`UPDATE users SET password_hash`).
					WithArgs("new_hash", int64(1)).
					WillReturnResult(sqlmock.NewResult(0, 0))
			},
			wantErr: true,
			errIs:   ErrNotFound,
		},
		{
			name: "query error",
			mockFn: func(m sqlmock.Sqlmock) {
				m.ExpectExec(`UPDATE users SET password_hash`).
					WithArgs("new_hash", int64(1)).
					WillReturnError(fmt.Errorf("connection lost"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.mockFn(mock)

			err := repo.UpdatePassword(context.Background(), 1, "new_hash")

			if tt.wantErr {
				assert.Error(t, err)
				if tt.errIs != nil {
					assert.ErrorIs(t, err, tt.errIs)
				}
			} else {
				assert.NoError(t, err)
			}

			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestUserRepo_SoftDelete(t *testing.T) {
	repo, mock, cleanup := SetupTestRepo(t)
	defer cleanup()

	mock.ExpectExec(`UPDATE users`).
		WithArgs(int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.SoftDelete(context.Background(), 1)
	assert.NoError(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}
