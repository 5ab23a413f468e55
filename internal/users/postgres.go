package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/AtoyanMikhail/accounts/internal/config"
	"github.com/AtoyanMikhail/accounts/internal/logger"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file" //used for migrations
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const uniqueViolationCode = "23505"

type userRepo struct {
	db  *sqlx.DB
	l   logger.Logger
	cfg config.DatabaseConfig
}

func NewRepository(cfg config.DatabaseConfig, l logger.Logger) (Repository, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host,
		cfg.Port,
		cfg.User,
		cfg.Password,
		cfg.DBName,
		cfg.SSLMode,
	)
	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("could not open db connection: %v", err)
	}
	if err = db.Ping(); err != nil {
		return nil, fmt.Errorf("could not establish db connection: %v", err)
	}

	return &userRepo{db: db, l: l, cfg: cfg}, nil
}

func (r *userRepo) Close() error {
	return r.db.Close()
}

func (r *userRepo) RunMigrations(migrationsPath string) error {
	driver, err := postgres.WithInstance(r.db.DB, &postgres.Config{})
	if err != nil {
		return err
	}

	m, err := migrate.NewWithDatabaseInstance(
		"file://"+migrationsPath,
		"postgres", driver,
	)
	if err != nil {
		return err
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return err
	}

	return nil
}

func (r *userRepo) Create(ctx context.Context, user *User) error {
	query := `
		INSERT INTO users (username, email, phone_number, password_hash, nickname, bio, user_type, status)
		VALUES (:username, :email, :phone_number, :password_hash, :nickname, :bio, :user_type, :status)
		RETURNING id, created_at, updated_at`

	stmt, err := r.db.PrepareNamedContext(ctx, query)
	if err != nil {
		r.l.Error("Failed to prepare query", logger.Error(err))
		return fmt.Errorf("failed to prepare query: %w", err)
	}
	defer stmt.Close()

	row := stmt.QueryRowxContext(ctx, user)
	if err := row.Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolationCode {
			return ErrAlreadyExists
		}
		r.l.Error("Failed to create user", logger.Error(err))
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

func (r *userRepo) GetByID(ctx context.Context, id int64) (*User, error) {
	query := `SELECT * FROM users WHERE id = $1 AND is_deleted = FALSE`
	return r.getOne(ctx, query, id)
}

func (r *userRepo) GetActiveByID(ctx context.Context, id int64) (*User, error) {
	query := `SELECT * FROM users WHERE id = $1 AND is_deleted = FALSE AND status = 'active'`
	return r.getOne(ctx, query, id)
}

func (r *userRepo) GetByUsername(ctx context.Context, username string) (*User, error) {
	query := `SELECT * FROM users WHERE username = $1 AND is_deleted = FALSE`
	return r.getOne(ctx, query, username)
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*User, error) {
	query := `SELECT * FROM users WHERE email = $1 AND is_deleted = FALSE`
	return r.getOne(ctx, query, email)
}

func (r *userRepo) GetByPhone(ctx context.Context, phone string) (*User, error) {
	query := `SELECT * FROM users WHERE phone_number = $1 AND is_deleted = FALSE`
	return r.getOne(ctx, query, phone)
}

func (r *userRepo) getOne(ctx context.Context, query string, arg interface{}) (*User, error) {
	var user User
	if err := r.db.GetContext(ctx, &user, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		r.l.Error("Failed to get user", logger.Error(err))
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

func (r *userRepo) UpdateProfile(ctx context.Context, user *User) error {
	query := `
		UPDATE users
		SET email = :email,
		    phone_number = :phone_number,
		    nickname = :nickname,
		    bio = :bio,
		    updated_at = NOW()
		WHERE id = :id AND is_deleted = FALSE`

	res, err := r.db.NamedExecContext(ctx, query, user)
	if err != nil {
		r.l.Error("Failed to update user profile", logger.Error(err))
		return fmt.Errorf("failed to update user profile: %w", err)
	}

	return r.requireRowAffected(res)
}

func (r *userRepo) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	query := `UPDATE users SET password_hash = $1, updated_at = NOW() WHERE id = $2 AND is_deleted = FALSE`

	res, err := r.db.ExecContext(ctx, query, passwordHash, id)
	if err != nil {
		r.l.Error("Failed to update password", logger.Error(err))
		return fmt.Errorf("failed to update password: %w", err)
	}

	return r.requireRowAffected(res)
}

func (r *userRepo) SoftDelete(ctx context.Context, id int64) error {
	query := `
		UPDATE users
		SET is_deleted = TRUE, deleted_at = NOW(), status = 'deleted', updated_at = NOW()
		WHERE id = $1 AND is_deleted = FALSE`

	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		r.l.Error("Failed to soft delete user", logger.Error(err))
		return fmt.Errorf("failed to soft delete user: %w", err)
	}

	return r.requireRowAffected(res)
}

func (r *userRepo) Restore(ctx context.Context, id int64) error {
	query := `
		UPDATE users
		SET is_deleted = FALSE, deleted_at = NULL, status = 'active', updated_at = NOW()
		WHERE id = $1 AND is_deleted = TRUE`

	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		r.l.Error("Failed to restore user", logger.Error(err))
		return fmt.Errorf("failed to restore user: %w", err)
	}

	return r.requireRowAffected(res)
}

func (r *userRepo) RecordLogin(ctx context.Context, id int64, ip string) error {
	query := `UPDATE users SET last_login_at = NOW(), last_login_ip = $1 WHERE id = $2 AND is_deleted = FALSE`

	res, err := r.db.ExecContext(ctx, query, ip, id)
	if err != nil {
		r.l.Error("Failed to record login", logger.Error(err))
		return fmt.Errorf("failed to record login: %w", err)
	}

	return r.requireRowAffected(res)
}

func (r *userRepo) requireRowAffected(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
