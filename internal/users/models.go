package users

import "time"

// User statuses. Only active users may log in or pass access-token checks.
const (
	StatusActive    = "active"
	StatusInactive  = "inactive"
	StatusSuspended = "suspended"
	StatusDeleted   = "deleted"
)

// User types.
const (
	TypeRegular   = "regular"
	TypeAdmin     = "admin"
	TypeSuperuser = "superuser"
)

type User struct {
	ID            int64      `db:"id" json:"id"`
	Username      string     `db:"username" json:"username"`
	Email         string     `db:"email" json:"email"`
	PhoneNumber   *string    `db:"phone_number" json:"phone_number,omitempty"`
	PasswordHash  string     `db:"password_hash" json:"-"`
	Nickname      string     `db:"nickname" json:"nickname"`
	Bio           string     `db:"bio" json:"bio"`
	UserType      string     `db:"user_type" json:"user_type"`
	Status        string     `db:"status" json:"status"`
	EmailVerified bool       `db:"email_verified" json:"email_verified"`
	PhoneVerified bool       `db:"phone_verified" json:"phone_verified"`
	IsDeleted     bool       `db:"is_deleted" json:"-"`
	DeletedAt     *time.Time `db:"deleted_at" json:"-"`
	LastLoginAt   *time.Time `db:"last_login_at" json:"last_login_at,omitempty"`
	LastLoginIP   *string    `db:"last_login_ip" json:"-"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updated_at"`
}

// IsActive reports whether the user may authenticate.
func (u *User) IsActive() bool {
	return u.Status == StatusActive && !u.IsDeleted
}
