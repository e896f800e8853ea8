package domain

import (
	"context"
	"time"
)

type Role string

const (
	RoleAdmin   Role = "Admin"
	RoleFaculty Role = "Faculty"
	RoleStudent Role = "Student"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleFaculty, RoleStudent:
		return true
	}
	return false
}

// Elevated 是否可以发布 Official 帖子 / 审核内容
func (r Role) Elevated() bool { return r == RoleAdmin || r == RoleFaculty }

type User struct {
	ID             string    `gorm:"primaryKey;size:36" json:"id"`
	Name           string    `gorm:"size:64;not null" json:"name"`
	Email          string    `gorm:"uniqueIndex;size:191;not null" json:"email"`
	PasswordHash   string    `gorm:"size:100;not null" json:"-"`
	Role           Role      `gorm:"size:16;not null;default:Student;index" json:"role"`
	Department     string    `gorm:"size:128" json:"department,omitempty"`
	Year           *int      `json:"year,omitempty"`
	ProfilePicture string    `gorm:"size:512" json:"profilePicture,omitempty"`
	IsActive       bool      `gorm:"not null" json:"isActive"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

func (User) TableName() string { return "users" }

// UserRef is the populated summary of a user referenced by another row.
type UserRef struct {
	ID             string `gorm:"primaryKey" json:"id"`
	Name           string `json:"name"`
	Email          string `json:"email,omitempty"`
	Role           Role   `json:"role,omitempty"`
	Department     string `json:"department,omitempty"`
	ProfilePicture string `json:"profilePicture,omitempty"`
}

func (UserRef) TableName() string { return "users" }

type RoleCount struct {
	Role  Role  `json:"role"`
	Count int64 `json:"count"`
}

// IsAdmin 调用方为空时返回 false
func (u *User) IsAdmin() bool { return u != nil && u.Role == RoleAdmin }

// Owns reports whether the caller may mutate content authored by authorID.
func (u *User) Owns(authorID *string) bool {
	if u == nil {
		return false
	}
	if u.Role == RoleAdmin {
		return true
	}
	return authorID != nil && *authorID == u.ID
}

type UserFilter struct {
	Role   Role
	Search string
	Page   PageRequest
}

// UserPatch carries the admin-mutable user fields; nil means unchanged.
type UserPatch struct {
	Role     *Role
	IsActive *bool
}

type ProfilePatch struct {
	Name           *string
	Department     *string
	Year           *int
	ProfilePicture *string
}

type UserRepository interface {
	Create(ctx context.Context, u *User) error
	FindByID(ctx context.Context, id string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	List(ctx context.Context, f UserFilter) ([]User, int64, error)
	Update(ctx context.Context, u *User) error
	// Delete 硬删除用户，同时清理其收到的通知与点赞记录
	Delete(ctx context.Context, id string) error
	HasContent(ctx context.Context, id string) (bool, error)
	Count(ctx context.Context) (int64, error)
	CountByRole(ctx context.Context) ([]RoleCount, error)
}
