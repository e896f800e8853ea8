package seed

import (
	"context"
	"strings"

	"campusconnect/internal/domain"
	"campusconnect/pkg/utils"
)

// CreateAdmin is the only way to mint an Admin account; registration over
// HTTP is limited to Student and Faculty.
func CreateAdmin(ctx context.Context, users domain.UserRepository, name, email, password string) (*domain.User, error) {
	name = strings.TrimSpace(name)
	if name == "" || !strings.Contains(email, "@") {
		return nil, domain.Validation("name and a valid email are required")
	}
	if len(password) < 6 {
		return nil, domain.Validation("password must be at least 6 characters")
	}
	hash, err := utils.HashPassword(password)
	if err != nil {
		return nil, err
	}
	u := &domain.User{
		Name: name, Email: email, PasswordHash: hash,
		Role: domain.RoleAdmin, Department: "Administration", IsActive: true,
	}
	if err := users.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func SetRole(ctx context.Context, users domain.UserRepository, email string, role domain.Role) (*domain.User, error) {
	if !role.Valid() {
		return nil, domain.Validation("role must be one of Admin, Faculty, Student")
	}
	u, err := users.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	u.Role = role
	if role != domain.RoleStudent {
		u.Year = nil
	}
	if err := users.Update(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}
