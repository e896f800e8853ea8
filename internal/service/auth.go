package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"campusconnect/internal/core/auth"
	"campusconnect/internal/domain"
	"campusconnect/pkg/utils"
)

type RegisterInput struct {
	Name       string      `json:"name" validate:"required,min=1,max=64"`
	Email      string      `json:"email" validate:"required,email,max=191"`
	Password   string      `json:"password" validate:"required,min=6,max=72"`
	Role       domain.Role `json:"role" validate:"omitempty,oneof=Student Faculty"`
	Department string      `json:"department" validate:"max=128"`
	Year       *int        `json:"year" validate:"omitempty,min=1,max=6"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type ProfileInput struct {
	Name           *string `json:"name" validate:"omitnil,min=1,max=64"`
	Department     *string `json:"department" validate:"omitempty,max=128"`
	Year           *int    `json:"year" validate:"omitempty,min=1,max=6"`
	ProfilePicture *string `json:"profilePicture" validate:"omitempty,max=512"`
}

type Session struct {
	Token string       `json:"token"`
	User  *domain.User `json:"user"`
}

type AuthService struct {
	users domain.UserRepository
	jwt   *auth.JWTer
	log   *zap.Logger
}

func NewAuthService(users domain.UserRepository, jwt *auth.JWTer, log *zap.Logger) *AuthService {
	return &AuthService{users: users, jwt: jwt, log: log.Named("auth")}
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Department = strings.TrimSpace(in.Department)
	if err := check(in); err != nil {
		return nil, err
	}
	if in.Role == "" {
		in.Role = domain.RoleStudent
	}
	if in.Role != domain.RoleStudent {
		in.Year = nil
	}
	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, domain.Internal("could not register", err)
	}
	u := &domain.User{
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: hash,
		Role:         in.Role,
		Department:   in.Department,
		Year:         in.Year,
		IsActive:     true,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}
	s.log.Info("user registered", zap.String("uid", u.ID), zap.String("role", string(u.Role)))
	return s.session(u)
}

func (s *AuthService) Login(ctx context.Context, in LoginInput) (*Session, error) {
	if err := check(in); err != nil {
		return nil, err
	}
	u, err := s.users.FindByEmail(ctx, in.Email)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.Unauthenticated("invalid email or password")
	}
	if err != nil {
		return nil, err
	}
	if !utils.CheckPassword(in.Password, u.PasswordHash) {
		return nil, domain.Unauthenticated("invalid email or password")
	}
	if !u.IsActive {
		return nil, domain.Unauthenticated("account is deactivated")
	}
	return s.session(u)
}

func (s *AuthService) session(u *domain.User) (*Session, error) {
	tok, err := s.jwt.Issue(u.ID, string(u.Role))
	if err != nil {
		return nil, domain.Internal("could not issue token", err)
	}
	return &Session{Token: tok, User: u}, nil
}

// Authenticate resolves a bearer token to an active user. The role always comes
// from the stored row so that role changes apply without re-login.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*domain.User, error) {
	if token == "" {
		return nil, domain.Unauthenticated("not authorized, no token")
	}
	claims, err := s.jwt.Parse(token)
	if err != nil {
		return nil, domain.Unauthenticated("not authorized, token failed")
	}
	u, err := s.users.FindByID(ctx, claims.UID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.Unauthenticated("user not found")
	}
	if err != nil {
		return nil, err
	}
	if !u.IsActive {
		return nil, domain.Unauthenticated("account is deactivated")
	}
	return u, nil
}

func (s *AuthService) UpdateProfile(ctx context.Context, caller *domain.User, in ProfileInput) (*domain.User, error) {
	trimPtr(in.Name)
	trimPtr(in.Department)
	trimPtr(in.ProfilePicture)
	if err := check(in); err != nil {
		return nil, err
	}
	u, err := s.users.FindByID(ctx, caller.ID)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		u.Name = *in.Name
	}
	if in.Department != nil {
		u.Department = *in.Department
	}
	if in.Year != nil && u.Role == domain.RoleStudent {
		u.Year = in.Year
	}
	if in.ProfilePicture != nil {
		u.ProfilePicture = *in.ProfilePicture
	}
	if err := s.users.Update(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}
