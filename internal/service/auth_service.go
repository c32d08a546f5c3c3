package service

import (
	"context"
	"errors"
	"os"
	"time"

	"fleet/internal/model"
	"fleet/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrEmailTaken         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidRegion      = errors.New("invalid region")
	ErrUserNotFound       = errors.New("user not found")
)

// DTOs for request validation
type RegisterRequest struct {
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=6"`
	FirstName string `json:"firstName" binding:"required"`
	LastName  string `json:"lastName" binding:"required"`
	Role      string `json:"role"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type UpdateRegionRequest struct {
	Region string `json:"region" binding:"required"`
}

type AuthResponse struct {
	Token string `json:"token"`
	Role  string `json:"role"`
}

// ProfileResponse returns the caller's own account without the hash.
type ProfileResponse struct {
	ID                string   `json:"id"`
	Email             string   `json:"email"`
	FirstName         string   `json:"firstName"`
	LastName          string   `json:"lastName"`
	Role              string   `json:"role"`
	Region            string   `json:"region"`
	CustomPermissions []string `json:"customPermissions"`
}

// AuthService covers registration, login and the self-service profile.
type AuthService interface {
	Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error)
	Login(ctx context.Context, req LoginRequest) (*AuthResponse, error)
	GetProfile(ctx context.Context, userID string) (*ProfileResponse, error)
	UpdateRegion(ctx context.Context, userID, region string) (*ProfileResponse, error)
}

type authService struct {
	users repository.UserRepository
}

// NewAuthService returns a new instance of AuthService.
func NewAuthService(users repository.UserRepository) AuthService {
	return &authService{users: users}
}

func toProfileResponse(u *model.User) *ProfileResponse {
	perms := u.CustomPermissions
	if perms == nil {
		perms = model.StringList{}
	}
	return &ProfileResponse{
		ID:                u.ID.String(),
		Email:             u.Email,
		FirstName:         u.FirstName,
		LastName:          u.LastName,
		Role:              u.Role,
		Region:            u.Region,
		CustomPermissions: perms,
	}
}

// signToken issues an 8h HS256 bearer token carrying subject and role.
func signToken(u *model.User) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  u.ID.String(),
		"role": u.Role,
		"exp":  time.Now().Add(8 * time.Hour).Unix(),
	})

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = "default_super_secret_key"
	}

	return token.SignedString([]byte(secret))
}

func (s *authService) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	role := req.Role
	if role == "" {
		role = model.RoleDriver
	}
	if !model.ValidRole(role) {
		return nil, errors.New("invalid role")
	}

	if _, err := s.users.GetByEmail(ctx, req.Email); err == nil {
		return nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.New("failed to hash password")
	}

	user := &model.User{
		Email:             req.Email,
		PasswordHash:      string(hash),
		FirstName:         req.FirstName,
		LastName:          req.LastName,
		Role:              role,
		CustomPermissions: model.StringList{},
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	tokenString, err := signToken(user)
	if err != nil {
		return nil, errors.New("failed to generate token")
	}

	return &AuthResponse{Token: tokenString, Role: user.Role}, nil
}

func (s *authService) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	user, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	tokenString, err := signToken(user)
	if err != nil {
		return nil, errors.New("failed to generate token")
	}

	return &AuthResponse{Token: tokenString, Role: user.Role}, nil
}

func (s *authService) GetProfile(ctx context.Context, userID string) (*ProfileResponse, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, ErrUserNotFound
	}
	return toProfileResponse(user), nil
}

// UpdateRegion is self-service: any account may set its own region, but
// only to one of the enumerated values.
func (s *authService) UpdateRegion(ctx context.Context, userID, region string) (*ProfileResponse, error) {
	if !model.ValidRegion(region) {
		return nil, ErrInvalidRegion
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, ErrUserNotFound
	}

	user.Region = region
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}

	return toProfileResponse(user), nil
}
