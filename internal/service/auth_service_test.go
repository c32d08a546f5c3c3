package service

import (
	"context"
	"testing"

	"fleet/internal/model"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister(t *testing.T) {
	ctx := context.Background()

	t.Run("defaults to driver and issues a token", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "")
		f := newFixture(t)
		svc := NewAuthService(f.users)

		res, err := svc.Register(ctx, RegisterRequest{
			Email:     "new.driver@example.com",
			Password:  "secret123",
			FirstName: "New",
			LastName:  "Driver",
		})
		require.NoError(t, err)
		assert.Equal(t, model.RoleDriver, res.Role)

		token, err := jwt.Parse(res.Token, func(_ *jwt.Token) (interface{}, error) {
			return []byte("default_super_secret_key"), nil
		})
		require.NoError(t, err)
		claims := token.Claims.(jwt.MapClaims)
		assert.Equal(t, model.RoleDriver, claims["role"])
		assert.NotEmpty(t, claims["sub"])
	})

	t.Run("rejects duplicate email", func(t *testing.T) {
		f := newFixture(t)
		svc := NewAuthService(f.users)

		req := RegisterRequest{
			Email:     "taken@example.com",
			Password:  "secret123",
			FirstName: "First",
			LastName:  "Taker",
		}
		_, err := svc.Register(ctx, req)
		require.NoError(t, err)

		_, err = svc.Register(ctx, req)
		assert.ErrorIs(t, err, ErrEmailTaken)
	})

	t.Run("rejects unknown role", func(t *testing.T) {
		f := newFixture(t)
		svc := NewAuthService(f.users)

		_, err := svc.Register(ctx, RegisterRequest{
			Email:     "odd@example.com",
			Password:  "secret123",
			FirstName: "Odd",
			LastName:  "Role",
			Role:      "warehouse_gnome",
		})
		assert.Error(t, err)
	})
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := NewAuthService(f.users)

	_, err := svc.Register(ctx, RegisterRequest{
		Email:     "vendor@example.com",
		Password:  "secret123",
		FirstName: "Ven",
		LastName:  "Dor",
		Role:      model.RoleRegionalVendor,
	})
	require.NoError(t, err)

	res, err := svc.Login(ctx, LoginRequest{Email: "vendor@example.com", Password: "secret123"})
	require.NoError(t, err)
	assert.Equal(t, model.RoleRegionalVendor, res.Role)
	assert.NotEmpty(t, res.Token)

	_, err = svc.Login(ctx, LoginRequest{Email: "vendor@example.com", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, LoginRequest{Email: "ghost@example.com", Password: "secret123"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestUpdateRegion(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := NewAuthService(f.users)

	u := seedUser(t, f, model.RoleRegionalVendor, "")

	profile, err := svc.UpdateRegion(ctx, u.ID.String(), "western")
	require.NoError(t, err)
	assert.Equal(t, "western", profile.Region)

	_, err = svc.UpdateRegion(ctx, u.ID.String(), "atlantis")
	assert.ErrorIs(t, err, ErrInvalidRegion)
}

func TestGetProfile(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := NewAuthService(f.users)

	u := seedUser(t, f, model.RoleDriver, "eastern")

	profile, err := svc.GetProfile(ctx, u.ID.String())
	require.NoError(t, err)
	assert.Equal(t, u.Email, profile.Email)
	assert.Equal(t, "eastern", profile.Region)
	assert.NotNil(t, profile.CustomPermissions)

	_, err = svc.GetProfile(ctx, "00000000-0000-0000-0000-000000000000")
	assert.ErrorIs(t, err, ErrUserNotFound)
}
