package service

import (
	"context"
	"testing"

	"fleet/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpdateRole(t *testing.T) {
	ctx := context.Background()

	t.Run("changes tier and records the audit entry", func(t *testing.T) {
		f := newFixture(t)
		svc := NewUserService(f.users, f.audit)

		super := seedUser(t, f, model.RoleSuperVendor, "")
		target := seedUser(t, f, model.RoleDriver, "northern")

		out, err := svc.UpdateRole(ctx, ident(super), target.ID.String(), UpdateRoleRequest{Role: model.RoleCityVendor})
		require.NoError(t, err)
		assert.Equal(t, model.RoleCityVendor, out.Role)

		var entry model.AuditLog
		require.NoError(t, f.db.Where("action = ?", model.ActionChangeUserRole).First(&entry).Error)
		assert.Equal(t, target.ID.String(), entry.EntityID)
		assert.Contains(t, entry.Details, model.RoleDriver)
		assert.Contains(t, entry.Details, model.RoleCityVendor)
	})

	t.Run("super vendor target is immutable", func(t *testing.T) {
		f := newFixture(t)
		svc := NewUserService(f.users, f.audit)

		super := seedUser(t, f, model.RoleSuperVendor, "")
		other := seedUser(t, f, model.RoleSuperVendor, "")

		_, err := svc.UpdateRole(ctx, ident(super), other.ID.String(), UpdateRoleRequest{Role: model.RoleDriver})
		assert.ErrorIs(t, err, ErrSuperRoleImmutable)
	})

	t.Run("super vendor cannot be granted", func(t *testing.T) {
		f := newFixture(t)
		svc := NewUserService(f.users, f.audit)

		super := seedUser(t, f, model.RoleSuperVendor, "")
		target := seedUser(t, f, model.RoleDriver, "northern")

		_, err := svc.UpdateRole(ctx, ident(super), target.ID.String(), UpdateRoleRequest{Role: model.RoleSuperVendor})
		assert.ErrorIs(t, err, ErrInvalidTargetRole)
	})
}

func TestUpdatePermissions(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := NewUserService(f.users, f.audit)

	target := seedUser(t, f, model.RoleRegionalVendor, "northern")
	target.CustomPermissions = model.StringList{"View Vehicles"}
	require.NoError(t, f.users.Update(ctx, target))

	// Overwrite is wholesale, not a merge.
	out, err := svc.UpdatePermissions(ctx, target.ID.String(), UpdatePermissionsRequest{
		CustomPermissions: []string{"Add Vehicles", "Assign Vehicles"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Add Vehicles", "Assign Vehicles"}, out.CustomPermissions)

	out, err = svc.UpdatePermissions(ctx, target.ID.String(), UpdatePermissionsRequest{
		CustomPermissions: []string{},
	})
	require.NoError(t, err)
	assert.Empty(t, out.CustomPermissions)

	_, err = svc.UpdatePermissions(ctx, "00000000-0000-0000-0000-000000000000", UpdatePermissionsRequest{
		CustomPermissions: []string{"View Vehicles"},
	})
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestListDriversInRegion(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := NewUserService(f.users, f.audit)

	a := seedUser(t, f, model.RoleDriver, "northern")
	b := seedUser(t, f, model.RoleDriver, "Northern")
	seedUser(t, f, model.RoleDriver, "southern")
	seedUser(t, f, model.RoleRegionalVendor, "northern")

	drivers, err := svc.ListDriversInRegion(ctx, "northern")
	require.NoError(t, err)
	require.Len(t, drivers, 2)

	ids := map[string]bool{drivers[0].ID: true, drivers[1].ID: true}
	assert.True(t, ids[a.ID.String()])
	assert.True(t, ids[b.ID.String()])
}

func TestListUsers(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := NewUserService(f.users, f.audit)

	for i := 0; i < 5; i++ {
		seedUser(t, f, model.RoleDriver, "northern")
	}

	page, total, err := svc.ListUsers(ctx, 0, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	assert.Len(t, page, 3)

	rest, _, err := svc.ListUsers(ctx, 3, 3)
	require.NoError(t, err)
	assert.Len(t, rest, 2)
}
