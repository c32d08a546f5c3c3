package service

import (
	"context"
	"testing"

	"fleet/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPermissionService(f *fixture) PermissionService {
	return NewPermissionService(f.perms, f.users, f.txMgr)
}

func TestCreatePermission(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := newPermissionService(f)

	perm, err := svc.Create(ctx, CreatePermissionRequest{
		PermissionName: "Add Vehicles",
		Description:    "Register new vehicles",
		Module:         "vehicles",
	})
	require.NoError(t, err)
	assert.Equal(t, "Add Vehicles", perm.PermissionName)

	_, err = svc.Create(ctx, CreatePermissionRequest{PermissionName: "Add Vehicles"})
	assert.ErrorIs(t, err, ErrDuplicatePermission)
}

func TestDeletePermission(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown name", func(t *testing.T) {
		f := newFixture(t)
		svc := newPermissionService(f)

		err := svc.Delete(ctx, "No Such Permission")
		assert.ErrorIs(t, err, ErrPermissionNotFound)
	})

	t.Run("refused while referenced by a user", func(t *testing.T) {
		f := newFixture(t)
		svc := newPermissionService(f)

		_, err := svc.Create(ctx, CreatePermissionRequest{PermissionName: "View Drivers"})
		require.NoError(t, err)

		holder := seedUser(t, f, model.RoleRegionalVendor, "northern")
		holder.CustomPermissions = model.StringList{"View Drivers"}
		require.NoError(t, f.users.Update(ctx, holder))

		err = svc.Delete(ctx, "View Drivers")
		assert.ErrorIs(t, err, ErrPermissionInUse)
	})

	t.Run("cascades role grants", func(t *testing.T) {
		f := newFixture(t)
		svc := newPermissionService(f)

		_, err := svc.Create(ctx, CreatePermissionRequest{PermissionName: "Assign Vehicles"})
		require.NoError(t, err)

		isGranted := true
		_, err = svc.GrantToRole(ctx, model.RoleRegionalVendor, GrantRequest{
			PermissionName: "Assign Vehicles",
			IsGranted:      &isGranted,
		})
		require.NoError(t, err)

		require.NoError(t, svc.Delete(ctx, "Assign Vehicles"))

		grants, err := f.perms.ListGrantsForRole(ctx, model.RoleRegionalVendor)
		require.NoError(t, err)
		assert.Empty(t, grants)
	})
}

func TestGrantToRole(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := newPermissionService(f)

	_, err := svc.Create(ctx, CreatePermissionRequest{PermissionName: "View Vehicles"})
	require.NoError(t, err)

	granted := true
	grant, err := svc.GrantToRole(ctx, model.RoleRegionalVendor, GrantRequest{
		PermissionName: "View Vehicles",
		IsGranted:      &granted,
	})
	require.NoError(t, err)
	assert.True(t, grant.IsGranted)

	// Upsert flips the existing row instead of duplicating it.
	revoked := false
	grant, err = svc.GrantToRole(ctx, model.RoleRegionalVendor, GrantRequest{
		PermissionName: "View Vehicles",
		IsGranted:      &revoked,
	})
	require.NoError(t, err)
	assert.False(t, grant.IsGranted)

	var count int64
	require.NoError(t, f.db.Model(&model.RolePermission{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	t.Run("rejects unknown role", func(t *testing.T) {
		_, err := svc.GrantToRole(ctx, "warehouse_gnome", GrantRequest{
			PermissionName: "View Vehicles",
			IsGranted:      &granted,
		})
		assert.Error(t, err)
	})

	t.Run("rejects unknown permission", func(t *testing.T) {
		_, err := svc.GrantToRole(ctx, model.RoleRegionalVendor, GrantRequest{
			PermissionName: "Not In Catalog",
			IsGranted:      &granted,
		})
		assert.ErrorIs(t, err, ErrPermissionNotFound)
	})
}

func TestListForRole(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := newPermissionService(f)

	_, err := svc.Create(ctx, CreatePermissionRequest{PermissionName: "Add Vehicles"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, CreatePermissionRequest{PermissionName: "View Vehicles"})
	require.NoError(t, err)

	granted := true
	_, err = svc.GrantToRole(ctx, model.RoleRegionalVendor, GrantRequest{
		PermissionName: "View Vehicles",
		IsGranted:      &granted,
	})
	require.NoError(t, err)

	views, err := svc.ListForRole(ctx, model.RoleRegionalVendor)
	require.NoError(t, err)
	require.Len(t, views, 2)

	byName := make(map[string]bool, len(views))
	for _, v := range views {
		byName[v.PermissionName] = v.IsGranted
	}
	assert.True(t, byName["View Vehicles"])
	assert.False(t, byName["Add Vehicles"])
}
