package service

import (
	"context"
	"testing"

	"fleet/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssignDriver(t *testing.T) {
	ctx := context.Background()

	t.Run("assigns vehicle and mirrors onto document", func(t *testing.T) {
		f := newFixture(t)
		svc := f.vehicleService()

		vendor := seedUser(t, f, model.RoleRegionalVendor, "northern")
		driver := seedUser(t, f, model.RoleDriver, "northern")
		seedLicense(t, f, driver.ID)
		v := seedVehicle(t, f, "northern", vendor.ID)

		out, err := svc.AssignDriver(ctx, ident(vendor), v.ID.String(), driver.ID.String())
		require.NoError(t, err)
		assert.True(t, out.Assigned)
		require.NotNil(t, out.DriverID)
		assert.Equal(t, driver.ID, *out.DriverID)

		doc, err := f.docs.GetByUserID(ctx, driver.ID)
		require.NoError(t, err)
		require.NotNil(t, doc.VehicleID)
		assert.Equal(t, v.ID, *doc.VehicleID)

		var auditCount int64
		require.NoError(t, f.db.Model(&model.AuditLog{}).
			Where("action = ?", model.ActionAssignVehicle).Count(&auditCount).Error)
		assert.Equal(t, int64(1), auditCount)
	})

	t.Run("rejects a second assignment", func(t *testing.T) {
		f := newFixture(t)
		svc := f.vehicleService()

		vendor := seedUser(t, f, model.RoleRegionalVendor, "northern")
		first := seedUser(t, f, model.RoleDriver, "northern")
		second := seedUser(t, f, model.RoleDriver, "northern")
		seedLicense(t, f, first.ID)
		seedLicense(t, f, second.ID)
		v := seedVehicle(t, f, "northern", vendor.ID)

		_, err := svc.AssignDriver(ctx, ident(vendor), v.ID.String(), first.ID.String())
		require.NoError(t, err)

		_, err = svc.AssignDriver(ctx, ident(vendor), v.ID.String(), second.ID.String())
		assert.ErrorIs(t, err, ErrAlreadyAssigned)

		// The loser must not have disturbed the winner's state.
		doc, err := f.docs.GetByUserID(ctx, first.ID)
		require.NoError(t, err)
		require.NotNil(t, doc.VehicleID)
		assert.Equal(t, v.ID, *doc.VehicleID)
	})

	t.Run("rejects region mismatch", func(t *testing.T) {
		f := newFixture(t)
		svc := f.vehicleService()

		vendor := seedUser(t, f, model.RoleRegionalVendor, "northern")
		driver := seedUser(t, f, model.RoleDriver, "southern")
		seedLicense(t, f, driver.ID)
		v := seedVehicle(t, f, "northern", vendor.ID)

		_, err := svc.AssignDriver(ctx, ident(vendor), v.ID.String(), driver.ID.String())
		assert.ErrorIs(t, err, ErrRegionMismatch)
	})

	t.Run("rejects driver without license", func(t *testing.T) {
		f := newFixture(t)
		svc := f.vehicleService()

		vendor := seedUser(t, f, model.RoleRegionalVendor, "northern")
		driver := seedUser(t, f, model.RoleDriver, "northern")
		v := seedVehicle(t, f, "northern", vendor.ID)

		_, err := svc.AssignDriver(ctx, ident(vendor), v.ID.String(), driver.ID.String())
		assert.ErrorIs(t, err, ErrMissingLicense)

		reloaded, err := f.vehicles.GetByID(ctx, v.ID)
		require.NoError(t, err)
		assert.False(t, reloaded.Assigned)
		assert.Nil(t, reloaded.DriverID)
	})

	t.Run("rejects non-driver target", func(t *testing.T) {
		f := newFixture(t)
		svc := f.vehicleService()

		vendor := seedUser(t, f, model.RoleRegionalVendor, "northern")
		other := seedUser(t, f, model.RoleCityVendor, "northern")
		v := seedVehicle(t, f, "northern", vendor.ID)

		_, err := svc.AssignDriver(ctx, ident(vendor), v.ID.String(), other.ID.String())
		assert.ErrorIs(t, err, ErrInvalidDriver)
	})

	t.Run("regional vendor cannot assign outside their region", func(t *testing.T) {
		f := newFixture(t)
		svc := f.vehicleService()

		vendor := seedUser(t, f, model.RoleRegionalVendor, "southern")
		owner := seedUser(t, f, model.RoleRegionalVendor, "northern")
		driver := seedUser(t, f, model.RoleDriver, "northern")
		seedLicense(t, f, driver.ID)
		v := seedVehicle(t, f, "northern", owner.ID)

		_, err := svc.AssignDriver(ctx, ident(vendor), v.ID.String(), driver.ID.String())
		assert.ErrorIs(t, err, ErrOutsideRegion)
	})

	t.Run("super vendor assigns across regions", func(t *testing.T) {
		f := newFixture(t)
		svc := f.vehicleService()

		super := seedUser(t, f, model.RoleSuperVendor, "")
		owner := seedUser(t, f, model.RoleRegionalVendor, "northern")
		driver := seedUser(t, f, model.RoleDriver, "northern")
		seedLicense(t, f, driver.ID)
		v := seedVehicle(t, f, "northern", owner.ID)

		out, err := svc.AssignDriver(ctx, ident(super), v.ID.String(), driver.ID.String())
		require.NoError(t, err)
		assert.True(t, out.Assigned)
	})

	t.Run("unknown ids map to not found", func(t *testing.T) {
		f := newFixture(t)
		svc := f.vehicleService()

		vendor := seedUser(t, f, model.RoleRegionalVendor, "northern")
		v := seedVehicle(t, f, "northern", vendor.ID)

		_, err := svc.AssignDriver(ctx, ident(vendor), uuid.NewString(), uuid.NewString())
		assert.ErrorIs(t, err, ErrVehicleNotFound)

		_, err = svc.AssignDriver(ctx, ident(vendor), v.ID.String(), uuid.NewString())
		assert.ErrorIs(t, err, ErrDriverNotFound)
	})
}

func TestUnassignDriver(t *testing.T) {
	ctx := context.Background()

	t.Run("clears vehicle and document together", func(t *testing.T) {
		f := newFixture(t)
		svc := f.vehicleService()

		vendor := seedUser(t, f, model.RoleRegionalVendor, "northern")
		driver := seedUser(t, f, model.RoleDriver, "northern")
		seedLicense(t, f, driver.ID)
		v := seedVehicle(t, f, "northern", vendor.ID)

		_, err := svc.AssignDriver(ctx, ident(vendor), v.ID.String(), driver.ID.String())
		require.NoError(t, err)

		require.NoError(t, svc.UnassignDriver(ctx, ident(vendor), v.ID.String()))

		reloaded, err := f.vehicles.GetByID(ctx, v.ID)
		require.NoError(t, err)
		assert.False(t, reloaded.Assigned)
		assert.Nil(t, reloaded.DriverID)

		doc, err := f.docs.GetByUserID(ctx, driver.ID)
		require.NoError(t, err)
		assert.Nil(t, doc.VehicleID)
	})

	t.Run("rejects unassigning an unassigned vehicle", func(t *testing.T) {
		f := newFixture(t)
		svc := f.vehicleService()

		vendor := seedUser(t, f, model.RoleRegionalVendor, "northern")
		v := seedVehicle(t, f, "northern", vendor.ID)

		err := svc.UnassignDriver(ctx, ident(vendor), v.ID.String())
		assert.ErrorIs(t, err, ErrNotAssigned)
	})
}

func TestDeleteVehicle(t *testing.T) {
	ctx := context.Background()

	t.Run("refuses while assigned", func(t *testing.T) {
		f := newFixture(t)
		svc := f.vehicleService()

		vendor := seedUser(t, f, model.RoleRegionalVendor, "northern")
		driver := seedUser(t, f, model.RoleDriver, "northern")
		seedLicense(t, f, driver.ID)
		v := seedVehicle(t, f, "northern", vendor.ID)

		_, err := svc.AssignDriver(ctx, ident(vendor), v.ID.String(), driver.ID.String())
		require.NoError(t, err)

		err = svc.Delete(ctx, ident(vendor), v.ID.String())
		assert.ErrorIs(t, err, ErrVehicleInUse)
	})

	t.Run("deletes unassigned vehicle and drops blobs", func(t *testing.T) {
		f := newFixture(t)
		svc := f.vehicleService()

		vendor := seedUser(t, f, model.RoleRegionalVendor, "northern")
		v := seedVehicle(t, f, "northern", vendor.ID)

		require.NoError(t, svc.Delete(ctx, ident(vendor), v.ID.String()))

		_, err := f.vehicles.GetByID(ctx, v.ID)
		assert.Error(t, err)
		assert.Len(t, f.store.removed, 3)
	})

	t.Run("regional vendor cannot delete a foreign vehicle", func(t *testing.T) {
		f := newFixture(t)
		svc := f.vehicleService()

		vendor := seedUser(t, f, model.RoleRegionalVendor, "southern")
		owner := seedUser(t, f, model.RoleRegionalVendor, "northern")
		v := seedVehicle(t, f, "northern", owner.ID)

		err := svc.Delete(ctx, ident(vendor), v.ID.String())
		assert.ErrorIs(t, err, ErrOutsideRegion)
	})

	t.Run("creator may delete outside their region", func(t *testing.T) {
		f := newFixture(t)
		svc := f.vehicleService()

		vendor := seedUser(t, f, model.RoleRegionalVendor, "southern")
		v := seedVehicle(t, f, "northern", vendor.ID)

		require.NoError(t, svc.Delete(ctx, ident(vendor), v.ID.String()))
	})
}

func TestCreateVehicle(t *testing.T) {
	ctx := context.Background()

	base := func(region string) CreateVehicleRequest {
		return CreateVehicleRequest{
			RegistrationNumber: "KA-" + uuid.NewString()[:8],
			Model:              "Test Hauler",
			SeatingCapacity:    4,
			FuelType:           "Petrol",
			Region:             region,
			RCFile:             "/uploads/rc",
			PermitFile:         "/uploads/permit",
			PollutionFile:      "/uploads/pollution",
		}
	}

	t.Run("normalizes fuel type", func(t *testing.T) {
		f := newFixture(t)
		svc := f.vehicleService()
		vendor := seedUser(t, f, model.RoleRegionalVendor, "northern")

		v, err := svc.Create(ctx, ident(vendor), base("northern"))
		require.NoError(t, err)
		assert.Equal(t, model.FuelPetrol, v.FuelType)
		assert.Equal(t, vendor.ID, v.CreatedBy)
		assert.False(t, v.Assigned)
	})

	t.Run("rejects unknown fuel type", func(t *testing.T) {
		f := newFixture(t)
		svc := f.vehicleService()
		vendor := seedUser(t, f, model.RoleRegionalVendor, "northern")

		req := base("northern")
		req.FuelType = "steam"
		_, err := svc.Create(ctx, ident(vendor), req)
		assert.ErrorIs(t, err, ErrInvalidFuelType)
	})

	t.Run("rejects missing region", func(t *testing.T) {
		f := newFixture(t)
		svc := f.vehicleService()
		vendor := seedUser(t, f, model.RoleRegionalVendor, "northern")

		_, err := svc.Create(ctx, ident(vendor), base("  "))
		assert.ErrorIs(t, err, ErrRegionRequired)
	})

	t.Run("rejects registering into a foreign region", func(t *testing.T) {
		f := newFixture(t)
		svc := f.vehicleService()
		vendor := seedUser(t, f, model.RoleRegionalVendor, "southern")

		_, err := svc.Create(ctx, ident(vendor), base("northern"))
		assert.ErrorIs(t, err, ErrOutsideRegion)
	})

	t.Run("rejects duplicate registration number", func(t *testing.T) {
		f := newFixture(t)
		svc := f.vehicleService()
		vendor := seedUser(t, f, model.RoleRegionalVendor, "northern")

		req := base("northern")
		_, err := svc.Create(ctx, ident(vendor), req)
		require.NoError(t, err)

		_, err = svc.Create(ctx, ident(vendor), req)
		assert.ErrorIs(t, err, ErrDuplicateVehicle)
	})
}

func TestListVehicles(t *testing.T) {
	ctx := context.Background()

	f := newFixture(t)
	svc := f.vehicleService()

	super := seedUser(t, f, model.RoleSuperVendor, "")
	northern := seedUser(t, f, model.RoleRegionalVendor, "northern")
	southern := seedUser(t, f, model.RoleRegionalVendor, "southern")
	floating := seedUser(t, f, model.RoleCityVendor, "")

	inNorth := seedVehicle(t, f, "northern", southern.ID)
	inSouth := seedVehicle(t, f, "southern", southern.ID)
	northernsOwn := seedVehicle(t, f, "western", northern.ID)
	floatersOwn := seedVehicle(t, f, "eastern", floating.ID)

	t.Run("super vendor sees everything", func(t *testing.T) {
		all, err := svc.List(ctx, ident(super))
		require.NoError(t, err)
		assert.Len(t, all, 4)
	})

	t.Run("regional vendor sees region union own creations", func(t *testing.T) {
		got, err := svc.List(ctx, ident(northern))
		require.NoError(t, err)

		ids := make(map[uuid.UUID]bool, len(got))
		for _, v := range got {
			ids[v.ID] = true
		}
		assert.True(t, ids[inNorth.ID])
		assert.True(t, ids[northernsOwn.ID])
		assert.False(t, ids[inSouth.ID])
		assert.False(t, ids[floatersOwn.ID])
	})

	t.Run("vendor without region sees only own creations", func(t *testing.T) {
		got, err := svc.List(ctx, ident(floating))
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, floatersOwn.ID, got[0].ID)
	})
}

// TestAssignmentLifecycle walks the full flow: register a vehicle, upload a
// license, assign, unassign, delete.
func TestAssignmentLifecycle(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	vehicles := f.vehicleService()
	docs := f.documentService()

	vendor := seedUser(t, f, model.RoleRegionalVendor, "central")
	driver := seedUser(t, f, model.RoleDriver, "central")

	v, err := vehicles.Create(ctx, ident(vendor), CreateVehicleRequest{
		RegistrationNumber: "MH-01-1234",
		Model:              "Transit Van",
		SeatingCapacity:    8,
		FuelType:           "diesel",
		Region:             "central",
		RCFile:             "/uploads/rc",
		PermitFile:         "/uploads/permit",
		PollutionFile:      "/uploads/pollution",
	})
	require.NoError(t, err)

	// Assigning before the license upload must fail.
	_, err = vehicles.AssignDriver(ctx, ident(vendor), v.ID.String(), driver.ID.String())
	require.ErrorIs(t, err, ErrMissingLicense)

	_, err = docs.Replace(ctx, ident(driver), "/uploads/"+driver.ID.String()+"-license")
	require.NoError(t, err)

	assigned, err := vehicles.AssignDriver(ctx, ident(vendor), v.ID.String(), driver.ID.String())
	require.NoError(t, err)
	require.NotNil(t, assigned.DriverID)

	mine, err := vehicles.ListAssignedTo(ctx, driver.ID)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, v.ID, mine[0].ID)

	require.NoError(t, vehicles.UnassignDriver(ctx, ident(vendor), v.ID.String()))
	require.NoError(t, vehicles.Delete(ctx, ident(vendor), v.ID.String()))

	doc, err := f.docs.GetByUserID(ctx, driver.ID)
	require.NoError(t, err)
	assert.Nil(t, doc.VehicleID)
}
