package service

import (
	"context"
	"testing"

	"fleet/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReplaceLicense(t *testing.T) {
	ctx := context.Background()

	t.Run("first upload creates the record", func(t *testing.T) {
		f := newFixture(t)
		svc := f.documentService()
		driver := seedUser(t, f, model.RoleDriver, "northern")

		doc, err := svc.Replace(ctx, ident(driver), "/uploads/first.pdf")
		require.NoError(t, err)
		assert.Equal(t, "/uploads/first.pdf", doc.FilePath)
		assert.Equal(t, model.DocTypeLicense, doc.DocType)
		assert.Nil(t, doc.VehicleID)
		assert.Empty(t, f.store.removed)
	})

	t.Run("re-upload keeps exactly one record and drops the old blob", func(t *testing.T) {
		f := newFixture(t)
		svc := f.documentService()
		driver := seedUser(t, f, model.RoleDriver, "northern")

		_, err := svc.Replace(ctx, ident(driver), "/uploads/first.pdf")
		require.NoError(t, err)
		_, err = svc.Replace(ctx, ident(driver), "/uploads/second.pdf")
		require.NoError(t, err)

		var count int64
		require.NoError(t, f.db.Model(&model.DriverDocument{}).
			Where("user_id = ?", driver.ID).Count(&count).Error)
		assert.Equal(t, int64(1), count)

		doc, err := svc.Get(ctx, driver.ID)
		require.NoError(t, err)
		assert.Equal(t, "/uploads/second.pdf", doc.FilePath)
		assert.Equal(t, []string{"/uploads/first.pdf"}, f.store.removed)
	})

	t.Run("re-upload does not carry over the vehicle mirror", func(t *testing.T) {
		f := newFixture(t)
		docs := f.documentService()
		vehicles := f.vehicleService()

		vendor := seedUser(t, f, model.RoleRegionalVendor, "northern")
		driver := seedUser(t, f, model.RoleDriver, "northern")
		v := seedVehicle(t, f, "northern", vendor.ID)

		_, err := docs.Replace(ctx, ident(driver), "/uploads/first.pdf")
		require.NoError(t, err)
		_, err = vehicles.AssignDriver(ctx, ident(vendor), v.ID.String(), driver.ID.String())
		require.NoError(t, err)

		doc, err := docs.Replace(ctx, ident(driver), "/uploads/second.pdf")
		require.NoError(t, err)
		assert.Nil(t, doc.VehicleID)
	})
}

func TestGetLicense(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := f.documentService()
	driver := seedUser(t, f, model.RoleDriver, "northern")

	_, err := svc.Get(ctx, driver.ID)
	assert.ErrorIs(t, err, ErrDocumentNotFound)
}

func TestRegionRoster(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := f.documentService()

	withDoc := seedUser(t, f, model.RoleDriver, "northern")
	withoutDoc := seedUser(t, f, model.RoleDriver, "Northern")
	seedUser(t, f, model.RoleDriver, "southern")
	seedLicense(t, f, withDoc.ID)

	roster, err := svc.RegionRoster(ctx, "northern")
	require.NoError(t, err)
	require.Len(t, roster, 2)

	byID := make(map[string]RegionDriverDoc, len(roster))
	for _, row := range roster {
		byID[row.UserID] = row
	}
	require.NotNil(t, byID[withDoc.ID.String()].Document)
	assert.Nil(t, byID[withoutDoc.ID.String()].Document)
}
