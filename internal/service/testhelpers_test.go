package service

import (
	"fmt"
	"mime/multipart"
	"strings"
	"testing"

	"fleet/internal/database"
	"fleet/internal/model"
	"fleet/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens a per-test in-memory sqlite database with the full schema.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

// fakeStore records blob operations without touching disk.
type fakeStore struct {
	saves   int
	removed []string
}

func (f *fakeStore) Save(_ *gin.Context, ownerID string, _ *multipart.FileHeader) (string, error) {
	f.saves++
	return fmt.Sprintf("/uploads/%s-%d", ownerID, f.saves), nil
}

func (f *fakeStore) Remove(publicPath string) {
	f.removed = append(f.removed, publicPath)
}

type fixture struct {
	db       *gorm.DB
	users    repository.UserRepository
	vehicles repository.VehicleRepository
	docs     repository.DriverDocumentRepository
	perms    repository.PermissionRepository
	audit    repository.AuditRepository
	txMgr    repository.TransactionManager
	store    *fakeStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := newTestDB(t)
	return &fixture{
		db:       db,
		users:    repository.NewUserRepository(db),
		vehicles: repository.NewVehicleRepository(db),
		docs:     repository.NewDriverDocumentRepository(db),
		perms:    repository.NewPermissionRepository(db),
		audit:    repository.NewAuditRepository(db),
		txMgr:    repository.NewTransactionManager(db),
		store:    &fakeStore{},
	}
}

func (f *fixture) vehicleService() VehicleService {
	return NewVehicleService(f.vehicles, f.users, f.docs, f.audit, f.txMgr, f.store, nil)
}

func (f *fixture) documentService() DocumentService {
	return NewDocumentService(f.docs, f.users, f.audit, f.txMgr, f.store, nil)
}

func seedUser(t *testing.T, f *fixture, role, region string) *model.User {
	t.Helper()

	u := &model.User{
		Email:             uuid.NewString()[:8] + "@example.com",
		PasswordHash:      "x",
		FirstName:         "Test",
		LastName:          "Tester",
		Role:              role,
		Region:            region,
		CustomPermissions: model.StringList{},
	}
	require.NoError(t, f.db.Create(u).Error)
	return u
}

func seedVehicle(t *testing.T, f *fixture, region string, createdBy uuid.UUID) *model.Vehicle {
	t.Helper()

	v := &model.Vehicle{
		RegistrationNumber: "KA-" + uuid.NewString()[:8],
		Model:              "Test Hauler",
		SeatingCapacity:    4,
		FuelType:           model.FuelPetrol,
		Region:             region,
		RCFile:             "/uploads/rc",
		PermitFile:         "/uploads/permit",
		PollutionFile:      "/uploads/pollution",
		CreatedBy:          createdBy,
	}
	require.NoError(t, f.db.Create(v).Error)
	return v
}

func seedLicense(t *testing.T, f *fixture, userID uuid.UUID) *model.DriverDocument {
	t.Helper()

	doc := &model.DriverDocument{
		UserID:   userID,
		DocType:  model.DocTypeLicense,
		FilePath: "/uploads/" + userID.String() + "-license",
	}
	require.NoError(t, f.db.Create(doc).Error)
	return doc
}

func ident(u *model.User) model.Identity {
	return model.Identity{
		UserID:            u.ID,
		Role:              u.Role,
		Region:            u.Region,
		CustomPermissions: u.CustomPermissions,
	}
}
