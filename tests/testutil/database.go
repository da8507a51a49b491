package testutil

import (
	"testing"

	"github.com/kendall-kelly/repair-shop-api/config"
	"github.com/kendall-kelly/repair-shop-api/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewTestDB opens a migrated in-memory SQLite database.
// The pool is pinned to one connection so every query sees the same memory database.
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("Failed to get test database handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := config.Migrate(db); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}
	return db
}

// CreateProfile inserts a profile with the given role. The name doubles as
// the Auth0 subject suffix and email local part.
func CreateProfile(t *testing.T, db *gorm.DB, name string, role models.Role) models.Profile {
	t.Helper()

	profile := models.Profile{
		Auth0ID:  "auth0|" + name,
		FullName: name,
		Email:    name + "@example.com",
		Role:     role,
	}
	if err := db.Create(&profile).Error; err != nil {
		t.Fatalf("Failed to create profile %s: %v", name, err)
	}
	return profile
}

// CreateDeviceType inserts a device type
func CreateDeviceType(t *testing.T, db *gorm.DB, name, category string) models.DeviceType {
	t.Helper()

	deviceType := models.DeviceType{Name: name, Category: category}
	if err := db.Create(&deviceType).Error; err != nil {
		t.Fatalf("Failed to create device type %s: %v", name, err)
	}
	return deviceType
}

// CreateRepairRequest inserts a request directly in the given status, bypassing
// the lifecycle. Costs are filled in so the row satisfies the data invariants.
func CreateRepairRequest(t *testing.T, db *gorm.DB, customer models.Profile, deviceType models.DeviceType, status models.RepairStatus, technician *models.Profile) models.RepairRequest {
	t.Helper()

	request := models.RepairRequest{
		CustomerID:         customer.ID,
		DeviceTypeID:       deviceType.ID,
		DeviceBrand:        "Apple",
		ProblemDescription: "Screen does not turn on",
		Status:             status,
	}
	if technician != nil {
		request.TechnicianID = &technician.ID
	}
	switch status {
	case models.StatusWaitingApproval, models.StatusRepairing:
		estimate := 100.0
		request.EstimatedCost = &estimate
	case models.StatusReadyPickup, models.StatusCompleted:
		estimate, final := 100.0, 120.0
		request.EstimatedCost = &estimate
		request.FinalCost = &final
	}

	if err := db.Omit("Customer", "Technician", "DeviceType").Create(&request).Error; err != nil {
		t.Fatalf("Failed to create repair request: %v", err)
	}
	return request
}
