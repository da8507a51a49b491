package config

import (
	"testing"

	"github.com/kendall-kelly/repair-shop-api/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestDeviceTypeSeeds(t *testing.T) {
	seeds, err := DeviceTypeSeeds()
	require.NoError(t, err)
	require.NotEmpty(t, seeds)

	names := make(map[string]bool)
	for _, seed := range seeds {
		assert.NotEmpty(t, seed.Category, seed.Name)
		assert.False(t, names[seed.Name], "duplicate device type %s", seed.Name)
		names[seed.Name] = true
	}
	assert.True(t, names["Smartphone"])
	assert.True(t, names["Laptop"])
}

func TestSeedDeviceTypes(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, Migrate(db))

	seeds, err := DeviceTypeSeeds()
	require.NoError(t, err)

	inserted, err := SeedDeviceTypes(db)
	require.NoError(t, err)
	assert.Equal(t, len(seeds), inserted)

	// A populated table is left alone
	inserted, err = SeedDeviceTypes(db)
	require.NoError(t, err)
	assert.Zero(t, inserted)

	var count int64
	require.NoError(t, db.Model(&models.DeviceType{}).Count(&count).Error)
	assert.Equal(t, int64(len(seeds)), count)
}
