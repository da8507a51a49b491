package config

import (
	_ "embed"
	"fmt"

	"github.com/kendall-kelly/repair-shop-api/models"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

//go:embed device_types.yaml
var deviceTypesYAML []byte

type deviceTypeSeed struct {
	Category string   `yaml:"category"`
	Names    []string `yaml:"names"`
}

// DeviceTypeSeeds parses the embedded device type catalogue
func DeviceTypeSeeds() ([]models.DeviceType, error) {
	var seeds []deviceTypeSeed
	if err := yaml.Unmarshal(deviceTypesYAML, &seeds); err != nil {
		return nil, fmt.Errorf("failed to parse device types: %w", err)
	}

	var deviceTypes []models.DeviceType
	for _, seed := range seeds {
		for _, name := range seed.Names {
			deviceTypes = append(deviceTypes, models.DeviceType{
				Name:     name,
				Category: seed.Category,
			})
		}
	}
	return deviceTypes, nil
}

// SeedDeviceTypes inserts the catalogue when the device_types table is empty.
// It returns the number of rows inserted.
func SeedDeviceTypes(db *gorm.DB) (int, error) {
	var count int64
	if err := db.Model(&models.DeviceType{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count device types: %w", err)
	}
	if count > 0 {
		return 0, nil
	}

	deviceTypes, err := DeviceTypeSeeds()
	if err != nil {
		return 0, err
	}
	if err := db.Create(&deviceTypes).Error; err != nil {
		return 0, fmt.Errorf("failed to seed device types: %w", err)
	}
	return len(deviceTypes), nil
}
