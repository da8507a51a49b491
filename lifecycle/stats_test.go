package lifecycle

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/kendall-kelly/repair-shop-api/models"
	"github.com/stretchr/testify/assert"
)

func TestComputeStatsEmpty(t *testing.T) {
	assert.Equal(t, Stats{}, ComputeStats(nil))
	assert.Equal(t, Stats{}, ComputeStats([]models.RepairRequest{}))
}

func TestComputeStats(t *testing.T) {
	requests := []models.RepairRequest{
		{Status: models.StatusSubmitted},
		{Status: models.StatusAssigned},
		{Status: models.StatusDiagnosing},
		{Status: models.StatusRepairing},
		{Status: models.StatusWaitingApproval, EstimatedCost: floatPtr(100.10)},
		{Status: models.StatusReadyPickup, EstimatedCost: floatPtr(90), FinalCost: floatPtr(120.20)},
		{Status: models.StatusCompleted, FinalCost: floatPtr(50)},
		{Status: models.StatusCancelled},
	}

	want := Stats{
		Pending:        2,
		InProgress:     2,
		Completed:      1,
		ActiveRequests: 6,
		TotalRevenue:   270.30,
		CompletionRate: 0.125,
	}
	if diff := cmp.Diff(want, ComputeStats(requests)); diff != "" {
		t.Errorf("ComputeStats() mismatch (-want +got):\n%s", diff)
	}
}

func TestComputeAnalytics(t *testing.T) {
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	phone := models.DeviceType{Name: "Smartphone"}
	laptop := models.DeviceType{Name: "Laptop"}

	requests := []models.RepairRequest{
		{Status: models.StatusCompleted, DeviceType: phone, CreatedAt: start, UpdatedAt: start.Add(24 * time.Hour), FinalCost: floatPtr(80)},
		{Status: models.StatusCompleted, DeviceType: laptop, CreatedAt: start, UpdatedAt: start.Add(48 * time.Hour), FinalCost: floatPtr(200)},
		{Status: models.StatusRepairing, DeviceType: phone},
		{Status: models.StatusSubmitted},
	}
	reviews := []models.Review{{Rating: 5}, {Rating: 4}, {Rating: 4}}

	analytics := ComputeAnalytics(requests, reviews)

	assert.Equal(t, 4, analytics.TotalRequests)
	assert.Equal(t, 2, analytics.Completed)
	assert.Equal(t, 280.0, analytics.TotalRevenue)
	assert.Equal(t, 36.0, analytics.AverageResolutionHours)
	assert.Equal(t, 4.33, analytics.AverageRating)
	assert.Equal(t, map[models.RepairStatus]int{
		models.StatusCompleted: 2,
		models.StatusRepairing: 1,
		models.StatusSubmitted: 1,
	}, analytics.StatusDistribution)
	assert.Equal(t, []DeviceCount{
		{Device: "Smartphone", Count: 2},
		{Device: "Laptop", Count: 1},
		{Device: "Unknown", Count: 1},
	}, analytics.TopDeviceTypes)
}

func TestComputeAnalyticsLimitsDeviceTypes(t *testing.T) {
	var requests []models.RepairRequest
	for _, name := range []string{"A", "B", "C", "D", "E", "F", "G"} {
		requests = append(requests, models.RepairRequest{Status: models.StatusSubmitted, DeviceType: models.DeviceType{Name: name}})
	}

	analytics := ComputeAnalytics(requests, nil)

	assert.Len(t, analytics.TopDeviceTypes, 5)
	assert.Equal(t, "A", analytics.TopDeviceTypes[0].Device)
	assert.Zero(t, analytics.AverageRating)
	assert.Zero(t, analytics.AverageResolutionHours)
}
