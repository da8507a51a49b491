package lifecycle

import (
	"math"
	"sort"

	"github.com/kendall-kelly/repair-shop-api/models"
	"github.com/samber/lo"
)

// Stats are the dashboard counters for a list of repair requests
type Stats struct {
	Pending        int     `json:"pending"`
	InProgress     int     `json:"inProgress"`
	Completed      int     `json:"completed"`
	ActiveRequests int     `json:"activeRequests"`
	TotalRevenue   float64 `json:"totalRevenue"`
	CompletionRate float64 `json:"completionRate"`
}

// DeviceCount is the number of requests for one device type
type DeviceCount struct {
	Device string `json:"device"`
	Count  int    `json:"count"`
}

// Analytics is the admin reporting view
type Analytics struct {
	Stats
	TotalRequests          int                         `json:"totalRequests"`
	StatusDistribution     map[models.RepairStatus]int `json:"statusDistribution"`
	TopDeviceTypes         []DeviceCount               `json:"topDeviceTypes"`
	AverageResolutionHours float64                     `json:"averageResolutionHours"`
	AverageRating          float64                     `json:"averageRating"`
}

const topDeviceTypesLimit = 5

// ComputeStats derives the dashboard counters.
// Revenue is final_cost, falling back to estimated_cost, summed over every
// request that has either.
func ComputeStats(requests []models.RepairRequest) Stats {
	total := len(requests)
	if total == 0 {
		return Stats{}
	}

	completed := countStatus(requests, models.StatusCompleted)
	closed := completed + countStatus(requests, models.StatusCancelled)

	revenue := lo.SumBy(requests, func(r models.RepairRequest) float64 {
		amount, _ := r.Revenue()
		return amount
	})

	return Stats{
		Pending:        countStatus(requests, models.StatusSubmitted, models.StatusAssigned),
		InProgress:     countStatus(requests, models.StatusDiagnosing, models.StatusRepairing),
		Completed:      completed,
		ActiveRequests: total - closed,
		TotalRevenue:   roundCents(revenue),
		CompletionRate: float64(completed) / float64(total),
	}
}

// ComputeAnalytics extends ComputeStats with the breakdowns of the admin reports.
// Requests are expected to have DeviceType loaded.
func ComputeAnalytics(requests []models.RepairRequest, reviews []models.Review) Analytics {
	analytics := Analytics{
		Stats:              ComputeStats(requests),
		TotalRequests:      len(requests),
		StatusDistribution: make(map[models.RepairStatus]int),
		TopDeviceTypes:     []DeviceCount{},
	}

	for _, request := range requests {
		analytics.StatusDistribution[request.Status]++
	}

	byDevice := lo.CountValuesBy(requests, func(r models.RepairRequest) string {
		if r.DeviceType.Name == "" {
			return "Unknown"
		}
		return r.DeviceType.Name
	})
	for device, count := range byDevice {
		analytics.TopDeviceTypes = append(analytics.TopDeviceTypes, DeviceCount{Device: device, Count: count})
	}
	sort.Slice(analytics.TopDeviceTypes, func(i, j int) bool {
		a, b := analytics.TopDeviceTypes[i], analytics.TopDeviceTypes[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.Device < b.Device
	})
	if len(analytics.TopDeviceTypes) > topDeviceTypesLimit {
		analytics.TopDeviceTypes = analytics.TopDeviceTypes[:topDeviceTypesLimit]
	}

	finished := lo.Filter(requests, func(r models.RepairRequest, _ int) bool {
		return r.Status == models.StatusCompleted
	})
	if len(finished) > 0 {
		hours := lo.SumBy(finished, func(r models.RepairRequest) float64 {
			return r.UpdatedAt.Sub(r.CreatedAt).Hours()
		})
		analytics.AverageResolutionHours = math.Round(hours/float64(len(finished))*10) / 10
	}

	if len(reviews) > 0 {
		ratings := lo.SumBy(reviews, func(r models.Review) int { return r.Rating })
		analytics.AverageRating = math.Round(float64(ratings)/float64(len(reviews))*100) / 100
	}

	return analytics
}

func countStatus(requests []models.RepairRequest, statuses ...models.RepairStatus) int {
	return lo.CountBy(requests, func(r models.RepairRequest) bool {
		return lo.Contains(statuses, r.Status)
	})
}

func roundCents(amount float64) float64 {
	return math.Round(amount*100) / 100
}
