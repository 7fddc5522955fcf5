package history

import (
	"time"

	"github.com/j-veylop/usage-dashboard-tui/internal/models"
)

var dayNames = []string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

// snapshotSeries holds chart series extracted from snapshots, oldest first.
type snapshotSeries struct {
	Cost      []float64
	Requests  []float64
	Errors    []float64
	ErrorRate []float64
}

func seriesOf(snapshots []models.StatsSnapshot) snapshotSeries {
	s := snapshotSeries{
		Cost:      make([]float64, len(snapshots)),
		Requests:  make([]float64, len(snapshots)),
		Errors:    make([]float64, len(snapshots)),
		ErrorRate: make([]float64, len(snapshots)),
	}
	for i, snap := range snapshots {
		s.Cost[i] = snap.TotalCost
		s.Requests[i] = float64(snap.TotalRequests)
		s.Errors[i] = float64(snap.TotalErrors)
		s.ErrorRate[i] = snap.ErrorRate
	}
	return s
}

// costChange returns the percent change between the first and last snapshot,
// or nil when there is no baseline.
func costChange(snapshots []models.StatsSnapshot) *float64 {
	if len(snapshots) < 2 {
		return nil
	}
	first := snapshots[0].TotalCost
	last := snapshots[len(snapshots)-1].TotalCost
	if first == 0 {
		return nil
	}
	delta := (last - first) / first * 100
	return &delta
}

// weekdayTotals sums cost and requests per local weekday, Sunday first.
func weekdayTotals(records []models.UsageRecord, loc *time.Location) (cost, requests []float64) {
	cost = make([]float64, 7)
	requests = make([]float64, 7)
	for _, r := range records {
		day := r.Timestamp.In(loc).Weekday()
		cost[day] += r.Cost
		n := r.Requests
		if n <= 0 {
			n = 1
		}
		requests[day] += float64(n)
	}
	return cost, requests
}

// peakDay returns the busiest weekday name and its value, or "" when empty.
func peakDay(values []float64) (string, float64) {
	best, bestVal := -1, 0.0
	for i, v := range values {
		if v > bestVal {
			best, bestVal = i, v
		}
	}
	if best < 0 {
		return "", 0
	}
	return dayNames[best], bestVal
}
