package dashboard

import (
	"sort"
	"time"

	"github.com/j-veylop/usage-dashboard-tui/internal/format"
	"github.com/j-veylop/usage-dashboard-tui/internal/models"
)

// maxBuckets caps the number of points on the time charts.
const maxBuckets = 30

// bucketSize picks the chart resolution for a window.
func bucketSize(period models.Period) time.Duration {
	switch period {
	case models.Period24Hours:
		return time.Hour
	case models.Period90Days:
		return 3 * 24 * time.Hour
	default:
		return 24 * time.Hour
	}
}

// timeSeries holds per-bucket sums, oldest first.
type timeSeries struct {
	Cost         []float64
	InputTokens  []float64
	OutputTokens []float64
}

// bucketRecords sums records into fixed-width buckets ending at now. Records
// outside the window are dropped.
func bucketRecords(records []models.UsageRecord, period models.Period, now time.Time) timeSeries {
	size := bucketSize(period)
	window := period.Duration()
	if window <= 0 {
		window = models.DefaultPeriod.Duration()
	}
	n := min(int(window/size), maxBuckets)
	if n <= 0 {
		n = 1
	}
	start := now.Add(-time.Duration(n) * size)

	ts := timeSeries{
		Cost:         make([]float64, n),
		InputTokens:  make([]float64, n),
		OutputTokens: make([]float64, n),
	}
	for _, r := range records {
		if r.Timestamp.Before(start) || r.Timestamp.After(now) {
			continue
		}
		i := min(int(r.Timestamp.Sub(start)/size), n-1)
		ts.Cost[i] += r.Cost
		ts.InputTokens[i] += float64(r.InputTokens)
		ts.OutputTokens[i] += float64(r.OutputTokens)
	}
	return ts
}

// modelCost is one row of the per-model breakdown.
type modelCost struct {
	Model    string
	Cost     float64
	Tokens   int64
	Requests int64
	Share    float64
}

// costByModel groups records by model, most expensive first.
func costByModel(records []models.UsageRecord) []modelCost {
	byModel := make(map[string]*modelCost)
	for _, r := range records {
		name := r.ModelName
		if name == "" {
			name = "unknown"
		}
		mc, ok := byModel[name]
		if !ok {
			mc = &modelCost{Model: name}
			byModel[name] = mc
		}
		mc.Cost += r.Cost
		mc.Tokens += r.TotalTokens
		mc.Requests += requestCount(r)
	}

	total, _ := format.TotalCost(records).Float64()
	out := make([]modelCost, 0, len(byModel))
	for _, mc := range byModel {
		if total > 0 {
			mc.Share = mc.Cost / total * 100
		}
		out = append(out, *mc)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Cost != out[j].Cost {
			return out[i].Cost > out[j].Cost
		}
		return out[i].Model < out[j].Model
	})
	return out
}

// hourlyRequests counts requests per local hour of day.
func hourlyRequests(records []models.UsageRecord, loc *time.Location) []float64 {
	hours := make([]float64, 24)
	for _, r := range records {
		hours[r.Timestamp.In(loc).Hour()] += float64(requestCount(r))
	}
	return hours
}

// requestCount treats rows without an explicit count as one request.
func requestCount(r models.UsageRecord) int64 {
	if r.Requests > 0 {
		return r.Requests
	}
	return 1
}

// recentRecords returns up to n records, newest first.
func recentRecords(records []models.UsageRecord, n int) []models.UsageRecord {
	out := make([]models.UsageRecord, len(records))
	copy(out, records)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}
