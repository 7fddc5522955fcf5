package format

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/j-veylop/usage-dashboard-tui/internal/models"
)

func TestCurrency(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "$0.00"},
		{1234.5, "$1,234.50"},
		{1234567.891, "$1,234,567.89"},
		{0.0042, "$0.0042"},
		{-12.3, "-$12.30"},
		{999.999, "$1,000.00"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, Currency(tt.in))
		})
	}
}

func TestNumber(t *testing.T) {
	assert.Equal(t, "0", Number(0))
	assert.Equal(t, "999", Number(999))
	assert.Equal(t, "1,000", Number(1000))
	assert.Equal(t, "12,345,678", Number(12345678))
	assert.Equal(t, "-1,234", Number(-1234))
}

func TestCompact(t *testing.T) {
	assert.Equal(t, "512", Compact(512))
	assert.Equal(t, "1.5K", Compact(1500))
	assert.Equal(t, "2.3M", Compact(2_300_000))
	assert.Equal(t, "4.0B", Compact(4_000_000_000))
}

func TestTrend(t *testing.T) {
	up, down, flat := 12.34, -4.0, 0.0
	assert.Equal(t, "+12.3%", Trend(&up))
	assert.Equal(t, "-4.0%", Trend(&down))
	assert.Equal(t, "0.0%", Trend(&flat))
	assert.Equal(t, "", Trend(nil))
}

func TestPercent(t *testing.T) {
	assert.Equal(t, "2.5%", Percent(2.5))
}

func TestTotalCost(t *testing.T) {
	records := []models.UsageRecord{{Cost: 0.1}, {Cost: 0.2}, {Cost: 0.3}}
	assert.Equal(t, "0.6", TotalCost(records).String())
	assert.Equal(t, "0.2", AverageCost(records).String())
	assert.True(t, AverageCost(nil).IsZero())
}

func TestAgo(t *testing.T) {
	tests := []struct {
		want string
		d    time.Duration
	}{
		{"just now", 2 * time.Second},
		{"42s ago", 42 * time.Second},
		{"5m ago", 5*time.Minute + 10*time.Second},
		{"3h ago", 3 * time.Hour},
		{"2d ago", 50 * time.Hour},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Ago(tt.d))
	}
}

func TestLatency(t *testing.T) {
	assert.Equal(t, "250ms", Latency(250))
	assert.Equal(t, "1.50s", Latency(1500))
}
