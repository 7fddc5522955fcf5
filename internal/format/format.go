// Package format renders money, counts and trends for display.
package format

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/j-veylop/usage-dashboard-tui/internal/models"
)

// Currency formats a USD amount as "$1,234.56". Amounts below one cent but
// above zero keep four decimals so tiny per-request costs stay visible.
func Currency(amount float64) string {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return "$---"
	}
	d := decimal.NewFromFloat(amount)
	places := int32(2)
	if abs := d.Abs(); abs.IsPositive() && abs.LessThan(decimal.New(1, -2)) {
		places = 4
	}
	s := d.Abs().StringFixed(places)
	intPart, frac, _ := strings.Cut(s, ".")
	out := "$" + groupDigits(intPart) + "." + frac
	if d.IsNegative() && !d.Round(places).IsZero() {
		return "-" + out
	}
	return out
}

// Number formats an integer with thousands separators.
func Number(n int64) string {
	if n < 0 {
		return "-" + groupDigits(fmt.Sprintf("%d", -n))
	}
	return groupDigits(fmt.Sprintf("%d", n))
}

// Compact formats large counts as 1.2K / 3.4M / 5.6B.
func Compact(n int64) string {
	f := float64(n)
	switch {
	case math.Abs(f) >= 1e9:
		return fmt.Sprintf("%.1fB", f/1e9)
	case math.Abs(f) >= 1e6:
		return fmt.Sprintf("%.1fM", f/1e6)
	case math.Abs(f) >= 1e3:
		return fmt.Sprintf("%.1fK", f/1e3)
	default:
		return fmt.Sprintf("%d", n)
	}
}

// Percent formats a rate that is already on a 0-100 scale.
func Percent(p float64) string {
	if math.IsNaN(p) || math.IsInf(p, 0) {
		return "---"
	}
	return fmt.Sprintf("%.1f%%", p)
}

// Trend formats an optional delta as "+12.3%", "-4.0%" or "" when absent.
func Trend(delta *float64) string {
	if delta == nil || math.IsNaN(*delta) {
		return ""
	}
	if *delta > 0 {
		return fmt.Sprintf("+%.1f%%", *delta)
	}
	return fmt.Sprintf("%.1f%%", *delta)
}

// Ago renders an elapsed duration as "just now", "42s ago", "5m ago",
// "3h ago" or "2d ago".
func Ago(d time.Duration) string {
	switch {
	case d < 5*time.Second:
		return "just now"
	case d < time.Minute:
		return fmt.Sprintf("%ds ago", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}

// Latency renders a response time in milliseconds.
func Latency(ms float64) string {
	if ms >= 1000 {
		return fmt.Sprintf("%.2fs", ms/1000)
	}
	return fmt.Sprintf("%.0fms", ms)
}

// TotalCost sums record costs without float drift.
func TotalCost(records []models.UsageRecord) decimal.Decimal {
	total := decimal.Zero
	for _, r := range records {
		total = total.Add(decimal.NewFromFloat(r.Cost))
	}
	return total
}

// AverageCost returns the mean cost per record, or zero for an empty slice.
func AverageCost(records []models.UsageRecord) decimal.Decimal {
	if len(records) == 0 {
		return decimal.Zero
	}
	return TotalCost(records).Div(decimal.NewFromInt(int64(len(records))))
}

func groupDigits(s string) string {
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}
