package db

import (
	"testing"
	"time"

	"github.com/j-veylop/usage-dashboard-tui/internal/models"
)

func ptr(f float64) *float64 { return &f }

func TestRecordCycle(t *testing.T) {
	db := newTestDB(t)
	defer db.Close()

	records := []models.UsageRecord{
		{Timestamp: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC), ModelName: "gpt-4", TotalTokens: 100, Cost: 0.5},
		{Timestamp: time.Date(2026, 3, 1, 11, 0, 0, 0, time.UTC), ModelName: "claude", TotalTokens: 50, Cost: 0.25, Errors: 1},
	}
	stats := models.StatsSummary{TotalCost: 0.75, TotalTokens: 150, TotalRequests: 2, TotalErrors: 1, ErrorRate: 50, CostTrend: ptr(12.5)}
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	if err := db.RecordCycle(models.Period7Days, records, stats, at); err != nil {
		t.Fatalf("RecordCycle failed: %v", err)
	}

	history, err := db.SnapshotHistory(models.Period7Days, 10)
	if err != nil {
		t.Fatalf("SnapshotHistory failed: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("expected 1 snapshot, got %d", len(history))
	}
	snap := history[0]
	if snap.TotalCost != 0.75 || snap.TotalTokens != 150 || snap.RecordCount != 2 {
		t.Errorf("unexpected snapshot: %+v", snap)
	}
	if !snap.RecordedAt.Equal(at) {
		t.Errorf("RecordedAt = %v, want %v", snap.RecordedAt, at)
	}
	if snap.Period != models.Period7Days {
		t.Errorf("Period = %v, want 7d", snap.Period)
	}

	cached, err := db.CachedUsage(models.Period7Days)
	if err != nil {
		t.Fatalf("CachedUsage failed: %v", err)
	}
	if cached == nil {
		t.Fatal("expected cached usage")
	}
	if len(cached.Records) != 2 || cached.Records[1].ModelName != "claude" {
		t.Errorf("unexpected cached records: %+v", cached.Records)
	}
	if cached.Stats == nil || cached.Stats.CostTrend == nil || *cached.Stats.CostTrend != 12.5 {
		t.Errorf("unexpected cached stats: %+v", cached.Stats)
	}
}

func TestRecordCycle_ReplacesCache(t *testing.T) {
	db := newTestDB(t)
	defer db.Close()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	_ = db.RecordCycle(models.Period24Hours, []models.UsageRecord{{ModelName: "a"}}, models.StatsSummary{TotalCost: 1}, base)
	_ = db.RecordCycle(models.Period24Hours, []models.UsageRecord{{ModelName: "b"}}, models.StatsSummary{TotalCost: 2}, base.Add(time.Minute))

	cached, err := db.CachedUsage(models.Period24Hours)
	if err != nil || cached == nil {
		t.Fatalf("CachedUsage failed: %v", err)
	}
	if cached.Records[0].ModelName != "b" {
		t.Errorf("cache not replaced: %+v", cached.Records)
	}

	history, _ := db.SnapshotHistory(models.Period24Hours, 10)
	if len(history) != 2 {
		t.Fatalf("expected 2 snapshots, got %d", len(history))
	}
	if history[0].TotalCost != 1 || history[1].TotalCost != 2 {
		t.Errorf("history not oldest first: %+v", history)
	}
}

func TestSnapshotHistory_LimitKeepsNewest(t *testing.T) {
	db := newTestDB(t)
	defer db.Close()

	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		stats := models.StatsSummary{TotalCost: float64(i)}
		if err := db.RecordCycle(models.Period30Days, nil, stats, base.Add(time.Duration(i)*time.Hour)); err != nil {
			t.Fatalf("RecordCycle failed: %v", err)
		}
	}
	// Other periods are kept apart.
	_ = db.RecordCycle(models.Period90Days, nil, models.StatsSummary{TotalCost: 99}, base)

	history, err := db.SnapshotHistory(models.Period30Days, 3)
	if err != nil {
		t.Fatalf("SnapshotHistory failed: %v", err)
	}
	if len(history) != 3 {
		t.Fatalf("expected 3 snapshots, got %d", len(history))
	}
	for i, want := range []float64{2, 3, 4} {
		if history[i].TotalCost != want {
			t.Errorf("history[%d].TotalCost = %v, want %v", i, history[i].TotalCost, want)
		}
	}
}

func TestCachedUsage_Missing(t *testing.T) {
	db := newTestDB(t)
	defer db.Close()

	cached, err := db.CachedUsage(models.Period90Days)
	if err != nil {
		t.Fatalf("CachedUsage failed: %v", err)
	}
	if cached != nil {
		t.Errorf("expected nil, got %+v", cached)
	}
}

func TestClearUsageCache(t *testing.T) {
	db := newTestDB(t)
	defer db.Close()

	_ = db.RecordCycle(models.Period7Days, nil, models.StatsSummary{}, time.Now())
	if err := db.ClearUsageCache(); err != nil {
		t.Fatalf("ClearUsageCache failed: %v", err)
	}
	cached, _ := db.CachedUsage(models.Period7Days)
	if cached != nil {
		t.Error("cache should be empty")
	}
}

func TestSessionEvents(t *testing.T) {
	db := newTestDB(t)
	defer db.Close()

	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	events := []*models.SessionEvent{
		{Type: models.SessionEventLogin, User: "a@b.com", Timestamp: base},
		{Type: models.SessionEventExpired, Timestamp: base.Add(time.Hour)},
	}
	for _, e := range events {
		if err := db.InsertSessionEvent(e); err != nil {
			t.Fatalf("InsertSessionEvent failed: %v", err)
		}
		if e.ID == 0 {
			t.Error("expected ID to be set")
		}
	}

	got, err := db.RecentSessionEvents(10)
	if err != nil {
		t.Fatalf("RecentSessionEvents failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 events, got %d", len(got))
	}
	if got[0].Type != models.SessionEventExpired || got[0].User != "" {
		t.Errorf("unexpected newest event: %+v", got[0])
	}
	if got[1].User != "a@b.com" {
		t.Errorf("unexpected oldest event: %+v", got[1])
	}
}

func TestNullString(t *testing.T) {
	if ns := nullString(""); ns.Valid {
		t.Error("empty string should be NULL")
	}
	if ns := nullString("x"); !ns.Valid || ns.String != "x" {
		t.Errorf("nullString(\"x\") = %+v", ns)
	}
}
