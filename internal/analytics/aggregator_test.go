package analytics

import (
	"database/sql"
	"testing"
	"time"

	_ "github.com/lib/pq"
)

func TestReportWindow(t *testing.T) {
	tests := []struct {
		name      string
		now       time.Time
		wantStart time.Time
		wantEnd   time.Time
	}{
		{
			"midnight run",
			time.Date(2026, 3, 10, 0, 0, 5, 0, time.UTC),
			time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC),
			time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		},
		{
			"midday manual run covers the same day",
			time.Date(2026, 3, 10, 13, 45, 0, 0, time.UTC),
			time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC),
			time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		},
		{
			"month boundary",
			time.Date(2026, 3, 1, 0, 0, 5, 0, time.UTC),
			time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC),
			time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			"non-UTC clock normalizes to UTC days",
			time.Date(2026, 3, 10, 1, 0, 0, 0, time.FixedZone("CET", 3600)),
			time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC),
			time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end := ReportWindow(tt.now)
			if !start.Equal(tt.wantStart) {
				t.Errorf("start = %v, want %v", start, tt.wantStart)
			}
			if !end.Equal(tt.wantEnd) {
				t.Errorf("end = %v, want %v", end, tt.wantEnd)
			}
			if end.Sub(start) != 24*time.Hour {
				t.Errorf("window length = %v, want 24h", end.Sub(start))
			}
		})
	}
}

func TestRunAbortsOnQueryFailure(t *testing.T) {
	// sql.Open does not dial, so this handle exists but every query fails.
	db, err := sql.Open("postgres", "host=127.0.0.1 port=1 user=none dbname=none sslmode=disable connect_timeout=1")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	a := NewAggregator(db)
	if err := a.Run(time.Date(2026, 3, 10, 0, 0, 5, 0, time.UTC)); err == nil {
		t.Fatal("Run stored a report despite failing aggregation queries")
	}
}
