package stats

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/voltplan/voltplan/core/model"
)

func flatPrices(from, to time.Time, price float64) []model.PricePoint {
	var pts []model.PricePoint
	for ts := from.Truncate(time.Hour); ts.Before(to); ts = ts.Add(time.Hour) {
		pts = append(pts, model.PricePoint{Ts: ts, Price: model.ScalePrice(price)})
	}
	return pts
}

func TestConnectionHoursFractions(t *testing.T) {
	start := base.Add(10*time.Hour + 30*time.Minute)
	c := model.Connection{StartTs: start, EndTs: start.Add(2 * time.Hour)}
	idx := newPriceIndex(flatPrices(base, base.Add(24*time.Hour), 1.0))

	hours := connectionHours(c, idx, 1.0, 0)
	if len(hours) != 3 {
		t.Fatalf("expected 3 hour rows got %d", len(hours))
	}
	if hours[0].Fraction != 0.5 || hours[1].Fraction != 1.0 || hours[2].Fraction != 0.5 {
		t.Fatalf("bad fractions %v %v %v", hours[0].Fraction, hours[1].Fraction, hours[2].Fraction)
	}
	for _, h := range hours {
		if h.Threshold != 1.0 {
			t.Fatalf("flat prices must give threshold 1.0, got %v", h.Threshold)
		}
	}
}

func TestConnectionHoursSkipUnpricedHours(t *testing.T) {
	start := base.Add(10 * time.Hour)
	c := model.Connection{StartTs: start, EndTs: start.Add(3 * time.Hour)}
	// Prices only cover the first hour of the connection.
	idx := newPriceIndex(flatPrices(base, base.Add(11*time.Hour), 1.0))

	hours := connectionHours(c, idx, 1.0, 0)
	if len(hours) != 1 {
		t.Fatalf("expected the single priced hour, got %d", len(hours))
	}
}

func TestBuildHistoryNeededAndOffsite(t *testing.T) {
	home := uuid.New()
	away := uuid.New()
	idx := newPriceIndex(flatPrices(base, base.Add(48*time.Hour), 1.0))
	conns := []model.Connection{
		{ID: uuid.New(), LocationID: home, StartTs: base.Add(1 * time.Hour), EndTs: base.Add(3 * time.Hour), StartLevel: 50, EndLevel: 80},
		{ID: uuid.New(), LocationID: away, StartTs: base.Add(10 * time.Hour), EndTs: base.Add(12 * time.Hour), StartLevel: 60, EndLevel: 70},
		{ID: uuid.New(), LocationID: home, StartTs: base.Add(20 * time.Hour), EndTs: base.Add(22 * time.Hour), StartLevel: 40, EndLevel: 90},
	}

	entries := buildHistory(conns, idx, home, 1.0, 1.0)
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries got %d", len(entries))
	}
	if entries[0].Needed != 20 {
		t.Fatalf("needed = end(80) - next start(60): got %d", entries[0].Needed)
	}
	if entries[1].Needed != 30 {
		t.Fatalf("needed = end(70) - next start(40): got %d", entries[1].Needed)
	}
	if entries[2].Needed != 0 {
		t.Fatalf("last connection has no successor: got %d", entries[2].Needed)
	}
	if entries[0].Offsite || !entries[1].Offsite || entries[2].Offsite {
		t.Fatalf("offsite flags wrong: %+v", entries)
	}
	if len(entries[1].Hours) != 0 {
		t.Fatal("offsite entries contribute no chargeable hours")
	}
	if len(entries[0].Hours) == 0 || len(entries[2].Hours) == 0 {
		t.Fatal("onsite entries must carry hours")
	}
}
