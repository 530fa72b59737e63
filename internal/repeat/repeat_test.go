package repeat

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 10, 30, 0, 0, time.UTC)
}

func TestParse(t *testing.T) {
	tests := []struct {
		in      string
		want    Marker
		wantErr bool
	}{
		{"daily", Marker{Kind: KindDaily}, false},
		{"mon", Marker{Kind: KindWeekday, Weekday: time.Monday}, false},
		{"SUN", Marker{Kind: KindWeekday, Weekday: time.Sunday}, false},
		{" fri ", Marker{Kind: KindWeekday, Weekday: time.Friday}, false},
		{"every_3_days", Marker{Kind: KindInterval, Every: 3}, false},
		{"every_1_day", Marker{Kind: KindInterval, Every: 1}, false},
		{"every_0_days", Marker{}, true},
		{"every_x_days", Marker{}, true},
		{"monday", Marker{}, true},
		{"", Marker{}, true},
	}
	for _, tt := range tests {
		got, err := Parse(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("Parse(%q): expected error", tt.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("Parse(%q): %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Parse(%q) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}

func TestParseAllRejectsWholeSet(t *testing.T) {
	if _, err := ParseAll([]string{"mon", "bogus"}); err == nil {
		t.Fatal("expected error for set with invalid marker")
	}
	markers, err := ParseAll([]string{"mon", "daily"})
	if err != nil {
		t.Fatal(err)
	}
	if len(markers) != 2 {
		t.Fatalf("got %d markers, want 2", len(markers))
	}
}

func TestMatchesWeekday(t *testing.T) {
	monday := date(2025, time.March, 3)
	m, _ := Parse("mon")
	if !m.Matches(monday, monday) {
		t.Error("mon should match a Monday")
	}
	if m.Matches(monday.AddDate(0, 0, 1), monday) {
		t.Error("mon should not match a Tuesday")
	}
}

func TestMatchesInterval(t *testing.T) {
	anchor := date(2025, time.March, 3)
	m, _ := Parse("every_3_days")

	for days, want := range map[int]bool{0: true, 1: false, 2: false, 3: true, 6: true, 7: false} {
		got := m.Matches(anchor.AddDate(0, 0, days), anchor)
		if got != want {
			t.Errorf("every_3_days at +%dd = %v, want %v", days, got, want)
		}
	}

	// Dates before the anchor never match.
	if m.Matches(anchor.AddDate(0, 0, -3), anchor) {
		t.Error("interval marker matched before its anchor")
	}
}

func TestAnyMatchesSkipsBadMarkers(t *testing.T) {
	monday := date(2025, time.March, 3)
	if !AnyMatches([]string{"bogus", "mon"}, monday, monday) {
		t.Error("valid marker should still fire despite a bad sibling")
	}
	if AnyMatches([]string{"bogus"}, monday, monday) {
		t.Error("a lone bad marker should not match")
	}
	if AnyMatches(nil, monday, monday) {
		t.Error("empty set should not match")
	}
}

func TestNextRotation(t *testing.T) {
	pool := []string{"a", "b", "c"}

	if got := NextRotation(pool, "a"); got != "b" {
		t.Errorf("after a = %q, want b", got)
	}
	if got := NextRotation(pool, "c"); got != "a" {
		t.Errorf("after c = %q, want a (wrap)", got)
	}
	if got := NextRotation(pool, ""); got != "a" {
		t.Errorf("empty current = %q, want a", got)
	}
	if got := NextRotation(pool, "zz"); got != "a" {
		t.Errorf("unknown current = %q, want a", got)
	}
	if got := NextRotation(nil, "a"); got != "" {
		t.Errorf("empty pool = %q, want empty", got)
	}
}

func TestDayKey(t *testing.T) {
	if got := DayKey(date(2025, time.March, 3)); got != "2025-03-03" {
		t.Errorf("DayKey = %q", got)
	}
}

func TestStartOfDay(t *testing.T) {
	d := StartOfDay(date(2025, time.March, 3))
	if d.Hour() != 0 || d.Minute() != 0 || d.Second() != 0 {
		t.Errorf("StartOfDay = %v", d)
	}
}
