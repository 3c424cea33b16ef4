package utils

import (
	"testing"
	"time"
)

func TestPeriodFromReportCode(t *testing.T) {
	tests := []struct {
		code      string
		wantType  PeriodType
		wantStart string
		wantEnd   string
	}{
		{"11011", PeriodAnnual, "2024-01-01", "2024-12-31"},
		{"11012", PeriodSemiAnnual, "2024-01-01", "2024-06-30"},
		{"11013", PeriodQuarterly, "2024-01-01", "2024-03-31"},
		{"11014", PeriodQuarterly, "2024-07-01", "2024-09-30"},
	}
	for _, tt := range tests {
		p, err := PeriodFromReportCode(tt.code, 2024)
		if err != nil {
			t.Fatalf("PeriodFromReportCode(%q): %v", tt.code, err)
		}
		if p.Type != tt.wantType {
			t.Errorf("code %s type = %s, want %s", tt.code, p.Type, tt.wantType)
		}
		if got := p.Start.Format("2006-01-02"); got != tt.wantStart {
			t.Errorf("code %s start = %s, want %s", tt.code, got, tt.wantStart)
		}
		if got := p.End.Format("2006-01-02"); got != tt.wantEnd {
			t.Errorf("code %s end = %s, want %s", tt.code, got, tt.wantEnd)
		}
	}

	if _, err := PeriodFromReportCode("11015", 2024); err == nil {
		t.Error("expected error for unknown report code")
	}
}

func TestQuarterAlignment(t *testing.T) {
	for q := 1; q <= 4; q++ {
		p := QuarterPeriod(2024, q)
		if p.Start.Month() != time.Month((q-1)*3+1) {
			t.Errorf("Q%d start month = %s", q, p.Start.Month())
		}
		months := int(p.End.Month() - p.Start.Month())
		if months != 2 {
			t.Errorf("Q%d spans %d months, want 3", q, months+1)
		}
	}
}

func TestPeriodFromEcosTime(t *testing.T) {
	tests := []struct {
		token    string
		wantType PeriodType
		wantEnd  string
	}{
		{"2024", PeriodAnnual, "2024-12-31"},
		{"2024Q2", PeriodQuarterly, "2024-06-30"},
		{"202402", PeriodMonthly, "2024-02-29"}, // leap year
		{"202302", PeriodMonthly, "2023-02-28"},
		{"20240315", PeriodDaily, "2024-03-15"},
	}
	for _, tt := range tests {
		p, err := PeriodFromEcosTime(tt.token)
		if err != nil {
			t.Fatalf("PeriodFromEcosTime(%q): %v", tt.token, err)
		}
		if p.Type != tt.wantType {
			t.Errorf("%q type = %s, want %s", tt.token, p.Type, tt.wantType)
		}
		if got := p.End.Format("2006-01-02"); got != tt.wantEnd {
			t.Errorf("%q end = %s, want %s", tt.token, got, tt.wantEnd)
		}
	}

	for _, bad := range []string{"", "24", "2024Q5", "202413", "abcd1234"} {
		if _, err := PeriodFromEcosTime(bad); err == nil {
			t.Errorf("expected error for %q", bad)
		}
	}
}

func TestPeriodFromDailyDate(t *testing.T) {
	p, err := PeriodFromDailyDate("20240102")
	if err != nil {
		t.Fatal(err)
	}
	if p.Type != PeriodDaily || !p.Start.Equal(p.End) {
		t.Errorf("daily period = %+v", p)
	}
	if p.LabelKo != "2024년 1월 2일" {
		t.Errorf("LabelKo = %q", p.LabelKo)
	}
}
