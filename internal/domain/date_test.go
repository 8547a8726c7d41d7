package domain

import "testing"

func TestWeekKey(t *testing.T) {
	tests := []struct {
		dateKey string
		want    string
	}{
		{"2024-01-01", "week-2024-01-01"}, // a Monday
		{"2024-01-03", "week-2024-01-01"}, // Wednesday
		{"2024-01-07", "week-2024-01-01"}, // Sunday belongs to the week that started Monday
		{"2024-01-08", "week-2024-01-08"}, // next Monday
		{"2024-03-01", "week-2024-02-26"}, // month boundary
	}
	for _, tt := range tests {
		t.Run(tt.dateKey, func(t *testing.T) {
			if got := WeekKey(tt.dateKey); got != tt.want {
				t.Errorf("WeekKey(%q) = %q, want %q", tt.dateKey, got, tt.want)
			}
		})
	}
}

func TestWeekKey_Malformed(t *testing.T) {
	if got := WeekKey("not-a-date"); got != "" {
		t.Errorf("WeekKey() = %q, want empty", got)
	}
}

func TestWeekDates(t *testing.T) {
	days := WeekDates("week-2024-01-01")
	if len(days) != 7 {
		t.Fatalf("len = %d, want 7", len(days))
	}
	if days[0] != "2024-01-01" || days[6] != "2024-01-07" {
		t.Errorf("week span = %s..%s, want 2024-01-01..2024-01-07", days[0], days[6])
	}
}

func TestWeekDates_Malformed(t *testing.T) {
	if days := WeekDates("week-bogus"); days != nil {
		t.Errorf("WeekDates() = %v, want nil", days)
	}
}

func TestPrevDateKey(t *testing.T) {
	if got := PrevDateKey("2024-03-01"); got != "2024-02-29" {
		t.Errorf("PrevDateKey() = %q, want 2024-02-29 (leap year)", got)
	}
}

func TestAddDays(t *testing.T) {
	if got := AddDays("2024-01-01", 30); got != "2024-01-31" {
		t.Errorf("AddDays() = %q, want 2024-01-31", got)
	}
}

func TestValidDateKey(t *testing.T) {
	if !ValidDateKey("2024-12-31") {
		t.Error("2024-12-31 should be valid")
	}
	for _, bad := range []string{"", "2024-13-01", "24-01-01", "2024/01/01"} {
		if ValidDateKey(bad) {
			t.Errorf("%q should be invalid", bad)
		}
	}
}

func TestFixedDeposit_MaturedValue(t *testing.T) {
	d := FixedDeposit{Amount: 1000, Rate: 0.05}
	if got := d.MaturedValue(); got != 1050 {
		t.Errorf("MaturedValue() = %d, want 1050", got)
	}
}

func TestFixedDeposit_DaysLeft(t *testing.T) {
	d := FixedDeposit{MaturityDate: "2024-02-01"}
	if got := d.DaysLeft("2024-01-02"); got != 30 {
		t.Errorf("DaysLeft() = %d, want 30", got)
	}
	if got := d.DaysLeft("2024-02-05"); got != -4 {
		t.Errorf("DaysLeft() past maturity = %d, want -4", got)
	}
}
