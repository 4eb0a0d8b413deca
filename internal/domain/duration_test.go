package domain

import (
	"testing"
	"time"
)

func TestParseDuration(t *testing.T) {
	cases := []struct {
		in      string
		want    PlanDuration
		wantErr bool
	}{
		{"1 Month", DurationOneMonth, false},
		{"3 Months", DurationThreeMonths, false},
		{"6 Months", DurationSixMonths, false},
		{"1 Year", DurationOneYear, false},
		{"1", DurationOneMonth, false},
		{"3", DurationThreeMonths, false},
		{"6", DurationSixMonths, false},
		{"12", DurationOneYear, false},
		{"", "", true},
		{"2 Months", "", true},
		{"1 month", "", true},
		{"forever", "", true},
	}

	for _, tc := range cases {
		got, err := ParseDuration(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParseDuration(%q): expected error, got %q", tc.in, got)
			}
			if !IsValidation(err) {
				t.Errorf("ParseDuration(%q): expected validation error, got %v", tc.in, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseDuration(%q): unexpected error: %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseDuration(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestExpiryFrom(t *testing.T) {
	start := time.Date(2026, time.January, 15, 10, 0, 0, 0, time.UTC)

	cases := []struct {
		d    PlanDuration
		want time.Time
	}{
		{DurationOneMonth, time.Date(2026, time.February, 15, 10, 0, 0, 0, time.UTC)},
		{DurationThreeMonths, time.Date(2026, time.April, 15, 10, 0, 0, 0, time.UTC)},
		{DurationSixMonths, time.Date(2026, time.July, 15, 10, 0, 0, 0, time.UTC)},
		{DurationOneYear, time.Date(2027, time.January, 15, 10, 0, 0, 0, time.UTC)},
	}

	for _, tc := range cases {
		if got := tc.d.ExpiryFrom(start); !got.Equal(tc.want) {
			t.Errorf("%q.ExpiryFrom = %v, want %v", tc.d, got, tc.want)
		}
	}
}
