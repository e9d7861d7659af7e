package rotation_test

import (
	"testing"
	"time"

	"github.com/severin-lang/rotabak/pkg/config"
	"github.com/severin-lang/rotabak/pkg/rotation"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 3, 0, 0, 0, time.UTC)
}

func TestResolve(t *testing.T) {
	ret := config.RetentionConfig{Monthly: 2, Weekly: 4, Daily: 15}

	tests := []struct {
		name         string
		now          time.Time
		expectedTier rotation.Tier
		expectedKeep int
		expectedSet  string
	}{
		{
			name:         "First of month on a Sunday",
			now:          date(2026, time.March, 1),
			expectedTier: rotation.Monthly,
			expectedKeep: 2,
			expectedSet:  "SRV01-Monthly-March",
		},
		{
			name:         "First of month on a Monday takes Monthly precedence",
			now:          date(2026, time.June, 1),
			expectedTier: rotation.Monthly,
			expectedKeep: 2,
			expectedSet:  "SRV01-Monthly-June",
		},
		{
			name:         "Monday mid month",
			now:          date(2026, time.March, 16),
			expectedTier: rotation.Weekly,
			expectedKeep: 4,
			expectedSet:  "SRV01-Weekly-W12",
		},
		{
			name:         "Plain weekday",
			now:          date(2026, time.March, 18),
			expectedTier: rotation.Daily,
			expectedKeep: 15,
			expectedSet:  "SRV01-Daily-W12-Wednesday",
		},
		{
			name:         "Single digit ISO week is zero padded",
			now:          date(2026, time.January, 6),
			expectedTier: rotation.Daily,
			expectedKeep: 15,
			expectedSet:  "SRV01-Daily-W02-Tuesday",
		},
		{
			name:         "Monday in single digit ISO week",
			now:          date(2026, time.January, 5),
			expectedTier: rotation.Weekly,
			expectedKeep: 4,
			expectedSet:  "SRV01-Weekly-W02",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := rotation.Resolve(tt.now, "SRV01", ret)
			if d.Tier != tt.expectedTier {
				t.Errorf("Expected tier %v, got %v", tt.expectedTier, d.Tier)
			}
			if d.Keep != tt.expectedKeep {
				t.Errorf("Expected keep %d, got %d", tt.expectedKeep, d.Keep)
			}
			if d.SetName != tt.expectedSet {
				t.Errorf("Expected set name %q, got %q", tt.expectedSet, d.SetName)
			}
		})
	}
}

// Every calendar date must resolve to exactly one tier, and the tier must
// follow the precedence first-of-month > Monday > weekday.
func TestResolveCoversEveryDate(t *testing.T) {
	ret := config.RetentionConfig{Monthly: 1, Weekly: 1, Daily: 1}

	day := date(2026, time.January, 1)
	for i := 0; i < 366; i++ {
		d := rotation.Resolve(day, "SRV01", ret)

		switch {
		case day.Day() == 1:
			if d.Tier != rotation.Monthly {
				t.Errorf("%s: expected Monthly, got %v", day.Format("2006-01-02"), d.Tier)
			}
		case day.Weekday() == time.Monday:
			if d.Tier != rotation.Weekly {
				t.Errorf("%s: expected Weekly, got %v", day.Format("2006-01-02"), d.Tier)
			}
		default:
			if d.Tier != rotation.Daily {
				t.Errorf("%s: expected Daily, got %v", day.Format("2006-01-02"), d.Tier)
			}
		}

		if d.SetName == "" {
			t.Errorf("%s: empty set name", day.Format("2006-01-02"))
		}
		day = day.AddDate(0, 0, 1)
	}
}
