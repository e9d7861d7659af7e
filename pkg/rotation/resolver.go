// Package rotation classifies a backup run into its retention tier and
// enforces the tier's rotation policy against existing backup sets.
package rotation

import (
	"fmt"
	"time"

	"github.com/severin-lang/rotabak/pkg/config"
)

// Tier is the retention category assigned to a run based on the calendar date.
type Tier int

const (
	Monthly Tier = iota
	Weekly
	Daily
)

func (t Tier) String() string {
	switch t {
	case Monthly:
		return "Monthly"
	case Weekly:
		return "Weekly"
	default:
		return "Daily"
	}
}

// Decision is the resolved rotation policy for one run.
type Decision struct {
	Tier Tier
	// Keep is the retention count for the tier. 0 means no existing set of
	// this tier survives.
	Keep int
	// SetName is the canonical name of the set this run will produce,
	// e.g. "HOST-Weekly-W12".
	SetName string
}

// Resolve classifies the given time into a tier and derives the canonical set
// name. The rules are checked in order, first match wins:
//
//  1. day of month 1      -> Monthly, suffix "-Monthly-<MonthName>"
//  2. Monday              -> Weekly,  suffix "-Weekly-W<ISOWeek>"
//  3. anything else       -> Daily,   suffix "-Daily-W<ISOWeek>-<DayName>"
//
// Pure function of calendar time and config; every date matches exactly one
// branch.
func Resolve(now time.Time, host string, ret config.RetentionConfig) Decision {
	switch {
	case now.Day() == 1:
		return Decision{
			Tier:    Monthly,
			Keep:    ret.Monthly,
			SetName: fmt.Sprintf("%s-Monthly-%s", host, now.Month()),
		}
	case now.Weekday() == time.Monday:
		_, week := now.ISOWeek()
		return Decision{
			Tier:    Weekly,
			Keep:    ret.Weekly,
			SetName: fmt.Sprintf("%s-Weekly-W%02d", host, week),
		}
	default:
		_, week := now.ISOWeek()
		return Decision{
			Tier:    Daily,
			Keep:    ret.Daily,
			SetName: fmt.Sprintf("%s-Daily-W%02d-%s", host, week, now.Weekday()),
		}
	}
}
