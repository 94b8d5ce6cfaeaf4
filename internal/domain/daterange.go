package domain

import (
	"fmt"
	"time"
)

// DateRange is an inclusive calendar span expressed in the channel's
// reporting timezone. Start never exceeds End.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func (r DateRange) String() string {
	return fmt.Sprintf("%s..%s", r.Start.Format("2006-01-02"), r.End.Format("2006-01-02"))
}

func (r DateRange) Equal(other DateRange) bool {
	return r.Start.Equal(other.Start) && r.End.Equal(other.End)
}

func (r DateRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(r.End.Add(24*time.Hour-time.Nanosecond))
}

// QuickRange identifies a date-range preset.
type QuickRange string

const (
	QuickRange7Days     QuickRange = "7d"
	QuickRange30Days    QuickRange = "30d"
	QuickRange90Days    QuickRange = "90d"
	QuickRangeThisMonth QuickRange = "this_month"
	QuickRangeLastMonth QuickRange = "last_month"
)

// DerivationRule records how a comparison period was derived from the
// current range.
type DerivationRule string

const (
	RuleShifted   DerivationRule = "shifted"
	RuleFullMonth DerivationRule = "full-month"
	RuleFullYear  DerivationRule = "full-year"
)

type ComparisonPeriod struct {
	DateRange
	Rule DerivationRule `json:"rule"`
}

type ComparisonPeriods struct {
	Previous ComparisonPeriod `json:"previous"`
	YearAgo  ComparisonPeriod `json:"year_ago"`
}
