package period

import (
	"time"

	"github.com/JasChiang/ai-video-writer-sub000/internal/constants"
	"github.com/JasChiang/ai-video-writer-sub000/internal/domain"
	"github.com/JasChiang/ai-video-writer-sub000/internal/util"
	"github.com/JasChiang/ai-video-writer-sub000/pkg/errors"
)

// Calculator performs all calendar arithmetic for the dashboard. It holds the
// reporting timezone and a clock so two calculators can run side by side in
// tests without shared state. No I/O happens here.
type Calculator struct {
	loc *time.Location
	now func() time.Time
}

func NewCalculator(loc *time.Location, now func() time.Time) *Calculator {
	if loc == nil {
		loc = util.LoadReportingZone("")
	}
	if now == nil {
		now = time.Now
	}
	return &Calculator{loc: loc, now: now}
}

func (c *Calculator) Location() *time.Location {
	return c.loc
}

func (c *Calculator) today() time.Time {
	return util.Midnight(c.now(), c.loc)
}

// LatestQueryableDate is the most recent date the primary source has rows
// for: today minus the reporting lag.
func (c *Calculator) LatestQueryableDate() time.Time {
	return c.today().AddDate(0, 0, -constants.ReportingConfig.LagDays)
}

// PresetAvailable reports whether a quick-range preset can produce a
// non-empty range under the current latest queryable date. "This month" goes
// unavailable during the first lag days of each month.
func (c *Calculator) PresetAvailable(preset domain.QuickRange) bool {
	latest := c.LatestQueryableDate()
	switch preset {
	case domain.QuickRangeThisMonth:
		monthStart := time.Date(c.today().Year(), c.today().Month(), 1, 0, 0, 0, 0, c.loc)
		return !latest.Before(monthStart)
	case domain.QuickRangeLastMonth:
		lastMonthStart := time.Date(c.today().Year(), c.today().Month(), 1, 0, 0, 0, 0, c.loc).AddDate(0, -1, 0)
		return !latest.Before(lastMonthStart)
	default:
		return true
	}
}

// ResolveQuickRange turns a preset into a concrete range anchored on the
// latest queryable date.
func (c *Calculator) ResolveQuickRange(preset domain.QuickRange) (domain.DateRange, error) {
	latest := c.LatestQueryableDate()

	switch preset {
	case domain.QuickRange7Days:
		return domain.DateRange{Start: latest.AddDate(0, 0, -6), End: latest}, nil
	case domain.QuickRange30Days:
		return domain.DateRange{Start: latest.AddDate(0, 0, -29), End: latest}, nil
	case domain.QuickRange90Days:
		return domain.DateRange{Start: latest.AddDate(0, 0, -89), End: latest}, nil
	case domain.QuickRangeThisMonth:
		if !c.PresetAvailable(preset) {
			return domain.DateRange{}, errors.NewValidationError(
				"this-month preset has no queryable days yet", "preset", string(preset))
		}
		monthStart := time.Date(c.today().Year(), c.today().Month(), 1, 0, 0, 0, 0, c.loc)
		monthEnd := monthStart.AddDate(0, 1, -1)
		if monthEnd.After(latest) {
			monthEnd = latest
		}
		return domain.DateRange{Start: monthStart, End: monthEnd}, nil
	case domain.QuickRangeLastMonth:
		if !c.PresetAvailable(preset) {
			return domain.DateRange{}, errors.NewValidationError(
				"last-month preset has no queryable days yet", "preset", string(preset))
		}
		monthStart := time.Date(c.today().Year(), c.today().Month(), 1, 0, 0, 0, 0, c.loc).AddDate(0, -1, 0)
		monthEnd := monthStart.AddDate(0, 1, -1)
		return c.ClampToQueryable(domain.DateRange{Start: monthStart, End: monthEnd}), nil
	default:
		return domain.DateRange{}, errors.NewValidationError("unknown quick range preset", "preset", string(preset))
	}
}

// ClampToQueryable clips a user-supplied range to the latest queryable date.
// When clamping inverts the range, start collapses to end. Idempotent.
func (c *Calculator) ClampToQueryable(r domain.DateRange) domain.DateRange {
	latest := c.LatestQueryableDate()
	start := util.Midnight(r.Start, c.loc)
	end := util.Midnight(r.End, c.loc)

	if end.After(latest) {
		end = latest
	}
	if start.After(end) {
		start = end
	}
	return domain.DateRange{Start: start, End: end}
}

// DayCount returns the inclusive number of days covered by the range.
// Midnight-normalized subtraction with rounding keeps daylight-saving shifts
// from producing off-by-one counts.
func (c *Calculator) DayCount(r domain.DateRange) int {
	start := util.Midnight(r.Start, c.loc)
	end := util.Midnight(r.End, c.loc)
	hours := end.Sub(start).Hours()
	return int(hours/24+0.5) + 1
}

// ComparisonPeriodsFor derives the previous-period and year-ago windows.
//
// A range spanning exactly one calendar month compares against the full
// preceding month, not a length-matched shift; likewise a full calendar year
// compares against the full preceding year. Everything else shifts back by
// its own day count, ending the day before the range starts. The year-ago
// window is always a plain one-year shift of both endpoints.
func (c *Calculator) ComparisonPeriodsFor(r domain.DateRange) domain.ComparisonPeriods {
	start := util.Midnight(r.Start, c.loc)
	end := util.Midnight(r.End, c.loc)

	yearAgo := domain.ComparisonPeriod{
		DateRange: domain.DateRange{
			Start: start.AddDate(-1, 0, 0),
			End:   end.AddDate(-1, 0, 0),
		},
		Rule: domain.RuleShifted,
	}

	var previous domain.ComparisonPeriod
	switch {
	case c.isFullMonth(start, end):
		prevStart := start.AddDate(0, -1, 0)
		prevEnd := prevStart.AddDate(0, 1, -1)
		previous = domain.ComparisonPeriod{
			DateRange: domain.DateRange{Start: prevStart, End: prevEnd},
			Rule:      domain.RuleFullMonth,
		}
	case c.isFullYear(start, end):
		prevStart := start.AddDate(-1, 0, 0)
		prevEnd := prevStart.AddDate(1, 0, -1)
		previous = domain.ComparisonPeriod{
			DateRange: domain.DateRange{Start: prevStart, End: prevEnd},
			Rule:      domain.RuleFullYear,
		}
	default:
		days := c.DayCount(domain.DateRange{Start: start, End: end})
		prevEnd := start.AddDate(0, 0, -1)
		prevStart := prevEnd.AddDate(0, 0, -(days - 1))
		previous = domain.ComparisonPeriod{
			DateRange: domain.DateRange{Start: prevStart, End: prevEnd},
			Rule:      domain.RuleShifted,
		}
	}

	return domain.ComparisonPeriods{Previous: previous, YearAgo: yearAgo}
}

func (c *Calculator) isFullMonth(start, end time.Time) bool {
	if start.Day() != 1 {
		return false
	}
	if start.Year() != end.Year() || start.Month() != end.Month() {
		return false
	}
	lastDay := start.AddDate(0, 1, -1)
	return end.Day() == lastDay.Day()
}

func (c *Calculator) isFullYear(start, end time.Time) bool {
	return start.Day() == 1 && start.Month() == time.January &&
		end.Month() == time.December && end.Day() == 31 &&
		start.Year() == end.Year()
}
