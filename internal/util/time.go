package util

import (
	"time"

	"github.com/JasChiang/ai-video-writer-sub000/internal/constants"
)

// DefaultReportingZone is where all dashboard date math happens. YouTube
// reports daily rows against the channel's configured timezone, so mixing in
// UTC here shifts every boundary by a day for Asian creators.
const DefaultReportingZone = "Asia/Taipei"

// LoadReportingZone resolves the reporting timezone, falling back to a fixed
// UTC+8 zone when tzdata is unavailable.
func LoadReportingZone(name string) *time.Location {
	if name == "" {
		name = DefaultReportingZone
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.FixedZone("UTC+8", 8*60*60)
	}
	return loc
}

// Midnight truncates t to 00:00:00 in loc.
func Midnight(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// FormatDate renders t as the YYYY-MM-DD form the reporting API expects.
func FormatDate(t time.Time) string {
	return t.Format(constants.ReportingConfig.DateForm)
}

// ParseDate reads a YYYY-MM-DD string as midnight in loc.
func ParseDate(value string, loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(constants.ReportingConfig.DateForm, value, loc)
}
