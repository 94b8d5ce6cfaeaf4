package util

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatDateAndParseDateRoundTrip(t *testing.T) {
	loc := LoadReportingZone("")

	day, err := ParseDate("2024-06-15", loc)
	require.NoError(t, err)

	assert.Equal(t, time.Date(2024, 6, 15, 0, 0, 0, 0, loc), day)
	assert.Equal(t, "2024-06-15", FormatDate(day))
}

func TestParseDateRejectsMalformedInput(t *testing.T) {
	_, err := ParseDate("15/06/2024", LoadReportingZone(""))
	assert.Error(t, err)
}

func TestMidnightNormalizes(t *testing.T) {
	loc := LoadReportingZone("")
	late := time.Date(2024, 6, 15, 23, 59, 59, 0, loc)

	assert.Equal(t, time.Date(2024, 6, 15, 0, 0, 0, 0, loc), Midnight(late, loc))
}

func TestLoadReportingZoneFallsBack(t *testing.T) {
	loc := LoadReportingZone("Not/AZone")

	_, offset := time.Date(2024, 6, 15, 0, 0, 0, 0, loc).Zone()
	assert.Equal(t, 8*60*60, offset)
}
