package dbtime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDateUTC(t *testing.T) {
	got, err := ParseDateUTC(" 2026-01-04 ")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 1, 4, 0, 0, 0, 0, time.UTC), got)

	_, err = ParseDateUTC("04/01/2026")
	assert.Error(t, err)
}

func TestYesterdayUTC_UsesLocalCalendarDay(t *testing.T) {
	jakarta := time.FixedZone("WIB", 7*3600)

	// 00:05 WIB tanggal 5 = 17:05 UTC tanggal 4 → kemarin menurut WIB adalah tanggal 4
	trigger := time.Date(2026, 1, 4, 17, 5, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 1, 4, 0, 0, 0, 0, time.UTC), YesterdayUTC(trigger, jakarta))

	// tanpa lokasi → kalender UTC
	assert.Equal(t, time.Date(2026, 1, 3, 0, 0, 0, 0, time.UTC), YesterdayUTC(trigger, nil))
}

func TestMidnightUTC_IgnoresZoneOffset(t *testing.T) {
	local := time.Date(2026, 3, 1, 23, 30, 0, 0, time.FixedZone("X", -5*3600))
	assert.Equal(t, "2026-03-01", FormatDate(MidnightUTC(local)))
}
