// file: internals/helpers/dbtime/time_helper.go
package dbtime

import (
	"strings"
	"time"
)

const DateLayout = "2006-01-02"

// MidnightUTC: tanggal kalender t (di zona t sendiri) → 00:00:00 UTC.
// Nilai ini yang selalu disimpan ke kolom tanggal absensi, apapun TZ server.
func MidnightUTC(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDateUTC: "YYYY-MM-DD" → midnight UTC (tanpa konversi zona)
func ParseDateUTC(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, err
	}
	return MidnightUTC(t), nil
}

// TodayUTC: tanggal "hari ini" menurut loc, dinormalisasi ke midnight UTC
func TodayUTC(now time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return MidnightUTC(now.In(loc))
}

// YesterdayUTC: target auto-lock absensi (kemarin relatif ke instant trigger)
func YesterdayUTC(now time.Time, loc *time.Location) time.Time {
	return TodayUTC(now, loc).AddDate(0, 0, -1)
}

func FormatDate(t time.Time) string {
	return t.UTC().Format(DateLayout)
}
