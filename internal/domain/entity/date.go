package entity

import "time"

// DateLayout formato ISO de fechas de calendario (MHD, sacrificio, filtros).
const DateLayout = "2006-01-02"

// ParseDate interpreta YYYY-MM-DD como fecha de calendario (00:00 UTC).
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, time.UTC)
}

// ParseDateIn interpreta YYYY-MM-DD como el inicio de ese día en loc.
func ParseDateIn(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	return time.ParseInLocation(DateLayout, s, loc)
}

// IsStartOfDay indica si t cae exactamente a las 00:00 en loc.
func IsStartOfDay(t time.Time, loc *time.Location) bool {
	if loc == nil {
		loc = time.UTC
	}
	l := t.In(loc)
	return l.Hour() == 0 && l.Minute() == 0 && l.Second() == 0 && l.Nanosecond() == 0
}

// DateOf trunca t a su fecha de calendario en loc, expresada a las 00:00 UTC.
func DateOf(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// EndOfDate devuelve el primer instante posterior a la fecha date en loc
// (inicio del día siguiente); útil como cota exclusiva "hasta el final del día".
func EndOfDate(date time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := date.Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, loc)
}

// StartOfDate primer instante de la fecha date en loc.
func StartOfDate(date time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := date.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// DaysBetween días de calendario de from a to (negativo si to es anterior).
func DaysBetween(from, to time.Time) int {
	f := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	t := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	return int(t.Sub(f).Hours() / 24)
}
