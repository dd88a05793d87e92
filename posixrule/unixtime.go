package posixrule

// fromDateTime converts a date and time of day to a Unix timestamp
// (seconds since 1970-01-01 00:00:00 UTC), ignoring leap seconds but
// respecting leap years, under the proleptic Gregorian calendar.
//
// Adapted from the Go standard library's time package internals but
// kept independent of time.Location: evaluating a POSIX tail rule is
// itself part of how a Location gets built, so this code cannot reach
// for time.Date without inverting that dependency.
func fromDateTime(year, month, day, hour, minute, second int) int64 {
	daysSinceStartOfYear := []uint64{0, 31, 59, 90, 120, 151, 181, 212, 243, 273, 304, 334}

	d := daysSinceEpoch(year) + daysSinceStartOfYear[month-1] + (uint64(day) - 1)
	if month > 2 && isLeapYear(year) {
		d++
	}
	abs := d*secondsPerDay + uint64(hour)*secondsPerHour + uint64(minute)*secondsPerMinute + uint64(second)
	return int64(abs) + (absoluteToInternal + internalToUnix)
}

const (
	secondsPerMinute = 60
	secondsPerHour   = 60 * secondsPerMinute
	secondsPerDay    = 24 * secondsPerHour
	daysPer400Years  = 365*400 + 97
	daysPer100Years  = 365*100 + 24
	daysPer4Years    = 365*4 + 1

	absoluteZeroYear         = -292277022399
	internalYear             = 1
	absoluteToInternal int64 = (absoluteZeroYear - internalYear) * 365.2425 * secondsPerDay
	unixToInternal     int64 = (1969*365 + 1969/4 - 1969/100 + 1969/400) * secondsPerDay
	internalToUnix     int64 = -unixToInternal
)

// daysSinceEpoch returns the number of days from the absolute epoch to
// the start of year, accounting for leap days.
func daysSinceEpoch(year int) uint64 {
	y := uint64(int64(year) - absoluteZeroYear)

	n := y / 400
	y -= 400 * n
	d := daysPer400Years * n

	n = y / 100
	y -= 100 * n
	d += daysPer100Years * n

	n = y / 4
	y -= 4 * n
	d += daysPer4Years * n

	d += 365 * y

	return d
}
