package posixrule

import (
	"testing"
	"time"
)

func TestParse_StdOnly(t *testing.T) {
	tr, err := Parse("UTC0")
	if err != nil {
		t.Fatalf("Parse() = %v", err)
	}
	if tr.StdAbbr != "UTC" {
		t.Errorf("StdAbbr = %q, want UTC", tr.StdAbbr)
	}
	if tr.StdOffsetSeconds != 0 {
		t.Errorf("StdOffsetSeconds = %d, want 0", tr.StdOffsetSeconds)
	}
	if tr.HasDST {
		t.Errorf("HasDST = true, want false")
	}
	if _, _, ok := tr.TransitionsForYear(2024); ok {
		t.Errorf("TransitionsForYear() ok = true for a std-only rule")
	}
}

func TestParse_ESTEDT(t *testing.T) {
	tr, err := Parse("EST5EDT,M3.2.0,M11.1.0")
	if err != nil {
		t.Fatalf("Parse() = %v", err)
	}
	if tr.StdAbbr != "EST" || tr.StdOffsetSeconds != -5*secondsPerHour {
		t.Errorf("std = %q/%d, want EST/-18000", tr.StdAbbr, tr.StdOffsetSeconds)
	}
	if !tr.HasDST || tr.DSTAbbr != "EDT" {
		t.Errorf("dst = %v/%q, want true/EDT", tr.HasDST, tr.DSTAbbr)
	}
	if tr.DSTOffsetSeconds != -4*secondsPerHour {
		t.Errorf("DSTOffsetSeconds = %d, want -14400", tr.DSTOffsetSeconds)
	}
	if tr.Start == nil || tr.Start.Kind != MonthWeekDay || tr.Start.Month != 3 || tr.Start.Week != 2 || tr.Start.Day != 0 {
		t.Fatalf("Start rule = %+v", tr.Start)
	}
	if tr.End == nil || tr.End.Kind != MonthWeekDay || tr.End.Month != 11 || tr.End.Week != 1 || tr.End.Day != 0 {
		t.Fatalf("End rule = %+v", tr.End)
	}
}

func TestParse_AngleBracketAbbreviation(t *testing.T) {
	tr, err := Parse("<+05>-5")
	if err != nil {
		t.Fatalf("Parse() = %v", err)
	}
	if tr.StdAbbr != "+05" {
		t.Errorf("StdAbbr = %q, want +05", tr.StdAbbr)
	}
	if tr.StdOffsetSeconds != 5*secondsPerHour {
		t.Errorf("StdOffsetSeconds = %d, want 18000", tr.StdOffsetSeconds)
	}
}

func TestParse_DefaultDSTOffsetAndRuleTime(t *testing.T) {
	tr, err := Parse("IST-2IDT,M3.4.4/26,M10.5.0")
	if err != nil {
		t.Fatalf("Parse() = %v", err)
	}
	if tr.StdOffsetSeconds != 2*secondsPerHour {
		t.Errorf("StdOffsetSeconds = %d, want 7200", tr.StdOffsetSeconds)
	}
	if tr.DSTOffsetSeconds != 3*secondsPerHour {
		t.Errorf("DSTOffsetSeconds = %d, want 10800 (default +1h)", tr.DSTOffsetSeconds)
	}
	if tr.Start.TimeOfDaySeconds != 26*secondsPerHour {
		t.Errorf("Start.TimeOfDaySeconds = %d, want 93600", tr.Start.TimeOfDaySeconds)
	}
}

func TestParse_MalformedRejected(t *testing.T) {
	cases := []string{
		"",
		"5",       // missing std abbreviation
		"EST",     // missing offset
		"EST+x5",  // garbage offset
		"EST5EDT,M13.1.0,M11.1.0", // month out of range
		"EST5EDT,M3.6.0,M11.1.0",  // week out of range
	}
	for _, c := range cases {
		if _, err := Parse(c); err == nil {
			t.Errorf("Parse(%q) = nil error, want error", c)
		}
	}
}

// TestTransitionsForYear_MatchesStdlib cross-checks the evaluator
// against time/tzdata's own "America/New_York"-shaped rule using the
// standard library as an oracle for a handful of recent years, since
// the US DST rule (M3.2.0/M11.1.0 at 02:00) is exactly what stdlib
// also implements.
func TestTransitionsForYear_MatchesStdlib(t *testing.T) {
	tr, err := Parse("EST5EDT,M3.2.0/2,M11.1.0/2")
	if err != nil {
		t.Fatalf("Parse() = %v", err)
	}
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("tzdata not available: %v", err)
	}
	for _, year := range []int{2020, 2023, 2024, 2030} {
		start, end, ok := tr.TransitionsForYear(year)
		if !ok {
			t.Fatalf("TransitionsForYear(%d) ok = false", year)
		}
		// The rule's 02:00 is read in the offset in force before each
		// change (EST for the start, EDT for the end), so the transition
		// instant is local midnight of the rule's day plus two hours.
		wantStart := time.Date(year, 3, 1, 0, 0, 0, 0, loc)
		for wantStart.Weekday() != time.Sunday || (wantStart.Day()-1)/7 != 1 {
			wantStart = wantStart.AddDate(0, 0, 1)
		}
		wantStart = wantStart.Add(2 * time.Hour)
		if got := time.Unix(start, 0).UTC(); !got.Equal(wantStart.UTC()) {
			t.Errorf("year %d: start = %v, want %v", year, got, wantStart.UTC())
		}

		wantEnd := time.Date(year, 11, 1, 0, 0, 0, 0, loc)
		for wantEnd.Weekday() != time.Sunday {
			wantEnd = wantEnd.AddDate(0, 0, 1)
		}
		wantEnd = wantEnd.Add(2 * time.Hour)
		if got := time.Unix(end, 0).UTC(); !got.Equal(wantEnd.UTC()) {
			t.Errorf("year %d: end = %v, want %v", year, got, wantEnd.UTC())
		}
	}
}

func TestNthWeekdayOfMonth_FirstSunday(t *testing.T) {
	// November 2024's first Sunday is the 3rd (the US M11.1.0 rule shape).
	got := nthWeekdayOfMonth(2024, 11, 0, 1)
	if got != 3 {
		t.Errorf("nthWeekdayOfMonth(2024, 11, Sunday, 1st) = %d, want 3", got)
	}
}

func TestJulianToCalendar_SkipsLeapDay(t *testing.T) {
	// J60 in a leap year should land on March 1st, not Feb 29th.
	m, d := julianToCalendar(2024, 60)
	if m != 3 || d != 1 {
		t.Errorf("julianToCalendar(2024, 60) = %d/%d, want 3/1", m, d)
	}
}

func TestZeroJulianToCalendar_CountsLeapDay(t *testing.T) {
	// Day 59 (0-based) in a leap year is Feb 29th.
	m, d := zeroJulianToCalendar(2024, 59)
	if m != 2 || d != 29 {
		t.Errorf("zeroJulianToCalendar(2024, 59) = %d/%d, want 2/29", m, d)
	}
}
