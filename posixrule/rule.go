// Package posixrule parses and evaluates POSIX TZ strings: the tail
// rule appended to TZif v2+ footers that extrapolates UTC offsets
// beyond the last recorded transition.
package posixrule

import (
	"fmt"
	"strconv"
	"strings"
)

// defaultRuleTime is the time-of-day POSIX assumes for a start/end
// rule when none is given explicitly: 02:00:00 local.
const defaultRuleTime = 2 * secondsPerHour

// RuleKind identifies which of the three POSIX date forms a Rule uses.
type RuleKind int

const (
	// Julian is the "Jn" form: 1 <= n <= 365, Feb 29 never counted.
	Julian RuleKind = iota
	// JulianZero is the "n" form: 0 <= n <= 365, Feb 29 counted in leap years.
	JulianZero
	// MonthWeekDay is the "Mm.w.d" form.
	MonthWeekDay
)

// Rule is one side (start or end) of a TailRule's DST schedule.
type Rule struct {
	Kind RuleKind

	// N is the day number for Julian and JulianZero rules.
	N int

	// Month (1-12), Week (1-5, 5 meaning "last"), and Day (0-6, Sunday=0)
	// are used by MonthWeekDay rules.
	Month, Week, Day int

	// TimeOfDaySeconds is the local time at which the rule fires,
	// seconds since local midnight. Defaults to 02:00:00.
	TimeOfDaySeconds int
}

// epochSecondsLocal returns the UTC-naive epoch second (i.e. as if the
// rule's time-of-day were UTC) for the rule evaluated in year.
func (r Rule) epochSecondsLocal(year int) int64 {
	switch r.Kind {
	case Julian:
		// Jn: 1..365, counted as if Feb 29 did not exist. Convert to an
		// actual calendar date by walking months, skipping Feb 29.
		month, day := julianToCalendar(year, r.N)
		return fromDateTime(year, month, day, 0, 0, 0) + int64(r.TimeOfDaySeconds)
	case JulianZero:
		month, day := zeroJulianToCalendar(year, r.N)
		return fromDateTime(year, month, day, 0, 0, 0) + int64(r.TimeOfDaySeconds)
	case MonthWeekDay:
		day := nthWeekdayOfMonth(year, r.Month, r.Day, r.Week)
		return fromDateTime(year, r.Month, day, 0, 0, 0) + int64(r.TimeOfDaySeconds)
	default:
		return 0
	}
}

// julianToCalendar converts a 1-based Jn day number (never counting
// Feb 29) to a (month, day) pair in year.
func julianToCalendar(year, n int) (month, day int) {
	remaining := n
	for m := 1; m <= 12; m++ {
		dim := daysInMonth(m, year)
		if m == 2 {
			dim = 28 // Jn skips the leap day entirely
		}
		if remaining <= dim {
			return m, remaining
		}
		remaining -= dim
	}
	return 12, 31
}

// zeroJulianToCalendar converts a 0-based day number (including Feb 29
// on leap years) to a (month, day) pair in year.
func zeroJulianToCalendar(year, n int) (month, day int) {
	remaining := n
	for m := 1; m <= 12; m++ {
		dim := daysInMonth(m, year)
		if remaining < dim {
			return m, remaining + 1
		}
		remaining -= dim
	}
	return 12, 31
}

// TailRule is a fully parsed POSIX TZ string: the standard-time
// designation and offset, and, if present, the DST designation,
// offset, and the rules that bound its active interval.
type TailRule struct {
	StdAbbr string
	// StdOffsetSeconds is seconds EAST of UTC (sign-inverted from the
	// POSIX west-positive convention, matching the rest of tzcore).
	StdOffsetSeconds int

	HasDST          bool
	DSTAbbr         string
	DSTOffsetSeconds int

	Start, End *Rule
}

// Parse parses a POSIX TZ string, e.g. "EST5EDT,M3.2.0,M11.1.0" or the
// bare "UTC0". An empty string is rejected; callers should check for
// an empty footer before calling Parse.
func Parse(s string) (TailRule, error) {
	var tr TailRule
	p := &parser{s: s}

	abbr, err := p.abbreviation()
	if err != nil {
		return tr, fmt.Errorf("posixrule: std designation: %w", err)
	}
	tr.StdAbbr = abbr

	off, err := p.offset()
	if err != nil {
		return tr, fmt.Errorf("posixrule: std offset: %w", err)
	}
	tr.StdOffsetSeconds = -off // POSIX is west-positive; we store east-positive.

	if p.atEnd() {
		return tr, nil
	}

	dstAbbr, err := p.abbreviation()
	if err != nil {
		return tr, fmt.Errorf("posixrule: dst designation: %w", err)
	}
	tr.HasDST = true
	tr.DSTAbbr = dstAbbr

	if !p.atEnd() && p.peek() != ',' {
		dstOff, err := p.offset()
		if err != nil {
			return tr, fmt.Errorf("posixrule: dst offset: %w", err)
		}
		tr.DSTOffsetSeconds = -dstOff
	} else {
		// Default DST offset is one hour ahead of standard time.
		tr.DSTOffsetSeconds = tr.StdOffsetSeconds + secondsPerHour
	}

	if p.atEnd() {
		return tr, nil
	}

	if err := p.expect(','); err != nil {
		return tr, fmt.Errorf("posixrule: %w", err)
	}
	start, err := p.rule()
	if err != nil {
		return tr, fmt.Errorf("posixrule: start rule: %w", err)
	}
	if err := p.expect(','); err != nil {
		return tr, fmt.Errorf("posixrule: %w", err)
	}
	end, err := p.rule()
	if err != nil {
		return tr, fmt.Errorf("posixrule: end rule: %w", err)
	}
	tr.Start = &start
	tr.End = &end

	if !p.atEnd() {
		return tr, fmt.Errorf("posixrule: unexpected trailing data: %q", p.s[p.i:])
	}

	return tr, nil
}

// TransitionsForYear computes the two UTC instants at which DST starts
// and ends in year, per the rule's start/end rules. If the rule
// carries no DST (HasDST == false, or Start/End absent), ok is false.
//
// The rule's time-of-day is specified in the offset that applies on
// its own side of the transition: the start-of-DST instant is
// evaluated in standard-time wall clock, and the end-of-DST instant in
// DST wall clock, per POSIX.
func (tr TailRule) TransitionsForYear(year int) (startUTC, endUTC int64, ok bool) {
	if !tr.HasDST || tr.Start == nil || tr.End == nil {
		return 0, 0, false
	}
	startLocal := tr.Start.epochSecondsLocal(year)
	endLocal := tr.End.epochSecondsLocal(year)

	startUTC = startLocal - int64(tr.StdOffsetSeconds)
	endUTC = endLocal - int64(tr.DSTOffsetSeconds)

	return startUTC, endUTC, true
}

type parser struct {
	s string
	i int
}

func (p *parser) atEnd() bool { return p.i >= len(p.s) }

func (p *parser) peek() byte {
	if p.atEnd() {
		return 0
	}
	return p.s[p.i]
}

func (p *parser) expect(c byte) error {
	if p.atEnd() || p.s[p.i] != c {
		return fmt.Errorf("expected %q at position %d in %q", c, p.i, p.s)
	}
	p.i++
	return nil
}

// abbreviation parses either a quoted <...> designation (letters,
// digits, '+', '-') or a bare run of one or more letters.
func (p *parser) abbreviation() (string, error) {
	if p.atEnd() {
		return "", fmt.Errorf("unexpected end of string")
	}
	if p.s[p.i] == '<' {
		start := p.i + 1
		end := strings.IndexByte(p.s[start:], '>')
		if end < 0 {
			return "", fmt.Errorf("unterminated <...> designation")
		}
		p.i = start + end + 1
		return p.s[start : start+end], nil
	}
	start := p.i
	for !p.atEnd() && isAlpha(p.s[p.i]) {
		p.i++
	}
	if p.i == start {
		return "", fmt.Errorf("expected designation at position %d", start)
	}
	return p.s[start:p.i], nil
}

func isAlpha(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

// offset parses "[+-]hh[:mm[:ss]]" and returns the value in seconds.
func (p *parser) offset() (int, error) {
	sign := 1
	if !p.atEnd() && (p.s[p.i] == '+' || p.s[p.i] == '-') {
		if p.s[p.i] == '-' {
			sign = -1
		}
		p.i++
	}
	hh, err := p.number()
	if err != nil {
		return 0, fmt.Errorf("hours: %w", err)
	}
	total := hh * secondsPerHour
	if !p.atEnd() && p.s[p.i] == ':' {
		p.i++
		mm, err := p.number()
		if err != nil {
			return 0, fmt.Errorf("minutes: %w", err)
		}
		total += mm * secondsPerMinute
		if !p.atEnd() && p.s[p.i] == ':' {
			p.i++
			ss, err := p.number()
			if err != nil {
				return 0, fmt.Errorf("seconds: %w", err)
			}
			total += ss
		}
	}
	return sign * total, nil
}

func (p *parser) number() (int, error) {
	start := p.i
	for !p.atEnd() && isDigit(p.s[p.i]) {
		p.i++
	}
	if p.i == start {
		return 0, fmt.Errorf("expected digits at position %d in %q", start, p.s)
	}
	return strconv.Atoi(p.s[start:p.i])
}

// rule parses one of the three rule forms: "Jn", "n", or "Mm.w.d",
// followed by an optional "/time".
func (p *parser) rule() (Rule, error) {
	var r Rule
	switch {
	case p.peek() == 'J':
		p.i++
		n, err := p.number()
		if err != nil {
			return r, fmt.Errorf("Jn day: %w", err)
		}
		if n < 1 || n > 365 {
			return r, fmt.Errorf("Jn day %d out of range [1, 365]", n)
		}
		r.Kind = Julian
		r.N = n
	case p.peek() == 'M':
		p.i++
		m, err := p.number()
		if err != nil {
			return r, fmt.Errorf("month: %w", err)
		}
		if err := p.expect('.'); err != nil {
			return r, err
		}
		w, err := p.number()
		if err != nil {
			return r, fmt.Errorf("week: %w", err)
		}
		if err := p.expect('.'); err != nil {
			return r, err
		}
		d, err := p.number()
		if err != nil {
			return r, fmt.Errorf("weekday: %w", err)
		}
		if m < 1 || m > 12 {
			return r, fmt.Errorf("month %d out of range [1, 12]", m)
		}
		if w < 1 || w > 5 {
			return r, fmt.Errorf("week %d out of range [1, 5]", w)
		}
		if d < 0 || d > 6 {
			return r, fmt.Errorf("weekday %d out of range [0, 6]", d)
		}
		r.Kind = MonthWeekDay
		r.Month, r.Week, r.Day = m, w, d
	case isDigit(p.peek()):
		n, err := p.number()
		if err != nil {
			return r, fmt.Errorf("n day: %w", err)
		}
		if n < 0 || n > 365 {
			return r, fmt.Errorf("n day %d out of range [0, 365]", n)
		}
		r.Kind = JulianZero
		r.N = n
	default:
		return r, fmt.Errorf("unrecognized rule form at position %d in %q", p.i, p.s)
	}

	r.TimeOfDaySeconds = defaultRuleTime
	if !p.atEnd() && p.s[p.i] == '/' {
		p.i++
		t, err := p.offset()
		if err != nil {
			return r, fmt.Errorf("rule time: %w", err)
		}
		r.TimeOfDaySeconds = t
	}

	return r, nil
}
