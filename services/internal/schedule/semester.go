package schedule

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-faster/errors"
)

// nightRollover is the hour up to which a block belongs to the previous
// calendar day's observing night.
const nightRollover = 6

var semesterPrefixRe = regexp.MustCompile(`^(\d{4})([ABab])`)

// SemesterFor maps a calendar date to its semester code. Feb 1 through
// Jul 31 of year Y is "YA"; Aug 1 of Y through Jan 31 of Y+1 is "YB", so a
// January date falls back to the previous year's B semester.
func SemesterFor(year int, month time.Month, day int) string {
	if month < time.February {
		return strconv.Itoa(year-1) + "B"
	}
	if month < time.August {
		return strconv.Itoa(year) + "A"
	}
	return strconv.Itoa(year) + "B"
}

// SemesterFromProgram reads the "YYYYS" prefix of a program code.
func SemesterFromProgram(code string) (string, bool) {
	m := semesterPrefixRe.FindStringSubmatch(strings.TrimSpace(code))
	if m == nil {
		return "", false
	}
	return m[1] + strings.ToUpper(m[2]), true
}

// SplitSemester splits "2024A" into 2024 and "A".
func SplitSemester(code string) (int, string, error) {
	m := semesterPrefixRe.FindStringSubmatch(code)
	if m == nil || len(code) != 5 {
		return 0, "", errors.Errorf("invalid semester code %q", code)
	}
	year, _ := strconv.Atoi(m[1])
	return year, strings.ToUpper(m[2]), nil
}

// ProgramIDFrom extracts the program number stored at 1-indexed positions
// 6-8 of a program code. Empty or all-zero digits yield 0.
func ProgramIDFrom(code string) (int, error) {
	code = strings.TrimSpace(code)
	if len(code) <= 5 {
		return 0, nil
	}
	end := 8
	if len(code) < end {
		end = len(code)
	}
	digits := strings.TrimLeft(code[5:end], "0")
	if digits == "" {
		return 0, nil
	}
	id, err := strconv.Atoi(digits)
	if err != nil || id < 0 {
		return 0, errors.Errorf("program number %q is not numeric", code[5:end])
	}
	return id, nil
}

// MidnightOf returns local midnight of t's calendar day in loc.
func MidnightOf(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// LogIDFor returns the observing-night key of a block starting at start:
// midnight of the previous day when start is at or before 06:00, midnight
// of the same day otherwise.
func LogIDFor(start time.Time, loc *time.Location) int64 {
	start = start.In(loc)
	y, m, d := start.Date()
	rollover := time.Date(y, m, d, nightRollover, 0, 0, 0, loc)
	if !start.After(rollover) {
		return time.Date(y, m, d-1, 0, 0, 0, 0, loc).Unix()
	}
	return time.Date(y, m, d, 0, 0, 0, 0, loc).Unix()
}

// ParseDateTime combines a "YYYY/MM/DD" date and an "HH:MMhr" time into a
// wall-clock instant in loc.
func ParseDateTime(date, clock string, loc *time.Location) (time.Time, error) {
	day, err := time.ParseInLocation("2006/01/02", strings.TrimSpace(date), loc)
	if err != nil {
		return time.Time{}, errors.Errorf("date %q is not YYYY/MM/DD", date)
	}
	hour, minute, err := parseClock(clock)
	if err != nil {
		return time.Time{}, err
	}
	y, m, d := day.Date()
	return time.Date(y, m, d, hour, minute, 0, 0, loc), nil
}

func parseClock(clock string) (int, int, error) {
	s := strings.ToLower(strings.TrimSpace(clock))
	s = strings.TrimSpace(strings.TrimSuffix(s, "hr"))
	hh, mm, ok := strings.Cut(s, ":")
	if !ok {
		return 0, 0, errors.Errorf("time %q is not HH:MMhr", clock)
	}
	hour, err := strconv.Atoi(hh)
	if err != nil || hour < 0 || hour > 24 {
		return 0, 0, errors.Errorf("time %q has invalid hour", clock)
	}
	minute, err := strconv.Atoi(mm)
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, errors.Errorf("time %q has invalid minute", clock)
	}
	return hour, minute, nil
}
