package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSemesterFor(t *testing.T) {
	cases := []struct {
		y    int
		m    time.Month
		d    int
		want string
	}{
		{2024, time.January, 31, "2023B"},
		{2024, time.February, 1, "2024A"},
		{2024, time.July, 31, "2024A"},
		{2024, time.August, 1, "2024B"},
		{2024, time.December, 31, "2024B"},
		{2025, time.January, 1, "2024B"},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, SemesterFor(tc.y, tc.m, tc.d), "%d-%02d-%02d", tc.y, tc.m, tc.d)
	}
}

func TestSemesterFromProgram(t *testing.T) {
	sem, ok := SemesterFromProgram(" 2024b012 ")
	require.True(t, ok)
	require.Equal(t, "2024B", sem)

	_, ok = SemesterFromProgram("ENG-001")
	require.False(t, ok)
}

func TestSplitSemester(t *testing.T) {
	year, half, err := SplitSemester("2024A")
	require.NoError(t, err)
	require.Equal(t, 2024, year)
	require.Equal(t, "A", half)

	for _, bad := range []string{"", "2024", "2024C", "2024AB", "24A"} {
		_, _, err := SplitSemester(bad)
		require.Error(t, err, bad)
	}
}

func TestProgramIDFrom(t *testing.T) {
	cases := map[string]int{
		"2024A045":  45,
		"2024A900":  900,
		"2024A0451": 45,
		"2024A7":    7,
		"2024A000":  0,
		"2024A":     0,
		"":          0,
	}
	for code, want := range cases {
		got, err := ProgramIDFrom(code)
		require.NoError(t, err, code)
		require.Equal(t, want, got, code)
	}

	_, err := ProgramIDFrom("2024A04X")
	require.Error(t, err)
}

func TestLogIDFor_NightRollover(t *testing.T) {
	prevMidnight := utc(2025, time.March, 9, 0, 0).Unix()
	sameMidnight := utc(2025, time.March, 10, 0, 0).Unix()

	require.Equal(t, prevMidnight, LogIDFor(utc(2025, time.March, 10, 2, 0), time.UTC))
	require.Equal(t, prevMidnight, LogIDFor(utc(2025, time.March, 10, 6, 0), time.UTC))
	require.Equal(t, sameMidnight, LogIDFor(utc(2025, time.March, 10, 6, 1), time.UTC))
	require.Equal(t, sameMidnight, LogIDFor(utc(2025, time.March, 10, 8, 0), time.UTC))
	require.Equal(t, sameMidnight, LogIDFor(utc(2025, time.March, 10, 23, 59), time.UTC))
}

func TestLogIDFor_CrossesMonthBoundary(t *testing.T) {
	got := LogIDFor(utc(2025, time.March, 1, 3, 30), time.UTC)
	require.Equal(t, utc(2025, time.February, 28, 0, 0).Unix(), got)
}

func TestParseDateTime(t *testing.T) {
	got, err := ParseDateTime("2025/03/10", "18:30hr", time.UTC)
	require.NoError(t, err)
	require.Equal(t, utc(2025, time.March, 10, 18, 30), got)

	got, err = ParseDateTime("2025/03/10", "24:00hr", time.UTC)
	require.NoError(t, err)
	require.Equal(t, utc(2025, time.March, 11, 0, 0), got)

	_, err = ParseDateTime("2025-03-10", "18:30hr", time.UTC)
	require.Error(t, err)
	_, err = ParseDateTime("2025/03/10", "25:00hr", time.UTC)
	require.Error(t, err)
	_, err = ParseDateTime("2025/03/10", "1830", time.UTC)
	require.Error(t, err)
}

func TestMidnightOf_UsesLocation(t *testing.T) {
	loc := time.FixedZone("HST", -10*3600)
	instant := utc(2025, time.March, 10, 5, 0) // 2025-03-09 19:00 HST
	got := MidnightOf(instant, loc)
	require.Equal(t, time.Date(2025, time.March, 9, 0, 0, 0, 0, loc).Unix(), got.Unix())
}
