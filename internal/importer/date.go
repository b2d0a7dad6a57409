package importer

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	isoDateRegex = regexp.MustCompile(`^(\d{4})[-/.](\d{1,2})[-/.](\d{1,2})$`)
	euDateRegex  = regexp.MustCompile(`^(\d{1,2})[-/.](\d{1,2})[-/.](\d{4})$`)
)

// ParseDate parses Y-M-D or D-M-Y dates with -, / or . separators. Values
// that do not name a real calendar day are rejected.
func ParseDate(raw string) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, false
	}
	if m := isoDateRegex.FindStringSubmatch(s); m != nil {
		return makeDate(m[1], m[2], m[3])
	}
	if m := euDateRegex.FindStringSubmatch(s); m != nil {
		return makeDate(m[3], m[2], m[1])
	}
	return time.Time{}, false
}

func makeDate(y, m, d string) (time.Time, bool) {
	year, _ := strconv.Atoi(y)
	month, _ := strconv.Atoi(m)
	day, _ := strconv.Atoi(d)
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || int(t.Month()) != month || t.Day() != day {
		return time.Time{}, false
	}
	return t, true
}
