package evidence

import (
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Plausible permit years. Anything outside is treated as a data error.
const (
	MinPermitYear = 1980
	MaxPermitYear = 2030
)

// Permit date field names, in the order they are tried.
const (
	DateFieldIssue = "issue_date"
	DateFieldStart = "start_date"
	DateFieldEnd   = "end_date"
	DateFieldFile  = "file_date"
)

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05.000",
	time.DateTime,
	time.DateOnly,
	"01/02/2006",
	"1/2/2006",
	"2006/01/02",
	"Jan 2, 2006",
	"January 2, 2006",
	"20060102",
}

// PermitDateResult is the date chosen for a permit.
type PermitDateResult struct {
	Date  time.Time
	Year  int
	Field string
}

// PermitDate picks the first candidate date (issue, start, end, filing) that
// parses and whose year falls within [MinPermitYear, MaxPermitYear]. Dates
// outside that range are logged and skipped.
func PermitDate(p Permit) (PermitDateResult, bool) {
	candidates := []struct {
		field string
		raw   string
	}{
		{DateFieldIssue, p.IssueDate},
		{DateFieldStart, p.StartDate},
		{DateFieldEnd, p.EndDate},
		{DateFieldFile, p.FileDate},
	}
	for _, c := range candidates {
		if strings.TrimSpace(c.raw) == "" {
			continue
		}
		t, ok := parseDate(c.raw)
		if !ok {
			zap.L().Debug("evidence: unparseable permit date",
				zap.String("permit_id", p.ID),
				zap.String("field", c.field),
				zap.String("raw", c.raw),
			)
			continue
		}
		if y := t.Year(); y < MinPermitYear || y > MaxPermitYear {
			zap.L().Warn("evidence: permit date out of range, skipping field",
				zap.String("permit_id", p.ID),
				zap.String("field", c.field),
				zap.Int("year", y),
			)
			continue
		}
		return PermitDateResult{Date: t, Year: t.Year(), Field: c.field}, true
	}
	return PermitDateResult{}, false
}

func parseDate(raw string) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	// Bare years and unix timestamps (seconds or milliseconds).
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		switch {
		case n >= 1000 && n <= 9999:
			return time.Date(int(n), time.January, 1, 0, 0, 0, 0, time.UTC), true
		case n > 1e11:
			return time.UnixMilli(n).UTC(), true
		case n > 0:
			return time.Unix(n, 0).UTC(), true
		}
	}
	return time.Time{}, false
}
