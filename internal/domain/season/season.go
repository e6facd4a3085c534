package season

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	ErrUnparseableDate     = errors.New("unparseable date")
	ErrInvalidSeasonFormat = errors.New("invalid season format")
)

// CutoverMonth is the month a new cross-year season starts. A date on July 1
// already belongs to the new season. This is a league-policy constant, not
// something derivable from the date itself.
const CutoverMonth = time.July

// dateFormats is the fixed priority order for ParseDate. The first format
// that parses strictly wins.
var dateFormats = []string{
	"2006-01-02",
	"02-01-2006",
	"02/01/2006",
	"2006/01/02",
	"2 January 2006",
	"January 2, 2006",
}

// CalendarDate is a concrete Gregorian date with no time or zone component.
type CalendarDate struct {
	Year  int
	Month time.Month
	Day   int
}

func (d CalendarDate) IsZero() bool {
	return d.Year == 0 && d.Month == 0 && d.Day == 0
}

// String renders the canonical provider form (YYYY-MM-DD).
func (d CalendarDate) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

func DateOf(t time.Time) CalendarDate {
	return CalendarDate{Year: t.Year(), Month: t.Month(), Day: t.Day()}
}

// ParseDate converts one of the recognized date spellings into a
// CalendarDate. Invalid calendar dates (Apr 31) fail even when the shape
// matches a format.
func ParseDate(text string) (CalendarDate, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return CalendarDate{}, fmt.Errorf("%w: empty input", ErrUnparseableDate)
	}

	for _, layout := range dateFormats {
		parsed, err := time.Parse(layout, trimmed)
		if err != nil {
			continue
		}
		return DateOf(parsed), nil
	}

	return CalendarDate{}, fmt.Errorf("%w: %q", ErrUnparseableDate, text)
}

type CompetitionKind string

const (
	// CrossYear covers competitions whose season spans two calendar years
	// (European domestic leagues, UEFA competitions).
	CrossYear CompetitionKind = "cross_year"
	// CalendarYear covers competitions that run inside one calendar year.
	CalendarYear CompetitionKind = "calendar_year"
)

// Label is a season identifier. Cross-year seasons have EndYear = StartYear+1;
// calendar-year seasons have EndYear = StartYear. A Label is always derived,
// never built from raw user text.
type Label struct {
	StartYear int
	EndYear   int
}

func (l Label) IsZero() bool {
	return l.StartYear == 0 && l.EndYear == 0
}

func (l Label) String() string {
	if l.EndYear == l.StartYear {
		return strconv.Itoa(l.StartYear)
	}
	return fmt.Sprintf("%d/%02d", l.StartYear, l.EndYear%100)
}

// DeduceSeason maps a date onto the season it falls into. For cross-year
// competitions the cutover is CutoverMonth 1: July–December belong to
// (y, y+1), January–June to (y-1, y).
func DeduceSeason(date CalendarDate, kind CompetitionKind) Label {
	if kind == CalendarYear {
		return Label{StartYear: date.Year, EndYear: date.Year}
	}

	if date.Month >= CutoverMonth {
		return Label{StartYear: date.Year, EndYear: date.Year + 1}
	}
	return Label{StartYear: date.Year - 1, EndYear: date.Year}
}

var seasonPairRegex = regexp.MustCompile(`^(\d{2}|\d{4})\s*[/-]\s*(\d{2}|\d{4})$`)
var seasonYearRegex = regexp.MustCompile(`^\d{4}$`)

// ParseSeasonLabel accepts shorthand season spellings: "23/24", "2023/24",
// "2023/2024", "2023-2024", or a bare "2023". Two-digit years always resolve
// to the 2000s. A pair whose years are not consecutive is rejected rather
// than silently accepted.
func ParseSeasonLabel(text string) (Label, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return Label{}, fmt.Errorf("%w: empty input", ErrInvalidSeasonFormat)
	}

	if seasonYearRegex.MatchString(trimmed) {
		year, _ := strconv.Atoi(trimmed)
		return Label{StartYear: year, EndYear: year}, nil
	}

	match := seasonPairRegex.FindStringSubmatch(trimmed)
	if match == nil {
		return Label{}, fmt.Errorf("%w: %q", ErrInvalidSeasonFormat, text)
	}

	start := expandYear(match[1])
	end := expandYear(match[2])
	if end != start+1 {
		return Label{}, fmt.Errorf("%w: %q years are not consecutive", ErrInvalidSeasonFormat, text)
	}

	return Label{StartYear: start, EndYear: end}, nil
}

func expandYear(raw string) int {
	year, _ := strconv.Atoi(raw)
	if len(raw) == 2 {
		return 2000 + year
	}
	return year
}
