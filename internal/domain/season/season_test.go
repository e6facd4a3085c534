package season

import (
	"errors"
	"testing"
	"time"
)

func TestParseDate_AcceptedFormatsAgree(t *testing.T) {
	t.Parallel()

	want := CalendarDate{Year: 2023, Month: time.August, Day: 15}
	inputs := []string{
		"2023-08-15",
		"15-08-2023",
		"15/08/2023",
		"2023/08/15",
		"15 August 2023",
		"August 15, 2023",
	}

	for _, input := range inputs {
		got, err := ParseDate(input)
		if err != nil {
			t.Fatalf("parse %q: %v", input, err)
		}
		if got != want {
			t.Fatalf("parse %q: got %+v, want %+v", input, got, want)
		}
	}
}

func TestParseDate_RejectsImpossibleDates(t *testing.T) {
	t.Parallel()

	for _, input := range []string{"32-13-2024", "2023-04-31", "not a date", ""} {
		if _, err := ParseDate(input); !errors.Is(err, ErrUnparseableDate) {
			t.Fatalf("expected ErrUnparseableDate for %q, got %v", input, err)
		}
	}
}

func TestDeduceSeason_CutoverBoundary(t *testing.T) {
	t.Parallel()

	june30 := CalendarDate{Year: 2024, Month: time.June, Day: 30}
	july1 := CalendarDate{Year: 2024, Month: time.July, Day: 1}

	if got := DeduceSeason(june30, CrossYear); got != (Label{StartYear: 2023, EndYear: 2024}) {
		t.Fatalf("June 30 should close the 2023/24 season, got %+v", got)
	}
	if got := DeduceSeason(july1, CrossYear); got != (Label{StartYear: 2024, EndYear: 2025}) {
		t.Fatalf("July 1 should open the 2024/25 season, got %+v", got)
	}
}

func TestDeduceSeason_CalendarYear(t *testing.T) {
	t.Parallel()

	date := CalendarDate{Year: 2024, Month: time.March, Day: 10}
	if got := DeduceSeason(date, CalendarYear); got != (Label{StartYear: 2024, EndYear: 2024}) {
		t.Fatalf("unexpected calendar-year season: %+v", got)
	}
}

func TestParseSeasonLabel(t *testing.T) {
	t.Parallel()

	t.Run("accepted spellings agree", func(t *testing.T) {
		want := Label{StartYear: 2023, EndYear: 2024}
		for _, input := range []string{"23/24", "2023/24", "2023/2024", "2023-2024", "23-24"} {
			got, err := ParseSeasonLabel(input)
			if err != nil {
				t.Fatalf("parse %q: %v", input, err)
			}
			if got != want {
				t.Fatalf("parse %q: got %+v, want %+v", input, got, want)
			}
		}
	})

	t.Run("bare year", func(t *testing.T) {
		got, err := ParseSeasonLabel("2023")
		if err != nil {
			t.Fatalf("parse bare year: %v", err)
		}
		if got != (Label{StartYear: 2023, EndYear: 2023}) {
			t.Fatalf("unexpected label: %+v", got)
		}
	})

	t.Run("non-consecutive pair rejected", func(t *testing.T) {
		if _, err := ParseSeasonLabel("23/25"); !errors.Is(err, ErrInvalidSeasonFormat) {
			t.Fatalf("expected ErrInvalidSeasonFormat, got %v", err)
		}
	})

	t.Run("garbage rejected", func(t *testing.T) {
		for _, input := range []string{"", "last season", "23/2024/25"} {
			if _, err := ParseSeasonLabel(input); !errors.Is(err, ErrInvalidSeasonFormat) {
				t.Fatalf("expected ErrInvalidSeasonFormat for %q, got %v", input, err)
			}
		}
	})
}

func TestLabelString(t *testing.T) {
	t.Parallel()

	if got := (Label{StartYear: 2023, EndYear: 2024}).String(); got != "2023/24" {
		t.Fatalf("unexpected cross-year label: %q", got)
	}
	if got := (Label{StartYear: 2024, EndYear: 2024}).String(); got != "2024" {
		t.Fatalf("unexpected calendar-year label: %q", got)
	}
}
