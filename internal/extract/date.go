// Package extract pulls record types, ticket identifiers and dates out of
// free-text search queries. Everything here is deterministic regex and keyword
// matching; the same input always yields the same output.
package extract

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidDate is returned when text matched a date pattern but the
// components do not form a real calendar date.
var ErrInvalidDate = errors.New("invalid calendar date")

// Date is a calendar day without time or zone.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// NewDate validates the components against the calendar.
func NewDate(year, month, day int) (Date, error) {
	if month < 1 || month > 12 || day < 1 {
		return Date{}, fmt.Errorf("%w: %04d-%02d-%02d", ErrInvalidDate, year, month, day)
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || int(t.Month()) != month || t.Day() != day {
		return Date{}, fmt.Errorf("%w: %04d-%02d-%02d", ErrInvalidDate, year, month, day)
	}
	return Date{Year: year, Month: time.Month(month), Day: day}, nil
}

// String returns the ISO form YYYY-MM-DD.
func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// Start is midnight UTC at the beginning of the day.
func (d Date) Start() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// Next returns the following calendar day.
func (d Date) Next() Date {
	t := d.Start().AddDate(0, 0, 1)
	return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}
}

// IsZero reports whether d is the zero Date.
func (d Date) IsZero() bool {
	return d == Date{}
}

// StopWordMode selects how filler words are removed before date matching.
type StopWordMode string

const (
	// StopWordsWord removes whole words only.
	StopWordsWord StopWordMode = "word"
	// StopWordsSubstring removes every occurrence, even inside other words
	// ("incidents" becomes "cidents"). Kept for parity with older clients.
	StopWordsSubstring StopWordMode = "substring"
)

var stopWords = []string{"on", "in", "at", "the"}

var stopWordPattern = regexp.MustCompile(`\b(?:on|in|at|the)\b`)

const (
	fullMonths  = `january|february|march|april|may|june|july|august|september|october|november|december`
	shortMonths = `jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec`
)

var monthNumbers = map[string]int{
	"jan": 1, "january": 1,
	"feb": 2, "february": 2,
	"mar": 3, "march": 3,
	"apr": 4, "april": 4,
	"may": 5,
	"jun": 6, "june": 6,
	"jul": 7, "july": 7,
	"aug": 8, "august": 8,
	"sep": 9, "september": 9,
	"oct": 10, "october": 10,
	"nov": 11, "november": 11,
	"dec": 12, "december": 12,
}

// datePattern pairs a regex with the mapping from its capture groups to
// (year, month, day). Groups are always read by position, never reordered
// as strings.
type datePattern struct {
	name      string
	re        *regexp.Regexp
	normalize func(m []string) (year, month, day int)
}

// defaultDatePatterns are tried in order; the first one that matches anywhere
// in the cleaned text wins.
var defaultDatePatterns = []datePattern{
	{
		name: "iso",
		re:   regexp.MustCompile(`\b(\d{4})-(\d{2})-(\d{2})\b`),
		normalize: func(m []string) (int, int, int) {
			return atoi(m[1]), atoi(m[2]), atoi(m[3])
		},
	},
	{
		name: "slash",
		re:   regexp.MustCompile(`\b(\d{1,2})/(\d{1,2})/(\d{4})\b`),
		normalize: func(m []string) (int, int, int) {
			return atoi(m[3]), atoi(m[1]), atoi(m[2])
		},
	},
	{
		name: "dash",
		re:   regexp.MustCompile(`\b(\d{1,2})-(\d{1,2})-(\d{4})\b`),
		normalize: func(m []string) (int, int, int) {
			return atoi(m[3]), atoi(m[1]), atoi(m[2])
		},
	},
	{
		name: "month-name",
		re:   regexp.MustCompile(`(?i)\b(\d{1,2})\s+(` + fullMonths + `)\s+(\d{4})\b`),
		normalize: func(m []string) (int, int, int) {
			return atoi(m[3]), monthNumbers[strings.ToLower(m[2])], atoi(m[1])
		},
	},
	{
		name: "month-abbrev",
		re:   regexp.MustCompile(`(?i)\b(\d{1,2})\s+(` + shortMonths + `)\s+(\d{4})\b`),
		normalize: func(m []string) (int, int, int) {
			return atoi(m[3]), monthNumbers[strings.ToLower(m[2])], atoi(m[1])
		},
	},
}

// DateExtractor finds the first date expression in a query.
type DateExtractor struct {
	mode     StopWordMode
	patterns []datePattern
}

func NewDateExtractor(mode StopWordMode) *DateExtractor {
	if mode != StopWordsSubstring {
		mode = StopWordsWord
	}
	return &DateExtractor{
		mode:     mode,
		patterns: defaultDatePatterns,
	}
}

// Extract returns the first date found in text.
//
// ok is false with a nil error when nothing date-like is present. When a
// pattern matched but the result is not a calendar date, ok is false and the
// error wraps ErrInvalidDate.
func (e *DateExtractor) Extract(text string) (Date, bool, error) {
	cleaned := e.clean(text)

	for _, p := range e.patterns {
		m := p.re.FindStringSubmatch(cleaned)
		if m == nil {
			continue
		}
		year, month, day := p.normalize(m)
		date, err := NewDate(year, month, day)
		if err != nil {
			return Date{}, false, fmt.Errorf("%s date %q: %w", p.name, m[0], err)
		}
		return date, true, nil
	}

	return Date{}, false, nil
}

// clean lowercases text and strips stop-words according to the mode.
func (e *DateExtractor) clean(text string) string {
	cleaned := strings.ToLower(text)
	if e.mode == StopWordsSubstring {
		for _, w := range stopWords {
			cleaned = strings.ReplaceAll(cleaned, w, "")
		}
		return cleaned
	}
	return stopWordPattern.ReplaceAllString(cleaned, "")
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
