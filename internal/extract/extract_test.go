package extract

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"snow-search/pkg/registry"
)

func TestDateExtractor_Formats(t *testing.T) {
	e := NewDateExtractor(StopWordsWord)

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"iso", "incidents created on 2025-03-01", "2025-03-01"},
		{"slash month first", "problems from 3/1/2025", "2025-03-01"},
		{"slash two digit", "problems from 12/25/2025", "2025-12-25"},
		{"dash month first", "changes 12-25-2025", "2025-12-25"},
		{"full month", "incidents on 1 August 2025", "2025-08-01"},
		{"abbrev month", "incidents on 15 Aug 2025", "2025-08-15"},
		{"upper case month", "INCIDENTS ON 2 MARCH 2024", "2024-03-02"},
		{"first match wins", "between 2025-01-02 and 2025-01-05", "2025-01-02"},
		{"leap day", "incidents on 2024-02-29", "2024-02-29"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, ok, err := e.Extract(tt.input)
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, tt.want, d.String())
		})
	}
}

func TestDateExtractor_NoDate(t *testing.T) {
	e := NewDateExtractor(StopWordsWord)

	for _, input := range []string{
		"show me recent incidents",
		"show me CHG0012345",
		"",
		"incident 20250301",
	} {
		_, ok, err := e.Extract(input)
		assert.NoError(t, err, input)
		assert.False(t, ok, input)
	}
}

func TestDateExtractor_InvalidCalendarDate(t *testing.T) {
	e := NewDateExtractor(StopWordsWord)

	for _, input := range []string{
		"incidents on 2025-02-30",
		"incidents on 2025-13-01",
		"incidents on 2/29/2025",
		"incidents on 31 Apr 2025",
	} {
		_, ok, err := e.Extract(input)
		assert.False(t, ok, input)
		assert.ErrorIs(t, err, ErrInvalidDate, input)
	}
}

func TestDateExtractor_StopWordModes(t *testing.T) {
	word := NewDateExtractor(StopWordsWord)
	substring := NewDateExtractor(StopWordsSubstring)

	assert.Equal(t, "incidents  date 2025-03-01", word.clean("Incidents on date 2025-03-01"))
	assert.Equal(t, "cidents  de 2025-03-01", substring.clean("Incidents on date 2025-03-01"))

	// Dates themselves survive either mode.
	for _, e := range []*DateExtractor{word, substring} {
		d, ok, err := e.Extract("incidents on the 1 august 2025")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "2025-08-01", d.String())
	}
}

func TestDateExtractor_UnknownModeDefaultsToWord(t *testing.T) {
	e := NewDateExtractor("")
	assert.Equal(t, StopWordsWord, e.mode)
}

func TestDate(t *testing.T) {
	d, err := NewDate(2024, 12, 31)
	require.NoError(t, err)

	assert.Equal(t, "2024-12-31", d.String())
	assert.Equal(t, time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC), d.Start())
	assert.Equal(t, Date{Year: 2025, Month: time.January, Day: 1}, d.Next())
	assert.False(t, d.IsZero())
	assert.True(t, Date{}.IsZero())

	feb, err := NewDate(2023, 2, 28)
	require.NoError(t, err)
	assert.Equal(t, "2023-03-01", feb.Next().String())

	_, err = NewDate(2023, 0, 10)
	assert.ErrorIs(t, err, ErrInvalidDate)
	_, err = NewDate(2023, 4, 0)
	assert.ErrorIs(t, err, ErrInvalidDate)
}

func TestIdentifierExtractor(t *testing.T) {
	e := NewIdentifierExtractor([]string{"CHG"})

	tests := []struct {
		input  string
		want   string
		wantOK bool
	}{
		{"show me CHG0012345", "CHG0012345", true},
		{"details for CHG-123456 please", "CHG-123456", true},
		{"CHG123-456", "CHG123-456", true},
		{"look at (CHG0001).", "CHG0001", true},
		{"chg0012345", "", false},
		{"XCHG0012345", "", false},
		{"CHG", "", false},
		{"no identifier here", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := e.Extract(tt.input)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIdentifierExtractor_Idempotent(t *testing.T) {
	e := NewIdentifierExtractor([]string{"INC", "CHG"})

	for _, input := range []string{"CHG0012345", "see CHG123-456 now", "INC-77"} {
		first, ok := e.Extract(input)
		require.True(t, ok)
		second, ok := e.Extract("the ticket " + first + " again")
		require.True(t, ok)
		assert.Equal(t, first, second)
	}
}

func TestIdentifierExtractor_MultiplePrefixes(t *testing.T) {
	e := NewIdentifierExtractor([]string{"INC", "", "RITM"})

	got, ok := e.Extract("ticket RITM0010001")
	require.True(t, ok)
	assert.Equal(t, "RITM0010001", got)
}

func TestResolver(t *testing.T) {
	r := NewResolver(registry.Default())

	tests := []struct {
		input string
		want  string
	}{
		{"incidents created on 2025-03-01", "incident"},
		{"Show me recent INCIDENTS", "incident"},
		{"problems from 3/1/2025", "problem"},
		{"open change requests", "change_request"},
		{"any changes today", "change_request"},
		{"show me CHG0012345", "change_request"},
		{"look up INC0000042", "incident"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			rt := r.Resolve(tt.input)
			require.NotNil(t, rt)
			assert.Equal(t, tt.want, rt.Table)
		})
	}
}

func TestResolver_NoMatch(t *testing.T) {
	r := NewResolver(registry.Default())

	assert.Nil(t, r.Resolve("show me everything from last week"))
	assert.Nil(t, r.Resolve("a coincidental exchange"))
	assert.Nil(t, r.Resolve(""))
}

func TestResolver_LongerSynonymWins(t *testing.T) {
	reg := &registry.RecordTypeRegistry{RecordTypes: []registry.RecordType{
		{Table: "task", Synonyms: []string{"task"}},
		{Table: "sc_task", Synonyms: []string{"catalog task"}},
	}}
	r := NewResolver(reg)

	rt := r.Resolve("open catalog task items")
	require.NotNil(t, rt)
	assert.Equal(t, "sc_task", rt.Table)

	rt = r.Resolve("open task items")
	require.NotNil(t, rt)
	assert.Equal(t, "task", rt.Table)
}
