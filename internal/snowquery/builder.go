// Package snowquery turns an interpreted search into a ServiceNow encoded
// query plus the sysparm_* parameters that go with it.
package snowquery

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"snow-search/internal/extract"
	"snow-search/pkg/registry"
)

// Mode is the kind of filter a search resolved to.
type Mode string

const (
	ModeIdentifier Mode = "identifier"
	ModeDate       Mode = "date"
	ModeDefault    Mode = "default"
)

var (
	ErrUnknownMode       = errors.New("unknown query mode")
	ErrMissingRecordType = errors.New("record type is required")
	ErrMissingIdentifier = errors.New("identifier mode requires an identifier")
	ErrMissingDate       = errors.New("date mode requires a date")
	ErrInvalidLimit      = errors.New("max results must be at least 1")
)

// Spec is everything the builder needs for one request.
type Spec struct {
	Mode       Mode
	RecordType *registry.RecordType
	Identifier string
	Date       extract.Date
	MaxResults int
}

// FilterQuery is a fully built request against one table.
type FilterQuery struct {
	Table      string `json:"table"`
	Mode       Mode   `json:"mode"`
	Expression string `json:"expression"`
	Limit      int    `json:"limit"`
	SortField  string `json:"sortField"`
	OrderBy    string `json:"orderBy,omitempty"`
}

// Query is the value sent as sysparm_query: the filter expression and the
// ORDERBYDESC directive, joined with ^ and skipping empty parts.
func (q FilterQuery) Query() string {
	parts := make([]string, 0, 2)
	if q.Expression != "" {
		parts = append(parts, q.Expression)
	}
	if q.OrderBy != "" {
		parts = append(parts, "ORDERBYDESC"+q.OrderBy)
	}
	return strings.Join(parts, "^")
}

// Params encodes the query for the Table API.
func (q FilterQuery) Params() url.Values {
	params := url.Values{}
	params.Set("sysparm_query", q.Query())
	params.Set("sysparm_limit", strconv.Itoa(q.Limit))
	params.Set("sysparm_sortby_desc", q.SortField)
	return params
}

// Builder is stateless apart from the creation field name.
type Builder struct {
	createdField string
}

// NewBuilder returns a builder filtering and sorting on createdField
// (sys_created_on when empty).
func NewBuilder(createdField string) *Builder {
	if createdField == "" {
		createdField = "sys_created_on"
	}
	return &Builder{createdField: createdField}
}

func (b *Builder) Build(spec Spec) (FilterQuery, error) {
	if spec.RecordType == nil {
		return FilterQuery{}, ErrMissingRecordType
	}
	if spec.MaxResults < 1 {
		return FilterQuery{}, fmt.Errorf("%w: got %d", ErrInvalidLimit, spec.MaxResults)
	}

	q := FilterQuery{
		Table:     spec.RecordType.Table,
		Mode:      spec.Mode,
		Limit:     spec.MaxResults,
		SortField: b.createdField,
	}

	switch spec.Mode {
	case ModeIdentifier:
		if spec.Identifier == "" {
			return FilterQuery{}, ErrMissingIdentifier
		}
		q.Expression = "number=" + spec.Identifier

	case ModeDate:
		if spec.Date.IsZero() {
			return FilterQuery{}, ErrMissingDate
		}
		q.Expression = b.dateExpression(spec.RecordType, spec.Date)

	case ModeDefault:
		q.OrderBy = spec.RecordType.DefaultOrderBy

	default:
		return FilterQuery{}, fmt.Errorf("%w: %q", ErrUnknownMode, spec.Mode)
	}

	return q, nil
}

// dateExpression is the open-state OR chain AND the creation-day range, plus
// any excluded states.
func (b *Builder) dateExpression(rt *registry.RecordType, d extract.Date) string {
	clauses := make([]string, 0, 2+len(rt.ExcludedStates))

	if len(rt.OpenStates) > 0 {
		states := make([]string, len(rt.OpenStates))
		for i, st := range rt.OpenStates {
			states[i] = "state=" + st.Code
		}
		clauses = append(clauses, strings.Join(states, "^OR"))
	}

	clauses = append(clauses, fmt.Sprintf(
		"%sBETWEENjavascript:gs.dateGenerate('%s','00:00:00')@javascript:gs.dateGenerate('%s','00:00:00')",
		b.createdField, d, d.Next(),
	))

	for _, s := range rt.ExcludedStates {
		clauses = append(clauses, "state!="+s)
	}

	return strings.Join(clauses, "^")
}
