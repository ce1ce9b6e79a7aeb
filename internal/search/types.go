package search

import (
	"context"
	"encoding/json"
	"net/url"

	"snow-search/internal/common/servicenow"
	"snow-search/internal/snowquery"
)

// Request is one free-text search. MaxResults 0 means the configured default.
type Request struct {
	Query      string `json:"searchQuery"`
	MaxResults int    `json:"maxResults"`
}

// Result is the envelope returned for every search, successful or not.
type Result struct {
	Success bool                     `json:"success"`
	Data    []map[string]interface{} `json:"data,omitempty"`
	Error   string                   `json:"error,omitempty"`
}

// MarshalJSON always emits "data" on success, even when no rows matched.
func (r Result) MarshalJSON() ([]byte, error) {
	if r.Success {
		data := r.Data
		if data == nil {
			data = []map[string]interface{}{}
		}
		return json.Marshal(struct {
			Success bool                     `json:"success"`
			Data    []map[string]interface{} `json:"data"`
		}{true, data})
	}
	return json.Marshal(struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}{false, r.Error})
}

// Plan describes how a request was interpreted, without running it.
type Plan struct {
	RecordType  string                `json:"recordType"`
	Mode        snowquery.Mode        `json:"mode"`
	Identifier  string                `json:"identifier,omitempty"`
	Date        string                `json:"date,omitempty"`
	DateWarning string                `json:"dateWarning,omitempty"`
	Query       snowquery.FilterQuery `json:"query"`
	Params      url.Values            `json:"params"`
}

// Store runs a built query against the record store.
type Store interface {
	Query(ctx context.Context, table string, params url.Values) ([]servicenow.Record, error)
}

// Options are the tunables of a Service.
type Options struct {
	DefaultMaxResults int
	// InvalidDatePolicy is "fallback" (search without the date) or "reject".
	InvalidDatePolicy string
	StopWords         string
	CreatedField      string
}
