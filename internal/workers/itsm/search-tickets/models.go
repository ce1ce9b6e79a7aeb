// internal/workers/itsm/search-tickets/models.go
package searchtickets

import "snow-search/internal/search"

type Input struct {
	SearchQuery string `json:"searchQuery"`
	MaxResults  int    `json:"maxResults"`
}

// Output is completed onto the job as {success, data} or {success, error}.
type Output = search.Result
