// pkg/registry/schema.go
package registry

// RecordTypeRegistry is the table of record types the search understands.
type RecordTypeRegistry struct {
	Version     string       `json:"version"`
	LastUpdated string       `json:"lastUpdated"`
	RecordTypes []RecordType `json:"recordTypes"`
}

// RecordType maps natural-language nouns and identifier prefixes to a store table.
type RecordType struct {
	Key         string `json:"key"`
	Table       string `json:"table"`
	DisplayName string `json:"displayName"`

	// Synonyms are matched case-insensitively on word boundaries.
	Synonyms []string `json:"synonyms"`

	// IdentifierPrefixes are matched case-sensitively, e.g. "CHG".
	IdentifierPrefixes []string `json:"identifierPrefixes"`

	// OpenStates are OR-ed together in date searches, in order.
	OpenStates []State `json:"openStates"`

	// ExcludedStates are appended as state!=<value> in date searches.
	ExcludedStates []string `json:"excludedStates,omitempty"`

	// DefaultOrderBy adds an ORDERBYDESC directive in default searches.
	DefaultOrderBy string `json:"defaultOrderBy,omitempty"`
}

type State struct {
	Name string `json:"name"`
	Code string `json:"code"`
}
