// pkg/registry/registry.go
package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
)

var (
	ErrEmptyRegistry    = errors.New("registry has no record types")
	ErrDuplicateTable   = errors.New("duplicate table")
	ErrDuplicateSynonym = errors.New("synonym mapped to more than one record type")
)

// LoadRegistry reads a registry from a JSON file and validates it.
func LoadRegistry(path string) (*RecordTypeRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var reg RecordTypeRegistry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("decode registry %s: %w", path, err)
	}
	if err := reg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid registry %s: %w", path, err)
	}
	return &reg, nil
}

// Default returns the built-in record types.
func Default() *RecordTypeRegistry {
	return &RecordTypeRegistry{
		Version:     "1.0.0",
		LastUpdated: "2025-03-01",
		RecordTypes: []RecordType{
			{
				Key:                "incident",
				Table:              "incident",
				DisplayName:        "incident",
				Synonyms:           []string{"incident"},
				IdentifierPrefixes: []string{"INC"},
				OpenStates: []State{
					{Name: "new", Code: "1"},
					{Name: "active", Code: "2"},
					{Name: "pending", Code: "3"},
				},
			},
			{
				Key:                "problem",
				Table:              "problem",
				DisplayName:        "problem",
				Synonyms:           []string{"problem"},
				IdentifierPrefixes: []string{"PRB"},
				OpenStates: []State{
					{Name: "new", Code: "1"},
					{Name: "known_error", Code: "2"},
					{Name: "resolved", Code: "3"},
					{Name: "closed", Code: "4"},
				},
			},
			{
				Key:                "change",
				Table:              "change_request",
				DisplayName:        "change",
				Synonyms:           []string{"change", "change request", "change requests"},
				IdentifierPrefixes: []string{"CHG"},
				OpenStates: []State{
					{Name: "new", Code: "1"},
					{Name: "planned", Code: "2"},
					{Name: "scheduled", Code: "3"},
					{Name: "implemented", Code: "4"},
				},
				ExcludedStates: []string{"closed", "cancelled"},
				DefaultOrderBy: "opened_at",
			},
		},
	}
}

// Validate checks that every synonym maps to exactly one record type and that
// tables are unique.
func (r *RecordTypeRegistry) Validate() error {
	if len(r.RecordTypes) == 0 {
		return ErrEmptyRegistry
	}

	tables := make(map[string]bool)
	synonyms := make(map[string]string)
	for i, rt := range r.RecordTypes {
		if rt.Table == "" {
			return fmt.Errorf("recordTypes[%d]: table is required", i)
		}
		if tables[rt.Table] {
			return fmt.Errorf("%w: %s", ErrDuplicateTable, rt.Table)
		}
		tables[rt.Table] = true

		if len(rt.Synonyms) == 0 && len(rt.IdentifierPrefixes) == 0 {
			return fmt.Errorf("recordTypes[%d] (%s): at least one synonym or identifier prefix is required", i, rt.Table)
		}
		for _, s := range rt.Synonyms {
			key := strings.ToLower(strings.TrimSpace(s))
			if key == "" {
				return fmt.Errorf("recordTypes[%d] (%s): empty synonym", i, rt.Table)
			}
			if owner, ok := synonyms[key]; ok && owner != rt.Table {
				return fmt.Errorf("%w: %q (%s, %s)", ErrDuplicateSynonym, key, owner, rt.Table)
			}
			synonyms[key] = rt.Table
		}
		for _, st := range rt.OpenStates {
			if st.Code == "" {
				return fmt.Errorf("recordTypes[%d] (%s): state %q has no code", i, rt.Table, st.Name)
			}
		}
	}
	return nil
}

// Lookup finds a record type by table name.
func (r *RecordTypeRegistry) Lookup(table string) (*RecordType, bool) {
	for i := range r.RecordTypes {
		if r.RecordTypes[i].Table == table {
			return &r.RecordTypes[i], true
		}
	}
	return nil, false
}

// GuidanceMessage is shown when a query names no known record type,
// e.g. "Please specify ticket type (incident, problem, or change)".
func (r *RecordTypeRegistry) GuidanceMessage() string {
	names := make([]string, 0, len(r.RecordTypes))
	for _, rt := range r.RecordTypes {
		name := rt.DisplayName
		if name == "" {
			name = rt.Table
		}
		names = append(names, name)
	}

	var list string
	switch len(names) {
	case 1:
		list = names[0]
	case 2:
		list = names[0] + " or " + names[1]
	default:
		list = strings.Join(names[:len(names)-1], ", ") + ", or " + names[len(names)-1]
	}
	return fmt.Sprintf("Please specify ticket type (%s)", list)
}

// Save writes the registry as indented JSON.
func (r *RecordTypeRegistry) Save(path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
