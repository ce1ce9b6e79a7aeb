package extract

import (
	"regexp"
	"sort"
	"strings"

	"snow-search/pkg/registry"
)

type synonymMatcher struct {
	recordType *registry.RecordType
	synonym    string
	re         *regexp.Regexp
}

type prefixMatcher struct {
	recordType *registry.RecordType
	extractor  *IdentifierExtractor
}

// Resolver decides which record type a query is about.
//
// Synonyms are checked longest first, case-insensitively and on word
// boundaries, so "incidents" resolves but "coincidental" does not. When no
// synonym matches, an identifier prefix such as CHG in "show me CHG0012345"
// is enough to pick the type.
type Resolver struct {
	synonyms []synonymMatcher
	prefixes []prefixMatcher
}

func NewResolver(reg *registry.RecordTypeRegistry) *Resolver {
	r := &Resolver{}
	for i := range reg.RecordTypes {
		rt := &reg.RecordTypes[i]
		for _, s := range rt.Synonyms {
			s = strings.TrimSpace(s)
			if s == "" {
				continue
			}
			r.synonyms = append(r.synonyms, synonymMatcher{
				recordType: rt,
				synonym:    s,
				re:         synonymPattern(s),
			})
		}
		if len(rt.IdentifierPrefixes) > 0 {
			r.prefixes = append(r.prefixes, prefixMatcher{
				recordType: rt,
				extractor:  NewIdentifierExtractor(rt.IdentifierPrefixes),
			})
		}
	}

	// Stable keeps registry order among synonyms of equal length.
	sort.SliceStable(r.synonyms, func(i, j int) bool {
		return len(r.synonyms[i].synonym) > len(r.synonyms[j].synonym)
	})
	return r
}

// Resolve returns the record type named by text, or nil.
func (r *Resolver) Resolve(text string) *registry.RecordType {
	for _, m := range r.synonyms {
		if m.re.MatchString(text) {
			return m.recordType
		}
	}
	for _, p := range r.prefixes {
		if _, ok := p.extractor.Extract(text); ok {
			return p.recordType
		}
	}
	return nil
}

// synonymPattern matches a synonym as whole words with an optional plural
// ending. Internal whitespace in the synonym matches any run of whitespace.
func synonymPattern(synonym string) *regexp.Regexp {
	words := strings.Fields(synonym)
	for i, w := range words {
		words[i] = regexp.QuoteMeta(w)
	}
	return regexp.MustCompile(`(?i)\b` + strings.Join(words, `\s+`) + `(?:s|es)?\b`)
}
