package extract

import (
	"fmt"
	"regexp"
)

// identifierShapes are tried most specific first so that "CHG123-456" is not
// cut short to "CHG123". %s is the quoted prefix.
var identifierShapes = []string{
	`\b%s\d+-\d+\b`, // CHG123-456
	`\b%s-\d+\b`,    // CHG-123456
	`\b%s\d+\b`,     // CHG0012345
}

// IdentifierExtractor finds ticket numbers such as CHG0012345 in free text.
// Prefixes are matched case-sensitively and the match is returned verbatim.
type IdentifierExtractor struct {
	patterns []*regexp.Regexp
}

func NewIdentifierExtractor(prefixes []string) *IdentifierExtractor {
	patterns := make([]*regexp.Regexp, 0, len(prefixes)*len(identifierShapes))
	for _, shape := range identifierShapes {
		for _, prefix := range prefixes {
			if prefix == "" {
				continue
			}
			patterns = append(patterns, regexp.MustCompile(fmt.Sprintf(shape, regexp.QuoteMeta(prefix))))
		}
	}
	return &IdentifierExtractor{patterns: patterns}
}

// Extract returns the first identifier found, in shape priority order.
func (e *IdentifierExtractor) Extract(text string) (string, bool) {
	for _, re := range e.patterns {
		if m := re.FindString(text); m != "" {
			return m, true
		}
	}
	return "", false
}
