// Package extract implements heuristic entity recognition over chunk text.
// It is a best-effort pattern pass: false positives and negatives are
// acceptable, determinism is not negotiable.
package extract

import "regexp"

const (
	TypeProperNoun = "proper_noun"
	TypeTicker     = "ticker"
	TypeMention    = "mention"
	TypeURL        = "url"
	TypeEmail      = "email"
	TypeMetric     = "metric"
)

// Entity is a named, typed mention found in a piece of text.
type Entity struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

type pattern struct {
	re         *regexp.Regexp
	entityType string
}

// Recognition rules are applied independently; a span may match more than one
// rule and all matches are kept.
var patterns = []pattern{
	// Two or more consecutive capitalized words.
	{regexp.MustCompile(`\b[A-Z][a-z]+(?:\s+[A-Z][a-z]+)+\b`), TypeProperNoun},
	// $TICKER symbols, stored with the leading dollar sign.
	{regexp.MustCompile(`\$[A-Z]{2,10}\b`), TypeTicker},
	// @mentions, stored with the leading at-sign.
	{regexp.MustCompile(`@\w{2,30}\b`), TypeMention},
	{regexp.MustCompile(`https?://[^\s<>"]+`), TypeURL},
	{regexp.MustCompile(`[\w.+-]+@[\w-]+\.[\w.-]+`), TypeEmail},
	// Dollar amounts (optional K/M/B suffix) and percentages.
	{regexp.MustCompile(`\$[\d,.]+[KMBkmb]?|\d+\.?\d*%`), TypeMetric},
}

// Entities returns the distinct (name, type) pairs found in text, in
// first-seen order.
func Entities(text string) []Entity {
	if text == "" {
		return nil
	}
	var found []Entity
	seen := make(map[Entity]struct{})
	for _, p := range patterns {
		for _, m := range p.re.FindAllString(text, -1) {
			e := Entity{Name: m, Type: p.entityType}
			if _, dup := seen[e]; dup {
				continue
			}
			seen[e] = struct{}{}
			found = append(found, e)
		}
	}
	return found
}
