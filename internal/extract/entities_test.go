package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEntitiesEmptyText(t *testing.T) {
	assert.Nil(t, Entities(""))
}

func TestEntitiesTickersAndMentions(t *testing.T) {
	found := Entities("MemoryAI tracks $AAPL and $TSLA trends. @analyst_jane covers both.")
	assert.Equal(t, []Entity{
		{Name: "$AAPL", Type: TypeTicker},
		{Name: "$TSLA", Type: TypeTicker},
		{Name: "@analyst_jane", Type: TypeMention},
	}, found)
}

func TestEntitiesProperNouns(t *testing.T) {
	found := Entities("Alice Smith met Bob Jones in Berlin")
	assert.Contains(t, found, Entity{Name: "Alice Smith", Type: TypeProperNoun})
	assert.Contains(t, found, Entity{Name: "Bob Jones", Type: TypeProperNoun})
	// Single capitalized words are too noisy to count.
	assert.NotContains(t, found, Entity{Name: "Berlin", Type: TypeProperNoun})
}

func TestEntitiesURLAndEmail(t *testing.T) {
	found := Entities("see https://example.com/docs or write to bob@example.com")
	assert.Contains(t, found, Entity{Name: "https://example.com/docs", Type: TypeURL})
	assert.Contains(t, found, Entity{Name: "bob@example.com", Type: TypeEmail})
}

func TestEntitiesMetrics(t *testing.T) {
	found := Entities("revenue up 12.5% to $3,000 with a $2B backlog")
	assert.Contains(t, found, Entity{Name: "12.5%", Type: TypeMetric})
	assert.Contains(t, found, Entity{Name: "$3,000", Type: TypeMetric})
	assert.Contains(t, found, Entity{Name: "$2B", Type: TypeMetric})
}

func TestEntitiesPressReleaseText(t *testing.T) {
	found := Entities("Apple Inc announced $500M revenue, up 12.5%. Contact: press@apple.com, see https://apple.com/news, cc @AppleNews")
	assert.Contains(t, found, Entity{Name: "Apple Inc", Type: TypeProperNoun})
	assert.Contains(t, found, Entity{Name: "$500M", Type: TypeMetric})
	assert.Contains(t, found, Entity{Name: "12.5%", Type: TypeMetric})
	assert.Contains(t, found, Entity{Name: "press@apple.com", Type: TypeEmail})
	assert.Contains(t, found, Entity{Name: "@AppleNews", Type: TypeMention})
	// URL capture runs to the next whitespace or quote, so punctuation glued
	// to the link is kept.
	assert.Contains(t, found, Entity{Name: "https://apple.com/news,", Type: TypeURL})
	assert.NotContains(t, found, Entity{Name: "https://apple.com/news", Type: TypeURL})
}

func TestEntitiesDeduplicated(t *testing.T) {
	found := Entities("$AAPL rose, then $AAPL fell")
	assert.Equal(t, []Entity{{Name: "$AAPL", Type: TypeTicker}}, found)
}

func TestEntitiesFirstSeenOrderStable(t *testing.T) {
	text := "Jane Doe mentioned $MSFT and @someone"
	assert.Equal(t, Entities(text), Entities(text))
}
