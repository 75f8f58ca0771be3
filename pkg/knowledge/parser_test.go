package knowledge_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/knowbase/knowbase-go/pkg/knowledge"
)

func TestParseWellFormedArray(t *testing.T) {
	p := knowledge.NewParser(nil)

	items := p.Parse(`[
		{"topic": "Databases", "content": "PostgreSQL 16 is used in production", "keywords": ["postgres", "production"], "importance_score": 8},
		{"topic": "Deploys", "content": "Releases ship on Fridays", "keywords": ["release"], "importance_score": 4}
	]`)

	require.Len(t, items, 2)
	assert.Equal(t, "Databases", items[0].Topic)
	assert.Equal(t, "PostgreSQL 16 is used in production", items[0].Content)
	assert.Equal(t, []string{"postgres", "production"}, items[0].Keywords)
	assert.Equal(t, 8, items[0].ImportanceScore)
	assert.Equal(t, "Deploys", items[1].Topic)
	assert.Equal(t, 4, items[1].ImportanceScore)
}

func TestParseFencedMatchesUnfenced(t *testing.T) {
	p := knowledge.NewParser(nil)

	plain := `[{"topic": "Go", "content": "Generics landed in 1.18", "keywords": ["go"], "importance_score": 6}]`
	fenced := "```json\n" + plain + "\n```"
	tagless := "```\n" + plain + "\n```"

	assert.Equal(t, p.Parse(plain), p.Parse(fenced))
	assert.Equal(t, p.Parse(plain), p.Parse(tagless))
}

func TestParseProseAroundArray(t *testing.T) {
	p := knowledge.NewParser(nil)

	raw := `Sure! Here are the knowledge points I extracted:

[{"topic": "Coffee", "content": "The office machine grinds at 7am", "keywords": ["coffee"], "importance_score": 2}]

Let me know if you need anything else.`

	items := p.Parse(raw)
	require.Len(t, items, 1)
	assert.Equal(t, "Coffee", items[0].Topic)
}

func TestParseNoArrayReturnsEmpty(t *testing.T) {
	p := knowledge.NewParser(nil)

	assert.Empty(t, p.Parse("I could not find any knowledge in that message."))
	assert.Empty(t, p.Parse(""))
	assert.Empty(t, p.Parse("{\"topic\": \"not an array\"}"))
}

func TestParseUndecodableArrayDropsBatch(t *testing.T) {
	p := knowledge.NewParser(nil)

	// The substring looks like an array but is not valid JSON, so the
	// whole batch is dropped at the decode stage.
	assert.Empty(t, p.Parse(`[this is not json]`))
	assert.Empty(t, p.Parse(`[{"topic": "a", "content": "b",}]`))
}

func TestParseSkipsMalformedItemKeepsSiblings(t *testing.T) {
	p := knowledge.NewParser(nil)

	items := p.Parse(`[
		{"topic": "Valid", "content": "kept", "keywords": [], "importance_score": 7},
		{"topic": "Broken", "content": "dropped", "keywords": [], "importance_score": "abc"},
		{"topic": "Also valid", "content": "kept too", "keywords": [], "importance_score": 3}
	]`)

	require.Len(t, items, 2)
	assert.Equal(t, "Valid", items[0].Topic)
	assert.Equal(t, "Also valid", items[1].Topic)
}

func TestParseSkipsNonObjectElements(t *testing.T) {
	p := knowledge.NewParser(nil)

	items := p.Parse(`[
		"just a string",
		{"topic": "Real", "content": "object survives", "keywords": [], "importance_score": 5},
		42
	]`)

	require.Len(t, items, 1)
	assert.Equal(t, "Real", items[0].Topic)
}

func TestParseAppliesDefaults(t *testing.T) {
	p := knowledge.NewParser(nil)

	items := p.Parse(`[{}]`)
	require.Len(t, items, 1)
	assert.Equal(t, "Unknown", items[0].Topic)
	assert.Equal(t, "", items[0].Content)
	assert.Empty(t, items[0].Keywords)
	assert.Equal(t, knowledge.DefaultImportance, items[0].ImportanceScore)
}

func TestParseKeywordsKeepOnlyStrings(t *testing.T) {
	p := knowledge.NewParser(nil)

	items := p.Parse(`[{"topic": "t", "content": "c", "keywords": ["one", 2, "three", null], "importance_score": 5}]`)
	require.Len(t, items, 1)
	assert.Equal(t, []string{"one", "three"}, items[0].Keywords)
}

func TestParseImportanceCoercion(t *testing.T) {
	p := knowledge.NewParser(nil)

	cases := []struct {
		name string
		raw  string
		want int
	}{
		{"absent defaults", `[{"topic": "t", "content": "c"}]`, knowledge.DefaultImportance},
		{"float truncates", `[{"importance_score": 7.9}]`, 7},
		{"integer string parses", `[{"importance_score": "8"}]`, 8},
		{"padded string parses", `[{"importance_score": " 3 "}]`, 3},
		{"above range defaults", `[{"importance_score": 42}]`, knowledge.DefaultImportance},
		{"below range defaults", `[{"importance_score": 0}]`, knowledge.DefaultImportance},
		{"negative defaults", `[{"importance_score": -4}]`, knowledge.DefaultImportance},
		{"bool true maps to one", `[{"importance_score": true}]`, 1},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			items := p.Parse(tc.raw)
			require.Len(t, items, 1)
			assert.Equal(t, tc.want, items[0].ImportanceScore)
			assert.GreaterOrEqual(t, items[0].ImportanceScore, knowledge.MinImportance)
			assert.LessOrEqual(t, items[0].ImportanceScore, knowledge.MaxImportance)
		})
	}
}

func TestParseNonCoercibleImportanceSkipsItem(t *testing.T) {
	p := knowledge.NewParser(nil)

	assert.Empty(t, p.Parse(`[{"importance_score": "abc"}]`))
	assert.Empty(t, p.Parse(`[{"importance_score": null}]`))
	assert.Empty(t, p.Parse(`[{"importance_score": [5]}]`))
	assert.Empty(t, p.Parse(`[{"importance_score": {"value": 5}}]`))
	assert.Empty(t, p.Parse(`[{"importance_score": "7.5"}]`))
}

func TestParsePreservesOrder(t *testing.T) {
	p := knowledge.NewParser(nil)

	items := p.Parse(`[
		{"topic": "first", "content": "1"},
		{"topic": "second", "content": "2"},
		{"topic": "third", "content": "3"}
	]`)

	require.Len(t, items, 3)
	assert.Equal(t, "first", items[0].Topic)
	assert.Equal(t, "second", items[1].Topic)
	assert.Equal(t, "third", items[2].Topic)
}
