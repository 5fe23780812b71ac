package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchemaAppendsAccumulatedFields(t *testing.T) {
	s := Schema()
	state := InitialState("X", "", "2026-02-01", "2026-02-27")

	state, err := s.Update(state, map[string]any{
		keyRawContent: []TopicContent{{Topic: "a"}},
	})
	require.NoError(t, err)

	state, err = s.Update(state, map[string]any{
		keyRawContent: []TopicContent{{Topic: "b"}},
	})
	require.NoError(t, err)

	content := rawContentOf(state)
	require.Len(t, content, 2)
	assert.Equal(t, "a", content[0].Topic)
	assert.Equal(t, "b", content[1].Topic)
}

func TestSchemaOverwritesTopics(t *testing.T) {
	s := Schema()
	state := InitialState("X", "", "2026-02-01", "2026-02-27")

	state, err := s.Update(state, map[string]any{keyTopics: []string{"a", "b"}})
	require.NoError(t, err)
	state, err = s.Update(state, map[string]any{keyTopics: []string{"c"}})
	require.NoError(t, err)

	assert.Equal(t, []string{"c"}, topicsOf(state))
}

func TestSchemaRejectsUnknownKey(t *testing.T) {
	s := Schema()
	_, err := s.Update(InitialState("X", "", "2026-02-01", "2026-02-27"), map[string]any{
		"surprise_field": 1,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "surprise_field")
}

func TestEvaluationAbsentBeforeFirstPass(t *testing.T) {
	state := InitialState("X", "", "2026-02-01", "2026-02-27")
	assert.Nil(t, evaluationOf(state))
	assert.Nil(t, DigestOf(state))
	assert.Equal(t, 0, searchIterationsOf(state))
}

func TestWithinRange(t *testing.T) {
	tests := []struct {
		name      string
		published string
		want      bool
	}{
		{"empty date", "", true},
		{"iso inside", "2026-02-10", true},
		{"iso before", "2026-01-20", false},
		{"iso after", "2026-03-01", false},
		{"rfc1123 inside", "Tue, 10 Feb 2026 09:30:00 GMT", true},
		{"rfc1123z outside", "Sat, 10 Jan 2026 09:30:00 +0000", false},
		{"rfc3339 boundary", "2026-02-27T23:10:00Z", true},
		// Offsets resolve to the UTC calendar day at the range edges.
		{"negative offset lands inside", "Sat, 31 Jan 2026 23:00:00 -0500", true},
		{"positive offset lands outside", "Sun, 01 Feb 2026 01:00:00 +0500", false},
		{"unparseable keeps source", "sometime last week", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, withinRange(tt.published, "2026-02-01", "2026-02-27"))
		})
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 10))
	assert.Equal(t, "ab", truncate("abcdef", 2))
	// Never splits a multi-byte rune.
	assert.Equal(t, "a", truncate("añejo", 2))
}

func TestBuildEntitySummary(t *testing.T) {
	content := []TopicContent{{
		Topic: "a",
		Sources: []SourceRecord{
			{Entities: map[string][]string{
				"ORGANIZATION": {"Zeta Corp", "Acme"},
				"MONEY":        {"$5M"},
			}},
			{Entities: map[string][]string{
				"ORGANIZATION": {"Acme"},
			}},
		},
	}}

	summary := buildEntitySummary(content)
	assert.Equal(t, "KEY ENTITIES EXTRACTED:\n  MONEY: $5M\n  ORGANIZATION: Acme, Zeta Corp", summary)
}

func TestBuildEntitySummaryEmpty(t *testing.T) {
	assert.Empty(t, buildEntitySummary([]TopicContent{{Topic: "a", Sources: []SourceRecord{{}}}}))
}
