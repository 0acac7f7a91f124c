package rag

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"policy-rag/internal/models"
)

func TestBuildCitationsDedupesByPage(t *testing.T) {
	matches := []models.SearchMatch{
		match(2, "best on page 2", 0.05),
		match(2, "second on page 2", 0.10),
		match(1, "page 1", 0.20),
		match(3, "page 3", 0.30),
		match(1, "another page 1", 0.40),
	}

	citations := BuildCitations(matches, 5, 200)
	require.Len(t, citations, 3)
	assert.Equal(t, 2, citations[0].PageNumber)
	assert.Equal(t, "best on page 2", citations[0].Content)
	assert.Equal(t, 1, citations[1].PageNumber)
	assert.Equal(t, "page 1", citations[1].Content)
	assert.Equal(t, 3, citations[2].PageNumber)

	pages := map[int]bool{}
	for _, c := range citations {
		assert.False(t, pages[c.PageNumber], "duplicate page %d", c.PageNumber)
		pages[c.PageNumber] = true
	}
}

func TestBuildCitationsTruncatesContent(t *testing.T) {
	long := strings.Repeat("a", 250)
	exact := strings.Repeat("b", 200)

	citations := BuildCitations([]models.SearchMatch{match(1, long, 0.1), match(2, exact, 0.2)}, 5, 200)
	require.Len(t, citations, 2)
	assert.Equal(t, strings.Repeat("a", 200)+"...", citations[0].Content)
	assert.Len(t, citations[0].Content, 203)
	assert.Equal(t, exact, citations[1].Content, "content at the limit is not marked")
}

func TestBuildCitationsResortsAndCaps(t *testing.T) {
	matches := []models.SearchMatch{
		match(1, "low", 0.8),
		match(2, "high", 0.1),
		match(3, "mid", 0.5),
		match(4, "lowest", 0.9),
	}

	citations := BuildCitations(matches, 2, 200)
	require.Len(t, citations, 2)
	assert.Equal(t, "high", citations[0].Content)
	assert.Equal(t, "mid", citations[1].Content)
	assert.GreaterOrEqual(t, citations[0].RelevanceScore, citations[1].RelevanceScore)
}

func TestBuildCitationsEmpty(t *testing.T) {
	citations := BuildCitations(nil, 5, 200)
	assert.NotNil(t, citations)
	assert.Empty(t, citations)

	assert.Empty(t, BuildCitations([]models.SearchMatch{match(1, "x", 0.1)}, 0, 200))
}
