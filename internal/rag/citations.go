package rag

import (
	"sort"

	"policy-rag/internal/helper"
	"policy-rag/internal/models"
)

// BuildCitations keeps the first match of every page, truncates its content
// to contentLength characters and returns at most maxCitations entries
// ordered by relevance.
func BuildCitations(matches []models.SearchMatch, maxCitations, contentLength int) []models.Citation {
	citations := []models.Citation{}
	seen := make(map[int]bool)
	for _, m := range matches {
		page := m.Metadata.PageNumber
		if seen[page] {
			continue
		}
		seen[page] = true
		citations = append(citations, models.Citation{
			PageNumber:     page,
			Content:        helper.Truncate(m.Content, contentLength, models.CitationEllipsis),
			RelevanceScore: m.RelevanceScore,
		})
	}

	sort.SliceStable(citations, func(i, j int) bool {
		return citations[i].RelevanceScore > citations[j].RelevanceScore
	})

	if maxCitations >= 0 && len(citations) > maxCitations {
		citations = citations[:maxCitations]
	}
	return citations
}
