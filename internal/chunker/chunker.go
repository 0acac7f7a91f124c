package chunker

import (
	"fmt"
	"strings"

	"policy-rag/internal/models"
)

// Chunker splits page text into overlapping windows of at most chunkSize tokens
type Chunker struct {
	tokenizer    Tokenizer
	chunkSize    int
	chunkOverlap int
}

// NewChunker rejects an overlap that is not smaller than the chunk size
func NewChunker(tokenizer Tokenizer, chunkSize, chunkOverlap int) (*Chunker, error) {
	if tokenizer == nil {
		return nil, fmt.Errorf("%w: tokenizer is required", models.ErrConfigurationInvalid)
	}
	if chunkSize <= 0 {
		return nil, fmt.Errorf("%w: chunk size must be > 0, got %d", models.ErrConfigurationInvalid, chunkSize)
	}
	if chunkOverlap < 0 || chunkOverlap >= chunkSize {
		return nil, fmt.Errorf("%w: chunk overlap must be >= 0 and < chunk size (%d), got %d",
			models.ErrConfigurationInvalid, chunkSize, chunkOverlap)
	}
	return &Chunker{
		tokenizer:    tokenizer,
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
	}, nil
}

func (c *Chunker) ChunkSize() int    { return c.chunkSize }
func (c *Chunker) ChunkOverlap() int { return c.chunkOverlap }

// Chunk slides a chunkSize window over the tokens of text, advancing by
// chunkSize-chunkOverlap. Windows that decode to whitespace are dropped and do
// not consume a chunk index. The last window ends at the final token.
func (c *Chunker) Chunk(text string, pageNumber int) []models.Chunk {
	tokens := c.tokenizer.Encode(text)
	step := c.chunkSize - c.chunkOverlap

	var chunks []models.Chunk
	for start := 0; start < len(tokens); start += step {
		end := min(start+c.chunkSize, len(tokens))

		content := c.tokenizer.Decode(tokens[start:end])
		if strings.TrimSpace(content) != "" {
			chunks = append(chunks, models.Chunk{
				Content:    content,
				PageNumber: pageNumber,
				ChunkIndex: len(chunks),
				Metadata: models.ChunkMetadata{
					StartToken: start,
					EndToken:   end,
					TokenCount: end - start,
				},
			})
		}

		if end == len(tokens) {
			break
		}
	}
	return chunks
}

// ChunkPages chunks every page in order and returns the flattened sequence
func (c *Chunker) ChunkPages(pages []models.PageText) []models.Chunk {
	var all []models.Chunk
	for _, page := range pages {
		all = append(all, c.Chunk(page.Text, page.PageNumber)...)
	}
	return all
}
