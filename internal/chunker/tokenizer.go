package chunker

import (
	"fmt"
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"
	tiktoken_loader "github.com/pkoukk/tiktoken-go-loader"
)

const (
	TokenizerRune           = "rune"
	DefaultTiktokenEncoding = "cl100k_base"
)

// Tokenizer converts text to discrete token units and back. Only the token
// count drives chunk boundaries, so any deterministic scheme will do.
type Tokenizer interface {
	Encode(text string) []int
	Decode(tokens []int) string
}

// NewTokenizer returns the tokenizer registered under name. "rune" selects the
// offline rune tokenizer; anything else is treated as a tiktoken encoding.
func NewTokenizer(name string) (Tokenizer, error) {
	switch name {
	case TokenizerRune:
		return RuneTokenizer{}, nil
	case "", "tiktoken":
		return NewTiktokenTokenizer(DefaultTiktokenEncoding)
	default:
		return NewTiktokenTokenizer(name)
	}
}

// TiktokenTokenizer uses the BPE encodings shipped for the OpenAI models.
// The ranks are loaded from the embedded offline loader, never downloaded.
type TiktokenTokenizer struct {
	enc *tiktoken.Tiktoken
}

var setLoader sync.Once

func NewTiktokenTokenizer(encoding string) (*TiktokenTokenizer, error) {
	setLoader.Do(func() {
		tiktoken.SetBpeLoader(tiktoken_loader.NewOfflineLoader())
	})
	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, fmt.Errorf("failed to get tiktoken encoding %s: %w", encoding, err)
	}
	return &TiktokenTokenizer{enc: enc}, nil
}

func (t *TiktokenTokenizer) Encode(text string) []int {
	return t.enc.Encode(text, nil, nil)
}

// Decode replaces bytes of a rune split across a window boundary with U+FFFD
func (t *TiktokenTokenizer) Decode(tokens []int) string {
	return strings.ToValidUTF8(t.enc.Decode(tokens), "\uFFFD")
}

// RuneTokenizer treats every unicode code point as one token
type RuneTokenizer struct{}

func (RuneTokenizer) Encode(text string) []int {
	runes := []rune(text)
	tokens := make([]int, len(runes))
	for i, r := range runes {
		tokens[i] = int(r)
	}
	return tokens
}

func (RuneTokenizer) Decode(tokens []int) string {
	runes := make([]rune, len(tokens))
	for i, t := range tokens {
		runes[i] = rune(t)
	}
	return string(runes)
}
