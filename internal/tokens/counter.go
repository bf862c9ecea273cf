package tokens

import (
	"sync"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"
)

// Counter estimates the token cost of a piece of text. Implementations
// must be deterministic and monotonic with text length so that
// truncation stays idempotent.
type Counter interface {
	Count(text string) int
}

// TiktokenCounter counts with the cl100k_base BPE encoding, falling
// back to a rune-length heuristic when the encoding cannot be loaded
// (e.g. no network to fetch the BPE table). Counting never fails.
type TiktokenCounter struct {
	once sync.Once
	enc  *tiktoken.Tiktoken
}

var _ Counter = (*TiktokenCounter)(nil)

func NewTiktokenCounter() *TiktokenCounter {
	return &TiktokenCounter{}
}

func (c *TiktokenCounter) Count(text string) int {
	if text == "" {
		return 0
	}
	c.once.Do(func() {
		enc, err := tiktoken.GetEncoding(tiktoken.MODEL_CL100K_BASE)
		if err == nil {
			c.enc = enc
		}
	})
	if c.enc != nil {
		return len(c.enc.Encode(text, nil, nil))
	}
	return heuristicCount(text)
}

// heuristicCount approximates BPE density at four runes per token,
// rounding up so non-empty text never costs zero.
func heuristicCount(text string) int {
	n := utf8.RuneCountInString(text)
	if n == 0 {
		return 0
	}
	return (n + 3) / 4
}
