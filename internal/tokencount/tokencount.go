// Package tokencount estimates how many LLM tokens a packed document costs.
package tokencount

import (
	"strings"

	"github.com/pkoukk/tiktoken-go"
)

// Counter estimates the token count of a text.
type Counter interface {
	Count(text string) int
}

// Heuristic is a best-effort estimator: tokens ~= len(text)/4, clamped to a
// minimum of 1 for non-empty text. Crude but stable, and it needs no
// encoder data.
type Heuristic struct{}

func (Heuristic) Count(text string) int {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0
	}
	n := len(text) / 4
	if n < 1 {
		n = 1
	}
	return n
}

type tiktokenCounter struct {
	enc *tiktoken.Tiktoken
}

func (c tiktokenCounter) Count(text string) int {
	return len(c.enc.Encode(text, nil, nil))
}

// New returns a cl100k_base tiktoken counter, falling back to Heuristic
// when the encoding cannot be loaded (offline, missing cache).
func New() Counter {
	enc, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		return Heuristic{}
	}
	return tiktokenCounter{enc: enc}
}
