// Copyright (c) 2026 Claudius Team
// Claudius - assistant configuration dashboard
// This source code is licensed under the MIT license found in the LICENSE file.

package scanner

import (
	"sync"
	"unicode/utf8"

	"github.com/iclaudius/claudius/internal/logging"
	"github.com/pkoukk/tiktoken-go"
)

// TokenCounter estimates how many model tokens a text costs.
type TokenCounter interface {
	Count(text string) int
}

// ApproxCounter estimates one token per four characters.
type ApproxCounter struct{}

// Count implements TokenCounter.
func (ApproxCounter) Count(text string) int {
	n := utf8.RuneCountInString(text)
	if n == 0 {
		return 0
	}
	return (n + 3) / 4
}

// tiktokenCounter counts with the cl100k_base encoding. The encoding is
// loaded on first use; when that fails the approximation is used.
type tiktokenCounter struct {
	once sync.Once
	enc  *tiktoken.Tiktoken
}

func (c *tiktokenCounter) Count(text string) int {
	c.once.Do(func() {
		enc, err := tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			logging.Warnf("exact token counting unavailable, using estimate: %v", err)
			return
		}
		c.enc = enc
	})
	if c.enc == nil {
		return ApproxCounter{}.Count(text)
	}
	return len(c.enc.Encode(text, nil, nil))
}

// NewTokenCounter returns the exact tokenizer when exact is set. Loading the
// encoding may need its BPE file, so the estimate is the default.
func NewTokenCounter(exact bool) TokenCounter {
	if exact {
		return &tiktokenCounter{}
	}
	return ApproxCounter{}
}
