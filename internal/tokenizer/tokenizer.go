// Package tokenizer provides model token counting for segmentation
// budgets via tiktoken BPE encodings.
package tokenizer

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"
)

// DefaultEncoding is the BPE encoding used when none is configured.
// cl100k_base matches the OpenAI embedding model family.
const DefaultEncoding = "cl100k_base"

// Counter reports the model token count of a text.
type Counter interface {
	Count(text string) int
}

// BPE counts tokens with a tiktoken byte-pair encoding. Safe for
// concurrent use; encoding tables are read-only after construction.
type BPE struct {
	enc *tiktoken.Tiktoken
}

// NewBPE loads the named tiktoken encoding. A load failure is fatal at
// startup: without a tokenizer the segmenter cannot enforce budgets.
func NewBPE(encoding string) (*BPE, error) {
	if encoding == "" {
		encoding = DefaultEncoding
	}
	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, fmt.Errorf("load tiktoken encoding %q: %w", encoding, err)
	}
	return &BPE{enc: enc}, nil
}

// Count returns the number of BPE tokens in text.
func (b *BPE) Count(text string) int {
	return len(b.enc.Encode(text, nil, nil))
}
