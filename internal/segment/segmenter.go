// Package segment splits raw text into token-bounded chunks with
// offset tracking. Segmentation is pure: identical (text, budget)
// input always yields identical output, and no I/O is performed.
package segment

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Chunk is a contiguous substring of a source document.
type Chunk struct {
	// Text is the chunk content, an exact substring of the source
	// (interior separators preserved, edges trimmed).
	Text string
	// Offset is the rune offset of Text within the source document.
	Offset int
	// Tokens is the model token count of Text.
	Tokens int
}

// TokenCounter reports the model token count of a text.
type TokenCounter interface {
	Count(text string) int
}

// level is one tier of the separator hierarchy. keep is how many
// leading bytes of a matched separator stay with the preceding unit:
// sentence punctuation is content and must survive segmentation, only
// the whitespace after it is a true separator.
type level struct {
	seps []string
	keep int
}

// Separator hierarchy, coarse to fine: paragraph, line, sentence,
// whitespace. Boundaries are chosen greedily at the coarsest level
// that keeps chunks within the token budget.
var levels = []level{
	{seps: []string{"\n\n"}},
	{seps: []string{"\n"}},
	{seps: []string{". ", "! ", "? "}, keep: 1},
	{seps: []string{" "}},
}

// Segmenter produces token-bounded chunks from raw text.
type Segmenter struct {
	counter   TokenCounter
	maxTokens int
}

// New creates a Segmenter with the given token budget per chunk.
func New(counter TokenCounter, maxTokens int) (*Segmenter, error) {
	if counter == nil {
		return nil, fmt.Errorf("token counter is required")
	}
	if maxTokens <= 0 {
		return nil, fmt.Errorf("max tokens must be positive, got %d", maxTokens)
	}
	return &Segmenter{counter: counter, maxTokens: maxTokens}, nil
}

// MaxTokens returns the per-chunk token budget.
func (s *Segmenter) MaxTokens() int { return s.maxTokens }

// Segment splits text into an ordered sequence of chunks. Every chunk
// honors the token budget except a single indivisible unit that alone
// exceeds it, which is emitted oversized rather than dropped.
// Concatenating chunk texts in order reconstructs the source up to the
// separator whitespace consumed at chunk boundaries.
func (s *Segmenter) Segment(text string) []Chunk {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	spans := s.chunkSpans(text, span{0, len(text)}, 0)

	chunks := make([]Chunk, 0, len(spans))
	for _, sp := range spans {
		start, end := trimSpan(text, sp)
		if start >= end {
			continue
		}
		body := text[start:end]
		chunks = append(chunks, Chunk{
			Text:   body,
			Offset: utf8.RuneCountInString(text[:start]),
			Tokens: s.counter.Count(body),
		})
	}
	return chunks
}

// span is a half-open byte range into the source text.
type span struct {
	start, end int
}

// chunkSpans recursively splits sp until every produced span fits the
// budget, descending the separator hierarchy. Merged spans cover the
// original text contiguously, so interior separators are preserved.
func (s *Segmenter) chunkSpans(src string, sp span, lvl int) []span {
	if s.fits(src, sp) || lvl >= len(levels) {
		return []span{sp}
	}

	units := splitUnits(src, sp, levels[lvl])
	if len(units) <= 1 {
		return s.chunkSpans(src, sp, lvl+1)
	}

	var out []span
	cur := units[0]
	for _, u := range units[1:] {
		merged := span{cur.start, u.end}
		if s.fits(src, merged) {
			cur = merged
			continue
		}
		out = append(out, s.flush(src, cur, lvl)...)
		cur = u
	}
	return append(out, s.flush(src, cur, lvl)...)
}

// flush emits a finished span, descending a level if it is still over
// budget on its own.
func (s *Segmenter) flush(src string, sp span, lvl int) []span {
	if s.fits(src, sp) {
		return []span{sp}
	}
	return s.chunkSpans(src, sp, lvl+1)
}

func (s *Segmenter) fits(src string, sp span) bool {
	return s.counter.Count(src[sp.start:sp.end]) <= s.maxTokens
}

// splitUnits divides sp at every occurrence of any separator in lv.
// The separator whitespace is excluded from the returned units; it
// survives only inside merged spans. Empty units (consecutive
// separators) are dropped.
func splitUnits(src string, sp span, lv level) []span {
	var units []span
	start := sp.start
	i := sp.start

	for i < sp.end {
		matched := 0
		for _, sep := range lv.seps {
			if i+len(sep) <= sp.end && src[i:i+len(sep)] == sep {
				matched = len(sep)
				break
			}
		}
		if matched == 0 {
			i++
			continue
		}
		if i+lv.keep > start {
			units = append(units, span{start, i + lv.keep})
		}
		i += matched
		start = i
	}
	if start < sp.end {
		units = append(units, span{start, sp.end})
	}
	return units
}

// trimSpan shrinks sp to exclude leading and trailing whitespace.
func trimSpan(src string, sp span) (int, int) {
	body := src[sp.start:sp.end]
	trimmed := strings.TrimSpace(body)
	start := sp.start + strings.Index(body, trimmed)
	return start, start + len(trimmed)
}
