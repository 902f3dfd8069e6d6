package chunker

import (
	"regexp"
	"strings"
)

// Defaults match the ingestion config the course corpus was tuned with.
const (
	DefaultMaxChars     = 800
	DefaultOverlapChars = 100
)

// SentenceChunker splits text into character-bounded chunks that never break
// a sentence. Adjacent chunks share a trailing run of sentences whose joined
// length fits the overlap budget, so retrieval keeps context across
// boundaries.
type SentenceChunker struct {
	maxChars     int
	overlapChars int
	splitter     *regexp.Regexp
}

func NewSentenceChunker(maxChars, overlapChars int) *SentenceChunker {
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}
	if overlapChars < 0 {
		overlapChars = 0
	}
	return &SentenceChunker{
		maxChars:     maxChars,
		overlapChars: overlapChars,
		splitter:     regexp.MustCompile(`(?m)(?U)([^.!?]+[.!?])`),
	}
}

// Chunk splits text into ordered chunk strings. Whitespace runs collapse to
// single spaces before splitting. A single sentence longer than the chunk
// budget becomes its own oversized chunk rather than being cut mid-sentence.
func (c *SentenceChunker) Chunk(text string) []string {
	normalized := strings.Join(strings.Fields(text), " ")
	if normalized == "" {
		return nil
	}
	sentences := c.splitSentences(normalized)

	var chunks []string
	var cur []string
	curLen := 0
	fresh := 0 // sentences in cur not yet part of an emitted chunk

	for _, s := range sentences {
		if len(cur) > 0 && curLen+1+len(s) > c.maxChars {
			chunks = append(chunks, strings.Join(cur, " "))
			cur, curLen = c.overlapTail(cur)
			fresh = 0
			// an overlap seed that cannot fit the next sentence is dropped,
			// otherwise the seed alone would force an immediate split
			if len(cur) > 0 && curLen+1+len(s) > c.maxChars {
				cur, curLen = nil, 0
			}
		}
		if len(cur) == 0 {
			curLen = len(s)
		} else {
			curLen += 1 + len(s)
		}
		cur = append(cur, s)
		fresh++
	}
	if fresh > 0 {
		chunks = append(chunks, strings.Join(cur, " "))
	}
	return chunks
}

// splitSentences finds terminated sentences and keeps any unterminated tail
// as a final sentence so no input text is dropped.
func (c *SentenceChunker) splitSentences(text string) []string {
	var sentences []string
	last := 0
	for _, loc := range c.splitter.FindAllStringIndex(text, -1) {
		if s := strings.TrimSpace(text[loc[0]:loc[1]]); s != "" {
			sentences = append(sentences, s)
		}
		last = loc[1]
	}
	if rest := strings.TrimSpace(text[last:]); rest != "" {
		sentences = append(sentences, rest)
	}
	return sentences
}

// overlapTail returns the longest trailing run of sentences whose joined
// length stays within the overlap budget, possibly none.
func (c *SentenceChunker) overlapTail(sentences []string) ([]string, int) {
	if c.overlapChars <= 0 {
		return nil, 0
	}
	total := 0
	i := len(sentences)
	for i > 0 {
		add := len(sentences[i-1])
		if total > 0 {
			add++
		}
		if total+add > c.overlapChars {
			break
		}
		total += add
		i--
	}
	if i == len(sentences) {
		return nil, 0
	}
	tail := make([]string, len(sentences)-i)
	copy(tail, sentences[i:])
	return tail, total
}
