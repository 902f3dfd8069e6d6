package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkEmptyInput(t *testing.T) {
	c := NewSentenceChunker(800, 100)
	assert.Nil(t, c.Chunk(""))
	assert.Nil(t, c.Chunk("   \n\t  "))
}

func TestChunkShortTextSingleChunk(t *testing.T) {
	c := NewSentenceChunker(800, 100)
	chunks := c.Chunk("This is a short sentence.")
	require.Len(t, chunks, 1)
	assert.Equal(t, "This is a short sentence.", chunks[0])
}

func TestChunkNormalizesWhitespace(t *testing.T) {
	c := NewSentenceChunker(800, 100)
	chunks := c.Chunk("Word   with   extra    spaces.\nSecond line.")
	require.Len(t, chunks, 1)
	assert.NotContains(t, chunks[0], "   ")
	assert.NotContains(t, chunks[0], "\n")
}

func TestChunkLongTextProducesMultipleChunks(t *testing.T) {
	c := NewSentenceChunker(60, 10)
	text := "First sentence here now. Second sentence follows it. " +
		"Third sentence comes next. Fourth sentence ends here."
	chunks := c.Chunk(text)
	assert.Greater(t, len(chunks), 1)
}

func TestChunkRespectsMaxChars(t *testing.T) {
	c := NewSentenceChunker(60, 10)
	text := "Alpha sentence is present. Beta sentence is present. " +
		"Gamma sentence is present. Delta sentence is present."
	for _, ch := range c.Chunk(text) {
		assert.LessOrEqual(t, len(ch), 60, "chunk %q exceeds budget", ch)
	}
}

func TestChunkOversizedSentenceKeptWhole(t *testing.T) {
	c := NewSentenceChunker(60, 10)
	long := strings.Repeat("W", 200) + "."
	chunks := c.Chunk("Short one. " + long + " Short two.")
	require.Len(t, chunks, 3)
	assert.Equal(t, long, chunks[1])
}

func TestChunkUnterminatedTailIsKept(t *testing.T) {
	c := NewSentenceChunker(800, 100)
	chunks := c.Chunk("Terminated sentence. Trailing words without a period")
	require.Len(t, chunks, 1)
	assert.Contains(t, chunks[0], "Trailing words without a period")
}

func TestChunkAdjacentChunksShareSentence(t *testing.T) {
	c := NewSentenceChunker(70, 40)
	text := "Sentence number one here. Sentence number two here. " +
		"Sentence number three here. Sentence number four here."
	chunks := c.Chunk(text)
	require.Greater(t, len(chunks), 1)
	for i := 1; i < len(chunks); i++ {
		prev := splitForTest(c, chunks[i-1])
		next := splitForTest(c, chunks[i])
		assert.Equal(t, prev[len(prev)-1], next[0],
			"chunk %d should start with the previous chunk's last sentence", i)
	}
}

func TestChunkReconstructionPreservesOrder(t *testing.T) {
	c := NewSentenceChunker(70, 30)
	text := "Aardvark appears first. Badger appears second. Cheetah appears third. " +
		"Dingo appears fourth. Emu appears fifth. Ferret appears sixth."
	want := splitForTest(c, strings.Join(strings.Fields(text), " "))
	chunks := c.Chunk(text)
	require.NotEmpty(t, chunks)

	// Sentences in the input are unique, so dropping repeats (the overlap)
	// must replay the original sentence sequence in order.
	var got []string
	for _, ch := range chunks {
		for _, s := range splitForTest(c, ch) {
			if !contains(got, s) {
				got = append(got, s)
			}
		}
	}
	assert.Equal(t, want, got)
}

func TestChunkNoOverlapStillCoversAllSentences(t *testing.T) {
	c := NewSentenceChunker(50, 0)
	text := "One sentence. Two sentence. Three sentence. Four sentence."
	joined := strings.Join(c.Chunk(text), " ")
	for _, word := range []string{"One", "Two", "Three", "Four"} {
		assert.Contains(t, joined, word)
	}
}

func splitForTest(c *SentenceChunker, text string) []string {
	return c.splitSentences(text)
}

func contains(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}
