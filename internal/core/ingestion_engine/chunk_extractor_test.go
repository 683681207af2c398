package ingestion_engine

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkText_RespectsSize(t *testing.T) {
	text := strings.Repeat("The quick brown fox jumps over the lazy dog. ", 60)

	chunks := ChunkText(text, 200)
	require.NotEmpty(t, chunks)
	for _, c := range chunks {
		assert.LessOrEqual(t, utf8.RuneCountInString(c), 200)
		assert.True(t, strings.HasSuffix(c, "."), "chunk %q should end on a sentence", c)
	}
}

func TestChunkText_KeepsEverySentence(t *testing.T) {
	text := "Refunds take five days! Do you ship abroad? Yes, to the EU. Contact support."

	chunks := ChunkText(text, 30)

	assert.Equal(t, strings.Join(splitSentences(text), " "), strings.Join(chunks, " "))
	assert.Equal(t, []string{
		"Refunds take five days!",
		"Do you ship abroad?",
		"Yes, to the EU.",
		"Contact support.",
	}, chunks)
}

func TestChunkText_OversizedSentenceStandsAlone(t *testing.T) {
	long := strings.Repeat("a", 50) + "."
	text := "Short one. " + long + " Tail."

	chunks := ChunkText(text, 20)

	assert.Equal(t, []string{"Short one.", long, "Tail."}, chunks)
}

func TestChunkText_Idempotent(t *testing.T) {
	text := "One. Two? Three! Four... Five"

	first := ChunkText(text, 12)
	again := ChunkText(strings.Join(first, " "), 12)

	assert.Equal(t, first, again)
}

func TestChunkText_Blank(t *testing.T) {
	assert.Empty(t, ChunkText("   \n\t ", 100))
}

func TestChunkText_DefaultSize(t *testing.T) {
	text := strings.Repeat("Sentence here. ", 200)

	for _, c := range ChunkText(text, 0) {
		assert.LessOrEqual(t, utf8.RuneCountInString(c), DefaultChunkSize)
	}
}
