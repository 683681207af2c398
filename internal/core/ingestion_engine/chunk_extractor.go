package ingestion_engine

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// DefaultChunkSize is the advisory chunk length in characters.
const DefaultChunkSize = 1000

var sentenceEnd = regexp.MustCompile(`[.!?]+`)

// ChunkText groups the sentences of text into chunks of at most size
// characters. A sentence longer than size becomes a chunk of its own; it is
// never split. Sentences keep their terminal punctuation and are joined by
// a single space.
func ChunkText(text string, size int) []string {
	if size <= 0 {
		size = DefaultChunkSize
	}

	var (
		chunks []string
		cur    strings.Builder
		curLen int
	)
	for _, s := range splitSentences(text) {
		n := utf8.RuneCountInString(s)
		if curLen > 0 && curLen+1+n > size {
			chunks = append(chunks, cur.String())
			cur.Reset()
			curLen = 0
		}
		if curLen > 0 {
			cur.WriteByte(' ')
			curLen++
		}
		cur.WriteString(s)
		curLen += n
	}
	if curLen > 0 {
		chunks = append(chunks, cur.String())
	}
	return chunks
}

// splitSentences cuts text after every run of '.', '!' or '?' and trims
// each piece. Blank pieces are dropped.
func splitSentences(text string) []string {
	var out []string
	last := 0
	for _, loc := range sentenceEnd.FindAllStringIndex(text, -1) {
		if s := strings.TrimSpace(text[last:loc[1]]); s != "" {
			out = append(out, s)
		}
		last = loc[1]
	}
	if s := strings.TrimSpace(text[last:]); s != "" {
		out = append(out, s)
	}
	return out
}
