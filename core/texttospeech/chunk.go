package texttospeech

import (
	"regexp"
	"strings"
)

// sentencePattern matches a run of non-terminators followed by any
// terminators and whitespace, or a trailing unterminated run.
var sentencePattern = regexp.MustCompile(`[^.!?]+[.!?\s]*|[^.!?]+$`)

// Chunk splits text into sentence-sized pieces for sequential playback.
//
// Outer whitespace of text is dropped. Each chunk keeps its terminating
// punctuation and the whitespace after it, so joining the chunks gives back
// the trimmed text. Punctuation that precedes the first sentence is kept with
// it. Trim chunks before speaking them.
func Chunk(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return []string{}
	}

	chunks := []string{}
	consumed := 0
	for _, match := range sentencePattern.FindAllStringIndex(text, -1) {
		chunk := text[consumed:match[1]]
		consumed = match[1]
		if strings.TrimSpace(chunk) == "" {
			continue
		}
		chunks = append(chunks, chunk)
	}

	if consumed < len(text) {
		rest := text[consumed:]
		if len(chunks) == 0 {
			// punctuation only, e.g. "..."
			return []string{rest}
		}
		chunks[len(chunks)-1] += rest
	}

	return chunks
}

// SpeakableChunks returns the trimmed chunks of text.
func SpeakableChunks(text string) []string {
	chunks := Chunk(text)
	for i, chunk := range chunks {
		chunks[i] = strings.TrimSpace(chunk)
	}
	return chunks
}
