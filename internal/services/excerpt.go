package services

import (
	"strings"

	"github.com/neurosnap/sentences"
	"github.com/neurosnap/sentences/english"
)

const (
	defaultExcerptLength = 240

	// Anything shorter than the ellipsis fallback cannot hold an excerpt.
	minExcerptLength = 4
)

// ExcerptBuilder produces short display excerpts from stored content,
// cutting at sentence boundaries where possible instead of mid-word.
type ExcerptBuilder struct {
	tokenizer *sentences.DefaultSentenceTokenizer
	maxLen    int
}

func NewExcerptBuilder(maxLen int) *ExcerptBuilder {
	if maxLen < minExcerptLength {
		maxLen = defaultExcerptLength
	}
	tokenizer, err := english.NewSentenceTokenizer(nil)
	if err != nil {
		// The English training data is embedded in the library; failing to
		// load it means the binary itself is broken.
		panic(err)
	}
	return &ExcerptBuilder{
		tokenizer: tokenizer,
		maxLen:    maxLen,
	}
}

// Build returns the leading sentences of source that fit within maxLen.
// When even the first sentence is too long, it falls back to a hard cut
// with an ellipsis.
func (b *ExcerptBuilder) Build(source string) string {
	source = strings.Join(strings.Fields(source), " ")
	if source == "" {
		return ""
	}
	if len(source) <= b.maxLen {
		return source
	}

	var out strings.Builder
	for _, sent := range b.tokenizer.Tokenize(source) {
		text := strings.TrimSpace(sent.Text)
		if text == "" {
			continue
		}
		if out.Len() > 0 && out.Len()+1+len(text) > b.maxLen {
			break
		}
		if out.Len() == 0 && len(text) > b.maxLen {
			break
		}
		if out.Len() > 0 {
			out.WriteByte(' ')
		}
		out.WriteString(text)
	}
	if out.Len() > 0 {
		return out.String()
	}
	return strings.TrimSpace(source[:b.maxLen-3]) + "..."
}
