package search

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/orsinium-labs/stopwords"
)

// en is the stopword set buildFTSQuery strips from free-text queries
// before handing them to FTS5's MATCH operator, the same tokenizer
// pkg/embedding uses for its content-addressed cache key.
var en = stopwords.MustGet("en")

// buildFTSQuery turns a free-text query into an FTS5 MATCH expression:
// lowercase, tokenize on non-letter/digit boundaries, drop English
// stopwords, and quote each surviving token so punctuation inside it
// (an apostrophe, say) can't be mistaken for FTS5 query syntax. An
// all-stopword or empty query falls back to the raw input — FTS5 still
// needs *something* to match against.
func buildFTSQuery(query string) string {
	tokens := tokenizeFTS(query)
	kept := tokens[:0]
	for _, tok := range tokens {
		if !en.Contains(tok) {
			kept = append(kept, tok)
		}
	}
	if len(kept) == 0 {
		return query
	}
	quoted := make([]string, len(kept))
	for i, tok := range kept {
		quoted[i] = strconv.Quote(tok)
	}
	return strings.Join(quoted, " ")
}

func tokenizeFTS(s string) []string {
	var tokens []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			tokens = append(tokens, cur.String())
			cur.Reset()
		}
	}
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			cur.WriteRune(unicode.ToLower(r))
			continue
		}
		flush()
	}
	flush()
	return tokens
}
