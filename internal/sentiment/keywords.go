// Package sentiment holds the offline keyword classifier used when the AI
// service cannot be reached.
package sentiment

import (
	"strings"
	"unicode"

	"call-analyzer-go/internal/types"
)

// Fixed confidences reported for each fallback label.
const (
	PositiveConfidence = 0.65
	NegativeConfidence = 0.65
	NeutralConfidence  = 0.40
)

// Terms are matched as whole words; phrases must match consecutive words.
// The two tables share no words, so a phrase never double counts.
var positiveTerms = []string{
	"thank", "thanks", "grateful", "appreciate", "appreciated",
	"great", "excellent", "wonderful", "amazing", "perfect",
	"satisfied", "happy", "pleased", "love", "fantastic", "awesome", "good",
	"helpful", "friendly", "professional", "quick", "efficient", "resolved",
	"polite", "patient",
}

var negativeTerms = []string{
	"terrible", "awful", "horrible", "bad", "worst", "hate", "angry", "furious",
	"frustrated", "frustrating", "disappointed", "unsatisfied", "complaint", "problem", "issue",
	"broken", "failed", "wrong", "error", "refund", "cancel", "unacceptable",
	"rude", "unhelpful", "ridiculous", "useless", "annoyed",
	"waste of time", "not working",
}

type term struct {
	words []string
}

func compile(terms []string) []term {
	out := make([]term, 0, len(terms))
	for _, t := range terms {
		out = append(out, term{words: tokenize(t)})
	}
	return out
}

var (
	positive = compile(positiveTerms)
	negative = compile(negativeTerms)
)

// Classify labels text by counting keyword occurrences. It is total: empty
// or keyword-free text is Neutral.
func Classify(text string) (types.Sentiment, float64) {
	p, n := Counts(text)
	switch {
	case p > n:
		return types.Positive, PositiveConfidence
	case n > p:
		return types.Negative, NegativeConfidence
	default:
		return types.Neutral, NeutralConfidence
	}
}

// Counts returns the number of positive and negative occurrences in text.
func Counts(text string) (pos, neg int) {
	tokens := tokenize(text)
	return count(tokens, positive), count(tokens, negative)
}

func count(tokens []string, terms []term) int {
	total := 0
	for i := range tokens {
		for _, t := range terms {
			if matchAt(tokens, i, t.words) {
				total++
			}
		}
	}
	return total
}

func matchAt(tokens []string, i int, words []string) bool {
	if len(words) == 0 || i+len(words) > len(tokens) {
		return false
	}
	for j, w := range words {
		if tokens[i+j] != w {
			return false
		}
	}
	return true
}

// tokenize lower-cases text and splits it into words made of letters, digits
// and apostrophes.
func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '\'' || r == '’')
	})
}
