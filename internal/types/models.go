package types

import (
	"fmt"
	"strings"
	"time"
)

type Sentiment string

const (
	Positive Sentiment = "Positive"
	Neutral  Sentiment = "Neutral"
	Negative Sentiment = "Negative"
)

// ParseSentiment accepts the three labels in any case, surrounded by whitespace.
func ParseSentiment(s string) (Sentiment, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "positive":
		return Positive, nil
	case "neutral":
		return Neutral, nil
	case "negative":
		return Negative, nil
	}
	return "", fmt.Errorf("unknown sentiment %q", s)
}

type Mode string

const (
	ModeAI       Mode = "AI"
	ModeFallback Mode = "Fallback"
)

func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeAI, ModeFallback:
		return Mode(s), nil
	}
	return "", fmt.Errorf("unknown mode %q", s)
}

// Method is the label shown to users next to a result.
func (m Mode) Method() string {
	if m == ModeAI {
		return "AI Service"
	}
	return "Fallback Analysis"
}

// AnalysisResult is the outcome of analyzing one transcript. Build it with
// AIResult or FallbackResult so that Mode always matches its origin.
type AnalysisResult struct {
	Summary    string    `json:"summary"`
	Sentiment  Sentiment `json:"sentiment"`
	Confidence float64   `json:"confidence"`
	Mode       Mode      `json:"mode"`
}

func AIResult(summary string, s Sentiment, confidence float64) AnalysisResult {
	return AnalysisResult{
		Summary:    NormalizeNewlines(summary),
		Sentiment:  s,
		Confidence: ClampConfidence(confidence),
		Mode:       ModeAI,
	}
}

// FallbackResult never carries a summary.
func FallbackResult(s Sentiment, confidence float64) AnalysisResult {
	return AnalysisResult{
		Sentiment:  s,
		Confidence: ClampConfidence(confidence),
		Mode:       ModeFallback,
	}
}

func ClampConfidence(c float64) float64 {
	switch {
	case c != c: // NaN
		return 0
	case c < 0:
		return 0
	case c > 1:
		return 1
	}
	return c
}

var newlines = strings.NewReplacer("\r\n", "\n", "\r", "\n")

// NormalizeNewlines turns CRLF and lone CR line endings into LF. Text is
// normalized once on entry so stored rows match what callers were shown.
func NormalizeNewlines(s string) string {
	if !strings.ContainsRune(s, '\r') {
		return s
	}
	return newlines.Replace(s)
}

// ResultRecord is one persisted row.
type ResultRecord struct {
	AnalysisResult
	Transcript string    `json:"transcript"`
	Timestamp  time.Time `json:"timestamp"`
}
