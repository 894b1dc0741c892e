package extractor

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"call-analyzer-go/internal/types"
)

const systemPrompt = `You are an expert customer service analyst. Analyze call transcripts for summary and sentiment.

SENTIMENT RULES:
- Positive: Customer expresses satisfaction, gratitude, or positive emotions
- Negative: Customer expresses frustration, anger, complaints, or dissatisfaction
- Neutral: Professional exchange without strong emotional indicators

EXAMPLES:
Customer: "Thank you so much! This really helped solve my problem."
-> Sentiment: Positive

Customer: "This is ridiculous! I've been waiting for hours and nothing works!"
-> Sentiment: Negative

Customer: "I need to update my billing address please."
-> Sentiment: Neutral

Return ONLY valid JSON with exactly these keys:
{
  "summary": "2-3 sentence summary of the call",
  "sentiment": "Positive | Neutral | Negative",
  "confidence": 0.0-1.0 how certain you are of the sentiment
}
Sentiment MUST be exactly one of: "Positive", "Neutral", or "Negative".`

func userPrompt(transcript string) string {
	return fmt.Sprintf("Analyze this transcript:\n\n%s", transcript)
}

// analysisPayload uses pointers so that absent keys can be told apart from
// zero values.
type analysisPayload struct {
	Summary    *string  `json:"summary"`
	Sentiment  *string  `json:"sentiment"`
	Confidence *float64 `json:"confidence"`
}

// parseAnalysis turns model output into an AI result. Every deviation from
// the expected shape is an error; callers report it as ErrMalformedResponse.
func parseAnalysis(content string) (types.AnalysisResult, error) {
	raw := extractJSON(content)
	if raw == "" {
		return types.AnalysisResult{}, errors.New("no JSON object in output")
	}
	var p analysisPayload
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return types.AnalysisResult{}, err
	}
	if p.Summary == nil || strings.TrimSpace(*p.Summary) == "" {
		return types.AnalysisResult{}, errors.New("missing summary")
	}
	if p.Sentiment == nil {
		return types.AnalysisResult{}, errors.New("missing sentiment")
	}
	if p.Confidence == nil {
		return types.AnalysisResult{}, errors.New("missing confidence")
	}
	s, err := types.ParseSentiment(*p.Sentiment)
	if err != nil {
		return types.AnalysisResult{}, err
	}
	return types.AIResult(strings.TrimSpace(*p.Summary), s, *p.Confidence), nil
}

// extractJSON finds the first balanced JSON object in a string and returns it.
// It strips common markdown fences first.
func extractJSON(s string) string {
	if s == "" {
		return ""
	}

	s = strings.ReplaceAll(s, "\r\n", "\n")
	for _, r := range []string{"```json", "```JSON", "```"} {
		s = strings.ReplaceAll(s, r, "")
	}

	start := strings.Index(s, "{")
	if start == -1 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return strings.TrimSpace(s[start : i+1])
			}
		}
	}

	return ""
}
