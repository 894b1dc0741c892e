package aggregator

import "call-analyzer-go/internal/types"

type Insight struct {
	Total                int                         `json:"total"`
	BySentiment          map[types.Sentiment]int     `json:"by_sentiment"`
	ByMode               map[types.Mode]int          `json:"by_mode"`
	FallbackRate         float64                     `json:"fallback_rate"`
	AvgConfidenceByLabel map[types.Sentiment]float64 `json:"avg_confidence_by_sentiment"`
}

func Aggregate(records []types.ResultRecord) Insight {
	bySentiment := map[types.Sentiment]int{
		types.Positive: 0,
		types.Neutral:  0,
		types.Negative: 0,
	}
	byMode := map[types.Mode]int{
		types.ModeAI:       0,
		types.ModeFallback: 0,
	}
	confSum := map[types.Sentiment]float64{}
	for _, r := range records {
		bySentiment[r.Sentiment]++
		byMode[r.Mode]++
		confSum[r.Sentiment] += r.Confidence
	}
	avg := map[types.Sentiment]float64{}
	for s, sum := range confSum {
		if n := bySentiment[s]; n > 0 {
			avg[s] = sum / float64(n)
		}
	}
	rate := 0.0
	if len(records) > 0 {
		rate = float64(byMode[types.ModeFallback]) / float64(len(records))
	}
	return Insight{
		Total:                len(records),
		BySentiment:          bySentiment,
		ByMode:               byMode,
		FallbackRate:         rate,
		AvgConfidenceByLabel: avg,
	}
}
