package processor

import (
	"context"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"call-analyzer-go/internal/extractor"
	"call-analyzer-go/internal/logger"
	"call-analyzer-go/internal/metrics"
	"call-analyzer-go/internal/sentiment"
	"call-analyzer-go/internal/types"
)

// Dispatcher decides, per transcript, between the AI analyzer and the
// keyword fallback. A nil analyzer means every transcript uses the fallback.
type Dispatcher struct {
	analyzer extractor.Analyzer
	log      *logrus.Entry
}

func NewDispatcher(analyzer extractor.Analyzer) *Dispatcher {
	return &Dispatcher{
		analyzer: analyzer,
		log:      logger.New().WithField("component", "dispatcher"),
	}
}

// HasAnalyzer reports whether an AI provider is configured.
func (d *Dispatcher) HasAnalyzer() bool {
	return d.analyzer != nil
}

// Process always returns a usable result. The AI service is tried at most
// once; any failure is answered by the keyword classifier.
func (d *Dispatcher) Process(ctx context.Context, transcript string) types.AnalysisResult {
	log := d.log.WithField("transcript_len", len(transcript))

	var res types.AnalysisResult
	switch {
	case strings.TrimSpace(transcript) == "":
		log.Debug("empty transcript, using fallback")
		res = fallback(transcript)
	case d.analyzer == nil:
		log.Debug("no AI provider configured, using fallback")
		res = fallback(transcript)
	default:
		start := time.Now()
		ai, err := d.analyzer.Analyze(ctx, transcript)
		metrics.ObserveAIRequest(time.Since(start))
		if err != nil {
			kind := extractor.KindLabel(err)
			metrics.RecordAIFailure(kind)
			log.WithFields(logrus.Fields{
				"provider":    d.analyzer.Provider(),
				"kind":        kind,
				"error":       err.Error(),
				"duration_ms": time.Since(start).Milliseconds(),
			}).Warn("AI analysis failed, using fallback")
			res = fallback(transcript)
		} else {
			res = ai
		}
	}

	metrics.RecordAnalysis(string(res.Mode), string(res.Sentiment))
	log.WithFields(logrus.Fields{
		"mode":       res.Mode,
		"sentiment":  res.Sentiment,
		"confidence": res.Confidence,
	}).Info("transcript analyzed")
	return res
}

func fallback(transcript string) types.AnalysisResult {
	s, conf := sentiment.Classify(transcript)
	return types.FallbackResult(s, conf)
}

// Comparison is the diagnostic view of both classifiers on one transcript.
type Comparison struct {
	Transcript        string                `json:"transcript"`
	FallbackSentiment types.Sentiment       `json:"fallback_sentiment"`
	PositiveMatches   int                   `json:"positive_matches"`
	NegativeMatches   int                   `json:"negative_matches"`
	APIResult         *types.AnalysisResult `json:"api_result,omitempty"`
	APIError          string                `json:"api_error,omitempty"`
	APIAvailable      bool                  `json:"api_available"`
}

// Compare runs the keyword classifier and, when configured, one AI call.
// The AI error is reported by kind only.
func (d *Dispatcher) Compare(ctx context.Context, transcript string) Comparison {
	s, _ := sentiment.Classify(transcript)
	pos, neg := sentiment.Counts(transcript)
	out := Comparison{
		Transcript:        transcript,
		FallbackSentiment: s,
		PositiveMatches:   pos,
		NegativeMatches:   neg,
		APIAvailable:      d.analyzer != nil,
	}
	if d.analyzer == nil {
		out.APIError = "not_configured"
		return out
	}
	res, err := d.analyzer.Analyze(ctx, transcript)
	if err != nil {
		out.APIError = extractor.KindLabel(err)
		return out
	}
	out.APIResult = &res
	return out
}
