package aggregator

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"call-analyzer-go/internal/types"
)

func rec(r types.AnalysisResult) types.ResultRecord {
	return types.ResultRecord{AnalysisResult: r}
}

func TestAggregate(t *testing.T) {
	ins := Aggregate([]types.ResultRecord{
		rec(types.AIResult("a", types.Positive, 0.9)),
		rec(types.AIResult("b", types.Positive, 0.7)),
		rec(types.FallbackResult(types.Negative, 0.65)),
		rec(types.FallbackResult(types.Neutral, 0.4)),
	})

	assert.Equal(t, 4, ins.Total)
	assert.Equal(t, 2, ins.BySentiment[types.Positive])
	assert.Equal(t, 1, ins.BySentiment[types.Negative])
	assert.Equal(t, 2, ins.ByMode[types.ModeFallback])
	assert.Equal(t, 0.5, ins.FallbackRate)
	assert.InDelta(t, 0.8, ins.AvgConfidenceByLabel[types.Positive], 1e-9)
	assert.InDelta(t, 0.65, ins.AvgConfidenceByLabel[types.Negative], 1e-9)
}

func TestAggregate_Empty(t *testing.T) {
	ins := Aggregate(nil)
	assert.Equal(t, 0, ins.Total)
	assert.Equal(t, 0.0, ins.FallbackRate)
	assert.Equal(t, 0, ins.BySentiment[types.Neutral])
	assert.Empty(t, ins.AvgConfidenceByLabel)
}
