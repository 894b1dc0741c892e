package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"call-analyzer-go/internal/aggregator"
	"call-analyzer-go/internal/dataset"
	"call-analyzer-go/internal/extractor"
	"call-analyzer-go/internal/processor"
	"call-analyzer-go/internal/types"
)

type fakeAnalyzer struct {
	result types.AnalysisResult
	err    error
	calls  int
}

func (f *fakeAnalyzer) Analyze(_ context.Context, _ string) (types.AnalysisResult, error) {
	f.calls++
	return f.result, f.err
}

func (f *fakeAnalyzer) Ping(context.Context) error { return nil }

func (f *fakeAnalyzer) Provider() string { return "fake" }

type failingStore struct {
	*dataset.CSVStore
}

func (failingStore) Append(types.ResultRecord) error {
	return errors.New("disk full")
}

func newTestRouter(t *testing.T, analyzer extractor.Analyzer, store ResultStore) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	return NewRouter(NewHandler(processor.NewDispatcher(analyzer), store, nil), Options{})
}

func tempStore(t *testing.T) *dataset.CSVStore {
	t.Helper()
	return dataset.NewCSVStore(filepath.Join(t.TempDir(), "results.csv"))
}

func postJSON(r http.Handler, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func TestAnalyze_AIResult(t *testing.T) {
	store := tempStore(t)
	fa := &fakeAnalyzer{result: types.AIResult("Customer thanked agent for great service.", types.Positive, 0.92)}
	r := newTestRouter(t, fa, store)

	w := postJSON(r, "/analyze", `{"transcript":"  Thanks so much, great service!  "}`)
	require.Equal(t, http.StatusOK, w.Code)

	var res AnalyzeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, "Thanks so much, great service!", res.Transcript)
	assert.Equal(t, "Customer thanked agent for great service.", res.Summary)
	assert.Equal(t, types.Positive, res.Sentiment)
	assert.Equal(t, 0.92, res.Confidence)
	assert.Equal(t, types.ModeAI, res.Mode)
	assert.Equal(t, "AI Service", res.Method)
	assert.True(t, res.Saved)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	recs, err := store.ReadAll()
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "Thanks so much, great service!", recs[0].Transcript)
	assert.Equal(t, types.ModeAI, recs[0].Mode)
}

func TestAnalyze_FallbackHidesServiceError(t *testing.T) {
	fa := &fakeAnalyzer{err: &extractor.AIError{Provider: "fake", Kind: extractor.ErrUnavailable, Err: errors.New("secret upstream detail")}}
	r := newTestRouter(t, fa, tempStore(t))

	w := postJSON(r, "/analyze", `{"transcript":"The agent was rude and unhelpful, I am furious"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "secret upstream detail")

	var res AnalyzeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, types.Negative, res.Sentiment)
	assert.Equal(t, types.ModeFallback, res.Mode)
	assert.Equal(t, "Fallback Analysis", res.Method)
	assert.Empty(t, res.Summary)
}

func TestAnalyze_RejectsEmpty(t *testing.T) {
	fa := &fakeAnalyzer{}
	store := tempStore(t)
	r := newTestRouter(t, fa, store)

	for _, body := range []string{`{"transcript":"   "}`, `{}`} {
		w := postJSON(r, "/analyze", body)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "Transcript cannot be empty.")
	}

	w := postJSON(r, "/analyze", `not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	assert.Equal(t, 0, fa.calls)
	recs, err := store.ReadAll()
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestAnalyze_StoreFailureStillReturnsResult(t *testing.T) {
	fa := &fakeAnalyzer{result: types.AIResult("ok", types.Neutral, 0.5)}
	r := newTestRouter(t, fa, failingStore{tempStore(t)})

	w := postJSON(r, "/analyze", `{"transcript":"I need to update my billing address"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var res AnalyzeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.False(t, res.Saved)
	assert.NotEmpty(t, res.Warning)
	assert.Equal(t, types.Neutral, res.Sentiment)
}

func TestAnalyze_MultiLineTranscriptStoredAsShown(t *testing.T) {
	store := tempStore(t)
	r := newTestRouter(t, nil, store)

	form := url.Values{"transcript": {"Agent: hi\r\nCustomer: thanks, great help\r\n"}}
	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/analyze", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	w = postJSON(r, "/analyze", `{"transcript":"Agent: hello\r\r\nCustomer: it is broken"}`)
	require.Equal(t, http.StatusOK, w.Code)
	var res AnalyzeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.True(t, res.Saved)

	recs, err := store.ReadAll()
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "Agent: hi\nCustomer: thanks, great help", recs[0].Transcript)
	assert.Equal(t, res.Transcript, recs[1].Transcript)
	assert.Equal(t, "Agent: hello\n\nCustomer: it is broken", recs[1].Transcript)
}

func TestAnalyze_FormRendersPage(t *testing.T) {
	r := newTestRouter(t, nil, tempStore(t))

	form := url.Values{"transcript": {"Thanks so much, great service!"}}
	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/analyze", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "Positive")
	assert.Contains(t, body, "Fallback Analysis")
	assert.Contains(t, body, "Summary unavailable.")

	w = httptest.NewRecorder()
	req = httptest.NewRequest("POST", "/analyze", strings.NewReader("transcript="))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Transcript cannot be empty.")
}

func TestIndex(t *testing.T) {
	r := newTestRouter(t, nil, tempStore(t))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `name="transcript"`)
}

func TestDownload(t *testing.T) {
	store := tempStore(t)
	r := newTestRouter(t, nil, store)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/download", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "timestamp,transcript,summary,sentiment,confidence,mode\n", w.Body.String())
	assert.Contains(t, w.Header().Get("Content-Disposition"), "call_analysis.csv")

	postJSON(r, "/analyze", `{"transcript":"rude, \"awful\" agent"}`)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/download", nil))
	recs, err := dataset.Decode(strings.NewReader(w.Body.String()))
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, `rude, "awful" agent`, recs[0].Transcript)
	assert.Equal(t, types.Negative, recs[0].Sentiment)
}

func TestDownloadXLSX(t *testing.T) {
	r := newTestRouter(t, nil, tempStore(t))
	postJSON(r, "/analyze", `{"transcript":"great call"}`)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/download.xlsx", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, xlsxMIME, w.Header().Get("Content-Type"))
	// xlsx files are zip archives
	assert.True(t, strings.HasPrefix(w.Body.String(), "PK"))
}

func TestStats(t *testing.T) {
	r := newTestRouter(t, nil, tempStore(t))
	postJSON(r, "/analyze", `{"transcript":"great call"}`)
	postJSON(r, "/analyze", `{"transcript":"terrible call"}`)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/stats", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var ins aggregator.Insight
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ins))
	assert.Equal(t, 2, ins.Total)
	assert.Equal(t, 1.0, ins.FallbackRate)
	assert.Equal(t, 1, ins.BySentiment[types.Positive])
	assert.Equal(t, 1, ins.BySentiment[types.Negative])
}

func TestTestSentiment(t *testing.T) {
	fa := &fakeAnalyzer{result: types.AIResult("Happy caller.", types.Positive, 0.8)}
	store := tempStore(t)
	r := newTestRouter(t, fa, store)

	w := postJSON(r, "/test-sentiment", `{"transcript":"thanks, great"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var cmp processor.Comparison
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &cmp))
	assert.True(t, cmp.APIAvailable)
	assert.Equal(t, types.Positive, cmp.FallbackSentiment)
	require.NotNil(t, cmp.APIResult)
	assert.Equal(t, "Happy caller.", cmp.APIResult.Summary)

	recs, err := store.ReadAll()
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestHealth(t *testing.T) {
	r := newTestRouter(t, nil, tempStore(t))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/healthz", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, false, body["ai_provider_configured"])
	assert.Equal(t, false, body["ai_checked"])
}

func TestMetricsRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)
	metricsHandler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("# metrics"))
	})
	r := NewRouter(NewHandler(processor.NewDispatcher(nil), tempStore(t), nil), Options{Metrics: metricsHandler})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "# metrics", w.Body.String())
}
