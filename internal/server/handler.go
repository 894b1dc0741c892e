package server

import (
	"bytes"
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"call-analyzer-go/internal/aggregator"
	"call-analyzer-go/internal/dataset"
	"call-analyzer-go/internal/metrics"
	"call-analyzer-go/internal/monitoring"
	"call-analyzer-go/internal/processor"
	"call-analyzer-go/internal/types"
)

const (
	csvFilename  = "call_analysis.csv"
	xlsxFilename = "call_analysis.xlsx"
	xlsxMIME     = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

type Dispatcher interface {
	Process(ctx context.Context, transcript string) types.AnalysisResult
	Compare(ctx context.Context, transcript string) processor.Comparison
	HasAnalyzer() bool
}

type ResultStore interface {
	Append(rec types.ResultRecord) error
	Snapshot() ([]byte, error)
	ReadAll() ([]types.ResultRecord, error)
}

type Handler struct {
	dispatcher Dispatcher
	store      ResultStore
	probe      *monitoring.Status
	now        func() time.Time
}

func NewHandler(dispatcher Dispatcher, store ResultStore, probe *monitoring.Status) *Handler {
	if probe == nil {
		probe = &monitoring.Status{}
	}
	return &Handler{
		dispatcher: dispatcher,
		store:      store,
		probe:      probe,
		now:        time.Now,
	}
}

type AnalyzeRequest struct {
	Transcript string `json:"transcript" form:"transcript"`
}

type AnalyzeResponse struct {
	Transcript string          `json:"transcript"`
	Summary    string          `json:"summary"`
	Sentiment  types.Sentiment `json:"sentiment"`
	Confidence float64         `json:"confidence"`
	Mode       types.Mode      `json:"mode"`
	Method     string          `json:"method"`
	Saved      bool            `json:"saved"`
	Warning    string          `json:"warning,omitempty"`
}

const errEmptyTranscript = "Transcript cannot be empty."

func (h *Handler) Index(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html", page("", "", nil))
}

// Analyze accepts JSON or a form post. JSON callers get JSON back; the form
// re-renders the page with the result.
func (h *Handler) Analyze(c *gin.Context) {
	log := requestLog(c)
	asJSON := c.ContentType() == gin.MIMEJSON

	var req AnalyzeRequest
	var err error
	if asJSON {
		err = c.ShouldBindJSON(&req)
	} else {
		err = c.ShouldBind(&req)
	}
	if err != nil {
		log.WithError(err).Warn("invalid analyze request")
		h.badRequest(c, asJSON, "Request must contain a 'transcript' field.", "")
		return
	}

	// browsers post textarea content with CRLF line endings
	transcript := types.NormalizeNewlines(strings.TrimSpace(req.Transcript))
	if transcript == "" {
		log.Warn("empty transcript")
		h.badRequest(c, asJSON, errEmptyTranscript, req.Transcript)
		return
	}

	result := h.dispatcher.Process(c.Request.Context(), transcript)
	res := AnalyzeResponse{
		Transcript: transcript,
		Summary:    result.Summary,
		Sentiment:  result.Sentiment,
		Confidence: result.Confidence,
		Mode:       result.Mode,
		Method:     result.Mode.Method(),
		Saved:      true,
	}

	rec := types.ResultRecord{AnalysisResult: result, Transcript: transcript, Timestamp: h.now()}
	if err := h.store.Append(rec); err != nil {
		metrics.RecordStoreError()
		log.WithError(err).Error("failed to save result")
		res.Saved = false
		res.Warning = "The analysis could not be saved."
	}

	log.WithFields(logrus.Fields{
		"mode":      result.Mode,
		"sentiment": result.Sentiment,
		"saved":     res.Saved,
	}).Info("analyze finished")

	if asJSON {
		c.JSON(http.StatusOK, res)
		return
	}
	c.HTML(http.StatusOK, "index.html", page(transcript, "", &res))
}

func (h *Handler) badRequest(c *gin.Context, asJSON bool, msg, transcript string) {
	if asJSON {
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return
	}
	c.HTML(http.StatusBadRequest, "index.html", page(transcript, msg, nil))
}

func page(transcript, errMsg string, res *AnalyzeResponse) gin.H {
	return gin.H{"Transcript": transcript, "Error": errMsg, "Result": res}
}

func (h *Handler) Download(c *gin.Context) {
	b, err := h.store.Snapshot()
	if err != nil {
		requestLog(c).WithError(err).Error("error downloading CSV")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not download file."})
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+csvFilename+`"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", b)
}

func (h *Handler) DownloadXLSX(c *gin.Context) {
	log := requestLog(c)
	records, err := h.store.ReadAll()
	if err != nil {
		log.WithError(err).Error("error reading results")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not download file."})
		return
	}
	var buf bytes.Buffer
	if err := dataset.ExportXLSX(records, &buf); err != nil {
		log.WithError(err).Error("error building spreadsheet")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not download file."})
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+xlsxFilename+`"`)
	c.Data(http.StatusOK, xlsxMIME, buf.Bytes())
}

func (h *Handler) Stats(c *gin.Context) {
	records, err := h.store.ReadAll()
	if err != nil {
		requestLog(c).WithError(err).Error("error reading results")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not read results."})
		return
	}
	c.JSON(http.StatusOK, aggregator.Aggregate(records))
}

// TestSentiment shows what each classifier makes of a transcript without
// storing anything.
func (h *Handler) TestSentiment(c *gin.Context) {
	var req AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Request must contain a 'transcript' field."})
		return
	}
	c.JSON(http.StatusOK, h.dispatcher.Compare(c.Request.Context(), req.Transcript))
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":                 "ok",
		"ai_provider_configured": h.dispatcher.HasAnalyzer(),
		"ai_checked":             h.probe.Checked(),
		"ai_reachable":           h.probe.Reachable(),
		"ai_last_error":          h.probe.LastError(),
	})
}
