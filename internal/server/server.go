package server

import (
	"embed"
	"html/template"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"call-analyzer-go/internal/logger"
)

//go:embed templates/*.html
var templatesFS embed.FS

const logKey = "log"

type Options struct {
	CORSOrigins []string
	Metrics     http.Handler
	Log         *logger.Logger
}

// NewRouter wires the routes. Metrics is optional.
func NewRouter(h *Handler, opts Options) *gin.Engine {
	log := opts.Log
	if log == nil {
		log = logger.New()
	}

	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(log))
	if len(opts.CORSOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins: opts.CORSOrigins,
			AllowMethods: []string{"GET", "POST", "OPTIONS"},
			AllowHeaders: []string{"Origin", "Content-Type", logger.RequestIDHeader},
		}))
	}
	r.SetHTMLTemplate(template.Must(template.ParseFS(templatesFS, "templates/*.html")))

	r.GET("/", h.Index)
	r.POST("/analyze", h.Analyze)
	r.GET("/download", h.Download)
	r.GET("/download.xlsx", h.DownloadXLSX)
	r.GET("/stats", h.Stats)
	r.POST("/test-sentiment", h.TestSentiment)
	r.GET("/healthz", h.Health)
	if opts.Metrics != nil {
		r.GET("/metrics", gin.WrapH(opts.Metrics))
	}
	return r
}

// requestLogger attaches a request-scoped entry and logs every request once
// it completes.
func requestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		reqID := logger.RequestID(c.Request)
		c.Header(logger.RequestIDHeader, reqID)
		entry := log.WithRequestID(c.Request, reqID)
		c.Set(logKey, entry)

		start := time.Now()
		c.Next()

		entry.WithFields(logrus.Fields{
			"status":      c.Writer.Status(),
			"duration_ms": time.Since(start).Milliseconds(),
		}).Info("request handled")
	}
}

func requestLog(c *gin.Context) *logrus.Entry {
	if v, ok := c.Get(logKey); ok {
		if e, ok := v.(*logrus.Entry); ok {
			return e
		}
	}
	return logger.New().WithRequest(c.Request)
}
