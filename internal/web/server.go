package web

import (
	"context"
	"net/http"
	"strconv"
	gosync "sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/wesm/stack-digest/internal/analytics"
	"github.com/wesm/stack-digest/internal/metrics"
	"github.com/wesm/stack-digest/internal/models"
	"github.com/wesm/stack-digest/internal/sync"
)

// Analytics is the query side served by the API
type Analytics interface {
	TopTags(ctx context.Context, topN int) ([]models.TagFrequency, error)
	TagFrequency(ctx context.Context, name string) (models.TagFrequency, error)
	TopEngagement(ctx context.Context, topN int, minReputation *int64) ([]models.TagEngagement, error)
	TopExceptions(ctx context.Context, topN int) ([]models.ExceptionFrequency, error)
	ExceptionFrequency(ctx context.Context, name string) (models.ExceptionFrequency, error)
	AnswerQuality(ctx context.Context, topN int, by analytics.SortBy) ([]models.AnswerQuality, error)
	QuestionAnswerQuality(ctx context.Context, questionID int64, by analytics.SortBy) ([]models.AnswerQuality, error)
}

// Ingester runs ingestion under a caller-chosen run id
type Ingester interface {
	RunWithID(ctx context.Context, id uuid.UUID, total int) (*sync.RunSummary, error)
}

// RunStore looks up recorded ingestion runs
type RunStore interface {
	GetRun(ctx context.Context, id string) (*models.IngestRun, error)
}

// Deps are the collaborators of a Server. BaseContext bounds background
// ingestion runs; cancelling it stops them.
type Deps struct {
	Analytics    Analytics
	Ingester     Ingester
	Runs         RunStore
	Metrics      *metrics.Metrics
	Logger       zerolog.Logger
	BaseContext  context.Context
	DefaultTotal int
}

// Server is the stack-digest HTTP API
type Server struct {
	analytics    Analytics
	ingester     Ingester
	runs         RunStore
	metrics      *metrics.Metrics
	log          zerolog.Logger
	baseCtx      context.Context
	defaultTotal int
	router       *gin.Engine

	running atomic.Bool
	wg      gosync.WaitGroup
}

// NewServer creates a new web server
func NewServer(deps Deps) *Server {
	router := gin.New()

	baseCtx := deps.BaseContext
	if baseCtx == nil {
		baseCtx = context.Background()
	}

	s := &Server{
		analytics:    deps.Analytics,
		ingester:     deps.Ingester,
		runs:         deps.Runs,
		metrics:      deps.Metrics,
		log:          deps.Logger,
		baseCtx:      baseCtx,
		defaultTotal: deps.DefaultTotal,
		router:       router,
	}

	router.Use(gin.Recovery(), s.observe)

	router.GET("/healthz", s.handleHealth)
	if deps.Metrics != nil {
		router.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	}

	api := router.Group("/api/v1")
	{
		api.POST("/data", s.handleStartRun)
		api.GET("/runs/:id", s.handleGetRun)

		api.GET("/questions/top-tags/:topN", s.handleTopTags)
		api.GET("/questions/tag-frequency/:tag", s.handleTagFrequency)
		api.GET("/questions/top-engagement-tags/:topN", s.handleTopEngagement)
		api.GET("/questions/top-engagement-tags-top-users/:topN/:reputation", s.handleTopEngagementByReputation)

		api.GET("/exceptions/top/:topN", s.handleTopExceptions)
		api.GET("/exceptions/frequency/:name", s.handleExceptionFrequency)

		api.GET("/answers/quality/:topN", s.handleAnswerQuality)
		api.GET("/answers/question/:questionId", s.handleQuestionAnswers)
	}

	return s
}

// Handler returns the HTTP handler of the server
func (s *Server) Handler() http.Handler {
	return s.router
}

// Wait blocks until a background ingestion run, if any, has returned
func (s *Server) Wait() {
	s.wg.Wait()
}

// observe records request metrics and logs each request
func (s *Server) observe(c *gin.Context) {
	start := time.Now()
	c.Next()

	route := c.FullPath()
	if route == "" {
		route = "unmatched"
	}
	status := c.Writer.Status()
	elapsed := time.Since(start)

	s.metrics.RecordHTTPRequest(route, strconv.Itoa(status), elapsed)
	s.log.Debug().
		Str("method", c.Request.Method).
		Str("route", route).
		Int("status", status).
		Dur("duration", elapsed).
		Msg("HTTP request")
}
