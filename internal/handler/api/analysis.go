package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	models "TradeScope/internal/domain/models"
	domrepo "TradeScope/internal/domain/repository"
	"TradeScope/internal/stream"
	"TradeScope/internal/usecase"
	xhttp "TradeScope/pkg/http"
	xlogger "TradeScope/pkg/logger"
)

// AnalysisHandler serves the streaming analysis endpoint and the cached read.
type AnalysisHandler struct {
	logger  *xlogger.Logger
	orch    *usecase.Orchestrator
	results domrepo.ResultStore
	metrics domrepo.Metrics
}

func NewAnalysisHandler(logger *xlogger.Logger, orch *usecase.Orchestrator, results domrepo.ResultStore, metrics domrepo.Metrics) *AnalysisHandler {
	return &AnalysisHandler{logger: logger, orch: orch, results: results, metrics: metrics}
}

func (h *AnalysisHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/analyze", h.Analyze)
	g.GET("/analysis/cached", h.Cached)
}

// Analyze starts a pipeline run and streams its events until the run reaches
// a terminal frame or the observer disconnects. A new request for the same
// observer and subject cancels the prior in-flight run.
func (h *AnalysisHandler) Analyze(c echo.Context) error {
	req := &models.AnalyzeRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	subject := strings.ToUpper(strings.TrimSpace(req.Symbol))
	mode := models.Mode(req.Mode)

	resp := c.Response()
	resp.Header().Set(echo.HeaderContentType, "text/event-stream")
	resp.Header().Set(echo.HeaderCacheControl, "no-cache")
	resp.Header().Set(echo.HeaderConnection, "keep-alive")
	resp.WriteHeader(http.StatusOK)

	emitter := stream.NewEmitter(c.Request().Context(), resp)
	h.orch.Execute(c.Request().Context(), c.RealIP(), subject, mode, emitter)
	return nil
}

// Cached returns the most recent completed analysis for a subject, if any.
func (h *AnalysisHandler) Cached(c echo.Context) error {
	req := &models.CachedRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	subject := strings.ToUpper(strings.TrimSpace(req.Symbol))

	entry, err := h.results.Get(c.Request().Context(), subject)
	if errors.Is(err, domrepo.ErrNotFound) {
		h.metrics.RecordCacheHit(false)
		return c.JSON(http.StatusOK, &models.CachedAnalysis{Cached: false})
	}
	if err != nil {
		h.logger.Error("cached analysis read error",
			xlogger.String("subject", subject), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}

	h.metrics.RecordCacheHit(true)
	// Unlike the other endpoints this one returns the object bare: stream
	// observers consume it directly to hydrate their reducer state.
	return c.JSON(http.StatusOK, &models.CachedAnalysis{
		Cached:   true,
		Agents:   entry.Agents,
		Decision: entry.Decision,
		Date:     entry.Date,
	})
}
