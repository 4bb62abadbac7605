package api

import (
	"github.com/labstack/echo/v4"

	"TradeScope/internal/strategy"
	xhttp "TradeScope/pkg/http"
	xlogger "TradeScope/pkg/logger"
)

// StrategyHandler exposes the rule and risk configuration for inspection and
// editing. Saves are atomic: a config that fails validation never lands.
type StrategyHandler struct {
	logger *xlogger.Logger
	store  *strategy.Store
}

func NewStrategyHandler(logger *xlogger.Logger, store *strategy.Store) *StrategyHandler {
	return &StrategyHandler{logger: logger, store: store}
}

func (h *StrategyHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/strategy", h.GetStrategy)
	g.PUT("/strategy", h.PutStrategy)
	g.GET("/risk", h.GetRisk)
	g.PUT("/risk", h.PutRisk)
}

func (h *StrategyHandler) GetStrategy(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.store.Strategy())
}

func (h *StrategyHandler) PutStrategy(c echo.Context) error {
	cfg := &strategy.Config{}
	if err := c.Bind(cfg); err != nil {
		return xhttp.BadRequestResponse(c, err.Error())
	}
	if err := cfg.Validate(); err != nil {
		return xhttp.BadRequestResponse(c, err.Error())
	}
	if err := h.store.SaveStrategy(cfg); err != nil {
		h.logger.Error("strategy save error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, h.store.Strategy())
}

func (h *StrategyHandler) GetRisk(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.store.Risk())
}

func (h *StrategyHandler) PutRisk(c echo.Context) error {
	cfg := &strategy.RiskConfig{}
	if err := c.Bind(cfg); err != nil {
		return xhttp.BadRequestResponse(c, err.Error())
	}
	if err := cfg.Validate(); err != nil {
		return xhttp.BadRequestResponse(c, err.Error())
	}
	if err := h.store.SaveRisk(cfg); err != nil {
		h.logger.Error("risk save error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, h.store.Risk())
}
