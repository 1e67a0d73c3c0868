package api

import (
	"context"
	"time"

	models "SweepSim/internal/domain/models"
	domrepo "SweepSim/internal/domain/repository"
	"SweepSim/internal/repository"
	"SweepSim/internal/usecase"
	xhttp "SweepSim/pkg/http"
	xlogger "SweepSim/pkg/logger"

	"github.com/labstack/echo/v4"
)

// EventsEchoHandler exposes the query API: stored candles, detected events,
// and the latest replay report.
type EventsEchoHandler struct {
	logger   *xlogger.Logger
	candles  *usecase.CandlesUseCase
	pipeline *usecase.DetectionPipeline
	replay   *usecase.ReplayUseCase
}

func NewEventsEchoHandler(logger *xlogger.Logger, candles *usecase.CandlesUseCase, pipeline *usecase.DetectionPipeline, replay *usecase.ReplayUseCase) *EventsEchoHandler {
	return &EventsEchoHandler{logger: logger, candles: candles, pipeline: pipeline, replay: replay}
}

func (h *EventsEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/candles", h.Candles)
	g.GET("/events/sweeps", h.Sweeps)
	g.GET("/events/bursts", h.Bursts)
	g.GET("/replay/report", h.ReplayReport)
	g.POST("/replay/run", h.RunReplay)
}

func (h *EventsEchoHandler) Candles(c echo.Context) error {
	req := &models.CandlesRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	tf := domrepo.NormalizeTimeframe(req.TF)

	to := xhttp.ParseTimeDefault(req.To, time.Now().UTC())
	from := xhttp.ParseTimeDefault(req.From, to.Add(-24*time.Hour))

	res, err := h.candles.GetCandles(c.Request().Context(), usecase.GetCandlesParams{
		Symbol:    req.Symbol,
		From:      from,
		To:        to,
		Timeframe: tf,
		Limit:     req.Limit,
	})
	if err != nil {
		h.logger.Error("candles usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=15")
	return xhttp.SuccessResponse(c, res)
}

func (h *EventsEchoHandler) Sweeps(c echo.Context) error {
	req := &models.EventsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	events := filterSweeps(h.pipeline.RecentSweeps(req.Limit), req.Symbol)
	return xhttp.SuccessResponse(c, map[string]interface{}{
		"symbol": req.Symbol,
		"count":  len(events),
		"events": events,
	})
}

func (h *EventsEchoHandler) Bursts(c echo.Context) error {
	req := &models.EventsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	events := filterBursts(h.pipeline.RecentBursts(req.Limit), req.Symbol)
	return xhttp.SuccessResponse(c, map[string]interface{}{
		"symbol": req.Symbol,
		"count":  len(events),
		"events": events,
	})
}

// RunReplay pulls the requested range from the store and drives it through
// the detection pipeline in the background. Poll /replay/report for results.
func (h *EventsEchoHandler) RunReplay(c echo.Context) error {
	req := &models.ReplayRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if h.replay.Running() {
		return xhttp.BadRequestResponse(c, "replay already running")
	}

	from := xhttp.ParseTimeDefault(req.From, time.Time{})
	to := xhttp.ParseTimeDefault(req.To, time.Time{})
	if from.IsZero() || to.IsZero() || from.After(to) {
		return xhttp.BadRequestResponse(c, "from/to must be RFC3339 with from <= to")
	}

	res, err := h.candles.GetCandles(c.Request().Context(), usecase.GetCandlesParams{
		Symbol:    req.Symbol,
		From:      from,
		To:        to,
		Timeframe: domrepo.NormalizeTimeframe(req.TF),
		Limit:     50000,
	})
	if err != nil {
		h.logger.Error("replay candle fetch error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	if res.Count == 0 {
		return xhttp.NotFoundResponse(c, "no candles in range")
	}

	go func() {
		source := repository.NewSliceCandleSource(res.Candles)
		if _, err := h.replay.Run(context.Background(), source); err != nil {
			h.logger.Error("replay run failed", xlogger.Error(err))
		}
	}()

	return xhttp.SuccessResponse(c, map[string]interface{}{
		"symbol":  req.Symbol,
		"candles": res.Count,
		"status":  "started",
	})
}

func (h *EventsEchoHandler) ReplayReport(c echo.Context) error {
	report := h.replay.LastReport()
	if report == nil {
		return xhttp.NotFoundResponse(c, "no completed replay")
	}
	return xhttp.SuccessResponse(c, map[string]interface{}{
		"running": h.replay.Running(),
		"report":  report,
	})
}

func filterSweeps(events []*models.SweepEvent, symbol string) []*models.SweepEvent {
	out := make([]*models.SweepEvent, 0, len(events))
	for _, e := range events {
		if symbol == "" || e.Symbol == symbol {
			out = append(out, e)
		}
	}
	return out
}

func filterBursts(events []*models.BurstEvent, symbol string) []*models.BurstEvent {
	out := make([]*models.BurstEvent, 0, len(events))
	for _, e := range events {
		if symbol == "" || e.Symbol == symbol {
			out = append(out, e)
		}
	}
	return out
}
