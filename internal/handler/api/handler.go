package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"StockScan/internal/domain/repository"
	internalrepo "StockScan/internal/repository"
	pkghttp "StockScan/pkg/http"
	"StockScan/pkg/logger"
)

// HealthChecker reports whether a backing dependency is reachable.
type HealthChecker func(ctx context.Context) error

// Handler serves the ops API: liveness, readiness, and read-only views
// over persisted runs and candidates.
type Handler struct {
	runs  repository.RunQuery
	ready HealthChecker
	log   *logger.Logger
}

func NewHandler(runs repository.RunQuery, ready HealthChecker, log *logger.Logger) *Handler {
	return &Handler{runs: runs, ready: ready, log: log}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.health)
	e.GET("/readyz", h.readiness)

	v1 := e.Group("/api/v1")
	v1.GET("/runs/latest", h.latestRun)
	v1.GET("/candidates", h.latestCandidates)
}

func (h *Handler) health(c echo.Context) error {
	return pkghttp.SuccessResponse(c, map[string]string{"status": "ok"})
}

func (h *Handler) readiness(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()
	if err := h.ready(ctx); err != nil {
		h.log.Warn("readiness probe failed", logger.Error(err))
		return pkghttp.DataResponse(c, http.StatusServiceUnavailable, map[string]string{
			"status": "unavailable",
		})
	}
	return pkghttp.SuccessResponse(c, map[string]string{"status": "ready"})
}

func (h *Handler) latestRun(c echo.Context) error {
	run, err := h.runs.LatestRun(c.Request().Context())
	if err != nil {
		if errors.Is(err, internalrepo.ErrNoRuns) {
			return pkghttp.AppErrorResponse(c, pkghttp.NotFoundError("no runs recorded yet").WithError(err))
		}
		h.log.Error("latest run query failed", logger.Error(err))
		return pkghttp.InternalServerErrorResponse(c)
	}
	return pkghttp.SuccessResponse(c, run)
}

// candidatesRequest bounds the candidate listing.
type candidatesRequest struct {
	Limit int `query:"limit" default:"20" validate:"min=1,max=500"`
}

func (h *Handler) latestCandidates(c echo.Context) error {
	var req candidatesRequest
	if verr := pkghttp.ReadAndValidateRequest(c, &req); verr != nil {
		return pkghttp.BadRequestResponse(c, verr)
	}

	candidates, err := h.runs.LatestCandidates(c.Request().Context(), req.Limit)
	if err != nil {
		h.log.Error("candidate query failed", logger.Error(err))
		return pkghttp.InternalServerErrorResponse(c)
	}
	return pkghttp.ListResponse(c, candidates, int64(len(candidates)))
}
