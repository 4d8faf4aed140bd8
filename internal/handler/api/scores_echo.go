package api

import (
	"time"

	models "GeoPulse/internal/domain/models"
	domrepo "GeoPulse/internal/domain/repository"
	"GeoPulse/internal/domain/service"
	xhttp "GeoPulse/pkg/http"
	xlogger "GeoPulse/pkg/logger"
	xutil "GeoPulse/pkg/util"

	"github.com/labstack/echo/v4"
)

// ScoresEchoHandler serves the computed tension snapshot and its
// history. Reads never block on upstream fetches: a stale snapshot is
// served as-is and a background rebuild is kicked off.
type ScoresEchoHandler struct {
	logger    *xlogger.Logger
	snapshots service.SnapshotReader
	refresher service.Refresher
	history   domrepo.HistoryStore
}

func NewScoresEchoHandler(
	logger *xlogger.Logger,
	snapshots service.SnapshotReader,
	refresher service.Refresher,
	history domrepo.HistoryStore,
) *ScoresEchoHandler {
	return &ScoresEchoHandler{
		logger:    logger,
		snapshots: snapshots,
		refresher: refresher,
		history:   history,
	}
}

func (h *ScoresEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/scores", h.Scores)
	g.GET("/scores/:region", h.RegionScores)
	g.GET("/status", h.Status)
	g.GET("/history", h.History)
	g.GET("/history/item", h.ItemHistory)
	g.POST("/refresh", h.Refresh)
}

// Scores returns the full snapshot: global composite, per-region
// composites, alerts and forecasts.
func (h *ScoresEchoHandler) Scores(c echo.Context) error {
	req := &models.RefreshRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	maxAge := time.Duration(req.MaxAgeSeconds) * time.Second
	if h.refresher.TriggerRefreshIfStale(maxAge) {
		h.logger.Debug("stale snapshot, rebuild kicked",
			xlogger.Duration("max_age", maxAge))
	}

	snap, ok := h.snapshots.Latest()
	if !ok {
		return xhttp.AppErrorResponse(c, xhttp.NewAppError(
			"ERR_WARMING_UP", "", "no snapshot computed yet", 503))
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=15")
	return xhttp.SuccessResponse(c, snap)
}

// RegionScores returns one region's composite from the snapshot.
func (h *ScoresEchoHandler) RegionScores(c echo.Context) error {
	req := &models.RegionScoresRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if !domrepo.IsValidRegion(domrepo.Region(req.Region)) && req.Region != domrepo.ScopeGlobal {
		return xhttp.AppErrorResponse(c, xhttp.BadRequestErrorf("unknown region %q", req.Region))
	}

	snap, ok := h.snapshots.Latest()
	if !ok {
		return xhttp.AppErrorResponse(c, xhttp.NewAppError(
			"ERR_WARMING_UP", "", "no snapshot computed yet", 503))
	}
	if req.Region == domrepo.ScopeGlobal {
		return xhttp.SuccessResponse(c, snap.Global)
	}
	composite, ok := snap.Regions[req.Region]
	if !ok {
		return xhttp.AppErrorResponse(c, xhttp.NotFoundErrorf("region %q not in snapshot", req.Region))
	}
	return xhttp.SuccessResponse(c, composite)
}

// Status returns per-source fetch liveness.
func (h *ScoresEchoHandler) Status(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.snapshots.Status())
}

// History returns persisted composite score rows for one scope.
func (h *ScoresEchoHandler) History(c echo.Context) error {
	req := &models.HistoryRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if !domrepo.IsValidRegion(domrepo.Region(req.Scope)) && req.Scope != domrepo.ScopeGlobal {
		return xhttp.AppErrorResponse(c, xhttp.BadRequestErrorf("unknown scope %q", req.Scope))
	}

	// Score rows land every 15m; aligning the window makes polls inside
	// one bucket hit identical queries.
	now := time.Now().UTC()
	since, _ := xutil.AlignFromTo(now.AddDate(0, 0, -req.Days), now, "15m")
	rows, err := h.history.QueryScores(c.Request().Context(), req.Scope, since)
	if err != nil {
		h.logger.Error("score history query error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.ListResponse(c, rows, int64(len(rows)))
}

// ItemHistory returns raw observations for one item.
func (h *ScoresEchoHandler) ItemHistory(c echo.Context) error {
	req := &models.ItemHistoryRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	now := time.Now().UTC()
	since := xhttp.ParseTimeDefault(req.From, now.AddDate(0, 0, -req.Days))
	since, _ = xutil.AlignFromTo(since, now, "1m")
	rows, err := h.history.QueryItemObservations(c.Request().Context(), req.ItemID, since)
	if err != nil {
		h.logger.Error("item history query error",
			xlogger.String("item", req.ItemID), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.ListResponse(c, rows, int64(len(rows)))
}

// Refresh forces a synchronous rebuild.
func (h *ScoresEchoHandler) Refresh(c echo.Context) error {
	start := time.Now()
	if err := h.refresher.Rebuild(c.Request().Context()); err != nil {
		h.logger.Error("forced rebuild error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	h.logger.Info("forced rebuild done",
		xlogger.Duration("took", time.Since(start)))
	snap, _ := h.snapshots.Latest()
	return xhttp.SuccessResponse(c, snap)
}
