package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"github.com/focusnest/gauntlet-service/internal/gauntlet"
	"github.com/focusnest/gauntlet-service/internal/insights"
	sharederrors "github.com/focusnest/gauntlet-service/shared/errors"
	"github.com/focusnest/gauntlet-service/shared/logging"
)

const forecastDays = 7

// Upstream is the ML service as seen by the proxy routes.
type Upstream interface {
	Forecast(ctx context.Context, userID string) ([]insights.ForecastPoint, error)
	Recommendations(ctx context.Context, userID, weakestGem string) ([]insights.Quest, error)
}

// InsightsDeps wires the /api proxy routes.
type InsightsDeps struct {
	Service  gauntlet.Service
	Upstream Upstream
	Random   insights.Random
	Now      func() time.Time
	Logger   *slog.Logger
}

type insightsHandler struct {
	service  gauntlet.Service
	upstream Upstream
	random   insights.Random
	now      func() time.Time
	logger   *slog.Logger
}

type insightsResponse struct {
	UserID                string                   `json:"userId"`
	WeakestGem            string                   `json:"weakestGem"`
	Forecast              []insights.ForecastPoint `json:"forecast"`
	ForecastSource        string                   `json:"forecastSource"`
	Recommendations       []insights.Quest         `json:"recommendations"`
	RecommendationsSource string                   `json:"recommendationsSource"`
}

// RegisterInsightsRoutes mounts the analytics proxy under /api.
func RegisterInsightsRoutes(r chi.Router, deps InsightsDeps) {
	h := &insightsHandler{
		service:  deps.Service,
		upstream: deps.Upstream,
		random:   deps.Random,
		now:      deps.Now,
		logger:   deps.Logger,
	}
	if h.now == nil {
		h.now = time.Now
	}
	if h.random == nil {
		h.random = gauntlet.NewRandom(time.Now().UnixNano())
	}
	if h.logger == nil {
		h.logger = logging.Discard()
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/analytics/history/{userId}", h.history)
		r.Get("/analytics/forecast/{userId}", h.forecast)
		r.Get("/analytics/insights/{userId}", h.insights)
		r.Get("/quests/recommendations/{userId}", h.recommendations)
	})
}

func (h *insightsHandler) history(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, insights.History(r.URL.Query().Get("range"), h.now(), h.random))
}

func (h *insightsHandler) forecast(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")
	if h.upstream == nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to fetch forecast data"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
	defer cancel()

	values, err := h.upstream.Forecast(ctx, userID)
	if err != nil {
		logRequestError(r, h.logger, "forecast upstream failed", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to fetch forecast data"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"values": values})
}

func (h *insightsHandler) recommendations(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")
	if h.upstream == nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to fetch recommendations"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
	defer cancel()

	quests, err := h.upstream.Recommendations(ctx, userID, h.weakestGem(ctx, r))
	if err != nil {
		logRequestError(r, h.logger, "recommendations upstream failed", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to fetch recommendations"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"recommendations": quests})
}

// insights fetches forecast and recommendations concurrently. Each half
// degrades to the local computation when the upstream call fails.
func (h *insightsHandler) insights(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")

	ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
	defer cancel()

	resp := insightsResponse{UserID: userID, WeakestGem: h.weakestGem(ctx, r)}
	history := insights.History("month", h.now(), h.random)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if h.upstream != nil {
			values, err := h.upstream.Forecast(gctx, userID)
			if err == nil {
				resp.Forecast, resp.ForecastSource = values, "ml"
				return nil
			}
			logRequestError(r, h.logger, "forecast upstream failed, using local fit", err)
		}
		resp.Forecast, resp.ForecastSource = insights.LocalForecast(history, forecastDays), "local"
		return gctx.Err()
	})
	g.Go(func() error {
		if h.upstream != nil {
			quests, err := h.upstream.Recommendations(gctx, userID, resp.WeakestGem)
			if err == nil {
				resp.Recommendations, resp.RecommendationsSource = quests, "ml"
				return nil
			}
			logRequestError(r, h.logger, "recommendations upstream failed, using catalog", err)
		}
		resp.Recommendations, resp.RecommendationsSource = insights.LocalRecommendations(resp.WeakestGem), "local"
		return gctx.Err()
	})
	if err := g.Wait(); err != nil {
		logRequestError(r, h.logger, "insights request aborted", err)
		writeError(w, r, sharederrors.CodeInternal, "insights request timed out")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// weakestGem maps the weakest stone onto a recommendation category,
// defaulting to mind when analytics are unavailable.
func (h *insightsHandler) weakestGem(ctx context.Context, r *http.Request) string {
	if h.service == nil {
		return "mind"
	}
	a, err := h.service.Analytics(ctx)
	if err != nil {
		logRequestError(r, h.logger, "analytics unavailable for recommendations", err)
		return "mind"
	}
	return insights.GemCategory(strings.ToLower(string(a.WeakestStone.ID)))
}
