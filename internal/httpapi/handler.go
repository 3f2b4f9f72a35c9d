package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/focusnest/gauntlet-service/internal/gauntlet"
	sharederrors "github.com/focusnest/gauntlet-service/shared/errors"
	"github.com/focusnest/gauntlet-service/shared/logging"
)

const (
	serviceTimeout       = 10 * time.Second
	defaultNotifications = 50
	maxNotifications     = 200
	maxPayloadBytes      = 64 << 10
)

type handler struct {
	service gauntlet.Service
	logger  *slog.Logger
}

type progressRequest struct {
	Change int    `json:"change"`
	Source string `json:"source"`
}

type activityRequest struct {
	Note     string         `json:"note"`
	Minutes  int            `json:"minutes"`
	Metadata map[string]any `json:"metadata"`
}

type loginRequest struct {
	Email string `json:"email"`
}

// RegisterRoutes mounts the /v1 gauntlet API. Callers wrap r with auth.
func RegisterRoutes(r chi.Router, svc gauntlet.Service, logger *slog.Logger) {
	if logger == nil {
		logger = logging.Discard()
	}
	h := &handler{service: svc, logger: logger}

	r.Route("/v1", func(r chi.Router) {
		r.Get("/stones", h.listStones)
		r.Get("/stones/{id}", h.getStone)
		r.Post("/stones/{id}/progress", h.updateStoneProgress)

		r.Get("/challenges", h.listChallenges)
		r.Get("/challenges/{id}", h.getChallenge)
		r.Post("/challenges/{id}/join", h.joinChallenge)
		r.Post("/challenges/{id}/activities", h.completeActivity)

		r.Get("/notifications", h.listNotifications)
		r.Post("/notifications/{id}/read", h.markNotificationRead)

		r.Post("/session/login", h.login)
		r.Get("/session/me", h.profile)
		r.Post("/session/reset", h.reset)

		r.Get("/snapshot", h.snapshot)
		r.Get("/analytics", h.analytics)
		r.Get("/social", h.social)
	})
}

func (h *handler) listStones(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
	defer cancel()

	stones, err := h.service.Stones(ctx)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"stones": stones})
}

func (h *handler) getStone(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
	defer cancel()

	stone, err := h.service.Stone(ctx, gauntlet.StoneID(chi.URLParam(r, "id")))
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stone)
}

func (h *handler) updateStoneProgress(w http.ResponseWriter, r *http.Request) {
	var req progressRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, sharederrors.CodeBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
	defer cancel()

	update, err := h.service.UpdateStoneProgress(ctx, gauntlet.StoneID(chi.URLParam(r, "id")), req.Change, strings.TrimSpace(req.Source))
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, update)
}

func (h *handler) listChallenges(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
	defer cancel()

	challenges, err := h.service.Challenges(ctx)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"challenges": challenges})
}

func (h *handler) getChallenge(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
	defer cancel()

	challenge, err := h.service.Challenge(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, challenge)
}

func (h *handler) joinChallenge(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
	defer cancel()

	result, err := h.service.JoinChallenge(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *handler) completeActivity(w http.ResponseWriter, r *http.Request) {
	var req activityRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, sharederrors.CodeBadRequest, err.Error())
			return
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
	defer cancel()

	result, err := h.service.CompleteActivity(ctx, chi.URLParam(r, "id"), gauntlet.ActivityData{
		Note:     strings.TrimSpace(req.Note),
		Minutes:  req.Minutes,
		Metadata: req.Metadata,
	})
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *handler) listNotifications(w http.ResponseWriter, r *http.Request) {
	limit := clampInt(parsePositiveInt(r.URL.Query().Get("limit"), defaultNotifications), 1, maxNotifications)

	ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
	defer cancel()

	items, err := h.service.Notifications(ctx, limit)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"notifications": items})
}

func (h *handler) markNotificationRead(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, r, sharederrors.CodeBadRequest, "notification id must be an integer")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
	defer cancel()

	n, err := h.service.MarkNotificationRead(ctx, id)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, n)
}

func (h *handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, sharederrors.CodeBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
	defer cancel()

	user, err := h.service.Login(ctx, strings.TrimSpace(req.Email))
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *handler) profile(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
	defer cancel()

	user, err := h.service.Profile(ctx)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *handler) reset(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
	defer cancel()

	if err := h.service.Reset(ctx); err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) snapshot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.Snapshot(r.Context()))
}

func (h *handler) analytics(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
	defer cancel()

	a, err := h.service.Analytics(ctx)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (h *handler) social(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
	defer cancel()

	network, err := h.service.Social(ctx)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, network)
}

func (h *handler) respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var notFound *gauntlet.NotFoundError
	switch {
	case errors.As(err, &notFound):
		writeError(w, r, sharederrors.CodeNotFound, notFound.Error())
	case errors.Is(err, gauntlet.ErrStoneLocked),
		errors.Is(err, gauntlet.ErrChallengeLocked),
		errors.Is(err, gauntlet.ErrChallengeActive),
		errors.Is(err, gauntlet.ErrChallengeCompleted):
		writeError(w, r, sharederrors.CodeConflict, err.Error())
	case errors.Is(err, gauntlet.ErrInvalidInput):
		writeError(w, r, sharederrors.CodeBadRequest, err.Error())
	case errors.Is(err, gauntlet.ErrNoSession):
		writeError(w, r, sharederrors.CodeUnauthorized, err.Error())
	default:
		logRequestError(r, h.logger, "gauntlet request failed", err)
		writeError(w, r, sharederrors.CodeInternal, "internal server error")
	}
}

func logRequestError(r *http.Request, logger *slog.Logger, msg string, err error) {
	logging.FromRequest(r.Context(), logger).Error(msg,
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.Any("error", err),
	)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, out any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxPayloadBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return errors.New("invalid JSON body: " + err.Error())
	}
	return nil
}

func parsePositiveInt(value string, fallback int) int {
	if value == "" {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, r *http.Request, code, message string) {
	writeJSON(w, sharederrors.ToStatusCode(code), sharederrors.ErrorResponse{
		Code:      code,
		Message:   message,
		RequestID: middleware.GetReqID(r.Context()),
	})
}
