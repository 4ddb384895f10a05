// backend/src/handlers/middleware.go
package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/username/tradejournal/backend/src/logger"
	"github.com/username/tradejournal/backend/src/services"
	"github.com/username/tradejournal/backend/src/utils"
)

type contextKey string

const requestIDContextKey contextKey = "requestID"

// ContextualLoggerMiddleware creates a logger with a requestID for each request.
func ContextualLoggerMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.New().String()

		ctxLogger := logger.L.With(slog.String("requestID", requestID))

		ctx := logger.ToContext(r.Context(), ctxLogger)
		ctx = context.WithValue(ctx, requestIDContextKey, requestID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// handleServiceError maps service-layer sentinel errors onto HTTP statuses.
// Not-found is deliberately distinct from validation failures so the UI can
// render "not found" rather than a form error.
func handleServiceError(w http.ResponseWriter, r *http.Request, err error, logMsg string) {
	ctxLogger := logger.FromContext(r.Context())

	switch {
	case errors.Is(err, services.ErrNotFound):
		utils.SendJSONError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, services.ErrValidation):
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, services.ErrDuplicateName):
		utils.SendJSONError(w, err.Error(), http.StatusConflict)
	case errors.Is(err, services.ErrDuplicateTradeID):
		ctxLogger.Warn("Trade id collision, client should retry", "error", err)
		utils.SendJSONError(w, "trade id already taken, please retry", http.StatusConflict)
	default:
		ctxLogger.Error(logMsg, "error", err)
		utils.SendJSONError(w, logMsg, http.StatusInternalServerError)
	}
}

// parseFilterCriteria reads the UI filter selections from query parameters.
// Date-only bounds are widened so date_to stays inclusive of its whole day.
func parseFilterCriteria(r *http.Request) services.FilterCriteria {
	q := r.URL.Query()
	criteria := services.FilterCriteria{
		Asset:             q.Get("asset"),
		Session:           q.Get("session"),
		StrategyID:        q.Get("strategy_id"),
		AccountID:         q.Get("account_id"),
		Direction:         q.Get("direction"),
		Tag:               q.Get("tag"),
		Search:            q.Get("search"),
		ScopeAccountName:  q.Get("scope_account"),
		ScopeStrategyName: q.Get("scope_strategy"),
	}
	if from := parseDateParam(q.Get("date_from"), false); from != nil {
		criteria.DateFrom = from
	}
	if to := parseDateParam(q.Get("date_to"), true); to != nil {
		criteria.DateTo = to
	}
	return criteria
}

func parseDateParam(value string, endOfDay bool) *time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		t = t.UTC()
		return &t
	}
	if t, err := time.Parse("2006-01-02", value); err == nil {
		t = t.UTC()
		if endOfDay {
			t = t.Add(24*time.Hour - time.Millisecond)
		}
		return &t
	}
	return nil
}
