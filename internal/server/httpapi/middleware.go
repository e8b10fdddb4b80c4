package httpapi

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/dmitrijs2005/bloombuddy/internal/common"
)

const userIDKey = "userID"

// requireAuth accepts "Authorization: Bearer <access token>" and stores the
// caller's user ID in the context.
func (s *Server) requireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		header := c.Request().Header.Get(echo.HeaderAuthorization)
		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "missing bearer token")
		}

		userID, err := s.deps.Users.UserIDFromAccessToken(strings.TrimSpace(token))
		if err != nil {
			if errors.Is(err, common.ErrTokenExpired) {
				return echo.NewHTTPError(http.StatusUnauthorized, "token expired")
			}
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
		}

		c.Set(userIDKey, userID)
		return next(c)
	}
}

func userID(c echo.Context) string {
	id, _ := c.Get(userIDKey).(string)
	return id
}

// observe logs every request and records its latency by route.
func (s *Server) observe(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		started := time.Now()
		err := next(c)
		if err != nil {
			// Let the error handler write the response so the status is known.
			c.Error(err)
		}

		req, res := c.Request(), c.Response()
		elapsed := time.Since(started)
		route := c.Path()
		if route == "" {
			route = "unmatched"
		}
		s.deps.Metrics.ObserveHTTP(req.Method, route, res.Status, elapsed)

		args := []any{
			"method", req.Method,
			"route", route,
			"status", res.Status,
			"duration_ms", elapsed.Milliseconds(),
			"request_id", res.Header().Get(echo.HeaderXRequestID),
		}
		if res.Status >= http.StatusInternalServerError {
			s.logger.Error(req.Context(), "request failed", append(args, "error", err)...)
		} else {
			s.logger.Debug(req.Context(), "request served", args...)
		}
		return nil
	}
}
