package httpapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/dmitrijs2005/bloombuddy/internal/reminderview"
	"github.com/dmitrijs2005/bloombuddy/internal/server/services"
)

type completedRequest struct {
	Completed *bool `json:"completed"`
}

// viewReminders serves the reminders screen. An absent filter means "all";
// an unknown one is rejected.
func (s *Server) viewReminders(c echo.Context) error {
	raw := c.QueryParam("filter")
	if raw == "" {
		raw = string(reminderview.All)
	}
	filter, err := reminderview.ParseFilter(raw)
	if err != nil {
		return err
	}

	view, err := s.deps.Reminders.View(c.Request().Context(), userID(c), filter, s.now())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, view)
}

func (s *Server) listPlantReminders(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	rs, err := s.deps.Reminders.List(c.Request().Context(), userID(c), &id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, rs)
}

func (s *Server) createReminder(c echo.Context) error {
	var in services.NewReminder
	if err := bind(c, &in); err != nil {
		return err
	}
	r, err := s.deps.Reminders.Create(c.Request().Context(), userID(c), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, r)
}

func (s *Server) setReminderCompleted(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req completedRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if req.Completed == nil {
		return echo.NewHTTPError(http.StatusBadRequest, "completed is required")
	}
	r, err := s.deps.Reminders.SetCompleted(c.Request().Context(), userID(c), id, *req.Completed)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, r)
}

func (s *Server) toggleReminder(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	r, err := s.deps.Reminders.Toggle(c.Request().Context(), userID(c), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, r)
}

func (s *Server) deleteReminder(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := s.deps.Reminders.Delete(c.Request().Context(), userID(c), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
