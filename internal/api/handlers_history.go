package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

func (s *Server) getHistory(c echo.Context) error {
	snaps, pointer := s.store.History()
	return c.JSON(http.StatusOK, HistoryResponse{Snapshots: snaps, Pointer: pointer})
}

func (s *Server) undo(c echo.Context) error {
	snap, ok := s.store.Undo()
	if !ok {
		return c.NoContent(http.StatusNoContent)
	}
	return c.JSON(http.StatusOK, snap)
}

func (s *Server) redo(c echo.Context) error {
	snap, ok := s.store.Redo()
	if !ok {
		return c.NoContent(http.StatusNoContent)
	}
	return c.JSON(http.StatusOK, snap)
}

func (s *Server) listNotifications(c echo.Context) error {
	return c.JSON(http.StatusOK, s.store.Notifications().List())
}

func (s *Server) dismissNotification(c echo.Context) error {
	id := c.Param("id")
	if !s.store.Notifications().Dismiss(id) {
		return NotFoundError("Notification", id)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) clearNotifications(c echo.Context) error {
	s.store.Notifications().Clear()
	return c.NoContent(http.StatusNoContent)
}
