package api

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
)

// getState returns the store summary.
func (s *Server) getState(c echo.Context) error {
	state := StateResponse{
		Schema:  s.store.SchemaName(),
		Schemas: s.store.Schemas(),
		Loading: s.store.Loading(),
		Status:  s.store.Status(),
		Pending: s.store.PendingCount(),
		Valid:   s.store.IsValid(),
		Search:  s.store.SearchQuery(),
		Backups: s.store.Backups(),
	}
	if b := s.store.SelectedBox(); b != nil {
		state.SelectedBox = b.Name
	}
	if d := s.store.SelectedDictionary(); d != nil {
		state.SelectedDictionary = d.Name
	}
	snaps, pointer := s.store.History()
	state.HistoryLength = len(snaps)
	state.HistoryPointer = pointer
	return c.JSON(http.StatusOK, state)
}

func (s *Server) listSchemas(c echo.Context) error {
	names, err := s.store.ListSchemas(c.Request().Context())
	if err != nil {
		return FromError(err)
	}
	return c.JSON(http.StatusOK, names)
}

func (s *Server) createSchema(c echo.Context) error {
	var req NameRequest
	if err := c.Bind(&req); err != nil {
		return BadRequestError("Invalid request body", err.Error())
	}
	if req.Name == "" {
		return ValidationError("Invalid schema", map[string]string{"name": "Name is required"})
	}
	if err := s.store.CreateSchema(c.Request().Context(), req.Name); err != nil {
		return FromError(err)
	}
	return c.JSON(http.StatusCreated, MessageResponse{Message: "schema created", Name: req.Name})
}

// selectSchema switches the store to another schema. A client disconnect
// does not cancel the fetch; only a later selection does.
func (s *Server) selectSchema(c echo.Context) error {
	name := c.Param("name")
	if err := s.store.SelectSchema(context.WithoutCancel(c.Request().Context()), name); err != nil {
		return FromError(err)
	}
	return c.JSON(http.StatusOK, MessageResponse{Message: "schema selected", Name: name})
}

func (s *Server) refreshSchema(c echo.Context) error {
	if err := s.store.Refresh(c.Request().Context()); err != nil {
		return FromError(err)
	}
	return c.JSON(http.StatusOK, MessageResponse{Message: "schema refreshed", Name: s.store.SchemaName()})
}

// submitSchema sends the pending requests. Backend validation errors are
// reported as notifications, so the response only carries them for
// convenience.
func (s *Server) submitSchema(c echo.Context) error {
	if err := s.store.Submit(c.Request().Context()); err != nil {
		return FromError(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"pending":          s.store.PendingCount(),
		"validationErrors": s.store.ValidationErrors(),
	})
}

func (s *Server) discardSchema(c echo.Context) error {
	if err := s.store.Discard(c.Request().Context()); err != nil {
		return FromError(err)
	}
	return c.JSON(http.StatusOK, MessageResponse{Message: "changes discarded", Name: s.store.SchemaName()})
}

func (s *Server) listRequests(c echo.Context) error {
	return c.JSON(http.StatusOK, s.store.Requests())
}

func (s *Server) getValidationErrors(c echo.Context) error {
	return c.JSON(http.StatusOK, s.store.ValidationErrors())
}

func (s *Server) setMaxDepth(c echo.Context) error {
	var req DepthRequest
	if err := c.Bind(&req); err != nil {
		return BadRequestError("Invalid request body", err.Error())
	}
	if req.Depth < 1 || req.Depth > maxDepthParam {
		return ValidationError("Invalid depth", map[string]string{"depth": "Depth must be between 1 and 10"})
	}
	s.store.SetMaxDepth(req.Depth)
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) setSearch(c echo.Context) error {
	var req SearchRequest
	if err := c.Bind(&req); err != nil {
		return BadRequestError("Invalid request body", err.Error())
	}
	s.store.SetSearch(req.Query)
	return c.NoContent(http.StatusAccepted)
}

func (s *Server) getSearch(c echo.Context) error {
	results := s.store.SearchResults()
	return c.JSON(http.StatusOK, BoxesResponse{Count: len(results), Total: len(results), Boxes: results})
}

func (s *Server) clearSelection(c echo.Context) error {
	s.store.SelectBox("")
	s.store.SelectDictionary("")
	return c.NoContent(http.StatusNoContent)
}
