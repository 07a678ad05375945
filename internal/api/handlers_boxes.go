package api

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"evalgo.org/schemaeditor/internal/registry"
	"evalgo.org/schemaeditor/models"
)

// listBoxes returns a page of boxes. With ?match the boxes are filtered by
// name glob or substring.
func (s *Server) listBoxes(c echo.Context) error {
	var boxes []*models.Box
	if match := c.QueryParam("match"); match != "" {
		boxes = registry.Filter(s.store.Boxes(), match)
	} else {
		boxes = s.store.Boxes()
	}

	limit, offset := parsePagination(c)
	page := paginate(boxes, limit, offset)
	return c.JSON(http.StatusOK, BoxesResponse{Count: len(page), Total: len(boxes), Boxes: page})
}

func (s *Server) groupBoxes(c echo.Context) error {
	return c.JSON(http.StatusOK, s.store.GroupByType())
}

func (s *Server) getBox(c echo.Context) error {
	name := c.Param("name")
	for _, b := range s.store.Boxes() {
		if b.Name == name {
			return c.JSON(http.StatusOK, b)
		}
	}
	return NotFoundError("Box", name)
}

func (s *Server) bindBox(c echo.Context) (*models.Box, error) {
	var box models.Box
	if err := c.Bind(&box); err != nil {
		return nil, BadRequestError("Invalid request body", err.Error())
	}
	if box.Kind == "" {
		box.Kind = models.KindBox
	}
	return &box, nil
}

func (s *Server) createBox(c echo.Context) error {
	box, err := s.bindBox(c)
	if err != nil {
		return err
	}
	if box.Name == "" {
		box.Name = models.GenerateName("box")
	}
	if err := s.store.CreateBox(box); err != nil {
		return FromError(err)
	}
	return c.JSON(http.StatusCreated, box)
}

// updateBox replaces the box named in the path. A different name in the
// body renames the box.
func (s *Server) updateBox(c echo.Context) error {
	box, err := s.bindBox(c)
	if err != nil {
		return err
	}
	oldName := c.Param("name")
	if box.Name == "" {
		box.Name = oldName
	}
	if err := s.store.UpdateBox(oldName, box); err != nil {
		return FromError(err)
	}
	return c.JSON(http.StatusOK, box)
}

func (s *Server) renameBox(c echo.Context) error {
	var req RenameRequest
	if err := c.Bind(&req); err != nil {
		return BadRequestError("Invalid request body", err.Error())
	}
	if req.Name == "" {
		return ValidationError("Invalid rename", map[string]string{"name": "Name is required"})
	}
	if err := s.store.RenameBox(c.Param("name"), req.Name); err != nil {
		return FromError(err)
	}
	return c.JSON(http.StatusOK, MessageResponse{Message: "box renamed", Name: req.Name})
}

func (s *Server) deleteBox(c echo.Context) error {
	if err := s.store.DeleteBox(c.Param("name")); err != nil {
		return FromError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) selectBox(c echo.Context) error {
	name := c.Param("name")
	if !s.store.SelectBox(name) {
		return NotFoundError("Box", name)
	}
	return c.NoContent(http.StatusNoContent)
}

// resolveTree resolves the neighborhood of a box. Direction defaults to
// "to" and depth to the store's configured depth.
func (s *Server) resolveTree(c echo.Context) error {
	name := c.Param("name")
	direction := models.DirectionTo
	if d := c.QueryParam("direction"); d != "" {
		direction = models.Direction(d)
	}
	depth := 0
	if d := c.QueryParam("depth"); d != "" {
		depth, _ = strconv.Atoi(d)
	}

	tree, ok := s.store.Resolve(name, direction, depth)
	if !ok {
		return NotFoundError("Box", name)
	}
	return c.JSON(http.StatusOK, tree)
}

func (s *Server) getTrees(c echo.Context) error {
	return c.JSON(http.StatusOK, s.store.ResolvedTrees())
}

func (s *Server) dictionariesForBox(c echo.Context) error {
	return c.JSON(http.StatusOK, s.store.DictionariesForBox(c.Param("name")))
}

func (s *Server) addDictionaryRelation(c echo.Context) error {
	var alias models.DictionaryAlias
	if err := c.Bind(&alias); err != nil {
		return BadRequestError("Invalid request body", err.Error())
	}
	if alias.Name == "" {
		return ValidationError("Invalid relation", map[string]string{"name": "Dictionary name is required"})
	}
	changed, err := s.store.AddDictionaryRelation(c.Param("name"), alias)
	if err != nil {
		return FromError(err)
	}
	return c.JSON(http.StatusOK, ChangedResponse{Changed: changed})
}

func (s *Server) removeDictionaryRelation(c echo.Context) error {
	changed, err := s.store.RemoveDictionaryRelation(c.Param("name"), c.Param("dictionary"))
	if err != nil {
		return FromError(err)
	}
	return c.JSON(http.StatusOK, ChangedResponse{Changed: changed})
}
