package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"evalgo.org/schemaeditor/models"
)

func (s *Server) listDictionaries(c echo.Context) error {
	return c.JSON(http.StatusOK, s.store.Dictionaries())
}

func (s *Server) getDictionary(c echo.Context) error {
	name := c.Param("name")
	for _, d := range s.store.Dictionaries() {
		if d.Name == name {
			return c.JSON(http.StatusOK, d)
		}
	}
	return NotFoundError("Dictionary", name)
}

func (s *Server) bindDictionary(c echo.Context) (*models.Dictionary, error) {
	var dict models.Dictionary
	if err := c.Bind(&dict); err != nil {
		return nil, BadRequestError("Invalid request body", err.Error())
	}
	if dict.Kind == "" {
		dict.Kind = models.KindDictionary
	}
	return &dict, nil
}

func (s *Server) createDictionary(c echo.Context) error {
	dict, err := s.bindDictionary(c)
	if err != nil {
		return err
	}
	if err := s.store.CreateDictionary(dict); err != nil {
		return FromError(err)
	}
	return c.JSON(http.StatusCreated, dict)
}

func (s *Server) updateDictionary(c echo.Context) error {
	dict, err := s.bindDictionary(c)
	if err != nil {
		return err
	}
	oldName := c.Param("name")
	if dict.Name == "" {
		dict.Name = oldName
	}
	if err := s.store.UpdateDictionary(oldName, dict); err != nil {
		return FromError(err)
	}
	return c.JSON(http.StatusOK, dict)
}

func (s *Server) deleteDictionary(c echo.Context) error {
	if err := s.store.DeleteDictionary(c.Param("name")); err != nil {
		return FromError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) selectDictionary(c echo.Context) error {
	name := c.Param("name")
	if !s.store.SelectDictionary(name) {
		return NotFoundError("Dictionary", name)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) boxesForDictionary(c echo.Context) error {
	return c.JSON(http.StatusOK, s.store.BoxesForDictionary(c.Param("name")))
}

// migrateDictionaries folds legacy relations into multi-dictionary ones
// and returns the relations it created.
func (s *Server) migrateDictionaries(c echo.Context) error {
	created, err := s.store.MigrateDictionaryRelations()
	if err != nil {
		return FromError(err)
	}
	if created == nil {
		created = []models.MultiDictionaryRelation{}
	}
	return c.JSON(http.StatusOK, created)
}
