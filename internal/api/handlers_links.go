package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"evalgo.org/schemaeditor/models"
)

func (s *Server) listLinks(c echo.Context) error {
	return c.JSON(http.StatusOK, s.store.Links())
}

func (s *Server) listLinkDefinitions(c echo.Context) error {
	return c.JSON(http.StatusOK, s.store.LinkDefinitions())
}

func (s *Server) listInvalidLinks(c echo.Context) error {
	return c.JSON(http.StatusOK, s.store.InvalidLinks())
}

// deleteInvalidLinks removes every invalid link. The removed links are
// backed up and come back on discard.
func (s *Server) deleteInvalidLinks(c echo.Context) error {
	n, err := s.store.DeleteInvalidLinks()
	if err != nil {
		return FromError(err)
	}
	return c.JSON(http.StatusOK, CountResponse{Count: n})
}

func (s *Server) addLink(c echo.Context) error {
	var link models.ExtendedLink
	if err := c.Bind(&link); err != nil {
		return BadRequestError("Invalid request body", err.Error())
	}
	if err := s.store.AddLink(link); err != nil {
		return FromError(err)
	}
	return c.JSON(http.StatusCreated, link)
}

// findLink looks a link up by name. ?connectionType disambiguates links
// that share a name across buckets.
func (s *Server) findLink(c echo.Context) (models.ExtendedLink, error) {
	name := c.Param("name")
	ct := models.ConnectionType(c.QueryParam("connectionType"))
	for _, l := range s.store.Links() {
		if l.Name != name {
			continue
		}
		if ct != "" && l.ConnectionType() != ct {
			continue
		}
		return l, nil
	}
	return models.ExtendedLink{}, NotFoundError("Link", name)
}

func (s *Server) changeLink(c echo.Context) error {
	oldLink, err := s.findLink(c)
	if err != nil {
		return err
	}
	var newLink models.ExtendedLink
	if err := c.Bind(&newLink); err != nil {
		return BadRequestError("Invalid request body", err.Error())
	}
	if err := s.store.ChangeLink(oldLink, newLink); err != nil {
		return FromError(err)
	}
	return c.JSON(http.StatusOK, newLink)
}

func (s *Server) deleteLink(c echo.Context) error {
	link, err := s.findLink(c)
	if err != nil {
		return err
	}
	if _, err := s.store.DeleteLink(link); err != nil {
		return FromError(err)
	}
	return c.NoContent(http.StatusNoContent)
}
