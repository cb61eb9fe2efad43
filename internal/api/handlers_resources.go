package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// unusedResources handles GET /api/v1/hosts/:id/unused. It only reports;
// nothing is pruned.
func (s *Server) unusedResources(c echo.Context) error {
	unused, err := s.aggregator.UnusedResources(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, unused)
}
