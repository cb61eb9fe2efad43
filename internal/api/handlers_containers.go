package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// containerDetail handles GET /api/v1/hosts/:id/containers/:cid
func (s *Server) containerDetail(c echo.Context) error {
	view, err := s.aggregator.ContainerDetail(c.Request().Context(), c.Param("id"), c.Param("cid"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, view)
}
