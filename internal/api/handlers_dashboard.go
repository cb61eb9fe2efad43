package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"evalgo.org/dockboard/internal/format"
)

// getDashboard handles GET /api/v1/dashboard[?fidelity=fast|full]
func (s *Server) getDashboard(c echo.Context) error {
	requested, _ := format.ParseFidelity(c.QueryParam("fidelity"))

	d, err := s.aggregator.Collect(c.Request().Context(), s.aggregator.Options(requested))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, d)
}
