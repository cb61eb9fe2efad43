package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// hostStats handles GET /api/v1/hosts/:id/stats
func (s *Server) hostStats(c echo.Context) error {
	id := c.Param("id")

	stats, err := s.aggregator.HostStats(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, HostStatsResponse{HostID: id, Count: len(stats), Stats: stats})
}

// containerStats handles GET /api/v1/hosts/:id/containers/:cid/stats
func (s *Server) containerStats(c echo.Context) error {
	stats, err := s.aggregator.ContainerStats(c.Request().Context(), c.Param("id"), c.Param("cid"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, stats)
}
