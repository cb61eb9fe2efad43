package api

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"evalgo.org/dockboard/internal/engine"
	"evalgo.org/dockboard/internal/hosts"
	"evalgo.org/dockboard/internal/version"
)

// healthCheck handles GET /health. It never talks to an engine.
func (s *Server) healthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{
		Status:  "healthy",
		Service: "dockboard",
		Version: version.Get(),
		Hosts:   len(s.registry.List()),
	})
}

// listHosts handles GET /api/v1/hosts
func (s *Server) listHosts(c echo.Context) error {
	list := s.registry.List()
	return c.JSON(http.StatusOK, HostsResponse{
		Count:   len(list),
		Current: s.registry.CurrentID(),
		Hosts:   list,
	})
}

// currentHost handles GET /api/v1/hosts/current
func (s *Server) currentHost(c echo.Context) error {
	return c.JSON(http.StatusOK, s.registry.Current())
}

// getHost handles GET /api/v1/hosts/:id
func (s *Server) getHost(c echo.Context) error {
	host, err := s.registry.Get(c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, host)
}

// createHost handles POST /api/v1/hosts
func (s *Server) createHost(c echo.Context) error {
	var in hosts.Config
	if err := c.Bind(&in); err != nil {
		return BadRequestError("Invalid request body", err.Error())
	}

	host, err := s.registry.Add(in)
	if err != nil {
		return err
	}

	s.logger.Info("Host added", "host_id", host.ID, "host", host.ConnectionURI)
	s.Publish(EventHostAdded, host)
	return c.JSON(http.StatusCreated, host)
}

// updateHost handles PUT /api/v1/hosts/:id
func (s *Server) updateHost(c echo.Context) error {
	id := c.Param("id")

	var patch hosts.Patch
	if err := c.Bind(&patch); err != nil {
		return BadRequestError("Invalid request body", err.Error())
	}

	host, err := s.registry.Update(id, patch)
	if err != nil {
		return err
	}

	s.logger.Info("Host updated", "host_id", id)
	s.Publish(EventHostUpdated, host)
	return c.JSON(http.StatusOK, host)
}

// deleteHost handles DELETE /api/v1/hosts/:id
func (s *Server) deleteHost(c echo.Context) error {
	id := c.Param("id")

	if err := s.registry.Delete(id); err != nil {
		return err
	}

	s.logger.Info("Host deleted", "host_id", id)
	s.Publish(EventHostRemoved, map[string]string{"id": id})
	return c.JSON(http.StatusOK, MessageResponse{Message: "host deleted", ID: id})
}

// switchHost handles POST /api/v1/hosts/:id/switch
func (s *Server) switchHost(c echo.Context) error {
	host, err := s.registry.SetCurrent(c.Param("id"))
	if err != nil {
		return err
	}

	s.logger.Info("Current host switched", "host_id", host.ID)
	s.Publish(EventHostSwitched, host)
	return c.JSON(http.StatusOK, host)
}

// testHost handles POST /api/v1/hosts/:id/test. A failed test answers 502
// with the test result, which carries the error kind and a hint.
func (s *Server) testHost(c echo.Context) error {
	host, err := s.registry.Get(c.Param("id"))
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), s.config.Engine.TestTimeout)
	defer cancel()

	res := engine.Test(ctx, host, s.factory)
	if !res.Success {
		s.logger.Warn("Host connection test failed", "host_id", host.ID, "error", res.Error)
		return c.JSON(http.StatusBadGateway, res)
	}
	return c.JSON(http.StatusOK, res)
}
