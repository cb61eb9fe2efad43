package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"evalgo.org/dockboard/internal/apps"
)

// listApps handles GET /api/v1/apps
func (s *Server) listApps(c echo.Context) error {
	list, err := s.catalog.List(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, AppsResponse{Count: len(list), Apps: list})
}

// appCategories handles GET /api/v1/apps/categories
func (s *Server) appCategories(c echo.Context) error {
	cats, err := s.catalog.Categories(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, CategoriesResponse{Count: len(cats), Categories: cats})
}

// getApp handles GET /api/v1/apps/:id
func (s *Server) getApp(c echo.Context) error {
	app, err := s.catalog.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, app)
}

// createApp handles POST /api/v1/apps
func (s *Server) createApp(c echo.Context) error {
	var in apps.Input
	if err := c.Bind(&in); err != nil {
		return BadRequestError("Invalid request body", err.Error())
	}

	app, err := s.catalog.Add(c.Request().Context(), in)
	if err != nil {
		return err
	}

	s.Publish(EventAppAdded, app)
	return c.JSON(http.StatusCreated, app)
}

// updateApp handles PUT /api/v1/apps/:id
func (s *Server) updateApp(c echo.Context) error {
	var in apps.Input
	if err := c.Bind(&in); err != nil {
		return BadRequestError("Invalid request body", err.Error())
	}

	app, err := s.catalog.Update(c.Request().Context(), c.Param("id"), in)
	if err != nil {
		return err
	}

	s.Publish(EventAppUpdated, app)
	return c.JSON(http.StatusOK, app)
}

// deleteApp handles DELETE /api/v1/apps/:id
func (s *Server) deleteApp(c echo.Context) error {
	id := c.Param("id")
	if err := s.catalog.Delete(c.Request().Context(), id); err != nil {
		return err
	}

	s.Publish(EventAppRemoved, map[string]string{"id": id})
	return c.JSON(http.StatusOK, MessageResponse{Message: "app deleted", ID: id})
}
