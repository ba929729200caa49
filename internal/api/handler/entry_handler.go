package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/pagekeep/diary/internal/api/authctx"
	"github.com/pagekeep/diary/internal/core/ports"
)

// EntryHandler is the JSON surface over the caller's diary entries. Routes
// sit behind middleware.RequireUser.
type EntryHandler struct {
	service ports.EntryService
	loc     *time.Location
}

func NewEntryHandler(service ports.EntryService, loc *time.Location) *EntryHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &EntryHandler{service: service, loc: loc}
}

// List handles GET /api/v1/entries.
//
// @Summary      List entries
// @Tags         entries
// @Produce      json
// @Success      200  {object}  listEntriesResponse
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/entries [get]
func (h *EntryHandler) List(c echo.Context) error {
	caller := authctx.MustFrom(c.Request().Context()).Identity()

	entries, err := h.service.List(c.Request().Context(), caller)
	if err != nil {
		return err
	}

	data := make([]entryResponse, 0, len(entries))
	for _, e := range entries {
		data = append(data, toEntryResponse(e, h.loc))
	}
	return c.JSON(http.StatusOK, listEntriesResponse{Data: data, Total: len(data)})
}

// Create handles POST /api/v1/entries.
//
// @Summary      Create an entry
// @Tags         entries
// @Accept       json
// @Produce      json
// @Param        body  body      createEntryRequest  true  "Entry"
// @Success      201   {object}  entryResponse
// @Failure      400   {object}  map[string]string
// @Failure      422   {object}  map[string]string
// @Router       /api/v1/entries [post]
func (h *EntryHandler) Create(c echo.Context) error {
	var req createEntryRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	caller := authctx.MustFrom(c.Request().Context()).Identity()

	entry, err := h.service.Create(c.Request().Context(), caller, req.input())
	if err != nil {
		return err
	}
	c.Response().Header().Set(echo.HeaderLocation, "/api/v1/entries/"+entry.ID)
	return c.JSON(http.StatusCreated, toEntryResponse(entry, h.loc))
}

// Get handles GET /api/v1/entries/:id.
//
// @Summary      Get an entry
// @Tags         entries
// @Produce      json
// @Param        id   path      string  true  "Entry id"
// @Success      200  {object}  entryResponse
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /api/v1/entries/{id} [get]
func (h *EntryHandler) Get(c echo.Context) error {
	caller := authctx.MustFrom(c.Request().Context()).Identity()

	entry, err := h.service.Get(c.Request().Context(), caller, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toEntryResponse(entry, h.loc))
}

// Update handles PATCH /api/v1/entries/:id.
//
// @Summary      Update an entry
// @Tags         entries
// @Accept       json
// @Produce      json
// @Param        id    path      string              true  "Entry id"
// @Param        body  body      updateEntryRequest  true  "Fields to change"
// @Success      200   {object}  entryResponse
// @Failure      400   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /api/v1/entries/{id} [patch]
func (h *EntryHandler) Update(c echo.Context) error {
	var req updateEntryRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	caller := authctx.MustFrom(c.Request().Context()).Identity()

	entry, err := h.service.Update(c.Request().Context(), caller, c.Param("id"), req.input())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toEntryResponse(entry, h.loc))
}

// Delete handles DELETE /api/v1/entries/:id.
//
// @Summary      Delete an entry
// @Tags         entries
// @Produce      json
// @Param        id   path      string  true  "Entry id"
// @Success      200  {object}  deleteEntryResponse
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /api/v1/entries/{id} [delete]
func (h *EntryHandler) Delete(c echo.Context) error {
	caller := authctx.MustFrom(c.Request().Context()).Identity()

	ok, err := h.service.Delete(c.Request().Context(), caller, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, deleteEntryResponse{Deleted: ok})
}
