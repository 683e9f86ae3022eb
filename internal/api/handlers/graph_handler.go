package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/paces/backend/internal/dashboard"
	"github.com/paces/backend/pkg/logger"
)

// GraphHandler serves the network view callbacks.
type GraphHandler struct {
	store     *dashboard.SessionStore
	callbacks *Callbacks
}

func NewGraphHandler(store *dashboard.SessionStore, callbacks *Callbacks) *GraphHandler {
	return &GraphHandler{
		store:     store,
		callbacks: callbacks,
	}
}

func (h *GraphHandler) Session(c *fiber.Ctx) error {
	s := resolveSession(c, h.store)
	return c.JSON(h.callbacks.Session(s))
}

func (h *GraphHandler) SetLayout(c *fiber.Ctx) error {
	var req LayoutRequest
	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", zap.Error(err))
		return errorJSON(c, fiber.StatusBadRequest, "Invalid request body")
	}

	s := resolveSession(c, h.store)
	layout, err := h.callbacks.Layout(s, req)
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, err.Error())
	}
	return c.JSON(layout)
}

func (h *GraphHandler) Elements(c *fiber.Ctx) error {
	s := resolveSession(c, h.store)
	return c.JSON(h.callbacks.Elements(s))
}

func (h *GraphHandler) Count(c *fiber.Ctx) error {
	s := resolveSession(c, h.store)
	return c.JSON(fiber.Map{
		"nodeCount": h.callbacks.Count(s),
	})
}

func (h *GraphHandler) ToggleAnnotated(c *fiber.Ctx) error {
	s := resolveSession(c, h.store)
	return c.JSON(h.callbacks.Toggle(s))
}

func (h *GraphHandler) Node(c *fiber.Ctx) error {
	s := resolveSession(c, h.store)

	details, err := h.callbacks.Node(s, NodeRequest{ID: c.Params("id")})
	if errors.Is(err, ErrNodeNotFound) {
		return errorJSON(c, fiber.StatusNotFound, err.Error())
	}
	return c.JSON(details)
}

func (h *GraphHandler) Stylesheet(c *fiber.Ctx) error {
	var req dashboard.StyleRequest
	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", zap.Error(err))
		return errorJSON(c, fiber.StatusBadRequest, "Invalid request body")
	}

	s := resolveSession(c, h.store)
	return c.JSON(fiber.Map{
		"stylesheet": h.callbacks.Stylesheet(s, req),
	})
}

func (h *GraphHandler) Export(c *fiber.Ctx) error {
	var req ExportRequest
	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", zap.Error(err))
		return errorJSON(c, fiber.StatusBadRequest, "Invalid request body")
	}

	directive, err := h.callbacks.Export(req)
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, err.Error())
	}
	return c.JSON(directive)
}
