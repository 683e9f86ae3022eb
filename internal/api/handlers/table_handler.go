package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/paces/backend/internal/dashboard"
	"github.com/paces/backend/pkg/logger"
)

// TableHandler serves the interaction and acetylation tables.
type TableHandler struct {
	store     *dashboard.SessionStore
	callbacks *Callbacks
}

func NewTableHandler(store *dashboard.SessionStore, callbacks *Callbacks) *TableHandler {
	return &TableHandler{
		store:     store,
		callbacks: callbacks,
	}
}

// Get returns one page of a table view. The table name is the :table route param.
func (h *TableHandler) Get(c *fiber.Ctx) error {
	s := resolveSession(c, h.store)

	page, err := h.callbacks.Table(s, TableRequest{
		Table: dashboard.Table(c.Params("table")),
		Page:  c.QueryInt("page", 0),
	})
	if errors.Is(err, ErrUnknownTable) {
		return errorJSON(c, fiber.StatusNotFound, err.Error())
	}
	return c.JSON(page)
}

// Filter replaces the filter and sort of a table. A filter that does not parse is
// accepted and simply matches nothing.
func (h *TableHandler) Filter(c *fiber.Ctx) error {
	var req FilterRequest
	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", zap.Error(err))
		return errorJSON(c, fiber.StatusBadRequest, "Invalid request body")
	}
	req.Table = dashboard.Table(c.Params("table"))

	s := resolveSession(c, h.store)
	view, err := h.callbacks.Filter(s, req)
	if errors.Is(err, ErrUnknownTable) {
		return errorJSON(c, fiber.StatusNotFound, err.Error())
	}
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, err.Error())
	}
	return c.JSON(view)
}

func (h *TableHandler) Reset(c *fiber.Ctx) error {
	s := resolveSession(c, h.store)
	return c.JSON(h.callbacks.Reset(s))
}
