package handlers

import (
	"bytes"
	"embed"
	"html/template"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/paces/backend/internal/dashboard"
	"github.com/paces/backend/pkg/logger"
)

//go:embed templates/index.html
var templates embed.FS

var pageTemplate = template.Must(template.ParseFS(templates, "templates/index.html"))

// Dashboard tabs. Each is served at /<tab>; / is the network tab.
const (
	TabNetwork      = "cytoscape"
	TabInteractions = "interaction_table"
	TabAcetylation  = "acetylation_table"
)

type pageTable struct {
	Name    dashboard.Table
	Title   string
	Columns []string
}

type pageData struct {
	Title         string
	Tab           string
	PageSize      int
	Layouts       []string
	DefaultLayout string
	LabelModes    []dashboard.LabelMode
	ImageFormats  []string
	Palette       dashboard.Palette
	Tables        []pageTable
}

// PageHandler renders the single dashboard page.
type PageHandler struct {
	palette  dashboard.Palette
	pageSize int
}

func NewPageHandler(palette dashboard.Palette, pageSize int) *PageHandler {
	return &PageHandler{
		palette:  palette,
		pageSize: pageSize,
	}
}

// Render serves the page with tab preselected.
func (h *PageHandler) Render(tab string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		data := pageData{
			Title:         "PACES acetylome network",
			Tab:           tab,
			PageSize:      h.pageSize,
			Layouts:       dashboard.Layouts,
			DefaultLayout: dashboard.DefaultLayout,
			LabelModes:    dashboard.LabelModes,
			ImageFormats:  dashboard.ImageFormats,
			Palette:       h.palette,
			Tables: []pageTable{
				{Name: dashboard.TableInteractions, Title: "Protein interactions", Columns: dashboard.InteractionColumns},
				{Name: dashboard.TableAcetylation, Title: "Acetylated proteins", Columns: dashboard.AcetylationColumns},
			},
		}

		var buf bytes.Buffer
		if err := pageTemplate.Execute(&buf, data); err != nil {
			logger.Error("Failed to render page", zap.Error(err))
			return errorJSON(c, fiber.StatusInternalServerError, "Failed to render page")
		}

		c.Type("html", "utf-8")
		return c.Send(buf.Bytes())
	}
}
