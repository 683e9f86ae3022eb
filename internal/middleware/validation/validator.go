package validation

import (
	"slices"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/paces/backend/internal/dashboard"
)

type Config struct {
	MaxSearchLength     int
	AllowedContentTypes []string
	Logger              *zap.Logger
}

// Middleware rejects dashboard callbacks whose enumerated arguments are out of
// range. Filter expressions are only checked for shape: a malformed expression
// is the table engine's concern and matches nothing, as over the websocket.
func Middleware(cfg Config) fiber.Handler {
	if cfg.MaxSearchLength == 0 {
		cfg.MaxSearchLength = 2000
	}
	if len(cfg.AllowedContentTypes) == 0 {
		cfg.AllowedContentTypes = []string{"application/json"}
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return func(c *fiber.Ctx) error {
		if c.Method() != fiber.MethodPost && c.Method() != fiber.MethodPut {
			return c.Next()
		}

		contentType := c.Get(fiber.HeaderContentType)
		if contentType != "" {
			allowed := false
			for _, allowedType := range cfg.AllowedContentTypes {
				if strings.Contains(contentType, allowedType) {
					allowed = true
					break
				}
			}
			if !allowed {
				return c.Status(fiber.StatusUnsupportedMediaType).JSON(fiber.Map{
					"error": "Unsupported content type",
				})
			}
		}

		path := c.Path()
		if !needsBody(path) {
			return c.Next()
		}

		var req map[string]interface{}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid JSON format",
			})
		}

		if msg := check(path, req, cfg); msg != "" {
			cfg.Logger.Warn("Rejected dashboard callback",
				zap.String("ip", c.IP()),
				zap.String("path", path),
				zap.String("reason", msg),
			)
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": msg,
			})
		}

		return c.Next()
	}
}

func needsBody(path string) bool {
	switch {
	case strings.HasSuffix(path, "/graph/layout"),
		strings.HasSuffix(path, "/graph/export"),
		strings.HasSuffix(path, "/graph/stylesheet"):
		return true
	case strings.Contains(path, "/tables/") && !strings.HasSuffix(path, "/tables/reset"):
		return true
	}
	return false
}

// check returns a client-facing reason when req is invalid for path.
func check(path string, req map[string]interface{}, cfg Config) string {
	switch {
	case strings.HasSuffix(path, "/graph/layout"):
		layout, _ := req["layout"].(string)
		if !slices.Contains(dashboard.Layouts, layout) {
			return "Unknown layout"
		}

	case strings.HasSuffix(path, "/graph/export"):
		format, _ := req["format"].(string)
		if !slices.Contains(dashboard.ImageFormats, format) {
			return "Unsupported image format"
		}

	case strings.HasSuffix(path, "/graph/stylesheet"):
		if v, ok := req["label"]; ok && v != "" {
			label, _ := v.(string)
			if !dashboard.LabelMode(label).Valid() {
				return "Unknown label mode"
			}
		}
		if v, ok := req["search"]; ok {
			search, isString := v.(string)
			if !isString || len(search) > cfg.MaxSearchLength {
				return "Search term is invalid"
			}
		}

	default:
		if v, ok := req["filter"]; ok {
			if _, isString := v.(string); !isString {
				return "Filter must be a string"
			}
		}
		if msg := checkSort(req["sortBy"]); msg != "" {
			return msg
		}
	}
	return ""
}

func checkSort(v interface{}) string {
	if v == nil {
		return ""
	}
	keys, ok := v.([]interface{})
	if !ok {
		return "sortBy must be a list"
	}
	for _, k := range keys {
		key, ok := k.(map[string]interface{})
		if !ok {
			return "sortBy entries must be objects"
		}
		if dir := key["direction"]; dir != "asc" && dir != "desc" {
			return "sort direction must be asc or desc"
		}
	}
	return ""
}
