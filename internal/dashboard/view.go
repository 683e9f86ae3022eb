package dashboard

import (
	"errors"
	"fmt"
)

var Layouts = []string{
	"random", "grid", "circle", "concentric", "breadthfirst", "cose",
	"euler", "cose-bilkent", "cola", "spread", "dagre", "klay",
}

const DefaultLayout = "grid"

var (
	ErrUnknownLayout     = errors.New("unknown layout")
	ErrUnsupportedFormat = errors.New("unsupported image format")
)

func ValidLayout(name string) bool {
	for _, l := range Layouts {
		if l == name {
			return true
		}
	}
	return false
}

// LayoutDirective is passed straight to cytoscape.
type LayoutDirective struct {
	Name string `json:"name"`
}

var ImageFormats = []string{"jpg", "png", "svg"}

// ImageDirective asks the browser to render and download the current graph.
type ImageDirective struct {
	Type   string `json:"type"`
	Action string `json:"action"`
}

func ExportImage(format string) (ImageDirective, error) {
	for _, f := range ImageFormats {
		if f == format {
			return ImageDirective{Type: format, Action: "download"}, nil
		}
	}
	return ImageDirective{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
}
