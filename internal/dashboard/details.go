package dashboard

import (
	"strconv"
	"strings"

	"github.com/paces/backend/internal/storage/models"
)

const nothing = "None"

// NodeDetails is the content of the selected node panel.
type NodeDetails struct {
	Name             string `json:"name"`
	UniProtID        string `json:"uniprotId"`
	UniProtURL       string `json:"uniprotUrl"`
	StringID         string `json:"stringId"`
	StringURL        string `json:"stringUrl"`
	KeggID           string `json:"keggId"`
	KeggURL          string `json:"keggUrl"`
	AcetylationSites string `json:"acetylationSites"`
	LogFC            string `json:"logFC"`
	Annotation       string `json:"annotation"`
	Pathways         string `json:"pathways"`
}

func orNone(s *string) string {
	if s == nil {
		return nothing
	}
	return *s
}

// Details collects the cross references of a node. Missing identifiers render as
// "None", like the links built from them.
func (d *Dataset) Details(n NodeData) NodeDetails {
	uniprot := orNone(n.UniprotID)
	kegg := orNone(n.KeggID)

	det := NodeDetails{
		Name:             n.ID,
		UniProtID:        uniprot,
		UniProtURL:       "https://www.uniprot.org/uniprot/" + uniprot,
		StringID:         n.StringID,
		StringURL:        "https://string-db.org/network/" + n.StringID,
		KeggID:           kegg,
		KeggURL:          "https://www.genome.jp/dbget-bin/www_bget?pae:" + kegg,
		AcetylationSites: nothing,
		LogFC:            string(n.LogFC),
		Annotation:       models.AnnotationMissing,
		Pathways:         models.NoPath,
	}

	if sites, ok := d.sitesBy[uniprot]; ok {
		det.AcetylationSites = strconv.Itoa(sites)
	}
	if d.IsAnnotated(n.ID) {
		if text, ok := d.annotationBy[n.StringID]; ok {
			det.Annotation = text
		} else {
			det.Annotation = nothing
		}
	}
	if paths, ok := d.pathwaysBy[kegg]; ok {
		det.Pathways = strings.Join(paths, "<br>")
	}
	return det
}
