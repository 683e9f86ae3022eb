// Package dashboard holds the state behind the interactive network view and the
// two data tables: the immutable dataset, per-session view state, graph elements,
// node details and cytoscape stylesheets.
package dashboard

import (
	"strings"

	"github.com/paces/backend/internal/storage/models"
)

// FoldChange is the coarse direction class a node is colored by.
type FoldChange string

const (
	FoldChangePositive FoldChange = "positive"
	FoldChangeNegative FoldChange = "negative"
	FoldChangeSimilar  FoldChange = "similar"
)

// ClassifyFoldChange reduces a protLogFC text such as "negative !NaN in peptide(s)"
// to its class.
func ClassifyFoldChange(protLogFC string) FoldChange {
	switch {
	case strings.Contains(protLogFC, "positive"):
		return FoldChangePositive
	case strings.Contains(protLogFC, "negative"):
		return FoldChangeNegative
	}
	return FoldChangeSimilar
}

// Sources are the tables the dashboard is built from.
type Sources struct {
	Edges       []models.InteractionEdge
	Acetylation []models.AcetylationPathway
	Annotations []models.ProteinAnnotation
	Pathways    []models.PathwayAnnotation
}

// Dataset is the read-only data shared by every session.
type Dataset struct {
	edges       []models.InteractionEdge
	acetylation []models.AcetylationPathway

	// annotated holds node names with a real annotation.
	annotated    map[string]struct{}
	annotationBy map[string]string
	pathwaysBy   map[string][]string
	sitesBy      map[string]int
	logFCBy      map[string]string
	nodes        map[string]NodeData
}

// NewDataset keeps edges scoring at least scoreCutoff and indexes the lookup
// tables.
func NewDataset(src Sources, scoreCutoff float64) *Dataset {
	d := &Dataset{
		annotated:    make(map[string]struct{}),
		annotationBy: make(map[string]string),
		pathwaysBy:   make(map[string][]string),
		sitesBy:      make(map[string]int),
		logFCBy:      make(map[string]string),
		nodes:        make(map[string]NodeData),
	}

	for _, e := range src.Edges {
		if e.CombinedScore >= scoreCutoff {
			d.edges = append(d.edges, e)
		}
	}
	d.acetylation = append(d.acetylation, src.Acetylation...)

	for _, a := range src.Annotations {
		d.annotationBy[a.Identifier] = a.Annotation
	}
	// Later rows for the same node override earlier ones before the
	// placeholder check, like a dictionary built row by row.
	byNode := make(map[string]string)
	for _, a := range src.Annotations {
		byNode[a.Node] = a.Annotation
	}
	for node, text := range byNode {
		if text != models.NoAnnotation {
			d.annotated[node] = struct{}{}
		}
	}

	for _, p := range src.Pathways {
		if p.KeggID == "" || p.KeggID == models.KeggIDMissing {
			continue
		}
		d.pathwaysBy[p.KeggID] = strings.Split(p.KeggPathways, " // ")
	}
	for _, a := range d.acetylation {
		d.sitesBy[a.UniProtID] = a.NumAcSites
		d.logFCBy[a.UniProtID] = a.ProtLogFC
	}

	for _, e := range d.edges {
		for _, n := range []NodeData{d.sourceNode(e), d.targetNode(e)} {
			if _, ok := d.nodes[n.ID]; !ok {
				d.nodes[n.ID] = n
			}
		}
	}
	return d
}

// Edges returns the interaction rows above the score cutoff. Callers must not
// modify the result.
func (d *Dataset) Edges() []models.InteractionEdge { return d.edges }

// Acetylation returns the acetylation rows. Callers must not modify the result.
func (d *Dataset) Acetylation() []models.AcetylationPathway { return d.acetylation }

func (d *Dataset) IsAnnotated(node string) bool {
	_, ok := d.annotated[node]
	return ok
}

// Node returns the node data of a node appearing in any edge.
func (d *Dataset) Node(id string) (NodeData, bool) {
	n, ok := d.nodes[id]
	return n, ok
}

func (d *Dataset) foldChange(uniprot *string) FoldChange {
	if uniprot == nil {
		return FoldChangeSimilar
	}
	return ClassifyFoldChange(d.logFCBy[*uniprot])
}

func (d *Dataset) sourceNode(e models.InteractionEdge) NodeData {
	return NodeData{
		ID:        e.Node1,
		Label:     e.Node1,
		StringID:  e.Node1StringID,
		UniprotID: e.Node1UniProt,
		KeggID:    e.Node1Kegg,
		LogFC:     d.foldChange(e.Node1UniProt),
	}
}

func (d *Dataset) targetNode(e models.InteractionEdge) NodeData {
	return NodeData{
		ID:        e.Node2,
		Label:     e.Node2,
		StringID:  e.Node2StringID,
		UniprotID: e.Node2UniProt,
		KeggID:    e.Node2Kegg,
		LogFC:     d.foldChange(e.Node2UniProt),
	}
}
