package dashboard

import (
	"encoding/json"

	"github.com/paces/backend/internal/storage/models"
)

// NodeData is the data object of a cytoscape node. Field names are the ones the
// stylesheets select on.
type NodeData struct {
	ID        string     `json:"id"`
	Label     string     `json:"label"`
	StringID  string     `json:"stringid"`
	UniprotID *string    `json:"UniprotID"`
	KeggID    *string    `json:"KEGG_ID"`
	LogFC     FoldChange `json:"logFC"`
}

type EdgeData struct {
	ID          string     `json:"id"`
	Source      string     `json:"source"`
	Target      string     `json:"target"`
	Score       float64    `json:"score"`
	Interaction string     `json:"interaction"`
	SourceLogFC FoldChange `json:"source_logFC"`
	TargetLogFC FoldChange `json:"target_logFC"`
}

type Node struct {
	Data NodeData `json:"data"`
}

type Edge struct {
	Data EdgeData `json:"data"`
}

// Elements is a cytoscape element list. It marshals as one array, edges first.
type Elements struct {
	Nodes []Node
	Edges []Edge
}

func (e Elements) MarshalJSON() ([]byte, error) {
	list := make([]any, 0, len(e.Nodes)+len(e.Edges))
	for _, edge := range e.Edges {
		list = append(list, edge)
	}
	for _, node := range e.Nodes {
		list = append(list, node)
	}
	return json.Marshal(list)
}

// BuildElements turns interaction rows into graph elements. Nodes are deduplicated
// in first-seen order. With annotatedOnly, nodes without an annotation are left
// out together with every edge touching one.
func (d *Dataset) BuildElements(edges []models.InteractionEdge, annotatedOnly bool) Elements {
	var out Elements
	seen := make(map[string]struct{})

	addNode := func(n NodeData) {
		if _, ok := seen[n.ID]; ok {
			return
		}
		if annotatedOnly && !d.IsAnnotated(n.ID) {
			return
		}
		seen[n.ID] = struct{}{}
		out.Nodes = append(out.Nodes, Node{Data: n})
	}

	for _, e := range edges {
		source, target := d.sourceNode(e), d.targetNode(e)
		addNode(source)
		addNode(target)

		if annotatedOnly && (!d.IsAnnotated(source.ID) || !d.IsAnnotated(target.ID)) {
			continue
		}
		out.Edges = append(out.Edges, Edge{Data: EdgeData{
			ID:          source.ID + target.ID,
			Source:      source.ID,
			Target:      target.ID,
			Score:       e.CombinedScore,
			Interaction: e.Interaction,
			SourceLogFC: source.LogFC,
			TargetLogFC: target.LogFC,
		}})
	}
	return out
}

// NodeCount is the number of distinct edge endpoints, which is what the
// "currently displaying" counter reports.
func NodeCount(el Elements) int {
	ids := make(map[string]struct{})
	for _, e := range el.Edges {
		ids[e.Data.Source] = struct{}{}
		ids[e.Data.Target] = struct{}{}
	}
	return len(ids)
}

// Neighbourhood returns the edges of el touching node.
func Neighbourhood(el Elements, node string) []EdgeData {
	var out []EdgeData
	for _, e := range el.Edges {
		if e.Data.Source == node || e.Data.Target == node {
			out = append(out, e.Data)
		}
	}
	return out
}
