package network

import (
	"regexp"
	"sort"
	"strings"

	"github.com/paces/backend/internal/storage/models"
)

type pairKey struct{ a, b string }

type groupKey struct {
	node1, node2, id1, id2, score string
}

// Merge left-joins interactions with their STRING action modes and collapses the
// modes of each (node1, node2, ids, score) group into one sorted, comma-joined
// label. Interactions without any mode are labelled models.UnknownMode. Rows are
// returned ordered by the group key.
func Merge(interactions []RawInteraction, actions []models.InteractionAction) []models.InteractionEdge {
	modes := make(map[pairKey][]string)
	for _, a := range actions {
		k := pairKey{a.ItemA, a.ItemB}
		modes[k] = append(modes[k], a.Mode)
	}

	groups := make(map[groupKey]map[string]struct{})
	scores := make(map[groupKey]float64)
	for _, in := range interactions {
		k := groupKey{in.Node1, in.Node2, in.Node1StringID, in.Node2StringID, in.ScoreText}
		set, ok := groups[k]
		if !ok {
			set = make(map[string]struct{})
			groups[k] = set
			scores[k] = in.CombinedScore
		}

		matched := modes[pairKey{in.Node1StringID, in.Node2StringID}]
		if len(matched) == 0 {
			set[models.UnknownMode] = struct{}{}
			continue
		}
		for _, m := range matched {
			if strings.TrimSpace(m) == "" {
				m = models.UnknownMode
			}
			set[m] = struct{}{}
		}
	}

	keys := make([]groupKey, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		switch {
		case a.node1 != b.node1:
			return a.node1 < b.node1
		case a.node2 != b.node2:
			return a.node2 < b.node2
		case a.id1 != b.id1:
			return a.id1 < b.id1
		case a.id2 != b.id2:
			return a.id2 < b.id2
		}
		return scores[a] < scores[b]
	})

	edges := make([]models.InteractionEdge, 0, len(keys))
	for _, k := range keys {
		types := make([]string, 0, len(groups[k]))
		for m := range groups[k] {
			types = append(types, m)
		}
		sort.Strings(types)

		edges = append(edges, models.InteractionEdge{
			Node1:         k.node1,
			Node2:         k.node2,
			Node1StringID: k.id1,
			Node2StringID: k.id2,
			CombinedScore: scores[k],
			Interaction:   strings.Join(types, ", "),
		})
	}
	return edges
}

var queryAccession = regexp.MustCompile(`\|(.*)\|`)

// UniProtDict maps STRING ids to the UniProt accession held between the bars of
// the mapping's query item, e.g. "sp|Q9HWX3|ACSA_PSEAE". Query items without bars
// are left out.
func UniProtDict(mappings []models.IdentifierMapping) map[string]string {
	out := make(map[string]string, len(mappings))
	for _, m := range mappings {
		if match := queryAccession.FindStringSubmatch(m.QueryItem); match != nil {
			out[m.StringID] = match[1]
		}
	}
	return out
}

// KeggDict maps UniProt accessions to KEGG gene ids. Unconverted accessions are
// left out.
func KeggDict(pathways []models.PathwayAnnotation) map[string]string {
	out := make(map[string]string, len(pathways))
	for _, p := range pathways {
		if p.KeggID == "" || p.KeggID == models.KeggIDMissing {
			continue
		}
		out[p.UniProtID] = p.KeggID
	}
	return out
}

// AttachCrossRefs fills the UniProt and KEGG columns of every edge in place. A
// dictionary miss leaves the field nil.
func AttachCrossRefs(edges []models.InteractionEdge, uniprot, kegg map[string]string) {
	lookup := func(dict map[string]string, key *string) *string {
		if key == nil {
			return nil
		}
		if v, ok := dict[*key]; ok {
			return models.StringPtr(v)
		}
		return nil
	}

	for i := range edges {
		e := &edges[i]
		e.Node1UniProt = lookup(uniprot, &e.Node1StringID)
		e.Node2UniProt = lookup(uniprot, &e.Node2StringID)
		e.Node1Kegg = lookup(kegg, e.Node1UniProt)
		e.Node2Kegg = lookup(kegg, e.Node2UniProt)
	}
}

// JoinPathways decorates every acetylation row with its pathway annotation. Rows
// are kept in order; one row per matching pathway row, or one bare row when none
// matches.
func JoinPathways(summaries []models.ProteinSummary, pathways []models.PathwayAnnotation) []models.AcetylationPathway {
	byID := make(map[string][]models.PathwayAnnotation, len(pathways))
	for _, p := range pathways {
		byID[p.UniProtID] = append(byID[p.UniProtID], p)
	}

	out := make([]models.AcetylationPathway, 0, len(summaries))
	for _, s := range summaries {
		matches := byID[s.UniProtID]
		if len(matches) == 0 {
			out = append(out, models.AcetylationPathway{ProteinSummary: s})
			continue
		}
		for _, p := range matches {
			out = append(out, models.AcetylationPathway{
				ProteinSummary: s,
				KeggID:         models.StringPtr(p.KeggID),
				KeggPathways:   models.StringPtr(p.KeggPathways),
			})
		}
	}
	return out
}
