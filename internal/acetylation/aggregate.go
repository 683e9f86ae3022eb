// Package acetylation reshapes peptide-level measurements into one summary row per
// protein.
package acetylation

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/paces/backend/internal/storage/models"
	"github.com/paces/backend/internal/tsv"
)

const (
	Positive      = "positive"
	Negative      = "negative"
	DependsOnPept = "depends on peptide"
	NaNSuffix     = " !NaN in peptide(s)"
)

var geneNamePattern = regexp.MustCompile(`GN=(.+?) PE`)

// Aggregate builds one summary per distinct protein, in first-seen order. Proteins
// without peptides never appear.
func Aggregate(peptides []models.Peptide) []models.ProteinSummary {
	var order []string
	byProtein := make(map[string][]models.Peptide)
	for _, p := range peptides {
		if _, seen := byProtein[p.Protein]; !seen {
			order = append(order, p.Protein)
		}
		byProtein[p.Protein] = append(byProtein[p.Protein], p)
	}

	out := make([]models.ProteinSummary, 0, len(order))
	for _, id := range order {
		rows := byProtein[id]
		out = append(out, models.ProteinSummary{
			UniProtID:       id,
			GeneName:        GeneName(rows[0].Description),
			NumAcSites:      len(rows),
			Peptides:        numbered(rows, func(p models.Peptide) string { return p.ModifiedSequence }),
			DetectCondition: detectCondition(rows),
			PeptLogFC:       numbered(rows, func(p models.Peptide) string { return tsv.FormatFloat(p.LogFoldChange) }),
			ProtLogFC:       Direction(foldChanges(rows)),
		})
	}
	return out
}

// GeneName extracts the first GN= entry of a UniProt-style description. A
// description without one yields "".
func GeneName(description string) string {
	m := geneNamePattern.FindStringSubmatch(description)
	if m == nil {
		return ""
	}
	return m[1]
}

// Direction summarises per-peptide log fold changes by sign class (-1, 0, +1).
// One class decides the direction, an all-zero set reading as positive; mixed
// classes depend on the peptide.
func Direction(values []float64) string {
	classes := make(map[int]struct{}, 3)
	var nan int
	for _, v := range values {
		switch {
		case math.IsNaN(v):
			nan++
		case v < 0:
			classes[-1] = struct{}{}
		case v > 0:
			classes[1] = struct{}{}
		default:
			classes[0] = struct{}{}
		}
	}

	var result string
	switch len(classes) {
	case 0:
	case 1:
		if _, neg := classes[-1]; neg {
			result = Negative
		} else {
			result = Positive
		}
	default:
		result = DependsOnPept
	}
	if nan > 0 {
		result += NaNSuffix
	}
	return result
}

func detectCondition(rows []models.Peptide) string {
	first := rows[0].Condition
	same := true
	for _, r := range rows[1:] {
		if r.Condition != first {
			same = false
			break
		}
	}
	if same {
		return "all peptides: " + first
	}
	return numbered(rows, func(p models.Peptide) string { return p.Condition })
}

func numbered(rows []models.Peptide, field func(models.Peptide) string) string {
	parts := make([]string, len(rows))
	for i, r := range rows {
		parts[i] = "peptide " + strconv.Itoa(i+1) + ": " + field(r)
	}
	return strings.Join(parts, " // ")
}

func foldChanges(rows []models.Peptide) []float64 {
	out := make([]float64, len(rows))
	for i, r := range rows {
		out[i] = r.LogFoldChange
	}
	return out
}
