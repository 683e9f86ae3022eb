// Package ingestion filters the raw acetylome export and turns surviving rows into
// peptide records.
package ingestion

import (
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/paces/backend/internal/storage/models"
	"github.com/paces/backend/internal/tsv"
	"github.com/paces/backend/pkg/logger"
)

// Column names of the raw MaxQuant-style export.
const (
	ColProtein          = "Protein"
	ColDescriptions     = "Protein.Descriptions"
	ColIntensityL       = "Intensity.L."
	ColIntensityH       = "Intensity.H."
	ColRatio            = "Ratio.H.L.Normalized"
	ColPEP              = "PEP"
	ColIntensity        = "Intensity."
	ColModifiedSequence = "Modified.Sequence"
)

// SignificanceCutoff is the exclusive upper bound on PEP for a peptide to be kept.
const SignificanceCutoff = 0.05

type Processor struct {
	cutoff float64
}

func NewProcessor() *Processor {
	return &Processor{cutoff: SignificanceCutoff}
}

// Filter keeps rows whose PEP is below the cutoff and whose total intensity is
// nonzero. Row order and cell text are preserved; a malformed number aborts.
func (p *Processor) Filter(raw *tsv.Table) (*tsv.Table, error) {
	pepCol, err := raw.Col(ColPEP)
	if err != nil {
		return nil, err
	}
	intCol, err := raw.Col(ColIntensity)
	if err != nil {
		return nil, err
	}

	out := tsv.NewTable(raw.Header)
	for i, row := range raw.Rows {
		pep, err := tsv.ParseFloat(row[pepCol])
		if err != nil {
			return nil, fmt.Errorf("row %d column %s: %w", i+1, ColPEP, err)
		}
		intensity, err := tsv.ParseFloat(row[intCol])
		if err != nil {
			return nil, fmt.Errorf("row %d column %s: %w", i+1, ColIntensity, err)
		}

		// A missing PEP never passes; a missing intensity is not zero and is kept.
		if !(pep < p.cutoff) || intensity == 0 {
			continue
		}
		out.Append(row)
	}

	logger.Info("Filtered peptide table",
		zap.Int("rows_in", len(raw.Rows)),
		zap.Int("rows_out", len(out.Rows)),
	)
	return out, nil
}

// Peptides parses the filtered table into peptide records, deriving the detection
// condition and log2 fold change of each.
func (p *Processor) Peptides(filtered *tsv.Table) ([]models.Peptide, error) {
	cols, err := filtered.Cols(ColProtein, ColDescriptions, ColModifiedSequence,
		ColIntensityL, ColIntensityH, ColRatio, ColPEP)
	if err != nil {
		return nil, err
	}

	peptides := make([]models.Peptide, 0, len(filtered.Rows))
	for i, row := range filtered.Rows {
		nums := make([]float64, 4)
		for j, c := range cols[3:] {
			v, err := tsv.ParseFloat(row[c])
			if err != nil {
				return nil, fmt.Errorf("row %d column %s: %w", i+1, filtered.Header[c], err)
			}
			nums[j] = v
		}

		pep := models.Peptide{
			Protein:          row[cols[0]],
			Description:      row[cols[1]],
			ModifiedSequence: row[cols[2]],
			IntensityL:       nums[0],
			IntensityH:       nums[1],
			Ratio:            nums[2],
			PEP:              nums[3],
		}
		pep.Condition = Condition(pep.IntensityL, pep.IntensityH)
		pep.LogFoldChange = LogFoldChange(pep.Ratio)
		peptides = append(peptides, pep)
	}
	return peptides, nil
}

// Condition reports in which sample a peptide was seen: channel L is the control,
// channel H the gp13 sample. Both channels zero counts as "both".
func Condition(intensityL, intensityH float64) string {
	switch {
	case intensityL == 0 && intensityH != 0:
		return models.ConditionGp13
	case intensityL != 0 && intensityH == 0:
		return models.ConditionControl
	default:
		return models.ConditionBoth
	}
}

// LogFoldChange is log2 of the normalized H/L ratio, NaN when the ratio is missing.
func LogFoldChange(ratio float64) float64 {
	if math.IsNaN(ratio) {
		return math.NaN()
	}
	return math.Log2(ratio)
}
