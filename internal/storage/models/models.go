package models

import "time"

// Detection conditions of a modified peptide.
const (
	ConditionControl = "control"
	ConditionGp13    = "gp13"
	ConditionBoth    = "both"
)

// Sentinels written into tables in place of failed lookups.
const (
	KeggIDMissing     = "NA"
	NoKeggIDGiven     = "No KEGG ID given"
	NoPathways        = "No pathways"
	UnknownMode       = "unknown"
	NoAnnotation      = "annotation not available"
	AnnotationMissing = "Annotation not available"
	NoPath            = "No path"
)

// Peptide is one detected acetylated peptide from the filtered table.
type Peptide struct {
	Protein          string
	Description      string
	ModifiedSequence string
	IntensityL       float64
	IntensityH       float64
	Ratio            float64
	PEP              float64
	Condition        string
	LogFoldChange    float64
}

// ProteinSummary is one row of acetylation.tsv.
type ProteinSummary struct {
	UniProtID       string
	GeneName        string
	NumAcSites      int
	Peptides        string
	DetectCondition string
	PeptLogFC       string
	ProtLogFC       string
}

// PathwayAnnotation is one row of pathways.tsv.
type PathwayAnnotation struct {
	UniProtID    string
	KeggID       string
	KeggPathways string
}

// InteractionEdge is one row of nodeDf.tsv. The cross references are nil when the
// identifier dictionaries have no entry.
type InteractionEdge struct {
	Node1         string
	Node2         string
	Node1StringID string
	Node2StringID string
	CombinedScore float64
	Interaction   string
	Node1UniProt  *string
	Node2UniProt  *string
	Node1Kegg     *string
	Node2Kegg     *string
}

// AcetylationPathway is one row of ackegg.tsv: a ProteinSummary joined with its
// pathway annotation. KeggID and KeggPathways are nil when no annotation row exists.
type AcetylationPathway struct {
	ProteinSummary
	KeggID       *string
	KeggPathways *string
}

// ProteinAnnotation is one row of the STRING protein annotation export.
type ProteinAnnotation struct {
	Node       string
	Identifier string
	Annotation string
}

// IdentifierMapping is one row of the STRING identifier mapping export.
type IdentifierMapping struct {
	QueryItem string
	StringID  string
}

// InteractionAction is one row of the STRING actions reference table.
type InteractionAction struct {
	ItemA string
	ItemB string
	Mode  string
}

type StageRun struct {
	ID         string
	RunID      string
	Stage      string
	RowsIn     int
	RowsOut    int
	Status     string
	Error      string
	StartedAt  time.Time
	FinishedAt time.Time
}

func StringPtr(s string) *string {
	return &s
}

func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
