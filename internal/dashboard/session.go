package dashboard

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/paces/backend/internal/query"
	"github.com/paces/backend/internal/storage/models"
	"github.com/paces/backend/pkg/logger"
)

// TableState is the filter expression and sort order of one table.
type TableState struct {
	Filter string          `json:"filter"`
	Sort   []query.SortKey `json:"sortBy"`
}

// Session is the view state of one browser. Table views are recomputed from the
// dataset on every read; nothing is filtered in place.
type Session struct {
	ID string

	mu           sync.Mutex
	data         *Dataset
	palette      Palette
	layout       string
	label        LabelMode
	edgeLabels   bool
	toggleClicks int
	tables       map[Table]TableState
	// lastFiltered is the table whose filter restricts the other one.
	lastFiltered Table
	lastSeen     time.Time
}

func NewSession(id string, data *Dataset, palette Palette) *Session {
	return &Session{
		ID:       id,
		data:     data,
		palette:  palette,
		layout:   DefaultLayout,
		label:    LabelGeneName,
		tables:   make(map[Table]TableState),
		lastSeen: time.Now(),
	}
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

func (s *Session) SetLayout(name string) (LayoutDirective, error) {
	if !ValidLayout(name) {
		return LayoutDirective{}, ErrUnknownLayout
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.layout = name
	return LayoutDirective{Name: name}, nil
}

func (s *Session) Layout() LayoutDirective {
	s.mu.Lock()
	defer s.mu.Unlock()
	return LayoutDirective{Name: s.layout}
}

// ToggleAnnotated registers one click on the annotated-only button.
func (s *Session) ToggleAnnotated() (Elements, string) {
	s.mu.Lock()
	s.toggleClicks++
	s.mu.Unlock()
	return s.Elements(), s.ToggleLabel()
}

// AnnotatedOnly is true after an odd number of toggle clicks.
func (s *Session) AnnotatedOnly() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.toggleClicks%2 == 1
}

// ToggleLabel is the text of the toggle button for the current state.
func (s *Session) ToggleLabel() string {
	if s.AnnotatedOnly() {
		return "Show all proteins"
	}
	return "Show only annotated proteins"
}

// Elements renders the graph of the current interaction view.
func (s *Session) Elements() Elements {
	annotated := s.AnnotatedOnly()
	return s.data.BuildElements(s.Interactions(), annotated)
}

// SetFilter replaces the filter and sort of one table. That table becomes the one
// restricting the other.
func (s *Session) SetFilter(t Table, state TableState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tables[t] = state
	s.lastFiltered = t
}

// ShowAll drops every filter and sort of both tables.
func (s *Session) ShowAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tables = make(map[Table]TableState)
	s.lastFiltered = ""
}

func (s *Session) state() (map[Table]TableState, Table) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tables := make(map[Table]TableState, len(s.tables))
	for k, v := range s.tables {
		tables[k] = v
	}
	return tables, s.lastFiltered
}

func (s *Session) TableState(t Table) TableState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tables[t]
}

// applyOwn filters and sorts rows by one table's own state. A filter that does not
// compile keeps no rows.
func applyOwn[T any](rows []T, st TableState, schema *query.Schema[T]) []T {
	pred, err := query.Compile(st.Filter, schema)
	if err != nil {
		logger.Debug("Filter matches nothing", zap.String("filter", st.Filter), zap.Error(err))
	}
	return query.Sort(query.Filter(rows, pred), st.Sort, schema)
}

// Interactions is the current interaction table view.
func (s *Session) Interactions() []models.InteractionEdge {
	tables, last := s.state()
	rows := applyOwn(s.data.Edges(), tables[TableInteractions], InteractionSchema)
	if last != TableAcetylation {
		return rows
	}

	proteins := make(map[string]struct{})
	for _, r := range applyOwn(s.data.Acetylation(), tables[TableAcetylation], AcetylationSchema) {
		proteins[r.UniProtID] = struct{}{}
	}
	return query.Filter(rows, func(e models.InteractionEdge) bool {
		return contains(proteins, e.Node1UniProt) || contains(proteins, e.Node2UniProt)
	})
}

// Acetylation is the current acetylation table view.
func (s *Session) Acetylation() []models.AcetylationPathway {
	tables, last := s.state()
	rows := applyOwn(s.data.Acetylation(), tables[TableAcetylation], AcetylationSchema)
	if last != TableInteractions {
		return rows
	}

	proteins := make(map[string]struct{})
	for _, e := range applyOwn(s.data.Edges(), tables[TableInteractions], InteractionSchema) {
		for _, p := range []*string{e.Node1UniProt, e.Node2UniProt} {
			if p != nil {
				proteins[*p] = struct{}{}
			}
		}
	}
	return query.Filter(rows, func(r models.AcetylationPathway) bool {
		_, ok := proteins[r.UniProtID]
		return ok
	})
}

func contains(set map[string]struct{}, key *string) bool {
	if key == nil {
		return false
	}
	_, ok := set[*key]
	return ok
}

// NodeDetails looks a node up among all nodes of the network.
func (s *Session) NodeDetails(id string) (NodeDetails, bool) {
	n, ok := s.data.Node(id)
	if !ok {
		return NodeDetails{}, false
	}
	return s.data.Details(n), true
}

// StyleAction is what triggered a stylesheet update.
type StyleAction string

const (
	StyleDefault StyleAction = "default"
	StyleSelect  StyleAction = "select"
	StyleSearch  StyleAction = "search"
	StyleLabel   StyleAction = "label"
	StyleEdges   StyleAction = "edgelabel"
)

type StyleRequest struct {
	Action     StyleAction `json:"action"`
	NodeID     string      `json:"nodeId"`
	Search     string      `json:"search"`
	Label      LabelMode   `json:"label"`
	EdgeLabels *bool       `json:"edgeLabels"`
}

// Stylesheet applies the label and edge label settings of req and returns the
// stylesheet for its action. Without a selected node anything but a search falls
// back to the default look.
func (s *Session) Stylesheet(req StyleRequest) []Rule {
	s.mu.Lock()
	if req.Label.Valid() {
		s.label = req.Label
	}
	if req.EdgeLabels != nil {
		s.edgeLabels = *req.EdgeLabels
	}
	label, edgeLabels, palette := s.label, s.edgeLabels, s.palette
	s.mu.Unlock()

	switch {
	case req.Action == StyleDefault:
		return DefaultStylesheet(label, palette)
	case req.Action == StyleSearch:
		kind := ClassifySearch(req.Search, func(id string) bool {
			_, ok := s.data.Node(id)
			return ok
		})
		return SearchStylesheet(req.Search, kind, label, palette)
	case req.NodeID == "":
		return DefaultStylesheet(label, palette)
	}

	el := s.Elements()
	var node *NodeData
	for i := range el.Nodes {
		if el.Nodes[i].Data.ID == req.NodeID {
			node = &el.Nodes[i].Data
			break
		}
	}
	if node == nil {
		return DefaultStylesheet(label, palette)
	}
	return SelectionStylesheet(*node, Neighbourhood(el, node.ID), label, edgeLabels, palette)
}

// Snapshot is everything the page needs to render a session from scratch.
type Snapshot struct {
	SessionID   string          `json:"sessionId"`
	Layout      LayoutDirective `json:"layout"`
	Label       LabelMode       `json:"label"`
	EdgeLabels  bool            `json:"edgeLabels"`
	ToggleLabel string          `json:"toggleLabel"`
	NodeCount   int             `json:"nodeCount"`
	Elements    Elements        `json:"elements"`
	Stylesheet  []Rule          `json:"stylesheet"`
}

func (s *Session) Snapshot() Snapshot {
	el := s.Elements()
	s.mu.Lock()
	label, edgeLabels, layout := s.label, s.edgeLabels, s.layout
	s.mu.Unlock()

	return Snapshot{
		SessionID:   s.ID,
		Layout:      LayoutDirective{Name: layout},
		Label:       label,
		EdgeLabels:  edgeLabels,
		ToggleLabel: s.ToggleLabel(),
		NodeCount:   NodeCount(el),
		Elements:    el,
		Stylesheet:  DefaultStylesheet(label, s.palette),
	}
}
