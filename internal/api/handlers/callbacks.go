package handlers

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/paces/backend/internal/dashboard"
	"github.com/paces/backend/internal/metrics"
	"github.com/paces/backend/internal/query"
)

var (
	ErrUnknownTable    = errors.New("unknown table")
	ErrUnknownCallback = errors.New("unknown callback")
	ErrNodeNotFound    = errors.New("node not found")
)

// Callback names, shared by the REST routes and the websocket channel.
const (
	CallbackSession  = "session"
	CallbackLayout   = "layout"
	CallbackElements = "elements"
	CallbackCount    = "count"
	CallbackToggle   = "toggle-annotated"
	CallbackNode     = "node"
	CallbackStyle    = "stylesheet"
	CallbackExport   = "export"
	CallbackTable    = "table"
	CallbackFilter   = "filter"
	CallbackReset    = "reset"
)

// Callbacks implements every dashboard interaction on top of a session. Each
// method is independent and only reads or replaces that session's view state.
type Callbacks struct {
	pageSize int
}

func NewCallbacks(pageSize int) *Callbacks {
	if pageSize <= 0 {
		pageSize = 25
	}
	return &Callbacks{pageSize: pageSize}
}

type LayoutRequest struct {
	Layout string `json:"layout"`
}

type NodeRequest struct {
	ID string `json:"id"`
}

type ExportRequest struct {
	Format string `json:"format"`
}

type TableRequest struct {
	Table dashboard.Table `json:"table"`
	Page  int             `json:"page"`
}

type FilterRequest struct {
	Table  dashboard.Table `json:"table"`
	Filter string          `json:"filter"`
	SortBy []query.SortKey `json:"sortBy"`
}

type GraphView struct {
	Elements  dashboard.Elements `json:"elements"`
	NodeCount int                `json:"nodeCount"`
}

type ToggleResponse struct {
	GraphView
	Label string `json:"label"`
}

type TablePage struct {
	Table    dashboard.Table    `json:"table"`
	Columns  []string           `json:"columns"`
	Rows     []dashboard.Record `json:"rows"`
	Total    int                `json:"total"`
	Page     int                `json:"page"`
	PageSize int                `json:"pageSize"`
	Filter   string             `json:"filter"`
	SortBy   []query.SortKey    `json:"sortBy"`
}

// ViewResponse carries both tables and the graph after a change that may affect all
// three.
type ViewResponse struct {
	GraphView
	Interactions TablePage `json:"interactions"`
	Acetylation  TablePage `json:"acetylation"`
}

func count(name string) {
	metrics.CallbacksTotal.WithLabelValues(name).Inc()
}

func (cb *Callbacks) graph(s *dashboard.Session) GraphView {
	el := s.Elements()
	n := dashboard.NodeCount(el)
	metrics.NodesRendered.Set(float64(n))
	return GraphView{Elements: el, NodeCount: n}
}

func (cb *Callbacks) Session(s *dashboard.Session) dashboard.Snapshot {
	count(CallbackSession)
	snap := s.Snapshot()
	metrics.NodesRendered.Set(float64(snap.NodeCount))
	return snap
}

func (cb *Callbacks) Layout(s *dashboard.Session, req LayoutRequest) (dashboard.LayoutDirective, error) {
	count(CallbackLayout)
	return s.SetLayout(req.Layout)
}

func (cb *Callbacks) Elements(s *dashboard.Session) GraphView {
	count(CallbackElements)
	return cb.graph(s)
}

func (cb *Callbacks) Count(s *dashboard.Session) int {
	count(CallbackCount)
	return dashboard.NodeCount(s.Elements())
}

func (cb *Callbacks) Toggle(s *dashboard.Session) ToggleResponse {
	count(CallbackToggle)
	_, label := s.ToggleAnnotated()
	return ToggleResponse{GraphView: cb.graph(s), Label: label}
}

func (cb *Callbacks) Node(s *dashboard.Session, req NodeRequest) (dashboard.NodeDetails, error) {
	count(CallbackNode)
	details, ok := s.NodeDetails(req.ID)
	if !ok {
		return details, fmt.Errorf("%w: %s", ErrNodeNotFound, req.ID)
	}
	return details, nil
}

func (cb *Callbacks) Stylesheet(s *dashboard.Session, req dashboard.StyleRequest) []dashboard.Rule {
	count(CallbackStyle)
	if req.Action == "" {
		req.Action = dashboard.StyleDefault
	}
	return s.Stylesheet(req)
}

func (cb *Callbacks) Export(req ExportRequest) (dashboard.ImageDirective, error) {
	count(CallbackExport)
	return dashboard.ExportImage(req.Format)
}

func (cb *Callbacks) Table(s *dashboard.Session, req TableRequest) (TablePage, error) {
	count(CallbackTable)
	return cb.page(s, req.Table, req.Page)
}

// Filter replaces the filter and sort of one table and returns every view, since
// the other table and the graph follow it.
func (cb *Callbacks) Filter(s *dashboard.Session, req FilterRequest) (ViewResponse, error) {
	count(CallbackFilter)
	if !validTable(req.Table) {
		return ViewResponse{}, fmt.Errorf("%w: %s", ErrUnknownTable, req.Table)
	}
	s.SetFilter(req.Table, dashboard.TableState{Filter: req.Filter, Sort: req.SortBy})
	return cb.view(s), nil
}

// Reset drops every filter and sort, restoring both tables and the graph.
func (cb *Callbacks) Reset(s *dashboard.Session) ViewResponse {
	count(CallbackReset)
	s.ShowAll()
	return cb.view(s)
}

func (cb *Callbacks) view(s *dashboard.Session) ViewResponse {
	interactions, _ := cb.page(s, dashboard.TableInteractions, 0)
	acetylation, _ := cb.page(s, dashboard.TableAcetylation, 0)
	return ViewResponse{
		GraphView:    cb.graph(s),
		Interactions: interactions,
		Acetylation:  acetylation,
	}
}

func validTable(t dashboard.Table) bool {
	return t == dashboard.TableInteractions || t == dashboard.TableAcetylation
}

func (cb *Callbacks) page(s *dashboard.Session, t dashboard.Table, page int) (TablePage, error) {
	st := s.TableState(t)
	out := TablePage{
		Table:    t,
		Page:     page,
		PageSize: cb.pageSize,
		Filter:   st.Filter,
		SortBy:   st.Sort,
	}

	switch t {
	case dashboard.TableInteractions:
		rows := s.Interactions()
		out.Columns = dashboard.InteractionColumns
		out.Total = len(rows)
		out.Rows = dashboard.Records(query.Page(rows, page, cb.pageSize), dashboard.InteractionRecord)
	case dashboard.TableAcetylation:
		rows := s.Acetylation()
		out.Columns = dashboard.AcetylationColumns
		out.Total = len(rows)
		out.Rows = dashboard.Records(query.Page(rows, page, cb.pageSize), dashboard.AcetylationRecord)
	default:
		return TablePage{}, fmt.Errorf("%w: %s", ErrUnknownTable, t)
	}
	if out.SortBy == nil {
		out.SortBy = []query.SortKey{}
	}
	return out, nil
}

// Dispatch runs the callback called name with a JSON payload. It backs the
// websocket channel.
func (cb *Callbacks) Dispatch(s *dashboard.Session, name string, payload json.RawMessage) (any, error) {
	decode := func(v any) error {
		if len(payload) == 0 {
			return nil
		}
		if err := json.Unmarshal(payload, v); err != nil {
			return fmt.Errorf("invalid %s payload: %w", name, err)
		}
		return nil
	}

	switch name {
	case CallbackSession:
		return cb.Session(s), nil
	case CallbackElements:
		return cb.Elements(s), nil
	case CallbackCount:
		return map[string]int{"nodeCount": cb.Count(s)}, nil
	case CallbackToggle:
		return cb.Toggle(s), nil
	case CallbackReset:
		return cb.Reset(s), nil
	case CallbackLayout:
		var req LayoutRequest
		if err := decode(&req); err != nil {
			return nil, err
		}
		return cb.Layout(s, req)
	case CallbackNode:
		var req NodeRequest
		if err := decode(&req); err != nil {
			return nil, err
		}
		return cb.Node(s, req)
	case CallbackStyle:
		var req dashboard.StyleRequest
		if err := decode(&req); err != nil {
			return nil, err
		}
		return cb.Stylesheet(s, req), nil
	case CallbackExport:
		var req ExportRequest
		if err := decode(&req); err != nil {
			return nil, err
		}
		return cb.Export(req)
	case CallbackTable:
		var req TableRequest
		if err := decode(&req); err != nil {
			return nil, err
		}
		return cb.Table(s, req)
	case CallbackFilter:
		var req FilterRequest
		if err := decode(&req); err != nil {
			return nil, err
		}
		return cb.Filter(s, req)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownCallback, name)
}
