package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paces/backend/internal/dashboard"
	"github.com/paces/backend/internal/storage/models"
)

var p = models.StringPtr

func testStore() *dashboard.SessionStore {
	src := dashboard.Sources{
		Edges: []models.InteractionEdge{
			{Node1: "Acad10", Node2: "acsA1", Node1StringID: "287.DR97_5620", Node2StringID: "287.DR97_1056",
				CombinedScore: 0.9, Interaction: "binding", Node1UniProt: p("Q1"), Node2UniProt: p("Q2"), Node1Kegg: p("PA1")},
			{Node1: "Acad10", Node2: "DR97_149", Node1StringID: "287.DR97_5620", Node2StringID: "287.DR97_149",
				CombinedScore: 0.8114, Interaction: "binding, reaction", Node1UniProt: p("Q1"), Node2UniProt: p("Q3")},
			{Node1: "ycgB", Node2: "ygaU", Node1StringID: "287.DR97_3555", Node2StringID: "287.DR97_2546",
				CombinedScore: 0.75, Interaction: models.UnknownMode},
		},
		Acetylation: []models.AcetylationPathway{
			{ProteinSummary: models.ProteinSummary{UniProtID: "Q1", GeneName: "acad10", NumAcSites: 2, ProtLogFC: "positive"},
				KeggID: p("PA1"), KeggPathways: p("pae00010:glycolysis")},
			{ProteinSummary: models.ProteinSummary{UniProtID: "Q2", GeneName: "acsA", NumAcSites: 1, ProtLogFC: "negative"}},
		},
		Annotations: []models.ProteinAnnotation{
			{Node: "Acad10", Identifier: "287.DR97_5620", Annotation: "Acyl-CoA dehydrogenase"},
			{Node: "acsA1", Identifier: "287.DR97_1056", Annotation: "Acetyl-CoA synthetase"},
			{Node: "DR97_149", Identifier: "287.DR97_149", Annotation: models.NoAnnotation},
		},
		Pathways: []models.PathwayAnnotation{
			{UniProtID: "Q1", KeggID: "PA1", KeggPathways: "pae00010:glycolysis"},
		},
	}
	return dashboard.NewSessionStore(dashboard.NewDataset(src, 0.7), dashboard.DefaultPalette(), time.Hour)
}

func newTestApp(store *dashboard.SessionStore) *fiber.App {
	callbacks := NewCallbacks(2)
	page := NewPageHandler(dashboard.DefaultPalette(), 2)
	graph := NewGraphHandler(store, callbacks)
	tables := NewTableHandler(store, callbacks)

	app := fiber.New()
	app.Get("/", page.Render(TabNetwork))
	app.Get("/acetylation_table", page.Render(TabAcetylation))

	api := app.Group("/api/v1")
	api.Get("/session", graph.Session)
	api.Post("/graph/layout", graph.SetLayout)
	api.Get("/graph/elements", graph.Elements)
	api.Get("/graph/count", graph.Count)
	api.Post("/graph/toggle-annotated", graph.ToggleAnnotated)
	api.Get("/graph/node/:id", graph.Node)
	api.Post("/graph/stylesheet", graph.Stylesheet)
	api.Post("/graph/export", graph.Export)
	api.Post("/tables/reset", tables.Reset)
	api.Get("/tables/:table", tables.Get)
	api.Post("/tables/:table", tables.Filter)
	return app
}

// Elements marshal as a flat array, so response bodies are decoded into these
// instead of the response types.
type snapshotBody struct {
	SessionID string                    `json:"sessionId"`
	Layout    dashboard.LayoutDirective `json:"layout"`
	NodeCount int                       `json:"nodeCount"`
}

type viewBody struct {
	NodeCount    int       `json:"nodeCount"`
	Interactions TablePage `json:"interactions"`
	Acetylation  TablePage `json:"acetylation"`
}

type client struct {
	t       *testing.T
	app     *fiber.App
	session string
}

func (c *client) do(method, path, body string, out any) int {
	c.t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	if c.session != "" {
		req.Header.Set(SessionHeader, c.session)
	}

	resp, err := c.app.Test(req)
	require.NoError(c.t, err)
	defer resp.Body.Close()

	if id := resp.Header.Get(SessionHeader); id != "" {
		c.session = id
	}
	if out != nil {
		require.NoError(c.t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestSessionIsCreatedAndReused(t *testing.T) {
	store := testStore()
	c := &client{t: t, app: newTestApp(store)}

	var snap snapshotBody
	require.Equal(t, http.StatusOK, c.do("GET", "/api/v1/session", "", &snap))
	assert.NotEmpty(t, c.session)
	assert.Equal(t, c.session, snap.SessionID)
	assert.Equal(t, "grid", snap.Layout.Name)
	assert.Equal(t, 5, snap.NodeCount)

	c.do("GET", "/api/v1/graph/count", "", nil)
	assert.Equal(t, 1, store.Len())
}

func TestSessionCookie(t *testing.T) {
	store := testStore()
	app := newTestApp(store)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/session", nil))
	require.NoError(t, err)
	var cookie *http.Cookie
	for _, ck := range resp.Cookies() {
		if ck.Name == SessionCookie {
			cookie = ck
		}
	}
	require.NotNil(t, cookie)

	req := httptest.NewRequest("GET", "/api/v1/graph/count", nil)
	req.AddCookie(cookie)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, cookie.Value, resp.Header.Get(SessionHeader))
	assert.Equal(t, 1, store.Len())
}

func TestToggleAnnotated(t *testing.T) {
	c := &client{t: t, app: newTestApp(testStore())}

	var res struct {
		Label     string           `json:"label"`
		NodeCount int              `json:"nodeCount"`
		Elements  []map[string]any `json:"elements"`
	}
	require.Equal(t, http.StatusOK, c.do("POST", "/api/v1/graph/toggle-annotated", "", &res))
	assert.Equal(t, "Show all proteins", res.Label)
	assert.Equal(t, 2, res.NodeCount)
	assert.Len(t, res.Elements, 3, "one edge and the two annotated nodes")

	require.Equal(t, http.StatusOK, c.do("POST", "/api/v1/graph/toggle-annotated", "", &res))
	assert.Equal(t, "Show only annotated proteins", res.Label)
	assert.Equal(t, 5, res.NodeCount)
}

func TestLayoutAndExport(t *testing.T) {
	c := &client{t: t, app: newTestApp(testStore())}

	var layout dashboard.LayoutDirective
	require.Equal(t, http.StatusOK, c.do("POST", "/api/v1/graph/layout", `{"layout":"circle"}`, &layout))
	assert.Equal(t, "circle", layout.Name)

	var snap snapshotBody
	c.do("GET", "/api/v1/session", "", &snap)
	assert.Equal(t, "circle", snap.Layout.Name)

	assert.Equal(t, http.StatusBadRequest, c.do("POST", "/api/v1/graph/layout", `{"layout":"spiral"}`, nil))

	var image dashboard.ImageDirective
	require.Equal(t, http.StatusOK, c.do("POST", "/api/v1/graph/export", `{"format":"svg"}`, &image))
	assert.Equal(t, dashboard.ImageDirective{Type: "svg", Action: "download"}, image)
	assert.Equal(t, http.StatusBadRequest, c.do("POST", "/api/v1/graph/export", `{"format":"gif"}`, nil))
}

func TestNodeDetails(t *testing.T) {
	c := &client{t: t, app: newTestApp(testStore())}

	var details dashboard.NodeDetails
	require.Equal(t, http.StatusOK, c.do("GET", "/api/v1/graph/node/Acad10", "", &details))
	assert.Equal(t, "Acad10", details.Name)
	assert.Equal(t, "Q1", details.UniProtID)
	assert.Equal(t, "Acyl-CoA dehydrogenase", details.Annotation)

	require.Equal(t, http.StatusOK, c.do("GET", "/api/v1/graph/node/ycgB", "", &details))
	assert.Equal(t, "None", details.UniProtID)

	assert.Equal(t, http.StatusNotFound, c.do("GET", "/api/v1/graph/node/nope", "", nil))
}

func TestStylesheet(t *testing.T) {
	c := &client{t: t, app: newTestApp(testStore())}

	var res struct {
		Stylesheet []dashboard.Rule `json:"stylesheet"`
	}
	require.Equal(t, http.StatusOK, c.do("POST", "/api/v1/graph/stylesheet", `{"action":"label","label":"Uniprot"}`, &res))
	require.NotEmpty(t, res.Stylesheet)
	assert.Equal(t, "data(UniprotID)", res.Stylesheet[0].Style["label"])

	require.Equal(t, http.StatusOK, c.do("POST", "/api/v1/graph/stylesheet", `{"action":"search","search":"ycgB"}`, &res))
	assert.Equal(t, `node[id = "ycgB"]`, res.Stylesheet[len(res.Stylesheet)-1].Selector)
}

func TestTablesFilterAndReset(t *testing.T) {
	c := &client{t: t, app: newTestApp(testStore())}

	var page TablePage
	require.Equal(t, http.StatusOK, c.do("GET", "/api/v1/tables/interactions", "", &page))
	assert.Equal(t, 3, page.Total)
	assert.Len(t, page.Rows, 2, "page size is 2")
	assert.Equal(t, 0.811, page.Rows[1]["combined_score"])

	require.Equal(t, http.StatusOK, c.do("GET", "/api/v1/tables/interactions?page=1", "", &page))
	assert.Len(t, page.Rows, 1)

	var view viewBody
	require.Equal(t, http.StatusOK, c.do("POST", "/api/v1/tables/interactions",
		`{"filter":"{interaction} contains reaction","sortBy":[{"column_id":"node2","direction":"desc"}]}`, &view))
	assert.Equal(t, 1, view.Interactions.Total)
	assert.Equal(t, "{interaction} contains reaction", view.Interactions.Filter)
	assert.Equal(t, 1, view.Acetylation.Total, "only Q1 of the acetylation table touches the edge")
	assert.Equal(t, 2, view.NodeCount)

	require.Equal(t, http.StatusOK, c.do("POST", "/api/v1/tables/acetylation", `{"filter":"{numAcSites} = many"}`, &view))
	assert.Equal(t, 0, view.Acetylation.Total)
	assert.Equal(t, 0, view.Interactions.Total)
	assert.Equal(t, 0, view.NodeCount)

	require.Equal(t, http.StatusOK, c.do("POST", "/api/v1/tables/reset", "", &view))
	assert.Equal(t, 3, view.Interactions.Total)
	assert.Equal(t, 2, view.Acetylation.Total)
	assert.Empty(t, view.Interactions.Filter)
	assert.Empty(t, view.Interactions.SortBy)
	assert.Equal(t, 5, view.NodeCount)

	assert.Equal(t, http.StatusNotFound, c.do("GET", "/api/v1/tables/peptides", "", nil))
	assert.Equal(t, http.StatusNotFound, c.do("POST", "/api/v1/tables/peptides", `{"filter":""}`, nil))
}

func TestMalformedFilterMatchesNothing(t *testing.T) {
	c := &client{t: t, app: newTestApp(testStore())}

	var view viewBody
	require.Equal(t, http.StatusOK, c.do("POST", "/api/v1/tables/interactions",
		`{"filter":"<img src=x onerror=alert(1)>"}`, &view))
	assert.Equal(t, 0, view.Interactions.Total)
	assert.Empty(t, view.Interactions.Rows)
	assert.Equal(t, "<img src=x onerror=alert(1)>", view.Interactions.Filter)
	assert.Equal(t, 0, view.NodeCount)
}

func TestSessionsAreIndependent(t *testing.T) {
	app := newTestApp(testStore())
	a := &client{t: t, app: app}
	b := &client{t: t, app: app}

	var view viewBody
	a.do("POST", "/api/v1/tables/interactions", `{"filter":"{node1} = ycgB"}`, &view)
	require.Equal(t, 1, view.Interactions.Total)

	var page TablePage
	b.do("GET", "/api/v1/tables/interactions", "", &page)
	assert.Equal(t, 3, page.Total)
	assert.NotEqual(t, a.session, b.session)
}

func TestPage(t *testing.T) {
	app := newTestApp(testStore())

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, 1, doc.Find("#cytoscape").Length())
	assert.Equal(t, "cytoscape", doc.Find("body").AttrOr("data-tab", ""))

	var layouts []string
	doc.Find("#layout-select option").Each(func(_ int, s *goquery.Selection) {
		layouts = append(layouts, s.AttrOr("value", ""))
	})
	assert.Equal(t, dashboard.Layouts, layouts)
	assert.Equal(t, "grid", doc.Find("#layout-select option[selected]").AttrOr("value", ""))

	assert.Equal(t, 4, doc.Find("#label-select option").Length())
	assert.Equal(t, "KEGG ID", doc.Find("#label-select option").Last().AttrOr("value", ""))
	assert.Equal(t, 3, doc.Find("#export-buttons button").Length())

	var columns []string
	doc.Find("#interactions-table th").Each(func(_ int, s *goquery.Selection) {
		columns = append(columns, s.AttrOr("data-column", ""))
	})
	assert.Equal(t, dashboard.InteractionColumns, columns)
	assert.Equal(t, len(dashboard.AcetylationColumns), doc.Find("#acetylation-table th").Length())
	assert.Equal(t, 1, doc.Find("script[src*='cytoscape@']").Length())
}

func TestPageTab(t *testing.T) {
	resp, err := newTestApp(testStore()).Test(httptest.NewRequest("GET", "/acetylation_table", nil))
	require.NoError(t, err)

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "acetylation_table", doc.Find("body").AttrOr("data-tab", ""))
	assert.Equal(t, "Acetylation", doc.Find("nav a.active").Text())
}

func TestDispatch(t *testing.T) {
	store := testStore()
	cb := NewCallbacks(10)
	s := store.Create()

	res, err := cb.Dispatch(s, CallbackLayout, json.RawMessage(`{"layout":"dagre"}`))
	require.NoError(t, err)
	assert.Equal(t, dashboard.LayoutDirective{Name: "dagre"}, res)

	res, err = cb.Dispatch(s, CallbackCount, nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"nodeCount": 5}, res)

	res, err = cb.Dispatch(s, CallbackFilter, json.RawMessage(`{"table":"acetylation","filter":"{uniprotID} = Q2"}`))
	require.NoError(t, err)
	view := res.(ViewResponse)
	assert.Equal(t, 1, view.Acetylation.Total)
	assert.Equal(t, 1, view.Interactions.Total)

	_, err = cb.Dispatch(s, CallbackNode, json.RawMessage(`{"id":"nope"}`))
	assert.ErrorIs(t, err, ErrNodeNotFound)

	_, err = cb.Dispatch(s, CallbackLayout, json.RawMessage(`{"layout":`))
	assert.Error(t, err)

	_, err = cb.Dispatch(s, "rotate", nil)
	assert.ErrorIs(t, err, ErrUnknownCallback)
}
