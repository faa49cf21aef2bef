package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/weftworks/canvasd/internal/events"
	"github.com/weftworks/canvasd/internal/model"
	"github.com/weftworks/canvasd/internal/op"
	"github.com/weftworks/canvasd/internal/store"
)

func newTestServer(t *testing.T) (*CanvasServer, *store.Memory) {
	t.Helper()
	mem := store.NewMemory()
	srv := NewCanvasServer(mem, nil, &events.NoopPublisher{}, nil)
	return srv, mem
}

func seedCanvas(t *testing.T, s store.Store, path string, doc *model.Document) {
	t.Helper()
	if err := s.Save(context.Background(), path, doc, 0); err != nil {
		t.Fatalf("seed canvas: %v", err)
	}
}

func sampleDoc(t *testing.T) *model.Document {
	t.Helper()
	doc := model.NewDocument()
	for _, n := range []model.Node{
		&model.TextNode{NodeBase: model.NodeBase{ID: "n1", X: 0, Y: 0, Width: 200, Height: 100}, Text: "hello"},
		&model.TextNode{NodeBase: model.NodeBase{ID: "n2", X: 400, Y: 0, Width: 200, Height: 100}, Text: "world"},
	} {
		if err := doc.AddNode(n); err != nil {
			t.Fatalf("add node: %v", err)
		}
	}
	if err := doc.AddEdge(&model.Edge{ID: "e1", FromNode: "n1", ToNode: "n2"}); err != nil {
		t.Fatalf("add edge: %v", err)
	}
	return doc
}

func decodeEditResponse(t *testing.T, rec *httptest.ResponseRecorder) editResponse {
	t.Helper()
	var resp editResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v\nbody: %s", err, rec.Body.String())
	}
	return resp
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.NewHTTPHandler("")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestApplyEdits(t *testing.T) {
	srv, mem := newTestServer(t)
	h := srv.NewHTTPHandler("")

	body := `Let me set up the canvas.
<canvas_edit path="plans/roadmap.canvas" summary="initial layout">
<add_node id="a" type="text" x="10" y="20">First step</add_node>
<add_node id="b" type="text" x="300" y="20">Second step</add_node>
<add_edge from="a" to="b" label="then"/>
</canvas_edit>
Done.`

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/edits", strings.NewReader(body)))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200\nbody: %s", rec.Code, rec.Body.String())
	}
	resp := decodeEditResponse(t, rec)
	if resp.Path != "plans/roadmap.canvas" {
		t.Errorf("path = %q, want plans/roadmap.canvas", resp.Path)
	}
	if resp.Summary != "initial layout" {
		t.Errorf("summary = %q, want %q", resp.Summary, "initial layout")
	}
	if !resp.Result.AllSuccess {
		t.Fatalf("expected all operations to succeed: %+v", resp.Result)
	}
	if len(resp.Result.Results) != 3 {
		t.Fatalf("got %d results, want 3", len(resp.Result.Results))
	}

	doc, _, err := mem.Load(context.Background(), "plans/roadmap.canvas")
	if err != nil {
		t.Fatalf("load persisted canvas: %v", err)
	}
	if len(doc.Nodes) != 2 || len(doc.Edges) != 1 {
		t.Errorf("persisted %d nodes, %d edges; want 2, 1", len(doc.Nodes), len(doc.Edges))
	}
}

func TestApplyEdits_PathFromQuery(t *testing.T) {
	srv, mem := newTestServer(t)
	h := srv.NewHTTPHandler("")

	body := `<canvas_edit><add_node id="a" type="text">hi</add_node></canvas_edit>`
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/edits?path=scratch.canvas", strings.NewReader(body)))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200\nbody: %s", rec.Code, rec.Body.String())
	}
	ok, err := mem.Exists(context.Background(), "scratch.canvas")
	if err != nil || !ok {
		t.Fatalf("canvas not persisted (ok=%v, err=%v)", ok, err)
	}
}

func TestApplyEdits_NoPath(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.NewHTTPHandler("")

	body := `<canvas_edit><add_node id="a" type="text">hi</add_node></canvas_edit>`
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/edits", strings.NewReader(body)))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestApplyEdits_NoInstructions(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.NewHTTPHandler("")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/edits", strings.NewReader("just prose, no tags")))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	resp := decodeEditResponse(t, rec)
	if len(resp.Result.Results) != 0 {
		t.Errorf("got %d results, want 0", len(resp.Result.Results))
	}
}

func TestApplyEdits_DroppedSurfaced(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.NewHTTPHandler("")

	// The second add_node is missing its id and must be reported, not applied.
	body := `<canvas_edit path="x.canvas">
<add_node id="a" type="text">ok</add_node>
<add_node type="text">no id</add_node>
</canvas_edit>`
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/edits", strings.NewReader(body)))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200\nbody: %s", rec.Code, rec.Body.String())
	}
	resp := decodeEditResponse(t, rec)
	if len(resp.Dropped) != 1 {
		t.Fatalf("got %d dropped, want 1: %+v", len(resp.Dropped), resp.Dropped)
	}
	if len(resp.Result.Results) != 1 {
		t.Errorf("got %d results, want 1", len(resp.Result.Results))
	}
}

func TestApplyOperations(t *testing.T) {
	srv, mem := newTestServer(t)
	h := srv.NewHTTPHandler("")
	seedCanvas(t, mem, "board.canvas", sampleDoc(t))

	reqBody := `{
		"path": "board.canvas",
		"operations": [
			{"op": "update_node", "id": "n1", "x": 50},
			{"op": "delete_node", "id": "n2"}
		]
	}`
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/operations", strings.NewReader(reqBody)))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200\nbody: %s", rec.Code, rec.Body.String())
	}
	resp := decodeEditResponse(t, rec)
	if !resp.Result.AllSuccess {
		t.Fatalf("expected success: %+v", resp.Result)
	}
	// Deleting n2 cascades to e1.
	if got := resp.Result.Results[1].AffectedIDs; len(got) != 2 {
		t.Errorf("delete affected %v, want [n2 e1]", got)
	}

	doc, _, err := mem.Load(context.Background(), "board.canvas")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	n, ok := doc.Node("n1")
	if !ok || n.Base().X != 50 {
		t.Errorf("n1 not updated: %+v", n)
	}
	if len(doc.Edges) != 0 {
		t.Errorf("expected edge cascade, edges = %d", len(doc.Edges))
	}
}

func TestApplyOperations_BadRequest(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.NewHTTPHandler("")

	for _, tc := range []struct {
		name string
		body string
	}{
		{"InvalidJSON", `{`},
		{"MissingPath", `{"operations": [{"op": "delete_node", "id": "x"}]}`},
		{"MissingOperations", `{"path": "a.canvas"}`},
		{"UnknownOp", `{"path": "a.canvas", "operations": [{"op": "explode"}]}`},
	} {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/operations", strings.NewReader(tc.body)))
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func TestApplyOperations_PartialFailure(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.NewHTTPHandler("")

	reqBody := `{
		"path": "fresh.canvas",
		"operations": [
			{"op": "add_node", "id": "a", "type": "text", "text": "ok"},
			{"op": "delete_node", "id": "ghost"}
		]
	}`
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/operations", strings.NewReader(reqBody)))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200\nbody: %s", rec.Code, rec.Body.String())
	}
	resp := decodeEditResponse(t, rec)
	if resp.Result.AllSuccess {
		t.Fatal("expected partial failure")
	}
	if !resp.Result.Results[0].Success {
		t.Error("first operation should have succeeded")
	}
	if resp.Result.Results[1].Err == nil || resp.Result.Results[1].Err.Code != op.CodeNotFound {
		t.Errorf("second result = %+v, want not_found", resp.Result.Results[1])
	}
}

func TestGetCanvas(t *testing.T) {
	srv, mem := newTestServer(t)
	h := srv.NewHTTPHandler("")
	seedCanvas(t, mem, "board.canvas", sampleDoc(t))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/canvases?path=board.canvas", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var doc model.Document
	if err := json.Unmarshal(rec.Body.Bytes(), &doc); err != nil {
		t.Fatalf("decode document: %v", err)
	}
	if len(doc.Nodes) != 2 || len(doc.Edges) != 1 {
		t.Errorf("got %d nodes, %d edges; want 2, 1", len(doc.Nodes), len(doc.Edges))
	}
}

func TestGetCanvas_NotFound(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.NewHTTPHandler("")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/canvases?path=missing.canvas", nil))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestListCanvases(t *testing.T) {
	srv, mem := newTestServer(t)
	h := srv.NewHTTPHandler("")
	seedCanvas(t, mem, "a.canvas", model.NewDocument())
	seedCanvas(t, mem, "b.canvas", model.NewDocument())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/canvases", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var out struct {
		Paths []string `json:"paths"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out.Paths) != 2 {
		t.Errorf("got %d paths, want 2: %v", len(out.Paths), out.Paths)
	}
}

func TestPutCanvas(t *testing.T) {
	srv, mem := newTestServer(t)
	h := srv.NewHTTPHandler("")

	body, err := json.Marshal(sampleDoc(t))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/v1/canvases?path=new.canvas", bytes.NewReader(body)))

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201\nbody: %s", rec.Code, rec.Body.String())
	}
	ok, err := mem.Exists(context.Background(), "new.canvas")
	if err != nil || !ok {
		t.Fatalf("canvas not persisted (ok=%v, err=%v)", ok, err)
	}

	// Replacing an existing canvas returns 200.
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/v1/canvases?path=new.canvas", bytes.NewReader(body)))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestPutCanvas_Invalid(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.NewHTTPHandler("")

	// Edge references a node that is not in the document.
	body := `{"nodes":[{"id":"a","type":"text","text":"hi","x":0,"y":0,"width":200,"height":100}],
		"edges":[{"id":"e1","fromNode":"a","toNode":"ghost"}]}`
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/v1/canvases?path=bad.canvas", strings.NewReader(body)))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400\nbody: %s", rec.Code, rec.Body.String())
	}
}

func TestGetTranscript(t *testing.T) {
	srv, mem := newTestServer(t)
	h := srv.NewHTTPHandler("")

	doc := model.NewDocument()
	if err := doc.AddNode(&model.GroupNode{NodeBase: model.NodeBase{ID: "g", X: 0, Y: 0, Width: 500, Height: 300}, Label: "Plan"}); err != nil {
		t.Fatal(err)
	}
	if err := doc.AddNode(&model.TextNode{NodeBase: model.NodeBase{ID: "t", X: 100, Y: 100, Width: 100, Height: 50}, Text: "inside"}); err != nil {
		t.Fatal(err)
	}
	seedCanvas(t, mem, "plan.canvas", doc)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/transcript?path=plan.canvas", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200\nbody: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("content type = %q, want text/plain", ct)
	}
	text := rec.Body.String()
	if !strings.Contains(text, "inside") {
		t.Errorf("transcript missing node text:\n%s", text)
	}
	// The text node's center is inside the group, so the derived containment
	// edge must appear.
	if !strings.Contains(text, `g -> t "contains"`) {
		t.Errorf("transcript missing containment edge:\n%s", text)
	}
}

func TestAuthMiddleware(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.NewHTTPHandler("secret")

	// Health is exempt.
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("health status = %d, want 200", rec.Code)
	}

	// No token.
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/canvases", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}

	// Wrong token.
	req := httptest.NewRequest(http.MethodGet, "/v1/canvases", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}

	// Correct token.
	req = httptest.NewRequest(http.MethodGet, "/v1/canvases", nil)
	req.Header.Set("Authorization", "Bearer secret")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}
