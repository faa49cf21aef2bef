package server

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/weftworks/canvasd/internal/op"
	"github.com/weftworks/canvasd/internal/stream"
)

// maxEditBody caps the accepted request body for edit streams.
const maxEditBody = 4 << 20

// editResponse is the body returned by the edits and operations endpoints.
type editResponse struct {
	Path    string          `json:"path"`
	Summary string          `json:"summary,omitempty"`
	Dropped []droppedTag    `json:"dropped,omitempty"`
	Result  *op.BatchResult `json:"result"`
	Error   string          `json:"error,omitempty"`
}

type droppedTag struct {
	Tag    string `json:"tag"`
	Reason string `json:"reason"`
}

// handleApplyEdits handles POST /v1/edits. The body is raw model output;
// every complete instruction tag in it is extracted and applied to the canvas
// named by the <canvas_edit path="..."> wrapper, or by the ?path= query
// parameter when the wrapper carries no path.
func (s *CanvasServer) handleApplyEdits(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxEditBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return
	}

	x := stream.NewExtractor(s.log)
	ops := x.Feed(string(body))

	path := x.Path()
	if path == "" {
		path = r.URL.Query().Get("path")
	}

	resp := editResponse{
		Path:    path,
		Summary: x.Summary(),
		Result:  &op.BatchResult{Results: []op.Result{}, AllSuccess: true},
	}
	for _, d := range x.Dropped() {
		resp.Dropped = append(resp.Dropped, droppedTag{Tag: d.Tag, Reason: d.Reason})
	}

	if len(ops) == 0 {
		writeJSON(w, http.StatusOK, resp)
		return
	}
	if path == "" {
		writeError(w, http.StatusBadRequest, "no destination path: the canvas_edit tag carries none and ?path= is unset")
		return
	}

	s.applyAndRespond(w, r, path, x.Summary(), ops, resp)
}

// operationsRequest is the body accepted by POST /v1/operations.
type operationsRequest struct {
	Path       string          `json:"path"`
	Operations json.RawMessage `json:"operations"`
}

// handleApplyOperations handles POST /v1/operations: an explicit operation
// batch, bypassing the tag extractor.
func (s *CanvasServer) handleApplyOperations(w http.ResponseWriter, r *http.Request) {
	var req operationsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Path == "" {
		writeError(w, http.StatusBadRequest, "path is required")
		return
	}
	if len(req.Operations) == 0 {
		writeError(w, http.StatusBadRequest, "operations is required")
		return
	}

	ops, err := op.DecodeList(req.Operations)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp := editResponse{
		Path:   req.Path,
		Result: &op.BatchResult{Results: []op.Result{}, AllSuccess: true},
	}
	s.applyAndRespond(w, r, req.Path, "", ops, resp)
}

// applyAndRespond runs the batch, publishes events for persisted changes, and
// writes the response. A failed save keeps the downgraded per-operation
// results in the body alongside the error.
func (s *CanvasServer) applyAndRespond(w http.ResponseWriter, r *http.Request, path, summary string, ops []op.Operation, resp editResponse) {
	ctx := r.Context()
	br, err := s.executor.ApplyBatch(ctx, path, ops)
	if br != nil {
		resp.Result = br
	}
	if err != nil {
		resp.Error = err.Error()
		writeJSON(w, http.StatusInternalServerError, resp)
		return
	}

	s.publishBatch(ctx, path, summary, ops, br)
	writeJSON(w, http.StatusOK, resp)
}
