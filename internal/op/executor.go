package op

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/weftworks/canvasd/internal/model"
	"github.com/weftworks/canvasd/internal/store"
)

// Result is the outcome of applying one operation.
type Result struct {
	Success     bool     `json:"success"`
	Err         *Error   `json:"error,omitempty"`
	AffectedIDs []string `json:"affected_ids,omitempty"`
}

// BatchResult is the outcome of applying a sequence of operations against one
// document. Application is best effort: a failing operation does not undo
// earlier successes.
type BatchResult struct {
	Results    []Result `json:"results"`
	AllSuccess bool     `json:"all_success"`
}

// pathLocks hands out one mutex per destination path so that
// read-modify-write cycles on the same canvas never interleave.
type pathLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func (p *pathLocks) lock(path string) func() {
	p.mu.Lock()
	l, ok := p.locks[path]
	if !ok {
		l = &sync.Mutex{}
		p.locks[path] = l
	}
	p.mu.Unlock()
	l.Lock()
	return l.Unlock
}

// Executor applies operations to canvas documents.
type Executor struct {
	store store.Store
	log   *slog.Logger
	locks pathLocks
}

// NewExecutor returns an executor backed by the given store. A nil logger
// falls back to slog.Default().
func NewExecutor(s store.Store, log *slog.Logger) *Executor {
	if log == nil {
		log = slog.Default()
	}
	return &Executor{
		store: s,
		log:   log,
		locks: pathLocks{locks: make(map[string]*sync.Mutex)},
	}
}

// Apply applies a single operation to the document in place and reports the
// outcome. The document is mutated only on success.
func (e *Executor) Apply(doc *model.Document, o Operation) Result {
	switch v := o.(type) {
	case AddNode:
		return e.applyAddNode(doc, v)
	case UpdateNode:
		return e.applyUpdateNode(doc, v)
	case DeleteNode:
		return e.applyDeleteNode(doc, v)
	case AddEdge:
		return e.applyAddEdge(doc, v)
	case DeleteEdge:
		return e.applyDeleteEdge(doc, v)
	}
	return Result{Err: errf(CodeUnknownKind, "unsupported operation %T", o)}
}

func (e *Executor) applyAddNode(doc *model.Document, v AddNode) Result {
	id := v.Node.Base().ID
	switch n := v.Node.(type) {
	case *model.FileNode:
		if n.File == "" {
			return Result{Err: errf(CodeMissingField, "file node %q requires a file path", id)}
		}
	case *model.LinkNode:
		if n.URL == "" {
			return Result{Err: errf(CodeMissingField, "link node %q requires a url", id)}
		}
	}
	if err := doc.AddNode(v.Node); err != nil {
		return Result{Err: errf(CodeDuplicateID, "node %q already exists", id)}
	}
	return Result{Success: true, AffectedIDs: []string{id}}
}

func (e *Executor) applyUpdateNode(doc *model.Document, v UpdateNode) Result {
	n, ok := doc.Node(v.ID)
	if !ok {
		return Result{Err: errf(CodeNotFound, "node %q does not exist", v.ID)}
	}
	b := n.Base()
	if v.X != nil {
		b.X = *v.X
	}
	if v.Y != nil {
		b.Y = *v.Y
	}
	if v.Width != nil {
		b.Width = *v.Width
	}
	if v.Height != nil {
		b.Height = *v.Height
	}
	if v.Color != nil {
		b.Color = *v.Color
	}
	if v.Content != nil {
		if tn, ok := n.(*model.TextNode); ok {
			tn.Text = *v.Content
		}
	}
	if v.Label != nil {
		if gn, ok := n.(*model.GroupNode); ok {
			gn.Label = *v.Label
		}
	}
	return Result{Success: true, AffectedIDs: []string{v.ID}}
}

func (e *Executor) applyDeleteNode(doc *model.Document, v DeleteNode) Result {
	removed, err := doc.RemoveNode(v.ID)
	if err != nil {
		return Result{Err: errf(CodeNotFound, "node %q does not exist", v.ID)}
	}
	return Result{Success: true, AffectedIDs: append([]string{v.ID}, removed...)}
}

func (e *Executor) applyAddEdge(doc *model.Document, v AddEdge) Result {
	edge := v.Edge
	if edge.FromSide == "" {
		edge.FromSide = model.SideRight
	}
	if edge.ToSide == "" {
		edge.ToSide = model.SideLeft
	}
	if err := doc.AddEdge(&edge); err != nil {
		switch {
		case errors.Is(err, model.ErrEndpointNotFound):
			return Result{Err: errf(CodeEndpointNotFound,
				"edge %q references missing endpoint (%s -> %s)", edge.ID, edge.FromNode, edge.ToNode)}
		default:
			return Result{Err: errf(CodeDuplicateID, "edge %q already exists", edge.ID)}
		}
	}
	return Result{Success: true, AffectedIDs: []string{edge.ID}}
}

func (e *Executor) applyDeleteEdge(doc *model.Document, v DeleteEdge) Result {
	if err := doc.RemoveEdge(v.ID); err != nil {
		return Result{Err: errf(CodeNotFound, "edge %q does not exist", v.ID)}
	}
	return Result{Success: true, AffectedIDs: []string{v.ID}}
}

// ApplyBatch loads the canvas at path, applies the operations strictly in
// sequence, and persists the document once afterwards if at least one
// operation succeeded. A missing canvas starts empty, so an edit stream can
// create a new canvas.
//
// The batch is best effort: earlier successes are not rolled back when a
// later operation fails. If the final save fails, every success in the result
// list is downgraded to a write failure and the in-memory document must be
// discarded by the caller; the save error is also returned alongside the
// batch result.
//
// ApplyBatch serializes per destination path, so two batches against the same
// canvas never interleave their read-modify-write cycles.
func (e *Executor) ApplyBatch(ctx context.Context, path string, ops []Operation) (*BatchResult, error) {
	unlock := e.locks.lock(path)
	defer unlock()

	doc, rev, err := e.store.Load(ctx, path)
	if errors.Is(err, store.ErrNotFound) {
		doc, rev = model.NewDocument(), 0
	} else if err != nil {
		return nil, fmt.Errorf("load canvas %q: %w", path, err)
	}

	br := &BatchResult{Results: make([]Result, 0, len(ops)), AllSuccess: true}
	anySuccess := false
	for _, o := range ops {
		res := e.Apply(doc, o)
		if res.Success {
			anySuccess = true
		} else {
			br.AllSuccess = false
			e.log.Debug("operation failed", "path", path, "op", describe(o), "code", res.Err.Code, "err", res.Err.Message)
		}
		br.Results = append(br.Results, res)
	}

	if !anySuccess {
		return br, nil
	}

	if err := e.store.Save(ctx, path, doc, rev); err != nil {
		// The in-memory mutations were never durably saved; mark every
		// previously-reported success as failed.
		for i := range br.Results {
			if br.Results[i].Success {
				br.Results[i] = Result{Err: errf(CodeWriteFailed, "canvas %q was not saved: %v", path, err)}
			}
		}
		br.AllSuccess = false
		return br, fmt.Errorf("save canvas %q: %w", path, err)
	}
	return br, nil
}
