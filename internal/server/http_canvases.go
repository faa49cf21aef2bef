package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/weftworks/canvasd/internal/enrich"
	"github.com/weftworks/canvasd/internal/events"
	"github.com/weftworks/canvasd/internal/model"
	"github.com/weftworks/canvasd/internal/store"
)

// handleGetCanvas handles GET /v1/canvases. With ?path= it returns the stored
// document; without it, the list of known canvas paths.
func (s *CanvasServer) handleGetCanvas(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		paths, err := s.store.ListPaths(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to list canvases")
			return
		}
		if paths == nil {
			paths = []string{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"paths": paths})
		return
	}

	doc, _, err := s.store.Load(r.Context(), path)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "canvas not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load canvas")
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// handlePutCanvas handles PUT /v1/canvases?path=: a whole-document replace.
func (s *CanvasServer) handlePutCanvas(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		writeError(w, http.StatusBadRequest, "path is required")
		return
	}

	var doc model.Document
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid canvas document: %v", err))
		return
	}
	if err := model.ValidateDocument(&doc); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx := r.Context()
	_, rev, err := s.store.Load(ctx, path)
	created := errors.Is(err, store.ErrNotFound)
	if created {
		rev = 0
	} else if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load canvas")
		return
	}

	if err := s.store.Save(ctx, path, &doc, rev); err != nil {
		if errors.Is(err, store.ErrRevisionConflict) {
			writeError(w, http.StatusConflict, "canvas was modified concurrently")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to save canvas")
		return
	}

	s.publish(ctx, events.TopicCanvasSaved, events.CanvasSaved{Path: path, Applied: 0, Failed: 0})

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, map[string]string{"status": "ok"})
}

// handleGetTranscript handles GET /v1/transcript?path=: the deterministic
// textual rendering of a canvas, with file content inlined and containment
// edges derived from group geometry.
func (s *CanvasServer) handleGetTranscript(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		writeError(w, http.StatusBadRequest, "path is required")
		return
	}

	ctx := r.Context()
	doc, _, err := s.store.Load(ctx, path)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "canvas not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load canvas")
		return
	}

	canvas, err := enrich.Enrich(ctx, doc, s.reader, s.log)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to build transcript")
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(enrich.Flatten(canvas)))
}
