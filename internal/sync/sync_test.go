package sync

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/weftworks/canvasd/internal/model"
	"github.com/weftworks/canvasd/internal/store"
)

// mockDestination records calls to Write.
type mockDestination struct {
	writes atomic.Int64
	last   atomic.Value // []byte
}

func (d *mockDestination) Write(_ context.Context, data []byte) error {
	d.writes.Add(1)
	cp := make([]byte, len(data))
	copy(cp, data)
	d.last.Store(cp)
	return nil
}

func nonEmptyLines(s string) []string {
	var lines []string
	for _, l := range strings.Split(s, "\n") {
		if strings.TrimSpace(l) != "" {
			lines = append(lines, l)
		}
	}
	return lines
}

func seededStore(t *testing.T) *store.Memory {
	t.Helper()
	mem := store.NewMemory()
	doc := model.NewDocument()
	if err := doc.AddNode(&model.TextNode{
		NodeBase: model.NodeBase{ID: "n1", Width: 200, Height: 100},
		Text:     "backed up",
	}); err != nil {
		t.Fatal(err)
	}
	if err := mem.Save(context.Background(), "a.canvas", doc, 0); err != nil {
		t.Fatal(err)
	}
	if err := mem.Save(context.Background(), "b.canvas", model.NewDocument(), 0); err != nil {
		t.Fatal(err)
	}
	return mem
}

func TestExportJSONL(t *testing.T) {
	mem := seededStore(t)

	var buf bytes.Buffer
	if err := ExportJSONL(context.Background(), mem, &buf); err != nil {
		t.Fatalf("ExportJSONL: %v", err)
	}

	lines := nonEmptyLines(buf.String())
	// 1 header + 2 canvases.
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d:\n%s", len(lines), buf.String())
	}

	var h header
	if err := json.Unmarshal([]byte(lines[0]), &h); err != nil {
		t.Fatalf("decode header: %v", err)
	}
	if h.Type != "header" || h.CanvasCount != 2 {
		t.Errorf("header = %+v", h)
	}

	var rec canvasRecord
	if err := json.Unmarshal([]byte(lines[1]), &rec); err != nil {
		t.Fatalf("decode record: %v", err)
	}
	if rec.Type != "canvas" || rec.Path != "a.canvas" || rec.Revision != 1 {
		t.Errorf("record = %+v", rec)
	}
	if len(rec.Doc.Nodes) != 1 {
		t.Errorf("exported doc has %d nodes, want 1", len(rec.Doc.Nodes))
	}
}

func TestSchedulerStartStop(t *testing.T) {
	mem := seededStore(t)
	dest := &mockDestination{}
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	sched := NewScheduler(mem, []Destination{dest}, 50*time.Millisecond, logger)
	sched.Start()

	// Wait for at least the initial sync + one tick.
	time.Sleep(120 * time.Millisecond)
	sched.Stop()

	if writes := dest.writes.Load(); writes < 2 {
		t.Fatalf("expected at least 2 writes, got %d", writes)
	}

	data, ok := dest.last.Load().([]byte)
	if !ok || len(data) == 0 {
		t.Fatal("expected non-empty data")
	}
	if lines := nonEmptyLines(string(data)); len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
}
