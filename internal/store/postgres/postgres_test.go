package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/weftworks/canvasd/internal/model"
	"github.com/weftworks/canvasd/internal/store"
)

// newMockDB creates a sqlmock database with automatic cleanup and expectation checking.
func newMockDB(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unfulfilled expectations: %v", err)
		}
		db.Close()
	})
	return NewWithDB(db), mock
}

func docJSON(t *testing.T) []byte {
	t.Helper()
	doc := model.NewDocument()
	if err := doc.AddNode(&model.TextNode{
		NodeBase: model.NodeBase{ID: "n1", Width: 200, Height: 100},
		Text:     "hello",
	}); err != nil {
		t.Fatal(err)
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		t.Fatal(err)
	}
	return raw
}

func TestLoad(t *testing.T) {
	s, mock := newMockDB(t)

	mock.ExpectQuery(`SELECT doc, version FROM canvases WHERE path = \$1`).
		WithArgs("a.canvas").
		WillReturnRows(sqlmock.NewRows([]string{"doc", "version"}).AddRow(docJSON(t), int64(3)))

	doc, rev, err := s.Load(context.Background(), "a.canvas")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if rev != 3 {
		t.Errorf("rev = %d, want 3", rev)
	}
	if _, ok := doc.Node("n1"); !ok {
		t.Error("decoded document missing n1")
	}
}

func TestLoad_NotFound(t *testing.T) {
	s, mock := newMockDB(t)

	mock.ExpectQuery(`SELECT doc, version FROM canvases WHERE path = \$1`).
		WithArgs("missing.canvas").
		WillReturnError(sql.ErrNoRows)

	_, _, err := s.Load(context.Background(), "missing.canvas")
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("err = %v, want store.ErrNotFound", err)
	}
}

func TestSave_Create(t *testing.T) {
	s, mock := newMockDB(t)

	mock.ExpectExec(`INSERT INTO canvases \(path, doc\) VALUES \(\$1, \$2\) ON CONFLICT \(path\) DO NOTHING`).
		WithArgs("new.canvas", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := s.Save(context.Background(), "new.canvas", model.NewDocument(), 0); err != nil {
		t.Fatalf("Save: %v", err)
	}
}

func TestSave_CreateConflict(t *testing.T) {
	s, mock := newMockDB(t)

	mock.ExpectExec(`INSERT INTO canvases`).
		WithArgs("taken.canvas", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := s.Save(context.Background(), "taken.canvas", model.NewDocument(), 0)
	if !errors.Is(err, store.ErrRevisionConflict) {
		t.Fatalf("err = %v, want store.ErrRevisionConflict", err)
	}
}

func TestSave_Update(t *testing.T) {
	s, mock := newMockDB(t)

	mock.ExpectExec(`UPDATE canvases SET doc = \$1, version = version \+ 1`).
		WithArgs(sqlmock.AnyArg(), "a.canvas", int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := s.Save(context.Background(), "a.canvas", model.NewDocument(), 3); err != nil {
		t.Fatalf("Save: %v", err)
	}
}

func TestSave_StaleVersion(t *testing.T) {
	s, mock := newMockDB(t)

	mock.ExpectExec(`UPDATE canvases SET doc = \$1, version = version \+ 1`).
		WithArgs(sqlmock.AnyArg(), "a.canvas", int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := s.Save(context.Background(), "a.canvas", model.NewDocument(), 2)
	if !errors.Is(err, store.ErrRevisionConflict) {
		t.Fatalf("err = %v, want store.ErrRevisionConflict", err)
	}
}

func TestExists(t *testing.T) {
	s, mock := newMockDB(t)

	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("a.canvas").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	ok, err := s.Exists(context.Background(), "a.canvas")
	if err != nil {
		t.Fatalf("Exists: %v", err)
	}
	if !ok {
		t.Error("expected exists = true")
	}
}

func TestListPaths(t *testing.T) {
	s, mock := newMockDB(t)

	mock.ExpectQuery(`SELECT path FROM canvases ORDER BY path`).
		WillReturnRows(sqlmock.NewRows([]string{"path"}).AddRow("a.canvas").AddRow("b.canvas"))

	paths, err := s.ListPaths(context.Background())
	if err != nil {
		t.Fatalf("ListPaths: %v", err)
	}
	if len(paths) != 2 || paths[0] != "a.canvas" || paths[1] != "b.canvas" {
		t.Errorf("paths = %v", paths)
	}
}
