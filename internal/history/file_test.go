package history

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.jsonl")
	store := NewFileStore(path, Options{})

	if store.Exists() {
		t.Fatal("expected a fresh store to report no history")
	}

	records := []Record{
		{
			Source:       map[string]string{"server": "test"},
			DatabaseName: "inventory",
			DDL:          "CREATE TABLE users (id INT NOT NULL PRIMARY KEY)",
			TableChanges: []TableChange{{
				Type: "CREATE",
				ID:   "inventory.users",
				Table: &TableDefinition{
					Columns:               []Column{{Name: "id", TypeName: "INT", Optional: false}},
					PrimaryKeyColumnNames: []string{"id"},
				},
			}},
		},
		{DatabaseName: "inventory", DDL: "ALTER TABLE users ADD COLUMN email VARCHAR(255)"},
	}
	for _, r := range records {
		if err := store.Append(r); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	if !store.Exists() {
		t.Fatal("expected the store to report history after appends")
	}

	var got []Record
	if err := store.Recover(func(r Record) error {
		got = append(got, r)
		return nil
	}); err != nil {
		t.Fatalf("recover: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 records, got %d", len(got))
	}
	if got[0].DDL != records[0].DDL || got[1].DDL != records[1].DDL {
		t.Fatalf("expected records replayed in append order, got %v", got)
	}
	if got[0].Source["server"] != "test" {
		t.Fatalf("expected source attribution preserved, got %v", got[0].Source)
	}
	tc := got[0].TableChanges
	if len(tc) != 1 || tc[0].Table == nil || tc[0].Table.Columns[0].TypeName != "INT" {
		t.Fatalf("expected the table change payload preserved, got %v", tc)
	}
}

func TestFileStoreRecoverMissingFile(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "missing.jsonl"), Options{})
	called := false
	if err := store.Recover(func(Record) error {
		called = true
		return nil
	}); err != nil {
		t.Fatalf("expected missing history treated as empty, got %v", err)
	}
	if called {
		t.Fatal("expected no records replayed from a missing file")
	}
}

func TestFileStoreRejectsCorruptLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.jsonl")
	if err := os.WriteFile(path, []byte("{\"ddl\":\"CREATE TABLE t (id INT)\"}\nnot json\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	store := NewFileStore(path, Options{})
	err := store.Recover(func(Record) error { return nil })
	if err == nil {
		t.Fatal("expected an error for a corrupt history line")
	}
}

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore(Options{OnlyMonitoredTables: true, SkipUnparseable: true})
	if store.Exists() {
		t.Fatal("expected a fresh memory store to report no history")
	}
	if !store.StoreOnlyMonitoredTables() || !store.SkipUnparseableDDL() {
		t.Fatal("expected policy flags to surface through the store")
	}
	if err := store.Append(Record{DDL: "CREATE TABLE t (id INT)"}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if !store.Exists() || len(store.Records) != 1 {
		t.Fatalf("expected one record, got %d", len(store.Records))
	}
}
