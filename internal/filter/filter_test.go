package filter_test

import (
	"testing"

	"github.com/alexanderjulianmartinez/schema-track/internal/filter"
	"github.com/alexanderjulianmartinez/schema-track/internal/schema"
)

func TestDatabaseIncluded(t *testing.T) {
	f, err := filter.New(filter.Config{
		DatabaseInclude: `inventory, orders_\d+`,
		DatabaseExclude: `orders_13`,
	})
	if err != nil {
		t.Fatalf("compile: %v", err)
	}

	cases := []struct {
		database string
		want     bool
	}{
		{"inventory", true},
		{"Inventory", true}, // matching is case-insensitive
		{"orders_7", true},
		{"orders_13", false}, // exclude wins over include
		{"payments", false},
		{"inventory_backup", false}, // patterns are anchored
	}
	for _, tc := range cases {
		if got := f.DatabaseIncluded(tc.database); got != tc.want {
			t.Errorf("DatabaseIncluded(%q) = %v, want %v", tc.database, got, tc.want)
		}
	}
}

func TestEmptyIncludeAdmitsEverything(t *testing.T) {
	f, err := filter.New(filter.Config{})
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if !f.DatabaseIncluded("anything") {
		t.Error("expected empty config to admit every database")
	}
	if !f.TableIncluded(schema.TableId{Catalog: "a", Table: "b"}) {
		t.Error("expected empty config to admit every table")
	}
	if !f.ColumnIncluded("a", "b", "c") {
		t.Error("expected empty config to admit every column")
	}
}

func TestTableIncluded(t *testing.T) {
	f, err := filter.New(filter.Config{
		DatabaseInclude: `inventory`,
		TableInclude:    `inventory\.(users|orders)`,
		TableExclude:    `inventory\.orders`,
	})
	if err != nil {
		t.Fatalf("compile: %v", err)
	}

	cases := []struct {
		id   schema.TableId
		want bool
	}{
		{schema.TableId{Catalog: "inventory", Table: "users"}, true},
		{schema.TableId{Catalog: "inventory", Table: "orders"}, false},   // table exclude wins
		{schema.TableId{Catalog: "inventory", Table: "audit"}, false},    // not in table include
		{schema.TableId{Catalog: "elsewhere", Table: "users"}, false},    // database gate first
	}
	for _, tc := range cases {
		if got := f.TableIncluded(tc.id); got != tc.want {
			t.Errorf("TableIncluded(%s) = %v, want %v", tc.id, got, tc.want)
		}
	}
}

func TestColumnIncluded(t *testing.T) {
	f, err := filter.New(filter.Config{ColumnExclude: `inventory\.users\.(ssn|password)`})
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if f.ColumnIncluded("inventory", "users", "ssn") {
		t.Error("expected ssn excluded")
	}
	if f.ColumnIncluded("inventory", "users", "PASSWORD") {
		t.Error("expected password excluded case-insensitively")
	}
	if !f.ColumnIncluded("inventory", "users", "email") {
		t.Error("expected email included")
	}
	if !f.ColumnIncluded("inventory", "orders", "ssn") {
		t.Error("expected exclusion scoped to the named table")
	}
}

func TestBadPatternReported(t *testing.T) {
	_, err := filter.New(filter.Config{TableInclude: `inventory\.(`})
	if err == nil {
		t.Fatal("expected a compile error for an unbalanced pattern")
	}
}
