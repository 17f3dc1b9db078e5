package drift_test

import (
	"testing"

	"github.com/alexanderjulianmartinez/schema-track/internal/drift"
	"github.com/alexanderjulianmartinez/schema-track/internal/schema"
)

func recoveredRegistry(defs ...*schema.TableDefinition) *schema.Registry {
	registry := schema.NewRegistry(false, schema.NewWireSchemaBuilder(nil))
	for _, def := range defs {
		registry.Upsert(def)
	}
	return registry
}

func def(table string, cols ...schema.Column) *schema.TableDefinition {
	return &schema.TableDefinition{
		ID:      schema.TableId{Catalog: "db", Table: table},
		Columns: cols,
	}
}

func TestValidateNoDrift(t *testing.T) {
	recovered := def("t", schema.Column{Name: "id", Type: "INT", Nullable: false})
	live := def("t", schema.Column{Name: "id", Type: "INT", Nullable: false})

	report := drift.Validate([]*schema.TableDefinition{live}, recoveredRegistry(recovered))
	if len(report.Issues) != 0 {
		t.Fatalf("expected no issues, got %v", report.Issues)
	}
	if report.Blocking() {
		t.Fatal("expected a clean report not to block")
	}
}

func TestValidateTableMissingFromHistory(t *testing.T) {
	live := def("unseen", schema.Column{Name: "id", Type: "INT"})
	report := drift.Validate([]*schema.TableDefinition{live}, recoveredRegistry())
	if len(report.Issues) != 1 {
		t.Fatalf("expected one issue, got %v", report.Issues)
	}
	if report.Issues[0].Severity != drift.SeverityBlock {
		t.Fatalf("expected a live table unknown to history to block, got %s", report.Issues[0].Severity)
	}
	if !report.Blocking() {
		t.Fatal("expected the report to block")
	}
}

func TestValidateTableMissingFromLive(t *testing.T) {
	recovered := def("gone", schema.Column{Name: "id", Type: "INT"})
	report := drift.Validate(nil, recoveredRegistry(recovered))
	if len(report.Issues) != 1 || report.Issues[0].Severity != drift.SeverityWarn {
		t.Fatalf("expected one WARN for a table only in history, got %v", report.Issues)
	}
	if report.Blocking() {
		t.Fatal("expected a history-only table not to block")
	}
}

func TestValidateColumnDrift(t *testing.T) {
	recovered := def("t",
		schema.Column{Name: "id", Type: "INT", Nullable: false},
		schema.Column{Name: "removed", Type: "TEXT", Nullable: true},
		schema.Column{Name: "tightened", Type: "TEXT", Nullable: true},
		schema.Column{Name: "retyped", Type: "INT", Nullable: true},
	)
	live := def("t",
		schema.Column{Name: "id", Type: "INT", Nullable: false},
		schema.Column{Name: "tightened", Type: "TEXT", Nullable: false},
		schema.Column{Name: "retyped", Type: "BIGINT", Nullable: true},
		schema.Column{Name: "added", Type: "TEXT", Nullable: true},
	)

	report := drift.Validate([]*schema.TableDefinition{live}, recoveredRegistry(recovered))

	severityByColumn := map[string]string{}
	for _, issue := range report.Issues {
		severityByColumn[issue.Column] = issue.Severity
	}
	if severityByColumn["removed"] != drift.SeverityBlock {
		t.Errorf("expected a column missing live to block, got %q", severityByColumn["removed"])
	}
	if severityByColumn["tightened"] != drift.SeverityBlock {
		t.Errorf("expected nullable-to-NOT NULL to block, got %q", severityByColumn["tightened"])
	}
	if severityByColumn["retyped"] != drift.SeverityWarn {
		t.Errorf("expected a type change to warn, got %q", severityByColumn["retyped"])
	}
	if severityByColumn["added"] != drift.SeverityInfo {
		t.Errorf("expected an added column to be informational, got %q", severityByColumn["added"])
	}
	if !report.Blocking() {
		t.Fatal("expected the report to block")
	}
}

func TestValidateSkipsParsingOnlyDefinitions(t *testing.T) {
	registry := recoveredRegistry(def("tracked", schema.Column{Name: "id", Type: "INT"}))
	// A definition without a wire schema is kept for parsing only and is
	// not part of the monitored state under verification.
	registry.Tables().Overwrite(def("untracked", schema.Column{Name: "id", Type: "INT"}))

	live := def("tracked", schema.Column{Name: "id", Type: "INT"})
	report := drift.Validate([]*schema.TableDefinition{live}, registry)
	if len(report.Issues) != 0 {
		t.Fatalf("expected no issues for a parsing-only definition, got %v", report.Issues)
	}
}

func TestValidateTypeChangeCarriesTypes(t *testing.T) {
	recovered := def("t", schema.Column{Name: "v", Type: "INT", Nullable: true})
	live := def("t", schema.Column{Name: "v", Type: "BIGINT", Nullable: true})

	report := drift.Validate([]*schema.TableDefinition{live}, recoveredRegistry(recovered))
	if len(report.Issues) != 1 {
		t.Fatalf("expected one issue, got %v", report.Issues)
	}
	issue := report.Issues[0]
	if issue.FromType != "INT" || issue.ToType != "BIGINT" {
		t.Fatalf("expected INT -> BIGINT recorded, got %s -> %s", issue.FromType, issue.ToType)
	}
}
