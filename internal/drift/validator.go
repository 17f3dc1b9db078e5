package drift

import (
	"github.com/alexanderjulianmartinez/schema-track/internal/schema"
)

type Issue struct {
	Table    string
	Column   string
	Severity string
	Message  string
	FromType string
	ToType   string
}

type Report struct {
	Issues []Issue
}

// Validate compares the live table definitions against the state
// recovered from the schema history. Live is the source of truth for
// what rows will look like; the history is what the decoder will use.
func Validate(live []*schema.TableDefinition, registry *schema.Registry) *Report {
	report := &Report{}
	liveIDs := map[schema.TableId]struct{}{}

	for _, table := range live {
		liveIDs[table.ID] = struct{}{}
		recovered := registry.Tables().TableFor(table.ID)
		if recovered == nil {
			report.add("table_missing_history", table.ID.String(), "", "", "")
			continue
		}
		compareColumns(report, table, recovered)
	}

	for _, id := range registry.Tables().IDs() {
		// Definitions without a wire schema are tracked for parsing only,
		// not monitored.
		if registry.SchemaFor(id) == nil {
			continue
		}
		if _, ok := liveIDs[id]; !ok {
			report.add("table_missing_live", id.String(), "", "", "")
		}
	}
	return report
}

func compareColumns(report *Report, live, recovered *schema.TableDefinition) {
	table := live.ID.String()
	for _, col := range live.Columns {
		rec := recovered.Column(col.Name)
		if rec == nil {
			report.add("column_added", table, col.Name, "", "")
			continue
		}
		if rec.Type != col.Type {
			report.add("type_changed", table, col.Name, rec.Type, col.Type)
		}
		if rec.Nullable && !col.Nullable {
			report.add("nullable_to_notnull", table, col.Name, "", "")
		}
	}
	for _, col := range recovered.Columns {
		if live.Column(col.Name) == nil {
			report.add("column_removed", table, col.Name, "", "")
		}
	}
}

func (r *Report) add(kind, table, column, from, to string) {
	r.Issues = append(r.Issues, Issue{
		Table:    table,
		Column:   column,
		Severity: SeverityForChange(kind),
		Message:  MessageForChange(kind),
		FromType: from,
		ToType:   to,
	})
}

// Blocking reports whether the report contains any BLOCK issue.
func (r *Report) Blocking() bool {
	for _, issue := range r.Issues {
		if issue.Severity == SeverityBlock {
			return true
		}
	}
	return false
}
