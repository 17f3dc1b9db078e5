package schema

import (
	"fmt"
	"strings"

	"github.com/alexanderjulianmartinez/schema-track/internal/history"
	"github.com/alexanderjulianmartinez/schema-track/internal/logging"
)

var log = logging.GetLogger().Named("schema")

// Statements that show up in a binlog DDL stream but never change
// structure.
var ignoredStatements = map[string]struct{}{
	"BEGIN":            {},
	"END":              {},
	"FLUSH PRIVILEGES": {},
}

// FilterPolicy decides which databases and tables are monitored. The
// applier never bypasses it: every scoping decision funnels through
// these two predicates.
type FilterPolicy interface {
	DatabaseIncluded(database string) bool
	TableIncluded(id TableId) bool
}

// Applier drives the parse -> filter -> notify -> record -> rebuild
// cycle for one DDL statement at a time. Exactly one call may be in
// flight against a given registry; the single-threaded ingestion
// pipeline enforces that, so the applier takes no locks.
type Applier struct {
	parser   Parser
	filters  FilterPolicy
	history  history.Store
	registry *Registry
}

func NewApplier(parser Parser, filters FilterPolicy, store history.Store, registry *Registry) *Applier {
	return &Applier{
		parser:   parser,
		filters:  filters,
		history:  store,
		registry: registry,
	}
}

func (a *Applier) Registry() *Registry { return a.registry }

// HistoryExists reports whether the history store already holds
// recorded statements.
func (a *Applier) HistoryExists() bool { return a.history.Exists() }

// IsGlobalSetVariableStatement reports whether ddl is a SET statement
// executed without a default database. Those are recorded even when the
// history is restricted to monitored objects, since they affect how
// every later statement parses.
func IsGlobalSetVariableStatement(ddl, database string) bool {
	return database == "" && strings.HasPrefix(strings.ToUpper(ddl), "SET ")
}

// ApplySchemaChange parses one raw DDL event, notifies the consumer per
// affected database, records the statement to the history when policy
// requires it, and reconciles the registry. It returns the structural
// outcome for every table the statement touched.
func (a *Applier) ApplySchemaChange(event SchemaChangeEvent, consumer Consumer) ([]TableChange, error) {
	log.Debug("applying schema change event", "database", event.Database, "ddl", event.DDL)

	if event.Type != SchemaChangeRaw {
		log.Debug("schema change already processed upstream", "type", event.Type.String())
		return nil, nil
	}
	if _, ok := ignoredStatements[event.DDL]; ok {
		return nil, nil
	}

	a.parser.SetCurrentSchema(event.Database)
	changes, err := a.parser.Parse(event.DDL, a.registry.Tables())
	if err != nil {
		if !a.history.SkipUnparseableDDL() {
			return nil, err
		}
		log.Warn("ignoring unparseable DDL statement", "ddl", event.DDL, "error", err)
	}

	affected := affectedTables(changes)

	// One scoping decision, reused for both notification and recording.
	inScope := !a.history.StoreOnlyMonitoredTables() ||
		IsGlobalSetVariableStatement(event.DDL, event.Database) ||
		a.anyMonitored(affected)

	if inScope {
		if consumer != nil {
			a.notify(event, changes, consumer)
		}
		// Record only after the notifications went out, so recovery from
		// the history never replays a statement whose notifications were
		// silently lost to a crash.
		if err := a.record(event); err != nil {
			return nil, err
		}
	} else {
		log.Debug("changes filtered from history", "ddl", event.DDL)
	}

	return a.reconcile(affected), nil
}

// notify dispatches derived events. A statement can touch databases
// other than its nominal one through fully-qualified names, so grouping
// uses each change's own database attribution, never the nominal name.
func (a *Applier) notify(event SchemaChangeEvent, changes []ChangeEvent, consumer Consumer) {
	if len(changes) == 0 {
		// Nothing could be attributed structurally; forward the event
		// unchanged when the nominal database is acceptable.
		if a.acceptableDatabase(event.Database) {
			consumer(event, nil)
		}
		return
	}
	for _, group := range groupByDatabase(changes) {
		if !a.acceptableDatabase(group.database) {
			continue
		}
		ids := affectedTables(group.changes)
		source := make(map[string]string, len(event.Source)+2)
		for k, v := range event.Source {
			source[k] = v
		}
		source[SourceDatabaseKey] = group.database
		if names := tableNames(ids); names != "" {
			source[SourceTableKey] = names
		}
		consumer(SchemaChangeEvent{
			Source:       source,
			Position:     event.Position,
			Database:     group.database,
			DDL:          event.DDL,
			Type:         SchemaChangeDatabase,
			FromSnapshot: event.FromSnapshot,
		}, ids)
	}
}

func (a *Applier) record(event SchemaChangeEvent) error {
	record := history.Record{
		Source:       event.Source,
		Position:     event.Position,
		DatabaseName: event.Database,
		DDL:          event.DDL,
		TableChanges: historyTableChanges(event.TableChanges),
	}
	if err := a.history.Append(record); err != nil {
		return fmt.Errorf("record DDL statement %q: %w", event.DDL, err)
	}
	log.Debug("recorded DDL statement", "database", event.Database, "ddl", event.DDL)
	return nil
}

// reconcile rebuilds the registry entry for every affected table. An id
// no longer resolvable in the table set is a drop, never an error. A
// table outside the monitored scope gets no wire schema, but its
// definition stays tracked so later statements against it keep parsing.
func (a *Applier) reconcile(affected []TableId) []TableChange {
	var tableChanges []TableChange
	for _, id := range affected {
		def := a.registry.Tables().TableFor(id)
		if def == nil {
			a.registry.Remove(id)
			continue
		}
		if !a.filters.TableIncluded(id) {
			log.Debug("table not monitored, keeping it out of the registry", "table", id.String())
			a.registry.Unregister(id)
			continue
		}
		a.registry.Upsert(def)
		tableChanges = append(tableChanges, TableChange{Type: TableChangeCreate, ID: id, Table: def})
	}
	return tableChanges
}

// LoadHistory rebuilds schema state by replaying every recorded DDL
// statement against a fresh table set, then regenerates the wire
// schemas of the monitored tables in one pass.
func (a *Applier) LoadHistory() error {
	tables := NewTables(a.registry.Tables().CaseInsensitive())
	err := a.history.Recover(func(r history.Record) error {
		a.parser.SetCurrentSchema(r.DatabaseName)
		if _, err := a.parser.Parse(r.DDL, tables); err != nil {
			if a.history.SkipUnparseableDDL() {
				log.Warn("ignoring unparseable DDL statement from history", "ddl", r.DDL, "error", err)
				return nil
			}
			return err
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("recover schema history: %w", err)
	}
	a.registry.ReplaceTables(tables)
	a.registry.RebuildAll(a.filters.TableIncluded)
	log.Info("recovered schema history", "tables", tables.Len())
	return nil
}

func (a *Applier) acceptableDatabase(database string) bool {
	return database == "" || a.filters.DatabaseIncluded(database)
}

func (a *Applier) anyMonitored(ids []TableId) bool {
	for _, id := range ids {
		if a.filters.TableIncluded(id) {
			return true
		}
	}
	return false
}

// affectedTables collapses the change list into distinct table ids in
// first-seen order. Database-level changes carry no table identity and
// contribute nothing.
func affectedTables(changes []ChangeEvent) []TableId {
	var ids []TableId
	seen := make(map[TableId]struct{})
	for _, c := range changes {
		if c.ID.IsZero() {
			continue
		}
		if _, ok := seen[c.ID]; ok {
			continue
		}
		seen[c.ID] = struct{}{}
		ids = append(ids, c.ID)
	}
	return ids
}

type databaseChanges struct {
	database string
	changes  []ChangeEvent
}

// groupByDatabase buckets changes by affected database, preserving
// first-seen database order and statement order within each group.
func groupByDatabase(changes []ChangeEvent) []databaseChanges {
	var groups []databaseChanges
	index := make(map[string]int)
	for _, c := range changes {
		i, ok := index[c.Database]
		if !ok {
			i = len(groups)
			index[c.Database] = i
			groups = append(groups, databaseChanges{database: c.Database})
		}
		groups[i].changes = append(groups[i].changes, c)
	}
	return groups
}

func tableNames(ids []TableId) string {
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		names = append(names, id.Table)
	}
	return strings.Join(names, ",")
}

func historyTableChanges(changes []TableChange) []history.TableChange {
	if len(changes) == 0 {
		return nil
	}
	out := make([]history.TableChange, 0, len(changes))
	for _, c := range changes {
		hc := history.TableChange{Type: string(c.Type), ID: c.ID.String()}
		if c.Table != nil {
			def := &history.TableDefinition{
				PrimaryKeyColumnNames: c.Table.PrimaryKey,
			}
			for _, col := range c.Table.Columns {
				def.Columns = append(def.Columns, history.Column{
					Name:     col.Name,
					TypeName: col.Type,
					Optional: col.Nullable,
				})
			}
			hc.Table = def
		}
		out = append(out, hc)
	}
	return out
}
