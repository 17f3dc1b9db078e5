package schema

import "sort"

// Registry is the authoritative in-memory mirror of every monitored
// table's structure plus its derived wire schema. Membership is the wire
// schema: the table set may additionally carry definitions of
// unmonitored tables so statements against them keep parsing, but only
// monitored tables have wire schemas. Not safe for concurrent use.
type Registry struct {
	tables  *Tables
	schemas map[TableId]*WireSchema
	builder *WireSchemaBuilder
}

func NewRegistry(caseInsensitive bool, builder *WireSchemaBuilder) *Registry {
	return &Registry{
		tables:  NewTables(caseInsensitive),
		schemas: make(map[TableId]*WireSchema),
		builder: builder,
	}
}

// Tables exposes the live, mutable table set the DDL parser operates on.
func (r *Registry) Tables() *Tables { return r.tables }

func (r *Registry) SchemaFor(id TableId) *WireSchema {
	return r.schemas[id]
}

// Upsert stores the definition and replaces its wire schema.
func (r *Registry) Upsert(def *TableDefinition) {
	r.tables.Overwrite(def)
	r.schemas[def.ID] = r.builder.Build(def)
}

// Remove deletes both the logical definition and its wire schema.
func (r *Registry) Remove(id TableId) {
	r.tables.Remove(id)
	delete(r.schemas, id)
}

// Unregister drops the wire schema while keeping the logical definition,
// so later statements against the table still parse.
func (r *Registry) Unregister(id TableId) {
	delete(r.schemas, id)
}

// RebuildAll discards every cached wire schema and rebuilds from the
// current table set, skipping tables the include predicate rejects. A
// nil predicate admits every table. Used after bulk state changes such
// as a history replay, not for incremental DDL application.
func (r *Registry) RebuildAll(include func(TableId) bool) {
	r.schemas = make(map[TableId]*WireSchema)
	for _, id := range r.tables.IDs() {
		if include != nil && !include(id) {
			continue
		}
		r.schemas[id] = r.builder.Build(r.tables.TableFor(id))
	}
}

// ReplaceTables swaps in a new table set, dropping all previous state.
// Callers normally follow up with RebuildAll.
func (r *Registry) ReplaceTables(tables *Tables) {
	r.tables = tables
	r.schemas = make(map[TableId]*WireSchema)
}

// MonitoredTables returns the identity of every table holding a wire
// schema as a display string, for status reporting.
func (r *Registry) MonitoredTables() []string {
	out := make([]string, 0, len(r.schemas))
	for id := range r.schemas {
		out = append(out, id.String())
	}
	sort.Strings(out)
	return out
}
