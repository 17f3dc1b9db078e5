package schema

// WireField is one field of the row-event schema consumers see.
type WireField struct {
	Name     string
	Type     string
	Optional bool
}

// WireSchema is the derived, read-only projection of a table definition
// used to decode row events. It has no lifecycle of its own: it is
// regenerated whenever its table definition changes.
type WireSchema struct {
	Name   string
	Fields []WireField
	Key    []string
}

// ColumnFilter reports whether a column is part of the wire schema.
type ColumnFilter func(id TableId, column string) bool

// WireSchemaBuilder derives wire schemas from table definitions,
// dropping columns the filter excludes.
type WireSchemaBuilder struct {
	include ColumnFilter
}

func NewWireSchemaBuilder(include ColumnFilter) *WireSchemaBuilder {
	return &WireSchemaBuilder{include: include}
}

func (b *WireSchemaBuilder) Build(def *TableDefinition) *WireSchema {
	ws := &WireSchema{Name: def.ID.String()}
	for _, col := range def.Columns {
		if b.include != nil && !b.include(def.ID, col.Name) {
			continue
		}
		ws.Fields = append(ws.Fields, WireField{
			Name:     col.Name,
			Type:     col.Type,
			Optional: col.Nullable,
		})
	}
	ws.Key = append(ws.Key, def.PrimaryKey...)
	return ws
}
