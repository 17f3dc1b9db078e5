package schema

import (
	"sort"
	"strings"
)

type Column struct {
	Name     string
	Type     string
	Nullable bool
}

// TableDefinition is the logical structure of one table. Definitions are
// replaced wholesale on change, never mutated in place, so a pointer
// handed out by the table set stays consistent.
type TableDefinition struct {
	ID         TableId
	Columns    []Column
	PrimaryKey []string
}

func (d *TableDefinition) Column(name string) *Column {
	for i := range d.Columns {
		if d.Columns[i].Name == name {
			return &d.Columns[i]
		}
	}
	return nil
}

func (d *TableDefinition) Clone() *TableDefinition {
	out := &TableDefinition{ID: d.ID}
	out.Columns = append(out.Columns, d.Columns...)
	out.PrimaryKey = append(out.PrimaryKey, d.PrimaryKey...)
	return out
}

// Tables is the live, mutable set of table definitions the DDL parser
// works against. Identity comparison honors the case policy fixed at
// construction. Not safe for concurrent use.
type Tables struct {
	caseInsensitive bool
	defs            map[TableId]*TableDefinition
}

func NewTables(caseInsensitive bool) *Tables {
	return &Tables{
		caseInsensitive: caseInsensitive,
		defs:            make(map[TableId]*TableDefinition),
	}
}

func (t *Tables) CaseInsensitive() bool { return t.caseInsensitive }

// ID builds a normalized table identity under this set's case policy.
func (t *Tables) ID(catalog, table string) TableId {
	if t.caseInsensitive {
		catalog = strings.ToLower(catalog)
		table = strings.ToLower(table)
	}
	return TableId{Catalog: catalog, Table: table}
}

func (t *Tables) Overwrite(def *TableDefinition) {
	t.defs[def.ID] = def
}

func (t *Tables) Remove(id TableId) bool {
	if _, ok := t.defs[id]; !ok {
		return false
	}
	delete(t.defs, id)
	return true
}

func (t *Tables) TableFor(id TableId) *TableDefinition {
	return t.defs[id]
}

func (t *Tables) Len() int { return len(t.defs) }

// IDs returns every known table identity in a stable order.
func (t *Tables) IDs() []TableId {
	ids := make([]TableId, 0, len(t.defs))
	for id := range t.defs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if ids[i].Catalog != ids[j].Catalog {
			return ids[i].Catalog < ids[j].Catalog
		}
		return ids[i].Table < ids[j].Table
	})
	return ids
}
