package schema

// SchemaChangeType tags how far along the pipeline a schema change event
// is. Raw events come straight off the upstream DDL stream; the applier
// only acts on those and re-emits Database-typed events downstream.
type SchemaChangeType int

const (
	SchemaChangeRaw SchemaChangeType = iota
	SchemaChangeDatabase
	SchemaChangeTable
)

func (t SchemaChangeType) String() string {
	switch t {
	case SchemaChangeRaw:
		return "RAW"
	case SchemaChangeDatabase:
		return "DATABASE"
	case SchemaChangeTable:
		return "TABLE"
	default:
		return "UNKNOWN"
	}
}

// Source metadata keys stamped onto emitted events. The names match the
// Debezium source block so downstream consumers see familiar attribution.
const (
	SourceDatabaseKey = "db"
	SourceTableKey    = "table"
)

// SchemaChangeEvent is the unit of notification flowing through the
// applier: one DDL statement plus its attribution.
type SchemaChangeEvent struct {
	Source       map[string]string
	Position     map[string]string
	Database     string
	DDL          string
	TableChanges []TableChange
	Type         SchemaChangeType
	FromSnapshot bool
}

// Consumer receives derived schema change events. affected lists the
// table identities the event covers; it is nil when the event is
// forwarded unchanged without structural attribution.
type Consumer func(event SchemaChangeEvent, affected []TableId)

// ChangeEventType classifies one structural change produced by the
// parser.
type ChangeEventType int

const (
	TableCreated ChangeEventType = iota
	TableAltered
	TableDropped
	IndexCreated
	IndexDropped
	DatabaseCreated
	DatabaseDropped
)

// ChangeEvent is one structural change. ID is the zero value for
// database-level events that carry no table identity. Database is the
// database the change actually applies to, which may differ from the
// statement's nominal database when names are fully qualified.
type ChangeEvent struct {
	Type     ChangeEventType
	ID       TableId
	Database string
}

type TableChangeType string

const (
	TableChangeCreate TableChangeType = "CREATE"
	TableChangeAlter  TableChangeType = "ALTER"
	TableChangeDrop   TableChangeType = "DROP"
)

// TableChange summarizes the structural outcome for one table after a
// DDL statement was applied.
type TableChange struct {
	Type  TableChangeType
	ID    TableId
	Table *TableDefinition
}

// Parser turns one raw DDL string into the ordered structural changes it
// causes, mutating the supplied table set along the way. A parse error
// reports the statements that could not be understood; changes for the
// statements that could are still returned.
type Parser interface {
	SetCurrentSchema(database string)
	Parse(ddl string, tables *Tables) ([]ChangeEvent, error)
}
