// Package history is the durable, ordered, replayable log of applied
// DDL statements. Records are appended in the order statements were
// logically applied and replayed in the same order on recovery; they
// are never mutated or deleted.
package history

// Record is one durable history entry: the DDL statement plus enough
// attribution to replay it. The JSON layout mirrors the Debezium
// history record so existing history topics stay readable.
type Record struct {
	Source       map[string]string `json:"source,omitempty"`
	Position     map[string]string `json:"position,omitempty"`
	DatabaseName string            `json:"databaseName,omitempty"`
	DDL          string            `json:"ddl"`
	TableChanges []TableChange     `json:"tableChanges,omitempty"`
}

// TableChange is the serialized structural outcome for one table.
type TableChange struct {
	Type  string           `json:"type"`
	ID    string           `json:"id"`
	Table *TableDefinition `json:"table,omitempty"`
}

type TableDefinition struct {
	Columns               []Column `json:"columns,omitempty"`
	PrimaryKeyColumnNames []string `json:"primaryKeyColumnNames,omitempty"`
}

type Column struct {
	Name     string `json:"name"`
	TypeName string `json:"typeName"`
	Optional bool   `json:"optional"`
}

// Store is the history persistence boundary.
type Store interface {
	// Exists reports whether the store already holds recorded history.
	Exists() bool
	// StoreOnlyMonitoredTables reports whether statements touching only
	// unmonitored objects are dropped instead of recorded.
	StoreOnlyMonitoredTables() bool
	// SkipUnparseableDDL reports whether unparseable statements are
	// skipped with a warning instead of failing the stream.
	SkipUnparseableDDL() bool
	// Append writes one record at the end of the history. It must
	// complete (or fail) before returning; there is no fire-and-forget.
	Append(r Record) error
	// Recover replays every record in append order.
	Recover(fn func(r Record) error) error
}

// Options carries the policy flags shared by every store kind.
type Options struct {
	OnlyMonitoredTables bool
	SkipUnparseable     bool
}

func (o Options) StoreOnlyMonitoredTables() bool { return o.OnlyMonitoredTables }

func (o Options) SkipUnparseableDDL() bool { return o.SkipUnparseable }
