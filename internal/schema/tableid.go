package schema

// TableId identifies one table within a monitored server: the database
// (catalog) it lives in plus the table name. Values are normalized by the
// Tables set that created them, so two ids for the same table always
// compare equal under the configured case policy.
type TableId struct {
	Catalog string
	Table   string
}

func (t TableId) String() string {
	if t.Catalog == "" {
		return t.Table
	}
	return t.Catalog + "." + t.Table
}

func (t TableId) IsZero() bool {
	return t.Catalog == "" && t.Table == ""
}
