package drift

// Centralized severity and message helpers for history drift.
// Rules:
// - BLOCK when recovered schema state cannot decode live rows
// - WARN for risky but recoverable differences
// - INFO for safe differences

const (
	SeverityInfo  = "INFO"
	SeverityWarn  = "WARN"
	SeverityBlock = "BLOCK"
)

// Change kinds supported:
// "table_missing_history", "table_missing_live", "column_added",
// "column_removed", "nullable_to_notnull", "type_changed"
func SeverityForChange(kind string) string {
	switch kind {
	case "table_missing_history", "column_removed", "nullable_to_notnull":
		return SeverityBlock
	case "type_changed", "table_missing_live":
		return SeverityWarn
	case "column_added":
		return SeverityInfo
	default:
		return SeverityInfo
	}
}

// MessageForChange returns a concise message for the given change kind.
func MessageForChange(kind string) string {
	switch kind {
	case "table_missing_history":
		return "present in database but missing from recovered history"
	case "table_missing_live":
		return "recorded in history but missing from database"
	case "column_added":
		return "added in database, unknown to history"
	case "column_removed":
		return "recorded in history but missing from database"
	case "nullable_to_notnull":
		return "nullable -> NOT NULL"
	case "type_changed":
		return "type mismatch"
	default:
		return ""
	}
}
