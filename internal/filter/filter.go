// Package filter implements the inclusion/exclusion policy that decides
// which databases, tables, and columns are monitored.
package filter

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/alexanderjulianmartinez/schema-track/internal/schema"
)

// Config is the raw filter configuration: comma-separated regular
// expressions matched case-insensitively against the full object name
// ("db", "db.table", "db.table.column"). Empty include lists admit
// everything; excludes always win.
type Config struct {
	DatabaseInclude string `yaml:"databaseInclude"`
	DatabaseExclude string `yaml:"databaseExclude"`
	TableInclude    string `yaml:"tableInclude"`
	TableExclude    string `yaml:"tableExclude"`
	ColumnExclude   string `yaml:"columnExclude"`
}

// Filters holds the compiled predicates. Pure and immutable after New.
type Filters struct {
	databaseInclude []*regexp.Regexp
	databaseExclude []*regexp.Regexp
	tableInclude    []*regexp.Regexp
	tableExclude    []*regexp.Regexp
	columnExclude   []*regexp.Regexp
}

func New(cfg Config) (*Filters, error) {
	f := &Filters{}
	var err error
	if f.databaseInclude, err = compileList(cfg.DatabaseInclude); err != nil {
		return nil, fmt.Errorf("databaseInclude: %w", err)
	}
	if f.databaseExclude, err = compileList(cfg.DatabaseExclude); err != nil {
		return nil, fmt.Errorf("databaseExclude: %w", err)
	}
	if f.tableInclude, err = compileList(cfg.TableInclude); err != nil {
		return nil, fmt.Errorf("tableInclude: %w", err)
	}
	if f.tableExclude, err = compileList(cfg.TableExclude); err != nil {
		return nil, fmt.Errorf("tableExclude: %w", err)
	}
	if f.columnExclude, err = compileList(cfg.ColumnExclude); err != nil {
		return nil, fmt.Errorf("columnExclude: %w", err)
	}
	return f, nil
}

func (f *Filters) DatabaseIncluded(database string) bool {
	if matchAny(f.databaseExclude, database) {
		return false
	}
	return len(f.databaseInclude) == 0 || matchAny(f.databaseInclude, database)
}

func (f *Filters) TableIncluded(id schema.TableId) bool {
	if !f.DatabaseIncluded(id.Catalog) {
		return false
	}
	name := id.String()
	if matchAny(f.tableExclude, name) {
		return false
	}
	return len(f.tableInclude) == 0 || matchAny(f.tableInclude, name)
}

func (f *Filters) ColumnIncluded(database, table, column string) bool {
	return !matchAny(f.columnExclude, database+"."+table+"."+column)
}

func compileList(list string) ([]*regexp.Regexp, error) {
	var out []*regexp.Regexp
	for _, part := range strings.Split(list, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		re, err := regexp.Compile("(?i)^(?:" + part + ")$")
		if err != nil {
			return nil, fmt.Errorf("pattern %q: %w", part, err)
		}
		out = append(out, re)
	}
	return out, nil
}

func matchAny(res []*regexp.Regexp, s string) bool {
	for _, re := range res {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}
