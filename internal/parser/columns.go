package parser

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/alexanderjulianmartinez/schema-track/internal/schema"
)

// reColumn captures name, type (with optional length/precision and
// UNSIGNED/ZEROFILL modifiers), and the trailing attribute clause.
var reColumn = regexp.MustCompile("(?is)^(`[^`]+`|[A-Za-z_]\\w*)\\s+([A-Za-z]\\w*(?:\\s*\\([^)]*\\))?(?:\\s+UNSIGNED)?(?:\\s+ZEROFILL)?)(.*)$")

var constraintPrefixes = []string{
	"UNIQUE", "INDEX", "KEY", "CONSTRAINT", "FOREIGN", "FULLTEXT", "SPATIAL", "CHECK", "PARTITION",
}

// parseColumns parses the body of a CREATE TABLE column list.
func parseColumns(block string) ([]schema.Column, []string, error) {
	var cols []schema.Column
	var pk []string
	for _, entry := range splitTopLevel(block, ',') {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		upper := strings.ToUpper(entry)
		switch {
		case strings.HasPrefix(upper, "PRIMARY KEY"):
			pk = append(pk, keyColumns(entry)...)
		case hasAnyPrefix(upper, constraintPrefixes...):
			// Table constraints carry no column layout.
		default:
			col, inlinePK, err := parseColumnDef(entry)
			if err != nil {
				return nil, nil, err
			}
			cols = append(cols, col)
			if inlinePK {
				pk = append(pk, col.Name)
			}
		}
	}
	if len(cols) == 0 {
		return nil, nil, fmt.Errorf("no column definitions")
	}
	return cols, pk, nil
}

func parseColumnDef(entry string) (schema.Column, bool, error) {
	m := reColumn.FindStringSubmatch(entry)
	if m == nil {
		return schema.Column{}, false, fmt.Errorf("malformed column definition: %s", entry)
	}
	attrs := strings.ToUpper(m[3])
	col := schema.Column{
		Name:     unquote(m[1]),
		Type:     strings.Join(strings.Fields(strings.ToUpper(m[2])), " "),
		Nullable: !strings.Contains(attrs, "NOT NULL"),
	}
	return col, strings.Contains(attrs, "PRIMARY KEY"), nil
}

// keyColumns extracts the column names of a key clause such as
// "PRIMARY KEY (`a`, b(10))".
func keyColumns(entry string) []string {
	open := strings.IndexByte(entry, '(')
	if open < 0 {
		return nil
	}
	block, ok := parenBlock(entry[open:])
	if !ok {
		return nil
	}
	var names []string
	for _, part := range splitTopLevel(block, ',') {
		name := strings.TrimSpace(part)
		// Strip an index-prefix length like col(10).
		if i := strings.IndexByte(name, '('); i >= 0 {
			name = name[:i]
		}
		name = unquote(strings.TrimSpace(name))
		if name != "" {
			names = append(names, name)
		}
	}
	return names
}

// applyAlterOp applies one comma-separated ALTER TABLE operation to the
// working definition. It returns a non-zero id when the operation
// renames the table. Operations with no column layout effect (engine,
// charset, index maintenance, partitioning) are skipped silently.
func (p *Parser) applyAlterOp(op string, work *schema.TableDefinition, tables *schema.Tables) (schema.TableId, error) {
	var none schema.TableId
	upper := strings.ToUpper(op)
	switch {
	case strings.HasPrefix(upper, "ADD "):
		return none, p.applyAlterAdd(strings.TrimSpace(op[len("ADD "):]), work)
	case strings.HasPrefix(upper, "DROP "):
		applyAlterDrop(strings.TrimSpace(op[len("DROP "):]), work)
		return none, nil
	case strings.HasPrefix(upper, "MODIFY "):
		rest := stripKeyword(op[len("MODIFY "):], "COLUMN")
		col, inlinePK, err := parseColumnDef(trimPosition(rest))
		if err != nil {
			return none, err
		}
		replaceColumn(work, col.Name, col)
		if inlinePK {
			work.PrimaryKey = []string{col.Name}
		}
		return none, nil
	case strings.HasPrefix(upper, "CHANGE "):
		rest := stripKeyword(op[len("CHANGE "):], "COLUMN")
		oldName, def := splitFirstToken(rest)
		col, inlinePK, err := parseColumnDef(trimPosition(def))
		if err != nil {
			return none, err
		}
		replaceColumn(work, unquote(oldName), col)
		if inlinePK {
			work.PrimaryKey = []string{col.Name}
		}
		return none, nil
	case strings.HasPrefix(upper, "RENAME COLUMN "):
		rest := op[len("RENAME COLUMN "):]
		parts := regexp.MustCompile(`(?i)\s+TO\s+`).Split(rest, 2)
		if len(parts) != 2 {
			return none, fmt.Errorf("malformed RENAME COLUMN clause: %s", op)
		}
		oldName := unquote(strings.TrimSpace(parts[0]))
		newName := unquote(strings.TrimSpace(parts[1]))
		if col := work.Column(oldName); col != nil {
			renamed := *col
			renamed.Name = newName
			replaceColumn(work, oldName, renamed)
		}
		return none, nil
	case strings.HasPrefix(upper, "RENAME "):
		rest := strings.TrimSpace(op[len("RENAME "):])
		rest = stripKeyword(rest, "TO")
		rest = stripKeyword(rest, "AS")
		return p.resolve(tables, rest), nil
	default:
		// Table options: ENGINE=, AUTO_INCREMENT=, charset, comment,
		// CONVERT TO, partition maintenance.
		return none, nil
	}
}

func (p *Parser) applyAlterAdd(rest string, work *schema.TableDefinition) error {
	rest = stripKeyword(rest, "COLUMN")
	upper := strings.ToUpper(rest)
	switch {
	case strings.HasPrefix(upper, "PRIMARY KEY"):
		work.PrimaryKey = keyColumns(rest)
		return nil
	case hasAnyPrefix(upper, constraintPrefixes...):
		return nil
	case strings.HasPrefix(rest, "("):
		block, ok := parenBlock(rest)
		if !ok {
			return fmt.Errorf("malformed ADD clause: %s", rest)
		}
		cols, pk, err := parseColumns(block)
		if err != nil {
			return err
		}
		work.Columns = append(work.Columns, cols...)
		if len(pk) > 0 {
			work.PrimaryKey = pk
		}
		return nil
	default:
		col, inlinePK, err := parseColumnDef(trimPosition(rest))
		if err != nil {
			return err
		}
		replaceColumn(work, col.Name, col)
		if inlinePK {
			work.PrimaryKey = []string{col.Name}
		}
		return nil
	}
}

func applyAlterDrop(rest string, work *schema.TableDefinition) {
	upper := strings.ToUpper(rest)
	switch {
	case strings.HasPrefix(upper, "PRIMARY KEY"):
		work.PrimaryKey = nil
	case hasAnyPrefix(upper, "INDEX ", "KEY ", "FOREIGN ", "CONSTRAINT ", "CHECK ", "PARTITION "):
		// No column layout effect.
	default:
		rest = stripKeyword(rest, "COLUMN")
		name, _ := splitFirstToken(rest)
		removeColumn(work, unquote(name))
	}
}

// replaceColumn swaps the named column in place, or appends when the
// name is new.
func replaceColumn(def *schema.TableDefinition, name string, col schema.Column) {
	for i := range def.Columns {
		if def.Columns[i].Name == name {
			def.Columns[i] = col
			return
		}
	}
	def.Columns = append(def.Columns, col)
}

func removeColumn(def *schema.TableDefinition, name string) {
	for i := range def.Columns {
		if def.Columns[i].Name == name {
			def.Columns = append(def.Columns[:i], def.Columns[i+1:]...)
			return
		}
	}
}

// trimPosition drops a trailing FIRST or AFTER <col> placement clause.
func trimPosition(s string) string {
	upper := strings.ToUpper(s)
	if i := lastIndexWord(upper, " AFTER "); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	if strings.HasSuffix(strings.TrimSpace(upper), " FIRST") {
		trimmed := strings.TrimSpace(s)
		return strings.TrimSpace(trimmed[:len(trimmed)-len(" FIRST")])
	}
	return strings.TrimSpace(s)
}

func lastIndexWord(upper, word string) int {
	return strings.LastIndex(upper, word)
}

// stripKeyword removes one optional leading keyword.
func stripKeyword(s, keyword string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(strings.ToUpper(s), keyword+" ") {
		return strings.TrimSpace(s[len(keyword)+1:])
	}
	return s
}

func splitFirstToken(s string) (string, string) {
	s = strings.TrimSpace(s)
	for i, r := range s {
		if r == ' ' || r == '\t' || r == '\n' {
			return s[:i], strings.TrimSpace(s[i:])
		}
	}
	return s, ""
}

func hasAnyPrefix(s string, prefixes ...string) bool {
	for _, prefix := range prefixes {
		if strings.HasPrefix(s, prefix) {
			return true
		}
	}
	return false
}
