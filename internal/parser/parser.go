// Package parser is a best-effort MySQL DDL parser. It recognizes the
// statement shapes that show up in a binlog schema stream and mutates
// the supplied table set accordingly. It is not a full SQL grammar:
// statements it cannot classify produce a ParsingError so the caller
// decides whether to skip them.
package parser

import (
	"regexp"
	"strings"

	"github.com/alexanderjulianmartinez/schema-track/internal/schema"
)

type Parser struct {
	currentSchema string
}

func New() *Parser {
	return &Parser{}
}

// SetCurrentSchema sets the default database applied to unqualified
// table names in subsequent statements.
func (p *Parser) SetCurrentSchema(database string) {
	p.currentSchema = database
}

// Parse applies every statement in ddl to the table set and returns the
// structural changes in statement order. Statements that fail to parse
// are collected into the returned error; changes from the statements
// that succeeded are still returned.
func (p *Parser) Parse(ddl string, tables *schema.Tables) ([]schema.ChangeEvent, error) {
	var (
		changes []schema.ChangeEvent
		errs    []error
	)
	for _, stmt := range splitStatements(ddl) {
		stmtChanges, err := p.parseStatement(stmt, tables)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		changes = append(changes, stmtChanges...)
	}
	switch len(errs) {
	case 0:
		return changes, nil
	case 1:
		return changes, errs[0]
	default:
		return changes, &MultipleParsingErrors{Errors: errs}
	}
}

var (
	reCreateTable = regexp.MustCompile(`(?is)^CREATE\s+(?:TEMPORARY\s+)?TABLE\s+(?:IF\s+NOT\s+EXISTS\s+)?`)
	reAlterTable  = regexp.MustCompile(`(?is)^ALTER\s+(?:IGNORE\s+)?TABLE\s+(?:IF\s+EXISTS\s+)?`)
	reDropTable   = regexp.MustCompile(`(?is)^DROP\s+(?:TEMPORARY\s+)?TABLE\s+(?:IF\s+EXISTS\s+)?`)
	reRenameTable = regexp.MustCompile(`(?is)^RENAME\s+TABLE\s+`)
	reTruncate    = regexp.MustCompile(`(?is)^TRUNCATE\s+(?:TABLE\s+)?`)
	reCreateIndex = regexp.MustCompile(`(?is)^CREATE\s+(?:UNIQUE\s+|FULLTEXT\s+|SPATIAL\s+)?INDEX\s+\S+\s+(?:USING\s+\S+\s+)?ON\s+([^\s(;]+)`)
	reDropIndex   = regexp.MustCompile(`(?is)^DROP\s+INDEX\s+\S+\s+ON\s+([^\s(;]+)`)
	reCreateDB    = regexp.MustCompile(`(?is)^CREATE\s+(?:DATABASE|SCHEMA)\s+(?:IF\s+NOT\s+EXISTS\s+)?([^\s;]+)`)
	reDropDB      = regexp.MustCompile(`(?is)^DROP\s+(?:DATABASE|SCHEMA)\s+(?:IF\s+EXISTS\s+)?([^\s;]+)`)
	reUse         = regexp.MustCompile(`(?is)^USE\s+([^\s;]+)`)
)

// Statement head keywords that never change table structure.
var passthroughPrefixes = []string{
	"SET ", "BEGIN", "COMMIT", "ROLLBACK", "START TRANSACTION", "SAVEPOINT ", "RELEASE ",
	"FLUSH ", "GRANT ", "REVOKE ", "ANALYZE ", "OPTIMIZE ", "REPAIR ",
	"INSERT ", "UPDATE ", "DELETE ", "REPLACE ", "SELECT ", "CALL ",
	"LOCK ", "UNLOCK ", "KILL ", "DO ",
	"CREATE VIEW ", "CREATE OR REPLACE VIEW ", "ALTER VIEW ", "DROP VIEW ",
	"CREATE USER ", "ALTER USER ", "DROP USER ", "RENAME USER ",
	"CREATE FUNCTION ", "DROP FUNCTION ", "CREATE PROCEDURE ", "DROP PROCEDURE ",
	"CREATE TRIGGER ", "DROP TRIGGER ", "CREATE EVENT ", "ALTER EVENT ", "DROP EVENT ",
	"CREATE DEFINER", "ALTER DATABASE ", "ALTER SCHEMA ",
}

func (p *Parser) parseStatement(stmt string, tables *schema.Tables) ([]schema.ChangeEvent, error) {
	upper := strings.ToUpper(stmt)

	if m := reUse.FindStringSubmatch(stmt); m != nil {
		p.currentSchema = unquote(m[1])
		return nil, nil
	}
	for _, prefix := range passthroughPrefixes {
		if strings.HasPrefix(upper, prefix) || upper == strings.TrimSpace(prefix) {
			return nil, nil
		}
	}

	switch {
	case reCreateTable.MatchString(stmt):
		return p.parseCreateTable(stmt, tables)
	case reAlterTable.MatchString(stmt):
		return p.parseAlterTable(stmt, tables)
	case reDropTable.MatchString(stmt):
		return p.parseDropTable(stmt, tables)
	case reRenameTable.MatchString(stmt):
		return p.parseRenameTable(stmt, tables)
	case reTruncate.MatchString(stmt):
		// Truncation clears data, not structure.
		return nil, nil
	case reCreateIndex.MatchString(stmt):
		id := p.resolve(tables, reCreateIndex.FindStringSubmatch(stmt)[1])
		return []schema.ChangeEvent{{Type: schema.IndexCreated, ID: id, Database: id.Catalog}}, nil
	case reDropIndex.MatchString(stmt):
		id := p.resolve(tables, reDropIndex.FindStringSubmatch(stmt)[1])
		return []schema.ChangeEvent{{Type: schema.IndexDropped, ID: id, Database: id.Catalog}}, nil
	case reCreateDB.MatchString(stmt):
		db := tables.ID(unquote(reCreateDB.FindStringSubmatch(stmt)[1]), "").Catalog
		return []schema.ChangeEvent{{Type: schema.DatabaseCreated, Database: db}}, nil
	case reDropDB.MatchString(stmt):
		return p.parseDropDatabase(stmt, tables)
	default:
		return nil, &ParsingError{DDL: stmt, Msg: "unrecognized statement"}
	}
}

func (p *Parser) parseCreateTable(stmt string, tables *schema.Tables) ([]schema.ChangeEvent, error) {
	rest := stmt[reCreateTable.FindStringIndex(stmt)[1]:]
	name, rest := readName(rest)
	if name == "" {
		return nil, &ParsingError{DDL: stmt, Msg: "missing table name"}
	}
	id := p.resolve(tables, name)
	rest = strings.TrimSpace(rest)

	if upper := strings.ToUpper(rest); strings.HasPrefix(upper, "LIKE ") {
		srcID := p.resolve(tables, strings.TrimSpace(rest[len("LIKE "):]))
		src := tables.TableFor(srcID)
		if src == nil {
			return nil, &ParsingError{DDL: stmt, Msg: "source table of LIKE not found: " + srcID.String()}
		}
		def := src.Clone()
		def.ID = id
		tables.Overwrite(def)
		return []schema.ChangeEvent{{Type: schema.TableCreated, ID: id, Database: id.Catalog}}, nil
	}

	block, ok := parenBlock(rest)
	if !ok {
		return nil, &ParsingError{DDL: stmt, Msg: "missing column list"}
	}
	cols, pk, err := parseColumns(block)
	if err != nil {
		return nil, &ParsingError{DDL: stmt, Msg: err.Error()}
	}
	tables.Overwrite(&schema.TableDefinition{ID: id, Columns: cols, PrimaryKey: pk})
	return []schema.ChangeEvent{{Type: schema.TableCreated, ID: id, Database: id.Catalog}}, nil
}

func (p *Parser) parseAlterTable(stmt string, tables *schema.Tables) ([]schema.ChangeEvent, error) {
	rest := stmt[reAlterTable.FindStringIndex(stmt)[1]:]
	name, rest := readName(rest)
	if name == "" {
		return nil, &ParsingError{DDL: stmt, Msg: "missing table name"}
	}
	id := p.resolve(tables, name)
	def := tables.TableFor(id)
	if def == nil {
		return nil, &ParsingError{DDL: stmt, Msg: "unknown table: " + id.String()}
	}

	work := def.Clone()
	var renamedTo schema.TableId
	for _, op := range splitTopLevel(rest, ',') {
		op = strings.TrimSpace(op)
		if op == "" {
			continue
		}
		newID, err := p.applyAlterOp(op, work, tables)
		if err != nil {
			return nil, &ParsingError{DDL: stmt, Msg: err.Error()}
		}
		if !newID.IsZero() {
			renamedTo = newID
		}
	}

	if !renamedTo.IsZero() {
		tables.Remove(id)
		work.ID = renamedTo
		tables.Overwrite(work)
		return []schema.ChangeEvent{
			{Type: schema.TableDropped, ID: id, Database: id.Catalog},
			{Type: schema.TableCreated, ID: renamedTo, Database: renamedTo.Catalog},
		}, nil
	}
	tables.Overwrite(work)
	return []schema.ChangeEvent{{Type: schema.TableAltered, ID: id, Database: id.Catalog}}, nil
}

func (p *Parser) parseDropTable(stmt string, tables *schema.Tables) ([]schema.ChangeEvent, error) {
	rest := stmt[reDropTable.FindStringIndex(stmt)[1]:]
	rest = strings.TrimSuffix(strings.TrimSpace(rest), ";")
	// Trailing RESTRICT/CASCADE are noise for structure.
	for _, suffix := range []string{" RESTRICT", " CASCADE"} {
		if strings.HasSuffix(strings.ToUpper(rest), suffix) {
			rest = rest[:len(rest)-len(suffix)]
		}
	}
	var changes []schema.ChangeEvent
	for _, name := range splitTopLevel(rest, ',') {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		id := p.resolve(tables, name)
		tables.Remove(id)
		changes = append(changes, schema.ChangeEvent{Type: schema.TableDropped, ID: id, Database: id.Catalog})
	}
	if len(changes) == 0 {
		return nil, &ParsingError{DDL: stmt, Msg: "missing table name"}
	}
	return changes, nil
}

func (p *Parser) parseRenameTable(stmt string, tables *schema.Tables) ([]schema.ChangeEvent, error) {
	rest := stmt[reRenameTable.FindStringIndex(stmt)[1]:]
	var changes []schema.ChangeEvent
	for _, pair := range splitTopLevel(rest, ',') {
		parts := regexp.MustCompile(`(?i)\s+TO\s+`).Split(strings.TrimSpace(pair), 2)
		if len(parts) != 2 {
			return nil, &ParsingError{DDL: stmt, Msg: "malformed RENAME TABLE clause: " + pair}
		}
		oldID := p.resolve(tables, strings.TrimSpace(parts[0]))
		newID := p.resolve(tables, strings.TrimSuffix(strings.TrimSpace(parts[1]), ";"))
		def := tables.TableFor(oldID)
		if def == nil {
			return nil, &ParsingError{DDL: stmt, Msg: "unknown table: " + oldID.String()}
		}
		renamed := def.Clone()
		renamed.ID = newID
		tables.Remove(oldID)
		tables.Overwrite(renamed)
		changes = append(changes,
			schema.ChangeEvent{Type: schema.TableDropped, ID: oldID, Database: oldID.Catalog},
			schema.ChangeEvent{Type: schema.TableCreated, ID: newID, Database: newID.Catalog},
		)
	}
	return changes, nil
}

func (p *Parser) parseDropDatabase(stmt string, tables *schema.Tables) ([]schema.ChangeEvent, error) {
	db := tables.ID(unquote(reDropDB.FindStringSubmatch(stmt)[1]), "").Catalog
	var changes []schema.ChangeEvent
	for _, id := range tables.IDs() {
		if id.Catalog != db {
			continue
		}
		tables.Remove(id)
		changes = append(changes, schema.ChangeEvent{Type: schema.TableDropped, ID: id, Database: db})
	}
	changes = append(changes, schema.ChangeEvent{Type: schema.DatabaseDropped, Database: db})
	return changes, nil
}

// resolve builds a normalized table id from a possibly qualified,
// possibly backtick-quoted name. Unqualified names fall back to the
// current default schema.
func (p *Parser) resolve(tables *schema.Tables, name string) schema.TableId {
	parts := splitQualified(strings.TrimSpace(name))
	if len(parts) >= 2 {
		return tables.ID(parts[len(parts)-2], parts[len(parts)-1])
	}
	return tables.ID(p.currentSchema, parts[0])
}
