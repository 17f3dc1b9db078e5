package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"github.com/alexanderjulianmartinez/schema-track/internal/schema"
)

// Inspector reads table structure from a live MySQL server via
// INFORMATION_SCHEMA. Used to seed the schema history before streaming
// begins and to verify recovered state against reality.
type Inspector struct {
	db      *sql.DB
	timeout time.Duration
}

func NewInspector(dsn string) (*Inspector, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("mysql ping failed: %w", err)
	}

	return &Inspector{
		db:      db,
		timeout: 5 * time.Second,
	}, nil
}

func (i *Inspector) Close() error { return i.db.Close() }

var systemSchemas = map[string]struct{}{
	"information_schema": {},
	"performance_schema": {},
	"mysql":              {},
	"sys":                {},
}

func (i *Inspector) FetchDatabases(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, i.timeout)
	defer cancel()

	rows, err := i.db.QueryContext(ctx, `SELECT SCHEMA_NAME FROM INFORMATION_SCHEMA.SCHEMATA`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var databases []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		if _, ok := systemSchemas[strings.ToLower(name)]; ok {
			continue
		}
		databases = append(databases, name)
	}
	return databases, rows.Err()
}

func (i *Inspector) FetchTableNames(ctx context.Context, database string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, i.timeout)
	defer cancel()

	rows, err := i.db.QueryContext(ctx, `
		SELECT TABLE_NAME
		FROM INFORMATION_SCHEMA.TABLES
		WHERE TABLE_SCHEMA = ? AND TABLE_TYPE = 'BASE TABLE'
		ORDER BY TABLE_NAME
	`, database)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		tables = append(tables, name)
	}
	return tables, rows.Err()
}

// FetchTable returns the column layout and primary key of one table.
func (i *Inspector) FetchTable(ctx context.Context, database, table string) ([]schema.Column, []string, error) {
	ctx, cancel := context.WithTimeout(ctx, i.timeout)
	defer cancel()

	rows, err := i.db.QueryContext(ctx, `
		SELECT COLUMN_NAME, COLUMN_TYPE, IS_NULLABLE, COLUMN_KEY
		FROM INFORMATION_SCHEMA.COLUMNS
		WHERE TABLE_SCHEMA = ? AND TABLE_NAME = ?
		ORDER BY ORDINAL_POSITION
	`, database, table)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	var cols []schema.Column
	var pk []string
	for rows.Next() {
		var name, columnType, nullable, key string
		if err := rows.Scan(&name, &columnType, &nullable, &key); err != nil {
			return nil, nil, err
		}
		cols = append(cols, schema.Column{
			Name:     name,
			Type:     strings.ToUpper(columnType),
			Nullable: nullable == "YES",
		})
		if key == "PRI" {
			pk = append(pk, name)
		}
	}
	return cols, pk, rows.Err()
}

// Statement is one synthetic DDL statement produced by a snapshot walk.
type Statement struct {
	Database string
	DDL      string
}

// Snapshot walks every non-system database admitted by the predicate
// and returns CREATE statements reproducing the current structure, in a
// form the DDL parser understands, so the walk can be applied and
// recorded like any other DDL stream.
func (i *Inspector) Snapshot(ctx context.Context, databaseIncluded func(string) bool) ([]Statement, error) {
	databases, err := i.FetchDatabases(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch databases: %w", err)
	}

	var stmts []Statement
	for _, database := range databases {
		if databaseIncluded != nil && !databaseIncluded(database) {
			continue
		}
		tables, err := i.FetchTableNames(ctx, database)
		if err != nil {
			return nil, fmt.Errorf("fetch tables of %s: %w", database, err)
		}
		for _, table := range tables {
			cols, pk, err := i.FetchTable(ctx, database, table)
			if err != nil {
				return nil, fmt.Errorf("fetch columns of %s.%s: %w", database, table, err)
			}
			stmts = append(stmts, Statement{
				Database: database,
				DDL:      buildCreateTable(database, table, cols, pk),
			})
		}
	}
	return stmts, nil
}

func buildCreateTable(database, table string, cols []schema.Column, pk []string) string {
	var defs []string
	for _, col := range cols {
		def := fmt.Sprintf("`%s` %s", col.Name, col.Type)
		if !col.Nullable {
			def += " NOT NULL"
		}
		defs = append(defs, def)
	}
	if len(pk) > 0 {
		quoted := make([]string, len(pk))
		for i, name := range pk {
			quoted[i] = "`" + name + "`"
		}
		defs = append(defs, fmt.Sprintf("PRIMARY KEY (%s)", strings.Join(quoted, ", ")))
	}
	return fmt.Sprintf("CREATE TABLE `%s`.`%s` (%s)", database, table, strings.Join(defs, ", "))
}
