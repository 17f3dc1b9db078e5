package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/alexanderjulianmartinez/schema-track/internal/config"
	"github.com/alexanderjulianmartinez/schema-track/internal/drift"
	"github.com/alexanderjulianmartinez/schema-track/internal/filter"
	"github.com/alexanderjulianmartinez/schema-track/internal/history"
	"github.com/alexanderjulianmartinez/schema-track/internal/parser"
	"github.com/alexanderjulianmartinez/schema-track/internal/schema"
	"github.com/alexanderjulianmartinez/schema-track/internal/source/mysql"
	"github.com/alexanderjulianmartinez/schema-track/pkg/types"
)

func main() {
	if err := run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "schematrack error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) < 2 {
		printUsage()
		return nil
	}

	switch args[1] {
	case "apply":
		return runApply(args[2:])
	case "replay":
		return runReplay(args[2:])
	case "snapshot":
		return runSnapshot(args[2:])
	case "verify":
		return runVerify(args[2:])
	case "help", "--help", "-h":
		printUsage()
		return nil
	default:
		return fmt.Errorf("unknown command: %s", args[1])
	}
}

func runApply(args []string) error {
	fs := flag.NewFlagSet("apply", flag.ContinueOnError)
	configPath := fs.String("config", "", "Path to config.yaml")
	ddlPath := fs.String("file", "-", "DDL input file, - for stdin")
	database := fs.String("database", "", "Default database the statements execute under")

	if err := fs.Parse(args); err != nil {
		return err
	}

	_, applier, err := load(*configPath)
	if err != nil {
		return err
	}

	if applier.HistoryExists() {
		if err := applier.LoadHistory(); err != nil {
			return err
		}
	}

	ddl, err := readInput(*ddlPath)
	if err != nil {
		return err
	}

	event := schema.SchemaChangeEvent{
		Database: *database,
		DDL:      ddl,
		Type:     schema.SchemaChangeRaw,
		Source:   map[string]string{},
	}
	tableChanges, err := applier.ApplySchemaChange(event, printConsumer)
	if err != nil {
		return err
	}
	for _, change := range tableChanges {
		fmt.Printf("%s %s\n", change.Type, change.ID)
	}
	printTables(applier.Registry())
	return nil
}

func runReplay(args []string) error {
	fs := flag.NewFlagSet("replay", flag.ContinueOnError)
	configPath := fs.String("config", "", "Path to config.yaml")

	if err := fs.Parse(args); err != nil {
		return err
	}

	_, applier, err := load(*configPath)
	if err != nil {
		return err
	}
	if err := applier.LoadHistory(); err != nil {
		return err
	}
	printTables(applier.Registry())
	return nil
}

func runSnapshot(args []string) error {
	fs := flag.NewFlagSet("snapshot", flag.ContinueOnError)
	configPath := fs.String("config", "", "Path to config.yaml")

	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, applier, err := load(*configPath)
	if err != nil {
		return err
	}
	if cfg.Source.DSN == "" {
		return fmt.Errorf("snapshot requires a source.dsn in the config")
	}
	filters, err := filter.New(cfg.Filters)
	if err != nil {
		return err
	}

	inspector, err := mysql.NewInspector(cfg.Source.DSN)
	if err != nil {
		return err
	}
	defer inspector.Close()

	stmts, err := inspector.Snapshot(context.Background(), filters.DatabaseIncluded)
	if err != nil {
		return err
	}
	for _, stmt := range stmts {
		event := schema.SchemaChangeEvent{
			Database:     stmt.Database,
			DDL:          stmt.DDL,
			Type:         schema.SchemaChangeRaw,
			Source:       map[string]string{"snapshot": "true"},
			FromSnapshot: true,
		}
		if _, err := applier.ApplySchemaChange(event, nil); err != nil {
			return err
		}
	}
	fmt.Printf("Snapshot recorded %d tables\n", len(stmts))
	printTables(applier.Registry())
	return nil
}

func runVerify(args []string) error {
	fs := flag.NewFlagSet("verify", flag.ContinueOnError)
	configPath := fs.String("config", "", "Path to config.yaml")

	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, applier, err := load(*configPath)
	if err != nil {
		return err
	}
	if cfg.Source.DSN == "" {
		return fmt.Errorf("verify requires a source.dsn in the config")
	}
	filters, err := filter.New(cfg.Filters)
	if err != nil {
		return err
	}
	if err := applier.LoadHistory(); err != nil {
		return err
	}

	inspector, err := mysql.NewInspector(cfg.Source.DSN)
	if err != nil {
		return err
	}
	defer inspector.Close()

	live, err := fetchLive(context.Background(), inspector, applier.Registry().Tables(), filters)
	if err != nil {
		return err
	}

	report := drift.Validate(live, applier.Registry())
	for _, result := range summarize(report) {
		fmt.Printf("%-40s %s (%d issues)\n", result.Table, result.Status, result.Issues)
	}
	for _, issue := range report.Issues {
		name := issue.Table
		if issue.Column != "" {
			name += "." + issue.Column
		}
		fmt.Printf("  [%s] %s: %s", issue.Severity, name, issue.Message)
		if issue.FromType != "" || issue.ToType != "" {
			fmt.Printf(" (%s -> %s)", issue.FromType, issue.ToType)
		}
		fmt.Println()
	}
	if report.Blocking() {
		return fmt.Errorf("recovered history cannot decode the live schema")
	}
	fmt.Println("Recovered history matches the live schema")
	return nil
}

// load builds the applier stack from a config file.
func load(configPath string) (*config.Config, *schema.Applier, error) {
	if configPath == "" {
		return nil, nil, fmt.Errorf("missing required flag: --config")
	}
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, nil, err
	}
	filters, err := filter.New(cfg.Filters)
	if err != nil {
		return nil, nil, err
	}
	store, err := openStore(cfg.History)
	if err != nil {
		return nil, nil, err
	}
	builder := schema.NewWireSchemaBuilder(func(id schema.TableId, column string) bool {
		return filters.ColumnIncluded(id.Catalog, id.Table, column)
	})
	registry := schema.NewRegistry(cfg.CaseInsensitive, builder)
	applier := schema.NewApplier(parser.New(), filters, store, registry)
	return cfg, applier, nil
}

func openStore(cfg config.HistoryConfig) (history.Store, error) {
	opts := history.Options{
		OnlyMonitoredTables: cfg.StoreOnlyMonitored,
		SkipUnparseable:     cfg.SkipUnparseable,
	}
	switch cfg.Type {
	case "file":
		return history.NewFileStore(cfg.Path, opts), nil
	case "kafka":
		return history.NewKafkaStore(cfg.Brokers, cfg.Topic, opts), nil
	case "memory":
		return history.NewMemoryStore(opts), nil
	default:
		return nil, fmt.Errorf("unsupported history type: %q", cfg.Type)
	}
}

func fetchLive(ctx context.Context, inspector *mysql.Inspector, tables *schema.Tables, filters *filter.Filters) ([]*schema.TableDefinition, error) {
	databases, err := inspector.FetchDatabases(ctx)
	if err != nil {
		return nil, err
	}
	var defs []*schema.TableDefinition
	for _, database := range databases {
		if !filters.DatabaseIncluded(database) {
			continue
		}
		names, err := inspector.FetchTableNames(ctx, database)
		if err != nil {
			return nil, err
		}
		for _, name := range names {
			id := tables.ID(database, name)
			if !filters.TableIncluded(id) {
				continue
			}
			cols, pk, err := inspector.FetchTable(ctx, database, name)
			if err != nil {
				return nil, err
			}
			defs = append(defs, &schema.TableDefinition{ID: id, Columns: cols, PrimaryKey: pk})
		}
	}
	return defs, nil
}

func summarize(report *drift.Report) []types.VerifyResult {
	byTable := map[string]*types.VerifyResult{}
	var order []string
	for _, issue := range report.Issues {
		result, ok := byTable[issue.Table]
		if !ok {
			result = &types.VerifyResult{Table: issue.Table, Status: "OK"}
			byTable[issue.Table] = result
			order = append(order, issue.Table)
		}
		result.Drift = true
		result.Issues++
		if issue.Severity == drift.SeverityBlock ||
			(issue.Severity == drift.SeverityWarn && result.Status != drift.SeverityBlock) {
			result.Status = issue.Severity
		} else if result.Status == "OK" {
			result.Status = issue.Severity
		}
	}
	out := make([]types.VerifyResult, 0, len(order))
	for _, table := range order {
		out = append(out, *byTable[table])
	}
	return out
}

func printConsumer(event schema.SchemaChangeEvent, affected []schema.TableId) {
	names := make([]string, len(affected))
	for i, id := range affected {
		names[i] = id.String()
	}
	fmt.Printf("%s %s: %s", event.Type, event.Database, event.DDL)
	if len(names) > 0 {
		fmt.Printf(" (tables: %s)", strings.Join(names, ","))
	}
	fmt.Println()
}

func printTables(registry *schema.Registry) {
	tables := registry.MonitoredTables()
	fmt.Printf("Monitored tables: %d\n", len(tables))
	for _, table := range tables {
		fmt.Printf("  %s\n", table)
	}
}

func readInput(path string) (string, error) {
	if path == "-" {
		b, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(b), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read DDL file: %w", err)
	}
	return string(b), nil
}

func printUsage() {
	fmt.Print(`schematrack - DDL schema history tracker

Usage:
  schematrack apply    --config <path> [--file <ddl>] [--database <db>]
  schematrack replay   --config <path>
  schematrack snapshot --config <path>
  schematrack verify   --config <path>

Commands:
  apply     Apply DDL statements and record them in the schema history
  replay    Recover schema state from the recorded history
  snapshot  Seed the history from a live MySQL server
  verify    Compare recovered schema state against the live server
  help      Show this help message
`)
}
