package storage

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/jmoiron/sqlx"
)

// VersionTable records every schema version realized by InitSchema.
const VersionTable = "schema_version"

const versionTableDDL = `
CREATE TABLE IF NOT EXISTS schema_version (
    version TEXT PRIMARY KEY,
    applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
)`

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Schema is the declarative list of structures the application stores.
// It is supplied by the caller; storage has no knowledge of its shape.
type Schema struct {
	Version string // Semantic version of the table set, "0.0.0" when empty
	Tables  []Table
}

// Table describes one table. Columns holds column and table-constraint
// definitions verbatim.
type Table struct {
	Name    string
	Columns []string
	Indexes []Index
}

// Index describes a secondary index on a table.
type Index struct {
	Name    string
	Columns []string
	Unique  bool
}

// Validate checks identifiers and that the version parses.
func (s Schema) Validate() error {
	if _, err := s.version(); err != nil {
		return err
	}
	seen := make(map[string]bool, len(s.Tables))
	for _, t := range s.Tables {
		if !identifier.MatchString(t.Name) {
			return fmt.Errorf("invalid table name %q", t.Name)
		}
		if strings.EqualFold(t.Name, VersionTable) {
			return fmt.Errorf("table name %q is reserved", t.Name)
		}
		if seen[t.Name] {
			return fmt.Errorf("duplicate table %q", t.Name)
		}
		seen[t.Name] = true
		if len(t.Columns) == 0 {
			return fmt.Errorf("table %q has no columns", t.Name)
		}
		for _, idx := range t.Indexes {
			if !identifier.MatchString(idx.Name) {
				return fmt.Errorf("invalid index name %q on table %q", idx.Name, t.Name)
			}
			if len(idx.Columns) == 0 {
				return fmt.Errorf("index %q has no columns", idx.Name)
			}
		}
	}
	return nil
}

func (s Schema) version() (*semver.Version, error) {
	if s.Version == "" {
		return semver.MustParse("0.0.0"), nil
	}
	v, err := semver.NewVersion(s.Version)
	if err != nil {
		return nil, fmt.Errorf("invalid schema version %s: %w", s.Version, err)
	}
	return v, nil
}

func (t Table) createSQL() string {
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n    %s\n)",
		t.Name, strings.Join(t.Columns, ",\n    "))
}

func (i Index) createSQL(table string) string {
	unique := ""
	if i.Unique {
		unique = "UNIQUE "
	}
	return fmt.Sprintf("CREATE %sINDEX IF NOT EXISTS %s ON %s(%s)",
		unique, i.Name, table, strings.Join(i.Columns, ", "))
}

// InitSchema creates every table and index of the schema that does not yet
// exist and records the schema version. Existing structures are never
// dropped or altered, so calling it repeatedly is safe. Errors are logged
// and returned; they do not stop the process.
func (c *Context) InitSchema(ctx context.Context) error {
	if err := c.initSchema(ctx); err != nil {
		c.logger.Error("failed to initialize database", "path", c.path, "error", err)
		return err
	}
	c.logger.Info("database initialized", "path", c.path, "schema_version", c.schema.Version)
	return nil
}

func (c *Context) initSchema(ctx context.Context) error {
	if err := c.schema.Validate(); err != nil {
		return err
	}
	target, _ := c.schema.version()

	tx, err := c.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin schema transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, versionTableDDL); err != nil {
		return fmt.Errorf("failed to create %s: %w", VersionTable, err)
	}

	for _, t := range c.schema.Tables {
		if _, err := tx.ExecContext(ctx, t.createSQL()); err != nil {
			return fmt.Errorf("failed to create table %s: %w", t.Name, err)
		}
		for _, idx := range t.Indexes {
			if _, err := tx.ExecContext(ctx, idx.createSQL(t.Name)); err != nil {
				return fmt.Errorf("failed to create index %s: %w", idx.Name, err)
			}
		}
	}

	current, err := storedVersion(ctx, tx)
	if err != nil {
		return err
	}
	switch {
	case current.LessThan(target):
		if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", target.Original()); err != nil {
			return fmt.Errorf("failed to record schema version %s: %w", target.Original(), err)
		}
	case target.LessThan(current):
		c.logger.Warn("database schema is newer than this build",
			"stored", current.Original(), "build", target.Original())
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit schema: %w", err)
	}
	return nil
}

// storedVersion returns the highest recorded version, 0.0.0 when none.
func storedVersion(ctx context.Context, q sqlx.QueryerContext) (*semver.Version, error) {
	var recorded []string
	if err := sqlx.SelectContext(ctx, q, &recorded, "SELECT version FROM schema_version"); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", VersionTable, err)
	}
	highest := semver.MustParse("0.0.0")
	for _, s := range recorded {
		v, err := semver.NewVersion(s)
		if err != nil {
			return nil, fmt.Errorf("invalid stored schema version %s: %w", s, err)
		}
		if highest.LessThan(v) {
			highest = v
		}
	}
	return highest, nil
}

// SchemaVersion returns the highest schema version recorded in the database.
func (c *Context) SchemaVersion(ctx context.Context) (string, error) {
	v, err := storedVersion(ctx, c.db)
	if err != nil {
		return "", err
	}
	return v.Original(), nil
}
