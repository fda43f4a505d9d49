package db

import (
	"database/sql"
	"fmt"
)

// migrations is a list of SQL statements applied in order after schema
// creation. Each migration must be idempotent. Append new migrations at the
// end.
var migrations = []string{}

// Migrate creates the schema and runs any pending migrations.
func Migrate(db *sql.DB) error {
	if err := EnsureSchema(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	for i, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return fmt.Errorf("running migration %d: %w", i+1, err)
		}
	}

	return nil
}
