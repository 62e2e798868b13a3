package user

import (
	"context"
	"database/sql"
	"fmt"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id BIGSERIAL PRIMARY KEY,
		first_name VARCHAR(50) NOT NULL,
		second_name VARCHAR(50) NOT NULL,
		phone_num VARCHAR(25) NOT NULL,
		email_add VARCHAR(100) NOT NULL,
		birth_date DATE NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS ix_users_first_name ON users (first_name)`,
	`CREATE INDEX IF NOT EXISTS ix_users_second_name ON users (second_name)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS ix_users_phone_num ON users (phone_num)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS ix_users_email_add ON users (email_add)`,
}

// EnsureSchema creates the users table and its indexes when missing.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure users schema: %w", err)
		}
	}
	return nil
}
