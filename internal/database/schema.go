package database

import (
	"context"
	"fmt"

	"github.com/surrealdb/surrealdb.go"
)

// schemaStatements are idempotent definitions applied at boot: the account
// record-access method that backs signup/login, the unique username index,
// and the indexes the message queries order and filter on.
var schemaStatements = []string{
	`DEFINE TABLE IF NOT EXISTS user SCHEMALESS`,
	`DEFINE INDEX IF NOT EXISTS user_username ON user FIELDS username UNIQUE`,
	`DEFINE ACCESS IF NOT EXISTS account ON DATABASE TYPE RECORD
		SIGNUP (
			CREATE user SET
				username = $username,
				firstname = $firstname,
				lastname = $lastname,
				password = crypto::argon2::generate($password)
		)
		SIGNIN (
			SELECT * FROM user
			WHERE username = $username AND crypto::argon2::compare(password, $password)
		)
		DURATION FOR SESSION 7d`,
	`DEFINE TABLE IF NOT EXISTS message SCHEMALESS`,
	`DEFINE INDEX IF NOT EXISTS message_room ON message FIELDS room`,
	`DEFINE INDEX IF NOT EXISTS message_date_sent ON message FIELDS date_sent`,
}

// EnsureSchema applies the schema definitions. Safe to run on every boot.
func EnsureSchema(ctx context.Context, db *surrealdb.DB, ns, dbName string) error {
	if err := db.Use(ctx, ns, dbName); err != nil {
		return fmt.Errorf("failed to set database scope: %w", err)
	}
	for _, stmt := range schemaStatements {
		if err := Execute(ctx, db, stmt, nil); err != nil {
			return fmt.Errorf("failed to apply schema statement: %w", err)
		}
	}
	return nil
}
