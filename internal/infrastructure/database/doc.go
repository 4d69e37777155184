// Package database owns the bridge's SQLite file: opening it with WAL
// and a single-connection pool, applying the embedded schema
// migrations, and exposing the *sql.DB the state-history and audit
// repositories share.
//
// Migrations are versioned .up.sql/.down.sql pairs embedded at build
// time; Migrate applies pending ones in order, each in its own
// transaction, and records them in schema_migrations. They are written
// additive-only so a rollback never loses user data.
//
//	db, err := database.Open(cfg)
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//	if err := db.Migrate(ctx); err != nil {
//	    return err
//	}
package database
