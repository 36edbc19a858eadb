// Package database opens the Tunnels SQLite database and applies its
// embedded schema migrations.
//
// Migrations are *.sql pairs named YYYYMMDD_HHMMSS_description.up.sql and
// .down.sql, registered by importing the migrations package for its side
// effect:
//
//	import _ "github.com/tunnelz/tunnels/migrations"
//
//	db, err := database.Open(cfg.Database)
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx); err != nil {
//	    return err
//	}
package database
