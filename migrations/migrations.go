package main

import (
	"database/sql"
	"fmt"
	"log"
	"log/slog"
	"os"

	"scorekeeper/config"

	_ "github.com/lib/pq"
)

// Applies migrations/<n>.sql in order, starting after the recorded version.
func main() {
	cfg := config.Env()
	connStr := fmt.Sprintf("%s search_path=%s", cfg.DSN(), config.Schema)
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()
	version, err := getMigrationVersion(db)
	if err != nil {
		log.Fatal(err)
	}

	for {
		version++
		err = migrateUp(db, version)
		if err != nil {
			break
		}
	}
}

func migrateUp(db *sql.DB, version int) error {
	file, err := os.ReadFile(fmt.Sprintf("migrations/%d.sql", version))
	if err != nil {
		slog.Info("cannot migrate further up", "version", version-1)
		return err
	}
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if _, err = tx.Exec(string(file)); err != nil {
		slog.Error("error executing migration", "version", version, "error", err)
		return err
	}
	if _, err = tx.Exec("UPDATE migrations SET version = $1", version); err != nil {
		slog.Error("error updating migration version", "version", version, "error", err)
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	slog.Info("migrated", "version", version)
	return nil
}

func getMigrationVersion(db *sql.DB) (version int, err error) {
	if _, err := db.Exec("CREATE SCHEMA IF NOT EXISTS " + config.Schema); err != nil {
		return 0, err
	}
	err = db.QueryRow("SELECT version FROM migrations").Scan(&version)
	if err != nil {
		err := generateMigrationTable(db)
		if err != nil {
			return 0, err
		}
		return 0, nil
	}
	return version, nil
}

func generateMigrationTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS migrations (
			version INT PRIMARY KEY
		);
		INSERT INTO migrations (version) VALUES (0);
	`)
	return err
}
