package main

import (
	"fmt"
	"os"
	"path/filepath"

	"moneyflow/internal/cli"
	"moneyflow/internal/log"
	"moneyflow/internal/storage"
)

type migrateCmd struct {
	Up      migrateUpCmd      `cmd:"" default:"1" help:"Apply pending migrations."`
	Down    migrateDownCmd    `cmd:"" help:"Roll back applied migrations."`
	Version migrateVersionCmd `cmd:"" help:"Print the applied schema version."`
}

type migrateUpCmd struct {
	DB string `name:"db" env:"SQLITE_DB_PATH" default:"./data/moneyflow.db" help:"SQLite database file."`
}

func (c *migrateUpCmd) Run() error {
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), log.ComponentStorage)
	if err := os.MkdirAll(filepath.Dir(c.DB), 0755); err != nil {
		return fmt.Errorf("create db directory: %w", err)
	}
	if err := storage.RunMigrations(c.DB); err != nil {
		return err
	}
	return reportVersion(logger, c.DB, "Migrations applied")
}

type migrateDownCmd struct {
	DB    string `name:"db" env:"SQLITE_DB_PATH" default:"./data/moneyflow.db" help:"SQLite database file."`
	Steps int    `default:"1" help:"Number of migrations to roll back."`
}

func (c *migrateDownCmd) Run() error {
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), log.ComponentStorage)
	if c.Steps < 1 {
		return fmt.Errorf("steps must be at least 1, got %d", c.Steps)
	}
	if err := storage.RollbackMigrations(c.DB, c.Steps); err != nil {
		return err
	}
	return reportVersion(logger, c.DB, "Migrations rolled back")
}

type migrateVersionCmd struct {
	DB string `name:"db" env:"SQLITE_DB_PATH" default:"./data/moneyflow.db" help:"SQLite database file."`
}

func (c *migrateVersionCmd) Run() error {
	version, dirty, err := storage.MigrationVersion(c.DB)
	if err != nil {
		return err
	}
	fmt.Printf("version %d (dirty: %t)\n", version, dirty)
	return nil
}

func reportVersion(logger *log.Logger, dbPath, msg string) error {
	version, dirty, err := storage.MigrationVersion(dbPath)
	if err != nil {
		return err
	}
	logger.Info(msg, "db_path", dbPath, "version", version, "dirty", dirty)
	return nil
}
