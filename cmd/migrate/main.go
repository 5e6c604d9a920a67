// Command migrate runs schema operations for the Gatepost database.
package main

import (
	"flag"
	"fmt"
	"log"
	"strings"

	"gatepost/internal/config"
	"gatepost/internal/database"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func usage() error {
	return fmt.Errorf("usage: migrate <up|auto|status>")
}

func run() error {
	flag.Parse()
	if flag.NArg() < 1 {
		return usage()
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := database.ConnectWithOptions(cfg, database.ConnectOptions{ApplySchema: false})
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}

	switch strings.ToLower(strings.TrimSpace(flag.Arg(0))) {
	case "up":
		if err := database.Migrate(db); err != nil {
			return fmt.Errorf("sql migrations failed: %w", err)
		}
		log.Println("sql migrations applied")
	case "auto":
		if err := db.AutoMigrate(database.PersistentModels()...); err != nil {
			return fmt.Errorf("automigration failed: %w", err)
		}
		log.Println("automigrations applied")
	case "status":
		applied, err := database.AppliedMigrations(db)
		if err != nil {
			return fmt.Errorf("migration status failed: %w", err)
		}
		if len(applied) == 0 {
			log.Println("no migrations applied")
			return nil
		}
		for _, m := range applied {
			log.Printf("%04d %s applied at %s", m.Version, m.Name, m.AppliedAt.Format("2006-01-02 15:04:05"))
		}
	default:
		return usage()
	}
	return nil
}
