// Command invitegen generates invite codes and inserts them into the ledger.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"gatepost/internal/config"
	"gatepost/internal/database"
	"gatepost/internal/invites"
	"gatepost/internal/models"
	"gatepost/internal/repository"
)

func main() {
	count := flag.Int("count", 0, "Number of codes to generate (default: top up to INVITE_CODE_COUNT)")
	dryRun := flag.Bool("dry-run", false, "Print generated codes without inserting them")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if *dryRun {
		n := *count
		if n <= 0 {
			n = 10
		}
		codes, err := invites.Generate(n)
		if err != nil {
			log.Fatalf("Generation failed: %v", err)
		}
		for _, code := range codes {
			fmt.Println(code)
		}
		return
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	ctx := context.Background()
	repo := repository.NewInviteRepository(db)

	if *count <= 0 {
		created, err := invites.NewSeeder(repo).SeedUpTo(ctx, cfg.InviteCodeCount)
		if err != nil {
			log.Fatalf("Seeding failed: %v", err)
		}
		log.Printf("Created %d codes (ledger target %d)", created, cfg.InviteCodeCount)
		return
	}

	codes, err := invites.Generate(*count)
	if err != nil {
		log.Fatalf("Generation failed: %v", err)
	}
	rows := make([]models.InviteCode, len(codes))
	for i, code := range codes {
		rows[i] = models.InviteCode{Code: code}
	}
	if err := repo.CreateBatch(ctx, rows, 100); err != nil {
		log.Fatalf("Insert failed: %v", err)
	}
	log.Printf("Created %d codes", len(rows))
}
