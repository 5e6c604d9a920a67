// Package bootstrap wires runtime dependencies for commands.
package bootstrap

import (
	"context"
	"fmt"

	"gatepost/internal/cache"
	"gatepost/internal/config"
	"gatepost/internal/database"
	"gatepost/internal/invites"
	"gatepost/internal/repository"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	// SeedInvites tops the invite ledger up to INVITE_CODE_COUNT on start.
	SeedInvites bool
}

// InitRuntime connects to the database and Redis and optionally seeds the
// invite ledger. The Redis client is nil when Redis is unreachable.
func InitRuntime(cfg *config.Config, opts Options) (*gorm.DB, *redis.Client, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}

	cache.InitRedis(cfg.RedisURL)
	r := cache.GetClient()

	if opts.SeedInvites && cfg.InviteCodeCount > 0 {
		seeder := invites.NewSeeder(repository.NewInviteRepository(db))
		if _, err := seeder.SeedUpTo(context.Background(), cfg.InviteCodeCount); err != nil {
			return nil, nil, fmt.Errorf("failed to seed invite codes: %w", err)
		}
	}

	return db, r, nil
}
