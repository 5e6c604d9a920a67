// Package invites generates and seeds single-use registration codes.
package invites

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"math/big"

	"gatepost/internal/middleware"
	"gatepost/internal/models"
	"gatepost/internal/repository"
)

const (
	// CodeLength is the fixed length of every invite code.
	CodeLength = 8
	alphabet   = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	// The generator draws fresh candidates until it has n distinct codes.
	// With a 36^8 space collisions are vanishingly rare, so hitting this
	// bound means the RNG or the requested count is broken.
	maxAttemptsPerCode = 10

	seedBatchSize = 100
)

// Generate produces n globally-unique invite codes. It fails rather than
// silently returning fewer codes when it cannot avoid collisions.
func Generate(n int) ([]string, error) {
	if n <= 0 {
		return nil, fmt.Errorf("invite count must be positive, got %d", n)
	}

	seen := make(map[string]struct{}, n)
	codes := make([]string, 0, n)
	attempts := 0
	limit := n * maxAttemptsPerCode

	for len(codes) < n {
		if attempts >= limit {
			return nil, fmt.Errorf("gave up generating invite codes after %d attempts (%d of %d produced)", attempts, len(codes), n)
		}
		attempts++

		code, err := randomCode()
		if err != nil {
			return nil, fmt.Errorf("failed to draw random invite code: %w", err)
		}
		if _, dup := seen[code]; dup {
			continue
		}
		seen[code] = struct{}{}
		codes = append(codes, code)
	}

	return codes, nil
}

func randomCode() (string, error) {
	buf := make([]byte, CodeLength)
	max := big.NewInt(int64(len(alphabet)))
	for i := range buf {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		buf[i] = alphabet[idx.Int64()]
	}
	return string(buf), nil
}

// Seeder inserts generated codes into the invite ledger.
type Seeder struct {
	invites repository.InviteRepository
}

// NewSeeder creates a new invite seeder.
func NewSeeder(invites repository.InviteRepository) *Seeder {
	return &Seeder{invites: invites}
}

// SeedUpTo tops the ledger up to target total codes. It is idempotent: when
// the ledger already holds target or more codes it does nothing.
func (s *Seeder) SeedUpTo(ctx context.Context, target int) (int, error) {
	existing, err := s.invites.Count(ctx)
	if err != nil {
		return 0, err
	}
	missing := target - int(existing)
	if missing <= 0 {
		middleware.Logger.Info("Invite ledger already seeded",
			slog.Int64("existing", existing),
			slog.Int("target", target),
		)
		return 0, nil
	}

	codes, err := Generate(missing)
	if err != nil {
		return 0, err
	}

	rows := make([]models.InviteCode, len(codes))
	for i, code := range codes {
		rows[i] = models.InviteCode{Code: code}
	}
	if err := s.invites.CreateBatch(ctx, rows, seedBatchSize); err != nil {
		return 0, err
	}

	middleware.Logger.Info("Seeded invite codes",
		slog.Int("created", len(rows)),
		slog.Int("target", target),
	)
	return len(rows), nil
}
