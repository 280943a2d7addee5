package loyalty

import (
	"context"
	"strings"

	pkgerrors "github.com/angelmondragon/smartcart/pkg/errors"
)

// DefaultBalance is the point balance granted to accounts without a stored one.
const DefaultBalance = 500

// BalanceProvider reports how many loyalty points an account can redeem.
type BalanceProvider interface {
	AvailablePoints(ctx context.Context, accountID string) (int, error)
}

// Static hands every account the same balance.
type Static struct {
	Points int
}

// NewStatic returns a provider with a fixed balance. Negative values clamp to zero.
func NewStatic(points int) Static {
	if points < 0 {
		points = 0
	}
	return Static{Points: points}
}

func (s Static) AvailablePoints(ctx context.Context, accountID string) (int, error) {
	return s.Points, nil
}

type balanceReader interface {
	LoyaltyBalance(ctx context.Context, accountID string) (int, bool, error)
}

// RedisBalance reads balances maintained by the loyalty service in Redis and
// falls back to a default for accounts it has never seen.
type RedisBalance struct {
	store    balanceReader
	fallback int
}

// NewRedisBalance wires the provider to a Redis-backed reader.
func NewRedisBalance(store balanceReader, fallback int) (*RedisBalance, error) {
	if store == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "loyalty balance store required")
	}
	if fallback < 0 {
		fallback = 0
	}
	return &RedisBalance{store: store, fallback: fallback}, nil
}

func (r *RedisBalance) AvailablePoints(ctx context.Context, accountID string) (int, error) {
	accountID = strings.TrimSpace(accountID)
	if accountID == "" {
		return r.fallback, nil
	}
	points, found, err := r.store.LoyaltyBalance(ctx, accountID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read loyalty balance")
	}
	if !found {
		return r.fallback, nil
	}
	if points < 0 {
		return 0, nil
	}
	return points, nil
}
