package limiter

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Postgres keeps the failure counters in the auth_limiter table so the
// throttle survives restarts and is shared across server instances.
type Postgres struct {
	db     querier
	policy Policy
}

// NewPostgres builds the limiter on a live pool.
func NewPostgres(pool *pgxpool.Pool, p Policy) *Postgres {
	return &Postgres{db: pool, policy: p}
}

func newWithQuerier(q querier, p Policy) *Postgres {
	return &Postgres{db: q, policy: p}
}

// Allow checks for an active lockout on (email, ip).
func (l *Postgres) Allow(ctx context.Context, email string, ipHash []byte) (bool, time.Duration, error) {
	const q = `SELECT blocked_until FROM auth_limiter WHERE email=$1 AND ip_hash=$2`

	var blockedUntil time.Time
	err := l.db.QueryRow(ctx, q, email, ipHash).Scan(&blockedUntil)
	if errors.Is(err, pgx.ErrNoRows) {
		return true, 0, nil
	}
	if err != nil {
		return false, 0, err
	}
	if remaining := time.Until(blockedUntil); remaining > 0 {
		return false, remaining, nil
	}
	return true, 0, nil
}

// Success zeroes the failure count for (email, ip).
func (l *Postgres) Success(ctx context.Context, email string, ipHash []byte) error {
	const q = `
INSERT INTO auth_limiter (email, ip_hash, fail_count, blocked_until, updated_at)
VALUES ($1,$2,0,'epoch',now())
ON CONFLICT (email, ip_hash)
DO UPDATE SET fail_count=0, blocked_until='epoch', updated_at=now()`

	_, err := l.db.Exec(ctx, q, email, ipHash)
	return err
}

// Failure bumps the counter, restarting it when the previous failure fell
// outside the window, and installs a lockout at the threshold.
func (l *Postgres) Failure(ctx context.Context, email string, ipHash []byte) (bool, time.Duration, error) {
	const bump = `
INSERT INTO auth_limiter (email, ip_hash, fail_count, blocked_until, updated_at)
VALUES ($1,$2,1,'epoch',now())
ON CONFLICT (email, ip_hash) DO UPDATE
SET
  fail_count = CASE WHEN EXCLUDED.updated_at - auth_limiter.updated_at > $3::interval THEN 1 ELSE auth_limiter.fail_count + 1 END,
  updated_at = now()
RETURNING fail_count`

	var fails int
	if err := l.db.QueryRow(ctx, bump, email, ipHash, l.policy.Window).Scan(&fails); err != nil {
		return false, 0, err
	}
	if fails < l.policy.MaxFails {
		return false, 0, nil
	}

	const lock = `UPDATE auth_limiter SET blocked_until=$3 WHERE email=$1 AND ip_hash=$2`
	if _, err := l.db.Exec(ctx, lock, email, ipHash, time.Now().Add(l.policy.BlockFor)); err != nil {
		return false, 0, err
	}
	return true, l.policy.BlockFor, nil
}
