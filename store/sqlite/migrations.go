package sqlite

import (
	"context"

	"github.com/xraph/grove/migrate"
)

// Migrations is the grove migration group for the stakeledger store (SQLite).
var Migrations = migrate.NewGroup("stakeledger")

func init() {
	Migrations.MustRegister(
		&migrate.Migration{
			Name:    "create_stakeledger_pools",
			Version: "20250101000001",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS stakeledger_pools (
    id           TEXT PRIMARY KEY,
    reward_rate  TEXT NOT NULL DEFAULT '0',
    total_staked TEXT NOT NULL DEFAULT '0',
    initializer  TEXT NOT NULL,
    reward_mint  TEXT NOT NULL,
    created_at   TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at   TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS stakeledger_pools`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_stakeledger_stakes",
			Version: "20250101000002",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS stakeledger_stakes (
    address           TEXT PRIMARY KEY,
    pool_id           TEXT NOT NULL REFERENCES stakeledger_pools (id),
    owner             TEXT NOT NULL,
    amount_staked     TEXT NOT NULL DEFAULT '0',
    start_time        INTEGER NOT NULL DEFAULT 0,
    last_claim_time   INTEGER NOT NULL DEFAULT 0,
    pool_total_staked TEXT NOT NULL DEFAULT '0',
    created_at        TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at        TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_stakeledger_stakes_pool_owner ON stakeledger_stakes (pool_id, owner);
CREATE INDEX IF NOT EXISTS idx_stakeledger_stakes_pool_created ON stakeledger_stakes (pool_id, created_at);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS stakeledger_stakes`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_stakeledger_stake_total_triggers",
			Version: "20250101000003",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				for _, stmt := range []string{
					`
CREATE TRIGGER IF NOT EXISTS trg_stakeledger_stakes_total_insert
AFTER INSERT ON stakeledger_stakes
BEGIN
    UPDATE stakeledger_pools
    SET total_staked = NEW.pool_total_staked, updated_at = NEW.updated_at
    WHERE id = NEW.pool_id;
END;`,
					`
CREATE TRIGGER IF NOT EXISTS trg_stakeledger_stakes_total_update
AFTER UPDATE ON stakeledger_stakes
BEGIN
    UPDATE stakeledger_pools
    SET total_staked = NEW.pool_total_staked, updated_at = NEW.updated_at
    WHERE id = NEW.pool_id;
END;`,
				} {
					if _, err := exec.Exec(ctx, stmt); err != nil {
						return err
					}
				}
				return nil
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				if _, err := exec.Exec(ctx, `DROP TRIGGER IF EXISTS trg_stakeledger_stakes_total_insert`); err != nil {
					return err
				}
				_, err := exec.Exec(ctx, `DROP TRIGGER IF EXISTS trg_stakeledger_stakes_total_update`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_stakeledger_events",
			Version: "20250101000004",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS stakeledger_events (
    id          TEXT PRIMARY KEY,
    kind        TEXT NOT NULL,
    pool_id     TEXT NOT NULL,
    identity    TEXT NOT NULL DEFAULT '',
    amount      TEXT NOT NULL DEFAULT '0',
    reward_rate TEXT NOT NULL DEFAULT '0',
    time        INTEGER NOT NULL,
    created_at  TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_stakeledger_events_pool_time ON stakeledger_events (pool_id, time);
CREATE INDEX IF NOT EXISTS idx_stakeledger_events_identity_time ON stakeledger_events (identity, time);
CREATE INDEX IF NOT EXISTS idx_stakeledger_events_kind_time ON stakeledger_events (kind, time);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS stakeledger_events`)
				return err
			},
		},
	)
}
