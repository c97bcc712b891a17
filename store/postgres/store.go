package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/pgdriver"
	_ "github.com/xraph/grove/drivers/pgdriver/pgmigrate"
	"github.com/xraph/grove/migrate"

	"github.com/xraph/stakeledger"
	"github.com/xraph/stakeledger/event"
	"github.com/xraph/stakeledger/id"
	"github.com/xraph/stakeledger/identity"
	"github.com/xraph/stakeledger/pool"
	"github.com/xraph/stakeledger/stake"
	ledgerstore "github.com/xraph/stakeledger/store"
)

// compile-time interface check
var _ ledgerstore.Store = (*Store)(nil)

// Store implements store.Store using PostgreSQL via Grove ORM.
type Store struct {
	db *grove.DB
	pg *pgdriver.PgDB
}

// New creates a new PostgreSQL store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db: db,
		pg: pgdriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates the required tables and indexes using the grove orchestrator.
func (s *Store) Migrate(ctx context.Context) error {
	executor, err := migrate.NewExecutorFor(s.pg)
	if err != nil {
		return fmt.Errorf("stakeledger/postgres: create migration executor: %w", err)
	}
	orch := migrate.NewOrchestrator(executor, Migrations)
	if _, err := orch.Migrate(ctx); err != nil {
		return fmt.Errorf("%w: postgres: %w", stakeledger.ErrMigrationFailed, err)
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ==================== Pool Store ====================

func (s *Store) CreatePool(ctx context.Context, p *pool.Pool) error {
	m := toPoolModel(p)
	res, err := s.pg.NewInsert(m).
		OnConflict("(id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return stakeledger.ErrPoolExists
	}
	return nil
}

func (s *Store) GetPool(ctx context.Context, poolID id.PoolID) (*pool.Pool, error) {
	m := new(poolModel)
	err := s.pg.NewSelect(m).
		Where("id = $1", poolID.String()).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, stakeledger.ErrPoolNotFound
		}
		return nil, err
	}
	return fromPoolModel(m)
}

func (s *Store) ListPools(ctx context.Context, opts pool.ListOpts) ([]*pool.Pool, error) {
	var models []poolModel
	q := s.pg.NewSelect(&models).OrderExpr("id ASC")
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, err
	}

	result := make([]*pool.Pool, 0, len(models))
	for i := range models {
		p, err := fromPoolModel(&models[i])
		if err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	return result, nil
}

func (s *Store) SetRewardRate(ctx context.Context, poolID id.PoolID, rate uint64) error {
	res, err := s.pg.NewUpdate((*poolModel)(nil)).
		Set("reward_rate = $1", strconv.FormatUint(rate, 10)).
		Set("updated_at = $2", now()).
		Where("id = $3", poolID.String()).
		Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return stakeledger.ErrPoolNotFound
	}
	return nil
}

// ==================== Stake Store ====================

func (s *Store) GetStake(ctx context.Context, address identity.Identity) (*stake.Record, error) {
	m := new(stakeModel)
	err := s.pg.NewSelect(m).
		Where("address = $1", address.String()).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, stakeledger.ErrStakeNotFound
		}
		return nil, err
	}
	return fromStakeModel(m)
}

func (s *Store) ListStakes(ctx context.Context, poolID id.PoolID, opts stake.ListOpts) ([]*stake.Record, error) {
	var models []stakeModel
	q := s.pg.NewSelect(&models).Where("pool_id = $1", poolID.String())
	if opts.ActiveOnly {
		q = q.Where("amount_staked <> '0'")
	}
	q = q.OrderExpr("created_at ASC, address ASC")
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, err
	}

	result := make([]*stake.Record, 0, len(models))
	for i := range models {
		r, err := fromStakeModel(&models[i])
		if err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	return result, nil
}

// CommitStake updates the pool total and upserts the record in one
// statement. The insert only runs if the pool update matched a row.
func (s *Store) CommitStake(ctx context.Context, p *pool.Pool, r *stake.Record) error {
	m := toStakeModel(r)
	t := now()

	var address string
	err := s.pg.NewRaw(`
		WITH pool AS (
			UPDATE stakeledger_pools
			SET total_staked = $1, updated_at = $2
			WHERE id = $3
			RETURNING id
		)
		INSERT INTO stakeledger_stakes
			(address, pool_id, owner, amount_staked, start_time, last_claim_time, created_at, updated_at)
		SELECT $4, pool.id, $5, $6, $7, $8, $2, $2 FROM pool
		ON CONFLICT (address) DO UPDATE SET
			amount_staked = EXCLUDED.amount_staked,
			start_time = EXCLUDED.start_time,
			last_claim_time = EXCLUDED.last_claim_time,
			updated_at = EXCLUDED.updated_at
		RETURNING address
	`, p.TotalStaked.String(), t, p.ID.String(),
		m.Address, m.Owner, m.AmountStaked, m.StartTime, m.LastClaimTime,
	).Scan(ctx, &address)
	if err != nil {
		if isNoRows(err) {
			return stakeledger.ErrPoolNotFound
		}
		return fmt.Errorf("stakeledger/postgres: commit stake: %w", err)
	}
	return nil
}

// ==================== Event Store ====================

func (s *Store) IngestEvents(ctx context.Context, events []*event.Event) error {
	if len(events) == 0 {
		return nil
	}
	models := make([]eventModel, len(events))
	for i, e := range events {
		models[i] = *toEventModel(e)
	}
	_, err := s.pg.NewInsert(&models).
		OnConflict("(id) DO NOTHING").
		Exec(ctx)
	return err
}

func (s *Store) QueryEvents(ctx context.Context, opts event.QueryOpts) ([]*event.Event, error) {
	var models []eventModel
	q := s.pg.NewSelect(&models)

	argIdx := 0
	if !opts.PoolID.IsNil() {
		argIdx++
		q = q.Where(fmt.Sprintf("pool_id = $%d", argIdx), opts.PoolID.String())
	}
	if !opts.Identity.IsNil() {
		argIdx++
		q = q.Where(fmt.Sprintf("identity = $%d", argIdx), opts.Identity.String())
	}
	if opts.Kind != "" {
		argIdx++
		q = q.Where(fmt.Sprintf("kind = $%d", argIdx), string(opts.Kind))
	}
	if opts.Since != 0 {
		argIdx++
		q = q.Where(fmt.Sprintf("time >= $%d", argIdx), opts.Since)
	}
	if opts.Until != 0 {
		argIdx++
		q = q.Where(fmt.Sprintf("time < $%d", argIdx), opts.Until)
	}
	q = q.OrderExpr("time ASC, created_at ASC")
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, err
	}

	result := make([]*event.Event, 0, len(models))
	for i := range models {
		e, err := fromEventModel(&models[i])
		if err != nil {
			return nil, err
		}
		result = append(result, e)
	}
	return result, nil
}

func (s *Store) PurgeEvents(ctx context.Context, before int64) (int64, error) {
	res, err := s.pg.NewDelete((*eventModel)(nil)).
		Where("time < $1", before).
		Exec(ctx)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ==================== Helpers ====================

// now returns the current UTC time.
func now() time.Time {
	return time.Now().UTC()
}

// isNoRows checks for the standard sql.ErrNoRows sentinel.
func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
