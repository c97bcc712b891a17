package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/sqlitedriver"
	_ "github.com/xraph/grove/drivers/sqlitedriver/sqlitemigrate"
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

// Store implements store.Store using SQLite via Grove ORM.
type Store struct {
	db  *grove.DB
	sdb *sqlitedriver.SqliteDB
}

// New creates a new SQLite store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		sdb: sqlitedriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates the required tables and indexes using the grove orchestrator.
func (s *Store) Migrate(ctx context.Context) error {
	executor, err := migrate.NewExecutorFor(s.sdb)
	if err != nil {
		return fmt.Errorf("stakeledger/sqlite: create migration executor: %w", err)
	}
	orch := migrate.NewOrchestrator(executor, Migrations)
	if _, err := orch.Migrate(ctx); err != nil {
		return fmt.Errorf("%w: sqlite: %w", stakeledger.ErrMigrationFailed, err)
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
	res, err := s.sdb.NewInsert(m).
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
	err := s.sdb.NewSelect(m).
		Where("id = ?", poolID.String()).
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
	q := s.sdb.NewSelect(&models).OrderExpr("id ASC")
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
	res, err := s.sdb.NewUpdate((*poolModel)(nil)).
		Set("reward_rate = ?", strconv.FormatUint(rate, 10)).
		Set("updated_at = ?", now()).
		Where("id = ?", poolID.String()).
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
	err := s.sdb.NewSelect(m).
		Where("address = ?", address.String()).
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
	q := s.sdb.NewSelect(&models).Where("pool_id = ?", poolID.String())
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

// CommitStake upserts the record together with the new pool total; the
// stake triggers copy pool_total_staked into the pool row inside the same
// statement. Nothing is written when the pool does not exist.
func (s *Store) CommitStake(ctx context.Context, p *pool.Pool, r *stake.Record) error {
	m := toStakeModel(r)
	t := now()

	var address string
	err := s.sdb.NewRaw(`
		INSERT INTO stakeledger_stakes
			(address, pool_id, owner, amount_staked, start_time, last_claim_time, pool_total_staked, created_at, updated_at)
		SELECT ?, id, ?, ?, ?, ?, ?, ?, ? FROM stakeledger_pools WHERE id = ?
		ON CONFLICT (address) DO UPDATE SET
			amount_staked = excluded.amount_staked,
			start_time = excluded.start_time,
			last_claim_time = excluded.last_claim_time,
			pool_total_staked = excluded.pool_total_staked,
			updated_at = excluded.updated_at
		RETURNING address
	`, m.Address, m.Owner, m.AmountStaked, m.StartTime, m.LastClaimTime,
		p.TotalStaked.String(), t, t, p.ID.String(),
	).Scan(ctx, &address)
	if err != nil {
		if isNoRows(err) {
			return stakeledger.ErrPoolNotFound
		}
		return fmt.Errorf("stakeledger/sqlite: commit stake: %w", err)
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
	_, err := s.sdb.NewInsert(&models).
		OnConflict("(id) DO NOTHING").
		Exec(ctx)
	return err
}

func (s *Store) QueryEvents(ctx context.Context, opts event.QueryOpts) ([]*event.Event, error) {
	var models []eventModel
	q := s.sdb.NewSelect(&models)

	if !opts.PoolID.IsNil() {
		q = q.Where("pool_id = ?", opts.PoolID.String())
	}
	if !opts.Identity.IsNil() {
		q = q.Where("identity = ?", opts.Identity.String())
	}
	if opts.Kind != "" {
		q = q.Where("kind = ?", string(opts.Kind))
	}
	if opts.Since != 0 {
		q = q.Where("time >= ?", opts.Since)
	}
	if opts.Until != 0 {
		q = q.Where("time < ?", opts.Until)
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
	res, err := s.sdb.NewDelete((*eventModel)(nil)).
		Where("time < ?", before).
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
