package mongo

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/mongodriver"

	"github.com/xraph/stakeledger"
	"github.com/xraph/stakeledger/event"
	"github.com/xraph/stakeledger/id"
	"github.com/xraph/stakeledger/identity"
	"github.com/xraph/stakeledger/pool"
	"github.com/xraph/stakeledger/stake"
	ledgerstore "github.com/xraph/stakeledger/store"
)

// Collection name constants.
const (
	colPools  = "stakeledger_pools"
	colStakes = "stakeledger_stakes"
	colEvents = "stakeledger_events"
)

// compile-time interface check
var _ ledgerstore.Store = (*Store)(nil)

// Store implements store.Store using MongoDB via Grove ORM.
//
// CommitStake runs a multi-document transaction, so the server must be a
// replica set or a sharded cluster.
type Store struct {
	db  *grove.DB
	mdb *mongodriver.MongoDB
}

// New creates a new MongoDB store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		mdb: mongodriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates indexes for all stakeledger collections.
func (s *Store) Migrate(ctx context.Context) error {
	indexes := migrationIndexes()

	for col, models := range indexes {
		if len(models) == 0 {
			continue
		}
		_, err := s.mdb.Collection(col).Indexes().CreateMany(ctx, models)
		if err != nil {
			return fmt.Errorf("%w: mongo: %s indexes: %w", stakeledger.ErrMigrationFailed, col, err)
		}
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
	_, err := s.mdb.NewInsert(m).Exec(ctx)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return stakeledger.ErrPoolExists
		}
		return fmt.Errorf("stakeledger/mongo: create pool: %w", err)
	}
	return nil
}

func (s *Store) GetPool(ctx context.Context, poolID id.PoolID) (*pool.Pool, error) {
	var m poolModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": poolID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, stakeledger.ErrPoolNotFound
		}
		return nil, fmt.Errorf("stakeledger/mongo: get pool: %w", err)
	}
	return fromPoolModel(&m)
}

func (s *Store) ListPools(ctx context.Context, opts pool.ListOpts) ([]*pool.Pool, error) {
	var models []poolModel

	q := s.mdb.NewFind(&models).
		Filter(bson.M{}).
		Sort(bson.D{{Key: "_id", Value: 1}})

	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		q = q.Skip(int64(opts.Offset))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("stakeledger/mongo: list pools: %w", err)
	}

	result := make([]*pool.Pool, len(models))
	for i := range models {
		p, err := fromPoolModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = p
	}
	return result, nil
}

func (s *Store) SetRewardRate(ctx context.Context, poolID id.PoolID, rate uint64) error {
	res, err := s.mdb.NewUpdate((*poolModel)(nil)).
		Filter(bson.M{"_id": poolID.String()}).
		Set("reward_rate", strconv.FormatUint(rate, 10)).
		Set("updated_at", now()).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("stakeledger/mongo: set reward rate: %w", err)
	}
	if res.MatchedCount() == 0 {
		return stakeledger.ErrPoolNotFound
	}
	return nil
}

// ==================== Stake Store ====================

func (s *Store) GetStake(ctx context.Context, address identity.Identity) (*stake.Record, error) {
	var m stakeModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": address.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, stakeledger.ErrStakeNotFound
		}
		return nil, fmt.Errorf("stakeledger/mongo: get stake: %w", err)
	}
	return fromStakeModel(&m)
}

func (s *Store) ListStakes(ctx context.Context, poolID id.PoolID, opts stake.ListOpts) ([]*stake.Record, error) {
	var models []stakeModel

	filter := bson.M{"pool_id": poolID.String()}
	if opts.ActiveOnly {
		filter["amount_staked"] = bson.M{"$ne": "0"}
	}

	q := s.mdb.NewFind(&models).
		Filter(filter).
		Sort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})

	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		q = q.Skip(int64(opts.Offset))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("stakeledger/mongo: list stakes: %w", err)
	}

	result := make([]*stake.Record, len(models))
	for i := range models {
		r, err := fromStakeModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = r
	}
	return result, nil
}

// CommitStake writes the pool total and the record inside one session
// transaction.
func (s *Store) CommitStake(ctx context.Context, p *pool.Pool, r *stake.Record) error {
	m := toStakeModel(r)
	t := now()

	pools := s.mdb.Collection(colPools)
	stakes := s.mdb.Collection(colStakes)

	sess, err := pools.Database().Client().StartSession()
	if err != nil {
		return fmt.Errorf("stakeledger/mongo: start session: %w", err)
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(ctx context.Context) (any, error) {
		res, err := pools.UpdateOne(ctx,
			bson.M{"_id": p.ID.String()},
			bson.M{"$set": bson.M{
				"total_staked": p.TotalStaked.String(),
				"updated_at":   t,
			}},
		)
		if err != nil {
			return nil, err
		}
		if res.MatchedCount == 0 {
			return nil, stakeledger.ErrPoolNotFound
		}

		_, err = stakes.UpdateOne(ctx,
			bson.M{"_id": m.Address},
			bson.M{
				"$set": bson.M{
					"pool_id":         m.PoolID,
					"owner":           m.Owner,
					"amount_staked":   m.AmountStaked,
					"start_time":      m.StartTime,
					"last_claim_time": m.LastClaimTime,
					"updated_at":      t,
				},
				"$setOnInsert": bson.M{"created_at": t},
			},
			options.UpdateOne().SetUpsert(true),
		)
		return nil, err
	})
	if err != nil {
		if errors.Is(err, stakeledger.ErrPoolNotFound) {
			return stakeledger.ErrPoolNotFound
		}
		return fmt.Errorf("stakeledger/mongo: commit stake: %w", err)
	}
	return nil
}

// ==================== Event Store ====================

func (s *Store) IngestEvents(ctx context.Context, events []*event.Event) error {
	for _, e := range events {
		m := toEventModel(e)
		_, err := s.mdb.NewInsert(m).Exec(ctx)
		if err != nil {
			// Replayed batches carry the same IDs.
			if mongo.IsDuplicateKeyError(err) {
				continue
			}
			return fmt.Errorf("stakeledger/mongo: ingest event: %w", err)
		}
	}
	return nil
}

func (s *Store) QueryEvents(ctx context.Context, opts event.QueryOpts) ([]*event.Event, error) {
	var models []eventModel

	filter := bson.M{}
	if !opts.PoolID.IsNil() {
		filter["pool_id"] = opts.PoolID.String()
	}
	if !opts.Identity.IsNil() {
		filter["identity"] = opts.Identity.String()
	}
	if opts.Kind != "" {
		filter["kind"] = string(opts.Kind)
	}
	if opts.Since != 0 || opts.Until != 0 {
		window := bson.M{}
		if opts.Since != 0 {
			window["$gte"] = opts.Since
		}
		if opts.Until != 0 {
			window["$lt"] = opts.Until
		}
		filter["time"] = window
	}

	q := s.mdb.NewFind(&models).
		Filter(filter).
		Sort(bson.D{{Key: "time", Value: 1}, {Key: "created_at", Value: 1}})

	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		q = q.Skip(int64(opts.Offset))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("stakeledger/mongo: query events: %w", err)
	}

	result := make([]*event.Event, len(models))
	for i := range models {
		e, err := fromEventModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = e
	}
	return result, nil
}

func (s *Store) PurgeEvents(ctx context.Context, before int64) (int64, error) {
	res, err := s.mdb.NewDelete((*eventModel)(nil)).
		Filter(bson.M{"time": bson.M{"$lt": before}}).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("stakeledger/mongo: purge events: %w", err)
	}
	return res.DeletedCount(), nil
}

// ==================== Helpers ====================

// now returns the current UTC time.
func now() time.Time {
	return time.Now().UTC()
}

// isNoDocuments checks if an error wraps mongo.ErrNoDocuments.
func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

// migrationIndexes returns the index definitions for all stakeledger collections.
func migrationIndexes() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		colStakes: {
			{
				Keys:    bson.D{{Key: "pool_id", Value: 1}, {Key: "owner", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{{Key: "pool_id", Value: 1}, {Key: "created_at", Value: 1}}},
			{Keys: bson.D{{Key: "pool_id", Value: 1}, {Key: "amount_staked", Value: 1}}},
		},
		colEvents: {
			{Keys: bson.D{{Key: "pool_id", Value: 1}, {Key: "time", Value: 1}}},
			{Keys: bson.D{{Key: "identity", Value: 1}, {Key: "time", Value: 1}}},
			{Keys: bson.D{{Key: "kind", Value: 1}, {Key: "time", Value: 1}}},
		},
	}
}
