package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	defaultRetries = 3
	defaultBackoff = 250 * time.Millisecond

	// LatestSnapshot selects the most recently created snapshot.
	LatestSnapshot = "latest"
)

// ErrSnapshotNotFound is returned when no snapshot matches the requested id.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// Schema creates the snapshot tables. Every snapshot has a header row in
// snapshots; token and pool rows keep producer order in position.
const Schema = `
CREATE TABLE IF NOT EXISTS snapshots (
	snapshot_id TEXT PRIMARY KEY,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS snapshot_tokens (
	snapshot_id TEXT NOT NULL REFERENCES snapshots (snapshot_id),
	position    INT NOT NULL,
	symbol      TEXT,
	decimals    BIGINT,
	address     TEXT,
	PRIMARY KEY (snapshot_id, position)
);
CREATE TABLE IF NOT EXISTS snapshot_pools (
	snapshot_id TEXT NOT NULL REFERENCES snapshots (snapshot_id),
	position    INT NOT NULL,
	dex_name    TEXT,
	chain       TEXT,
	token0      TEXT,
	token1      TEXT,
	reserve0    NUMERIC(20, 0),
	reserve1    NUMERIC(20, 0),
	fee         NUMERIC(20, 0),
	PRIMARY KEY (snapshot_id, position)
);
`

// Store reads DEX snapshots from Postgres.
type Store struct {
	pool       *pgxpool.Pool
	maxRetries int
	backoff    time.Duration
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("open pg pool: %w", err)
	}
	s := &Store{pool: pool, maxRetries: defaultRetries, backoff: defaultBackoff}
	if err := withRetry(ctx, s.maxRetries, s.backoff, pool.Ping); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping pg: %w", err)
	}
	return s, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// EnsureSchema creates the snapshot tables when they do not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("create snapshot schema: %w", err)
	}
	return nil
}

// ResolveSnapshotID maps LatestSnapshot (or an empty id) to the newest
// snapshot and checks that any other id exists.
func (s *Store) ResolveSnapshotID(ctx context.Context, snapshotID string) (string, error) {
	if snapshotID == "" || snapshotID == LatestSnapshot {
		var latest string
		err := s.pool.QueryRow(ctx, `
			SELECT snapshot_id
			FROM snapshots
			ORDER BY created_at DESC, snapshot_id DESC
			LIMIT 1
		`).Scan(&latest)
		if errors.Is(err, pgx.ErrNoRows) {
			return "", fmt.Errorf("%w: no snapshots stored", ErrSnapshotNotFound)
		}
		if err != nil {
			return "", fmt.Errorf("query latest snapshot: %w", err)
		}
		return latest, nil
	}

	var exists bool
	err := s.pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM snapshots WHERE snapshot_id = $1)
	`, snapshotID).Scan(&exists)
	if err != nil {
		return "", fmt.Errorf("query snapshot: %w", err)
	}
	if !exists {
		return "", fmt.Errorf("%w: %s", ErrSnapshotNotFound, snapshotID)
	}
	return snapshotID, nil
}

// LoadDocument reads one snapshot into the generic document shape accepted by
// snapshot.FromDocument. NULL columns are left out of the document so that
// validation reports them as missing fields. Numeric columns are read as text
// and passed through as json.Number. An unknown id fails with
// ErrSnapshotNotFound without retrying.
func (s *Store) LoadDocument(ctx context.Context, snapshotID string) (map[string]interface{}, error) {
	var doc map[string]interface{}
	err := withRetry(ctx, s.maxRetries, s.backoff, func(ctx context.Context) error {
		id, err := s.ResolveSnapshotID(ctx, snapshotID)
		if err != nil {
			return err
		}
		snapshotID = id

		tokens, err := s.loadTokens(ctx, snapshotID)
		if err != nil {
			return err
		}
		pools, err := s.loadPools(ctx, snapshotID)
		if err != nil {
			return err
		}
		doc = map[string]interface{}{
			"tokens": tokens,
			"pools":  pools,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *Store) loadTokens(ctx context.Context, snapshotID string) ([]interface{}, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT symbol, decimals, address
		FROM snapshot_tokens
		WHERE snapshot_id = $1
		ORDER BY position
	`, snapshotID)
	if err != nil {
		return nil, fmt.Errorf("query snapshot tokens: %w", err)
	}
	defer rows.Close()

	tokens := make([]interface{}, 0)
	for rows.Next() {
		var (
			symbol, address *string
			decimals        *int64
		)
		if err := rows.Scan(&symbol, &decimals, &address); err != nil {
			return nil, fmt.Errorf("scan snapshot token: %w", err)
		}
		token := make(map[string]interface{}, 3)
		putString(token, "symbol", symbol)
		putString(token, "address", address)
		if decimals != nil {
			token["decimals"] = *decimals
		}
		tokens = append(tokens, token)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read snapshot tokens: %w", err)
	}
	return tokens, nil
}

func (s *Store) loadPools(ctx context.Context, snapshotID string) ([]interface{}, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT dex_name, chain, token0, token1,
			reserve0::text, reserve1::text, fee::text
		FROM snapshot_pools
		WHERE snapshot_id = $1
		ORDER BY position
	`, snapshotID)
	if err != nil {
		return nil, fmt.Errorf("query snapshot pools: %w", err)
	}
	defer rows.Close()

	pools := make([]interface{}, 0)
	for rows.Next() {
		var dexName, chain, token0, token1, reserve0, reserve1, fee *string
		if err := rows.Scan(&dexName, &chain, &token0, &token1, &reserve0, &reserve1, &fee); err != nil {
			return nil, fmt.Errorf("scan snapshot pool: %w", err)
		}
		pool := make(map[string]interface{}, 7)
		putString(pool, "dexName", dexName)
		putString(pool, "chain", chain)
		putString(pool, "token0", token0)
		putString(pool, "token1", token1)
		putNumber(pool, "reserve0", reserve0)
		putNumber(pool, "reserve1", reserve1)
		putNumber(pool, "fee", fee)
		pools = append(pools, pool)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read snapshot pools: %w", err)
	}
	return pools, nil
}

func putString(dst map[string]interface{}, key string, value *string) {
	if value != nil {
		dst[key] = *value
	}
}

func putNumber(dst map[string]interface{}, key string, value *string) {
	if value != nil {
		dst[key] = json.Number(*value)
	}
}
