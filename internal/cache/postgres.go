package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"cloud.google.com/go/civil"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"bankrates/internal/ratetree"
)

// ErrNotConfigured indicates the cache pool was not initialised.
var ErrNotConfigured = errors.New("cache: pool not configured")

const (
	insertRecordSQL = `INSERT INTO rate_records (
        source_id,
        source_name,
        effective_date,
        last_updated,
        data,
        source_url
    ) VALUES (
        $1,$2,$3,$4,$5,$6
    );`

	getLatestRecordSQL = `SELECT
        source_id,
        source_name,
        effective_date,
        last_updated,
        data,
        source_url
    FROM rate_records
    WHERE source_id = $1
    ORDER BY last_updated DESC
    LIMIT 1;`

	listHistorySQL = `SELECT
        source_id,
        source_name,
        effective_date,
        last_updated,
        data,
        source_url
    FROM rate_records
    WHERE source_id = $1
    ORDER BY last_updated DESC
    LIMIT $2;`

	trimRecordsSQL = `DELETE FROM rate_records
    WHERE source_id = $1
      AND id NOT IN (
        SELECT id FROM rate_records
        WHERE source_id = $1
        ORDER BY last_updated DESC
        LIMIT $2
      );`
)

// PostgresStore persists rate records in a rate_records table, one row
// per snapshot. The data column is jsonb holding the nested tree with
// its field names preserved verbatim.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore wires a pgx pool into a PostgresStore.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Close releases the underlying pool resources.
func (s *PostgresStore) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

func (s *PostgresStore) getPool() (*pgxpool.Pool, error) {
	if s == nil || s.pool == nil {
		return nil, ErrNotConfigured
	}
	return s.pool, nil
}

// Get returns the newest snapshot for a source.
func (s *PostgresStore) Get(ctx context.Context, sourceID string) (RateRecord, error) {
	pool, err := s.getPool()
	if err != nil {
		return RateRecord{}, err
	}

	rec, scanErr := scanRateRecord(pool.QueryRow(ctx, getLatestRecordSQL, sourceID))
	if scanErr != nil {
		if errors.Is(scanErr, pgx.ErrNoRows) {
			return RateRecord{}, ErrNoRecord
		}
		return RateRecord{}, fmt.Errorf("get rate record: %w", scanErr)
	}
	return rec, nil
}

// Put appends a snapshot for the record's source.
func (s *PostgresStore) Put(ctx context.Context, rec RateRecord) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}

	data, err := json.Marshal(rec.Data)
	if err != nil {
		return fmt.Errorf("encode rate data: %w", err)
	}

	if _, execErr := pool.Exec(ctx, insertRecordSQL,
		rec.SourceID,
		rec.SourceName,
		rec.EffectiveDate.String(),
		rec.LastUpdated,
		data,
		rec.SourceURL,
	); execErr != nil {
		return fmt.Errorf("insert rate record: %w", execErr)
	}
	return nil
}

// History returns up to limit snapshots, newest first.
func (s *PostgresStore) History(ctx context.Context, sourceID string, limit int) ([]RateRecord, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listHistorySQL, sourceID, limit)
	if queryErr != nil {
		return nil, fmt.Errorf("list rate history: %w", queryErr)
	}
	defer rows.Close()

	records := make([]RateRecord, 0, limit)
	for rows.Next() {
		rec, scanErr := scanRateRecord(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		records = append(records, rec)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return records, nil
}

// Trim drops all but the newest keep snapshots for a source.
func (s *PostgresStore) Trim(ctx context.Context, sourceID string, keep int) error {
	if keep <= 0 {
		return nil
	}
	pool, err := s.getPool()
	if err != nil {
		return err
	}
	if _, execErr := pool.Exec(ctx, trimRecordsSQL, sourceID, keep); execErr != nil {
		return fmt.Errorf("trim rate records: %w", execErr)
	}
	return nil
}

func scanRateRecord(row pgx.Row) (RateRecord, error) {
	var (
		rec          RateRecord
		effectiveStr string
		data         []byte
	)

	if err := row.Scan(
		&rec.SourceID,
		&rec.SourceName,
		&effectiveStr,
		&rec.LastUpdated,
		&data,
		&rec.SourceURL,
	); err != nil {
		return RateRecord{}, err
	}

	effective, err := civil.ParseDate(effectiveStr)
	if err != nil {
		return RateRecord{}, fmt.Errorf("parse effective date: %w", err)
	}
	rec.EffectiveDate = effective

	var tree ratetree.Tree
	if err := json.Unmarshal(data, &tree); err != nil {
		return RateRecord{}, fmt.Errorf("decode rate data: %w", err)
	}
	rec.Data = tree
	rec.LastUpdated = rec.LastUpdated.UTC()

	return rec, nil
}

var _ Store = (*PostgresStore)(nil)
