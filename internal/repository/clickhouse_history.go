package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"GeoPulse/internal/domain/models"
	"GeoPulse/internal/domain/repository"
)

// ClickHouseHistory implements HistoryStore on ClickHouse. Observations
// land in an append-only table keyed by (source, item_id, at); score
// rows go to their own table so history queries never scan raw
// observations.
type ClickHouseHistory struct {
	db          *sql.DB
	obsTable    string
	scoresTable string
}

// NewClickHouseHistory creates ClickHouse-backed history storage.
func NewClickHouseHistory(db *sql.DB, obsTable, scoresTable string) repository.HistoryStore {
	return &ClickHouseHistory{db: db, obsTable: obsTable, scoresTable: scoresTable}
}

// SchemaStatements returns idempotent DDL for the two tables, run once
// at startup through the client's InitSchema.
func SchemaStatements(obsTable, scoresTable string) []string {
	return []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			at DateTime64(3),
			item_id String,
			value Float64,
			weight Float64,
			region LowCardinality(String),
			source LowCardinality(String)
		) ENGINE = MergeTree()
		PARTITION BY toYYYYMM(at)
		ORDER BY (source, item_id, at)
		TTL toDateTime(at) + INTERVAL 90 DAY`, obsTable),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			at DateTime64(3),
			scope LowCardinality(String),
			composite Float64,
			risk_level LowCardinality(String),
			market Nullable(Float64),
			financial Nullable(Float64),
			ground Nullable(Float64),
			narrative Nullable(Float64),
			connectivity Nullable(Float64),
			contracts UInt32,
			volume Float64
		) ENGINE = MergeTree()
		PARTITION BY toYYYYMM(at)
		ORDER BY (scope, at)`, scoresTable),
	}
}

func (s *ClickHouseHistory) AppendObservation(ctx context.Context, o *models.Observation) error {
	if o == nil || o.ItemID == "" {
		return fmt.Errorf("observation invalid")
	}
	q := fmt.Sprintf("INSERT INTO %s (at, item_id, value, weight, region, source) VALUES (?, ?, ?, ?, ?, ?)", s.obsTable)
	_, err := s.db.ExecContext(ctx, q, o.At, o.ItemID, o.Value, o.Weight, o.Region, o.Source)
	return err
}

func (s *ClickHouseHistory) AppendObservations(ctx context.Context, obs []*models.Observation) error {
	if len(obs) == 0 {
		return nil
	}
	// Multi-row VALUES insert to cut round-trips; 2000 rows per chunk.
	const chunkSize = 2000
	for start := 0; start < len(obs); start += chunkSize {
		end := start + chunkSize
		if end > len(obs) {
			end = len(obs)
		}
		values := make([]string, 0, end-start)
		args := make([]interface{}, 0, (end-start)*6)
		for _, o := range obs[start:end] {
			if o == nil || o.ItemID == "" || o.At.IsZero() {
				continue
			}
			values = append(values, "(?, ?, ?, ?, ?, ?)")
			args = append(args, o.At, o.ItemID, o.Value, o.Weight, o.Region, o.Source)
		}
		if len(values) == 0 {
			continue
		}
		q := fmt.Sprintf("INSERT INTO %s (at, item_id, value, weight, region, source) VALUES %s",
			s.obsTable, strings.Join(values, ","))
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			return err
		}
	}
	return nil
}

func (s *ClickHouseHistory) QueryObservations(ctx context.Context, source string, since time.Time) ([]models.Observation, error) {
	q := fmt.Sprintf("SELECT at, item_id, value, weight, region, source FROM %s WHERE source = ? AND at >= ? ORDER BY item_id, at", s.obsTable)
	rows, err := s.db.QueryContext(ctx, q, source, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanObservations(rows)
}

func (s *ClickHouseHistory) QueryItemObservations(ctx context.Context, itemID string, since time.Time) ([]models.Observation, error) {
	q := fmt.Sprintf("SELECT at, item_id, value, weight, region, source FROM %s WHERE item_id = ? AND at >= ? ORDER BY at", s.obsTable)
	rows, err := s.db.QueryContext(ctx, q, itemID, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanObservations(rows)
}

func scanObservations(rows *sql.Rows) ([]models.Observation, error) {
	var out []models.Observation
	for rows.Next() {
		var o models.Observation
		if err := rows.Scan(&o.At, &o.ItemID, &o.Value, &o.Weight, &o.Region, &o.Source); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (s *ClickHouseHistory) AppendScores(ctx context.Context, recs []models.ScoreRecord) error {
	if len(recs) == 0 {
		return nil
	}
	values := make([]string, 0, len(recs))
	args := make([]interface{}, 0, len(recs)*11)
	for _, r := range recs {
		values = append(values, "(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")
		args = append(args, r.At, r.Scope, r.Composite, r.RiskLevel,
			r.Market, r.Financial, r.Ground, r.Narrative, r.Connectivity,
			r.Contracts, r.Volume)
	}
	q := fmt.Sprintf("INSERT INTO %s (at, scope, composite, risk_level, market, financial, ground, narrative, connectivity, contracts, volume) VALUES %s",
		s.scoresTable, strings.Join(values, ","))
	_, err := s.db.ExecContext(ctx, q, args...)
	return err
}

func (s *ClickHouseHistory) LastScoreAt(ctx context.Context, scope string) (time.Time, error) {
	q := fmt.Sprintf("SELECT max(at) FROM %s WHERE scope = ?", s.scoresTable)
	var at time.Time
	if err := s.db.QueryRowContext(ctx, q, scope).Scan(&at); err != nil {
		return time.Time{}, err
	}
	return at, nil
}

func (s *ClickHouseHistory) QueryScores(ctx context.Context, scope string, since time.Time) ([]models.ScoreRecord, error) {
	q := fmt.Sprintf("SELECT at, scope, composite, risk_level, market, financial, ground, narrative, connectivity, contracts, volume FROM %s WHERE scope = ? AND at >= ? ORDER BY at", s.scoresTable)
	rows, err := s.db.QueryContext(ctx, q, scope, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.ScoreRecord
	for rows.Next() {
		var r models.ScoreRecord
		if err := rows.Scan(&r.At, &r.Scope, &r.Composite, &r.RiskLevel,
			&r.Market, &r.Financial, &r.Ground, &r.Narrative, &r.Connectivity,
			&r.Contracts, &r.Volume); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *ClickHouseHistory) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *ClickHouseHistory) Close() error {
	return nil // pool is owned by pkg/clickhouse
}
