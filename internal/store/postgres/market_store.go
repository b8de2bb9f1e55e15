package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/SlugMacro/wm-fe-sub000/internal/domain"
)

// MarketStore implements domain.MarketStore using PostgreSQL.
type MarketStore struct {
	pool *pgxpool.Pool
}

// NewMarketStore creates a MarketStore backed by the given pool.
func NewMarketStore(pool *pgxpool.Pool) *MarketStore {
	return &MarketStore{pool: pool}
}

const upsertMarketSQL = `
	INSERT INTO markets (
		id, token_symbol, token_name, chain,
		last_price, price_change_24h, chart_data, chart_color,
		volume_24h, volume_change_24h, total_volume, total_volume_change,
		status, settlement_status, settle_time, updated_at
	) VALUES (
		$1, $2, $3, $4,
		$5, $6, $7, $8,
		$9, $10, $11, $12,
		$13, $14, $15, NOW()
	)
	ON CONFLICT (id) DO UPDATE SET
		last_price          = EXCLUDED.last_price,
		price_change_24h    = EXCLUDED.price_change_24h,
		chart_data          = EXCLUDED.chart_data,
		chart_color         = EXCLUDED.chart_color,
		volume_24h          = EXCLUDED.volume_24h,
		volume_change_24h   = EXCLUDED.volume_change_24h,
		total_volume        = EXCLUDED.total_volume,
		total_volume_change = EXCLUDED.total_volume_change,
		status              = EXCLUDED.status,
		settlement_status   = EXCLUDED.settlement_status,
		settle_time         = EXCLUDED.settle_time,
		updated_at          = NOW()`

func marketArgs(m domain.Market) []any {
	return []any{
		m.ID, m.TokenSymbol, m.TokenName, string(m.Chain),
		m.LastPrice, m.PriceChange24h, m.ChartData, string(m.ChartColor),
		m.Volume24h, m.VolumeChange24h, m.TotalVolume, m.TotalVolumeChange,
		string(m.Status), string(m.SettlementStatus), m.SettleTime,
	}
}

// Upsert inserts or updates a single market.
func (s *MarketStore) Upsert(ctx context.Context, m domain.Market) error {
	if _, err := s.pool.Exec(ctx, upsertMarketSQL, marketArgs(m)...); err != nil {
		return fmt.Errorf("postgres: upsert market %s: %w", m.ID, err)
	}
	return nil
}

// UpsertBatch inserts or updates several markets in one round trip.
func (s *MarketStore) UpsertBatch(ctx context.Context, markets []domain.Market) error {
	if len(markets) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, m := range markets {
		batch.Queue(upsertMarketSQL, marketArgs(m)...)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for i := range markets {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("postgres: upsert market batch item %d (%s): %w", i, markets[i].ID, err)
		}
	}
	return nil
}

const marketCols = `id, token_symbol, token_name, chain,
	last_price, price_change_24h, chart_data, chart_color,
	volume_24h, volume_change_24h, total_volume, total_volume_change,
	status, settlement_status, settle_time`

func scanMarket(row pgx.Row) (domain.Market, error) {
	var (
		m                                domain.Market
		chain, color, status, settlement string
	)
	err := row.Scan(
		&m.ID, &m.TokenSymbol, &m.TokenName, &chain,
		&m.LastPrice, &m.PriceChange24h, &m.ChartData, &color,
		&m.Volume24h, &m.VolumeChange24h, &m.TotalVolume, &m.TotalVolumeChange,
		&status, &settlement, &m.SettleTime,
	)
	if err != nil {
		return domain.Market{}, err
	}
	m.Chain = domain.ParseChain(chain)
	m.ChartColor = domain.ChartColor(color)
	m.Status = domain.MarketStatus(status)
	m.SettlementStatus = domain.SettlementStatus(settlement)
	return m, nil
}

// GetByID retrieves a market by its primary key.
func (s *MarketStore) GetByID(ctx context.Context, id string) (domain.Market, error) {
	m, err := scanMarket(s.pool.QueryRow(ctx, `SELECT `+marketCols+` FROM markets WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Market{}, domain.ErrNotFound
		}
		return domain.Market{}, fmt.Errorf("postgres: get market %s: %w", id, err)
	}
	return m, nil
}

// List returns markets, optionally filtered by status, ordered by id.
func (s *MarketStore) List(ctx context.Context, status domain.MarketStatus, opts domain.ListOpts) ([]domain.Market, error) {
	query := `SELECT ` + marketCols + ` FROM markets WHERE ($1 = '' OR status = $1)`
	args := []any{string(status)}
	argIdx := 2

	if opts.Since != nil {
		query += fmt.Sprintf(" AND updated_at >= $%d", argIdx)
		args = append(args, *opts.Since)
		argIdx++
	}
	if opts.Until != nil {
		query += fmt.Sprintf(" AND updated_at <= $%d", argIdx)
		args = append(args, *opts.Until)
		argIdx++
	}
	query += " ORDER BY id"
	if opts.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIdx)
		args = append(args, opts.Limit)
		argIdx++
	}
	if opts.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argIdx)
		args = append(args, opts.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list markets: %w", err)
	}
	defer rows.Close()

	var markets []domain.Market
	for rows.Next() {
		m, err := scanMarket(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan market: %w", err)
		}
		markets = append(markets, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list markets rows: %w", err)
	}
	return markets, nil
}

// Count returns the number of stored markets.
func (s *MarketStore) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM markets").Scan(&count); err != nil {
		return 0, fmt.Errorf("postgres: count markets: %w", err)
	}
	return count, nil
}

// Compile-time interface check.
var _ domain.MarketStore = (*MarketStore)(nil)
