package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"WalletPnL/internal/domain/models"
	drepo "WalletPnL/internal/domain/repository"
	pkgch "WalletPnL/pkg/clickhouse"
	applogger "WalletPnL/pkg/logger"
)

const (
	summariesTable = "pnl_summaries"
	tradesTable    = "pnl_trades"

	// tradeChunk caps rows per multi-row INSERT.
	tradeChunk = 2000
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS pnl_summaries (
		request_id            String,
		wallet                String,
		chain                 LowCardinality(String),
		currency              LowCardinality(String),
		provider              LowCardinality(String),
		total_trades          UInt32,
		total_volume_native   Float64,
		total_volume_usd      Float64,
		total_pnl_usd         Float64,
		win_rate              Float64,
		median_hold_seconds   Int64,
		tokens_traded         UInt32,
		no_activity           UInt8,
		placeholder_trades    UInt32,
		approximate_trades    UInt32,
		warnings              UInt32,
		payload               String,
		generated_at          DateTime64(3, 'UTC')
	) ENGINE = ReplacingMergeTree
	ORDER BY (wallet, chain, generated_at)`,
	`CREATE TABLE IF NOT EXISTS pnl_trades (
		wallet              String,
		chain               LowCardinality(String),
		tx_id               String,
		ts                  DateTime64(3, 'UTC'),
		token_id            String,
		token_symbol        String,
		direction           LowCardinality(String),
		token_amount        Float64,
		native_amount       Float64,
		usd_value           Float64,
		approximate         UInt8,
		placeholder_cost    UInt8,
		stable_denominated  UInt8,
		generated_at        DateTime64(3, 'UTC')
	) ENGINE = ReplacingMergeTree
	ORDER BY (wallet, chain, generated_at, ts, tx_id, token_id, direction)`,
}

// ClickHouseSummaryStore archives summaries and their classified trades.
// Re-delivered results collapse on the ReplacingMergeTree sort key.
type ClickHouseSummaryStore struct {
	client *pkgch.Client
	db     *sql.DB
	logger *applogger.Logger
}

func NewClickHouseSummaryStore(client *pkgch.Client, lgr *applogger.Logger) *ClickHouseSummaryStore {
	if lgr == nil {
		lgr = applogger.Nop()
	}
	return &ClickHouseSummaryStore{client: client, db: client.DB(), logger: lgr}
}

func (s *ClickHouseSummaryStore) Init(ctx context.Context) error {
	return s.client.InitSchema(ctx, schema)
}

func (s *ClickHouseSummaryStore) StoreResult(ctx context.Context, r *models.AnalysisResult) error {
	sum := r.Summary
	payload, err := json.Marshal(sum)
	if err != nil {
		return fmt.Errorf("encode summary: %w", err)
	}

	q := fmt.Sprintf(`INSERT INTO %s (request_id, wallet, chain, currency, provider, total_trades,
		total_volume_native, total_volume_usd, total_pnl_usd, win_rate, median_hold_seconds, tokens_traded,
		no_activity, placeholder_trades, approximate_trades, warnings, payload, generated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, summariesTable)
	_, err = s.db.ExecContext(ctx, q,
		r.RequestID,
		sum.Wallet,
		sum.Chain,
		sum.Currency,
		sum.Provider,
		uint32(sum.TotalTrades),
		sum.TotalVolumeNative,
		sum.TotalVolumeUSD,
		sum.TotalPnLUSD,
		sum.WinRate,
		sum.MedianHoldTime,
		uint32(sum.TokensTraded),
		flag(sum.NoActivity),
		uint32(sum.PlaceholderCostTrades),
		uint32(sum.ApproximateTrades),
		uint32(len(sum.Warnings)),
		string(payload),
		sum.GeneratedAt,
	)
	if err != nil {
		s.logger.Error("clickhouse insert summary failed",
			applogger.String("wallet", sum.Wallet),
			applogger.String("chain", sum.Chain),
			applogger.Error(err),
		)
		return fmt.Errorf("insert summary: %w", err)
	}

	if err := s.storeTrades(ctx, sum, r.Trades); err != nil {
		return err
	}
	return nil
}

func (s *ClickHouseSummaryStore) storeTrades(ctx context.Context, sum *models.PnLSummary, trades []models.ClassifiedTrade) error {
	for start := 0; start < len(trades); start += tradeChunk {
		end := min(start+tradeChunk, len(trades))

		values := make([]string, 0, end-start)
		args := make([]interface{}, 0, (end-start)*14)
		for _, t := range trades[start:end] {
			values = append(values, "(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")
			args = append(args,
				sum.Wallet,
				string(t.Chain),
				t.TxID,
				t.Timestamp.UTC(),
				t.TokenID,
				t.TokenSymbol,
				string(t.Direction),
				t.TokenAmount,
				t.NativeAmount,
				t.USDValue,
				flag(t.Approximate),
				flag(t.PlaceholderCost),
				flag(t.StableDenominated),
				sum.GeneratedAt,
			)
		}
		q := fmt.Sprintf(`INSERT INTO %s (wallet, chain, tx_id, ts, token_id, token_symbol, direction,
			token_amount, native_amount, usd_value, approximate, placeholder_cost, stable_denominated, generated_at)
			VALUES %s`, tradesTable, strings.Join(values, ","))
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			s.logger.Error("clickhouse insert trades failed",
				applogger.String("wallet", sum.Wallet),
				applogger.Int("rows", end-start),
				applogger.Error(err),
			)
			return fmt.Errorf("insert trades: %w", err)
		}
	}
	return nil
}

// History lists archived runs for (wallet, chain selector), newest first.
func (s *ClickHouseSummaryStore) History(ctx context.Context, wallet, chain string, limit int) ([]models.SummaryRecord, error) {
	q := fmt.Sprintf(`SELECT wallet, chain, provider, total_trades, total_pnl_usd, total_volume_usd, win_rate, warnings, generated_at
		FROM %s FINAL
		WHERE wallet = ? AND chain = ?
		ORDER BY generated_at DESC
		LIMIT ?`, summariesTable)
	rows, err := s.db.QueryContext(ctx, q, wallet, chain, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var out []models.SummaryRecord
	for rows.Next() {
		var (
			rec      models.SummaryRecord
			trades   uint32
			warnings uint32
		)
		if err := rows.Scan(&rec.Wallet, &rec.Chain, &rec.Provider, &trades, &rec.TotalPnLUSD,
			&rec.TotalVolumeUSD, &rec.WinRate, &warnings, &rec.GeneratedAt); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		rec.TotalTrades = int(trades)
		rec.Warnings = int(warnings)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}

func (s *ClickHouseSummaryStore) Health(ctx context.Context) error {
	return s.client.Health(ctx)
}

// Close is a no-op; the pool belongs to pkg/clickhouse.Client.
func (s *ClickHouseSummaryStore) Close() error {
	return nil
}

func flag(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}

var (
	_ drepo.SummaryStorage = (*ClickHouseSummaryStore)(nil)
	_ drepo.SummaryHistory = (*ClickHouseSummaryStore)(nil)
)
