// Package journal persists every execution attempt and position transition
// to a write-ahead log. The log is append-only and survives restarts; the
// engine itself never reads it back for decisions, it exists for operator
// diagnostics and to make recovery implementable later.
package journal

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/gowal"

	"github.com/divyasshree-BQ/realtime-slippage-pool-trader/internal/domain"
)

const (
	tradeKeyPrefix    = "trade_"
	positionKeyPrefix = "position_"

	segmentThreshold = 1000
	maxSegments      = 100
)

// TradeRecord is the journaled form of one execution attempt.
type TradeRecord struct {
	Time        time.Time          `json:"time"`
	Status      domain.TradeStatus `json:"status"`
	Reason      string             `json:"reason,omitempty"`
	TxHash      string             `json:"tx_hash,omitempty"`
	BlockNumber uint64             `json:"block_number,omitempty"`
	GasUsed     uint64             `json:"gas_used,omitempty"`
	Direction   domain.Direction   `json:"direction,omitempty"`
	AmountIn    decimal.Decimal    `json:"amount_in"`
	AmountOut   decimal.Decimal    `json:"amount_out"`
	Price       decimal.Decimal    `json:"price"`
	CurrencyA   string             `json:"currency_a,omitempty"`
	CurrencyB   string             `json:"currency_b,omitempty"`
	PoolID      string             `json:"pool_id,omitempty"`
	Protocol    string             `json:"protocol,omitempty"`
	SlippageBps int64              `json:"slippage_bps"`
}

// PositionRecord is the journaled form of one position state. Every
// transition appends a new record under the same key, so the latest record
// per key is the position's final known state.
type PositionRecord struct {
	Time        time.Time             `json:"time"`
	OpenBlock   uint64                `json:"open_block"`
	PoolID      string                `json:"pool_id"`
	Direction   domain.Direction      `json:"direction"`
	Status      domain.PositionStatus `json:"status"`
	AmountOut   decimal.Decimal       `json:"amount_out"`
	SlippageBps int64                 `json:"slippage_bps"`
	CloseTxHash string                `json:"close_tx_hash,omitempty"`
	CloseBlock  uint64                `json:"close_block,omitempty"`
}

// Journal is a WAL-backed trade and position log. It is owned by the engine
// goroutine and is not safe for concurrent use.
type Journal struct {
	wal *gowal.Wal
}

// New opens (or creates) the journal under dir.
func New(dir string) (*Journal, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "ensure journal directory %s", dir)
	}

	cfg := gowal.Config{
		Dir:              dir,
		Prefix:           "journal_",
		SegmentThreshold: segmentThreshold,
		MaxSegments:      maxSegments,
		IsInSyncDiskMode: true,
	}

	wal, err := gowal.NewWAL(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "init trade journal WAL")
	}

	return &Journal{wal: wal}, nil
}

// SaveTrade appends one execution attempt.
func (j *Journal) SaveTrade(result *domain.TradeResult) error {
	if j == nil || j.wal == nil {
		return errors.New("journal is not initialized")
	}
	if result == nil {
		return errors.New("nil trade result")
	}

	record := TradeRecord{
		Time:        time.Now().UTC(),
		Status:      result.Status,
		Reason:      result.Reason,
		TxHash:      result.TxHash,
		BlockNumber: result.BlockNumber,
		GasUsed:     result.GasUsed,
		Direction:   result.Direction,
		AmountIn:    result.AmountIn,
		AmountOut:   result.AmountOut,
		Price:       result.Price,
		CurrencyA:   result.CurrencyA,
		CurrencyB:   result.CurrencyB,
		PoolID:      result.PoolID,
		Protocol:    result.Protocol,
		SlippageBps: result.SlippageBps,
	}

	payload, err := json.Marshal(record)
	if err != nil {
		return errors.Wrap(err, "marshal trade record")
	}

	key := tradeKeyPrefix + uuid.NewString()
	return j.wal.Write(j.wal.CurrentIndex()+1, key, payload)
}

// SavePosition appends the position's current state. Transitions of the same
// position reuse its (open block, pool) key.
func (j *Journal) SavePosition(position *domain.Position) error {
	if j == nil || j.wal == nil {
		return errors.New("journal is not initialized")
	}
	if position == nil {
		return errors.New("nil position")
	}

	record := PositionRecord{
		Time:        time.Now().UTC(),
		OpenBlock:   position.OpenBlock,
		PoolID:      position.PoolID,
		Direction:   position.Direction,
		Status:      position.Status,
		AmountOut:   position.AmountOut,
		SlippageBps: position.SlippageBps,
		CloseTxHash: position.CloseTxHash,
		CloseBlock:  position.CloseBlock,
	}

	payload, err := json.Marshal(record)
	if err != nil {
		return errors.Wrap(err, "marshal position record")
	}

	key := fmt.Sprintf("%s%d_%s", positionKeyPrefix, position.OpenBlock, position.PoolID)
	return j.wal.Write(j.wal.CurrentIndex()+1, key, payload)
}

// Trades replays every journaled execution attempt in write order.
func (j *Journal) Trades() ([]TradeRecord, error) {
	if j == nil || j.wal == nil {
		return nil, errors.New("journal is not initialized")
	}

	var trades []TradeRecord
	for msg := range j.wal.Iterator() {
		if !strings.HasPrefix(msg.Key, tradeKeyPrefix) {
			continue
		}
		var record TradeRecord
		if err := json.Unmarshal(msg.Value, &record); err != nil {
			return nil, errors.Wrapf(err, "decode trade record %s", msg.Key)
		}
		trades = append(trades, record)
	}
	return trades, nil
}

// OpenPositions replays the log and returns the positions whose last recorded
// state is still open, in first-seen order. Used at startup to tell the
// operator what the previous run left behind.
func (j *Journal) OpenPositions() ([]PositionRecord, error) {
	if j == nil || j.wal == nil {
		return nil, errors.New("journal is not initialized")
	}

	last := make(map[string]PositionRecord)
	var keys []string
	for msg := range j.wal.Iterator() {
		if !strings.HasPrefix(msg.Key, positionKeyPrefix) {
			continue
		}
		var record PositionRecord
		if err := json.Unmarshal(msg.Value, &record); err != nil {
			return nil, errors.Wrapf(err, "decode position record %s", msg.Key)
		}
		if _, seen := last[msg.Key]; !seen {
			keys = append(keys, msg.Key)
		}
		last[msg.Key] = record
	}

	var open []PositionRecord
	for _, key := range keys {
		if record := last[key]; record.Status == domain.PositionOpen {
			open = append(open, record)
		}
	}
	return open, nil
}

// Close closes the underlying WAL.
func (j *Journal) Close() error {
	if j == nil || j.wal == nil {
		return errors.New("journal is not initialized")
	}
	return j.wal.Close()
}
