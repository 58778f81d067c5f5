package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"evmscope/internal/model"
)

const pendingColumns = `tx_id, raw_bytes, height, gas_used, known_hash`

// PendingForUpdate claims a single pending item by tx_id. The row lock
// blocks until any concurrent consumer of the same item finishes, so an
// absent row afterwards means retired or never queued.
func (t *Tx) PendingForUpdate(ctx context.Context, txID string) (*model.PendingTx, bool, error) {
	row := t.tx.QueryRow(ctx, `
		SELECT `+pendingColumns+`
		FROM pending_txs
		WHERE tx_id = $1
		FOR UPDATE
	`, txID)

	var item model.PendingTx
	if err := row.Scan(&item.TxID, &item.RawBytes, &item.Height, &item.GasUsed, &item.KnownHash); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return &item, true, nil
}

// PendingBatchForUpdate claims up to limit pending items, skipping rows
// already locked by the other consumer. No ordering guarantee.
func (t *Tx) PendingBatchForUpdate(ctx context.Context, limit int) ([]model.PendingTx, error) {
	rows, err := t.tx.Query(ctx, `
		SELECT `+pendingColumns+`
		FROM pending_txs
		LIMIT $1
		FOR UPDATE SKIP LOCKED
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []model.PendingTx
	for rows.Next() {
		var item model.PendingTx
		if err := rows.Scan(&item.TxID, &item.RawBytes, &item.Height, &item.GasUsed, &item.KnownHash); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// DeletePending retires a work item. Called inside the same transaction
// that persists its decoded rows.
func (t *Tx) DeletePending(ctx context.Context, txID string) error {
	_, err := t.tx.Exec(ctx, `DELETE FROM pending_txs WHERE tx_id = $1`, txID)
	return err
}

// IsDecoded reports whether a transaction row already exists for tx_id.
func (t *Tx) IsDecoded(ctx context.Context, txID string) (bool, error) {
	return isDecoded(ctx, t.tx, txID)
}

// IsDecoded is the pool-level variant for callers outside a transaction.
func (s *Store) IsDecoded(ctx context.Context, txID string) (bool, error) {
	return isDecoded(ctx, s.pool, txID)
}

func isDecoded(ctx context.Context, q querier, txID string) (bool, error) {
	var exists bool
	row := q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM transactions WHERE tx_id = $1)`, txID)
	if err := row.Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// PendingCount returns the number of queued work items.
func (s *Store) PendingCount(ctx context.Context) (int64, error) {
	var count int64
	row := s.pool.QueryRow(ctx, `SELECT count(*) FROM pending_txs`)
	if err := row.Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}
