package postgres

import (
	"context"

	"evmscope/internal/classify"
	"evmscope/internal/model"
)

// Reads backing the backfill reconciler. Each query finds decoded rows
// whose derived records are missing, so every phase is idempotent.

// CreationsWithoutContract lists successful contract-creation transactions
// lacking a contracts row.
func (s *Store) CreationsWithoutContract(ctx context.Context) ([]model.Transaction, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT t.tx_id, t.hash, t.sender, t.nonce, t.height, t.data
		FROM transactions t
		WHERE t.recipient IS NULL
		  AND t.status = $1
		  AND NOT EXISTS (SELECT 1 FROM contracts c WHERE c.creation_tx = t.tx_id)
	`, model.StatusSuccess)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txs []model.Transaction
	for rows.Next() {
		var tx model.Transaction
		var nonce int64
		if err := rows.Scan(&tx.TxID, &tx.Hash, &tx.From, &nonce, &tx.Height, &tx.Data); err != nil {
			return nil, err
		}
		tx.Nonce = uint64(nonce)
		tx.Status = model.StatusSuccess
		txs = append(txs, tx)
	}
	return txs, rows.Err()
}

// TransferLogsMissingToken lists transfer-shaped logs whose contract has no
// tokens row yet, paired with the height of the owning transaction.
func (s *Store) TransferLogsMissingToken(ctx context.Context) ([]model.LogWithHeight, error) {
	return s.transferLogsMissing(ctx, `
		SELECT l.tx_id, l.log_index, l.address, l.topics, l.data, t.height
		FROM logs l
		JOIN transactions t ON t.tx_id = l.tx_id
		WHERE lower(l.topics[1]) = $1
		  AND cardinality(l.topics) >= 3
		  AND NOT EXISTS (SELECT 1 FROM tokens tk WHERE tk.address = lower(l.address))
	`)
}

// TransferLogsMissingTransfer lists transfer-shaped logs lacking a
// token_transfers row.
func (s *Store) TransferLogsMissingTransfer(ctx context.Context) ([]model.LogWithHeight, error) {
	return s.transferLogsMissing(ctx, `
		SELECT l.tx_id, l.log_index, l.address, l.topics, l.data, t.height
		FROM logs l
		JOIN transactions t ON t.tx_id = l.tx_id
		WHERE lower(l.topics[1]) = $1
		  AND cardinality(l.topics) >= 3
		  AND NOT EXISTS (
			SELECT 1 FROM token_transfers tr
			WHERE tr.tx_id = l.tx_id AND tr.log_index = l.log_index
		  )
	`)
}

func (s *Store) transferLogsMissing(ctx context.Context, sql string) ([]model.LogWithHeight, error) {
	rows, err := s.pool.Query(ctx, sql, classify.TransferTopic.Hex())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.LogWithHeight
	for rows.Next() {
		var entry model.LogWithHeight
		var logIndex int32
		if err := rows.Scan(&entry.Log.TxID, &logIndex, &entry.Log.Address, &entry.Log.Topics, &entry.Log.Data, &entry.Height); err != nil {
			return nil, err
		}
		entry.Log.LogIndex = uint32(logIndex)
		out = append(out, entry)
	}
	return out, rows.Err()
}
