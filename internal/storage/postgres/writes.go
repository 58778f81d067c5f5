package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	"evmscope/internal/model"
)

// All writers use insert-with-conflict-ignored semantics on the unique key
// of each table. A prior row always wins; re-processing is a no-op.

func insertTransaction(ctx context.Context, q querier, tx model.Transaction) error {
	_, err := q.Exec(ctx, `
		INSERT INTO transactions (
			tx_id, hash, sender, recipient, nonce, gas_limit, gas_price,
			max_fee_per_gas, max_priority_fee_per_gas, value, data, tx_type,
			chain_id, height, gas_used, status, function_name, function_signature
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)
		ON CONFLICT (tx_id) DO NOTHING
	`,
		tx.TxID,
		tx.Hash,
		tx.From,
		tx.To,
		int64(tx.Nonce),
		int64(tx.GasLimit),
		tx.GasPrice,
		tx.MaxFeePerGas,
		tx.MaxPriorityFee,
		tx.Value,
		tx.Data,
		int16(tx.Type),
		tx.ChainID,
		tx.Height,
		tx.GasUsed,
		tx.Status,
		tx.FunctionName,
		tx.FunctionSignature,
	)
	return err
}

func insertLogs(ctx context.Context, q querier, logs []model.Log) error {
	if len(logs) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, log := range logs {
		batch.Queue(`
			INSERT INTO logs (tx_id, log_index, address, topics, data)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (tx_id, log_index) DO NOTHING
		`,
			log.TxID,
			int32(log.LogIndex),
			log.Address,
			log.Topics,
			log.Data,
		)
	}
	return execBatch(ctx, q, batch, len(logs))
}

func insertTokens(ctx context.Context, q querier, tokens []model.Token) error {
	if len(tokens) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, token := range tokens {
		batch.Queue(`
			INSERT INTO tokens (address, token_type, name, symbol, decimals, first_seen_tx, first_seen_height)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (address) DO NOTHING
		`,
			token.Address,
			token.Type,
			token.Name,
			token.Symbol,
			token.Decimals,
			token.FirstSeenTx,
			token.FirstSeenHeight,
		)
	}
	return execBatch(ctx, q, batch, len(tokens))
}

func insertTransfers(ctx context.Context, q querier, transfers []model.TokenTransfer) error {
	if len(transfers) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, transfer := range transfers {
		batch.Queue(`
			INSERT INTO token_transfers (tx_id, log_index, token_address, from_address, to_address, value)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (tx_id, log_index) DO NOTHING
		`,
			transfer.TxID,
			int32(transfer.LogIndex),
			transfer.TokenAddress,
			transfer.FromAddress,
			transfer.ToAddress,
			transfer.Value,
		)
	}
	return execBatch(ctx, q, batch, len(transfers))
}

func insertContracts(ctx context.Context, q querier, contracts []model.Contract) error {
	if len(contracts) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, contract := range contracts {
		batch.Queue(`
			INSERT INTO contracts (address, creator, creation_tx, creation_height, bytecode_hash)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (address) DO NOTHING
		`,
			contract.Address,
			contract.Creator,
			contract.CreationTx,
			contract.CreationHeight,
			contract.BytecodeHash,
		)
	}
	return execBatch(ctx, q, batch, len(contracts))
}

// enrichToken fills previously-null metadata fields only; values already
// set are preserved across re-derivation.
func enrichToken(ctx context.Context, q querier, address string, meta model.TokenMeta) error {
	_, err := q.Exec(ctx, `
		UPDATE tokens
		SET name = COALESCE(name, NULLIF($2, '')),
		    symbol = COALESCE(symbol, NULLIF($3, '')),
		    decimals = COALESCE(decimals, $4)
		WHERE address = $1
	`, address, meta.Name, meta.Symbol, int16(meta.Decimals))
	return err
}

func execBatch(ctx context.Context, q querier, batch *pgx.Batch, n int) error {
	br := q.SendBatch(ctx, batch)
	defer br.Close()
	for i := 0; i < n; i++ {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

func (t *Tx) InsertTransaction(ctx context.Context, tx model.Transaction) error {
	return insertTransaction(ctx, t.tx, tx)
}

func (t *Tx) InsertLogs(ctx context.Context, logs []model.Log) error {
	return insertLogs(ctx, t.tx, logs)
}

func (t *Tx) InsertTokens(ctx context.Context, tokens []model.Token) error {
	return insertTokens(ctx, t.tx, tokens)
}

func (t *Tx) InsertTransfers(ctx context.Context, transfers []model.TokenTransfer) error {
	return insertTransfers(ctx, t.tx, transfers)
}

func (t *Tx) InsertContract(ctx context.Context, contract model.Contract) error {
	return insertContracts(ctx, t.tx, []model.Contract{contract})
}

func (s *Store) InsertTokens(ctx context.Context, tokens []model.Token) error {
	return insertTokens(ctx, s.pool, tokens)
}

func (s *Store) InsertTransfers(ctx context.Context, transfers []model.TokenTransfer) error {
	return insertTransfers(ctx, s.pool, transfers)
}

func (s *Store) InsertContracts(ctx context.Context, contracts []model.Contract) error {
	return insertContracts(ctx, s.pool, contracts)
}

func (s *Store) EnrichToken(ctx context.Context, address string, meta model.TokenMeta) error {
	return enrichToken(ctx, s.pool, address, meta)
}
