package pipeline

import (
	"context"
	"errors"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"go.uber.org/zap"

	"evmscope/internal/classify"
	"evmscope/internal/decode"
	"evmscope/internal/model"
)

// Outcome reports what processing a work item amounted to.
type Outcome int

const (
	OutcomeDecoded Outcome = iota
	OutcomeAlreadyDecoded
	OutcomeNotFound
	OutcomePlaceholder
)

func (o Outcome) String() string {
	switch o {
	case OutcomeDecoded:
		return "decoded"
	case OutcomeAlreadyDecoded:
		return "already_decoded"
	case OutcomeNotFound:
		return "not_found"
	case OutcomePlaceholder:
		return "placeholder"
	default:
		return "unknown"
	}
}

// Tx is the unit-of-work surface the processor writes through. All calls
// belong to one database transaction; the whole item commits or rolls back
// together.
type Tx interface {
	PendingForUpdate(ctx context.Context, txID string) (*model.PendingTx, bool, error)
	PendingBatchForUpdate(ctx context.Context, limit int) ([]model.PendingTx, error)
	DeletePending(ctx context.Context, txID string) error
	IsDecoded(ctx context.Context, txID string) (bool, error)
	InsertTransaction(ctx context.Context, tx model.Transaction) error
	InsertLogs(ctx context.Context, logs []model.Log) error
	InsertTokens(ctx context.Context, tokens []model.Token) error
	InsertTransfers(ctx context.Context, transfers []model.TokenTransfer) error
	InsertContract(ctx context.Context, contract model.Contract) error
}

// Store opens units of work.
type Store interface {
	WithTx(ctx context.Context, fn func(tx Tx) error) error
}

// SignatureLookup resolves a 4-byte selector to a function signature.
// Lookups are best-effort and never block persistence.
type SignatureLookup interface {
	Lookup(ctx context.Context, selector string) (string, bool)
}

// Processor runs the decode pipeline for pending work items: decode the
// envelope, classify logs, derive contract addresses, and persist all rows
// idempotently in a single transaction that also retires the item.
type Processor struct {
	store  Store
	sigs   SignatureLookup
	logger *zap.Logger
}

func New(store Store, sigs SignatureLookup, logger *zap.Logger) *Processor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Processor{store: store, sigs: sigs, logger: logger}
}

// ProcessOne handles a single notification-delivered tx_id. An item absent
// from the queue is either already decoded (no-op success) or unknown.
func (p *Processor) ProcessOne(ctx context.Context, txID string) (Outcome, error) {
	var outcome Outcome
	err := p.store.WithTx(ctx, func(tx Tx) error {
		item, ok, err := tx.PendingForUpdate(ctx, txID)
		if err != nil {
			return err
		}
		if !ok {
			decoded, err := tx.IsDecoded(ctx, txID)
			if err != nil {
				return err
			}
			if decoded {
				outcome = OutcomeAlreadyDecoded
			} else {
				outcome = OutcomeNotFound
			}
			return nil
		}
		outcome, err = p.processItem(ctx, tx, *item)
		return err
	})
	if err != nil {
		return OutcomeNotFound, err
	}
	return outcome, nil
}

// ProcessBatch claims up to limit pending items and processes them
// sequentially inside one transaction. Items are retired by the same
// transaction, so a committed batch never reappears on the next poll.
func (p *Processor) ProcessBatch(ctx context.Context, limit int) (int, error) {
	var processed int
	err := p.store.WithTx(ctx, func(tx Tx) error {
		items, err := tx.PendingBatchForUpdate(ctx, limit)
		if err != nil {
			return err
		}
		for _, item := range items {
			if _, err := p.processItem(ctx, tx, item); err != nil {
				return err
			}
			processed++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return processed, nil
}

func (p *Processor) processItem(ctx context.Context, tx Tx, item model.PendingTx) (Outcome, error) {
	decoded, err := decode.DecodeTransaction(item.TxID, item.RawBytes, item.GasUsed)
	if err != nil {
		var decodeErr *model.DecodeError
		if !errors.As(err, &decodeErr) {
			return OutcomeNotFound, err
		}
		// Permanent failure: persist a terminal placeholder so the item is
		// never retried, and retire it in the same transaction.
		p.logger.Warn("decode failed",
			zap.String("tx_id", item.TxID),
			zap.String("stage", decodeErr.Stage),
			zap.String("reason", decodeErr.Reason),
		)
		if err := tx.InsertTransaction(ctx, placeholderTransaction(item)); err != nil {
			return OutcomeNotFound, err
		}
		if err := tx.DeletePending(ctx, item.TxID); err != nil {
			return OutcomeNotFound, err
		}
		return OutcomePlaceholder, nil
	}

	decoded.Height = item.Height
	if item.KnownHash != nil && *item.KnownHash != "" {
		decoded.Hash = *item.KnownHash
	}

	var logs []model.Log
	result, err := decode.DecodeExecutionResult(item.RawBytes)
	if err != nil {
		p.logger.Warn("execution result unparsable", zap.String("tx_id", item.TxID), zap.Error(err))
	}
	if result != nil {
		gasUsed := result.GasUsed
		decoded.GasUsed = &gasUsed
		if result.Failed() {
			decoded.Status = model.StatusFailure
		}
		logs = buildLogs(item.TxID, result.Logs)
	}

	p.enrichSignature(ctx, decoded)

	if err := tx.InsertTransaction(ctx, *decoded); err != nil {
		return OutcomeNotFound, err
	}
	if err := tx.InsertLogs(ctx, logs); err != nil {
		return OutcomeNotFound, err
	}

	derived := classify.Classify(logs, item.TxID, item.Height)
	if err := tx.InsertTokens(ctx, derived.Tokens); err != nil {
		return OutcomeNotFound, err
	}
	if err := tx.InsertTransfers(ctx, derived.Transfers); err != nil {
		return OutcomeNotFound, err
	}

	if decoded.IsCreation() && decoded.Status == model.StatusSuccess {
		if err := tx.InsertContract(ctx, DeriveContract(*decoded)); err != nil {
			return OutcomeNotFound, err
		}
	}

	if err := tx.DeletePending(ctx, item.TxID); err != nil {
		return OutcomeNotFound, err
	}
	return OutcomeDecoded, nil
}

// enrichSignature consults the external signature database when the static
// selector table missed. Failures leave the fields null.
func (p *Processor) enrichSignature(ctx context.Context, decoded *model.Transaction) {
	if p.sigs == nil || decoded.FunctionSignature != nil || decoded.Data == nil {
		return
	}
	raw, err := hexutil.Decode(*decoded.Data)
	if err != nil {
		return
	}
	selector, ok := decode.Selector(raw)
	if !ok {
		return
	}
	if sig, ok := p.sigs.Lookup(ctx, selector); ok {
		name := decode.FunctionName(sig)
		decoded.FunctionName = &name
		decoded.FunctionSignature = &sig
	}
}

func placeholderTransaction(item model.PendingTx) model.Transaction {
	tx := model.Transaction{
		TxID:     item.TxID,
		Height:   item.Height,
		GasPrice: "0",
		Value:    "0",
		GasUsed:  item.GasUsed,
		Status:   model.StatusDecodeFailed,
	}
	if item.KnownHash != nil {
		tx.Hash = *item.KnownHash
	}
	return tx
}

func buildLogs(txID string, execLogs []decode.ExecLog) []model.Log {
	logs := make([]model.Log, 0, len(execLogs))
	for i, l := range execLogs {
		logs = append(logs, model.Log{
			TxID:     txID,
			LogIndex: uint32(i),
			Address:  l.Address,
			Topics:   l.Topics,
			Data:     l.Data,
		})
	}
	return logs
}

// DeriveContract builds the contract row for a successful creation
// transaction, deriving the deployed address from (creator, nonce).
func DeriveContract(tx model.Transaction) model.Contract {
	creator := common.HexToAddress(tx.From)
	address := decode.ContractAddress(creator, tx.Nonce)

	contract := model.Contract{
		Address:        address.Hex(),
		Creator:        tx.From,
		CreationTx:     tx.TxID,
		CreationHeight: tx.Height,
	}
	if tx.Data != nil {
		if initCode, err := hexutil.Decode(*tx.Data); err == nil {
			hash := decode.InitCodeHash(initCode)
			contract.BytecodeHash = &hash
		}
	}
	return contract
}
