package backfill

import (
	"context"

	"go.uber.org/zap"

	"evmscope/internal/classify"
	"evmscope/internal/model"
	"evmscope/internal/pipeline"
	"evmscope/internal/tokenmeta"
)

// Store is the persistence surface the reconciler repairs against.
type Store interface {
	CreationsWithoutContract(ctx context.Context) ([]model.Transaction, error)
	TransferLogsMissingToken(ctx context.Context) ([]model.LogWithHeight, error)
	TransferLogsMissingTransfer(ctx context.Context) ([]model.LogWithHeight, error)
	InsertContracts(ctx context.Context, contracts []model.Contract) error
	InsertTokens(ctx context.Context, tokens []model.Token) error
	InsertTransfers(ctx context.Context, transfers []model.TokenTransfer) error
	EnrichToken(ctx context.Context, address string, meta model.TokenMeta) error
}

// Reconciler re-derives contracts, tokens, and transfers from rows already
// persisted by the decode pipeline. One-shot and idempotent: each phase
// only fills gaps, so re-running after a bug fix or schema change is safe.
type Reconciler struct {
	store  Store
	meta   tokenmeta.Fetcher
	logger *zap.Logger
}

// NewReconciler builds a reconciler. meta may be nil; token metadata
// enrichment is best-effort either way.
func NewReconciler(store Store, meta tokenmeta.Fetcher, logger *zap.Logger) *Reconciler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reconciler{store: store, meta: meta, logger: logger}
}

// Run executes the three repair phases in order. Phases are independent;
// a later phase failing leaves earlier repairs committed.
func (r *Reconciler) Run(ctx context.Context) error {
	if err := r.reconcileContracts(ctx); err != nil {
		return err
	}
	if err := r.reconcileTokens(ctx); err != nil {
		return err
	}
	return r.reconcileTransfers(ctx)
}

func (r *Reconciler) reconcileContracts(ctx context.Context) error {
	creations, err := r.store.CreationsWithoutContract(ctx)
	if err != nil {
		return err
	}

	contracts := make([]model.Contract, 0, len(creations))
	for _, tx := range creations {
		contracts = append(contracts, pipeline.DeriveContract(tx))
	}
	if err := r.store.InsertContracts(ctx, contracts); err != nil {
		return err
	}

	r.logger.Info("contracts reconciled", zap.Int("missing", len(creations)), zap.Int("inserted", len(contracts)))
	return nil
}

func (r *Reconciler) reconcileTokens(ctx context.Context) error {
	rows, err := r.store.TransferLogsMissingToken(ctx)
	if err != nil {
		return err
	}

	var tokens []model.Token
	seen := make(map[string]struct{})
	for _, row := range rows {
		derived := classify.Classify([]model.Log{row.Log}, row.Log.TxID, row.Height)
		for _, token := range derived.Tokens {
			if _, ok := seen[token.Address]; ok {
				continue
			}
			seen[token.Address] = struct{}{}
			tokens = append(tokens, token)
		}
	}
	if err := r.store.InsertTokens(ctx, tokens); err != nil {
		return err
	}

	enriched := 0
	if r.meta != nil {
		for _, token := range tokens {
			meta, err := r.meta.Fetch(ctx, token.Address)
			if err != nil || meta == nil {
				continue
			}
			if err := r.store.EnrichToken(ctx, token.Address, *meta); err != nil {
				r.logger.Warn("token enrichment write failed", zap.String("token", token.Address), zap.Error(err))
				continue
			}
			enriched++
		}
	}

	r.logger.Info("tokens reconciled",
		zap.Int("transfer_logs", len(rows)),
		zap.Int("inserted", len(tokens)),
		zap.Int("enriched", enriched),
	)
	return nil
}

func (r *Reconciler) reconcileTransfers(ctx context.Context) error {
	rows, err := r.store.TransferLogsMissingTransfer(ctx)
	if err != nil {
		return err
	}

	var transfers []model.TokenTransfer
	for _, row := range rows {
		derived := classify.Classify([]model.Log{row.Log}, row.Log.TxID, row.Height)
		transfers = append(transfers, derived.Transfers...)
	}
	if err := r.store.InsertTransfers(ctx, transfers); err != nil {
		return err
	}

	r.logger.Info("transfers reconciled", zap.Int("missing", len(rows)), zap.Int("inserted", len(transfers)))
	return nil
}
