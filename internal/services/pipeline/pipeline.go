// Package pipeline implements the submit path every composed transaction
// takes: simulate, submit, confirm, post-verify. A transaction whose
// simulation fails is never submitted, and callers persist nothing until
// post-verification passes.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/rs/zerolog/log"

	"github.com/hypeeconomy/hype-engine/internal/common"
	"github.com/hypeeconomy/hype-engine/internal/domain"
	"github.com/hypeeconomy/hype-engine/internal/metrics"
)

// RPC is the slice of the rpc.Client surface the pipeline needs; *rpc.Client
// satisfies it.
type RPC interface {
	GetLatestBlockhash(ctx context.Context, commitment rpc.CommitmentType) (*rpc.GetLatestBlockhashResult, error)
	SimulateTransactionWithOpts(ctx context.Context, tx *solana.Transaction, opts *rpc.SimulateTransactionOpts) (*rpc.SimulateTransactionResponse, error)
	SendTransactionWithOpts(ctx context.Context, tx *solana.Transaction, opts rpc.TransactionOpts) (solana.Signature, error)
	GetSignatureStatuses(ctx context.Context, searchTransactionHistory bool, transactionSignatures ...solana.Signature) (*rpc.GetSignatureStatusesResult, error)
}

const defaultConfirmTimeout = 30 * time.Second

type Pipeline struct {
	rpc RPC

	// ConfirmTimeout bounds the confirmation wait. The underlying client
	// has no deadline of its own, so this is the only cancellation
	// boundary around the confirm step.
	ConfirmTimeout time.Duration
}

func New(client RPC) *Pipeline {
	return &Pipeline{rpc: client, ConfirmTimeout: defaultConfirmTimeout}
}

// Execute signs, simulates, submits and confirms one transaction. Simulation
// or submission failures are surfaced as-is and are never retried here; the
// caller decides whether a retry makes sense.
func (p *Pipeline) Execute(ctx context.Context, ixs []solana.Instruction, payer solana.PublicKey, signers []solana.PrivateKey) (solana.Signature, error) {
	bh, err := p.rpc.GetLatestBlockhash(ctx, rpc.CommitmentFinalized)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("failed to get recent blockhash: %w", err)
	}

	tx, err := solana.NewTransaction(ixs, bh.Value.Blockhash, solana.TransactionPayer(payer))
	if err != nil {
		return solana.Signature{}, fmt.Errorf("failed to build transaction: %w", err)
	}

	if _, err := tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		for i := range signers {
			if signers[i].PublicKey().Equals(key) {
				return &signers[i]
			}
		}
		return nil
	}); err != nil {
		return solana.Signature{}, fmt.Errorf("failed to sign transaction: %w", err)
	}

	sim, err := p.Simulate(ctx, tx)
	if err != nil {
		return solana.Signature{}, err
	}
	if !sim.Success {
		metrics.SimulationRejections.Inc()
		return solana.Signature{}, &common.Error{
			Kind:    common.KindSimulationRejected,
			Message: sim.Error,
			Logs:    sim.Logs,
		}
	}

	// Preflight already ran above; skipping it on send avoids simulating
	// twice against a moving ledger.
	sig, err := p.rpc.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{
		SkipPreflight:       true,
		PreflightCommitment: rpc.CommitmentConfirmed,
	})
	if err != nil {
		return solana.Signature{}, fmt.Errorf("failed to send transaction: %w", err)
	}

	if err := p.Confirm(ctx, sig); err != nil {
		return sig, err
	}
	return sig, nil
}

// ExecuteVerified runs Execute and then the caller's post-condition check.
// A verify failure is a distinct post-state inconsistency: the transaction
// confirmed, so blind retries are not safe.
func (p *Pipeline) ExecuteVerified(ctx context.Context, ixs []solana.Instruction, payer solana.PublicKey, signers []solana.PrivateKey, verify func(ctx context.Context) error) (solana.Signature, error) {
	sig, err := p.Execute(ctx, ixs, payer, signers)
	if err != nil {
		return sig, err
	}
	if verify == nil {
		return sig, nil
	}
	if err := verify(ctx); err != nil {
		metrics.PostStateInconsistencies.Inc()
		var de *common.Error
		if errors.As(err, &de) {
			return sig, err
		}
		return sig, common.WrapError(common.KindPostStateInconsistent, err,
			"transaction %s confirmed but post-state check failed", sig)
	}
	return sig, nil
}

// Simulate runs the transaction against current chain state without
// submitting it.
func (p *Pipeline) Simulate(ctx context.Context, tx *solana.Transaction) (*domain.SimulationResult, error) {
	out, err := p.rpc.SimulateTransactionWithOpts(ctx, tx, &rpc.SimulateTransactionOpts{
		Commitment: rpc.CommitmentConfirmed,
	})
	if err != nil {
		return nil, fmt.Errorf("simulation request failed: %w", err)
	}

	res := &domain.SimulationResult{
		Success: out.Value.Err == nil,
		Logs:    out.Value.Logs,
	}
	if out.Value.UnitsConsumed != nil {
		res.ComputeUnitsConsumed = *out.Value.UnitsConsumed
	}
	if out.Value.Err != nil {
		res.Error = fmt.Sprintf("%v", out.Value.Err)
		lower := strings.ToLower(res.Error + strings.Join(res.Logs, " "))
		res.InsufficientFunds = strings.Contains(lower, "insufficient")
	}
	return res, nil
}

// Confirm polls the signature status until the cluster reports the
// transaction confirmed or the deadline passes.
func (p *Pipeline) Confirm(ctx context.Context, sig solana.Signature) error {
	ctx, cancel := context.WithTimeout(ctx, p.ConfirmTimeout)
	defer cancel()

	op := func() (struct{}, error) {
		out, err := p.rpc.GetSignatureStatuses(ctx, true, sig)
		if err != nil {
			return struct{}{}, err
		}
		if len(out.Value) == 0 || out.Value[0] == nil {
			return struct{}{}, fmt.Errorf("signature %s not yet known", sig)
		}
		st := out.Value[0]
		if st.Err != nil {
			return struct{}{}, backoff.Permanent(fmt.Errorf("transaction %s failed on chain: %v", sig, st.Err))
		}
		switch st.ConfirmationStatus {
		case rpc.ConfirmationStatusConfirmed, rpc.ConfirmationStatusFinalized:
			return struct{}{}, nil
		default:
			return struct{}{}, fmt.Errorf("signature %s still %s", sig, st.ConfirmationStatus)
		}
	}

	_, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxElapsedTime(p.ConfirmTimeout),
	)
	if err == nil {
		return nil
	}

	var perm *backoff.PermanentError
	if errors.As(err, &perm) {
		return err
	}
	metrics.ConfirmationTimeouts.Inc()
	log.Warn().Str("signature", sig.String()).Err(err).Msg("confirmation deadline passed")
	return common.WrapError(common.KindConfirmationTimeout, err,
		"transaction %s not confirmed within %s", sig, p.ConfirmTimeout)
}
