package pipeline

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hypeeconomy/hype-engine/internal/common"
)

type fakeRPC struct {
	simulateErr  interface{}
	simulateLogs []string
	sendCalls    int
	sendErr      error
	statuses     []*rpc.SignatureStatusesResult
	statusCalls  int
}

func (f *fakeRPC) GetLatestBlockhash(ctx context.Context, commitment rpc.CommitmentType) (*rpc.GetLatestBlockhashResult, error) {
	return &rpc.GetLatestBlockhashResult{
		Value: &rpc.LatestBlockhashResult{
			Blockhash:            solana.Hash{1, 2, 3},
			LastValidBlockHeight: 100,
		},
	}, nil
}

func (f *fakeRPC) SimulateTransactionWithOpts(ctx context.Context, tx *solana.Transaction, opts *rpc.SimulateTransactionOpts) (*rpc.SimulateTransactionResponse, error) {
	units := uint64(1200)
	return &rpc.SimulateTransactionResponse{
		Value: &rpc.SimulateTransactionResult{
			Err:           f.simulateErr,
			Logs:          f.simulateLogs,
			UnitsConsumed: &units,
		},
	}, nil
}

func (f *fakeRPC) SendTransactionWithOpts(ctx context.Context, tx *solana.Transaction, opts rpc.TransactionOpts) (solana.Signature, error) {
	f.sendCalls++
	if f.sendErr != nil {
		return solana.Signature{}, f.sendErr
	}
	return solana.Signature{9}, nil
}

func (f *fakeRPC) GetSignatureStatuses(ctx context.Context, searchHistory bool, sigs ...solana.Signature) (*rpc.GetSignatureStatusesResult, error) {
	var st *rpc.SignatureStatusesResult
	if f.statusCalls < len(f.statuses) {
		st = f.statuses[f.statusCalls]
	} else if len(f.statuses) > 0 {
		st = f.statuses[len(f.statuses)-1]
	}
	f.statusCalls++
	return &rpc.GetSignatureStatusesResult{Value: []*rpc.SignatureStatusesResult{st}}, nil
}

func transferIx(t *testing.T, payer *solana.Wallet) []solana.Instruction {
	t.Helper()
	ix := system.NewTransferInstruction(1, payer.PublicKey(), solana.NewWallet().PublicKey()).Build()
	return []solana.Instruction{ix}
}

func TestExecuteConfirms(t *testing.T) {
	payer := solana.NewWallet()
	f := &fakeRPC{
		statuses: []*rpc.SignatureStatusesResult{
			nil,
			{ConfirmationStatus: rpc.ConfirmationStatusProcessed},
			{ConfirmationStatus: rpc.ConfirmationStatusConfirmed},
		},
	}
	p := New(f)

	sig, err := p.Execute(context.Background(), transferIx(t, payer), payer.PublicKey(), []solana.PrivateKey{payer.PrivateKey})
	require.NoError(t, err)
	assert.False(t, sig.IsZero())
	assert.Equal(t, 1, f.sendCalls)
}

func TestExecuteRejectedSimulationNeverSubmits(t *testing.T) {
	payer := solana.NewWallet()
	f := &fakeRPC{
		simulateErr:  map[string]interface{}{"InstructionError": []interface{}{0, "Custom"}},
		simulateLogs: []string{"Program log: insufficient funds"},
	}
	p := New(f)

	_, err := p.Execute(context.Background(), transferIx(t, payer), payer.PublicKey(), []solana.PrivateKey{payer.PrivateKey})
	require.Error(t, err)
	assert.Equal(t, common.KindSimulationRejected, common.KindOf(err))
	assert.Equal(t, 0, f.sendCalls, "rejected transaction must never reach the network")

	var de *common.Error
	require.ErrorAs(t, err, &de)
	assert.Contains(t, de.Logs, "Program log: insufficient funds")
}

func TestExecuteConfirmationTimeout(t *testing.T) {
	payer := solana.NewWallet()
	f := &fakeRPC{
		statuses: []*rpc.SignatureStatusesResult{
			{ConfirmationStatus: rpc.ConfirmationStatusProcessed},
		},
	}
	p := New(f)
	p.ConfirmTimeout = 50 * time.Millisecond

	sig, err := p.Execute(context.Background(), transferIx(t, payer), payer.PublicKey(), []solana.PrivateKey{payer.PrivateKey})
	require.Error(t, err)
	assert.Equal(t, common.KindConfirmationTimeout, common.KindOf(err))
	assert.True(t, common.Retryable(err))
	assert.False(t, sig.IsZero(), "timeout still reports the submitted signature")
}

func TestExecuteOnChainFailureIsTerminal(t *testing.T) {
	payer := solana.NewWallet()
	f := &fakeRPC{
		statuses: []*rpc.SignatureStatusesResult{
			{Err: map[string]interface{}{"InstructionError": []interface{}{1, "Custom"}}},
		},
	}
	p := New(f)

	_, err := p.Execute(context.Background(), transferIx(t, payer), payer.PublicKey(), []solana.PrivateKey{payer.PrivateKey})
	require.Error(t, err)
	assert.NotEqual(t, common.KindConfirmationTimeout, common.KindOf(err))
	assert.False(t, common.Retryable(err))
}

func TestExecuteVerifiedPostStateFailure(t *testing.T) {
	payer := solana.NewWallet()
	f := &fakeRPC{
		statuses: []*rpc.SignatureStatusesResult{
			{ConfirmationStatus: rpc.ConfirmationStatusFinalized},
		},
	}
	p := New(f)

	sig, err := p.ExecuteVerified(context.Background(), transferIx(t, payer), payer.PublicKey(), []solana.PrivateKey{payer.PrivateKey},
		func(ctx context.Context) error {
			return fmt.Errorf("pool balance did not move")
		})
	require.Error(t, err)
	assert.Equal(t, common.KindPostStateInconsistent, common.KindOf(err))
	assert.False(t, sig.IsZero(), "the transaction confirmed, so the signature must survive for investigation")
}

func TestExecuteVerifiedSuccess(t *testing.T) {
	payer := solana.NewWallet()
	f := &fakeRPC{
		statuses: []*rpc.SignatureStatusesResult{
			{ConfirmationStatus: rpc.ConfirmationStatusConfirmed},
		},
	}
	p := New(f)

	verified := false
	_, err := p.ExecuteVerified(context.Background(), transferIx(t, payer), payer.PublicKey(), []solana.PrivateKey{payer.PrivateKey},
		func(ctx context.Context) error {
			verified = true
			return nil
		})
	require.NoError(t, err)
	assert.True(t, verified)
}
