package funding

import (
	"context"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hypeeconomy/hype-engine/internal/common"
	"github.com/hypeeconomy/hype-engine/internal/domain"
	"github.com/hypeeconomy/hype-engine/internal/wallet"
)

type fakeReader struct {
	lamports   map[solana.PublicKey]uint64
	rentExempt uint64
}

func (f *fakeReader) GetBalance(_ context.Context, account solana.PublicKey, _ rpc.CommitmentType) (*rpc.GetBalanceResult, error) {
	return &rpc.GetBalanceResult{Value: f.lamports[account]}, nil
}

func (f *fakeReader) GetMinimumBalanceForRentExemption(context.Context, uint64, rpc.CommitmentType) (uint64, error) {
	return f.rentExempt, nil
}

type fakeExecutor struct {
	instructions [][]solana.Instruction
}

func (f *fakeExecutor) Execute(_ context.Context, ixs []solana.Instruction, _ solana.PublicKey, _ []solana.PrivateKey) (solana.Signature, error) {
	f.instructions = append(f.instructions, ixs)
	return solana.Signature{1}, nil
}

type fakeStore struct {
	wallets  map[string][2]string
	balances map[string]float64
	deposits []domain.DepositRecord
}

func newFakeStore() *fakeStore {
	return &fakeStore{wallets: map[string][2]string{}, balances: map[string]float64{}}
}

func (f *fakeStore) SetUserWallet(_ context.Context, googleID, pubkey, secret string) error {
	f.wallets[googleID] = [2]string{pubkey, secret}
	return nil
}

func (f *fakeStore) SetUserSOLBalance(_ context.Context, googleID string, balance float64) error {
	f.balances[googleID] = balance
	return nil
}

func (f *fakeStore) AppendDepositHistory(_ context.Context, _ string, rec domain.DepositRecord) error {
	f.deposits = append(f.deposits, rec)
	return nil
}

func newTestService(reader *fakeReader, exec *fakeExecutor, store *fakeStore) *Service {
	platform := solana.NewWallet()
	return &Service{
		store:       store,
		reader:      reader,
		pipe:        exec,
		platform:    platform.PublicKey(),
		platformKey: platform.PrivateKey,
	}
}

func TestDepositRejectsNonPositiveAmount(t *testing.T) {
	svc := newTestService(&fakeReader{}, &fakeExecutor{}, newFakeStore())

	_, err := svc.Deposit(context.Background(), &domain.User{GoogleID: "g1"}, 0)
	require.Error(t, err)

	var he *common.HttpError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, 400, he.StatusCode)
}

func TestDepositCreatesWalletAndTopsUpRent(t *testing.T) {
	reader := &fakeReader{lamports: map[solana.PublicKey]uint64{}, rentExempt: 890_880}
	exec := &fakeExecutor{}
	store := newFakeStore()
	svc := newTestService(reader, exec, store)

	user := &domain.User{GoogleID: "g1"}
	result, err := svc.Deposit(context.Background(), user, 1000)
	require.NoError(t, err)

	// A wallet was minted and persisted before any funds moved.
	saved, ok := store.wallets["g1"]
	require.True(t, ok)
	assert.Equal(t, user.SOLWalletPublicKey, saved[0])
	assert.NotEmpty(t, saved[1])

	// Fresh wallet sits below rent exemption, so the transaction carries
	// the top-up transfer ahead of the deposit transfer.
	require.Len(t, exec.instructions, 1)
	assert.Len(t, exec.instructions[0], 2)

	assert.Equal(t, saved[0], result.Address)
	require.Len(t, store.deposits, 1)
	assert.Equal(t, 1000.0, store.deposits[0].Amount)
}

func TestDepositSkipsRentTopUpWhenFunded(t *testing.T) {
	owner := solana.NewWallet()
	reader := &fakeReader{
		lamports:   map[solana.PublicKey]uint64{owner.PublicKey(): 10_000_000},
		rentExempt: 890_880,
	}
	exec := &fakeExecutor{}
	store := newFakeStore()
	svc := newTestService(reader, exec, store)

	user := &domain.User{
		GoogleID:           "g1",
		SOLWalletPublicKey: owner.PublicKey().String(),
		SOLWalletSecretKey: wallet.Canonical(owner.PrivateKey),
	}
	_, err := svc.Deposit(context.Background(), user, 500)
	require.NoError(t, err)

	require.Len(t, exec.instructions, 1)
	assert.Len(t, exec.instructions[0], 1)

	// No new wallet was written for an already provisioned user.
	assert.Empty(t, store.wallets)
}

func TestDepositRejectsWalletMismatch(t *testing.T) {
	stored := solana.NewWallet()
	other := solana.NewWallet()
	exec := &fakeExecutor{}
	svc := newTestService(&fakeReader{rentExempt: 890_880}, exec, newFakeStore())

	user := &domain.User{
		GoogleID:           "g1",
		SOLWalletPublicKey: other.PublicKey().String(),
		SOLWalletSecretKey: wallet.Canonical(stored.PrivateKey),
	}
	_, err := svc.Deposit(context.Background(), user, 500)
	require.Error(t, err)
	assert.Equal(t, common.KindWalletMismatch, common.KindOf(err))
	assert.Empty(t, exec.instructions)
}
