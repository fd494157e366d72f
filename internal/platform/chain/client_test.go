package chain

import (
	"context"
	"errors"
	"math/big"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Well-known test key; never funded.
const testKey = "b71c71a67e1177ad4e901695e1b4b9ee17ae16c6668d313eac2f96dbcda3f291"

type fakeBackend struct {
	sent          []*types.Transaction
	receiptMisses int32
	receipt       *types.Receipt
	callOut       []byte
	callMsg       ethereum.CallMsg
}

func (f *fakeBackend) PendingNonceAt(context.Context, common.Address) (uint64, error) {
	return uint64(len(f.sent)), nil
}

func (f *fakeBackend) SuggestGasTipCap(context.Context) (*big.Int, error) {
	return big.NewInt(1_000_000), nil
}

func (f *fakeBackend) HeaderByNumber(context.Context, *big.Int) (*types.Header, error) {
	return &types.Header{BaseFee: big.NewInt(5_000_000)}, nil
}

func (f *fakeBackend) EstimateGas(context.Context, ethereum.CallMsg) (uint64, error) {
	return 100_000, nil
}

func (f *fakeBackend) SendTransaction(_ context.Context, tx *types.Transaction) error {
	f.sent = append(f.sent, tx)
	return nil
}

func (f *fakeBackend) TransactionReceipt(context.Context, common.Hash) (*types.Receipt, error) {
	if atomic.AddInt32(&f.receiptMisses, -1) >= 0 {
		return nil, ethereum.NotFound
	}
	return f.receipt, nil
}

func (f *fakeBackend) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	f.callMsg = msg
	return f.callOut, nil
}

func TestParseKey(t *testing.T) {
	a, err := ParseKey(testKey)
	require.NoError(t, err)
	b, err := ParseKey("0x" + testKey)
	require.NoError(t, err)
	assert.Equal(t, crypto.PubkeyToAddress(a.PublicKey), crypto.PubkeyToAddress(b.PublicKey))

	_, err = ParseKey("0xnothex")
	assert.Error(t, err)
}

func TestSubmitWriteSignsDynamicFeeTx(t *testing.T) {
	backend := &fakeBackend{}
	chainID := big.NewInt(534351)
	c, err := NewClient(backend, chainID, "0x"+testKey, time.Millisecond)
	require.NoError(t, err)

	to := common.HexToAddress("0xA9fdE7d55Fbc7fD94e361A63860E650521000595")
	hash, err := c.SubmitWrite(context.Background(), to, []byte{0xde, 0xad, 0xbe, 0xef})
	require.NoError(t, err)
	require.Len(t, backend.sent, 1)

	tx := backend.sent[0]
	assert.Equal(t, hash, tx.Hash())
	assert.Equal(t, uint8(types.DynamicFeeTxType), tx.Type())
	assert.Equal(t, &to, tx.To())
	assert.Equal(t, uint64(120_000), tx.Gas())
	assert.Equal(t, big.NewInt(11_000_000), tx.GasFeeCap())
	assert.Equal(t, 0, chainID.Cmp(tx.ChainId()))

	sender, err := types.Sender(types.LatestSignerForChainID(chainID), tx)
	require.NoError(t, err)
	assert.Equal(t, c.From(), sender)

	_, err = c.SubmitWrite(context.Background(), to, nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), backend.sent[1].Nonce())
}

func TestSubmitWriteWithoutKey(t *testing.T) {
	c, err := NewClient(&fakeBackend{}, big.NewInt(1), "", time.Millisecond)
	require.NoError(t, err)

	_, err = c.SubmitWrite(context.Background(), common.Address{}, nil)
	assert.ErrorIs(t, err, ErrNoSigner)
}

func TestWaitForConfirmationPolls(t *testing.T) {
	want := &types.Receipt{Status: types.ReceiptStatusSuccessful}
	backend := &fakeBackend{receiptMisses: 3, receipt: want}
	c, err := NewClient(backend, big.NewInt(1), "", time.Millisecond)
	require.NoError(t, err)

	got, err := c.WaitForConfirmation(context.Background(), common.Hash{1})
	require.NoError(t, err)
	assert.Same(t, want, got)
}

func TestWaitForConfirmationTimeout(t *testing.T) {
	backend := &fakeBackend{receiptMisses: 1 << 30}
	c, err := NewClient(backend, big.NewInt(1), "", time.Millisecond)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = c.WaitForConfirmation(ctx, common.Hash{1})
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestReadViewWithoutKey(t *testing.T) {
	backend := &fakeBackend{callOut: []byte{0x01}}
	c, err := NewClient(backend, big.NewInt(1), "", time.Millisecond)
	require.NoError(t, err)

	to := common.HexToAddress("0x01")
	out, err := c.ReadView(context.Background(), to, []byte{0xaa})
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01}, out)
	assert.Equal(t, &to, backend.callMsg.To)
}
