// Package chain submits and reads contract calls over an EVM JSON-RPC node.
package chain

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/rs/zerolog"

	"swagly-backend/internal/common/config"
	"swagly-backend/internal/common/logger"
)

var ErrNoSigner = errors.New("chain: no attestor key configured")

// Backend is the RPC surface used; *ethclient.Client implements it.
type Backend interface {
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasTipCap(ctx context.Context) (*big.Int, error)
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

type Client struct {
	backend      Backend
	chainID      *big.Int
	key          *ecdsa.PrivateKey
	from         common.Address
	pollInterval time.Duration

	// serialises nonce allocation
	sendMu sync.Mutex
	log    zerolog.Logger
}

// Dial connects to cfg.Chain.RPCURL. Without an attestor key the client can
// still read.
func Dial(ctx context.Context, cfg *config.Config) (*Client, *ethclient.Client, error) {
	rpc, err := ethclient.DialContext(ctx, cfg.Chain.RPCURL)
	if err != nil {
		return nil, nil, fmt.Errorf("dial %s: %w", cfg.Chain.RPCURL, err)
	}
	c, err := NewClient(rpc, big.NewInt(cfg.Chain.ChainID), cfg.Chain.AttestorKey, cfg.Chain.PollInterval)
	if err != nil {
		rpc.Close()
		return nil, nil, err
	}
	return c, rpc, nil
}

func NewClient(backend Backend, chainID *big.Int, hexKey string, pollInterval time.Duration) (*Client, error) {
	if pollInterval <= 0 {
		pollInterval = 2 * time.Second
	}
	c := &Client{
		backend:      backend,
		chainID:      chainID,
		pollInterval: pollInterval,
		log:          logger.Component("chain"),
	}

	if hexKey != "" {
		key, err := ParseKey(hexKey)
		if err != nil {
			return nil, err
		}
		c.key = key
		c.from = crypto.PubkeyToAddress(key.PublicKey)
		c.log.Info().Str("attestor", c.from.Hex()).Int64("chain_id", chainID.Int64()).Msg("Attestor wallet loaded")
	} else {
		c.log.Warn().Msg("No attestor key configured, ledger writes are disabled")
	}
	return c, nil
}

// ParseKey accepts a hex private key with or without the 0x prefix.
func ParseKey(hexKey string) (*ecdsa.PrivateKey, error) {
	trimmed := strings.TrimPrefix(strings.TrimPrefix(strings.TrimSpace(hexKey), "0x"), "0X")
	key, err := crypto.HexToECDSA(trimmed)
	if err != nil {
		return nil, fmt.Errorf("invalid attestor key: %w", err)
	}
	return key, nil
}

// From is the attestor address, zero when no key is configured.
func (c *Client) From() common.Address {
	return c.from
}

func (c *Client) SubmitWrite(ctx context.Context, to common.Address, data []byte) (common.Hash, error) {
	if c.key == nil {
		return common.Hash{}, ErrNoSigner
	}

	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	nonce, err := c.backend.PendingNonceAt(ctx, c.from)
	if err != nil {
		return common.Hash{}, fmt.Errorf("pending nonce: %w", err)
	}
	tip, err := c.backend.SuggestGasTipCap(ctx)
	if err != nil {
		return common.Hash{}, fmt.Errorf("suggest gas tip: %w", err)
	}
	head, err := c.backend.HeaderByNumber(ctx, nil)
	if err != nil {
		return common.Hash{}, fmt.Errorf("latest header: %w", err)
	}
	feeCap := new(big.Int).Set(tip)
	if head.BaseFee != nil {
		feeCap.Add(feeCap, new(big.Int).Mul(head.BaseFee, big.NewInt(2)))
	}

	gas, err := c.backend.EstimateGas(ctx, ethereum.CallMsg{
		From:      c.from,
		To:        &to,
		GasFeeCap: feeCap,
		GasTipCap: tip,
		Data:      data,
	})
	if err != nil {
		return common.Hash{}, fmt.Errorf("estimate gas: %w", err)
	}
	gas = gas * 12 / 10

	tx := types.NewTx(&types.DynamicFeeTx{
		ChainID:   c.chainID,
		Nonce:     nonce,
		GasTipCap: tip,
		GasFeeCap: feeCap,
		Gas:       gas,
		To:        &to,
		Data:      data,
	})
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(c.chainID), c.key)
	if err != nil {
		return common.Hash{}, fmt.Errorf("sign transaction: %w", err)
	}
	if err := c.backend.SendTransaction(ctx, signed); err != nil {
		return common.Hash{}, fmt.Errorf("send transaction: %w", err)
	}

	c.log.Debug().
		Str("tx", signed.Hash().Hex()).
		Uint64("nonce", nonce).
		Uint64("gas", gas).
		Msg("Transaction sent")
	return signed.Hash(), nil
}

// WaitForConfirmation polls for the receipt until it exists or ctx ends.
func (c *Client) WaitForConfirmation(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		receipt, err := c.backend.TransactionReceipt(ctx, hash)
		if err == nil {
			return receipt, nil
		}
		if !errors.Is(err, ethereum.NotFound) {
			return nil, fmt.Errorf("transaction receipt: %w", err)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (c *Client) ReadView(ctx context.Context, to common.Address, data []byte) ([]byte, error) {
	out, err := c.backend.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("call contract: %w", err)
	}
	return out, nil
}
