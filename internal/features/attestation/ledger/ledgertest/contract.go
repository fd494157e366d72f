// Package ledgertest provides an in-memory SwaglyAttestations contract that
// speaks real ABI calldata, for tests of code built on ledger.Transactor.
package ledgertest

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	"swagly-backend/internal/features/attestation/ledger"
)

var ErrReverted = errors.New("execution reverted")

type attestation struct {
	Uid             [32]byte
	Recipient       common.Address
	Attestor        common.Address
	AttestationType uint8
	Status          uint8
	Timestamp       *big.Int
	ExpirationTime  *big.Int
	SchemaId        [32]byte
	Data            []byte
}

type activityCompletion struct {
	EventId       [32]byte
	ActivityId    [32]byte
	TokensAwarded *big.Int
	ScanType      string
	ActivityName  string
	CompletedAt   *big.Int
}

type proofValidation struct {
	ActivityId    [32]byte
	ProofId       [32]byte
	ProofType     string
	Approved      bool
	Validator     common.Address
	TokensAwarded *big.Int
	ValidatedAt   *big.Int
}

type completionKey struct {
	event     [32]byte
	activity  [32]byte
	recipient common.Address
}

// Contract implements ledger.Transactor. Every accepted write is mined
// immediately in its own block.
type Contract struct {
	Address  common.Address
	Attestor common.Address
	Now      func() time.Time

	mu          sync.Mutex
	records     map[[32]byte]*attestation
	activities  map[[32]byte]*activityCompletion
	proofs      map[[32]byte]*proofValidation
	byUser      map[common.Address][][32]byte
	completed   map[completionKey][32]byte
	receipts    map[common.Hash]*types.Receipt
	nonce       uint64
	block       uint64
	issued      int
	submitErr   error
	readErr     error
	confirmErr  error
	revertNext  bool
	dropEvents  bool
	submitDelay time.Duration
}

func NewContract() *Contract {
	return &Contract{
		Address:    common.HexToAddress("0xA9fdE7d55Fbc7fD94e361A63860E650521000595"),
		Attestor:   common.HexToAddress("0x00000000000000000000000000000000000a7e57"),
		Now:        time.Now,
		records:    make(map[[32]byte]*attestation),
		activities: make(map[[32]byte]*activityCompletion),
		proofs:     make(map[[32]byte]*proofValidation),
		byUser:     make(map[common.Address][][32]byte),
		completed:  make(map[completionKey][32]byte),
		receipts:   make(map[common.Hash]*types.Receipt),
		block:      100,
	}
}

func (c *Contract) FailSubmits(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.submitErr = err
}

func (c *Contract) FailReads(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.readErr = err
}

func (c *Contract) FailConfirmations(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.confirmErr = err
}

// RevertNext makes the next write mine with a failed receipt.
func (c *Contract) RevertNext() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.revertNext = true
}

// DropEvents mines writes without emitting AttestationCreated.
func (c *Contract) DropEvents(drop bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dropEvents = drop
}

// SlowSubmits widens the window between check and write in concurrency tests.
func (c *Contract) SlowSubmits(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.submitDelay = d
}

// Issued counts successful attest* transactions.
func (c *Contract) Issued() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.issued
}

func (c *Contract) SubmitWrite(ctx context.Context, to common.Address, data []byte) (common.Hash, error) {
	c.mu.Lock()
	delay := c.submitDelay
	c.mu.Unlock()
	if delay > 0 {
		select {
		case <-ctx.Done():
			return common.Hash{}, ctx.Err()
		case <-time.After(delay):
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.submitErr != nil {
		return common.Hash{}, c.submitErr
	}
	if to != c.Address {
		return common.Hash{}, fmt.Errorf("unexpected contract %s", to.Hex())
	}
	if len(data) < 4 {
		return common.Hash{}, errors.New("calldata too short")
	}

	method, err := ledger.ContractABI.MethodById(data[:4])
	if err != nil {
		return common.Hash{}, err
	}
	args, err := method.Inputs.Unpack(data[4:])
	if err != nil {
		return common.Hash{}, err
	}

	c.nonce++
	c.block++
	hash := crypto.Keccak256Hash(data, uint64Bytes(c.nonce))
	receipt := &types.Receipt{
		Status:      types.ReceiptStatusSuccessful,
		TxHash:      hash,
		BlockNumber: new(big.Int).SetUint64(c.block),
	}
	c.receipts[hash] = receipt

	if c.revertNext {
		c.revertNext = false
		receipt.Status = types.ReceiptStatusFailed
		return hash, nil
	}

	var uid [32]byte
	switch method.Name {
	case "attestActivityCompletion":
		uid, err = c.attestActivity(args)
	case "attestProofValidation":
		uid, err = c.attestProof(args)
	case "revoke":
		err = c.revoke(args)
	default:
		err = fmt.Errorf("write to view method %s", method.Name)
	}
	if err != nil {
		receipt.Status = types.ReceiptStatusFailed
		return hash, nil
	}

	if uid != ([32]byte{}) {
		c.issued++
		if !c.dropEvents {
			rec := c.records[uid]
			receipt.Logs = []*types.Log{{
				Address: c.Address,
				Topics: []common.Hash{
					ledger.ContractABI.Events["AttestationCreated"].ID,
					common.Hash(uid),
					common.BytesToHash(rec.Recipient.Bytes()),
					common.BytesToHash(rec.Attestor.Bytes()),
				},
				TxHash:      hash,
				BlockNumber: c.block,
			}}
		}
	}
	return hash, nil
}

func (c *Contract) WaitForConfirmation(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.confirmErr != nil {
		return nil, c.confirmErr
	}
	r, ok := c.receipts[hash]
	if !ok {
		return nil, fmt.Errorf("unknown transaction %s", hash.Hex())
	}
	return r, nil
}

func (c *Contract) ReadView(ctx context.Context, to common.Address, data []byte) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.readErr != nil {
		return nil, c.readErr
	}
	if len(data) < 4 {
		return nil, errors.New("calldata too short")
	}
	method, err := ledger.ContractABI.MethodById(data[:4])
	if err != nil {
		return nil, err
	}
	args, err := method.Inputs.Unpack(data[4:])
	if err != nil {
		return nil, err
	}

	var result interface{}
	switch method.Name {
	case "getAttestation":
		uid := args[0].([32]byte)
		if rec, ok := c.records[uid]; ok {
			result = *rec
		} else {
			result = emptyAttestation()
		}
	case "getUserAttestations":
		uids := c.byUser[args[0].(common.Address)]
		out := make([][32]byte, len(uids))
		copy(out, uids)
		result = out
	case "isValid":
		rec, ok := c.records[args[0].([32]byte)]
		result = ok && c.valid(rec)
	case "isActivityCompleted":
		_, ok := c.completed[completionKey{
			event:     args[0].([32]byte),
			activity:  args[1].([32]byte),
			recipient: args[2].(common.Address),
		}]
		result = ok
	case "decodeActivityCompletion":
		a, ok := c.activities[args[0].([32]byte)]
		if !ok {
			return nil, ErrReverted
		}
		result = *a
	case "decodeProofValidation":
		p, ok := c.proofs[args[0].([32]byte)]
		if !ok {
			return nil, ErrReverted
		}
		result = *p
	default:
		return nil, fmt.Errorf("call to write method %s", method.Name)
	}

	return method.Outputs.Pack(result)
}

// SeedActivity stores a completion directly, as if issued earlier.
func (c *Contract) SeedActivity(recipient common.Address, eventKey, activityKey [32]byte, tokens uint64) [32]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nonce++
	uid, _ := c.attestActivity([]interface{}{
		recipient, eventKey, activityKey, new(big.Int).SetUint64(tokens), "nfc", "seeded",
	})
	return uid
}

func (c *Contract) attestActivity(args []interface{}) ([32]byte, error) {
	recipient := args[0].(common.Address)
	key := completionKey{event: args[1].([32]byte), activity: args[2].([32]byte), recipient: recipient}
	if _, done := c.completed[key]; done {
		return [32]byte{}, ErrReverted
	}

	now := big.NewInt(c.Now().Unix())
	uid := c.newUID(recipient)
	c.store(uid, recipient, 0, now)
	c.activities[uid] = &activityCompletion{
		EventId:       key.event,
		ActivityId:    key.activity,
		TokensAwarded: args[3].(*big.Int),
		ScanType:      args[4].(string),
		ActivityName:  args[5].(string),
		CompletedAt:   now,
	}
	c.completed[key] = uid
	return uid, nil
}

func (c *Contract) attestProof(args []interface{}) ([32]byte, error) {
	recipient := args[0].(common.Address)
	now := big.NewInt(c.Now().Unix())
	uid := c.newUID(recipient)
	c.store(uid, recipient, 1, now)
	c.proofs[uid] = &proofValidation{
		ActivityId:    args[1].([32]byte),
		ProofId:       args[2].([32]byte),
		ProofType:     args[3].(string),
		Approved:      args[4].(bool),
		Validator:     c.Attestor,
		TokensAwarded: args[5].(*big.Int),
		ValidatedAt:   now,
	}
	return uid, nil
}

func (c *Contract) revoke(args []interface{}) error {
	rec, ok := c.records[args[0].([32]byte)]
	if !ok || rec.Status != 0 {
		return ErrReverted
	}
	rec.Status = 1
	return nil
}

func (c *Contract) store(uid [32]byte, recipient common.Address, kind uint8, now *big.Int) {
	c.records[uid] = &attestation{
		Uid:             uid,
		Recipient:       recipient,
		Attestor:        c.Attestor,
		AttestationType: kind,
		Status:          0,
		Timestamp:       now,
		ExpirationTime:  big.NewInt(0),
		SchemaId:        crypto.Keccak256Hash([]byte{kind}),
		Data:            []byte{},
	}
	c.byUser[recipient] = append(c.byUser[recipient], uid)
}

func (c *Contract) newUID(recipient common.Address) [32]byte {
	return crypto.Keccak256Hash(recipient.Bytes(), uint64Bytes(c.nonce), uint64Bytes(c.block))
}

func (c *Contract) valid(rec *attestation) bool {
	if rec.Status != 0 {
		return false
	}
	exp := rec.ExpirationTime.Int64()
	return exp == 0 || exp > c.Now().Unix()
}

func emptyAttestation() attestation {
	return attestation{
		Timestamp:      big.NewInt(0),
		ExpirationTime: big.NewInt(0),
		Data:           []byte{},
	}
}

func uint64Bytes(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}
