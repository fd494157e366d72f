// Package ledger talks to the SwaglyAttestations contract. Writes are only
// reported as successful once the transaction receipt has been observed.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/rs/zerolog"

	apperrors "swagly-backend/internal/common/errors"
	"swagly-backend/internal/common/logger"
	"swagly-backend/internal/features/attestation/canonical"
	"swagly-backend/internal/features/attestation/models"
)

// Transactor is the chain capability the client needs: raw calldata in,
// raw return data or receipts out.
type Transactor interface {
	SubmitWrite(ctx context.Context, to common.Address, data []byte) (common.Hash, error)
	WaitForConfirmation(ctx context.Context, tx common.Hash) (*types.Receipt, error)
	ReadView(ctx context.Context, to common.Address, data []byte) ([]byte, error)
}

type ActivityCompletionRequest struct {
	Recipient    common.Address
	EventID      string
	ActivityID   string
	Tokens       uint64
	ScanMethod   models.ScanMethod
	ActivityName string
}

type ProofValidationRequest struct {
	Recipient  common.Address
	ActivityID string
	ProofID    string
	ProofType  models.ProofType
	Approved   bool
	Tokens     uint64
}

type Client struct {
	tx          Transactor
	contract    common.Address
	explorerURL string
	abi         abi.ABI
	createdID   common.Hash
	log         zerolog.Logger
}

func NewClient(tx Transactor, contract common.Address, explorerURL string) *Client {
	return &Client{
		tx:          tx,
		contract:    contract,
		explorerURL: strings.TrimRight(explorerURL, "/"),
		abi:         ContractABI,
		createdID:   ContractABI.Events[eventAttestationCreated].ID,
		log:         logger.Component("ledger"),
	}
}

func (c *Client) ContractAddress() common.Address {
	return c.contract
}

// IssueActivityCompletion records that recipient completed an activity. The
// event and activity identifiers are encoded with canonical.FromString.
func (c *Client) IssueActivityCompletion(ctx context.Context, req ActivityCompletionRequest) (*models.IssueResult, error) {
	const op = "issue_activity_completion"
	if !req.ScanMethod.Valid() {
		return nil, apperrors.NewValidationError("scanMethod", fmt.Sprintf("unsupported scan method %q", req.ScanMethod))
	}

	eventKey := canonical.FromString(req.EventID)
	activityKey := canonical.FromString(req.ActivityID)

	receipt, hash, err := c.write(ctx, op, methodAttestActivityCompletion,
		req.Recipient,
		[32]byte(eventKey),
		[32]byte(activityKey),
		new(big.Int).SetUint64(req.Tokens),
		string(req.ScanMethod),
		req.ActivityName,
	)
	if err != nil {
		return nil, err
	}

	return c.issueResult(op, receipt, hash)
}

func (c *Client) IssueProofValidation(ctx context.Context, req ProofValidationRequest) (*models.IssueResult, error) {
	const op = "issue_proof_validation"
	if !req.ProofType.Valid() {
		return nil, apperrors.NewValidationError("proofType", fmt.Sprintf("unsupported proof type %q", req.ProofType))
	}

	receipt, hash, err := c.write(ctx, op, methodAttestProofValidation,
		req.Recipient,
		[32]byte(canonical.FromString(req.ActivityID)),
		[32]byte(canonical.FromString(req.ProofID)),
		string(req.ProofType),
		req.Approved,
		new(big.Int).SetUint64(req.Tokens),
	)
	if err != nil {
		return nil, err
	}

	return c.issueResult(op, receipt, hash)
}

// Revoke marks an attestation revoked and returns the confirmed tx hash.
func (c *Client) Revoke(ctx context.Context, uid canonical.Key, reason string) (common.Hash, error) {
	_, hash, err := c.write(ctx, "revoke", methodRevoke, [32]byte(uid), reason)
	if err != nil {
		return common.Hash{}, err
	}
	return hash, nil
}

// GetAttestation returns nil, nil when the ledger has no record for uid.
func (c *Client) GetAttestation(ctx context.Context, uid canonical.Key) (*models.Attestation, error) {
	const op = "get_attestation"
	out, err := c.read(ctx, op, methodGetAttestation, [32]byte(uid))
	if err != nil {
		return nil, err
	}

	t := *abi.ConvertType(out[0], new(attestationTuple)).(*attestationTuple)
	if canonical.Key(t.Uid).IsZero() {
		return nil, nil
	}

	att := &models.Attestation{
		UID:       canonical.Key(t.Uid),
		Recipient: t.Recipient,
		Attestor:  t.Attestor,
		Kind:      models.Kind(t.AttestationType),
		Status:    models.Status(t.Status),
		CreatedAt: unixTime(t.Timestamp),
		SchemaID:  canonical.Key(t.SchemaId),
		Data:      t.Data,
	}
	if t.ExpirationTime != nil && t.ExpirationTime.Sign() > 0 {
		exp := unixTime(t.ExpirationTime)
		att.ExpiresAt = &exp
	}
	return att, nil
}

func (c *Client) IsValid(ctx context.Context, uid canonical.Key) (bool, error) {
	out, err := c.read(ctx, "is_valid", methodIsValid, [32]byte(uid))
	if err != nil {
		return false, err
	}
	return *abi.ConvertType(out[0], new(bool)).(*bool), nil
}

// IsActivityCompleted answers from the ledger. A read failure is returned as
// an error; it never reads as "not completed".
func (c *Client) IsActivityCompleted(ctx context.Context, eventID, activityID string, recipient common.Address) (bool, error) {
	out, err := c.read(ctx, "is_activity_completed", methodIsActivityCompleted,
		[32]byte(canonical.FromString(eventID)),
		[32]byte(canonical.FromString(activityID)),
		recipient,
	)
	if err != nil {
		return false, err
	}
	return *abi.ConvertType(out[0], new(bool)).(*bool), nil
}

func (c *Client) GetUserAttestations(ctx context.Context, user common.Address) ([]canonical.Key, error) {
	out, err := c.read(ctx, "get_user_attestations", methodGetUserAttestations, user)
	if err != nil {
		return nil, err
	}
	raw := *abi.ConvertType(out[0], new([][32]byte)).(*[][32]byte)
	keys := make([]canonical.Key, len(raw))
	for i, r := range raw {
		keys[i] = canonical.Key(r)
	}
	return keys, nil
}

// DecodeActivityCompletion returns nil, nil if uid is unknown and a
// *DecodeError if the attestation has another kind.
func (c *Client) DecodeActivityCompletion(ctx context.Context, uid canonical.Key) (*models.ActivityCompletion, error) {
	if ok, err := c.expectKind(ctx, uid, models.KindActivityCompletion); err != nil || !ok {
		return nil, err
	}

	out, err := c.read(ctx, "decode_activity_completion", methodDecodeActivityCompletion, [32]byte(uid))
	if err != nil {
		return nil, err
	}
	t := *abi.ConvertType(out[0], new(activityCompletionTuple)).(*activityCompletionTuple)

	return &models.ActivityCompletion{
		EventKey:      canonical.Key(t.EventId),
		ActivityKey:   canonical.Key(t.ActivityId),
		TokensAwarded: bigToUint64(t.TokensAwarded),
		ScanMethod:    models.ScanMethod(t.ScanType),
		ActivityName:  t.ActivityName,
		CompletedAt:   unixTime(t.CompletedAt),
	}, nil
}

func (c *Client) DecodeProofValidation(ctx context.Context, uid canonical.Key) (*models.ProofValidation, error) {
	if ok, err := c.expectKind(ctx, uid, models.KindProofValidation); err != nil || !ok {
		return nil, err
	}

	out, err := c.read(ctx, "decode_proof_validation", methodDecodeProofValidation, [32]byte(uid))
	if err != nil {
		return nil, err
	}
	t := *abi.ConvertType(out[0], new(proofValidationTuple)).(*proofValidationTuple)

	return &models.ProofValidation{
		ActivityKey:   canonical.Key(t.ActivityId),
		ProofKey:      canonical.Key(t.ProofId),
		ProofType:     models.ProofType(t.ProofType),
		Approved:      t.Approved,
		Validator:     t.Validator,
		TokensAwarded: bigToUint64(t.TokensAwarded),
		ValidatedAt:   unixTime(t.ValidatedAt),
	}, nil
}

func (c *Client) ExplorerTxURL(hash common.Hash) string {
	return fmt.Sprintf("%s/tx/%s", c.explorerURL, hash.Hex())
}

func (c *Client) ExplorerContractURL() string {
	return fmt.Sprintf("%s/address/%s#readContract", c.explorerURL, c.contract.Hex())
}

// expectKind reports false, nil when uid does not exist.
func (c *Client) expectKind(ctx context.Context, uid canonical.Key, want models.Kind) (bool, error) {
	att, err := c.GetAttestation(ctx, uid)
	if err != nil {
		return false, err
	}
	if att == nil {
		return false, nil
	}
	if att.Kind != want {
		return false, &DecodeError{UID: uid, Want: want, Got: att.Kind}
	}
	return true, nil
}

func (c *Client) write(ctx context.Context, op, method string, args ...interface{}) (*types.Receipt, common.Hash, error) {
	data, err := c.abi.Pack(method, args...)
	if err != nil {
		return nil, common.Hash{}, &LedgerWriteError{Op: op, Err: fmt.Errorf("pack %s: %w", method, err)}
	}

	hash, err := c.tx.SubmitWrite(ctx, c.contract, data)
	if err != nil {
		return nil, common.Hash{}, &LedgerWriteError{Op: op, Err: err}
	}
	c.log.Info().Str("op", op).Str("tx", hash.Hex()).Msg("Transaction submitted")

	receipt, err := c.tx.WaitForConfirmation(ctx, hash)
	if err != nil {
		return nil, hash, &LedgerWriteError{Op: op, TxHash: hash, Err: err}
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return nil, hash, &LedgerWriteError{Op: op, TxHash: hash, Err: ErrReverted}
	}

	c.log.Info().
		Str("op", op).
		Str("tx", hash.Hex()).
		Uint64("block", blockNumber(receipt)).
		Msg("Transaction confirmed")
	return receipt, hash, nil
}

func (c *Client) read(ctx context.Context, op, method string, args ...interface{}) ([]interface{}, error) {
	data, err := c.abi.Pack(method, args...)
	if err != nil {
		return nil, &LedgerReadError{Op: op, Err: fmt.Errorf("pack %s: %w", method, err)}
	}

	raw, err := c.tx.ReadView(ctx, c.contract, data)
	if err != nil {
		return nil, &LedgerReadError{Op: op, Err: err}
	}

	out, err := c.abi.Unpack(method, raw)
	if err != nil {
		return nil, &LedgerReadError{Op: op, Err: fmt.Errorf("unpack %s: %w", method, err)}
	}
	if len(out) == 0 {
		return nil, &LedgerReadError{Op: op, Err: errors.New("empty return data")}
	}
	return out, nil
}

func (c *Client) issueResult(op string, receipt *types.Receipt, hash common.Hash) (*models.IssueResult, error) {
	uid, ok := c.createdUID(receipt)
	if !ok {
		return nil, &LedgerWriteError{Op: op, TxHash: hash, Err: ErrMissingEvent}
	}
	return &models.IssueResult{
		AttestationID: uid,
		TxHash:        hash,
		BlockNumber:   blockNumber(receipt),
	}, nil
}

// createdUID takes the first indexed topic of the contract's AttestationCreated log.
func (c *Client) createdUID(receipt *types.Receipt) (canonical.Key, bool) {
	for _, l := range receipt.Logs {
		if l == nil || l.Address != c.contract || len(l.Topics) < 2 {
			continue
		}
		if l.Topics[0] == c.createdID {
			return canonical.Key(l.Topics[1]), true
		}
	}
	return canonical.Zero, false
}

func blockNumber(r *types.Receipt) uint64 {
	if r.BlockNumber == nil {
		return 0
	}
	return r.BlockNumber.Uint64()
}

func unixTime(v *big.Int) time.Time {
	if v == nil || !v.IsInt64() {
		return time.Time{}
	}
	return time.Unix(v.Int64(), 0).UTC()
}

func bigToUint64(v *big.Int) uint64 {
	if v == nil || !v.IsUint64() {
		return 0
	}
	return v.Uint64()
}
