package ledger_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "swagly-backend/internal/common/errors"
	"swagly-backend/internal/features/attestation/canonical"
	"swagly-backend/internal/features/attestation/ledger"
	"swagly-backend/internal/features/attestation/ledger/ledgertest"
	"swagly-backend/internal/features/attestation/models"
)

var alice = common.HexToAddress("0x1111111111111111111111111111111111111111")

func newClient(t *testing.T) (*ledger.Client, *ledgertest.Contract) {
	t.Helper()
	contract := ledgertest.NewContract()
	fixed := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	contract.Now = func() time.Time { return fixed }
	return ledger.NewClient(contract, contract.Address, "https://sepolia.scrollscan.com/"), contract
}

func activityRequest() ledger.ActivityCompletionRequest {
	return ledger.ActivityCompletionRequest{
		Recipient:    alice,
		EventID:      "evt1",
		ActivityID:   "act-welcome",
		Tokens:       50,
		ScanMethod:   models.ScanMethodNFC,
		ActivityName: "Welcome booth",
	}
}

func TestIssueActivityCompletion(t *testing.T) {
	client, contract := newClient(t)
	ctx := context.Background()

	res, err := client.IssueActivityCompletion(ctx, activityRequest())
	require.NoError(t, err)
	assert.False(t, res.AttestationID.IsZero())
	assert.NotEqual(t, common.Hash{}, res.TxHash)
	assert.NotZero(t, res.BlockNumber)
	assert.Equal(t, 1, contract.Issued())

	done, err := client.IsActivityCompleted(ctx, "evt1", "act-welcome", alice)
	require.NoError(t, err)
	assert.True(t, done)

	other, err := client.IsActivityCompleted(ctx, "evt1", "act-other", alice)
	require.NoError(t, err)
	assert.False(t, other)

	att, err := client.GetAttestation(ctx, res.AttestationID)
	require.NoError(t, err)
	require.NotNil(t, att)
	assert.Equal(t, res.AttestationID, att.UID)
	assert.Equal(t, alice, att.Recipient)
	assert.Equal(t, models.KindActivityCompletion, att.Kind)
	assert.Equal(t, models.StatusActive, att.Status)
	assert.Nil(t, att.ExpiresAt)

	decoded, err := client.DecodeActivityCompletion(ctx, res.AttestationID)
	require.NoError(t, err)
	require.NotNil(t, decoded)
	assert.Equal(t, canonical.FromString("evt1"), decoded.EventKey)
	assert.Equal(t, canonical.FromString("act-welcome"), decoded.ActivityKey)
	assert.Equal(t, uint64(50), decoded.TokensAwarded)
	assert.Equal(t, models.ScanMethodNFC, decoded.ScanMethod)
	assert.Equal(t, "Welcome booth", decoded.ActivityName)
	assert.Equal(t, int64(1740830400), decoded.CompletedAt.Unix())

	uids, err := client.GetUserAttestations(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, []canonical.Key{res.AttestationID}, uids)
}

func TestIssueRejectsUnsupportedEnums(t *testing.T) {
	client, contract := newClient(t)
	req := activityRequest()
	req.ScanMethod = "bluetooth"

	_, err := client.IssueActivityCompletion(context.Background(), req)
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok, "got %v", err)
	assert.Equal(t, apperrors.ErrCodeValidation, appErr.Code)
	assert.Equal(t, "scanMethod", appErr.Details["field"])
	var werr *ledger.LedgerWriteError
	assert.False(t, errors.As(err, &werr))

	_, err = client.IssueProofValidation(context.Background(), ledger.ProofValidationRequest{
		Recipient:  alice,
		ActivityID: "act-1",
		ProofID:    "proof-1",
		ProofType:  "telepathy",
		Approved:   true,
	})
	appErr, ok = apperrors.AsAppError(err)
	require.True(t, ok, "got %v", err)
	assert.Equal(t, apperrors.ErrCodeValidation, appErr.Code)
	assert.Equal(t, "proofType", appErr.Details["field"])
	assert.True(t, appErr.IsValidation())

	assert.Equal(t, 0, contract.Issued())
}

func TestIssueFailures(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(c *ledgertest.Contract)
		wantErr error
		hasTx   bool
	}{
		{
			name:    "submit rejected",
			setup:   func(c *ledgertest.Contract) { c.FailSubmits(errors.New("insufficient funds")) },
			wantErr: nil,
		},
		{
			name:    "reverted receipt",
			setup:   func(c *ledgertest.Contract) { c.RevertNext() },
			wantErr: ledger.ErrReverted,
			hasTx:   true,
		},
		{
			name:    "confirmation timeout",
			setup:   func(c *ledgertest.Contract) { c.FailConfirmations(context.DeadlineExceeded) },
			wantErr: context.DeadlineExceeded,
			hasTx:   true,
		},
		{
			name:    "missing created event",
			setup:   func(c *ledgertest.Contract) { c.DropEvents(true) },
			wantErr: ledger.ErrMissingEvent,
			hasTx:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, contract := newClient(t)
			tt.setup(contract)

			res, err := client.IssueActivityCompletion(context.Background(), activityRequest())
			assert.Nil(t, res)

			var werr *ledger.LedgerWriteError
			require.ErrorAs(t, err, &werr)
			assert.Equal(t, "issue_activity_completion", werr.Op)
			assert.Equal(t, tt.hasTx, werr.TxHash != common.Hash{})
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestSecondIssueForSameTripleReverts(t *testing.T) {
	client, _ := newClient(t)
	ctx := context.Background()

	_, err := client.IssueActivityCompletion(ctx, activityRequest())
	require.NoError(t, err)

	_, err = client.IssueActivityCompletion(ctx, activityRequest())
	assert.ErrorIs(t, err, ledger.ErrReverted)
}

func TestReadFailureIsNotFalse(t *testing.T) {
	client, contract := newClient(t)
	contract.FailReads(errors.New("rpc unavailable"))

	done, err := client.IsActivityCompleted(context.Background(), "evt1", "act-welcome", alice)
	assert.False(t, done)

	var rerr *ledger.LedgerReadError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, "is_activity_completed", rerr.Op)
}

func TestGetAttestationUnknown(t *testing.T) {
	client, _ := newClient(t)

	att, err := client.GetAttestation(context.Background(), canonical.FromString("nope"))
	require.NoError(t, err)
	assert.Nil(t, att)

	decoded, err := client.DecodeActivityCompletion(context.Background(), canonical.FromString("nope"))
	require.NoError(t, err)
	assert.Nil(t, decoded)
}

func TestProofValidationAndKindMismatch(t *testing.T) {
	client, contract := newClient(t)
	ctx := context.Background()

	res, err := client.IssueProofValidation(ctx, ledger.ProofValidationRequest{
		Recipient:  alice,
		ActivityID: "act-photo",
		ProofID:    "proof-7",
		ProofType:  models.ProofTypeImage,
		Approved:   true,
		Tokens:     25,
	})
	require.NoError(t, err)

	proof, err := client.DecodeProofValidation(ctx, res.AttestationID)
	require.NoError(t, err)
	require.NotNil(t, proof)
	assert.Equal(t, canonical.FromString("proof-7"), proof.ProofKey)
	assert.Equal(t, models.ProofTypeImage, proof.ProofType)
	assert.True(t, proof.Approved)
	assert.Equal(t, contract.Attestor, proof.Validator)
	assert.Equal(t, uint64(25), proof.TokensAwarded)

	_, err = client.DecodeActivityCompletion(ctx, res.AttestationID)
	var derr *ledger.DecodeError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, models.KindActivityCompletion, derr.Want)
	assert.Equal(t, models.KindProofValidation, derr.Got)
}

func TestRevoke(t *testing.T) {
	client, _ := newClient(t)
	ctx := context.Background()

	res, err := client.IssueActivityCompletion(ctx, activityRequest())
	require.NoError(t, err)

	valid, err := client.IsValid(ctx, res.AttestationID)
	require.NoError(t, err)
	assert.True(t, valid)

	hash, err := client.Revoke(ctx, res.AttestationID, "duplicate scan")
	require.NoError(t, err)
	assert.NotEqual(t, common.Hash{}, hash)

	valid, err = client.IsValid(ctx, res.AttestationID)
	require.NoError(t, err)
	assert.False(t, valid)

	att, err := client.GetAttestation(ctx, res.AttestationID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusRevoked, att.Status)

	_, err = client.Revoke(ctx, res.AttestationID, "again")
	assert.ErrorIs(t, err, ledger.ErrReverted)
}

func TestExplorerURLs(t *testing.T) {
	client, contract := newClient(t)
	hash := common.HexToHash("0xabc")

	assert.Equal(t, "https://sepolia.scrollscan.com/tx/"+hash.Hex(), client.ExplorerTxURL(hash))
	assert.Equal(t, "https://sepolia.scrollscan.com/address/"+contract.Address.Hex()+"#readContract", client.ExplorerContractURL())
}
