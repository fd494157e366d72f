package service

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	"swagly-backend/internal/features/attestation/canonical"
	"swagly-backend/internal/features/attestation/ledger"
	"swagly-backend/internal/features/attestation/models"
)

// Ledger is the subset of *ledger.Client the service relies on.
type Ledger interface {
	IssueActivityCompletion(ctx context.Context, req ledger.ActivityCompletionRequest) (*models.IssueResult, error)
	IssueProofValidation(ctx context.Context, req ledger.ProofValidationRequest) (*models.IssueResult, error)
	Revoke(ctx context.Context, uid canonical.Key, reason string) (common.Hash, error)
	GetAttestation(ctx context.Context, uid canonical.Key) (*models.Attestation, error)
	IsValid(ctx context.Context, uid canonical.Key) (bool, error)
	IsActivityCompleted(ctx context.Context, eventID, activityID string, recipient common.Address) (bool, error)
	DecodeActivityCompletion(ctx context.Context, uid canonical.Key) (*models.ActivityCompletion, error)
	DecodeProofValidation(ctx context.Context, uid canonical.Key) (*models.ProofValidation, error)
	GetUserAttestations(ctx context.Context, user common.Address) ([]canonical.Key, error)
	ExplorerTxURL(hash common.Hash) string
}
