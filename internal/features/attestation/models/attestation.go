package models

import (
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"swagly-backend/internal/features/attestation/canonical"
)

// Kind mirrors the contract's AttestationType enum; the order is part of the ABI.
type Kind uint8

const (
	KindActivityCompletion Kind = iota
	KindProofValidation
	KindPassportClaim
	KindReferralVerification
	KindTransactionProof
)

func (k Kind) String() string {
	switch k {
	case KindActivityCompletion:
		return "activity_completion"
	case KindProofValidation:
		return "proof_validation"
	case KindPassportClaim:
		return "passport_claim"
	case KindReferralVerification:
		return "referral_verification"
	case KindTransactionProof:
		return "transaction_proof"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(k))
	}
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Status mirrors the contract's AttestationStatus enum.
type Status uint8

const (
	StatusActive Status = iota
	StatusRevoked
	StatusExpired
)

func (s Status) String() string {
	switch s {
	case StatusActive:
		return "active"
	case StatusRevoked:
		return "revoked"
	case StatusExpired:
		return "expired"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(s))
	}
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

type ScanMethod string

const (
	ScanMethodNFC ScanMethod = "nfc"
	ScanMethodQR  ScanMethod = "qr"
)

func (m ScanMethod) Valid() bool {
	return m == ScanMethodNFC || m == ScanMethodQR
}

type ProofType string

const (
	ProofTypeImage       ProofType = "image"
	ProofTypeText        ProofType = "text"
	ProofTypeTransaction ProofType = "transaction"
	ProofTypeReferral    ProofType = "referral"
)

func (p ProofType) Valid() bool {
	switch p {
	case ProofTypeImage, ProofTypeText, ProofTypeTransaction, ProofTypeReferral:
		return true
	}
	return false
}

// Attestation is the ledger's record. The ledger owns it; this is a read view.
type Attestation struct {
	UID       canonical.Key  `json:"uid"`
	Recipient common.Address `json:"recipient"`
	Attestor  common.Address `json:"attestor"`
	Kind      Kind           `json:"kind"`
	Status    Status         `json:"status"`
	CreatedAt time.Time      `json:"createdAt"`
	ExpiresAt *time.Time     `json:"expiresAt,omitempty"`
	SchemaID  canonical.Key  `json:"schemaId"`
	Data      []byte         `json:"data"`
}

type ActivityCompletion struct {
	EventKey      canonical.Key `json:"eventId"`
	ActivityKey   canonical.Key `json:"activityId"`
	TokensAwarded uint64        `json:"tokensAwarded"`
	ScanMethod    ScanMethod    `json:"scanType"`
	ActivityName  string        `json:"activityName"`
	CompletedAt   time.Time     `json:"completedAt"`
}

type ProofValidation struct {
	ActivityKey   canonical.Key  `json:"activityId"`
	ProofKey      canonical.Key  `json:"proofId"`
	ProofType     ProofType      `json:"proofType"`
	Approved      bool           `json:"approved"`
	Validator     common.Address `json:"validator"`
	TokensAwarded uint64         `json:"tokensAwarded"`
	ValidatedAt   time.Time      `json:"validatedAt"`
}

// IssueResult is returned only after the issuing transaction was confirmed.
type IssueResult struct {
	AttestationID canonical.Key `json:"attestationId"`
	TxHash        common.Hash   `json:"txHash"`
	BlockNumber   uint64        `json:"blockNumber"`
}

// AwardResult is the outcome of a guarded completion award. Exactly one of
// AlreadyCompleted or Issue is set.
type AwardResult struct {
	AlreadyCompleted bool         `json:"alreadyCompleted"`
	Issue            *IssueResult `json:"issue,omitempty"`
	ExplorerURL      string       `json:"explorerUrl,omitempty"`
}
