package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"

	"swagly-backend/internal/common/cache"
	"swagly-backend/internal/common/logger"
	"swagly-backend/internal/features/attestation/canonical"
	"swagly-backend/internal/features/attestation/ledger"
	"swagly-backend/internal/features/attestation/lock"
	"swagly-backend/internal/features/attestation/models"
)

type AwardRequest = ledger.ActivityCompletionRequest

var errAbsent = errors.New("attestation absent")

const defaultWriteTimeout = 5 * time.Minute

// CompletionService guards issuance so a recipient is awarded at most once per
// event activity, even with concurrent requests.
type CompletionService struct {
	ledger   Ledger
	locker   lock.Locker
	cache    *cache.CacheService
	cacheTTL time.Duration
	// Bounds submit plus confirmation once a write has started.
	writeTimeout time.Duration
	log          zerolog.Logger
}

func NewCompletionService(l Ledger, locker lock.Locker, c *cache.CacheService, cacheTTL time.Duration) *CompletionService {
	return &CompletionService{
		ledger:       l,
		locker:       locker,
		cache:        c,
		cacheTTL:     cacheTTL,
		writeTimeout: defaultWriteTimeout,
		log:          logger.Component("completion-service"),
	}
}

func (s *CompletionService) WithWriteTimeout(d time.Duration) *CompletionService {
	if d > 0 {
		s.writeTimeout = d
	}
	return s
}

// writeContext detaches a ledger write from the caller. A caller that goes
// away must not release the completion lock while its tx is still pending.
func (s *CompletionService) writeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), s.writeTimeout)
}

func completionLockKey(eventID, activityID string, recipient common.Address) string {
	return fmt.Sprintf("attest:lock:%s:%s:%s",
		canonical.FromString(eventID).Hex(),
		canonical.FromString(activityID).Hex(),
		strings.ToLower(recipient.Hex()),
	)
}

// AwardActivity issues an activity completion unless the ledger already has
// one for the triple. A failed completion check aborts without issuing.
func (s *CompletionService) AwardActivity(ctx context.Context, req AwardRequest) (*models.AwardResult, error) {
	key := completionLockKey(req.EventID, req.ActivityID, req.Recipient)
	release, err := s.locker.Acquire(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("acquire completion lock: %w", err)
	}
	defer release()

	done, err := s.ledger.IsActivityCompleted(ctx, req.EventID, req.ActivityID, req.Recipient)
	if err != nil {
		return nil, err
	}
	if done {
		s.log.Info().
			Str("event_id", req.EventID).
			Str("activity_id", req.ActivityID).
			Str("recipient", req.Recipient.Hex()).
			Msg("Activity already completed, skipping issuance")
		return &models.AwardResult{AlreadyCompleted: true}, nil
	}

	writeCtx, cancel := s.writeContext(ctx)
	defer cancel()

	res, err := s.ledger.IssueActivityCompletion(writeCtx, req)
	if err != nil {
		s.log.Error().Err(err).
			Str("event_id", req.EventID).
			Str("activity_id", req.ActivityID).
			Str("recipient", req.Recipient.Hex()).
			Msg("Failed to issue activity completion")
		return nil, err
	}

	s.log.Info().
		Str("uid", res.AttestationID.Hex()).
		Str("tx", res.TxHash.Hex()).
		Uint64("tokens", req.Tokens).
		Msg("Activity completion attested")

	return &models.AwardResult{Issue: res, ExplorerURL: s.ledger.ExplorerTxURL(res.TxHash)}, nil
}

func (s *CompletionService) ValidateProof(ctx context.Context, req ledger.ProofValidationRequest) (*models.AwardResult, error) {
	writeCtx, cancel := s.writeContext(ctx)
	defer cancel()

	res, err := s.ledger.IssueProofValidation(writeCtx, req)
	if err != nil {
		return nil, err
	}
	return &models.AwardResult{Issue: res, ExplorerURL: s.ledger.ExplorerTxURL(res.TxHash)}, nil
}

func (s *CompletionService) Revoke(ctx context.Context, uid canonical.Key, reason string) (common.Hash, error) {
	writeCtx, cancel := s.writeContext(ctx)
	defer cancel()

	hash, err := s.ledger.Revoke(writeCtx, uid, reason)
	if err != nil {
		return common.Hash{}, err
	}
	s.log.Info().Str("uid", uid.Hex()).Str("reason", reason).Msg("Attestation revoked")
	return hash, nil
}

func (s *CompletionService) Get(ctx context.Context, uid canonical.Key) (*models.Attestation, error) {
	return s.ledger.GetAttestation(ctx, uid)
}

func (s *CompletionService) IsValid(ctx context.Context, uid canonical.Key) (bool, error) {
	return s.ledger.IsValid(ctx, uid)
}

func (s *CompletionService) IsCompleted(ctx context.Context, eventID, activityID string, recipient common.Address) (bool, error) {
	return s.ledger.IsActivityCompleted(ctx, eventID, activityID, recipient)
}

func (s *CompletionService) UserAttestations(ctx context.Context, user common.Address) ([]canonical.Key, error) {
	return s.ledger.GetUserAttestations(ctx, user)
}

// ActivityCompletion returns nil, nil for an unknown uid. Decoded payloads
// never change once issued, so they are cached.
func (s *CompletionService) ActivityCompletion(ctx context.Context, uid canonical.Key) (*models.ActivityCompletion, error) {
	var out models.ActivityCompletion
	err := s.cache.GetOrSet(ctx, "decoded:activity:"+uid.Hex(), &out, s.cacheTTL, func() (interface{}, error) {
		v, err := s.ledger.DecodeActivityCompletion(ctx, uid)
		if err != nil {
			return nil, err
		}
		if v == nil {
			return nil, errAbsent
		}
		return v, nil
	})
	if errors.Is(err, errAbsent) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *CompletionService) ProofValidation(ctx context.Context, uid canonical.Key) (*models.ProofValidation, error) {
	var out models.ProofValidation
	err := s.cache.GetOrSet(ctx, "decoded:proof:"+uid.Hex(), &out, s.cacheTTL, func() (interface{}, error) {
		v, err := s.ledger.DecodeProofValidation(ctx, uid)
		if err != nil {
			return nil, err
		}
		if v == nil {
			return nil, errAbsent
		}
		return v, nil
	})
	if errors.Is(err, errAbsent) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}
