package workers

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"swagly-backend/internal/common/logger"
	"swagly-backend/internal/common/validation"
	"swagly-backend/internal/features/attestation/ledger"
	"swagly-backend/internal/features/attestation/models"
)

const (
	readBlock     = 5 * time.Second
	scanCompleted = "scan_completed"
)

// Awarder issues activity completions; the attestation CompletionService implements it.
type Awarder interface {
	AwardActivity(ctx context.Context, req ledger.ActivityCompletionRequest) (*models.AwardResult, error)
}

// AttestationStreamWorker consumes scan events from a Redis stream and awards
// the matching activity completion. Malformed entries are acknowledged and
// dropped; entries whose award failed stay pending for redelivery.
type AttestationStreamWorker struct {
	rdb      *redis.Client
	awarder  Awarder
	stream   string
	group    string
	consumer string
	log      zerolog.Logger
}

func NewAttestationStreamWorker(rdb *redis.Client, awarder Awarder, stream, group, consumer string) *AttestationStreamWorker {
	return &AttestationStreamWorker{
		rdb:      rdb,
		awarder:  awarder,
		stream:   stream,
		group:    group,
		consumer: consumer,
		log:      logger.Component("attestation-stream"),
	}
}

// Start listens until ctx is cancelled.
func (w *AttestationStreamWorker) Start(ctx context.Context) {
	if err := w.ensureGroup(ctx); err != nil {
		w.log.Error().Err(err).Msg("Failed to create consumer group")
	}

	w.log.Info().Str("stream", w.stream).Str("group", w.group).Msg("Starting attestation stream worker")

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping attestation stream worker")
			return
		default:
		}

		if _, err := w.poll(ctx, readBlock); err != nil {
			if ctx.Err() != nil {
				continue
			}
			w.log.Error().Err(err).Msg("Error reading from stream")
			select {
			case <-ctx.Done():
			case <-time.After(time.Second):
			}
		}
	}
}

func (w *AttestationStreamWorker) ensureGroup(ctx context.Context) error {
	err := w.rdb.XGroupCreateMkStream(ctx, w.stream, w.group, "$").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return err
	}
	return nil
}

// poll reads one batch and returns how many entries were handled. A negative
// block returns immediately when the stream is empty.
func (w *AttestationStreamWorker) poll(ctx context.Context, block time.Duration) (int, error) {
	entries, err := w.rdb.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    w.group,
		Consumer: w.consumer,
		Streams:  []string{w.stream, ">"},
		Count:    10,
		Block:    block,
	}).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, err
	}

	n := 0
	for _, s := range entries {
		for _, msg := range s.Messages {
			n++
			if !w.processMessage(ctx, msg) {
				continue
			}
			if err := w.rdb.XAck(ctx, w.stream, w.group, msg.ID).Err(); err != nil {
				w.log.Warn().Err(err).Str("id", msg.ID).Msg("Failed to ack stream entry")
			}
		}
	}
	return n, nil
}

// processMessage reports whether the entry should be acknowledged.
func (w *AttestationStreamWorker) processMessage(ctx context.Context, msg redis.XMessage) bool {
	if t, _ := msg.Values["type"].(string); t != scanCompleted {
		w.log.Debug().Str("id", msg.ID).Str("type", t).Msg("Ignoring stream entry")
		return true
	}

	req, err := parseAward(msg.Values)
	if err != nil {
		w.log.Warn().Err(err).Str("id", msg.ID).Msg("Dropping malformed scan event")
		return true
	}

	res, err := w.awarder.AwardActivity(ctx, req)
	if err != nil {
		w.log.Error().Err(err).
			Str("id", msg.ID).
			Str("event_id", req.EventID).
			Str("activity_id", req.ActivityID).
			Msg("Award failed, leaving entry pending")
		return false
	}

	if res.AlreadyCompleted {
		w.log.Debug().Str("id", msg.ID).Msg("Activity already completed")
	} else {
		w.log.Info().
			Str("id", msg.ID).
			Str("recipient", req.Recipient.Hex()).
			Str("uid", res.Issue.AttestationID.Hex()).
			Msg("Activity completion issued from stream")
	}
	return true
}

func parseAward(values map[string]interface{}) (ledger.ActivityCompletionRequest, error) {
	var req ledger.ActivityCompletionRequest

	field := func(name string) (string, error) {
		v, ok := values[name].(string)
		if !ok || v == "" {
			return "", fmt.Errorf("missing %s", name)
		}
		return v, nil
	}

	recipient, err := field("recipient")
	if err != nil {
		return req, err
	}
	if !common.IsHexAddress(recipient) {
		return req, fmt.Errorf("invalid recipient %q", recipient)
	}
	if req.EventID, err = field("event_id"); err != nil {
		return req, err
	}
	if req.ActivityID, err = field("activity_id"); err != nil {
		return req, err
	}
	if err := validation.ValidateIdentifier(req.EventID, "event_id"); err != nil {
		return req, err
	}
	if err := validation.ValidateIdentifier(req.ActivityID, "activity_id"); err != nil {
		return req, err
	}
	scan, err := field("scan_type")
	if err != nil {
		return req, err
	}
	req.ScanMethod = models.ScanMethod(scan)
	if !req.ScanMethod.Valid() {
		return req, fmt.Errorf("invalid scan_type %q", scan)
	}
	if tokens, ok := values["tokens"].(string); ok && tokens != "" {
		if req.Tokens, err = strconv.ParseUint(tokens, 10, 64); err != nil {
			return req, fmt.Errorf("invalid tokens: %w", err)
		}
	}
	req.ActivityName, _ = values["activity_name"].(string)
	req.Recipient = common.HexToAddress(recipient)
	return req, nil
}
