package http

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"

	apperrors "swagly-backend/internal/common/errors"
	"swagly-backend/internal/common/validation"
	"swagly-backend/internal/features/attestation/canonical"
	"swagly-backend/internal/features/attestation/ledger"
	"swagly-backend/internal/features/attestation/lock"
	"swagly-backend/internal/features/attestation/models"
)

type AttestationService interface {
	AwardActivity(ctx context.Context, req ledger.ActivityCompletionRequest) (*models.AwardResult, error)
	ValidateProof(ctx context.Context, req ledger.ProofValidationRequest) (*models.AwardResult, error)
	Revoke(ctx context.Context, uid canonical.Key, reason string) (common.Hash, error)
	Get(ctx context.Context, uid canonical.Key) (*models.Attestation, error)
	IsValid(ctx context.Context, uid canonical.Key) (bool, error)
	IsCompleted(ctx context.Context, eventID, activityID string, recipient common.Address) (bool, error)
	UserAttestations(ctx context.Context, user common.Address) ([]canonical.Key, error)
	ActivityCompletion(ctx context.Context, uid canonical.Key) (*models.ActivityCompletion, error)
	ProofValidation(ctx context.Context, uid canonical.Key) (*models.ProofValidation, error)
}

type AttestationHandler struct {
	service             AttestationService
	explorerContractURL string
}

func NewAttestationHandler(service AttestationService, explorerContractURL string) *AttestationHandler {
	return &AttestationHandler{service: service, explorerContractURL: explorerContractURL}
}

// RegisterRoutes mounts read routes on router and write routes behind admin.
func (h *AttestationHandler) RegisterRoutes(router *gin.RouterGroup, admin gin.HandlerFunc) {
	attestations := router.Group("/attestations")
	{
		attestations.GET("/completed", h.isCompleted)
		attestations.GET("/users/:address", h.userAttestations)
		attestations.GET("/:uid", h.get)
		attestations.GET("/:uid/valid", h.isValid)
		attestations.GET("/:uid/activity", h.activityCompletion)
		attestations.GET("/:uid/proof", h.proofValidation)

		attestations.POST("/activity", admin, h.awardActivity)
		attestations.POST("/proof", admin, h.validateProof)
		attestations.POST("/:uid/revoke", admin, h.revoke)
	}
}

type ActivityCompletionRequest struct {
	Recipient    string `json:"recipient" binding:"required"`
	EventID      string `json:"eventId" binding:"required"`
	ActivityID   string `json:"activityId" binding:"required"`
	Tokens       uint64 `json:"tokens"`
	ScanType     string `json:"scanType" binding:"required"`
	ActivityName string `json:"activityName"`
}

type ProofValidationRequest struct {
	Recipient  string `json:"recipient" binding:"required"`
	ActivityID string `json:"activityId" binding:"required"`
	ProofID    string `json:"proofId" binding:"required"`
	ProofType  string `json:"proofType" binding:"required"`
	Approved   bool   `json:"approved"`
	Tokens     uint64 `json:"tokens"`
}

type RevokeRequest struct {
	Reason string `json:"reason" binding:"required"`
}

type RevokeResponse struct {
	UID    canonical.Key `json:"uid"`
	TxHash common.Hash   `json:"txHash"`
}

type ValidityResponse struct {
	UID   canonical.Key `json:"uid"`
	Valid bool          `json:"valid"`
}

type CompletedResponse struct {
	EventKey    canonical.Key  `json:"eventId"`
	ActivityKey canonical.Key  `json:"activityId"`
	Recipient   common.Address `json:"recipient"`
	Completed   bool           `json:"completed"`
}

type UserAttestationsResponse struct {
	Recipient    common.Address  `json:"recipient"`
	Attestations []canonical.Key `json:"attestations"`
	ContractURL  string          `json:"contractUrl"`
}

// @Summary Award an activity completion
// @Description Issues an activity completion attestation unless the recipient already completed the activity
// @Tags attestations
// @Accept json
// @Produce json
// @Security AdminToken
// @Param input body ActivityCompletionRequest true "Completion to attest"
// @Success 201 {object} models.AwardResult "Attestation issued"
// @Success 200 {object} models.AwardResult "Already completed, nothing issued"
// @Failure 400 {object} middleware.ErrorResponse
// @Failure 502 {object} middleware.ErrorResponse
// @Router /attestations/activity [post]
func (h *AttestationHandler) awardActivity(c *gin.Context) {
	var input ActivityCompletionRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		_ = c.Error(apperrors.Wrap(err, apperrors.ErrCodeBadRequest, "Invalid request body"))
		return
	}

	recipient, ok := parseAddress(c, "recipient", input.Recipient)
	if !ok {
		return
	}
	if !check(c, "eventId", validation.ValidateIdentifier(input.EventID, "eventId")) ||
		!check(c, "activityId", validation.ValidateIdentifier(input.ActivityID, "activityId")) ||
		!check(c, "activityName", validation.ValidateActivityName(input.ActivityName)) {
		return
	}
	scan := models.ScanMethod(strings.ToLower(input.ScanType))
	if !scan.Valid() {
		_ = c.Error(apperrors.NewValidationError("scanType", "must be nfc or qr"))
		return
	}

	res, err := h.service.AwardActivity(c.Request.Context(), ledger.ActivityCompletionRequest{
		Recipient:    recipient,
		EventID:      input.EventID,
		ActivityID:   input.ActivityID,
		Tokens:       input.Tokens,
		ScanMethod:   scan,
		ActivityName: input.ActivityName,
	})
	if err != nil {
		_ = c.Error(toAppError(err))
		return
	}

	status := http.StatusCreated
	if res.AlreadyCompleted {
		status = http.StatusOK
	}
	c.JSON(status, res)
}

// @Summary Attest a proof validation
// @Tags attestations
// @Accept json
// @Produce json
// @Security AdminToken
// @Param input body ProofValidationRequest true "Validated proof"
// @Success 201 {object} models.AwardResult
// @Failure 400 {object} middleware.ErrorResponse
// @Failure 502 {object} middleware.ErrorResponse
// @Router /attestations/proof [post]
func (h *AttestationHandler) validateProof(c *gin.Context) {
	var input ProofValidationRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		_ = c.Error(apperrors.Wrap(err, apperrors.ErrCodeBadRequest, "Invalid request body"))
		return
	}

	recipient, ok := parseAddress(c, "recipient", input.Recipient)
	if !ok {
		return
	}
	if !check(c, "activityId", validation.ValidateIdentifier(input.ActivityID, "activityId")) ||
		!check(c, "proofId", validation.ValidateIdentifier(input.ProofID, "proofId")) {
		return
	}
	proofType := models.ProofType(strings.ToLower(input.ProofType))
	if !proofType.Valid() {
		_ = c.Error(apperrors.NewValidationError("proofType", "must be image, text, transaction or referral"))
		return
	}

	res, err := h.service.ValidateProof(c.Request.Context(), ledger.ProofValidationRequest{
		Recipient:  recipient,
		ActivityID: input.ActivityID,
		ProofID:    input.ProofID,
		ProofType:  proofType,
		Approved:   input.Approved,
		Tokens:     input.Tokens,
	})
	if err != nil {
		_ = c.Error(toAppError(err))
		return
	}
	c.JSON(http.StatusCreated, res)
}

// @Summary Revoke an attestation
// @Tags attestations
// @Accept json
// @Produce json
// @Security AdminToken
// @Param uid path string true "Attestation uid (0x + 64 hex)"
// @Param input body RevokeRequest true "Revocation reason"
// @Success 200 {object} RevokeResponse
// @Failure 400 {object} middleware.ErrorResponse
// @Failure 502 {object} middleware.ErrorResponse
// @Router /attestations/{uid}/revoke [post]
func (h *AttestationHandler) revoke(c *gin.Context) {
	uid, ok := parseUID(c)
	if !ok {
		return
	}
	var input RevokeRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		_ = c.Error(apperrors.Wrap(err, apperrors.ErrCodeBadRequest, "Invalid request body"))
		return
	}
	if !check(c, "reason", validation.ValidateReason(input.Reason)) {
		return
	}

	hash, err := h.service.Revoke(c.Request.Context(), uid, input.Reason)
	if err != nil {
		_ = c.Error(toAppError(err))
		return
	}
	c.JSON(http.StatusOK, RevokeResponse{UID: uid, TxHash: hash})
}

// @Summary Get an attestation
// @Tags attestations
// @Produce json
// @Param uid path string true "Attestation uid (0x + 64 hex)"
// @Success 200 {object} models.Attestation
// @Failure 404 {object} middleware.ErrorResponse
// @Router /attestations/{uid} [get]
func (h *AttestationHandler) get(c *gin.Context) {
	uid, ok := parseUID(c)
	if !ok {
		return
	}
	att, err := h.service.Get(c.Request.Context(), uid)
	if err != nil {
		_ = c.Error(toAppError(err))
		return
	}
	if att == nil {
		_ = c.Error(apperrors.NewNotFoundError("attestation", uid.Hex()))
		return
	}
	c.JSON(http.StatusOK, att)
}

// @Summary Check attestation validity
// @Tags attestations
// @Produce json
// @Param uid path string true "Attestation uid (0x + 64 hex)"
// @Success 200 {object} ValidityResponse
// @Router /attestations/{uid}/valid [get]
func (h *AttestationHandler) isValid(c *gin.Context) {
	uid, ok := parseUID(c)
	if !ok {
		return
	}
	valid, err := h.service.IsValid(c.Request.Context(), uid)
	if err != nil {
		_ = c.Error(toAppError(err))
		return
	}
	c.JSON(http.StatusOK, ValidityResponse{UID: uid, Valid: valid})
}

// @Summary Decode an activity completion
// @Tags attestations
// @Produce json
// @Param uid path string true "Attestation uid (0x + 64 hex)"
// @Success 200 {object} models.ActivityCompletion
// @Failure 404 {object} middleware.ErrorResponse
// @Failure 422 {object} middleware.ErrorResponse
// @Router /attestations/{uid}/activity [get]
func (h *AttestationHandler) activityCompletion(c *gin.Context) {
	uid, ok := parseUID(c)
	if !ok {
		return
	}
	payload, err := h.service.ActivityCompletion(c.Request.Context(), uid)
	if err != nil {
		_ = c.Error(toAppError(err))
		return
	}
	if payload == nil {
		_ = c.Error(apperrors.NewNotFoundError("attestation", uid.Hex()))
		return
	}
	c.JSON(http.StatusOK, payload)
}

// @Summary Decode a proof validation
// @Tags attestations
// @Produce json
// @Param uid path string true "Attestation uid (0x + 64 hex)"
// @Success 200 {object} models.ProofValidation
// @Failure 404 {object} middleware.ErrorResponse
// @Failure 422 {object} middleware.ErrorResponse
// @Router /attestations/{uid}/proof [get]
func (h *AttestationHandler) proofValidation(c *gin.Context) {
	uid, ok := parseUID(c)
	if !ok {
		return
	}
	payload, err := h.service.ProofValidation(c.Request.Context(), uid)
	if err != nil {
		_ = c.Error(toAppError(err))
		return
	}
	if payload == nil {
		_ = c.Error(apperrors.NewNotFoundError("attestation", uid.Hex()))
		return
	}
	c.JSON(http.StatusOK, payload)
}

// @Summary List a recipient's attestations
// @Tags attestations
// @Produce json
// @Param address path string true "Recipient address"
// @Success 200 {object} UserAttestationsResponse
// @Router /attestations/users/{address} [get]
func (h *AttestationHandler) userAttestations(c *gin.Context) {
	user, ok := parseAddress(c, "address", c.Param("address"))
	if !ok {
		return
	}
	uids, err := h.service.UserAttestations(c.Request.Context(), user)
	if err != nil {
		_ = c.Error(toAppError(err))
		return
	}
	c.JSON(http.StatusOK, UserAttestationsResponse{
		Recipient:    user,
		Attestations: uids,
		ContractURL:  h.explorerContractURL,
	})
}

// @Summary Check whether an activity was completed
// @Tags attestations
// @Produce json
// @Param eventId query string true "Event id"
// @Param activityId query string true "Activity id"
// @Param recipient query string true "Recipient address"
// @Success 200 {object} CompletedResponse
// @Router /attestations/completed [get]
func (h *AttestationHandler) isCompleted(c *gin.Context) {
	eventID, activityID := c.Query("eventId"), c.Query("activityId")
	if eventID == "" || activityID == "" {
		_ = c.Error(apperrors.NewValidationError("eventId/activityId", "both are required"))
		return
	}
	recipient, ok := parseAddress(c, "recipient", c.Query("recipient"))
	if !ok {
		return
	}

	done, err := h.service.IsCompleted(c.Request.Context(), eventID, activityID, recipient)
	if err != nil {
		_ = c.Error(toAppError(err))
		return
	}
	c.JSON(http.StatusOK, CompletedResponse{
		EventKey:    canonical.FromString(eventID),
		ActivityKey: canonical.FromString(activityID),
		Recipient:   recipient,
		Completed:   done,
	})
}

func parseUID(c *gin.Context) (canonical.Key, bool) {
	uid, err := canonical.Parse(c.Param("uid"))
	if err != nil {
		_ = c.Error(apperrors.Wrap(err, apperrors.ErrCodeCodecInput, "uid must be 0x followed by 64 hex digits").
			WithDetail("uid", c.Param("uid")))
		return canonical.Zero, false
	}
	return uid, true
}

func parseAddress(c *gin.Context, field, value string) (common.Address, bool) {
	if !common.IsHexAddress(value) {
		_ = c.Error(apperrors.NewValidationError(field, "must be a hex address"))
		return common.Address{}, false
	}
	return common.HexToAddress(value), true
}

func check(c *gin.Context, field string, err error) bool {
	if err != nil {
		_ = c.Error(apperrors.NewValidationError(field, err.Error()))
		return false
	}
	return true
}

func toAppError(err error) *apperrors.AppError {
	if appErr, ok := apperrors.AsAppError(err); ok {
		return appErr
	}

	var (
		writeErr  *ledger.LedgerWriteError
		readErr   *ledger.LedgerReadError
		decodeErr *ledger.DecodeError
	)
	switch {
	case errors.As(err, &writeErr):
		appErr := apperrors.Wrap(err, apperrors.ErrCodeLedgerWrite, "Ledger write was not confirmed").
			WithDetail("op", writeErr.Op)
		if writeErr.TxHash != (common.Hash{}) {
			appErr.WithDetail("txHash", writeErr.TxHash.Hex())
		}
		return appErr
	case errors.As(err, &readErr):
		return apperrors.Wrap(err, apperrors.ErrCodeLedgerRead, "Ledger read failed").
			WithDetail("op", readErr.Op)
	case errors.As(err, &decodeErr):
		return apperrors.Wrap(err, apperrors.ErrCodeDecode, decodeErr.Error()).
			WithDetail("kind", decodeErr.Got.String())
	case errors.Is(err, lock.ErrNotAcquired), errors.Is(err, context.DeadlineExceeded):
		return apperrors.Wrap(err, apperrors.ErrCodeConflict, "Completion for this recipient is already in progress")
	default:
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, "Attestation request failed")
	}
}
