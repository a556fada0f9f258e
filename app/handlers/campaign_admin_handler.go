package handlers

import (
	"log"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/velora/backoffice/app/dto"
	businessflow "github.com/velora/backoffice/business_flow"
	"github.com/velora/backoffice/utils"
)

// CampaignAdminHandlerInterface defines the contract for campaign admin handlers
type CampaignAdminHandlerInterface interface {
	ApproveCampaign(c fiber.Ctx) error
	RejectCampaign(c fiber.Ctx) error
	ProcessCampaign(c fiber.Ctx) error
}

// CampaignAdminHandler handles approval and processing HTTP requests
type CampaignAdminHandler struct {
	campaignFlow    businessflow.CampaignFlow
	materializeFlow businessflow.MaterializeFlow
	validator       *validator.Validate
}

func NewCampaignAdminHandler(campaignFlow businessflow.CampaignFlow, materializeFlow businessflow.MaterializeFlow) CampaignAdminHandlerInterface {
	return &CampaignAdminHandler{
		campaignFlow:    campaignFlow,
		materializeFlow: materializeFlow,
		validator:       validator.New(),
	}
}

func (h *CampaignAdminHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *CampaignAdminHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// ApproveCampaign approves a pending campaign
func (h *CampaignAdminHandler) ApproveCampaign(c fiber.Ctx) error {
	actor, ok := actorFromContext(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Authentication required", "AUTHENTICATION_REQUIRED", nil)
	}

	var req dto.ApproveCampaignRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationDetails(err))
	}

	resp, err := h.campaignFlow.ApproveCampaign(requestContext(c, "/api/v1/admin/campaigns/approve"), &req, actor, clientMetadata(c))
	if err != nil {
		if businessflow.IsCampaignNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Campaign not found", "CAMPAIGN_NOT_FOUND", nil)
		}
		if businessflow.IsCampaignNotPendingApproval(err) {
			return h.ErrorResponse(c, fiber.StatusConflict, "Campaign is not pending approval", "INVALID_STATE", nil)
		}
		if businessflow.IsActorNotAllowed(err) {
			return h.ErrorResponse(c, fiber.StatusForbidden, "Approval capability required", "APPROVAL_NOT_ALLOWED", nil)
		}
		log.Println("Approve campaign failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to approve campaign", "APPROVE_CAMPAIGN_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Campaign approved successfully", resp)
}

// RejectCampaign rejects a pending campaign with a reason
func (h *CampaignAdminHandler) RejectCampaign(c fiber.Ctx) error {
	actor, ok := actorFromContext(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Authentication required", "AUTHENTICATION_REQUIRED", nil)
	}

	var req dto.RejectCampaignRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationDetails(err))
	}

	resp, err := h.campaignFlow.RejectCampaign(requestContext(c, "/api/v1/admin/campaigns/reject"), &req, actor, clientMetadata(c))
	if err != nil {
		if businessflow.IsCampaignNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Campaign not found", "CAMPAIGN_NOT_FOUND", nil)
		}
		if businessflow.IsCampaignNotPendingApproval(err) {
			return h.ErrorResponse(c, fiber.StatusConflict, "Campaign is not pending approval", "INVALID_STATE", nil)
		}
		if businessflow.IsActorNotAllowed(err) {
			return h.ErrorResponse(c, fiber.StatusForbidden, "Approval capability required", "APPROVAL_NOT_ALLOWED", nil)
		}
		if businessflow.IsValidationError(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, err.Error(), "VALIDATION_ERROR", nil)
		}
		log.Println("Reject campaign failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to reject campaign", "REJECT_CAMPAIGN_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Campaign rejected successfully", resp)
}

// ProcessCampaign runs one broadcast processing pass for a campaign.
// Losing the claim to a concurrent worker is reported as success with
// already_claimed set, not as an error.
func (h *CampaignAdminHandler) ProcessCampaign(c fiber.Ctx) error {
	campaignUUID := c.Params("uuid")

	ctx := requestContext(c, "/api/v1/admin/campaigns/:uuid/process")
	defer utils.ReleaseRequestContext(ctx)

	campaign, err := h.campaignFlow.GetCampaign(ctx, campaignUUID)
	if err != nil {
		if businessflow.IsCampaignNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Campaign not found", "CAMPAIGN_NOT_FOUND", nil)
		}
		log.Println("Process campaign lookup failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to process campaign", "PROCESS_CAMPAIGN_FAILED", nil)
	}

	resp, err := h.materializeFlow.ProcessCampaign(ctx, campaign.ID)
	if err != nil {
		if businessflow.IsCampaignNotProcessable(err) {
			return h.ErrorResponse(c, fiber.StatusConflict, "Campaign is not in a processable state", "INVALID_STATE", nil)
		}
		log.Println("Process campaign failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to process campaign", "PROCESS_CAMPAIGN_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Campaign processed", resp)
}
