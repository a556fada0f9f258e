package handlers

import (
	"log"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/velora/backoffice/app/dto"
	businessflow "github.com/velora/backoffice/business_flow"
)

// CampaignHandlerInterface defines the contract for campaign handlers
type CampaignHandlerInterface interface {
	CreateCampaign(c fiber.Ctx) error
	UpdateCampaign(c fiber.Ctx) error
	GetCampaign(c fiber.Ctx) error
	ListCampaigns(c fiber.Ctx) error
	PreviewAudience(c fiber.Ctx) error
}

// CampaignHandler handles campaign-related HTTP requests
type CampaignHandler struct {
	campaignFlow businessflow.CampaignFlow
	validator    *validator.Validate
}

func NewCampaignHandler(flow businessflow.CampaignFlow) CampaignHandlerInterface {
	return &CampaignHandler{
		campaignFlow: flow,
		validator:    validator.New(),
	}
}

func (h *CampaignHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *CampaignHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// CreateCampaign creates a new campaign for the authenticated actor
func (h *CampaignHandler) CreateCampaign(c fiber.Ctx) error {
	actor, ok := actorFromContext(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Authentication required", "AUTHENTICATION_REQUIRED", nil)
	}

	var req dto.CreateCampaignRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationDetails(err))
	}

	resp, err := h.campaignFlow.CreateCampaign(requestContext(c, "/api/v1/campaigns"), &req, actor, clientMetadata(c))
	if err != nil {
		if businessflow.IsValidationError(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, err.Error(), "VALIDATION_ERROR", nil)
		}
		log.Println("Create campaign failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to create campaign", "CREATE_CAMPAIGN_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusCreated, "Campaign created successfully", resp)
}

// UpdateCampaign modifies an editable campaign
func (h *CampaignHandler) UpdateCampaign(c fiber.Ctx) error {
	actor, ok := actorFromContext(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Authentication required", "AUTHENTICATION_REQUIRED", nil)
	}

	var req dto.UpdateCampaignRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	req.UUID = c.Params("uuid")
	if err := h.validator.Struct(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationDetails(err))
	}

	resp, err := h.campaignFlow.UpdateCampaign(requestContext(c, "/api/v1/campaigns/:uuid"), &req, actor, clientMetadata(c))
	if err != nil {
		if businessflow.IsCampaignNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Campaign not found", "CAMPAIGN_NOT_FOUND", nil)
		}
		if businessflow.IsCampaignNotEditable(err) {
			return h.ErrorResponse(c, fiber.StatusConflict, "Campaign can no longer be edited", "CAMPAIGN_NOT_EDITABLE", nil)
		}
		if businessflow.IsValidationError(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, err.Error(), "VALIDATION_ERROR", nil)
		}
		log.Println("Update campaign failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to update campaign", "UPDATE_CAMPAIGN_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Campaign updated successfully", resp)
}

// GetCampaign returns one campaign by UUID
func (h *CampaignHandler) GetCampaign(c fiber.Ctx) error {
	campaignUUID := c.Params("uuid")

	resp, err := h.campaignFlow.GetCampaign(requestContext(c, "/api/v1/campaigns/:uuid"), campaignUUID)
	if err != nil {
		if businessflow.IsCampaignNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Campaign not found", "CAMPAIGN_NOT_FOUND", nil)
		}
		log.Println("Get campaign failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to get campaign", "GET_CAMPAIGN_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Campaign retrieved successfully", resp)
}

// ListCampaigns returns a filtered page of campaigns
func (h *CampaignHandler) ListCampaigns(c fiber.Ctx) error {
	filter := dto.ListCampaignsFilter{Page: 1, PageSize: 20}

	if title := c.Query("title"); title != "" {
		filter.Title = &title
	}
	if status := c.Query("status"); status != "" {
		filter.Status = &status
	}
	if campaignType := c.Query("type"); campaignType != "" {
		filter.Type = &campaignType
	}
	if startStr := c.Query("start_date"); startStr != "" {
		t, err := time.Parse(time.RFC3339, startStr)
		if err != nil {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid start_date format", "INVALID_DATE", nil)
		}
		filter.StartDate = &t
	}
	if endStr := c.Query("end_date"); endStr != "" {
		t, err := time.Parse(time.RFC3339, endStr)
		if err != nil {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid end_date format", "INVALID_DATE", nil)
		}
		filter.EndDate = &t
	}
	if pageStr := c.Query("page"); pageStr != "" {
		page, err := strconv.Atoi(pageStr)
		if err != nil {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid page", "INVALID_PAGE", nil)
		}
		filter.Page = page
	}
	if sizeStr := c.Query("page_size"); sizeStr != "" {
		size, err := strconv.Atoi(sizeStr)
		if err != nil {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid page_size", "INVALID_PAGE_SIZE", nil)
		}
		filter.PageSize = size
	}

	resp, err := h.campaignFlow.ListCampaigns(requestContext(c, "/api/v1/campaigns"), filter)
	if err != nil {
		if businessflow.IsValidationError(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, err.Error(), "VALIDATION_ERROR", nil)
		}
		log.Println("List campaigns failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to list campaigns", "LIST_CAMPAIGNS_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Campaigns retrieved successfully", resp)
}

// PreviewAudience reports the reach of a campaign without materializing recipients
func (h *CampaignHandler) PreviewAudience(c fiber.Ctx) error {
	campaignUUID := c.Params("uuid")

	resp, err := h.campaignFlow.PreviewAudience(requestContext(c, "/api/v1/campaigns/:uuid/audience"), campaignUUID)
	if err != nil {
		if businessflow.IsCampaignNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Campaign not found", "CAMPAIGN_NOT_FOUND", nil)
		}
		log.Println("Preview audience failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to preview audience", "PREVIEW_AUDIENCE_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Audience preview computed successfully", resp)
}
