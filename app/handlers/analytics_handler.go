package handlers

import (
	"fmt"
	"log"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/velora/backoffice/app/dto"
	businessflow "github.com/velora/backoffice/business_flow"
)

// AnalyticsHandlerInterface defines the contract for analytics handlers
type AnalyticsHandlerInterface interface {
	GetCampaignAnalytics(c fiber.Ctx) error
	ExportCampaignAnalytics(c fiber.Ctx) error
	RecordDelivery(c fiber.Ctx) error
	RecordOpen(c fiber.Ctx) error
	RecordClick(c fiber.Ctx) error
	RecordConversion(c fiber.Ctx) error
}

// AnalyticsHandler handles analytics and engagement HTTP requests
type AnalyticsHandler struct {
	analyticsFlow  businessflow.AnalyticsFlow
	engagementFlow businessflow.EngagementFlow
	validator      *validator.Validate
}

func NewAnalyticsHandler(analyticsFlow businessflow.AnalyticsFlow, engagementFlow businessflow.EngagementFlow) AnalyticsHandlerInterface {
	return &AnalyticsHandler{
		analyticsFlow:  analyticsFlow,
		engagementFlow: engagementFlow,
		validator:      validator.New(),
	}
}

func (h *AnalyticsHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *AnalyticsHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// GetCampaignAnalytics returns the aggregated analytics read model
func (h *AnalyticsHandler) GetCampaignAnalytics(c fiber.Ctx) error {
	campaignUUID := c.Params("uuid")

	resp, err := h.analyticsFlow.CampaignAnalytics(requestContext(c, "/api/v1/campaigns/:uuid/analytics"), campaignUUID)
	if err != nil {
		if businessflow.IsCampaignNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Campaign not found", "CAMPAIGN_NOT_FOUND", nil)
		}
		log.Println("Campaign analytics failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to compute analytics", "ANALYTICS_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Analytics retrieved successfully", resp)
}

// ExportCampaignAnalytics downloads the analytics read model as an XLSX workbook
func (h *AnalyticsHandler) ExportCampaignAnalytics(c fiber.Ctx) error {
	campaignUUID := c.Params("uuid")

	data, err := h.analyticsFlow.ExportAnalytics(requestContext(c, "/api/v1/campaigns/:uuid/analytics/export"), campaignUUID)
	if err != nil {
		if businessflow.IsCampaignNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Campaign not found", "CAMPAIGN_NOT_FOUND", nil)
		}
		log.Println("Analytics export failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to export analytics", "ANALYTICS_EXPORT_FAILED", nil)
	}

	c.Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set("Content-Disposition", fmt.Sprintf("attachment; filename=campaign-%s-analytics.xlsx", campaignUUID))
	return c.Send(data)
}

// RecordDelivery records a delivery confirmation for a recipient
func (h *AnalyticsHandler) RecordDelivery(c fiber.Ctx) error {
	recipientID, err := h.recipientID(c)
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid recipient id", "INVALID_RECIPIENT_ID", nil)
	}

	var req dto.RecordDeliveryRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationDetails(err))
	}

	if err := h.engagementFlow.RecordDelivery(requestContext(c, "/api/v1/recipients/:id/delivered"), recipientID, req.Cost); err != nil {
		return h.engagementError(c, err, "delivery")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Delivery recorded", nil)
}

// RecordOpen records an open event for a recipient
func (h *AnalyticsHandler) RecordOpen(c fiber.Ctx) error {
	recipientID, err := h.recipientID(c)
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid recipient id", "INVALID_RECIPIENT_ID", nil)
	}

	if err := h.engagementFlow.RecordOpen(requestContext(c, "/api/v1/recipients/:id/opened"), recipientID); err != nil {
		return h.engagementError(c, err, "open")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Open recorded", nil)
}

// RecordClick records a click event for a recipient
func (h *AnalyticsHandler) RecordClick(c fiber.Ctx) error {
	recipientID, err := h.recipientID(c)
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid recipient id", "INVALID_RECIPIENT_ID", nil)
	}

	if err := h.engagementFlow.RecordClick(requestContext(c, "/api/v1/recipients/:id/clicked"), recipientID); err != nil {
		return h.engagementError(c, err, "click")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Click recorded", nil)
}

// RecordConversion records an attributed conversion for a recipient
func (h *AnalyticsHandler) RecordConversion(c fiber.Ctx) error {
	recipientID, err := h.recipientID(c)
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid recipient id", "INVALID_RECIPIENT_ID", nil)
	}

	var req dto.RecordConversionRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationDetails(err))
	}

	if err := h.engagementFlow.RecordConversion(requestContext(c, "/api/v1/recipients/:id/converted"), recipientID, req.Revenue); err != nil {
		return h.engagementError(c, err, "conversion")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Conversion recorded", nil)
}

func (h *AnalyticsHandler) recipientID(c fiber.Ctx) (uint, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}

func (h *AnalyticsHandler) engagementError(c fiber.Ctx, err error, event string) error {
	if businessflow.IsRecipientNotFound(err) {
		return h.ErrorResponse(c, fiber.StatusNotFound, "Recipient not found", "RECIPIENT_NOT_FOUND", nil)
	}
	log.Printf("Record %s failed: %v", event, err)
	return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to record engagement event", "ENGAGEMENT_FAILED", nil)
}
