// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/velora/backoffice/app/middleware"
	businessflow "github.com/velora/backoffice/business_flow"
	"github.com/velora/backoffice/models"
	"github.com/velora/backoffice/utils"
)

func getValidationErrorMessage(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return err.Field() + " is required"
	case "min":
		return err.Field() + " must be at least " + err.Param()
	case "max":
		return err.Field() + " must be at most " + err.Param()
	case "oneof":
		return err.Field() + " must be one of: " + err.Param()
	case "uuid4":
		return err.Field() + " must be a valid UUID"
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", err.Field(), err.Param())
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", err.Field(), err.Param())
	default:
		return err.Field() + " is invalid"
	}
}

// validationDetails flattens validator errors into user-facing messages
func validationDetails(err error) []string {
	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return nil
	}
	details := make([]string, 0, len(fieldErrors))
	for _, fe := range fieldErrors {
		details = append(details, getValidationErrorMessage(fe))
	}
	return details
}

// requestContext creates a context with request-scoped values for observability and timeout
func requestContext(c fiber.Ctx, endpoint string) context.Context {
	return requestContextWithTimeout(c, endpoint, 30*time.Second)
}

// requestContextWithTimeout creates a context with custom timeout and request-scoped values
func requestContextWithTimeout(c fiber.Ctx, endpoint string, timeout time.Duration) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)

	ctx = context.WithValue(ctx, utils.RequestIDKey, c.Get("X-Request-ID"))
	ctx = context.WithValue(ctx, utils.UserAgentKey, c.Get("User-Agent"))
	ctx = context.WithValue(ctx, utils.IPAddressKey, c.IP())
	ctx = context.WithValue(ctx, utils.EndpointKey, endpoint)
	ctx = context.WithValue(ctx, utils.TimeoutKey, timeout)
	ctx = context.WithValue(ctx, utils.CancelFuncKey, cancel)

	return ctx
}

// actorFromContext rebuilds the business actor from the authenticated request
func actorFromContext(c fiber.Ctx) (businessflow.Actor, bool) {
	actorID, ok := middleware.GetActorIDFromContext(c)
	if !ok {
		return businessflow.Actor{}, false
	}
	role, ok := middleware.GetActorRoleFromContext(c)
	if !ok {
		return businessflow.Actor{}, false
	}
	return businessflow.NewActor(actorID, models.Role(role)), true
}

// clientMetadata collects request metadata for audit logging
func clientMetadata(c fiber.Ctx) *businessflow.ClientMetadata {
	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))
	if requestID := c.Get("X-Request-ID"); requestID != "" {
		metadata.SetRequestID(requestID)
	}
	return metadata
}
