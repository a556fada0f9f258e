package businessflow

import (
	"errors"
	"fmt"
)

// Business flow error constants
var (
	// Campaign-related errors
	ErrCampaignNotFound           = errors.New("campaign not found")
	ErrCampaignNotEditable        = errors.New("campaign can no longer be edited")
	ErrCampaignNotPendingApproval = errors.New("campaign is not pending approval")
	ErrCampaignNotProcessable     = errors.New("campaign is not in a processable state")
	ErrCampaignAlreadyClaimed     = errors.New("campaign already claimed for sending")
	ErrCampaignTitleRequired      = errors.New("campaign title is required")
	ErrCampaignContentRequired    = errors.New("campaign content is required")
	ErrCampaignChannelsRequired   = errors.New("at least one channel is required")
	ErrCampaignTypeInvalid        = errors.New("campaign type is invalid")
	ErrChannelInvalid             = errors.New("channel is invalid")
	ErrCampaignUUIDRequired       = errors.New("campaign UUID is required")
	ErrCampaignUpdateRequired     = errors.New("at least one field must be provided for update")
	ErrRejectionReasonRequired    = errors.New("rejection reason is required")
	ErrScheduleTimeInPast         = errors.New("schedule time is in the past")

	// Targeting errors
	ErrTargetingCriteriaEmpty = errors.New("targeting criteria is empty")
	ErrLocationEntryEmpty     = errors.New("location entry has no fields set")

	// A/B test errors
	ErrVariantPercentageInvalid = errors.New("variant percentage must be between 0 and 100")
	ErrVariantPercentageSum     = errors.New("variant percentages must not exceed 100")
	ErrVariantNameRequired      = errors.New("variant name is required")

	// Actor errors
	ErrActorNotAllowed = errors.New("actor is not allowed to perform this action")

	// Client errors
	ErrClientNotFound = errors.New("client not found")

	// Recipient errors
	ErrRecipientNotFound = errors.New("recipient not found")

	// Filter errors
	ErrInvalidPage           = errors.New("page must be at least 1")
	ErrInvalidPageSize       = errors.New("page size must be between 1 and 100")
	ErrStartDateAfterEndDate = errors.New("start date cannot be after end date")
)

type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func NewBusinessErrorf(code, message string, err error, args ...any) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: fmt.Sprintf(message, args...),
		Err:     err,
	}
}

func IsCampaignNotFound(err error) bool {
	return errors.Is(err, ErrCampaignNotFound)
}

func IsCampaignNotEditable(err error) bool {
	return errors.Is(err, ErrCampaignNotEditable)
}

func IsCampaignNotPendingApproval(err error) bool {
	return errors.Is(err, ErrCampaignNotPendingApproval)
}

func IsCampaignNotProcessable(err error) bool {
	return errors.Is(err, ErrCampaignNotProcessable)
}

func IsCampaignAlreadyClaimed(err error) bool {
	return errors.Is(err, ErrCampaignAlreadyClaimed)
}

func IsTargetingCriteriaEmpty(err error) bool {
	return errors.Is(err, ErrTargetingCriteriaEmpty)
}

func IsActorNotAllowed(err error) bool {
	return errors.Is(err, ErrActorNotAllowed)
}

func IsClientNotFound(err error) bool {
	return errors.Is(err, ErrClientNotFound)
}

func IsRecipientNotFound(err error) bool {
	return errors.Is(err, ErrRecipientNotFound)
}

func IsValidationError(err error) bool {
	return errors.Is(err, ErrCampaignTitleRequired) ||
		errors.Is(err, ErrCampaignContentRequired) ||
		errors.Is(err, ErrCampaignChannelsRequired) ||
		errors.Is(err, ErrCampaignTypeInvalid) ||
		errors.Is(err, ErrChannelInvalid) ||
		errors.Is(err, ErrLocationEntryEmpty) ||
		errors.Is(err, ErrVariantPercentageInvalid) ||
		errors.Is(err, ErrVariantPercentageSum) ||
		errors.Is(err, ErrVariantNameRequired) ||
		errors.Is(err, ErrScheduleTimeInPast) ||
		errors.Is(err, ErrRejectionReasonRequired) ||
		errors.Is(err, ErrInvalidPage) ||
		errors.Is(err, ErrInvalidPageSize) ||
		errors.Is(err, ErrStartDateAfterEndDate)
}
