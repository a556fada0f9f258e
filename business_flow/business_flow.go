// Package businessflow contains the business logic for the application.
package businessflow

import (
	"github.com/velora/backoffice/app/dto"
	"github.com/velora/backoffice/models"
)

// Actor identifies who performs a campaign operation.
// CanApprove is resolved once from the role when the actor is built; no
// permission lookup happens later in the flows.
type Actor struct {
	ID         uint        `json:"id"`
	Role       models.Role `json:"role"`
	CanApprove bool        `json:"can_approve"`
}

// NewActor builds an actor with the approval capability of its role
func NewActor(id uint, role models.Role) Actor {
	return Actor{
		ID:         id,
		Role:       role,
		CanApprove: role.CanApproveCampaigns(),
	}
}

// ProcessEnqueuer hands a due campaign to the background processing queue.
// Enqueue reports false when the queue is full; the campaign keeps its
// approved or scheduled status and the next scheduler sweep retries it.
type ProcessEnqueuer interface {
	Enqueue(campaignID uint) bool
}

// ClientMetadata holds request-level information for audit logging
type ClientMetadata struct {
	IPAddress string `json:"ip_address"`
	UserAgent string `json:"user_agent"`
	RequestID string `json:"request_id,omitempty"`
}

// NewClientMetadata creates a new ClientMetadata instance
func NewClientMetadata(ipAddress, userAgent string) *ClientMetadata {
	return &ClientMetadata{
		IPAddress: ipAddress,
		UserAgent: userAgent,
	}
}

// SetRequestID sets the request ID
func (cm *ClientMetadata) SetRequestID(requestID string) {
	cm.RequestID = requestID
}

// ToCampaignResponse converts a campaign model to its external representation
func ToCampaignResponse(c models.Campaign) dto.CampaignResponse {
	return dto.CampaignResponse{
		ID:               c.ID,
		UUID:             c.UUID.String(),
		CreatedBy:        c.CreatedBy,
		Title:            c.Title,
		Description:      c.Description,
		Type:             string(c.Type),
		Channels:         []string(c.Channels),
		Content:          c.Content,
		ChannelOverrides: c.ChannelOverrides,
		TargetAudience:   c.TargetAudience,
		ABTest:           c.ABTest,
		Approval:         c.Approval,
		Automation:       c.Automation,
		ScheduledAt:      c.ScheduledAt,
		Stats:            c.Stats,
		Status:           c.Status.String(),
		CreatedAt:        c.CreatedAt,
		UpdatedAt:        c.UpdatedAt,
	}
}
