package models

import (
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/velora/backoffice/utils"
	"gorm.io/gorm"
)

// OutboundMessageStatus tracks the dispatch state of a queued message
type OutboundMessageStatus string

const (
	OutboundMessageStatusQueued     OutboundMessageStatus = "queued"
	OutboundMessageStatusDispatched OutboundMessageStatus = "dispatched"
	OutboundMessageStatusFailed     OutboundMessageStatus = "failed"
)

// String returns the string representation of the status
func (s OutboundMessageStatus) String() string {
	return string(s)
}

// Valid checks if the status is valid
func (s OutboundMessageStatus) Valid() bool {
	switch s {
	case OutboundMessageStatusQueued, OutboundMessageStatusDispatched, OutboundMessageStatusFailed:
		return true
	default:
		return false
	}
}

// Scan implements the sql.Scanner interface for OutboundMessageStatus
func (s *OutboundMessageStatus) Scan(value any) error {
	if value == nil {
		*s = ""
		return nil
	}

	switch v := value.(type) {
	case string:
		*s = OutboundMessageStatus(v)
	case []byte:
		*s = OutboundMessageStatus(string(v))
	default:
		return fmt.Errorf("cannot scan %T into OutboundMessageStatus", value)
	}

	return nil
}

// Value implements the driver.Valuer interface for OutboundMessageStatus
func (s OutboundMessageStatus) Value() (driver.Value, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid OutboundMessageStatus: %s", s)
	}
	return string(s), nil
}

// OutboundMessage is one rendered message handed to the channel dispatcher
type OutboundMessage struct {
	ID          uint                  `gorm:"primaryKey" json:"id"`
	UUID        uuid.UUID             `gorm:"type:uuid;not null;uniqueIndex:uk_outbound_messages_uuid" json:"uuid"`
	CampaignID  uint                  `gorm:"not null;index:idx_outbound_messages_campaign_id" json:"campaign_id"`
	RecipientID uint                  `gorm:"not null;index:idx_outbound_messages_recipient_id" json:"recipient_id"`
	ClientID    uint                  `gorm:"not null;index:idx_outbound_messages_client_id" json:"client_id"`
	Channel     Channel               `gorm:"size:32;not null" json:"channel"`
	Subject     *string               `gorm:"size:255" json:"subject,omitempty"`
	Content     string                `gorm:"type:text;not null" json:"content"`
	Status      OutboundMessageStatus `gorm:"type:outbound_message_status;not null;default:'queued';index:idx_outbound_messages_status" json:"status"`
	RetryCount  int                   `gorm:"not null;default:0" json:"retry_count"`
	ScheduledAt *time.Time            `json:"scheduled_at,omitempty"`
	CreatedAt   time.Time             `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC');index:idx_outbound_messages_created_at" json:"created_at"`
	UpdatedAt   *time.Time            `json:"updated_at,omitempty"`

	// Relations
	Campaign *Campaign `gorm:"foreignKey:CampaignID;references:ID" json:"campaign,omitempty"`
}

// TableName returns the table name for the model
func (OutboundMessage) TableName() string {
	return "outbound_messages"
}

// BeforeCreate is called before creating a new record
func (m *OutboundMessage) BeforeCreate(tx *gorm.DB) error {
	if m.UUID == uuid.Nil {
		m.UUID = uuid.New()
	}
	if m.Status == "" {
		m.Status = OutboundMessageStatusQueued
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = utils.UTCNow()
	}
	return nil
}

// BeforeUpdate is called before updating a record
func (m *OutboundMessage) BeforeUpdate(tx *gorm.DB) error {
	now := utils.UTCNow()
	m.UpdatedAt = &now
	return nil
}

// CanRetry reports whether the message may be re-dispatched
func (m *OutboundMessage) CanRetry(maxRetries int) bool {
	return m.Status == OutboundMessageStatusFailed && m.RetryCount < maxRetries
}

// OutboundMessageFilter represents filter criteria for outbound messages
type OutboundMessageFilter struct {
	ID         *uint                  `json:"id,omitempty"`
	CampaignID *uint                  `json:"campaign_id,omitempty"`
	ClientID   *uint                  `json:"client_id,omitempty"`
	Channel    *Channel               `json:"channel,omitempty"`
	Status     *OutboundMessageStatus `json:"status,omitempty"`
}
