package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/velora/backoffice/utils"
	"gorm.io/gorm"
)

// RecipientStatus tracks the delivery and engagement state of one recipient
type RecipientStatus string

const (
	RecipientStatusPending   RecipientStatus = "pending"
	RecipientStatusDelivered RecipientStatus = "delivered"
	RecipientStatusOpened    RecipientStatus = "opened"
	RecipientStatusClicked   RecipientStatus = "clicked"
	RecipientStatusConverted RecipientStatus = "converted"
	RecipientStatusFailed    RecipientStatus = "failed"
)

// String returns the string representation of the status
func (s RecipientStatus) String() string {
	return string(s)
}

// Valid checks if the status is valid
func (s RecipientStatus) Valid() bool {
	switch s {
	case RecipientStatusPending, RecipientStatusDelivered, RecipientStatusOpened,
		RecipientStatusClicked, RecipientStatusConverted, RecipientStatusFailed:
		return true
	default:
		return false
	}
}

// Scan implements the sql.Scanner interface for RecipientStatus
func (s *RecipientStatus) Scan(value any) error {
	if value == nil {
		*s = ""
		return nil
	}

	switch v := value.(type) {
	case string:
		*s = RecipientStatus(v)
	case []byte:
		*s = RecipientStatus(string(v))
	default:
		return fmt.Errorf("cannot scan %T into RecipientStatus", value)
	}

	return nil
}

// Value implements the driver.Valuer interface for RecipientStatus
func (s RecipientStatus) Value() (driver.Value, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid RecipientStatus: %s", s)
	}
	return string(s), nil
}

// PersonalizedContent is the rendered message stored per recipient
type PersonalizedContent struct {
	Subject   string            `json:"subject,omitempty"`
	Content   string            `json:"content"`
	Variables map[string]string `json:"variables,omitempty"`
}

// Value implements the driver.Valuer interface for PersonalizedContent
func (p PersonalizedContent) Value() (driver.Value, error) {
	return json.Marshal(p)
}

// Scan implements the sql.Scanner interface for PersonalizedContent
func (p *PersonalizedContent) Scan(value any) error {
	if value == nil {
		*p = PersonalizedContent{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into PersonalizedContent", value)
	}

	return json.Unmarshal(bytes, p)
}

// EngagementInfo accumulates recipient interactions
type EngagementInfo struct {
	Clicks int64   `json:"clicks"`
	Score  float64 `json:"score"`
}

// Value implements the driver.Valuer interface for EngagementInfo
func (e EngagementInfo) Value() (driver.Value, error) {
	return json.Marshal(e)
}

// Scan implements the sql.Scanner interface for EngagementInfo
func (e *EngagementInfo) Scan(value any) error {
	if value == nil {
		*e = EngagementInfo{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into EngagementInfo", value)
	}

	return json.Unmarshal(bytes, e)
}

// ConversionInfo records revenue attributed to the recipient
type ConversionInfo struct {
	Revenue float64 `json:"revenue"`
}

// Value implements the driver.Valuer interface for ConversionInfo
func (c ConversionInfo) Value() (driver.Value, error) {
	return json.Marshal(c)
}

// Scan implements the sql.Scanner interface for ConversionInfo
func (c *ConversionInfo) Scan(value any) error {
	if value == nil {
		*c = ConversionInfo{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into ConversionInfo", value)
	}

	return json.Unmarshal(bytes, c)
}

// DeliveryInfo records channel delivery cost for the recipient
type DeliveryInfo struct {
	Cost float64 `json:"cost"`
}

// Value implements the driver.Valuer interface for DeliveryInfo
func (d DeliveryInfo) Value() (driver.Value, error) {
	return json.Marshal(d)
}

// Scan implements the sql.Scanner interface for DeliveryInfo
func (d *DeliveryInfo) Scan(value any) error {
	if value == nil {
		*d = DeliveryInfo{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into DeliveryInfo", value)
	}

	return json.Unmarshal(bytes, d)
}

// CampaignRecipient is one (client, channel) delivery target of a processed campaign
type CampaignRecipient struct {
	ID          uint                `gorm:"primaryKey" json:"id"`
	UUID        uuid.UUID           `gorm:"type:uuid;not null;uniqueIndex:uk_campaign_recipients_uuid" json:"uuid"`
	CampaignID  uint                `gorm:"not null;index:idx_campaign_recipients_campaign_id" json:"campaign_id"`
	ClientID    uint                `gorm:"not null;index:idx_campaign_recipients_client_id" json:"client_id"`
	Channel     Channel             `gorm:"size:32;not null" json:"channel"`
	Status      RecipientStatus     `gorm:"type:recipient_status;not null;default:'pending';index:idx_campaign_recipients_status" json:"status"`
	ABVariant   *string             `gorm:"size:100" json:"ab_variant,omitempty"`
	Content     PersonalizedContent `gorm:"type:jsonb;not null" json:"content"`
	Engagement  EngagementInfo      `gorm:"type:jsonb" json:"engagement"`
	Conversion  ConversionInfo      `gorm:"type:jsonb" json:"conversion"`
	Delivery    DeliveryInfo        `gorm:"type:jsonb" json:"delivery"`
	DeliveredAt *time.Time          `json:"delivered_at,omitempty"`
	CreatedAt   time.Time           `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC');index:idx_campaign_recipients_created_at" json:"created_at"`
	UpdatedAt   *time.Time          `json:"updated_at,omitempty"`

	// Relations
	Campaign *Campaign `gorm:"foreignKey:CampaignID;references:ID" json:"campaign,omitempty"`
	Client   *Client   `gorm:"foreignKey:ClientID;references:ID" json:"client,omitempty"`
}

// TableName returns the table name for the model
func (CampaignRecipient) TableName() string {
	return "campaign_recipients"
}

// BeforeCreate is called before creating a new record
func (r *CampaignRecipient) BeforeCreate(tx *gorm.DB) error {
	if r.UUID == uuid.Nil {
		r.UUID = uuid.New()
	}
	if r.Status == "" {
		r.Status = RecipientStatusPending
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = utils.UTCNow()
	}
	return nil
}

// BeforeUpdate is called before updating a record
func (r *CampaignRecipient) BeforeUpdate(tx *gorm.DB) error {
	now := utils.UTCNow()
	r.UpdatedAt = &now
	return nil
}

// CampaignRecipientFilter represents filter criteria for campaign recipients
type CampaignRecipientFilter struct {
	ID         *uint            `json:"id,omitempty"`
	CampaignID *uint            `json:"campaign_id,omitempty"`
	ClientID   *uint            `json:"client_id,omitempty"`
	Channel    *Channel         `json:"channel,omitempty"`
	Status     *RecipientStatus `json:"status,omitempty"`
	ABVariant  *string          `json:"ab_variant,omitempty"`
}
