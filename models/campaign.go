// Package models contains domain entities and business models for the back office
package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/velora/backoffice/utils"
	"gorm.io/gorm"
)

// CampaignStatus represents the lifecycle status of a campaign
type CampaignStatus string

const (
	CampaignStatusDraft           CampaignStatus = "draft"
	CampaignStatusPendingApproval CampaignStatus = "pending_approval"
	CampaignStatusApproved        CampaignStatus = "approved"
	CampaignStatusRejected        CampaignStatus = "rejected"
	CampaignStatusScheduled       CampaignStatus = "scheduled"
	CampaignStatusSending         CampaignStatus = "sending"
	CampaignStatusSent            CampaignStatus = "sent"
	CampaignStatusFailed          CampaignStatus = "failed"
	CampaignStatusCancelled       CampaignStatus = "cancelled"
)

// String returns the string representation of the status
func (s CampaignStatus) String() string {
	return string(s)
}

// Valid checks if the status is valid
func (s CampaignStatus) Valid() bool {
	switch s {
	case CampaignStatusDraft, CampaignStatusPendingApproval,
		CampaignStatusApproved, CampaignStatusRejected,
		CampaignStatusScheduled, CampaignStatusSending,
		CampaignStatusSent, CampaignStatusFailed, CampaignStatusCancelled:
		return true
	default:
		return false
	}
}

// Scan implements the sql.Scanner interface for CampaignStatus
func (s *CampaignStatus) Scan(value any) error {
	if value == nil {
		*s = ""
		return nil
	}

	switch v := value.(type) {
	case string:
		*s = CampaignStatus(v)
	case []byte:
		*s = CampaignStatus(string(v))
	default:
		return fmt.Errorf("cannot scan %T into CampaignStatus", value)
	}

	return nil
}

// Value implements the driver.Valuer interface for CampaignStatus
func (s CampaignStatus) Value() (driver.Value, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid CampaignStatus: %s", s)
	}
	return string(s), nil
}

// CampaignType classifies the marketing intent of a campaign
type CampaignType string

const (
	CampaignTypeOffer        CampaignType = "offer"
	CampaignTypeFestival     CampaignType = "festival"
	CampaignTypeAnnouncement CampaignType = "announcement"
	CampaignTypePromotion    CampaignType = "promotion"
	CampaignTypeNewsletter   CampaignType = "newsletter"
	CampaignTypeReminder     CampaignType = "reminder"
)

// Valid checks if the campaign type is valid
func (t CampaignType) Valid() bool {
	switch t {
	case CampaignTypeOffer, CampaignTypeFestival, CampaignTypeAnnouncement,
		CampaignTypePromotion, CampaignTypeNewsletter, CampaignTypeReminder:
		return true
	default:
		return false
	}
}

// Channel identifies a delivery channel for campaign messages
type Channel string

const (
	ChannelEmail    Channel = "email"
	ChannelWhatsApp Channel = "whatsapp"
	ChannelSMS      Channel = "sms"
)

// Valid checks if the channel is valid
func (c Channel) Valid() bool {
	switch c {
	case ChannelEmail, ChannelWhatsApp, ChannelSMS:
		return true
	default:
		return false
	}
}

// LocationFilter narrows the audience to clients in a geographic area.
// Fields set on the same entry must all match.
type LocationFilter struct {
	City       *string `json:"city,omitempty"`
	State      *string `json:"state,omitempty"`
	PostalCode *string `json:"postal_code,omitempty"`
}

// IsEmpty reports whether the entry constrains nothing. An empty entry would
// match every active client, so callers must reject or skip it.
func (l LocationFilter) IsEmpty() bool {
	return (l.City == nil || *l.City == "") &&
		(l.State == nil || *l.State == "") &&
		(l.PostalCode == nil || *l.PostalCode == "")
}

// TargetAudienceSpec captures who a campaign is addressed to
type TargetAudienceSpec struct {
	AllClients      bool             `json:"all_clients"`
	SpecificClients []uint           `json:"specific_clients,omitempty"`
	ClientTypes     []string         `json:"client_types,omitempty"`
	Locations       []LocationFilter `json:"locations,omitempty"`
}

// IsEmpty reports whether no targeting criteria is present at all
func (t TargetAudienceSpec) IsEmpty() bool {
	return !t.AllClients && len(t.SpecificClients) == 0 &&
		len(t.ClientTypes) == 0 && len(t.Locations) == 0
}

// Value implements the driver.Valuer interface for TargetAudienceSpec
func (t TargetAudienceSpec) Value() (driver.Value, error) {
	return json.Marshal(t)
}

// Scan implements the sql.Scanner interface for TargetAudienceSpec
func (t *TargetAudienceSpec) Scan(value any) error {
	if value == nil {
		*t = TargetAudienceSpec{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into TargetAudienceSpec", value)
	}

	return json.Unmarshal(bytes, t)
}

// VariantStats holds per-variant send tallies
type VariantStats struct {
	Sent int64 `json:"sent"`
}

// ABVariant is one arm of an A/B test
type ABVariant struct {
	Name       string       `json:"name"`
	Percentage float64      `json:"percentage"`
	Content    string       `json:"content"`
	Stats      VariantStats `json:"stats"`
}

// ABTestSpec configures A/B testing for a campaign.
// Percentages may sum to less than 100; the remainder receives the base content.
type ABTestSpec struct {
	Enabled           bool        `json:"enabled"`
	Variants          []ABVariant `json:"variants,omitempty"`
	TestDurationHours int         `json:"test_duration_hours,omitempty"`
	ConfidenceLevel   float64     `json:"confidence_level,omitempty"`
	WinningVariant    *string     `json:"winning_variant,omitempty"`
}

// Value implements the driver.Valuer interface for ABTestSpec
func (a ABTestSpec) Value() (driver.Value, error) {
	return json.Marshal(a)
}

// Scan implements the sql.Scanner interface for ABTestSpec
func (a *ABTestSpec) Scan(value any) error {
	if value == nil {
		*a = ABTestSpec{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into ABTestSpec", value)
	}

	return json.Unmarshal(bytes, a)
}

// ApprovalStatus represents the review decision state of a campaign
type ApprovalStatus string

const (
	ApprovalStatusPending  ApprovalStatus = "pending"
	ApprovalStatusApproved ApprovalStatus = "approved"
	ApprovalStatusRejected ApprovalStatus = "rejected"
)

// ApprovalInfo records the review workflow of a campaign
type ApprovalInfo struct {
	Required        bool           `json:"required"`
	Status          ApprovalStatus `json:"status"`
	ApprovedBy      *uint          `json:"approved_by,omitempty"`
	ApprovedAt      *time.Time     `json:"approved_at,omitempty"`
	RejectionReason *string        `json:"rejection_reason,omitempty"`
}

// Value implements the driver.Valuer interface for ApprovalInfo
func (a ApprovalInfo) Value() (driver.Value, error) {
	return json.Marshal(a)
}

// Scan implements the sql.Scanner interface for ApprovalInfo
func (a *ApprovalInfo) Scan(value any) error {
	if value == nil {
		*a = ApprovalInfo{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into ApprovalInfo", value)
	}

	return json.Unmarshal(bytes, a)
}

// AutomationTrigger names the business event an automated campaign reacts to
type AutomationTrigger struct {
	Type string `json:"type"`
}

// AutomationSpec configures event-driven campaigns
type AutomationSpec struct {
	IsAutomated bool              `json:"is_automated"`
	Trigger     AutomationTrigger `json:"trigger"`
}

// Value implements the driver.Valuer interface for AutomationSpec
func (a AutomationSpec) Value() (driver.Value, error) {
	return json.Marshal(a)
}

// Scan implements the sql.Scanner interface for AutomationSpec
func (a *AutomationSpec) Scan(value any) error {
	if value == nil {
		*a = AutomationSpec{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into AutomationSpec", value)
	}

	return json.Unmarshal(bytes, a)
}

// CampaignStats is the denormalized counters snapshot kept on the campaign
type CampaignStats struct {
	TotalRecipients int64   `json:"total_recipients"`
	SentCount       int64   `json:"sent_count"`
	DeliveredCount  int64   `json:"delivered_count"`
	OpenedCount     int64   `json:"opened_count"`
	ClickedCount    int64   `json:"clicked_count"`
	ConvertedCount  int64   `json:"converted_count"`
	ROI             float64 `json:"roi"`
}

// Value implements the driver.Valuer interface for CampaignStats
func (s CampaignStats) Value() (driver.Value, error) {
	return json.Marshal(s)
}

// Scan implements the sql.Scanner interface for CampaignStats
func (s *CampaignStats) Scan(value any) error {
	if value == nil {
		*s = CampaignStats{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into CampaignStats", value)
	}

	return json.Unmarshal(bytes, s)
}

// ChannelContent is channel-specific copy overriding the base content
type ChannelContent struct {
	Subject string `json:"subject,omitempty"`
	Content string `json:"content,omitempty"`
}

// ChannelOverrides maps channels to their specific content
type ChannelOverrides map[Channel]ChannelContent

// Value implements the driver.Valuer interface for ChannelOverrides
func (c ChannelOverrides) Value() (driver.Value, error) {
	if c == nil {
		return json.Marshal(ChannelOverrides{})
	}
	return json.Marshal(c)
}

// Scan implements the sql.Scanner interface for ChannelOverrides
func (c *ChannelOverrides) Scan(value any) error {
	if value == nil {
		*c = ChannelOverrides{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into ChannelOverrides", value)
	}

	return json.Unmarshal(bytes, c)
}

// Campaign represents a broadcast campaign in the database
type Campaign struct {
	ID               uint               `gorm:"primaryKey" json:"id"`
	UUID             uuid.UUID          `gorm:"type:uuid;not null;uniqueIndex:uk_campaigns_uuid" json:"uuid"`
	CreatedBy        uint               `gorm:"not null;index:idx_campaigns_created_by" json:"created_by"`
	Title            string             `gorm:"size:255;not null" json:"title"`
	Description      *string            `gorm:"type:text" json:"description,omitempty"`
	Type             CampaignType       `gorm:"size:32;not null" json:"type"`
	Channels         pq.StringArray     `gorm:"type:text[];not null" json:"channels"`
	Content          string             `gorm:"type:text;not null" json:"content"`
	ChannelOverrides ChannelOverrides   `gorm:"type:jsonb" json:"channel_overrides,omitempty"`
	TargetAudience   TargetAudienceSpec `gorm:"type:jsonb;not null" json:"target_audience"`
	ABTest           ABTestSpec         `gorm:"type:jsonb" json:"ab_test"`
	Approval         ApprovalInfo       `gorm:"type:jsonb;not null" json:"approval"`
	Automation       AutomationSpec     `gorm:"type:jsonb" json:"automation"`
	ScheduledAt      *time.Time         `gorm:"index:idx_campaigns_scheduled_at" json:"scheduled_at,omitempty"`
	Stats            CampaignStats      `gorm:"type:jsonb;not null" json:"stats"`
	Status           CampaignStatus     `gorm:"type:campaign_status;not null;default:'draft';index:idx_campaigns_status" json:"status"`
	CreatedAt        time.Time          `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC');index:idx_campaigns_created_at" json:"created_at"`
	UpdatedAt        *time.Time         `gorm:"index:idx_campaigns_updated_at" json:"updated_at,omitempty"`
}

// TableName returns the table name for the model
func (Campaign) TableName() string {
	return "campaigns"
}

// BeforeCreate is called before creating a new record
func (c *Campaign) BeforeCreate(tx *gorm.DB) error {
	if c.UUID == uuid.Nil {
		c.UUID = uuid.New()
	}
	if c.Status == "" {
		c.Status = CampaignStatusDraft
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = utils.UTCNow()
	}
	return nil
}

// BeforeUpdate is called before updating a record
func (c *Campaign) BeforeUpdate(tx *gorm.DB) error {
	now := utils.UTCNow()
	c.UpdatedAt = &now
	return nil
}

// IsEditable checks if the campaign content can still be modified
func (c *Campaign) IsEditable() bool {
	return c.Status == CampaignStatusDraft ||
		c.Status == CampaignStatusPendingApproval
}

// IsDeletable checks if the campaign can be deleted
func (c *Campaign) IsDeletable() bool {
	return false
}

// CanTransitionTo checks if the campaign can transition to the given status
func (c *Campaign) CanTransitionTo(newStatus CampaignStatus) bool {
	switch c.Status {
	case CampaignStatusDraft:
		return newStatus == CampaignStatusPendingApproval ||
			newStatus == CampaignStatusApproved ||
			newStatus == CampaignStatusScheduled ||
			newStatus == CampaignStatusCancelled
	case CampaignStatusPendingApproval:
		return newStatus == CampaignStatusApproved ||
			newStatus == CampaignStatusScheduled ||
			newStatus == CampaignStatusCancelled
	case CampaignStatusApproved:
		return newStatus == CampaignStatusScheduled ||
			newStatus == CampaignStatusSending ||
			newStatus == CampaignStatusCancelled
	case CampaignStatusScheduled:
		return newStatus == CampaignStatusSending ||
			newStatus == CampaignStatusCancelled
	case CampaignStatusSending:
		return newStatus == CampaignStatusSent ||
			newStatus == CampaignStatusFailed
	default:
		return false
	}
}

// IsProcessable checks if the campaign may be claimed for broadcast processing
func (c *Campaign) IsProcessable() bool {
	return c.Status == CampaignStatusApproved ||
		c.Status == CampaignStatusScheduled
}

// HasChannel reports whether the campaign addresses the given channel
func (c *Campaign) HasChannel(ch Channel) bool {
	for _, v := range c.Channels {
		if Channel(v) == ch {
			return true
		}
	}
	return false
}

// ContentForChannel returns the channel override content when present, the base content otherwise
func (c *Campaign) ContentForChannel(ch Channel) (subject, content string) {
	if c.ChannelOverrides != nil {
		if override, ok := c.ChannelOverrides[ch]; ok {
			subject = override.Subject
			if override.Content != "" {
				return subject, override.Content
			}
		}
	}
	return subject, c.Content
}

// CampaignFilter represents filter criteria for campaigns
type CampaignFilter struct {
	ID             *uint           `json:"id,omitempty"`
	UUID           *uuid.UUID      `json:"uuid,omitempty"`
	CreatedBy      *uint           `json:"created_by,omitempty"`
	Status         *CampaignStatus `json:"status,omitempty"`
	Type           *CampaignType   `json:"type,omitempty"`
	Title          *string         `json:"title,omitempty"`
	Channel        *Channel        `json:"channel,omitempty"`
	IsAutomated    *bool           `json:"is_automated,omitempty"`
	TriggerType    *string         `json:"trigger_type,omitempty"`
	CreatedAfter   *time.Time      `json:"created_after,omitempty"`
	CreatedBefore  *time.Time      `json:"created_before,omitempty"`
	ScheduleAfter  *time.Time      `json:"schedule_after,omitempty"`
	ScheduleBefore *time.Time      `json:"schedule_before,omitempty"`
}
