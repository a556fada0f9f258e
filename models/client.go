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

// ClientType distinguishes individual policyholders from corporate accounts
type ClientType string

const (
	ClientTypeIndividual ClientType = "individual"
	ClientTypeCorporate  ClientType = "corporate"
)

// Valid checks if the client type is valid
func (t ClientType) Valid() bool {
	return t == ClientTypeIndividual || t == ClientTypeCorporate
}

// ClientStatus represents the standing of a client account
type ClientStatus string

const (
	ClientStatusActive   ClientStatus = "active"
	ClientStatusInactive ClientStatus = "inactive"
)

// Valid checks if the client status is valid
func (s ClientStatus) Valid() bool {
	return s == ClientStatusActive || s == ClientStatusInactive
}

// ChannelPreference holds per-channel consent flags.
// A nil flag means the client never stated a preference and is treated as opted in.
type ChannelPreference struct {
	Offers      *bool `json:"offers,omitempty"`
	Newsletters *bool `json:"newsletters,omitempty"`
}

// CommunicationPreferences maps channel names to consent flags
type CommunicationPreferences map[Channel]ChannelPreference

// Value implements the driver.Valuer interface for CommunicationPreferences
func (p CommunicationPreferences) Value() (driver.Value, error) {
	if p == nil {
		return json.Marshal(CommunicationPreferences{})
	}
	return json.Marshal(p)
}

// Scan implements the sql.Scanner interface for CommunicationPreferences
func (p *CommunicationPreferences) Scan(value any) error {
	if value == nil {
		*p = CommunicationPreferences{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into CommunicationPreferences", value)
	}

	return json.Unmarshal(bytes, p)
}

// AllowsOffers reports whether the client accepts offer campaigns on the channel.
// Absent preferences default to accepting.
func (p CommunicationPreferences) AllowsOffers(ch Channel) bool {
	if p == nil {
		return true
	}
	pref, ok := p[ch]
	if !ok {
		return true
	}
	if pref.Offers == nil {
		return true
	}
	return *pref.Offers
}

// Client is the read-side projection of the agency's client directory
type Client struct {
	ID            uint                     `gorm:"primaryKey" json:"id"`
	UUID          uuid.UUID                `gorm:"type:uuid;not null;uniqueIndex:uk_clients_uuid" json:"uuid"`
	Name          string                   `gorm:"size:255;not null" json:"name"`
	FirstName     *string                  `gorm:"size:100" json:"first_name,omitempty"`
	ContactPerson *string                  `gorm:"size:255" json:"contact_person,omitempty"`
	Email         *string                  `gorm:"size:255;index:idx_clients_email" json:"email,omitempty"`
	Phone         *string                  `gorm:"size:32" json:"phone,omitempty"`
	City          *string                  `gorm:"size:100;index:idx_clients_city" json:"city,omitempty"`
	State         *string                  `gorm:"size:100;index:idx_clients_state" json:"state,omitempty"`
	PostalCode    *string                  `gorm:"size:20" json:"postal_code,omitempty"`
	ClientType    ClientType               `gorm:"size:32;not null;index:idx_clients_type" json:"client_type"`
	Status        ClientStatus             `gorm:"size:32;not null;default:'active';index:idx_clients_status" json:"status"`
	Preferences   CommunicationPreferences `gorm:"type:jsonb" json:"preferences"`
	CreatedAt     time.Time                `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	UpdatedAt     *time.Time               `json:"updated_at,omitempty"`
}

// TableName returns the table name for the model
func (Client) TableName() string {
	return "clients"
}

// BeforeCreate is called before creating a new record
func (c *Client) BeforeCreate(tx *gorm.DB) error {
	if c.UUID == uuid.Nil {
		c.UUID = uuid.New()
	}
	if c.Status == "" {
		c.Status = ClientStatusActive
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = utils.UTCNow()
	}
	return nil
}

// IsActive reports whether the client is in good standing
func (c *Client) IsActive() bool {
	return c.Status == ClientStatusActive
}

// ClientFilter represents filter criteria for clients
type ClientFilter struct {
	ID         *uint         `json:"id,omitempty"`
	UUID       *uuid.UUID    `json:"uuid,omitempty"`
	Email      *string       `json:"email,omitempty"`
	ClientType *ClientType   `json:"client_type,omitempty"`
	Status     *ClientStatus `json:"status,omitempty"`
	City       *string       `json:"city,omitempty"`
	State      *string       `json:"state,omitempty"`
	PostalCode *string       `json:"postal_code,omitempty"`
}
