// Package services provides external service integrations and technical concerns like message dispatch and tokens
package services

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/velora/backoffice/models"
)

// DispatchResult reports the outcome of handing one message to a channel provider
type DispatchResult struct {
	Cost float64
}

// DispatchService hands rendered outbound messages to the channel providers
type DispatchService interface {
	Dispatch(ctx context.Context, msg *models.OutboundMessage, client *models.Client) (*DispatchResult, error)
}

// EmailDispatcher sends one email message
type EmailDispatcher interface {
	SendEmail(ctx context.Context, to, subject, body string) (cost float64, err error)
}

// WhatsAppDispatcher sends one WhatsApp message
type WhatsAppDispatcher interface {
	SendWhatsApp(ctx context.Context, phone, body string) (cost float64, err error)
}

// SMSDispatcher sends one SMS message
type SMSDispatcher interface {
	SendSMS(ctx context.Context, phone, body string) (cost float64, err error)
}

// DispatchServiceImpl implements DispatchService
type DispatchServiceImpl struct {
	email    EmailDispatcher
	whatsapp WhatsAppDispatcher
	sms      SMSDispatcher
}

// NewDispatchService creates a new dispatch service
func NewDispatchService(email EmailDispatcher, whatsapp WhatsAppDispatcher, sms SMSDispatcher) DispatchService {
	return &DispatchServiceImpl{
		email:    email,
		whatsapp: whatsapp,
		sms:      sms,
	}
}

// Dispatch routes the message to the provider of its channel
func (s *DispatchServiceImpl) Dispatch(ctx context.Context, msg *models.OutboundMessage, client *models.Client) (*DispatchResult, error) {
	switch msg.Channel {
	case models.ChannelEmail:
		if s.email == nil {
			return nil, fmt.Errorf("email dispatcher not configured")
		}
		email := deref(client.Email)
		if email == "" || !strings.Contains(email, "@") {
			return nil, fmt.Errorf("invalid email address for client %d", client.ID)
		}
		subject := ""
		if msg.Subject != nil {
			subject = *msg.Subject
		}
		cost, err := s.email.SendEmail(ctx, email, subject, msg.Content)
		if err != nil {
			return nil, err
		}
		return &DispatchResult{Cost: cost}, nil
	case models.ChannelWhatsApp:
		if s.whatsapp == nil {
			return nil, fmt.Errorf("whatsapp dispatcher not configured")
		}
		phone := deref(client.Phone)
		if phone == "" {
			return nil, fmt.Errorf("missing phone number for client %d", client.ID)
		}
		cost, err := s.whatsapp.SendWhatsApp(ctx, phone, msg.Content)
		if err != nil {
			return nil, err
		}
		return &DispatchResult{Cost: cost}, nil
	case models.ChannelSMS:
		if s.sms == nil {
			return nil, fmt.Errorf("sms dispatcher not configured")
		}
		phone := deref(client.Phone)
		if phone == "" {
			return nil, fmt.Errorf("missing phone number for client %d", client.ID)
		}
		cost, err := s.sms.SendSMS(ctx, phone, msg.Content)
		if err != nil {
			return nil, err
		}
		return &DispatchResult{Cost: cost}, nil
	default:
		return nil, fmt.Errorf("unsupported channel: %s", msg.Channel)
	}
}

// MockEmailDispatcher logs instead of sending. Used in development and tests.
type MockEmailDispatcher struct{}

func NewMockEmailDispatcher() EmailDispatcher {
	return &MockEmailDispatcher{}
}

func (d *MockEmailDispatcher) SendEmail(ctx context.Context, to, subject, body string) (float64, error) {
	log.Printf("Email sent to %s [%s]: %s", to, subject, body)
	return 0.001, nil
}

// MockWhatsAppDispatcher logs instead of sending. Used in development and tests.
type MockWhatsAppDispatcher struct{}

func NewMockWhatsAppDispatcher() WhatsAppDispatcher {
	return &MockWhatsAppDispatcher{}
}

func (d *MockWhatsAppDispatcher) SendWhatsApp(ctx context.Context, phone, body string) (float64, error) {
	log.Printf("WhatsApp sent to %s: %s", phone, body)
	return 0.02, nil
}

// MockSMSDispatcher logs instead of sending. Used in development and tests.
type MockSMSDispatcher struct{}

func NewMockSMSDispatcher() SMSDispatcher {
	return &MockSMSDispatcher{}
}

func (d *MockSMSDispatcher) SendSMS(ctx context.Context, phone, body string) (float64, error) {
	log.Printf("SMS sent to %s: %s", phone, body)
	return 0.05, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
