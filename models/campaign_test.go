package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCampaignStatusValid(t *testing.T) {
	valid := []CampaignStatus{
		CampaignStatusDraft, CampaignStatusPendingApproval, CampaignStatusApproved,
		CampaignStatusRejected, CampaignStatusScheduled, CampaignStatusSending,
		CampaignStatusSent, CampaignStatusFailed, CampaignStatusCancelled,
	}
	for _, s := range valid {
		assert.True(t, s.Valid(), "expected %s to be valid", s)
	}
	assert.False(t, CampaignStatus("archived").Valid())
	assert.False(t, CampaignStatus("").Valid())
}

func TestCampaignCanTransitionTo(t *testing.T) {
	tests := []struct {
		name    string
		from    CampaignStatus
		to      CampaignStatus
		allowed bool
	}{
		{"draft to pending", CampaignStatusDraft, CampaignStatusPendingApproval, true},
		{"draft to approved", CampaignStatusDraft, CampaignStatusApproved, true},
		{"draft to sent", CampaignStatusDraft, CampaignStatusSent, false},
		{"pending to approved", CampaignStatusPendingApproval, CampaignStatusApproved, true},
		{"pending to scheduled", CampaignStatusPendingApproval, CampaignStatusScheduled, true},
		{"pending to cancelled", CampaignStatusPendingApproval, CampaignStatusCancelled, true},
		{"pending to sending", CampaignStatusPendingApproval, CampaignStatusSending, false},
		{"approved to sending", CampaignStatusApproved, CampaignStatusSending, true},
		{"approved to cancelled", CampaignStatusApproved, CampaignStatusCancelled, true},
		{"scheduled to sending", CampaignStatusScheduled, CampaignStatusSending, true},
		{"scheduled to approved", CampaignStatusScheduled, CampaignStatusApproved, false},
		{"sending to sent", CampaignStatusSending, CampaignStatusSent, true},
		{"sending to failed", CampaignStatusSending, CampaignStatusFailed, true},
		{"sending to cancelled", CampaignStatusSending, CampaignStatusCancelled, false},
		{"sent is terminal", CampaignStatusSent, CampaignStatusSending, false},
		{"failed is terminal", CampaignStatusFailed, CampaignStatusSending, false},
		{"cancelled is terminal", CampaignStatusCancelled, CampaignStatusApproved, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Campaign{Status: tt.from}
			assert.Equal(t, tt.allowed, c.CanTransitionTo(tt.to))
		})
	}
}

func TestCampaignIsEditable(t *testing.T) {
	assert.True(t, (&Campaign{Status: CampaignStatusDraft}).IsEditable())
	assert.True(t, (&Campaign{Status: CampaignStatusPendingApproval}).IsEditable())
	assert.False(t, (&Campaign{Status: CampaignStatusApproved}).IsEditable())
	assert.False(t, (&Campaign{Status: CampaignStatusSent}).IsEditable())
	assert.False(t, (&Campaign{Status: CampaignStatusCancelled}).IsEditable())
}

func TestCampaignIsProcessable(t *testing.T) {
	assert.True(t, (&Campaign{Status: CampaignStatusApproved}).IsProcessable())
	assert.True(t, (&Campaign{Status: CampaignStatusScheduled}).IsProcessable())
	assert.False(t, (&Campaign{Status: CampaignStatusSending}).IsProcessable())
	assert.False(t, (&Campaign{Status: CampaignStatusSent}).IsProcessable())
	assert.False(t, (&Campaign{Status: CampaignStatusDraft}).IsProcessable())
}

func TestContentForChannel(t *testing.T) {
	c := &Campaign{
		Content: "base content",
		ChannelOverrides: ChannelOverrides{
			ChannelEmail: {Subject: "Spring Renewal", Content: "email content"},
			ChannelSMS:   {Subject: "ignored for sms"},
		},
	}

	subject, content := c.ContentForChannel(ChannelEmail)
	assert.Equal(t, "Spring Renewal", subject)
	assert.Equal(t, "email content", content)

	// Override with subject only keeps the base content
	subject, content = c.ContentForChannel(ChannelSMS)
	assert.Equal(t, "ignored for sms", subject)
	assert.Equal(t, "base content", content)

	// No override at all
	subject, content = c.ContentForChannel(ChannelWhatsApp)
	assert.Empty(t, subject)
	assert.Equal(t, "base content", content)
}

func TestContentForChannelNilOverrides(t *testing.T) {
	c := &Campaign{Content: "base"}
	subject, content := c.ContentForChannel(ChannelEmail)
	assert.Empty(t, subject)
	assert.Equal(t, "base", content)
}

func TestHasChannel(t *testing.T) {
	c := &Campaign{Channels: []string{"email", "sms"}}
	assert.True(t, c.HasChannel(ChannelEmail))
	assert.True(t, c.HasChannel(ChannelSMS))
	assert.False(t, c.HasChannel(ChannelWhatsApp))
}

func TestLocationFilterIsEmpty(t *testing.T) {
	city := "Austin"
	blank := ""

	assert.True(t, LocationFilter{}.IsEmpty())
	assert.True(t, LocationFilter{City: &blank, State: &blank, PostalCode: &blank}.IsEmpty())
	assert.False(t, LocationFilter{City: &city}.IsEmpty())
}

func TestTargetAudienceSpecIsEmpty(t *testing.T) {
	assert.True(t, TargetAudienceSpec{}.IsEmpty())
	assert.False(t, TargetAudienceSpec{AllClients: true}.IsEmpty())
	assert.False(t, TargetAudienceSpec{SpecificClients: []uint{1}}.IsEmpty())
	assert.False(t, TargetAudienceSpec{ClientTypes: []string{"individual"}}.IsEmpty())

	city := "Austin"
	assert.False(t, TargetAudienceSpec{Locations: []LocationFilter{{City: &city}}}.IsEmpty())
}

func TestTargetAudienceSpecScanValue(t *testing.T) {
	spec := TargetAudienceSpec{
		SpecificClients: []uint{3, 7},
		ClientTypes:     []string{"corporate"},
	}

	raw, err := spec.Value()
	require.NoError(t, err)

	var decoded TargetAudienceSpec
	require.NoError(t, decoded.Scan(raw))
	assert.Equal(t, spec, decoded)

	var fromNil TargetAudienceSpec
	require.NoError(t, fromNil.Scan(nil))
	assert.True(t, fromNil.IsEmpty())
}

func TestABTestSpecScanValue(t *testing.T) {
	spec := ABTestSpec{
		Enabled: true,
		Variants: []ABVariant{
			{Name: "A", Percentage: 40, Content: "variant a"},
			{Name: "B", Percentage: 40, Content: "variant b"},
		},
		TestDurationHours: 24,
	}

	raw, err := spec.Value()
	require.NoError(t, err)

	var decoded ABTestSpec
	require.NoError(t, decoded.Scan(raw))
	assert.Equal(t, spec, decoded)
}

func TestApprovalInfoScanValue(t *testing.T) {
	reason := "budget not approved"
	info := ApprovalInfo{
		Required:        true,
		Status:          ApprovalStatusRejected,
		RejectionReason: &reason,
	}

	raw, err := info.Value()
	require.NoError(t, err)

	var decoded ApprovalInfo
	require.NoError(t, decoded.Scan(raw))
	require.NotNil(t, decoded.RejectionReason)
	assert.Equal(t, reason, *decoded.RejectionReason)
	assert.Equal(t, ApprovalStatusRejected, decoded.Status)
}

func TestCampaignStatusScanValue(t *testing.T) {
	var s CampaignStatus
	require.NoError(t, s.Scan("approved"))
	assert.Equal(t, CampaignStatusApproved, s)

	require.NoError(t, s.Scan([]byte("sending")))
	assert.Equal(t, CampaignStatusSending, s)

	_, err := CampaignStatus("bogus").Value()
	assert.Error(t, err)
}
