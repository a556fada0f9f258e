package businessflow

import (
	"context"
	"sort"

	"github.com/velora/backoffice/models"
	"github.com/velora/backoffice/repository"
)

// AudienceResolver turns a campaign targeting spec into the concrete set of
// active clients it addresses.
type AudienceResolver struct {
	clientRepo repository.ClientRepository
}

// NewAudienceResolver creates a new AudienceResolver instance
func NewAudienceResolver(clientRepo repository.ClientRepository) *AudienceResolver {
	return &AudienceResolver{clientRepo: clientRepo}
}

// Resolve returns the active clients matched by the targeting spec, deduplicated
// by ID and sorted in ascending ID order. The criteria lists combine as a
// union; within a single location entry the set fields combine as an
// intersection. A spec with no criteria at all resolves to an empty audience
// rather than everyone.
func (r *AudienceResolver) Resolve(ctx context.Context, spec models.TargetAudienceSpec) ([]*models.Client, error) {
	if spec.AllClients {
		return r.clientRepo.ListActive(ctx)
	}

	if spec.IsEmpty() {
		return []*models.Client{}, nil
	}

	matched := make(map[uint]*models.Client)

	if len(spec.SpecificClients) > 0 {
		clients, err := r.clientRepo.ListActiveByIDs(ctx, spec.SpecificClients)
		if err != nil {
			return nil, NewBusinessError("AUDIENCE_RESOLVE_FAILED", "failed to resolve specific clients", err)
		}
		for _, c := range clients {
			matched[c.ID] = c
		}
	}

	if len(spec.ClientTypes) > 0 {
		types := make([]models.ClientType, 0, len(spec.ClientTypes))
		for _, t := range spec.ClientTypes {
			types = append(types, models.ClientType(t))
		}
		clients, err := r.clientRepo.ListActiveByTypes(ctx, types)
		if err != nil {
			return nil, NewBusinessError("AUDIENCE_RESOLVE_FAILED", "failed to resolve clients by type", err)
		}
		for _, c := range clients {
			matched[c.ID] = c
		}
	}

	for _, loc := range spec.Locations {
		// An entry with no fields would match the whole active client base.
		// Validation rejects these on write; rows predating it are skipped.
		if loc.IsEmpty() {
			continue
		}
		clients, err := r.clientRepo.ListActiveByLocation(ctx, loc)
		if err != nil {
			return nil, NewBusinessError("AUDIENCE_RESOLVE_FAILED", "failed to resolve clients by location", err)
		}
		for _, c := range clients {
			matched[c.ID] = c
		}
	}

	ids := make([]uint, 0, len(matched))
	for id := range matched {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	result := make([]*models.Client, 0, len(ids))
	for _, id := range ids {
		result = append(result, matched[id])
	}
	return result, nil
}

// EligibleChannels filters the campaign channels down to the ones the client
// consents to. Only offer campaigns honor the offers opt-out; all other
// campaign types go out on every configured channel.
func EligibleChannels(campaign *models.Campaign, client *models.Client) []models.Channel {
	channels := make([]models.Channel, 0, len(campaign.Channels))
	for _, raw := range campaign.Channels {
		ch := models.Channel(raw)
		if campaign.Type == models.CampaignTypeOffer && !client.Preferences.AllowsOffers(ch) {
			continue
		}
		channels = append(channels, ch)
	}
	return channels
}
