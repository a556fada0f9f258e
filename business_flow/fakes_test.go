package businessflow

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/velora/backoffice/models"
	"github.com/velora/backoffice/repository"
)

// In-memory repository fakes backing the flow tests. Flows run with a nil
// *gorm.DB so WithTransaction executes directly against these.

type fakeCampaignRepo struct {
	mu        sync.Mutex
	campaigns map[uint]*models.Campaign
	nextID    uint

	claimErr  error
	saveErr   error
	updateErr error

	statusUpdates []models.CampaignStatus
	statsUpdates  []models.CampaignStats
	abTestUpdates []models.ABTestSpec
	due           []*models.Campaign
	automated     []*models.Campaign
}

func newFakeCampaignRepo() *fakeCampaignRepo {
	return &fakeCampaignRepo{campaigns: make(map[uint]*models.Campaign)}
}

func (r *fakeCampaignRepo) add(c *models.Campaign) *models.Campaign {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c.ID == 0 {
		r.nextID++
		c.ID = r.nextID
	} else if c.ID > r.nextID {
		r.nextID = c.ID
	}
	if c.UUID == uuid.Nil {
		c.UUID = uuid.New()
	}
	r.campaigns[c.ID] = c
	return c
}

func (r *fakeCampaignRepo) ByID(ctx context.Context, id uint) (*models.Campaign, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.campaigns[id]
	if !ok {
		return nil, nil
	}
	copied := *c
	return &copied, nil
}

func (r *fakeCampaignRepo) ByUUID(ctx context.Context, u string) (*models.Campaign, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.campaigns {
		if c.UUID.String() == u {
			copied := *c
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *fakeCampaignRepo) matches(c *models.Campaign, filter models.CampaignFilter) bool {
	if filter.Status != nil && c.Status != *filter.Status {
		return false
	}
	if filter.Type != nil && c.Type != *filter.Type {
		return false
	}
	if filter.CreatedBy != nil && c.CreatedBy != *filter.CreatedBy {
		return false
	}
	if filter.Title != nil && !strings.Contains(c.Title, *filter.Title) {
		return false
	}
	return true
}

func (r *fakeCampaignRepo) ByFilter(ctx context.Context, filter models.CampaignFilter, orderBy string, limit, offset int) ([]*models.Campaign, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]*models.Campaign, 0)
	for id := uint(1); id <= r.nextID; id++ {
		c, ok := r.campaigns[id]
		if !ok || !r.matches(c, filter) {
			continue
		}
		copied := *c
		result = append(result, &copied)
	}
	if offset >= len(result) {
		return []*models.Campaign{}, nil
	}
	result = result[offset:]
	if limit > 0 && limit < len(result) {
		result = result[:limit]
	}
	return result, nil
}

func (r *fakeCampaignRepo) Save(ctx context.Context, c *models.Campaign) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	r.add(c)
	return nil
}

func (r *fakeCampaignRepo) SaveBatch(ctx context.Context, cs []*models.Campaign) error {
	for _, c := range cs {
		if err := r.Save(ctx, c); err != nil {
			return err
		}
	}
	return nil
}

func (r *fakeCampaignRepo) Count(ctx context.Context, filter models.CampaignFilter) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var total int64
	for _, c := range r.campaigns {
		if r.matches(c, filter) {
			total++
		}
	}
	return total, nil
}

func (r *fakeCampaignRepo) Exists(ctx context.Context, filter models.CampaignFilter) (bool, error) {
	total, err := r.Count(ctx, filter)
	return total > 0, err
}

func (r *fakeCampaignRepo) Update(ctx context.Context, c models.Campaign) error {
	if r.updateErr != nil {
		return r.updateErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := c
	r.campaigns[c.ID] = &copied
	return nil
}

func (r *fakeCampaignRepo) UpdateStatus(ctx context.Context, id uint, status models.CampaignStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.campaigns[id]; ok {
		c.Status = status
	}
	r.statusUpdates = append(r.statusUpdates, status)
	return nil
}

func (r *fakeCampaignRepo) UpdateStats(ctx context.Context, id uint, stats models.CampaignStats) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.campaigns[id]; ok {
		c.Stats = stats
	}
	r.statsUpdates = append(r.statsUpdates, stats)
	return nil
}

func (r *fakeCampaignRepo) UpdateABTest(ctx context.Context, id uint, abTest models.ABTestSpec) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.campaigns[id]; ok {
		c.ABTest = abTest
	}
	r.abTestUpdates = append(r.abTestUpdates, abTest)
	return nil
}

func (r *fakeCampaignRepo) ClaimForSending(ctx context.Context, id uint) (bool, error) {
	if r.claimErr != nil {
		return false, r.claimErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.campaigns[id]
	if !ok {
		return false, nil
	}
	if c.Status != models.CampaignStatusApproved && c.Status != models.CampaignStatusScheduled {
		return false, nil
	}
	c.Status = models.CampaignStatusSending
	return true, nil
}

func (r *fakeCampaignRepo) ListDueForProcessing(ctx context.Context, now time.Time, limit int) ([]*models.Campaign, error) {
	return r.due, nil
}

func (r *fakeCampaignRepo) ListAutomatedByTrigger(ctx context.Context, triggerType string) ([]*models.Campaign, error) {
	return r.automated, nil
}

type fakeClientRepo struct {
	clients []*models.Client
	listErr error
}

func newFakeClientRepo(clients ...*models.Client) *fakeClientRepo {
	return &fakeClientRepo{clients: clients}
}

func (r *fakeClientRepo) active() []*models.Client {
	result := make([]*models.Client, 0, len(r.clients))
	for _, c := range r.clients {
		if c.IsActive() {
			result = append(result, c)
		}
	}
	return result
}

func (r *fakeClientRepo) ByID(ctx context.Context, id uint) (*models.Client, error) {
	for _, c := range r.clients {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, nil
}

func (r *fakeClientRepo) ByFilter(ctx context.Context, filter models.ClientFilter, orderBy string, limit, offset int) ([]*models.Client, error) {
	return r.clients, nil
}

func (r *fakeClientRepo) Save(ctx context.Context, c *models.Client) error {
	r.clients = append(r.clients, c)
	return nil
}

func (r *fakeClientRepo) SaveBatch(ctx context.Context, cs []*models.Client) error {
	r.clients = append(r.clients, cs...)
	return nil
}

func (r *fakeClientRepo) Count(ctx context.Context, filter models.ClientFilter) (int64, error) {
	return int64(len(r.clients)), nil
}

func (r *fakeClientRepo) Exists(ctx context.Context, filter models.ClientFilter) (bool, error) {
	return len(r.clients) > 0, nil
}

func (r *fakeClientRepo) ListActive(ctx context.Context) ([]*models.Client, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	return r.active(), nil
}

func (r *fakeClientRepo) ListActiveByIDs(ctx context.Context, ids []uint) ([]*models.Client, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	wanted := make(map[uint]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}
	result := make([]*models.Client, 0)
	for _, c := range r.active() {
		if wanted[c.ID] {
			result = append(result, c)
		}
	}
	return result, nil
}

func (r *fakeClientRepo) ListActiveByTypes(ctx context.Context, types []models.ClientType) ([]*models.Client, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	result := make([]*models.Client, 0)
	for _, c := range r.active() {
		for _, t := range types {
			if c.ClientType == t {
				result = append(result, c)
				break
			}
		}
	}
	return result, nil
}

func (r *fakeClientRepo) ListActiveByLocation(ctx context.Context, loc models.LocationFilter) ([]*models.Client, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	result := make([]*models.Client, 0)
	for _, c := range r.active() {
		if loc.City != nil && (c.City == nil || *c.City != *loc.City) {
			continue
		}
		if loc.State != nil && (c.State == nil || *c.State != *loc.State) {
			continue
		}
		if loc.PostalCode != nil && (c.PostalCode == nil || *c.PostalCode != *loc.PostalCode) {
			continue
		}
		result = append(result, c)
	}
	return result, nil
}

type fakeRecipientRepo struct {
	mu     sync.Mutex
	nextID uint
	saved  []*models.CampaignRecipient

	saveBatchErr error

	delivered   map[uint]float64
	opened      []uint
	clicked     []uint
	converted   map[uint]float64
	statusRows  []repository.StatusAggregate
	channelRows []repository.ChannelAggregate
	variantRows []repository.VariantAggregate
}

func newFakeRecipientRepo() *fakeRecipientRepo {
	return &fakeRecipientRepo{
		delivered: make(map[uint]float64),
		converted: make(map[uint]float64),
	}
}

func (r *fakeRecipientRepo) ByID(ctx context.Context, id uint) (*models.CampaignRecipient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range r.saved {
		if rec.ID == id {
			return rec, nil
		}
	}
	return nil, nil
}

func (r *fakeRecipientRepo) ByFilter(ctx context.Context, filter models.CampaignRecipientFilter, orderBy string, limit, offset int) ([]*models.CampaignRecipient, error) {
	return r.saved, nil
}

func (r *fakeRecipientRepo) Save(ctx context.Context, rec *models.CampaignRecipient) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	rec.ID = r.nextID
	r.saved = append(r.saved, rec)
	return nil
}

func (r *fakeRecipientRepo) SaveBatch(ctx context.Context, recs []*models.CampaignRecipient) error {
	if r.saveBatchErr != nil {
		return r.saveBatchErr
	}
	for _, rec := range recs {
		if err := r.Save(ctx, rec); err != nil {
			return err
		}
	}
	return nil
}

func (r *fakeRecipientRepo) Count(ctx context.Context, filter models.CampaignRecipientFilter) (int64, error) {
	return int64(len(r.saved)), nil
}

func (r *fakeRecipientRepo) Exists(ctx context.Context, filter models.CampaignRecipientFilter) (bool, error) {
	return len(r.saved) > 0, nil
}

func (r *fakeRecipientRepo) MarkDelivered(ctx context.Context, id uint, cost float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.delivered[id] = cost
	return nil
}

func (r *fakeRecipientRepo) MarkOpened(ctx context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.opened = append(r.opened, id)
	return nil
}

func (r *fakeRecipientRepo) RecordClick(ctx context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clicked = append(r.clicked, id)
	return nil
}

func (r *fakeRecipientRepo) RecordConversion(ctx context.Context, id uint, revenue float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.converted[id] = revenue
	return nil
}

func (r *fakeRecipientRepo) StatusBreakdown(ctx context.Context, campaignID uint) ([]repository.StatusAggregate, error) {
	return r.statusRows, nil
}

func (r *fakeRecipientRepo) ChannelBreakdown(ctx context.Context, campaignID uint) ([]repository.ChannelAggregate, error) {
	return r.channelRows, nil
}

func (r *fakeRecipientRepo) VariantBreakdown(ctx context.Context, campaignID uint) ([]repository.VariantAggregate, error) {
	return r.variantRows, nil
}

type fakeMessageRepo struct {
	mu     sync.Mutex
	nextID uint
	saved  []*models.OutboundMessage

	statusByID map[uint]models.OutboundMessageStatus
}

func newFakeMessageRepo() *fakeMessageRepo {
	return &fakeMessageRepo{statusByID: make(map[uint]models.OutboundMessageStatus)}
}

func (r *fakeMessageRepo) ByID(ctx context.Context, id uint) (*models.OutboundMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.saved {
		if m.ID == id {
			return m, nil
		}
	}
	return nil, nil
}

func (r *fakeMessageRepo) ByFilter(ctx context.Context, filter models.OutboundMessageFilter, orderBy string, limit, offset int) ([]*models.OutboundMessage, error) {
	return r.saved, nil
}

func (r *fakeMessageRepo) Save(ctx context.Context, m *models.OutboundMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	m.ID = r.nextID
	if m.Status == "" {
		m.Status = models.OutboundMessageStatusQueued
	}
	r.saved = append(r.saved, m)
	return nil
}

func (r *fakeMessageRepo) SaveBatch(ctx context.Context, ms []*models.OutboundMessage) error {
	for _, m := range ms {
		if err := r.Save(ctx, m); err != nil {
			return err
		}
	}
	return nil
}

func (r *fakeMessageRepo) Count(ctx context.Context, filter models.OutboundMessageFilter) (int64, error) {
	return int64(len(r.saved)), nil
}

func (r *fakeMessageRepo) Exists(ctx context.Context, filter models.OutboundMessageFilter) (bool, error) {
	return len(r.saved) > 0, nil
}

func (r *fakeMessageRepo) UpdateStatus(ctx context.Context, id uint, status models.OutboundMessageStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statusByID[id] = status
	for _, m := range r.saved {
		if m.ID == id {
			m.Status = status
		}
	}
	return nil
}

func (r *fakeMessageRepo) ListQueuedByCampaign(ctx context.Context, campaignID uint, limit int) ([]*models.OutboundMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]*models.OutboundMessage, 0, len(r.saved))
	for _, m := range r.saved {
		if m.CampaignID == campaignID && m.Status == models.OutboundMessageStatusQueued {
			result = append(result, m)
		}
	}
	return result, nil
}

type fakeAuditRepo struct {
	mu      sync.Mutex
	entries []*models.AuditLog
}

func newFakeAuditRepo() *fakeAuditRepo {
	return &fakeAuditRepo{}
}

func (r *fakeAuditRepo) ByID(ctx context.Context, id uint) (*models.AuditLog, error) {
	return nil, nil
}

func (r *fakeAuditRepo) ByFilter(ctx context.Context, filter models.AuditLogFilter, orderBy string, limit, offset int) ([]*models.AuditLog, error) {
	return r.entries, nil
}

func (r *fakeAuditRepo) Save(ctx context.Context, entry *models.AuditLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry.ID = uint(len(r.entries) + 1)
	r.entries = append(r.entries, entry)
	return nil
}

func (r *fakeAuditRepo) SaveBatch(ctx context.Context, entries []*models.AuditLog) error {
	for _, e := range entries {
		if err := r.Save(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

func (r *fakeAuditRepo) Count(ctx context.Context, filter models.AuditLogFilter) (int64, error) {
	return int64(len(r.entries)), nil
}

func (r *fakeAuditRepo) Exists(ctx context.Context, filter models.AuditLogFilter) (bool, error) {
	return len(r.entries) > 0, nil
}

func (r *fakeAuditRepo) ListByCampaign(ctx context.Context, campaignID uint, limit, offset int) ([]*models.AuditLog, error) {
	result := make([]*models.AuditLog, 0)
	for _, e := range r.entries {
		if e.CampaignID != nil && *e.CampaignID == campaignID {
			result = append(result, e)
		}
	}
	return result, nil
}

func (r *fakeAuditRepo) ListFailedActions(ctx context.Context, limit, offset int) ([]*models.AuditLog, error) {
	result := make([]*models.AuditLog, 0)
	for _, e := range r.entries {
		if e.IsFailed() {
			result = append(result, e)
		}
	}
	return result, nil
}

func (r *fakeAuditRepo) actions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]string, 0, len(r.entries))
	for _, e := range r.entries {
		result = append(result, e.Action)
	}
	return result
}

var (
	_ repository.CampaignRepository          = (*fakeCampaignRepo)(nil)
	_ repository.ClientRepository            = (*fakeClientRepo)(nil)
	_ repository.CampaignRecipientRepository = (*fakeRecipientRepo)(nil)
	_ repository.OutboundMessageRepository   = (*fakeMessageRepo)(nil)
	_ repository.AuditLogRepository          = (*fakeAuditRepo)(nil)
)

func strPtr(s string) *string { return &s }
