// Package scheduler runs the background processing loops for campaigns
package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/velora/backoffice/app/middleware"
	businessflow "github.com/velora/backoffice/business_flow"
)

// CampaignProcessor consumes campaign IDs from a bounded queue and runs one
// broadcast processing pass per campaign on a fixed pool of workers.
type CampaignProcessor struct {
	flow    businessflow.MaterializeFlow
	logger  *log.Logger
	queue   chan uint
	workers int
}

func NewCampaignProcessor(flow businessflow.MaterializeFlow, logger *log.Logger, workers, queueSize int) *CampaignProcessor {
	if workers <= 0 {
		workers = 4
	}
	if queueSize <= 0 {
		queueSize = 256
	}
	if logger == nil {
		logger = log.Default()
	}
	return &CampaignProcessor{
		flow:    flow,
		logger:  logger,
		queue:   make(chan uint, queueSize),
		workers: workers,
	}
}

// Start launches the worker pool. Workers exit when ctx is cancelled.
func (p *CampaignProcessor) Start(ctx context.Context) {
	for i := 0; i < p.workers; i++ {
		go p.worker(ctx, i)
	}
	p.logger.Printf("processor: started %d workers queue_size=%d", p.workers, cap(p.queue))
}

// Enqueue offers a campaign ID to the pool without blocking.
// Returns false when the queue is full; the next sweep picks the campaign up again.
func (p *CampaignProcessor) Enqueue(campaignID uint) bool {
	select {
	case p.queue <- campaignID:
		return true
	default:
		return false
	}
}

func (p *CampaignProcessor) worker(ctx context.Context, id int) {
	for {
		select {
		case <-ctx.Done():
			return
		case campaignID := <-p.queue:
			p.process(ctx, id, campaignID)
		}
	}
}

func (p *CampaignProcessor) process(ctx context.Context, workerID int, campaignID uint) {
	procCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	start := time.Now()
	resp, err := p.flow.ProcessCampaign(procCtx, campaignID)
	middleware.CampaignProcessingDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		middleware.CampaignsProcessedTotal.WithLabelValues("failed").Inc()
		p.logger.Printf("processor: worker=%d campaign id=%d failed: %v", workerID, campaignID, err)
		return
	}
	if resp.AlreadyClaimed {
		middleware.CampaignsProcessedTotal.WithLabelValues("already_claimed").Inc()
		p.logger.Printf("processor: worker=%d campaign id=%d already claimed status=%s", workerID, campaignID, resp.Status)
		return
	}

	middleware.CampaignsProcessedTotal.WithLabelValues("sent").Inc()
	middleware.RecipientsMaterializedTotal.Add(float64(resp.TotalRecipients))
	p.logger.Printf("processor: worker=%d campaign id=%d processed recipients=%d in %s", workerID, campaignID, resp.TotalRecipients, time.Since(start))
}
