package scheduler

import (
	"context"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	businessflow "github.com/velora/backoffice/business_flow"
	"github.com/velora/backoffice/config"
	"github.com/velora/backoffice/repository"
	"github.com/velora/backoffice/utils"
	"gopkg.in/natefinch/lumberjack.v2"
)

// TriggerScanner periodically finds campaigns that are due for processing and
// feeds them to the campaign processor. Due means approved with no schedule,
// or scheduled with a schedule time in the past.
type TriggerScanner struct {
	campaignRepo repository.CampaignRepository
	flow         businessflow.MaterializeFlow
	processor    *CampaignProcessor
	logger       *log.Logger
	interval     time.Duration
	batchSize    int
}

func NewTriggerScanner(
	campaignRepo repository.CampaignRepository,
	flow businessflow.MaterializeFlow,
	processor *CampaignProcessor,
	logger *log.Logger,
	cfg config.SchedulerConfig,
) *TriggerScanner {
	interval := cfg.SweepInterval
	if interval <= 0 {
		interval = time.Minute
	}
	batchSize := cfg.SweepBatchSize
	if batchSize <= 0 {
		batchSize = 100
	}
	if logger == nil {
		logger = log.Default()
	}

	return &TriggerScanner{
		campaignRepo: campaignRepo,
		flow:         flow,
		processor:    processor,
		logger:       logger,
		interval:     interval,
		batchSize:    batchSize,
	}
}

// NewSchedulerLogger builds a logger that writes to both stdout and a rotating
// file. The scanner and the processor share one instance.
func NewSchedulerLogger(cfg config.LoggingConfig) *log.Logger {
	dir := cfg.SchedulerLogDir
	if dir == "" {
		dir = "data"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		logger := log.Default()
		logger.Printf("scheduler: failed to create log directory %s: %v", dir, err)
		return logger
	}

	rotating := &lumberjack.Logger{
		Filename:   filepath.Join(dir, "scheduler.log"),
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
		Compress:   cfg.Compress,
	}
	mw := io.MultiWriter(os.Stdout, rotating)
	// log.Logger is goroutine-safe; include timestamps with microseconds and UTC
	return log.New(mw, "scheduler ", log.LstdFlags|log.Lmicroseconds|log.LUTC)
}

// Start launches the sweep loop in a background goroutine and returns a stop function
func (s *TriggerScanner) Start(parent context.Context) func() {
	ctx, cancel := context.WithCancel(parent)

	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.sweep(ctx)

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.sweep(ctx)
			}
		}
	}()

	return cancel
}

// sweep enqueues every due campaign. A full queue is not an error; the
// campaign stays approved or scheduled and the next sweep finds it again.
func (s *TriggerScanner) sweep(ctx context.Context) {
	now := utils.UTCNow()
	due, err := s.campaignRepo.ListDueForProcessing(ctx, now, s.batchSize)
	if err != nil {
		s.logger.Printf("scheduler: list due campaigns failed: %v", err)
		return
	}
	if len(due) == 0 {
		return
	}
	s.logger.Printf("scheduler: %d campaigns due for processing", len(due))

	for _, campaign := range due {
		if !s.processor.Enqueue(campaign.ID) {
			s.logger.Printf("scheduler: queue full, campaign id=%d deferred to next sweep", campaign.ID)
			return
		}
	}
}

// FireTrigger processes every automated campaign bound to the trigger type.
// Called by domain events such as policy renewals or client birthdays.
func (s *TriggerScanner) FireTrigger(ctx context.Context, triggerType string) {
	responses, err := s.flow.HandleTrigger(ctx, triggerType)
	if err != nil {
		s.logger.Printf("scheduler: trigger %q failed: %v", triggerType, err)
		return
	}
	if len(responses) > 0 {
		s.logger.Printf("scheduler: trigger %q processed %d campaigns", triggerType, len(responses))
	}
}
