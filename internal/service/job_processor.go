// internal/service/job_processor.go
package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"printer-agent/internal/api"
	"printer-agent/internal/config"
	"printer-agent/internal/model"
	"printer-agent/internal/render"
	"printer-agent/internal/store"
	"printer-agent/internal/utils"
)

// cleanupInterval is how often old ledger rows are evicted
const cleanupInterval = 24 * time.Hour

// JobProcessor polls the backend for print jobs, renders them and
// drives the printers. It also flushes outcome reports that failed to
// reach the backend and keeps the ledger trimmed.
type JobProcessor struct {
	api      *api.Client
	store    *store.Store
	renderer *render.Renderer
	printers *PrinterService
	config   *config.Config
	events   EventPublisher
	logger   *utils.ServiceLogger
}

// NewJobProcessor creates a new job processor instance
func NewJobProcessor(
	apiClient *api.Client,
	jobStore *store.Store,
	renderer *render.Renderer,
	printers *PrinterService,
	cfg *config.Config,
	events EventPublisher,
	logger *zap.Logger,
) *JobProcessor {
	return &JobProcessor{
		api:      apiClient,
		store:    jobStore,
		renderer: renderer,
		printers: printers,
		config:   cfg,
		events:   events,
		logger:   utils.NewServiceLogger(logger, "job-processor"),
	}
}

// Run is the main loop. It polls on the configured interval, flushes
// unreported outcomes on the sync interval and cleans the ledger
// daily, until the context is cancelled.
func (jp *JobProcessor) Run(ctx context.Context) {
	jp.logger.Info("Job processor started",
		zap.Duration("poll_interval", jp.config.Polling.Interval),
		zap.Int("batch_size", jp.config.Polling.BatchSize),
	)

	if _, err := jp.store.CleanupOlderThan(jp.config.Store.RetentionDays); err != nil {
		jp.logger.Warn("Initial ledger cleanup failed", zap.Error(err))
	}

	pollTicker := time.NewTicker(jp.config.Polling.Interval)
	defer pollTicker.Stop()
	reportTicker := time.NewTicker(jp.config.Polling.SyncInterval)
	defer reportTicker.Stop()
	cleanupTicker := time.NewTicker(cleanupInterval)
	defer cleanupTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			jp.logger.Info("Job processor stopped")
			return
		case <-pollTicker.C:
			jp.poll(ctx)
		case <-reportTicker.C:
			jp.flushUnreported(ctx)
		case <-cleanupTicker.C:
			if _, err := jp.store.CleanupOlderThan(jp.config.Store.RetentionDays); err != nil {
				jp.logger.Warn("Ledger cleanup failed", zap.Error(err))
			}
		}
	}
}

// poll claims and processes up to a batch of jobs. Without a printer
// the tick is skipped entirely; claiming a job we cannot print would
// only bounce it through the retry queue.
func (jp *JobProcessor) poll(ctx context.Context) {
	if !jp.printers.HasPrinter() {
		jp.logger.Debug("No printer attached, skipping poll")
		return
	}

	for i := 0; i < jp.config.Polling.BatchSize; i++ {
		select {
		case <-ctx.Done():
			return
		default:
		}

		job, err := jp.api.ClaimJob(ctx)
		if err != nil {
			// Network blips are routine on a shop floor
			jp.logger.Warn("Job claim failed", zap.Error(err))
			return
		}
		if job == nil {
			return
		}

		jp.processJob(ctx, job)
	}
}

// processJob prints one claimed job and reports the outcome
func (jp *JobProcessor) processJob(ctx context.Context, job *model.PrintJob) {
	logger := jp.logger.With(
		zap.String("job_guid", job.JobGUID),
		zap.String("order_guid", job.OrderGUID),
	)

	processed, err := jp.store.Status(job.JobGUID)
	if err != nil {
		logger.Warn("Ledger lookup failed, processing anyway", zap.Error(err))
	}
	if processed != nil {
		jp.resendOutcome(ctx, processed)
		logger.Info("Job already processed, skipping",
			zap.String("status", string(processed.Status)))
		jp.publishJobEvent(model.EventJobSkipped, "INFO", job, 0, nil, nil)
		return
	}

	logger.Info("Processing print job", zap.Int("template_version", job.TemplateVersion))

	startTime := time.Now()
	payload := jp.renderer.Render(job.TemplateContent, job.PrintData)
	result, printErr := jp.printers.Print(ctx, "", payload)
	duration := time.Since(startTime)

	if printErr != nil {
		jp.failJob(ctx, job, printErr.Error(), duration)
		return
	}

	reported := jp.api.CompleteJob(ctx, job.JobGUID)
	if err := jp.store.MarkCompleted(job.JobGUID, reported); err != nil {
		logger.Error("Failed to record completed job", zap.Error(err))
	}

	logger.Info("Job printed",
		zap.Int("bytes_written", result.BytesWritten),
		zap.Duration("duration", duration),
		zap.Bool("reported", reported),
	)
	jp.publishJobEvent(model.EventJobCompleted, "INFO", job, duration, nil, nil)
}

// failJob reports a failed print to the backend and the ledger
func (jp *JobProcessor) failJob(ctx context.Context, job *model.PrintJob, message string, duration time.Duration) {
	logger := jp.logger.With(zap.String("job_guid", job.JobGUID))

	var willRetry *bool
	reported := false
	if failResp, err := jp.api.FailJob(ctx, job.JobGUID, message); err != nil {
		logger.Warn("Failed to report job failure", zap.Error(err))
	} else {
		reported = true
		willRetry = &failResp.WillRetry
		logger.Info("Job failure reported", zap.Bool("will_retry", failResp.WillRetry))
	}

	if err := jp.store.MarkFailed(job.JobGUID, message, reported); err != nil {
		logger.Error("Failed to record failed job", zap.Error(err))
	}

	logger.Error("Job failed", zap.String("error", message))
	jp.publishJobEvent(model.EventJobFailed, "ERROR", job, duration, &message, willRetry)
}

// resendOutcome re-reports a processed job whose outcome never made it
// to the backend. Completion is idempotent there, so a duplicate
// report is harmless.
func (jp *JobProcessor) resendOutcome(ctx context.Context, processed *model.ProcessedJob) {
	if processed.Reported {
		return
	}

	switch processed.Status {
	case model.JobStatusCompleted:
		if !jp.api.CompleteJob(ctx, processed.JobGUID) {
			return
		}
	case model.JobStatusFailed:
		message := "print failed"
		if processed.Error != nil {
			message = *processed.Error
		}
		if _, err := jp.api.FailJob(ctx, processed.JobGUID, message); err != nil {
			return
		}
	default:
		return
	}

	if err := jp.store.MarkReported(processed.JobGUID); err != nil {
		jp.logger.Warn("Failed to mark job reported",
			zap.String("job_guid", processed.JobGUID),
			zap.Error(err))
	}
}

// flushUnreported retries outcome reports for jobs processed while the
// backend was unreachable.
func (jp *JobProcessor) flushUnreported(ctx context.Context) {
	jobs, err := jp.store.Unreported(jp.config.Polling.BatchSize)
	if err != nil {
		jp.logger.Warn("Failed to load unreported jobs", zap.Error(err))
		return
	}
	if len(jobs) == 0 {
		return
	}

	jp.logger.Info("Flushing unreported job outcomes", zap.Int("count", len(jobs)))
	for i := range jobs {
		select {
		case <-ctx.Done():
			return
		default:
		}
		jp.resendOutcome(ctx, &jobs[i])
	}
}

// publishJobEvent sends a job event with its order summary to the bus
func (jp *JobProcessor) publishJobEvent(eventType model.EventType, severity string, job *model.PrintJob, duration time.Duration, errorMessage *string, willRetry *bool) {
	if jp.events == nil {
		return
	}

	summary := model.SummarizeOrder(job.PrintData)
	printer := ""
	if target := jp.printers.DefaultPrinter(); target != nil {
		printer = target.DeviceAddress
	}

	data := model.JSONObject{
		"job_guid":    job.JobGUID,
		"order_guid":  job.OrderGUID,
		"printer":     printer,
		"duration_ms": duration.Milliseconds(),
		"item_count":  summary.ItemCount,
		"order_total": summary.Total.StringFixed(2),
	}
	if errorMessage != nil {
		data["error_message"] = *errorMessage
	}
	if willRetry != nil {
		data["will_retry"] = *willRetry
	}

	jp.events.Publish(model.NewAgentEvent(eventType, "job-processor", severity, data))
}
