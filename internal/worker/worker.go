// Package worker runs the deployment platform's background jobs: a
// build worker that dequeues queued deployments, a webhook delivery
// worker with exponential backoff, and a failed-job sweeper that
// requeues deployments stuck in "building" past a deadline. Each
// worker owns one goroutine with a stop channel.
package worker

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/flarenet/platform/internal/events"
	"github.com/flarenet/platform/internal/logger"
	"github.com/flarenet/platform/internal/store"
)

// BuildWorker polls the project store for queued deployments and
// advances them through building to ready or failed, publishing a
// lifecycle event at each transition.
type BuildWorker struct {
	store     *store.Store
	publisher *events.Publisher
	interval  time.Duration
	build     func(ctx context.Context, d store.Deployment) error
	stopChan  chan struct{}
}

func NewBuildWorker(s *store.Store, publisher *events.Publisher, interval time.Duration, build func(ctx context.Context, d store.Deployment) error) *BuildWorker {
	return &BuildWorker{
		store:     s,
		publisher: publisher,
		interval:  interval,
		build:     build,
		stopChan:  make(chan struct{}),
	}
}

func (w *BuildWorker) Start() {
	go func() {
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				w.runOnce(context.Background())
			case <-w.stopChan:
				return
			}
		}
	}()
}

func (w *BuildWorker) Stop() {
	close(w.stopChan)
}

// runOnce pulls a batch of queued deployments and runs each through
// the build lifecycle. Deployments within the batch are processed
// serially: a build worker's bottleneck is the build step itself, not
// this poll, so there's no benefit fanning them out here.
func (w *BuildWorker) runOnce(ctx context.Context) {
	queued, err := w.store.ListQueuedDeployments(ctx, 10)
	if err != nil {
		logger.Error("build worker failed to list queued deployments", zap.Error(err))
		return
	}
	for _, d := range queued {
		w.ProcessDeployment(ctx, d)
	}
}

// ProcessDeployment runs the build step for one deployment and updates
// its status, publishing the resulting transition.
func (w *BuildWorker) ProcessDeployment(ctx context.Context, d store.Deployment) {
	if err := w.store.UpdateDeploymentStatus(ctx, d.ID, store.DeploymentBuilding, time.Now()); err != nil {
		logger.Error("failed to mark deployment building", zap.String("deployment_id", d.ID), zap.Error(err))
		return
	}
	w.publish(ctx, d.ID, d.ProjectID, string(store.DeploymentBuilding))

	status := store.DeploymentReady
	if err := w.build(ctx, d); err != nil {
		logger.Warn("deployment build failed", zap.String("deployment_id", d.ID), zap.Error(err))
		status = store.DeploymentFailed
	}

	if err := w.store.UpdateDeploymentStatus(ctx, d.ID, status, time.Now()); err != nil {
		logger.Error("failed to record deployment outcome", zap.String("deployment_id", d.ID), zap.Error(err))
		return
	}
	w.publish(ctx, d.ID, d.ProjectID, string(status))
	w.enqueueWebhook(ctx, d)
}

// enqueueWebhook creates a pending webhook job for the deployment's
// project, if that project has a webhook URL configured. Delivery
// itself is the webhook worker's job, polling this row.
func (w *BuildWorker) enqueueWebhook(ctx context.Context, d store.Deployment) {
	project, err := w.store.GetProject(ctx, d.ProjectID)
	if err != nil {
		logger.Error("failed to load project for webhook dispatch", zap.String("deployment_id", d.ID), zap.Error(err))
		return
	}
	if project.WebhookURL == "" {
		return
	}

	now := time.Now()
	job := store.WebhookJob{
		ID:            uuid.NewString(),
		DeploymentID:  d.ID,
		URL:           project.WebhookURL,
		Status:        store.WebhookJobPending,
		NextAttemptAt: now,
		CreatedAt:     now,
	}
	if _, err := w.store.CreateWebhookJob(ctx, job); err != nil {
		logger.Error("failed to create webhook job", zap.String("deployment_id", d.ID), zap.Error(err))
	}
}

func (w *BuildWorker) publish(ctx context.Context, deploymentID, projectID, status string) {
	if w.publisher == nil {
		return
	}
	event := events.DeploymentEvent{
		DeploymentID: deploymentID,
		ProjectID:    projectID,
		Status:       status,
		OccurredAt:   time.Now(),
	}
	if err := w.publisher.Publish(ctx, "deployments."+deploymentID+".status", event); err != nil {
		logger.Warn("failed to publish deployment event", zap.String("deployment_id", deploymentID), zap.Error(err))
	}
}

// WebhookWorker polls the store for due webhook jobs and retries failed
// deliveries with exponential backoff, capped at maxAttempts, the same
// poll-and-advance shape BuildWorker uses for deployments.
type WebhookWorker struct {
	store       *store.Store
	interval    time.Duration
	deliver     func(ctx context.Context, job store.WebhookJob) error
	maxAttempts int
	baseBackoff time.Duration
	stopChan    chan struct{}
}

func NewWebhookWorker(s *store.Store, interval time.Duration, deliver func(ctx context.Context, job store.WebhookJob) error, maxAttempts int, baseBackoff time.Duration) *WebhookWorker {
	return &WebhookWorker{
		store:       s,
		interval:    interval,
		deliver:     deliver,
		maxAttempts: maxAttempts,
		baseBackoff: baseBackoff,
		stopChan:    make(chan struct{}),
	}
}

func (w *WebhookWorker) Start() {
	go func() {
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				w.runOnce(context.Background())
			case <-w.stopChan:
				return
			}
		}
	}()
}

func (w *WebhookWorker) Stop() {
	close(w.stopChan)
}

func (w *WebhookWorker) runOnce(ctx context.Context) {
	due, err := w.store.DueWebhookJobs(ctx, time.Now(), 20)
	if err != nil {
		logger.Error("webhook worker failed to list due jobs", zap.Error(err))
		return
	}
	for _, job := range due {
		w.attempt(ctx, job)
	}
}

func (w *WebhookWorker) attempt(ctx context.Context, job store.WebhookJob) {
	deliverCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	now := time.Now()
	if err := w.deliver(deliverCtx, job); err != nil {
		attempt := job.Attempt + 1
		if attempt >= w.maxAttempts {
			logger.Error("webhook delivery exhausted retries", zap.String("url", job.URL), zap.Int("attempts", attempt))
			if failErr := w.store.FailWebhookJob(ctx, job.ID, err.Error(), now); failErr != nil {
				logger.Error("failed to mark webhook job failed", zap.String("job_id", job.ID), zap.Error(failErr))
			}
			return
		}
		backoff := w.baseBackoff * time.Duration(1<<uint(attempt))
		if retryErr := w.store.RetryWebhookJob(ctx, job.ID, attempt, now.Add(backoff), err.Error(), now); retryErr != nil {
			logger.Error("failed to reschedule webhook job", zap.String("job_id", job.ID), zap.Error(retryErr))
		}
		return
	}

	if err := w.store.MarkWebhookJobDelivered(ctx, job.ID, now); err != nil {
		logger.Error("failed to mark webhook job delivered", zap.String("job_id", job.ID), zap.Error(err))
	}
}

// Sweeper requeues deployments stuck in "building" past deadline back
// to "queued" so the build worker retries them.
type Sweeper struct {
	store    *store.Store
	deadline time.Duration
	interval time.Duration
	stopChan chan struct{}
}

func NewSweeper(s *store.Store, deadline, interval time.Duration) *Sweeper {
	return &Sweeper{store: s, deadline: deadline, interval: interval, stopChan: make(chan struct{})}
}

func (s *Sweeper) Start() {
	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.sweep()
			case <-s.stopChan:
				return
			}
		}
	}()
}

func (s *Sweeper) Stop() {
	close(s.stopChan)
}

func (s *Sweeper) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	stuck, err := s.store.DeploymentsStuckSince(ctx, time.Now().Add(-s.deadline))
	if err != nil {
		logger.Error("sweeper failed to list stuck deployments", zap.Error(err))
		return
	}

	for _, d := range stuck {
		if err := s.store.UpdateDeploymentStatus(ctx, d.ID, store.DeploymentQueued, time.Now()); err != nil {
			logger.Error("sweeper failed to requeue deployment", zap.String("deployment_id", d.ID), zap.Error(err))
		}
	}
}
