// Package store holds the SQL project, deployment, and webhook job
// repositories. Projects and deployments are relational: a project has
// many deployments, deployments have a small fixed set of states, and
// listing deployments for a project is the hot read path, so Postgres
// backs this instead of the document store used for users. Webhook
// jobs persist their retry state here too, so a delivery survives a
// worker restart instead of living only in an in-process queue.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type DeploymentStatus string

const (
	DeploymentQueued   DeploymentStatus = "queued"
	DeploymentBuilding DeploymentStatus = "building"
	DeploymentReady    DeploymentStatus = "ready"
	DeploymentFailed   DeploymentStatus = "failed"
	DeploymentCanceled DeploymentStatus = "canceled"
)

// terminalDeploymentStatus reports whether status is one a deployment
// does not leave on its own; FinishedAt is stamped when a deployment
// enters one of these.
func terminalDeploymentStatus(status DeploymentStatus) bool {
	switch status {
	case DeploymentReady, DeploymentFailed, DeploymentCanceled:
		return true
	default:
		return false
	}
}

type Project struct {
	ID           string    `json:"id"`
	OwnerID      string    `json:"ownerId"`
	Slug         string    `json:"slug"`
	RepoFullName string    `json:"repoFullName"`
	WebhookURL   string    `json:"webhookUrl,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

type Deployment struct {
	ID         string           `json:"id"`
	ProjectID  string           `json:"projectId"`
	Status     DeploymentStatus `json:"status"`
	CommitSHA  string           `json:"commitSha"`
	CreatedAt  time.Time        `json:"createdAt"`
	UpdatedAt  time.Time        `json:"updatedAt"`
	FinishedAt *time.Time       `json:"finishedAt,omitempty"`
}

type WebhookJobStatus string

const (
	WebhookJobPending   WebhookJobStatus = "pending"
	WebhookJobDelivered WebhookJobStatus = "delivered"
	WebhookJobFailed    WebhookJobStatus = "failed"
)

// WebhookJob is the persisted retry state for one outbound webhook
// delivery, so a delivery attempt survives a worker restart.
type WebhookJob struct {
	ID            string           `json:"id"`
	DeploymentID  string           `json:"deploymentId"`
	URL           string           `json:"url"`
	Status        WebhookJobStatus `json:"status"`
	Attempt       int              `json:"attempt"`
	NextAttemptAt time.Time        `json:"nextAttemptAt"`
	LastError     string           `json:"lastError,omitempty"`
	CreatedAt     time.Time        `json:"createdAt"`
	UpdatedAt     time.Time        `json:"updatedAt"`
}

var ErrNotFound = errors.New("store: not found")

// Store wraps a Postgres pool with the project/deployment/webhook job
// repository methods the projects, deployments, and worker packages
// need. No ORM: every query is hand-written SQL, scanned with
// pgx.CollectRows.
type Store struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS projects (
	id TEXT PRIMARY KEY,
	owner_id TEXT NOT NULL,
	slug TEXT NOT NULL,
	repo_full_name TEXT NOT NULL,
	webhook_url TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS deployments (
	id TEXT PRIMARY KEY,
	project_id TEXT NOT NULL REFERENCES projects(id),
	status TEXT NOT NULL,
	commit_sha TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL,
	finished_at TIMESTAMPTZ
);
CREATE TABLE IF NOT EXISTS webhook_jobs (
	id TEXT PRIMARY KEY,
	deployment_id TEXT NOT NULL REFERENCES deployments(id),
	url TEXT NOT NULL,
	status TEXT NOT NULL,
	attempt INT NOT NULL DEFAULT 0,
	next_attempt_at TIMESTAMPTZ NOT NULL,
	last_error TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);`

// EnsureSchema creates the project/deployment/webhook_jobs tables if
// they don't already exist. No migration library is wired in: these
// three tables are the entire SQL schema, so a fixed idempotent DDL
// statement at startup plays the same role the Mongo side's
// EnsureIndexes calls do for the document store.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, schemaSQL)
	return err
}

func (s *Store) CreateProject(ctx context.Context, p Project) (Project, error) {
	const q = `
		INSERT INTO projects (id, owner_id, slug, repo_full_name, webhook_url, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, owner_id, slug, repo_full_name, webhook_url, created_at`

	rows, err := s.pool.Query(ctx, q, p.ID, p.OwnerID, p.Slug, p.RepoFullName, p.WebhookURL, p.CreatedAt)
	if err != nil {
		return Project{}, err
	}
	return pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[Project])
}

func (s *Store) GetProject(ctx context.Context, id string) (Project, error) {
	const q = `
		SELECT id, owner_id, slug, repo_full_name, webhook_url, created_at
		FROM projects WHERE id = $1`

	rows, err := s.pool.Query(ctx, q, id)
	if err != nil {
		return Project{}, err
	}
	p, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[Project])
	if errors.Is(err, pgx.ErrNoRows) {
		return Project{}, ErrNotFound
	}
	return p, err
}

func (s *Store) CreateDeployment(ctx context.Context, d Deployment) (Deployment, error) {
	const q = `
		INSERT INTO deployments (id, project_id, status, commit_sha, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
		RETURNING id, project_id, status, commit_sha, created_at, updated_at, finished_at`

	rows, err := s.pool.Query(ctx, q, d.ID, d.ProjectID, d.Status, d.CommitSHA, d.CreatedAt)
	if err != nil {
		return Deployment{}, err
	}
	return pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[Deployment])
}

// UpdateDeploymentStatus transitions a deployment to status. Reaching
// a terminal status (ready, failed, canceled) also stamps FinishedAt;
// queued/building transitions leave it null.
func (s *Store) UpdateDeploymentStatus(ctx context.Context, id string, status DeploymentStatus, now time.Time) error {
	var q string
	var tag pgx.CommandTag
	var err error

	if terminalDeploymentStatus(status) {
		q = `UPDATE deployments SET status = $2, updated_at = $3, finished_at = $3 WHERE id = $1`
	} else {
		q = `UPDATE deployments SET status = $2, updated_at = $3 WHERE id = $1`
	}
	tag, err = s.pool.Exec(ctx, q, id, status, now)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// CancelDeployment moves a deployment to canceled, but only from
// queued or building — a deployment that already reached a terminal
// status cannot be canceled.
func (s *Store) CancelDeployment(ctx context.Context, id string, now time.Time) error {
	const q = `
		UPDATE deployments SET status = $2, updated_at = $3, finished_at = $3
		WHERE id = $1 AND status IN ($4, $5)`

	tag, err := s.pool.Exec(ctx, q, id, DeploymentCanceled, now, DeploymentQueued, DeploymentBuilding)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) ListDeploymentsForProject(ctx context.Context, projectID string) ([]Deployment, error) {
	const q = `
		SELECT id, project_id, status, commit_sha, created_at, updated_at, finished_at
		FROM deployments WHERE project_id = $1 ORDER BY created_at DESC`

	rows, err := s.pool.Query(ctx, q, projectID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByName[Deployment])
}

func (s *Store) GetDeployment(ctx context.Context, id string) (Deployment, error) {
	const q = `
		SELECT id, project_id, status, commit_sha, created_at, updated_at, finished_at
		FROM deployments WHERE id = $1`

	rows, err := s.pool.Query(ctx, q, id)
	if err != nil {
		return Deployment{}, err
	}
	d, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[Deployment])
	if errors.Is(err, pgx.ErrNoRows) {
		return Deployment{}, ErrNotFound
	}
	return d, err
}

// ListQueuedDeployments returns deployments waiting to be built, oldest
// first, the build worker's poll query.
func (s *Store) ListQueuedDeployments(ctx context.Context, limit int) ([]Deployment, error) {
	const q = `
		SELECT id, project_id, status, commit_sha, created_at, updated_at, finished_at
		FROM deployments WHERE status = $1 ORDER BY created_at ASC LIMIT $2`

	rows, err := s.pool.Query(ctx, q, DeploymentQueued, limit)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByName[Deployment])
}

// DeploymentsStuckSince returns deployments still building past deadline,
// the failed-job sweeper's query.
func (s *Store) DeploymentsStuckSince(ctx context.Context, deadline time.Time) ([]Deployment, error) {
	const q = `
		SELECT id, project_id, status, commit_sha, created_at, updated_at, finished_at
		FROM deployments WHERE status = $1 AND updated_at < $2`

	rows, err := s.pool.Query(ctx, q, DeploymentBuilding, deadline)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByName[Deployment])
}

// CreateWebhookJob persists a pending delivery attempt for a
// deployment's project webhook.
func (s *Store) CreateWebhookJob(ctx context.Context, j WebhookJob) (WebhookJob, error) {
	const q = `
		INSERT INTO webhook_jobs (id, deployment_id, url, status, attempt, next_attempt_at, last_error, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
		RETURNING id, deployment_id, url, status, attempt, next_attempt_at, last_error, created_at, updated_at`

	rows, err := s.pool.Query(ctx, q, j.ID, j.DeploymentID, j.URL, j.Status, j.Attempt, j.NextAttemptAt, j.LastError, j.CreatedAt)
	if err != nil {
		return WebhookJob{}, err
	}
	return pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[WebhookJob])
}

// DueWebhookJobs returns pending jobs whose next attempt is due,
// oldest first, the webhook worker's poll query.
func (s *Store) DueWebhookJobs(ctx context.Context, before time.Time, limit int) ([]WebhookJob, error) {
	const q = `
		SELECT id, deployment_id, url, status, attempt, next_attempt_at, last_error, created_at, updated_at
		FROM webhook_jobs WHERE status = $1 AND next_attempt_at <= $2
		ORDER BY next_attempt_at ASC LIMIT $3`

	rows, err := s.pool.Query(ctx, q, WebhookJobPending, before, limit)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByName[WebhookJob])
}

// MarkWebhookJobDelivered records a successful delivery.
func (s *Store) MarkWebhookJobDelivered(ctx context.Context, id string, now time.Time) error {
	const q = `UPDATE webhook_jobs SET status = $2, updated_at = $3 WHERE id = $1`
	_, err := s.pool.Exec(ctx, q, id, WebhookJobDelivered, now)
	return err
}

// RetryWebhookJob records a failed attempt and schedules the next one.
func (s *Store) RetryWebhookJob(ctx context.Context, id string, attempt int, nextAttemptAt time.Time, lastError string, now time.Time) error {
	const q = `
		UPDATE webhook_jobs SET attempt = $2, next_attempt_at = $3, last_error = $4, updated_at = $5
		WHERE id = $1`
	_, err := s.pool.Exec(ctx, q, id, attempt, nextAttemptAt, lastError, now)
	return err
}

// FailWebhookJob marks a job permanently failed after it exhausts its
// retry budget; this is the FailedJob terminal state.
func (s *Store) FailWebhookJob(ctx context.Context, id string, lastError string, now time.Time) error {
	const q = `UPDATE webhook_jobs SET status = $2, last_error = $3, updated_at = $4 WHERE id = $1`
	_, err := s.pool.Exec(ctx, q, id, WebhookJobFailed, lastError, now)
	return err
}
