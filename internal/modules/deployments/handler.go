// Package deployments implements deployment creation against a
// project, listing, and log retrieval from the analytics log reader.
package deployments

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/flarenet/platform/internal/analytics"
	"github.com/flarenet/platform/internal/constants"
	"github.com/flarenet/platform/internal/events"
	"github.com/flarenet/platform/internal/httputil"
	"github.com/flarenet/platform/internal/store"
)

type CreateRequest struct {
	CommitSHA string `json:"commitSha" validate:"required"`
}

type Handler struct {
	store     *store.Store
	logs      analytics.LogReader
	publisher *events.Publisher
}

func NewHandler(s *store.Store, logs analytics.LogReader, publisher *events.Publisher) *Handler {
	return &Handler{store: s, logs: logs, publisher: publisher}
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	projectID := r.PathValue("id")

	if _, err := h.store.GetProject(ctx, projectID); err != nil {
		if err == store.ErrNotFound {
			httputil.WriteAPIError(w, r, constants.ErrProjectNotFound)
			return
		}
		httputil.WriteAPIError(w, r, constants.ErrFailedToCheckProject)
		return
	}

	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteAPIError(w, r, constants.ErrInvalidRequestBody.WithMessage("JSON decode error: "+err.Error()))
		return
	}

	now := time.Now().UTC()
	deployment, err := h.store.CreateDeployment(ctx, store.Deployment{
		ID:        uuid.New().String(),
		ProjectID: projectID,
		Status:    store.DeploymentQueued,
		CommitSHA: req.CommitSHA,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		httputil.WriteAPIError(w, r, constants.ErrFailedToCreateDeployment)
		return
	}

	if h.publisher != nil {
		_ = h.publisher.Publish(ctx, "deployments."+deployment.ID+".status", events.DeploymentEvent{
			DeploymentID: deployment.ID,
			ProjectID:    projectID,
			Status:       string(store.DeploymentQueued),
			OccurredAt:   now,
		})
	}

	httputil.WriteAPISuccess(w, r, constants.SuccessDeploymentCreated, deployment)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	projectID := r.PathValue("id")

	list, err := h.store.ListDeploymentsForProject(ctx, projectID)
	if err != nil {
		httputil.WriteAPIError(w, r, constants.ErrFailedToListDeployments)
		return
	}

	httputil.WriteAPISuccess(w, r, constants.SuccessDeploymentFound, list)
}

// Cancel moves a queued or building deployment to canceled. A
// deployment that already reached a terminal status cannot be
// canceled; GetDeployment runs first so that case reports 409 instead
// of being indistinguishable from a missing deployment.
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := r.PathValue("id")

	deployment, err := h.store.GetDeployment(ctx, id)
	if err != nil {
		if err == store.ErrNotFound {
			httputil.WriteAPIError(w, r, constants.ErrDeploymentNotFound)
			return
		}
		httputil.WriteAPIError(w, r, constants.ErrFailedToCancelDeployment)
		return
	}
	if deployment.Status != store.DeploymentQueued && deployment.Status != store.DeploymentBuilding {
		httputil.WriteAPIError(w, r, constants.ErrDeploymentNotCancelable)
		return
	}

	now := time.Now().UTC()
	if err := h.store.CancelDeployment(ctx, id, now); err != nil {
		if err == store.ErrNotFound {
			httputil.WriteAPIError(w, r, constants.ErrDeploymentNotCancelable)
			return
		}
		httputil.WriteAPIError(w, r, constants.ErrFailedToCancelDeployment)
		return
	}

	if h.publisher != nil {
		_ = h.publisher.Publish(ctx, "deployments."+id+".status", events.DeploymentEvent{
			DeploymentID: id,
			ProjectID:    deployment.ProjectID,
			Status:       string(store.DeploymentCanceled),
			OccurredAt:   now,
		})
	}

	deployment.Status = store.DeploymentCanceled
	deployment.FinishedAt = &now
	httputil.WriteAPISuccess(w, r, constants.SuccessDeploymentCanceled, deployment)
}

func (h *Handler) Logs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := r.PathValue("id")

	to := time.Now().UTC()
	from := to.Add(-24 * time.Hour)

	lines, err := h.logs.ReadLogs(ctx, id, from, to)
	if err != nil {
		httputil.WriteAPIError(w, r, constants.ErrFailedToReadLogs)
		return
	}

	httputil.WriteAPISuccess(w, r, constants.SuccessLogsFound, lines)
}
