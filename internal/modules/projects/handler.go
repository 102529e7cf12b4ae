// Package projects implements project creation and lookup against the
// SQL project store.
package projects

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/flarenet/platform/internal/constants"
	"github.com/flarenet/platform/internal/httputil"
	"github.com/flarenet/platform/internal/store"
	"github.com/flarenet/platform/internal/validation"
)

type CreateRequest struct {
	Slug         string `json:"slug" validate:"required,project_slug"`
	RepoFullName string `json:"repoFullName" validate:"required,repo_full_name"`
	WebhookURL   string `json:"webhookUrl,omitempty" validate:"omitempty,url"`
}

type Handler struct {
	store *store.Store
}

func NewHandler(s *store.Store) *Handler {
	return &Handler{store: s}
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ownerID := r.Header.Get("X-User-Id")

	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteAPIError(w, r, constants.ErrInvalidRequestBody.WithMessage("JSON decode error: "+err.Error()))
		return
	}

	if err := validation.Validate(&req); err != nil {
		httputil.WriteAPIError(w, r, constants.ErrInvalidProjectSlug.WithMessage(err.Error()))
		return
	}

	project, err := h.store.CreateProject(ctx, store.Project{
		ID:           uuid.New().String(),
		OwnerID:      ownerID,
		Slug:         req.Slug,
		RepoFullName: req.RepoFullName,
		WebhookURL:   req.WebhookURL,
		CreatedAt:    time.Now().UTC(),
	})
	if err != nil {
		httputil.WriteAPIError(w, r, constants.ErrFailedToCreateProject)
		return
	}

	httputil.WriteAPISuccess(w, r, constants.SuccessProjectCreated, project)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := r.PathValue("id")

	project, err := h.store.GetProject(ctx, id)
	if err != nil {
		if err == store.ErrNotFound {
			httputil.WriteAPIError(w, r, constants.ErrProjectNotFound)
			return
		}
		httputil.WriteAPIError(w, r, constants.ErrFailedToFindProject)
		return
	}

	httputil.WriteAPISuccess(w, r, constants.SuccessProjectFound, project)
}
