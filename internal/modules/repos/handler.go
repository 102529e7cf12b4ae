// Package repos exposes the code-hosting validator behind the
// admission middleware.
package repos

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/flarenet/platform/internal/codehosting"
	"github.com/flarenet/platform/internal/constants"
	"github.com/flarenet/platform/internal/httputil"
)

type ValidateRequest struct {
	FullName string `json:"fullName" validate:"required,repo_full_name"`
}

type Handler struct {
	validator *codehosting.Validator
}

func NewHandler(validator *codehosting.Validator) *Handler {
	return &Handler{validator: validator}
}

func (h *Handler) Validate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req ValidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteAPIError(w, r, constants.ErrInvalidRequestBody.WithMessage("JSON decode error: "+err.Error()))
		return
	}
	if req.FullName == "" {
		httputil.WriteAPIError(w, r, constants.ErrInvalidRepoFullName)
		return
	}

	repo, err := h.validator.Validate(ctx, req.FullName)
	if err != nil {
		switch {
		case errors.Is(err, codehosting.ErrRepoNotFound):
			httputil.WriteAPIError(w, r, constants.ErrRepoNotFound)
		case errors.Is(err, codehosting.ErrRepoInaccessible):
			httputil.WriteAPIError(w, r, constants.ErrRepoInaccessible)
		default:
			httputil.WriteAPIError(w, r, constants.ErrInternalError.WithMessage(err.Error()))
		}
		return
	}

	httputil.WriteAPISuccess(w, r, constants.SuccessRepoValidated, repo)
}
