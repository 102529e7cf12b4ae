package constants

import "net/http"

// APIError represents a standardized API error with code, message, and HTTP status.
// Use these predefined errors for consistent API responses across the application.
type APIError struct {
	Code    string
	Message string
	Status  int
}

// WithMessage returns a copy of the APIError with a custom message.
// Useful for validation errors or other dynamic messages.
func (e APIError) WithMessage(message string) APIError {
	return APIError{
		Code:    e.Code,
		Message: message,
		Status:  e.Status,
	}
}

// Common errors - shared across multiple modules
var (
	ErrInvalidRequestBody = APIError{
		Code:    CodeInvalidRequest,
		Message: MsgInvalidRequestBody,
		Status:  http.StatusBadRequest,
	}
	ErrInternalError = APIError{
		Code:    CodeInternalError,
		Message: MsgInternalError,
		Status:  http.StatusInternalServerError,
	}
)

// Project/deployment errors
var (
	ErrProjectNotFound = APIError{
		Code:    CodeProjectNotFound,
		Message: MsgProjectNotFound,
		Status:  http.StatusNotFound,
	}
	ErrProjectAlreadyExists = APIError{
		Code:    CodeProjectExists,
		Message: MsgProjectAlreadyExists,
		Status:  http.StatusConflict,
	}
	ErrDeploymentNotFound = APIError{
		Code:    CodeDeploymentNotFound,
		Message: MsgDeploymentNotFound,
		Status:  http.StatusNotFound,
	}
	ErrDeploymentNotCancelable = APIError{
		Code:    CodeDeploymentNotCancelable,
		Message: MsgDeploymentNotCancelable,
		Status:  http.StatusConflict,
	}
	ErrFailedToCancelDeployment = APIError{
		Code:    CodeInternalError,
		Message: MsgFailedToCancelDeploy,
		Status:  http.StatusInternalServerError,
	}
	ErrFailedToCheckProject = APIError{
		Code:    CodeInternalError,
		Message: MsgFailedToCheckProject,
		Status:  http.StatusInternalServerError,
	}
	ErrFailedToFindProject = APIError{
		Code:    CodeInternalError,
		Message: MsgFailedToFindProject,
		Status:  http.StatusInternalServerError,
	}
	ErrFailedToCreateProject = APIError{
		Code:    CodeInternalError,
		Message: MsgFailedToCreateProject,
		Status:  http.StatusInternalServerError,
	}
	ErrFailedToCreateDeployment = APIError{
		Code:    CodeInternalError,
		Message: MsgFailedToCreateDeploy,
		Status:  http.StatusInternalServerError,
	}
	ErrFailedToListDeployments = APIError{
		Code:    CodeInternalError,
		Message: MsgFailedToListDeploys,
		Status:  http.StatusInternalServerError,
	}
	ErrFailedToReadLogs = APIError{
		Code:    CodeInternalError,
		Message: MsgFailedToReadLogs,
		Status:  http.StatusInternalServerError,
	}
	ErrInvalidRepoFullName = APIError{
		Code:    CodeInvalidRequest,
		Message: MsgInvalidRepoFullName,
		Status:  http.StatusBadRequest,
	}
	ErrInvalidProjectSlug = APIError{
		Code:    CodeInvalidRequest,
		Message: MsgInvalidProjectSlug,
		Status:  http.StatusBadRequest,
	}
)

// Auth-related errors
var (
	ErrUserAlreadyExists = APIError{
		Code:    CodeUserAlreadyExists,
		Message: MsgUserAlreadyExists,
		Status:  http.StatusConflict,
	}
	ErrInvalidCredentials = APIError{
		Code:    CodeInvalidCredentials,
		Message: MsgInvalidCredentials,
		Status:  http.StatusUnauthorized,
	}
	ErrUnauthorized = APIError{
		Code:    CodeUnauthorized,
		Message: MsgUserNotFound,
		Status:  http.StatusUnauthorized,
	}
	ErrAuthHeaderRequired = APIError{
		Code:    CodeUnauthorized,
		Message: MsgAuthHeaderRequired,
		Status:  http.StatusUnauthorized,
	}
	ErrInvalidToken = APIError{
		Code:    CodeUnauthorized,
		Message: MsgInvalidToken,
		Status:  http.StatusUnauthorized,
	}
	ErrInvalidTokenClaims = APIError{
		Code:    CodeUnauthorized,
		Message: MsgInvalidTokenClaims,
		Status:  http.StatusUnauthorized,
	}
	ErrFailedToCheckUser = APIError{
		Code:    CodeInternalError,
		Message: MsgFailedToCheckUser,
		Status:  http.StatusInternalServerError,
	}
	ErrFailedToFindUser = APIError{
		Code:    CodeInternalError,
		Message: MsgFailedToFindUser,
		Status:  http.StatusInternalServerError,
	}
	ErrFailedToCreateUser = APIError{
		Code:    CodeInternalError,
		Message: MsgFailedToCreateUser,
		Status:  http.StatusInternalServerError,
	}
	ErrFailedToGenerateToken = APIError{
		Code:    CodeInternalError,
		Message: MsgFailedToGenerateToken,
		Status:  http.StatusInternalServerError,
	}
)

// Admission control errors
var (
	ErrTooManyRequests = APIError{
		Code:    CodeTooManyRequests,
		Message: MsgTooManyRequests,
		Status:  http.StatusTooManyRequests,
	}
	ErrRateLimitInternal = APIError{
		Code:    CodeInternalError,
		Message: MsgRateLimitInternal,
		Status:  http.StatusInternalServerError,
	}
	ErrStoreUnavailable = APIError{
		Code:    CodeStoreUnavailable,
		Message: MsgStoreUnavailable,
		Status:  http.StatusServiceUnavailable,
	}
)

// Downstream errors (LLM chat controller, code-hosting validator)
var (
	ErrChatProviderFailed = APIError{
		Code:    CodeChatProviderError,
		Message: MsgChatProviderFailed,
		Status:  http.StatusBadGateway,
	}
	ErrRepoNotFound = APIError{
		Code:    CodeRepoNotFound,
		Message: MsgRepoNotFound,
		Status:  http.StatusNotFound,
	}
	ErrRepoInaccessible = APIError{
		Code:    CodeRepoInaccessible,
		Message: MsgRepoInaccessible,
		Status:  http.StatusForbidden,
	}
)
