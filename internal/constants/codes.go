package constants

// Codes used in API responses.
// Error codes are returned in the "error" field and success codes in
// the "code" field.
const (
	// Common error codes
	CodeInvalidRequest = "INVALID_REQUEST"
	CodeInternalError  = "INTERNAL_ERROR"
	CodeForbidden      = "FORBIDDEN"

	// Project/deployment codes
	CodeProjectNotFound         = "PROJECT_NOT_FOUND"
	CodeProjectExists           = "PROJECT_ALREADY_EXISTS"
	CodeDeploymentNotFound      = "DEPLOYMENT_NOT_FOUND"
	CodeDeploymentNotCancelable = "DEPLOYMENT_NOT_CANCELABLE"
	CodeInvalidOperation        = "INVALID_OPERATION"

	// Auth-specific codes
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeUserAlreadyExists  = "USER_ALREADY_EXISTS"

	// Admission control codes
	CodeTooManyRequests  = "TOO_MANY_REQUESTS"
	CodeStoreUnavailable = "RATE_LIMIT_STORE_UNAVAILABLE"

	// Downstream codes
	CodeChatProviderError = "CHAT_PROVIDER_ERROR"
	CodeRepoNotFound      = "REPO_NOT_FOUND"
	CodeRepoInaccessible  = "REPO_INACCESSIBLE"

	// Success codes - project/deployment operations
	CodeProjectCreated     = "PROJECT_CREATED"
	CodeProjectFound       = "PROJECT_FOUND"
	CodeDeploymentCreated  = "DEPLOYMENT_CREATED"
	CodeDeploymentFound    = "DEPLOYMENT_FOUND"
	CodeDeploymentCanceled = "DEPLOYMENT_CANCELED"
	CodeLogsFound          = "DEPLOYMENT_LOGS_FOUND"

	// Success codes - auth operations
	CodeUserRegistered = "USER_REGISTERED"
	CodeLoginSuccess   = "LOGIN_SUCCESS"
	CodeUserFound      = "USER_FOUND"

	// Success codes - admission-gated downstreams
	CodeChatCompleted = "CHAT_COMPLETED"
	CodeRepoValidated = "REPO_VALIDATED"
)
