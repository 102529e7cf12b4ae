package constants

import "net/http"

// APISuccess represents a standardized API success response with code and HTTP status.
// Use these predefined success constants for consistent API responses across the application.
type APISuccess struct {
	Code   string
	Status int
}

// Project/deployment success responses
var (
	SuccessProjectCreated = APISuccess{
		Code:   CodeProjectCreated,
		Status: http.StatusCreated,
	}
	SuccessProjectFound = APISuccess{
		Code:   CodeProjectFound,
		Status: http.StatusOK,
	}
	SuccessDeploymentCreated = APISuccess{
		Code:   CodeDeploymentCreated,
		Status: http.StatusCreated,
	}
	SuccessDeploymentFound = APISuccess{
		Code:   CodeDeploymentFound,
		Status: http.StatusOK,
	}
	SuccessDeploymentCanceled = APISuccess{
		Code:   CodeDeploymentCanceled,
		Status: http.StatusOK,
	}
	SuccessLogsFound = APISuccess{
		Code:   CodeLogsFound,
		Status: http.StatusOK,
	}
)

// Auth-related success responses
var (
	SuccessUserRegistered = APISuccess{
		Code:   CodeUserRegistered,
		Status: http.StatusCreated,
	}
	SuccessLoginSuccess = APISuccess{
		Code:   CodeLoginSuccess,
		Status: http.StatusOK,
	}
	SuccessUserFound = APISuccess{
		Code:   CodeUserFound,
		Status: http.StatusOK,
	}
)

// Admission-gated downstream success responses
var (
	SuccessChatCompleted = APISuccess{
		Code:   CodeChatCompleted,
		Status: http.StatusOK,
	}
	SuccessRepoValidated = APISuccess{
		Code:   CodeRepoValidated,
		Status: http.StatusOK,
	}
)
