package orgo

import (
	"errors"
	"fmt"
)

// Project groups computers.
type Project struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Computer is a VM as reported by the API.
type Computer struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	ProjectID string `json:"project_id,omitempty"`
	OS        string `json:"os,omitempty"`
	RAM       int    `json:"ram,omitempty"`
	CPU       int    `json:"cpu,omitempty"`
	Status    string `json:"status,omitempty"`
	URL       string `json:"url,omitempty"`
}

// CreateComputerRequest is the body of POST /computers.
type CreateComputerRequest struct {
	ProjectID string `json:"project_id"`
	Name      string `json:"name"`
	OS        string `json:"os"`
	RAM       int    `json:"ram"`
	CPU       int    `json:"cpu"`
}

type createProjectRequest struct {
	Name string `json:"name"`
}

type bashRequest struct {
	Command string `json:"command"`
}

type bashResponse struct {
	Output   string `json:"output"`
	Success  *bool  `json:"success,omitempty"`
	ExitCode *int   `json:"exit_code,omitempty"`
	Error    string `json:"error,omitempty"`
}

type screenshotResponse struct {
	Image string `json:"image"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// APIError is returned for non-2xx responses.
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("orgo API %s %s: status %d", e.Method, e.Path, e.StatusCode)
	}
	return fmt.Sprintf("orgo API %s %s: status %d: %s", e.Method, e.Path, e.StatusCode, e.Message)
}

// IsNotFound reports whether err is an APIError with status 404.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == 404
}
