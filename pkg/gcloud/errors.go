/*
Copyright © 2025 NEURAL SYMPHONY
*/
package gcloud

import "errors"

var (
	// ErrToolingUnavailable means the gcloud CLI is missing or unauthenticated.
	// Nothing has been touched in the cloud when this is returned.
	ErrToolingUnavailable = errors.New("gcloud is not installed or not authenticated")

	// ErrQuotaExceeded means the provider rejected instance creation for
	// capacity or quota reasons. Not retryable by this workflow.
	ErrQuotaExceeded = errors.New("GPU quota exceeded")

	// ErrAlreadyExists means the resource being created already exists.
	ErrAlreadyExists = errors.New("resource already exists")

	// ErrNoProject means no project is configured and none was supplied.
	ErrNoProject = errors.New("project ID is required")
)
