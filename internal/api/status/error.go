package status

import (
	"QualityCheck/pkg/response"
	"net/http"
)

var (
	ErrEnvironmentQuery = response.NewError(http.StatusInternalServerError, "failed to query accelerator status")
)
