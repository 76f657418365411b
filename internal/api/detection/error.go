package detection

import (
	"QualityCheck/pkg/response"
	"net/http"
)

var (
	ErrDecode           = response.NewError(http.StatusInternalServerError, "failed to decode image")
	ErrInference        = response.NewError(http.StatusInternalServerError, "inference failed")
	ErrMissingFile      = response.NewError(http.StatusUnprocessableEntity, "missing file field")
	ErrPoolBusy         = response.NewError(http.StatusServiceUnavailable, "no model session available")
	ErrInferenceTimeout = response.NewError(http.StatusGatewayTimeout, "inference timed out")
)
