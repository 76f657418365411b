package status

import "QualityCheck/internal/entity"

type StatusResponse struct {
	Status string             `json:"status"`
	Cuda   *entity.HostStatus `json:"cuda"`
}
