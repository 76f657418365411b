package statusService

import (
	"QualityCheck/internal/api/status"
	"QualityCheck/internal/entity"
	"QualityCheck/pkg/cuda"
	"QualityCheck/pkg/response"
	"context"

	"github.com/sirupsen/logrus"
)

type IStatusService interface {
	Status(ctx context.Context) (status.StatusResponse, error)
}

type statusService struct {
	log    *logrus.Logger
	prober cuda.IProber
}

func NewStatusService(log *logrus.Logger, prober cuda.IProber) IStatusService {
	return &statusService{
		log:    log,
		prober: prober,
	}
}

// Status queries the accelerator on every call.
func (s *statusService) Status(ctx context.Context) (status.StatusResponse, error) {
	if s.prober == nil {
		return status.StatusResponse{Status: "ok", Cuda: &entity.HostStatus{Available: false}}, nil
	}

	host, err := s.prober.Probe()
	if err != nil {
		return status.StatusResponse{}, response.Wrap(status.ErrEnvironmentQuery, err)
	}

	return status.StatusResponse{Status: "ok", Cuda: host}, nil
}
