package detectionService

import (
	"QualityCheck/internal/entity"
	"QualityCheck/pkg/utils"
	"QualityCheck/pkg/yolo"
	"context"

	"github.com/sirupsen/logrus"
)

type IDetectionService interface {
	Detect(ctx context.Context, imageData []byte) (entity.DetectionBatch, error)
	PoolMetrics() yolo.Metrics
}

type detectionService struct {
	log      *logrus.Logger
	detector yolo.Detector
	utils    utils.IUtils
}

func NewDetectionService(
	log *logrus.Logger,
	detector yolo.Detector,
	utils utils.IUtils,
) IDetectionService {
	return &detectionService{
		log:      log,
		detector: detector,
		utils:    utils,
	}
}
