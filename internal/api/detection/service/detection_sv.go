package detectionService

import (
	"QualityCheck/internal/api/detection"
	"QualityCheck/internal/entity"
	"QualityCheck/pkg/log"
	"QualityCheck/pkg/response"
	"QualityCheck/pkg/yolo"
	"context"
	"errors"
	"time"
)

func (s *detectionService) Detect(ctx context.Context, imageData []byte) (entity.DetectionBatch, error) {
	logger := log.WithRequestID(s.log, ctx)

	decodeStart := time.Now()
	img, err := s.utils.DecodeImage(imageData)
	if err != nil {
		return nil, response.Wrap(detection.ErrDecode, err)
	}
	decodeTime := time.Since(decodeStart)

	inferStart := time.Now()
	batch, err := s.detector.Detect(ctx, img)
	if err != nil {
		switch {
		case errors.Is(err, yolo.ErrPoolBusy), errors.Is(err, yolo.ErrPoolClosed):
			return nil, response.Wrap(detection.ErrPoolBusy, err)
		case errors.Is(err, yolo.ErrTimeout):
			return nil, response.Wrap(detection.ErrInferenceTimeout, err)
		default:
			return nil, response.Wrap(detection.ErrInference, err)
		}
	}

	result := EncodeResults(batch, s.detector.Labels())
	if len(result) == 0 {
		result = entity.DetectionBatch{{}}
	}

	logger.WithFields(log.Fields{
		"width":        img.Bounds().Dx(),
		"height":       img.Bounds().Dy(),
		"detections":   len(result[0]),
		"decode_ms":    decodeTime.Milliseconds(),
		"inference_ms": time.Since(inferStart).Milliseconds(),
	}).Debug("Inference finished")

	return result, nil
}

func (s *detectionService) PoolMetrics() yolo.Metrics {
	return s.detector.Metrics()
}
