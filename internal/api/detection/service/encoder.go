package detectionService

import (
	"QualityCheck/internal/entity"
	"QualityCheck/pkg/yolo"
)

// EncodeResults converts raw model output into the API shape. Order follows
// the model; coordinates are truncated to whole pixels.
func EncodeResults(batch yolo.Batch, labels yolo.Labels) entity.DetectionBatch {
	out := make(entity.DetectionBatch, 0, len(batch))

	for _, predictions := range batch {
		detections := make([]entity.Detection, 0, len(predictions))
		for _, p := range predictions {
			detections = append(detections, entity.Detection{
				Class:      p.Class,
				ClassName:  labels.Name(p.Class),
				BBox:       [4]int{int(p.Box[0]), int(p.Box[1]), int(p.Box[2]), int(p.Box[3])},
				Confidence: float64(p.Confidence),
			})
		}
		out = append(out, detections)
	}

	return out
}
