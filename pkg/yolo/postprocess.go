package yolo

import (
	"sort"
)

// outputRows is the number of candidate boxes YOLOv5 emits for a square
// input: three anchors on each of the stride 8, 16 and 32 grids.
func outputRows(size int) int {
	rows := 0
	for _, stride := range []int{8, 16, 32} {
		g := size / stride
		rows += 3 * g * g
	}
	return rows
}

// decodeOutput reads the [rows, 5+classes] output matrix and keeps boxes whose
// objectness times best class score exceeds conf. Boxes stay in canvas
// coordinates.
func decodeOutput(data []float32, rows, classes int, conf float32) []Prediction {
	stride := 5 + classes
	predictions := make([]Prediction, 0, 64)

	for r := 0; r < rows; r++ {
		row := data[r*stride : (r+1)*stride]

		objectness := row[4]
		if objectness <= conf {
			continue
		}

		best, class := float32(0), 0
		for c := 0; c < classes; c++ {
			if score := row[5+c] * objectness; score > best {
				best, class = score, c
			}
		}
		if best <= conf {
			continue
		}

		cx, cy, w, h := row[0], row[1], row[2], row[3]
		predictions = append(predictions, Prediction{
			Box:        [4]float32{cx - w/2, cy - h/2, cx + w/2, cy + h/2},
			Confidence: best,
			Class:      class,
		})
	}

	return predictions
}

// nonMaxSuppression drops boxes overlapping a higher scored box of the same
// class by more than iou. The result is ordered by descending confidence.
func nonMaxSuppression(predictions []Prediction, iou float32, maxDetections int) []Prediction {
	sort.SliceStable(predictions, func(i, j int) bool {
		return predictions[i].Confidence > predictions[j].Confidence
	})

	kept := make([]Prediction, 0, len(predictions))
	suppressed := make([]bool, len(predictions))

	for i := range predictions {
		if suppressed[i] {
			continue
		}
		kept = append(kept, predictions[i])
		if len(kept) == maxDetections {
			break
		}

		for j := i + 1; j < len(predictions); j++ {
			if suppressed[j] || predictions[j].Class != predictions[i].Class {
				continue
			}
			if intersectionOverUnion(predictions[i].Box, predictions[j].Box) > iou {
				suppressed[j] = true
			}
		}
	}

	return kept
}

func intersectionOverUnion(a, b [4]float32) float32 {
	x1 := max(a[0], b[0])
	y1 := max(a[1], b[1])
	x2 := min(a[2], b[2])
	y2 := min(a[3], b[3])

	inter := max(0, x2-x1) * max(0, y2-y1)
	areaA := (a[2] - a[0]) * (a[3] - a[1])
	areaB := (b[2] - b[0]) * (b[3] - b[1])

	union := areaA + areaB - inter
	if union <= 0 {
		return 0
	}
	return inter / union
}

// scaleBoxes maps boxes from canvas back to source coordinates and clips them
// to the source bounds.
func scaleBoxes(predictions []Prediction, lb letterbox, width, height int) {
	w, h := float32(width), float32(height)
	gain := float32(lb.Gain)
	padX, padY := float32(lb.PadX), float32(lb.PadY)

	for i := range predictions {
		box := &predictions[i].Box
		box[0] = clamp((box[0]-padX)/gain, 0, w)
		box[1] = clamp((box[1]-padY)/gain, 0, h)
		box[2] = clamp((box[2]-padX)/gain, 0, w)
		box[3] = clamp((box[3]-padY)/gain, 0, h)
	}
}

func clamp(v, lo, hi float32) float32 {
	return min(max(v, lo), hi)
}

func postprocess(output []float32, rows, classes int, cfg Config, lb letterbox, width, height int) []Prediction {
	predictions := decodeOutput(output, rows, classes, cfg.ConfThreshold)
	predictions = nonMaxSuppression(predictions, cfg.IoUThreshold, cfg.MaxDetections)
	scaleBoxes(predictions, lb, width, height)
	return predictions
}
