package entity

// Detection is one recognized object in an uploaded image.
type Detection struct {
	Class      int     `json:"class"`
	ClassName  string  `json:"class_name"`
	BBox       [4]int  `json:"bbox"`
	Confidence float64 `json:"confidence"`
}

// DetectionBatch groups detections per input image. The API submits one
// image per request, so it always holds exactly one inner slice.
type DetectionBatch [][]Detection
