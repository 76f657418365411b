package yolo

import (
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
)

var padColor = color.NRGBA{R: 114, G: 114, B: 114, A: 255}

// letterbox records how a source image was placed on the model canvas.
type letterbox struct {
	Gain float64
	PadX float64
	PadY float64
}

// letterboxImage resizes img to fit a size x size canvas keeping its aspect
// ratio and centers it on a grey background.
func letterboxImage(img image.Image, size int) (*image.NRGBA, letterbox) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	gain := math.Min(float64(size)/float64(w), float64(size)/float64(h))
	nw := int(math.Round(float64(w) * gain))
	nh := int(math.Round(float64(h) * gain))
	if nw < 1 {
		nw = 1
	}
	if nh < 1 {
		nh = 1
	}

	left := (size - nw) / 2
	top := (size - nh) / 2

	canvas := imaging.New(size, size, padColor)
	if nw == w && nh == h {
		canvas = imaging.Paste(canvas, img, image.Pt(left, top))
	} else {
		resized := imaging.Resize(img, nw, nh, imaging.Linear)
		canvas = imaging.Paste(canvas, resized, image.Pt(left, top))
	}

	return canvas, letterbox{Gain: gain, PadX: float64(left), PadY: float64(top)}
}

// fillTensor writes canvas into dst as normalized planar RGB.
func fillTensor(dst []float32, canvas *image.NRGBA, size int) {
	channelSize := size * size

	for y := 0; y < size; y++ {
		row := canvas.Pix[y*canvas.Stride:]
		offset := y * size
		for x := 0; x < size; x++ {
			i := offset + x
			p := row[x*4:]
			dst[i] = float32(p[0]) / 255.0
			dst[channelSize+i] = float32(p[1]) / 255.0
			dst[channelSize*2+i] = float32(p[2]) / 255.0
		}
	}
}
