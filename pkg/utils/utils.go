package utils

import (
	"bytes"
	"crypto/rand"
	"errors"
	"image"
	"io"
	"mime/multipart"
	"time"

	"github.com/disintegration/imaging"
	"github.com/oklog/ulid/v2"
	_ "golang.org/x/image/webp"
)

var ErrEmptyImage = errors.New("empty image payload")

type IUtils interface {
	NewULIDFromTimestamp(t time.Time) (string, error)
	ReadFormFile(file *multipart.FileHeader) ([]byte, error)
	DecodeImage(data []byte) (image.Image, error)
}

type utils struct{}

func New() IUtils {
	return &utils{}
}

func (u *utils) NewULIDFromTimestamp(t time.Time) (string, error) {
	ms := ulid.Timestamp(t)
	entropy := ulid.Monotonic(rand.Reader, 0)

	id, err := ulid.New(ms, entropy)
	if err != nil {
		return "", err
	}

	return id.String(), nil
}

func (u *utils) ReadFormFile(file *multipart.FileHeader) ([]byte, error) {
	src, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer src.Close()

	return io.ReadAll(src)
}

// DecodeImage decodes JPEG, PNG, GIF, BMP, TIFF and WebP payloads and applies
// the EXIF orientation tag.
func (u *utils) DecodeImage(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, ErrEmptyImage
	}

	return imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
}
