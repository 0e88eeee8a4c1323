package utils

import (
	"bytes"
	"errors"
	"image"
	"image/jpeg"
	"image/png"
	"io"

	"github.com/nfnt/resize"
)

var ErrUnsupportedImage = errors.New("unsupported image format")

type ProcessedImage struct {
	Data        []byte
	ContentType string
	Extension   string
	Width       int
	Height      int
}

// ProcessImage decodes a JPEG or PNG, shrinks it to maxWidth keeping the
// aspect ratio and re-encodes it in its original format.
func ProcessImage(r io.Reader, maxWidth uint) (*ProcessedImage, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, ErrUnsupportedImage
	}

	if maxWidth > 0 && uint(img.Bounds().Dx()) > maxWidth {
		img = resize.Resize(maxWidth, 0, img, resize.Lanczos3)
	}

	var buf bytes.Buffer
	out := &ProcessedImage{
		Width:  img.Bounds().Dx(),
		Height: img.Bounds().Dy(),
	}

	switch format {
	case "jpeg":
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 85}); err != nil {
			return nil, err
		}
		out.ContentType = "image/jpeg"
		out.Extension = ".jpg"
	case "png":
		if err := png.Encode(&buf, img); err != nil {
			return nil, err
		}
		out.ContentType = "image/png"
		out.Extension = ".png"
	default:
		return nil, ErrUnsupportedImage
	}

	out.Data = buf.Bytes()
	return out, nil
}
