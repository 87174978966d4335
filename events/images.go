package events

import (
	"bytes"
	"fmt"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"net/http"

	"hackconnect/models"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"
)

const (
	thumbWidth  = 300
	thumbHeight = 200
	maxImage    = 10 << 20
)

// Upload is an image attached to a new event.
type Upload struct {
	Filename string
	Data     []byte
}

var imageExts = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// sniffImage checks the upload is an image we can thumbnail and returns
// its content type and extension.
func sniffImage(data []byte) (string, string, error) {
	if len(data) == 0 {
		return "", "", models.Invalidf("Image file is empty")
	}
	if len(data) > maxImage {
		return "", "", models.Invalidf("Image file is too large")
	}
	ct := http.DetectContentType(data)
	ext, ok := imageExts[ct]
	if !ok {
		return "", "", models.Invalidf("Invalid file type %s", ct)
	}
	return ct, ext, nil
}

// thumbnail crops the image to 300x200 and encodes it as JPEG.
func thumbnail(data []byte) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, models.Invalidf("Unable to decode image: %v", err)
	}
	thumb := imaging.Fill(img, thumbWidth, thumbHeight, imaging.Center, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, imaging.JPEG, imaging.JPEGQuality(85)); err != nil {
		return nil, fmt.Errorf("encode thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}
