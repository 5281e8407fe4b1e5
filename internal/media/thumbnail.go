package media

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif" // Register GIF decoder
	"image/jpeg"
	_ "image/png" // Register PNG decoder

	"github.com/nfnt/resize"
)

const thumbnailWidth uint = 200
const thumbnailHeight uint = 300

// GenerateThumbnail takes raw image data, resizes it to thumbnail
// dimensions and re-encodes it as a compressed JPEG.
func GenerateThumbnail(imageData []byte) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(imageData))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	// Get image dimensions
	imgHeight := img.Bounds().Dy()
	imgWidth := img.Bounds().Dx()

	var resizedImg image.Image
	if imgHeight > imgWidth {
		resizedImg = resize.Resize(thumbnailWidth, 0, img, resize.Lanczos3)
	} else {
		resizedImg = resize.Resize(0, thumbnailHeight, img, resize.Lanczos3)
	}

	var buf bytes.Buffer
	// Encode the resized image as a JPEG. Quality 75 is a good balance.
	if err := jpeg.Encode(&buf, resizedImg, &jpeg.Options{Quality: 75}); err != nil {
		return nil, fmt.Errorf("failed to encode jpeg: %w", err)
	}

	return buf.Bytes(), nil
}
